package models

// ExemptionResult records the Sec 112A exemption step. The exemption
// applies only to positive Indian LTCG; a loss passes through untouched.
type ExemptionResult struct {
	Exemption             float64 `json:"ltcg_exemption"`
	RebateUsed            float64 `json:"rebate_used"`
	IndianLTCGAfterRebate float64 `json:"indian_ltcg_after_rebate"`
}

// SetOffResult records the loss set-off step with every gain/loss component
// and every set-off amount retained for audit.
type SetOffResult struct {
	// Gains and losses split out before set-off (losses stored as absolute values).
	ForeignLTCGGain float64 `json:"foreign_ltcg_gain"`
	ForeignLTCGLoss float64 `json:"foreign_ltcg_loss"`
	IndianLTCGGain  float64 `json:"indian_ltcg_gain"`
	IndianLTCGLoss  float64 `json:"indian_ltcg_loss"`
	ForeignSTCGGain float64 `json:"foreign_stcg_gain"`
	ForeignSTCGLoss float64 `json:"foreign_stcg_loss"`
	IndianSTCGGain  float64 `json:"indian_stcg_gain"`
	IndianSTCGLoss  float64 `json:"indian_stcg_loss"`

	// Set-off amounts applied, in priority order.
	STCGLossVsForeignSTCG float64 `json:"stcg_loss_vs_foreign_stcg"`
	STCGLossVsIndianSTCG  float64 `json:"stcg_loss_vs_indian_stcg"`
	STCGLossVsLTCG        float64 `json:"stcg_loss_vs_ltcg"`
	LTCGLossVsLTCG        float64 `json:"ltcg_loss_vs_ltcg"`

	// Taxable bases after set-off. Remaining LTCG is redistributed
	// proportionally to the pre-set-off gain shares.
	ForeignLTCGTaxable float64 `json:"foreign_ltcg_taxable"`
	IndianLTCGTaxable  float64 `json:"indian_ltcg_taxable"`
	ForeignSTCGTaxable float64 `json:"foreign_stcg_taxable"`
	IndianSTCGTaxable  float64 `json:"indian_stcg_taxable"`

	NetLTCG float64 `json:"net_ltcg"`
	NetSTCG float64 `json:"net_stcg"`
}

// TaxResult records the per-category taxes at the injected rates.
type TaxResult struct {
	ForeignLTCGTax float64 `json:"foreign_ltcg_tax"`
	IndianLTCGTax  float64 `json:"indian_ltcg_tax"`
	IndianSTCGTax  float64 `json:"indian_stcg_tax"`
	ForeignSTCGTax float64 `json:"foreign_stcg_tax"`
	LTCGTax        float64 `json:"ltcg_tax"`
	STCGTax        float64 `json:"stcg_tax"`
	TotalTax       float64 `json:"total_tax"`
}

// TaxData is the complete output of one tax allocation run, constructed once
// at the end of the pipeline. Every intermediate step is kept so a report
// can reproduce the calculation line by line.
type TaxData struct {
	// Step 0: aggregation.
	SchwabLTCG float64 `json:"schwab_ltcg"`
	SchwabSTCG float64 `json:"schwab_stcg"`
	IndianLTCG float64 `json:"indian_ltcg"`
	IndianSTCG float64 `json:"indian_stcg"`
	TotalLTCG  float64 `json:"total_ltcg"`
	TotalSTCG  float64 `json:"total_stcg"`

	Exemption ExemptionResult `json:"exemption"`
	SetOff    SetOffResult    `json:"set_off"`
	Taxes     TaxResult       `json:"taxes"`

	// Step 4: liability. Positive = payable, negative = refund due.
	TaxesPaid    float64 `json:"taxes_paid"`
	TaxLiability float64 `json:"tax_liability"`

	// Rates used, for reference on the report.
	IndianLTCGRate  float64 `json:"indian_ltcg_rate"`
	ForeignLTCGRate float64 `json:"foreign_ltcg_rate"`
	IndianSTCGRate  float64 `json:"indian_stcg_rate"`
	ForeignSTCGRate float64 `json:"foreign_stcg_rate"`
}
