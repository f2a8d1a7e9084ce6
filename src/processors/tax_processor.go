package processors

import (
	"math"

	"github.com/username/capgains/backend/src/config"
	"github.com/username/capgains/backend/src/models"
)

// TaxProcessor runs the statutory set-off, exemption and liability pipeline
// over aggregated capital gains. It is a pure function of its inputs: no
// I/O, no mutation of the transactions or gain bundles, and by construction
// it cannot fail for any combination of signs or magnitudes.
//
// The pipeline is fixed:
//
//	Step 0: aggregate foreign transactions and Indian bundles into four buckets
//	Step 1: Sec 112A exemption on positive Indian LTCG only
//	Step 2: ordered loss set-off and proportional LTCG redistribution
//	Step 3: flat rates on the post-set-off taxable bases
//	Step 4: liability = total tax minus taxes already paid
type TaxProcessor struct {
	rates config.TaxConfig
}

func NewTaxProcessor(rates config.TaxConfig) *TaxProcessor {
	return &TaxProcessor{rates: rates}
}

// Calculate produces the full tax breakdown. Every intermediate value is
// retained on the result for audit.
func (p *TaxProcessor) Calculate(
	transactions []models.SaleTransaction,
	indianGains []models.IndianGains,
	taxesPaid float64,
) models.TaxData {
	data := models.TaxData{
		TaxesPaid:       taxesPaid,
		IndianLTCGRate:  p.rates.IndianLTCGRate,
		ForeignLTCGRate: p.rates.ForeignLTCGRate,
		IndianSTCGRate:  p.rates.IndianSTCGRate,
		ForeignSTCGRate: p.rates.ForeignSTCGRate,
	}

	// Step 0: aggregation.
	for _, txn := range transactions {
		if txn.IsLongTerm {
			data.SchwabLTCG += txn.CapitalGainINR
		} else {
			data.SchwabSTCG += txn.CapitalGainINR
		}
	}
	for _, g := range indianGains {
		data.IndianLTCG += g.LTCG
		data.IndianSTCG += g.STCG
	}
	data.TotalLTCG = data.SchwabLTCG + data.IndianLTCG
	data.TotalSTCG = data.SchwabSTCG + data.IndianSTCG

	data.Exemption = p.applyExemption(data.IndianLTCG)
	data.SetOff = p.applySetOff(data.SchwabLTCG, data.Exemption.IndianLTCGAfterRebate, data.SchwabSTCG, data.IndianSTCG)
	data.Taxes = p.computeTaxes(data.SetOff)

	// Step 4: liability. Negative means a refund is due; no floor is
	// applied, the caller owns that decision.
	data.TaxLiability = data.Taxes.TotalTax - taxesPaid

	return data
}

// applyExemption applies the Sec 112A exemption to Indian LTCG. Only a
// positive gain consumes the exemption; a loss passes through unchanged so
// it stays available for set-off.
func (p *TaxProcessor) applyExemption(indianLTCG float64) models.ExemptionResult {
	res := models.ExemptionResult{Exemption: p.rates.LTCGExemption}
	if indianLTCG > 0 {
		res.RebateUsed = math.Min(indianLTCG, p.rates.LTCGExemption)
		res.IndianLTCGAfterRebate = math.Max(0, indianLTCG-p.rates.LTCGExemption)
	} else {
		res.IndianLTCGAfterRebate = indianLTCG
	}
	return res
}

// applySetOff applies the loss set-off provisions. Short-term losses are
// the more versatile kind under the governing rule and are exhausted first:
// against foreign STCG gains (the highest-taxed bucket), then Indian STCG
// gains, then the combined LTCG pool. Long-term losses may only offset
// long-term gains. Remaining LTCG is redistributed to the foreign and
// Indian buckets in proportion to their pre-set-off gain shares.
func (p *TaxProcessor) applySetOff(foreignLTCG, indianLTCGAfterRebate, foreignSTCG, indianSTCG float64) models.SetOffResult {
	res := models.SetOffResult{
		ForeignLTCGGain: math.Max(0, foreignLTCG),
		ForeignLTCGLoss: math.Abs(math.Min(0, foreignLTCG)),
		IndianLTCGGain:  math.Max(0, indianLTCGAfterRebate),
		IndianLTCGLoss:  math.Abs(math.Min(0, indianLTCGAfterRebate)),
		ForeignSTCGGain: math.Max(0, foreignSTCG),
		ForeignSTCGLoss: math.Abs(math.Min(0, foreignSTCG)),
		IndianSTCGGain:  math.Max(0, indianSTCG),
		IndianSTCGLoss:  math.Abs(math.Min(0, indianSTCG)),
	}

	totalLTCGLoss := res.ForeignLTCGLoss + res.IndianLTCGLoss
	totalSTCGLoss := res.ForeignSTCGLoss + res.IndianSTCGLoss
	totalLTCGGain := res.ForeignLTCGGain + res.IndianLTCGGain

	// STCG losses against STCG gains, foreign bucket first.
	stcgLossRemaining := totalSTCGLoss
	res.STCGLossVsForeignSTCG = math.Min(stcgLossRemaining, res.ForeignSTCGGain)
	foreignSTCGAfterSetOff := res.ForeignSTCGGain - res.STCGLossVsForeignSTCG
	stcgLossRemaining -= res.STCGLossVsForeignSTCG

	res.STCGLossVsIndianSTCG = math.Min(stcgLossRemaining, res.IndianSTCGGain)
	indianSTCGAfterSetOff := res.IndianSTCGGain - res.STCGLossVsIndianSTCG
	stcgLossRemaining -= res.STCGLossVsIndianSTCG

	// Remaining STCG losses spill into the LTCG pool.
	res.STCGLossVsLTCG = math.Min(stcgLossRemaining, totalLTCGGain)
	ltcgAfterSTCGSetOff := totalLTCGGain - res.STCGLossVsLTCG

	// LTCG losses only ever offset LTCG gains.
	res.LTCGLossVsLTCG = math.Min(totalLTCGLoss, ltcgAfterSTCGSetOff)
	finalLTCG := ltcgAfterSTCGSetOff - res.LTCGLossVsLTCG

	// Redistribute the surviving LTCG by pre-set-off gain shares. A zero
	// pool means zero shares on both sides, never a division.
	foreignRatio, indianRatio := 0.0, 0.0
	if totalLTCGGain > 0 {
		foreignRatio = res.ForeignLTCGGain / totalLTCGGain
		indianRatio = res.IndianLTCGGain / totalLTCGGain
	}

	res.ForeignLTCGTaxable = finalLTCG * foreignRatio
	res.IndianLTCGTaxable = finalLTCG * indianRatio
	res.ForeignSTCGTaxable = foreignSTCGAfterSetOff
	res.IndianSTCGTaxable = indianSTCGAfterSetOff

	res.NetLTCG = finalLTCG
	res.NetSTCG = foreignSTCGAfterSetOff + indianSTCGAfterSetOff
	return res
}

func (p *TaxProcessor) computeTaxes(setOff models.SetOffResult) models.TaxResult {
	res := models.TaxResult{
		ForeignLTCGTax: setOff.ForeignLTCGTaxable * p.rates.ForeignLTCGRate,
		IndianLTCGTax:  setOff.IndianLTCGTaxable * p.rates.IndianLTCGRate,
		IndianSTCGTax:  setOff.IndianSTCGTaxable * p.rates.IndianSTCGRate,
		ForeignSTCGTax: setOff.ForeignSTCGTaxable * p.rates.ForeignSTCGRate,
	}
	res.LTCGTax = res.ForeignLTCGTax + res.IndianLTCGTax
	res.STCGTax = res.IndianSTCGTax + res.ForeignSTCGTax
	res.TotalTax = res.LTCGTax + res.STCGTax
	return res
}
