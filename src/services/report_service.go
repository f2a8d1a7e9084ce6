package services

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/username/capgains/backend/src/logger"
	"github.com/username/capgains/backend/src/utils"
)

const (
	sheetTransactions  = "Foreign Transactions"
	sheetTaxSummary    = "Tax Summary"
	sheetIndianGains   = "Indian Gains"
	sheetExchangeRates = "Exchange Rates"
)

type reportServiceImpl struct{}

func NewReportService() ReportService {
	return &reportServiceImpl{}
}

// WriteWorkbook renders a completed calculation as an xlsx workbook. Every
// intermediate the tax pipeline produced is written out so the filing can
// be cross-checked by hand.
func (s *reportServiceImpl) WriteWorkbook(w io.Writer, result *CalculationResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := s.writeTransactionsSheet(f, result); err != nil {
		return err
	}
	if err := s.writeTaxSummarySheet(f, result); err != nil {
		return err
	}
	if err := s.writeIndianGainsSheet(f, result); err != nil {
		return err
	}
	if err := s.writeRatesSheet(f, result); err != nil {
		return err
	}

	// The default sheet excelize creates is replaced by our first one.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("error removing default sheet: %w", err)
	}
	idx, err := f.GetSheetIndex(sheetTransactions)
	if err != nil {
		return fmt.Errorf("error locating transactions sheet: %w", err)
	}
	f.SetActiveSheet(idx)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	logger.L.Debug("Workbook written", "calculationID", result.ID, "transactionCount", len(result.Transactions))
	return nil
}

func (s *reportServiceImpl) writeTransactionsSheet(f *excelize.File, result *CalculationResult) error {
	if _, err := f.NewSheet(sheetTransactions); err != nil {
		return fmt.Errorf("error creating transactions sheet: %w", err)
	}

	headers := []interface{}{
		"Sale Date", "Acquisition Date", "Type", "Symbol", "Source", "Grant ID",
		"Shares", "Sale Price (USD)", "Acquisition Price (USD)", "Fees (USD)",
		"Holding Days", "Long Term",
		"Sale Rate", "Acquisition Rate",
		"Sale Value (INR)", "Acquisition Value (INR)", "Fees (INR)", "Capital Gain (INR)",
	}
	if err := f.SetSheetRow(sheetTransactions, "A1", &headers); err != nil {
		return fmt.Errorf("error writing transaction headers: %w", err)
	}

	for i, txn := range result.Transactions {
		term := "Short"
		if txn.IsLongTerm {
			term = "Long"
		}
		row := []interface{}{
			utils.FormatISODate(txn.SaleDate), utils.FormatISODate(txn.AcquisitionDate),
			string(txn.StockType), txn.Symbol, string(txn.Source), txn.GrantID,
			txn.Shares, txn.SalePriceUSD, txn.AcquisitionPriceUSD, txn.FeesUSD,
			txn.HoldingPeriodDays, term,
			txn.SaleExchangeRate, txn.AcquisitionExchangeRate,
			txn.TotalSaleINR(), txn.TotalAcquisitionINR(), txn.FeesINR, txn.CapitalGainINR,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetTransactions, cell, &row); err != nil {
			return fmt.Errorf("error writing transaction row %d: %w", i+2, err)
		}
	}
	return nil
}

func (s *reportServiceImpl) writeTaxSummarySheet(f *excelize.File, result *CalculationResult) error {
	if _, err := f.NewSheet(sheetTaxSummary); err != nil {
		return fmt.Errorf("error creating tax summary sheet: %w", err)
	}

	td := result.TaxData
	rows := [][]interface{}{
		{"Aggregation", ""},
		{"Foreign LTCG", td.SchwabLTCG},
		{"Foreign STCG", td.SchwabSTCG},
		{"Indian LTCG", td.IndianLTCG},
		{"Indian STCG", td.IndianSTCG},
		{"Total LTCG", td.TotalLTCG},
		{"Total STCG", td.TotalSTCG},
		{},
		{"Exemption", ""},
		{"Indian LTCG Exemption Used", td.Exemption.RebateUsed},
		{"Indian LTCG After Exemption", td.Exemption.IndianLTCGAfterRebate},
		{},
		{"Set-Off", ""},
		{"STCG Loss vs Foreign STCG", td.SetOff.STCGLossVsForeignSTCG},
		{"STCG Loss vs Indian STCG", td.SetOff.STCGLossVsIndianSTCG},
		{"STCG Loss vs LTCG", td.SetOff.STCGLossVsLTCG},
		{"LTCG Loss vs LTCG", td.SetOff.LTCGLossVsLTCG},
		{"Taxable Indian LTCG", td.SetOff.IndianLTCGTaxable},
		{"Taxable Foreign LTCG", td.SetOff.ForeignLTCGTaxable},
		{"Taxable Indian STCG", td.SetOff.IndianSTCGTaxable},
		{"Taxable Foreign STCG", td.SetOff.ForeignSTCGTaxable},
		{"Net LTCG", td.SetOff.NetLTCG},
		{"Net STCG", td.SetOff.NetSTCG},
		{},
		{"Tax", ""},
		{"Indian LTCG Tax", td.Taxes.IndianLTCGTax},
		{"Foreign LTCG Tax", td.Taxes.ForeignLTCGTax},
		{"Indian STCG Tax", td.Taxes.IndianSTCGTax},
		{"Foreign STCG Tax", td.Taxes.ForeignSTCGTax},
		{"Total LTCG Tax", td.Taxes.LTCGTax},
		{"Total STCG Tax", td.Taxes.STCGTax},
		{"Total Tax", td.Taxes.TotalTax},
		{},
		{"Taxes Already Paid", td.TaxesPaid},
		{"Tax Liability (negative = refund)", td.TaxLiability},
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := row
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(sheetTaxSummary, cell, &r); err != nil {
			return fmt.Errorf("error writing tax summary row %d: %w", i+1, err)
		}
	}
	return nil
}

func (s *reportServiceImpl) writeIndianGainsSheet(f *excelize.File, result *CalculationResult) error {
	if _, err := f.NewSheet(sheetIndianGains); err != nil {
		return fmt.Errorf("error creating indian gains sheet: %w", err)
	}

	headers := []interface{}{"Source", "LTCG", "STCG", "Dividends", "Total"}
	if err := f.SetSheetRow(sheetIndianGains, "A1", &headers); err != nil {
		return fmt.Errorf("error writing indian gains headers: %w", err)
	}
	for i, g := range result.IndianGains {
		row := []interface{}{g.Source, g.LTCG, g.STCG, g.Dividends, g.Total()}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetIndianGains, cell, &row); err != nil {
			return fmt.Errorf("error writing indian gains row %d: %w", i+2, err)
		}
	}
	return nil
}

func (s *reportServiceImpl) writeRatesSheet(f *excelize.File, result *CalculationResult) error {
	if _, err := f.NewSheet(sheetExchangeRates); err != nil {
		return fmt.Errorf("error creating rates sheet: %w", err)
	}

	headers := []interface{}{"Date", "USD/INR Rate"}
	if err := f.SetSheetRow(sheetExchangeRates, "A1", &headers); err != nil {
		return fmt.Errorf("error writing rate headers: %w", err)
	}

	dates := make([]string, 0, len(result.RatesUsed))
	for date := range result.RatesUsed {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	for i, date := range dates {
		row := []interface{}{date, result.RatesUsed[date]}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetExchangeRates, cell, &row); err != nil {
			return fmt.Errorf("error writing rate row %d: %w", i+2, err)
		}
	}
	return nil
}
