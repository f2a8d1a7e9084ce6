// Package groww parses Groww capital-gains workbooks (stocks and mutual
// funds). The reports already state net LTCG/STCG, so parsing reduces to
// locating the summary cells and carrying the detail rows through for the
// report.
package groww

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/username/capgains/backend/src/logger"
	"github.com/username/capgains/backend/src/models"
)

// chargeFields are the summary charge rows of the stocks report.
var chargeFields = map[string]bool{
	"Exchange Transaction Charges": true,
	"SEBI Charges":                 true,
	"STT":                          true,
	"Stamp Duty":                   true,
	"Brokerage":                    true,
	"DP Charges":                   true,
	"Total GST":                    true,
}

// StocksParser reads the Groww stocks capital gains report.
type StocksParser struct{}

func NewStocksParser() *StocksParser {
	return &StocksParser{}
}

func (p *StocksParser) Parse(file io.Reader) (models.IndianGains, error) {
	result := models.IndianGains{Source: "Indian Stocks", Charges: make(map[string]float64)}

	rows, err := readFirstSheet(file)
	if err != nil {
		return result, fmt.Errorf("error reading Groww stocks report: %w", err)
	}

	currentSection := ""
	for _, row := range rows {
		first := cell(row, 0)

		switch first {
		case "":
			continue
		case "Short Term P&L":
			result.STCG = parseFloat(cell(row, 1))
		case "Long Term P&L":
			result.LTCG = parseFloat(cell(row, 1))
		case "Dividends":
			result.Dividends = parseFloat(cell(row, 1))
		case "Intraday trades":
			currentSection = "Intraday"
		case "Short Term trades":
			currentSection = "Short Term"
		case "Long Term trades":
			currentSection = "Long Term"
		case "Stock name":
			// Column header row inside a section.
		default:
			if chargeFields[first] {
				result.Charges[first] = parseFloat(cell(row, 1))
			} else if currentSection != "" {
				if txn := parseStockRow(row, currentSection); txn != nil {
					result.Transactions = append(result.Transactions, txn)
				}
			}
		}
	}

	if logger.L != nil {
		logger.L.Info("Parsed Groww stocks report",
			"stcg", result.STCG, "ltcg", result.LTCG, "transactionCount", len(result.Transactions))
	}
	return result, nil
}

func parseStockRow(row []string, section string) map[string]interface{} {
	// A transaction row has at least a quantity and a buy date.
	if cell(row, 2) == "" || cell(row, 3) == "" {
		return nil
	}
	return map[string]interface{}{
		"section":    section,
		"stock_name": cell(row, 0),
		"isin":       cell(row, 1),
		"quantity":   parseFloat(cell(row, 2)),
		"buy_date":   cell(row, 3),
		"buy_price":  parseFloat(cell(row, 4)),
		"buy_value":  parseFloat(cell(row, 5)),
		"sell_date":  cell(row, 6),
		"sell_price": parseFloat(cell(row, 7)),
		"sell_value": parseFloat(cell(row, 8)),
		"pnl":        parseFloat(cell(row, 9)),
	}
}

// MutualFundsParser reads the Groww mutual funds capital gains report.
// The equity summary row carries taxable STCG in its fourth column and
// taxable LTCG in its fifth.
type MutualFundsParser struct{}

func NewMutualFundsParser() *MutualFundsParser {
	return &MutualFundsParser{}
}

func (p *MutualFundsParser) Parse(file io.Reader) (models.IndianGains, error) {
	result := models.IndianGains{Source: "Indian Mutual Funds", Charges: make(map[string]float64)}

	rows, err := readFirstSheet(file)
	if err != nil {
		return result, fmt.Errorf("error reading Groww mutual funds report: %w", err)
	}

	inSummary := false
	inData := false
	for _, row := range rows {
		if cell(row, 2) == "Asset Class / Category" {
			inSummary = true
			continue
		}
		if inSummary && !inData && cell(row, 2) == "Equity" {
			result.STCG = parseFloat(cell(row, 3))
			result.LTCG = parseFloat(cell(row, 4))
			inSummary = false
			continue
		}
		if cell(row, 0) == "Scheme Name" {
			inData = true
			continue
		}
		if inData && cell(row, 0) != "" {
			if txn := parseFundRow(row); txn != nil {
				result.Transactions = append(result.Transactions, txn)
			}
		}
	}

	if logger.L != nil {
		logger.L.Info("Parsed Groww mutual funds report",
			"stcg", result.STCG, "ltcg", result.LTCG, "transactionCount", len(result.Transactions))
	}
	return result, nil
}

func parseFundRow(row []string) map[string]interface{} {
	stcg := parseFloat(cell(row, 12))
	ltcg := parseFloat(cell(row, 13))
	classification := "STCG"
	if ltcg != 0 {
		classification = "LTCG"
	}
	return map[string]interface{}{
		"scheme_name":    cell(row, 0),
		"folio":          cell(row, 3),
		"purchase_date":  cell(row, 5),
		"quantity":       parseFloat(cell(row, 6)),
		"purchase_price": parseFloat(cell(row, 7)),
		"redeem_date":    cell(row, 9),
		"redeem_price":   parseFloat(cell(row, 11)),
		"stcg":           stcg,
		"ltcg":           ltcg,
		"classification": classification,
	}
}

func readFirstSheet(file io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheet)
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseFloat(value string) float64 {
	cleaned := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if cleaned == "" {
		return 0
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return f
}
