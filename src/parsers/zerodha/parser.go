// Package zerodha parses the Zerodha equity P&L workbook.
//
// The report states realized P&L without distinguishing short-term from
// long-term trades and carries no per-lot acquisition dates, so the whole
// realized P&L is conservatively treated as STCG.
package zerodha

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/username/capgains/backend/src/logger"
	"github.com/username/capgains/backend/src/models"
)

// chargeMappings maps the report's charge labels to the names used on the
// final report.
var chargeMappings = map[string]string{
	"Brokerage - Z":                    "Brokerage",
	"Exchange Transaction Charges - Z": "Exchange Transaction Charges",
	"Clearing Charges - Z":             "Clearing Charges",
	"Central GST - Z":                  "Central GST",
	"State GST - Z":                    "State GST",
	"Integrated GST - Z":               "Integrated GST",
	"Securities Transaction Tax - Z":   "STT",
	"SEBI Turnover Fees - Z":           "SEBI Charges",
	"Stamp Duty - Z":                   "Stamp Duty",
	"IPFT":                             "IPFT",
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(file io.Reader) (models.IndianGains, error) {
	result := models.IndianGains{Source: "Zerodha Stocks", Charges: make(map[string]float64)}

	f, err := excelize.OpenReader(file)
	if err != nil {
		return result, fmt.Errorf("error reading Zerodha P&L report: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return result, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return result, fmt.Errorf("error reading Zerodha P&L rows: %w", err)
	}

	inCharges := false
	inData := false
	realizedPnL := 0.0

	// The report body starts in column B.
	for _, row := range rows {
		colB := cell(row, 1)
		colC := cell(row, 2)

		if colB == "Realized P&L" && colC != "" {
			realizedPnL = parseFloat(colC)
			continue
		}
		if colB == "Charges" && colC == "" {
			inCharges = true
			continue
		}
		if inCharges {
			if name, ok := chargeMappings[colB]; ok {
				result.Charges[name] = parseFloat(colC)
				continue
			}
		}
		if colB == "Symbol" {
			inCharges = false
			inData = true
			continue
		}
		if inData && colB != "" {
			if txn := parseTradeRow(row); txn != nil {
				result.Transactions = append(result.Transactions, txn)
			}
		}
	}

	// No holding-period data in this report: everything realized counts
	// as short-term.
	result.STCG = realizedPnL
	result.LTCG = 0

	if logger.L != nil {
		logger.L.Info("Parsed Zerodha P&L report",
			"realizedPnL", realizedPnL, "transactionCount", len(result.Transactions))
	}
	return result, nil
}

func parseTradeRow(row []string) map[string]interface{} {
	symbol := cell(row, 1)
	isin := cell(row, 2)
	if symbol == "" || isin == "" || symbol == "Symbol" || isin == "ISIN" {
		return nil
	}
	return map[string]interface{}{
		"symbol":       symbol,
		"isin":         isin,
		"quantity":     parseFloat(cell(row, 3)),
		"buy_value":    parseFloat(cell(row, 4)),
		"sell_value":   parseFloat(cell(row, 5)),
		"realized_pnl": parseFloat(cell(row, 6)),
		"section":      "Short Term",
	}
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
