// Package eac parses Equity Award Center transaction exports (RSU vests
// and ESPP purchases sold through the equity-compensation account).
package eac

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/username/capgains/backend/src/models"
	"github.com/username/capgains/backend/src/utils"
)

type transactionFile struct {
	Transactions []transaction `json:"Transactions"`
}

type transaction struct {
	Action             string          `json:"Action"`
	Date               string          `json:"Date"`
	Symbol             string          `json:"Symbol"`
	FeesAndCommissions string          `json:"FeesAndCommissions"`
	TransactionDetails []detailWrapper `json:"TransactionDetails"`
}

type detailWrapper struct {
	Details detail `json:"Details"`
}

type detail struct {
	Type                    string `json:"Type"`
	Shares                  string `json:"Shares"`
	SalePrice               string `json:"SalePrice"`
	GrossProceeds           string `json:"GrossProceeds"`
	GrantID                 string `json:"GrantId"`
	VestDate                string `json:"VestDate"`
	VestFairMarketValue     string `json:"VestFairMarketValue"`
	PurchaseDate            string `json:"PurchaseDate"`
	PurchaseFairMarketValue string `json:"PurchaseFairMarketValue"`
}

// Parser normalizes EAC sale records into SaleTransactions. Each nested
// lot detail becomes one transaction; per-sale fees are apportioned to the
// lots by share count.
type Parser struct {
	longTermDays int
}

func NewParser(longTermDays int) *Parser {
	return &Parser{longTermDays: longTermDays}
}

func (p *Parser) Parse(file io.Reader, startDate time.Time) ([]models.SaleTransaction, []models.Diagnostic, error) {
	var parsed transactionFile
	if err := json.NewDecoder(file).Decode(&parsed); err != nil {
		return nil, nil, fmt.Errorf("error decoding EAC transaction file: %w", err)
	}

	var sales []models.SaleTransaction
	var diagnostics []models.Diagnostic

	for _, txn := range parsed.Transactions {
		if txn.Action != "Sale" {
			continue
		}

		saleDate := utils.ParseUSDate(txn.Date)
		if saleDate.IsZero() || saleDate.Before(startDate) {
			continue
		}

		totalFees := utils.ParseCurrency(txn.FeesAndCommissions)
		totalShares := 0.0
		for _, dw := range txn.TransactionDetails {
			totalShares += parseShares(dw.Details.Shares)
		}

		for _, dw := range txn.TransactionDetails {
			shares := parseShares(dw.Details.Shares)
			if shares == 0 {
				continue
			}

			feesForLot := 0.0
			if totalShares > 0 {
				feesForLot = totalFees * shares / totalShares
			}

			sale, ok := p.normalize(dw.Details, saleDate, txn.Symbol, shares, feesForLot)
			if !ok {
				diagnostics = append(diagnostics, models.Diagnostic{
					Kind:   models.DiagSkippedRecord,
					Symbol: txn.Symbol,
					Date:   utils.FormatISODate(saleDate),
					Detail: fmt.Sprintf("unrecognized lot type %q or missing acquisition data, record skipped", dw.Details.Type),
				})
				continue
			}
			sales = append(sales, sale)
		}
	}

	return sales, diagnostics, nil
}

// normalize builds one SaleTransaction from a lot detail. Restricted stock
// is acquired on its vest date at vest FMV; ESPP shares on their purchase
// date at purchase FMV. Any other type code is rejected.
func (p *Parser) normalize(d detail, saleDate time.Time, symbol string, shares, fees float64) (models.SaleTransaction, bool) {
	var acquisitionDate time.Time
	var acquisitionPrice float64
	var stockType models.StockType

	switch d.Type {
	case string(models.StockTypeRestricted):
		if d.VestDate == "" {
			return models.SaleTransaction{}, false
		}
		acquisitionDate = utils.ParseUSDate(d.VestDate)
		acquisitionPrice = utils.ParseCurrency(d.VestFairMarketValue)
		stockType = models.StockTypeRestricted
	case string(models.StockTypeESPP):
		if d.PurchaseDate == "" {
			return models.SaleTransaction{}, false
		}
		acquisitionDate = utils.ParseUSDate(d.PurchaseDate)
		acquisitionPrice = utils.ParseCurrency(d.PurchaseFairMarketValue)
		stockType = models.StockTypeESPP
	default:
		return models.SaleTransaction{}, false
	}
	if acquisitionDate.IsZero() {
		return models.SaleTransaction{}, false
	}

	holdingDays := int(saleDate.Sub(acquisitionDate).Hours() / 24)

	return models.SaleTransaction{
		SaleDate:            saleDate,
		AcquisitionDate:     acquisitionDate,
		StockType:           stockType,
		Symbol:              symbol,
		Source:              models.SourceEquityAwards,
		GrantID:             d.GrantID,
		Shares:              shares,
		SalePriceUSD:        utils.ParseCurrency(d.SalePrice),
		AcquisitionPriceUSD: acquisitionPrice,
		GrossProceedsUSD:    utils.ParseCurrency(d.GrossProceeds),
		FeesUSD:             fees,
		HoldingPeriodDays:   holdingDays,
		IsLongTerm:          holdingDays > p.longTermDays,
	}, true
}

func parseShares(value string) float64 {
	cleaned := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if cleaned == "" {
		return 0
	}
	shares, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return shares
}
