package services

import (
	"io"
	"time"

	"github.com/username/capgains/backend/src/models"
)

// CalculationInput is one batch of independently supplied broker sources.
// Any reader may be nil; a calculation runs with whatever is present.
type CalculationInput struct {
	// Foreign sources (USD), parsed and FIFO-matched.
	EACFile       io.Reader
	BrokerageFile io.Reader

	// Indian sources, consumed as pre-aggregated bundles.
	GrowwStocksFile io.Reader
	GrowwMFFile     io.Reader
	ZerodhaFile     io.Reader

	// Optional user-supplied rate tables, highest to lowest precedence
	// below the auto-fetched feed.
	CustomRatesFile io.Reader // JSON {"YYYY-MM-DD": rate}
	EmailRatesFile  io.Reader // rates recovered from legacy perquisite emails

	StartDate time.Time // disposals before this date are out of scope
	TaxesPaid float64   // advance tax / TDS already paid, INR
	UseRates  bool      // false forces approximate-only conversion
}

// SourceError records a structural failure in one uploaded source. One bad
// file must not abort the batch; the failing source is reported and the
// rest proceed.
type SourceError struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// CalculationResult is the complete outcome of one run.
type CalculationResult struct {
	ID           string                   `json:"id"`
	CreatedAt    time.Time                `json:"created_at"`
	Transactions []models.SaleTransaction `json:"transactions"`
	IndianGains  []models.IndianGains     `json:"indian_gains"`
	TaxData      models.TaxData           `json:"tax_data"`
	RatesUsed    models.RateTable         `json:"rates_used"`
	Diagnostics  []models.Diagnostic      `json:"diagnostics"`
	SourceErrors []SourceError            `json:"source_errors,omitempty"`
}

// CalculationService runs calculations and retains their results.
type CalculationService interface {
	Calculate(input CalculationInput) (*CalculationResult, error)
	GetResult(id string) (*CalculationResult, error)
}

// RateService assembles the merged exchange-rate table and persists
// resolved rates between runs.
type RateService interface {
	// AssembleTable merges all sources in precedence order:
	// saved -> email-derived -> uploaded custom -> auto-fetched feed.
	AssembleTable(emailDerived, uploaded models.RateTable) models.RateTable
	ParseRatesJSON(r io.Reader) (models.RateTable, error)
	FetchFeedRates() (models.RateTable, error)
	LoadSavedRates() (models.RateTable, error)
	SaveRates(table models.RateTable, source models.RateSource) error
}

// ReportService renders a calculation into a downloadable workbook.
type ReportService interface {
	WriteWorkbook(w io.Writer, result *CalculationResult) error
}
