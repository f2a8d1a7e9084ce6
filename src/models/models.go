package models

import "time"

// StockType identifies how the disposed shares were originally acquired.
type StockType string

const (
	StockTypeRestricted StockType = "RS"    // restricted stock (RSU), acquired on vest
	StockTypeESPP       StockType = "ESPP"  // employee stock purchase plan
	StockTypeTrade      StockType = "TRADE" // regular brokerage trade
)

// TransactionSource identifies the account the disposal came from.
type TransactionSource string

const (
	SourceEquityAwards TransactionSource = "EAC"
	SourceIndividual   TransactionSource = "Individual"
)

// SaleTransaction is one matched disposal of foreign shares. Parsers create
// it with the USD fields and the holding-period classification; the gains
// processor fills the rate and INR fields exactly once. After that the
// value is read-only all the way into reporting.
type SaleTransaction struct {
	SaleDate        time.Time         `json:"sale_date"`
	AcquisitionDate time.Time         `json:"acquisition_date"`
	StockType       StockType         `json:"stock_type"`
	Symbol          string            `json:"symbol"`
	Source          TransactionSource `json:"source"`
	GrantID         string            `json:"grant_id,omitempty"`

	Shares              float64 `json:"shares"`
	SalePriceUSD        float64 `json:"sale_price_usd"`
	AcquisitionPriceUSD float64 `json:"acquisition_price_usd"`
	GrossProceedsUSD    float64 `json:"gross_proceeds_usd"`
	FeesUSD             float64 `json:"fees_usd"`

	HoldingPeriodDays int  `json:"holding_period_days"`
	IsLongTerm        bool `json:"is_long_term"`

	// Populated by the gains processor.
	SaleExchangeRate        float64 `json:"sale_exchange_rate"`
	AcquisitionExchangeRate float64 `json:"acquisition_exchange_rate"`
	SalePriceINR            float64 `json:"sale_price_inr"`
	AcquisitionPriceINR     float64 `json:"acquisition_price_inr"`
	FeesINR                 float64 `json:"fees_inr"`
	CapitalGainUSD          float64 `json:"capital_gain_usd"`
	CapitalGainINR          float64 `json:"capital_gain_inr"`
}

// TotalSaleINR is the full disposal value in INR.
func (t *SaleTransaction) TotalSaleINR() float64 {
	return t.SalePriceINR * t.Shares
}

// TotalAcquisitionINR is the full cost basis in INR.
func (t *SaleTransaction) TotalAcquisitionINR() float64 {
	return t.AcquisitionPriceINR * t.Shares
}

// StockLot is an open purchase position consumed during FIFO matching.
// Lots live inside one matching pass; Remaining is decremented as sells
// consume the lot and never goes below zero.
type StockLot struct {
	PurchaseDate time.Time `json:"purchase_date"`
	Symbol       string    `json:"symbol"`
	Quantity     float64   `json:"quantity"`
	Price        float64   `json:"price"`
	Remaining    float64   `json:"remaining"`
}

// NewStockLot creates a lot with Remaining initialized to the full quantity.
func NewStockLot(purchaseDate time.Time, symbol string, quantity, price float64) *StockLot {
	return &StockLot{
		PurchaseDate: purchaseDate,
		Symbol:       symbol,
		Quantity:     quantity,
		Price:        price,
		Remaining:    quantity,
	}
}

// IndianGains is a pre-aggregated gain/loss bundle from one Indian source.
// The tax engine trusts the aggregate; the transaction detail and charges
// are carried through for reporting only.
type IndianGains struct {
	Source       string                   `json:"source"`
	LTCG         float64                  `json:"ltcg"` // signed, negative = loss
	STCG         float64                  `json:"stcg"` // signed, negative = loss
	Dividends    float64                  `json:"dividends"`
	Transactions []map[string]interface{} `json:"transactions,omitempty"`
	Charges      map[string]float64       `json:"charges,omitempty"`
}

// Total is LTCG + STCG.
func (g *IndianGains) Total() float64 {
	return g.LTCG + g.STCG
}
