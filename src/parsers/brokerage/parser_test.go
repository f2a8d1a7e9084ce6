package brokerage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/capgains/backend/src/models"
)

const sampleExport = `{
  "BrokerageTransactions": [
    {"Action": "Sell", "Date": "03/01/2024", "Symbol": "AAPL", "Quantity": "12", "Price": "$150.00", "Fees & Comm": "$6.00"},
    {"Action": "Buy", "Date": "01/10/2022", "Symbol": "AAPL", "Quantity": "10", "Price": "$100.00"},
    {"Action": "Reinvest Shares", "Date": "06/10/2022", "Symbol": "AAPL", "Quantity": "5", "Price": "$110.00"},
    {"Action": "Qualified Dividend", "Date": "06/10/2022", "Symbol": "AAPL", "Quantity": "", "Price": ""},
    {"Action": "Wire Funds", "Date": "06/11/2022", "Symbol": "", "Quantity": "", "Price": ""}
  ]
}`

func TestParse_SortsAndMatchesFIFO(t *testing.T) {
	p := NewParser(730)
	sales, diagnostics, err := p.Parse(strings.NewReader(sampleExport), time.Time{})
	require.NoError(t, err)
	assert.Empty(t, diagnostics)
	require.Len(t, sales, 2)

	// Records arrive out of order; the oldest lot is still consumed first.
	first, second := sales[0], sales[1]
	assert.Equal(t, 10.0, first.Shares)
	assert.Equal(t, 100.0, first.AcquisitionPriceUSD)
	assert.Equal(t, models.StockTypeTrade, first.StockType)
	assert.Equal(t, models.SourceIndividual, first.Source)
	assert.True(t, first.IsLongTerm)

	assert.Equal(t, 2.0, second.Shares)
	assert.Equal(t, 110.0, second.AcquisitionPriceUSD)
	assert.False(t, second.IsLongTerm)
}

func TestParse_HistoryBeforeStartDateShapesInventory(t *testing.T) {
	export := `{
	  "BrokerageTransactions": [
	    {"Action": "Buy", "Date": "01/10/2022", "Symbol": "AAPL", "Quantity": "10", "Price": "$100.00"},
	    {"Action": "Sell", "Date": "05/01/2023", "Symbol": "AAPL", "Quantity": "4", "Price": "$130.00"},
	    {"Action": "Buy", "Date": "06/01/2023", "Symbol": "AAPL", "Quantity": "3", "Price": "$140.00"},
	    {"Action": "Sell", "Date": "05/01/2024", "Symbol": "AAPL", "Quantity": "9", "Price": "$160.00"}
	  ]
	}`

	p := NewParser(730)
	sales, diagnostics, err := p.Parse(strings.NewReader(export), time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, diagnostics)

	// The 2023 sell is outside the window but consumed 4 shares, so the
	// in-window sell draws 6 from the first lot and 3 from the second.
	require.Len(t, sales, 2)
	assert.Equal(t, 6.0, sales[0].Shares)
	assert.Equal(t, 100.0, sales[0].AcquisitionPriceUSD)
	assert.Equal(t, 3.0, sales[1].Shares)
	assert.Equal(t, 140.0, sales[1].AcquisitionPriceUSD)
}

func TestParse_OversellReported(t *testing.T) {
	export := `{
	  "BrokerageTransactions": [
	    {"Action": "Buy", "Date": "01/10/2023", "Symbol": "NVDA", "Quantity": "5", "Price": "$400.00"},
	    {"Action": "Sell", "Date": "01/10/2024", "Symbol": "NVDA", "Quantity": "8", "Price": "$600.00"}
	  ]
	}`

	p := NewParser(730)
	sales, diagnostics, err := p.Parse(strings.NewReader(export), time.Time{})
	require.NoError(t, err)
	require.Len(t, sales, 1)
	require.Len(t, diagnostics, 1)
	assert.Equal(t, models.DiagUnmatchedShares, diagnostics[0].Kind)
	assert.Equal(t, 3.0, diagnostics[0].Shares)
}

func TestParse_MalformedJSON(t *testing.T) {
	p := NewParser(730)
	_, _, err := p.Parse(strings.NewReader("[]"), time.Time{})
	assert.Error(t, err)
}
