package services

import (
	"strings"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/capgains/backend/src/config"
	"github.com/username/capgains/backend/src/models"
)

const eacExport = `{
  "Transactions": [
    {
      "Action": "Sale",
      "Date": "05/10/2024",
      "Symbol": "ACME",
      "FeesAndCommissions": "$10.00",
      "TransactionDetails": [
        {
          "Details": {
            "Type": "RS",
            "Shares": "10",
            "SalePrice": "$150.00",
            "GrossProceeds": "$1,500.00",
            "VestDate": "02/10/2022",
            "VestFairMarketValue": "$100.00"
          }
        }
      ]
    }
  ]
}`

func testTaxConfig() config.TaxConfig {
	return config.TaxConfig{
		IndianLTCGRate:  0.1495,
		ForeignLTCGRate: 0.1495,
		IndianSTCGRate:  0.2392,
		ForeignSTCGRate: 0.39,
		LTCGExemption:   125000,
		LongTermDays:    730,
		DefaultRate:     84.5,
	}
}

func newTestCalculationService() CalculationService {
	rateService := NewRateService("", time.Second)
	return NewCalculationService(rateService, testTaxConfig(), cache.New(time.Minute, time.Minute))
}

func TestCalculate_EndToEnd(t *testing.T) {
	svc := newTestCalculationService()

	result, err := svc.Calculate(CalculationInput{
		EACFile:         strings.NewReader(eacExport),
		CustomRatesFile: strings.NewReader(`{"2024-05-10": 83.0, "2022-02-10": 75.0}`),
		StartDate:       time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		TaxesPaid:       1000,
		UseRates:        true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.ID)
	assert.Empty(t, result.SourceErrors)

	require.Len(t, result.Transactions, 1)
	txn := result.Transactions[0]
	assert.True(t, txn.IsLongTerm)
	assert.Equal(t, 83.0, txn.SaleExchangeRate)
	assert.Equal(t, 75.0, txn.AcquisitionExchangeRate)
	// 10 x (150 x 83.0) - 10 x (100 x 75.0) - 10 x 83.0
	assert.InDelta(t, 124500.0-75000.0-830.0, txn.CapitalGainINR, 1e-6)

	expectedGain := 124500.0 - 75000.0 - 830.0
	assert.InDelta(t, expectedGain, result.TaxData.SchwabLTCG, 1e-6)
	assert.InDelta(t, expectedGain*0.1495-1000, result.TaxData.TaxLiability, 1e-6)

	// The resolved rates came back for auditing.
	assert.Equal(t, 83.0, result.RatesUsed["2024-05-10"])
	assert.Equal(t, 75.0, result.RatesUsed["2022-02-10"])
}

func TestCalculate_BadSourceDoesNotAbortBatch(t *testing.T) {
	svc := newTestCalculationService()

	result, err := svc.Calculate(CalculationInput{
		EACFile:         strings.NewReader(eacExport),
		BrokerageFile:   strings.NewReader("{broken json"),
		CustomRatesFile: strings.NewReader(`{"2024-05-10": 83.0, "2022-02-10": 75.0}`),
		UseRates:        true,
	})
	require.NoError(t, err)

	require.Len(t, result.SourceErrors, 1)
	assert.Equal(t, "brokerage", result.SourceErrors[0].Source)
	assert.Len(t, result.Transactions, 1)
}

func TestCalculate_ApproximateOnlyMode(t *testing.T) {
	svc := newTestCalculationService()

	result, err := svc.Calculate(CalculationInput{
		EACFile:  strings.NewReader(eacExport),
		UseRates: false,
	})
	require.NoError(t, err)

	require.Len(t, result.Transactions, 1)
	assert.Equal(t, 83.5, result.Transactions[0].SaleExchangeRate)        // 2024 Q2
	assert.Equal(t, 74.5, result.Transactions[0].AcquisitionExchangeRate) // 2022 Q1

	kinds := make(map[models.DiagnosticKind]int)
	for _, d := range result.Diagnostics {
		kinds[d.Kind]++
	}
	assert.Equal(t, 2, kinds[models.DiagApproximateRate])
}

func TestGetResult_CacheAndStore(t *testing.T) {
	resultCache := cache.New(time.Minute, time.Minute)
	svc := NewCalculationService(NewRateService("", time.Second), testTaxConfig(), resultCache)

	created, err := svc.Calculate(CalculationInput{
		EACFile:         strings.NewReader(eacExport),
		CustomRatesFile: strings.NewReader(`{"2024-05-10": 83.0, "2022-02-10": 75.0}`),
		UseRates:        true,
	})
	require.NoError(t, err)

	fromCache, err := svc.GetResult(created.ID)
	require.NoError(t, err)
	assert.Same(t, created, fromCache)

	// Reload from the database once the cache entry is gone.
	resultCache.Flush()
	fromStore, err := svc.GetResult(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fromStore.ID)
	require.Len(t, fromStore.Transactions, 1)
	assert.InDelta(t, created.Transactions[0].CapitalGainINR, fromStore.Transactions[0].CapitalGainINR, 1e-6)
	assert.InDelta(t, created.TaxData.TotalLTCG, fromStore.TaxData.TotalLTCG, 1e-6)
	assert.Equal(t, created.RatesUsed, fromStore.RatesUsed)
}

func TestGetResult_NotFound(t *testing.T) {
	svc := newTestCalculationService()
	_, err := svc.GetResult("does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}
