package processors

import (
	"sort"
	"time"

	"github.com/username/capgains/backend/src/logger"
	"github.com/username/capgains/backend/src/models"
)

// GainsProcessor converts the USD legs of matched sale transactions into
// INR using a rate resolver. Each transaction is populated exactly once;
// the only side effect is the resolver's per-run rate cache filling up.
type GainsProcessor struct {
	resolver *RateResolver
}

func NewGainsProcessor(resolver *RateResolver) *GainsProcessor {
	return &GainsProcessor{resolver: resolver}
}

// Process populates the exchange-rate and INR fields of every transaction
// and returns the same slice. usePrimary selects between the loaded rate
// table and approximate-only conversion.
func (p *GainsProcessor) Process(transactions []models.SaleTransaction, usePrimary bool) []models.SaleTransaction {
	if len(transactions) == 0 {
		return transactions
	}

	// Warm the cache in date order so the resolver's diagnostics come out
	// chronologically regardless of transaction order.
	for _, date := range p.collectDates(transactions) {
		p.resolver.Resolve(date, usePrimary)
	}

	for i := range transactions {
		p.translate(&transactions[i], usePrimary)
	}

	if logger.L != nil {
		logger.L.Info("Capital gains translated to INR",
			"transactionCount", len(transactions),
			"ratesResolved", len(p.resolver.CachedRates()))
	}
	return transactions
}

func (p *GainsProcessor) translate(txn *models.SaleTransaction, usePrimary bool) {
	saleRate := p.resolver.Resolve(txn.SaleDate, usePrimary)
	acqRate := p.resolver.Resolve(txn.AcquisitionDate, usePrimary)

	txn.SaleExchangeRate = saleRate
	txn.AcquisitionExchangeRate = acqRate

	txn.SalePriceINR = txn.SalePriceUSD * saleRate
	txn.AcquisitionPriceINR = txn.AcquisitionPriceUSD * acqRate

	// Fees convert at the sale-date rate; they are paid at disposal.
	txn.FeesINR = txn.FeesUSD * saleRate

	txn.CapitalGainUSD = (txn.SalePriceUSD-txn.AcquisitionPriceUSD)*txn.Shares - txn.FeesUSD
	txn.CapitalGainINR = txn.TotalSaleINR() - txn.TotalAcquisitionINR() - txn.FeesINR
}

func (p *GainsProcessor) collectDates(transactions []models.SaleTransaction) []time.Time {
	seen := make(map[time.Time]bool)
	var dates []time.Time
	for _, txn := range transactions {
		for _, d := range []time.Time{txn.SaleDate, txn.AcquisitionDate} {
			if !seen[d] {
				seen[d] = true
				dates = append(dates, d)
			}
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
