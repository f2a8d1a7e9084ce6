package processors

import (
	"fmt"
	"time"

	"github.com/username/capgains/backend/src/logger"
	"github.com/username/capgains/backend/src/models"
	"github.com/username/capgains/backend/src/utils"
)

// rateSearchWindowDays bounds the scan around a missing date. SBI does not
// publish on weekends and bank holidays, so a week covers every gap that a
// real rate can fill.
const rateSearchWindowDays = 7

type quarterKey struct {
	Year    int
	Quarter int
}

// approximateRates holds quarterly USD-INR averages used when no published
// rate is available for a date. Approximate conversion is preferred over
// blocking the calculation; the resolver records a diagnostic when it
// falls back here.
var approximateRates = map[quarterKey]float64{
	{2022, 1}: 74.5, {2022, 2}: 76.5, {2022, 3}: 79.5, {2022, 4}: 81.5,
	{2023, 1}: 82.5, {2023, 2}: 82.0, {2023, 3}: 83.0, {2023, 4}: 83.0,
	{2024, 1}: 83.0, {2024, 2}: 83.5, {2024, 3}: 83.5, {2024, 4}: 84.0,
	{2025, 1}: 85.5, {2025, 2}: 85.0, {2025, 3}: 84.0, {2025, 4}: 84.5,
}

// RateResolver resolves USD-INR rates for one calculation run. It snapshots
// the merged rate table at construction, caches every resolved date, and
// never fails: unresolvable dates degrade to the quarterly approximation.
// Not safe for concurrent use; each run builds its own resolver.
type RateResolver struct {
	table       models.RateTable
	cache       map[string]float64
	defaultRate float64
	diagnostics []models.Diagnostic
}

// NewRateResolver creates a resolver over the given merged table.
// defaultRate is the scalar used when even the quarterly table has no entry.
func NewRateResolver(table models.RateTable, defaultRate float64) *RateResolver {
	return &RateResolver{
		table:       table.Clone(),
		cache:       make(map[string]float64),
		defaultRate: defaultRate,
	}
}

// Resolve returns the INR-per-USD rate for a date. Resolution order: run
// cache, exact table match, forward scan up to 7 days, backward scan up to
// 7 days, quarterly approximation. usePrimary disables the table lookup
// entirely (approximate-only mode).
func (r *RateResolver) Resolve(date time.Time, usePrimary bool) float64 {
	dateStr := utils.FormatISODate(date)

	if rate, ok := r.cache[dateStr]; ok {
		return rate
	}

	if usePrimary && len(r.table) > 0 {
		if rate, ok := r.table[dateStr]; ok {
			r.cache[dateStr] = rate
			return rate
		}

		// Scan forward for the next published date, then backward.
		for daysForward := 1; daysForward <= rateSearchWindowDays; daysForward++ {
			next := utils.FormatISODate(date.AddDate(0, 0, daysForward))
			if rate, ok := r.table[next]; ok {
				r.cache[dateStr] = rate
				return rate
			}
		}
		for daysBack := 1; daysBack <= rateSearchWindowDays; daysBack++ {
			prev := utils.FormatISODate(date.AddDate(0, 0, -daysBack))
			if rate, ok := r.table[prev]; ok {
				r.cache[dateStr] = rate
				return rate
			}
		}
	}

	rate := r.approximateRate(date)
	r.diagnostics = append(r.diagnostics, models.Diagnostic{
		Kind:   models.DiagApproximateRate,
		Date:   dateStr,
		Detail: fmt.Sprintf("no published rate within %d days, using approximate rate %.2f", rateSearchWindowDays, rate),
	})
	if logger.L != nil {
		logger.L.Warn("No published exchange rate, using approximation", "date", dateStr, "rate", rate)
	}
	r.cache[dateStr] = rate
	return rate
}

func (r *RateResolver) approximateRate(date time.Time) float64 {
	quarter := (int(date.Month())-1)/3 + 1
	if rate, ok := approximateRates[quarterKey{date.Year(), quarter}]; ok {
		return rate
	}
	return r.defaultRate
}

// CachedRates returns a copy of every rate resolved so far, in the external
// RateTable interchange format.
func (r *RateResolver) CachedRates() models.RateTable {
	out := make(models.RateTable, len(r.cache))
	for date, rate := range r.cache {
		out[date] = rate
	}
	return out
}

// Diagnostics returns the approximation warnings recorded during this run.
func (r *RateResolver) Diagnostics() []models.Diagnostic {
	return r.diagnostics
}
