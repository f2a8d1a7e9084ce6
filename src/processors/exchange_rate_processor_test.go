package processors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/capgains/backend/src/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolve_ExactMatch(t *testing.T) {
	r := NewRateResolver(models.RateTable{"2024-03-15": 83.10}, 84.5)
	rate := r.Resolve(day(2024, 3, 15), true)
	assert.Equal(t, 83.10, rate)
	assert.Empty(t, r.Diagnostics())
}

func TestResolve_ForwardScan(t *testing.T) {
	r := NewRateResolver(models.RateTable{"2024-03-18": 83.25}, 84.5)
	rate := r.Resolve(day(2024, 3, 16), true)
	assert.Equal(t, 83.25, rate)
	assert.Empty(t, r.Diagnostics())
}

func TestResolve_ForwardPreferredOverBackward(t *testing.T) {
	table := models.RateTable{
		"2024-03-14": 83.00,
		"2024-03-18": 83.25,
	}
	r := NewRateResolver(table, 84.5)
	rate := r.Resolve(day(2024, 3, 16), true)
	assert.Equal(t, 83.25, rate)
}

func TestResolve_BackwardScan(t *testing.T) {
	r := NewRateResolver(models.RateTable{"2024-03-10": 82.90}, 84.5)
	rate := r.Resolve(day(2024, 3, 16), true)
	assert.Equal(t, 82.90, rate)
}

func TestResolve_BeyondWindowUsesApproximation(t *testing.T) {
	// Nearest published rate is 8 days away, outside the scan window.
	r := NewRateResolver(models.RateTable{"2024-03-24": 83.40}, 84.5)
	rate := r.Resolve(day(2024, 3, 16), true)
	assert.Equal(t, 83.0, rate) // 2024 Q1 approximation

	diags := r.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, models.DiagApproximateRate, diags[0].Kind)
	assert.Equal(t, "2024-03-16", diags[0].Date)
}

func TestResolve_PrimaryDisabled(t *testing.T) {
	r := NewRateResolver(models.RateTable{"2024-05-10": 83.20}, 84.5)
	rate := r.Resolve(day(2024, 5, 10), false)
	assert.Equal(t, 83.5, rate) // 2024 Q2 approximation, table ignored
	assert.Len(t, r.Diagnostics(), 1)
}

func TestResolve_DefaultRateOutsideApproximationTable(t *testing.T) {
	r := NewRateResolver(models.RateTable{}, 80.0)
	rate := r.Resolve(day(2010, 6, 1), true)
	assert.Equal(t, 80.0, rate)
}

func TestResolve_CacheIsIdempotent(t *testing.T) {
	r := NewRateResolver(models.RateTable{}, 84.5)
	d := day(2023, 7, 4)

	first := r.Resolve(d, true)
	second := r.Resolve(d, true)
	assert.Equal(t, first, second)
	// The approximation diagnostic is recorded once, not per lookup.
	assert.Len(t, r.Diagnostics(), 1)
}

func TestCachedRates_ReturnsResolvedDates(t *testing.T) {
	r := NewRateResolver(models.RateTable{"2024-03-15": 83.10}, 84.5)
	r.Resolve(day(2024, 3, 15), true)
	r.Resolve(day(2024, 3, 16), true) // backward scan hit, cached under its own date

	cached := r.CachedRates()
	require.Len(t, cached, 2)
	assert.Equal(t, 83.10, cached["2024-03-15"])
	assert.Equal(t, 83.10, cached["2024-03-16"])
}

func TestNewRateResolver_SnapshotsTable(t *testing.T) {
	table := models.RateTable{"2024-03-15": 83.10}
	r := NewRateResolver(table, 84.5)

	// Mutating the caller's table after construction must not be visible.
	table["2024-03-15"] = 99.0
	assert.Equal(t, 83.10, r.Resolve(day(2024, 3, 15), true))
}
