package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseCurrency(t *testing.T) {
	assert.Equal(t, 1500.25, ParseCurrency("$1,500.25"))
	// The sign is formatting; callers take direction from the record type.
	assert.Equal(t, 42.5, ParseCurrency("-$42.50"))
	assert.Equal(t, 0.0, ParseCurrency(""))
	assert.Equal(t, 0.0, ParseCurrency("N/A"))
	assert.Equal(t, 100.0, ParseCurrency(" $100 "))
}

func TestParseUSDate(t *testing.T) {
	assert.Equal(t, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), ParseUSDate("05/10/2024"))
	assert.True(t, ParseUSDate("2024-05-10").IsZero())
	assert.True(t, ParseUSDate("").IsZero())
}

func TestFormatISODate(t *testing.T) {
	assert.Equal(t, "2024-05-10", FormatISODate(time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)))
}

func TestRoundFloat(t *testing.T) {
	assert.Equal(t, 1.23, RoundFloat(1.2345, 2))
	assert.Equal(t, 1.24, RoundFloat(1.2351, 2))
	assert.Equal(t, -1.23, RoundFloat(-1.2345, 2))
}

func TestMinFloat(t *testing.T) {
	assert.Equal(t, 1.0, MinFloat(1.0, 2.0))
	assert.Equal(t, -2.0, MinFloat(-2.0, 1.0))
}
