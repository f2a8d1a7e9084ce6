package utils

import (
	"strconv"
	"strings"
	"time"
)

const (
	// USDateFormat covers dates as exported by the US brokerage files (MM/DD/YYYY).
	USDateFormat = "01/02/2006"
	// ISODateFormat is used for rate-table keys and persistence.
	ISODateFormat = "2006-01-02"
)

// ParseCurrency parses currency strings such as "$1,234.56" or "-$100.00".
// Empty or blank input yields 0. The sign is discarded; callers decide the
// direction of the cash flow from the record type, not the formatting.
func ParseCurrency(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	cleaned = strings.NewReplacer("$", "", ",", "", "-", "").Replace(cleaned)
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return f
}

// ParseUSDate parses a MM/DD/YYYY date string. Returns zero time on failure.
func ParseUSDate(dateStr string) time.Time {
	t, err := time.Parse(USDateFormat, strings.TrimSpace(dateStr))
	if err != nil {
		return time.Time{}
	}
	return t
}

// FormatISODate renders a date as the YYYY-MM-DD key used by rate tables.
func FormatISODate(t time.Time) string {
	return t.Format(ISODateFormat)
}
