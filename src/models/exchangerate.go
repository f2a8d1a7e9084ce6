package models

// RateTable maps an ISO date string (YYYY-MM-DD) to an INR-per-USD rate.
// This is the external interchange format for every rate source: the
// persisted cache, perquisite-email extracts, user uploads, and the
// auto-fetched feed all reduce to this shape before merging.
type RateTable map[string]float64

// RateSource identifies where a rate table came from. Merge precedence is
// ascending: later sources overwrite earlier ones date-by-date.
type RateSource int

const (
	RateSourceSaved  RateSource = iota // previously persisted rates
	RateSourceEmail                    // extracted from legacy perquisite emails
	RateSourceUpload                   // user-uploaded custom JSON
	RateSourceFeed                     // auto-fetched authoritative feed
)

func (s RateSource) String() string {
	switch s {
	case RateSourceSaved:
		return "saved"
	case RateSourceEmail:
		return "email"
	case RateSourceUpload:
		return "upload"
	case RateSourceFeed:
		return "feed"
	default:
		return "unknown"
	}
}

// Merge applies overlay on top of t, last writer wins. Non-positive rates
// are skipped; the feed occasionally publishes zero rows for holidays.
func (t RateTable) Merge(overlay RateTable) {
	for date, rate := range overlay {
		if rate <= 0 {
			continue
		}
		t[date] = rate
	}
}

// Clone returns an independent copy of the table.
func (t RateTable) Clone() RateTable {
	out := make(RateTable, len(t))
	for date, rate := range t {
		out[date] = rate
	}
	return out
}
