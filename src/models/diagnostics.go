package models

import "fmt"

// DiagnosticKind classifies recoverable data-quality findings. None of these
// stop a calculation; they exist so a caller (or the report) can see where
// the numbers were approximated or incomplete.
type DiagnosticKind string

const (
	// DiagApproximateRate: no rate within the search window, quarterly
	// approximation used instead.
	DiagApproximateRate DiagnosticKind = "approximate_rate"
	// DiagUnmatchedShares: a sell exceeded the tracked lot inventory; the
	// unmatched tail has no cost basis and was dropped from gains.
	DiagUnmatchedShares DiagnosticKind = "unmatched_shares"
	// DiagSkippedRecord: an upstream record was malformed or of an
	// unrecognized type and was skipped.
	DiagSkippedRecord DiagnosticKind = "skipped_record"
)

// Diagnostic is one structured warning attached to a calculation run.
type Diagnostic struct {
	Kind   DiagnosticKind `json:"kind"`
	Symbol string         `json:"symbol,omitempty"`
	Date   string         `json:"date,omitempty"`
	Detail string         `json:"detail"`
	Shares float64        `json:"shares,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Symbol != "" {
		return fmt.Sprintf("%s [%s %s]: %s", d.Kind, d.Symbol, d.Date, d.Detail)
	}
	return fmt.Sprintf("%s [%s]: %s", d.Kind, d.Date, d.Detail)
}
