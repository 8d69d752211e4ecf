package equiv

import (
	"fmt"
	"time"

	"github.com/roach88/sqlequiv/internal/report"
)

// Verdict is the answer of one check.
type Verdict int

const (
	// Unknown means the solver could not decide in time. It never means
	// equivalent.
	Unknown Verdict = iota
	Equivalent
	NotEquivalent
)

// String returns the verdict's wire spelling.
func (v Verdict) String() string {
	switch v {
	case Equivalent:
		return "equivalent"
	case NotEquivalent:
		return "not_equivalent"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// ParseVerdict is the inverse of Verdict.String.
func ParseVerdict(s string) (Verdict, error) {
	switch s {
	case "equivalent":
		return Equivalent, nil
	case "not_equivalent":
		return NotEquivalent, nil
	case "unknown":
		return Unknown, nil
	}
	return Unknown, fmt.Errorf("unknown verdict %q", s)
}

// Outcome is everything a check found out.
type Outcome struct {
	RunID       string  `json:"run_id"`
	Fingerprint string  `json:"fingerprint"`
	Verdict     Verdict `json:"verdict"`

	// Reason explains an Unknown verdict.
	Reason string `json:"reason,omitempty"`

	Counterexample *report.Counterexample `json:"counterexample,omitempty"`

	Query1 string `json:"query1"`
	Query2 string `json:"query2"`

	Duration time.Duration `json:"-"`
}

// DurationMS is Duration in whole milliseconds.
func (o *Outcome) DurationMS() int64 {
	return o.Duration.Milliseconds()
}
