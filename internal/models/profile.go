package models

import "time"

// Tie-break modes for overlapping rule windows.
const (
	TieBreakRecency = "recency" // latest effective date wins; residual ties are ambiguous
	TieBreakReject  = "reject"  // any overlap is ambiguous
)

// MappingProfile is a named extraction/resolution configuration. Profiles
// are persisted by the caller-facing layer; the pipeline consumes them as
// plain values.
type MappingProfile struct {
	Name string `json:"name"`

	// PatternOrder lists extraction pattern names in priority order. Empty
	// means the default pattern set in its default order.
	PatternOrder []string `json:"pattern_order,omitempty"`

	TieBreak          string `json:"tie_break"`          // recency or reject
	RoundingPrecision int32  `json:"rounding_precision"` // currency decimal places
	PriceTolerance    string `json:"price_tolerance"`    // decimal string, e.g. "0.01"
	PrefixFallback    bool   `json:"prefix_fallback"`    // 10/8-digit prefix rule lookup
	Deduplicate       bool   `json:"deduplicate"`        // collapse repeated identical items

	CreatedAt time.Time `json:"created_at,omitempty"`
}

// DefaultProfile returns the built-in configuration used when no profile is
// named: exact-match resolution, recency tie-break, cent precision.
func DefaultProfile() MappingProfile {
	return MappingProfile{
		Name:              "default",
		TieBreak:          TieBreakRecency,
		RoundingPrecision: 2,
		PriceTolerance:    "0.01",
	}
}
