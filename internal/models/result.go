package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ResolutionStatus tags the outcome of resolving one line item.
type ResolutionStatus string

const (
	StatusMatched   ResolutionStatus = "matched"
	StatusUnmatched ResolutionStatus = "unmatched" // no rule exists for the code
	StatusExpired   ResolutionStatus = "expired"   // rules exist, none covers the date
	StatusAmbiguous ResolutionStatus = "ambiguous" // tie-break could not pick one
)

// ResolutionResult is the per-item outcome of rule resolution and duty
// computation. Created once, never mutated.
type ResolutionResult struct {
	Item   LineItem         `json:"item"`
	Status ResolutionStatus `json:"status"`

	// Candidates holds the rules considered for the item's code. For
	// matched and ambiguous results it is the date-filter survivors; for
	// expired it is the full rule set, whose windows all missed the
	// reference date.
	Candidates []TariffRule `json:"candidates,omitempty"`

	// Chosen is set only when Status is matched.
	Chosen *TariffRule `json:"chosen,omitempty"`

	// Duty is the computed amount for matched items, zero otherwise.
	Duty decimal.Decimal `json:"duty"`

	// AdditionalDeclaration mirrors the chosen rule's declaration flag so
	// report consumers need not dereference the rule.
	AdditionalDeclaration bool `json:"additional_declaration,omitempty"`
}

// ReportTotals aggregates a reconciliation run.
type ReportTotals struct {
	Items         int                      `json:"items"`
	ByStatus      map[ResolutionStatus]int `json:"by_status"`
	TotalQuantity decimal.Decimal          `json:"total_quantity"`
	TotalValue    decimal.Decimal          `json:"total_value"` // sum of total_price over ALL items
	TotalDuty     decimal.Decimal          `json:"total_duty"`  // sum of duty over matched items
	Inconsistent  int                      `json:"inconsistent"`
}

// ReconciliationReport is the ordered, immutable output of one pipeline run.
type ReconciliationReport struct {
	DocumentID      string    `json:"document_id"`
	ReferenceDate   time.Time `json:"reference_date"`
	SnapshotVersion int64     `json:"snapshot_version"`

	// Results are in extraction order regardless of resolution scheduling.
	Results []ResolutionResult `json:"results"`

	// Residue lists normalized lines no pattern recognized.
	Residue []UnmatchedLine `json:"residue,omitempty"`

	// Exceptions lists indexes into Results needing manual review
	// (unmatched, expired, ambiguous, or price-inconsistent items).
	Exceptions []int `json:"exceptions,omitempty"`

	Totals ReportTotals `json:"totals"`
}
