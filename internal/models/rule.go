package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Known tariff action kinds. The action column is free text in rule sources;
// these cover the values seen in Section 232 action tables.
const (
	ActionTariffIncrease = "TARIFF_INCREASE"
	ActionExclusion      = "EXCLUSION"
	ActionQuota          = "QUOTA"
)

// TariffRule is one row of the trade-remedy action table.
// Rules are immutable once loaded into a snapshot.
type TariffRule struct {
	RuleID             string `json:"rule_id"`
	ClassificationCode string `json:"classification_code"` // normalized: dots stripped, uppercase
	Action             string `json:"action"`
	Description        string `json:"description,omitempty"`

	// At most one of the two rates is operative unless the rule is a
	// combined-rate rule, in which case both apply and duty is their sum.
	AdvaloremRate *decimal.Decimal `json:"advalorem_rate,omitempty"` // fraction, e.g. 0.25 for 25%
	SpecificRate  *decimal.Decimal `json:"specific_rate,omitempty"`  // currency per unit

	EffectiveDate  *time.Time `json:"effective_date,omitempty"`  // nil: effective since epoch
	ExpirationDate *time.Time `json:"expiration_date,omitempty"` // nil: open-ended

	AdditionalDeclaration bool   `json:"additional_declaration"`
	Note                  string `json:"note,omitempty"`
	Link                  string `json:"link,omitempty"`
}

// InWindow reports whether the rule's effective window contains the
// reference date. An absent effective date is always-effective; an absent
// expiration date is unbounded future.
func (r TariffRule) InWindow(ref time.Time) bool {
	if r.EffectiveDate != nil && ref.Before(*r.EffectiveDate) {
		return false
	}
	if r.ExpirationDate != nil && ref.After(*r.ExpirationDate) {
		return false
	}
	return true
}
