package models

import "github.com/shopspring/decimal"

// LineItem is one canonical invoice line extracted from raw text.
// It is created once by the extractor and read-only afterwards.
type LineItem struct {
	ClassificationCode string          `json:"classification_code"` // tariff/part number, caller-opaque
	Quantity           decimal.Decimal `json:"quantity"`
	Unit               string          `json:"unit"` // e.g. "PCS"
	UnitPrice          decimal.Decimal `json:"unit_price"`
	TotalPrice         decimal.Decimal `json:"total_price"`
	Source             *RawLine        `json:"source,omitempty"` // originating raw line

	// PriceInconsistent is set when total_price differs from
	// round(quantity * unit_price, 2) by more than the configured tolerance.
	// The item is flagged, never corrected.
	PriceInconsistent bool `json:"price_inconsistent,omitempty"`
}

// ExpectedTotal returns quantity * unit_price rounded to the given currency
// precision, the value TotalPrice is checked against.
func (li LineItem) ExpectedTotal(precision int32) decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice).RoundBank(precision)
}
