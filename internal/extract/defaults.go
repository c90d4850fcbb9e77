package extract

// Built-in pattern names.
const (
	PatternSKUPriced    = "sku-priced"
	PatternTabular      = "tabular-priced"
	PatternPartQtyTotal = "part-qty-total"
)

// builtins holds every known pattern, compiled at init.
var builtins = map[string]*Pattern{
	// SKU# 1562485 76,080 PCS USD 0.6580 USD 50,060.64
	// SKU# 2641486 15,120 PCS 0.7140 10,795.68
	// Currency markers are optional tokens, not structure.
	PatternSKUPriced: (&Pattern{
		Name: PatternSKUPriced,
		Fields: []Field{
			{Kind: FieldLiteral, Literal: "SKU#"},
			{Kind: FieldCode, Capture: CaptureCode},
			{Kind: FieldAmount, Capture: CaptureQuantity},
			{Kind: FieldUnit, Capture: CaptureUnit},
			{Kind: FieldCurrency, Optional: true},
			{Kind: FieldAmount, Capture: CaptureUnitPrice},
			{Kind: FieldCurrency, Optional: true},
			{Kind: FieldAmount, Capture: CaptureTotalPrice},
		},
	}).MustCompile(),

	// 7326.90.8688 1,200 KG USD 2.15 USD 2,580.00
	PatternTabular: (&Pattern{
		Name: PatternTabular,
		Fields: []Field{
			{Kind: FieldCode, Capture: CaptureCode},
			{Kind: FieldAmount, Capture: CaptureQuantity},
			{Kind: FieldUnit, Capture: CaptureUnit},
			{Kind: FieldCurrency, Optional: true},
			{Kind: FieldAmount, Capture: CaptureUnitPrice},
			{Kind: FieldCurrency, Optional: true},
			{Kind: FieldAmount, Capture: CaptureTotalPrice},
		},
	}).MustCompile(),

	// P-4420 350 1,240.00 — supplier layouts that print no unit price;
	// too permissive for the default order, opt in via profile.
	PatternPartQtyTotal: (&Pattern{
		Name: PatternPartQtyTotal,
		Fields: []Field{
			{Kind: FieldCode, Capture: CaptureCode},
			{Kind: FieldAmount, Capture: CaptureQuantity},
			{Kind: FieldAmount, Capture: CaptureTotalPrice},
		},
	}).MustCompile(),
}

// defaultOrder is the priority order used when a profile names none.
var defaultOrder = []string{PatternSKUPriced, PatternTabular}

// DefaultPatterns returns the default pattern set in priority order.
func DefaultPatterns() []*Pattern {
	return PatternsByName(defaultOrder...)
}

// PatternsByName resolves built-in pattern names in the given priority
// order, skipping names it does not know.
func PatternsByName(names ...string) []*Pattern {
	out := make([]*Pattern, 0, len(names))
	for _, n := range names {
		if p, ok := builtins[n]; ok {
			out = append(out, p)
		}
	}
	return out
}
