package extract

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/millworks/tariffmill/internal/models"
	"github.com/millworks/tariffmill/internal/normalize"
)

func newTestExtractor(cfg Config) *Extractor {
	return New(cfg, zap.NewNop())
}

func TestExtract_LabeledInvoiceLine(t *testing.T) {
	lines := normalize.Lines("SKU# 1562485 76,080 PCS USD 0.6580 USD 50,060.64")

	items, residue := newTestExtractor(Config{}).Extract(lines)

	require.Len(t, items, 1)
	assert.Empty(t, residue)

	item := items[0]
	assert.Equal(t, "1562485", item.ClassificationCode)
	assert.True(t, item.Quantity.Equal(decimal.NewFromInt(76080)))
	assert.Equal(t, "PCS", item.Unit)
	assert.True(t, item.UnitPrice.Equal(decimal.RequireFromString("0.6580")))
	assert.True(t, item.TotalPrice.Equal(decimal.RequireFromString("50060.64")))
	assert.False(t, item.PriceInconsistent, "76080 * 0.6580 = 50060.64 exactly")
	require.NotNil(t, item.Source)
	assert.Equal(t, 1, item.Source.Number)
}

func TestExtract_CurrencyMarkersOptional(t *testing.T) {
	labeled := normalize.Lines("SKU# 2641486 15,120 PCS USD 0.7140 USD 10,795.68")
	plain := normalize.Lines("SKU# 2641486 15,120 PCS 0.7140 10,795.68")

	e := newTestExtractor(Config{})
	a, _ := e.Extract(labeled)
	b, _ := e.Extract(plain)

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, a[0].ClassificationCode, b[0].ClassificationCode)
	assert.True(t, a[0].Quantity.Equal(b[0].Quantity))
	assert.True(t, a[0].UnitPrice.Equal(b[0].UnitPrice))
	assert.True(t, a[0].TotalPrice.Equal(b[0].TotalPrice))
}

func TestExtract_MalformedNumbersAreResidueNotZero(t *testing.T) {
	// Grouping is wrong: matches the pattern shape but fails the grammar.
	lines := normalize.Lines("SKU# 1562485 76,08 PCS 0.6580 50,060.64")

	items, residue := newTestExtractor(Config{}).Extract(lines)

	assert.Empty(t, items)
	require.Len(t, residue, 1)
	assert.Equal(t, models.UnmatchedBadNumber, residue[0].Reason)
}

func TestExtract_UnrecognizedLinesAreKeptAsResidue(t *testing.T) {
	text := "COMMERCIAL INVOICE\n" +
		"SKU# 1562485 76,080 PCS USD 0.6580 USD 50,060.64\n" +
		"SHIP TO: 1 Harbor Way\n" +
		"SKU# 2641487 48,780 PCS 0.7140 34,828.92\n"

	items, residue := newTestExtractor(Config{}).Extract(normalize.Lines(text))

	require.Len(t, items, 2)
	assert.Equal(t, "1562485", items[0].ClassificationCode)
	assert.Equal(t, "2641487", items[1].ClassificationCode)

	require.Len(t, residue, 2)
	assert.Equal(t, models.UnmatchedNoPattern, residue[0].Reason)
	assert.Equal(t, "COMMERCIAL INVOICE", residue[0].Line.Text)
	assert.Equal(t, "SHIP TO: 1 Harbor Way", residue[1].Line.Text)
}

func TestExtract_PriceInconsistencyFlaggedNotCorrected(t *testing.T) {
	// 10 * 0.50 = 5.00, stated total 6.00.
	lines := normalize.Lines("SKU# 99 10 PCS 0.50 6.00")

	items, _ := newTestExtractor(Config{}).Extract(lines)

	require.Len(t, items, 1)
	assert.True(t, items[0].PriceInconsistent)
	assert.True(t, items[0].TotalPrice.Equal(decimal.RequireFromString("6.00")),
		"stated total is preserved, not corrected")
}

func TestExtract_ToleranceAbsorbsCentRounding(t *testing.T) {
	// 7 * 0.145 = 1.015 -> 1.02 rounded; stated 1.01 is within 0.01.
	lines := normalize.Lines("SKU# 5 7 PCS 0.145 1.01")

	items, _ := newTestExtractor(Config{}).Extract(lines)

	require.Len(t, items, 1)
	assert.False(t, items[0].PriceInconsistent)
}

func TestExtract_DerivedUnitPrice(t *testing.T) {
	cfg := Config{Patterns: PatternsByName(PatternPartQtyTotal)}
	lines := normalize.Lines("P-4420 350 1,240.00")

	items, residue := newTestExtractor(cfg).Extract(lines)

	require.Len(t, items, 1)
	assert.Empty(t, residue)
	assert.Equal(t, "P-4420", items[0].ClassificationCode)
	assert.True(t, items[0].UnitPrice.Equal(decimal.RequireFromString("3.542857")))
	assert.False(t, items[0].PriceInconsistent)
}

func TestExtract_Deduplicate(t *testing.T) {
	text := "SKU# 1 10 PCS 2.00 20.00\nSKU# 1 10 PCS 2.00 20.00\nSKU# 1 5 PCS 2.00 10.00"

	items, _ := newTestExtractor(Config{Deduplicate: true}).Extract(normalize.Lines(text))

	require.Len(t, items, 2)
	assert.True(t, items[0].Quantity.Equal(decimal.NewFromInt(10)))
	assert.True(t, items[1].Quantity.Equal(decimal.NewFromInt(5)))
}

func TestExtract_Deterministic(t *testing.T) {
	text := "SKU# 1562485 76,080 PCS USD 0.6580 USD 50,060.64\nnoise line\nSKU# 2641486 15,120 PCS 0.7140 10,795.68"
	lines := normalize.Lines(text)
	e := newTestExtractor(Config{})

	itemsA, residueA := e.Extract(lines)
	itemsB, residueB := e.Extract(lines)

	assert.Equal(t, itemsA, itemsB)
	assert.Equal(t, residueA, residueB)
}
