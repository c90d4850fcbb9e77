package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/millworks/tariffmill/internal/extract"
	"github.com/millworks/tariffmill/internal/models"
	"github.com/millworks/tariffmill/internal/tariff"
)

const invoiceText = `COMMERCIAL INVOICE
Invoice No: INV-001

SKU# 1562485 76,080 PCS USD 0.6580 USD 50,060.64
SKU# 1562486 1,200 PCS USD 1.2500 USD 1,500.00
TOTAL USD 51,560.64
`

func decT(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func testPipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()

	rate := decT(t, "0.25")
	eff := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	exp := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	table, err := tariff.NewTable(3, []models.TariffRule{
		{
			RuleID:             "r1",
			ClassificationCode: "1562485",
			Action:             models.ActionTariffIncrease,
			AdvaloremRate:      &rate,
			EffectiveDate:      &eff,
			ExpirationDate:     &exp,
		},
	})
	require.NoError(t, err)

	logger := zap.NewNop()
	extractor := extract.New(extract.Config{}, logger)
	resolver := tariff.NewResolver(table, tariff.NewCalculator(2), logger)
	return New(extractor, resolver, table, logger, opts...)
}

func TestRun(t *testing.T) {
	p := testPipeline(t)
	refDate := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	rpt, err := p.Run(context.Background(), models.RawDocument{ID: "inv-001", Text: invoiceText}, refDate)
	require.NoError(t, err)

	assert.Equal(t, "inv-001", rpt.DocumentID)
	assert.Equal(t, int64(3), rpt.SnapshotVersion)
	require.Len(t, rpt.Results, 2)

	first := rpt.Results[0]
	assert.Equal(t, models.StatusMatched, first.Status)
	assert.Equal(t, "1562485", first.Item.ClassificationCode)
	assert.True(t, first.Duty.Equal(decT(t, "12515.16")), "got %s", first.Duty)

	second := rpt.Results[1]
	assert.Equal(t, models.StatusUnmatched, second.Status)

	// Header and total lines land in the residue, untouched.
	assert.NotEmpty(t, rpt.Residue)
	for _, u := range rpt.Residue {
		assert.Equal(t, models.UnmatchedNoPattern, u.Reason)
	}
}

func TestRunOrderIsDeterministic(t *testing.T) {
	// Many items with concurrency 1 and with wide concurrency must agree.
	text := "INVOICE\n"
	for i := 0; i < 40; i++ {
		text += fmt.Sprintf("SKU# %07d 100 PCS USD 1.0000 USD 100.00\n", 1562485+i%2)
	}
	doc := models.RawDocument{ID: "inv-big", Text: text}
	refDate := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	serial, err := testPipeline(t, WithConcurrency(1)).Run(context.Background(), doc, refDate)
	require.NoError(t, err)
	parallel, err := testPipeline(t, WithConcurrency(16)).Run(context.Background(), doc, refDate)
	require.NoError(t, err)

	require.Equal(t, len(serial.Results), len(parallel.Results))
	for i := range serial.Results {
		assert.Equal(t, serial.Results[i].Status, parallel.Results[i].Status, "index %d", i)
		assert.Equal(t, serial.Results[i].Item.ClassificationCode, parallel.Results[i].Item.ClassificationCode, "index %d", i)
	}
	assert.True(t, serial.Totals.TotalDuty.Equal(parallel.Totals.TotalDuty))
}

func TestRunRejectsPackingList(t *testing.T) {
	p := testPipeline(t)
	doc := models.RawDocument{ID: "pl-001", Text: "PACKING LIST\nSKU# 1562485 100 PCS\n"}

	_, err := p.Run(context.Background(), doc, time.Now())
	assert.ErrorIs(t, err, ErrPackingList)
}

func TestRunBatch(t *testing.T) {
	p := testPipeline(t)
	refDate := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	docs := []models.RawDocument{
		{ID: "a", Text: invoiceText},
		{ID: "b", Text: invoiceText},
	}

	reports, err := p.RunBatch(context.Background(), docs, refDate)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "a", reports[0].DocumentID)
	assert.Equal(t, "b", reports[1].DocumentID)
}

func TestRunBatchStopsOnCancel(t *testing.T) {
	p := testPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reports, err := p.RunBatch(ctx, []models.RawDocument{{ID: "a", Text: invoiceText}}, time.Now())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, reports)
}

func TestIsPackingList(t *testing.T) {
	assert.True(t, IsPackingList("ACME CO\nPACKING LIST\n"))
	assert.True(t, IsPackingList("packing list\n"))
	assert.False(t, IsPackingList("COMMERCIAL INVOICE\n"))
	assert.False(t, IsPackingList(""))
	// Combined documents are invoices with an attached packing section.
	assert.False(t, IsPackingList("COMMERCIAL INVOICE AND PACKING LIST\n"))
	assert.False(t, IsPackingList("Invoice No: INV-001\nPACKING LIST\n"))
}

func TestRunAcceptsCombinedInvoicePackingList(t *testing.T) {
	p := testPipeline(t)
	doc := models.RawDocument{
		ID:   "combo",
		Text: "COMMERCIAL INVOICE AND PACKING LIST\nSKU# 1562485 76,080 PCS USD 0.6580 USD 50,060.64\n",
	}

	rpt, err := p.Run(context.Background(), doc, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, rpt.Results, 1)
	assert.Equal(t, models.StatusMatched, rpt.Results[0].Status)
}
