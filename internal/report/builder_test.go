package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/millworks/tariffmill/internal/models"
)

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return v
}

func sampleResults(t *testing.T) []models.ResolutionResult {
	t.Helper()
	rule := models.TariffRule{RuleID: "r1", ClassificationCode: "8544429090", Action: models.ActionTariffIncrease}
	return []models.ResolutionResult{
		{
			Item: models.LineItem{
				ClassificationCode: "8544429090",
				Quantity:           d(t, "76080"),
				UnitPrice:          d(t, "0.6580"),
				TotalPrice:         d(t, "50060.64"),
				Source:             &models.RawLine{Number: 3},
			},
			Status:                models.StatusMatched,
			Chosen:                &rule,
			Duty:                  d(t, "12515.16"),
			AdditionalDeclaration: true,
		},
		{
			Item: models.LineItem{
				ClassificationCode: "0000000000",
				Quantity:           d(t, "10"),
				TotalPrice:         d(t, "100.00"),
			},
			Status: models.StatusUnmatched,
		},
		{
			Item: models.LineItem{
				ClassificationCode: "8544429090",
				Quantity:           d(t, "5"),
				UnitPrice:          d(t, "0.50"),
				TotalPrice:         d(t, "6.00"),
				PriceInconsistent:  true,
			},
			Status: models.StatusMatched,
			Chosen: &rule,
			Duty:   d(t, "1.50"),
		},
	}
}

func TestBuildTotals(t *testing.T) {
	refDate := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	residue := []models.UnmatchedLine{
		{Line: models.RawLine{Number: 9, Text: "PACKING MATERIALS"}, Reason: models.UnmatchedNoPattern},
	}

	rpt := Build("inv-001", refDate, 42, sampleResults(t), residue)

	assert.Equal(t, "inv-001", rpt.DocumentID)
	assert.Equal(t, int64(42), rpt.SnapshotVersion)
	assert.Equal(t, 3, rpt.Totals.Items)
	assert.Equal(t, 2, rpt.Totals.ByStatus[models.StatusMatched])
	assert.Equal(t, 1, rpt.Totals.ByStatus[models.StatusUnmatched])
	assert.True(t, rpt.Totals.TotalQuantity.Equal(d(t, "76095")))
	assert.True(t, rpt.Totals.TotalValue.Equal(d(t, "50166.64")), "got %s", rpt.Totals.TotalValue)
	// Duty sums over matched items only.
	assert.True(t, rpt.Totals.TotalDuty.Equal(d(t, "12516.66")), "got %s", rpt.Totals.TotalDuty)
	assert.Equal(t, 1, rpt.Totals.Inconsistent)
	// Exceptions: the unmatched item and the price-inconsistent one.
	assert.Equal(t, []int{1, 2}, rpt.Exceptions)
	assert.Len(t, rpt.Residue, 1)
}

func TestBuildEmpty(t *testing.T) {
	rpt := Build("inv-empty", time.Now(), 1, nil, nil)
	assert.Equal(t, 0, rpt.Totals.Items)
	assert.True(t, rpt.Totals.TotalDuty.IsZero())
	assert.Empty(t, rpt.Exceptions)
}

func TestBuildDeterministic(t *testing.T) {
	refDate := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	a := Build("inv", refDate, 1, sampleResults(t), nil)
	b := Build("inv", refDate, 1, sampleResults(t), nil)
	assert.Equal(t, a, b)
}

func TestWriteCSV(t *testing.T) {
	rpt := Build("inv-001", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), 1, sampleResults(t), nil)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rpt))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5) // header, three items, totals
	assert.Contains(t, lines[0], "Tariff No")
	assert.Contains(t, lines[1], "8544429090")
	assert.Contains(t, lines[1], "12515.16")
	assert.Contains(t, lines[1], "matched")
	assert.Contains(t, lines[2], "unmatched")
	assert.Contains(t, lines[3], "MISMATCH")
	assert.Contains(t, lines[4], "12516.66")
}

func TestWriteXLSX(t *testing.T) {
	rpt := Build("inv-001", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), 1, sampleResults(t), nil)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, rpt))
	assert.NotZero(t, buf.Len())
}
