// Package report aggregates resolution results into reconciliation reports
// and renders them for export.
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/millworks/tariffmill/internal/models"
)

// Build assembles the final report from per-item results and extraction
// residue. It is a pure aggregation: the same inputs always give the same
// report, and the inputs are never mutated.
func Build(docID string, refDate time.Time, snapshotVersion int64,
	results []models.ResolutionResult, residue []models.UnmatchedLine) models.ReconciliationReport {

	totals := models.ReportTotals{
		Items:         len(results),
		ByStatus:      make(map[models.ResolutionStatus]int, 4),
		TotalQuantity: decimal.Zero,
		TotalValue:    decimal.Zero,
		TotalDuty:     decimal.Zero,
	}

	var exceptions []int
	for i, res := range results {
		totals.ByStatus[res.Status]++
		totals.TotalQuantity = totals.TotalQuantity.Add(res.Item.Quantity)
		totals.TotalValue = totals.TotalValue.Add(res.Item.TotalPrice)
		if res.Status == models.StatusMatched {
			totals.TotalDuty = totals.TotalDuty.Add(res.Duty)
		}
		if res.Item.PriceInconsistent {
			totals.Inconsistent++
		}
		if needsReview(res) {
			exceptions = append(exceptions, i)
		}
	}

	return models.ReconciliationReport{
		DocumentID:      docID,
		ReferenceDate:   refDate,
		SnapshotVersion: snapshotVersion,
		Results:         results,
		Residue:         residue,
		Exceptions:      exceptions,
		Totals:          totals,
	}
}

// needsReview reports whether an item belongs on the exception list: any
// non-matched outcome, or a matched item whose declared total disagrees with
// quantity times unit price.
func needsReview(res models.ResolutionResult) bool {
	return res.Status != models.StatusMatched || res.Item.PriceInconsistent
}
