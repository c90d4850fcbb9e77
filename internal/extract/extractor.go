// Package extract recognizes invoice line items in normalized text using an
// ordered list of declarative layout patterns.
package extract

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/millworks/tariffmill/internal/models"
)

// unitPriceScale is the precision kept when a layout carries no unit price
// and it has to be derived from total and quantity.
const unitPriceScale = 6

// Config holds extractor settings, normally derived from a mapping profile.
type Config struct {
	// Patterns are tried in order; the first full match claims the line.
	Patterns []*Pattern

	// PriceTolerance is the maximum accepted difference between the stated
	// total and round(quantity*unit_price, Precision).
	PriceTolerance decimal.Decimal

	// Precision is the currency precision used for the consistency check.
	Precision int32

	// Deduplicate collapses repeated identical (code, quantity, total)
	// items, as produced by overlapping page excerpts.
	Deduplicate bool
}

// Extractor turns normalized lines into canonical line items. Extraction is
// deterministic: identical input yields identical output in the same order.
type Extractor struct {
	cfg    Config
	logger *zap.Logger
}

// New creates an extractor. A nil pattern list means the default set.
func New(cfg Config, logger *zap.Logger) *Extractor {
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = DefaultPatterns()
	}
	if cfg.PriceTolerance.IsZero() {
		cfg.PriceTolerance = decimal.New(1, -2)
	}
	if cfg.Precision == 0 {
		cfg.Precision = 2
	}
	return &Extractor{cfg: cfg, logger: logger}
}

// Extract walks the lines once, in order. Every line either becomes a line
// item or is returned in the residue; invoice content is never dropped
// silently. A line whose winning pattern has malformed numeric fields is
// residue, not a zero-value item.
func (e *Extractor) Extract(lines []models.RawLine) ([]models.LineItem, []models.UnmatchedLine) {
	var (
		items   []models.LineItem
		residue []models.UnmatchedLine
		seen    map[string]bool
	)
	if e.cfg.Deduplicate {
		seen = make(map[string]bool)
	}

	for _, line := range lines {
		tokens, pattern := e.match(line.Text)
		if pattern == nil {
			residue = append(residue, models.UnmatchedLine{Line: line, Reason: models.UnmatchedNoPattern})
			continue
		}

		item, err := e.buildItem(tokens, line)
		if err != nil {
			e.logger.Debug("line matched pattern but numbers failed to parse",
				zap.String("pattern", pattern.Name),
				zap.Int("line", line.Number),
				zap.Error(err))
			residue = append(residue, models.UnmatchedLine{Line: line, Reason: models.UnmatchedBadNumber})
			continue
		}

		if seen != nil {
			key := item.ClassificationCode + "|" + item.Quantity.String() + "|" + item.TotalPrice.String()
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		items = append(items, item)
	}

	e.logger.Debug("extraction finished",
		zap.Int("items", len(items)),
		zap.Int("residue", len(residue)))
	return items, residue
}

// match returns the captured tokens of the first pattern that fully matches.
func (e *Extractor) match(text string) (map[string]string, *Pattern) {
	for _, p := range e.cfg.Patterns {
		if tokens, ok := p.Match(text); ok {
			return tokens, p
		}
	}
	return nil, nil
}

// buildItem converts captured tokens into a LineItem, parsing each numeric
// token through the single amount grammar.
func (e *Extractor) buildItem(tokens map[string]string, line models.RawLine) (models.LineItem, error) {
	qty, err := ParseAmount(tokens[CaptureQuantity])
	if err != nil {
		return models.LineItem{}, err
	}
	total, err := ParseAmount(tokens[CaptureTotalPrice])
	if err != nil {
		return models.LineItem{}, err
	}

	var unitPrice decimal.Decimal
	if raw, ok := tokens[CaptureUnitPrice]; ok {
		if unitPrice, err = ParseAmount(raw); err != nil {
			return models.LineItem{}, err
		}
	} else if qty.IsPositive() {
		// Layout without a unit price column.
		unitPrice = total.DivRound(qty, unitPriceScale)
	}

	src := line
	item := models.LineItem{
		ClassificationCode: tokens[CaptureCode],
		Quantity:           qty,
		Unit:               tokens[CaptureUnit],
		UnitPrice:          unitPrice,
		TotalPrice:         total,
		Source:             &src,
	}

	diff := total.Sub(item.ExpectedTotal(e.cfg.Precision)).Abs()
	if diff.GreaterThan(e.cfg.PriceTolerance) {
		item.PriceInconsistent = true
		e.logger.Warn("line item total does not match quantity * unit price",
			zap.String("code", item.ClassificationCode),
			zap.String("stated_total", total.String()),
			zap.String("expected_total", item.ExpectedTotal(e.cfg.Precision).String()),
			zap.Int("line", line.Number))
	}
	return item, nil
}
