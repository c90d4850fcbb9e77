package tariff

import (
	"time"

	"go.uber.org/zap"

	"github.com/millworks/tariffmill/internal/models"
)

// Resolver maps extracted line items to rules in a table snapshot. It is
// read-only over the snapshot and safe for concurrent use.
type Resolver struct {
	table          *Table
	calc           *Calculator
	prefixFallback bool
	tieBreak       string
	logger         *zap.Logger
}

type ResolverOption func(*Resolver)

// WithPrefixFallback enables matching on the 10-digit then 8-digit prefix of
// the item's classification code when no rule carries the full code.
func WithPrefixFallback() ResolverOption {
	return func(r *Resolver) { r.prefixFallback = true }
}

// WithTieBreak selects how overlapping active rules are settled. The default
// recency strategy keeps the rule with the latest effective date; the reject
// strategy marks every overlap ambiguous.
func WithTieBreak(strategy string) ResolverOption {
	return func(r *Resolver) { r.tieBreak = strategy }
}

func NewResolver(table *Table, calc *Calculator, logger *zap.Logger, opts ...ResolverOption) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if calc == nil {
		calc = NewCalculator(CurrencyPrecision)
	}
	r := &Resolver{
		table:    table,
		calc:     calc,
		tieBreak: models.TieBreakRecency,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve classifies one item against the snapshot at the reference date.
// An item whose code has no rules at all is unmatched; a code whose rules all
// fall outside their date windows is expired; overlapping active rules that
// the tie-break cannot separate are ambiguous and never silently picked.
func (r *Resolver) Resolve(item models.LineItem, refDate time.Time) models.ResolutionResult {
	result := models.ResolutionResult{Item: item}

	code := NormalizeCode(item.ClassificationCode)
	candidates := r.table.RulesFor(code)
	if len(candidates) == 0 && r.prefixFallback {
		candidates = r.table.RulesForPrefix(code)
	}
	if len(candidates) == 0 {
		result.Status = models.StatusUnmatched
		return result
	}
	result.Candidates = candidates

	var active []models.TariffRule
	for _, rule := range candidates {
		if rule.InWindow(refDate) {
			active = append(active, rule)
		}
	}
	if len(active) == 0 {
		// Candidates stays the full rule set so callers can see the
		// windows the reference date missed.
		result.Status = models.StatusExpired
		return result
	}
	result.Candidates = active

	chosen, ok := r.settle(active)
	if !ok {
		result.Status = models.StatusAmbiguous
		r.logger.Warn("overlapping rules could not be separated",
			zap.String("code", code),
			zap.Int("active", len(active)))
		return result
	}

	result.Status = models.StatusMatched
	result.Chosen = &chosen
	result.Duty = r.calc.Duty(item, chosen)
	result.AdditionalDeclaration = chosen.AdditionalDeclaration
	return result
}

// settle picks a single rule from the active set, or reports that it cannot.
func (r *Resolver) settle(active []models.TariffRule) (models.TariffRule, bool) {
	if len(active) == 1 {
		return active[0], true
	}
	if r.tieBreak != models.TieBreakRecency {
		return models.TariffRule{}, false
	}

	best := active[0]
	tied := false
	for _, rule := range active[1:] {
		switch compareEffective(rule, best) {
		case 1:
			best = rule
			tied = false
		case 0:
			tied = true
		}
	}
	if tied {
		return models.TariffRule{}, false
	}
	return best, true
}

// compareEffective orders rules by effective date, a nil date sorting before
// any concrete one.
func compareEffective(a, b models.TariffRule) int {
	switch {
	case a.EffectiveDate == nil && b.EffectiveDate == nil:
		return 0
	case a.EffectiveDate == nil:
		return -1
	case b.EffectiveDate == nil:
		return 1
	case a.EffectiveDate.After(*b.EffectiveDate):
		return 1
	case a.EffectiveDate.Before(*b.EffectiveDate):
		return -1
	}
	return 0
}
