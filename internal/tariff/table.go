// Package tariff holds the trade-remedy rule table, rule resolution against
// a reference date, and duty computation.
package tariff

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/millworks/tariffmill/internal/models"
)

// Table is an immutable snapshot of the rule set, indexed by normalized
// classification code. Concurrent resolution runs share a snapshot without
// locking; a refresh builds a new Table and never touches an existing one.
type Table struct {
	version  int64
	loadedAt time.Time
	byCode   map[string][]models.TariffRule
	count    int
}

// NormalizeCode canonicalizes a classification code for lookup: dots
// stripped, surrounding whitespace removed, uppercase.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(code, ".", "")))
}

// NewTable validates the rules and builds a snapshot. The version is owned
// by the caller (monotonic per reload); there is no process-wide counter.
func NewTable(version int64, rules []models.TariffRule) (*Table, error) {
	byCode := make(map[string][]models.TariffRule, len(rules))
	for i, r := range rules {
		if r.RuleID == "" {
			return nil, fmt.Errorf("rule %d has no rule_id", i)
		}
		code := NormalizeCode(r.ClassificationCode)
		if code == "" {
			return nil, fmt.Errorf("rule %s has no classification code", r.RuleID)
		}
		if r.EffectiveDate != nil && r.ExpirationDate != nil && r.ExpirationDate.Before(*r.EffectiveDate) {
			return nil, fmt.Errorf("rule %s expires %s before it takes effect %s",
				r.RuleID, r.ExpirationDate.Format("2006-01-02"), r.EffectiveDate.Format("2006-01-02"))
		}
		if r.AdvaloremRate != nil && r.AdvaloremRate.IsNegative() {
			return nil, fmt.Errorf("rule %s has a negative ad-valorem rate", r.RuleID)
		}
		if r.SpecificRate != nil && r.SpecificRate.IsNegative() {
			return nil, fmt.Errorf("rule %s has a negative specific rate", r.RuleID)
		}
		r.ClassificationCode = code
		byCode[code] = append(byCode[code], r)
	}

	// Deterministic order within a code: earliest effective first, then ID.
	for _, rs := range byCode {
		sort.SliceStable(rs, func(i, j int) bool {
			a, b := rs[i], rs[j]
			switch {
			case a.EffectiveDate == nil && b.EffectiveDate != nil:
				return true
			case a.EffectiveDate != nil && b.EffectiveDate == nil:
				return false
			case a.EffectiveDate != nil && b.EffectiveDate != nil && !a.EffectiveDate.Equal(*b.EffectiveDate):
				return a.EffectiveDate.Before(*b.EffectiveDate)
			}
			return a.RuleID < b.RuleID
		})
	}

	return &Table{
		version:  version,
		loadedAt: time.Now().UTC(),
		byCode:   byCode,
		count:    len(rules),
	}, nil
}

// RulesFor returns the rules for an exact normalized code, possibly empty.
// The returned slice is shared and must not be mutated.
func (t *Table) RulesFor(code string) []models.TariffRule {
	return t.byCode[NormalizeCode(code)]
}

// RulesForPrefix looks up by the documented hierarchical rule: the 10-digit
// prefix first, then the 8-digit prefix. Used only when prefix fallback is
// configured.
func (t *Table) RulesForPrefix(code string) []models.TariffRule {
	normalized := NormalizeCode(code)
	for _, n := range []int{10, 8} {
		if len(normalized) < n {
			continue
		}
		if rs, ok := t.byCode[normalized[:n]]; ok {
			return rs
		}
	}
	return nil
}

// All returns every rule in the snapshot in deterministic order.
func (t *Table) All() []models.TariffRule {
	codes := make([]string, 0, len(t.byCode))
	for c := range t.byCode {
		codes = append(codes, c)
	}
	sort.Strings(codes)

	out := make([]models.TariffRule, 0, t.count)
	for _, c := range codes {
		out = append(out, t.byCode[c]...)
	}
	return out
}

// Len returns the number of rules in the snapshot.
func (t *Table) Len() int { return t.count }

// Version returns the caller-assigned snapshot version.
func (t *Table) Version() int64 { return t.version }

// LoadedAt returns when the snapshot was built.
func (t *Table) LoadedAt() time.Time { return t.loadedAt }
