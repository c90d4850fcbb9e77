// Package repository persists tariff rules and mapping profiles in SQLite.
package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/millworks/tariffmill/internal/models"
)

const dateLayout = "2006-01-02"

// RuleRepository handles tariff rule database operations. Rates and dates
// are stored as text to keep them exact across a round trip.
type RuleRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRuleRepository creates a new rule repository
func NewRuleRepository(db *sql.DB, logger *zap.Logger) *RuleRepository {
	return &RuleRepository{
		db:     db,
		logger: logger,
	}
}

// ReplaceAll swaps the stored rule set for the given one in a single
// transaction and records a new snapshot version. Readers of the previous
// snapshot keep their in-memory table; the returned version tags the new one.
func (r *RuleRepository) ReplaceAll(rules []models.TariffRule, source string) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.Exec("DELETE FROM tariff_actions"); err != nil {
		return 0, fmt.Errorf("failed to clear tariff actions: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO tariff_actions (
			rule_id, classification_code, action, description,
			advalorem_rate, specific_rate, effective_date, expiration_date,
			additional_declaration, note, link
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rule := range rules {
		_, err := stmt.Exec(
			rule.RuleID,
			rule.ClassificationCode,
			rule.Action,
			rule.Description,
			rateText(rule.AdvaloremRate),
			rateText(rule.SpecificRate),
			dateText(rule.EffectiveDate),
			dateText(rule.ExpirationDate),
			rule.AdditionalDeclaration,
			rule.Note,
			rule.Link,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert rule %s: %w", rule.RuleID, err)
		}
	}

	result, err := tx.Exec(
		"INSERT INTO rule_snapshots (source, rule_count) VALUES (?, ?)",
		source, len(rules),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record snapshot: %w", err)
	}
	version, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read snapshot version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("Rule set replaced",
		zap.String("source", source),
		zap.Int("rules", len(rules)),
		zap.Int64("version", version))
	return version, nil
}

// LoadAll returns every stored rule together with the current snapshot
// version. A database that has never been loaded yields version zero.
func (r *RuleRepository) LoadAll() ([]models.TariffRule, int64, error) {
	var version int64
	err := r.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM rule_snapshots").Scan(&version)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read snapshot version: %w", err)
	}

	rows, err := r.db.Query(`
		SELECT rule_id, classification_code, action, description,
		       advalorem_rate, specific_rate, effective_date, expiration_date,
		       additional_declaration, note, link
		FROM tariff_actions
		ORDER BY classification_code, rule_id
	`)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query tariff actions: %w", err)
	}
	defer rows.Close()

	var rules []models.TariffRule
	for rows.Next() {
		var rule models.TariffRule
		var advalorem, specific, effective, expiration sql.NullString
		err := rows.Scan(
			&rule.RuleID,
			&rule.ClassificationCode,
			&rule.Action,
			&rule.Description,
			&advalorem,
			&specific,
			&effective,
			&expiration,
			&rule.AdditionalDeclaration,
			&rule.Note,
			&rule.Link,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan rule: %w", err)
		}
		if rule.AdvaloremRate, err = rateValue(advalorem); err != nil {
			return nil, 0, fmt.Errorf("rule %s: %w", rule.RuleID, err)
		}
		if rule.SpecificRate, err = rateValue(specific); err != nil {
			return nil, 0, fmt.Errorf("rule %s: %w", rule.RuleID, err)
		}
		if rule.EffectiveDate, err = dateValue(effective); err != nil {
			return nil, 0, fmt.Errorf("rule %s: %w", rule.RuleID, err)
		}
		if rule.ExpirationDate, err = dateValue(expiration); err != nil {
			return nil, 0, fmt.Errorf("rule %s: %w", rule.RuleID, err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate rules: %w", err)
	}
	return rules, version, nil
}

// Count returns the number of stored rules.
func (r *RuleRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM tariff_actions").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rules: %w", err)
	}
	return n, nil
}

func rateText(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func rateValue(s sql.NullString) (*decimal.Decimal, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil, fmt.Errorf("invalid stored rate %q", s.String)
	}
	return &d, nil
}

func dateText(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}

func dateValue(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s.String)
	if err != nil {
		return nil, fmt.Errorf("invalid stored date %q", s.String)
	}
	t = t.UTC()
	return &t, nil
}
