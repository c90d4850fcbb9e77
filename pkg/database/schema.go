package database

import (
	"fmt"

	"go.uber.org/zap"
)

// Schema statements are idempotent; InitSchema runs at every startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS tariff_actions (
		rule_id TEXT PRIMARY KEY,
		classification_code TEXT NOT NULL,
		action TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		advalorem_rate TEXT,
		specific_rate TEXT,
		effective_date TEXT,
		expiration_date TEXT,
		additional_declaration INTEGER NOT NULL DEFAULT 0,
		note TEXT NOT NULL DEFAULT '',
		link TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE INDEX IF NOT EXISTS idx_tariff_actions_code
		ON tariff_actions(classification_code);`,
	`CREATE TABLE IF NOT EXISTS rule_snapshots (
		version INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		rule_count INTEGER NOT NULL,
		loaded_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS mapping_profiles (
		name TEXT PRIMARY KEY,
		profile_json TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`,
}

// InitSchema creates the tables and indexes if they do not exist.
func InitSchema(db *DB, logger *zap.Logger) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	logger.Info("Database schema ready")
	return nil
}
