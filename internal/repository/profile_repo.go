package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/millworks/tariffmill/internal/models"
)

// ErrProfileNotFound is returned when no profile has the requested name.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepository handles mapping profile database operations. The
// profile body is stored as JSON; only the name is relational.
type ProfileRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *sql.DB, logger *zap.Logger) *ProfileRepository {
	return &ProfileRepository{
		db:     db,
		logger: logger,
	}
}

// Save inserts or replaces a profile under its name.
func (r *ProfileRepository) Save(profile models.MappingProfile) error {
	if profile.Name == "" {
		return fmt.Errorf("profile name is required")
	}
	body, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO mapping_profiles (name, profile_json, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET profile_json = excluded.profile_json
	`, profile.Name, string(body), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save profile %s: %w", profile.Name, err)
	}

	r.logger.Info("Profile saved", zap.String("name", profile.Name))
	return nil
}

// Get loads one profile by name.
func (r *ProfileRepository) Get(name string) (models.MappingProfile, error) {
	var body string
	var createdAt time.Time
	err := r.db.QueryRow(
		"SELECT profile_json, created_at FROM mapping_profiles WHERE name = ?", name,
	).Scan(&body, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MappingProfile{}, ErrProfileNotFound
	}
	if err != nil {
		return models.MappingProfile{}, fmt.Errorf("failed to query profile %s: %w", name, err)
	}

	var profile models.MappingProfile
	if err := json.Unmarshal([]byte(body), &profile); err != nil {
		return models.MappingProfile{}, fmt.Errorf("failed to unmarshal profile %s: %w", name, err)
	}
	profile.Name = name
	profile.CreatedAt = createdAt
	return profile, nil
}

// List returns every stored profile ordered by name.
func (r *ProfileRepository) List() ([]models.MappingProfile, error) {
	rows, err := r.db.Query("SELECT name, profile_json, created_at FROM mapping_profiles ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.MappingProfile
	for rows.Next() {
		var name, body string
		var createdAt time.Time
		if err := rows.Scan(&name, &body, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		var profile models.MappingProfile
		if err := json.Unmarshal([]byte(body), &profile); err != nil {
			return nil, fmt.Errorf("failed to unmarshal profile %s: %w", name, err)
		}
		profile.Name = name
		profile.CreatedAt = createdAt
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}
	return profiles, nil
}

// Delete removes a profile by name.
func (r *ProfileRepository) Delete(name string) error {
	result, err := r.db.Exec("DELETE FROM mapping_profiles WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete profile %s: %w", name, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ErrProfileNotFound
	}
	r.logger.Info("Profile deleted", zap.String("name", name))
	return nil
}
