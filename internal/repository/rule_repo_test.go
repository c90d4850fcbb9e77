package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/millworks/tariffmill/internal/models"
	"github.com/millworks/tariffmill/pkg/database"
)

func testDB(t *testing.T) *database.DB {
	t.Helper()
	logger := zap.NewNop()
	db, err := database.New(database.Config{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.InitSchema(db, logger))
	return db
}

func sampleRules(t *testing.T) []models.TariffRule {
	t.Helper()
	rate := decimal.RequireFromString("0.25")
	eff := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	exp := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)
	specific := decimal.RequireFromString("0.50")
	return []models.TariffRule{
		{
			RuleID:                "8544429090#2",
			ClassificationCode:    "8544429090",
			Action:                models.ActionTariffIncrease,
			Description:           "Insulated conductors",
			AdvaloremRate:         &rate,
			EffectiveDate:         &eff,
			ExpirationDate:        &exp,
			AdditionalDeclaration: true,
			Note:                  "Sec 232",
			Link:                  "https://example.com/a",
		},
		{
			RuleID:             "9903880100#3",
			ClassificationCode: "9903880100",
			Action:             models.ActionExclusion,
			SpecificRate:       &specific,
		},
	}
}

func TestRuleRepositoryRoundTrip(t *testing.T) {
	repo := NewRuleRepository(testDB(t).DB, zap.NewNop())

	version, err := repo.ReplaceAll(sampleRules(t), "actions.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	rules, loadedVersion, err := repo.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, version, loadedVersion)
	require.Len(t, rules, 2)

	r := rules[0]
	assert.Equal(t, "8544429090", r.ClassificationCode)
	assert.Equal(t, "Insulated conductors", r.Description)
	require.NotNil(t, r.AdvaloremRate)
	assert.True(t, r.AdvaloremRate.Equal(decimal.RequireFromString("0.25")))
	require.NotNil(t, r.EffectiveDate)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *r.EffectiveDate)
	assert.True(t, r.AdditionalDeclaration)

	r = rules[1]
	assert.Nil(t, r.AdvaloremRate)
	require.NotNil(t, r.SpecificRate)
	assert.True(t, r.SpecificRate.Equal(decimal.RequireFromString("0.50")))
	assert.Nil(t, r.EffectiveDate)
	assert.Nil(t, r.ExpirationDate)
}

func TestRuleRepositoryReplaceIsFullSwap(t *testing.T) {
	repo := NewRuleRepository(testDB(t).DB, zap.NewNop())

	_, err := repo.ReplaceAll(sampleRules(t), "first.csv")
	require.NoError(t, err)

	version, err := repo.ReplaceAll(sampleRules(t)[:1], "second.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(2), version, "each replace gets a fresh version")

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRuleRepositoryEmptyDatabase(t *testing.T) {
	repo := NewRuleRepository(testDB(t).DB, zap.NewNop())

	rules, version, err := repo.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, rules)
	assert.Zero(t, version)
}
