// Package services holds the on-demand components behind the HTTP surface.
package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/millworks/tariffmill/internal/extract"
	"github.com/millworks/tariffmill/internal/models"
	"github.com/millworks/tariffmill/internal/pipeline"
	"github.com/millworks/tariffmill/internal/repository"
	"github.com/millworks/tariffmill/internal/tariff"
)

// ReconcileService runs reconciliations against the current rule snapshot.
// The snapshot is swapped atomically on import; a run that started on the
// old snapshot finishes on it.
type ReconcileService struct {
	ruleRepo    *repository.RuleRepository
	profileRepo *repository.ProfileRepository
	concurrency int
	logger      *zap.Logger

	snapshot atomic.Pointer[tariff.Table]
}

// NewReconcileService creates the service and loads the stored rule set.
func NewReconcileService(ruleRepo *repository.RuleRepository, profileRepo *repository.ProfileRepository,
	concurrency int, logger *zap.Logger) (*ReconcileService, error) {

	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ReconcileService{
		ruleRepo:    ruleRepo,
		profileRepo: profileRepo,
		concurrency: concurrency,
		logger:      logger,
	}
	if err := s.reloadSnapshot(); err != nil {
		return nil, err
	}
	return s, nil
}

// ImportRules loads a rule source file, replaces the stored rule set, and
// swaps in a new snapshot. In-flight reconciliations keep the old one.
func (s *ReconcileService) ImportRules(path string) (*tariff.Table, error) {
	rules, err := tariff.LoadFile(path)
	if err != nil {
		return nil, err
	}
	version, err := s.ruleRepo.ReplaceAll(rules, path)
	if err != nil {
		return nil, fmt.Errorf("failed to store rules: %w", err)
	}
	table, err := tariff.NewTable(version, rules)
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot: %w", err)
	}
	s.snapshot.Store(table)
	s.logger.Info("Rule snapshot swapped",
		zap.Int64("version", version),
		zap.Int("rules", table.Len()))
	return table, nil
}

// Snapshot returns the current rule table. A process that has never loaded
// rules serves an empty version-zero snapshot.
func (s *ReconcileService) Snapshot() *tariff.Table {
	return s.snapshot.Load()
}

// Profile resolves a profile name, empty meaning the built-in default.
func (s *ReconcileService) Profile(name string) (models.MappingProfile, error) {
	if name == "" || name == "default" {
		return models.DefaultProfile(), nil
	}
	return s.profileRepo.Get(name)
}

// SaveProfile validates and stores a profile.
func (s *ReconcileService) SaveProfile(profile models.MappingProfile) error {
	if profile.TieBreak == "" {
		profile.TieBreak = models.TieBreakRecency
	}
	if profile.TieBreak != models.TieBreakRecency && profile.TieBreak != models.TieBreakReject {
		return fmt.Errorf("unknown tie-break strategy %q", profile.TieBreak)
	}
	if profile.RoundingPrecision <= 0 {
		profile.RoundingPrecision = 2
	}
	if profile.PriceTolerance != "" {
		if _, err := decimal.NewFromString(profile.PriceTolerance); err != nil {
			return fmt.Errorf("invalid price tolerance %q", profile.PriceTolerance)
		}
	}
	return s.profileRepo.Save(profile)
}

// ListProfiles returns the stored profiles.
func (s *ReconcileService) ListProfiles() ([]models.MappingProfile, error) {
	return s.profileRepo.List()
}

// DeleteProfile removes a stored profile.
func (s *ReconcileService) DeleteProfile(name string) error {
	return s.profileRepo.Delete(name)
}

// Reconcile runs one document through the pipeline under the named profile.
func (s *ReconcileService) Reconcile(ctx context.Context, doc models.RawDocument,
	refDate time.Time, profileName string) (models.ReconciliationReport, error) {

	profile, err := s.Profile(profileName)
	if err != nil {
		return models.ReconciliationReport{}, err
	}
	p, err := s.buildPipeline(profile)
	if err != nil {
		return models.ReconciliationReport{}, err
	}
	return p.Run(ctx, doc, refDate)
}

// buildPipeline assembles extractor, resolver, and pipeline for a profile
// over the current snapshot.
func (s *ReconcileService) buildPipeline(profile models.MappingProfile) (*pipeline.Pipeline, error) {
	var tolerance decimal.Decimal
	if profile.PriceTolerance != "" {
		var err error
		tolerance, err = decimal.NewFromString(profile.PriceTolerance)
		if err != nil {
			return nil, fmt.Errorf("profile %s: invalid price tolerance: %w", profile.Name, err)
		}
	}

	var patterns []*extract.Pattern
	if len(profile.PatternOrder) > 0 {
		patterns = extract.PatternsByName(profile.PatternOrder...)
		if len(patterns) == 0 {
			return nil, fmt.Errorf("profile %s names no known patterns", profile.Name)
		}
	}

	extractor := extract.New(extract.Config{
		Patterns:       patterns,
		PriceTolerance: tolerance,
		Precision:      profile.RoundingPrecision,
		Deduplicate:    profile.Deduplicate,
	}, s.logger)

	snapshot := s.Snapshot()
	var opts []tariff.ResolverOption
	if profile.PrefixFallback {
		opts = append(opts, tariff.WithPrefixFallback())
	}
	opts = append(opts, tariff.WithTieBreak(profile.TieBreak))
	resolver := tariff.NewResolver(snapshot, tariff.NewCalculator(profile.RoundingPrecision), s.logger, opts...)

	return pipeline.New(extractor, resolver, snapshot, s.logger,
		pipeline.WithConcurrency(s.concurrency)), nil
}

// reloadSnapshot builds the in-memory table from the stored rule set.
func (s *ReconcileService) reloadSnapshot() error {
	rules, version, err := s.ruleRepo.LoadAll()
	if err != nil {
		return fmt.Errorf("failed to load stored rules: %w", err)
	}
	table, err := tariff.NewTable(version, rules)
	if err != nil {
		return fmt.Errorf("failed to build snapshot: %w", err)
	}
	s.snapshot.Store(table)
	s.logger.Info("Rule snapshot loaded",
		zap.Int64("version", version),
		zap.Int("rules", table.Len()))
	return nil
}
