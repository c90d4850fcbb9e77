// Package pipeline wires normalization, extraction, resolution, and report
// assembly into one reconciliation run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/millworks/tariffmill/internal/extract"
	"github.com/millworks/tariffmill/internal/models"
	"github.com/millworks/tariffmill/internal/normalize"
	"github.com/millworks/tariffmill/internal/report"
	"github.com/millworks/tariffmill/internal/tariff"
)

// ErrPackingList marks a document that is a packing list rather than a
// commercial invoice. Packing lists carry quantities but no prices, so
// reconciling one would only produce noise.
var ErrPackingList = errors.New("document is a packing list")

// Pipeline runs reconciliation over a fixed rule snapshot. A Pipeline is
// immutable after construction; reloading rules means building a new one.
type Pipeline struct {
	extractor   *extract.Extractor
	resolver    *tariff.Resolver
	snapshot    *tariff.Table
	concurrency int
	logger      *zap.Logger
}

type Option func(*Pipeline)

// WithConcurrency caps the number of items resolved in parallel.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

func New(extractor *extract.Extractor, resolver *tariff.Resolver, snapshot *tariff.Table,
	logger *zap.Logger, opts ...Option) *Pipeline {

	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		extractor:   extractor,
		resolver:    resolver,
		snapshot:    snapshot,
		concurrency: runtime.NumCPU(),
		logger:      logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run reconciles one document against the snapshot at the reference date.
// Results come back in extraction order regardless of how resolution was
// scheduled, so two runs over the same inputs produce the same report.
func (p *Pipeline) Run(ctx context.Context, doc models.RawDocument, refDate time.Time) (models.ReconciliationReport, error) {
	if IsPackingList(doc.Text) {
		return models.ReconciliationReport{}, fmt.Errorf("document %s: %w", doc.ID, ErrPackingList)
	}

	lines := normalize.Lines(doc.Text)
	items, residue := p.extractor.Extract(lines)

	results := make([]models.ResolutionResult, len(items))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = p.resolver.Resolve(item, refDate)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.ReconciliationReport{}, fmt.Errorf("resolve document %s: %w", doc.ID, err)
	}

	rpt := report.Build(doc.ID, refDate, p.snapshot.Version(), results, residue)
	p.logger.Info("document reconciled",
		zap.String("document_id", doc.ID),
		zap.Int("items", rpt.Totals.Items),
		zap.Int("residue", len(rpt.Residue)),
		zap.Int("exceptions", len(rpt.Exceptions)),
		zap.Int64("snapshot_version", p.snapshot.Version()))
	return rpt, nil
}

// RunBatch reconciles documents in order, stopping at the first failure or
// at context cancellation between documents.
func (p *Pipeline) RunBatch(ctx context.Context, docs []models.RawDocument, refDate time.Time) ([]models.ReconciliationReport, error) {
	reports := make([]models.ReconciliationReport, 0, len(docs))
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		rpt, err := p.Run(ctx, doc, refDate)
		if err != nil {
			return reports, err
		}
		reports = append(reports, rpt)
	}
	return reports, nil
}

// IsPackingList reports whether the document is only a packing list.
// Combined documents headed "COMMERCIAL INVOICE AND PACKING LIST" carry
// prices and are processed; a bare packing list is not.
func IsPackingList(text string) bool {
	lower := strings.ToLower(text)
	if !strings.Contains(lower, "packing list") {
		return false
	}
	return !strings.Contains(lower, "invoice") && !strings.Contains(lower, "commercial")
}
