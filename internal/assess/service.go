// Package assess runs the full assessment pipeline: probe orchestration,
// metric decomposition, score aggregation, and persistence.
package assess

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/presence-cli/internal/decompose"
	"github.com/sells-group/presence-cli/internal/model"
	"github.com/sells-group/presence-cli/internal/orchestrator"
	"github.com/sells-group/presence-cli/internal/scorer"
	"github.com/sells-group/presence-cli/internal/store"
)

// Service wires the assessment stages together. The store may be nil for
// one-shot CLI runs that only print the result.
type Service struct {
	orch       *orchestrator.Orchestrator
	probes     []orchestrator.ProbeConfig
	decomposer *decompose.Decomposer
	aggregator *scorer.Aggregator
	store      store.Store

	batchLimit int
}

// Option configures the Service.
type Option func(*Service)

// WithStore enables run persistence.
func WithStore(st store.Store) Option {
	return func(s *Service) { s.store = st }
}

// WithBatchLimit caps concurrent targets in batch assessment.
func WithBatchLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchLimit = n
		}
	}
}

// New creates a Service running the given probe set.
func New(probes []orchestrator.ProbeConfig, opts ...Option) *Service {
	s := &Service{
		orch:       orchestrator.New(),
		probes:     probes,
		decomposer: decompose.NewDecomposer(),
		aggregator: scorer.NewAggregator(),
		batchLimit: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Assess runs every probe against the target, decomposes the payloads into
// canonical metrics, aggregates the composite score, and persists the run.
func (s *Service) Assess(ctx context.Context, target model.Target) (*model.AssessmentRun, error) {
	handle, err := s.Begin(ctx, target)
	if err != nil {
		return nil, err
	}
	run, err := handle.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return s.Finalize(ctx, run)
}

// Begin starts the probes without blocking and returns the orchestrator
// handle for live status observation. The caller finalizes the run once
// the handle reports done.
func (s *Service) Begin(ctx context.Context, target model.Target) (*orchestrator.Handle, error) {
	log := zap.L().With(zap.String("url", target.URL), zap.String("name", target.Name))
	log.Info("assess: starting run")
	return s.orch.Begin(ctx, target, s.probes)
}

// Finalize decomposes and scores a finished run, then persists it.
func (s *Service) Finalize(ctx context.Context, run *model.AssessmentRun) (*model.AssessmentRun, error) {
	run.CanonicalMetrics = s.decomposer.Decompose(run)
	run.CompositeScore = s.aggregator.Aggregate(run)

	log := zap.L().With(zap.String("run_id", run.ID), zap.String("url", run.Target.URL))
	if run.CompositeScore != nil {
		log.Info("assess: run scored", zap.Float64("composite_score", *run.CompositeScore))
	} else {
		log.Warn("assess: run produced no score")
	}

	if s.store != nil {
		if err := s.store.SaveRun(ctx, run); err != nil {
			return nil, eris.Wrap(err, "assess: save run")
		}
	}
	return run, nil
}

// AssessBatch assesses targets concurrently with a bounded worker count.
// A failed target does not abort the batch; its slot in the result slice
// is nil and the first error is returned after all targets finish.
func (s *Service) AssessBatch(ctx context.Context, targets []model.Target) ([]*model.AssessmentRun, error) {
	runs := make([]*model.AssessmentRun, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchLimit)

	var mu sync.Mutex
	var firstErr error
	for i, target := range targets {
		g.Go(func() error {
			run, err := s.Assess(gctx, target)
			if err != nil {
				zap.L().Error("assess: batch target failed",
					zap.String("url", target.URL), zap.Error(err))
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return nil
			}
			runs[i] = run
			return nil
		})
	}
	_ = g.Wait()
	return runs, firstErr
}
