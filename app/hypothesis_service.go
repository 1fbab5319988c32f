package app

import (
	"context"

	"cyclewise/domain/core"
	"cyclewise/domain/evidence"
	"cyclewise/domain/hypothesis"
	"cyclewise/domain/pattern"
	"cyclewise/internal"
	"cyclewise/internal/lifecycle"
	"cyclewise/ports"

	"golang.org/x/sync/errgroup"
)

// HypothesisService orchestrates hypothesis lifecycle operations against
// the repository: creation, evidence ingestion, per-user re-evaluation,
// and feeding detector findings into standing hypotheses as evidence.
type HypothesisService struct {
	hypotheses ports.HypothesisRepository
	updater    *lifecycle.Updater
	log        *internal.Logger

	// Degree of parallelism for per-user re-evaluation sweeps.
	evalWorkers int
}

// NewHypothesisService creates a hypothesis service.
func NewHypothesisService(hypotheses ports.HypothesisRepository, updater *lifecycle.Updater, log *internal.Logger) *HypothesisService {
	if log == nil {
		log = internal.DefaultLogger
	}
	return &HypothesisService{
		hypotheses:  hypotheses,
		updater:     updater,
		log:         log.Named("hypothesis"),
		evalWorkers: 4,
	}
}

// Propose creates a new hypothesis, evaluates it immediately so its
// stored confidence reflects the bare prior, and persists it.
func (s *HypothesisService) Propose(ctx context.Context, userID core.UserID, claim string, asOf core.Timestamp) (*hypothesis.Hypothesis, error) {
	h, err := hypothesis.New(userID, claim, asOf)
	if err != nil {
		return nil, err
	}
	if _, err := s.updater.Evaluate(ctx, h, nil, asOf); err != nil {
		return nil, err
	}
	if err := s.hypotheses.Create(ctx, h); err != nil {
		return nil, err
	}
	s.log.Info("proposed hypothesis %s for %s", h.ID, userID)
	return h, nil
}

// SubmitEvidence appends one evidence record to a hypothesis,
// re-evaluates it, and persists the result.
func (s *HypothesisService) SubmitEvidence(ctx context.Context, id core.HypothesisID, rec evidence.Record) (hypothesis.Snapshot, error) {
	h, err := s.hypotheses.GetByID(ctx, id)
	if err != nil {
		return hypothesis.Snapshot{}, err
	}

	snap, err := s.updater.Evaluate(ctx, h, &rec, rec.Timestamp)
	if err != nil {
		return hypothesis.Snapshot{}, err
	}
	if err := s.hypotheses.Save(ctx, h); err != nil {
		return hypothesis.Snapshot{}, err
	}
	return snap, nil
}

// IngestPatterns converts detector findings into cyclical_pattern
// evidence for the hypotheses they bear on. The link function decides
// which hypotheses a pattern supports; patterns that link to nothing are
// skipped silently.
func (s *HypothesisService) IngestPatterns(ctx context.Context, userID core.UserID,
	patterns []*pattern.CyclicalPattern, link func(*pattern.CyclicalPattern, *hypothesis.Hypothesis) bool,
	asOf core.Timestamp) error {

	all, err := s.hypotheses.ListByUser(ctx, userID)
	if err != nil {
		return err
	}

	for _, h := range all {
		changed := false
		for _, p := range patterns {
			if !link(p, h) {
				continue
			}
			rec, err := p.ToEvidence(h.ID, asOf)
			if err != nil {
				return err
			}
			if _, err := s.updater.Evaluate(ctx, h, &rec, asOf); err != nil {
				return err
			}
			changed = true
		}
		if changed {
			if err := s.hypotheses.Save(ctx, h); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReevaluateUser re-derives confidence, status, and staleness for every
// hypothesis a user holds, in parallel. Used by the periodic staleness
// sweep; no new evidence is ingested.
func (s *HypothesisService) ReevaluateUser(ctx context.Context, userID core.UserID, asOf core.Timestamp) ([]hypothesis.Snapshot, error) {
	all, err := s.hypotheses.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Each goroutine owns its slice slot; no shared mutable state.
	snapshots := make([]hypothesis.Snapshot, len(all))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.evalWorkers)
	for i, h := range all {
		i, h := i, h
		g.Go(func() error {
			snap, err := s.updater.Evaluate(gctx, h, nil, asOf)
			if err != nil {
				return err
			}
			if err := s.hypotheses.Save(gctx, h); err != nil {
				return err
			}
			snapshots[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshots, nil
}
