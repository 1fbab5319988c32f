// Package lifecycle orchestrates evidence ingestion, recalculation, and
// staleness evaluation for one hypothesis at a time. The only triggers
// for recomputation are appending a new evidence record and the periodic
// staleness check; there is no independent transition table.
package lifecycle

import (
	"context"

	"cyclewise/domain/core"
	"cyclewise/domain/evidence"
	"cyclewise/domain/hypothesis"
	"cyclewise/internal"
	"cyclewise/internal/confidence"
	"cyclewise/internal/config"
	"cyclewise/ports"
)

// Updater re-derives a hypothesis's confidence, status, and staleness
// from its evidence list. State is never sticky: every evaluation
// recomputes the full projection.
type Updater struct {
	calc        *confidence.Calculator
	bands       hypothesis.Bands
	staleWindow int // days
	notifier    ports.TransitionNotifier
	log         *internal.Logger
}

// NewUpdater creates an updater. The notifier may be nil when no
// downstream consumer cares about confirmation transitions.
func NewUpdater(cfg config.LifecycleConfig, calc *confidence.Calculator, notifier ports.TransitionNotifier, log *internal.Logger) *Updater {
	if log == nil {
		log = internal.DefaultLogger
	}
	return &Updater{
		calc:        calc,
		bands:       cfg.Bands,
		staleWindow: cfg.StaleWindowDays,
		notifier:    notifier,
		log:         log.Named("lifecycle"),
	}
}

// Evaluate ingests optional new evidence, recalculates the confidence
// projection as of the given time, caches it on the aggregate, and
// returns the snapshot. Errors from malformed stored evidence surface
// synchronously: they indicate a data-integrity problem requiring
// intervention, not a recoverable condition.
func (u *Updater) Evaluate(ctx context.Context, h *hypothesis.Hypothesis, newEvidence *evidence.Record, asOf core.Timestamp) (hypothesis.Snapshot, error) {
	if newEvidence != nil {
		if err := h.AppendEvidence(*newEvidence); err != nil {
			return hypothesis.Snapshot{}, err
		}
	}

	score, breakdown, err := u.calc.Score(h.Evidence, asOf)
	if err != nil {
		return hypothesis.Snapshot{}, err
	}

	prevStatus := h.Status
	everConfirmed := u.wasEverConfirmed(h)

	status := hypothesis.DeriveStatus(score, h.HasContradiction(), u.bands)
	isStale := u.IsStale(h, asOf)

	h.RecordEvaluation(score, status, isStale, asOf)

	if status == hypothesis.StatusConfirmed && !everConfirmed {
		u.emitConfirmed(ctx, h, prevStatus, score, asOf)
	}

	return hypothesis.Snapshot{
		HypothesisID: h.ID,
		AsOf:         asOf,
		Confidence:   score,
		Status:       status,
		IsStale:      isStale,
		Breakdown:    breakdown,
	}, nil
}

// IsStale reports whether no evidence arrived within the stale window of
// asOf. Orthogonal to the confidence band: a CONFIRMED hypothesis goes
// stale the same way a FORMING one does. A hypothesis with no evidence
// at all is measured from its creation time.
func (u *Updater) IsStale(h *hypothesis.Hypothesis, asOf core.Timestamp) bool {
	latest := h.LatestEvidenceAt()
	if latest.IsZero() {
		latest = h.CreatedAt
	}
	if latest.IsZero() {
		return false
	}
	return latest.AgeDays(asOf) > float64(u.staleWindow)
}

// wasEverConfirmed checks the evaluation history for a prior CONFIRMED
// crossing, so the confirmation event fires exactly once per hypothesis.
func (u *Updater) wasEverConfirmed(h *hypothesis.Hypothesis) bool {
	if h.Status == hypothesis.StatusConfirmed {
		return true
	}
	for _, point := range h.ConfidenceHistory {
		if point.Confidence >= u.bands.ConfirmedMin {
			return true
		}
	}
	return false
}

func (u *Updater) emitConfirmed(ctx context.Context, h *hypothesis.Hypothesis, from hypothesis.Status, score float64, asOf core.Timestamp) {
	event := hypothesis.TransitionEvent{
		HypothesisID: h.ID,
		UserID:       h.UserID,
		Claim:        h.Claim,
		From:         from,
		To:           hypothesis.StatusConfirmed,
		Confidence:   score,
		OccurredAt:   asOf,
	}
	u.log.Info("hypothesis %s confirmed (%.3f)", h.ID, score)

	if u.notifier == nil {
		return
	}
	// Notification delivery failures never fail the evaluation.
	if err := u.notifier.NotifyConfirmed(ctx, event); err != nil {
		u.log.Warn("confirmation notification failed for %s: %v", h.ID, err)
	}
}
