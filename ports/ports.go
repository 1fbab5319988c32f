// Package ports defines the boundary interfaces the engine consumes and
// exposes. Implementations live in adapters; the statistical core depends
// only on these contracts.
package ports

import (
	"context"

	"cyclewise/domain/core"
	"cyclewise/domain/hypothesis"
	"cyclewise/domain/observation"
	"cyclewise/domain/pattern"
)

// CycleLabelResolver resolves the cyclic context for a timestamp. The
// core never computes calendar or astronomical labels itself; it assumes
// only that the same timestamp always resolves to the same labels.
type CycleLabelResolver interface {
	LabelAt(ts core.Timestamp) (observation.CyclePeriodContext, error)
}

// CycleLabelResolverFunc adapts a plain function to the resolver port.
type CycleLabelResolverFunc func(ts core.Timestamp) (observation.CyclePeriodContext, error)

func (f CycleLabelResolverFunc) LabelAt(ts core.Timestamp) (observation.CyclePeriodContext, error) {
	return f(ts)
}

// ObservationReader provides read-only access to a user's logged
// observations. The observations are owned by the calling application.
type ObservationReader interface {
	ListByUser(ctx context.Context, userID core.UserID) ([]observation.Observation, error)
}

// PatternRepository persists detector findings. Upsert must treat the
// identity key (type, category, metric) as the unit of uniqueness:
// re-detection refreshes LastSeen/SupportingCount on the stored row
// instead of duplicating it. UpsertAll persists one detection run's
// patterns as a single atomic step.
type PatternRepository interface {
	UpsertAll(ctx context.Context, userID core.UserID, patterns []*pattern.CyclicalPattern) error
	ListByUser(ctx context.Context, userID core.UserID) ([]*pattern.CyclicalPattern, error)
}

// HypothesisRepository persists hypothesis aggregates with their
// evidence lists and cached projections.
type HypothesisRepository interface {
	Create(ctx context.Context, h *hypothesis.Hypothesis) error
	GetByID(ctx context.Context, id core.HypothesisID) (*hypothesis.Hypothesis, error)
	ListByUser(ctx context.Context, userID core.UserID) ([]*hypothesis.Hypothesis, error)
	Save(ctx context.Context, h *hypothesis.Hypothesis) error
}

// TransitionNotifier receives the structured event emitted when an
// evaluation crosses upward into CONFIRMED for the first time. Delivery
// is the consumer's concern; the engine only emits.
type TransitionNotifier interface {
	NotifyConfirmed(ctx context.Context, event hypothesis.TransitionEvent) error
}
