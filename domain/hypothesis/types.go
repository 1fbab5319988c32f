package hypothesis

import (
	"fmt"

	"cyclewise/domain/core"
	"cyclewise/domain/evidence"
)

// Status is the lifecycle state derived from the current confidence value.
// States are never sticky: a CONFIRMED hypothesis that receives strong
// contradiction evidence falls back to TESTING or lower on the next
// evaluation.
type Status string

const (
	StatusForming   Status = "FORMING"
	StatusTesting   Status = "TESTING"
	StatusConfirmed Status = "CONFIRMED"
	StatusRejected  Status = "REJECTED"
)

// Bands holds the confidence thresholds that partition [0, 1] into
// lifecycle states. RejectionFloor is the product-defined negative floor
// reachable only through accumulated contradiction evidence.
type Bands struct {
	TestingMin     float64
	ConfirmedMin   float64
	RejectionFloor float64
}

// DefaultBands returns the standard band boundaries.
func DefaultBands() Bands {
	return Bands{
		TestingMin:     0.60,
		ConfirmedMin:   0.85,
		RejectionFloor: 0.15,
	}
}

// Validate checks band ordering.
func (b Bands) Validate() error {
	if b.RejectionFloor < 0 || b.RejectionFloor >= b.TestingMin {
		return fmt.Errorf("rejection floor %f must be in [0, testing min)", b.RejectionFloor)
	}
	if b.TestingMin >= b.ConfirmedMin || b.ConfirmedMin > 1 {
		return fmt.Errorf("band ordering invalid: testing %f, confirmed %f", b.TestingMin, b.ConfirmedMin)
	}
	return nil
}

// DeriveStatus is the pure projection from (confidence, contradiction
// presence) to a lifecycle state. REJECTED requires both a confidence at
// or below the floor and at least one contradiction record; a hypothesis
// that merely never accumulated support stays FORMING.
func DeriveStatus(confidence float64, hasContradiction bool, b Bands) Status {
	if hasContradiction && confidence <= b.RejectionFloor {
		return StatusRejected
	}
	switch {
	case confidence >= b.ConfirmedMin:
		return StatusConfirmed
	case confidence >= b.TestingMin:
		return StatusTesting
	default:
		return StatusForming
	}
}

// ConfidencePoint records one historical confidence evaluation.
type ConfidencePoint struct {
	Timestamp  core.Timestamp `json:"timestamp"`
	Confidence float64        `json:"confidence"`
}

// Hypothesis is the aggregate: a standing claim about the user plus its
// accumulated evidence and a read cache of the last-derived projections.
// Confidence, Status, and IsStale are always pure functions of
// (evidence, now); the stored values are caches, never sources of truth.
type Hypothesis struct {
	ID                core.HypothesisID `json:"id"`
	UserID            core.UserID       `json:"user_id"`
	Claim             string            `json:"claim"`
	Evidence          []evidence.Record `json:"evidence"`
	Confidence        float64           `json:"confidence"`
	Status            Status            `json:"status"`
	IsStale           bool              `json:"is_stale"`
	ConfidenceHistory []ConfidencePoint `json:"confidence_history"`
	CreatedAt         core.Timestamp    `json:"created_at"`
}

// New creates a hypothesis with zero evidence. Its confidence is whatever
// the calculator derives for an empty evidence list (the logistic of the
// bare prior); the caller evaluates immediately after creation.
func New(userID core.UserID, claim string, createdAt core.Timestamp) (*Hypothesis, error) {
	if claim == "" {
		return nil, fmt.Errorf("claim must be set")
	}
	return &Hypothesis{
		ID:        core.HypothesisID(core.NewID()),
		UserID:    userID,
		Claim:     claim,
		Evidence:  []evidence.Record{},
		Status:    StatusForming,
		CreatedAt: createdAt,
	}, nil
}

// AppendEvidence validates and appends a record. Evidence is append-only;
// records belonging to a different hypothesis are rejected.
func (h *Hypothesis) AppendEvidence(rec evidence.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if rec.HypothesisID != h.ID {
		return core.NewInvalidEvidenceError(
			fmt.Sprintf("record targets hypothesis %s, not %s", rec.HypothesisID, h.ID))
	}
	h.Evidence = append(h.Evidence, rec)
	return nil
}

// HasContradiction reports whether any contradiction evidence exists.
func (h *Hypothesis) HasContradiction() bool {
	for _, rec := range h.Evidence {
		if rec.IsContradiction {
			return true
		}
	}
	return false
}

// LatestEvidenceAt returns the timestamp of the most recent evidence
// record, or the zero timestamp when no evidence exists.
func (h *Hypothesis) LatestEvidenceAt() core.Timestamp {
	var latest core.Timestamp
	for _, rec := range h.Evidence {
		if rec.Timestamp.After(latest) {
			latest = rec.Timestamp
		}
	}
	return latest
}

// RecordEvaluation caches the derived projections and appends to the
// confidence history.
func (h *Hypothesis) RecordEvaluation(confidence float64, status Status, isStale bool, asOf core.Timestamp) {
	h.Confidence = confidence
	h.Status = status
	h.IsStale = isStale
	h.ConfidenceHistory = append(h.ConfidenceHistory, ConfidencePoint{
		Timestamp:  asOf,
		Confidence: confidence,
	})
}

// Snapshot is the externally visible result of one evaluation.
type Snapshot struct {
	HypothesisID core.HypothesisID  `json:"hypothesis_id"`
	AsOf         core.Timestamp     `json:"as_of"`
	Confidence   float64            `json:"confidence"`
	Status       Status             `json:"status"`
	IsStale      bool               `json:"is_stale"`
	Breakdown    evidence.Breakdown `json:"breakdown"`
}

// TransitionEvent is the structured notification emitted when an
// evaluation crosses upward into CONFIRMED for the first time.
// Delivery is out of scope; the engine only emits.
type TransitionEvent struct {
	HypothesisID core.HypothesisID `json:"hypothesis_id"`
	UserID       core.UserID       `json:"user_id"`
	Claim        string            `json:"claim"`
	From         Status            `json:"from"`
	To           Status            `json:"to"`
	Confidence   float64           `json:"confidence"`
	OccurredAt   core.Timestamp    `json:"occurred_at"`
}
