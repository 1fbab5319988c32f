package evidence

import (
	"fmt"

	"cyclewise/domain/core"
)

// Type is the closed set of evidence kinds. Unknown tags are rejected at
// the boundary rather than silently assigned a default weight.
type Type string

const (
	// Supporting evidence
	TypeUserConfirmation Type = "user_confirmation" // explicit user confirmation
	TypeUserFeedback     Type = "user_feedback"     // explicit user feedback
	TypeJournalEntry     Type = "journal_entry"     // journal-derived evidence
	TypeTrackedDataMatch Type = "tracked_data"      // tracked-data match
	TypeCyclicalPattern  Type = "cyclical_pattern"  // detector finding
	TypeInference        Type = "inference"         // system inference only

	// Contradicting evidence (negative weights)
	TypeUserRejection Type = "user_rejection"
	TypeStrongCounter Type = "strong_counter"
	TypeWeakCounter   Type = "weak_counter"
)

// baseWeights is the closed tier table mapping each evidence type to its
// base contribution. Contradiction types carry negative weights.
var baseWeights = map[Type]float64{
	TypeUserConfirmation: 1.0,
	TypeUserFeedback:     0.95,
	TypeJournalEntry:     0.75,
	TypeTrackedDataMatch: 0.70,
	TypeCyclicalPattern:  0.35,
	TypeInference:        0.25,
	TypeUserRejection:    -1.5,
	TypeStrongCounter:    -1.0,
	TypeWeakCounter:      -0.5,
}

// contradictions marks types whose weight opposes the hypothesis.
var contradictions = map[Type]bool{
	TypeUserRejection: true,
	TypeStrongCounter: true,
	TypeWeakCounter:   true,
}

// IsValidType reports whether t is in the closed enum.
func IsValidType(t Type) bool {
	_, ok := baseWeights[t]
	return ok
}

// BaseWeight returns the tier-table weight for a type.
func BaseWeight(t Type) (float64, error) {
	w, ok := baseWeights[t]
	if !ok {
		return 0, core.NewInvalidEvidenceError(fmt.Sprintf("unknown evidence type %q", t))
	}
	return w, nil
}

// IsContradiction reports whether a type opposes the hypothesis.
func IsContradiction(t Type) bool {
	return contradictions[t]
}

// Record is an immutable, normalized unit of support or contradiction
// for a hypothesis. Append-only; never mutated after creation.
type Record struct {
	ID                core.EvidenceID   `json:"id"`
	HypothesisID      core.HypothesisID `json:"hypothesis_id"`
	Type              Type              `json:"type"`
	BaseWeight        float64           `json:"base_weight"`
	SourceReliability float64           `json:"source_reliability"`
	Timestamp         core.Timestamp    `json:"timestamp"`
	IsContradiction   bool              `json:"is_contradiction"`
	Payload           map[string]any    `json:"payload,omitempty"`
}

// NewRecord builds a validated evidence record for a hypothesis. The base
// weight and contradiction flag are derived from the tier table, never
// supplied by the caller.
func NewRecord(hypothesisID core.HypothesisID, t Type, sourceReliability float64, ts core.Timestamp, payload map[string]any) (Record, error) {
	w, err := BaseWeight(t)
	if err != nil {
		return Record{}, err
	}
	if sourceReliability <= 0 || sourceReliability > 1 {
		return Record{}, core.NewInvalidEvidenceError(
			fmt.Sprintf("source reliability %f outside (0, 1]", sourceReliability))
	}
	if ts.IsZero() {
		return Record{}, core.NewInvalidEvidenceError("missing timestamp")
	}

	return Record{
		ID:                core.EvidenceID(core.NewID()),
		HypothesisID:      hypothesisID,
		Type:              t,
		BaseWeight:        w,
		SourceReliability: sourceReliability,
		Timestamp:         ts,
		IsContradiction:   IsContradiction(t),
		Payload:           payload,
	}, nil
}

// Validate checks a stored record before it enters the weighted sum. The
// calculator fails closed on malformed records because they indicate a
// data-integrity problem, not a recoverable condition.
func (r Record) Validate() error {
	expected, err := BaseWeight(r.Type)
	if err != nil {
		return err
	}
	if r.BaseWeight != expected {
		return core.NewInvalidEvidenceError(
			fmt.Sprintf("base weight %f does not match tier table value %f for type %q",
				r.BaseWeight, expected, r.Type))
	}
	if r.SourceReliability <= 0 || r.SourceReliability > 1 {
		return core.NewInvalidEvidenceError(
			fmt.Sprintf("source reliability %f outside (0, 1]", r.SourceReliability))
	}
	if r.Timestamp.IsZero() {
		return core.NewInvalidEvidenceError("missing timestamp")
	}
	if r.IsContradiction != IsContradiction(r.Type) {
		return core.NewInvalidEvidenceError(
			fmt.Sprintf("contradiction flag inconsistent with type %q", r.Type))
	}
	return nil
}
