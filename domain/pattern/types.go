package pattern

import (
	"fmt"

	"cyclewise/domain/core"
	"cyclewise/domain/evidence"
)

// Type defines the detection method that produced a pattern
type Type string

const (
	TypeSymptomCorrelation Type = "symptom_correlation"
	TypeVarianceComparison Type = "variance_comparison"
	TypeThemeAlignment     Type = "theme_alignment"
	TypeEvolutionTrend     Type = "evolution_trend"
)

// IdentityKey uniquely identifies a pattern across detection runs.
// Re-detection of the same identity refreshes LastSeen/SupportingCount
// rather than duplicating the pattern.
type IdentityKey struct {
	Type        Type   `json:"type"`
	CategoryKey string `json:"category_key"`
	Metric      string `json:"metric"`
}

// String renders the identity key as a stable composite string.
func (k IdentityKey) String() string {
	return fmt.Sprintf("%s|%s|%s", k.Type, k.CategoryKey, k.Metric)
}

// CyclicalPattern is a statistically validated recurring relationship
// between a cyclic category and an observation metric. Immutable after
// creation except for LastSeen/SupportingCount refresh on re-detection.
type CyclicalPattern struct {
	ID              core.PatternID `json:"id"`
	Type            Type           `json:"pattern_type"`
	CategoryKey     string         `json:"category_key"`
	Metric          string         `json:"metric"`
	ObservedValue   float64        `json:"observed_value"`
	BaselineValue   float64        `json:"baseline_value"`
	Confidence      float64        `json:"confidence"`
	SupportingCount int            `json:"supporting_count"`
	FirstSeen       core.Timestamp `json:"first_seen"`
	LastSeen        core.Timestamp `json:"last_seen"`
	FindingText     string         `json:"finding_text"`
}

// Identity returns the pattern's identity key.
func (p CyclicalPattern) Identity() IdentityKey {
	return IdentityKey{Type: p.Type, CategoryKey: p.CategoryKey, Metric: p.Metric}
}

// New creates a validated pattern.
func New(t Type, categoryKey, metric string, observed, baseline, confidence float64,
	supportingCount int, asOf core.Timestamp, findingText string) (*CyclicalPattern, error) {

	if categoryKey == "" {
		return nil, fmt.Errorf("category key must be set")
	}
	if confidence < 0 || confidence > 1 {
		return nil, fmt.Errorf("confidence must be in [0, 1], got %f", confidence)
	}
	if supportingCount <= 0 {
		return nil, fmt.Errorf("supporting count must be > 0, got %d", supportingCount)
	}

	return &CyclicalPattern{
		ID:              core.PatternID(core.NewID()),
		Type:            t,
		CategoryKey:     categoryKey,
		Metric:          metric,
		ObservedValue:   observed,
		BaselineValue:   baseline,
		Confidence:      confidence,
		SupportingCount: supportingCount,
		FirstSeen:       asOf,
		LastSeen:        asOf,
		FindingText:     findingText,
	}, nil
}

// MustNew creates a pattern and panics on invalid input.
// Use only in tests - production code should handle validation errors.
func MustNew(t Type, categoryKey, metric string, observed, baseline, confidence float64,
	supportingCount int, asOf core.Timestamp, findingText string) *CyclicalPattern {
	p, err := New(t, categoryKey, metric, observed, baseline, confidence, supportingCount, asOf, findingText)
	if err != nil {
		panic(err)
	}
	return p
}

// Refresh updates the mutable re-detection fields on an existing identity.
func (p *CyclicalPattern) Refresh(supportingCount int, lastSeen core.Timestamp) {
	p.SupportingCount = supportingCount
	if lastSeen.After(p.LastSeen) {
		p.LastSeen = lastSeen
	}
}

// ToEvidence converts a pattern finding into an evidence record for a
// hypothesis. The mapping is fixed: cyclical_pattern type (base weight
// 0.35 from the tier table) with source reliability derived from the
// pattern's own statistical confidence.
func (p CyclicalPattern) ToEvidence(hypothesisID core.HypothesisID, asOf core.Timestamp) (evidence.Record, error) {
	reliability := p.Confidence
	if reliability <= 0 {
		reliability = 0.01
	}
	return evidence.NewRecord(hypothesisID, evidence.TypeCyclicalPattern, reliability, asOf, map[string]any{
		"pattern_id":       p.ID.String(),
		"pattern_type":     string(p.Type),
		"category_key":     p.CategoryKey,
		"metric":           p.Metric,
		"observed_value":   p.ObservedValue,
		"baseline_value":   p.BaselineValue,
		"supporting_count": p.SupportingCount,
		"finding_text":     p.FindingText,
	})
}

// InsufficientDataFinding records a category/metric candidate that failed
// the minimum-occurrence or minimum-observation bar. Reported explicitly
// per candidate, distinct from "analyzed and found nothing".
type InsufficientDataFinding struct {
	CategoryKey      string `json:"category_key"`
	Metric           string `json:"metric,omitempty"`
	Occurrences      int    `json:"occurrences"`
	RequiredOccur    int    `json:"required_occurrences"`
	ObservationCount int    `json:"observation_count"`
	Reason           string `json:"reason"`
}

// SkipReason codes for analyses that were skipped rather than failed
type SkipReason string

const (
	SkipZeroVariance SkipReason = "ZERO_VARIANCE"
	SkipTooFewGroups SkipReason = "TOO_FEW_GROUPS"
	SkipTooFewCycles SkipReason = "TOO_FEW_CYCLES"
	SkipNoFreeText   SkipReason = "NO_FREE_TEXT"
	SkipTimeBudget   SkipReason = "TIME_BUDGET"
)

// SkippedAnalysis records why a candidate analysis produced no verdict.
type SkippedAnalysis struct {
	AnalysisType Type       `json:"analysis_type"`
	CategoryKey  string     `json:"category_key,omitempty"`
	Metric       string     `json:"metric,omitempty"`
	Reason       SkipReason `json:"reason"`
}

// Manifest captures audit metadata for one detection run, in the spirit of
// a sweep manifest: counts, thresholds, runtime, and a deterministic
// fingerprint of the inputs.
type Manifest struct {
	UserID           core.UserID        `json:"user_id"`
	AsOf             core.Timestamp     `json:"as_of"`
	ObservationCount int                `json:"observation_count"`
	TestsExecuted    []string           `json:"tests_executed"`
	RuntimeMs        int64              `json:"runtime_ms"`
	TotalCandidates  int                `json:"total_candidates"`
	PatternsEmitted  int                `json:"patterns_emitted"`
	SkipCounts       map[SkipReason]int `json:"skip_counts"`
	Thresholds       map[string]string  `json:"thresholds"`
	Fingerprint      core.Hash          `json:"fingerprint"`
}

// DetectionReport is the complete output of one detection run.
// Partial is set when the wall-clock budget was exceeded and the report
// carries only the analyses validated before the deadline.
type DetectionReport struct {
	Patterns         []*CyclicalPattern        `json:"patterns"`
	InsufficientData []InsufficientDataFinding `json:"insufficient_data,omitempty"`
	Skipped          []SkippedAnalysis         `json:"skipped,omitempty"`
	Partial          bool                      `json:"partial"`
	Manifest         Manifest                  `json:"manifest"`
}
