package pattern

import (
	"testing"
	"time"

	"cyclewise/domain/core"
	"cyclewise/domain/evidence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var patTS = core.NewTimestamp(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))

func TestNewValidation(t *testing.T) {
	_, err := New(TypeVarianceComparison, "", "mood", 8.0, 4.0, 0.9, 4, patTS, "")
	assert.Error(t, err, "empty category key")

	_, err = New(TypeVarianceComparison, "tide", "mood", 8.0, 4.0, 1.2, 4, patTS, "")
	assert.Error(t, err, "confidence out of range")

	_, err = New(TypeVarianceComparison, "tide", "mood", 8.0, 4.0, 0.9, 0, patTS, "")
	assert.Error(t, err, "zero supporting count")

	p, err := New(TypeVarianceComparison, "tide", "mood", 8.0, 4.0, 0.9, 4, patTS, "mood differs")
	require.NoError(t, err)
	assert.Equal(t, patTS, p.FirstSeen)
	assert.Equal(t, patTS, p.LastSeen)
}

func TestIdentityKey(t *testing.T) {
	p := MustNew(TypeSymptomCorrelation, "tide", "headache", 0.6, 0.18, 0.95, 4, patTS, "")
	assert.Equal(t, IdentityKey{TypeSymptomCorrelation, "tide", "headache"}, p.Identity())
	assert.Equal(t, "symptom_correlation|tide|headache", p.Identity().String())
}

func TestRefresh(t *testing.T) {
	p := MustNew(TypeThemeAlignment, "gale", "free_text", 0.8, 0.3, 0.8, 3, patTS, "")
	later := core.NewTimestamp(patTS.Time().AddDate(0, 1, 0))

	p.Refresh(5, later)
	assert.Equal(t, 5, p.SupportingCount)
	assert.Equal(t, later, p.LastSeen)
	assert.Equal(t, patTS, p.FirstSeen)

	// A stale re-detection never rolls LastSeen backwards
	p.Refresh(6, patTS)
	assert.Equal(t, later, p.LastSeen)
}

func TestToEvidence(t *testing.T) {
	hid := core.HypothesisID(core.NewID())
	p := MustNew(TypeEvolutionTrend, "tide", "mood", 1.0, 4.0, 0.92, 3, patTS, "mood rising year over year")

	rec, err := p.ToEvidence(hid, patTS)
	require.NoError(t, err)

	assert.Equal(t, evidence.TypeCyclicalPattern, rec.Type)
	assert.Equal(t, 0.35, rec.BaseWeight)
	assert.Equal(t, 0.92, rec.SourceReliability)
	assert.False(t, rec.IsContradiction)
	assert.Equal(t, p.ID.String(), rec.Payload["pattern_id"])
	assert.Equal(t, "tide", rec.Payload["category_key"])
	assert.NoError(t, rec.Validate())
}
