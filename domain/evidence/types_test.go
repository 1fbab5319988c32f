package evidence

import (
	"testing"
	"time"

	"cyclewise/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTS = core.NewTimestamp(time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC))

func TestNewRecordDerivesWeightAndFlag(t *testing.T) {
	hid := core.HypothesisID(core.NewID())

	tests := []struct {
		typ           Type
		wantWeight    float64
		contradiction bool
	}{
		{TypeUserConfirmation, 1.0, false},
		{TypeUserFeedback, 0.95, false},
		{TypeJournalEntry, 0.75, false},
		{TypeTrackedDataMatch, 0.70, false},
		{TypeCyclicalPattern, 0.35, false},
		{TypeInference, 0.25, false},
		{TypeUserRejection, -1.5, true},
		{TypeStrongCounter, -1.0, true},
		{TypeWeakCounter, -0.5, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			rec, err := NewRecord(hid, tt.typ, 0.8, testTS, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantWeight, rec.BaseWeight)
			assert.Equal(t, tt.contradiction, rec.IsContradiction)
			assert.NotEmpty(t, rec.ID)
			assert.NoError(t, rec.Validate())
		})
	}
}

func TestNewRecordRejectsBadInput(t *testing.T) {
	hid := core.HypothesisID(core.NewID())

	_, err := NewRecord(hid, Type("vibes"), 0.8, testTS, nil)
	assert.True(t, core.IsInvalidEvidenceError(err), "unknown type")

	_, err = NewRecord(hid, TypeJournalEntry, 0, testTS, nil)
	assert.True(t, core.IsInvalidEvidenceError(err), "zero reliability")

	_, err = NewRecord(hid, TypeJournalEntry, 1.2, testTS, nil)
	assert.True(t, core.IsInvalidEvidenceError(err), "reliability above one")

	_, err = NewRecord(hid, TypeJournalEntry, 0.8, core.Timestamp{}, nil)
	assert.True(t, core.IsInvalidEvidenceError(err), "zero timestamp")
}

func TestValidateFailsClosedOnTampering(t *testing.T) {
	hid := core.HypothesisID(core.NewID())
	rec, err := NewRecord(hid, TypeInference, 0.5, testTS, nil)
	require.NoError(t, err)

	tampered := rec
	tampered.BaseWeight = 1.0
	assert.True(t, core.IsInvalidEvidenceError(tampered.Validate()))

	tampered = rec
	tampered.IsContradiction = true
	assert.True(t, core.IsInvalidEvidenceError(tampered.Validate()))

	tampered = rec
	tampered.SourceReliability = -0.5
	assert.True(t, core.IsInvalidEvidenceError(tampered.Validate()))
}

func TestBreakdownBuckets(t *testing.T) {
	assert.Equal(t, "direct_user_action", SourceBucket(1.0))
	assert.Equal(t, "derived", SourceBucket(0.7))
	assert.Equal(t, "system_inference", SourceBucket(0.3))

	assert.Equal(t, "0-7d", AgeBucket(0))
	assert.Equal(t, "8-30d", AgeBucket(14))
	assert.Equal(t, "31-90d", AgeBucket(45))
	assert.Equal(t, "90d+", AgeBucket(365))
}

func TestBreakdownAddAccumulates(t *testing.T) {
	b := NewBreakdown()
	b.Add(TypeJournalEntry, 0.75, 3, 0.5)
	b.Add(TypeJournalEntry, 0.75, 40, 0.25)
	b.Add(TypeUserRejection, 1.0, 3, -1.2)

	assert.InDelta(t, -0.45, b.Total, 1e-9)
	assert.InDelta(t, 0.75, b.ByType[TypeJournalEntry], 1e-9)
	assert.InDelta(t, -1.2, b.ByType[TypeUserRejection], 1e-9)
	assert.InDelta(t, -0.7, b.ByAge["0-7d"], 1e-9)
	assert.InDelta(t, 0.25, b.ByAge["31-90d"], 1e-9)
}
