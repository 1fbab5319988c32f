package observation

import (
	"errors"
	"testing"
	"time"

	"cyclewise/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obsAt(t *testing.T, day int) Observation {
	t.Helper()
	ts := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, day)
	return Observation{
		ID:        core.ObservationID(core.NewID()),
		UserID:    core.UserID("u"),
		Timestamp: core.NewTimestamp(ts),
	}
}

// labelByDay builds a LabelFunc that maps day offsets to macro categories.
func labelByDay(categories map[int]string) LabelFunc {
	epoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func(ts core.Timestamp) (CyclePeriodContext, error) {
		day := int(ts.Time().Sub(epoch).Hours() / 24)
		return CyclePeriodContext{MacroCategory: categories[day]}, nil
	}
}

func TestGroupByCategoryContiguity(t *testing.T) {
	// Day sequence A A B A: category A must split into two occurrences.
	labels := map[int]string{0: "A", 1: "A", 2: "B", 3: "A"}
	obs := []Observation{obsAt(t, 3), obsAt(t, 0), obsAt(t, 2), obsAt(t, 1)}

	groups, err := GroupByCategory(obs, labelByDay(labels), MacroLevel)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	a := groups["A"]
	require.Len(t, a.Occurrences, 2)
	assert.Len(t, a.Occurrences[0].Observations, 2)
	assert.Len(t, a.Occurrences[1].Observations, 1)
	assert.Equal(t, 3, a.TotalObservations())

	b := groups["B"]
	require.Len(t, b.Occurrences, 1)

	// Occurrence boundaries follow chronology regardless of input order
	assert.True(t, a.Occurrences[0].End().Before(a.Occurrences[1].Start()))
}

func TestGroupByCategorySkipsUnlabeled(t *testing.T) {
	// An unlabeled gap between two A-days still breaks contiguity.
	labels := map[int]string{0: "A", 1: "", 2: "A"}
	obs := []Observation{obsAt(t, 0), obsAt(t, 1), obsAt(t, 2)}

	groups, err := GroupByCategory(obs, labelByDay(labels), MacroLevel)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups["A"].Occurrences, 2)
}

func TestGroupByCategoryLabelError(t *testing.T) {
	failing := func(core.Timestamp) (CyclePeriodContext, error) {
		return CyclePeriodContext{}, errors.New("resolver offline")
	}
	_, err := GroupByCategory([]Observation{obsAt(t, 0)}, failing, MacroLevel)
	assert.ErrorIs(t, err, core.ErrLabelResolution)
}

func TestObservationValue(t *testing.T) {
	mood := 7.5
	o := Observation{Mood: &mood}

	v, ok := o.Value(MetricMood)
	assert.True(t, ok)
	assert.Equal(t, 7.5, v)

	_, ok = o.Value(MetricEnergy)
	assert.False(t, ok)
}

func TestHasSymptom(t *testing.T) {
	o := Observation{SymptomTags: []string{"headache", "fatigue"}}
	assert.True(t, o.HasSymptom("fatigue"))
	assert.False(t, o.HasSymptom("nausea"))
}
