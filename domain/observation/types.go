package observation

import (
	"sort"

	"cyclewise/domain/core"
)

// Observation is a single user-logged data point. Immutable once logged;
// owned by the calling application and read-only to this core.
type Observation struct {
	ID          core.ObservationID `json:"id"`
	UserID      core.UserID        `json:"user_id"`
	Timestamp   core.Timestamp     `json:"timestamp"`
	Mood        *float64           `json:"mood,omitempty"`
	Energy      *float64           `json:"energy,omitempty"`
	SymptomTags []string           `json:"symptom_tags,omitempty"`
	FreeText    string             `json:"free_text,omitempty"`
}

// HasSymptom reports whether the observation carries the given symptom tag.
func (o Observation) HasSymptom(tag string) bool {
	for _, t := range o.SymptomTags {
		if t == tag {
			return true
		}
	}
	return false
}

// Metric names for continuous observation values
type Metric string

const (
	MetricMood   Metric = "mood"
	MetricEnergy Metric = "energy"
)

// Value returns the observation's value for a continuous metric,
// and whether it was recorded.
func (o Observation) Value(m Metric) (float64, bool) {
	switch m {
	case MetricMood:
		if o.Mood != nil {
			return *o.Mood, true
		}
	case MetricEnergy:
		if o.Energy != nil {
			return *o.Energy, true
		}
	}
	return 0, false
}

// CyclePeriodContext is the externally resolved cyclic labeling for a point
// in time. The core never computes these labels itself and assumes only
// that the same timestamp always resolves to the same labels.
type CyclePeriodContext struct {
	MacroCategory string `json:"macro_category"`
	MacroTheme    string `json:"macro_theme"`
	MicroCategory string `json:"micro_category"`
}

// Occurrence is one contiguous run of observations that resolved to the
// same category. Detection eligibility is counted in occurrences, not in
// raw observations.
type Occurrence struct {
	CategoryKey  string
	Theme        string
	Observations []Observation
}

// Start returns the timestamp of the first observation in the occurrence.
func (oc Occurrence) Start() core.Timestamp {
	return oc.Observations[0].Timestamp
}

// End returns the timestamp of the last observation in the occurrence.
func (oc Occurrence) End() core.Timestamp {
	return oc.Observations[len(oc.Observations)-1].Timestamp
}

// Grouping holds all occurrences of a single category.
type Grouping struct {
	CategoryKey string
	Theme       string
	Occurrences []Occurrence
}

// TotalObservations counts observations across all occurrences.
func (g Grouping) TotalObservations() int {
	n := 0
	for _, oc := range g.Occurrences {
		n += len(oc.Observations)
	}
	return n
}

// LabelFunc resolves the cyclic context for a timestamp. It must be
// deterministic over the observation timestamp range.
type LabelFunc func(ts core.Timestamp) (CyclePeriodContext, error)

// CategoryLevel selects which resolved label a grouping keys on.
type CategoryLevel int

const (
	MacroLevel CategoryLevel = iota
	MicroLevel
)

// GroupByCategory sorts observations chronologically, resolves each one's
// cyclic context, and splits them into contiguous occurrences per category.
// A new occurrence of a category starts whenever the label sequence leaves
// the category and later re-enters it.
func GroupByCategory(obs []Observation, label LabelFunc, level CategoryLevel) (map[string]*Grouping, error) {
	sorted := make([]Observation, len(obs))
	copy(sorted, obs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	groupings := make(map[string]*Grouping)
	prevKey := ""

	for _, o := range sorted {
		cyctx, err := label(o.Timestamp)
		if err != nil {
			return nil, core.ErrLabelResolution
		}

		key := cyctx.MacroCategory
		if level == MicroLevel {
			key = cyctx.MicroCategory
		}
		if key == "" {
			prevKey = ""
			continue
		}

		g, ok := groupings[key]
		if !ok {
			g = &Grouping{CategoryKey: key, Theme: cyctx.MacroTheme}
			groupings[key] = g
		}

		if key != prevKey || len(g.Occurrences) == 0 {
			g.Occurrences = append(g.Occurrences, Occurrence{
				CategoryKey: key,
				Theme:       cyctx.MacroTheme,
			})
		}
		last := &g.Occurrences[len(g.Occurrences)-1]
		last.Observations = append(last.Observations, o)

		prevKey = key
	}

	return groupings, nil
}

// SortedCategoryKeys returns grouping keys in lexical order so detection
// iterates categories deterministically.
func SortedCategoryKeys(groupings map[string]*Grouping) []string {
	keys := make([]string, 0, len(groupings))
	for k := range groupings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
