package testkit

import (
	"fmt"
	"math/rand"
	"time"

	"cyclewise/domain/core"
	"cyclewise/domain/observation"
)

// CycleGeneratorConfig configures the synthetic observation generator.
// Categories repeat in a fixed rotation so the fixture exercises the
// occurrence-grouping logic the same way real cyclic labels would.
type CycleGeneratorConfig struct {
	UserID           core.UserID
	Categories       []CategorySpec
	DaysPerCategory  int       // length of one contiguous occurrence
	Cycles           int       // full rotations through all categories
	ObsPerDay        int       // observations logged per day
	MoodBase         float64   // mean mood outside any category effect
	EnergyBase       float64   // mean energy outside any category effect
	Noise            float64   // stddev of metric noise
	BaselineSymptoms []string  // tags present at BaselineRate everywhere
	BaselineRate     float64
	StartDate        time.Time
	Seed             int64
}

// CategorySpec declares one cyclic category and the effects planted in it.
type CategorySpec struct {
	Key          string
	Theme        string
	MoodShift    float64            // added to MoodBase inside this category
	EnergyShift  float64            // added to EnergyBase inside this category
	SymptomRates map[string]float64 // per-tag occurrence rate inside this category
	ThemedText   bool               // free text echoes the category theme
}

// DefaultCycleConfig returns a fixture with four rotating categories and
// deliberately planted effects for detection tests to find.
func DefaultCycleConfig() CycleGeneratorConfig {
	return CycleGeneratorConfig{
		UserID:          core.UserID("user-fixture"),
		DaysPerCategory: 7,
		Cycles:          4,
		ObsPerDay:       1,
		MoodBase:        5.0,
		EnergyBase:      5.0,
		Noise:           0.8,
		BaselineSymptoms: []string{
			"headache", "restless",
		},
		BaselineRate: 0.15,
		StartDate:    time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC),
		Seed:         42,
		Categories: []CategorySpec{
			{Key: "ember", Theme: "drive ambition action", MoodShift: 1.8, EnergyShift: 2.2},
			{Key: "tide", Theme: "rest reflection quiet", MoodShift: -0.5, EnergyShift: -1.5,
				SymptomRates: map[string]float64{"headache": 0.60}},
			{Key: "gale", Theme: "connection talk exchange", ThemedText: true},
			{Key: "stone", Theme: "focus structure patience"},
		},
	}
}

// CycleGenerator produces deterministic synthetic observations plus the
// matching label resolver.
type CycleGenerator struct {
	config CycleGeneratorConfig
	rng    *rand.Rand
}

// NewCycleGenerator creates a generator with a seeded RNG so fixtures are
// reproducible across runs.
func NewCycleGenerator(config CycleGeneratorConfig) *CycleGenerator {
	return &CycleGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate produces the observation history for the configured rotation.
func (g *CycleGenerator) Generate() []observation.Observation {
	var obs []observation.Observation
	day := 0

	for cycle := 0; cycle < g.config.Cycles; cycle++ {
		for _, cat := range g.config.Categories {
			for d := 0; d < g.config.DaysPerCategory; d++ {
				for o := 0; o < g.config.ObsPerDay; o++ {
					ts := g.config.StartDate.AddDate(0, 0, day).
						Add(time.Duration(o) * 3 * time.Hour)
					obs = append(obs, g.observationFor(cat, ts))
				}
				day++
			}
		}
	}
	return obs
}

func (g *CycleGenerator) observationFor(cat CategorySpec, ts time.Time) observation.Observation {
	mood := g.config.MoodBase + cat.MoodShift + g.rng.NormFloat64()*g.config.Noise
	energy := g.config.EnergyBase + cat.EnergyShift + g.rng.NormFloat64()*g.config.Noise

	var tags []string
	for _, tag := range g.config.BaselineSymptoms {
		rate := g.config.BaselineRate
		if r, ok := cat.SymptomRates[tag]; ok {
			rate = r
		}
		if g.rng.Float64() < rate {
			tags = append(tags, tag)
		}
	}

	text := ""
	if cat.ThemedText {
		text = fmt.Sprintf("Feeling the %s today, lots of %s", cat.Theme, cat.Key)
	} else if g.rng.Float64() < 0.3 {
		text = "Ordinary day, nothing of note"
	}

	return observation.Observation{
		ID:          core.ObservationID(core.NewID()),
		UserID:      g.config.UserID,
		Timestamp:   core.NewTimestamp(ts),
		Mood:        &mood,
		Energy:      &energy,
		SymptomTags: tags,
		FreeText:    text,
	}
}

// Resolver returns the label function matching the generated rotation:
// the same timestamp always resolves to the same category labels.
func (g *CycleGenerator) Resolver() observation.LabelFunc {
	cfg := g.config
	rotationDays := cfg.DaysPerCategory * len(cfg.Categories)

	return func(ts core.Timestamp) (observation.CyclePeriodContext, error) {
		days := int(ts.Time().Sub(cfg.StartDate).Hours() / 24)
		if days < 0 {
			days = 0
		}
		idx := (days % rotationDays) / cfg.DaysPerCategory
		cat := cfg.Categories[idx]
		return observation.CyclePeriodContext{
			MacroCategory: cat.Key,
			MacroTheme:    cat.Theme,
			MicroCategory: fmt.Sprintf("%s-day-%d", cat.Key, days%cfg.DaysPerCategory+1),
		}, nil
	}
}
