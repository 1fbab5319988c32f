package detect

import (
	"context"
	"fmt"
	"time"

	"cyclewise/domain/core"
	"cyclewise/domain/observation"
	"cyclewise/domain/pattern"
	"cyclewise/internal"
	"cyclewise/internal/config"
)

// Detector finds recurring, statistically defensible relationships between
// cyclic-category labels and observation metrics. All four detection
// methods are pure functions of the observation set and label resolver:
// re-running against identical inputs reproduces identical pattern sets.
type Detector struct {
	cfg config.DetectorConfig
	log *internal.Logger
}

// New creates a detector with explicit thresholds.
func New(cfg config.DetectorConfig, log *internal.Logger) *Detector {
	if log == nil {
		log = internal.DefaultLogger
	}
	return &Detector{cfg: cfg, log: log.Named("detect")}
}

// run carries the state of a single detection invocation.
type run struct {
	cfg      config.DetectorConfig
	log      *internal.Logger
	asOf     core.Timestamp
	deadline time.Time
	ctx      context.Context

	eligible     map[string]*observation.Grouping
	eligibleKeys []string
	totalObs     int

	report *pattern.DetectionReport
}

// Run executes all four detection methods over a user's observation
// history. The full input set is loaded once and computed in memory; the
// caller persists the resulting report in a single atomic step.
//
// When the configured wall-clock budget (or the context deadline) is
// exceeded, Run returns the patterns already validated with Partial set,
// never an error.
func (d *Detector) Run(ctx context.Context, obs []observation.Observation, label observation.LabelFunc, asOf core.Timestamp) (*pattern.DetectionReport, error) {
	start := time.Now()

	r := &run{
		cfg:  d.cfg,
		log:  d.log,
		asOf: asOf,
		ctx:  ctx,
		report: &pattern.DetectionReport{
			Patterns: []*pattern.CyclicalPattern{},
			Manifest: pattern.Manifest{
				AsOf:             asOf,
				ObservationCount: len(obs),
				SkipCounts:       make(map[pattern.SkipReason]int),
			},
		},
	}
	if len(obs) > 0 {
		r.report.Manifest.UserID = obs[0].UserID
	}
	if d.cfg.TimeBudget > 0 {
		r.deadline = start.Add(d.cfg.TimeBudget)
	}
	if ctxDeadline, ok := ctx.Deadline(); ok {
		if r.deadline.IsZero() || ctxDeadline.Before(r.deadline) {
			r.deadline = ctxDeadline
		}
	}

	groupings, err := observation.GroupByCategory(obs, label, observation.MacroLevel)
	if err != nil {
		return nil, err
	}
	r.totalObs = len(obs)
	r.filterEligible(groupings)

	// Detector-level failures are isolated per analysis type: one failing
	// method never aborts the batch.
	type method struct {
		name string
		fn   func(r *run, obs []observation.Observation)
	}
	methods := []method{
		{"symptom_correlation", d.detectSymptomCorrelations},
		{"variance_comparison", d.detectVarianceComparisons},
		{"theme_alignment", d.detectThemeAlignments},
		{"evolution_trend", d.detectEvolutionTrends},
	}

	for _, m := range methods {
		if r.over() {
			r.markBudgetExceeded(m.name)
			continue
		}
		m.fn(r, obs)
		r.report.Manifest.TestsExecuted = append(r.report.Manifest.TestsExecuted, m.name)
	}

	r.report.Manifest.RuntimeMs = time.Since(start).Milliseconds()
	r.report.Manifest.PatternsEmitted = len(r.report.Patterns)
	r.report.Manifest.TotalCandidates = len(r.eligibleKeys) + len(r.report.InsufficientData)
	r.report.Manifest.Thresholds = map[string]string{
		"min_occurrences":        fmt.Sprintf("%d", d.cfg.MinOccurrences),
		"min_obs_per_occurrence": fmt.Sprintf("%d", d.cfg.MinObsPerOccurrence),
		"alpha":                  fmt.Sprintf("%g", d.cfg.Alpha),
		"practical_fold_floor":   fmt.Sprintf("%g", d.cfg.PracticalFoldFloor),
		"theme_baseline":         fmt.Sprintf("%g", d.cfg.ThemeBaseline),
		"min_trend_slope":        fmt.Sprintf("%g", d.cfg.MinTrendSlope),
	}
	r.report.Manifest.Fingerprint = core.ComputeFingerprint(map[string]string{
		"user_id":   r.report.Manifest.UserID.String(),
		"as_of":     asOf.String(),
		"obs_count": fmt.Sprintf("%d", len(obs)),
	})

	d.log.Info("detection run complete: %d patterns, %d insufficient, %d skipped, partial=%v, %dms",
		len(r.report.Patterns), len(r.report.InsufficientData), len(r.report.Skipped),
		r.report.Partial, r.report.Manifest.RuntimeMs)

	return r.report, nil
}

// filterEligible applies the shared eligibility bar: a category qualifies
// only with at least MinOccurrences distinct contiguous occurrences, each
// carrying at least MinObsPerOccurrence observations. Categories below
// the bar are reported as insufficient data, never as weak patterns.
func (r *run) filterEligible(groupings map[string]*observation.Grouping) {
	r.eligible = make(map[string]*observation.Grouping)

	for _, key := range observation.SortedCategoryKeys(groupings) {
		g := groupings[key]

		qualified := make([]observation.Occurrence, 0, len(g.Occurrences))
		for _, oc := range g.Occurrences {
			if len(oc.Observations) >= r.cfg.MinObsPerOccurrence {
				qualified = append(qualified, oc)
			}
		}

		if len(qualified) < r.cfg.MinOccurrences {
			r.report.InsufficientData = append(r.report.InsufficientData, pattern.InsufficientDataFinding{
				CategoryKey:      key,
				Occurrences:      len(qualified),
				RequiredOccur:    r.cfg.MinOccurrences,
				ObservationCount: g.TotalObservations(),
				Reason: fmt.Sprintf("%d qualifying occurrences of %d required (each needs ≥%d observations)",
					len(qualified), r.cfg.MinOccurrences, r.cfg.MinObsPerOccurrence),
			})
			continue
		}

		r.eligible[key] = &observation.Grouping{
			CategoryKey: g.CategoryKey,
			Theme:       g.Theme,
			Occurrences: qualified,
		}
		r.eligibleKeys = append(r.eligibleKeys, key)
	}
}

// over reports whether the wall-clock budget or context deadline passed.
func (r *run) over() bool {
	select {
	case <-r.ctx.Done():
		return true
	default:
	}
	return !r.deadline.IsZero() && time.Now().After(r.deadline)
}

func (r *run) markBudgetExceeded(analysis string) {
	r.report.Partial = true
	r.report.Skipped = append(r.report.Skipped, pattern.SkippedAnalysis{
		AnalysisType: pattern.Type(analysis),
		Reason:       pattern.SkipTimeBudget,
	})
	r.report.Manifest.SkipCounts[pattern.SkipTimeBudget]++
}

func (r *run) skip(t pattern.Type, categoryKey, metric string, reason pattern.SkipReason) {
	r.report.Skipped = append(r.report.Skipped, pattern.SkippedAnalysis{
		AnalysisType: t,
		CategoryKey:  categoryKey,
		Metric:       metric,
		Reason:       reason,
	})
	r.report.Manifest.SkipCounts[reason]++
}

func (r *run) emit(p *pattern.CyclicalPattern) {
	r.report.Patterns = append(r.report.Patterns, p)
}
