package detect

import (
	"fmt"
	"sort"

	"cyclewise/domain/core"
	"cyclewise/domain/observation"
	"cyclewise/domain/pattern"

	"github.com/montanaflynn/stats"
)

// detectEvolutionTrends tracks a single category across yearly cycles:
// the yearly-averaged metric is regressed against year index, and a
// significant, steep-enough slope is reported with its direction and R².
func (d *Detector) detectEvolutionTrends(r *run, obs []observation.Observation) {
	for _, key := range r.eligibleKeys {
		if r.over() {
			r.markBudgetExceeded(string(pattern.TypeEvolutionTrend))
			return
		}
		for _, metric := range []observation.Metric{observation.MetricMood, observation.MetricEnergy} {
			d.trendForCategory(r, key, metric)
		}
	}
}

func (d *Detector) trendForCategory(r *run, key string, metric observation.Metric) {
	g := r.eligible[key]

	byYear := make(map[int][]float64)
	for _, oc := range g.Occurrences {
		for _, o := range oc.Observations {
			if v, ok := o.Value(metric); ok {
				year := o.Timestamp.Time().Year()
				byYear[year] = append(byYear[year], v)
			}
		}
	}
	if len(byYear) < 2 {
		r.skip(pattern.TypeEvolutionTrend, key, string(metric), pattern.SkipTooFewCycles)
		return
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	yearlyMeans := make([]float64, 0, len(years))
	for _, y := range years {
		m, err := stats.Mean(byYear[y])
		if err != nil {
			return
		}
		yearlyMeans = append(yearlyMeans, m)
	}
	r.report.Manifest.TotalCandidates++

	result, err := linearTrend(yearlyMeans)
	if err != nil {
		// Two yearly points fit perfectly and leave nothing to test;
		// zero-variance inputs likewise skip this analysis only.
		if core.IsStatDegenerateError(err) {
			r.skip(pattern.TypeEvolutionTrend, key, string(metric), pattern.SkipZeroVariance)
			return
		}
		d.log.Warn("trend analysis failed for %s/%s: %v", key, metric, err)
		return
	}

	if result.PValue >= d.cfg.Alpha {
		return
	}
	if result.Slope < d.cfg.MinTrendSlope && result.Slope > -d.cfg.MinTrendSlope {
		return
	}

	direction := "increasing"
	if result.Slope < 0 {
		direction = "decreasing"
	}

	finding := fmt.Sprintf(
		"Average %s during %s is %s across %d yearly cycles (slope %.2f/year, R²=%.2f, p=%.2g)",
		metric, key, direction, len(years), result.Slope, result.R2, result.PValue)

	pat, err := pattern.New(
		pattern.TypeEvolutionTrend, key, string(metric),
		result.Slope, 0,
		capConfidence(result.PValue, d.cfg.MaxConfidence),
		len(years), r.asOf, finding)
	if err != nil {
		d.log.Warn("discarding invalid trend pattern for %s/%s: %v", key, metric, err)
		return
	}
	r.emit(pat)
}
