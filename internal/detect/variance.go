package detect

import (
	"fmt"

	"cyclewise/domain/core"
	"cyclewise/domain/observation"
	"cyclewise/domain/pattern"
)

// detectVarianceComparisons tests, for each continuous metric, whether
// per-category means differ more than chance allows, via a one-way
// variance-of-means test across all eligible category groups. On a
// significant result it reports the highest-mean and lowest-mean
// categories and their averages.
func (d *Detector) detectVarianceComparisons(r *run, obs []observation.Observation) {
	for _, metric := range []observation.Metric{observation.MetricMood, observation.MetricEnergy} {
		if r.over() {
			r.markBudgetExceeded(string(pattern.TypeVarianceComparison))
			return
		}
		d.compareVariance(r, metric)
	}
}

func (d *Detector) compareVariance(r *run, metric observation.Metric) {
	var keys []string
	var groups [][]float64
	for _, key := range r.eligibleKeys {
		values := metricValues(r.eligible[key], metric)
		if len(values) < 2 {
			continue
		}
		keys = append(keys, key)
		groups = append(groups, values)
	}

	if len(groups) < 3 {
		r.skip(pattern.TypeVarianceComparison, "", string(metric), pattern.SkipTooFewGroups)
		return
	}
	r.report.Manifest.TotalCandidates++

	result, err := oneWayANOVA(groups)
	if err != nil {
		if core.IsStatDegenerateError(err) {
			r.skip(pattern.TypeVarianceComparison, "", string(metric), pattern.SkipZeroVariance)
			return
		}
		d.log.Warn("variance comparison failed for %s: %v", metric, err)
		return
	}

	if result.PValue >= d.cfg.Alpha {
		return
	}

	hiIdx, loIdx := 0, 0
	for i, m := range result.GroupMeans {
		if m > result.GroupMeans[hiIdx] {
			hiIdx = i
		}
		if m < result.GroupMeans[loIdx] {
			loIdx = i
		}
	}

	supporting := 0
	for _, g := range groups {
		supporting += len(g)
	}

	finding := fmt.Sprintf(
		"Average %s differs across categories (F=%.2f, p=%.2g): highest in %s (%.2f), lowest in %s (%.2f)",
		metric, result.F, result.PValue,
		keys[hiIdx], result.GroupMeans[hiIdx],
		keys[loIdx], result.GroupMeans[loIdx])

	pat, err := pattern.New(
		pattern.TypeVarianceComparison, keys[hiIdx], string(metric),
		result.GroupMeans[hiIdx], result.GroupMeans[loIdx],
		capConfidence(result.PValue, d.cfg.MaxConfidence),
		supporting, r.asOf, finding)
	if err != nil {
		d.log.Warn("discarding invalid variance pattern for %s: %v", metric, err)
		return
	}
	r.emit(pat)
}

// metricValues flattens a grouping's qualifying occurrences into the
// recorded values for one metric.
func metricValues(g *observation.Grouping, metric observation.Metric) []float64 {
	var values []float64
	for _, oc := range g.Occurrences {
		for _, o := range oc.Observations {
			if v, ok := o.Value(metric); ok {
				values = append(values, v)
			}
		}
	}
	return values
}
