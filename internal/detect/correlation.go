package detect

import (
	"fmt"
	"sort"

	"cyclewise/domain/observation"
	"cyclewise/domain/pattern"

	"github.com/montanaflynn/stats"
)

// detectSymptomCorrelations scans every (category, symptom) pair: the
// symptom's occurrence rate within each occurrence of the category forms a
// rate vector, tested against the pooled global baseline rate. Because the
// scan covers a full cross-product, the acceptance threshold is Bonferroni
// adjusted. Statistical significance alone is insufficient; the practical
// fold floor is mandatory.
func (d *Detector) detectSymptomCorrelations(r *run, obs []observation.Observation) {
	baselines := globalSymptomRates(obs)
	tags := make([]string, 0, len(baselines))
	for tag := range baselines {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	numTests := len(tags) * len(r.eligibleKeys)
	if numTests == 0 {
		return
	}
	effectiveAlpha := bonferroni(d.cfg.Alpha, numTests)

	for _, key := range r.eligibleKeys {
		if r.over() {
			r.markBudgetExceeded(string(pattern.TypeSymptomCorrelation))
			return
		}
		g := r.eligible[key]

		for _, tag := range tags {
			baseline := baselines[tag]
			if baseline <= 0 || baseline >= 1 {
				// A symptom present in every (or no) observation has no
				// testable baseline.
				r.skip(pattern.TypeSymptomCorrelation, key, tag, pattern.SkipZeroVariance)
				continue
			}

			rates := make([]float64, 0, len(g.Occurrences))
			categoryObs := 0
			for _, oc := range g.Occurrences {
				withTag := 0
				for _, o := range oc.Observations {
					if o.HasSymptom(tag) {
						withTag++
					}
				}
				rates = append(rates, float64(withTag)/float64(len(oc.Observations)))
				categoryObs += len(oc.Observations)
			}

			avgRate, err := stats.Mean(rates)
			if err != nil {
				continue
			}

			p, err := oneSampleProportionZ(avgRate, baseline, categoryObs)
			if err != nil {
				r.skip(pattern.TypeSymptomCorrelation, key, tag, pattern.SkipZeroVariance)
				continue
			}
			r.report.Manifest.TotalCandidates++

			fold := avgRate / baseline
			if p >= effectiveAlpha || avgRate < d.cfg.PracticalFoldFloor*baseline {
				continue
			}

			finding := fmt.Sprintf(
				"Symptom %q occurs in %.0f%% of %s entries vs %.0f%% baseline (%.1fx, p=%.2g across %d occurrences)",
				tag, avgRate*100, key, baseline*100, fold, p, len(rates))

			pat, err := pattern.New(
				pattern.TypeSymptomCorrelation, key, tag,
				avgRate, baseline,
				capConfidence(p, d.cfg.MaxConfidence),
				len(rates), r.asOf, finding)
			if err != nil {
				d.log.Warn("discarding invalid symptom pattern for %s/%s: %v", key, tag, err)
				continue
			}
			r.emit(pat)
		}
	}
}

// globalSymptomRates pools symptom occurrence rates across all
// observations, forming the baseline each category is compared against.
func globalSymptomRates(obs []observation.Observation) map[string]float64 {
	if len(obs) == 0 {
		return map[string]float64{}
	}
	counts := make(map[string]int)
	for _, o := range obs {
		for _, tag := range o.SymptomTags {
			counts[tag]++
		}
	}
	rates := make(map[string]float64, len(counts))
	for tag, n := range counts {
		rates[tag] = float64(n) / float64(len(obs))
	}
	return rates
}
