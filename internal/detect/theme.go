package detect

import (
	"fmt"

	"cyclewise/domain/observation"
	"cyclewise/domain/pattern"

	"github.com/montanaflynn/stats"
)

// detectThemeAlignments scores how strongly a category's free text echoes
// the category's declared theme string, averaged per category, and flags
// categories whose average clears the practical fold floor over the fixed
// baseline for random category/text pairing.
func (d *Detector) detectThemeAlignments(r *run, obs []observation.Observation) {
	for _, key := range r.eligibleKeys {
		if r.over() {
			r.markBudgetExceeded(string(pattern.TypeThemeAlignment))
			return
		}
		g := r.eligible[key]
		if g.Theme == "" {
			r.skip(pattern.TypeThemeAlignment, key, "", pattern.SkipNoFreeText)
			continue
		}

		var scores []float64
		occurrencesUsed := 0
		for _, oc := range g.Occurrences {
			used := false
			for _, o := range oc.Observations {
				if o.FreeText == "" {
					continue
				}
				scores = append(scores, themeSimilarity(o.FreeText, g.Theme))
				used = true
			}
			if used {
				occurrencesUsed++
			}
		}
		if len(scores) == 0 {
			r.skip(pattern.TypeThemeAlignment, key, "", pattern.SkipNoFreeText)
			continue
		}
		r.report.Manifest.TotalCandidates++

		avg, err := stats.Mean(scores)
		if err != nil {
			continue
		}

		threshold := d.cfg.PracticalFoldFloor * d.cfg.ThemeBaseline
		if avg < threshold {
			continue
		}

		confidence := avg
		if confidence > d.cfg.MaxConfidence {
			confidence = d.cfg.MaxConfidence
		}

		finding := fmt.Sprintf(
			"Journal language during %s aligns with its theme %q (similarity %.2f vs %.2f random baseline, %d entries)",
			key, g.Theme, avg, d.cfg.ThemeBaseline, len(scores))

		pat, err := pattern.New(
			pattern.TypeThemeAlignment, key, "free_text",
			avg, d.cfg.ThemeBaseline,
			confidence, occurrencesUsed, r.asOf, finding)
		if err != nil {
			d.log.Warn("discarding invalid theme pattern for %s: %v", key, err)
			continue
		}
		r.emit(pat)
	}
}
