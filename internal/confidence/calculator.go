package confidence

import (
	"math"
	"sort"

	"cyclewise/domain/core"
	"cyclewise/domain/evidence"
	"cyclewise/internal/config"
)

// Calculator converts an ordered evidence list into a single explainable
// confidence score. It is a pure function of (evidence, asOf): identical
// inputs always reproduce the identical score and breakdown.
type Calculator struct {
	cfg config.ConfidenceConfig
}

// NewCalculator creates a calculator with explicit tunables.
func NewCalculator(cfg config.ConfidenceConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

// Prior returns the confidence of a hypothesis with zero evidence:
// the logistic of the bare prior.
func (c *Calculator) Prior() float64 {
	return c.squash(0)
}

// Score computes the weighted confidence for an evidence list as of a
// reference time, together with the explainable breakdown of effective
// weights. Malformed records fail the whole computation closed; they are
// never assigned a default weight.
func (c *Calculator) Score(records []evidence.Record, asOf core.Timestamp) (float64, evidence.Breakdown, error) {
	breakdown := evidence.NewBreakdown()

	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			return 0, breakdown, err
		}
	}

	// Evidence contributes in chronological order; the append-only
	// contract means stored order and chronological order agree.
	ordered := make([]evidence.Record, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	sum := 0.0
	for i, rec := range ordered {
		ageDays := rec.Timestamp.AgeDays(asOf)
		w := rec.BaseWeight * rec.SourceReliability * c.Recency(ageDays) * c.Diminishing(i)
		sum += w
		breakdown.Add(rec.Type, rec.SourceReliability, ageDays, w)
	}

	return c.squash(sum), breakdown, nil
}

// squash maps a weighted evidence sum through the calibrated logistic:
// clip(logistic(5*(prior + scale*sum) - 2.5), 0, 1).
func (c *Calculator) squash(weightSum float64) float64 {
	x := 5*(c.cfg.Prior+c.cfg.EvidenceScale*weightSum) - 2.5
	v := 1 / (1 + math.Exp(-x))
	return clip(v, 0, 1)
}

// Recency returns the exponential decay factor for evidence age in days.
// The floor prevents total devaluation of old evidence.
func (c *Calculator) Recency(ageDays float64) float64 {
	decayed := math.Exp(-math.Ln2 * ageDays / c.cfg.HalfLifeDays)
	return math.Max(c.cfg.RecencyFloor, decayed)
}

// Diminishing returns the saturation factor for the i-th evidence item:
// each subsequent piece contributes less marginal weight than the one
// before it, independent of type.
func (c *Calculator) Diminishing(index int) float64 {
	return 1 / (1 + c.cfg.DiminishingRate*float64(index))
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
