package evidence

// Breakdown is the explainable decomposition of a weighted evidence sum:
// effective weights grouped by evidence type, by source-reliability bucket,
// and by age bucket. Downstream consumers use it to explain why a
// confidence score moved without re-running the calculator.
type Breakdown struct {
	Total    float64            `json:"total"`
	ByType   map[Type]float64   `json:"by_type"`
	BySource map[string]float64 `json:"by_source"`
	ByAge    map[string]float64 `json:"by_age"`
}

// NewBreakdown creates an empty breakdown with initialized buckets.
func NewBreakdown() Breakdown {
	return Breakdown{
		ByType:   make(map[Type]float64),
		BySource: make(map[string]float64),
		ByAge:    make(map[string]float64),
	}
}

// SourceBucket names the reliability tier an evidence record came from.
func SourceBucket(reliability float64) string {
	switch {
	case reliability >= 0.9:
		return "direct_user_action"
	case reliability >= 0.6:
		return "derived"
	default:
		return "system_inference"
	}
}

// AgeBucket names the recency tier for an evidence age in days.
func AgeBucket(ageDays float64) string {
	switch {
	case ageDays <= 7:
		return "0-7d"
	case ageDays <= 30:
		return "8-30d"
	case ageDays <= 90:
		return "31-90d"
	default:
		return "90d+"
	}
}

// Add accumulates one effective weight into all three groupings.
func (b *Breakdown) Add(t Type, reliability, ageDays, weight float64) {
	b.Total += weight
	b.ByType[t] += weight
	b.BySource[SourceBucket(reliability)] += weight
	b.ByAge[AgeBucket(ageDays)] += weight
}
