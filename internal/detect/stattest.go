package detect

import (
	"math"

	"cyclewise/domain/core"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// oneSampleProportionZ tests an observed rate against a baseline rate
// under the null that the n observations were drawn at the baseline rate.
// Returns the two-sided p-value.
func oneSampleProportionZ(observedRate, baselineRate float64, n int) (float64, error) {
	if n <= 0 {
		return 1, core.NewStatDegenerateError("proportion_test", "no observations")
	}
	if baselineRate <= 0 || baselineRate >= 1 {
		return 1, core.NewStatDegenerateError("proportion_test", "baseline rate outside (0, 1)")
	}

	se := math.Sqrt(baselineRate * (1 - baselineRate) / float64(n))
	z := (observedRate - baselineRate) / se

	norm := distuv.Normal{Mu: 0, Sigma: 1}
	p := 2 * norm.CDF(-math.Abs(z))
	if p > 1 {
		p = 1
	}
	return p, nil
}

// anovaResult carries the outcome of a one-way variance-of-means test.
type anovaResult struct {
	F          float64
	PValue     float64
	GroupMeans []float64
}

// oneWayANOVA runs a one-way F-test across k groups of metric values.
// Requires at least 3 groups, each non-empty. Zero within-group variance
// is degenerate and skips the analysis.
func oneWayANOVA(groups [][]float64) (*anovaResult, error) {
	k := len(groups)
	if k < 3 {
		return nil, core.NewStatDegenerateError("anova", "fewer than 3 groups")
	}

	n := 0
	grandSum := 0.0
	means := make([]float64, k)
	for i, g := range groups {
		if len(g) == 0 {
			return nil, core.NewStatDegenerateError("anova", "empty group")
		}
		m, err := stats.Mean(g)
		if err != nil {
			return nil, core.NewStatDegenerateError("anova", err.Error())
		}
		means[i] = m
		n += len(g)
		for _, v := range g {
			grandSum += v
		}
	}
	if n <= k {
		return nil, core.NewStatDegenerateError("anova", "not enough observations for within-group variance")
	}
	grandMean := grandSum / float64(n)

	ssBetween := 0.0
	ssWithin := 0.0
	for i, g := range groups {
		diff := means[i] - grandMean
		ssBetween += float64(len(g)) * diff * diff
		for _, v := range g {
			d := v - means[i]
			ssWithin += d * d
		}
	}

	dfBetween := float64(k - 1)
	dfWithin := float64(n - k)
	msWithin := ssWithin / dfWithin
	if msWithin == 0 {
		return nil, core.NewStatDegenerateError("anova", "zero within-group variance")
	}

	f := (ssBetween / dfBetween) / msWithin
	fDist := distuv.F{D1: dfBetween, D2: dfWithin}
	p := 1 - fDist.CDF(f)
	if p < 0 {
		p = 0
	}

	return &anovaResult{F: f, PValue: p, GroupMeans: means}, nil
}

// trendResult carries the outcome of a linear trend regression.
type trendResult struct {
	Slope     float64
	Intercept float64
	R2        float64
	PValue    float64
}

// linearTrend regresses y against 0-based index and tests the slope
// against zero with a two-sided t-test. Needs at least 3 points for a
// residual degree of freedom; zero residual variance only yields a
// verdict when the slope itself is exactly flat.
func linearTrend(y []float64) (*trendResult, error) {
	n := len(y)
	if n < 3 {
		return nil, core.NewStatDegenerateError("trend", "fewer than 3 points")
	}

	nf := float64(n)
	sumX, sumY, sumXY, sumXX := 0.0, 0.0, 0.0, 0.0
	for i, v := range y {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}

	ssx := sumXX - sumX*sumX/nf
	if ssx == 0 {
		return nil, core.NewStatDegenerateError("trend", "zero predictor variance")
	}

	slope := (sumXY - sumX*sumY/nf) / ssx
	intercept := (sumY - slope*sumX) / nf

	meanY := sumY / nf
	ssTotal := 0.0
	ssResid := 0.0
	for i, v := range y {
		fit := intercept + slope*float64(i)
		d := v - fit
		ssResid += d * d
		t := v - meanY
		ssTotal += t * t
	}
	if ssTotal == 0 {
		return nil, core.NewStatDegenerateError("trend", "zero response variance")
	}

	r2 := 1 - ssResid/ssTotal
	if ssResid == 0 {
		// Perfect fit: the slope test statistic diverges.
		p := 0.0
		if slope == 0 {
			p = 1.0
		}
		return &trendResult{Slope: slope, Intercept: intercept, R2: 1, PValue: p}, nil
	}

	se := math.Sqrt(ssResid / (nf - 2) / ssx)
	t := slope / se
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: nf - 2}
	p := 2 * tDist.CDF(-math.Abs(t))
	if p > 1 {
		p = 1
	}

	return &trendResult{Slope: slope, Intercept: intercept, R2: r2, PValue: p}, nil
}

// bonferroni adjusts a significance level for the number of tests in a
// scanning family. Prevents false positives from combinatorial scanning.
func bonferroni(alpha float64, numTests int) float64 {
	if numTests <= 1 {
		return alpha
	}
	return alpha / float64(numTests)
}

// capConfidence converts a p-value into a bounded confidence score.
func capConfidence(p, maxConfidence float64) float64 {
	c := 1 - p
	if c > maxConfidence {
		return maxConfidence
	}
	if c < 0 {
		return 0
	}
	return c
}
