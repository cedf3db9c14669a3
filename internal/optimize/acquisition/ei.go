// Package acquisition provides acquisition functions scoring candidate
// points for the next surrogate-model evaluation.
package acquisition

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// ExpectedImprovement scores a candidate by the expected amount it improves
// on the best observed objective. The driver always minimizes, so lower
// observed values are better.
type ExpectedImprovement struct {
	bestObserved float64
	xi           float64
}

// NewExpectedImprovement creates an ExpectedImprovement with the given best
// observed value and exploration parameter xi.
func NewExpectedImprovement(bestObserved, xi float64) *ExpectedImprovement {
	return &ExpectedImprovement{bestObserved: bestObserved, xi: xi}
}

// Compute returns the expected improvement for a posterior prediction with
// mean mu and standard deviation sigma. The result is non-negative.
func (ei *ExpectedImprovement) Compute(mu, sigma float64) float64 {
	improvement := ei.bestObserved - mu - ei.xi

	if sigma <= 1e-10 {
		if improvement > 0 {
			return improvement
		}
		return 0
	}

	z := improvement / sigma
	stdNormal := distuv.UnitNormal
	return improvement*stdNormal.CDF(z) + sigma*stdNormal.Prob(z)
}

// UpdateBest updates the best observed value.
func (ei *ExpectedImprovement) UpdateBest(best float64) {
	ei.bestObserved = best
}

// BestObserved returns the best observed value.
func (ei *ExpectedImprovement) BestObserved() float64 {
	return ei.bestObserved
}
