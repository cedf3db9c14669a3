package acquisition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpectedImprovementPrefersLowerMean(t *testing.T) {
	ei := NewExpectedImprovement(1.0, 0.0)

	better := ei.Compute(0.2, 0.1)
	worse := ei.Compute(0.8, 0.1)
	assert.Greater(t, better, worse)
}

func TestExpectedImprovementZeroSigma(t *testing.T) {
	ei := NewExpectedImprovement(1.0, 0.0)

	// A certain improvement is worth exactly the improvement.
	assert.InDelta(t, 0.5, ei.Compute(0.5, 0), 1e-12)
	// A certain non-improvement is worthless.
	assert.Zero(t, ei.Compute(1.5, 0))
}

func TestExpectedImprovementNonNegative(t *testing.T) {
	ei := NewExpectedImprovement(0.0, 0.01)
	for _, mu := range []float64{-1, 0, 0.5, 2} {
		for _, sigma := range []float64{0, 0.01, 0.5, 2} {
			assert.GreaterOrEqual(t, ei.Compute(mu, sigma), -1e-12,
				"mu=%v sigma=%v", mu, sigma)
		}
	}
}

func TestExpectedImprovementUncertaintyAddsValue(t *testing.T) {
	ei := NewExpectedImprovement(1.0, 0.0)

	// With the mean pinned at the incumbent, only uncertainty can promise
	// improvement.
	certain := ei.Compute(1.0, 1e-12)
	uncertain := ei.Compute(1.0, 0.5)
	assert.Greater(t, uncertain, certain)
}

func TestUpdateBest(t *testing.T) {
	ei := NewExpectedImprovement(10.0, 0.0)
	ei.UpdateBest(2.0)
	assert.Equal(t, 2.0, ei.BestObserved())
}
