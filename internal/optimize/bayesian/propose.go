package bayesian

import (
	"math"
	"math/rand"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/copyleftdev/argsweep/internal/errors"
	"github.com/copyleftdev/argsweep/internal/optimize/acquisition"
	"github.com/copyleftdev/argsweep/internal/optimize/kernels"
	"github.com/copyleftdev/argsweep/internal/search"
)

// Default proposal parameters.
const (
	defaultInitialPoints = 8
	defaultCandidates    = 256
	defaultNoiseVar      = 1e-6
	defaultXi            = 0.01
)

// Proposer runs the surrogate side of the ask/tell loop over the unit
// search cube [0,1]^D. Coordinates for discrete dimensions are snapped to
// bin centers so the surrogate never models variation inside a bin that
// decodes to a single value.
type Proposer struct {
	dims   []search.OptimizerSpace
	gp     *GP
	acq    *acquisition.ExpectedImprovement
	rng    *rand.Rand
	logger *zap.Logger

	initial [][]float64 // Sobol-seeded design, consumed before model asks

	// Observations, in tell order.
	points     [][]float64
	objectives []float64
	fitted     bool
}

// NewProposer creates a Proposer over the given dimensions, seeded for
// reproducibility.
func NewProposer(dims []search.OptimizerSpace, seed int64, logger *zap.Logger) (*Proposer, error) {
	if len(dims) == 0 {
		return nil, errors.New("optimization requires at least one template").
			WithComponent("bayesian").WithOperation("NewProposer")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	initial, err := search.SobolPoints(len(dims), defaultInitialPoints)
	if err != nil {
		return nil, err
	}

	p := &Proposer{
		dims:   dims,
		gp:     NewGP(kernels.NewMatern52(0.5, 1.0), defaultNoiseVar, logger),
		acq:    acquisition.NewExpectedImprovement(math.Inf(1), defaultXi),
		rng:    rand.New(rand.NewSource(seed)),
		logger: logger,
	}
	for _, pt := range initial {
		p.initial = append(p.initial, p.snap(pt))
	}
	return p, nil
}

// Ask proposes n points to evaluate next. Before any observations arrive
// the points come from the Sobol-seeded initial design; afterwards each
// batch is the refined argmax of expected improvement plus the best scoring
// members of a random candidate pool.
func (p *Proposer) Ask(n int) [][]float64 {
	out := make([][]float64, 0, n)

	for len(out) < n && len(p.initial) > 0 {
		out = append(out, p.initial[0])
		p.initial = p.initial[1:]
	}
	if len(out) == n {
		return out
	}

	if !p.fitted {
		// No model yet: fall back to random proposals.
		for len(out) < n {
			out = append(out, p.randomPoint())
		}
		return out
	}

	candidates := p.scoredCandidates(defaultCandidates)
	if len(candidates) > 0 {
		// Refine the best-scoring candidate with a local search; the rest
		// of the batch takes the remaining top candidates for diversity.
		candidates[0].point = p.refine(candidates[0].point)
	}
	for i := 0; len(out) < n; i++ {
		if i < len(candidates) {
			out = append(out, candidates[i].point)
		} else {
			out = append(out, p.randomPoint())
		}
	}
	return out
}

// Tell records a batch of evaluated points and refits the surrogate.
// Objectives follow the minimization convention.
func (p *Proposer) Tell(points [][]float64, objectives []float64) error {
	const op = "Proposer.Tell"
	if len(points) != len(objectives) {
		return errors.Newf("got %d points but %d objectives", len(points), len(objectives)).
			WithComponent("bayesian").WithOperation(op)
	}
	if len(points) == 0 {
		return nil
	}

	p.points = append(p.points, points...)
	p.objectives = append(p.objectives, objectives...)

	best := p.objectives[0]
	for _, y := range p.objectives[1:] {
		if y < best {
			best = y
		}
	}
	p.acq.UpdateBest(best)

	n := len(p.points)
	d := len(p.dims)
	X := mat.NewDense(n, d, nil)
	y := mat.NewVecDense(n, nil)
	for i, pt := range p.points {
		X.SetRow(i, pt)
		y.SetVec(i, p.objectives[i])
	}
	if err := p.gp.Fit(X, y); err != nil {
		return err
	}
	p.fitted = true
	return nil
}

// Observations returns the number of points told so far.
func (p *Proposer) Observations() int {
	return len(p.points)
}

type scored struct {
	point []float64
	ei    float64
}

// scoredCandidates draws a random pool, scores it by expected improvement
// and returns it sorted best first.
func (p *Proposer) scoredCandidates(n int) []scored {
	d := len(p.dims)
	X := mat.NewDense(n, d, nil)
	pool := make([][]float64, n)
	for i := 0; i < n; i++ {
		pool[i] = p.randomPoint()
		X.SetRow(i, pool[i])
	}

	mean, variance, err := p.gp.Predict(X)
	if err != nil {
		p.logger.Warn("surrogate prediction failed, proposing random points", zap.Error(err))
		return nil
	}

	out := make([]scored, n)
	for i := 0; i < n; i++ {
		sigma := math.Sqrt(variance.AtVec(i))
		out[i] = scored{point: pool[i], ei: p.acq.Compute(mean.AtVec(i), sigma)}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ei > out[j].ei })
	return out
}

// refine locally maximizes expected improvement from a starting point with
// derivative-free Nelder-Mead, clamped to the unit cube.
func (p *Proposer) refine(start []float64) []float64 {
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			clamped := make([]float64, len(x))
			for i, v := range x {
				clamped[i] = math.Max(0, math.Min(v, 1))
			}
			X := mat.NewDense(1, len(clamped), clamped)
			mean, variance, err := p.gp.Predict(X)
			if err != nil {
				return math.Inf(1)
			}
			sigma := math.Sqrt(variance.AtVec(0))
			return -p.acq.Compute(mean.AtVec(0), sigma)
		},
	}
	settings := &optimize.Settings{
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-6,
			Relative:   1e-6,
			Iterations: 50,
		},
	}
	method := &optimize.NelderMead{SimplexSize: 0.1}

	initial := append([]float64(nil), start...)
	result, err := optimize.Minimize(problem, initial, settings, method)
	if err != nil || result == nil {
		return start
	}
	refined := make([]float64, len(result.X))
	for i, v := range result.X {
		refined[i] = math.Max(0, math.Min(v, 1))
	}
	return p.snap(refined)
}

// randomPoint draws a uniform point of the unit cube, snapped to discrete
// bin centers.
func (p *Proposer) randomPoint() []float64 {
	pt := make([]float64, len(p.dims))
	for i := range pt {
		pt[i] = p.rng.Float64()
	}
	return p.snap(pt)
}

// snap canonicalizes each discrete coordinate so equal decoded values share
// one surrogate input. Uniform-prior dimensions partition [0,1) into equal
// bins and take the bin center; log-prior integer dimensions round in the
// decoded space and re-encode, since their decode partition is not uniform.
func (p *Proposer) snap(pt []float64) []float64 {
	for i, dim := range p.dims {
		levels := dim.Levels()
		if levels <= 0 {
			continue
		}
		if dim.Kind == search.SpaceInt && dim.Prior == search.PriorLogUniform {
			pt[i] = snapLogInt(pt[i], dim.Min, dim.Max)
			continue
		}
		bin := int(pt[i] * float64(levels))
		if bin >= levels {
			bin = levels - 1
		}
		pt[i] = (float64(bin) + 0.5) / float64(levels)
	}
	return pt
}

// snapLogInt maps a coordinate of a log-uniform integer dimension to the
// canonical coordinate of the integer it decodes to.
func snapLogInt(u, min, max float64) float64 {
	lo, hi := math.Log(min), math.Log(max)
	if hi <= lo {
		return 0.5
	}
	v := math.Round(math.Exp(lo + u*(hi-lo)))
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	return (math.Log(v) - lo) / (hi - lo)
}
