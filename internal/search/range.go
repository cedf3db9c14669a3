// Package search defines the value spaces a templated command argument can
// vary over and the sampling strategies that draw concrete values from them.
package search

import (
	"math"
	"math/rand"
	"strconv"
)

// Prior describes the density a numeric range is sampled under.
type Prior int

const (
	PriorUniform Prior = iota
	PriorLogUniform
)

// SpaceKind tags an OptimizerSpace description.
type SpaceKind int

const (
	SpaceInt SpaceKind = iota
	SpaceReal
	SpaceCategorical
)

// OptimizerSpace describes a range to the surrogate model: a numeric interval
// tagged with its prior, or an explicit category list.
type OptimizerSpace struct {
	Kind       SpaceKind
	Min, Max   float64
	Prior      Prior
	Categories []string
}

// Levels returns the number of distinct values in the space, or 0 when the
// space is continuous.
func (s OptimizerSpace) Levels() int {
	switch s.Kind {
	case SpaceInt:
		span := s.Max - s.Min + 1
		if span > float64(1<<20) {
			return 0
		}
		return int(span)
	case SpaceCategorical:
		return len(s.Categories)
	default:
		return 0
	}
}

// Range is the closed set of value spaces a template's substitutions are
// drawn from. The variant set is intentionally sealed; no implementations
// exist outside this package.
type Range interface {
	// RandomSample draws one value from the range's distribution, formatted
	// as a substitution-ready string.
	RandomSample(rng *rand.Rand) string

	// Grid returns an ordered sequence of values spanning the range
	// inclusively, divided into at most divisions points.
	Grid(divisions int) []string

	// TransformUniform deterministically maps a uniform sample u in [0,1)
	// to a value in the range, preserving the marginal distribution of
	// RandomSample.
	TransformUniform(u float64) string

	// OptimizerSpace describes the range to the surrogate model.
	OptimizerSpace() OptimizerSpace

	isRange()
}

// IntRange is an inclusive interval of integers sampled uniformly.
type IntRange struct {
	Min, Max int64
}

// NewIntRange builds an IntRange, normalizing bound order.
func NewIntRange(a, b int64) IntRange {
	if a > b {
		a, b = b, a
	}
	return IntRange{Min: a, Max: b}
}

func (r IntRange) RandomSample(rng *rand.Rand) string {
	return formatInt(r.Min + rng.Int63n(r.Max-r.Min+1))
}

func (r IntRange) Grid(divisions int) []string {
	divisions = clampDivisions(divisions, r.Min, r.Max)
	return intGrid(divisions, func(t float64) float64 {
		return float64(r.Min) + t*float64(r.Max-r.Min)
	}, r.Min, r.Max)
}

func (r IntRange) TransformUniform(u float64) string {
	span := r.Max - r.Min + 1
	v := r.Min + int64(u*float64(span))
	if v > r.Max {
		v = r.Max
	}
	return formatInt(v)
}

func (r IntRange) OptimizerSpace() OptimizerSpace {
	return OptimizerSpace{Kind: SpaceInt, Min: float64(r.Min), Max: float64(r.Max), Prior: PriorUniform}
}

func (IntRange) isRange() {}

// LogIntRange is an inclusive interval of positive integers sampled
// log-uniformly.
type LogIntRange struct {
	Min, Max int64
}

// NewLogIntRange builds a LogIntRange, normalizing bound order. Both bounds
// must be strictly positive.
func NewLogIntRange(a, b int64) (LogIntRange, error) {
	if a > b {
		a, b = b, a
	}
	if a <= 0 {
		return LogIntRange{}, errNonPositiveLogBound(formatInt(a))
	}
	return LogIntRange{Min: a, Max: b}, nil
}

func (r LogIntRange) RandomSample(rng *rand.Rand) string {
	return r.TransformUniform(rng.Float64())
}

func (r LogIntRange) Grid(divisions int) []string {
	divisions = clampDivisions(divisions, r.Min, r.Max)
	lo, hi := math.Log(float64(r.Min)), math.Log(float64(r.Max))
	return intGrid(divisions, func(t float64) float64 {
		return math.Exp(lo + t*(hi-lo))
	}, r.Min, r.Max)
}

func (r LogIntRange) TransformUniform(u float64) string {
	lo, hi := math.Log(float64(r.Min)), math.Log(float64(r.Max))
	v := int64(math.Round(math.Exp(lo + u*(hi-lo))))
	if v < r.Min {
		v = r.Min
	}
	if v > r.Max {
		v = r.Max
	}
	return formatInt(v)
}

func (r LogIntRange) OptimizerSpace() OptimizerSpace {
	return OptimizerSpace{Kind: SpaceInt, Min: float64(r.Min), Max: float64(r.Max), Prior: PriorLogUniform}
}

func (LogIntRange) isRange() {}

// FloatRange is an inclusive interval of reals sampled uniformly.
type FloatRange struct {
	Min, Max float64
}

// NewFloatRange builds a FloatRange, normalizing bound order.
func NewFloatRange(a, b float64) FloatRange {
	if a > b {
		a, b = b, a
	}
	return FloatRange{Min: a, Max: b}
}

func (r FloatRange) RandomSample(rng *rand.Rand) string {
	return formatFloat(r.Min + rng.Float64()*(r.Max-r.Min))
}

func (r FloatRange) Grid(divisions int) []string {
	return floatGrid(divisions, func(t float64) float64 {
		return r.Min + t*(r.Max-r.Min)
	})
}

func (r FloatRange) TransformUniform(u float64) string {
	return formatFloat(r.Min + u*(r.Max-r.Min))
}

func (r FloatRange) OptimizerSpace() OptimizerSpace {
	return OptimizerSpace{Kind: SpaceReal, Min: r.Min, Max: r.Max, Prior: PriorUniform}
}

func (FloatRange) isRange() {}

// LogFloatRange is an inclusive interval of positive reals sampled
// log-uniformly.
type LogFloatRange struct {
	Min, Max float64
}

// NewLogFloatRange builds a LogFloatRange, normalizing bound order. Both
// bounds must be strictly positive.
func NewLogFloatRange(a, b float64) (LogFloatRange, error) {
	if a > b {
		a, b = b, a
	}
	if a <= 0 {
		return LogFloatRange{}, errNonPositiveLogBound(formatFloat(a))
	}
	return LogFloatRange{Min: a, Max: b}, nil
}

func (r LogFloatRange) RandomSample(rng *rand.Rand) string {
	return r.TransformUniform(rng.Float64())
}

func (r LogFloatRange) Grid(divisions int) []string {
	lo, hi := math.Log(r.Min), math.Log(r.Max)
	return floatGrid(divisions, func(t float64) float64 {
		return math.Exp(lo + t*(hi-lo))
	})
}

func (r LogFloatRange) TransformUniform(u float64) string {
	lo, hi := math.Log(r.Min), math.Log(r.Max)
	return formatFloat(math.Exp(lo + u*(hi-lo)))
}

func (r LogFloatRange) OptimizerSpace() OptimizerSpace {
	return OptimizerSpace{Kind: SpaceReal, Min: r.Min, Max: r.Max, Prior: PriorLogUniform}
}

func (LogFloatRange) isRange() {}

// CategoricalRange is a fixed, ordered set of categories. Grid search never
// subdivides it; every category is always searched.
type CategoricalRange struct {
	Categories []string
}

// NewCategoricalRange builds a CategoricalRange from a non-empty category
// list.
func NewCategoricalRange(categories []string) (CategoricalRange, error) {
	if len(categories) == 0 {
		return CategoricalRange{}, errEmptyCategories()
	}
	return CategoricalRange{Categories: categories}, nil
}

func (r CategoricalRange) RandomSample(rng *rand.Rand) string {
	return r.Categories[rng.Intn(len(r.Categories))]
}

func (r CategoricalRange) Grid(divisions int) []string {
	out := make([]string, len(r.Categories))
	copy(out, r.Categories)
	return out
}

func (r CategoricalRange) TransformUniform(u float64) string {
	i := int(u * float64(len(r.Categories)))
	// u == 1 and floating-point edge misses land in the last chunk.
	if i >= len(r.Categories) {
		i = len(r.Categories) - 1
	}
	return r.Categories[i]
}

func (r CategoricalRange) OptimizerSpace() OptimizerSpace {
	return OptimizerSpace{Kind: SpaceCategorical, Categories: r.Categories}
}

func (CategoricalRange) isRange() {}

// clampDivisions caps the division count at the number of distinct integers
// in [min,max], so a grid never asks for more integer points than exist.
func clampDivisions(divisions int, min, max int64) int {
	count := max - min + 1
	if int64(divisions) > count {
		return int(count)
	}
	return divisions
}

// intGrid evaluates f over an even spacing of t in [0,1] and rounds each
// value to an integer. The endpoints are pinned to min and max exactly.
func intGrid(divisions int, f func(float64) float64, min, max int64) []string {
	if divisions <= 1 {
		return []string{formatInt(min)}
	}
	out := make([]string, divisions)
	for i := 0; i < divisions; i++ {
		t := float64(i) / float64(divisions-1)
		v := int64(math.Round(f(t)))
		if v < min {
			v = min
		}
		if v > max {
			v = max
		}
		out[i] = formatInt(v)
	}
	out[0] = formatInt(min)
	out[divisions-1] = formatInt(max)
	return out
}

// floatGrid evaluates f over an even spacing of t in [0,1].
func floatGrid(divisions int, f func(float64) float64) []string {
	if divisions <= 1 {
		return []string{formatFloat(f(0))}
	}
	out := make([]string, divisions)
	for i := 0; i < divisions; i++ {
		t := float64(i) / float64(divisions-1)
		out[i] = formatFloat(f(t))
	}
	return out
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
