package search

import (
	"github.com/copyleftdev/argsweep/internal/errors"
)

// sobolBits is the word width of the generator; points have 2^-32 resolution.
const sobolBits = 32

// MaxSobolDimensions is the largest search dimensionality the quasirandom
// sampler supports, bounded by the direction-number table below.
const MaxSobolDimensions = 21

// sobolPoly holds one dimension's primitive polynomial (degree s, interior
// coefficients a) and initial direction values m, from the Joe and Kuo
// "new-joe-kuo-6" tables. Dimension one uses the trivial recurrence and has
// no table entry.
type sobolPoly struct {
	s uint
	a uint32
	m []uint32
}

var sobolPolys = []sobolPoly{
	{1, 0, []uint32{1}},
	{2, 1, []uint32{1, 3}},
	{3, 1, []uint32{1, 3, 1}},
	{3, 2, []uint32{1, 1, 1}},
	{4, 1, []uint32{1, 1, 3, 3}},
	{4, 4, []uint32{1, 3, 5, 13}},
	{5, 2, []uint32{1, 1, 5, 5, 17}},
	{5, 4, []uint32{1, 1, 5, 5, 5}},
	{5, 7, []uint32{1, 1, 7, 11, 19}},
	{5, 11, []uint32{1, 1, 5, 1, 1}},
	{5, 13, []uint32{1, 1, 1, 3, 11}},
	{5, 14, []uint32{1, 3, 5, 5, 31}},
	{6, 1, []uint32{1, 3, 3, 9, 7, 49}},
	{6, 13, []uint32{1, 1, 1, 15, 21, 21}},
	{6, 16, []uint32{1, 3, 1, 13, 27, 49}},
	{6, 19, []uint32{1, 1, 1, 15, 7, 5}},
	{6, 22, []uint32{1, 3, 1, 15, 13, 25}},
	{6, 25, []uint32{1, 1, 5, 5, 19, 61}},
	{7, 1, []uint32{1, 3, 7, 11, 23, 15, 57}},
	{7, 4, []uint32{1, 3, 7, 13, 19, 15, 7}},
}

// sobolSequence is a low-discrepancy point generator over the unit
// hypercube, built with the Gray-code construction of Antonov and Saleev.
// The initial all-zeros point is skipped.
type sobolSequence struct {
	dim   int
	v     [][]uint32 // direction numbers, per dimension
	x     []uint32   // current integer state
	count uint64
}

// newSobolSequence creates a generator for the given dimension.
func newSobolSequence(dim int) (*sobolSequence, error) {
	if dim < 1 {
		return nil, errors.New("dimension must be at least 1").
			WithComponent("search").WithOperation("newSobolSequence")
	}
	if dim > MaxSobolDimensions {
		return nil, errors.Newf("quasirandom search supports at most %d templates, got %d",
			MaxSobolDimensions, dim).
			WithComponent("search").WithOperation("newSobolSequence")
	}

	v := make([][]uint32, dim)
	for d := 0; d < dim; d++ {
		v[d] = directionNumbers(d)
	}

	return &sobolSequence{dim: dim, v: v, x: make([]uint32, dim)}, nil
}

// directionNumbers expands dimension d's direction values to sobolBits words.
func directionNumbers(d int) []uint32 {
	v := make([]uint32, sobolBits+1)
	if d == 0 {
		for i := uint(1); i <= sobolBits; i++ {
			v[i] = 1 << (sobolBits - i)
		}
		return v
	}

	p := sobolPolys[d-1]
	for i := uint(1); i <= p.s; i++ {
		v[i] = p.m[i-1] << (sobolBits - i)
	}
	for i := p.s + 1; i <= sobolBits; i++ {
		v[i] = v[i-p.s] ^ (v[i-p.s] >> p.s)
		for k := uint(1); k < p.s; k++ {
			if (p.a>>(p.s-1-k))&1 == 1 {
				v[i] ^= v[i-k]
			}
		}
	}
	return v
}

// Next returns the next point of the sequence, each coordinate in [0,1).
func (s *sobolSequence) Next() []float64 {
	// Index of the rightmost zero bit of count, 1-based.
	c := uint(1)
	for n := s.count; n&1 == 1; n >>= 1 {
		c++
	}
	s.count++

	point := make([]float64, s.dim)
	for d := 0; d < s.dim; d++ {
		s.x[d] ^= s.v[d][c]
		point[d] = float64(s.x[d]) / (1 << sobolBits)
	}
	return point
}

// SobolPoints generates n points of a dim-dimensional Sobol sequence.
func SobolPoints(dim, n int) ([][]float64, error) {
	seq, err := newSobolSequence(dim)
	if err != nil {
		return nil, err
	}
	points := make([][]float64, n)
	for i := 0; i < n; i++ {
		points[i] = seq.Next()
	}
	return points, nil
}
