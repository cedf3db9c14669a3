package search

import (
	"math/rand"
)

// RandomStrategy draws every parameter independently for each trial.
func RandomStrategy(space Space, trials int, rng *rand.Rand) []Substitution {
	out := make([]Substitution, trials)
	for i := 0; i < trials; i++ {
		subs := make(Substitution, len(space))
		for _, p := range space {
			subs[p.Name] = p.Range.RandomSample(rng)
		}
		out[i] = subs
	}
	return out
}

// SobolStrategy samples trials points of a low-discrepancy Sobol sequence
// and maps coordinate i through parameter i's TransformUniform, in space
// order. Coverage is more uniform than independent random sampling for the
// same trial count.
func SobolStrategy(space Space, trials int) ([]Substitution, error) {
	points, err := SobolPoints(len(space), trials)
	if err != nil {
		return nil, err
	}
	out := make([]Substitution, trials)
	for i, point := range points {
		out[i] = space.Decode(point)
	}
	return out, nil
}

// GridStrategy returns the full Cartesian product of each parameter's grid,
// last parameter varying fastest. The result size is the product of the
// per-parameter grid lengths; see GridSize for warning callers before a
// combinatorially large run.
func GridStrategy(space Space, divisions int) []Substitution {
	grids := make([][]string, len(space))
	total := 1
	for i, p := range space {
		grids[i] = p.Range.Grid(divisions)
		total *= len(grids[i])
	}

	out := make([]Substitution, 0, total)
	indices := make([]int, len(space))
	for n := 0; n < total; n++ {
		subs := make(Substitution, len(space))
		for i, p := range space {
			subs[p.Name] = grids[i][indices[i]]
		}
		out = append(out, subs)

		for i := len(indices) - 1; i >= 0; i-- {
			indices[i]++
			if indices[i] < len(grids[i]) {
				break
			}
			indices[i] = 0
		}
	}
	return out
}

// GridSize returns the number of substitutions GridStrategy would produce.
func GridSize(space Space, divisions int) int {
	total := 1
	for _, p := range space {
		total *= len(p.Range.Grid(divisions))
	}
	return total
}

// RepeatStrategy returns repeats copies of the empty substitution, for
// commands with no templates.
func RepeatStrategy(repeats int) []Substitution {
	out := make([]Substitution, repeats)
	for i := range out {
		out[i] = Substitution{}
	}
	return out
}
