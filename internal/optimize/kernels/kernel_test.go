package kernels

import (
	"math"
	"testing"
)

func TestMatern52(t *testing.T) {
	tests := []struct {
		name     string
		ls, sv   float64
		x1, x2   []float64
		expected float64
	}{
		{
			name: "same point",
			ls:   1.0, sv: 1.0,
			x1: []float64{1.0, 2.0}, x2: []float64{1.0, 2.0},
			expected: 1.0,
		},
		{
			name: "unit distance",
			ls:   1.0, sv: 1.0,
			x1: []float64{0.0}, x2: []float64{1.0},
			expected: (1.0 + math.Sqrt(5) + 5.0/3.0) * math.Exp(-math.Sqrt(5)),
		},
		{
			name: "signal variance scales",
			ls:   1.0, sv: 2.0,
			x1: []float64{0.5}, x2: []float64{0.5},
			expected: 2.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := NewMatern52(tt.ls, tt.sv)
			got := k.Eval(tt.x1, tt.x2)
			if math.Abs(got-tt.expected) > 1e-10 {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}

			// Symmetry.
			if rev := k.Eval(tt.x2, tt.x1); math.Abs(got-rev) > 1e-10 {
				t.Error("kernel is not symmetric")
			}
		})
	}
}

func TestRBF(t *testing.T) {
	tests := []struct {
		name     string
		ls, sv   float64
		x1, x2   []float64
		expected float64
	}{
		{
			name: "same point",
			ls:   1.0, sv: 1.0,
			x1: []float64{1.0, 2.0}, x2: []float64{1.0, 2.0},
			expected: 1.0,
		},
		{
			name: "different points",
			ls:   1.0, sv: 1.0,
			x1: []float64{0.0, 0.0}, x2: []float64{1.0, 1.0},
			expected: math.Exp(-1.0),
		},
		{
			name: "longer length scale",
			ls:   2.0, sv: 1.0,
			x1: []float64{0.0, 0.0}, x2: []float64{2.0, 2.0},
			expected: math.Exp(-1.0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := NewRBF(tt.ls, tt.sv)
			got := k.Eval(tt.x1, tt.x2)
			if math.Abs(got-tt.expected) > 1e-10 {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestKernelDecaysWithDistance(t *testing.T) {
	for _, k := range []Kernel{NewMatern52(1, 1), NewRBF(1, 1)} {
		prev := k.Eval([]float64{0}, []float64{0})
		for _, d := range []float64{0.5, 1, 2, 4} {
			v := k.Eval([]float64{0}, []float64{d})
			if v >= prev {
				t.Errorf("kernel value %v at distance %v did not decay below %v", v, d, prev)
			}
			prev = v
		}
	}
}

func TestSetHyperparameters(t *testing.T) {
	k := NewMatern52(1, 1)
	if err := k.SetHyperparameters([]float64{2, 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := k.Hyperparameters()
	if got[0] != 2 || got[1] != 3 {
		t.Errorf("hyperparameters not applied: %v", got)
	}

	if err := k.SetHyperparameters([]float64{-1, 1}); err == nil {
		t.Error("negative length scale must be rejected")
	}
	if err := k.SetHyperparameters([]float64{1}); err == nil {
		t.Error("wrong arity must be rejected")
	}
}
