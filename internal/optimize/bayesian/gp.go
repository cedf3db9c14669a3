// Package bayesian implements the Gaussian-process surrogate model and the
// ask/tell proposal loop driving sequential command optimization.
package bayesian

import (
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/argsweep/internal/errors"
	"github.com/copyleftdev/argsweep/internal/optimize/kernels"
)

// GP is a Gaussian-process regression model over points of the unit search
// cube.
type GP struct {
	kernel   kernels.Kernel
	noiseVar float64

	// Training data.
	x *mat.Dense
	y *mat.VecDense

	// Precomputed factorization state.
	alpha *mat.VecDense
	chol  *mat.Cholesky

	logger *zap.Logger
}

// NewGP creates a Gaussian-process model with the given kernel and noise
// variance.
func NewGP(kernel kernels.Kernel, noiseVar float64, logger *zap.Logger) *GP {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GP{kernel: kernel, noiseVar: noiseVar, logger: logger}
}

// Fit conditions the model on training inputs X and targets y.
func (gp *GP) Fit(X *mat.Dense, y *mat.VecDense) error {
	const op = "GP.Fit"

	if X == nil || y == nil {
		return errors.New("training data must not be nil").
			WithComponent("bayesian").WithOperation(op)
	}
	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.New("training matrix must not be empty").
			WithComponent("bayesian").WithOperation(op)
	}
	if nSamples != y.Len() {
		return errors.Newf("dimension mismatch: X has %d samples but y has length %d",
			nSamples, y.Len()).
			WithComponent("bayesian").WithOperation(op)
	}

	gp.x = mat.DenseCopyOf(X)
	gp.y = mat.VecDenseCopyOf(y)

	K := mat.NewSymDense(nSamples, nil)
	for i := 0; i < nSamples; i++ {
		xi := gp.x.RawRowView(i)
		for j := i; j < nSamples; j++ {
			K.SetSym(i, j, gp.kernel.Eval(xi, gp.x.RawRowView(j)))
		}
		K.SetSym(i, i, K.At(i, i)+gp.noiseVar)
	}

	chol, err := gp.factorize(K)
	if err != nil {
		return err
	}

	alpha := mat.NewVecDense(nSamples, nil)
	if err := chol.SolveVecTo(alpha, gp.y); err != nil {
		return errors.Wrap(err, "solving for alpha").
			WithComponent("bayesian").WithOperation(op)
	}

	gp.chol = chol
	gp.alpha = alpha

	gp.logger.Debug("fitted surrogate model",
		zap.Int("samples", nSamples),
		zap.Int("features", nFeatures))
	return nil
}

// factorize computes a Cholesky decomposition of K, escalating diagonal
// jitter until the matrix is numerically positive definite. Repeated or
// near-duplicate observations make the raw kernel matrix singular.
func (gp *GP) factorize(K *mat.SymDense) (*mat.Cholesky, error) {
	const op = "GP.factorize"
	const maxAttempts = 10

	n, _ := K.Dims()
	jitter := 1e-12
	for attempt := 0; attempt < maxAttempts; attempt++ {
		jittered := mat.NewSymDense(n, nil)
		jittered.CopySym(K)
		for i := 0; i < n; i++ {
			jittered.SetSym(i, i, jittered.At(i, i)+jitter)
		}

		var chol mat.Cholesky
		if chol.Factorize(jittered) {
			if attempt > 0 {
				gp.logger.Debug("kernel matrix required jitter",
					zap.Float64("jitter", jitter),
					zap.Int("attempts", attempt+1))
			}
			return &chol, nil
		}
		jitter *= 10
	}

	return nil, errors.Newf("kernel matrix is not positive definite after jitter up to %g", jitter).
		WithComponent("bayesian").WithOperation(op)
}

// Predict returns the posterior mean and variance at each row of X.
func (gp *GP) Predict(X *mat.Dense) (*mat.VecDense, *mat.VecDense, error) {
	const op = "GP.Predict"

	if X == nil {
		return nil, nil, errors.New("input matrix is nil").
			WithComponent("bayesian").WithOperation(op)
	}
	if gp.x == nil || gp.alpha == nil {
		return nil, nil, errors.New("model has no training data").
			WithComponent("bayesian").WithOperation(op)
	}

	nTest, _ := X.Dims()
	nTrain, _ := gp.x.Dims()

	kStar := mat.NewDense(nTest, nTrain, nil)
	kSelf := make([]float64, nTest)
	for i := 0; i < nTest; i++ {
		xi := X.RawRowView(i)
		kSelf[i] = gp.kernel.Eval(xi, xi) + gp.noiseVar
		for j := 0; j < nTrain; j++ {
			kStar.Set(i, j, gp.kernel.Eval(xi, gp.x.RawRowView(j)))
		}
	}

	mean := mat.NewVecDense(nTest, nil)
	mean.MulVec(kStar, gp.alpha)

	v := mat.NewDense(nTrain, nTest, nil)
	if err := gp.chol.SolveTo(v, kStar.T()); err != nil {
		return nil, nil, errors.Wrap(err, "solving predictive system").
			WithComponent("bayesian").WithOperation(op)
	}

	// variance_i = k(x_i, x_i) - k*_i . K^-1 k*_i, clamped at zero against
	// rounding in the solve.
	variance := mat.NewVecDense(nTest, nil)
	for i := 0; i < nTest; i++ {
		var quad float64
		for j := 0; j < nTrain; j++ {
			quad += kStar.At(i, j) * v.At(j, i)
		}
		variance.SetVec(i, math.Max(0, kSelf[i]-quad))
	}

	return mean, variance, nil
}
