// Package svm implements epsilon-support vector regression with an RBF
// kernel.
package svm

import (
	"encoding/gob"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/chocotune/core/model"
	"github.com/YuminosukeSato/chocotune/core/parallel"
	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
)

func init() {
	gob.Register(&SVR{})
}

// GammaScale selects gamma = 1 / (n_features * Var(X)).
const GammaScale = "scale"

const tau = 1e-12

// SVR is epsilon-SVR with kernel K(a, b) = exp(-gamma·||a-b||²).
type SVR struct {
	State *model.StateManager

	C       float64
	Gamma   float64 // 0 means GammaScale
	Epsilon float64
	Tol     float64
	MaxIter int // < 0 uses the solver default

	SupportVectors [][]float64
	DualCoef       []float64
	Intercept      float64
	FittedGamma    float64
	NIter          int
}

// Option configures an SVR.
type Option func(*SVR)

// WithC sets the penalty C.
func WithC(c float64) Option { return func(s *SVR) { s.C = c } }

// WithGamma sets a fixed kernel coefficient.
func WithGamma(g float64) Option { return func(s *SVR) { s.Gamma = g } }

// WithEpsilon sets the width of the insensitive tube.
func WithEpsilon(e float64) Option { return func(s *SVR) { s.Epsilon = e } }

// WithMaxIter caps solver iterations.
func WithMaxIter(n int) Option { return func(s *SVR) { s.MaxIter = n } }

// NewSVR returns an SVR with C=1, gamma="scale", epsilon=0.1.
func NewSVR(opts ...Option) *SVR {
	s := &SVR{
		State:   model.NewStateManager(),
		C:       1,
		Epsilon: 0.1,
		Tol:     1e-3,
		MaxIter: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SVR) resolveGamma(X mat.Matrix) float64 {
	if s.Gamma > 0 {
		return s.Gamma
	}
	rows, cols := X.Dims()
	all := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			all = append(all, X.At(i, j))
		}
	}
	_, v := stat.PopMeanVariance(all, nil)
	if v == 0 {
		return 1
	}
	return 1 / (float64(cols) * v)
}

// rbfGram returns K for every pair of rows of X.
func rbfGram(X mat.Matrix, gamma float64) *mat.SymDense {
	rows, _ := X.Dims()
	var k mat.SymDense
	k.SymOuterK(1, X)
	norms := make([]float64, rows)
	for i := range norms {
		norms[i] = k.At(i, i)
	}
	parallel.Parallelize(rows, func(start, end int) {
		for i := start; i < end; i++ {
			for j := i; j < rows; j++ {
				d := norms[i] + norms[j] - 2*k.At(i, j)
				if d < 0 {
					d = 0
				}
				k.SetSym(i, j, math.Exp(-gamma*d))
			}
		}
	})
	return &k
}

// Fit solves the SVR dual with sequential minimal optimization.
func (s *SVR) Fit(X, y mat.Matrix) (err error) {
	defer scigoErrors.Recover(&err, "SVR.Fit")

	l, cols := X.Dims()
	yRows, _ := y.Dims()
	if l == 0 || cols == 0 {
		return scigoErrors.NewModelError("SVR.Fit", "empty input", scigoErrors.ErrEmptyData)
	}
	if l != yRows {
		return scigoErrors.NewDimensionError("SVR.Fit", l, yRows, 0)
	}
	if s.C <= 0 {
		return scigoErrors.NewValidationError("C", "must be positive", s.C)
	}
	if s.Epsilon < 0 {
		return scigoErrors.NewValidationError("epsilon", "must be non-negative", s.Epsilon)
	}
	if err := scigoErrors.CheckMatrix("SVR.Fit", X); err != nil {
		return err
	}

	gamma := s.resolveGamma(X)
	K := rbfGram(X, gamma)

	// 2l variables: t < l carry +1, t >= l carry -1, both on sample t mod l.
	n := 2 * l
	sign := make([]float64, n)
	alpha := make([]float64, n)
	grad := make([]float64, n)
	for i := 0; i < l; i++ {
		yi := y.At(i, 0)
		sign[i], sign[i+l] = 1, -1
		grad[i] = s.Epsilon - yi
		grad[i+l] = s.Epsilon + yi
	}
	q := func(a, b int) float64 { return sign[a] * sign[b] * K.At(a%l, b%l) }
	c := s.C
	upper := func(t int) bool { return alpha[t] >= c }
	lower := func(t int) bool { return alpha[t] <= 0 }

	maxIter := s.MaxIter
	if maxIter < 0 {
		maxIter = max(10_000_000, 100*n)
	}
	iter := 0
	for ; iter < maxIter; iter++ {
		i, j, ok := s.selectPair(n, sign, grad, upper, lower, q)
		if !ok {
			break
		}
		oldI, oldJ := alpha[i], alpha[j]
		qij := q(i, j)
		if sign[i] != sign[j] {
			quad := q(i, i) + q(j, j) + 2*qij
			if quad <= 0 {
				quad = tau
			}
			delta := (-grad[i] - grad[j]) / quad
			diff := alpha[i] - alpha[j]
			alpha[i] += delta
			alpha[j] += delta
			if diff > 0 {
				if alpha[j] < 0 {
					alpha[j], alpha[i] = 0, diff
				}
			} else if alpha[i] < 0 {
				alpha[i], alpha[j] = 0, -diff
			}
			if diff > 0 {
				if alpha[i] > c {
					alpha[i], alpha[j] = c, c-diff
				}
			} else if alpha[j] > c {
				alpha[j], alpha[i] = c, c+diff
			}
		} else {
			quad := q(i, i) + q(j, j) - 2*qij
			if quad <= 0 {
				quad = tau
			}
			delta := (grad[i] - grad[j]) / quad
			sum := alpha[i] + alpha[j]
			alpha[i] -= delta
			alpha[j] += delta
			if sum > c {
				if alpha[i] > c {
					alpha[i], alpha[j] = c, sum-c
				}
			} else if alpha[j] < 0 {
				alpha[j], alpha[i] = 0, sum
			}
			if sum > c {
				if alpha[j] > c {
					alpha[j], alpha[i] = c, sum-c
				}
			} else if alpha[i] < 0 {
				alpha[i], alpha[j] = 0, sum
			}
		}
		dI, dJ := alpha[i]-oldI, alpha[j]-oldJ
		for t := 0; t < n; t++ {
			grad[t] += q(t, i)*dI + q(t, j)*dJ
		}
	}
	if iter == maxIter {
		scigoErrors.Warn(scigoErrors.NewConvergenceWarning("SVR", iter, "solver stopped before reaching tolerance"))
	}

	rho := s.rho(n, sign, alpha, grad)

	s.SupportVectors = s.SupportVectors[:0]
	s.DualCoef = s.DualCoef[:0]
	for i := 0; i < l; i++ {
		coef := alpha[i] - alpha[i+l]
		if coef == 0 {
			continue
		}
		s.SupportVectors = append(s.SupportVectors, mat.Row(nil, i, X))
		s.DualCoef = append(s.DualCoef, coef)
	}
	s.Intercept = -rho
	s.FittedGamma = gamma
	s.NIter = iter
	if s.State == nil {
		s.State = model.NewStateManager()
	}
	s.State.SetFitted(cols, l)
	return nil
}

// selectPair picks the maximal violating pair with second-order gain.
// ok is false once the duality gap is below Tol.
func (s *SVR) selectPair(n int, sign, grad []float64, upper, lower func(int) bool, q func(a, b int) float64) (int, int, bool) {
	gmax, gmax2 := math.Inf(-1), math.Inf(-1)
	i := -1
	for t := 0; t < n; t++ {
		if sign[t] > 0 {
			if !upper(t) && -grad[t] >= gmax {
				gmax, i = -grad[t], t
			}
		} else if !lower(t) && grad[t] >= gmax {
			gmax, i = grad[t], t
		}
	}
	if i < 0 {
		return 0, 0, false
	}
	j := -1
	best := math.Inf(1)
	qii := q(i, i)
	for t := 0; t < n; t++ {
		var gradDiff, quad float64
		if sign[t] > 0 {
			if lower(t) {
				continue
			}
			gradDiff = gmax + grad[t]
			gmax2 = math.Max(gmax2, grad[t])
			quad = qii + q(t, t) - 2*sign[i]*q(i, t)
		} else {
			if upper(t) {
				continue
			}
			gradDiff = gmax - grad[t]
			gmax2 = math.Max(gmax2, -grad[t])
			quad = qii + q(t, t) + 2*sign[i]*q(i, t)
		}
		if gradDiff <= 0 {
			continue
		}
		if quad <= 0 {
			quad = tau
		}
		if obj := -(gradDiff * gradDiff) / quad; obj <= best {
			best, j = obj, t
		}
	}
	if gmax+gmax2 < s.Tol || j < 0 {
		return 0, 0, false
	}
	return i, j, true
}

func (s *SVR) rho(n int, sign, alpha, grad []float64) float64 {
	ub, lb := math.Inf(1), math.Inf(-1)
	var sumFree float64
	nFree := 0
	for t := 0; t < n; t++ {
		yg := sign[t] * grad[t]
		switch {
		case alpha[t] >= s.C:
			if sign[t] < 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		case alpha[t] <= 0:
			if sign[t] > 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		default:
			nFree++
			sumFree += yg
		}
	}
	if nFree > 0 {
		return sumFree / float64(nFree)
	}
	return (ub + lb) / 2
}

// Predict evaluates the decision function on every row of X.
func (s *SVR) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := s.State.RequireFitted("SVR", "Predict"); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if err := s.State.RequireFeatures("SVR.Predict", cols); err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, scigoErrors.NewModelError("SVR.Predict", "empty input", scigoErrors.ErrEmptyData)
	}
	out := make([]float64, rows)
	parallel.ParallelizeWithThreshold(rows, 64, func(start, end int) {
		row := make([]float64, cols)
		for i := start; i < end; i++ {
			mat.Row(row, i, X)
			v := s.Intercept
			for k, sv := range s.SupportVectors {
				d := floats.Distance(row, sv, 2)
				v += s.DualCoef[k] * math.Exp(-s.FittedGamma*d*d)
			}
			out[i] = v
		}
	})
	return mat.NewDense(rows, 1, out), nil
}

// GetParams returns the hyperparameters.
func (s *SVR) GetParams() map[string]interface{} {
	var gamma interface{} = s.Gamma
	if s.Gamma == 0 {
		gamma = GammaScale
	}
	return map[string]interface{}{
		"C":        s.C,
		"gamma":    gamma,
		"epsilon":  s.Epsilon,
		"tol":      s.Tol,
		"max_iter": s.MaxIter,
		"kernel":   "rbf",
	}
}

// SetParams sets hyperparameters by name. Only the rbf kernel is accepted.
func (s *SVR) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		switch k {
		case "C", "epsilon", "tol":
			f, err := model.AsFloat(k, v)
			if err != nil {
				return err
			}
			if f < 0 || (k != "epsilon" && f == 0) {
				return scigoErrors.NewValidationError(k, "out of range", v)
			}
			switch k {
			case "C":
				s.C = f
			case "epsilon":
				s.Epsilon = f
			default:
				s.Tol = f
			}
		case "gamma":
			if str, ok := v.(string); ok {
				if str != GammaScale {
					return scigoErrors.NewValidationError(k, "must be a positive number or \"scale\"", v)
				}
				s.Gamma = 0
				continue
			}
			f, err := model.AsFloat(k, v)
			if err != nil {
				return err
			}
			if f <= 0 {
				return scigoErrors.NewValidationError(k, "must be positive", v)
			}
			s.Gamma = f
		case "max_iter":
			n, err := model.AsInt(k, v)
			if err != nil {
				return err
			}
			s.MaxIter = n
		case "kernel":
			if v != "rbf" {
				return scigoErrors.NewValidationError(k, "only \"rbf\" is supported", v)
			}
		default:
			return model.UnknownParam("SVR", k)
		}
	}
	return nil
}

func (s *SVR) String() string {
	return fmt.Sprintf("SVR(C=%g, gamma=%v, epsilon=%g)", s.C, s.GetParams()["gamma"], s.Epsilon)
}
