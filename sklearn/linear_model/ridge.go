// Package linear_model provides L2-regularized linear regression.
package linear_model

import (
	"encoding/gob"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/chocotune/core/model"
	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
)

func init() {
	gob.Register(&Ridge{})
}

// Ridge は L2 正則化付き最小二乗回帰
//
// minimizes ||y - Xw - b||² + Alpha·||w||². The intercept is not penalized.
type Ridge struct {
	State *model.StateManager

	// Hyperparameters
	Alpha        float64
	FitIntercept bool

	// Learned parameters
	Coef      []float64
	Intercept float64
}

// RidgeOption は設定オプション
type RidgeOption func(*Ridge)

// WithAlpha sets the regularization strength.
func WithAlpha(alpha float64) RidgeOption {
	return func(r *Ridge) { r.Alpha = alpha }
}

// WithFitIntercept は切片の学習有無を設定
func WithFitIntercept(fit bool) RidgeOption {
	return func(r *Ridge) { r.FitIntercept = fit }
}

// NewRidge creates a Ridge with alpha=1 and an intercept.
func NewRidge(options ...RidgeOption) *Ridge {
	r := &Ridge{
		State:        model.NewStateManager(),
		Alpha:        1.0,
		FitIntercept: true,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Fit solves (XᵀX + αI)w = Xᵀy on centered data.
func (r *Ridge) Fit(X, y mat.Matrix) (err error) {
	defer scigoErrors.Recover(&err, "Ridge.Fit")

	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows == 0 || cols == 0 {
		return scigoErrors.NewModelError("Ridge.Fit", "empty input", scigoErrors.ErrEmptyData)
	}
	if rows != yRows {
		return scigoErrors.NewDimensionError("Ridge.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return scigoErrors.NewDimensionError("Ridge.Fit", 1, yCols, 1)
	}
	if r.Alpha < 0 {
		return scigoErrors.NewValidationError("alpha", "must be non-negative", r.Alpha)
	}
	if err := scigoErrors.CheckMatrix("Ridge.Fit", X); err != nil {
		return err
	}

	xMean := make([]float64, cols)
	var yMean float64
	if r.FitIntercept {
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				xMean[j] += X.At(i, j)
			}
			yMean += y.At(i, 0)
		}
		for j := range xMean {
			xMean[j] /= float64(rows)
		}
		yMean /= float64(rows)
	}

	Xc := mat.NewDense(rows, cols, nil)
	yc := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			Xc.Set(i, j, X.At(i, j)-xMean[j])
		}
		yc.SetVec(i, y.At(i, 0)-yMean)
	}

	// A = XcᵀXc + αI
	var gram mat.SymDense
	gram.SymOuterK(1, Xc.T())
	for j := 0; j < cols; j++ {
		gram.SetSym(j, j, gram.At(j, j)+r.Alpha)
	}
	var rhs mat.VecDense
	rhs.MulVec(Xc.T(), yc)

	w := mat.NewVecDense(cols, nil)
	var chol mat.Cholesky
	if ok := chol.Factorize(&gram); ok {
		if err := chol.SolveVecTo(w, &rhs); err != nil {
			return scigoErrors.Wrap(err, "Ridge.Fit: cholesky solve")
		}
	} else {
		// alpha=0 with collinear columns: minimum-norm least squares.
		if err := w.SolveVec(Xc, yc); err != nil {
			return scigoErrors.NewModelError("Ridge.Fit", "singular system", scigoErrors.ErrSingularMatrix)
		}
	}

	r.Coef = make([]float64, cols)
	r.Intercept = yMean
	for j := 0; j < cols; j++ {
		r.Coef[j] = w.AtVec(j)
		r.Intercept -= xMean[j] * r.Coef[j]
	}
	if r.State == nil {
		r.State = model.NewStateManager()
	}
	r.State.SetFitted(cols, rows)
	return nil
}

// Predict は入力データに対する予測を行う
func (r *Ridge) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := r.State.RequireFitted("Ridge", "Predict"); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if err := r.State.RequireFeatures("Ridge.Predict", cols); err != nil {
		return nil, err
	}
	out := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		pred := r.Intercept
		for j := 0; j < cols; j++ {
			pred += X.At(i, j) * r.Coef[j]
		}
		out.Set(i, 0, pred)
	}
	return out, nil
}

// GetParams returns the hyperparameters.
func (r *Ridge) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"alpha":         r.Alpha,
		"fit_intercept": r.FitIntercept,
	}
}

// SetParams sets hyperparameters by name.
func (r *Ridge) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		switch k {
		case "alpha":
			a, err := model.AsFloat(k, v)
			if err != nil {
				return err
			}
			if a < 0 {
				return scigoErrors.NewValidationError(k, "must be non-negative", v)
			}
			r.Alpha = a
		case "fit_intercept":
			b, ok := v.(bool)
			if !ok {
				return scigoErrors.NewValidationError(k, "must be a bool", v)
			}
			r.FitIntercept = b
		default:
			return model.UnknownParam("Ridge", k)
		}
	}
	return nil
}

// String returns the string representation of the model
func (r *Ridge) String() string {
	return fmt.Sprintf("Ridge(alpha=%g, fit_intercept=%t)", r.Alpha, r.FitIntercept)
}
