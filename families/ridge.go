package families

import (
	"math"

	"github.com/YuminosukeSato/chocotune/core/model"
	"github.com/YuminosukeSato/chocotune/sklearn/linear_model"
	"github.com/YuminosukeSato/chocotune/sklearn/model_selection"
	"github.com/YuminosukeSato/chocotune/tuning"
)

// Ridge is the name of the ridge regression family.
const Ridge = "ridge"

func init() { Register(Ridge, NewRidge) }

// RidgeAlphas are the searched penalties, 1e-3 through 1e5.
func RidgeAlphas() []interface{} {
	alphas := make([]interface{}, 0, 9)
	for k := -3; k <= 5; k++ {
		alphas = append(alphas, math.Pow(10, float64(k)))
	}
	return alphas
}

// NewRidge tunes the L2 penalty over powers of ten.
func NewRidge(opts ...Option) tuning.ModelFamily {
	return newFamily(Ridge, opts,
		func(settings) model.Regressor { return linear_model.NewRidge() },
		func(settings) model_selection.ParamDistributions {
			return model_selection.ParamDistributions{
				"ridge__alpha": model_selection.Choice{Values: RidgeAlphas()},
			}
		},
	)
}
