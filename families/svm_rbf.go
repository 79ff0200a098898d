package families

import (
	"github.com/YuminosukeSato/chocotune/core/model"
	"github.com/YuminosukeSato/chocotune/sklearn/model_selection"
	"github.com/YuminosukeSato/chocotune/sklearn/svm"
	"github.com/YuminosukeSato/chocotune/tuning"
)

// SVMRBF is the name of the RBF support vector regression family.
const SVMRBF = "svm_rbf"

func init() { Register(SVMRBF, NewSVMRBF) }

// NewSVMRBF tunes the penalty and kernel width of an RBF SVR on log scales.
func NewSVMRBF(opts ...Option) tuning.ModelFamily {
	return newFamily(SVMRBF, opts,
		func(settings) model.Regressor { return svm.NewSVR() },
		func(settings) model_selection.ParamDistributions {
			return model_selection.ParamDistributions{
				"svr__C":     model_selection.LogUniform{Low: 1e-3, High: 1e4},
				"svr__gamma": model_selection.LogUniform{Low: 1e-4, High: 1e1},
			}
		},
	)
}
