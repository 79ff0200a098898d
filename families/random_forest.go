package families

import (
	"github.com/YuminosukeSato/chocotune/core/model"
	"github.com/YuminosukeSato/chocotune/sklearn/ensemble"
	"github.com/YuminosukeSato/chocotune/sklearn/model_selection"
	"github.com/YuminosukeSato/chocotune/tuning"
)

// RandomForest is the name of the random forest family.
const RandomForest = "random_forest"

func init() { Register(RandomForest, NewRandomForest) }

// NewRandomForest tunes forest size and tree depth. Trees are grown one at
// a time because the search already runs evaluations in parallel.
func NewRandomForest(opts ...Option) tuning.ModelFamily {
	return newFamily(RandomForest, opts,
		func(s settings) model.Regressor {
			return ensemble.NewRandomForestRegressor(
				ensemble.WithRandomState(s.seed),
				ensemble.WithNJobs(1),
			)
		},
		func(settings) model_selection.ParamDistributions {
			return model_selection.ParamDistributions{
				"randomforestregressor__n_estimators": model_selection.RandInt{Low: 50, High: 1000},
				"randomforestregressor__max_depth":    model_selection.RandInt{Low: 10, High: 100},
			}
		},
	)
}
