package families

import (
	"github.com/YuminosukeSato/chocotune/core/model"
	"github.com/YuminosukeSato/chocotune/sklearn/model_selection"
	"github.com/YuminosukeSato/chocotune/sklearn/neighbors"
	"github.com/YuminosukeSato/chocotune/tuning"
)

// KNN is the name of the k-nearest-neighbours family.
const KNN = "knn"

func init() { Register(KNN, NewKNN) }

// NewKNN tunes neighbour count, weighting and leaf size.
func NewKNN(opts ...Option) tuning.ModelFamily {
	return newFamily(KNN, opts,
		func(settings) model.Regressor { return neighbors.NewKNeighborsRegressor() },
		func(settings) model_selection.ParamDistributions {
			return model_selection.ParamDistributions{
				"kneighborsregressor__leaf_size":   model_selection.RandInt{Low: 5, High: 500},
				"kneighborsregressor__n_neighbors": model_selection.RandInt{Low: 1, High: 30},
				"kneighborsregressor__weights":     model_selection.Choice{Values: []interface{}{"uniform", "distance"}},
			}
		},
	)
}
