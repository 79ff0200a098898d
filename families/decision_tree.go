package families

import (
	"github.com/YuminosukeSato/chocotune/core/model"
	"github.com/YuminosukeSato/chocotune/sklearn/model_selection"
	"github.com/YuminosukeSato/chocotune/sklearn/tree"
	"github.com/YuminosukeSato/chocotune/tuning"
)

// DecisionTree is the name of the decision tree family.
const DecisionTree = "decision_tree"

func init() { Register(DecisionTree, NewDecisionTree) }

// NewDecisionTree tunes the depth of a regression tree.
func NewDecisionTree(opts ...Option) tuning.ModelFamily {
	return newFamily(DecisionTree, opts,
		func(s settings) model.Regressor {
			return tree.NewDecisionTreeRegressor(tree.WithRandomState(s.seed))
		},
		func(settings) model_selection.ParamDistributions {
			return model_selection.ParamDistributions{
				"decisiontreeregressor__max_depth": model_selection.RandInt{Low: 1, High: 30},
			}
		},
	)
}
