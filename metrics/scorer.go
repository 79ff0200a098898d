package metrics

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
)

// Scorer evaluates predictions so that greater is always better. Error
// metrics are negated, as in scikit-learn's "neg_*" scorers.
type Scorer struct {
	Name string
	fn   func(yTrue, yPred mat.Vector) (float64, error)
	sign float64
}

// Score returns the signed score.
func (s Scorer) Score(yTrue, yPred mat.Vector) (float64, error) {
	v, err := s.fn(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return s.sign * v, nil
}

// DefaultScoring is the estimator's own score, R² for regressors.
const DefaultScoring = "r2"

var scorers = map[string]Scorer{
	"r2":                                 {Name: "r2", fn: R2Score, sign: 1},
	"explained_variance":                 {Name: "explained_variance", fn: ExplainedVarianceScore, sign: 1},
	"neg_mean_absolute_percentage_error": {Name: "neg_mean_absolute_percentage_error", fn: MAPE, sign: -1},
	"neg_mean_absolute_error":            {Name: "neg_mean_absolute_error", fn: MAE, sign: -1},
	"neg_mean_squared_error":             {Name: "neg_mean_squared_error", fn: MSE, sign: -1},
	"neg_root_mean_squared_error":        {Name: "neg_root_mean_squared_error", fn: RMSE, sign: -1},
}

// GetScorer looks up a scorer by name. The empty name selects
// DefaultScoring.
func GetScorer(name string) (Scorer, error) {
	if name == "" {
		name = DefaultScoring
	}
	s, ok := scorers[name]
	if !ok {
		return Scorer{}, scigoErrors.NewValidationError("scoring", "unknown scorer; valid names are "+joinNames(), name)
	}
	return s, nil
}

// ScorerNames lists the registered scorer names.
func ScorerNames() []string {
	names := make([]string, 0, len(scorers))
	for n := range scorers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func joinNames() string {
	out := ""
	for i, n := range ScorerNames() {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
