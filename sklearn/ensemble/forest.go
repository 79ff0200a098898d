// Package ensemble provides bagged tree ensembles.
package ensemble

import (
	"context"
	"encoding/gob"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/chocotune/core/model"
	"github.com/YuminosukeSato/chocotune/core/parallel"
	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
	"github.com/YuminosukeSato/chocotune/sklearn/tree"
)

func init() {
	gob.Register(&RandomForestRegressor{})
}

// RandomForestRegressor averages decision trees fitted on bootstrap samples.
type RandomForestRegressor struct {
	State *model.StateManager

	NEstimators    int
	MaxDepth       int
	MinSamplesLeaf int
	// MaxFeatures 0 uses every feature at each split, as scikit-learn's
	// regressor default does.
	MaxFeatures int
	Bootstrap   bool
	RandomState uint64
	NJobs       int

	Estimators         []*tree.DecisionTreeRegressor
	FeatureImportances []float64
}

// Option configures a RandomForestRegressor.
type Option func(*RandomForestRegressor)

// WithNEstimators sets the number of trees.
func WithNEstimators(n int) Option {
	return func(f *RandomForestRegressor) { f.NEstimators = n }
}

// WithMaxDepth limits every tree.
func WithMaxDepth(d int) Option {
	return func(f *RandomForestRegressor) { f.MaxDepth = d }
}

// WithMaxFeatures sets the features drawn per split.
func WithMaxFeatures(n int) Option {
	return func(f *RandomForestRegressor) { f.MaxFeatures = n }
}

// WithBootstrap toggles bootstrap sampling.
func WithBootstrap(b bool) Option {
	return func(f *RandomForestRegressor) { f.Bootstrap = b }
}

// WithRandomState seeds tree sampling.
func WithRandomState(seed uint64) Option {
	return func(f *RandomForestRegressor) { f.RandomState = seed }
}

// WithNJobs sets the number of trees fitted concurrently. n <= 0 uses every CPU.
func WithNJobs(n int) Option {
	return func(f *RandomForestRegressor) { f.NJobs = n }
}

// NewRandomForestRegressor creates a 100-tree forest.
func NewRandomForestRegressor(opts ...Option) *RandomForestRegressor {
	f := &RandomForestRegressor{
		State:          model.NewStateManager(),
		NEstimators:    100,
		MinSamplesLeaf: 1,
		Bootstrap:      true,
		NJobs:          1,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fit fits NEstimators trees. Tree seeds and bootstrap samples depend only
// on RandomState, so the result does not depend on NJobs.
func (f *RandomForestRegressor) Fit(X, y mat.Matrix) (err error) {
	defer scigoErrors.Recover(&err, "RandomForestRegressor.Fit")

	rows, cols := X.Dims()
	yRows, _ := y.Dims()
	if rows == 0 || cols == 0 {
		return scigoErrors.NewModelError("RandomForestRegressor.Fit", "empty input", scigoErrors.ErrEmptyData)
	}
	if rows != yRows {
		return scigoErrors.NewDimensionError("RandomForestRegressor.Fit", rows, yRows, 0)
	}
	if f.NEstimators < 1 {
		return scigoErrors.NewValidationError("n_estimators", "must be positive", f.NEstimators)
	}
	if err := scigoErrors.CheckMatrix("RandomForestRegressor.Fit", X); err != nil {
		return err
	}

	master := rand.New(rand.NewPCG(f.RandomState, 0x5eed))
	seeds := make([]uint64, f.NEstimators)
	for i := range seeds {
		seeds[i] = master.Uint64()
	}

	trees := make([]*tree.DecisionTreeRegressor, f.NEstimators)
	err = parallel.ForEach(context.Background(), f.NEstimators, f.NJobs, func(_ context.Context, k int) error {
		t := tree.NewDecisionTreeRegressor(
			tree.WithMaxDepth(f.MaxDepth),
			tree.WithMinSamplesLeaf(max(f.MinSamplesLeaf, 1)),
			tree.WithMaxFeatures(f.MaxFeatures),
			tree.WithRandomState(seeds[k]),
		)
		idx := make([]int, rows)
		if f.Bootstrap {
			rng := rand.New(rand.NewPCG(seeds[k], 1))
			for i := range idx {
				idx[i] = rng.IntN(rows)
			}
		} else {
			for i := range idx {
				idx[i] = i
			}
		}
		if err := t.FitSample(X, y, idx); err != nil {
			return scigoErrors.Wrapf(err, "tree %d", k)
		}
		trees[k] = t
		return nil
	})
	if err != nil {
		return err
	}

	f.Estimators = trees
	f.FeatureImportances = make([]float64, cols)
	for _, t := range trees {
		for j, v := range t.FeatureImportances {
			f.FeatureImportances[j] += v / float64(len(trees))
		}
	}
	if f.State == nil {
		f.State = model.NewStateManager()
	}
	f.State.SetFitted(cols, rows)
	return nil
}

// Predict averages the tree predictions.
func (f *RandomForestRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := f.State.RequireFitted("RandomForestRegressor", "Predict"); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if err := f.State.RequireFeatures("RandomForestRegressor.Predict", cols); err != nil {
		return nil, err
	}
	out := mat.NewDense(rows, 1, nil)
	for _, t := range f.Estimators {
		p, err := t.Predict(X)
		if err != nil {
			return nil, err
		}
		for i := 0; i < rows; i++ {
			out.Set(i, 0, out.At(i, 0)+p.At(i, 0))
		}
	}
	out.Scale(1/float64(len(f.Estimators)), out)
	return out, nil
}

// GetParams returns the hyperparameters.
func (f *RandomForestRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":     f.NEstimators,
		"max_depth":        f.MaxDepth,
		"min_samples_leaf": f.MinSamplesLeaf,
		"max_features":     f.MaxFeatures,
		"bootstrap":        f.Bootstrap,
		"random_state":     int(f.RandomState),
		"n_jobs":           f.NJobs,
	}
}

// SetParams sets hyperparameters by name.
func (f *RandomForestRegressor) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		if k == "bootstrap" {
			b, ok := v.(bool)
			if !ok {
				return scigoErrors.NewValidationError(k, "must be a bool", v)
			}
			f.Bootstrap = b
			continue
		}
		n, err := model.AsInt(k, v)
		if err != nil {
			return err
		}
		switch k {
		case "n_estimators":
			if n < 1 {
				return scigoErrors.NewValidationError(k, "must be positive", v)
			}
			f.NEstimators = n
		case "max_depth", "min_samples_leaf", "max_features":
			if n < 0 {
				return scigoErrors.NewValidationError(k, "must be non-negative", v)
			}
			switch k {
			case "max_depth":
				f.MaxDepth = n
			case "min_samples_leaf":
				f.MinSamplesLeaf = n
			default:
				f.MaxFeatures = n
			}
		case "random_state":
			f.RandomState = uint64(n)
		case "n_jobs":
			f.NJobs = n
		default:
			return model.UnknownParam("RandomForestRegressor", k)
		}
	}
	return nil
}

func (f *RandomForestRegressor) String() string {
	return fmt.Sprintf("RandomForestRegressor(n_estimators=%d, max_depth=%d)", f.NEstimators, f.MaxDepth)
}
