// Package neighbors implements k-nearest-neighbor regression.
package neighbors

import (
	"encoding/gob"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/chocotune/core/model"
	"github.com/YuminosukeSato/chocotune/core/parallel"
	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
)

func init() {
	gob.Register(&KNeighborsRegressor{})
}

// Neighbor weighting schemes.
const (
	WeightsUniform  = "uniform"
	WeightsDistance = "distance"
)

// KNeighborsRegressor predicts the (weighted) mean target of the k nearest
// training rows under Euclidean distance. Search is brute force; LeafSize is
// kept as a tunable hyperparameter but does not change the neighbors found.
type KNeighborsRegressor struct {
	State *model.StateManager

	NNeighbors int
	Weights    string
	LeafSize   int

	FitX [][]float64
	FitY []float64
}

// Option configures a KNeighborsRegressor.
type Option func(*KNeighborsRegressor)

// WithNNeighbors sets k.
func WithNNeighbors(k int) Option {
	return func(r *KNeighborsRegressor) { r.NNeighbors = k }
}

// WithWeights sets "uniform" or "distance" weighting.
func WithWeights(w string) Option {
	return func(r *KNeighborsRegressor) { r.Weights = w }
}

// WithLeafSize sets the leaf size hyperparameter.
func WithLeafSize(n int) Option {
	return func(r *KNeighborsRegressor) { r.LeafSize = n }
}

// NewKNeighborsRegressor creates a 5-neighbor uniform regressor.
func NewKNeighborsRegressor(opts ...Option) *KNeighborsRegressor {
	r := &KNeighborsRegressor{
		State:      model.NewStateManager(),
		NNeighbors: 5,
		Weights:    WeightsUniform,
		LeafSize:   30,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fit memorizes the training data.
func (r *KNeighborsRegressor) Fit(X, y mat.Matrix) error {
	rows, cols := X.Dims()
	yRows, _ := y.Dims()
	if rows == 0 || cols == 0 {
		return scigoErrors.NewModelError("KNeighborsRegressor.Fit", "empty input", scigoErrors.ErrEmptyData)
	}
	if rows != yRows {
		return scigoErrors.NewDimensionError("KNeighborsRegressor.Fit", rows, yRows, 0)
	}
	if r.NNeighbors < 1 || r.NNeighbors > rows {
		return scigoErrors.NewValidationError("n_neighbors",
			fmt.Sprintf("must be in [1, %d] for %d training samples", rows, rows), r.NNeighbors)
	}
	if err := scigoErrors.CheckMatrix("KNeighborsRegressor.Fit", X); err != nil {
		return err
	}
	r.FitX = make([][]float64, rows)
	r.FitY = make([]float64, rows)
	for i := 0; i < rows; i++ {
		r.FitX[i] = mat.Row(nil, i, X)
		r.FitY[i] = y.At(i, 0)
	}
	if r.State == nil {
		r.State = model.NewStateManager()
	}
	r.State.SetFitted(cols, rows)
	return nil
}

type neighbor struct {
	index int
	dist  float64
}

// KNeighbors returns the indices and distances of the k nearest training
// rows for one query row, nearest first. Ties keep training order.
func (r *KNeighborsRegressor) KNeighbors(query []float64) ([]int, []float64) {
	all := make([]neighbor, len(r.FitX))
	for i, x := range r.FitX {
		all[i] = neighbor{index: i, dist: floats.Distance(query, x, 2)}
	}
	sort.SliceStable(all, func(a, b int) bool { return all[a].dist < all[b].dist })
	k := min(r.NNeighbors, len(all))
	idx := make([]int, k)
	dist := make([]float64, k)
	for i := 0; i < k; i++ {
		idx[i], dist[i] = all[i].index, all[i].dist
	}
	return idx, dist
}

func (r *KNeighborsRegressor) predictOne(query []float64) float64 {
	idx, dist := r.KNeighbors(query)
	if r.Weights == WeightsDistance {
		// exact matches take all the weight
		var exact, nExact float64
		for i, d := range dist {
			if d == 0 {
				exact += r.FitY[idx[i]]
				nExact++
			}
		}
		if nExact > 0 {
			return exact / nExact
		}
		var num, den float64
		for i, d := range dist {
			w := 1 / d
			num += w * r.FitY[idx[i]]
			den += w
		}
		return num / den
	}
	var sum float64
	for _, i := range idx {
		sum += r.FitY[i]
	}
	return sum / float64(len(idx))
}

// Predict returns one prediction per row of X.
func (r *KNeighborsRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := r.State.RequireFitted("KNeighborsRegressor", "Predict"); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if err := r.State.RequireFeatures("KNeighborsRegressor.Predict", cols); err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, scigoErrors.NewModelError("KNeighborsRegressor.Predict", "empty input", scigoErrors.ErrEmptyData)
	}
	out := make([]float64, rows)
	parallel.ParallelizeWithThreshold(rows, 256, func(start, end int) {
		row := make([]float64, cols)
		for i := start; i < end; i++ {
			mat.Row(row, i, X)
			out[i] = r.predictOne(row)
		}
	})
	return mat.NewDense(rows, 1, out), nil
}

// GetParams returns the hyperparameters.
func (r *KNeighborsRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_neighbors": r.NNeighbors,
		"weights":     r.Weights,
		"leaf_size":   r.LeafSize,
	}
}

// SetParams sets hyperparameters by name.
func (r *KNeighborsRegressor) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		switch k {
		case "n_neighbors", "leaf_size":
			n, err := model.AsInt(k, v)
			if err != nil {
				return err
			}
			if n < 1 {
				return scigoErrors.NewValidationError(k, "must be positive", v)
			}
			if k == "n_neighbors" {
				r.NNeighbors = n
			} else {
				r.LeafSize = n
			}
		case "weights":
			w, err := model.AsString(k, v)
			if err != nil {
				return err
			}
			if w != WeightsUniform && w != WeightsDistance {
				return scigoErrors.NewValidationError(k, "must be \"uniform\" or \"distance\"", v)
			}
			r.Weights = w
		default:
			return model.UnknownParam("KNeighborsRegressor", k)
		}
	}
	return nil
}

func (r *KNeighborsRegressor) String() string {
	return fmt.Sprintf("KNeighborsRegressor(n_neighbors=%d, weights=%s)", r.NNeighbors, r.Weights)
}
