// Package tree implements CART regression trees.
package tree

import (
	"encoding/gob"
	"fmt"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/chocotune/core/model"
	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
)

func init() {
	gob.Register(&DecisionTreeRegressor{})
}

// Leaf marks a node without a split.
const Leaf = -1

// Node is one node of a fitted tree. Children are indices into Nodes.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
	Impurity  float64
	NSamples  int
}

// DecisionTreeRegressor is a CART tree minimizing squared error.
type DecisionTreeRegressor struct {
	State *model.StateManager

	// Hyperparameters. MaxDepth 0 grows until leaves are pure; MaxFeatures 0
	// considers every feature at each split.
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int
	RandomState     uint64

	Nodes              []Node
	FeatureImportances []float64
}

// Option configures a DecisionTreeRegressor.
type Option func(*DecisionTreeRegressor)

// WithMaxDepth limits the tree depth.
func WithMaxDepth(d int) Option {
	return func(t *DecisionTreeRegressor) { t.MaxDepth = d }
}

// WithMinSamplesSplit sets the minimum node size that may be split.
func WithMinSamplesSplit(n int) Option {
	return func(t *DecisionTreeRegressor) { t.MinSamplesSplit = n }
}

// WithMinSamplesLeaf sets the minimum leaf size.
func WithMinSamplesLeaf(n int) Option {
	return func(t *DecisionTreeRegressor) { t.MinSamplesLeaf = n }
}

// WithMaxFeatures sets the number of features drawn per split.
func WithMaxFeatures(n int) Option {
	return func(t *DecisionTreeRegressor) { t.MaxFeatures = n }
}

// WithRandomState seeds the feature permutation.
func WithRandomState(seed uint64) Option {
	return func(t *DecisionTreeRegressor) { t.RandomState = seed }
}

// NewDecisionTreeRegressor creates an unlimited-depth tree.
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	t := &DecisionTreeRegressor{
		State:           model.NewStateManager(),
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Fit grows the tree on X and the single target column y.
func (t *DecisionTreeRegressor) Fit(X, y mat.Matrix) error {
	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows == 0 || cols == 0 {
		return scigoErrors.NewModelError("DecisionTreeRegressor.Fit", "empty input", scigoErrors.ErrEmptyData)
	}
	if rows != yRows {
		return scigoErrors.NewDimensionError("DecisionTreeRegressor.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return scigoErrors.NewDimensionError("DecisionTreeRegressor.Fit", 1, yCols, 1)
	}
	if err := scigoErrors.CheckMatrix("DecisionTreeRegressor.Fit", X); err != nil {
		return err
	}
	idx := make([]int, rows)
	for i := range idx {
		idx[i] = i
	}
	return t.fitIndices(X, y, idx)
}

// FitSample grows the tree on the rows named by idx, which may repeat.
// Forests use it to train on bootstrap samples without copying X.
func (t *DecisionTreeRegressor) FitSample(X, y mat.Matrix, idx []int) error {
	if len(idx) == 0 {
		return scigoErrors.NewModelError("DecisionTreeRegressor.Fit", "empty sample", scigoErrors.ErrEmptyData)
	}
	return t.fitIndices(X, y, idx)
}

func (t *DecisionTreeRegressor) fitIndices(X, y mat.Matrix, idx []int) error {
	_, cols := X.Dims()
	b := &builder{
		X:        X,
		y:        y,
		cols:     cols,
		tree:     t,
		rng:      rand.New(rand.NewPCG(t.RandomState, t.RandomState^0x9e3779b97f4a7c15)),
		features: make([]int, cols),
		gain:     make([]float64, cols),
	}
	for j := range b.features {
		b.features[j] = j
	}
	t.Nodes = t.Nodes[:0]
	b.grow(append([]int(nil), idx...), 0)

	var total float64
	for _, g := range b.gain {
		total += g
	}
	t.FeatureImportances = b.gain
	for j, g := range t.FeatureImportances {
		t.FeatureImportances[j] = scigoErrors.SafeDivide(g, total)
	}
	if t.State == nil {
		t.State = model.NewStateManager()
	}
	t.State.SetFitted(cols, len(idx))
	return nil
}

type builder struct {
	X, y     mat.Matrix
	cols     int
	tree     *DecisionTreeRegressor
	rng      *rand.Rand
	features []int
	gain     []float64
}

func (b *builder) stats(idx []int) (mean, sse float64) {
	for _, i := range idx {
		mean += b.y.At(i, 0)
	}
	mean /= float64(len(idx))
	for _, i := range idx {
		d := b.y.At(i, 0) - mean
		sse += d * d
	}
	return mean, sse
}

// grow appends the subtree for idx and returns its node index.
func (b *builder) grow(idx []int, depth int) int {
	mean, sse := b.stats(idx)
	id := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, Node{
		Feature:  Leaf,
		Left:     Leaf,
		Right:    Leaf,
		Value:    mean,
		Impurity: sse / float64(len(idx)),
		NSamples: len(idx),
	})

	t := b.tree
	minSplit := max(t.MinSamplesSplit, 2)
	minLeaf := max(t.MinSamplesLeaf, 1)
	if (t.MaxDepth > 0 && depth >= t.MaxDepth) || len(idx) < minSplit || len(idx) < 2*minLeaf || sse <= 1e-12 {
		return id
	}

	feature, threshold, childSSE, ok := b.bestSplit(idx, sse, minLeaf)
	if !ok {
		return id
	}
	b.gain[feature] += sse - childSSE

	var left, right []int
	for _, i := range idx {
		if b.X.At(i, feature) <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	n := &b.tree.Nodes[id]
	n.Feature, n.Threshold, n.Left, n.Right = feature, threshold, l, r
	return id
}

// bestSplit scans the candidate features and returns the split with the
// lowest summed child SSE.
func (b *builder) bestSplit(idx []int, parentSSE float64, minLeaf int) (feature int, threshold, bestSSE float64, ok bool) {
	candidates := b.features
	if k := b.tree.MaxFeatures; k > 0 && k < b.cols {
		b.rng.Shuffle(len(b.features), func(i, j int) {
			b.features[i], b.features[j] = b.features[j], b.features[i]
		})
		candidates = b.features[:k]
	}

	n := len(idx)
	order := make([]int, n)
	bestSSE = parentSSE
	for _, f := range candidates {
		copy(order, idx)
		sort.SliceStable(order, func(a, c int) bool {
			return b.X.At(order[a], f) < b.X.At(order[c], f)
		})
		var totalSum, totalSq float64
		for _, i := range order {
			v := b.y.At(i, 0)
			totalSum += v
			totalSq += v * v
		}
		var leftSum, leftSq float64
		for k := 0; k < n-1; k++ {
			v := b.y.At(order[k], 0)
			leftSum += v
			leftSq += v * v
			xk, xn := b.X.At(order[k], f), b.X.At(order[k+1], f)
			nl := k + 1
			nr := n - nl
			if xk == xn || nl < minLeaf || nr < minLeaf {
				continue
			}
			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			s := (leftSq - leftSum*leftSum/float64(nl)) + (rightSq - rightSum*rightSum/float64(nr))
			if s < bestSSE-1e-12 {
				bestSSE = s
				feature = f
				threshold = xk + (xn-xk)/2
				ok = true
			}
		}
	}
	return feature, threshold, bestSSE, ok
}

// Predict returns the leaf mean for each row.
func (t *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := t.State.RequireFitted("DecisionTreeRegressor", "Predict"); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if err := t.State.RequireFeatures("DecisionTreeRegressor.Predict", cols); err != nil {
		return nil, err
	}
	out := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		out.Set(i, 0, t.predictRow(X, i))
	}
	return out, nil
}

func (t *DecisionTreeRegressor) predictRow(X mat.Matrix, i int) float64 {
	n := &t.Nodes[0]
	for n.Feature != Leaf {
		if X.At(i, n.Feature) <= n.Threshold {
			n = &t.Nodes[n.Left]
		} else {
			n = &t.Nodes[n.Right]
		}
	}
	return n.Value
}

// Depth returns the depth of the fitted tree.
func (t *DecisionTreeRegressor) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	var walk func(id int) int
	walk = func(id int) int {
		n := t.Nodes[id]
		if n.Feature == Leaf {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

// NLeaves returns the number of leaves.
func (t *DecisionTreeRegressor) NLeaves() int {
	leaves := 0
	for _, n := range t.Nodes {
		if n.Feature == Leaf {
			leaves++
		}
	}
	return leaves
}

// GetParams returns the hyperparameters.
func (t *DecisionTreeRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"max_depth":         t.MaxDepth,
		"min_samples_split": t.MinSamplesSplit,
		"min_samples_leaf":  t.MinSamplesLeaf,
		"max_features":      t.MaxFeatures,
		"random_state":      int(t.RandomState),
	}
}

// SetParams sets hyperparameters by name. Every value must be a
// non-negative integer.
func (t *DecisionTreeRegressor) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		n, err := model.AsInt(k, v)
		if err != nil {
			return err
		}
		if n < 0 {
			return scigoErrors.NewValidationError(k, "must be non-negative", v)
		}
		switch k {
		case "max_depth":
			t.MaxDepth = n
		case "min_samples_split":
			if n < 2 {
				return scigoErrors.NewValidationError(k, "must be at least 2", v)
			}
			t.MinSamplesSplit = n
		case "min_samples_leaf":
			if n < 1 {
				return scigoErrors.NewValidationError(k, "must be at least 1", v)
			}
			t.MinSamplesLeaf = n
		case "max_features":
			t.MaxFeatures = n
		case "random_state":
			t.RandomState = uint64(n)
		default:
			return model.UnknownParam("DecisionTreeRegressor", k)
		}
	}
	return nil
}

func (t *DecisionTreeRegressor) String() string {
	return fmt.Sprintf("DecisionTreeRegressor(max_depth=%d, min_samples_leaf=%d)", t.MaxDepth, t.MinSamplesLeaf)
}

var _ model.Regressor = (*DecisionTreeRegressor)(nil)
