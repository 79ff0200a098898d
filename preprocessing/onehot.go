package preprocessing

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/chocotune/core/frame"
	"github.com/YuminosukeSato/chocotune/core/model"
	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
)

// MissingCategory labels missing cells. It sorts after every other category.
const MissingCategory = "nan"

// InfrequentCategory labels the bucket that collects rare categories.
const InfrequentCategory = "infrequent_sklearn"

// OneHotEncoder encodes categorical columns as indicator vectors.
//
// Categories are sorted per column with MissingCategory last. Categories seen
// fewer than MinFrequency[column] times at fit are collapsed into one
// trailing infrequent column. With DropIfBinary a column with exactly two
// output categories keeps only the second indicator. A category unseen at fit
// maps to an all-zero block when the policy ignores unknowns.
type OneHotEncoder struct {
	State *model.StateManager

	MinFrequency map[string]int
	DropIfBinary bool
	Policy       UnknownPolicy

	Columns []string
	// Categories[j] holds the frequent categories of column j in output order.
	Categories [][]string
	// Infrequent[j] holds the categories collapsed into the trailing bucket.
	Infrequent [][]string
	Dropped    []bool
}

// OneHotOption configures a OneHotEncoder.
type OneHotOption func(*OneHotEncoder)

// WithMinFrequency sets the minimum count per column below which a category
// is collapsed into the infrequent bucket.
func WithMinFrequency(minFrequency map[string]int) OneHotOption {
	return func(e *OneHotEncoder) { e.MinFrequency = minFrequency }
}

// WithDropIfBinary drops the first indicator of two-category columns.
func WithDropIfBinary() OneHotOption {
	return func(e *OneHotEncoder) { e.DropIfBinary = true }
}

// WithOneHotPolicy sets the unknown-category policy.
func WithOneHotPolicy(p UnknownPolicy) OneHotOption {
	return func(e *OneHotEncoder) { e.Policy = p }
}

// NewOneHotEncoder creates an encoder that ignores unknown categories.
func NewOneHotEncoder(opts ...OneHotOption) *OneHotEncoder {
	e := &OneHotEncoder{State: model.NewStateManager(), Policy: DefaultUnknownPolicy()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func category(c frame.Column, i int) string {
	if !c.Valid[i] {
		return MissingCategory
	}
	return c.Values[i]
}

func sortCategories(cats []string) {
	sort.Slice(cats, func(a, b int) bool {
		if (cats[a] == MissingCategory) != (cats[b] == MissingCategory) {
			return cats[b] == MissingCategory
		}
		return cats[a] < cats[b]
	})
}

// Fit learns the categories of every column of X.
func (e *OneHotEncoder) Fit(X *frame.Frame, _ mat.Matrix) error {
	if X.Len() == 0 {
		return scigoErrors.NewModelError("OneHotEncoder.Fit", "empty data", scigoErrors.ErrEmptyData)
	}
	if e.State == nil {
		e.State = model.NewStateManager()
	}
	names := X.Names()
	e.Columns = names
	e.Categories = make([][]string, len(names))
	e.Infrequent = make([][]string, len(names))
	e.Dropped = make([]bool, len(names))

	for j, name := range names {
		col, _ := X.Column(name)
		counts := make(map[string]int)
		for i := range col.Values {
			counts[category(col, i)]++
		}
		minFreq := e.MinFrequency[name]
		var frequent, infrequent []string
		for cat, n := range counts {
			if minFreq > 0 && n < minFreq {
				infrequent = append(infrequent, cat)
			} else {
				frequent = append(frequent, cat)
			}
		}
		sortCategories(frequent)
		sortCategories(infrequent)
		e.Categories[j] = frequent
		e.Infrequent[j] = infrequent
		e.Dropped[j] = e.DropIfBinary && e.fullWidth(j) == 2
	}

	e.State.SetFitted(len(names), X.Len())
	return nil
}

// fullWidth is the number of indicators of column j before dropping.
func (e *OneHotEncoder) fullWidth(j int) int {
	w := len(e.Categories[j])
	if len(e.Infrequent[j]) > 0 {
		w++
	}
	return w
}

func (e *OneHotEncoder) width(j int) int {
	if e.Dropped[j] {
		return e.fullWidth(j) - 1
	}
	return e.fullWidth(j)
}

// slots maps every known category of column j to its indicator index before
// dropping.
func (e *OneHotEncoder) slots(j int) map[string]int {
	m := make(map[string]int, len(e.Categories[j])+len(e.Infrequent[j]))
	for k, cat := range e.Categories[j] {
		m[cat] = k
	}
	for _, cat := range e.Infrequent[j] {
		m[cat] = len(e.Categories[j])
	}
	return m
}

// NumFeatures returns the number of output columns.
func (e *OneHotEncoder) NumFeatures() int {
	total := 0
	for j := range e.Columns {
		total += e.width(j)
	}
	return total
}

// Transform encodes X. X must contain the fitted columns.
func (e *OneHotEncoder) Transform(X *frame.Frame) (*mat.Dense, error) {
	if err := e.State.RequireFitted("OneHotEncoder", "Transform"); err != nil {
		return nil, err
	}
	sub, err := X.Select(e.Columns...)
	if err != nil {
		return nil, err
	}
	rows, total := sub.Len(), e.NumFeatures()
	if rows == 0 || total == 0 {
		return emptyDense(rows, total), nil
	}
	out := mat.NewDense(rows, total, nil)

	offset := 0
	for j, name := range e.Columns {
		col, _ := sub.Column(name)
		slot := e.slots(j)
		var unknown []string
		for i := 0; i < rows; i++ {
			cat := category(col, i)
			k, ok := slot[cat]
			if !ok {
				unknown = append(unknown, cat)
				continue
			}
			if e.Dropped[j] {
				if k == 0 {
					continue
				}
				k--
			}
			out.Set(i, offset+k, 1)
		}
		if err := e.Policy.check("OneHotEncoder.Transform", name, uniqueSorted(unknown)); err != nil {
			return nil, err
		}
		offset += e.width(j)
	}
	return out, nil
}

// FeatureNames returns "column_category" for every output column.
func (e *OneHotEncoder) FeatureNames() []string {
	var names []string
	for j, col := range e.Columns {
		labels := append([]string(nil), e.Categories[j]...)
		if len(e.Infrequent[j]) > 0 {
			labels = append(labels, InfrequentCategory)
		}
		if e.Dropped[j] {
			labels = labels[1:]
		}
		for _, l := range labels {
			names = append(names, col+"_"+l)
		}
	}
	return names
}
