package preprocessing

import (
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/chocotune/core/frame"
	"github.com/YuminosukeSato/chocotune/core/model"
	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
)

// OrdinalEncoder maps each category to its rank among the fitted categories.
// Categories are ordered numerically when every value parses as a number
// (so years keep their chronological order) and lexicographically otherwise.
// Unknown and missing values encode as UnknownValue under IgnoreUnknown.
type OrdinalEncoder struct {
	State *model.StateManager

	UnknownValue float64
	Policy       UnknownPolicy

	Columns    []string
	Categories [][]string
}

// NewOrdinalEncoder creates an encoder that maps unknown values to -1.
func NewOrdinalEncoder(policy UnknownPolicy) *OrdinalEncoder {
	return &OrdinalEncoder{State: model.NewStateManager(), UnknownValue: -1, Policy: policy}
}

func orderCategories(cats []string) {
	nums := make(map[string]float64, len(cats))
	for _, c := range cats {
		v, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil {
			sort.Strings(cats)
			return
		}
		nums[c] = v
	}
	sort.Slice(cats, func(a, b int) bool {
		if nums[cats[a]] != nums[cats[b]] {
			return nums[cats[a]] < nums[cats[b]]
		}
		return cats[a] < cats[b]
	})
}

// Fit learns the ordered categories of each column of X.
func (e *OrdinalEncoder) Fit(X *frame.Frame, _ mat.Matrix) error {
	if X.Len() == 0 {
		return scigoErrors.NewModelError("OrdinalEncoder.Fit", "empty data", scigoErrors.ErrEmptyData)
	}
	if e.State == nil {
		e.State = model.NewStateManager()
	}
	e.Columns = X.Names()
	e.Categories = make([][]string, len(e.Columns))
	for j, name := range e.Columns {
		col, _ := X.Column(name)
		seen := make(map[string]struct{})
		var cats []string
		for i, v := range col.Values {
			if !col.Valid[i] {
				continue
			}
			if _, ok := seen[v]; !ok {
				seen[v] = struct{}{}
				cats = append(cats, v)
			}
		}
		orderCategories(cats)
		e.Categories[j] = cats
	}
	e.State.SetFitted(len(e.Columns), X.Len())
	return nil
}

// Transform encodes X as one rank column per fitted column.
func (e *OrdinalEncoder) Transform(X *frame.Frame) (*mat.Dense, error) {
	if err := e.State.RequireFitted("OrdinalEncoder", "Transform"); err != nil {
		return nil, err
	}
	sub, err := X.Select(e.Columns...)
	if err != nil {
		return nil, err
	}
	rows := sub.Len()
	if rows == 0 || len(e.Columns) == 0 {
		return emptyDense(rows, len(e.Columns)), nil
	}
	out := mat.NewDense(rows, len(e.Columns), nil)
	for j, name := range e.Columns {
		col, _ := sub.Column(name)
		rank := make(map[string]int, len(e.Categories[j]))
		for k, c := range e.Categories[j] {
			rank[c] = k
		}
		var unknown []string
		for i := 0; i < rows; i++ {
			k, ok := rank[col.Values[i]]
			if !col.Valid[i] || !ok {
				if col.Valid[i] {
					unknown = append(unknown, col.Values[i])
				}
				out.Set(i, j, e.UnknownValue)
				continue
			}
			out.Set(i, j, float64(k))
		}
		if err := e.Policy.check("OrdinalEncoder.Transform", name, uniqueSorted(unknown)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// FeatureNames returns the fitted column names.
func (e *OrdinalEncoder) FeatureNames() []string {
	return append([]string(nil), e.Columns...)
}
