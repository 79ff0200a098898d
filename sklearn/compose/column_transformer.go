// Package compose routes groups of columns to independent transformers and
// concatenates their outputs.
package compose

import (
	"encoding/gob"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/chocotune/core/frame"
	"github.com/YuminosukeSato/chocotune/core/model"
	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
)

func init() {
	gob.Register(&ColumnTransformer{})
}

// Branch routes Columns to Transformer. A nil Transformer drops the columns.
//
// Columns may only appear in one branch unless the branch is Derived, which
// marks a second, independent reading of a column already routed elsewhere.
type Branch struct {
	Name        string
	Columns     []string
	Transformer model.FrameTransformer
	Derived     bool
}

// Dropped reports whether the branch discards its columns.
func (b Branch) Dropped() bool {
	return b.Transformer == nil
}

// Drop declares a branch that discards columns.
func Drop(name string, columns ...string) Branch {
	return Branch{Name: name, Columns: columns}
}

// ColumnTransformer applies each branch to its column subset and
// concatenates the outputs in declaration order. Columns that no branch
// names are dropped.
type ColumnTransformer struct {
	State    *model.StateManager
	Branches []Branch

	// Widths[k] is the number of output columns of branch k.
	Widths []int
}

// NewColumnTransformer validates the branches and returns the router.
func NewColumnTransformer(branches ...Branch) (*ColumnTransformer, error) {
	names := make(map[string]struct{}, len(branches))
	owner := make(map[string]string)
	for _, b := range branches {
		if b.Name == "" || strings.Contains(b.Name, "__") {
			return nil, scigoErrors.NewValidationError("branch", "name must be non-empty and must not contain \"__\"", b.Name)
		}
		if _, dup := names[b.Name]; dup {
			return nil, scigoErrors.NewValidationError("branch", "duplicate branch name", b.Name)
		}
		names[b.Name] = struct{}{}
		if len(b.Columns) == 0 {
			return nil, scigoErrors.NewValidationError(b.Name, "branch has no columns", b.Columns)
		}
		if b.Derived {
			continue
		}
		for _, c := range b.Columns {
			if prev, taken := owner[c]; taken {
				return nil, scigoErrors.NewValidationError(b.Name,
					fmt.Sprintf("column %q already routed to branch %q", c, prev), c)
			}
			owner[c] = b.Name
		}
	}
	return &ColumnTransformer{State: model.NewStateManager(), Branches: branches}, nil
}

// RequiredColumns lists every column the branches read, without repeats.
func (ct *ColumnTransformer) RequiredColumns() []string {
	seen := make(map[string]struct{})
	var cols []string
	for _, b := range ct.Branches {
		for _, c := range b.Columns {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			cols = append(cols, c)
		}
	}
	return cols
}

func (ct *ColumnTransformer) checkColumns(op string, X *frame.Frame) error {
	if miss := X.Missing(ct.RequiredColumns()...); len(miss) > 0 {
		return scigoErrors.NewValueError(op, fmt.Sprintf("columns not found: %s", strings.Join(miss, ", ")))
	}
	return nil
}

// Fit fits every branch on its columns.
func (ct *ColumnTransformer) Fit(X *frame.Frame, y mat.Matrix) error {
	if err := ct.checkColumns("ColumnTransformer.Fit", X); err != nil {
		return err
	}
	if ct.State == nil {
		ct.State = model.NewStateManager()
	}
	ct.Widths = make([]int, len(ct.Branches))
	total := 0
	for k, b := range ct.Branches {
		if b.Dropped() {
			continue
		}
		sub, err := X.Select(b.Columns...)
		if err != nil {
			return err
		}
		out, err := model.FitTransform(b.Transformer, sub, y)
		if err != nil {
			return scigoErrors.Wrapf(err, "branch %q", b.Name)
		}
		_, c := out.Dims()
		ct.Widths[k] = c
		total += c
	}
	ct.State.SetFitted(total, X.Len())
	return nil
}

// Transform applies the fitted branches. The result has one row per row of
// X. Transformers degrade unseen values instead of failing, so for a frame
// that has the routed columns this only fails on programming errors.
func (ct *ColumnTransformer) Transform(X *frame.Frame) (*mat.Dense, error) {
	if err := ct.State.RequireFitted("ColumnTransformer", "Transform"); err != nil {
		return nil, err
	}
	if err := ct.checkColumns("ColumnTransformer.Transform", X); err != nil {
		return nil, err
	}
	total, _ := ct.State.GetDimensions()
	rows := X.Len()
	if rows == 0 || total == 0 {
		return nil, scigoErrors.NewModelError("ColumnTransformer.Transform", "empty output", scigoErrors.ErrEmptyData)
	}
	out := mat.NewDense(rows, total, nil)
	offset := 0
	for k, b := range ct.Branches {
		if b.Dropped() || ct.Widths[k] == 0 {
			continue
		}
		sub, err := X.Select(b.Columns...)
		if err != nil {
			return nil, err
		}
		part, err := b.Transformer.Transform(sub)
		if err != nil {
			return nil, scigoErrors.Wrapf(err, "branch %q", b.Name)
		}
		r, c := part.Dims()
		if r != rows {
			return nil, scigoErrors.NewDimensionError("ColumnTransformer.Transform "+b.Name, rows, r, 0)
		}
		if c != ct.Widths[k] {
			return nil, scigoErrors.NewDimensionError("ColumnTransformer.Transform "+b.Name, ct.Widths[k], c, 1)
		}
		out.Slice(0, rows, offset, offset+c).(*mat.Dense).Copy(part)
		offset += c
	}
	return out, nil
}

// Branch returns the named branch.
func (ct *ColumnTransformer) Branch(name string) (Branch, bool) {
	for _, b := range ct.Branches {
		if b.Name == name {
			return b, true
		}
	}
	return Branch{}, false
}

// FeatureNames returns "branch__feature" names when every branch can name
// its outputs, and positional names otherwise.
func (ct *ColumnTransformer) FeatureNames() []string {
	var names []string
	for k, b := range ct.Branches {
		if b.Dropped() || len(ct.Widths) <= k {
			continue
		}
		named, ok := b.Transformer.(interface{ FeatureNames() []string })
		var fn []string
		if ok {
			fn = named.FeatureNames()
		}
		if len(fn) != ct.Widths[k] {
			fn = make([]string, ct.Widths[k])
			for i := range fn {
				fn[i] = fmt.Sprintf("x%d", i)
			}
		}
		for _, f := range fn {
			names = append(names, b.Name+"__"+f)
		}
	}
	return names
}

// GetParams returns every branch parameter as "branch__param".
func (ct *ColumnTransformer) GetParams() map[string]interface{} {
	params := make(map[string]interface{})
	for _, b := range ct.Branches {
		g, ok := b.Transformer.(model.ParameterGetter)
		if !ok {
			continue
		}
		for k, v := range g.GetParams() {
			params[b.Name+"__"+k] = v
		}
	}
	return params
}

// SetParams routes "branch__param" to the named branch.
func (ct *ColumnTransformer) SetParams(params map[string]interface{}) error {
	grouped := make(map[string]map[string]interface{})
	for key, v := range params {
		head, rest, ok := model.SplitParam(key)
		if !ok {
			return model.UnknownParam("ColumnTransformer", key)
		}
		if grouped[head] == nil {
			grouped[head] = make(map[string]interface{})
		}
		grouped[head][rest] = v
	}
	for name, p := range grouped {
		b, ok := ct.Branch(name)
		if !ok || b.Dropped() {
			return scigoErrors.NewValidationError(name, "no such branch in ColumnTransformer", p)
		}
		s, ok := b.Transformer.(model.ParameterSetter)
		if !ok {
			return scigoErrors.NewValidationError(name, "branch has no tunable parameters", p)
		}
		if err := s.SetParams(p); err != nil {
			return scigoErrors.Wrapf(err, "branch %q", name)
		}
	}
	return nil
}
