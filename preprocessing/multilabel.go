package preprocessing

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/chocotune/core/model"
	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
)

// MultiLabelBinarizer maps label sets to indicator rows over a fixed class
// list. The classes are configuration and are never learned from data.
type MultiLabelBinarizer struct {
	State   *model.StateManager
	Classes []string
	Policy  UnknownPolicy
}

// NewMultiLabelBinarizer creates a binarizer over classes.
func NewMultiLabelBinarizer(classes []string, policy UnknownPolicy) *MultiLabelBinarizer {
	return &MultiLabelBinarizer{
		State:   model.NewStateManager(),
		Classes: append([]string(nil), classes...),
		Policy:  policy,
	}
}

// Fit validates the class list. The rows of X are not inspected.
func (b *MultiLabelBinarizer) Fit(X [][]string) error {
	if len(b.Classes) == 0 {
		return scigoErrors.NewValidationError("classes", "must not be empty", b.Classes)
	}
	seen := make(map[string]struct{}, len(b.Classes))
	for _, c := range b.Classes {
		if _, dup := seen[c]; dup {
			return scigoErrors.NewValidationError("classes", "must be unique", c)
		}
		seen[c] = struct{}{}
	}
	if b.State == nil {
		b.State = model.NewStateManager()
	}
	b.State.SetFitted(len(b.Classes), len(X))
	return nil
}

// Transform returns one indicator row per label set, in class order. Labels
// outside the class list are dropped and reported once as an
// UnknownLabelWarning.
func (b *MultiLabelBinarizer) Transform(X [][]string) (*mat.Dense, error) {
	if err := b.State.RequireFitted("MultiLabelBinarizer", "Transform"); err != nil {
		return nil, err
	}
	if len(X) == 0 {
		return emptyDense(0, len(b.Classes)), nil
	}
	index := make(map[string]int, len(b.Classes))
	for k, c := range b.Classes {
		index[c] = k
	}
	out := mat.NewDense(len(X), len(b.Classes), nil)
	var unknown []string
	for i, labels := range X {
		for _, l := range labels {
			k, ok := index[l]
			if !ok {
				unknown = append(unknown, l)
				continue
			}
			out.Set(i, k, 1)
		}
	}
	unknown = uniqueSorted(unknown)
	if err := b.Policy.check("MultiLabelBinarizer.Transform", "labels", unknown); err != nil {
		return nil, err
	}
	if len(unknown) > 0 {
		scigoErrors.Warn(scigoErrors.NewUnknownLabelWarning("MultiLabelBinarizer", unknown))
	}
	return out, nil
}

// SetValueEncoder adapts MultiLabelBinarizer to the two-argument Fit used by
// pipeline steps. The target is accepted and ignored.
type SetValueEncoder struct {
	Binarizer *MultiLabelBinarizer
}

// NewSetValueEncoder creates an encoder over a fixed class universe.
func NewSetValueEncoder(classes []string, policy UnknownPolicy) *SetValueEncoder {
	return &SetValueEncoder{Binarizer: NewMultiLabelBinarizer(classes, policy)}
}

// Fit records the class universe. y may be nil.
func (e *SetValueEncoder) Fit(X [][]string, _ mat.Matrix) error {
	return e.Binarizer.Fit(X)
}

// Transform maps each set to its indicator vector.
func (e *SetValueEncoder) Transform(X [][]string) (*mat.Dense, error) {
	return e.Binarizer.Transform(X)
}

// FeatureNames returns the class universe.
func (e *SetValueEncoder) FeatureNames() []string {
	return append([]string(nil), e.Binarizer.Classes...)
}
