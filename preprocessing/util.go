package preprocessing

import (
	"encoding/gob"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Every step that can sit behind an interface inside a persisted pipeline.
func init() {
	gob.Register(SetParser{})
	gob.Register(PercentParser{})
	gob.Register(LeadingCountParser{})
	gob.Register(NumericParser{})
	gob.Register(&StandardScaler{})
	gob.Register(&OneHotEncoder{})
	gob.Register(&OrdinalEncoder{})
	gob.Register(&MultiLabelBinarizer{})
	gob.Register(&SetValueEncoder{})
}

// emptyDense allocates rows x cols, or returns an empty Dense when either
// dimension is zero since gonum cannot allocate zero-sized matrices. Callers
// treat an empty Dense as contributing no columns.
func emptyDense(rows, cols int) *mat.Dense {
	if rows > 0 && cols > 0 {
		return mat.NewDense(rows, cols, nil)
	}
	return &mat.Dense{}
}

func uniqueSorted(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
