package compose

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/chocotune/core/frame"
	"github.com/YuminosukeSato/chocotune/preprocessing"
	"github.com/YuminosukeSato/chocotune/sklearn/feature_extraction/text"
)

func testFrame(t *testing.T) *frame.Frame {
	t.Helper()
	f, err := frame.FromRecords(
		[]string{"ref", "maker", "cocoa_percent", "ingredients", "notes"},
		[][]string{
			{"1", "Soma", "70%", "3- B,S,C", "nutty cocoa"},
			{"2", "Zotter", "65%", "", "fruity"},
			{"3", "Soma", "80%", "2- B,S", "earthy cocoa"},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func newRouter(t *testing.T) *ColumnTransformer {
	t.Helper()
	policy := preprocessing.DefaultUnknownPolicy()
	ct, err := NewColumnTransformer(
		Branch{Name: "onehotencoder", Columns: []string{"maker"}, Transformer: preprocessing.NewOneHotEncoder()},
		Branch{Name: "pipeline-1", Columns: []string{"ingredients"},
			Transformer: NewChain[[][]string](preprocessing.NewSetParser(), preprocessing.NewSetValueEncoder([]string{"B", "S", "C"}, policy))},
		Branch{Name: "pipeline-2", Columns: []string{"cocoa_percent"},
			Transformer: NewChain[mat.Matrix](preprocessing.NewPercentParser(), preprocessing.NewStandardScalerDefault())},
		Branch{Name: "pipeline-3", Columns: []string{"ingredients"}, Derived: true,
			Transformer: NewChain[mat.Matrix](preprocessing.NewLeadingCountParser(), preprocessing.NewStandardScalerDefault())},
		Branch{Name: "countvectorizer", Columns: []string{"notes"}, Transformer: text.NewCountVectorizer()},
		Drop("drop", "ref"),
	)
	if err != nil {
		t.Fatal(err)
	}
	return ct
}

func TestColumnTransformerConcatenatesInOrder(t *testing.T) {
	X := testFrame(t)
	ct := newRouter(t)
	if err := ct.Fit(X, nil); err != nil {
		t.Fatal(err)
	}
	out, err := ct.Transform(X)
	if err != nil {
		t.Fatal(err)
	}
	r, c := out.Dims()
	// maker(2) + ingredients(3) + cocoa(1) + count(1) + vocabulary(cocoa, earthy, fruity, nutty)
	if r != 3 || c != 11 {
		t.Fatalf("dims = (%d, %d), want (3, 11)", r, c)
	}
	want := []float64{0, 1, 0, 0, 0}
	for j, w := range want {
		if out.At(1, j) != w {
			t.Errorf("row 1 col %d = %v, want %v", j, out.At(1, j), w)
		}
	}
	names := ct.FeatureNames()
	if len(names) != c || names[0] != "onehotencoder__maker_Soma" || names[c-1] != "countvectorizer__nutty" {
		t.Errorf("feature names = %v", names)
	}
}

func TestColumnTransformerRowCountInvariant(t *testing.T) {
	X := testFrame(t)
	ct := newRouter(t)
	if err := ct.Fit(X, nil); err != nil {
		t.Fatal(err)
	}
	for _, idx := range [][]int{{0}, {2, 1}, {0, 0, 1, 2, 2}} {
		out, err := ct.Transform(X.Take(idx))
		if err != nil {
			t.Fatal(err)
		}
		if r, _ := out.Dims(); r != len(idx) {
			t.Errorf("rows = %d, want %d", r, len(idx))
		}
	}
}

func TestColumnTransformerValidation(t *testing.T) {
	enc := preprocessing.NewOneHotEncoder()
	tests := []struct {
		name     string
		branches []Branch
	}{
		{"overlapping columns", []Branch{
			{Name: "a", Columns: []string{"maker"}, Transformer: enc},
			{Name: "b", Columns: []string{"maker"}, Transformer: enc},
		}},
		{"duplicate names", []Branch{
			{Name: "a", Columns: []string{"maker"}, Transformer: enc},
			{Name: "a", Columns: []string{"notes"}, Transformer: enc},
		}},
		{"separator in name", []Branch{{Name: "a__b", Columns: []string{"maker"}, Transformer: enc}}},
		{"no columns", []Branch{{Name: "a", Transformer: enc}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewColumnTransformer(tt.branches...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestColumnTransformerMissingColumn(t *testing.T) {
	ct := newRouter(t)
	X := testFrame(t).Drop("notes")
	if err := ct.Fit(X, nil); err == nil {
		t.Fatal("expected error for missing column")
	}
}

func TestColumnTransformerSetParams(t *testing.T) {
	ct := newRouter(t)
	if err := ct.SetParams(map[string]interface{}{"countvectorizer__max_features": 2}); err != nil {
		t.Fatal(err)
	}
	if got := ct.GetParams()["countvectorizer__max_features"]; got != 2 {
		t.Errorf("max_features = %v", got)
	}
	for _, key := range []string{"nosuch__x", "drop__x", "max_features"} {
		if err := ct.SetParams(map[string]interface{}{key: 1}); err == nil {
			t.Errorf("SetParams(%q) should fail", key)
		}
	}
}
