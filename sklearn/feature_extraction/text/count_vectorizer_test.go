package text

import (
	"testing"

	"github.com/YuminosukeSato/chocotune/core/frame"
)

func docs(t *testing.T, values ...string) *frame.Frame {
	t.Helper()
	c := frame.Column{Name: "most_memorable_characteristics", Values: values, Valid: make([]bool, len(values))}
	for i, v := range values {
		c.Valid[i] = v != ""
	}
	f, err := frame.New(c)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestCountVectorizerFitTransform(t *testing.T) {
	X := docs(t,
		"Sandy, Nutty, cocoa",
		"nutty, roasty, and the cocoa",
		"",
		"fruity, NUTTY",
	)
	v := NewCountVectorizer()
	if err := v.Fit(X, nil); err != nil {
		t.Fatal(err)
	}
	want := []string{"cocoa", "fruity", "nutty", "roasty", "sandy"}
	if got := v.FeatureNames(); len(got) != len(want) {
		t.Fatalf("vocabulary = %v, want %v", got, want)
	} else {
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("term %d = %s, want %s", i, got[i], want[i])
			}
		}
	}
	if v.VocabularySize() != 5 {
		t.Errorf("VocabularySize = %d", v.VocabularySize())
	}

	out, err := v.Transform(X)
	if err != nil {
		t.Fatal(err)
	}
	r, c := out.Dims()
	if r != 4 || c != 5 {
		t.Fatalf("dims = (%d, %d)", r, c)
	}
	if out.At(3, 2) != 1 || out.At(1, 0) != 1 {
		t.Errorf("unexpected counts: nutty=%v cocoa=%v", out.At(3, 2), out.At(1, 0))
	}
	for j := 0; j < c; j++ {
		if out.At(2, j) != 0 {
			t.Errorf("missing document should be all zero, got %v at %d", out.At(2, j), j)
		}
	}
}

func TestCountVectorizerMaxFeatures(t *testing.T) {
	X := docs(t, "nutty cocoa", "nutty sandy", "nutty cocoa earthy")
	v := NewCountVectorizer(WithMaxFeatures(2))
	if err := v.Fit(X, nil); err != nil {
		t.Fatal(err)
	}
	got := v.FeatureNames()
	if len(got) != 2 || got[0] != "cocoa" || got[1] != "nutty" {
		t.Errorf("vocabulary = %v, want [cocoa nutty]", got)
	}

	if err := v.SetParams(map[string]interface{}{"max_features": 1}); err != nil {
		t.Fatal(err)
	}
	if err := v.Fit(X, nil); err != nil {
		t.Fatal(err)
	}
	if got := v.FeatureNames(); len(got) != 1 || got[0] != "nutty" {
		t.Errorf("vocabulary = %v, want [nutty]", got)
	}
}

func TestCountVectorizerSetParamsValidation(t *testing.T) {
	v := NewCountVectorizer()
	tests := []struct {
		name   string
		params map[string]interface{}
	}{
		{"negative", map[string]interface{}{"max_features": -1}},
		{"fraction", map[string]interface{}{"max_features": 1.5}},
		{"unknown", map[string]interface{}{"ngram_range": 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := v.SetParams(tt.params); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCountVectorizerOnlyStopWords(t *testing.T) {
	if err := NewCountVectorizer().Fit(docs(t, "the and of", ""), nil); err == nil {
		t.Error("expected empty vocabulary error")
	}
}
