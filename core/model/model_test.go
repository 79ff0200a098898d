package model

import (
	"encoding/gob"
	"math"
	"os"
	"path/filepath"
	"testing"

	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
)

type fakeModel struct {
	State  *StateManager
	Alpha  float64
	Coef   []float64
	Params map[string]interface{}
}

type shape interface{ Area() float64 }

type square struct{ Side float64 }

func (s *square) Area() float64 { return s.Side * s.Side }

type holder struct {
	Shape shape
}

func init() {
	gob.Register(&square{})
}

func TestSaveLoadModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fake.gob")

	m := &fakeModel{State: NewStateManager(), Alpha: 0.5, Coef: []float64{1, 2}, Params: map[string]interface{}{"k": 3}}
	m.State.SetFitted(2, 10)
	if err := SaveModel(m, path); err != nil {
		t.Fatal(err)
	}

	var loaded fakeModel
	if err := LoadModel(&loaded, path); err != nil {
		t.Fatal(err)
	}
	if !loaded.State.IsFitted() || loaded.Alpha != 0.5 || loaded.Coef[1] != 2 || loaded.Params["k"] != 3 {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
	nf, ns := loaded.State.GetDimensions()
	if nf != 2 || ns != 10 {
		t.Errorf("dimensions = (%d, %d)", nf, ns)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestSaveModelMissingDir(t *testing.T) {
	err := SaveModel(&fakeModel{}, filepath.Join(t.TempDir(), "nope", "m.gob"))
	if err == nil {
		t.Fatal("expected error when directory does not exist")
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := &holder{Shape: &square{Side: 2}}
	cp, err := Clone(orig)
	if err != nil {
		t.Fatal(err)
	}
	cp.Shape.(*square).Side = 5
	if orig.Shape.Area() != 4 {
		t.Errorf("clone shares state with original")
	}
	if cp.Shape.Area() != 25 {
		t.Errorf("clone area = %v", cp.Shape.Area())
	}
}

func TestParamConversion(t *testing.T) {
	tests := []struct {
		name    string
		fn      func() (interface{}, error)
		want    interface{}
		wantErr bool
	}{
		{"int from int", func() (interface{}, error) { return AsInt("max_depth", 7) }, 7, false},
		{"int from integral float", func() (interface{}, error) { return AsInt("max_depth", 7.0) }, 7, false},
		{"int from fraction", func() (interface{}, error) { return AsInt("max_depth", 7.5) }, 0, true},
		{"float from int", func() (interface{}, error) { return AsFloat("alpha", 3) }, 3.0, false},
		{"float from string", func() (interface{}, error) { return AsFloat("alpha", "x") }, 0.0, true},
		{"float from NaN", func() (interface{}, error) { return AsFloat("C", math.NaN()) }, 0.0, true},
		{"string", func() (interface{}, error) { return AsString("weights", "distance") }, "distance", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if err != nil {
				var vErr *scigoErrors.ValidationError
				if !scigoErrors.As(err, &vErr) {
					t.Errorf("expected ValidationError, got %T", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitParam(t *testing.T) {
	head, rest, ok := SplitParam("columntransformer__countvectorizer__max_features")
	if !ok || head != "columntransformer" || rest != "countvectorizer__max_features" {
		t.Errorf("got (%q, %q, %v)", head, rest, ok)
	}
	if _, _, ok := SplitParam("alpha"); ok {
		t.Error("alpha has no separator")
	}
}

func TestStateManager(t *testing.T) {
	s := NewStateManager()
	err := s.RequireFitted("Ridge", "Predict")
	var nf *scigoErrors.NotFittedError
	if !scigoErrors.As(err, &nf) {
		t.Fatalf("expected NotFittedError, got %v", err)
	}
	s.SetFitted(4, 20)
	if err := s.RequireFitted("Ridge", "Predict"); err != nil {
		t.Error(err)
	}
	if err := s.RequireFeatures("Ridge.Predict", 3); err == nil {
		t.Error("expected dimension error")
	}
	s.Reset()
	if s.IsFitted() {
		t.Error("Reset should clear fitted state")
	}
}
