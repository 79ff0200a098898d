package svm

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func ramp() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(10, 1, nil)
	y := mat.NewDense(10, 1, nil)
	for i := 0; i < 10; i++ {
		X.Set(i, 0, float64(i)/9)
		y.Set(i, 0, 2*float64(i)/9)
	}
	return X, y
}

func TestSVRFitsWithinTube(t *testing.T) {
	X, y := ramp()
	s := NewSVR(WithC(100), WithGamma(1), WithEpsilon(0.1))
	if err := s.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	pred, err := s.Predict(X)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		if d := math.Abs(pred.At(i, 0) - y.At(i, 0)); d > 0.11 {
			t.Errorf("row %d: |pred - y| = %v", i, d)
		}
	}
	if len(s.SupportVectors) == 0 || len(s.SupportVectors) != len(s.DualCoef) {
		t.Errorf("support vectors = %d, coefficients = %d", len(s.SupportVectors), len(s.DualCoef))
	}
	for _, c := range s.DualCoef {
		if math.Abs(c) > 100+1e-9 {
			t.Errorf("dual coefficient %v exceeds C", c)
		}
	}
}

func TestSVRConstantTargetInsideTube(t *testing.T) {
	X, _ := ramp()
	y := mat.NewDense(10, 1, nil)
	for i := 0; i < 10; i++ {
		y.Set(i, 0, 1)
	}
	s := NewSVR()
	if err := s.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	if len(s.SupportVectors) != 0 {
		t.Errorf("support vectors = %d, want 0", len(s.SupportVectors))
	}
	pred, _ := s.Predict(mat.NewDense(1, 1, []float64{0.5}))
	if math.Abs(pred.At(0, 0)-1) > 1e-9 {
		t.Errorf("pred = %v, want 1", pred.At(0, 0))
	}
}

func TestSVRGammaScale(t *testing.T) {
	X := mat.NewDense(2, 2, []float64{0, 0, 2, 2})
	s := NewSVR()
	// Var of {0, 0, 2, 2} is 1, two features
	if g := s.resolveGamma(X); g != 0.5 {
		t.Errorf("gamma = %v, want 0.5", g)
	}
	if s.GetParams()["gamma"] != GammaScale {
		t.Errorf("gamma param = %v", s.GetParams()["gamma"])
	}
}

func TestSVRParams(t *testing.T) {
	s := NewSVR()
	if err := s.SetParams(map[string]interface{}{"C": 10.0, "gamma": 0.01}); err != nil {
		t.Fatal(err)
	}
	if s.C != 10 || s.Gamma != 0.01 {
		t.Errorf("params = %v", s.GetParams())
	}
	if err := s.SetParams(map[string]interface{}{"gamma": "scale"}); err != nil || s.Gamma != 0 {
		t.Errorf("gamma=scale: err=%v gamma=%v", err, s.Gamma)
	}
	for _, p := range []map[string]interface{}{
		{"C": 0.0},
		{"gamma": -1.0},
		{"gamma": "auto"},
		{"kernel": "linear"},
		{"degree": 3},
	} {
		if err := s.SetParams(p); err == nil {
			t.Errorf("SetParams(%v) should fail", p)
		}
	}
}

func TestSVRErrors(t *testing.T) {
	if _, err := NewSVR().Predict(mat.NewDense(1, 1, nil)); err == nil {
		t.Error("expected not fitted error")
	}
	if err := NewSVR().Fit(mat.NewDense(2, 1, nil), mat.NewDense(3, 1, nil)); err == nil {
		t.Error("expected dimension error")
	}
}
