package ensemble

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func linearData() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(40, 2, nil)
	y := mat.NewDense(40, 1, nil)
	for i := 0; i < 40; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(i%3))
		y.Set(i, 0, 2*float64(i))
	}
	return X, y
}

func TestRandomForestRegressorFitPredict(t *testing.T) {
	X, y := linearData()
	f := NewRandomForestRegressor(WithNEstimators(20), WithRandomState(7))
	if err := f.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	if len(f.Estimators) != 20 {
		t.Fatalf("trees = %d", len(f.Estimators))
	}
	pred, err := f.Predict(X)
	if err != nil {
		t.Fatal(err)
	}
	var mae float64
	for i := 0; i < 40; i++ {
		mae += math.Abs(pred.At(i, 0)-y.At(i, 0)) / 40
	}
	if mae > 5 {
		t.Errorf("training MAE = %v", mae)
	}
	if f.FeatureImportances[0] < f.FeatureImportances[1] {
		t.Errorf("importances = %v", f.FeatureImportances)
	}
}

func TestRandomForestRegressorDeterministicAcrossWorkers(t *testing.T) {
	X, y := linearData()
	a := NewRandomForestRegressor(WithNEstimators(8), WithRandomState(3), WithNJobs(1), WithMaxFeatures(1))
	b := NewRandomForestRegressor(WithNEstimators(8), WithRandomState(3), WithNJobs(4), WithMaxFeatures(1))
	if err := a.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	if err := b.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	pa, _ := a.Predict(X)
	pb, _ := b.Predict(X)
	if !mat.Equal(pa, pb) {
		t.Error("predictions depend on n_jobs")
	}
}

func TestRandomForestRegressorNoBootstrapSingleTree(t *testing.T) {
	X, y := linearData()
	f := NewRandomForestRegressor(WithNEstimators(1), WithBootstrap(false))
	if err := f.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	pred, _ := f.Predict(X)
	if !mat.EqualApprox(pred, y, 1e-9) {
		t.Error("unbootstrapped full-depth tree should interpolate")
	}
}

func TestRandomForestRegressorParams(t *testing.T) {
	f := NewRandomForestRegressor()
	if err := f.SetParams(map[string]interface{}{"n_estimators": 50, "max_depth": 10}); err != nil {
		t.Fatal(err)
	}
	if f.NEstimators != 50 || f.MaxDepth != 10 {
		t.Errorf("params = %v", f.GetParams())
	}
	for _, p := range []map[string]interface{}{
		{"n_estimators": 0},
		{"max_depth": -2},
		{"bootstrap": 1},
		{"criterion": 1},
	} {
		if err := f.SetParams(p); err == nil {
			t.Errorf("SetParams(%v) should fail", p)
		}
	}
	if _, err := NewRandomForestRegressor().Predict(mat.NewDense(1, 1, nil)); err == nil {
		t.Error("expected not fitted error")
	}
}
