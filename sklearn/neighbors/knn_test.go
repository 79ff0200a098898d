package neighbors

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestKNeighborsRegressorPredict(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{0, 1, 2, 10})
	y := mat.NewDense(4, 1, []float64{0, 10, 20, 100})

	tests := []struct {
		name  string
		opts  []Option
		query float64
		want  float64
	}{
		{"one neighbor", []Option{WithNNeighbors(1)}, 1.2, 10},
		{"uniform mean", []Option{WithNNeighbors(2)}, 0.4, 5},
		{"distance weighted", []Option{WithNNeighbors(2), WithWeights(WeightsDistance)}, 0.25, 2.5},
		{"exact match dominates", []Option{WithNNeighbors(3), WithWeights(WeightsDistance)}, 2, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewKNeighborsRegressor(tt.opts...)
			if err := r.Fit(X, y); err != nil {
				t.Fatal(err)
			}
			pred, err := r.Predict(mat.NewDense(1, 1, []float64{tt.query}))
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(pred.At(0, 0)-tt.want) > 1e-9 {
				t.Errorf("pred = %v, want %v", pred.At(0, 0), tt.want)
			}
		})
	}
}

func TestKNeighborsRegressorKNeighborsOrder(t *testing.T) {
	r := NewKNeighborsRegressor(WithNNeighbors(3))
	if err := r.Fit(mat.NewDense(4, 1, []float64{5, 1, 3, 1}), mat.NewDense(4, 1, nil)); err != nil {
		t.Fatal(err)
	}
	idx, dist := r.KNeighbors([]float64{1})
	want := []int{1, 3, 2}
	for i := range want {
		if idx[i] != want[i] {
			t.Fatalf("neighbors = %v (dist %v), want %v", idx, dist, want)
		}
	}
}

func TestKNeighborsRegressorErrors(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{0, 1})
	y := mat.NewDense(2, 1, []float64{0, 1})
	if err := NewKNeighborsRegressor(WithNNeighbors(3)).Fit(X, y); err == nil {
		t.Error("expected error for n_neighbors > n_samples")
	}
	if _, err := NewKNeighborsRegressor().Predict(X); err == nil {
		t.Error("expected not fitted error")
	}
	r := NewKNeighborsRegressor(WithNNeighbors(1))
	_ = r.Fit(X, y)
	if _, err := r.Predict(mat.NewDense(1, 2, nil)); err == nil {
		t.Error("expected feature mismatch")
	}
}

func TestKNeighborsRegressorParams(t *testing.T) {
	r := NewKNeighborsRegressor()
	if err := r.SetParams(map[string]interface{}{"n_neighbors": 7, "weights": "distance", "leaf_size": 100}); err != nil {
		t.Fatal(err)
	}
	if p := r.GetParams(); p["n_neighbors"] != 7 || p["weights"] != "distance" || p["leaf_size"] != 100 {
		t.Errorf("params = %v", p)
	}
	for _, p := range []map[string]interface{}{
		{"n_neighbors": 0},
		{"weights": "gaussian"},
		{"weights": 1},
		{"p": 2},
	} {
		if err := r.SetParams(p); err == nil {
			t.Errorf("SetParams(%v) should fail", p)
		}
	}
}
