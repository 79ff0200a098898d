package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func vec(xs ...float64) *mat.VecDense { return mat.NewVecDense(len(xs), xs) }

func TestRegressionMetrics(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(yTrue, yPred mat.Vector) (float64, error)
		yTrue   *mat.VecDense
		yPred   *mat.VecDense
		want    float64
		wantErr bool
	}{
		{"mse perfect", MSE, vec(1, 2, 3), vec(1, 2, 3), 0, false},
		{"mse simple", MSE, vec(1, 2, 3, 4), vec(1.5, 2.5, 2.5, 3.5), 0.25, false},
		{"rmse", RMSE, vec(10, 20, 30), vec(12, 18, 33), math.Sqrt(17.0 / 3.0), false},
		{"mae", MAE, vec(1, 2, 3), vec(2, 2, 1), 1, false},
		{"r2 perfect", R2Score, vec(1, 2, 3), vec(1, 2, 3), 1, false},
		{"r2 mean predictor", R2Score, vec(1, 2, 3), vec(2, 2, 2), 0, false},
		{"r2 constant truth exact", R2Score, vec(3, 3), vec(3, 3), 1, false},
		{"mape fraction", MAPE, vec(2, 4), vec(3, 3), 0.375, false},
		{"mape zero truth is finite", MAPE, vec(0, 1), vec(0, 1), 0, false},
		{"explained variance", ExplainedVarianceScore, vec(1, 2, 3), vec(2, 3, 4), 1, false},
		{"dimension mismatch", MSE, vec(1, 2, 3), vec(1, 2), 0, true},
		{"empty", MAE, &mat.VecDense{}, &mat.VecDense{}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.yTrue, tt.yPred)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-10 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetScorer(t *testing.T) {
	yTrue, yPred := vec(2, 4), vec(3, 3)
	tests := []struct {
		name string
		want float64
	}{
		{"", 1 - 2.0/2.0},
		{"r2", 0},
		{"neg_mean_absolute_percentage_error", -0.375},
		{"neg_mean_absolute_error", -1},
		{"neg_mean_squared_error", -1},
		{"neg_root_mean_squared_error", -1},
	}
	for _, tt := range tests {
		s, err := GetScorer(tt.name)
		if err != nil {
			t.Fatal(err)
		}
		got, err := s.Score(yTrue, yPred)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%q: got %v, want %v", tt.name, got, tt.want)
		}
	}
	if _, err := GetScorer("accuracy"); err == nil {
		t.Error("expected unknown scorer error")
	}
}
