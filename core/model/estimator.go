// Package model defines the estimator and transformer contracts shared by
// every learner and preprocessing step, plus fitted-state tracking and gob
// persistence.
package model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/chocotune/core/frame"
)

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Estimator は教師あり学習モデルの基本インターフェース
type Estimator interface {
	Fitter
	Predictor
}

// Transformer は数値行列を変換するインターフェース。yは無視してよい。
type Transformer interface {
	Fit(X, y mat.Matrix) error
	Transform(X mat.Matrix) (*mat.Dense, error)
}

// FrameTransformer はフレームから特徴量行列を作るインターフェース
type FrameTransformer interface {
	// Fit は変換に必要なパラメータを学習する。yはnilでもよい
	Fit(X *frame.Frame, y mat.Matrix) error

	// Transform は行数を保ったまま数値行列に変換する
	Transform(X *frame.Frame) (*mat.Dense, error)
}

// ParameterGetter is implemented by models that expose their hyperparameters.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// ParameterSetter is implemented by models whose hyperparameters can be
// changed by name, as the search does for every candidate.
type ParameterSetter interface {
	SetParams(params map[string]interface{}) error
}

// Configurable combines ParameterGetter and ParameterSetter.
type Configurable interface {
	ParameterGetter
	ParameterSetter
}

// Regressor is a configurable Estimator.
type Regressor interface {
	Estimator
	Configurable
}

// FitTransform fits t on X and transforms X.
func FitTransform(t FrameTransformer, X *frame.Frame, y mat.Matrix) (*mat.Dense, error) {
	if err := t.Fit(X, y); err != nil {
		return nil, err
	}
	return t.Transform(X)
}
