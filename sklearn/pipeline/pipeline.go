// Package pipeline chains a frame preprocessor with a regressor.
package pipeline

import (
	"encoding/gob"
	"reflect"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/chocotune/core/frame"
	"github.com/YuminosukeSato/chocotune/core/model"
	"github.com/YuminosukeSato/chocotune/metrics"
	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
)

func init() {
	gob.Register(&Pipeline{})
}

// Pipeline fits the preprocessor, then the estimator on its output.
// Parameters are addressed as "<step>__<param>" where step is
// PreprocessorName or EstimatorName.
type Pipeline struct {
	PreprocessorName string
	Preprocessor     model.FrameTransformer
	EstimatorName    string
	Estimator        model.Regressor

	Fitted bool
}

// StepName returns the lowercased type name scikit-learn's make_pipeline
// would use ("Ridge" -> "ridge").
func StepName(step interface{}) string {
	t := reflect.TypeOf(step)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	name := t.Name()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}

// MakePipeline names the steps after their types.
func MakePipeline(pre model.FrameTransformer, est model.Regressor) *Pipeline {
	return &Pipeline{
		PreprocessorName: StepName(pre),
		Preprocessor:     pre,
		EstimatorName:    StepName(est),
		Estimator:        est,
	}
}

// Fit fits the whole pipeline.
func (p *Pipeline) Fit(X *frame.Frame, y mat.Vector) error {
	p.Fitted = false
	if X.Len() != y.Len() {
		return scigoErrors.NewDimensionError("Pipeline.Fit", X.Len(), y.Len(), 0)
	}
	Xt, err := model.FitTransform(p.Preprocessor, X, asColumn(y))
	if err != nil {
		return scigoErrors.Wrapf(err, "step %q", p.PreprocessorName)
	}
	if err := p.Estimator.Fit(Xt, asColumn(y)); err != nil {
		return scigoErrors.Wrapf(err, "step %q", p.EstimatorName)
	}
	p.Fitted = true
	return nil
}

// Transform applies the fitted preprocessor only.
func (p *Pipeline) Transform(X *frame.Frame) (*mat.Dense, error) {
	if !p.Fitted {
		return nil, scigoErrors.NewNotFittedError("Pipeline", "Transform")
	}
	return p.Preprocessor.Transform(X)
}

// Predict returns one prediction per row of X.
func (p *Pipeline) Predict(X *frame.Frame) (*mat.VecDense, error) {
	Xt, err := p.Transform(X)
	if err != nil {
		return nil, err
	}
	pred, err := p.Estimator.Predict(Xt)
	if err != nil {
		return nil, scigoErrors.Wrapf(err, "step %q", p.EstimatorName)
	}
	r, _ := pred.Dims()
	out := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		out.SetVec(i, pred.At(i, 0))
	}
	return out, nil
}

// Score returns R² of the predictions on X.
func (p *Pipeline) Score(X *frame.Frame, y mat.Vector) (float64, error) {
	pred, err := p.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(y, pred)
}

// GetParams returns all step parameters as "<step>__<param>".
func (p *Pipeline) GetParams() map[string]interface{} {
	params := make(map[string]interface{})
	if g, ok := p.Preprocessor.(model.ParameterGetter); ok {
		for k, v := range g.GetParams() {
			params[p.PreprocessorName+"__"+k] = v
		}
	}
	for k, v := range p.Estimator.GetParams() {
		params[p.EstimatorName+"__"+k] = v
	}
	return params
}

// SetParams routes each "<step>__<param>" to its step.
func (p *Pipeline) SetParams(params map[string]interface{}) error {
	pre := make(map[string]interface{})
	est := make(map[string]interface{})
	for key, v := range params {
		step, rest, ok := model.SplitParam(key)
		switch {
		case !ok:
			return model.UnknownParam("Pipeline", key)
		case step == p.PreprocessorName:
			pre[rest] = v
		case step == p.EstimatorName:
			est[rest] = v
		default:
			return scigoErrors.NewValidationError(key, "no such pipeline step "+step, v)
		}
	}
	if len(pre) > 0 {
		s, ok := p.Preprocessor.(model.ParameterSetter)
		if !ok {
			return scigoErrors.NewValidationError(p.PreprocessorName, "step has no tunable parameters", pre)
		}
		if err := s.SetParams(pre); err != nil {
			return err
		}
	}
	if len(est) > 0 {
		if err := p.Estimator.SetParams(est); err != nil {
			return err
		}
	}
	p.Fitted = false
	return nil
}

// RequiredColumns lists the input columns the preprocessor reads.
func (p *Pipeline) RequiredColumns() []string {
	if rc, ok := p.Preprocessor.(interface{ RequiredColumns() []string }); ok {
		return rc.RequiredColumns()
	}
	return nil
}

func asColumn(y mat.Vector) mat.Matrix {
	if m, ok := y.(mat.Matrix); ok {
		return m
	}
	out := mat.NewDense(y.Len(), 1, nil)
	for i := 0; i < y.Len(); i++ {
		out.Set(i, 0, y.AtVec(i))
	}
	return out
}
