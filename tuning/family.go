// Package tuning runs the hyperparameter search for one model family and
// writes its artifacts: the fitted search object and the ranked
// cross-validation table.
package tuning

import (
	"github.com/YuminosukeSato/chocotune/chocolate"
	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
	"github.com/YuminosukeSato/chocotune/sklearn/compose"
	"github.com/YuminosukeSato/chocotune/sklearn/model_selection"
	"github.com/YuminosukeSato/chocotune/sklearn/pipeline"
)

// ModelFamily supplies the pipeline and the search space of one estimator
// family. ParamDistribution receives the pipeline after a full fit on the
// training set so that data-dependent bounds can be read from it.
type ModelFamily interface {
	Name() string
	CreatePipeline() (*pipeline.Pipeline, error)
	ParamDistribution(fitted *pipeline.Pipeline) (model_selection.ParamDistributions, error)
}

// ArtifactNamer is implemented by families that choose their own file
// names. Families without it get DefaultTunedFileName and
// DefaultCVFileName.
type ArtifactNamer interface {
	ArtifactNames() (tuned, cv string)
}

// TextFeatureBounded is implemented by families whose vocabulary lower
// bound follows the harness configuration.
type TextFeatureBounded interface {
	SetTextFeatureLowerBound(n int)
}

// Default artifact names.
const (
	DefaultTunedFileName = "model.gob"
	DefaultCVFileName    = "cv.csv"
)

// DefaultTextFeatureLowerBound is the smallest max_features value searched.
const DefaultTextFeatureLowerBound = 100

// BaseParamDistribution returns the entries shared by every family: the
// text vocabulary cap, drawn from [lowerBound, vocab). When the fitted
// vocabulary is not larger than lowerBound the range becomes [1, vocab]
// so that small corpora still search.
func BaseParamDistribution(fitted *pipeline.Pipeline, lowerBound int) (model_selection.ParamDistributions, error) {
	if fitted == nil || !fitted.Fitted {
		return nil, scigoErrors.NewNotFittedError("Pipeline", "BaseParamDistribution")
	}
	ct, ok := fitted.Preprocessor.(*compose.ColumnTransformer)
	if !ok {
		return nil, scigoErrors.Newf("preprocessor is %T, not a ColumnTransformer", fitted.Preprocessor)
	}
	vocab, err := chocolate.VocabularySize(ct)
	if err != nil {
		return nil, err
	}
	if lowerBound < 1 {
		lowerBound = 1
	}
	low, high := lowerBound, vocab
	if vocab <= lowerBound {
		low, high = 1, vocab+1
	}
	return model_selection.ParamDistributions{
		chocolate.VocabularyPath: model_selection.RandInt{Low: low, High: high},
	}, nil
}
