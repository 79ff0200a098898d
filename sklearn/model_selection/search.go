// Package model_selection implements randomized hyperparameter search with
// k-fold cross-validation over frame pipelines.
package model_selection

import (
	"context"
	"encoding/gob"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/chocotune/core/frame"
	"github.com/YuminosukeSato/chocotune/core/model"
	"github.com/YuminosukeSato/chocotune/core/parallel"
	"github.com/YuminosukeSato/chocotune/metrics"
	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
	"github.com/YuminosukeSato/chocotune/pkg/log"
	"github.com/YuminosukeSato/chocotune/sklearn/pipeline"
)

func init() {
	gob.Register(&RandomizedSearchCV{})
	gob.Register(RandInt{})
	gob.Register(Uniform{})
	gob.Register(LogUniform{})
	gob.Register(Choice{})
}

// Evaluation reports one finished (candidate, fold) fit to an observer.
type Evaluation struct {
	Candidate  int
	Fold       int
	Params     map[string]interface{}
	TestScore  float64
	TrainScore float64
	FitTime    time.Duration
}

// RandomizedSearchCV samples NIter settings from ParamDistributions and
// scores each with CV-fold cross-validation. With Refit the best setting is
// refitted on all rows into BestEstimator.
type RandomizedSearchCV struct {
	Estimator          *pipeline.Pipeline
	ParamDistributions ParamDistributions
	NIter              int
	CV                 KFold
	Scoring            string
	RandomState        uint64
	NJobs              int
	Refit              bool

	CVResults     *CVResults
	BestIndex     int
	BestParams    map[string]interface{}
	BestScore     float64
	BestEstimator *pipeline.Pipeline
	RefitTime     float64 // seconds

	observer func(Evaluation)
	logger   log.Logger
}

// SearchOption configures a RandomizedSearchCV.
type SearchOption func(*RandomizedSearchCV)

// WithNIter sets the number of sampled candidates.
func WithNIter(n int) SearchOption { return func(s *RandomizedSearchCV) { s.NIter = n } }

// WithCV sets the number of unshuffled folds.
func WithCV(k int) SearchOption { return func(s *RandomizedSearchCV) { s.CV = NewKFold(k) } }

// WithKFold sets the fold splitter.
func WithKFold(k KFold) SearchOption { return func(s *RandomizedSearchCV) { s.CV = k } }

// WithScoring selects a scorer by name.
func WithScoring(name string) SearchOption { return func(s *RandomizedSearchCV) { s.Scoring = name } }

// WithRandomState seeds candidate sampling.
func WithRandomState(seed uint64) SearchOption {
	return func(s *RandomizedSearchCV) { s.RandomState = seed }
}

// WithNJobs bounds concurrent evaluations. n <= 0 uses every CPU.
func WithNJobs(n int) SearchOption { return func(s *RandomizedSearchCV) { s.NJobs = n } }

// WithRefit toggles the final refit.
func WithRefit(refit bool) SearchOption { return func(s *RandomizedSearchCV) { s.Refit = refit } }

// WithObserver registers a callback invoked after every evaluation. It may
// be called from several goroutines at once.
func WithObserver(fn func(Evaluation)) SearchOption {
	return func(s *RandomizedSearchCV) { s.observer = fn }
}

// WithLogger sets the search logger.
func WithLogger(l log.Logger) SearchOption { return func(s *RandomizedSearchCV) { s.logger = l } }

// NewRandomizedSearchCV returns a search with scikit-learn defaults:
// 10 candidates, 5 unshuffled folds, R² scoring and refit.
func NewRandomizedSearchCV(est *pipeline.Pipeline, space ParamDistributions, opts ...SearchOption) *RandomizedSearchCV {
	s := &RandomizedSearchCV{
		Estimator:          est,
		ParamDistributions: space,
		NIter:              10,
		CV:                 NewKFold(5),
		Scoring:            metrics.DefaultScoring,
		NJobs:              1,
		Refit:              true,
		BestIndex:          -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RandomizedSearchCV) log() log.Logger {
	if s.logger == nil {
		s.logger = log.GetLoggerWithName("model_selection")
	}
	return s.logger
}

// Fit runs the search. Evaluations run concurrently on clones of Estimator;
// the first failure stops scheduling and is returned with its candidate and
// fold.
func (s *RandomizedSearchCV) Fit(ctx context.Context, X *frame.Frame, y mat.Vector) error {
	if s.Estimator == nil {
		return scigoErrors.NewValidationError("estimator", "must not be nil", nil)
	}
	if X.Len() != y.Len() {
		return scigoErrors.NewDimensionError("RandomizedSearchCV.Fit", X.Len(), y.Len(), 0)
	}
	if s.NIter < 1 {
		return scigoErrors.NewValidationError("n_iter", "must be positive", s.NIter)
	}
	scorer, err := metrics.GetScorer(s.Scoring)
	if err != nil {
		return err
	}
	candidates, err := ParameterSampler{Space: s.ParamDistributions, NIter: s.NIter, RandomState: s.RandomState}.Sample()
	if err != nil {
		return scigoErrors.Wrap(err, "sampling candidates")
	}
	splits, err := s.CV.Split(X.Len())
	if err != nil {
		return err
	}

	nFolds := len(splits)
	evals := make([][]evaluation, len(candidates))
	for c := range evals {
		evals[c] = make([]evaluation, nFolds)
	}
	logger := s.log()
	logger.Info("search started",
		log.OperationKey, log.OperationSearch,
		log.CandidatesKey, len(candidates),
		log.FoldsKey, nFolds,
		log.ScoringKey, scorer.Name,
		log.WorkersKey, parallel.Workers(s.NJobs, len(candidates)*nFolds),
		log.RandomSeedKey, s.RandomState,
	)

	fold := func(rows []int) (*frame.Frame, *mat.VecDense) {
		sub := mat.NewVecDense(len(rows), nil)
		for i, r := range rows {
			sub.SetVec(i, y.AtVec(r))
		}
		return X.Take(rows), sub
	}

	err = parallel.ForEach(ctx, len(candidates)*nFolds, s.NJobs, func(_ context.Context, task int) (err error) {
		c, f := task/nFolds, task%nFolds
		defer func() {
			if err != nil {
				err = scigoErrors.NewModelError("RandomizedSearchCV.Fit",
					"candidate evaluation failed", scigoErrors.Wrapf(err, "candidate %d fold %d %v", c, f, candidates[c]))
			}
		}()
		defer scigoErrors.Recover(&err, "RandomizedSearchCV.Fit")

		est, err := model.Clone(s.Estimator)
		if err != nil {
			return err
		}
		if err := est.SetParams(candidates[c]); err != nil {
			return err
		}
		Xtr, ytr := fold(splits[f].Train)
		Xte, yte := fold(splits[f].Test)

		start := time.Now()
		if err := est.Fit(Xtr, ytr); err != nil {
			return err
		}
		fitTime := time.Since(start)

		start = time.Now()
		test, err := score(est, scorer, Xte, yte)
		if err != nil {
			return err
		}
		scoreTime := time.Since(start)
		train, err := score(est, scorer, Xtr, ytr)
		if err != nil {
			return err
		}
		evals[c][f] = evaluation{test: test, train: train, fitTime: fitTime, scoreDur: scoreTime}

		logger.Debug("candidate fold scored",
			log.CandidateKey, c, log.FoldKey, f, log.ScoreKey, test,
			log.DurationMsKey, fitTime.Milliseconds())
		if s.observer != nil {
			s.observer(Evaluation{Candidate: c, Fold: f, Params: candidates[c], TestScore: test, TrainScore: train, FitTime: fitTime})
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.CVResults = newCVResults(s.ParamDistributions.Keys(), candidates, evals)
	s.BestIndex = s.CVResults.Best()
	s.BestParams = candidates[s.BestIndex]
	s.BestScore = s.CVResults.MeanTestScore[s.BestIndex]
	logger.Info("search finished",
		log.CandidateKey, s.BestIndex,
		log.ScoreKey, s.BestScore,
		log.ParamsKey, s.BestParams,
	)

	if !s.Refit {
		return nil
	}
	best, err := model.Clone(s.Estimator)
	if err != nil {
		return err
	}
	if err := best.SetParams(s.BestParams); err != nil {
		return err
	}
	start := time.Now()
	if err := best.Fit(X, y); err != nil {
		return scigoErrors.Wrap(err, "refit best candidate")
	}
	s.RefitTime = time.Since(start).Seconds()
	s.BestEstimator = best
	logger.Info("refit finished", log.PhaseKey, log.PhaseRefit, log.DurationMsKey, time.Since(start).Milliseconds())
	return nil
}

func score(p *pipeline.Pipeline, scorer metrics.Scorer, X *frame.Frame, y mat.Vector) (float64, error) {
	pred, err := p.Predict(X)
	if err != nil {
		return 0, err
	}
	return scorer.Score(y, pred)
}

// Predict forwards to BestEstimator.
func (s *RandomizedSearchCV) Predict(X *frame.Frame) (*mat.VecDense, error) {
	if s.BestEstimator == nil {
		return nil, scigoErrors.NewNotFittedError("RandomizedSearchCV", "Predict")
	}
	return s.BestEstimator.Predict(X)
}
