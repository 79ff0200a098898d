package tuning

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/chocotune/chocolate"
	"github.com/YuminosukeSato/chocotune/core/frame"
	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
	"github.com/YuminosukeSato/chocotune/pkg/log"
	"github.com/YuminosukeSato/chocotune/sklearn/compose"
	"github.com/YuminosukeSato/chocotune/sklearn/model_selection"
	"github.com/YuminosukeSato/chocotune/sklearn/pipeline"
)

// Result describes a finished run.
type Result struct {
	RunID          string
	Family         string
	Search         *model_selection.RandomizedSearchCV
	VocabularySize int
	TunedPath      string
	CVPath         string
	PlotPath       string // empty unless the score plot was requested
	Elapsed        time.Duration
}

// Harness tunes one model family end to end.
type Harness struct {
	family   ModelFamily
	config   Config
	metrics  *SearchMetrics
	logger   log.Logger
	pipeline *pipeline.Pipeline
}

// Option configures a Harness.
type Option func(*Harness)

// WithConfig replaces the whole configuration. Options applied after it
// still override single fields.
func WithConfig(cfg Config) Option { return func(h *Harness) { h.config = cfg } }

// WithSearchIter sets the number of sampled candidates.
func WithSearchIter(n int) Option { return func(h *Harness) { h.config.SearchIter = n } }

// WithCV sets the number of folds.
func WithCV(k int) Option { return func(h *Harness) { h.config.CV = k } }

// WithScoring selects the scorer by name.
func WithScoring(name string) Option { return func(h *Harness) { h.config.Scoring = name } }

// WithRandomState seeds candidate sampling and fold shuffling.
func WithRandomState(seed uint64) Option { return func(h *Harness) { h.config.RandomState = seed } }

// WithNJobs bounds concurrent evaluations. n <= 0 uses every CPU.
func WithNJobs(n int) Option { return func(h *Harness) { h.config.NJobs = n } }

// WithTarget names the target column.
func WithTarget(column string) Option { return func(h *Harness) { h.config.Target = column } }

// WithTunedFileName overrides the search artifact name.
func WithTunedFileName(name string) Option { return func(h *Harness) { h.config.TunedFileName = name } }

// WithCVFileName overrides the results table name.
func WithCVFileName(name string) Option { return func(h *Harness) { h.config.CVFileName = name } }

// WithTextFeatureLowerBound sets the smallest searched vocabulary cap.
func WithTextFeatureLowerBound(n int) Option {
	return func(h *Harness) { h.config.TextFeatureLowerBound = n }
}

// WithScorePlot also writes a PNG of the scores next to the CSV.
func WithScorePlot(enabled bool) Option { return func(h *Harness) { h.config.ScorePlot = enabled } }

// WithMetrics records the run in m.
func WithMetrics(m *SearchMetrics) Option { return func(h *Harness) { h.metrics = m } }

// WithMetricsTextfile exports the metrics to path after every run.
func WithMetricsTextfile(path string) Option {
	return func(h *Harness) { h.config.MetricsTextfile = path }
}

// WithLogger sets the harness logger.
func WithLogger(l log.Logger) Option { return func(h *Harness) { h.logger = l } }

// NewHarness returns a harness for family with SimpleConfig defaults.
func NewHarness(family ModelFamily, opts ...Option) *Harness {
	h := &Harness{family: family, config: SimpleConfig()}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = log.GetLoggerWithName("tuning.harness")
	}
	if h.metrics == nil && h.config.MetricsTextfile != "" {
		h.metrics = NewSearchMetrics()
	}
	return h
}

// Config returns the effective configuration.
func (h *Harness) Config() Config { return h.config }

// Pipeline returns the pipeline fitted by the last discovery step, or nil.
func (h *Harness) Pipeline() *pipeline.Pipeline { return h.pipeline }

// ArtifactNames resolves the artifact file names: explicit configuration
// first, then the family's own names, then the defaults.
func (h *Harness) ArtifactNames() (tuned, cv string) {
	tuned, cv = DefaultTunedFileName, DefaultCVFileName
	if namer, ok := h.family.(ArtifactNamer); ok {
		tuned, cv = namer.ArtifactNames()
	}
	if h.config.TunedFileName != "" {
		tuned = h.config.TunedFileName
	}
	if h.config.CVFileName != "" {
		cv = h.config.CVFileName
	}
	return tuned, cv
}

// TuneAndDump runs TuneAndDumpContext with a background context.
func (h *Harness) TuneAndDump(trainPath, modelDir, cvDir string) (*Result, error) {
	return h.TuneAndDumpContext(context.Background(), trainPath, modelDir, cvDir)
}

// TuneAndDumpContext loads the training CSV, fits the family pipeline once
// to discover data-dependent bounds, runs the randomized search, and writes
// the fitted search to modelDir and the ranked results to cvDir.
//
// Missing input, a missing or non-numeric target and missing feature
// columns are reported as *errors.PreconditionError before anything is
// fitted.
func (h *Harness) TuneAndDumpContext(ctx context.Context, trainPath, modelDir, cvDir string) (res *Result, err error) {
	if h.family == nil {
		return nil, scigoErrors.NewValidationError("family", "must not be nil", nil)
	}
	start := time.Now()
	runID := uuid.NewString()
	name := h.family.Name()
	logger := h.logger.With(log.RunIDKey, runID, log.FamilyKey, name)
	defer func() {
		if h.metrics == nil {
			return
		}
		h.metrics.ObserveRun(name, time.Since(start), err)
		if h.config.MetricsTextfile == "" {
			return
		}
		if werr := h.metrics.WriteToTextfile(h.config.MetricsTextfile); werr != nil {
			if err == nil {
				err = werr
			} else {
				logger.Warn("metrics textfile not written", werr, log.PathKey, h.config.MetricsTextfile)
			}
		}
	}()

	if err := h.config.Validate(); err != nil {
		return nil, err
	}
	X, y, err := h.load(trainPath)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded training data", log.PathKey, trainPath, log.SamplesKey, X.Len(), log.ColumnsKey, X.Width())

	pipe, err := h.family.CreatePipeline()
	if err != nil {
		return nil, scigoErrors.Wrapf(err, "create %s pipeline", name)
	}
	if miss := X.Missing(pipe.RequiredColumns()...); len(miss) > 0 {
		return nil, scigoErrors.NewPreconditionError("TuneAndDump",
			fmt.Sprintf("%s: feature columns not found: %s", trainPath, strings.Join(miss, ", ")))
	}
	if err := pipe.Fit(X, y); err != nil {
		return nil, scigoErrors.Wrap(err, "discovery fit")
	}
	h.pipeline = pipe

	if b, ok := h.family.(TextFeatureBounded); ok {
		b.SetTextFeatureLowerBound(h.config.TextFeatureLowerBound)
	}
	space, err := h.family.ParamDistribution(pipe)
	if err != nil {
		return nil, scigoErrors.Wrapf(err, "%s search space", name)
	}
	vocab := 0
	if ct, ok := pipe.Preprocessor.(*compose.ColumnTransformer); ok {
		vocab, _ = chocolate.VocabularySize(ct)
	}
	logger.Info("search space ready", log.ParamsKey, space.Keys(), log.VocabularyKey, vocab)

	search := h.newSearch(pipe, space, name, logger)
	if err := search.Fit(ctx, X, y); err != nil {
		return nil, scigoErrors.Wrapf(err, "tune %s", name)
	}
	if h.metrics != nil {
		h.metrics.ObserveSearch(name, search)
	}

	tuned, cv := h.ArtifactNames()
	res = &Result{
		RunID:          runID,
		Family:         name,
		Search:         search,
		VocabularySize: vocab,
		TunedPath:      filepath.Join(dirOrDot(modelDir), tuned),
		CVPath:         filepath.Join(dirOrDot(cvDir), cv),
	}
	writer := NewArtifactWriter(logger)
	if err := writer.EnsureDir(dirOrDot(modelDir)); err != nil {
		return nil, err
	}
	if err := writer.DumpSearch(res.TunedPath, search); err != nil {
		return nil, err
	}
	if err := writer.EnsureDir(dirOrDot(cvDir)); err != nil {
		return nil, err
	}
	if err := writer.WriteCVResults(res.CVPath, search.CVResults); err != nil {
		return nil, err
	}
	if h.config.ScorePlot {
		plotPath := strings.TrimSuffix(res.CVPath, filepath.Ext(res.CVPath)) + ".png"
		err := scigoErrors.SafeExecute("WriteScorePlot", func() error {
			return WriteScorePlot(plotPath, name, search.Scoring, search.CVResults)
		})
		if err != nil {
			// the plot is optional; the model and CV table are already on disk
			logger.Warn("score plot failed", err, log.PathKey, plotPath)
		} else {
			res.PlotPath = plotPath
		}
	}
	res.Elapsed = time.Since(start)
	logger.Info("tuning finished",
		log.ScoringKey, search.Scoring,
		log.ScoreKey, search.BestScore,
		log.ParamsKey, search.BestParams,
		log.DurationMsKey, res.Elapsed.Milliseconds(),
	)
	return res, nil
}

// load reads trainPath and splits it into features and target.
func (h *Harness) load(trainPath string) (*frame.Frame, *mat.VecDense, error) {
	info, err := os.Stat(trainPath)
	switch {
	case scigoErrors.Is(err, fs.ErrNotExist):
		return nil, nil, scigoErrors.NewPreconditionError("TuneAndDump", "training file not found: "+trainPath)
	case err != nil:
		return nil, nil, scigoErrors.Wrapf(err, "stat %s", trainPath)
	case info.IsDir():
		return nil, nil, scigoErrors.NewPreconditionError("TuneAndDump", trainPath+" is a directory")
	}
	f, err := frame.ReadCSVFile(trainPath)
	if err != nil {
		return nil, nil, err
	}
	target := h.config.Target
	if !f.Has(target) {
		return nil, nil, scigoErrors.NewPreconditionError("TuneAndDump",
			fmt.Sprintf("%s: target column %q not found", trainPath, target))
	}
	y, err := f.Float(target)
	if err != nil {
		return nil, nil, scigoErrors.NewPreconditionError("TuneAndDump",
			fmt.Sprintf("%s: target column %q is not numeric: %v", trainPath, target, err))
	}
	return f.Drop(target), y, nil
}

func (h *Harness) newSearch(pipe *pipeline.Pipeline, space model_selection.ParamDistributions, name string, logger log.Logger) *model_selection.RandomizedSearchCV {
	opts := []model_selection.SearchOption{
		model_selection.WithNIter(h.config.SearchIter),
		model_selection.WithKFold(model_selection.KFold{
			NSplits:     h.config.CV,
			Shuffle:     h.config.Shuffle,
			RandomState: h.config.RandomState,
		}),
		model_selection.WithScoring(h.config.Scoring),
		model_selection.WithRandomState(h.config.RandomState),
		model_selection.WithNJobs(h.config.NJobs),
		model_selection.WithLogger(logger),
	}
	if h.metrics != nil {
		opts = append(opts, model_selection.WithObserver(h.metrics.Observer(name)))
	}
	return model_selection.NewRandomizedSearchCV(pipe, space, opts...)
}

func dirOrDot(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}
