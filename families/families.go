// Package families holds the model families the harness can tune. Each
// family registers itself by name from its own file.
package families

import (
	"sort"
	"strings"
	"sync"

	"github.com/YuminosukeSato/chocotune/chocolate"
	"github.com/YuminosukeSato/chocotune/core/model"
	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
	"github.com/YuminosukeSato/chocotune/preprocessing"
	"github.com/YuminosukeSato/chocotune/sklearn/model_selection"
	"github.com/YuminosukeSato/chocotune/sklearn/pipeline"
	"github.com/YuminosukeSato/chocotune/tuning"
)

// Options shared by every family.
type settings struct {
	variant    chocolate.Variant
	policy     preprocessing.UnknownPolicy
	seed       uint64
	lowerBound int
}

func defaultSettings() settings {
	return settings{
		variant:    chocolate.VariantStandard,
		policy:     preprocessing.DefaultUnknownPolicy(),
		seed:       tuning.DefaultRandomState,
		lowerBound: tuning.DefaultTextFeatureLowerBound,
	}
}

// Option configures a family.
type Option func(*settings)

// WithVariant selects the preprocessor variant.
func WithVariant(v chocolate.Variant) Option { return func(s *settings) { s.variant = v } }

// WithUnknownPolicy sets how encoders treat values unseen at fit.
func WithUnknownPolicy(p preprocessing.UnknownPolicy) Option {
	return func(s *settings) { s.policy = p }
}

// WithSeed seeds randomized estimators.
func WithSeed(seed uint64) Option { return func(s *settings) { s.seed = seed } }

// WithTextFeatureLowerBound sets the smallest searched vocabulary cap.
func WithTextFeatureLowerBound(n int) Option { return func(s *settings) { s.lowerBound = n } }

// Constructor builds a family.
type Constructor func(opts ...Option) tuning.ModelFamily

var (
	mu       sync.RWMutex
	registry = map[string]Constructor{}
)

// Register adds a family under name. It panics on a duplicate name, which
// can only come from two files claiming the same family.
func Register(name string, c Constructor) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := registry[name]; dup {
		panic("families: duplicate family " + name)
	}
	registry[name] = c
}

// Lookup builds the named family.
func Lookup(name string, opts ...Option) (tuning.ModelFamily, error) {
	mu.RLock()
	c, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, scigoErrors.NewValidationError("family", "unknown family; valid names are "+strings.Join(Names(), ", "), name)
	}
	return c(opts...), nil
}

// Names lists the registered families in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// family implements the plumbing shared by every estimator: the chocolate
// preprocessor in front, file names derived from the family name, and the
// vocabulary cap merged under the family's own entries.
type family struct {
	settings
	name      string
	estimator func(settings) model.Regressor
	space     func(settings) model_selection.ParamDistributions
}

func newFamily(name string, opts []Option,
	estimator func(settings) model.Regressor,
	space func(settings) model_selection.ParamDistributions,
) *family {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return &family{settings: s, name: name, estimator: estimator, space: space}
}

func (f *family) Name() string { return f.name }

func (f *family) ArtifactNames() (tuned, cv string) {
	return "tuned_" + f.name + ".gob", "cv_results_" + f.name + ".csv"
}

func (f *family) SetTextFeatureLowerBound(n int) { f.lowerBound = n }

func (f *family) CreatePipeline() (*pipeline.Pipeline, error) {
	pre, err := chocolate.NewPreprocessor(f.variant, f.policy)
	if err != nil {
		return nil, err
	}
	return pipeline.MakePipeline(pre, f.estimator(f.settings)), nil
}

func (f *family) ParamDistribution(fitted *pipeline.Pipeline) (model_selection.ParamDistributions, error) {
	base, err := tuning.BaseParamDistribution(fitted, f.lowerBound)
	if err != nil {
		return nil, err
	}
	return model_selection.MergeDistributions(base, f.space(f.settings)), nil
}
