package tuning

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/chocotune/chocolate"
	"github.com/YuminosukeSato/chocotune/metrics"
	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
)

// DefaultRandomState seeds candidate sampling in both presets.
const DefaultRandomState = 522

// Config holds the search settings of a harness run.
type Config struct {
	SearchIter  int    `yaml:"search_iter"`
	CV          int    `yaml:"cv"`
	Shuffle     bool   `yaml:"shuffle"`
	Scoring     string `yaml:"scoring"`
	RandomState uint64 `yaml:"random_state"`
	NJobs       int    `yaml:"n_jobs"`
	Target      string `yaml:"target"`

	// Empty file names fall back to the family's ArtifactNames, then to
	// DefaultTunedFileName and DefaultCVFileName.
	TunedFileName string `yaml:"tuned_file_name"`
	CVFileName    string `yaml:"cv_file_name"`

	TextFeatureLowerBound int    `yaml:"text_feature_lower_bound"`
	ScorePlot             bool   `yaml:"score_plot"`
	MetricsTextfile       string `yaml:"metrics_textfile"`
}

// SimpleConfig is the quick preset: 20 candidates scored by R².
func SimpleConfig() Config {
	return Config{
		SearchIter:            20,
		CV:                    5,
		Scoring:               metrics.DefaultScoring,
		RandomState:           DefaultRandomState,
		NJobs:                 -1,
		Target:                chocolate.Target,
		TextFeatureLowerBound: DefaultTextFeatureLowerBound,
	}
}

// ExtendedConfig is the thorough preset: 200 candidates scored by negated
// mean absolute percentage error.
func ExtendedConfig() Config {
	c := SimpleConfig()
	c.SearchIter = 200
	c.Scoring = "neg_mean_absolute_percentage_error"
	return c
}

// Validate checks the settings before any data is read.
func (c Config) Validate() error {
	if c.SearchIter < 1 {
		return scigoErrors.NewValidationError("search_iter", "must be at least 1", c.SearchIter)
	}
	if c.CV < 2 {
		return scigoErrors.NewValidationError("cv", "must be at least 2", c.CV)
	}
	if _, err := metrics.GetScorer(c.Scoring); err != nil {
		return err
	}
	if c.Target == "" {
		return scigoErrors.NewValidationError("target", "must not be empty", c.Target)
	}
	if c.TextFeatureLowerBound < 1 {
		return scigoErrors.NewValidationError("text_feature_lower_bound", "must be at least 1", c.TextFeatureLowerBound)
	}
	return nil
}

// LoadConfig reads a YAML file. A "preset" key of "simple" (the default) or
// "extended" picks the starting values; every other key overrides them.
//
//	preset: extended
//	n_jobs: 4
//	score_plot: true
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, scigoErrors.Wrapf(err, "read config %s", path)
	}
	var head struct {
		Preset string `yaml:"preset"`
	}
	if err := yaml.Unmarshal(raw, &head); err != nil {
		return Config{}, scigoErrors.Wrapf(err, "parse config %s", path)
	}
	var cfg Config
	switch head.Preset {
	case "", "simple":
		cfg = SimpleConfig()
	case "extended":
		cfg = ExtendedConfig()
	default:
		return Config{}, scigoErrors.NewValidationError("preset", "must be simple or extended", head.Preset)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, scigoErrors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, scigoErrors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}
