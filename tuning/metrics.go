package tuning

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
	"github.com/YuminosukeSato/chocotune/sklearn/model_selection"
)

// SearchMetrics counts search activity on its own registry. A batch job has
// no scrape endpoint, so the registry is exported with WriteToTextfile for
// the node_exporter textfile collector.
type SearchMetrics struct {
	registry *prometheus.Registry

	evaluations *prometheus.CounterVec
	evalSeconds *prometheus.HistogramVec
	candidates  *prometheus.GaugeVec
	bestScore   *prometheus.GaugeVec
	runs        *prometheus.CounterVec
	runSeconds  *prometheus.GaugeVec
}

// NewSearchMetrics creates and registers the collectors.
func NewSearchMetrics() *SearchMetrics {
	m := &SearchMetrics{
		registry: prometheus.NewRegistry(),

		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chocotune",
			Name:      "evaluations_total",
			Help:      "Finished (candidate, fold) fits",
		}, []string{"family"}),

		evalSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chocotune",
			Name:      "evaluation_fit_seconds",
			Help:      "Fit duration of one (candidate, fold) evaluation",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"family"}),

		candidates: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "chocotune",
			Name:      "candidates",
			Help:      "Candidates scored by the last search",
		}, []string{"family"}),

		bestScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "chocotune",
			Name:      "best_score",
			Help:      "Mean test score of the rank 1 candidate",
		}, []string{"family", "scoring"}),

		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chocotune",
			Name:      "runs_total",
			Help:      "Harness runs by outcome",
		}, []string{"family", "status"}), // "ok" / "error"

		runSeconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "chocotune",
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last harness run",
		}, []string{"family"}),
	}
	m.registry.MustRegister(m.evaluations, m.evalSeconds, m.candidates, m.bestScore, m.runs, m.runSeconds)
	return m
}

// Registry exposes the underlying registry.
func (m *SearchMetrics) Registry() *prometheus.Registry { return m.registry }

// Observer returns a search observer that counts evaluations for family.
func (m *SearchMetrics) Observer(family string) func(model_selection.Evaluation) {
	evals := m.evaluations.WithLabelValues(family)
	secs := m.evalSeconds.WithLabelValues(family)
	return func(e model_selection.Evaluation) {
		evals.Inc()
		secs.Observe(e.FitTime.Seconds())
	}
}

// ObserveSearch records the outcome of a finished search.
func (m *SearchMetrics) ObserveSearch(family string, search *model_selection.RandomizedSearchCV) {
	if search.CVResults == nil {
		return
	}
	m.candidates.WithLabelValues(family).Set(float64(search.CVResults.Len()))
	m.bestScore.WithLabelValues(family, search.Scoring).Set(search.BestScore)
}

// ObserveRun counts one harness run.
func (m *SearchMetrics) ObserveRun(family string, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.runs.WithLabelValues(family, status).Inc()
	m.runSeconds.WithLabelValues(family).Set(elapsed.Seconds())
}

// WriteToTextfile writes every collected metric to path in the text
// exposition format.
func (m *SearchMetrics) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return scigoErrors.Wrapf(err, "write metrics to %s", path)
	}
	return nil
}
