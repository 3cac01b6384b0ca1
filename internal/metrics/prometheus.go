// Package metrics records run statistics in Prometheus form and exports them
// as a node-exporter textfile.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sorryxx18/firefit-score-converter/internal/convert"
	"github.com/sorryxx18/firefit-score-converter/internal/standards"
)

// Recorder owns the metrics of one conversion run. Each Recorder uses its
// own registry so runs and tests never share state.
type Recorder struct {
	namespace    string
	totalBuckets []float64
	registry     *prometheus.Registry

	rows        prometheus.Counter
	unresolved  prometheus.Counter
	unknownSex  prometheus.Counter
	zeroScores  *prometheus.CounterVec
	warnings    *prometheus.CounterVec
	totals      prometheus.Histogram
	entries     prometheus.Gauge
	dropped     prometheus.Gauge
	issues      *prometheus.GaugeVec
	runDuration prometheus.Gauge
	lastSuccess prometheus.Gauge
}

// New creates a Recorder with every metric registered.
func New(opts ...Option) *Recorder {
	r := &Recorder{
		namespace:    "firefit",
		totalBuckets: prometheus.LinearBuckets(0, 50, 15),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.registry == nil {
		r.registry = prometheus.NewRegistry()
	}

	r.rows = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "rows_total",
		Help:      "Roster rows scored.",
	})
	r.unresolved = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "unresolved_brackets_total",
		Help:      "Rows whose age bracket could not be resolved.",
	})
	r.unknownSex = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "unknown_sex_total",
		Help:      "Rows whose sex matched neither label.",
	})
	r.zeroScores = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "zero_scores_total",
		Help:      "Rows scoring zero, by output column.",
	}, []string{"column"})
	r.warnings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "config_warnings_total",
		Help:      "Configuration warnings raised while laying out the roster.",
	}, []string{"kind"})
	r.totals = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Name:      "participant_total_score",
		Help:      "Distribution of participant total scores.",
		Buckets:   r.totalBuckets,
	})
	r.entries = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: r.namespace,
		Name:      "standards_entries",
		Help:      "Usable entries in the standards table.",
	})
	r.dropped = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: r.namespace,
		Name:      "standards_dropped_rows",
		Help:      "Standards rows skipped for a non-numeric threshold or score.",
	})
	r.issues = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: r.namespace,
		Name:      "standards_issues",
		Help:      "Data-quality findings in the standards table, by kind.",
	}, []string{"kind"})
	r.runDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: r.namespace,
		Name:      "run_duration_seconds",
		Help:      "Wall time of the last run.",
	})
	r.lastSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: r.namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time the last run finished successfully.",
	})

	r.registry.MustRegister(
		r.rows, r.unresolved, r.unknownSex, r.zeroScores, r.warnings,
		r.totals, r.entries, r.dropped, r.issues, r.runDuration, r.lastSuccess,
	)
	return r
}

// Registry returns the registry the Recorder writes to.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveStandards records the size of the loaded standards table and the
// findings of a standards check, if one ran.
func (r *Recorder) ObserveStandards(t *standards.Table, issues []standards.Issue) {
	r.entries.Set(float64(t.Len()))
	r.dropped.Set(float64(t.Dropped))
	for _, is := range issues {
		r.issues.WithLabelValues(string(is.Kind)).Inc()
	}
}

// ObserveRun records the outcome of a conversion.
func (r *Recorder) ObserveRun(s convert.Summary) {
	r.rows.Add(float64(s.Rows))
	r.unresolved.Add(float64(s.Unresolved))
	r.unknownSex.Add(float64(s.UnknownSex))
	for _, col := range s.ItemColumns() {
		r.zeroScores.WithLabelValues(col).Add(float64(s.ZeroScores[col]))
	}
	for _, w := range s.Warnings {
		r.warnings.WithLabelValues(string(w.Kind)).Inc()
	}
	for _, t := range s.Totals {
		r.totals.Observe(t)
	}
}

// ObserveDuration records the wall time of a finished run.
func (r *Recorder) ObserveDuration(d time.Duration, finished time.Time) {
	r.runDuration.Set(d.Seconds())
	r.lastSuccess.Set(float64(finished.Unix()))
}

// WriteTextfile writes every metric to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	return nil
}
