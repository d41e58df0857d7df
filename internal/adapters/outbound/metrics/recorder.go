// Package metrics records validation outcomes as Prometheus metrics and
// exports them in the node-exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "aegis"

// Recorder implements domain.ValidationRecorder.
//
// Metrics:
//   - aegis_checks_total: check executions by type and outcome
//   - aegis_check_duration_seconds: check execution duration by type
//   - aegis_rules_total: rule verdicts by severity and outcome
//   - aegis_files_scanned_total: files discovered across scanned roots
type Recorder struct {
	registry *prometheus.Registry

	checksTotal   *prometheus.CounterVec
	checkDuration *prometheus.HistogramVec
	rulesTotal    *prometheus.CounterVec
	filesScanned  prometheus.Counter
}

// NewRecorder creates and registers the validation metrics with registry.
// A nil registry gets a private one.
func NewRecorder(registry *prometheus.Registry) *Recorder {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	r := &Recorder{
		registry: registry,
		checksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checks_total",
				Help:      "Total number of check executions",
			},
			[]string{"type", "outcome"},
		),
		checkDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "check_duration_seconds",
				Help:      "Duration of check execution in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs to ~26s
			},
			[]string{"type"},
		),
		rulesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rules_total",
				Help:      "Total number of rule verdicts",
			},
			[]string{"severity", "outcome"},
		),
		filesScanned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_scanned_total",
				Help:      "Total number of files discovered",
			},
		),
	}

	registry.MustRegister(r.checksTotal, r.checkDuration, r.rulesTotal, r.filesScanned)
	return r
}

func outcome(passed bool) string {
	if passed {
		return "pass"
	}
	return "fail"
}

func (r *Recorder) ObserveCheck(checkType string, passed bool, elapsed time.Duration) {
	r.checksTotal.WithLabelValues(checkType, outcome(passed)).Inc()
	r.checkDuration.WithLabelValues(checkType).Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveRule(severity string, passed bool) {
	r.rulesTotal.WithLabelValues(severity, outcome(passed)).Inc()
}

func (r *Recorder) ObserveFilesScanned(n int) {
	if n > 0 {
		r.filesScanned.Add(float64(n))
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// WriteTextfile writes every registered metric to path, atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
