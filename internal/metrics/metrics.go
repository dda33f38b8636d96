// Package metrics exposes Prometheus counters for watermarking and attack
// runs. Each Metrics owns its registry, so nothing is registered globally.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors for one process or test.
type Metrics struct {
	Registry *prometheus.Registry

	Runs            *prometheus.CounterVec
	RunDuration     *prometheus.HistogramVec
	Iterations      *prometheus.CounterVec
	Verifications   *prometheus.CounterVec
	NodesDeleted    prometheus.Counter
	FieldsDeleted   prometheus.Counter
	NodesInserted   prometheus.Counter
	CarriersCreated prometheus.Counter
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gwm_runs_total",
			Help: "Watermark and attack runs by action and final state",
		}, []string{"action", "state"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gwm_run_duration_seconds",
			Help:    "Wall time of watermark and attack runs",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"action"}),
		Iterations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gwm_attack_iterations_total",
			Help: "Attack loop iterations by action",
		}, []string{"action"}),
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gwm_verifications_total",
			Help: "Verification oracle calls by outcome",
		}, []string{"outcome"}),
		NodesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gwm_nodes_deleted_total",
			Help: "Nodes removed by deletion attacks",
		}),
		FieldsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gwm_fields_deleted_total",
			Help: "Fields removed by modification attacks",
		}),
		NodesInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gwm_nodes_inserted_total",
			Help: "Noise nodes added by insertion attacks",
		}),
		CarriersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gwm_carriers_created_total",
			Help: "Watermark carrier nodes created",
		}),
	}

	m.Registry.MustRegister(
		m.Runs,
		m.RunDuration,
		m.Iterations,
		m.Verifications,
		m.NodesDeleted,
		m.FieldsDeleted,
		m.NodesInserted,
		m.CarriersCreated,
	)
	return m
}

// ObserveRun records one finished run.
func (m *Metrics) ObserveRun(action, state string, d time.Duration) {
	m.Runs.WithLabelValues(action, state).Inc()
	m.RunDuration.WithLabelValues(action).Observe(d.Seconds())
}

// ObserveVerification records one oracle outcome.
func (m *Metrics) ObserveVerification(detected bool, err error) {
	switch {
	case err != nil:
		m.Verifications.WithLabelValues("error").Inc()
	case detected:
		m.Verifications.WithLabelValues("detected").Inc()
	default:
		m.Verifications.WithLabelValues("lost").Inc()
	}
}

// WriteFile writes the registry in the text exposition format.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
