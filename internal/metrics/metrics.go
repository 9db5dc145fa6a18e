// Package metrics counts bootstrap step outcomes and durations for the
// node-exporter textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"teleop/internal/bootstrap"
	"teleop/internal/install"
)

// Collector observes bootstrap runs. It owns a private registry so nothing
// leaks into the process-wide default.
type Collector struct {
	bootstrap.NopObserver

	registry *prometheus.Registry
	steps    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	lastRun  *prometheus.GaugeVec
	now      func() time.Time
}

// New returns a collector with its metrics registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "teleop_bootstrap_steps_total",
				Help: "Bootstrap steps by terminal status.",
			},
			[]string{"step", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "teleop_bootstrap_step_duration_seconds",
				Help:    "Wall time of bootstrap steps.",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
			},
			[]string{"step"},
		),
		lastRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "teleop_bootstrap_last_run_timestamp_seconds",
				Help: "Unix time of the last finished run per mode.",
			},
			[]string{"mode"},
		),
		now: time.Now,
	}
	c.registry.MustRegister(c.steps, c.duration, c.lastRun)
	return c
}

func (c *Collector) StepFinished(out install.Outcome, elapsed time.Duration) {
	c.steps.WithLabelValues(out.Step, string(out.Status)).Inc()
	c.duration.WithLabelValues(out.Step).Observe(elapsed.Seconds())
}

func (c *Collector) RunFinished(r bootstrap.Report) {
	c.lastRun.WithLabelValues(string(r.Mode)).Set(float64(c.now().Unix()))
}

// WriteTextfile writes the current values to path in the text exposition
// format. An empty path is a no-op.
func (c *Collector) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("prepare metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
