// Package metrics holds the prometheus collectors of the risk engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is safe to use through a nil pointer; every method is then a
// no-op.
type Metrics struct {
	runs     *prometheus.CounterVec
	dropped  *prometheus.CounterVec
	samples  prometheus.Counter
	duration *prometheus.HistogramVec
	throttle prometheus.Gauge
}

// New creates the collectors and registers them on reg when it is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sliprisk_runs_total",
				Help: "Engine runs by operation",
			},
			[]string{"op"},
		),
		dropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sliprisk_slips_dropped_total",
				Help: "Slips skipped because of invalid input, by violation code",
			},
			[]string{"reason"},
		),
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sliprisk_samples_total",
			Help: "Monte Carlo paths drawn",
		}),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sliprisk_run_duration_seconds",
				Help:    "Wall time of engine runs",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		throttle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sliprisk_throttle_factor",
			Help: "Spray throttle factor of the last stress run",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.runs, m.dropped, m.samples, m.duration, m.throttle)
	}
	return m
}

// ObserveRun counts a finished run and records its duration.
func (m *Metrics) ObserveRun(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(op).Inc()
	m.duration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) Drop(reason string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) AddSamples(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.samples.Add(float64(n))
}

func (m *Metrics) SetThrottle(f float64) {
	if m == nil {
		return
	}
	m.throttle.Set(f)
}
