// Package metrics records run statistics for node_exporter's textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder owns its registry so a one-shot run can write exactly its own series.
type Recorder struct {
	Registry *prometheus.Registry

	RunDuration *prometheus.HistogramVec
	Bodies      prometheus.Gauge
	Aspects     prometheus.Gauge
	HousesCast  prometheus.Gauge
	Failures    *prometheus.CounterVec
	LastSuccess prometheus.Gauge
}

// NewRecorder registers the almanac series on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		Registry: reg,
		RunDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "almanac_run_seconds",
			Help:    "Time spent computing and saving one snapshot.",
			Buckets: prometheus.DefBuckets,
		}, []string{"step"}),
		Bodies: f.NewGauge(prometheus.GaugeOpts{
			Name: "almanac_bodies",
			Help: "Bodies resolved in the last snapshot.",
		}),
		Aspects: f.NewGauge(prometheus.GaugeOpts{
			Name: "almanac_aspects",
			Help: "Aspects found in the last snapshot.",
		}),
		HousesCast: f.NewGauge(prometheus.GaugeOpts{
			Name: "almanac_houses_cast",
			Help: "1 when the last snapshot carried house cusps.",
		}),
		Failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "almanac_failures_total",
			Help: "Failed steps by name.",
		}, []string{"step"}),
		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "almanac_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run.",
		}),
	}
}

// ObserveStep times fn under step and counts it as a failure when it errors.
func (r *Recorder) ObserveStep(step string, fn func() error) error {
	start := time.Now()
	err := fn()
	r.RunDuration.WithLabelValues(step).Observe(time.Since(start).Seconds())
	if err != nil {
		r.Failures.WithLabelValues(step).Inc()
	}
	return err
}

// Fail counts a failure that happened outside ObserveStep.
func (r *Recorder) Fail(step string) {
	r.Failures.WithLabelValues(step).Inc()
}

// Success records the outcome of a finished run.
func (r *Recorder) Success(bodies, aspects int, houses bool, at time.Time) {
	r.Bodies.Set(float64(bodies))
	r.Aspects.Set(float64(aspects))
	if houses {
		r.HousesCast.Set(1)
	} else {
		r.HousesCast.Set(0)
	}
	r.LastSuccess.Set(float64(at.Unix()))
}

// WriteTextfile writes every series in the text exposition format. The file is
// replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.Registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
