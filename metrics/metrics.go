// Package metrics exports readiness waits and attempts as Prometheus metrics.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/drblury/readywait/wait"
)

// Result label values.
const (
	ResultReady    = "ready"
	ResultFailed   = "failed"
	ResultTimeout  = "timeout"
	ResultCanceled = "canceled"
	ResultInvalid  = "invalid"
)

// Collector implements wait.Observer on top of Prometheus collectors.
type Collector struct {
	attempts        *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
	waits           *prometheus.CounterVec
	waitDuration    *prometheus.HistogramVec
	inProgress      *prometheus.GaugeVec
}

var _ wait.Observer = (*Collector)(nil)

// New registers the readywait collectors with reg. A nil reg falls back to
// prometheus.DefaultRegisterer. Registering twice on the same registerer
// panics, as with promauto.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "readywait_attempts_total",
				Help: "Readiness attempts by strategy, target and result",
			},
			[]string{"strategy", "target", "result"},
		),
		attemptDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "readywait_attempt_duration_seconds",
				Help:    "Duration of single readiness attempts",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"strategy", "target"},
		),
		waits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "readywait_waits_total",
				Help: "Finished waits by strategy, target and result",
			},
			[]string{"strategy", "target", "result"},
		),
		waitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "readywait_wait_duration_seconds",
				Help:    "Time until a wait finished",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
			[]string{"strategy", "target"},
		),
		inProgress: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "readywait_waits_in_progress",
				Help: "Waits that have started and not yet finished",
			},
			[]string{"strategy", "target"},
		),
	}
}

// WaitStarted implements wait.Observer.
func (c *Collector) WaitStarted(strategy, target string) {
	c.inProgress.WithLabelValues(strategy, target).Inc()
}

// AttemptFinished implements wait.Observer.
func (c *Collector) AttemptFinished(strategy, target string, err error, took time.Duration) {
	result := ResultReady
	if err != nil {
		result = ResultFailed
	}
	c.attempts.WithLabelValues(strategy, target, result).Inc()
	c.attemptDuration.WithLabelValues(strategy, target).Observe(took.Seconds())
}

// WaitFinished implements wait.Observer.
func (c *Collector) WaitFinished(strategy, target string, err error, took time.Duration) {
	c.inProgress.WithLabelValues(strategy, target).Dec()
	c.waits.WithLabelValues(strategy, target, Result(err)).Inc()
	c.waitDuration.WithLabelValues(strategy, target).Observe(took.Seconds())
}

// Result classifies the outcome of a wait.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultReady
	case errors.Is(err, wait.ErrTimeout):
		return ResultTimeout
	case errors.Is(err, wait.ErrCanceled):
		return ResultCanceled
	case errors.Is(err, wait.ErrInvalidConfig):
		return ResultInvalid
	default:
		return ResultFailed
	}
}
