// Package metrics exports filter progress as Prometheus metrics.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sartorproj/gokalman/kalman"
)

const namespace = "gokalman"

// Recorder is a kalman.Progress that counts runs, timesteps, failures and
// diagonal increments per operation. It is safe for concurrent runs of
// different operations; concurrent runs of the same operation share one
// start time.
type Recorder struct {
	runs     *prometheus.CounterVec
	steps    *prometheus.CounterVec
	failures *prometheus.CounterVec
	retries  *prometheus.CounterVec
	duration *prometheus.HistogramVec

	mu     sync.Mutex
	starts map[kalman.Op]time.Time
}

var (
	_ kalman.Progress      = (*Recorder)(nil)
	_ kalman.RetryObserver = (*Recorder)(nil)
)

// NewRecorder creates a recorder and registers its collectors with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Filter runs started, by operation",
		}, []string{"op"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Timesteps produced, by operation",
		}, []string{"op"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Filter runs that returned an error, by operation",
		}, []string{"op"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagonal_retries_total",
			Help:      "Diagonal increments needed to factorize sampling covariances",
		}, []string{"op"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Filter run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"op"}),
		starts: map[kalman.Op]time.Time{},
	}
	for _, c := range []prometheus.Collector{r.runs, r.steps, r.failures, r.retries, r.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Begin counts a run and notes its start time.
func (r *Recorder) Begin(op kalman.Op, _ int) {
	r.runs.WithLabelValues(string(op)).Inc()
	r.mu.Lock()
	r.starts[op] = time.Now()
	r.mu.Unlock()
}

// Step counts one produced timestep.
func (r *Recorder) Step(op kalman.Op, _ int) {
	r.steps.WithLabelValues(string(op)).Inc()
}

// End records the run duration and counts failures.
func (r *Recorder) End(op kalman.Op, err error) {
	if err != nil {
		r.failures.WithLabelValues(string(op)).Inc()
	}
	r.mu.Lock()
	start, ok := r.starts[op]
	delete(r.starts, op)
	r.mu.Unlock()
	if ok {
		r.duration.WithLabelValues(string(op)).Observe(time.Since(start).Seconds())
	}
}

// DiagonalRetries adds the increments a simulation needed.
func (r *Recorder) DiagonalRetries(op kalman.Op, n int) {
	r.retries.WithLabelValues(string(op)).Add(float64(n))
}
