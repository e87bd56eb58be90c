// Package metrics collects the Prometheus counters of the resizer.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "resizer"

// Options are the constant labels added to every metric.
type Options struct {
	Labels prometheus.Labels
}

func copyLabels(p prometheus.Labels) prometheus.Labels {
	x := prometheus.Labels{}
	for k, v := range p {
		x[k] = v
	}

	return x
}

// Instance holds the collectors. It implements pipeline.Tracker.
type Instance struct {
	totalRequests          *prometheus.CounterVec
	currentRequests        prometheus.Gauge
	requestDurationSeconds prometheus.Histogram

	stepDurationSeconds *prometheus.HistogramVec
	totalSteps          *prometheus.CounterVec

	totalBytesRead    prometheus.Counter
	totalBytesWritten prometheus.Counter
	totalWarnings     *prometheus.CounterVec
}

// New builds the collectors, call Register to expose them.
func New(o Options) *Instance {
	read := copyLabels(o.Labels)
	written := copyLabels(o.Labels)
	read["state"] = "read"
	written["state"] = "written"

	return &Instance{
		totalRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "total_requests",
			Help:        "The total number of image requests by status code",
			ConstLabels: copyLabels(o.Labels),
		}, []string{"status"}),
		currentRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "current_requests",
			Help:        "The current number of image requests",
			ConstLabels: copyLabels(o.Labels),
		}),
		requestDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "request_duration_seconds",
			Help:        "The seconds spent serving image requests",
			ConstLabels: copyLabels(o.Labels),
		}),
		stepDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "step_duration_seconds",
			Help:        "The seconds spent in each step",
			ConstLabels: copyLabels(o.Labels),
		}, []string{"step"}),
		totalSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "total_steps",
			Help:        "The total number of steps run by outcome",
			ConstLabels: copyLabels(o.Labels),
		}, []string{"step", "state"}),
		totalBytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "total_bytes",
			Help:        "The total number of bytes read from the sources",
			ConstLabels: read,
		}),
		totalBytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "total_bytes",
			Help:        "The total number of bytes written to the clients",
			ConstLabels: written,
		}),
		totalWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "total_warnings",
			Help:        "The total number of rejected parameters by field",
			ConstLabels: copyLabels(o.Labels),
		}, []string{"field"}),
	}
}

// Register adds the collectors to r.
func (m *Instance) Register(r prometheus.Registerer) {
	r.MustRegister(
		m.totalRequests,
		m.currentRequests,
		m.requestDurationSeconds,

		m.stepDurationSeconds,
		m.totalSteps,

		m.totalBytesRead,
		m.totalBytesWritten,
		m.totalWarnings,
	)
}

func seconds(start time.Time) float64 {
	return float64(time.Since(start)/time.Millisecond) / 1000
}

// StartRequest counts an in-flight request until the returned function
// receives the response status.
func (m *Instance) StartRequest() func(status int) {
	start := time.Now()
	m.currentRequests.Inc()

	return func(status int) {
		m.totalRequests.WithLabelValues(strconv.Itoa(status)).Inc()
		m.currentRequests.Dec()
		m.requestDurationSeconds.Observe(seconds(start))
	}
}

// StartStep times one pipeline step.
func (m *Instance) StartStep(name string) func(success bool) {
	start := time.Now()

	return func(success bool) {
		state := "successful"
		if !success {
			state = "failed"
		}
		m.totalSteps.WithLabelValues(name, state).Inc()
		m.stepDurationSeconds.WithLabelValues(name).Observe(seconds(start))
	}
}

// BytesRead counts source bytes.
func (m *Instance) BytesRead(n int) {
	m.totalBytesRead.Add(float64(n))
}

// BytesWritten counts response bytes.
func (m *Instance) BytesWritten(n int) {
	m.totalBytesWritten.Add(float64(n))
}

// Warning counts a rejected parameter.
func (m *Instance) Warning(field string) {
	m.totalWarnings.WithLabelValues(field).Inc()
}
