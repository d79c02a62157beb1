package metric

import (
	"io"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Namespace prefixes every metric name.
const Namespace = "adminctl"

// Login results recorded by LoginsTotal.
const (
	LoginSuccess   = "success"
	LoginFailure   = "failure"
	LoginThrottled = "throttled"
)

// Registry holds all application metrics.
type Registry struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Auth metrics
	LoginsTotal       *prometheus.CounterVec
	TerminationsTotal prometheus.Counter

	// Session metrics
	SessionActive prometheus.Gauge
}

// NewRegistry creates the metrics and registers them with reg.
// A nil reg yields unregistered metrics, useful when metrics are not wanted.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of outgoing requests by method and status code",
		}, []string{"method", "code"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Outgoing request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		LoginsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Total number of login attempts by result",
		}, []string{"result"}),

		TerminationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "auth",
			Name:      "terminations_total",
			Help:      "Total number of sessions terminated after an authentication failure",
		}),

		SessionActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "1 while a session is held, 0 otherwise",
		}),
	}
}

// ObserveRequest records one completed call. code 0 means a transport failure.
func (r *Registry) ObserveRequest(method string, code int, elapsed time.Duration) {
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	r.RequestsTotal.WithLabelValues(method, label).Inc()
	r.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// SetSessionActive updates the session gauge.
func (r *Registry) SetSessionActive(active bool) {
	if active {
		r.SessionActive.Set(1)
		return
	}
	r.SessionActive.Set(0)
}

// Dump writes every metric family of g in the Prometheus text format.
func Dump(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
