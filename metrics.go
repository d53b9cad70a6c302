package tokenauth

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels recorded besides the error codes of failed checks.
const (
	OutcomeSuccess   = "success"
	OutcomeAnonymous = "anonymous"
)

// Metrics records the outcome of every token check made by the Middleware.
// outcome is OutcomeSuccess, OutcomeAnonymous (no token, credentials
// optional) or the error code of the failure.
type Metrics interface {
	ObserveVerification(outcome string, duration time.Duration)
}

// NoopMetrics is a default metrics implementation that does nothing.
type NoopMetrics struct{}

func (m *NoopMetrics) ObserveVerification(outcome string, duration time.Duration) {}

// PrometheusMetrics implements the Metrics interface using Prometheus.
type PrometheusMetrics struct {
	verifications *prometheus.CounterVec
	duration      *prometheus.HistogramVec
}

// NewPrometheusMetrics registers the verification metrics with reg and
// returns a Metrics backed by them. A nil reg means
// prometheus.DefaultRegisterer.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &PrometheusMetrics{
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tokenauth",
			Name:      "verifications_total",
			Help:      "Token checks by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tokenauth",
			Name:      "verification_duration_seconds",
			Help:      "Time spent checking a token, key refreshes included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}

	if err := reg.Register(m.verifications); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		m.verifications = already.ExistingCollector.(*prometheus.CounterVec)
	}
	if err := reg.Register(m.duration); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		m.duration = already.ExistingCollector.(*prometheus.HistogramVec)
	}

	return m, nil
}

func (m *PrometheusMetrics) ObserveVerification(outcome string, duration time.Duration) {
	m.verifications.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(duration.Seconds())
}
