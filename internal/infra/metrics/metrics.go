// Package metrics exposes prometheus collectors for provisioning outcomes and
// deployment platform traffic. A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "provisioner"

const (
	OutcomeActive              = "active"
	OutcomeFailed              = "failed"
	OutcomeConflict            = "conflict"
	OutcomeInvalid             = "invalid"
	OutcomeVerificationTimeout = "verification_timeout"
)

type Metrics struct {
	provisions       *prometheus.CounterVec
	duration         prometheus.Histogram
	platformRequests *prometheus.CounterVec
	cancellations    *prometheus.CounterVec
	reconciled       *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		provisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provisions_total",
			Help:      "Create attempts by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provision_duration_seconds",
			Help:      "Wall time of Create attempts that reached the platform.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
		}),
		platformRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "platform_requests_total",
			Help:      "Deployment platform API calls by operation and HTTP status (0 for transport errors).",
		}, []string{"op", "code"}),
		cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cancellations_total",
			Help:      "Cancelled provisions by platform cleanup result.",
		}, []string{"cleanup"}),
		reconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciled_total",
			Help:      "Stale provisions resolved by the reconciler, by resulting status.",
		}, []string{"status"}),
	}
	reg.MustRegister(m.provisions, m.duration, m.platformRequests, m.cancellations, m.reconciled)
	return m
}

func (m *Metrics) ObserveProvision(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.provisions.WithLabelValues(outcome).Inc()
	if outcome == OutcomeActive || outcome == OutcomeFailed || outcome == OutcomeVerificationTimeout {
		m.duration.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) ObservePlatformRequest(op string, code int) {
	if m == nil {
		return
	}
	m.platformRequests.WithLabelValues(op, strconv.Itoa(code)).Inc()
}

func (m *Metrics) ObserveCancellation(cleanup string) {
	if m == nil {
		return
	}
	m.cancellations.WithLabelValues(cleanup).Inc()
}

func (m *Metrics) ObserveReconciled(status string) {
	if m == nil {
		return
	}
	m.reconciled.WithLabelValues(status).Inc()
}
