// Package metrics exposes Prometheus counters for the access service and
// serves them, together with a health check, over a small admin HTTP server.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

const namespace = "totpgate"

// Verification outcomes, used as the "outcome" label.
const (
	OutcomeSuccess       = "success"
	OutcomeUnknownTarget = "unknown_target"
	OutcomeSelf          = "self"
	OutcomeThrottled     = "throttled"
	OutcomeNotConfigured = "not_configured"
	OutcomeInvalidCode   = "invalid_code"
	OutcomeError         = "error"
)

// Metrics holds the collectors on a private registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry       *prometheus.Registry
	verifications  *prometheus.CounterVec
	authorizations *prometheus.CounterVec
	codesIssued    prometheus.Counter
	sessionsPurged prometheus.Counter
	grpcRequests   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Code verification attempts by outcome.",
		}, []string{"outcome"}),
		authorizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authorizations_total",
			Help:      "Access gate decisions.",
		}, []string{"decision"}),
		codesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "codes_issued_total",
			Help:      "Codes generated for targets.",
		}),
		sessionsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_purged_total",
			Help:      "Expired sessions archived and deleted by the retention job.",
		}),
		grpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "Unary gRPC requests by method and status code.",
		}, []string{"method", "code"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.verifications,
		m.authorizations,
		m.codesIssued,
		m.sessionsPurged,
		m.grpcRequests,
	)
	return m
}

func (m *Metrics) ObserveVerification(outcome string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveAuthorization(allowed bool) {
	if m == nil {
		return
	}
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	m.authorizations.WithLabelValues(decision).Inc()
}

func (m *Metrics) ObserveCodeIssued() {
	if m == nil {
		return
	}
	m.codesIssued.Inc()
}

func (m *Metrics) ObservePurged(n int) {
	if m == nil {
		return
	}
	m.sessionsPurged.Add(float64(n))
}

// UnaryServerInterceptor counts every unary call by full method and status code.
func (m *Metrics) UnaryServerInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if m != nil {
		m.grpcRequests.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
	}
	return resp, err
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
