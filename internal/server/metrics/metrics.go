// Package metrics holds the prometheus counters shared by the HTTP and
// gRPC transports.
package metrics

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/interviewkit/internal/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry   *prometheus.Registry
	logins     *prometheus.CounterVec
	refreshes  *prometheus.CounterVec
	signups    *prometheus.CounterVec
	rejections *prometheus.CounterVec
}

// New registers the auth counters plus the Go and process collectors on a
// private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_refresh_total",
			Help: "Token refresh attempts by result.",
		}, []string{"result"}),
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_signup_total",
			Help: "Signup attempts by result.",
		}, []string{"result"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_rejections_total",
			Help: "Requests to protected operations rejected by the guard, by reason.",
		}, []string{"reason"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.logins, m.refreshes, m.signups, m.rejections,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveLogin(err error)   { m.logins.WithLabelValues(Result(err)).Inc() }
func (m *Metrics) ObserveRefresh(err error) { m.refreshes.WithLabelValues(Result(err)).Inc() }
func (m *Metrics) ObserveSignup(err error)  { m.signups.WithLabelValues(Result(err)).Inc() }

// ObserveRejection counts a guard failure. nil is ignored.
func (m *Metrics) ObserveRejection(err error) {
	if err == nil {
		return
	}
	m.rejections.WithLabelValues(Result(err)).Inc()
}

// Result turns an error from the auth services into a low-cardinality label.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, common.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, common.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, common.ErrPrincipalNotFound):
		return "principal_not_found"
	case errors.Is(err, common.ErrDuplicateIdentifier):
		return "duplicate_identifier"
	case errors.Is(err, common.ErrInvalidIdentifier):
		return "invalid_identifier"
	case errors.Is(err, common.ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}
