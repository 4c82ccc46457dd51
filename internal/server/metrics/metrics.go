// Package metrics exposes Prometheus instrumentation for the credential
// lifecycle: logins, logouts, sweep reclamation, and one-time-code traffic.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	Logins        *prometheus.CounterVec
	Logouts       prometheus.Counter
	TokensSwept   prometheus.Counter
	CodesIssued   prometheus.Counter
	CodesConsumed *prometheus.CounterVec
}

// New creates a Metrics instance backed by its own registry, so tests can
// construct isolated instances without collisions.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "genesisio_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		Logouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "genesisio_logouts_total",
			Help: "Logout requests processed.",
		}),
		TokensSwept: factory.NewCounter(prometheus.CounterOpts{
			Name: "genesisio_refresh_tokens_swept_total",
			Help: "Expired refresh tokens removed by the sweeper.",
		}),
		CodesIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "genesisio_codes_issued_total",
			Help: "One-time verification codes issued.",
		}),
		CodesConsumed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "genesisio_codes_consumed_total",
			Help: "One-time code consumption attempts by result.",
		}, []string{"result"}),
	}
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
