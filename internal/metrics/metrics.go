// Package metrics collects and exposes Prometheus metrics for the session
// lifecycle.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector counts session lifecycle events.
type Collector struct {
	registry        *prometheus.Registry
	sessionsIssued  *prometheus.CounterVec
	sessionsRotated prometheus.Counter
	sessionsRevoked prometheus.Counter
	verifyFailures  *prometheus.CounterVec
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		sessionsIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accounts_sessions_issued_total",
			Help: "Sessions issued, labeled by whether the user was created on this login.",
		}, []string{"new_user"}),
		sessionsRotated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "accounts_sessions_rotated_total",
			Help: "Session tokens rotated by refresh.",
		}),
		sessionsRevoked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "accounts_sessions_revoked_total",
			Help: "Sessions revoked by logout or session deletion.",
		}),
		verifyFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accounts_verify_failures_total",
			Help: "Failed verification attempts, labeled by stage.",
		}, []string{"stage"}),
	}

	c.registry.MustRegister(
		c.sessionsIssued,
		c.sessionsRotated,
		c.sessionsRevoked,
		c.verifyFailures,
	)
	return c
}

func (c *Collector) SessionIssued(newUser bool) {
	label := "false"
	if newUser {
		label = "true"
	}
	c.sessionsIssued.WithLabelValues(label).Inc()
}

func (c *Collector) SessionRotated() {
	c.sessionsRotated.Inc()
}

func (c *Collector) SessionRevoked() {
	c.sessionsRevoked.Inc()
}

func (c *Collector) VerifyFailed(stage string) {
	c.verifyFailures.WithLabelValues(stage).Inc()
}

// Handler exposes the collector's registry over HTTP.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
