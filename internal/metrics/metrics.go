// Package metrics holds the Prometheus collectors for the auth subsystem.
// Collectors are registered on a caller-supplied registry, never the global
// one, so tests can run engines side by side without collisions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Auth counts the observable outcomes of the auth subsystem. Label values are
// the stable wire codes for failures and "ok" for successes.
type Auth struct {
	registry *prometheus.Registry

	Logins    *prometheus.CounterVec
	Refreshes *prometheus.CounterVec
	Rejects   *prometheus.CounterVec
}

// NewAuth builds the collectors and registers them on reg. A nil reg gets a
// fresh private registry.
func NewAuth(reg *prometheus.Registry) *Auth {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	a := &Auth{
		registry: reg,
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "todoboard",
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "todoboard",
			Subsystem: "auth",
			Name:      "refresh_total",
			Help:      "Refresh rotation attempts by result.",
		}, []string{"result"}),
		Rejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "todoboard",
			Subsystem: "auth",
			Name:      "guard_rejects_total",
			Help:      "Access guard rejections by error code.",
		}, []string{"code"}),
	}

	reg.MustRegister(a.Logins, a.Refreshes, a.Rejects)
	return a
}

// Handler serves the registry in Prometheus exposition format.
func (a *Auth) Handler() http.Handler {
	return promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})
}
