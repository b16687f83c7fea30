// Package metrics exposes authentication counters to Prometheus.
//
// A nil *Recorder is valid and records nothing, so services and tests can
// leave it unset.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "memoauth"

// Outcome labels.
const (
	OutcomeSuccess       = "success"
	OutcomeInvalid       = "invalid"
	OutcomeExpired       = "expired"
	OutcomeNotRecognised = "not_recognised"
	OutcomeError         = "error"
)

type Recorder struct {
	logins    *prometheus.CounterVec
	refreshes *prometheus.CounterVec
	logouts   *prometheus.CounterVec
	revoked   prometheus.Counter
	reaped    prometheus.Counter
	gatherer  prometheus.Gatherer
}

// New registers the auth collectors on a fresh registry together with the
// process and Go runtime collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the auth collectors on reg and serves from g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Recorder {
	r := &Recorder{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Refresh token rotations by outcome.",
		}, []string{"outcome"}),
		logouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logouts_total",
			Help:      "Logouts by scope (session or all).",
		}, []string{"scope"}),
		revoked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_tokens_revoked_total",
			Help:      "Refresh token records removed by logout or revocation.",
		}),
		reaped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_tokens_reaped_total",
			Help:      "Expired refresh token records removed by housekeeping.",
		}),
		gatherer: g,
	}
	reg.MustRegister(r.logins, r.refreshes, r.logouts, r.revoked, r.reaped)
	return r
}

func (r *Recorder) Login(outcome string) {
	if r == nil {
		return
	}
	r.logins.WithLabelValues(outcome).Inc()
}

func (r *Recorder) Refresh(outcome string) {
	if r == nil {
		return
	}
	r.refreshes.WithLabelValues(outcome).Inc()
}

// Logout counts one logout call and the records it removed.
func (r *Recorder) Logout(all bool, removed int64) {
	if r == nil {
		return
	}
	scope := "session"
	if all {
		scope = "all"
	}
	r.logouts.WithLabelValues(scope).Inc()
	r.revoked.Add(float64(removed))
}

func (r *Recorder) Reaped(n int64) {
	if r == nil {
		return
	}
	r.reaped.Add(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
