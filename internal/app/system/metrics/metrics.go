// internal/app/system/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/dalemusser/assurance/internal/domain/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "assurance"

// Recorder owns the app's Prometheus registry and lifecycle counters.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	reg               *prometheus.Registry
	policyTransitions *prometheus.CounterVec
	claimTransitions  *prometheus.CounterVec
	loginFailures     *prometheus.CounterVec
}

// New builds a Recorder with its own registry, including Go runtime and
// process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		reg: reg,
		policyTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "policy",
			Name:      "transitions_total",
			Help:      "Policy status changes by operation and target status.",
		}, []string{"operation", "from", "to"}),
		claimTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "claim",
			Name:      "timeline_entries_total",
			Help:      "Claim timeline entries by status and actor kind.",
		}, []string{"status", "actor"}),
		loginFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "login_failures_total",
			Help:      "Rejected logins by reason code.",
		}, []string{"code"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.policyTransitions,
		r.claimTransitions,
		r.loginFailures,
	)
	return r
}

// PolicyTransition counts a policy moving from one status to another.
// from is empty for newly created policies.
func (r *Recorder) PolicyTransition(op string, from, to models.PolicyStatus) {
	if r == nil {
		return
	}
	r.policyTransitions.WithLabelValues(op, string(from), string(to)).Inc()
}

// ClaimTransition counts an appended claim timeline entry.
func (r *Recorder) ClaimTransition(to models.ClaimStatus, by models.ActorKind) {
	if r == nil {
		return
	}
	r.claimTransitions.WithLabelValues(string(to), string(by)).Inc()
}

// LoginFailure counts a rejected login.
func (r *Recorder) LoginFailure(code string) {
	if r == nil {
		return
	}
	r.loginFailures.WithLabelValues(code).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
