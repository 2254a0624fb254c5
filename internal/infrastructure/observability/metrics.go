package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Issued access/refresh pairs
	TokensIssued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_tokens_issued_total",
			Help: "Total number of issued token pairs",
		},
	)

	// Guard outcomes per token kind
	GuardChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_guard_checks_total",
			Help: "Total number of guard verifications",
		},
		[]string{"kind", "result"},
	)

	Revocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_revocations_total",
			Help: "Total number of token revocations",
		},
		[]string{"scope"},
	)
)

func InitMetrics() {
	prometheus.MustRegister(TokensIssued, GuardChecks, Revocations)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		http.ListenAndServe(":9090", nil)
	}()
}
