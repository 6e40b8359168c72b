package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripfellows_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// ProposalTransitions counts proposal status transitions. The trigger label
	// distinguishes actor-requested moves from capacity-driven corrections
	// (finalize|cancel|close|auto_close|auto_reopen).
	ProposalTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripfellows_proposal_transitions_total",
			Help: "Total number of proposal status transitions",
		},
		[]string{"from", "to", "trigger"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripfellows_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
