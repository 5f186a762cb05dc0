package invoker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	invocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "buildreview",
		Subsystem: "invoker",
		Name:      "invocations_total",
		Help:      "Agent invocations by agent, request type, and outcome.",
	}, []string{"agent_id", "request_type", "outcome"})

	invocationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "buildreview",
		Subsystem: "invoker",
		Name:      "invocation_duration_seconds",
		Help:      "Wall time of agent invocations including the generation call.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
	}, []string{"request_type"})
)

func observeInvocation(inv Invocation, outcome string, elapsed time.Duration) {
	invocationsTotal.WithLabelValues(inv.AgentID, string(inv.RequestType), outcome).Inc()
	invocationDuration.WithLabelValues(string(inv.RequestType)).Observe(elapsed.Seconds())
}
