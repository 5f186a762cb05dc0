package review

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reviewsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "buildreview",
		Subsystem: "review",
		Name:      "reviews_total",
		Help:      "Completed SoW reviews by quality band.",
	}, []string{"quality"})

	gateDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "buildreview",
		Subsystem: "review",
		Name:      "gate_decisions_total",
		Help:      "Builder-invitation gate decisions.",
	}, []string{"decision"})
)

func observeReview(quality QualityIndicator) {
	reviewsTotal.WithLabelValues(string(quality)).Inc()
}

func observeGate(open bool) {
	decision := "closed"
	if open {
		decision = "open"
	}
	gateDecisions.WithLabelValues(decision).Inc()
}
