// Package observability exports registry operation and roster size metrics to Prometheus.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	operationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mergington",
		Subsystem: "registry",
		Name:      "operations_total",
		Help:      "Registry signup and removal attempts, labeled by operation and outcome.",
	}, []string{"operation", "outcome"})

	participantsGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "mergington",
		Subsystem: "registry",
		Name:      "participants",
		Help:      "Current number of participants signed up for each activity.",
	}, []string{"activity"})
)

func init() {
	prometheus.MustRegister(operationCounter, participantsGauge)
}

// RecordOperation counts a registry operation with its outcome.
func RecordOperation(operation, outcome string) {
	operationCounter.WithLabelValues(operation, outcome).Inc()
}

// SetParticipants updates the participant gauge for an activity.
func SetParticipants(activity string, count int) {
	participantsGauge.WithLabelValues(activity).Set(float64(count))
}
