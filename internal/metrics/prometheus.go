// Package metrics holds the Prometheus collectors for a session and local
// text feature counting.
//
// The CLI is one-shot, so there is no scrape endpoint: collectors live on a
// package registry that WriteTextfile dumps in the node_exporter textfile format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every collector defined in this package.
var Registry = prometheus.NewRegistry()

var (
	AssistantsResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockanalyzer_assistants_resolved_total",
			Help: "Assistant name resolutions by outcome",
		},
		[]string{"outcome"}, // "created", "matched" or "reconciled"
	)

	APICalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockanalyzer_api_calls_total",
			Help: "Remote API calls by operation and result",
		},
		[]string{"operation", "result"},
	)

	RunPolls = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stockanalyzer_run_polls_total",
			Help: "Run status re-fetches issued while waiting",
		},
	)

	RunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockanalyzer_run_duration_seconds",
			Help:    "Wall time from run submission to terminal status",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		},
		[]string{"status"},
	)
)

func init() {
	Registry.MustRegister(AssistantsResolved, APICalls, RunPolls, RunDuration)
}

// ObserveCall counts one remote call for operation.
func ObserveCall(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	APICalls.WithLabelValues(operation, result).Inc()
}

// WriteTextfile writes the current values of Registry to path.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
