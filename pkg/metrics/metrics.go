package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ml_reasoning"

var (
	diagnosisRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "diagnosis_runs_total",
		Help:      "Diagnosis runs by diagnosis source (live, stub, fallback) and final state.",
	}, []string{"source", "state"})

	llmRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_requests_total",
		Help:      "Chat completion calls by model and outcome.",
	}, []string{"model", "outcome"})

	llmLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "llm_request_duration_seconds",
		Help:      "Chat completion latency.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"model"})

	storeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_errors_total",
		Help:      "Store failures by operation.",
	}, []string{"operation"})
)

// ObserveLLMCall records one chat completion call.
func ObserveLLMCall(model string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	llmRequests.WithLabelValues(model, outcome).Inc()
	llmLatency.WithLabelValues(model).Observe(elapsed.Seconds())
}

func RecordRun(source, state string) {
	diagnosisRuns.WithLabelValues(source, state).Inc()
}

func RecordStoreError(operation string) {
	storeErrors.WithLabelValues(operation).Inc()
}
