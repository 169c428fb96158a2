package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks engine-level counters.
type Metrics struct {
	QueriesProcessed  prometheus.Counter
	IntentFallbacks   prometheus.Counter
	ResponseFallbacks prometheus.Counter
	ProviderFailures  prometheus.Counter
	ScanCapTrips      prometheus.Counter
}

// NewMetrics registers the engine counters with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		QueriesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "vectorquery_queries_processed_total",
			Help: "Number of questions processed by the engine.",
		}),
		IntentFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "vectorquery_intent_fallbacks_total",
			Help: "Number of intents produced by the deterministic fallback parser.",
		}),
		ResponseFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "vectorquery_response_fallbacks_total",
			Help: "Number of answers produced by deterministic templates.",
		}),
		ProviderFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "vectorquery_provider_failures_total",
			Help: "Number of failed LLM provider calls, including fallbacks that succeeded.",
		}),
		ScanCapTrips: factory.NewCounter(prometheus.CounterOpts{
			Name: "vectorquery_scan_cap_trips_total",
			Help: "Number of chunked scans stopped early by a safety cap.",
		}),
	}
}
