// Package metrics holds the Prometheus collectors of the search service.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "chatsearch"

var registered bool

// Register adds every collector to the default registry. Safe to call more than once.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(
		EmbeddingRequestsTotal,
		EmbeddingRequestDuration,
		EmbeddingTokensTotal,
		EmbeddingErrorsTotal,
		EmbeddingCacheTotal,
		SearchRequestsTotal,
		SearchDuration,
		SearchStageFailuresTotal,
		ConversationStates,
		ConversationEvictionsTotal,
		httpRequestDuration,
		httpRequestsTotal,
		httpRequestsInFlight,
	)
	registered = true
}
