// Package search turns a chat message into a ranked product list. Strategies
// run in order until one yields candidates; the ranker then scores them with
// conversational boosts and the facade persists the winner into conversation state.
package search

import (
	"context"
	"time"

	"github.com/kailas-cloud/chatsearch/internal/domain"
	"github.com/kailas-cloud/chatsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/chatsearch/internal/usecase/conversation"
)

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// VectorIndex is the nearest-neighbor product index.
type VectorIndex interface {
	QueryNearestNeighbors(
		ctx context.Context, vec []float32, k int, f filter.Expression, collection string,
	) ([]domain.Candidate, error)
	GetProduct(ctx context.Context, collection, id string) (*domain.Product, error)
}

// Catalog is bounded access to catalog records.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ScanCatalog(ctx context.Context, limit int) ([]domain.Product, error)
}

// Cache is the namespaced TTL cache.
type Cache interface {
	Get(ctx context.Context, ns, key string) ([]byte, error)
	Set(ctx context.Context, ns, key string, value []byte, ttl time.Duration) error
}

// StateStore holds per-user conversation state.
type StateStore interface {
	Get(ctx context.Context, userID string) domain.ConversationState
	Set(ctx context.Context, st domain.ConversationState)
}

// HistoryLoader reads a user's chat history; nil means no history.
type HistoryLoader interface {
	Load(ctx context.Context, userID string) (*domain.ChatHistory, error)
}

// HistoryWriter records exchanges so later turns can analyze them.
type HistoryWriter interface {
	Append(ctx context.Context, userID string, msgs ...domain.ChatMessage) error
}

// ContextAnalyzer derives recent interests from history.
type ContextAnalyzer interface {
	Analyze(ctx context.Context, history *domain.ChatHistory, state domain.ConversationState) conversation.Summary
}
