// Package conversation keeps per-user conversation state and derives
// context (recent queries, interests) from chat history.
package conversation

import (
	"context"
	"time"

	"github.com/kailas-cloud/chatsearch/internal/domain"
)

// Cache persists state snapshots outside the process.
type Cache interface {
	Get(ctx context.Context, ns, key string) ([]byte, error)
	Set(ctx context.Context, ns, key string, value []byte, ttl time.Duration) error
}

// ProductGetter resolves products mentioned in history.
type ProductGetter interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}
