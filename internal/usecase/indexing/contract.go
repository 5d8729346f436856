// Package indexing synchronizes catalog products into the nearest-neighbor index.
package indexing

import (
	"context"

	"github.com/kailas-cloud/chatsearch/internal/domain"
	"github.com/kailas-cloud/chatsearch/internal/repository/vector"
)

// Catalog lists products to index.
type Catalog interface {
	ScanCatalog(ctx context.Context, limit int) ([]domain.Product, error)
}

// Index stores product embeddings.
type Index interface {
	EnsureCollection(ctx context.Context, collection string, dim int) error
	DropCollection(ctx context.Context, collection string) error
	Upsert(ctx context.Context, collection string, items []vector.Item) error
	Count(ctx context.Context, collection string) (int, error)
}
