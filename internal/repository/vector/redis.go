package vector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/chatsearch/internal/db"
	"github.com/kailas-cloud/chatsearch/internal/domain"
	"github.com/kailas-cloud/chatsearch/internal/domain/search/filter"
)

// store is the consumer interface for the Redis backend (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	DropIndex(ctx context.Context, name string) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Redis is the FT.SEARCH backed product index.
type Redis struct {
	store  store
	hnsw   HNSWConfig
	logger *zap.Logger
}

// NewRedis creates a Redis vector index. Zero HNSW fields fall back to DefaultHNSWConfig.
func NewRedis(s store, cfg HNSWConfig, logger *zap.Logger) *Redis {
	if cfg.M <= 0 {
		cfg.M = DefaultHNSWConfig.M
	}
	if cfg.EFConstruct <= 0 {
		cfg.EFConstruct = DefaultHNSWConfig.EFConstruct
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{store: s, hnsw: cfg, logger: logger}
}

// EnsureCollection creates the product index for collection if it does not exist.
func (r *Redis) EnsureCollection(ctx context.Context, collection string, dim int) error {
	name := indexName(collection)
	exists, err := r.store.IndexExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check index %s: %w", name, err)
	}
	if exists {
		return nil
	}

	def, err := buildIndex(collection, dim, r.hnsw)
	if err != nil {
		return fmt.Errorf("build index %s: %w", name, err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", name, err)
	}
	r.logger.Info("Created vector index", zap.String("index", name), zap.Int("dim", dim))
	return nil
}

// DropCollection removes the index definition. Product hashes stay and are
// picked up again when the index is recreated.
func (r *Redis) DropCollection(ctx context.Context, collection string) error {
	name := indexName(collection)
	if err := r.store.DropIndex(ctx, name); err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil
		}
		return fmt.Errorf("drop index %s: %w", name, err)
	}
	r.logger.Info("Dropped vector index", zap.String("index", name))
	return nil
}

// Count returns the number of indexed products.
func (r *Redis) Count(ctx context.Context, collection string) (int, error) {
	n, err := r.store.SearchCount(ctx, indexName(collection), "*")
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

// Upsert writes product hashes with their vectors in one pipeline.
func (r *Redis) Upsert(ctx context.Context, collection string, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	batch := make([]db.HashSetItem, 0, len(items))
	for i := range items {
		if items[i].Product.ID == "" {
			return fmt.Errorf("upsert [%d]: product id is required", i)
		}
		if len(items[i].Vector) == 0 {
			return fmt.Errorf("upsert %s: %w", items[i].Product.ID, domain.ErrEmptyEmbedding)
		}
		batch = append(batch, db.HashSetItem{
			Key:    productKey(collection, items[i].Product.ID),
			Fields: buildHashFields(&items[i].Product, items[i].Vector),
		})
	}
	if err := r.store.HSetMulti(ctx, batch); err != nil {
		return fmt.Errorf("upsert %s: %w", collection, err)
	}
	return nil
}

// QueryNearestNeighbors returns up to k products closest to vec that satisfy f.
func (r *Redis) QueryNearestNeighbors(
	ctx context.Context, vec []float32, k int, f filter.Expression, collection string,
) ([]domain.Candidate, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName(collection),
		Filters:      f,
		Vector:       vec,
		K:            k,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: search %s: %w", domain.ErrVectorIndexUnavailable, collection, err)
	}
	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}

	prefix := collectionPrefix(collection)
	out := make([]domain.Candidate, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := strings.TrimPrefix(entry.Key, prefix)
		out = append(out, domain.Candidate{
			Product: parseHashFields(id, entry.Fields),
			Score:   entry.Score,
		})
	}
	return out, nil
}

// GetProduct loads an indexed product by id.
func (r *Redis) GetProduct(ctx context.Context, collection, id string) (*domain.Product, error) {
	fields, err := r.store.HGetAll(ctx, productKey(collection, id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	delete(fields, fieldVector)
	p := parseHashFields(id, fields)
	return &p, nil
}

// buildIndex creates the product index definition for a collection.
func buildIndex(collection string, dim int, cfg HNSWConfig) (*db.IndexDefinition, error) {
	def, err := db.NewIndex(indexName(collection)).
		Prefix(collectionPrefix(collection)).
		Tag(filter.FieldCategory, "|").
		Numeric(filter.FieldStockQuantity).
		VectorHNSW(fieldVector, dim, db.DistanceCosine, cfg.M, cfg.EFConstruct).
		Build()
	if err != nil {
		return nil, fmt.Errorf("product index: %w", err)
	}
	return def, nil
}
