package indexing

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/chatsearch/internal/domain"
	dombatch "github.com/kailas-cloud/chatsearch/internal/domain/batch"
	"github.com/kailas-cloud/chatsearch/internal/repository/vector"
)

// Defaults.
const (
	DefaultBatchSize   = 64
	DefaultConcurrency = 4
	DefaultScanLimit   = 10000
)

// Config tunes a sync run. Zero fields take defaults.
type Config struct {
	Collection  string
	BatchSize   int
	Concurrency int
	ScanLimit   int
}

// Service embeds catalog products and writes them into the index.
type Service struct {
	catalog Catalog
	index   Index
	embed   domain.Embedder
	cfg     Config
	logger  *zap.Logger
}

// New creates a sync service. embed should carry the document instruction prefix.
func New(catalog Catalog, index Index, embed domain.Embedder, cfg Config, logger *zap.Logger) *Service {
	if cfg.Collection == "" {
		cfg.Collection = "products"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.ScanLimit <= 0 {
		cfg.ScanLimit = DefaultScanLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{catalog: catalog, index: index, embed: embed, cfg: cfg, logger: logger}
}

type chunk struct {
	products []domain.Product
	vectors  [][]float32
	err      error
}

// Sync indexes every scanned product and reports one result per product.
// Embedding and upsert failures fail only the affected batch; an error is
// returned when the catalog or the index itself is unusable.
func (s *Service) Sync(ctx context.Context) ([]dombatch.Result, error) {
	products, err := s.catalog.ScanCatalog(ctx, s.cfg.ScanLimit)
	if err != nil {
		return nil, fmt.Errorf("scan catalog: %w", err)
	}
	if len(products) == 0 {
		s.logger.Info("Catalog is empty, nothing to index")
		return nil, nil
	}

	chunks := s.split(products)
	s.embedChunks(ctx, chunks)

	dim := 0
	for _, c := range chunks {
		for _, v := range c.vectors {
			if len(v) > 0 {
				dim = len(v)
				break
			}
		}
		if dim > 0 {
			break
		}
	}

	results := make([]dombatch.Result, 0, len(products))
	if dim == 0 {
		for _, c := range chunks {
			results = append(results, failAll(c.products, embedFailure(c))...)
		}
		return results, nil
	}

	if err := s.index.EnsureCollection(ctx, s.cfg.Collection, dim); err != nil {
		return nil, fmt.Errorf("ensure collection %s: %w", s.cfg.Collection, err)
	}

	for _, c := range chunks {
		results = append(results, s.store(ctx, c, dim)...)
	}

	sum := dombatch.Summarize(results)
	s.logger.Info("Catalog indexed",
		zap.String("collection", s.cfg.Collection),
		zap.Int("indexed", sum.OK),
		zap.Int("failed", sum.Failed),
		zap.Int("dimensions", dim),
	)
	return results, nil
}

// Rebuild drops the collection and syncs it from scratch. Needed after the
// embedding model or its dimensions change.
func (s *Service) Rebuild(ctx context.Context) ([]dombatch.Result, error) {
	if err := s.index.DropCollection(ctx, s.cfg.Collection); err != nil {
		return nil, fmt.Errorf("drop collection %s: %w", s.cfg.Collection, err)
	}
	return s.Sync(ctx)
}

// Indexed returns how many products the index currently holds.
func (s *Service) Indexed(ctx context.Context) (int, error) {
	n, err := s.index.Count(ctx, s.cfg.Collection)
	if err != nil {
		return 0, fmt.Errorf("count collection %s: %w", s.cfg.Collection, err)
	}
	return n, nil
}

func (s *Service) split(products []domain.Product) []*chunk {
	var out []*chunk
	for start := 0; start < len(products); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(products))
		out = append(out, &chunk{products: products[start:end]})
	}
	return out
}

// embedChunks embeds batches concurrently. Failures are kept on the chunk.
func (s *Service) embedChunks(ctx context.Context, chunks []*chunk) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, c := range chunks {
		g.Go(func() error {
			texts := make([]string, len(c.products))
			for i := range c.products {
				texts[i] = c.products[i].SearchText()
			}
			res, err := domain.EmbedAll(gctx, s.embed, texts)
			switch {
			case err != nil:
				c.err = err
			case len(res.Embeddings) != len(texts):
				c.err = fmt.Errorf("got %d embeddings for %d texts: %w",
					len(res.Embeddings), len(texts), domain.ErrEmbeddingProviderError)
			default:
				c.vectors = res.Embeddings
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Service) store(ctx context.Context, c *chunk, dim int) []dombatch.Result {
	if c.err != nil {
		s.logger.Warn("Embedding batch failed", zap.Int("size", len(c.products)), zap.Error(c.err))
		return failAll(c.products, fmt.Errorf("embed: %w", c.err))
	}

	results := make([]dombatch.Result, len(c.products))
	items := make([]vector.Item, 0, len(c.products))
	valid := make([]int, 0, len(c.products))
	for i := range c.products {
		id := c.products[i].ID
		switch v := c.vectors[i]; {
		case len(v) == 0:
			results[i] = dombatch.NewError(id, domain.ErrEmptyEmbedding)
		case len(v) != dim:
			results[i] = dombatch.NewError(id, fmt.Errorf("dimension %d, index expects %d", len(v), dim))
		default:
			items = append(items, vector.Item{Product: c.products[i], Vector: v})
			valid = append(valid, i)
		}
	}
	if len(items) == 0 {
		return results
	}

	if err := s.index.Upsert(ctx, s.cfg.Collection, items); err != nil {
		s.logger.Warn("Index upsert failed", zap.Int("size", len(items)), zap.Error(err))
		for _, i := range valid {
			results[i] = dombatch.NewError(c.products[i].ID, fmt.Errorf("upsert: %w", err))
		}
		return results
	}
	for _, i := range valid {
		results[i] = dombatch.NewOK(c.products[i].ID)
	}
	return results
}

func embedFailure(c *chunk) error {
	if c.err != nil {
		return fmt.Errorf("embed: %w", c.err)
	}
	return domain.ErrEmptyEmbedding
}

func failAll(products []domain.Product, err error) []dombatch.Result {
	out := make([]dombatch.Result, len(products))
	for i := range products {
		out[i] = dombatch.NewError(products[i].ID, err)
	}
	return out
}
