package vector

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/coder/hnsw"
	"go.uber.org/zap"

	"github.com/kailas-cloud/chatsearch/internal/domain"
	"github.com/kailas-cloud/chatsearch/internal/domain/search/filter"
)

// defaultEfSearch is the candidate list size for graph queries.
const defaultEfSearch = 64

type memCollection struct {
	graph    *hnsw.Graph[uint64]
	dim      int
	ids      map[string]uint64
	keys     map[uint64]string
	products map[string]domain.Product
	nextKey  uint64
}

// Memory is an in-process product index on an HNSW graph. Replaced products are
// orphaned in the graph rather than deleted, and skipped at query time.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
	cfg         HNSWConfig
	logger      *zap.Logger
}

// NewMemory creates an empty in-process index.
func NewMemory(cfg HNSWConfig, logger *zap.Logger) *Memory {
	if cfg.M <= 0 {
		cfg.M = DefaultHNSWConfig.M
	}
	if cfg.EFConstruct <= 0 {
		cfg.EFConstruct = DefaultHNSWConfig.EFConstruct
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Memory{collections: make(map[string]*memCollection), cfg: cfg, logger: logger}
}

// EnsureCollection creates an empty graph for collection if missing.
func (m *Memory) EnsureCollection(_ context.Context, collection string, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("collection %s: dimension must be positive", collection)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.collections[collection]; ok {
		if c.dim != dim {
			return fmt.Errorf("collection %s: dimension %d, got %d", collection, c.dim, dim)
		}
		return nil
	}

	g := hnsw.NewGraph[uint64]()
	g.Distance = hnsw.CosineDistance
	g.M = m.cfg.M
	g.EfSearch = defaultEfSearch
	g.Ml = 0.25

	m.collections[collection] = &memCollection{
		graph:    g,
		dim:      dim,
		ids:      make(map[string]uint64),
		keys:     make(map[uint64]string),
		products: make(map[string]domain.Product),
	}
	m.logger.Info("Created in-memory vector collection", zap.String("collection", collection), zap.Int("dim", dim))
	return nil
}

// Upsert adds or replaces products.
func (m *Memory) Upsert(_ context.Context, collection string, items []Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.collections[collection]
	if !ok {
		return fmt.Errorf("%w: collection %s", domain.ErrVectorIndexUnavailable, collection)
	}

	for i := range items {
		id := items[i].Product.ID
		if id == "" {
			return fmt.Errorf("upsert [%d]: product id is required", i)
		}
		if len(items[i].Vector) != c.dim {
			return fmt.Errorf("upsert %s: dimension %d, want %d", id, len(items[i].Vector), c.dim)
		}

		if old, exists := c.ids[id]; exists {
			delete(c.keys, old)
		}
		key := c.nextKey
		c.nextKey++

		c.graph.Add(hnsw.MakeNode(key, normalize(items[i].Vector)))
		c.ids[id] = key
		c.keys[key] = id
		c.products[id] = items[i].Product
	}
	return nil
}

// QueryNearestNeighbors returns up to k products closest to vec that satisfy f.
// Filters are applied after the graph search over every live node.
func (m *Memory) QueryNearestNeighbors(
	_ context.Context, vec []float32, k int, f filter.Expression, collection string,
) ([]domain.Candidate, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: collection %s", domain.ErrVectorIndexUnavailable, collection)
	}
	if len(vec) != c.dim {
		return nil, fmt.Errorf("query dimension %d, want %d", len(vec), c.dim)
	}
	if len(c.ids) == 0 {
		return nil, nil
	}

	q := normalize(vec)
	limit := k
	if !f.IsEmpty() || c.graph.Len() > len(c.ids) {
		limit = c.graph.Len()
	}

	out := make([]domain.Candidate, 0, k)
	for _, node := range c.graph.Search(q, limit) {
		id, live := c.keys[node.Key]
		if !live {
			continue
		}
		p := c.products[id]
		if !matches(&p, f) {
			continue
		}
		out = append(out, domain.Candidate{
			Product: p,
			Score:   similarity(float64(c.graph.Distance(q, node.Value))),
		})
		if len(out) == k {
			break
		}
	}
	return out, nil
}

// GetProduct returns an indexed product by id.
func (m *Memory) GetProduct(_ context.Context, collection, id string) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: collection %s", domain.ErrVectorIndexUnavailable, collection)
	}
	p, ok := c.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	return &p, nil
}

// DropCollection discards the graph and products of collection.
func (m *Memory) DropCollection(_ context.Context, collection string) error {
	m.mu.Lock()
	delete(m.collections, collection)
	m.mu.Unlock()
	return nil
}

// Count is Len behind the index interface.
func (m *Memory) Count(_ context.Context, collection string) (int, error) {
	return m.Len(collection), nil
}

// Len returns the number of live products in collection.
func (m *Memory) Len(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.collections[collection]; ok {
		return len(c.ids)
	}
	return 0
}

// matches evaluates a filter against a product the way the FT pre-filter does:
// tag matches ignore case, and a product without stock never satisfies a stock range.
func matches(p *domain.Product, f filter.Expression) bool {
	for _, cond := range f.Must() {
		switch cond.Key() {
		case filter.FieldCategory:
			if !cond.IsMatch() || !strings.EqualFold(p.Category, cond.Match()) {
				return false
			}
		case filter.FieldStockQuantity:
			if !cond.IsRange() || p.StockQuantity == nil ||
				!cond.Range().Contains(float64(*p.StockQuantity)) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	var sum float64
	for _, x := range out {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return out
	}
	n := float32(math.Sqrt(sum))
	for i := range out {
		out[i] /= n
	}
	return out
}
