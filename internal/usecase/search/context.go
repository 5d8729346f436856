package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/chatsearch/internal/domain"
	"github.com/kailas-cloud/chatsearch/internal/logger"
	"github.com/kailas-cloud/chatsearch/internal/repository/kvcache"
)

// Raw scores of conversational candidates.
const (
	contextScore    = 1.0
	historicalScore = 0.5
)

// ContextStrategy returns the product of the previous turn for follow-up queries.
// Lookup order: cache, vector index, catalog.
type ContextStrategy struct {
	cache   Cache
	index   VectorIndex
	catalog Catalog
	cfg     Config
}

// NewContextStrategy creates the last-product stage. Any source may be nil.
func NewContextStrategy(cache Cache, index VectorIndex, catalog Catalog, cfg Config) *ContextStrategy {
	return &ContextStrategy{cache: cache, index: index, catalog: catalog, cfg: cfg.withDefaults()}
}

// Name implements Strategy.
func (s *ContextStrategy) Name() string { return StageContext }

// Attempt implements Strategy.
func (s *ContextStrategy) Attempt(ctx context.Context, req *Request) ([]domain.Candidate, error) {
	id := req.State.LastProductID
	if !req.Analysis.FollowUp || id == "" {
		return nil, nil
	}

	p, err := s.lookup(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return []domain.Candidate{{Product: *p, Score: contextScore}}, nil
}

func (s *ContextStrategy) lookup(ctx context.Context, id string) (*domain.Product, error) {
	log := logger.FromContext(ctx)

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, kvcache.NamespaceProduct, id); err == nil {
			var p domain.Product
			if err := json.Unmarshal(data, &p); err == nil {
				return &p, nil
			}
			log.Debug("Ignoring undecodable cached product", zap.String("product_id", id))
		}
	}

	var errs []error
	if s.index != nil {
		p, err := s.index.GetProduct(ctx, s.cfg.Collection, id)
		if err == nil {
			s.remember(ctx, p)
			return p, nil
		}
		errs = append(errs, fmt.Errorf("vector index: %w", err))
	}
	if s.catalog != nil {
		p, err := s.catalog.GetProduct(ctx, id)
		if err == nil {
			s.remember(ctx, p)
			return p, nil
		}
		errs = append(errs, fmt.Errorf("catalog: %w", err))
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	return nil, errors.Join(errs...)
}

func (s *ContextStrategy) remember(ctx context.Context, p *domain.Product) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, kvcache.NamespaceProduct, p.ID, data, s.cfg.ProductCacheTTL); err != nil {
		logger.FromContext(ctx).Debug("Failed to cache product", zap.String("product_id", p.ID), zap.Error(err))
	}
}

// HistoricalInterestStrategy substitutes the user's recently seen products on follow-ups.
type HistoricalInterestStrategy struct{}

// NewHistoricalInterestStrategy creates the last-resort conversational stage.
func NewHistoricalInterestStrategy() *HistoricalInterestStrategy {
	return &HistoricalInterestStrategy{}
}

// Name implements Strategy.
func (s *HistoricalInterestStrategy) Name() string { return StageHistoricalInterest }

// Attempt implements Strategy.
func (s *HistoricalInterestStrategy) Attempt(_ context.Context, req *Request) ([]domain.Candidate, error) {
	if !req.Analysis.FollowUp || len(req.Context.RelevantProducts) == 0 {
		return nil, nil
	}
	out := make([]domain.Candidate, 0, len(req.Context.RelevantProducts))
	for _, p := range req.Context.RelevantProducts {
		out = append(out, domain.Candidate{Product: p, Score: historicalScore})
	}
	return out, nil
}
