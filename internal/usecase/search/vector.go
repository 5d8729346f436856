package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/chatsearch/internal/domain"
	"github.com/kailas-cloud/chatsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/chatsearch/internal/logger"
)

// VectorStrategy embeds the enhanced query and asks the nearest-neighbor index.
type VectorStrategy struct {
	embed Embedder
	index VectorIndex
	cfg   Config
}

// NewVectorStrategy creates the semantic stage.
func NewVectorStrategy(embed Embedder, index VectorIndex, cfg Config) *VectorStrategy {
	return &VectorStrategy{embed: embed, index: index, cfg: cfg.withDefaults()}
}

// Name implements Strategy.
func (s *VectorStrategy) Name() string { return StageVector }

// Attempt queries with the confidence-gated filter and retries once unfiltered
// when the filtered query is empty.
func (s *VectorStrategy) Attempt(ctx context.Context, req *Request) ([]domain.Candidate, error) {
	emb, err := s.embed.Embed(ctx, req.Analysis.Enhanced)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	if len(emb.Embedding) == 0 {
		return nil, nil
	}

	k := s.cfg.TopResults * s.cfg.NeighborMultiplier
	expr := s.filterFor(req)

	cands, err := s.index.QueryNearestNeighbors(ctx, emb.Embedding, k, expr, s.cfg.Collection)
	if err != nil {
		return nil, fmt.Errorf("nearest neighbors: %w", err)
	}
	if len(cands) > 0 || expr.IsEmpty() {
		return cands, nil
	}

	logger.FromContext(ctx).Debug("Filtered vector search empty, retrying unfiltered",
		zap.Int("conditions", len(expr.Must())))

	cands, err = s.index.QueryNearestNeighbors(ctx, emb.Embedding, k, filter.Expression{}, s.cfg.Collection)
	if err != nil {
		return nil, fmt.Errorf("nearest neighbors unfiltered: %w", err)
	}
	return cands, nil
}

// filterFor restricts to in-stock products only for confident availability
// questions, and to one category only for very confident single-category queries.
func (s *VectorStrategy) filterFor(req *Request) filter.Expression {
	a := req.Analysis
	var conds []filter.Condition
	if a.Intent.Availability && a.Confidence > s.cfg.StockFilterConfidence {
		conds = append(conds, filter.InStock())
	}
	if a.Confidence > s.cfg.CategoryFilterConfidence && len(a.Attributes.Categories) == 1 {
		if c, err := filter.Category(a.Attributes.Categories[0].Keyword); err == nil {
			conds = append(conds, c)
		}
	}
	expr, err := filter.NewExpression(conds...)
	if err != nil {
		return filter.Expression{}
	}
	return expr
}
