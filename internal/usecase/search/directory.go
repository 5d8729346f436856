package search

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/chatsearch/internal/domain"
	domquery "github.com/kailas-cloud/chatsearch/internal/domain/query"
	"github.com/kailas-cloud/chatsearch/internal/usecase/query"
)

// Directory scoring weights.
const (
	weightTerm      = 0.15
	weightDimension = 0.3
	weightNumber    = 0.25
	weightCategory  = 0.25
	weightSize      = 0.2
)

// lexicalQuery is the query side of directory scoring.
type lexicalQuery struct {
	terms      []string
	numbers    []float64
	dims       []domquery.Dimension
	categories []string
	sizes      []string
}

func newLexicalQuery(text string, attrs domquery.Attributes) lexicalQuery {
	lower := query.Normalize(text)
	lq := lexicalQuery{
		terms:      dedupe(query.Tokens(lower)),
		dims:       query.ExtractDimensions(lower),
		categories: query.CategoryWords(lower),
		sizes:      query.SizeWords(lower),
	}
	for _, c := range attrs.Categories {
		lq.categories = append(lq.categories, c.Keyword)
	}
	lq.categories = dedupe(lq.categories)

	seen := make(map[float64]struct{})
	for _, n := range query.Numbers(lower) {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			lq.numbers = append(lq.numbers, n)
		}
	}
	return lq
}

// DirectoryStrategy scans a bounded prefix of the catalog and scores records by
// lexical and numeric overlap with the enhanced query.
type DirectoryStrategy struct {
	catalog Catalog
	cfg     Config
}

// NewDirectoryStrategy creates the catalog-scan stage.
func NewDirectoryStrategy(catalog Catalog, cfg Config) *DirectoryStrategy {
	return &DirectoryStrategy{catalog: catalog, cfg: cfg.withDefaults()}
}

// Name implements Strategy.
func (s *DirectoryStrategy) Name() string { return StageDirectory }

// Attempt implements Strategy.
func (s *DirectoryStrategy) Attempt(ctx context.Context, req *Request) ([]domain.Candidate, error) {
	lq := newLexicalQuery(req.Analysis.Enhanced, req.Analysis.Attributes)
	return scanAndScore(ctx, s.catalog, lq, s.cfg)
}

// GeneralKeywordStrategy reruns the directory scan with broad category words
// in place of the query terms.
type GeneralKeywordStrategy struct {
	catalog Catalog
	cfg     Config
}

// NewGeneralKeywordStrategy creates the generic-terms retry stage.
func NewGeneralKeywordStrategy(catalog Catalog, cfg Config) *GeneralKeywordStrategy {
	return &GeneralKeywordStrategy{catalog: catalog, cfg: cfg.withDefaults()}
}

// Name implements Strategy.
func (s *GeneralKeywordStrategy) Name() string { return StageGeneralKeyword }

// Attempt implements Strategy.
func (s *GeneralKeywordStrategy) Attempt(ctx context.Context, req *Request) ([]domain.Candidate, error) {
	lq := newLexicalQuery(req.Analysis.Enhanced, req.Analysis.Attributes)
	lq.terms = query.GenericTerms(query.Normalize(req.Analysis.Enhanced))
	return scanAndScore(ctx, s.catalog, lq, s.cfg)
}

func scanAndScore(ctx context.Context, catalog Catalog, lq lexicalQuery, cfg Config) ([]domain.Candidate, error) {
	products, err := catalog.ScanCatalog(ctx, cfg.ScanLimit)
	if err != nil {
		return nil, fmt.Errorf("scan catalog: %w", err)
	}
	return scoreProducts(products, lq, cfg), nil
}

// scoreProducts keeps products above the minimum score, best first, capped at
// TopResults. When the query names a dimension, only products matching one are
// scored unless none do.
func scoreProducts(products []domain.Product, lq lexicalQuery, cfg Config) []domain.Candidate {
	texts := make([]string, len(products))
	for i := range products {
		texts[i] = products[i].SearchText()
	}

	pool := make([]int, 0, len(products))
	if len(lq.dims) > 0 {
		for i := range products {
			for _, d := range lq.dims {
				if query.DimensionMatches(d, texts[i], cfg.NumericTolerance) {
					pool = append(pool, i)
					break
				}
			}
		}
	}
	if len(pool) == 0 {
		for i := range products {
			pool = append(pool, i)
		}
	}

	var out []domain.Candidate
	for _, i := range pool {
		score := lexicalScore(texts[i], lq, cfg.NumericTolerance)
		if score > cfg.MinDirectoryScore {
			out = append(out, domain.Candidate{Product: products[i], Score: score})
		}
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })
	if len(out) > cfg.TopResults {
		out = out[:cfg.TopResults]
	}
	return out
}

func lexicalScore(text string, lq lexicalQuery, tol float64) float64 {
	var score float64
	for _, t := range lq.terms {
		if query.MatchesSynonym(text, t) {
			score += weightTerm
		}
	}
	for _, d := range lq.dims {
		if query.ContainsDimensionLiteral(text, d) {
			score += weightDimension
		}
	}
	if len(lq.numbers) > 0 {
		productNumbers := query.Numbers(text)
		for _, n := range lq.numbers {
			for _, pn := range productNumbers {
				if query.WithinTolerance(n, pn, tol) {
					score += weightNumber
					break
				}
			}
		}
	}
	for _, c := range lq.categories {
		if query.ContainsKeyword(text, c) {
			score += weightCategory
		}
	}
	for _, sz := range lq.sizes {
		if query.ContainsKeyword(text, sz) {
			score += weightSize
		}
	}
	return score
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
