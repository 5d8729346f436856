package search

import (
	"sort"

	"github.com/kailas-cloud/chatsearch/internal/domain"
	"github.com/kailas-cloud/chatsearch/internal/domain/search/result"
	"github.com/kailas-cloud/chatsearch/internal/usecase/query"
)

// Ranking boosts.
const (
	historicalBaseline = 50.0
	rawScoreScale      = 10.0
	boostDimension     = 15.0
	boostMaterial      = 12.0
	boostType          = 15.0
	boostFollowUp      = 20.0
	boostSharedNumber  = 15.0
	boostStock         = 10.0
)

// Ranker scores candidates with additive boosts. It is pure and deterministic.
type Ranker struct {
	cfg Config
}

// NewRanker creates a ranker.
func NewRanker(cfg Config) *Ranker {
	return &Ranker{cfg: cfg.withDefaults()}
}

// Rank seeds the list with the user's historical-interest products, scores every
// other candidate, drops non-positive scores, sorts stably and truncates.
func (r *Ranker) Rank(cands []domain.Candidate, req *Request) []result.SearchResult {
	seen := make(map[string]struct{}, len(cands)+len(req.Context.RelevantProducts))
	out := make([]result.SearchResult, 0, len(cands)+len(req.Context.RelevantProducts))

	for _, p := range req.Context.RelevantProducts {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, result.SearchResult{
			Product:      p,
			BoostedScore: historicalBaseline,
			BoostFactors: map[string]float64{result.FactorHistoricalInterest: historicalBaseline},
			Interaction:  r.interaction(req, p.ID),
		})
	}

	for i := range cands {
		c := &cands[i]
		if _, dup := seen[c.Product.ID]; dup {
			continue
		}
		seen[c.Product.ID] = struct{}{}
		out = append(out, r.score(c, req))
	}

	kept := out[:0]
	for _, sr := range out {
		if sr.BoostedScore > 0 {
			kept = append(kept, sr)
		}
	}

	sort.SliceStable(kept, func(a, b int) bool { return kept[a].BoostedScore > kept[b].BoostedScore })
	if len(kept) > r.cfg.TopResults {
		kept = kept[:r.cfg.TopResults]
	}
	return kept
}

func (r *Ranker) score(c *domain.Candidate, req *Request) result.SearchResult {
	a := req.Analysis
	text := c.Product.SearchText()

	base := c.Score * rawScoreScale
	factors := map[string]float64{result.FactorBase: base}
	total := base
	add := func(name string, v float64) {
		factors[name] = v
		total += v
	}

	for _, d := range a.Attributes.Dimensions {
		if query.DimensionMatches(d, text, r.cfg.NumericTolerance) {
			add(result.FactorDimension, boostDimension)
			break
		}
	}
	for _, m := range a.Attributes.Materials {
		if query.MatchesSynonym(text, m.Keyword) {
			add(result.FactorMaterial, boostMaterial)
			break
		}
	}
	for _, t := range a.Attributes.Types {
		if query.MatchesSynonym(text, t.Keyword) {
			add(result.FactorType, boostType)
			break
		}
	}
	if a.FollowUp && req.State.LastProductID != "" && req.State.LastProductID == c.Product.ID {
		add(result.FactorFollowUp, boostFollowUp)
	}
	if query.SharesNumber(req.Query, c.Product.Name) {
		add(result.FactorSharedNumber, boostSharedNumber)
	}
	if a.Intent.Availability {
		if c.Product.InStock() {
			add(result.FactorStock, boostStock)
		} else {
			add(result.FactorStock, -boostStock)
		}
	}

	return result.SearchResult{
		Product:      c.Product,
		Score:        c.Score,
		BoostedScore: total,
		BoostFactors: factors,
		Interaction:  r.interaction(req, c.Product.ID),
	}
}

func (r *Ranker) interaction(req *Request, id string) *result.Interaction {
	if in, ok := req.Context.ProductInterests[id]; ok {
		return &in
	}
	return nil
}
