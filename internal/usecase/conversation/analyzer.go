package conversation

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/chatsearch/internal/domain"
	"github.com/kailas-cloud/chatsearch/internal/domain/search/result"
)

const (
	// DefaultHistoryWindow is how many trailing messages are analyzed.
	DefaultHistoryWindow = 10

	maxFrequentCategories = 3
	maxRelevantProducts   = 3
)

// Summary is what the analyzer derives from recent history.
type Summary struct {
	// RecentQueries are prior user messages, most recent first.
	RecentQueries []string
	// ProductInterests counts product mentions per id.
	ProductInterests map[string]result.Interaction
	// FrequentCategories are the most mentioned categories.
	FrequentCategories []string
	// RelevantProducts are the most recently seen products, resolved from the catalog.
	RelevantProducts []domain.Product
}

// Analyzer derives a Summary from chat history.
type Analyzer struct {
	products ProductGetter
	window   int
	logger   *zap.Logger
}

// NewAnalyzer creates an analyzer. A non-positive window uses the default.
func NewAnalyzer(products ProductGetter, window int, logger *zap.Logger) *Analyzer {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{products: products, window: window, logger: logger}
}

// Analyze summarizes the trailing window of history. A nil history yields a
// summary holding only the state's last query.
func (a *Analyzer) Analyze(
	ctx context.Context, history *domain.ChatHistory, state domain.ConversationState,
) Summary {
	sum := Summary{ProductInterests: make(map[string]result.Interaction)}

	var msgs []domain.ChatMessage
	if history != nil {
		msgs = history.Messages
		if len(msgs) > a.window {
			msgs = msgs[len(msgs)-a.window:]
		}
	}

	categories := make(map[string]int)
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m.Role == domain.RoleUser {
			if q := strings.TrimSpace(m.Content); q != "" {
				sum.RecentQueries = append(sum.RecentQueries, q)
			}
		}
		for _, p := range m.Products {
			if p.ID == "" {
				continue
			}
			in := sum.ProductInterests[p.ID]
			in.Count++
			if m.Timestamp.After(in.LastSeen) {
				in.LastSeen = m.Timestamp
			}
			sum.ProductInterests[p.ID] = in
			if p.Category != "" {
				categories[p.Category]++
			}
		}
	}

	if last := strings.TrimSpace(state.LastQuery); last != "" &&
		(len(sum.RecentQueries) == 0 || sum.RecentQueries[0] != last) {
		sum.RecentQueries = append([]string{last}, sum.RecentQueries...)
	}

	sum.FrequentCategories = topCategories(categories, maxFrequentCategories)
	sum.RelevantProducts = a.resolve(ctx, sum.ProductInterests)
	return sum
}

func topCategories(counts map[string]int, n int) []string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

// resolve orders interests by recency, then frequency, then id, and loads up to
// maxRelevantProducts of them. Products that cannot be loaded are skipped.
func (a *Analyzer) resolve(ctx context.Context, interests map[string]result.Interaction) []domain.Product {
	if len(interests) == 0 || a.products == nil {
		return nil
	}
	ids := make([]string, 0, len(interests))
	for id := range interests {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		x, y := interests[ids[i]], interests[ids[j]]
		if !x.LastSeen.Equal(y.LastSeen) {
			return x.LastSeen.After(y.LastSeen)
		}
		if x.Count != y.Count {
			return x.Count > y.Count
		}
		return ids[i] < ids[j]
	})

	out := make([]domain.Product, 0, maxRelevantProducts)
	for _, id := range ids {
		if len(out) == maxRelevantProducts {
			break
		}
		p, err := a.products.GetProduct(ctx, id)
		if err != nil || p == nil {
			a.logger.Debug("Skipping unresolvable product from history", zap.String("product_id", id), zap.Error(err))
			continue
		}
		out = append(out, *p)
	}
	return out
}
