package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/chatsearch/internal/domain"
	domquery "github.com/kailas-cloud/chatsearch/internal/domain/query"
	"github.com/kailas-cloud/chatsearch/internal/domain/search/result"
	"github.com/kailas-cloud/chatsearch/internal/usecase/conversation"
)

func resultIDs(rs []result.SearchResult) []string {
	out := make([]string, len(rs))
	for i := range rs {
		out[i] = rs[i].ID
	}
	return out
}

func plainRequest() *Request {
	return &Request{Query: "q", Analysis: &domquery.Analysis{Original: "q", Enhanced: "q"}}
}

func TestRanker_StockAvailability(t *testing.T) {
	req := plainRequest()
	req.Analysis.Intent.Availability = true

	inStock := product("in", "ถ้วย")
	inStock.StockQuantity = intPtr(12)
	outOfStock := product("out", "ถ้วย")
	outOfStock.StockQuantity = intPtr(0)

	got := NewRanker(Config{}).Rank([]domain.Candidate{
		{Product: outOfStock, Score: 0.2},
		{Product: inStock, Score: 0.2},
	}, req)

	require.NotEmpty(t, got)
	assert.Equal(t, "in", got[0].ID)
	assert.InDelta(t, 12.0, got[0].BoostedScore, 1e-9)
	assert.InDelta(t, boostStock, got[0].BoostFactors[result.FactorStock], 1e-9)
	for _, r := range got[1:] {
		assert.Less(t, r.BoostedScore, got[0].BoostedScore)
	}
}

func TestRanker_DropsNonPositive(t *testing.T) {
	req := plainRequest()
	req.Analysis.Intent.Availability = true

	got := NewRanker(Config{}).Rank([]domain.Candidate{{Product: product("p1", "ถ้วย"), Score: 0.5}}, req)
	assert.Empty(t, got, "5 - 10 is not positive")
}

func TestRanker_AttributeBoosts(t *testing.T) {
	req := newRequest("แก้วกระดาษ 16 oz", domain.ConversationState{})

	got := NewRanker(Config{}).Rank([]domain.Candidate{
		{Product: product("match", "ถ้วย paper 16oz"), Score: 0.5},
		{Product: product("plain", "จานโฟม"), Score: 0.5},
	}, req)

	require.Len(t, got, 2)
	top := got[0]
	assert.Equal(t, "match", top.ID)
	assert.Equal(t, boostDimension, top.BoostFactors[result.FactorDimension])
	assert.Equal(t, boostMaterial, top.BoostFactors[result.FactorMaterial])
	assert.Equal(t, boostType, top.BoostFactors[result.FactorType])
	assert.Equal(t, boostSharedNumber, top.BoostFactors[result.FactorSharedNumber])
	assert.InDelta(t, 5+15+12+15+15, top.BoostedScore, 1e-9)

	assert.InDelta(t, 5.0, got[1].BoostedScore, 1e-9)
	assert.Equal(t, map[string]float64{result.FactorBase: 5}, got[1].BoostFactors)
}

func TestRanker_FollowUpContinuity(t *testing.T) {
	req := newRequest("ราคาเท่าไหร่", recentState("p2", time.Minute))
	require.True(t, req.Analysis.FollowUp)

	got := NewRanker(Config{}).Rank([]domain.Candidate{
		{Product: product("p1", "ถ้วย"), Score: 0.9},
		{Product: product("p2", "ฝา"), Score: 0.5},
	}, req)

	require.Len(t, got, 2)
	assert.Equal(t, "p2", got[0].ID)
	assert.Equal(t, boostFollowUp, got[0].BoostFactors[result.FactorFollowUp])

	req.Analysis.FollowUp = false
	got = NewRanker(Config{}).Rank([]domain.Candidate{
		{Product: product("p1", "ถ้วย"), Score: 0.9},
		{Product: product("p2", "ฝา"), Score: 0.5},
	}, req)
	assert.Equal(t, "p1", got[0].ID)
}

func TestRanker_HistoricalSeeds(t *testing.T) {
	req := plainRequest()
	seen := result.Interaction{Count: 3, LastSeen: time.Now()}
	req.Context = conversation.Summary{
		RelevantProducts: []domain.Product{product("old", "ฝาโดม")},
		ProductInterests: map[string]result.Interaction{"old": seen},
	}

	got := NewRanker(Config{}).Rank([]domain.Candidate{
		{Product: product("old", "ฝาโดม"), Score: 1},
		{Product: product("new", "ถ้วย"), Score: 1},
	}, req)

	assert.Equal(t, []string{"old", "new"}, resultIDs(got))
	assert.Equal(t, historicalBaseline, got[0].BoostedScore)
	assert.Equal(t, historicalBaseline, got[0].BoostFactors[result.FactorHistoricalInterest])
	require.NotNil(t, got[0].Interaction)
	assert.Equal(t, 3, got[0].Interaction.Count)
	assert.Nil(t, got[1].Interaction)
}

func TestRanker_StableTruncation(t *testing.T) {
	var cands []domain.Candidate
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		cands = append(cands, domain.Candidate{Product: product(id, "ถ้วย"), Score: 0.4})
	}

	got := NewRanker(Config{}).Rank(cands, plainRequest())
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, resultIDs(got))

	got = NewRanker(Config{TopResults: 2}).Rank(cands, plainRequest())
	assert.Equal(t, []string{"a", "b"}, resultIDs(got))
}

func TestRanker_Deterministic(t *testing.T) {
	req := newRequest("แก้ว 16 oz มีของไหม", domain.ConversationState{})
	cands := []domain.Candidate{
		{Product: product("p1", "ถ้วย 16 oz"), Score: 0.3},
		{Product: product("p2", "แก้ว 22 oz"), Score: 0.6},
	}
	r := NewRanker(Config{})
	assert.Equal(t, r.Rank(cands, req), r.Rank(cands, req))
}
