package search

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/chatsearch/internal/domain"
	"github.com/kailas-cloud/chatsearch/internal/domain/search/result"
	"github.com/kailas-cloud/chatsearch/internal/repository/kvcache"
	"github.com/kailas-cloud/chatsearch/internal/usecase/conversation"
)

type panickingAnalyzer struct{}

func (panickingAnalyzer) Analyze(context.Context, *domain.ChatHistory, domain.ConversationState) conversation.Summary {
	panic("history index out of range")
}

type fixture struct {
	svc     *Service
	states  *fakeStates
	history *fakeHistory
	cache   *kvcache.Memory
	catalog *fakeCatalog
	index   *fakeIndex
}

func newFixture(t *testing.T, catalog *fakeCatalog) *fixture {
	t.Helper()
	f := &fixture{
		states:  newFakeStates(),
		history: newFakeHistory(),
		cache:   kvcache.NewMemory(64, time.Hour),
		catalog: catalog,
		index:   &fakeIndex{},
	}
	cfg := Config{}
	f.svc = New(Deps{
		States:        f.states,
		History:       f.history,
		HistoryWriter: f.history,
		Analyzer:      conversation.NewAnalyzer(catalog, 0, nil),
		Orchestrator: NewOrchestrator(
			NewVectorStrategy(&fakeEmbedder{vec: []float32{1, 0}}, f.index, cfg),
			NewDirectoryStrategy(catalog, cfg),
			NewGeneralKeywordStrategy(catalog, cfg),
			NewContextStrategy(f.cache, f.index, catalog, cfg),
			NewHistoricalInterestStrategy(),
		),
		Cache: f.cache,
	}, cfg)
	return f
}

func TestSearchProducts_EmptyQuery(t *testing.T) {
	f := newFixture(t, &fakeCatalog{})

	for _, q := range []string{"", "   ", "\t\n"} {
		resp := f.svc.SearchProducts(context.Background(), q, "u1")
		assert.Equal(t, result.MethodFallback, resp.Metadata.SearchMethod)
		assert.Empty(t, resp.Results)
		assert.NotNil(t, resp.Results)
	}
	assert.Zero(t, f.states.sets)
	assert.Empty(t, f.history.messages)
}

func TestSearchProducts_DirectoryFallback(t *testing.T) {
	f := newFixture(t, &fakeCatalog{scan: []domain.Product{
		product("p1", "ถ้วยกระดาษ 16 oz"),
		product("p2", "ถุงหูหิ้ว"),
	}})

	resp := f.svc.SearchProducts(context.Background(), "แก้ว 16 oz", "u1")

	assert.Equal(t, StageDirectory, resp.Metadata.SearchMethod)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "p1", resp.Results[0].ID)
	assert.Equal(t, len(resp.Results), resp.Metadata.TotalResults)
	require.NotNil(t, resp.Analysis)
	assert.Equal(t, "แก้ว 16 oz", resp.Analysis.Original)

	st := f.states.Get(context.Background(), "u1")
	assert.Equal(t, "p1", st.LastProductID)
	assert.Equal(t, "ถ้วยกระดาษ 16 oz", st.LastProductName)
	assert.Equal(t, "แก้ว 16 oz", st.LastQuery)
	assert.False(t, st.LastQueryTime.IsZero())
}

func TestSearchProducts_FollowUpUsesLastProduct(t *testing.T) {
	f := newFixture(t, &fakeCatalog{byID: map[string]domain.Product{"p1": product("p1", "ถ้วยกระดาษ 16 oz")}})
	f.states.states["u1"] = domain.ConversationState{
		UserID:        "u1",
		LastProductID: "p1",
		LastQueryTime: time.Now().Add(-60 * time.Second),
	}

	resp := f.svc.SearchProducts(context.Background(), "ราคาเท่าไหร่", "u1")

	assert.Equal(t, StageContext, resp.Metadata.SearchMethod)
	assert.Equal(t, []string{"p1"}, resultIDs(resp.Results))
	assert.True(t, resp.Analysis.FollowUp)
	assert.True(t, resp.Analysis.Intent.Price)
	assert.Equal(t, boostFollowUp, resp.Results[0].BoostFactors[result.FactorFollowUp])
}

func TestSearchProducts_Idempotent(t *testing.T) {
	f := newFixture(t, &fakeCatalog{scan: []domain.Product{
		product("p1", "ถ้วยกระดาษ 16 oz"),
		product("p2", "แก้วพลาสติก 16 oz"),
	}})
	f.states.readOnly = true
	f.svc.deps.HistoryWriter = nil

	first := f.svc.SearchProducts(context.Background(), "แก้ว 16 oz", "u1")
	second := f.svc.SearchProducts(context.Background(), "แก้ว 16 oz", "u1")

	assert.Equal(t, resultIDs(first.Results), resultIDs(second.Results))
	assert.Equal(t, first.Metadata.SearchMethod, second.Metadata.SearchMethod)
	assert.Equal(t, first.Analysis, second.Analysis)
}

func TestSearchProducts_InternalFailure(t *testing.T) {
	f := newFixture(t, &fakeCatalog{scan: []domain.Product{product("p1", "ถ้วยกระดาษ 16 oz")}})
	f.svc.deps.Analyzer = panickingAnalyzer{}

	resp := f.svc.SearchProducts(context.Background(), "แก้ว 16 oz", "u1")

	assert.Equal(t, result.MethodFailed, resp.Metadata.SearchMethod)
	assert.Empty(t, resp.Results)
	assert.Contains(t, resp.Metadata.Error, "history index out of range")
}

func TestSearchProducts_NothingFound(t *testing.T) {
	f := newFixture(t, &fakeCatalog{scan: []domain.Product{product("p1", "ช้อนพลาสติก")}})

	resp := f.svc.SearchProducts(context.Background(), "เครื่องปั่นน้ำผลไม้ไฟฟ้า", "u1")

	assert.Equal(t, result.MethodNone, resp.Metadata.SearchMethod)
	assert.Empty(t, resp.Results)
	assert.Zero(t, f.states.sets)
}

func TestSearchProducts_RecordsHistory(t *testing.T) {
	f := newFixture(t, &fakeCatalog{scan: []domain.Product{product("p1", "ถ้วยกระดาษ 16 oz")}})

	f.svc.SearchProducts(context.Background(), "แก้ว 16 oz", "u1")

	msgs := f.history.messages["u1"]
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.RoleUser, msgs[0].Role)
	assert.Equal(t, "แก้ว 16 oz", msgs[0].Content)
	assert.Equal(t, domain.RoleAssistant, msgs[1].Role)
	require.Len(t, msgs[1].Products, 1)
	assert.Equal(t, "p1", msgs[1].Products[0].ID)
}

func TestSearchProducts_HistoricalInterestOnLaterTurn(t *testing.T) {
	catalog := &fakeCatalog{
		scan: []domain.Product{product("p1", "ถ้วยกระดาษ 16 oz")},
		byID: map[string]domain.Product{"p1": product("p1", "ถ้วยกระดาษ 16 oz")},
	}
	f := newFixture(t, catalog)

	f.svc.SearchProducts(context.Background(), "แก้ว 16 oz", "u1")
	resp := f.svc.SearchProducts(context.Background(), "ราคาเท่าไหร่", "u1")

	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "p1", resp.Results[0].ID)
	require.NotNil(t, resp.Results[0].Interaction)
	assert.Equal(t, 1, resp.Results[0].Interaction.Count)
}

func TestSearchProducts_CachesContext(t *testing.T) {
	f := newFixture(t, &fakeCatalog{scan: []domain.Product{product("p1", "ถ้วยกระดาษ 16 oz")}})

	f.svc.SearchProducts(context.Background(), "แก้ว 16 oz", "u1")

	data, err := f.cache.Get(context.Background(), kvcache.NamespaceContext, "u1")
	require.NoError(t, err)
	var cc cachedContext
	require.NoError(t, json.Unmarshal(data, &cc))
	assert.Equal(t, "แก้ว 16 oz", cc.Query)
	assert.Equal(t, []string{"p1"}, cc.ProductIDs)
}

func TestSearchProducts_HistoryLoadFailureDegrades(t *testing.T) {
	f := newFixture(t, &fakeCatalog{scan: []domain.Product{product("p1", "ถ้วยกระดาษ 16 oz")}})
	f.history.loadErr = assert.AnError

	resp := f.svc.SearchProducts(context.Background(), "แก้ว 16 oz", "u1")
	assert.Equal(t, StageDirectory, resp.Metadata.SearchMethod)
	assert.NotEmpty(t, resp.Results)
}
