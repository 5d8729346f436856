package embcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/chatsearch/internal/domain"
	"github.com/kailas-cloud/chatsearch/internal/repository/kvcache"
)

type mockEmbedder struct {
	result     domain.EmbeddingResult
	err        error
	calls      int
	batchCalls int
	batchTexts []string
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, m.err
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchCalls++
	m.batchTexts = texts
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = m.result.Embedding
	}
	return domain.BatchEmbeddingResult{
		Embeddings:  embeddings,
		TotalTokens: m.result.TotalTokens * len(texts),
	}, nil
}

type failingCache struct{}

func (failingCache) Get(context.Context, string, string) ([]byte, error) {
	return nil, errors.New("cache down")
}

func (failingCache) Set(context.Context, string, string, []byte, time.Duration) error {
	return errors.New("cache down")
}

func newTestCachedEmbedder(inner *mockEmbedder) (*CachedEmbedder, *kvcache.Memory, *prometheus.CounterVec) {
	mem := kvcache.NewMemory(100, time.Hour)
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"result"})
	return New(inner, mem, "test-model", time.Hour, counter, nil), mem, counter
}

func TestEmbed_MissThenHit(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}, TotalTokens: 10}}
	ce, mem, counter := newTestCachedEmbedder(inner)
	ctx := context.Background()

	first, err := ce.Embed(ctx, "แก้ว 16 oz")
	require.NoError(t, err)
	assert.Equal(t, 10, first.TotalTokens)
	assert.Equal(t, 1, mem.Len())

	second, err := ce.Embed(ctx, "แก้ว 16 oz")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, second.Embedding)
	assert.Equal(t, 0, second.TotalTokens)
	assert.Equal(t, 1, inner.calls)

	assert.InDelta(t, 1, testutil.ToFloat64(counter.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(counter.WithLabelValues("miss")), 0)
}

func TestEmbed_KeyIncludesModel(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	mem := kvcache.NewMemory(100, time.Hour)
	a := New(inner, mem, "model-a", 0, nil, nil)
	b := New(inner, mem, "model-b", 0, nil, nil)

	_, err := a.Embed(context.Background(), "x")
	require.NoError(t, err)
	_, err = b.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestEmbed_InnerError(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("provider down")}
	ce, mem, _ := newTestCachedEmbedder(inner)

	_, err := ce.Embed(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, 0, mem.Len())
}

func TestEmbed_EmptyVectorNotCached(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{}}
	ce, mem, _ := newTestCachedEmbedder(inner)

	_, err := ce.Embed(context.Background(), "x")
	require.ErrorIs(t, err, domain.ErrEmptyEmbedding)
	assert.Equal(t, 0, mem.Len())
}

func TestEmbed_CacheFailureFallsThrough(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 2}}}
	ce := New(inner, failingCache{}, "m", 0, nil, nil)

	res, err := ce.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, res.Embedding)
}

func TestBatchEmbed_PartialHits(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.5}, TotalTokens: 3}}
	ce, _, _ := newTestCachedEmbedder(inner)
	ctx := context.Background()

	_, err := ce.Embed(ctx, "b")
	require.NoError(t, err)

	res, err := ce.BatchEmbed(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, res.Embeddings, 3)
	for _, e := range res.Embeddings {
		assert.Equal(t, []float32{0.5}, e)
	}
	assert.Equal(t, []string{"a", "c"}, inner.batchTexts)
	assert.Equal(t, 6, res.TotalTokens)

	_, err = ce.BatchEmbed(ctx, []string{"a", "c"})
	require.NoError(t, err)
	assert.Equal(t, 1, inner.batchCalls)
}

func TestBytesToVector_Invalid(t *testing.T) {
	_, err := bytesToVector([]byte{1, 2, 3})
	require.Error(t, err)
}
