package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/chatsearch/internal/domain"
	"github.com/kailas-cloud/chatsearch/internal/domain/search/filter"
)

func newTestMemory(t *testing.T) *Memory {
	t.Helper()
	m := NewMemory(HNSWConfig{}, nil)
	require.NoError(t, m.EnsureCollection(context.Background(), "products", 3))
	require.NoError(t, m.Upsert(context.Background(), "products", []Item{
		{Product: domain.Product{ID: "cup", Name: "แก้ว", Category: "แก้ว", StockQuantity: intPtr(5)}, Vector: []float32{1, 0, 0}},
		{Product: domain.Product{ID: "cup-oos", Name: "แก้ว หมด", Category: "แก้ว", StockQuantity: intPtr(0)}, Vector: []float32{0.9, 0.1, 0}},
		{Product: domain.Product{ID: "box", Name: "กล่อง", Category: "กล่อง"}, Vector: []float32{0, 1, 0}},
	}))
	return m
}

func TestMemory_NearestFirst(t *testing.T) {
	m := newTestMemory(t)
	got, err := m.QueryNearestNeighbors(context.Background(), []float32{2, 0, 0}, 2, filter.Expression{}, "products")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "cup", got[0].Product.ID)
	assert.InDelta(t, 1.0, got[0].Score, 1e-5)
	assert.Equal(t, "cup-oos", got[1].Product.ID)
	assert.Less(t, got[1].Score, got[0].Score)
}

func TestMemory_StockFilter(t *testing.T) {
	m := newTestMemory(t)
	expr := mustExpr(t, filter.InStock())
	got, err := m.QueryNearestNeighbors(context.Background(), []float32{0.9, 0.1, 0}, 5, expr, "products")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "cup", got[0].Product.ID)
}

func TestMemory_CategoryFilter(t *testing.T) {
	m := newTestMemory(t)
	expr := mustExpr(t, mustCategory(t, "กล่อง"))
	got, err := m.QueryNearestNeighbors(context.Background(), []float32{1, 0, 0}, 5, expr, "products")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "box", got[0].Product.ID)
}

func TestMemory_UpsertReplaces(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()
	require.NoError(t, m.Upsert(ctx, "products", []Item{
		{Product: domain.Product{ID: "box", Name: "กล่องใหม่"}, Vector: []float32{0, 0, 1}},
	}))
	assert.Equal(t, 3, m.Len("products"))

	got, err := m.QueryNearestNeighbors(ctx, []float32{0, 0, 1}, 1, filter.Expression{}, "products")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "กล่องใหม่", got[0].Product.Name)

	p, err := m.GetProduct(ctx, "products", "box")
	require.NoError(t, err)
	assert.Equal(t, "กล่องใหม่", p.Name)
}

func TestMemory_Errors(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	_, err := m.QueryNearestNeighbors(ctx, []float32{1, 0, 0}, 1, filter.Expression{}, "unknown")
	require.ErrorIs(t, err, domain.ErrVectorIndexUnavailable)

	_, err = m.QueryNearestNeighbors(ctx, []float32{1, 0}, 1, filter.Expression{}, "products")
	require.Error(t, err)

	_, err = m.GetProduct(ctx, "products", "missing")
	require.ErrorIs(t, err, domain.ErrProductNotFound)

	require.Error(t, m.EnsureCollection(ctx, "products", 4))
	require.Error(t, m.Upsert(ctx, "products", []Item{{Product: domain.Product{ID: "x"}, Vector: []float32{1}}}))
}

func TestMemory_EmptyCollection(t *testing.T) {
	m := NewMemory(HNSWConfig{}, nil)
	require.NoError(t, m.EnsureCollection(context.Background(), "products", 2))
	got, err := m.QueryNearestNeighbors(context.Background(), []float32{1, 0}, 3, filter.Expression{}, "products")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemory_DropCollection(t *testing.T) {
	m := newTestMemory(t)
	n, err := m.Count(context.Background(), "products")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, m.DropCollection(context.Background(), "products"))
	assert.Equal(t, 0, m.Len("products"))

	// A different dimension is accepted once the old collection is gone.
	require.NoError(t, m.EnsureCollection(context.Background(), "products", 5))
}
