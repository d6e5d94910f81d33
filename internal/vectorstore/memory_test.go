package vectorstore

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitVec(dim, axis int) []float32 {
	v := make([]float32, dim)
	v[axis] = 1
	return v
}

func TestMemoryStore_AddValidation(t *testing.T) {
	store, err := NewMemoryStore(4, nil)
	require.NoError(t, err)
	ctx := context.Background()

	err = store.Add(ctx, nil)
	assert.ErrorIs(t, err, ErrEmptyEntries)

	err = store.Add(ctx, []Entry{{ID: "a", Embedding: []float32{1, 0}}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	err = store.Add(ctx, []Entry{{Embedding: unitVec(4, 0)}})
	assert.Error(t, err)
}

func TestMemoryStore_QueryRanksBySimilarity(t *testing.T) {
	store, err := NewMemoryStore(3, nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, []Entry{
		{ID: "exact", Embedding: []float32{1, 0, 0}},
		{ID: "close", Embedding: []float32{0.9, 0.1, 0}},
		{ID: "orthogonal", Embedding: []float32{0, 1, 0}},
		{ID: "opposite", Embedding: []float32{-1, 0, 0}},
	}))

	results, err := store.Query(ctx, []float32{1, 0, 0}, 4, nil)
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, "exact", results[0].ID)
	assert.Equal(t, "close", results[1].ID)
	assert.Equal(t, "orthogonal", results[2].ID)
	assert.Equal(t, "opposite", results[3].ID)

	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.InDelta(t, 0.0, results[2].Score, 1e-6)
	assert.InDelta(t, -1.0, results[3].Score, 1e-6)
}

func TestMemoryStore_QueryTopK(t *testing.T) {
	store, err := NewMemoryStore(2, nil)
	require.NoError(t, err)
	ctx := context.Background()

	entries := make([]Entry, 10)
	for i := range entries {
		entries[i] = Entry{ID: fmt.Sprintf("e%02d", i), Embedding: []float32{1, float32(i)}}
	}
	require.NoError(t, store.Add(ctx, entries))

	results, err := store.Query(ctx, []float32{1, 0}, 3, nil)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	// e00 is parallel to the query, the rest diverge as i grows.
	assert.Equal(t, "e00", results[0].ID)
	assert.Equal(t, "e01", results[1].ID)
	assert.Equal(t, "e02", results[2].ID)
}

func TestMemoryStore_TieBreakByID(t *testing.T) {
	store, err := NewMemoryStore(2, nil)
	require.NoError(t, err)
	ctx := context.Background()

	// All entries identical, so every score ties.
	require.NoError(t, store.Add(ctx, []Entry{
		{ID: "c", Embedding: []float32{1, 1}},
		{ID: "a", Embedding: []float32{1, 1}},
		{ID: "b", Embedding: []float32{1, 1}},
	}))

	results, err := store.Query(ctx, []float32{1, 1}, 3, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "b", results[1].ID)
	assert.Equal(t, "c", results[2].ID)
}

func TestMemoryStore_ZeroVectorScoresZero(t *testing.T) {
	store, err := NewMemoryStore(3, nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, []Entry{
		{ID: "degraded", Embedding: make([]float32, 3)},
		{ID: "real", Embedding: []float32{0, 0, 1}},
	}))

	results, err := store.Query(ctx, []float32{0, 0, 1}, 2, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "real", results[0].ID)
	assert.Equal(t, "degraded", results[1].ID)
	assert.Equal(t, float32(0), results[1].Score)
	assert.False(t, math.IsNaN(float64(results[1].Score)))

	// Zero query vector: everything scores 0, order falls back to ID.
	results, err = store.Query(ctx, make([]float32, 3), 2, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "degraded", results[0].ID)
	assert.Equal(t, float32(0), results[0].Score)
	assert.Equal(t, float32(0), results[1].Score)
}

func TestMemoryStore_Filters(t *testing.T) {
	store, err := NewMemoryStore(2, nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, []Entry{
		{ID: "a", DocumentID: "doc1", Metadata: map[string]string{"category": "academic"}, Embedding: []float32{1, 0}},
		{ID: "b", DocumentID: "doc2", Metadata: map[string]string{"category": "general"}, Embedding: []float32{1, 0}},
	}))

	results, err := store.Query(ctx, []float32{1, 0}, 5, map[string]string{"category": "academic"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "doc1", results[0].DocumentID)

	results, err = store.Query(ctx, []float32{1, 0}, 5, map[string]string{"document_id": "doc2"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].ID)
}

func TestMemoryStore_Delete(t *testing.T) {
	store, err := NewMemoryStore(2, nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, []Entry{
		{ID: "a", Embedding: []float32{1, 0}},
		{ID: "b", Embedding: []float32{0, 1}},
	}))

	require.NoError(t, store.Delete(ctx, []string{"a", "missing"}))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	results, err := store.Query(ctx, []float32{1, 0}, 5, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].ID)
}
