package vectorstore

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The native chromem path and the brute-force fallback must produce the
// same ranking for the same corpus, so the engine can switch between them
// without changing retrieval behavior.
func TestChromemAndMemoryStoresAgreeOnRanking(t *testing.T) {
	const (
		dim     = 16
		corpus  = 40
		queries = 10
		topK    = 5
	)

	chromemStore, err := NewChromemStore(ChromemConfig{VectorSize: dim}, nil)
	require.NoError(t, err)
	memStore, err := NewMemoryStore(dim, nil)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	randVec := func() []float32 {
		v := make([]float32, dim)
		for i := range v {
			v[i] = rng.Float32()*2 - 1
		}
		return v
	}

	ctx := context.Background()
	entries := make([]Entry, corpus)
	for i := range entries {
		entries[i] = Entry{
			ID:         fmt.Sprintf("chunk_%03d", i),
			DocumentID: fmt.Sprintf("doc_%d", i%4),
			Text:       fmt.Sprintf("chunk text %d", i),
			Embedding:  randVec(),
		}
	}
	require.NoError(t, chromemStore.Add(ctx, entries))
	require.NoError(t, memStore.Add(ctx, entries))

	for q := 0; q < queries; q++ {
		query := randVec()

		native, err := chromemStore.Query(ctx, query, topK, nil)
		require.NoError(t, err)
		fallback, err := memStore.Query(ctx, query, topK, nil)
		require.NoError(t, err)

		require.Len(t, native, topK, "query %d", q)
		require.Len(t, fallback, topK, "query %d", q)

		for i := range native {
			assert.Equal(t, fallback[i].ID, native[i].ID, "query %d rank %d", q, i)
			assert.InDelta(t, fallback[i].Score, native[i].Score, 1e-5, "query %d rank %d", q, i)
		}
	}
}

// Identical embeddings tie on similarity, so the ascending-ID tie-break
// must also decide which entries make the top-k cut, on both paths,
// regardless of insertion order.
func TestChromemAndMemoryStoresAgreeOnTiedCut(t *testing.T) {
	const (
		dim  = 8
		topK = 3
	)
	ctx := context.Background()

	chromemStore, err := NewChromemStore(ChromemConfig{VectorSize: dim}, nil)
	require.NoError(t, err)
	memStore, err := NewMemoryStore(dim, nil)
	require.NoError(t, err)

	for _, i := range []int{3, 0, 5, 2, 4, 1} {
		entry := Entry{
			ID:        fmt.Sprintf("chunk_%d", i),
			Text:      fmt.Sprintf("chunk text %d", i),
			Embedding: unitVec(dim, 0),
		}
		require.NoError(t, chromemStore.Add(ctx, []Entry{entry}))
		require.NoError(t, memStore.Add(ctx, []Entry{entry}))
	}

	native, err := chromemStore.Query(ctx, unitVec(dim, 0), topK, nil)
	require.NoError(t, err)
	fallback, err := memStore.Query(ctx, unitVec(dim, 0), topK, nil)
	require.NoError(t, err)

	require.Len(t, native, topK)
	require.Len(t, fallback, topK)
	for i, want := range []string{"chunk_0", "chunk_1", "chunk_2"} {
		assert.Equal(t, want, native[i].ID, "rank %d", i)
		assert.Equal(t, want, fallback[i].ID, "rank %d", i)
	}
}

func TestChromemStore_EmptyCollection(t *testing.T) {
	store, err := NewChromemStore(ChromemConfig{VectorSize: 4}, nil)
	require.NoError(t, err)

	results, err := store.Query(context.Background(), unitVec(4, 0), 5, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestChromemStore_Persistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewChromemStore(ChromemConfig{Path: dir, VectorSize: 4}, nil)
	require.NoError(t, err)
	require.NoError(t, store.Add(ctx, []Entry{
		{ID: "a", DocumentID: "doc1", Text: "hello", Embedding: unitVec(4, 0)},
	}))
	require.NoError(t, store.Close())

	// Reopen from the same path.
	store, err = NewChromemStore(ChromemConfig{Path: dir, VectorSize: 4}, nil)
	require.NoError(t, err)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	results, err := store.Query(ctx, unitVec(4, 0), 1, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "doc1", results[0].DocumentID)
	assert.Equal(t, "hello", results[0].Text)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)
}

func TestChromemStore_FiltersAndDelete(t *testing.T) {
	store, err := NewChromemStore(ChromemConfig{VectorSize: 2}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, []Entry{
		{ID: "a", DocumentID: "doc1", Metadata: map[string]string{"category": "academic"}, Embedding: []float32{1, 0}},
		{ID: "b", DocumentID: "doc2", Metadata: map[string]string{"category": "general"}, Embedding: []float32{0.9, 0.1}},
	}))

	results, err := store.Query(ctx, []float32{1, 0}, 5, map[string]string{"category": "general"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].ID)

	require.NoError(t, store.Delete(ctx, []string{"a"}))
	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
