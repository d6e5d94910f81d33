package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_AppendAndHistory(t *testing.T) {
	store, err := NewMemoryStore(Config{})
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.AppendExchange(ctx, "sess1", Exchange{Question: fmt.Sprintf("q%d", i)}))
	}

	history, err := store.History(ctx, "sess1", 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "q0", history[0].Question)
	assert.Equal(t, "q2", history[2].Question)
}

func TestMemoryStore_HistoryLimit(t *testing.T) {
	store, err := NewMemoryStore(Config{HistoryLimit: 4})
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, store.AppendExchange(ctx, "sess1", Exchange{Question: fmt.Sprintf("q%d", i)}))
	}

	history, err := store.History(ctx, "sess1", 0)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, "q6", history[0].Question)
	assert.Equal(t, "q9", history[3].Question)
}

func TestMemoryStore_LazyExpiry(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := base
	timeNow = func() time.Time { return now }
	defer func() { timeNow = time.Now }()

	store, err := NewMemoryStore(Config{TTL: time.Hour})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.AppendExchange(ctx, "sess1", Exchange{Question: "q"}))

	// Reading refreshes the TTL.
	now = base.Add(30 * time.Minute)
	history, err := store.History(ctx, "sess1", 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	now = base.Add(80 * time.Minute) // 50 min after the refresh
	history, err = store.History(ctx, "sess1", 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	// Idle past the TTL: gone.
	now = now.Add(2 * time.Hour)
	history, err = store.History(ctx, "sess1", 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestMemoryStore_RecentDocuments(t *testing.T) {
	store, err := NewMemoryStore(Config{RecentDocsLimit: 3})
	require.NoError(t, err)
	ctx := context.Background()

	for _, id := range []string{"doc1", "doc2", "doc3"} {
		require.NoError(t, store.TouchDocument(ctx, "sess1", id))
	}

	docs, err := store.RecentDocuments(ctx, "sess1", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc3", "doc2", "doc1"}, docs)

	require.NoError(t, store.TouchDocument(ctx, "sess1", "doc2"))
	docs, err = store.RecentDocuments(ctx, "sess1", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc2", "doc3", "doc1"}, docs)

	require.NoError(t, store.TouchDocument(ctx, "sess1", "doc4"))
	docs, err = store.RecentDocuments(ctx, "sess1", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc4", "doc2", "doc3"}, docs)
}

func TestMemoryStore_RecentDocumentsRefreshTTL(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := base
	timeNow = func() time.Time { return now }
	defer func() { timeNow = time.Now }()

	store, err := NewMemoryStore(Config{TTL: time.Hour})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.TouchDocument(ctx, "sess1", "doc1"))

	// Reading refreshes the TTL like History does.
	now = base.Add(50 * time.Minute)
	docs, err := store.RecentDocuments(ctx, "sess1", 0)
	require.NoError(t, err)
	require.Equal(t, []string{"doc1"}, docs)

	now = now.Add(50 * time.Minute) // 100 min after touch, 50 after the read
	docs, err = store.RecentDocuments(ctx, "sess1", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc1"}, docs)

	now = now.Add(2 * time.Hour)
	docs, err = store.RecentDocuments(ctx, "sess1", 0)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestMemoryStore_Clear(t *testing.T) {
	store, err := NewMemoryStore(Config{})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.AppendExchange(ctx, "sess1", Exchange{Question: "q"}))
	require.NoError(t, store.Clear(ctx, "sess1"))

	history, err := store.History(ctx, "sess1", 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestMemoryStore_SessionIsolation(t *testing.T) {
	store, err := NewMemoryStore(Config{})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.AppendExchange(ctx, "sess1", Exchange{Question: "one"}))
	require.NoError(t, store.AppendExchange(ctx, "sess2", Exchange{Question: "two"}))

	history, err := store.History(ctx, "sess1", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "one", history[0].Question)
}
