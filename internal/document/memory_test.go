package document

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDoc(id, title, content string) *Document {
	return &Document{
		ID:          id,
		Title:       title,
		Content:     content,
		ContentHash: HashContent(content),
		Status:      StatusPending,
	}
}

func TestMemoryRepositoryDedupByHash(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	require.NoError(t, repo.CreateDocument(ctx, newDoc("d1", "first", "same content")))

	// Same content under a different title is a duplicate.
	err := repo.CreateDocument(ctx, newDoc("d2", "second", "same content"))
	assert.ErrorIs(t, err, ErrDuplicate)

	existing, err := repo.GetDocumentByHash(ctx, HashContent("same content"))
	require.NoError(t, err)
	assert.Equal(t, "d1", existing.ID)
}

func TestMemoryRepositoryStatusLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	require.NoError(t, repo.CreateDocument(ctx, newDoc("d1", "t", "c")))

	require.NoError(t, repo.UpdateStatus(ctx, "d1", StatusProcessing, ""))
	require.NoError(t, repo.UpdateStatus(ctx, "d1", StatusFailed, "embed error"))

	doc, err := repo.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, doc.Status)
	assert.Equal(t, "embed error", doc.ProcessingError)

	require.NoError(t, repo.UpdateStatus(ctx, "d1", StatusCompleted, ""))
	doc, err = repo.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, doc.ProcessingError)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, "missing", StatusCompleted, ""), ErrNotFound)
}

func TestMemoryRepositoryChunkCascade(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	require.NoError(t, repo.CreateDocument(ctx, newDoc("d1", "t", "c")))

	chunks := []Chunk{
		{ID: "c0", DocumentID: "d1", Index: 0, Text: "alpha"},
		{ID: "c1", DocumentID: "d1", Index: 1, Text: "beta"},
	}
	require.NoError(t, repo.CreateChunks(ctx, chunks))

	got, err := repo.ChunksByDocument(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Index)
	assert.Equal(t, 1, got[1].Index)

	c, err := repo.GetChunk(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "beta", c.Text)

	require.NoError(t, repo.DeleteDocument(ctx, "d1"))
	_, err = repo.GetChunk(ctx, "c0")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.ChunksByDocument(ctx, "d1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepositoryListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	require.NoError(t, repo.CreateDocument(ctx, newDoc("d1", "a", "one")))
	require.NoError(t, repo.CreateDocument(ctx, newDoc("d2", "b", "two")))

	docs, err := repo.ListDocuments(ctx, "", 10, 0)
	require.NoError(t, err)
	require.Len(t, docs, 2)
}

func TestMemoryConversationLogFeedback(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryConversationLog()

	require.NoError(t, log.AppendTurn(ctx, &Turn{ID: "t1", SessionID: "s1", Question: "q", Answer: "a"}))

	require.NoError(t, log.SetFeedback(ctx, "t1", 4, "helpful"))
	turn, err := log.GetTurn(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 4, turn.FeedbackRating)
	assert.Equal(t, "helpful", turn.FeedbackComment)

	assert.ErrorIs(t, log.SetFeedback(ctx, "missing", 5, ""), ErrNotFound)
}
