package document

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is an in-memory Repository implementation.
//
// It is the reference implementation for tests and single-node deployments
// without a durable store. Thread-safe.
type MemoryRepository struct {
	mu     sync.RWMutex
	docs   map[string]*Document
	byHash map[string]string // content hash -> document ID
	chunks map[string][]Chunk
	byID   map[string]Chunk // chunk ID -> chunk
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		docs:   make(map[string]*Document),
		byHash: make(map[string]string),
		chunks: make(map[string][]Chunk),
		byID:   make(map[string]Chunk),
	}
}

func (r *MemoryRepository) CreateDocument(_ context.Context, doc *Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byHash[doc.ContentHash]; exists {
		return ErrDuplicate
	}

	stored := *doc
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	stored.UpdatedAt = stored.CreatedAt
	r.docs[stored.ID] = &stored
	r.byHash[stored.ContentHash] = stored.ID
	return nil
}

func (r *MemoryRepository) GetDocument(_ context.Context, id string) (*Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (r *MemoryRepository) GetDocumentByHash(_ context.Context, hash string) (*Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byHash[hash]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r.docs[id]
	return &cp, nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, id string, status Status, processingErr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return ErrNotFound
	}
	doc.Status = status
	if status == StatusFailed {
		doc.ProcessingError = processingErr
	} else {
		doc.ProcessingError = ""
	}
	doc.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryRepository) ListDocuments(_ context.Context, category string, limit, offset int) ([]*Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*Document, 0, len(r.docs))
	for _, doc := range r.docs {
		if category != "" && doc.Category != category {
			continue
		}
		cp := *doc
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *MemoryRepository) DeleteDocument(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byHash, doc.ContentHash)
	delete(r.docs, id)
	for _, c := range r.chunks[id] {
		delete(r.byID, c.ID)
	}
	delete(r.chunks, id)
	return nil
}

func (r *MemoryRepository) CreateChunks(_ context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	docID := chunks[0].DocumentID
	if _, ok := r.docs[docID]; !ok {
		return ErrNotFound
	}
	r.chunks[docID] = append(r.chunks[docID], chunks...)
	for _, c := range chunks {
		r.byID[c.ID] = c
	}
	return nil
}

func (r *MemoryRepository) ChunksByDocument(_ context.Context, documentID string) ([]Chunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.docs[documentID]; !ok {
		return nil, ErrNotFound
	}
	out := make([]Chunk, len(r.chunks[documentID]))
	copy(out, r.chunks[documentID])
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

func (r *MemoryRepository) GetChunk(_ context.Context, id string) (*Chunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

// MemoryConversationLog is an in-memory ConversationLog implementation.
type MemoryConversationLog struct {
	mu    sync.RWMutex
	turns map[string]*Turn
}

// NewMemoryConversationLog creates an empty in-memory conversation log.
func NewMemoryConversationLog() *MemoryConversationLog {
	return &MemoryConversationLog{turns: make(map[string]*Turn)}
}

func (l *MemoryConversationLog) AppendTurn(_ context.Context, turn *Turn) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cp := *turn
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	l.turns[cp.ID] = &cp
	return nil
}

func (l *MemoryConversationLog) GetTurn(_ context.Context, id string) (*Turn, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	turn, ok := l.turns[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *turn
	return &cp, nil
}

func (l *MemoryConversationLog) SetFeedback(_ context.Context, id string, rating int, comment string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	turn, ok := l.turns[id]
	if !ok {
		return ErrNotFound
	}
	turn.FeedbackRating = rating
	turn.FeedbackComment = comment
	return nil
}
