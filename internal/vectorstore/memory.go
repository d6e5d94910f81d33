package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"
)

// MemoryStore implements Store with brute-force cosine similarity over an
// in-process map. It is the fallback path when no embedded database is
// wanted, and the reference implementation the native path must agree with.
type MemoryStore struct {
	vectorSize int
	logger     *zap.Logger

	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore creates a MemoryStore for vectors of the given dimension.
func NewMemoryStore(vectorSize int, logger *zap.Logger) (*MemoryStore, error) {
	if vectorSize <= 0 {
		return nil, fmt.Errorf("%w: vector size must be positive", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		vectorSize: vectorSize,
		logger:     logger,
		entries:    make(map[string]Entry),
	}, nil
}

// Add stores a batch of entries, overwriting any with the same ID.
func (s *MemoryStore) Add(ctx context.Context, entries []Entry) error {
	if err := validateEntries(entries, s.vectorSize); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.entries[e.ID] = e
	}
	return nil
}

// Query scans every stored entry, scoring each by cosine similarity.
func (s *MemoryStore) Query(ctx context.Context, vector []float32, k int, filters map[string]string) ([]SearchResult, error) {
	if err := validateQuery(vector, k, s.vectorSize); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]SearchResult, 0, len(s.entries))
	for _, e := range s.entries {
		md := entryMetadata(e)
		if !matchesFilters(md, filters) {
			continue
		}
		results = append(results, SearchResult{
			ID:         e.ID,
			DocumentID: e.DocumentID,
			Text:       e.Text,
			Score:      cosineSimilarity(vector, e.Embedding),
			Metadata:   md,
		})
	}

	sortResults(results)
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Delete removes entries by ID. Unknown IDs are ignored.
func (s *MemoryStore) Delete(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.entries, id)
	}
	return nil
}

// Count returns the number of stored entries.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Close releases nothing; the store lives entirely in process memory.
func (s *MemoryStore) Close() error { return nil }

// cosineSimilarity computes dot(a,b)/(|a|*|b|). A zero-magnitude vector
// on either side scores 0 rather than NaN, matching the degraded-embedding
// contract.
func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

var _ Store = (*MemoryStore)(nil)
