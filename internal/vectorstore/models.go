package vectorstore

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for vector store operations.
var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyEntries indicates an empty or nil entry batch.
	ErrEmptyEntries = errors.New("empty or nil entries")

	// ErrDimensionMismatch indicates an embedding whose dimension does not
	// match the store's configured vector size.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Entry is a stored chunk vector with its text and metadata.
type Entry struct {
	// ID uniquely identifies the entry. Required.
	ID string

	// DocumentID references the owning document.
	DocumentID string

	// Text is the chunk content.
	Text string

	// Metadata holds filterable attributes (e.g. category, document_id).
	Metadata map[string]string

	// Embedding is the chunk vector. Its length must match the store's
	// configured vector size.
	Embedding []float32
}

// SearchResult is a single ranked hit from a similarity query.
type SearchResult struct {
	ID         string            `json:"id"`
	DocumentID string            `json:"document_id"`
	Text       string            `json:"text"`
	Score      float32           `json:"score"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Store ranks stored chunk vectors against query vectors.
//
// Implementations must order results by descending score with ties broken
// by ascending entry ID, and must never return NaN scores (degraded
// zero-magnitude vectors score 0).
type Store interface {
	// Add stores a batch of entries. Entries with an existing ID are
	// overwritten.
	Add(ctx context.Context, entries []Entry) error

	// Query returns up to k entries most similar to the given vector,
	// restricted to entries whose metadata matches all filter pairs.
	// A nil filter matches everything.
	Query(ctx context.Context, vector []float32, k int, filters map[string]string) ([]SearchResult, error)

	// Delete removes entries by ID. Unknown IDs are ignored.
	Delete(ctx context.Context, ids []string) error

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Close releases resources held by the store.
	Close() error
}

func validateEntries(entries []Entry, vectorSize int) error {
	if len(entries) == 0 {
		return ErrEmptyEntries
	}
	for i, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("entry at index %d has no ID", i)
		}
		if len(e.Embedding) != vectorSize {
			return fmt.Errorf("%w: entry %s has dimension %d, store expects %d",
				ErrDimensionMismatch, e.ID, len(e.Embedding), vectorSize)
		}
	}
	return nil
}

func validateQuery(vector []float32, k, vectorSize int) error {
	if k <= 0 {
		return fmt.Errorf("k must be positive, got %d", k)
	}
	if len(vector) != vectorSize {
		return fmt.Errorf("%w: query has dimension %d, store expects %d",
			ErrDimensionMismatch, len(vector), vectorSize)
	}
	return nil
}

func matchesFilters(metadata, filters map[string]string) bool {
	for k, v := range filters {
		if metadata[k] != v {
			return false
		}
	}
	return true
}
