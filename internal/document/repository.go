package document

import (
	"context"
	"errors"
)

// Sentinel errors for repository operations.
var (
	// ErrNotFound is returned for unknown document, chunk, or turn IDs.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when creating a document whose content hash
	// already exists. Callers normally check GetDocumentByHash first.
	ErrDuplicate = errors.New("document already exists")
)

// Repository is the storage contract for documents and chunks.
//
// The persistence engine behind it is a deployment concern; answerd ships
// an in-memory implementation and expects durable implementations to honor
// the same semantics: hash lookup for dedup, contiguous chunk indexes, and
// cascading chunk deletion.
type Repository interface {
	// CreateDocument stores a new document. Returns ErrDuplicate if a
	// document with the same content hash exists.
	CreateDocument(ctx context.Context, doc *Document) error

	// GetDocument returns the document with the given ID.
	GetDocument(ctx context.Context, id string) (*Document, error)

	// GetDocumentByHash returns the document with the given content hash,
	// or ErrNotFound.
	GetDocumentByHash(ctx context.Context, hash string) (*Document, error)

	// UpdateStatus transitions a document's processing status.
	// processingErr is recorded for StatusFailed and cleared otherwise.
	UpdateStatus(ctx context.Context, id string, status Status, processingErr string) error

	// ListDocuments returns documents, newest first, optionally filtered
	// by category.
	ListDocuments(ctx context.Context, category string, limit, offset int) ([]*Document, error)

	// DeleteDocument removes a document and all its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// CreateChunks stores a batch of chunks for a document.
	CreateChunks(ctx context.Context, chunks []Chunk) error

	// ChunksByDocument returns a document's chunks ordered by index.
	ChunksByDocument(ctx context.Context, documentID string) ([]Chunk, error)

	// GetChunk returns the chunk with the given ID.
	GetChunk(ctx context.Context, id string) (*Chunk, error)
}

// ConversationLog is the durable record of conversation turns.
type ConversationLog interface {
	// AppendTurn stores a completed turn.
	AppendTurn(ctx context.Context, turn *Turn) error

	// GetTurn returns the turn with the given ID.
	GetTurn(ctx context.Context, id string) (*Turn, error)

	// SetFeedback records a rating (1..5) and optional comment on a turn.
	// Feedback fields are the only mutable part of a turn.
	SetFeedback(ctx context.Context, id string, rating int, comment string) error
}
