package document

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Status is the processing state of a document.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Document is an ingested source of knowledge.
type Document struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	ContentHash string    `json:"content_hash"`
	Category    string    `json:"category"`
	Status      Status    `json:"status"`
	// ProcessingError records why processing failed, if it did.
	ProcessingError string    `json:"processing_error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Chunk is a bounded contiguous word-span of a document, the unit of
// retrieval. Chunks are immutable once created.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	// Index is 0-based and contiguous within a document.
	Index      int       `json:"index"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"embedding,omitempty"`
	TokenCount int       `json:"token_count"`
	CharCount  int       `json:"char_count"`
}

// Turn is one question/answer exchange in a session.
type Turn struct {
	ID              string        `json:"id"`
	SessionID       string        `json:"session_id"`
	UserID          string        `json:"user_id,omitempty"`
	Question        string        `json:"question"`
	Answer          string        `json:"answer"`
	Confidence      float64       `json:"confidence"`
	ContextChunkIDs []string      `json:"context_chunk_ids,omitempty"`
	ResponseTime    time.Duration `json:"response_time"`
	// FeedbackRating is 1..5, 0 when unrated.
	FeedbackRating  int       `json:"feedback_rating,omitempty"`
	FeedbackComment string    `json:"feedback_comment,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// HashContent returns the hex-encoded SHA-256 of content, the dedup key
// for ingestion.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
