package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/answerd/internal/document"
	"github.com/fyrsmithlabs/answerd/internal/vectorstore"
)

// IngestRequest describes a document to ingest.
type IngestRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`

	// Category is optional; empty means auto-detect from content.
	Category string `json:"category,omitempty"`

	// SessionID, when set, marks the document as recently active for
	// that session so follow-up questions bias toward it.
	SessionID string `json:"session_id,omitempty"`
}

// IngestResult reports the outcome of an ingestion.
type IngestResult struct {
	DocumentID   string `json:"document_id"`
	ChunkCount   int    `json:"chunk_count"`
	Category     string `json:"category"`
	Deduplicated bool   `json:"deduplicated"`
}

// categoryRules map content keywords to a category. Ordered so that score
// ties resolve deterministically.
var categoryRules = []struct {
	name     string
	keywords []string
}{
	{"faq", []string{"frequently asked", "question", "answer", "faq", "q&a"}},
	{"documentation", []string{"documentation", "manual", "guide", "tutorial", "how to", "instructions"}},
	{"policy", []string{"policy", "terms", "conditions", "privacy", "legal", "compliance"}},
	{"product", []string{"product", "feature", "specification", "technical", "api", "sdk"}},
	{"support", []string{"support", "troubleshooting", "help", "issue", "problem", "solution"}},
	{"onboarding", []string{"onboarding", "getting started", "setup", "installation", "quickstart"}},
}

// detectCategory scores each category by keyword hits and returns the
// best match, or "general" when nothing matches.
func detectCategory(content string) string {
	lower := strings.ToLower(content)

	best, bestScore := "general", 0
	for _, rule := range categoryRules {
		score := 0
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = rule.name, score
		}
	}
	return best
}

// Ingest stores a document, chunks it, embeds the chunks, and indexes
// them for retrieval. Re-ingesting identical content returns the existing
// document without reprocessing.
func (e *Engine) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	ctx, span := engineTracer.Start(ctx, "engine.ingest")
	defer span.End()

	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}
	if len(req.Content) > e.config.MaxContentBytes {
		return nil, fmt.Errorf("%w: content exceeds %d bytes", ErrValidation, e.config.MaxContentBytes)
	}

	hash := document.HashContent(req.Content)
	if existing, err := e.repo.GetDocumentByHash(ctx, hash); err == nil {
		e.touchSession(ctx, req.SessionID, existing.ID)
		e.logger.Info(ctx, "duplicate content, reusing document",
			zap.String("document_id", existing.ID),
			zap.String("title", req.Title))
		span.SetAttributes(attribute.Bool("deduplicated", true))
		span.SetStatus(codes.Ok, "")
		chunks, err := e.repo.ChunksByDocument(ctx, existing.ID)
		if err != nil {
			chunks = nil
		}
		return &IngestResult{
			DocumentID:   existing.ID,
			ChunkCount:   len(chunks),
			Category:     existing.Category,
			Deduplicated: true,
		}, nil
	} else if !errors.Is(err, document.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "hash lookup failed")
		return nil, fmt.Errorf("failed to check for existing document: %w", err)
	}

	category := req.Category
	if category == "" {
		category = detectCategory(req.Content)
	}

	now := timeNow()
	doc := &document.Document{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Content:     req.Content,
		ContentHash: hash,
		Category:    category,
		Status:      document.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.repo.CreateDocument(ctx, doc); err != nil {
		if errors.Is(err, document.ErrDuplicate) {
			// Lost a race with a concurrent identical upload.
			if existing, getErr := e.repo.GetDocumentByHash(ctx, hash); getErr == nil {
				e.touchSession(ctx, req.SessionID, existing.ID)
				span.SetAttributes(attribute.Bool("deduplicated", true))
				span.SetStatus(codes.Ok, "")
				return &IngestResult{DocumentID: existing.ID, Category: existing.Category, Deduplicated: true}, nil
			}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	result, err := e.process(ctx, doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "processing failed")
		return nil, err
	}

	e.touchSession(ctx, req.SessionID, doc.ID)

	e.logger.Info(ctx, "document ingested",
		zap.String("document_id", doc.ID),
		zap.String("category", category),
		zap.Int("chunks", result.ChunkCount))
	span.SetAttributes(attribute.Int("chunks", result.ChunkCount))
	span.SetStatus(codes.Ok, "")
	return result, nil
}

// process chunks, embeds, and indexes a freshly created document,
// tracking its status through the pipeline. Storage writes get one retry;
// a second failure marks the document failed and surfaces the error.
func (e *Engine) process(ctx context.Context, doc *document.Document) (*IngestResult, error) {
	if err := retryOnce(ctx, func() error {
		return e.repo.UpdateStatus(ctx, doc.ID, document.StatusProcessing, "")
	}); err != nil {
		return nil, fmt.Errorf("failed to mark document processing: %w", err)
	}

	texts := e.splitter.Split(doc.Content)

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, e.fail(ctx, doc.ID, fmt.Errorf("failed to embed chunks: %w", err))
	}

	chunks := make([]document.Chunk, len(texts))
	entries := make([]vectorstore.Entry, len(texts))
	for i, text := range texts {
		id := fmt.Sprintf("%s-%04d", doc.ID, i)
		chunks[i] = document.Chunk{
			ID:         id,
			DocumentID: doc.ID,
			Index:      i,
			Text:       text,
			Embedding:  vectors[i],
			TokenCount: estimateTokens(text),
			CharCount:  len(text),
		}
		entries[i] = vectorstore.Entry{
			ID:         id,
			DocumentID: doc.ID,
			Text:       text,
			Metadata: map[string]string{
				"title":       doc.Title,
				"category":    doc.Category,
				"document_id": doc.ID,
			},
			Embedding: vectors[i],
		}
	}

	if err := retryOnce(ctx, func() error { return e.repo.CreateChunks(ctx, chunks) }); err != nil {
		return nil, e.fail(ctx, doc.ID, fmt.Errorf("failed to store chunks: %w", err))
	}
	if err := retryOnce(ctx, func() error { return e.store.Add(ctx, entries) }); err != nil {
		return nil, e.fail(ctx, doc.ID, fmt.Errorf("failed to index chunks: %w", err))
	}

	if err := retryOnce(ctx, func() error {
		return e.repo.UpdateStatus(ctx, doc.ID, document.StatusCompleted, "")
	}); err != nil {
		return nil, fmt.Errorf("failed to mark document completed: %w", err)
	}

	return &IngestResult{
		DocumentID: doc.ID,
		ChunkCount: len(chunks),
		Category:   doc.Category,
	}, nil
}

// fail records the processing error on the document and returns err.
func (e *Engine) fail(ctx context.Context, docID string, err error) error {
	if statusErr := e.repo.UpdateStatus(ctx, docID, document.StatusFailed, err.Error()); statusErr != nil {
		e.logger.Error(ctx, "failed to record document failure",
			zap.String("document_id", docID),
			zap.Error(statusErr))
	}
	return err
}

// touchSession records document activity for a session, best effort.
func (e *Engine) touchSession(ctx context.Context, sessionID, documentID string) {
	if sessionID == "" {
		return
	}
	if err := e.sessions.TouchDocument(ctx, sessionID, documentID); err != nil {
		e.logger.Warn(ctx, "failed to record document activity",
			zap.String("session_id", sessionID),
			zap.String("document_id", documentID),
			zap.Error(err))
	}
}

// ListDocuments returns ingested documents, newest first, optionally
// filtered by category.
func (e *Engine) ListDocuments(ctx context.Context, category string, limit, offset int) ([]*document.Document, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return e.repo.ListDocuments(ctx, category, limit, offset)
}

// GetDocument returns a single document by ID.
func (e *Engine) GetDocument(ctx context.Context, id string) (*document.Document, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: document ID is required", ErrValidation)
	}
	return e.repo.GetDocument(ctx, id)
}

// DeleteDocument removes a document, its stored chunks, and its vector
// index entries.
func (e *Engine) DeleteDocument(ctx context.Context, id string) error {
	ctx, span := engineTracer.Start(ctx, "engine.delete_document")
	defer span.End()

	if id == "" {
		return fmt.Errorf("%w: document ID is required", ErrValidation)
	}

	chunks, err := e.repo.ChunksByDocument(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chunk lookup failed")
		return err
	}
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	if len(ids) > 0 {
		if err := retryOnce(ctx, func() error { return e.store.Delete(ctx, ids) }); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "index delete failed")
			return fmt.Errorf("failed to remove index entries: %w", err)
		}
	}
	if err := retryOnce(ctx, func() error { return e.repo.DeleteDocument(ctx, id) }); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}
