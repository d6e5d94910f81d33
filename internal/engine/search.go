package engine

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/answerd/internal/document"
	"github.com/fyrsmithlabs/answerd/internal/embeddings"
	"github.com/fyrsmithlabs/answerd/internal/vectorstore"
)

// SearchRequest is a standalone similarity search.
type SearchRequest struct {
	Query string `json:"query"`

	// Category restricts results to a document category when set.
	Category string `json:"category,omitempty"`

	// TopK overrides the engine default when positive.
	TopK int `json:"top_k,omitempty"`
}

// Search embeds the query and returns similar chunks above the
// similarity threshold, best first. A degraded query embedding returns
// no results rather than an error.
func (e *Engine) Search(ctx context.Context, req SearchRequest) ([]vectorstore.SearchResult, error) {
	ctx, span := engineTracer.Start(ctx, "engine.search")
	defer span.End()

	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: query is required", ErrValidation)
	}
	topK := req.TopK
	if topK <= 0 {
		topK = e.config.TopK
	}

	vec, err := e.embedder.EmbedQuery(ctx, req.Query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "embedding failed")
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if embeddings.IsZeroVector(vec) {
		e.logger.Warn(ctx, "query embedding degraded, returning no results")
		span.SetStatus(codes.Ok, "")
		return []vectorstore.SearchResult{}, nil
	}

	var filters map[string]string
	if req.Category != "" {
		filters = map[string]string{"category": req.Category}
	}

	results, err := e.store.Query(ctx, vec, topK, filters)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("search failed: %w", err)
	}
	results = aboveThreshold(results, e.config.SimilarityThreshold)

	span.SetAttributes(attribute.Int("results", len(results)))
	span.SetStatus(codes.Ok, "")
	return results, nil
}

// Rate records user feedback (1..5 plus an optional comment) on a
// conversation turn. Unknown turn IDs return document.ErrNotFound.
func (e *Engine) Rate(ctx context.Context, conversationID string, rating int, comment string) error {
	ctx, span := engineTracer.Start(ctx, "engine.rate")
	defer span.End()

	if conversationID == "" {
		return fmt.Errorf("%w: conversation ID is required", ErrValidation)
	}
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}

	err := retryOnce(ctx, func() error {
		return e.turns.SetFeedback(ctx, conversationID, rating, comment)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "feedback failed")
		return err
	}

	e.logger.Info(ctx, "feedback recorded",
		zap.String("conversation_id", conversationID),
		zap.Int("rating", rating))
	span.SetStatus(codes.Ok, "")
	return nil
}

// ClearSession discards all conversation memory for a session. Ingested
// documents are unaffected.
func (e *Engine) ClearSession(ctx context.Context, sessionID string) error {
	ctx, span := engineTracer.Start(ctx, "engine.clear_session")
	defer span.End()

	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("%w: session ID is required", ErrValidation)
	}

	if err := retryOnce(ctx, func() error { return e.sessions.Clear(ctx, sessionID) }); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "clear failed")
		return fmt.Errorf("failed to clear session: %w", err)
	}

	e.logger.Info(ctx, "session cleared", zap.String("session_id", sessionID))
	span.SetStatus(codes.Ok, "")
	return nil
}

// GetTurn returns a recorded conversation turn.
func (e *Engine) GetTurn(ctx context.Context, id string) (*document.Turn, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: conversation ID is required", ErrValidation)
	}
	return e.turns.GetTurn(ctx, id)
}
