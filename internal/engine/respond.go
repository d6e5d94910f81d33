package engine

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/answerd/internal/document"
	"github.com/fyrsmithlabs/answerd/internal/embeddings"
	"github.com/fyrsmithlabs/answerd/internal/fallback"
	"github.com/fyrsmithlabs/answerd/internal/generation"
	"github.com/fyrsmithlabs/answerd/internal/logging"
	"github.com/fyrsmithlabs/answerd/internal/session"
	"github.com/fyrsmithlabs/answerd/internal/vectorstore"
)

// RespondRequest is one user message in a session.
type RespondRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id,omitempty"`
	Message   string `json:"message"`
}

// ContextChunk is a retrieved excerpt surfaced alongside a response.
type ContextChunk struct {
	DocumentTitle string  `json:"document_title"`
	Similarity    float32 `json:"similarity"`
	Snippet       string  `json:"snippet"`
}

// RespondResult is the engine's answer to one message.
type RespondResult struct {
	Response             string         `json:"response"`
	Confidence           float64        `json:"confidence"`
	SourcesUsed          int            `json:"sources_used"`
	ContextChunks        []ContextChunk `json:"context_chunks"`
	RequiresHumanHandoff bool           `json:"requires_human_handoff"`
	HandoffReason        string         `json:"handoff_reason,omitempty"`
	ConversationID       string         `json:"conversation_id"`
	ResponseTimeMS       int64          `json:"response_time_ms"`
}

// documentQueryPhrases mark questions about "the document" in general
// rather than any specific topic. Those bias retrieval toward the
// session's most recently active document.
var documentQueryPhrases = []string{
	"this document", "the document", "this file", "the file",
	"what is this about", "summarize", "summary", "uploaded",
}

func isDocumentQuery(message string) bool {
	lower := strings.ToLower(message)
	for _, phrase := range documentQueryPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// Respond answers a user message: retrieve context, assemble the prompt,
// generate (falling back to rule-based answers on any backend failure),
// score, evaluate handoff, and persist the turn.
//
// Generation failures are never surfaced to the caller; every path
// produces an answer. Only validation and turn persistence failures
// return errors.
func (e *Engine) Respond(ctx context.Context, req RespondRequest) (*RespondResult, error) {
	ctx, span := engineTracer.Start(ctx, "engine.respond")
	defer span.End()

	if strings.TrimSpace(req.SessionID) == "" {
		return nil, fmt.Errorf("%w: session ID is required", ErrValidation)
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: message is required", ErrValidation)
	}

	ctx = logging.WithSessionID(ctx, req.SessionID)
	start := timeNow()

	chunks := e.retrieve(ctx, req.SessionID, req.Message)

	history, err := e.sessions.History(ctx, req.SessionID, e.config.HistoryWindow)
	if err != nil {
		// Memory is an enhancer, not a prerequisite. Answer without it.
		e.logger.Warn(ctx, "failed to load session history", zap.Error(err))
		history = nil
	}

	messages := e.assemble(chunks, history, req.Message)

	answer, conf, sources, usedFallback := e.generate(ctx, req.Message, chunks, messages)

	decision := e.policy.Evaluate(req.Message, conf, len(chunks))

	turn := &document.Turn{
		ID:              uuid.NewString(),
		SessionID:       req.SessionID,
		UserID:          req.UserID,
		Question:        req.Message,
		Answer:          answer,
		Confidence:      conf,
		ContextChunkIDs: chunkIDs(chunks),
		ResponseTime:    timeNow().Sub(start),
		CreatedAt:       timeNow(),
	}
	if err := retryOnce(ctx, func() error { return e.turns.AppendTurn(ctx, turn) }); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "turn persistence failed")
		return nil, fmt.Errorf("failed to record conversation turn: %w", err)
	}

	if err := e.sessions.AppendExchange(ctx, req.SessionID, session.Exchange{
		Question:   req.Message,
		Answer:     answer,
		Confidence: conf,
		CreatedAt:  turn.CreatedAt,
	}); err != nil {
		e.logger.Warn(ctx, "failed to append session exchange", zap.Error(err))
	}

	span.SetAttributes(
		attribute.Int("context_chunks", len(chunks)),
		attribute.Bool("fallback", usedFallback),
		attribute.Bool("handoff", decision.Required),
	)
	span.SetStatus(codes.Ok, "")

	return &RespondResult{
		Response:             answer,
		Confidence:           conf,
		SourcesUsed:          sources,
		ContextChunks:        contextChunks(chunks),
		RequiresHumanHandoff: decision.Required,
		HandoffReason:        decision.Reason,
		ConversationID:       turn.ID,
		ResponseTimeMS:       turn.ResponseTime.Milliseconds(),
	}, nil
}

// retrieve embeds the message and queries the vector index. A degraded
// (zero) query embedding or a store failure yields no context rather than
// an error; the conversation continues without retrieval.
//
// Generic document questions first try the session's most recently active
// document and fall back to a global search when it yields nothing. The
// affinity lasts as long as the session does.
func (e *Engine) retrieve(ctx context.Context, sessionID, message string) []vectorstore.SearchResult {
	vec, err := e.embedder.EmbedQuery(ctx, message)
	if err != nil || embeddings.IsZeroVector(vec) {
		e.logger.Warn(ctx, "query embedding degraded, skipping retrieval", zap.Error(err))
		return nil
	}

	if isDocumentQuery(message) {
		if docs, err := e.sessions.RecentDocuments(ctx, sessionID, 1); err == nil && len(docs) > 0 {
			results := e.query(ctx, vec, map[string]string{"document_id": docs[0]})
			if len(results) > 0 {
				return results
			}
		}
	}

	return e.query(ctx, vec, nil)
}

func (e *Engine) query(ctx context.Context, vec []float32, filters map[string]string) []vectorstore.SearchResult {
	results, err := e.store.Query(ctx, vec, e.config.TopK, filters)
	if err != nil {
		e.logger.Warn(ctx, "vector query failed, continuing without context", zap.Error(err))
		return nil
	}
	return aboveThreshold(results, e.config.SimilarityThreshold)
}

func aboveThreshold(results []vectorstore.SearchResult, threshold float32) []vectorstore.SearchResult {
	kept := results[:0]
	for _, r := range results {
		if r.Score >= threshold {
			kept = append(kept, r)
		}
	}
	return kept
}

// assemble builds the prompt: system instruction, a context message when
// chunks were retrieved, recent history oldest first, and the user
// message. When the estimated token count exceeds the budget, history is
// dropped oldest first; the system instruction and the user message are
// never dropped.
func (e *Engine) assemble(chunks []vectorstore.SearchResult, history []session.Exchange, message string) []generation.Message {
	fixed := []generation.Message{{Role: generation.RoleSystem, Content: e.config.SystemPrompt}}
	if len(chunks) > 0 {
		fixed = append(fixed, generation.Message{
			Role:    generation.RoleSystem,
			Content: contextBlock(chunks),
		})
	}
	user := generation.Message{Role: generation.RoleUser, Content: message}

	historyMsgs := make([]generation.Message, 0, len(history)*2)
	for _, ex := range history {
		historyMsgs = append(historyMsgs,
			generation.Message{Role: generation.RoleUser, Content: ex.Question},
			generation.Message{Role: generation.RoleAssistant, Content: ex.Answer})
	}

	budget := e.config.MaxContextTokens
	total := messageTokens(fixed) + messageTokens(historyMsgs) + estimateTokens(user.Content)
	for total > budget && len(historyMsgs) > 0 {
		total -= estimateTokens(historyMsgs[0].Content)
		historyMsgs = historyMsgs[1:]
	}

	messages := make([]generation.Message, 0, len(fixed)+len(historyMsgs)+1)
	messages = append(messages, fixed...)
	messages = append(messages, historyMsgs...)
	messages = append(messages, user)
	return messages
}

func messageTokens(msgs []generation.Message) int {
	total := 0
	for _, m := range msgs {
		total += estimateTokens(m.Content)
	}
	return total
}

// contextBlock renders retrieved chunks as a knowledge-base excerpt
// message, each tagged with its source title.
func contextBlock(chunks []vectorstore.SearchResult) string {
	var b strings.Builder
	b.WriteString("Knowledge base excerpts relevant to the user's question:\n")
	for _, c := range chunks {
		title := c.Metadata["title"]
		if title == "" {
			title = "untitled"
		}
		fmt.Fprintf(&b, "\n[Source: %s]\n%s\n", title, c.Text)
	}
	return b.String()
}

// generate calls the generation backend and scores the answer. Any
// backend failure, including an open circuit breaker, falls back to
// rule-based answering: extraction over the best chunk when context was
// retrieved, conversational responses otherwise.
func (e *Engine) generate(ctx context.Context, message string, chunks []vectorstore.SearchResult, messages []generation.Message) (answer string, conf float64, sources int, usedFallback bool) {
	text, err := e.generator.Generate(ctx, messages)
	if err == nil {
		return text, e.scorer.Score(text, len(chunks) > 0, false), len(chunks), false
	}

	e.logger.Warn(ctx, "generation failed, using rule-based fallback", zap.Error(err))

	if len(chunks) > 0 {
		best := chunks[0]
		res := e.extractor.Respond(message, fallback.Chunk{
			Title:   best.Metadata["title"],
			Content: best.Text,
		})
		return res.Response, res.Confidence, res.SourcesUsed, true
	}

	res := e.responder.Respond(message)
	return res.Response, res.Confidence, res.SourcesUsed, true
}

func chunkIDs(chunks []vectorstore.SearchResult) []string {
	if len(chunks) == 0 {
		return nil
	}
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	return ids
}

// contextChunks surfaces up to three retrieved excerpts with short
// snippets for the API response.
func contextChunks(chunks []vectorstore.SearchResult) []ContextChunk {
	const maxSurfaced = 3
	const snippetLen = 200

	n := len(chunks)
	if n > maxSurfaced {
		n = maxSurfaced
	}
	out := make([]ContextChunk, n)
	for i := 0; i < n; i++ {
		snippet := truncate(chunks[i].Text, snippetLen)
		out[i] = ContextChunk{
			DocumentTitle: chunks[i].Metadata["title"],
			Similarity:    chunks[i].Score,
			Snippet:       snippet,
		}
	}
	return out
}

// truncate cuts s to at most n bytes, backing up so the cut never splits
// a multi-byte rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
