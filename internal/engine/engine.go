// Package engine orchestrates answerd's conversation flow: document
// ingestion, retrieval, context assembly, generation with rule-based
// fallback, confidence scoring, handoff evaluation, and persistence.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/fyrsmithlabs/answerd/internal/chunker"
	"github.com/fyrsmithlabs/answerd/internal/confidence"
	"github.com/fyrsmithlabs/answerd/internal/document"
	"github.com/fyrsmithlabs/answerd/internal/embeddings"
	"github.com/fyrsmithlabs/answerd/internal/fallback"
	"github.com/fyrsmithlabs/answerd/internal/generation"
	"github.com/fyrsmithlabs/answerd/internal/handoff"
	"github.com/fyrsmithlabs/answerd/internal/logging"
	"github.com/fyrsmithlabs/answerd/internal/session"
	"github.com/fyrsmithlabs/answerd/internal/vectorstore"
)

var engineTracer = otel.Tracer("answerd.engine")

var (
	// ErrValidation indicates a request that fails input validation.
	ErrValidation = errors.New("invalid request")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// timeNow is stubbed in tests.
var timeNow = time.Now

// DefaultSystemPrompt instructs the model to answer from retrieved
// context and admit when it cannot.
const DefaultSystemPrompt = "You are a helpful customer support assistant. " +
	"Answer using the knowledge base excerpts when they are provided. " +
	"If the excerpts do not cover the question, say so plainly instead of guessing. " +
	"Keep answers concise and actionable."

// Config holds engine tuning parameters.
type Config struct {
	// TopK is the number of chunks retrieved per query.
	TopK int

	// SimilarityThreshold drops retrieved chunks scoring below it.
	SimilarityThreshold float32

	// MaxContextTokens bounds the assembled prompt; history is trimmed
	// oldest-first to fit.
	MaxContextTokens int

	// HistoryWindow is the number of past exchanges included in prompts.
	HistoryWindow int

	// MaxContentBytes bounds ingested document size.
	MaxContentBytes int

	// SystemPrompt overrides DefaultSystemPrompt when set.
	SystemPrompt string
}

// ApplyDefaults fills unset fields with defaults.
func (c *Config) ApplyDefaults() {
	if c.TopK == 0 {
		c.TopK = 5
	}
	if c.SimilarityThreshold == 0 {
		c.SimilarityThreshold = 0.1
	}
	if c.MaxContextTokens == 0 {
		c.MaxContextTokens = 3000
	}
	if c.HistoryWindow == 0 {
		c.HistoryWindow = 6
	}
	if c.MaxContentBytes == 0 {
		c.MaxContentBytes = 10 << 20
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive", ErrInvalidConfig)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: similarity threshold must be in [0, 1]", ErrInvalidConfig)
	}
	if c.MaxContextTokens <= 0 {
		return fmt.Errorf("%w: max context tokens must be positive", ErrInvalidConfig)
	}
	if c.HistoryWindow < 0 {
		return fmt.Errorf("%w: history window must not be negative", ErrInvalidConfig)
	}
	if c.MaxContentBytes <= 0 {
		return fmt.Errorf("%w: max content bytes must be positive", ErrInvalidConfig)
	}
	return nil
}

// Deps are the engine's collaborators. All fields are required except
// Logger, which defaults to a no-op.
type Deps struct {
	Repository document.Repository
	Turns      document.ConversationLog
	Store      vectorstore.Store
	Embedder   embeddings.Embedder
	Splitter   *chunker.Chunker
	Sessions   session.Store
	Generator  generation.Generator
	Extractor  *fallback.Extractor
	Responder  *fallback.Responder
	Scorer     *confidence.Scorer
	Policy     *handoff.Policy
	Logger     *logging.Logger
}

func (d Deps) validate() error {
	switch {
	case d.Repository == nil:
		return fmt.Errorf("%w: repository is required", ErrInvalidConfig)
	case d.Turns == nil:
		return fmt.Errorf("%w: conversation log is required", ErrInvalidConfig)
	case d.Store == nil:
		return fmt.Errorf("%w: vector store is required", ErrInvalidConfig)
	case d.Embedder == nil:
		return fmt.Errorf("%w: embedder is required", ErrInvalidConfig)
	case d.Splitter == nil:
		return fmt.Errorf("%w: splitter is required", ErrInvalidConfig)
	case d.Sessions == nil:
		return fmt.Errorf("%w: session store is required", ErrInvalidConfig)
	case d.Generator == nil:
		return fmt.Errorf("%w: generator is required", ErrInvalidConfig)
	case d.Extractor == nil:
		return fmt.Errorf("%w: extractor is required", ErrInvalidConfig)
	case d.Responder == nil:
		return fmt.Errorf("%w: responder is required", ErrInvalidConfig)
	case d.Scorer == nil:
		return fmt.Errorf("%w: scorer is required", ErrInvalidConfig)
	case d.Policy == nil:
		return fmt.Errorf("%w: handoff policy is required", ErrInvalidConfig)
	}
	return nil
}

// Engine ties retrieval, generation, and persistence into the five
// conversation operations.
type Engine struct {
	repo      document.Repository
	turns     document.ConversationLog
	store     vectorstore.Store
	embedder  embeddings.Embedder
	splitter  *chunker.Chunker
	sessions  session.Store
	generator generation.Generator
	extractor *fallback.Extractor
	responder *fallback.Responder
	scorer    *confidence.Scorer
	policy    *handoff.Policy
	logger    *logging.Logger
	config    Config
}

// New creates an Engine.
func New(config Config, deps Deps) (*Engine, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		repo:      deps.Repository,
		turns:     deps.Turns,
		store:     deps.Store,
		embedder:  deps.Embedder,
		splitter:  deps.Splitter,
		sessions:  deps.Sessions,
		generator: deps.Generator,
		extractor: deps.Extractor,
		responder: deps.Responder,
		scorer:    deps.Scorer,
		policy:    deps.Policy,
		logger:    logger,
		config:    config,
	}, nil
}

// IndexedChunks returns the number of chunk vectors in the search index.
func (e *Engine) IndexedChunks(ctx context.Context) (int, error) {
	return e.store.Count(ctx)
}

// retryOnce runs op and retries a single time on failure, unless the
// context is already done. Used for storage writes.
func retryOnce(ctx context.Context, op func() error) error {
	err := op()
	if err == nil || ctx.Err() != nil {
		return err
	}
	return op()
}

// estimateTokens approximates token count as one token per four
// characters. It only has to be consistent, not exact: it drives prompt
// trimming, not billing.
func estimateTokens(s string) int {
	return (len(s) + 3) / 4
}
