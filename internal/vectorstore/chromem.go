package vectorstore

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var chromemTracer = otel.Tracer("answerd.vectorstore.chromem")

// ChromemConfig holds configuration for the embedded chromem-go store.
type ChromemConfig struct {
	// Path is the directory for persistent storage. Empty means in-memory only.
	Path string

	// Compress enables gzip compression for stored data.
	Compress bool

	// Collection is the collection name. Default: "answerd_chunks".
	Collection string

	// VectorSize is the expected embedding dimension. Must match the
	// embedding backend's output dimension. Default: 384.
	VectorSize int
}

// ApplyDefaults sets default values for unset fields.
func (c *ChromemConfig) ApplyDefaults() {
	if c.Collection == "" {
		c.Collection = "answerd_chunks"
	}
	if c.VectorSize == 0 {
		c.VectorSize = 384
	}
}

// Validate validates the configuration.
func (c *ChromemConfig) Validate() error {
	if c.VectorSize <= 0 {
		return fmt.Errorf("%w: vector size must be positive", ErrInvalidConfig)
	}
	return nil
}

// ChromemStore implements Store using chromem-go, an embeddable pure-Go
// vector database with optional gob-file persistence. No external service
// is required.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	config     ChromemConfig
	logger     *zap.Logger
}

// NewChromemStore creates a ChromemStore with the given configuration.
func NewChromemStore(config ChromemConfig, logger *zap.Logger) (*ChromemStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	var (
		db  *chromem.DB
		err error
	)
	if config.Path != "" {
		if err := os.MkdirAll(config.Path, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", config.Path, err)
		}
		db, err = chromem.NewPersistentDB(config.Path, config.Compress)
		if err != nil {
			return nil, fmt.Errorf("creating chromem DB: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	// Embeddings are always provided by the caller, so the embedding func
	// should never run. It must still be non-nil: chromem falls back to its
	// OpenAI default otherwise.
	collection, err := db.GetOrCreateCollection(config.Collection, nil, rejectEmbeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", config.Collection, err)
	}

	logger.Info("chromem store initialized",
		zap.String("path", config.Path),
		zap.String("collection", config.Collection),
		zap.Int("vector_size", config.VectorSize),
	)

	return &ChromemStore{
		db:         db,
		collection: collection,
		config:     config,
		logger:     logger,
	}, nil
}

func rejectEmbeddingFunc(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("store expects precomputed embeddings")
}

// Add stores a batch of entries with their precomputed embeddings.
func (s *ChromemStore) Add(ctx context.Context, entries []Entry) error {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.Add")
	defer span.End()

	span.SetAttributes(attribute.Int("entry_count", len(entries)))

	if err := validateEntries(entries, s.config.VectorSize); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	docs := make([]chromem.Document, len(entries))
	for i, e := range entries {
		docs[i] = chromem.Document{
			ID:        e.ID,
			Content:   e.Text,
			Metadata:  entryMetadata(e),
			Embedding: e.Embedding,
		}
	}

	// Concurrency of 1: embeddings are precomputed, nothing to parallelize.
	if err := s.collection.AddDocuments(ctx, docs, 1); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("adding documents: %w", err)
	}

	span.SetStatus(codes.Ok, "success")
	s.logger.Debug("added entries to chromem",
		zap.String("collection", s.config.Collection),
		zap.Int("count", len(entries)),
	)
	return nil
}

// Query returns up to k entries ranked by cosine similarity to the vector.
func (s *ChromemStore) Query(ctx context.Context, vector []float32, k int, filters map[string]string) ([]SearchResult, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.Query")
	defer span.End()

	span.SetAttributes(attribute.Int("k", k))

	if err := validateQuery(vector, k, s.config.VectorSize); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	count := s.collection.Count()
	if count == 0 {
		span.SetStatus(codes.Ok, "empty collection")
		return []SearchResult{}, nil
	}

	// Fetch every candidate and cut to k only after sortResults. chromem's
	// own similarity sort is not stable, so letting it pick the top k would
	// make the cut among tied scores depend on insertion order. chromem
	// clamps nResults to the filtered set, so passing the collection count
	// is safe with filters.
	results, err := s.collection.QueryEmbedding(ctx, vector, count, filters, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying collection %s: %w", s.config.Collection, err)
	}

	out := make([]SearchResult, len(results))
	for i, r := range results {
		score := r.Similarity
		// Zero-magnitude vectors produce NaN under cosine similarity.
		if math.IsNaN(float64(score)) {
			score = 0
		}
		out[i] = SearchResult{
			ID:         r.ID,
			DocumentID: r.Metadata["document_id"],
			Text:       r.Content,
			Score:      score,
			Metadata:   r.Metadata,
		}
	}
	sortResults(out)
	if len(out) > k {
		out = out[:k]
	}

	span.SetAttributes(attribute.Int("results_count", len(out)))
	span.SetStatus(codes.Ok, "success")
	return out, nil
}

// Delete removes entries by ID. Unknown IDs are ignored.
func (s *ChromemStore) Delete(ctx context.Context, ids []string) error {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.Delete")
	defer span.End()

	span.SetAttributes(attribute.Int("id_count", len(ids)))

	for _, id := range ids {
		if err := s.collection.Delete(ctx, nil, nil, id); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("deleting entry %s: %w", id, err)
		}
	}

	span.SetStatus(codes.Ok, "success")
	return nil
}

// Count returns the number of stored entries.
func (s *ChromemStore) Count(ctx context.Context) (int, error) {
	return s.collection.Count(), nil
}

// Close closes the store. chromem persists automatically, so this is a no-op.
func (s *ChromemStore) Close() error {
	s.logger.Info("chromem store closed")
	return nil
}

func entryMetadata(e Entry) map[string]string {
	md := make(map[string]string, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		md[k] = v
	}
	if e.DocumentID != "" {
		md["document_id"] = e.DocumentID
	}
	return md
}

// sortResults orders by descending score, ties broken by ascending ID, so
// every Store implementation ranks identically.
func sortResults(results []SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
}

var _ Store = (*ChromemStore)(nil)
