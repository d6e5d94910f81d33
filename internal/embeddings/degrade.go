package embeddings

import (
	"context"

	"go.uber.org/zap"
)

// DegradingEmbedder wraps an Embedder and substitutes zero vectors when the
// backend fails, so callers always get one vector per input text. Failures
// are isolated per batch: a transient error midway through a large document
// degrades only that batch's chunks.
//
// Zero vectors carry no semantic signal and score 0 similarity downstream,
// which keeps degraded chunks stored but effectively unranked until they
// are re-embedded.
type DegradingEmbedder struct {
	backend   Embedder
	dimension int
	batchSize int
	logger    *zap.Logger
	metrics   *Metrics
	model     string
}

// NewDegradingEmbedder wraps backend with zero-vector degradation.
func NewDegradingEmbedder(backend Embedder, dimension, batchSize int, logger *zap.Logger) *DegradingEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchSize <= 0 {
		batchSize = 32
	}
	model := "unknown"
	if s, ok := backend.(*Service); ok {
		model = s.config.Model
	}
	return &DegradingEmbedder{
		backend:   backend,
		dimension: dimension,
		batchSize: batchSize,
		logger:    logger,
		metrics:   NewMetrics(logger),
		model:     model,
	}
}

// Dimension returns the embedding dimension.
func (d *DegradingEmbedder) Dimension() int { return d.dimension }

// EmbedDocuments embeds texts in batches, substituting zero vectors for any
// batch the backend fails on. The only returned error is context
// cancellation; everything else degrades.
func (d *DegradingEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += d.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + d.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		batchVectors, err := d.backend.EmbedDocuments(ctx, batch)
		if err != nil {
			d.logger.Warn("embedding batch failed, substituting zero vectors",
				zap.Int("batch_start", start),
				zap.Int("batch_size", len(batch)),
				zap.Error(err),
			)
			d.metrics.RecordDegraded(ctx, d.model, len(batch))
			for range batch {
				vectors = append(vectors, make([]float32, d.dimension))
			}
			continue
		}
		vectors = append(vectors, batchVectors...)
	}
	return vectors, nil
}

// EmbedQuery embeds a single query, returning a zero vector if the backend
// fails.
func (d *DegradingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vector, err := d.backend.EmbedQuery(ctx, text)
	if err != nil {
		d.logger.Warn("query embedding failed, substituting zero vector", zap.Error(err))
		d.metrics.RecordDegraded(ctx, d.model, 1)
		return make([]float32, d.dimension), nil
	}
	return vector, nil
}

// IsZeroVector reports whether every component of v is zero. Degraded
// vectors are detectable so callers can skip similarity search for them.
func IsZeroVector(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

var _ Embedder = (*DegradingEmbedder)(nil)
