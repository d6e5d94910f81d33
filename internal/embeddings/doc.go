// Package embeddings generates vector embeddings for chunks and queries.
//
// The OpenAI-compatible backend (via langchaingo) is the production path.
// A DegradingEmbedder wraps any backend and substitutes zero vectors when
// generation fails, so ingestion and search keep working in a degraded
// mode instead of erroring out. Zero vectors score 0 similarity everywhere
// downstream.
package embeddings
