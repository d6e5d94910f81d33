// Package vectorstore provides similarity search over chunk embeddings.
//
// Two implementations are provided:
//
//   - ChromemStore: embedded chromem-go database with optional persistence
//     to disk. This is the default, production path.
//   - MemoryStore: brute-force cosine similarity over an in-process map.
//     Used as the fallback path and in tests.
//
// Both implementations rank identically: results are ordered by descending
// similarity score with ties broken by ascending entry ID, so callers can
// swap one for the other without changing retrieval behavior.
package vectorstore
