// Package document defines the document and chunk model for the ingested
// corpus, plus the repository contract the engine depends on.
//
// Documents move through a processing lifecycle:
//
//	pending -> processing -> completed
//	                      -> failed
//
// Chunks are created in a batch when a document reaches processing and are
// immutable afterwards; deleting a document cascades to its chunks. The
// content hash is the dedup key: ingesting identical content returns the
// existing document regardless of title.
//
// The repository here is a contract plus an in-memory reference
// implementation; a durable store is a deployment concern.
package document
