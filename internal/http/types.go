package http

import (
	"time"

	"github.com/fyrsmithlabs/answerd/internal/vectorstore"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// DocumentSummary is a document listing entry without its content body.
type DocumentSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// DocumentListResponse is the response body for GET /api/v1/documents.
type DocumentListResponse struct {
	Documents []DocumentSummary `json:"documents"`
}

// SearchResponse is the response body for POST /api/v1/search.
type SearchResponse struct {
	Results []vectorstore.SearchResult `json:"results"`
}
