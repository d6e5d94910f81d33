package session

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptySessionID indicates a missing session identifier.
	ErrEmptySessionID = errors.New("empty session ID")
)

// Exchange is one question/answer turn kept in session history.
type Exchange struct {
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store holds per-session conversation state.
//
// Implementations bound history at the configured limit (oldest exchanges
// are evicted first) and refresh the session TTL on every read and write.
type Store interface {
	// AppendExchange adds an exchange to the session history, evicting the
	// oldest entry if the history is at its limit.
	AppendExchange(ctx context.Context, sessionID string, ex Exchange) error

	// History returns up to limit most recent exchanges, oldest first.
	// A limit <= 0 means the configured history limit.
	History(ctx context.Context, sessionID string, limit int) ([]Exchange, error)

	// TouchDocument marks a document as recently active for the session.
	TouchDocument(ctx context.Context, sessionID, documentID string) error

	// RecentDocuments returns recently touched document IDs, most recent
	// first, without duplicates.
	RecentDocuments(ctx context.Context, sessionID string, limit int) ([]string, error)

	// Clear removes all state for the session.
	Clear(ctx context.Context, sessionID string) error

	// Close releases resources held by the store.
	Close() error
}

// Config holds configuration for session storage.
type Config struct {
	// Addr is the Redis address (host:port).
	Addr string

	// Password is the Redis password, if any.
	Password string

	// DB is the Redis database index.
	DB int

	// HistoryLimit bounds exchanges kept per session. Default: 50.
	HistoryLimit int

	// RecentDocsLimit bounds recently touched document IDs per session.
	// Default: 5.
	RecentDocsLimit int

	// TTL is how long idle sessions live. Refreshed on read and write.
	// Default: 24h.
	TTL time.Duration
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.HistoryLimit == 0 {
		c.HistoryLimit = 50
	}
	if c.RecentDocsLimit == 0 {
		c.RecentDocsLimit = 5
	}
	if c.TTL == 0 {
		c.TTL = 24 * time.Hour
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("%w: history limit must be positive", ErrInvalidConfig)
	}
	if c.RecentDocsLimit <= 0 {
		return fmt.Errorf("%w: recent docs limit must be positive", ErrInvalidConfig)
	}
	if c.TTL <= 0 {
		return fmt.Errorf("%w: TTL must be positive", ErrInvalidConfig)
	}
	return nil
}
