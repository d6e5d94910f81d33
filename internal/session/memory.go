package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// timeNow is a variable so tests can control expiry.
var timeNow = time.Now

type sessionState struct {
	exchanges  []Exchange // newest first
	recentDocs []string   // newest first
	expiresAt  time.Time
}

// MemoryStore implements Store in process memory with lazy expiry: expired
// sessions are dropped when next touched, not by a background sweeper.
type MemoryStore struct {
	config Config

	mu       sync.Mutex
	sessions map[string]*sessionState
}

// NewMemoryStore creates an in-process session store.
func NewMemoryStore(config Config) (*MemoryStore, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &MemoryStore{
		config:   config,
		sessions: make(map[string]*sessionState),
	}, nil
}

// live returns the session state, dropping it first if expired. Callers
// must hold s.mu.
func (s *MemoryStore) live(sessionID string) *sessionState {
	state, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	if timeNow().After(state.expiresAt) {
		delete(s.sessions, sessionID)
		return nil
	}
	return state
}

// AppendExchange adds an exchange, evicting the oldest past the limit.
func (s *MemoryStore) AppendExchange(ctx context.Context, sessionID string, ex Exchange) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.live(sessionID)
	if state == nil {
		state = &sessionState{}
		s.sessions[sessionID] = state
	}

	state.exchanges = append([]Exchange{ex}, state.exchanges...)
	if len(state.exchanges) > s.config.HistoryLimit {
		state.exchanges = state.exchanges[:s.config.HistoryLimit]
	}
	state.expiresAt = timeNow().Add(s.config.TTL)
	return nil
}

// History returns up to limit most recent exchanges, oldest first.
func (s *MemoryStore) History(ctx context.Context, sessionID string, limit int) ([]Exchange, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}
	if limit <= 0 || limit > s.config.HistoryLimit {
		limit = s.config.HistoryLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.live(sessionID)
	if state == nil {
		return nil, nil
	}
	state.expiresAt = timeNow().Add(s.config.TTL)

	n := len(state.exchanges)
	if n > limit {
		n = limit
	}
	out := make([]Exchange, n)
	for i := 0; i < n; i++ {
		out[n-1-i] = state.exchanges[i]
	}
	return out, nil
}

// TouchDocument records the document as recently active for the session.
func (s *MemoryStore) TouchDocument(ctx context.Context, sessionID, documentID string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	if documentID == "" {
		return fmt.Errorf("empty document ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.live(sessionID)
	if state == nil {
		state = &sessionState{}
		s.sessions[sessionID] = state
	}

	docs := make([]string, 0, len(state.recentDocs)+1)
	docs = append(docs, documentID)
	for _, id := range state.recentDocs {
		if id != documentID {
			docs = append(docs, id)
		}
	}
	if len(docs) > s.config.RecentDocsLimit {
		docs = docs[:s.config.RecentDocsLimit]
	}
	state.recentDocs = docs
	state.expiresAt = timeNow().Add(s.config.TTL)
	return nil
}

// RecentDocuments returns recently touched document IDs, most recent first.
func (s *MemoryStore) RecentDocuments(ctx context.Context, sessionID string, limit int) ([]string, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}
	if limit <= 0 || limit > s.config.RecentDocsLimit {
		limit = s.config.RecentDocsLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.live(sessionID)
	if state == nil {
		return nil, nil
	}
	state.expiresAt = timeNow().Add(s.config.TTL)

	if len(state.recentDocs) <= limit {
		return append([]string(nil), state.recentDocs...), nil
	}
	return append([]string(nil), state.recentDocs[:limit]...), nil
}

// Clear removes all state for the session.
func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Close releases nothing; state lives in process memory.
func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
