package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore implements Store on Redis lists.
//
// History lives in a list at session:{id}:history (newest at the head,
// trimmed to the history limit) and recent documents in a list at
// session:{id}:docs. Both keys carry the session TTL and every operation
// refreshes it.
type RedisStore struct {
	client *redis.Client
	config Config
	logger *zap.Logger
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, config Config, logger *zap.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if config.Addr == "" {
		return nil, fmt.Errorf("%w: redis address required", ErrInvalidConfig)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis at %s: %w", config.Addr, err)
	}

	logger.Info("redis session store connected",
		zap.String("addr", config.Addr),
		zap.Int("history_limit", config.HistoryLimit),
		zap.Duration("ttl", config.TTL),
	)

	return &RedisStore{client: client, config: config, logger: logger}, nil
}

func historyKey(sessionID string) string { return "session:" + sessionID + ":history" }
func docsKey(sessionID string) string    { return "session:" + sessionID + ":docs" }

// AppendExchange pushes the exchange, trims history to the limit, and
// refreshes the TTL.
func (s *RedisStore) AppendExchange(ctx context.Context, sessionID string, ex Exchange) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	payload, err := json.Marshal(ex)
	if err != nil {
		return fmt.Errorf("marshaling exchange: %w", err)
	}

	key := historyKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, int64(s.config.HistoryLimit-1))
	pipe.Expire(ctx, key, s.config.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("appending exchange: %w", err)
	}
	return nil
}

// History returns up to limit most recent exchanges, oldest first, and
// refreshes the TTL.
func (s *RedisStore) History(ctx context.Context, sessionID string, limit int) ([]Exchange, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}
	if limit <= 0 || limit > s.config.HistoryLimit {
		limit = s.config.HistoryLimit
	}

	key := historyKey(sessionID)
	raw, err := s.client.LRange(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	// Reads count as activity.
	if err := s.client.Expire(ctx, key, s.config.TTL).Err(); err != nil {
		s.logger.Warn("refreshing session TTL failed", zap.String("session_id", sessionID), zap.Error(err))
	}

	// Redis returns newest first, callers want chronological order.
	exchanges := make([]Exchange, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var ex Exchange
		if err := json.Unmarshal([]byte(raw[i]), &ex); err != nil {
			s.logger.Warn("skipping malformed history entry",
				zap.String("session_id", sessionID), zap.Error(err))
			continue
		}
		exchanges = append(exchanges, ex)
	}
	return exchanges, nil
}

// TouchDocument records the document as recently active for the session.
// The ID moves to the front if already present.
func (s *RedisStore) TouchDocument(ctx context.Context, sessionID, documentID string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	if documentID == "" {
		return fmt.Errorf("empty document ID")
	}

	key := docsKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.LRem(ctx, key, 0, documentID)
	pipe.LPush(ctx, key, documentID)
	pipe.LTrim(ctx, key, 0, int64(s.config.RecentDocsLimit-1))
	pipe.Expire(ctx, key, s.config.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("touching document: %w", err)
	}
	return nil
}

// RecentDocuments returns recently touched document IDs, most recent first.
func (s *RedisStore) RecentDocuments(ctx context.Context, sessionID string, limit int) ([]string, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}
	if limit <= 0 || limit > s.config.RecentDocsLimit {
		limit = s.config.RecentDocsLimit
	}

	key := docsKey(sessionID)
	ids, err := s.client.LRange(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading recent documents: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	// Reads count as activity.
	if err := s.client.Expire(ctx, key, s.config.TTL).Err(); err != nil {
		s.logger.Warn("refreshing session TTL failed", zap.String("session_id", sessionID), zap.Error(err))
	}
	return ids, nil
}

// Clear removes all state for the session.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	if err := s.client.Del(ctx, historyKey(sessionID), docsKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
