package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a token does not map to a live session.
var ErrNotFound = errors.New("session not found")

// Manager stores operator sessions in Redis. Tokens are opaque UUIDs and
// expire server-side after the configured TTL.
type Manager struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewManager creates a new session manager
func NewManager(redisClient *redis.Client, ttl time.Duration) *Manager {
	return &Manager{redis: redisClient, ttl: ttl}
}

// Create issues a new session token for a user.
func (m *Manager) Create(ctx context.Context, username string) (string, error) {
	token := uuid.NewString()
	key := sessionKey(token)

	if err := m.redis.Set(ctx, key, username, m.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	return token, nil
}

// Get resolves a token to its username, refreshing the TTL on hit.
func (m *Manager) Get(ctx context.Context, token string) (string, error) {
	key := sessionKey(token)

	username, err := m.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get session: %w", err)
	}

	m.redis.Expire(ctx, key, m.ttl)

	return username, nil
}

// Destroy removes a session. Destroying an unknown token is a no-op.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	return m.redis.Del(ctx, sessionKey(token)).Err()
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}
