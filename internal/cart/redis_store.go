package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultSessionTTL keeps abandoned carts around long enough for a shopper
// to come back, mirroring a "long" browser session.
const DefaultSessionTTL = 14 * 24 * time.Hour

// RedisStore is a SessionStore backed by Redis. Each session's cart lives
// under one JSON-encoded key with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to the Redis instance at addr.
func NewRedisStore(addr string, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

func (s *RedisStore) key(sessionID string) string {
	return fmt.Sprintf("cart:session:%s", sessionID)
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (Data, error) {
	raw, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err == redis.Nil {
		return Data{}, ErrSessionNotFound
	}
	if err != nil {
		return Data{}, fmt.Errorf("cart: redis get: %w", err)
	}

	var data Data
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return Data{}, fmt.Errorf("cart: decode session %q: %w", sessionID, err)
	}
	return data, nil
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, data Data) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("cart: encode session %q: %w", sessionID, err)
	}
	if err := s.client.Set(ctx, s.key(sessionID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("cart: redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("cart: redis del: %w", err)
	}
	return nil
}
