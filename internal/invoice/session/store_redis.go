package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"invoicebot/internal/invoice/models"
	"invoicebot/pkg/platform/sentinel"
)

const redisKeyPrefix = "invoicebot:session:"

// RedisStore implements Store on Redis with server-side TTL, for
// deployments where the bot runs more than one replica.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a RedisStore on an established client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Put stores stage-one data under id with the given TTL.
func (s *RedisStore) Put(ctx context.Context, id string, data models.StageOne, ttl time.Duration) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", id, err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+id, payload, ttl).Err(); err != nil {
		return fmt.Errorf("store session %s: %w", id, err)
	}
	return nil
}

// Get returns the stage-one data for id. Redis expiry makes expired and
// absent entries indistinguishable, so both map to sentinel.ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, id string) (models.StageOne, error) {
	payload, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.StageOne{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.StageOne{}, fmt.Errorf("load session %s: %w", id, err)
	}

	var data models.StageOne
	if err := json.Unmarshal(payload, &data); err != nil {
		return models.StageOne{}, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	return data, nil
}

// Delete removes the entry for id. Deleting an absent entry is a no-op.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}
