package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisStore implements Store on a Redis backend so several service
// instances can share one freshness window. Values are JSON round-tripped;
// everything we cache originates from decoded JSON so nothing is lost.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisStore wraps an existing Redis client with a fixed TTL.
func NewRedisStore(client *redis.Client, ttl time.Duration, prefix string) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, prefix: prefix}
}

func (s *RedisStore) Get(key string) (any, bool) {
	raw, err := s.client.Get(context.Background(), s.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("key", key).Msg("redis cache get failed")
		}
		return nil, false
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis cache entry corrupt")
		return nil, false
	}
	return value, true
}

func (s *RedisStore) Set(key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis cache value not serializable")
		return
	}
	if err := s.client.Set(context.Background(), s.prefix+key, raw, s.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis cache set failed")
	}
}
