package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"CrisisMonitor/internal/ports"
)

// RedisStore keeps one cache namespace in a Redis hash.
type RedisStore struct {
	client *redis.Client
	hash   string
}

var _ ports.KVStore = (*RedisStore)(nil)

// NewRedisClient connects and pings the server.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return client, nil
}

// NewRedisStore uses the hash "<prefix>:<namespace>"; the caller owns the client.
func NewRedisStore(client *redis.Client, prefix, namespace string) *RedisStore {
	return &RedisStore{client: client, hash: HashKey(prefix, namespace)}
}

// HashKey names the Redis hash backing a namespace.
func HashKey(prefix, namespace string) string {
	if prefix == "" {
		return namespace
	}
	return prefix + ":" + namespace
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.HGet(ctx, s.hash, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("hget %s: %w", s.hash, err)
	}
	return value, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.HSet(ctx, s.hash, key, value).Err(); err != nil {
		return fmt.Errorf("hset %s: %w", s.hash, err)
	}
	return nil
}

func (s *RedisStore) Merge(ctx context.Context, entries map[string][]byte) error {
	if len(entries) == 0 {
		return nil
	}
	values := make(map[string]interface{}, len(entries))
	for key, value := range entries {
		values[key] = value
	}
	if err := s.client.HSet(ctx, s.hash, values).Err(); err != nil {
		return fmt.Errorf("hset %s: %w", s.hash, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.HDel(ctx, s.hash, keys...).Err(); err != nil {
		return fmt.Errorf("hdel %s: %w", s.hash, err)
	}
	return nil
}

func (s *RedisStore) Snapshot(ctx context.Context) (map[string][]byte, error) {
	raw, err := s.client.HGetAll(ctx, s.hash).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", s.hash, err)
	}
	out := make(map[string][]byte, len(raw))
	for key, value := range raw {
		out[key] = []byte(value)
	}
	return out, nil
}

// Flush is a no-op: writes go straight to Redis.
func (s *RedisStore) Flush(context.Context) error {
	return nil
}

func (s *RedisStore) Close() error {
	return nil
}
