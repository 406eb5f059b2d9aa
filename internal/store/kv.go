package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("key not found")

// KV is a process-wide key-value store.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
	Clear(ctx context.Context) error
}

// RedisKV namespaces every key under a prefix.
type RedisKV struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisKV returns a KV over rdb. A zero ttl keeps keys until deleted.
func NewRedisKV(rdb *redis.Client, prefix string, ttl time.Duration) *RedisKV {
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	return &RedisKV{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return val, err
}

func (s *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	return s.rdb.Set(ctx, s.prefix+key, value, s.ttl).Err()
}

func (s *RedisKV) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.prefix+key).Err()
}

// Keys returns matching keys with the prefix stripped.
func (s *RedisKV) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys, err := s.rdb.Keys(ctx, s.prefix+pattern).Result()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(k, s.prefix))
	}
	return out, nil
}

// Clear removes every key under the prefix.
func (s *RedisKV) Clear(ctx context.Context) error {
	keys, err := s.rdb.Keys(ctx, s.prefix+"*").Result()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

// Ping reports whether Redis is reachable.
func (s *RedisKV) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
