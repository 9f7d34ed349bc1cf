package cache

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "cogex/backend/pkg/errors"

	goredis "github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// RedisStore shares gene-set mappings between service replicas.
type RedisStore struct {
	rdb    goredis.UniversalClient
	prefix string
}

// NewRedisStore connects to addr and pings it.
func NewRedisStore(ctx context.Context, addr, prefix string) (*RedisStore, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStoreWithClient(rdb, prefix), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(rdb goredis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	raw, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if stderrors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.NewCacheReadFailed(key, err)
	}
	if err := msgpack.Unmarshal(raw, dst); err != nil {
		return false, apperrors.NewCacheReadFailed(key, err)
	}
	return true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, value interface{}) error {
	raw, err := msgpack.Marshal(value)
	if err != nil {
		return apperrors.NewCacheWriteFailed(key, err)
	}
	if err := s.rdb.Set(ctx, s.prefix+key, raw, 0).Err(); err != nil {
		return apperrors.NewCacheWriteFailed(key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.prefix+key).Err(); err != nil {
		return apperrors.NewCacheWriteFailed(key, err)
	}
	return nil
}

func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.rdb.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, apperrors.NewCacheReadFailed(s.prefix+"*", err)
	}
	sort.Strings(keys)
	return keys, nil
}
