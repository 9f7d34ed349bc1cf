package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"cogex/backend/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeVerifier struct {
	err      error
	deadline bool
}

func (f *fakeVerifier) VerifyConnectivity(ctx context.Context) error {
	_, f.deadline = ctx.Deadline()
	return f.err
}

func TestHealthCheck(t *testing.T) {
	v := &fakeVerifier{}
	require.NoError(t, healthCheck(v)(context.Background()))
	assert.True(t, v.deadline)

	v.err = errors.New("connection refused")
	assert.Error(t, healthCheck(v)(context.Background()))
}

func TestNewCacheStore_FileOnly(t *testing.T) {
	cfg := &config.Config{CacheDir: t.TempDir()}

	store, err := newCacheStore(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "go", map[string]int{"a": 1}))
	var out map[string]int
	ok, err := store.Get(ctx, "go", &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, out["a"])
}

func TestNewCacheStore_UnreachableRedisFallsBack(t *testing.T) {
	cfg := &config.Config{
		CacheDir:    t.TempDir(),
		RedisAddr:   "127.0.0.1:1",
		RedisPrefix: "test:",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store, err := newCacheStore(ctx, cfg, zap.NewNop())
	require.NoError(t, err)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}
