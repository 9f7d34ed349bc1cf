package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	apperrors "cogex/backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Name  string
	Genes []string
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "app_cache"))
	require.NoError(t, err)

	var got entry
	found, err := store.Get(ctx, "go", &got)
	require.NoError(t, err)
	assert.False(t, found)

	want := entry{Name: "apoptotic process", Genes: []string{"1097", "6407"}}
	require.NoError(t, store.Put(ctx, "go", want))

	found, err = store.Get(ctx, "go", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, keys)

	// No temporary files are left behind.
	files, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestFileStore_Delete(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "wiki", entry{Name: "x"}))
	require.NoError(t, store.Delete(ctx, "wiki"))
	require.NoError(t, store.Delete(ctx, "wiki"))

	var got entry
	found, err := store.Get(ctx, "wiki", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFileStore_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(store.Path("reactome"), []byte{0xc1, 0xff}, 0o644))

	var got entry
	_, err = store.Get(ctx, "reactome", &got)
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeCache))
}

func TestTiered_BackFillsEarlierTier(t *testing.T) {
	ctx := context.Background()
	near, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	far, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	want := entry{Name: "to_targets", Genes: []string{"1", "2"}}
	require.NoError(t, far.Put(ctx, "to_targets", want))

	tiered := NewTiered(near, nil, far)
	var got entry
	found, err := tiered.Get(ctx, "to_targets", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, want, got)

	var backFilled entry
	found, err = near.Get(ctx, "to_targets", &backFilled)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, backFilled)
}

func TestTiered_DeleteAndKeys(t *testing.T) {
	ctx := context.Background()
	a, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	b, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, a.Put(ctx, "go", entry{}))
	require.NoError(t, b.Put(ctx, "wiki", entry{}))

	tiered := NewTiered(a, b)
	keys, err := tiered.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "wiki"}, keys)

	require.NoError(t, tiered.Put(ctx, "reactome", entry{}))
	require.NoError(t, tiered.Delete(ctx, "go"))
	keys, err = tiered.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"reactome", "wiki"}, keys)
}

// TestRedisStore requires a running Redis instance at REDIS_ADDR.
func TestRedisStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	store, err := NewRedisStore(ctx, addr, "cogex:test:")
	require.NoError(t, err)
	defer store.Close()
	defer func() { _ = store.Delete(ctx, "phenotype") }()

	want := entry{Name: "hp", Genes: []string{"7"}}
	require.NoError(t, store.Put(ctx, "phenotype", want))

	var got entry
	found, err := store.Get(ctx, "phenotype", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Contains(t, keys, "phenotype")
}
