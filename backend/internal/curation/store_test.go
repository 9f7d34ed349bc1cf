package curation

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	apperrors "cogex/backend/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "db", "curation.sqlite"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	store := NewGormStore(db)
	require.NoError(t, store.AutoMigrate(context.Background()))
	return store
}

func TestGormStore_CreateAndList(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first := &Curation{PAHash: 11, SourceHash: 1, Tag: TagCorrect, Curator: "alice", CreatedAt: time.Now().UTC().Add(-time.Hour)}
	second := &Curation{PAHash: 12, SourceHash: 2, Tag: "no_relation", Curator: "bob", Text: "not supported"}
	require.NoError(t, store.Create(ctx, first))
	require.NoError(t, store.Create(ctx, second))

	assert.NotEqual(t, uuid.Nil, first.ID)
	assert.False(t, second.CreatedAt.IsZero())

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(11), all[0].PAHash)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, "not supported", all[1].Text)
	assert.False(t, all[1].Positive())

	some, err := store.ForHashes(ctx, []int64{12, 99})
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Equal(t, "bob", some[0].Curator)

	none, err := store.ForHashes(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGormStore_CreateValidates(t *testing.T) {
	store := newTestStore(t)

	tests := []struct {
		name string
		c    *Curation
	}{
		{"nil", nil},
		{"missing hash", &Curation{Tag: TagCorrect, Curator: "a"}},
		{"missing tag", &Curation{PAHash: 1, Curator: "a"}},
		{"missing curator", &Curation{PAHash: 1, Tag: TagCorrect}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Create(context.Background(), tt.c)
			require.Error(t, err)
			assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeInput))
		})
	}
}

func TestIsPostgresDSN(t *testing.T) {
	assert.True(t, isPostgresDSN("postgres://u:p@localhost:5432/cogex"))
	assert.True(t, isPostgresDSN("postgresql://localhost/cogex"))
	assert.False(t, isPostgresDSN("/var/lib/cogex/curation.sqlite"))
}

func TestDirOf(t *testing.T) {
	assert.Equal(t, "/var/lib/cogex", dirOf("/var/lib/cogex/curation.sqlite"))
	assert.Equal(t, "", dirOf("curation.sqlite"))
	assert.Equal(t, "", dirOf(":memory:"))
	assert.Equal(t, "", dirOf("file::memory:?cache=shared"))
}
