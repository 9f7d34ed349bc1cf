package curation

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is an in-memory Store that counts List calls.
type memoryStore struct {
	mu        sync.Mutex
	curations []Curation
	lists     atomic.Int32
	err       error

	// listed and release, when set, hold List after it has read the
	// curations until release is closed.
	listed  chan struct{}
	release chan struct{}
}

func (m *memoryStore) List(ctx context.Context) ([]Curation, error) {
	m.lists.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	out := append([]Curation(nil), m.curations...)
	m.mu.Unlock()
	if m.release != nil {
		select {
		case m.listed <- struct{}{}:
		default:
		}
		<-m.release
	}
	return out, nil
}

func (m *memoryStore) Create(ctx context.Context, c *Curation) error {
	if err := validate(c); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.curations = append(m.curations, *c)
	return nil
}

func (m *memoryStore) ForHashes(ctx context.Context, hashes []int64) ([]Curation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return forHashes(m.curations, hashes), nil
}

func TestCache_ReloadsAfterTTL(t *testing.T) {
	store := &memoryStore{curations: []Curation{{PAHash: 1, Tag: TagCorrect, Curator: "a"}}}
	cache := NewCache(store, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	got, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), store.lists.Load())

	now = now.Add(2 * time.Minute)
	_, err = cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), store.lists.Load())
}

func TestCache_Invalidate(t *testing.T) {
	store := &memoryStore{}
	cache := NewCache(store, time.Hour)

	got, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.Create(context.Background(), &Curation{PAHash: 3, Tag: "other", Curator: "b"}))
	got, _ = cache.Get(context.Background())
	assert.Empty(t, got)

	cache.Invalidate()
	got, err = cache.Get(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCache_InvalidateDuringLoad(t *testing.T) {
	store := &memoryStore{listed: make(chan struct{}, 1), release: make(chan struct{})}
	cache := NewCache(store, time.Hour)

	done := make(chan []Curation, 1)
	go func() {
		got, err := cache.Get(context.Background())
		assert.NoError(t, err)
		done <- got
	}()
	<-store.listed

	require.NoError(t, store.Create(context.Background(), &Curation{PAHash: 7, Tag: TagCorrect, Curator: "a"}))
	cache.Invalidate()
	close(store.release)
	assert.Empty(t, <-done)

	got, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCache_PropagatesErrors(t *testing.T) {
	cache := NewCache(&memoryStore{err: fmt.Errorf("database is locked")}, time.Hour)
	_, err := cache.Get(context.Background())
	assert.Error(t, err)
}

func TestCache_ConcurrentGets(t *testing.T) {
	store := &memoryStore{curations: []Curation{{PAHash: 1, Tag: TagCorrect, Curator: "a"}}}
	cache := NewCache(store, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := cache.Get(context.Background())
			assert.NoError(t, err)
			assert.Len(t, got, 1)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, store.lists.Load(), int32(20))
	assert.GreaterOrEqual(t, store.lists.Load(), int32(1))
}
