// Package cache persists computed gene-set mappings between runs.
//
// Entries are msgpack-encoded and keyed by source name. Nothing expires:
// deleting an entry is the only way to force a rebuild.
package cache

import (
	"context"
	"sort"

	"cogex/backend/pkg/logger"

	"go.uber.org/zap"
)

// Store is a key/value store for encoded gene-set mappings.
type Store interface {
	// Get decodes the entry for key into dst. It reports false when the entry
	// does not exist.
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Put(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// Tiered reads through its stores in order and back-fills the earlier tiers
// when a later one has the entry. Writes and deletes go to every tier.
type Tiered struct {
	stores []Store
	logger *zap.Logger
}

// NewTiered creates a tiered store. Nil stores are skipped.
func NewTiered(stores ...Store) *Tiered {
	t := &Tiered{logger: logger.Get().With(zap.String("component", "cache"))}
	for _, s := range stores {
		if s != nil {
			t.stores = append(t.stores, s)
		}
	}
	return t
}

func (t *Tiered) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	for i, s := range t.stores {
		found, err := s.Get(ctx, key, dst)
		if err != nil {
			return false, err
		}
		if !found {
			continue
		}
		for _, earlier := range t.stores[:i] {
			if err := earlier.Put(ctx, key, dst); err != nil {
				t.logger.Warn("Failed to back-fill cache tier", zap.String("key", key), zap.Error(err))
			}
		}
		return true, nil
	}
	return false, nil
}

func (t *Tiered) Put(ctx context.Context, key string, value interface{}) error {
	for _, s := range t.stores {
		if err := s.Put(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tiered) Delete(ctx context.Context, key string) error {
	for _, s := range t.stores {
		if err := s.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Keys returns the sorted union of keys across tiers.
func (t *Tiered) Keys(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	for _, s := range t.stores {
		keys, err := s.Keys(ctx)
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			seen[k] = true
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}
