package genesets

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cogex/backend/internal/cache"
	"cogex/backend/internal/graph"
	apperrors "cogex/backend/pkg/errors"
	"cogex/backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Collector builds gene-set mappings from graph queries. Results are memoized
// in process and persisted in a cache store keyed by cache key; concurrent
// callers for the same key share one graph query.
type Collector struct {
	runner graph.QueryRunner
	store  cache.Store
	logger *zap.Logger

	mu          sync.RWMutex
	sets        map[string]Mapping
	confidences map[string]ConfidenceMapping
	counts      map[string]int
	group       singleflight.Group
}

// NewCollector creates a collector. store may be nil to disable persistence.
func NewCollector(runner graph.QueryRunner, store cache.Store) *Collector {
	return &Collector{
		runner:      runner,
		store:       store,
		logger:      logger.Get().With(zap.String("component", "genesets")),
		sets:        make(map[string]Mapping),
		confidences: make(map[string]ConfidenceMapping),
		counts:      make(map[string]int),
	}
}

// shared runs load once per key for all concurrent callers. The load is not
// bound to any one caller's context, so a caller that gives up only stops
// waiting.
func (c *Collector) shared(ctx context.Context, key string, load func(context.Context) (interface{}, error)) (interface{}, error) {
	ch := c.group.DoChan(key, func() (interface{}, error) {
		return load(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, apperrors.NewContextCancelled("collect "+key, ctx.Err())
	}
}

// CollectGeneSets returns the mapping for cacheKey, running query when neither
// the memo nor the store has it. Rows are (curie, name, [gene curies]). The
// returned mapping is shared; use Clone before modifying it.
func (c *Collector) CollectGeneSets(ctx context.Context, cacheKey, query string) (Mapping, error) {
	c.mu.RLock()
	m, ok := c.sets[cacheKey]
	c.mu.RUnlock()
	if ok {
		return m, nil
	}

	v, err := c.shared(ctx, "sets:"+cacheKey, func(ctx context.Context) (interface{}, error) {
		c.mu.RLock()
		m, ok := c.sets[cacheKey]
		c.mu.RUnlock()
		if ok {
			return m, nil
		}

		var entries []mappingEntry
		if found, err := c.load(ctx, cacheKey, &entries); err != nil {
			return nil, err
		} else if found {
			m = mappingFromEntries(entries)
		} else {
			start := time.Now()
			rows, err := c.runner.QueryTx(ctx, query, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to collect %s gene sets: %w", cacheKey, err)
			}
			if m, err = mappingFromRows(rows); err != nil {
				return nil, err
			}
			c.logger.Info("Collected gene sets",
				zap.String("key", cacheKey),
				zap.Int("sets", len(m)),
				zap.Duration("elapsed", time.Since(start)),
			)
			c.save(ctx, cacheKey, m.entries())
		}

		c.mu.Lock()
		c.sets[cacheKey] = m
		c.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Mapping), nil
}

// CollectGenesWithConfidence is CollectGeneSets for rows of
// (curie, name, [[gene curie, belief, evidence count]]). For each key and gene
// the maximum belief and maximum evidence count across rows are kept.
func (c *Collector) CollectGenesWithConfidence(ctx context.Context, cacheKey, query string) (ConfidenceMapping, error) {
	return c.collectConfidence(ctx, cacheKey, query, confidenceFromRows)
}

func (c *Collector) collectConfidence(ctx context.Context, cacheKey, query string, parse func([][]interface{}) (ConfidenceMapping, error)) (ConfidenceMapping, error) {
	c.mu.RLock()
	m, ok := c.confidences[cacheKey]
	c.mu.RUnlock()
	if ok {
		return m, nil
	}

	v, err := c.shared(ctx, "confidence:"+cacheKey, func(ctx context.Context) (interface{}, error) {
		c.mu.RLock()
		m, ok := c.confidences[cacheKey]
		c.mu.RUnlock()
		if ok {
			return m, nil
		}

		var entries []confidenceEntry
		if found, err := c.load(ctx, cacheKey, &entries); err != nil {
			return nil, err
		} else if found {
			m = confidenceFromEntries(entries)
		} else {
			start := time.Now()
			rows, err := c.runner.QueryTx(ctx, query, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to collect %s gene sets: %w", cacheKey, err)
			}
			if m, err = parse(rows); err != nil {
				return nil, err
			}
			c.logger.Info("Collected confidence-weighted gene sets",
				zap.String("key", cacheKey),
				zap.Int("sets", len(m)),
				zap.Duration("elapsed", time.Since(start)),
			)
			c.save(ctx, cacheKey, m.entries())
		}

		c.mu.Lock()
		c.confidences[cacheKey] = m
		c.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(ConfidenceMapping), nil
}

// CollectCount returns the single integer answered by query, memoized and
// persisted like a mapping.
func (c *Collector) CollectCount(ctx context.Context, cacheKey, query string) (int, error) {
	c.mu.RLock()
	n, ok := c.counts[cacheKey]
	c.mu.RUnlock()
	if ok {
		return n, nil
	}

	v, err := c.shared(ctx, "count:"+cacheKey, func(ctx context.Context) (interface{}, error) {
		c.mu.RLock()
		n, ok := c.counts[cacheKey]
		c.mu.RUnlock()
		if ok {
			return n, nil
		}

		if found, err := c.load(ctx, cacheKey, &n); err != nil {
			return nil, err
		} else if !found {
			rows, err := c.runner.QueryTx(ctx, query, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to count %s: %w", cacheKey, err)
			}
			if len(rows) > 0 && len(rows[0]) > 0 {
				n = toInt(rows[0][0])
			}
			c.logger.Info("Counted", zap.String("key", cacheKey), zap.Int("count", n))
			c.save(ctx, cacheKey, n)
		}

		c.mu.Lock()
		c.counts[cacheKey] = n
		c.mu.Unlock()
		return n, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// Invalidate forgets cacheKey in memory and in the store.
func (c *Collector) Invalidate(ctx context.Context, cacheKey string) error {
	c.mu.Lock()
	delete(c.sets, cacheKey)
	delete(c.confidences, cacheKey)
	delete(c.counts, cacheKey)
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	return c.store.Delete(ctx, cacheKey)
}

// load treats unreadable entries as misses so a corrupt file is rebuilt.
func (c *Collector) load(ctx context.Context, cacheKey string, dst interface{}) (bool, error) {
	if c.store == nil {
		return false, nil
	}
	found, err := c.store.Get(ctx, cacheKey, dst)
	if err != nil {
		if ctx.Err() != nil {
			return false, apperrors.NewContextCancelled("load "+cacheKey, ctx.Err())
		}
		c.logger.Warn("Ignoring unreadable cache entry", zap.String("key", cacheKey), zap.Error(err))
		return false, nil
	}
	return found, nil
}

// save logs and continues on failure; the result is still memoized.
func (c *Collector) save(ctx context.Context, cacheKey string, value interface{}) {
	if c.store == nil {
		return
	}
	if err := c.store.Put(ctx, cacheKey, value); err != nil {
		c.logger.Warn("Failed to persist gene sets", zap.String("key", cacheKey), zap.Error(err))
	}
}

func keyFromRow(row []interface{}, i int) (Key, error) {
	if len(row) < 3 {
		return Key{}, apperrors.NewGraphMalformedRow(i, fmt.Sprintf("expected 3 columns, got %d", len(row)))
	}
	curie, ok := row[0].(string)
	if !ok {
		return Key{}, apperrors.NewGraphMalformedRow(i, "curie is not a string")
	}
	name, _ := row[1].(string)
	return Key{CURIE: curie, Name: name}, nil
}

func mappingFromRows(rows [][]interface{}) (Mapping, error) {
	out := make(Mapping, len(rows))
	for i, row := range rows {
		key, err := keyFromRow(row, i)
		if err != nil {
			return nil, err
		}
		genes, ok := row[2].([]interface{})
		if !ok && row[2] != nil {
			return nil, apperrors.NewGraphMalformedRow(i, "genes column is not a list")
		}
		set, exists := out[key]
		if !exists {
			set = make(GeneSet, len(genes))
			out[key] = set
		}
		for _, g := range genes {
			if id, ok := g.(string); ok && id != "" {
				set.Add(NormalizeGeneID(id))
			}
		}
	}
	return out, nil
}

func confidenceFromRows(rows [][]interface{}) (ConfidenceMapping, error) {
	out := make(ConfidenceMapping, len(rows))
	for i, row := range rows {
		key, err := keyFromRow(row, i)
		if err != nil {
			return nil, err
		}
		triples, ok := row[2].([]interface{})
		if !ok && row[2] != nil {
			return nil, apperrors.NewGraphMalformedRow(i, "genes column is not a list")
		}
		genes, exists := out[key]
		if !exists {
			genes = make(map[string]Confidence, len(triples))
			out[key] = genes
		}
		for _, t := range triples {
			triple, ok := t.([]interface{})
			if !ok || len(triple) < 3 {
				return nil, apperrors.NewGraphMalformedRow(i, "expected [gene, belief, evidence_count]")
			}
			id, ok := triple[0].(string)
			if !ok || id == "" {
				continue
			}
			gene := NormalizeGeneID(id)
			belief := toFloat(triple[1])
			evidence := toInt(triple[2])

			prev, seen := genes[gene]
			if !seen {
				genes[gene] = Confidence{Belief: belief, EvidenceCount: evidence}
				continue
			}
			genes[gene] = Confidence{
				Belief:        max(prev.Belief, belief),
				EvidenceCount: max(prev.EvidenceCount, evidence),
			}
		}
	}
	return out, nil
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}
