// Package cached puts a read-through LRU cache in front of a slow table backend.
package cached

import (
	"context"
	"time"

	"budget/internal/cache"
	"budget/internal/metrics"
	"budget/internal/sheets"
	"budget/internal/table"
)

var _ sheets.TableStore = (*Store)(nil)

// Store caches whole tables. Writes go to the backend first and then
// replace the cached copy; a failed write evicts it.
type Store struct {
	next    sheets.TableStore
	cache   *cache.LRUCache[table.Table]
	metrics *metrics.Metrics
}

// New wraps next with a cache of at most maxTables entries living for ttl.
func New(next sheets.TableStore, maxTables int, ttl time.Duration, m *metrics.Metrics) *Store {
	return &Store{
		next:    next,
		cache:   cache.NewLRUCache[table.Table](maxTables, ttl),
		metrics: m,
	}
}

// Cache exposes the underlying LRU so a cache.Manager can sweep it.
func (s *Store) Cache() *cache.LRUCache[table.Table] {
	return s.cache
}

// Read serves from cache, falling back to the backend.
func (s *Store) Read(ctx context.Context, name string) (table.Table, error) {
	if t, ok := s.cache.Get(name); ok {
		s.metrics.IncrCacheHit(name)
		return t.Clone(), nil
	}
	s.metrics.IncrCacheMiss(name)

	t, err := s.next.Read(ctx, name)
	if err != nil {
		return table.Table{}, err
	}
	s.cache.Set(name, t.Clone())
	return t, nil
}

// Write replaces the table in the backend and then in the cache.
func (s *Store) Write(ctx context.Context, name string, t table.Table) error {
	if err := s.next.Write(ctx, name, t); err != nil {
		s.cache.Delete(name)
		return err
	}
	s.cache.Set(name, t.Clone())
	return nil
}

// Exists answers from cache when possible.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	if _, ok := s.cache.Get(name); ok {
		return true, nil
	}
	return s.next.Exists(ctx, name)
}

// Invalidate drops every cached table.
func (s *Store) Invalidate() {
	s.cache.Purge()
}
