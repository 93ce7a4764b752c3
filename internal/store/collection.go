// Package store implements the cache-backed entity collections that sit in
// front of the repositories. Each collection is an injectable instance owned
// by exactly one service; there are no package-level singletons.
package store

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Loader fetches the authoritative collection from the backend.
type Loader[T any] func(ctx context.Context) ([]T, error)

// Collection holds one entity list plus a search-filtered view, a staleness
// timestamp and the last read error. Reads degrade to stale-but-available
// data when a refresh fails. Racing fetches follow last-response-wins.
type Collection[T any] struct {
	mu    sync.RWMutex
	key   func(T) string
	match func(T, string) bool
	ttl   time.Duration

	items     []T
	filtered  []T
	query     string
	fetchedAt time.Time
	lastErr   string

	now func() time.Time
}

func New[T any](key func(T) string, match func(T, string) bool, ttl time.Duration) *Collection[T] {
	return &Collection[T]{
		key:   key,
		match: match,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Items returns a copy of the full collection.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]T(nil), c.items...)
}

// Filtered returns a copy of the search-filtered view. With an empty query
// it is the full collection in the same order.
func (c *Collection[T]) Filtered() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]T(nil), c.filtered...)
}

func (c *Collection[T]) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Fetch replaces the collection from the loader. On failure the previous
// items stay available and only the error string is updated.
func (c *Collection[T]) Fetch(ctx context.Context, load Loader[T]) error {
	c.mu.Lock()
	c.lastErr = ""
	c.mu.Unlock()

	items, err := load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.lastErr = err.Error()
		return err
	}

	c.items = items
	c.refilterLocked()
	c.fetchedAt = c.now()
	return nil
}

// FetchIfNeeded fetches only when the collection has never been loaded or
// the last successful load is older than the staleness threshold.
func (c *Collection[T]) FetchIfNeeded(ctx context.Context, load Loader[T]) error {
	c.mu.RLock()
	fresh := !c.fetchedAt.IsZero() && c.now().Sub(c.fetchedAt) < c.ttl
	c.mu.RUnlock()

	if fresh {
		return nil
	}
	return c.Fetch(ctx, load)
}

// Invalidate marks the collection stale so the next FetchIfNeeded reloads.
// Used by event subscribers to refresh after cross-store mutations.
func (c *Collection[T]) Invalidate() {
	c.mu.Lock()
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}

// Reconcile upserts the authoritative record into both the full collection
// and the filtered view, matching by primary key.
func (c *Collection[T]) Reconcile(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.key(item)
	replaced := false
	for i := range c.items {
		if c.key(c.items[i]) == id {
			c.items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		c.items = append(c.items, item)
	}
	c.refilterLocked()
}

// SetSearchQuery recomputes the filtered view. Matching is case-insensitive
// and never triggers a refetch.
func (c *Collection[T]) SetSearchQuery(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = strings.ToLower(strings.TrimSpace(query))
	c.refilterLocked()
}

func (c *Collection[T]) refilterLocked() {
	if c.query == "" {
		c.filtered = append([]T(nil), c.items...)
		return
	}

	filtered := make([]T, 0, len(c.items))
	for _, item := range c.items {
		if c.match(item, c.query) {
			filtered = append(filtered, item)
		}
	}
	c.filtered = filtered
}

// Commit persists a tentative mutation and returns the authoritative record.
type Commit[T any] func(ctx context.Context) (T, error)

// Optimistic applies a tentative update to the cached record, then commits.
// On failure the pre-mutation snapshot is restored verbatim and the error is
// returned to the caller. A record not present in the cache degrades to a
// plain pessimistic commit-then-reconcile.
func (c *Collection[T]) Optimistic(ctx context.Context, id string, apply func(T) T, commit Commit[T]) error {
	c.mu.Lock()
	snapshot := append([]T(nil), c.items...)
	applied := false
	for i := range c.items {
		if c.key(c.items[i]) == id {
			c.items[i] = apply(c.items[i])
			applied = true
			break
		}
	}
	if applied {
		c.refilterLocked()
	}
	c.mu.Unlock()

	authoritative, err := commit(ctx)
	if err != nil {
		c.mu.Lock()
		if applied {
			c.items = snapshot
			c.refilterLocked()
		}
		c.lastErr = err.Error()
		c.mu.Unlock()
		return err
	}

	c.Reconcile(authoritative)
	return nil
}
