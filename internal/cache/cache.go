// Package cache provides a content-addressed result cache with at most
// one in-flight computation per key. Entries are never evicted
// implicitly; only explicit invalidation removes them.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Entry records one cached artifact reference.
type Entry struct {
	Key       string
	Ref       string
	CreatedAt time.Time
	HitCount  int64
}

// Cache is a key to artifact-reference map. Check-then-insert is
// serialized per key through singleflight so concurrent identical
// requests share one computation; unrelated keys never contend beyond the
// map lock.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	group   singleflight.Group
}

func New() *Cache {
	return &Cache{entries: make(map[string]*Entry)}
}

// GetOrCompute returns the artifact reference for key, computing it with
// compute on a miss. Concurrent callers for the same key observe the
// first caller's in-progress computation and receive its result. The
// returned hit flag is true when no computation ran on behalf of this
// caller. A context cancelled before the computed value is committed
// prevents this caller's write; an entry committed by another holder of
// the key stays.
func (c *Cache) GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) (string, error)) (string, bool, error) {
	if ref, ok := c.lookupAndTouch(key); ok {
		return ref, true, nil
	}

	var computed bool
	v, err, shared := c.group.Do(key, func() (any, error) {
		// A racing writer may have inserted between the fast path
		// and entering the flight; first writer wins.
		if ref, ok := c.lookupAndTouch(key); ok {
			return ref, nil
		}
		ref, err := compute(ctx)
		if err != nil {
			return "", err
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		computed = true
		c.commit(key, ref)
		return ref, nil
	})
	if err != nil {
		return "", false, err
	}
	hit := shared || !computed
	return v.(string), hit, nil
}

// Get returns the entry for key without computing.
func (c *Cache) Get(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Invalidate removes the entry for key. The next GetOrCompute for the key
// recomputes.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	c.group.Forget(key)
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) lookupAndTouch(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	e.HitCount++
	return e.Ref, true
}

// commit inserts the entry unless a racing computation got there first.
// Entries are superseded only through Invalidate, never mutated in place.
func (c *Cache) commit(key, ref string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; exists {
		return
	}
	c.entries[key] = &Entry{Key: key, Ref: ref, CreatedAt: time.Now().UTC()}
}
