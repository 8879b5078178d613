// Package cache holds derived report values per owner. Entries expire after a
// TTL and every entry of an owner is dropped when that owner's ledger changes.
package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Cache is a generic owner-scoped cache.
//
// Readers take Generation before loading a value and pass it to Set. Set
// stores nothing when the owner was invalidated in between, so a value
// computed from a pre-invalidation read never lands in the cache.
type Cache[T any] interface {
	Get(owner, key string) (T, bool)
	Generation(owner string) uint64
	// Set stores data if owner is still at generation gen and reports
	// whether it did.
	Set(owner, key string, gen uint64, data T) bool
	// InvalidateOwner removes every entry stored for owner.
	InvalidateOwner(owner string)
}

// Ristretto is a Cache backed by a ristretto TinyLFU cache. Ristretto has no
// prefix delete, so the keys stored per owner are tracked alongside it.
type Ristretto[T any] struct {
	store *ristretto.Cache[string, T]
	ttl   time.Duration

	mu   sync.Mutex
	keys map[string]map[string]struct{} // owner -> full keys
	gens map[string]uint64
}

// New creates a cache holding at most maxItems entries for ttl each.
func New[T any](maxItems int64, ttl time.Duration) (*Ristretto[T], error) {
	if maxItems <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", maxItems)
	}
	store, err := ristretto.NewCache(&ristretto.Config[string, T]{
		NumCounters: maxItems * 10, // number of keys to track frequency of
		MaxCost:     maxItems,
		BufferItems: 64, // number of keys per Get buffer
		// Each entry costs 1 so MaxCost is an item count.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create ristretto cache: %w", err)
	}
	return &Ristretto[T]{
		store: store,
		ttl:   ttl,
		keys:  make(map[string]map[string]struct{}),
		gens:  make(map[string]uint64),
	}, nil
}

// Open returns a Ristretto cache, or Noop when maxItems is 0 so caching can be
// switched off from configuration. The returned func releases the cache.
func Open[T any](maxItems int64, ttl time.Duration) (Cache[T], func(), error) {
	if maxItems == 0 {
		return Noop[T]{}, func() {}, nil
	}
	c, err := New[T](maxItems, ttl)
	if err != nil {
		return nil, nil, err
	}
	return c, c.Close, nil
}

func fullKey(owner, key string) string {
	return owner + "\x00" + key
}

func (c *Ristretto[T]) Get(owner, key string) (T, bool) {
	return c.store.Get(fullKey(owner, key))
}

func (c *Ristretto[T]) Generation(owner string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[owner]
}

// Set stores data with cost 1. It waits for the write buffer so a following
// Get observes the value. The lock is held across the write so an
// InvalidateOwner cannot slip between the generation check and the store.
func (c *Ristretto[T]) Set(owner, key string, gen uint64, data T) bool {
	k := fullKey(owner, key)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[owner] != gen {
		return false
	}
	owned, ok := c.keys[owner]
	if !ok {
		owned = make(map[string]struct{})
		c.keys[owner] = owned
	}
	owned[k] = struct{}{}

	c.store.SetWithTTL(k, data, 1, c.ttl)
	c.store.Wait()
	return true
}

func (c *Ristretto[T]) InvalidateOwner(owner string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[owner]++
	for k := range c.keys[owner] {
		c.store.Del(k)
	}
	delete(c.keys, owner)
}

// Close stops the ristretto background goroutines.
func (c *Ristretto[T]) Close() {
	c.store.Close()
}

// Noop never stores anything. It stands in when caching is disabled.
type Noop[T any] struct{}

func (Noop[T]) Get(string, string) (T, bool) {
	var zero T
	return zero, false
}

func (Noop[T]) Generation(string) uint64 { return 0 }

func (Noop[T]) Set(string, string, uint64, T) bool { return false }

func (Noop[T]) InvalidateOwner(string) {}
