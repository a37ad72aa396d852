// Package cache holds the bounded memo used for mapping metadata.
package cache

import (
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// ErrInvalidSize is returned by New for non-positive sizes.
var ErrInvalidSize = errors.New("cache: size must be positive")

// Memo is an LRU bounded cache whose misses are filled through a build
// function. Concurrent misses on the same key share one build.
type Memo[K comparable, V any] struct {
	cache *lru.Cache[K, V]
	group singleflight.Group
	key   func(K) string
}

// New returns a Memo holding at most size entries. key maps a cache key to
// the string used to collapse concurrent builds; it must be injective over
// the keys in use. onEvict may be nil.
func New[K comparable, V any](size int, key func(K) string, onEvict func(K, V)) (*Memo[K, V], error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	var (
		c   *lru.Cache[K, V]
		err error
	)
	if onEvict != nil {
		c, err = lru.NewWithEvict(size, onEvict)
	} else {
		c, err = lru.New[K, V](size)
	}
	if err != nil {
		return nil, err
	}

	return &Memo[K, V]{cache: c, key: key}, nil
}

// Get returns the cached value for k.
func (m *Memo[K, V]) Get(k K) (V, bool) {
	return m.cache.Get(k)
}

// Contains reports whether k is cached without touching its recency.
func (m *Memo[K, V]) Contains(k K) bool {
	return m.cache.Contains(k)
}

// GetOrBuild returns the cached value for k, building and caching it on a
// miss. hit reports whether the value came straight from the cache. A
// failed build caches nothing and the error is returned to every waiter.
func (m *Memo[K, V]) GetOrBuild(k K, build func() (V, error)) (v V, hit bool, err error) {
	// Fast path
	if v, ok := m.cache.Get(k); ok {
		return v, true, nil
	}

	res, err, _ := m.group.Do(m.key(k), func() (any, error) {
		// Double-check, another flight may have finished in between
		if v, ok := m.cache.Get(k); ok {
			return v, nil
		}

		v, err := build()
		if err != nil {
			return nil, err
		}

		m.cache.Add(k, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, false, err
	}

	return res.(V), false, nil
}

// Add stores v under k, replacing any previous value.
func (m *Memo[K, V]) Add(k K, v V) {
	m.cache.Add(k, v)
}

// Remove drops k and reports whether it was present.
func (m *Memo[K, V]) Remove(k K) bool {
	return m.cache.Remove(k)
}

// Keys returns the cached keys from oldest to newest.
func (m *Memo[K, V]) Keys() []K {
	return m.cache.Keys()
}

// Values returns the cached values from oldest to newest.
func (m *Memo[K, V]) Values() []V {
	return m.cache.Values()
}

// Len returns the number of cached entries.
func (m *Memo[K, V]) Len() int {
	return m.cache.Len()
}

// Purge drops every entry. The evict callback fires for each of them.
func (m *Memo[K, V]) Purge() {
	m.cache.Purge()
}
