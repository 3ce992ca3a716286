package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Key identifies a cached query by its semantic identity: entity type,
// operation, and parameters, e.g. "missions:detail:42:u7" or
// "participations:mine:7".
type Key string

// NewKey builds a Key from its structured parts
func NewKey(entity, op string, params ...string) Key {
	parts := append([]string{entity, op}, params...)
	return Key(strings.Join(parts, ":"))
}

// HasPrefix reports whether the key falls under the given prefix
func (k Key) HasPrefix(prefix Key) bool {
	return k == prefix || strings.HasPrefix(string(k), string(prefix)+":")
}

// FetchFunc loads the authoritative value for a cache entry
type FetchFunc func(ctx context.Context) (interface{}, error)

type entry struct {
	value     interface{}
	fetchedAt time.Time
	// gen counts invalidations of this entry. A fetch that started under an
	// older generation may carry pre-mutation data and must not mark the
	// entry fresh when it lands.
	gen uint64
	// failed marks that the most recent refetch failed; value still holds
	// the last good result
	failed bool
	// refreshing dedupes background revalidations
	refreshing bool
}

// QueryCache holds the last-known result of each distinct query and supports
// read-through with stale-while-revalidate, optimistic writes paired with
// snapshots for exact rollback, and targeted invalidation.
//
// Invalidation marks entries stale instead of dropping them, so a stale read
// can still serve the previous value while the refetch is in flight.
type QueryCache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	retries int
	logger  zerolog.Logger

	// fetchTimeout bounds background revalidations, which outlive the
	// request context that triggered them
	fetchTimeout time.Duration
}

// NewQueryCache creates a QueryCache. retries is the number of additional
// attempts a failed refetch is given before the entry is flagged failed.
func NewQueryCache(retries int, logger zerolog.Logger) *QueryCache {
	if retries < 0 {
		retries = 0
	}
	return &QueryCache{
		entries:      make(map[Key]*entry),
		retries:      retries,
		logger:       logger,
		fetchTimeout: 10 * time.Second,
	}
}

// ReadThrough returns the value for key, fetching it when needed.
//
// A fresh hit (age below ttl) returns the cached value without calling fetch.
// A stale hit returns the cached value immediately and revalidates in the
// background. A miss fetches synchronously. A ttl of zero pins the key
// always-stale: fetch runs synchronously on every read so the caller never
// sees out-of-date state.
//
// When a fetch fails but a previous value exists, the previous value is
// returned alongside the error and the entry keeps its last good value with
// an error flag set; the cache is never cleared by a failed read.
func (c *QueryCache) ReadThrough(ctx context.Context, key Key, ttl time.Duration, fetch FetchFunc) (interface{}, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	var startGen uint64
	if ok {
		startGen = e.gen
	}

	if ok && ttl > 0 && time.Since(e.fetchedAt) < ttl {
		value := e.value
		c.mu.Unlock()
		return value, nil
	}

	// Stale hit with a nonzero window: serve the cached value now and
	// revalidate in the background.
	if ok && ttl > 0 {
		value := e.value
		if !e.refreshing {
			e.refreshing = true
			go c.revalidate(key, startGen, fetch)
		}
		c.mu.Unlock()
		return value, nil
	}
	c.mu.Unlock()

	// Miss, or an always-stale key: fetch synchronously.
	value, err := c.fetchWithRetries(ctx, fetch)
	if err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if e, ok := c.entries[key]; ok {
			e.failed = true
			return e.value, err
		}
		return nil, err
	}

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		// An invalidation that arrived mid-fetch means the result may
		// predate the mutation; keep the entry stale so the next read
		// refetches.
		if e.gen == startGen {
			e.value = value
			e.fetchedAt = time.Now()
			e.failed = false
		}
	} else {
		c.entries[key] = &entry{value: value, fetchedAt: time.Now()}
	}
	c.mu.Unlock()
	return value, nil
}

// revalidate refetches a stale entry in the background, keeping the last good
// value in place when the refetch fails. startGen is the entry's generation
// when the refetch began; an invalidation during the refetch bumps it, in
// which case the result is discarded and the entry stays stale.
func (c *QueryCache) revalidate(key Key, startGen uint64, fetch FetchFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), c.fetchTimeout)
	defer cancel()

	value, err := c.fetchWithRetries(ctx, fetch)

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return
	}
	e.refreshing = false
	if err != nil {
		c.logger.Warn().Err(err).Str("key", string(key)).Msg("Background refetch failed, keeping last good value")
		e.failed = true
		return
	}
	if e.gen != startGen {
		return
	}
	e.value = value
	e.fetchedAt = time.Now()
	e.failed = false
}

func (c *QueryCache) fetchWithRetries(ctx context.Context, fetch FetchFunc) (interface{}, error) {
	value, err := fetch(ctx)
	for attempt := 0; err != nil && attempt < c.retries; attempt++ {
		if ctx.Err() != nil {
			return nil, err
		}
		value, err = fetch(ctx)
	}
	return value, err
}

// Get returns the cached value for key without triggering a fetch
func (c *QueryCache) Get(key Key) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Failed reports whether the most recent refetch for key failed
func (c *QueryCache) Failed(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return ok && e.failed
}

// Put stores a value for key, marking it freshly fetched. An existing entry
// keeps its generation so fetches that started before a prior invalidation
// still cannot mark it fresh.
func (c *QueryCache) Put(key Key, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.fetchedAt = time.Now()
		e.failed = false
		return
	}
	c.entries[key] = &entry{value: value, fetchedAt: time.Now()}
}

// Snapshot captures the prior state of a cache entry, enabling exact rollback
// of an optimistic write
type Snapshot struct {
	cache   *QueryCache
	key     Key
	existed bool
	prev    entry
}

// Optimistic applies a speculative mutation to the cached value for key,
// returning a snapshot of the prior state. When no entry exists the mutation
// is skipped but the (absent) state is still captured, so Restore is always
// safe to call. Every optimistic write must be paired with either a Restore
// on failure or an Invalidate fan-out on success.
func (c *QueryCache) Optimistic(key Key, mutate func(interface{}) interface{}) *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := &Snapshot{cache: c, key: key}
	e, ok := c.entries[key]
	if !ok {
		return snap
	}

	snap.existed = true
	snap.prev = *e

	updated := *e
	updated.value = mutate(e.value)
	c.entries[key] = &updated
	return snap
}

// Restore puts the entry back to the exact state captured by the snapshot
func (s *Snapshot) Restore() {
	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()

	if !s.existed {
		delete(s.cache.entries, s.key)
		return
	}
	prev := s.prev
	s.cache.entries[s.key] = &prev
}

// Invalidate marks the entries under the given key prefixes stale. The next
// read of an invalidated key refetches; until the refetch completes the old
// value remains servable.
func (c *QueryCache) Invalidate(prefixes ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		for _, prefix := range prefixes {
			if key.HasPrefix(prefix) {
				e.fetchedAt = time.Time{}
				e.gen++
				break
			}
		}
	}
}
