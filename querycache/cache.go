// Package querycache is a keyed read cache with stale windows, shared
// in-flight reads and explicit invalidation. Writes never go through it;
// callers update or invalidate entries after a successful mutation.
package querycache

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Options control how one query is cached.
type Options struct {
	// StaleTime is how long a value stays fresh. Zero means stale at once,
	// so every read refetches while concurrent reads still share one call.
	StaleTime time.Duration
	// RefetchOnFocus marks the entry for invalidation by Focus.
	RefetchOnFocus bool
}

// State describes an entry for inspection.
type State struct {
	HasValue    bool
	UpdatedAt   time.Time
	Invalidated bool
	Stale       bool
}

type entry struct {
	value       any
	hasValue    bool
	updatedAt   time.Time
	invalidated bool
	opts        Options
}

type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	// gens counts writes per key and outlives removed entries; a fetch only
	// stores its result when the generation it started with is current.
	gens    map[Key]uint64
	flights singleflight.Group
	now     func() time.Time
	log     *logrus.Entry
}

type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func WithLogger(log *logrus.Entry) Option {
	return func(c *Cache) { c.log = log }
}

func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[Key]*entry),
		gens:    make(map[Key]uint64),
		now:     time.Now,
		log:     logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query returns the cached value for key while it is fresh and otherwise
// calls fetch. Concurrent callers of the same key share one fetch. When
// fetch fails the last good value, if any, is returned with the error.
func Query[T any](ctx context.Context, c *Cache, key Key, opts Options, fetch func(context.Context) (T, error)) (T, error) {
	var zero T

	v, err := c.fetch(ctx, key, opts, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		if last, ok := Peek[T](c, key); ok {
			return last, err
		}
		return zero, err
	}

	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("querycache: %s holds %T", key, v)
	}
	return t, nil
}

// Peek returns the cached value without fetching.
func Peek[T any](c *Cache, key Key) (T, bool) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

func (c *Cache) fetch(ctx context.Context, key Key, opts Options, fn func(context.Context) (any, error)) (any, error) {
	c.mu.Lock()
	e := c.entries[key]
	if e == nil {
		e = &entry{}
		c.entries[key] = e
	}
	// The reading query decides freshness, also for values written by Set.
	e.opts = opts
	if e.hasValue && !e.invalidated && !c.staleLocked(e) {
		v := e.value
		c.mu.Unlock()
		return v, nil
	}
	gen := c.gens[key]
	c.mu.Unlock()

	flightKey := fmt.Sprintf("%s#%d", key, gen)
	v, err, shared := c.flights.Do(flightKey, func() (any, error) {
		value, err := fn(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gens[key] != gen {
			c.log.WithField("key", key.String()).Debug("query result discarded, key changed while in flight")
			return value, nil
		}
		e := c.entries[key]
		if e == nil {
			e = &entry{opts: opts}
			c.entries[key] = e
		}
		e.value = value
		e.hasValue = true
		e.updatedAt = c.now()
		e.invalidated = false
		return value, nil
	})
	if shared {
		c.log.WithField("key", key.String()).Debug("query shared an in-flight fetch")
	}
	return v, err
}

func (c *Cache) staleLocked(e *entry) bool {
	return c.now().Sub(e.updatedAt) >= e.opts.StaleTime
}

// Get returns the cached value, fresh or not.
func (c *Cache) Get(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entries[key]
	if e == nil || !e.hasValue {
		return nil, false
	}
	return e.value, true
}

// Set stores value as fresh data for key.
func (c *Cache) Set(key Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entries[key]
	if e == nil {
		e = &entry{}
		c.entries[key] = e
	}
	e.value = value
	e.hasValue = true
	e.updatedAt = c.now()
	e.invalidated = false
	c.gens[key]++
}

// Update rewrites the value of every matching entry that holds one. fn
// returns the new value and whether it changed. Freshness is not touched.
func (c *Cache) Update(m Match, fn func(key Key, old any) (any, bool)) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for key, e := range c.entries {
		if !m.matches(key) || !e.hasValue {
			continue
		}
		next, changed := fn(key, e.value)
		if !changed {
			continue
		}
		e.value = next
		c.gens[key]++
		n++
	}
	return n
}

// Invalidate marks matching entries so their next read refetches.
func (c *Cache) Invalidate(m Match) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for key, e := range c.entries {
		if !m.matches(key) {
			continue
		}
		e.invalidated = true
		c.gens[key]++
		n++
	}
	if n > 0 {
		c.log.WithFields(logrus.Fields{"op": m.Op, "store": m.Store, "entries": n}).Debug("cache invalidated")
	}
	return n
}

// Remove drops matching entries.
func (c *Cache) Remove(m Match) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for key := range c.entries {
		if !m.matches(key) {
			continue
		}
		delete(c.entries, key)
		c.gens[key]++
		n++
	}
	return n
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		c.gens[key]++
	}
	c.entries = make(map[Key]*entry)
}

// Focus invalidates entries registered with RefetchOnFocus.
func (c *Cache) Focus() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for key, e := range c.entries {
		if e.opts.RefetchOnFocus {
			e.invalidated = true
			c.gens[key]++
			n++
		}
	}
	return n
}

// State reports the status of key.
func (c *Cache) State(key Key) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entries[key]
	if e == nil {
		return State{}, false
	}
	return State{
		HasValue:    e.hasValue,
		UpdatedAt:   e.updatedAt,
		Invalidated: e.invalidated,
		Stale:       e.invalidated || !e.hasValue || c.staleLocked(e),
	}, true
}

// Keys lists matching keys in a stable order.
func (c *Cache) Keys(m Match) []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	var keys []Key
	for key := range c.entries {
		if m.matches(key) {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Snapshot is a copy of some entries, taken before a speculative update.
type Snapshot struct {
	entries map[Key]entry
}

// Snapshot copies matching entries. Values are copied shallowly; callers
// must replace cached values rather than mutate them.
func (c *Cache) Snapshot(m Match) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{entries: make(map[Key]entry)}
	for key, e := range c.entries {
		if m.matches(key) {
			s.entries[key] = *e
		}
	}
	return s
}

// Len is the number of entries in s.
func (s Snapshot) Len() int { return len(s.entries) }

// Restore puts the snapshotted entries back.
func (c *Cache) Restore(s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range s.entries {
		c.entries[key] = &e
		c.gens[key]++
	}
}
