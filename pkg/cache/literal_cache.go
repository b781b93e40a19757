// Package cache provides the literal cache used by expression contexts.
//
// Functions such as regex_match(s, pattern) or date("2024-01-01") are
// evaluated once per row. Compiling the same pattern or parsing the same
// literal thousands of times dominates their cost, so each context owns a
// LiteralCache that memoises the result by source string.
//
// Features:
// - LRU eviction for bounded memory
// - Optional TTL expiration
// - Thread-safe operations (a host may share one cache between contexts)
// - Cache hit/miss statistics
//
// Usage:
//
//	c := cache.NewLiteralCache(1000, 0)
//
//	re, err := c.Regex(`^a.*z$`)   // compiled once
//	d, err := c.Date("2024-01-01") // parsed once
//
// Failed compilations and parses are cached too, so a malformed pattern
// applied to every row is only rejected once.
package cache

import (
	"container/list"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/orneryd/nornicexpr/pkg/value"
)

// DefaultMaxSize is used when a non-positive size is requested.
const DefaultMaxSize = 1000

// Kind separates the key spaces of the different literal parsers so that
// the same source text can be cached once per parser.
type Kind uint8

const (
	KindRegex Kind = iota + 1
	KindDate
	KindTime
	KindDateTime
	KindDuration
)

// LiteralCache is a thread-safe LRU cache for compiled patterns and parsed
// temporal literals.
//
// The cache uses:
// - Hash map for O(1) lookups
// - Doubly-linked list for LRU ordering
// - TTL for automatic expiration (0 = never)
type LiteralCache struct {
	mu sync.Mutex

	maxSize int
	ttl     time.Duration
	enabled bool

	list  *list.List
	items map[uint64]*list.Element

	hits   uint64
	misses uint64
}

type cacheEntry struct {
	key       uint64
	kind      Kind
	source    string
	value     any
	err       error
	expiresAt time.Time
}

// NewLiteralCache creates a cache holding at most maxSize entries.
//
// Parameters:
//   - maxSize: Maximum number of cached literals (LRU eviction when exceeded)
//   - ttl: Time-to-live for cached entries (0 = no expiration)
func NewLiteralCache(maxSize int, ttl time.Duration) *LiteralCache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &LiteralCache{
		maxSize: maxSize,
		ttl:     ttl,
		enabled: true,
		list:    list.New(),
		items:   make(map[uint64]*list.Element, maxSize),
	}
}

// Key hashes a (kind, source) pair.
func Key(kind Kind, source string) uint64 {
	d := xxhash.New()
	_, _ = d.Write([]byte{byte(kind)})
	_, _ = d.WriteString(source)
	return d.Sum64()
}

// Result is a cached computation: the parsed value or the error produced
// while computing it.
type Result struct {
	Value any
	Err   error
}

// Get retrieves a cached result; the bool reports a hit.
func (c *LiteralCache) Get(kind Kind, source string) (Result, bool) {
	key := Key(kind, source)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		atomic.AddUint64(&c.misses, 1)
		return Result{}, false
	}
	elem, ok := c.items[key]
	if !ok {
		atomic.AddUint64(&c.misses, 1)
		return Result{}, false
	}
	entry := elem.Value.(*cacheEntry)

	// A hash collision between different sources is a miss.
	if entry.kind != kind || entry.source != source {
		atomic.AddUint64(&c.misses, 1)
		return Result{}, false
	}
	if c.ttl > 0 && time.Now().After(entry.expiresAt) {
		c.removeElement(elem)
		atomic.AddUint64(&c.misses, 1)
		return Result{}, false
	}

	c.list.MoveToFront(elem)
	atomic.AddUint64(&c.hits, 1)
	return Result{Value: entry.value, Err: entry.err}, true
}

// Put stores a result (or the error produced while computing it).
//
// If the cache is full, the least recently used entry is evicted.
// If the key already exists, the value is updated.
func (c *LiteralCache) Put(kind Kind, source string, v any, err error) {
	key := Key(kind, source)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		return
	}

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = time.Now().Add(c.ttl)
	}

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.kind, entry.source, entry.value, entry.err, entry.expiresAt = kind, source, v, err, expiresAt
		c.list.MoveToFront(elem)
		return
	}

	for c.list.Len() >= c.maxSize {
		c.evictOldest()
	}

	elem := c.list.PushFront(&cacheEntry{
		key:       key,
		kind:      kind,
		source:    source,
		value:     v,
		err:       err,
		expiresAt: expiresAt,
	})
	c.items[key] = elem
}

// getOrCompute returns the cached result for (kind, source) or computes,
// stores and returns it.
func (c *LiteralCache) getOrCompute(kind Kind, source string, compute func() (any, error)) (any, error) {
	if r, ok := c.Get(kind, source); ok {
		return r.Value, r.Err
	}
	v, err := compute()
	c.Put(kind, source, v, err)
	return v, err
}

// Regex returns the compiled form of pattern.
func (c *LiteralCache) Regex(pattern string) (*regexp.Regexp, error) {
	v, err := c.getOrCompute(KindRegex, pattern, func() (any, error) {
		return regexp.Compile(pattern)
	})
	if err != nil {
		return nil, err
	}
	return v.(*regexp.Regexp), nil
}

// Date returns the parsed form of a date literal.
func (c *LiteralCache) Date(s string) (value.Date, error) {
	v, err := c.getOrCompute(KindDate, s, func() (any, error) {
		return value.ParseDate(s)
	})
	if err != nil {
		return value.Date{}, err
	}
	return v.(value.Date), nil
}

// Time returns the parsed form of a time literal.
func (c *LiteralCache) Time(s string) (value.Time, error) {
	v, err := c.getOrCompute(KindTime, s, func() (any, error) {
		return value.ParseTime(s)
	})
	if err != nil {
		return value.Time{}, err
	}
	return v.(value.Time), nil
}

// DateTime returns the parsed form of a datetime literal.
func (c *LiteralCache) DateTime(s string) (value.DateTime, error) {
	v, err := c.getOrCompute(KindDateTime, s, func() (any, error) {
		return value.ParseDateTime(s)
	})
	if err != nil {
		return value.DateTime{}, err
	}
	return v.(value.DateTime), nil
}

// Duration returns the parsed form of an ISO 8601 duration literal.
func (c *LiteralCache) Duration(s string) (value.Duration, error) {
	v, err := c.getOrCompute(KindDuration, s, func() (any, error) {
		return value.ParseDuration(s)
	})
	if err != nil {
		return value.Duration{}, err
	}
	return v.(value.Duration), nil
}

// Remove drops the entry for (kind, source).
func (c *LiteralCache) Remove(kind Kind, source string) {
	key := Key(kind, source)
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
}

// Clear removes all entries from the cache.
func (c *LiteralCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list.Init()
	c.items = make(map[uint64]*list.Element, c.maxSize)
}

// Len returns the number of cached entries.
func (c *LiteralCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.Len()
}

// Stats returns cache statistics.
func (c *LiteralCache) Stats() Stats {
	hits := atomic.LoadUint64(&c.hits)
	misses := atomic.LoadUint64(&c.misses)

	size := c.Len()

	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	return Stats{
		Size:    size,
		MaxSize: c.maxSize,
		Hits:    hits,
		Misses:  misses,
		HitRate: hitRate,
	}
}

// Stats holds cache performance statistics.
type Stats struct {
	Size    int     // Current number of entries
	MaxSize int     // Maximum capacity
	Hits    uint64  // Number of cache hits
	Misses  uint64  // Number of cache misses
	HitRate float64 // Hit rate percentage (0-100)
}

// SetEnabled enables or disables the cache. Disabling drops every entry.
func (c *LiteralCache) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
	if !enabled {
		c.list.Init()
		c.items = make(map[uint64]*list.Element, c.maxSize)
	}
}

// evictOldest removes the least recently used entry.
// Caller must hold the lock.
func (c *LiteralCache) evictOldest() {
	if elem := c.list.Back(); elem != nil {
		c.removeElement(elem)
	}
}

// removeElement removes an element from the cache.
// Caller must hold the lock.
func (c *LiteralCache) removeElement(elem *list.Element) {
	c.list.Remove(elem)
	delete(c.items, elem.Value.(*cacheEntry).key)
}
