package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/nornicexpr/pkg/value"
)

// =============================================================================
// NewLiteralCache Tests
// =============================================================================

func TestNewLiteralCache(t *testing.T) {
	t.Run("valid parameters", func(t *testing.T) {
		c := NewLiteralCache(100, 5*time.Minute)
		assert.Equal(t, 100, c.maxSize)
		assert.Equal(t, 5*time.Minute, c.ttl)
		assert.True(t, c.enabled, "cache should be enabled by default")
	})

	t.Run("non-positive maxSize uses default", func(t *testing.T) {
		assert.Equal(t, DefaultMaxSize, NewLiteralCache(0, 0).maxSize)
		assert.Equal(t, DefaultMaxSize, NewLiteralCache(-10, 0).maxSize)
	})
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key(KindDate, "2024-01-01"), Key(KindDate, "2024-01-01"))
	assert.NotEqual(t, Key(KindDate, "2024-01-01"), Key(KindDateTime, "2024-01-01"), "kinds separate key spaces")
	assert.NotEqual(t, Key(KindRegex, "a"), Key(KindRegex, "b"))
}

// =============================================================================
// Get/Put Tests
// =============================================================================

func TestLiteralCache_GetPut(t *testing.T) {
	t.Run("put and get", func(t *testing.T) {
		c := NewLiteralCache(10, 0)
		c.Put(KindDate, "x", 42, nil)
		r, ok := c.Get(KindDate, "x")
		require.True(t, ok)
		require.NoError(t, r.Err)
		assert.Equal(t, 42, r.Value)
	})

	t.Run("get non-existent key", func(t *testing.T) {
		c := NewLiteralCache(10, 0)
		_, ok := c.Get(KindDate, "missing")
		assert.False(t, ok)
	})

	t.Run("same source under another kind misses", func(t *testing.T) {
		c := NewLiteralCache(10, 0)
		c.Put(KindDate, "x", 1, nil)
		_, ok := c.Get(KindTime, "x")
		assert.False(t, ok)
	})

	t.Run("update existing key", func(t *testing.T) {
		c := NewLiteralCache(10, 0)
		c.Put(KindDate, "x", 1, nil)
		c.Put(KindDate, "x", 2, nil)
		r, _ := c.Get(KindDate, "x")
		assert.Equal(t, 2, r.Value)
		assert.Equal(t, 1, c.Len())
	})
}

// =============================================================================
// Typed helpers
// =============================================================================

func TestLiteralCache_Regex(t *testing.T) {
	c := NewLiteralCache(10, 0)

	re1, err := c.Regex(`^ab+c$`)
	require.NoError(t, err)
	re2, err := c.Regex(`^ab+c$`)
	require.NoError(t, err)
	assert.Same(t, re1, re2, "second lookup must reuse the compiled pattern")
	assert.True(t, re1.MatchString("abbbc"))

	_, err = c.Regex(`(`)
	require.Error(t, err)
	_, err = c.Regex(`(`)
	require.Error(t, err, "failures are cached too")

	stats := c.Stats()
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(2), stats.Misses)
}

func TestLiteralCache_Temporal(t *testing.T) {
	c := NewLiteralCache(10, 0)

	d, err := c.Date("2024/02/29")
	require.NoError(t, err)
	assert.Equal(t, value.Date{Year: 2024, Month: 2, Day: 29}, d)

	tm, err := c.Time("08:15")
	require.NoError(t, err)
	assert.Equal(t, value.Time{Hour: 8, Minute: 15}, tm)

	dt, err := c.DateTime("2024-01-01 10:00:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T10:00:00.000000", dt.String())

	dur, err := c.Duration("P1D")
	require.NoError(t, err)
	assert.Equal(t, value.Duration{Seconds: 86400}, dur)

	_, err = c.Date("not a date")
	assert.Error(t, err)

	assert.Equal(t, 5, c.Len())
}

// =============================================================================
// TTL and LRU Tests
// =============================================================================

func TestLiteralCache_TTL(t *testing.T) {
	t.Run("entry expires after TTL", func(t *testing.T) {
		c := NewLiteralCache(10, 20*time.Millisecond)
		c.Put(KindDate, "x", 1, nil)
		time.Sleep(40 * time.Millisecond)
		_, ok := c.Get(KindDate, "x")
		assert.False(t, ok)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("zero TTL means no expiration", func(t *testing.T) {
		c := NewLiteralCache(10, 0)
		c.Put(KindDate, "x", 1, nil)
		time.Sleep(10 * time.Millisecond)
		_, ok := c.Get(KindDate, "x")
		assert.True(t, ok)
	})
}

func TestLiteralCache_LRUEviction(t *testing.T) {
	t.Run("evicts oldest when full", func(t *testing.T) {
		c := NewLiteralCache(2, 0)
		c.Put(KindDate, "a", 1, nil)
		c.Put(KindDate, "b", 2, nil)
		c.Put(KindDate, "c", 3, nil)

		_, ok := c.Get(KindDate, "a")
		assert.False(t, ok, "a should be evicted")
		assert.Equal(t, 2, c.Len())
	})

	t.Run("access promotes entry", func(t *testing.T) {
		c := NewLiteralCache(2, 0)
		c.Put(KindDate, "a", 1, nil)
		c.Put(KindDate, "b", 2, nil)
		c.Get(KindDate, "a")
		c.Put(KindDate, "c", 3, nil)

		_, ok := c.Get(KindDate, "a")
		assert.True(t, ok, "a was recently used")
		_, ok = c.Get(KindDate, "b")
		assert.False(t, ok, "b should be evicted")
	})
}

func TestLiteralCache_RemoveClear(t *testing.T) {
	c := NewLiteralCache(10, 0)
	c.Put(KindDate, "a", 1, nil)
	c.Put(KindDate, "b", 2, nil)

	c.Remove(KindDate, "a")
	_, ok := c.Get(KindDate, "a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestLiteralCache_SetEnabled(t *testing.T) {
	c := NewLiteralCache(10, 0)
	c.Put(KindDate, "a", 1, nil)

	c.SetEnabled(false)
	assert.Equal(t, 0, c.Len(), "disable clears cache")
	c.Put(KindDate, "a", 1, nil)
	_, ok := c.Get(KindDate, "a")
	assert.False(t, ok, "disabled cache returns miss")

	c.SetEnabled(true)
	c.Put(KindDate, "a", 1, nil)
	_, ok = c.Get(KindDate, "a")
	assert.True(t, ok)
}

func TestLiteralCache_StatsZeroTotal(t *testing.T) {
	stats := NewLiteralCache(10, 0).Stats()
	assert.Equal(t, 0.0, stats.HitRate)
	assert.Equal(t, 10, stats.MaxSize)
}

func TestLiteralCache_Concurrent(t *testing.T) {
	c := NewLiteralCache(50, 0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_, err := c.Regex(`^[a-z]+\d*$`)
				assert.NoError(t, err)
				_, err = c.Date("2024-06-01")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 2, c.Len())
}
