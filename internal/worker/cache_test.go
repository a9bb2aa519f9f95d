package worker

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKeyNormalizes(t *testing.T) {
	assert.Equal(t, CacheKey("How can I relax?"), CacheKey("  how can i RELAX?  "))
	assert.NotEqual(t, CacheKey("How can I relax?"), CacheKey("How can I sleep?"))
}

func TestResponseCachePutGet(t *testing.T) {
	c := NewResponseCache(10)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Put("k1", "response one")
	got, ok := c.Get("k1")
	require.True(t, ok)
	assert.Equal(t, "response one", got)

	// Replacement keeps a single entry.
	c.Put("k1", "response two")
	got, _ = c.Get("k1")
	assert.Equal(t, "response two", got)
	assert.Equal(t, 1, c.Len())
}

func TestResponseCacheEvictsOldestHalf(t *testing.T) {
	c := NewResponseCache(10)

	for i := 0; i < 11; i++ {
		c.Put(fmt.Sprintf("k%d", i), fmt.Sprintf("v%d", i))
	}

	// Exceeding the bound trims back to half: k0..k5 evicted, k6..k10 kept.
	assert.Equal(t, 5, c.Len())
	for i := 0; i < 6; i++ {
		_, ok := c.Get(fmt.Sprintf("k%d", i))
		assert.False(t, ok, "k%d should have been evicted", i)
	}
	for i := 6; i < 11; i++ {
		_, ok := c.Get(fmt.Sprintf("k%d", i))
		assert.True(t, ok, "k%d should have survived", i)
	}
}

func TestResponseCacheConcurrentAccess(t *testing.T) {
	// Overlapping keys from many goroutines, repeatedly crossing the eviction
	// bound. Run under the race detector; the cache must neither corrupt its
	// entry/order bookkeeping nor exceed its bound.
	c := NewResponseCache(32)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				key := fmt.Sprintf("k%d", (seed*31+i)%100)
				c.Put(key, "response")
				if got, ok := c.Get(key); ok {
					assert.Equal(t, "response", got)
				}
				_ = c.Len()
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 32)
	assert.Greater(t, c.Len(), 0)
}

func TestResponseCacheEvictionIsInsertionOrder(t *testing.T) {
	c := NewResponseCache(4)

	c.Put("a", "1")
	c.Put("b", "2")
	c.Put("c", "3")
	c.Put("d", "4")

	// Reading "a" must not protect it: eviction is FIFO, not LRU.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("e", "5")

	_, ok = c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("e")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}
