package worker

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
)

// CacheKey returns the deterministic cache key for a prompt: a SHA-256 hash
// of the trimmed, case-folded prompt text.
func CacheKey(prompt string) string {
	normalized := strings.ToLower(strings.TrimSpace(prompt))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// ResponseCache is a bounded, insertion-ordered prompt/response cache. All
// operations are mutex-guarded: lookups, inserts, and evictions may race from
// the request path and the generation pool. At most one entry exists per key;
// inserts replace wholesale, never partially update.
//
// When the entry count exceeds maxSize, the oldest half of entries (by
// insertion order, not access order) is evicted so the cache returns to
// maxSize/2 entries.
type ResponseCache struct {
	mu      sync.Mutex
	entries map[string]string
	order   []string
	maxSize int
}

// NewResponseCache creates a cache bounded to maxSize entries.
func NewResponseCache(maxSize int) *ResponseCache {
	if maxSize < 2 {
		maxSize = 2
	}
	return &ResponseCache{
		entries: make(map[string]string),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
	}
}

// Get returns the cached response for key, if present.
func (c *ResponseCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	response, ok := c.entries[key]
	return response, ok
}

// Put stores a response under key, replacing any existing entry, and evicts
// the oldest half of the cache when the bound is exceeded.
func (c *ResponseCache) Put(key, response string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = response

	if len(c.entries) > c.maxSize {
		c.evictOldestLocked()
	}
}

// evictOldestLocked trims the cache back to maxSize/2 entries, dropping the
// oldest first. Caller must hold c.mu.
func (c *ResponseCache) evictOldestLocked() {
	keep := c.maxSize / 2
	drop := len(c.order) - keep
	for _, key := range c.order[:drop] {
		delete(c.entries, key)
	}
	c.order = append(c.order[:0], c.order[drop:]...)
}

// Len returns the current entry count.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
