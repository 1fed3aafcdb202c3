package clips

import (
	"sync"
	"time"

	"github.com/himanishpuri/Songle/pkg/models"
	"github.com/himanishpuri/Songle/pkg/songle/metrics"
)

const DefaultTTL = 24 * time.Hour

// Key identifies one served clip.
type Key struct {
	SongID  string
	Clue    models.ClueIndex
	DateKey int64
}

type Entry struct {
	Audio    []byte
	CachedAt time.Time
}

// Cache holds extracted clips in memory until Sweep drops them.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]Entry
	ttl     time.Duration
}

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{entries: make(map[Key]Entry), ttl: ttl}
}

func (c *Cache) TTL() time.Duration { return c.ttl }

func (c *Cache) Get(k Key) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[k]
	return e.Audio, ok
}

// Put stores audio for k. Racing writers store identical bytes, so the last
// one wins.
func (c *Cache) Put(k Key, audio []byte, now time.Time) {
	c.mu.Lock()
	c.entries[k] = Entry{Audio: audio, CachedAt: now}
	n := len(c.entries)
	c.mu.Unlock()
	metrics.CacheEntries.Set(float64(n))
}

// Sweep removes entries cached more than the TTL before now and reports how
// many were dropped.
func (c *Cache) Sweep(now time.Time) int {
	c.mu.Lock()
	removed := 0
	for k, e := range c.entries {
		if now.Sub(e.CachedAt) > c.ttl {
			delete(c.entries, k)
			removed++
		}
	}
	n := len(c.entries)
	c.mu.Unlock()
	metrics.CacheEntries.Set(float64(n))
	return removed
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) Purge() {
	c.mu.Lock()
	c.entries = make(map[Key]Entry)
	c.mu.Unlock()
	metrics.CacheEntries.Set(0)
}
