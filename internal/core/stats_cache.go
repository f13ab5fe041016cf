package core

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const statsCacheKey = "stats"

// statsCache holds the last GetStats result until the TTL expires or an
// import invalidates it.
type statsCache struct {
	cache *gocache.Cache
}

func newStatsCache(ttl time.Duration) *statsCache {
	if ttl <= 0 {
		return nil
	}
	return &statsCache{cache: gocache.New(ttl, 2*ttl)}
}

func (c *statsCache) get() (*Stats, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.cache.Get(statsCacheKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*Stats)
	return s, ok
}

func (c *statsCache) set(s *Stats) {
	if c == nil {
		return
	}
	c.cache.SetDefault(statsCacheKey, s)
}

func (c *statsCache) invalidate() {
	if c == nil {
		return
	}
	c.cache.Delete(statsCacheKey)
}
