package telemetry

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats is a point-in-time snapshot of the collected counters/gauges.
type Stats struct {
	ScanDuration      time.Duration
	CacheHits         int64
	CacheMisses       int64
	GlobCacheHits     int64
	GlobCacheMisses   int64
}

// CacheHitRate returns the fraction of cache lookups that hit, or 0 if
// there have been none yet.
func (s Stats) CacheHitRate() float64 {
	total := s.CacheHits + s.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(total)
}

// GlobCacheHitRate returns the fraction of recorded glob compilations that
// were cache hits. The counters move only through RecordGlobCacheHit and
// RecordGlobCacheMiss; no build tag gates them, and globmatch's own
// CacheStats counters are not fed into them.
func (s Stats) GlobCacheHitRate() float64 {
	total := s.GlobCacheHits + s.GlobCacheMisses
	if total == 0 {
		return 0
	}
	return float64(s.GlobCacheHits) / float64(total)
}

// Collector is a lightweight, concurrency-safe counter/gauge collector,
// scaled to what a single-process CLI run needs: no per-PID process
// sampling, no subscriber/callback machinery, just counters a caller can
// read back after a run.
type Collector struct {
	mu           sync.Mutex
	scanDuration time.Duration

	cacheHits       int64
	cacheMisses     int64
	globCacheHits   int64
	globCacheMisses int64
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// RecordScanDuration stores how long the initial workspace file scan took.
func (c *Collector) RecordScanDuration(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scanDuration = d
}

// RecordCacheHit increments the artifact cache hit counter.
func (c *Collector) RecordCacheHit() { atomic.AddInt64(&c.cacheHits, 1) }

// RecordCacheMiss increments the artifact cache miss counter.
func (c *Collector) RecordCacheMiss() { atomic.AddInt64(&c.cacheMisses, 1) }

// RecordGlobCacheHit increments the glob-compilation cache hit counter.
func (c *Collector) RecordGlobCacheHit() { atomic.AddInt64(&c.globCacheHits, 1) }

// RecordGlobCacheMiss increments the glob-compilation cache miss counter.
func (c *Collector) RecordGlobCacheMiss() { atomic.AddInt64(&c.globCacheMisses, 1) }

// Stats returns a consistent snapshot of every counter/gauge collected so
// far.
func (c *Collector) Stats() Stats {
	c.mu.Lock()
	scanDuration := c.scanDuration
	c.mu.Unlock()

	return Stats{
		ScanDuration:    scanDuration,
		CacheHits:       atomic.LoadInt64(&c.cacheHits),
		CacheMisses:     atomic.LoadInt64(&c.cacheMisses),
		GlobCacheHits:   atomic.LoadInt64(&c.globCacheHits),
		GlobCacheMisses: atomic.LoadInt64(&c.globCacheMisses),
	}
}
