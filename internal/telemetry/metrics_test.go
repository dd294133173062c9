package telemetry

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollectorRecordsCounters(t *testing.T) {
	c := NewCollector()
	c.RecordScanDuration(250 * time.Millisecond)
	c.RecordCacheHit()
	c.RecordCacheHit()
	c.RecordCacheMiss()
	c.RecordGlobCacheHit()

	stats := c.Stats()
	assert.Equal(t, 250*time.Millisecond, stats.ScanDuration)
	assert.Equal(t, int64(2), stats.CacheHits)
	assert.Equal(t, int64(1), stats.CacheMisses)
	assert.InDelta(t, 2.0/3.0, stats.CacheHitRate(), 0.0001)
	assert.Equal(t, 1.0, stats.GlobCacheHitRate())
}

func TestStatsHitRateIsZeroWithNoSamples(t *testing.T) {
	stats := Stats{}
	assert.Equal(t, 0.0, stats.CacheHitRate())
	assert.Equal(t, 0.0, stats.GlobCacheHitRate())
}

func TestCollectorIsSafeForConcurrentUse(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordCacheHit()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(100), c.Stats().CacheHits)
}
