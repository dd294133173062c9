package globmatch

import (
	"sort"
	"strings"
	"sync"
)

// cache is the process-wide compiled-pattern-set cache. It is never
// invalidated: compiled GlobSets are a pure function of their sorted input
// patterns, and the process is expected to be short-lived or restarted on
// config change (see the open design note on unbounded process-wide caches).
var cache sync.Map // map[string]*GlobSet

var (
	hits   uint64
	misses uint64
	hitsMu sync.Mutex
)

// CompileCached returns the GlobSet for patterns, compiling and caching it
// on first use. The cache key is the NUL-joined, sorted pattern list, since
// NUL cannot appear in glob syntax.
func CompileCached(patterns []string) (*GlobSet, error) {
	key := cacheKey(patterns)
	if v, ok := cache.Load(key); ok {
		recordHit()
		return v.(*GlobSet), nil
	}

	gs, err := Compile(patterns)
	if err != nil {
		return nil, err
	}

	actual, _ := cache.LoadOrStore(key, gs)
	recordMiss()
	return actual.(*GlobSet), nil
}

func cacheKey(patterns []string) string {
	sorted := make([]string, len(patterns))
	copy(sorted, patterns)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}

func recordHit() {
	hitsMu.Lock()
	hits++
	hitsMu.Unlock()
}

func recordMiss() {
	hitsMu.Lock()
	misses++
	hitsMu.Unlock()
}

// CacheStats returns the hit/miss counters. They are updated by every
// CompileCached call in every build; no build tag gates them.
func CacheStats() (hitCount, missCount uint64) {
	hitsMu.Lock()
	defer hitsMu.Unlock()
	return hits, misses
}
