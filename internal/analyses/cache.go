package analyses

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache maps fingerprints to completed analysis results. It is an explicit
// injected object with a documented lifecycle: created at process start,
// never evicted. Callers needing bounded memory wrap it with their own
// eviction policy.
//
// Lookup-then-insert is effectively atomic per fingerprint: concurrent
// requests for the same fingerprint share a single in-flight computation.
type Cache struct {
	mu      sync.RWMutex
	results map[Fingerprint]AnalysisResult
	group   singleflight.Group
}

// NewCache constructs an empty Cache.
func NewCache() *Cache {
	return &Cache{
		results: make(map[Fingerprint]AnalysisResult),
	}
}

// Get returns the cached result for the fingerprint, if present.
func (c *Cache) Get(fp Fingerprint) (AnalysisResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result, ok := c.results[fp]
	return result, ok
}

// GetOrCompute returns the cached result for the fingerprint or runs compute
// to produce it, guaranteeing at most one concurrent computation per
// fingerprint. Only successful results are stored; a failed computation
// leaves the cache untouched so a later request can try again.
func (c *Cache) GetOrCompute(ctx context.Context, fp Fingerprint, compute func(context.Context) (AnalysisResult, error)) (AnalysisResult, error) {
	if result, ok := c.Get(fp); ok {
		return result, nil
	}

	v, err, _ := c.group.Do(string(fp), func() (any, error) {
		// Re-check under the flight: another caller may have completed and
		// stored while this one was queueing.
		if result, ok := c.Get(fp); ok {
			return result, nil
		}
		result, err := compute(ctx)
		if err != nil {
			return AnalysisResult{}, err
		}
		c.mu.Lock()
		c.results[fp] = result
		c.mu.Unlock()
		return result, nil
	})
	if err != nil {
		return AnalysisResult{}, err
	}
	return v.(AnalysisResult), nil
}

// Len reports the number of cached results, for observability.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.results)
}
