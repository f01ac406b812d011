package genetics

import (
	"errors"
	"sync"
)

// DefaultCacheSize bounds an ExpressionCache when no size is given.
const DefaultCacheSize = 4096

// cacheKey identifies one expression result: genotype content hash plus
// the comparable environment snapshot.
type cacheKey struct {
	genotype string
	env      Environment
}

// ExpressionCache memoizes Express results for one fixed (registry,
// options) pair. Expression is pure, so a content-hash key is sound: equal
// genotype fingerprints under equal environments always yield equal
// profiles. Safe for concurrent use.
type ExpressionCache struct {
	reg  *Registry
	opts ExpressOptions
	max  int

	mu      sync.RWMutex
	entries map[cacheKey]PhenotypeProfile
	hits    uint64
	misses  uint64
}

// NewExpressionCache builds a cache around one registry and one fixed set
// of expression options. maxEntries <= 0 selects DefaultCacheSize. When
// the cache fills it flushes whole, keeping memory bounded without
// tracking recency.
func NewExpressionCache(reg *Registry, opts ExpressOptions, maxEntries int) (*ExpressionCache, error) {
	if reg == nil {
		return nil, errors.New("expression cache: nil registry")
	}
	if maxEntries <= 0 {
		maxEntries = DefaultCacheSize
	}
	return &ExpressionCache{
		reg:     reg,
		opts:    opts,
		max:     maxEntries,
		entries: make(map[cacheKey]PhenotypeProfile, maxEntries),
	}, nil
}

// Express returns the cached profile for (genotype, environment) or
// computes and stores it. The returned profile is a private copy; callers
// may modify it freely.
func (c *ExpressionCache) Express(g *Genotype, env Environment) (PhenotypeProfile, error) {
	if g == nil {
		return PhenotypeProfile{}, errors.New("expression cache: nil genotype")
	}
	key := cacheKey{genotype: g.Fingerprint(), env: env}

	c.mu.RLock()
	cached, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return cached.clone(), nil
	}

	profile, err := Express(c.reg, g, env, c.opts)
	if err != nil {
		return profile, err
	}

	c.mu.Lock()
	c.misses++
	if len(c.entries) >= c.max {
		c.entries = make(map[cacheKey]PhenotypeProfile, c.max)
	}
	c.entries[key] = profile.clone()
	c.mu.Unlock()
	return profile, nil
}

// Stats reports cache hits, misses, and current entry count.
func (c *ExpressionCache) Stats() (hits, misses uint64, size int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses, len(c.entries)
}
