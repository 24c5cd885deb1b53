// Package cache provides a small generic LRU cache.
//
// It backs memoized lookups whose results are immutable once built, such as
// filter kernels keyed by size and sigma:
//
//	c := cache.New[kernelKey, []float64](64)
//	k := c.GetOrCreate(key, func() []float64 { return build(key) })
//
// # Thread Safety
//
// Cache is safe for concurrent use. It must not be copied after creation.
package cache
