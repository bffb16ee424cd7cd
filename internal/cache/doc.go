// Package cache provides a generic thread-safe cache.
//
// The verification scheduler uses it to cache compiled programs keyed
// by generated shader source, so batches that differ only in buffer
// contents share one compilation. GetOrBuild runs its build function
// under the cache lock, so a key is never built twice even when
// multiple batches race on the same source.
//
//	c := cache.New[string, Program](0)
//	p, err := c.GetOrBuild(src, func() (Program, error) { ... })
//
// Cache is safe for concurrent use and must not be copied after
// creation (it contains a mutex).
//
// The scheduler only needs New, GetOrBuild and Stats with an unbounded
// cache. The rest of the surface (Set, Delete, Clear, the soft-limit
// eviction) stays because a bounded program cache is the natural next
// consumer: a long-lived verification service would cap compiled
// program retention with New(limit) and the accessors here.
package cache
