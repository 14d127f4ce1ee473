// Package rendercache remembers the fingerprint of the markup last written for
// each route so unchanged pages are not rewritten.
package rendercache

import "sync"

// Cache maps a route to the fingerprint of its last written markup. Entries
// live as long as the Cache and are never evicted or persisted.
type Cache struct {
	mu      sync.Mutex
	entries map[string]uint32
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{entries: make(map[string]uint32)}
}

// ShouldSkip reports whether markup for route matches what was last recorded.
// It never changes the cache.
func (c *Cache) ShouldSkip(route, markup string) bool {
	fp := Hash(markup)
	c.mu.Lock()
	defer c.mu.Unlock()
	stored, ok := c.entries[route]
	return ok && stored == fp
}

// Record stores the fingerprint of markup for route. Callers record only after
// the markup has been written successfully.
func (c *Cache) Record(route, markup string) {
	fp := Hash(markup)
	c.mu.Lock()
	c.entries[route] = fp
	c.mu.Unlock()
}

// Fingerprint returns the stored fingerprint for route.
func (c *Cache) Fingerprint(route string) (uint32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fp, ok := c.entries[route]
	return fp, ok
}

// Len returns the number of routes ever recorded.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
