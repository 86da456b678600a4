package render

import "sync"

// Cache holds rendered pages keyed by request path.
type Cache struct {
	mu    sync.RWMutex
	pages map[string]string
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{pages: map[string]string{}}
}

// Get returns the cached page for key.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.pages[key]
	return v, ok
}

// Put stores a page and returns it.
func (c *Cache) Put(key, page string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[key] = page
	return page
}

// Clear drops every page.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages = map[string]string{}
}

// Len returns the number of cached pages.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pages)
}
