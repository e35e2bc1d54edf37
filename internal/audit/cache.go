package audit

import "sync"

// PageCache keeps the latest page received for each position so a client can
// redraw its audit view without asking again.
type PageCache struct {
	mu    sync.Mutex
	pages map[string]PageResponse
}

// NewPageCache returns an empty cache.
func NewPageCache() *PageCache {
	return &PageCache{pages: make(map[string]PageResponse)}
}

// Put stores resp, replacing any earlier page for the same position.
func (c *PageCache) Put(resp PageResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[resp.PositionID] = resp
}

// Get returns the cached page for a position.
func (c *PageCache) Get(positionID string) (PageResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, ok := c.pages[positionID]
	return resp, ok
}

// Forget drops the cached page for a position.
func (c *PageCache) Forget(positionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pages, positionID)
}
