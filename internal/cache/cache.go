// Package cache holds the in-memory placement registry for uploads that are
// still receiving chunks. An entry exists exactly while the matching asset row
// is in_progress; the coordinator owns keeping the two sides consistent.
package cache

import "sync"

// Session tracks where an in-flight upload lands on disk and how many bytes
// have been written so far. Keyed by the client-supplied file name.
type Session struct {
	OriginalName         string
	NameWithoutExtension string
	Extension            string
	PhysicalPath         string
	RelativeLocation     string
	AccumulatedSize      int64
}

// Cache is safe for concurrent use across keys. Operations on the same key
// are not serialized here; the client is expected to drive a single upload
// one chunk at a time.
type Cache struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{sessions: make(map[string]Session)}
}

// Put upserts the session for its key. Last writer wins.
func (c *Cache) Put(key string, s Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[key] = s
}

// Get returns the session for key, reporting whether it exists.
func (c *Cache) Get(key string) (Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sessions[key]
	return s, ok
}

// Remove drops the session for key. Removing an absent key is a no-op.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, key)
}

// Len reports the number of live sessions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}
