package session

import (
	"container/list"
	"sync"
	"time"
)

const (
	// DefaultCacheTTL is how long a cached document or active pointer stays fresh.
	DefaultCacheTTL = 30 * time.Second
	// DefaultCacheSize is the maximum number of cached documents.
	DefaultCacheSize = 100
)

// CacheStats reports the cache occupancy.
type CacheStats struct {
	Size      int  `json:"size"`
	MaxSize   int  `json:"max_size"`
	HasActive bool `json:"has_active"`
}

type cacheEntry struct {
	id       string
	doc      *Document
	storedAt time.Time
	elem     *list.Element
}

// Cache is a bounded, TTL-based document cache keyed by session id, plus a
// separately expiring "active session" pointer. Eviction is by insertion
// order, not access order. It is a local optimization only; the
// filesystem stays the source of truth.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	now     func() time.Time

	entries map[string]*cacheEntry
	order   *list.List // oldest insertion at the front

	activeID    string
	activeSetAt time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithTTL overrides the entry and active-pointer TTL.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) { c.ttl = ttl }
}

// WithMaxSize overrides the entry capacity.
func WithMaxSize(n int) CacheOption {
	return func(c *Cache) { c.maxSize = n }
}

// WithClock injects the time source. Tests use it to step past the TTL.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// NewCache creates an empty cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		ttl:     DefaultCacheTTL,
		maxSize: DefaultCacheSize,
		now:     time.Now,
		entries: make(map[string]*cacheEntry),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxSize < 1 {
		c.maxSize = 1
	}
	return c
}

// Get returns the cached document for id. An expired entry is evicted and
// reported as absent.
func (c *Cache) Get(id string) (*Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		c.remove(e)
		return nil, false
	}
	return e.doc, true
}

// Set stores doc under id. At capacity the oldest inserted entry is evicted
// first. Setting an id that is already cached refreshes it in place and
// moves it to the newest position.
func (c *Cache) Set(id string, doc *Document) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[id]; ok {
		e.doc = doc
		e.storedAt = c.now()
		c.order.MoveToBack(e.elem)
		return
	}

	for len(c.entries) >= c.maxSize {
		front := c.order.Front()
		if front == nil {
			break
		}
		c.remove(front.Value.(*cacheEntry))
	}

	e := &cacheEntry{id: id, doc: doc, storedAt: c.now()}
	e.elem = c.order.PushBack(e)
	c.entries[id] = e
}

// Invalidate drops id. If id is the active pointer, the pointer is cleared too.
func (c *Cache) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[id]; ok {
		c.remove(e)
	}
	if c.activeID == id {
		c.clearActive()
	}
}

// InvalidateAll drops every entry and the active pointer.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order.Init()
	c.clearActive()
}

// ActiveID returns the cached active session id. The pointer expires on
// its own clock, independent of whether the document entry is cached.
func (c *Cache) ActiveID() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.activeID == "" {
		return "", false
	}
	if c.now().Sub(c.activeSetAt) > c.ttl {
		c.clearActive()
		return "", false
	}
	return c.activeID, true
}

// SetActiveID records id as the active session.
func (c *Cache) SetActiveID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.activeID = id
	c.activeSetAt = c.now()
}

// InvalidateActive clears the active pointer only.
func (c *Cache) InvalidateActive() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearActive()
}

// Stats reports the current occupancy.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CacheStats{
		Size:      len(c.entries),
		MaxSize:   c.maxSize,
		HasActive: c.activeID != "" && c.now().Sub(c.activeSetAt) <= c.ttl,
	}
}

func (c *Cache) remove(e *cacheEntry) {
	c.order.Remove(e.elem)
	delete(c.entries, e.id)
}

func (c *Cache) clearActive() {
	c.activeID = ""
	c.activeSetAt = time.Time{}
}
