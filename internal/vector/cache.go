package vector

import (
	"fmt"
	"sort"
	"sync"
)

// Cache loads each manual's index from a Store once and shares it read-only across
// sessions until it is evicted.
type Cache struct {
	store *Store
	load  func(manual string) (*FlatIndex, error)

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	once sync.Once
	idx  *FlatIndex
	err  error
}

// NewCache creates an empty cache over store.
func NewCache(store *Store) *Cache {
	return &Cache{store: store, load: store.Load, entries: make(map[string]*cacheEntry)}
}

// Index returns manual's index, loading it on first use. Failed loads are not cached.
func (c *Cache) Index(manual string) (*FlatIndex, error) {
	c.mu.Lock()
	e, ok := c.entries[manual]
	if !ok {
		e = &cacheEntry{}
		c.entries[manual] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		e.err = fmt.Errorf("load index %s: aborted", manual)
		defer func() {
			if r := recover(); r != nil {
				e.idx, e.err = nil, fmt.Errorf("load index %s: panic: %v", manual, r)
			}
		}()
		e.idx, e.err = c.load(manual)
	})
	if e.err != nil {
		c.mu.Lock()
		if c.entries[manual] == e {
			delete(c.entries, manual)
		}
		c.mu.Unlock()
		return nil, e.err
	}
	return e.idx, nil
}

// Evict drops manual's cached index. Sessions already holding it keep using it.
func (c *Cache) Evict(manual string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[manual]
	delete(c.entries, manual)
	return ok
}

// EvictPath evicts the manual whose index file is path and returns its name, or "" if
// path is not an index file of the store.
func (c *Cache) EvictPath(path string) string {
	manual := c.store.ManualForPath(path)
	if manual != "" {
		c.Evict(manual)
	}
	return manual
}

// Loaded returns the sorted names of manuals with a cached index.
func (c *Cache) Loaded() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.entries))
	for name, e := range c.entries {
		if e.idx != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Store returns the backing store.
func (c *Cache) Store() *Store {
	return c.store
}
