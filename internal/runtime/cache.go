package runtime

import (
	"sort"
	"strconv"
	"sync"

	"github.com/aretw0/stepwise/pkg/domain"
)

// Cache memoizes materialized nodes by path.
// Reads are concurrent; inserts are single-writer and first-wins, so a key
// never maps to more than one node instance.
type Cache struct {
	mu    sync.RWMutex
	nodes map[string]domain.Node
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{nodes: make(map[string]domain.Node)}
}

// CacheKey returns the key for a path read from the given source.
// Source 0 uses the bare path.
func CacheKey(path string, source int) string {
	if source == 0 {
		return path
	}
	return strconv.Itoa(source) + ":" + path
}

// Get returns the node cached under key.
func (c *Cache) Get(key string) (domain.Node, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.nodes[key]
	return n, ok
}

// Insert stores n under key unless another node is already resident.
// It returns the resident node and whether n was the one stored.
func (c *Cache) Insert(key string, n domain.Node) (domain.Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.nodes[key]; ok {
		return existing, false
	}
	c.nodes[key] = n
	return n, true
}

// Evict drops key so the next resolution reloads it.
// Nodes already handed out keep their identity.
func (c *Cache) Evict(key string) {
	c.mu.Lock()
	delete(c.nodes, key)
	c.mu.Unlock()
}

// Keys returns the cached keys in sorted order.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.nodes))
	for k := range c.nodes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of cached nodes.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.nodes)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.nodes = make(map[string]domain.Node)
	c.mu.Unlock()
}
