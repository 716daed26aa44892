// Package lru implements a generic, capacity-bounded cache with strict
// least-recently-used eviction and an injected eviction callback.
//
// The cache keeps a map[K]*node for lookups and an intrusive MRU↔LRU
// doubly linked list for ordering, so insert, promote, evict-by-key and
// evict-LRU are all O(1). Every node that leaves the cache is handed to
// the eviction callback exactly once, whatever the reason; the callback
// owns the value from that point.
//
// The cache performs no locking of its own. Callers that share a Cache
// across goroutines must serialize access with a single external lock;
// holding one lock for the cache and its surrounding bookkeeping is the
// intended usage (see the autoload package).
package lru

// EvictReason explains why an entry was removed.
type EvictReason int

const (
	// EvictCapacity — removed from the LRU end to satisfy the capacity bound.
	EvictCapacity EvictReason = iota
	// EvictExplicit — removed by key via Remove.
	EvictExplicit
	// EvictFlush — removed by RemoveAll.
	EvictFlush
)

// String returns a stable label for the reason, suitable for metrics.
func (r EvictReason) String() string {
	switch r {
	case EvictExplicit:
		return "explicit"
	case EvictFlush:
		return "flush"
	default:
		return "capacity"
	}
}

// Cache is a capacity-bounded key/value store with strict recency ordering.
// The zero value is not usable; construct with New.
type Cache[K comparable, V any] struct {
	m    map[K]*node[K, V]
	head *node[K, V] // MRU
	tail *node[K, V] // LRU
	len  int
	cap  int

	// onEvict receives every entry that leaves the cache, whatever the
	// reason. May be nil. Called synchronously from the mutating call.
	onEvict func(K, V, EvictReason)
}

// New constructs a cache bounded to capacity entries.
// Panics if capacity <= 0. onEvict may be nil.
func New[K comparable, V any](capacity int, onEvict func(K, V, EvictReason)) *Cache[K, V] {
	if capacity <= 0 {
		panic("lru: capacity must be > 0")
	}
	return &Cache[K, V]{
		m:       make(map[K]*node[K, V], capacity),
		cap:     capacity,
		onEvict: onEvict,
	}
}

// Add inserts k→v at the MRU position only if k is not present, then
// evicts from the LRU end until the capacity bound holds again.
// Returns false if the key already exists (no update is performed and
// the caller keeps ownership of v).
func (c *Cache[K, V]) Add(k K, v V) bool {
	if !c.AddWithoutEviction(k, v) {
		return false
	}
	for c.len > c.cap {
		c.evictNode(c.tail, EvictCapacity)
	}
	return true
}

// AddWithoutEviction inserts k→v at the MRU position without enforcing
// the capacity bound, so len may temporarily exceed Cap. It exists for
// callers that must not run the eviction callback from their context;
// a later Add trims the overflow. Returns false on a duplicate key.
func (c *Cache[K, V]) AddWithoutEviction(k K, v V) bool {
	if _, exists := c.m[k]; exists {
		return false
	}
	n := &node[K, V]{key: k, val: v}
	c.m[k] = n
	c.insertFront(n)
	return true
}

// Get returns the value for k and promotes the entry to MRU on hit.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	n, ok := c.m[k]
	if !ok {
		var zero V
		return zero, false
	}
	c.moveToFront(n)
	return n.val, true
}

// Peek returns the value for k without disturbing the recency order.
func (c *Cache[K, V]) Peek(k K) (V, bool) {
	n, ok := c.m[k]
	if !ok {
		var zero V
		return zero, false
	}
	return n.val, true
}

// Remove deletes k if present, invoking the eviction callback with
// EvictExplicit. Returns false if the key is absent.
func (c *Cache[K, V]) Remove(k K) bool {
	n, ok := c.m[k]
	if !ok {
		return false
	}
	c.evictNode(n, EvictExplicit)
	return true
}

// RemoveAll evicts the current LRU-end entry repeatedly until the cache
// is empty. The eviction callback sees EvictFlush for each entry.
func (c *Cache[K, V]) RemoveAll() {
	for c.len > 0 {
		c.evictNode(c.tail, EvictFlush)
	}
}

// Len returns the number of resident entries.
func (c *Cache[K, V]) Len() int { return c.len }

// Cap returns the configured capacity bound.
func (c *Cache[K, V]) Cap() int { return c.cap }

// -------------------- internals --------------------

// insertFront inserts n at MRU in O(1).
func (c *Cache[K, V]) insertFront(n *node[K, V]) {
	n.prev = nil
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
	c.len++
}

// moveToFront promotes n to MRU in O(1).
func (c *Cache[K, V]) moveToFront(n *node[K, V]) {
	if n == c.head {
		return
	}
	// detach
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if c.tail == n {
		c.tail = n.prev
	}
	// insert at head
	n.prev = nil
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

// removeNode unlinks n from the list and updates counters in O(1).
func (c *Cache[K, V]) removeNode(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if c.head == n {
		c.head = n.next
	}
	if c.tail == n {
		c.tail = n.prev
	}
	n.prev, n.next = nil, nil
	c.len--
}

// evictNode removes the node, deletes it from the index, and hands the
// value to the eviction callback.
func (c *Cache[K, V]) evictNode(n *node[K, V], reason EvictReason) {
	c.removeNode(n)
	delete(c.m, n.key)
	if cb := c.onEvict; cb != nil {
		cb(n.key, n.val, reason)
	}
}
