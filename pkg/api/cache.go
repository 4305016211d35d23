package api

import (
	"sync"
	"sync/atomic"

	"github.com/yourusername/goengine/pkg/engine"
)

// Cache constants
const (
	DefaultMoveCacheSize = 1 << 12 // 4096 cached move lists
	CacheHit             = ^uint32(0)
)

// MoveKey identifies one cached enumeration: a position fingerprint
// qualified by the dimensions that seeded it and the color to move.
type MoveKey struct {
	Fingerprint uint64
	Width       int
	Height      int
	Color       engine.Content
}

// moveEntry is one stored enumeration.
type moveEntry struct {
	key   MoveKey
	moves []engine.Coord
	ok    bool
}

// moveNode holds primary and secondary entries of one cache set.
type moveNode struct {
	primary   moveEntry
	secondary moveEntry
}

// MoveCache memoizes legal-move enumerations for bare positions. It is
// two-way associative with MurmurHash3-based indexing: each set keeps a
// primary and a secondary entry, and an insert shifts the primary down
// instead of dropping it. Only history-free queries may use it; in a
// live session the super-ko rule makes legality depend on the line, not
// just the position.
type MoveCache struct {
	mu       sync.RWMutex
	nodes    []moveNode
	hashMask uint32

	// Statistics, atomics
	lookups uint64
	hits    uint64
	adds    uint64
}

// NewMoveCache creates a move cache with the given entry count, rounded
// up to a power of 2.
func NewMoveCache(size uint32) *MoveCache {
	if size < 2 {
		size = 2
	}
	if size > 1<<24 {
		size = 1 << 24
	}

	// Find smallest power of 2 >= size
	p := uint32(2)
	for p < size {
		p <<= 1
	}
	size = p

	return &MoveCache{
		nodes:    make([]moveNode, size/2),
		hashMask: (size / 2) - 1,
	}
}

// hash computes the set index for a key using MurmurHash3-style mixing.
func (c *MoveCache) hash(k MoveKey) uint32 {
	const c1 = 0xcc9e2d51
	const c2 = 0x1b873593

	words := [4]uint32{
		uint32(k.Fingerprint),
		uint32(k.Fingerprint >> 32),
		uint32(k.Width)<<16 | uint32(k.Height),
		uint32(k.Color),
	}

	h := uint32(0)
	for _, w := range words {
		w *= c1
		w = (w << 15) | (w >> 17)
		w *= c2

		h ^= w
		h = (h << 13) | (h >> 19)
		h = h*5 + 0xe6546b64
	}

	// Finalization
	h ^= 16
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16

	return h & c.hashMask
}

// Lookup checks whether a move list for k is cached. On a hit it returns
// the list and CacheHit; on a miss it returns the set index for the
// matching Add. The returned slice is shared: callers must not modify
// it.
func (c *MoveCache) Lookup(k MoveKey) ([]engine.Coord, uint32) {
	slot := c.hash(k)
	atomic.AddUint64(&c.lookups, 1)

	c.mu.RLock()
	defer c.mu.RUnlock()

	node := &c.nodes[slot]
	if node.primary.ok && node.primary.key == k {
		atomic.AddUint64(&c.hits, 1)
		return node.primary.moves, CacheHit
	}
	if node.secondary.ok && node.secondary.key == k {
		atomic.AddUint64(&c.hits, 1)
		return node.secondary.moves, CacheHit
	}
	return nil, slot
}

// Add stores a computed move list. slot should be the value returned by
// a previous Lookup miss; the set's primary entry shifts to secondary
// and the oldest entry drops.
func (c *MoveCache) Add(k MoveKey, moves []engine.Coord, slot uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node := &c.nodes[slot]
	node.secondary = node.primary
	node.primary = moveEntry{key: k, moves: moves, ok: true}

	atomic.AddUint64(&c.adds, 1)
}

// CacheStats are the counters of a MoveCache.
type CacheStats struct {
	Entries uint32 `json:"entries"` // capacity in move lists
	Lookups uint64 `json:"lookups"`
	Hits    uint64 `json:"hits"`
	Adds    uint64 `json:"adds"`
}

// Stats returns the cache counters.
func (c *MoveCache) Stats() CacheStats {
	return CacheStats{
		Entries: uint32(len(c.nodes) * 2),
		Lookups: atomic.LoadUint64(&c.lookups),
		Hits:    atomic.LoadUint64(&c.hits),
		Adds:    atomic.LoadUint64(&c.adds),
	}
}

// HitRate returns the cache hit rate as a percentage.
func (c *MoveCache) HitRate() float64 {
	lookups := atomic.LoadUint64(&c.lookups)
	if lookups == 0 {
		return 0
	}
	return float64(atomic.LoadUint64(&c.hits)) / float64(lookups) * 100
}
