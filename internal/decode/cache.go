package decode

import (
	"encoding/binary"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-tinylfu"
)

// Cache bounds a pool of whole decompressed small payloads, shared across
// every reader opened against one Archive. It is grounded on
// elliotnunn-BeHierarchic/internal/spinner/concurrent.go's
// tinylfu.New[ckey, []byte] pool, scaled down from a block multiplexer to a
// per-archive whole-payload cache: concurrent readers of the same entry
// (spec §8's parallel-safety property) skip re-inflating it.
type Cache struct {
	mu sync.Mutex
	t  *tinylfu.T[uint64, []byte]
}

// NewCache builds a cache admitting up to capacity cached payloads, counted
// by entry rather than by their size in bytes.
func NewCache(capacity int) *Cache {
	return &Cache{t: tinylfu.New[uint64, []byte](capacity, capacity*10, cacheKeyHash)}
}

// cacheKeyHash hashes a cache key (an entry's header_offset) for tinylfu's
// internal sketch, the same role internal/spinner/concurrent.go's bhasher
// plays for its ckey keys.
func cacheKeyHash(key uint64) uint64 {
	return xxhash.Sum64(binary.LittleEndian.AppendUint64(nil, key))
}

func (c *Cache) Get(key uint64) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t.Get(key)
}

func (c *Cache) Add(key uint64, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t.Add(key, value)
}
