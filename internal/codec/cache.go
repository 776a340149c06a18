package codec

import (
	"strconv"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Stats carries the cache counters used for diagnostics and tests.
type Stats struct {
	Hits    uint64 // requests served from the cache
	Decodes uint64 // decoder invocations
}

// cache is the content-addressed chunk store, keyed by source offset.
// At most one chunk exists per offset; entries are released only by clear.
type cache struct {
	mu      sync.Mutex
	entries map[uint32]*Chunk

	flight  singleflight.Group
	hits    atomic.Uint64
	decodes atomic.Uint64
}

func newCache() *cache {
	return &cache{
		entries: make(map[uint32]*Chunk),
	}
}

func (c *cache) get(offset uint32) (*Chunk, bool) {
	c.mu.Lock()
	chunk, ok := c.entries[offset]
	c.mu.Unlock()
	if ok {
		c.hits.Add(1)
	}
	return chunk, ok
}

func (c *cache) put(offset uint32, chunk *Chunk) {
	c.mu.Lock()
	if _, ok := c.entries[offset]; !ok {
		c.entries[offset] = chunk
	}
	c.mu.Unlock()
}

// decode runs fn for the offset, collapsing concurrent requests for the same
// offset into a single decoder invocation. The result is stored on success.
func (c *cache) decode(offset uint32, fn func() (*Chunk, error)) (*Chunk, error) {
	key := strconv.FormatUint(uint64(offset), 16)
	result, err, _ := c.flight.Do(key, func() (any, error) {
		// a clear between the initial miss and here makes this re-check cheap
		c.mu.Lock()
		if chunk, ok := c.entries[offset]; ok {
			c.mu.Unlock()
			c.hits.Add(1)
			return chunk, nil
		}
		c.mu.Unlock()

		c.decodes.Add(1)
		chunk, err := fn()
		if err != nil {
			return nil, err
		}
		c.put(offset, chunk)
		return chunk, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Chunk), nil
}

func (c *cache) clear() int {
	c.mu.Lock()
	released := len(c.entries)
	c.entries = make(map[uint32]*Chunk)
	c.mu.Unlock()
	return released
}

func (c *cache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *cache) stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Decodes: c.decodes.Load(),
	}
}
