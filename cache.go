package gridtick

import "sort"

// pixelCache maps content hashes to rasterized RGBA buffers, with a soft
// size limit. When the cache exceeds the limit, least-recently-used
// entries are evicted down to 75% of it.
//
// Unlike the request/result channels, the cache lives entirely on the
// caller's side of the render service, so it needs no locking.
type pixelCache struct {
	entries   map[uint64]*pixelEntry
	softLimit int
	tick      int64 // monotonic access counter
}

type pixelEntry struct {
	pixels []byte
	atime  int64
}

// newPixelCache creates a cache with the given soft limit.
// A softLimit of 0 means unlimited.
func newPixelCache(softLimit int) *pixelCache {
	return &pixelCache{
		entries:   make(map[uint64]*pixelEntry),
		softLimit: softLimit,
	}
}

// get retrieves a buffer and refreshes its access time.
func (c *pixelCache) get(hash uint64) ([]byte, bool) {
	entry, ok := c.entries[hash]
	if !ok {
		return nil, false
	}
	c.tick++
	entry.atime = c.tick
	return entry.pixels, true
}

// has reports presence without refreshing the access time.
func (c *pixelCache) has(hash uint64) bool {
	_, ok := c.entries[hash]
	return ok
}

// set stores a buffer, evicting oldest entries if over the soft limit.
func (c *pixelCache) set(hash uint64, pixels []byte) {
	c.tick++
	c.entries[hash] = &pixelEntry{pixels: pixels, atime: c.tick}

	if c.softLimit > 0 && len(c.entries) > c.softLimit {
		c.evictOldest()
	}
}

func (c *pixelCache) len() int {
	return len(c.entries)
}

// evictOldest removes entries until under 75% of softLimit.
func (c *pixelCache) evictOldest() {
	targetSize := c.softLimit * 3 / 4
	if targetSize < 1 {
		targetSize = 1
	}
	toEvict := len(c.entries) - targetSize
	if toEvict <= 0 {
		return
	}

	type aged struct {
		hash  uint64
		atime int64
	}
	all := make([]aged, 0, len(c.entries))
	for hash, e := range c.entries {
		all = append(all, aged{hash: hash, atime: e.atime})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].atime < all[j].atime })

	for i := 0; i < toEvict; i++ {
		delete(c.entries, all[i].hash)
	}
}
