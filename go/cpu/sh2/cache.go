package sh2

const (
	pageBits     = 12
	pageSize     = 1 << pageBits
	slotsPerPage = pageSize / 2
	regionBits   = 24
	regionPages  = 1 << (regionBits - pageBits)

	// tombstones kept per slot for self-modifying code that flips between
	// a few versions
	maxAlt = 4
)

// Canonical folds the cache-through mirror onto the cached area, so both
// views of the same code share one slot.
func Canonical(addr uint32) uint32 {
	if addr>>29 == 1 {
		return addr &^ 0x20000000
	}
	return addr
}

type CacheStats struct {
	Builds        uint64
	Hits          uint64
	Misses        uint64
	Invalidations uint64
	Revives       uint64
	Evictions     uint64
	Promotions    uint64
}

type slot struct {
	primary *Block
	// tombstones keyed by content hash
	alt map[uint32]*Block
}

type cachePage struct {
	region *cacheRegion
	slots  [slotsPerPage]*slot
	live   int
}

type cacheRegion struct {
	pages [regionPages]*cachePage
	live  int
}

// Cache holds one core's blocks, indexed by region, 4K page, then halfword.
// It is not safe for concurrent use.
type Cache struct {
	regions map[uint32]*cacheRegion
	// longest possible block in bytes, so invalidation knows how far back
	// a block overlapping an address can start
	maxBytes uint32
	live     int
	stats    CacheStats
}

func NewCache(maxLen int) *Cache {
	return &Cache{
		regions:  make(map[uint32]*cacheRegion),
		maxBytes: uint32(maxLen+1) * 2,
	}
}

func (c *Cache) Stats() CacheStats { return c.stats }

// Live is the number of valid blocks.
func (c *Cache) Live() int { return c.live }

func (c *Cache) page(addr uint32, create bool) *cachePage {
	r := c.regions[addr>>regionBits]
	if r == nil {
		if !create {
			return nil
		}
		r = &cacheRegion{}
		c.regions[addr>>regionBits] = r
	}
	i := addr >> pageBits & (regionPages - 1)
	pg := r.pages[i]
	if pg == nil && create {
		pg = &cachePage{region: r}
		r.pages[i] = pg
	}
	return pg
}

func (c *Cache) slot(pc uint32, create bool) (*cachePage, *slot) {
	a := Canonical(pc)
	pg := c.page(a, create)
	if pg == nil {
		return nil, nil
	}
	i := a & (pageSize - 1) >> 1
	s := pg.slots[i]
	if s == nil && create {
		s = &slot{}
		pg.slots[i] = s
	}
	return pg, s
}

// Lookup returns the live block starting exactly at pc, without touching
// the statistics.
func (c *Cache) Lookup(pc uint32) *Block {
	_, s := c.slot(pc, false)
	if s == nil || s.primary == nil {
		return nil
	}
	if b := s.primary; b.Valid && b.Start == pc {
		return b
	}
	return nil
}

// Get is Lookup counted as a hit or a miss.
func (c *Cache) Get(pc uint32) *Block {
	if b := c.Lookup(pc); b != nil {
		c.stats.Hits++
		return b
	}
	c.stats.Misses++
	return nil
}

func (c *Cache) setLive(pg *cachePage, b *Block, live bool) {
	if b.Valid == live {
		return
	}
	b.Valid = live
	d := 1
	if !live {
		d = -1
		b.next = nil
	}
	pg.live += d
	pg.region.live += d
	c.live += d
}

// Insert adds a freshly built block. If a tombstone with the same start,
// hash and words is parked in the slot it is revived and returned instead,
// keeping its hit count, compiled code and poll record.
func (c *Cache) Insert(b *Block) *Block {
	pg, s := c.slot(b.Start, true)
	if old := s.primary; old != nil && !old.Valid && same(old, b) {
		c.setLive(pg, old, true)
		c.stats.Revives++
		return old
	}
	if old := s.alt[b.Hash]; old != nil && same(old, b) {
		delete(s.alt, b.Hash)
		c.park(pg, s, s.primary)
		s.primary = old
		c.setLive(pg, old, true)
		c.stats.Revives++
		return old
	}
	c.park(pg, s, s.primary)
	s.primary = b
	b.Valid = false
	c.setLive(pg, b, true)
	c.stats.Builds++
	return b
}

func same(a, b *Block) bool {
	return a.Start == b.Start && a.Hash == b.Hash && sameWords(a, b)
}

// park moves a slot's primary into the tombstone map.
func (c *Cache) park(pg *cachePage, s *slot, b *Block) {
	if b == nil {
		return
	}
	if b.Valid {
		// another mirror of the same address
		c.setLive(pg, b, false)
		c.stats.Evictions++
	}
	if s.alt == nil {
		s.alt = make(map[uint32]*Block, maxAlt)
	}
	if _, ok := s.alt[b.Hash]; !ok && len(s.alt) >= maxAlt {
		for k := range s.alt {
			delete(s.alt, k)
			break
		}
	}
	s.alt[b.Hash] = b
}

// Invalidate kills every live block overlapping addr:addr+size.
func (c *Cache) Invalidate(addr, size uint32) {
	if c.live == 0 || size == 0 {
		return
	}
	a := uint64(Canonical(addr))
	end := a + uint64(size)
	lo := uint64(0)
	if a > uint64(c.maxBytes) {
		lo = a - uint64(c.maxBytes)
	}
	for p := lo &^ (pageSize - 1); p < end && p <= 0xffffffff; p += pageSize {
		pg := c.page(uint32(p), false)
		if pg == nil || pg.live == 0 {
			continue
		}
		first, last := p, p+pageSize
		if lo > first {
			first = lo
		}
		if end < last {
			last = end
		}
		for i := (first - p) >> 1; i < (last-p+1)>>1; i++ {
			s := pg.slots[i]
			if s == nil || s.primary == nil || !s.primary.Valid {
				continue
			}
			b := s.primary
			bs := uint64(Canonical(b.Start))
			if bs < end && bs+uint64(b.Size()) > a {
				c.setLive(pg, b, false)
				c.stats.Invalidations++
			}
		}
		if c.live == 0 {
			return
		}
	}
}

// Reset drops every block, live or dead. Dropped blocks are marked dead so
// links held elsewhere stop resolving to them.
func (c *Cache) Reset() {
	c.Each(func(b *Block) {
		b.Valid = false
		b.next = nil
	})
	c.regions = make(map[uint32]*cacheRegion)
	c.live = 0
}

func (c *Cache) promoted() {
	c.stats.Promotions++
}

// Each calls fn for every live block, in no particular order.
func (c *Cache) Each(fn func(b *Block)) {
	for _, r := range c.regions {
		if r.live == 0 {
			continue
		}
		for _, pg := range r.pages {
			if pg == nil || pg.live == 0 {
				continue
			}
			for _, s := range pg.slots {
				if s != nil && s.primary != nil && s.primary.Valid {
					fn(s.primary)
				}
			}
		}
	}
}
