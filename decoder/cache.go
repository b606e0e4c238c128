package decoder

import (
	"fmt"
	"math/big"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/vdt/bitvec"
)

// CacheStatistics holds decode cache statistics.
type CacheStatistics struct {
	Lookups   uint64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRate returns the fraction of lookups that hit.
func (s CacheStatistics) HitRate() float64 {
	if s.Lookups == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Lookups)
}

// Cache memoizes decoded words in a set-associative structure with LRU
// replacement, the way a simulator keeps a decoded-instruction cache in
// front of its decoder. Words that fail to decode are not cached.
//
// Cache is not safe for concurrent use.
type Cache struct {
	decoder   *Decoder
	order     bitvec.ByteOrder
	ways      int
	directory *akitacache.DirectoryImpl
	lines     []*DecodedInstruction
	stats     CacheStatistics
}

// NewCache creates a cache with sets*ways lines in front of d. Words are
// given as natural values in order. The decoder must decide on at most 64
// bits.
func NewCache(d *Decoder, sets, ways int, order bitvec.ByteOrder) (*Cache, error) {
	if sets <= 0 || ways <= 0 {
		return nil, fmt.Errorf("cache needs positive sets and ways, got %d and %d", sets, ways)
	}
	if d.Width() > 64 {
		return nil, fmt.Errorf("%w: cache holds words up to 64 bits, tree decides %d",
			bitvec.ErrInvalidWidth, d.Width())
	}

	return &Cache{
		decoder:   d,
		order:     order,
		ways:      ways,
		directory: akitacache.NewDirectory(sets, ways, 1, akitacache.NewLRUVictimFinder()),
		lines:     make([]*DecodedInstruction, sets*ways),
	}, nil
}

// Decode returns the decoded word, from the cache when possible.
func (c *Cache) Decode(word uint64) (*DecodedInstruction, error) {
	c.stats.Lookups++

	if block := c.directory.Lookup(0, word); block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		return c.lines[c.lineIndex(block)], nil
	}

	c.stats.Misses++
	insn, err := c.decoder.Decode(new(big.Int).SetUint64(word), c.order)
	if err != nil {
		return nil, err
	}

	victim := c.directory.FindVictim(word)
	if victim == nil {
		return insn, nil
	}
	if victim.IsValid {
		c.stats.Evictions++
	}
	victim.Tag = word
	victim.IsValid = true
	c.lines[c.lineIndex(victim)] = insn
	c.directory.Visit(victim)

	return insn, nil
}

func (c *Cache) lineIndex(block *akitacache.Block) int {
	return block.SetID*c.ways + block.WayID
}

// Stats returns the cache statistics.
func (c *Cache) Stats() CacheStatistics {
	return c.stats
}

// Reset drops every line and clears the statistics.
func (c *Cache) Reset() {
	c.directory.Reset()
	clear(c.lines)
	c.stats = CacheStatistics{}
}
