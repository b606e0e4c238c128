package decoder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vdt/bitvec"
	"github.com/sarchlab/vdt/decoder"
	"github.com/sarchlab/vdt/tree"
)

var _ = Describe("Cache", func() {
	var c *decoder.Cache

	BeforeEach(func() {
		var err error
		c, err = decoder.NewCache(build(toyISA()), 2, 1, bitvec.BigEndian)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should hit on repeated words", func() {
		first, err := c.Decode(0x1234)
		Expect(err).NotTo(HaveOccurred())
		second, err := c.Decode(0x1234)
		Expect(err).NotTo(HaveOccurred())

		Expect(second).To(BeIdenticalTo(first))
		Expect(c.Stats()).To(Equal(decoder.CacheStatistics{Lookups: 2, Hits: 1, Misses: 1}))
		Expect(c.Stats().HitRate()).To(Equal(0.5))
	})

	It("should evict the previous word of a set", func() {
		_, err := c.Decode(0x1000)
		Expect(err).NotTo(HaveOccurred())
		_, err = c.Decode(0x1002)
		Expect(err).NotTo(HaveOccurred())
		insn, err := c.Decode(0x1000)
		Expect(err).NotTo(HaveOccurred())

		Expect(insn.Name()).To(Equal("add"))
		Expect(c.Stats().Hits).To(BeZero())
		Expect(c.Stats().Evictions).To(Equal(uint64(2)))
	})

	It("should keep words of different sets", func() {
		for _, w := range []uint64{0x1000, 0x1001, 0x1000, 0x1001} {
			_, err := c.Decode(w)
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(c.Stats().Hits).To(Equal(uint64(2)))
	})

	It("should not cache undecodable words", func() {
		for i := 0; i < 2; i++ {
			_, err := c.Decode(0x4000)
			Expect(err).To(MatchError(tree.ErrNoDecision))
		}
		Expect(c.Stats().Misses).To(Equal(uint64(2)))
	})

	It("should forget everything on reset", func() {
		_, err := c.Decode(0x1234)
		Expect(err).NotTo(HaveOccurred())
		c.Reset()
		Expect(c.Stats()).To(Equal(decoder.CacheStatistics{}))

		_, err = c.Decode(0x1234)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Stats().Misses).To(Equal(uint64(1)))
	})

	It("should reject invalid geometry", func() {
		_, err := decoder.NewCache(build(toyISA()), 0, 4, bitvec.BigEndian)
		Expect(err).To(HaveOccurred())
	})
})
