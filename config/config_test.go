package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vdt/bitvec"
	"github.com/sarchlab/vdt/config"
)

var _ = Describe("Config", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "vdt-config-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	It("should have valid defaults", func() {
		c := config.DefaultConfig()
		Expect(c.Validate()).To(Succeed())
		Expect(c.Strategy).To(Equal("irregular"))
		Expect(c.Order()).To(Equal(bitvec.LittleEndian))
	})

	It("should round trip through a file", func() {
		c := config.DefaultConfig()
		c.Strategy = "theiling"
		c.MaxFanoutBits = 4
		c.Verify = true

		path := filepath.Join(tempDir, "vdt.json")
		Expect(c.SaveConfig(path)).To(Succeed())

		loaded, err := config.LoadConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(Equal(c))
	})

	It("should keep defaults for missing fields", func() {
		path := filepath.Join(tempDir, "partial.json")
		Expect(os.WriteFile(path, []byte(`{"strategy": "regular"}`), 0644)).To(Succeed())

		loaded, err := config.LoadConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Strategy).To(Equal("regular"))
		Expect(loaded.MaxFanoutBits).To(Equal(8))
	})

	It("should report missing files", func() {
		_, err := config.LoadConfig(filepath.Join(tempDir, "missing.json"))
		Expect(err).To(MatchError(ContainSubstring("failed to read config file")))
	})

	It("should report malformed files", func() {
		path := filepath.Join(tempDir, "bad.json")
		Expect(os.WriteFile(path, []byte(`{`), 0644)).To(Succeed())
		_, err := config.LoadConfig(path)
		Expect(err).To(MatchError(ContainSubstring("failed to parse config")))
	})

	DescribeTable("validation",
		func(mutate func(*config.Config), message string) {
			c := config.DefaultConfig()
			mutate(c)
			Expect(c.Validate()).To(MatchError(ContainSubstring(message)))
		},
		Entry("empty strategy", func(c *config.Config) { c.Strategy = "" }, "strategy"),
		Entry("zero fanout", func(c *config.Config) { c.MaxFanoutBits = 0 }, "max_fanout_bits"),
		Entry("huge fanout", func(c *config.Config) { c.MaxFanoutBits = 17 }, "max_fanout_bits"),
		Entry("zero nodes", func(c *config.Config) { c.MaxNodes = 0 }, "max_nodes"),
		Entry("zero depth", func(c *config.Config) { c.MaxDepth = 0 }, "max_depth"),
		Entry("bad byte order", func(c *config.Config) { c.ByteOrder = "middle" }, "byte_order"),
		Entry("zero cache ways", func(c *config.Config) { c.CacheWays = 0 }, "cache_ways"),
	)

	It("should clone independently", func() {
		c := config.DefaultConfig()
		clone := c.Clone()
		clone.MaxDepth = 3
		Expect(c.MaxDepth).To(Equal(256))
	})
})
