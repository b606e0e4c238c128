package isa_test

import (
	"math/big"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vdt/bitvec"
	"github.com/sarchlab/vdt/decoder"
	"github.com/sarchlab/vdt/entry"
	"github.com/sarchlab/vdt/gen"
	"github.com/sarchlab/vdt/isa"
)

func load(name string) *isa.ISA {
	GinkgoHelper()
	s, err := isa.Load(filepath.Join("testdata", name))
	Expect(err).NotTo(HaveOccurred())
	return s
}

func buildDecoder(strategy string, entries []*entry.DecodeEntry) *decoder.Decoder {
	GinkgoHelper()
	g, err := gen.New(strategy, gen.WithVerification(true))
	Expect(err).NotTo(HaveOccurred())
	root, err := g.Generate(entries)
	Expect(err).NotTo(HaveOccurred())
	return decoder.New(root)
}

var _ = Describe("Entries", func() {
	It("should lower exclusion conditions", func() {
		entries, err := load("constraints.yaml").Entries()
		Expect(err).NotTo(HaveOccurred())

		Expect(entries[0].Pattern.String()).To(Equal("00------"))
		Expect(entries[0].Exclusions).To(HaveLen(2))
		Expect(entries[0].Exclusions[1].Matching.String()).To(Equal("--00----"))
		Expect(entries[0].Exclusions[1].Unmatching).To(HaveLen(2))
		Expect(entries[0].Exclusions[1].Unmatching[0].String()).To(Equal("------00"))
		Expect(entries[6].Pattern.String()).To(Equal("0-11----"))
	})

	for _, strategy := range []string{gen.Irregular, gen.Heuristic} {
		strategy := strategy

		DescribeTable("decoding encoding constraints with "+strategy,
			func(bits, want string) {
				entries, err := load("constraints.yaml").Entries(isa.WithSynthesizedExclusions(true))
				Expect(err).NotTo(HaveOccurred())

				e, err := buildDecoder(strategy, entries).Decide(bitvec.MustParseVector(bits))
				Expect(err).NotTo(HaveOccurred())
				Expect(e.Name()).To(Equal(want))
			},
			Entry("00000000", "00000000", "I1"),
			Entry("00000001", "00000001", "I5"),
			Entry("00000010", "00000010", "I6"),
			Entry("00000011", "00000011", "I1"),
			Entry("00110000", "00110000", "I7"),
			Entry("01000000", "01000000", "I2"),
			Entry("01010000", "01010000", "I2"),
			Entry("01100000", "01100000", "I2"),
			Entry("01110000", "01110000", "I7"),
		)
	}

	It("should synthesize exclusions for subsumed instructions", func() {
		s := load("rv32i.yaml")

		plain, err := s.Entries()
		Expect(err).NotTo(HaveOccurred())
		synthesized, err := s.Entries(isa.WithSynthesizedExclusions(true))
		Expect(err).NotTo(HaveOccurred())

		byName := func(entries []*entry.DecodeEntry, name string) *entry.DecodeEntry {
			for _, e := range entries {
				if e.Name() == name {
					return e
				}
			}
			Fail("no entry " + name)
			return nil
		}

		Expect(byName(plain, "addi").Exclusions).To(BeEmpty())
		addi := byName(synthesized, "addi")
		Expect(addi.Exclusions).To(HaveLen(1))
		Expect(addi.Claims(bitvec.FromBytes([]byte{0x13, 0, 0, 0}))).To(BeFalse())
		Expect(addi.Claims(bitvec.FromBytes([]byte{0x93, 0, 0xa0, 0}))).To(BeTrue())
		Expect(byName(synthesized, "ecall").Exclusions).To(BeEmpty())
	})

	for _, strategy := range gen.Strategies() {
		strategy := strategy

		Context("decoding RV32I with "+strategy, func() {
			var d *decoder.Decoder

			BeforeEach(func() {
				entries, err := load("rv32i.yaml").Entries()
				Expect(err).NotTo(HaveOccurred())
				d = buildDecoder(strategy, entries)
			})

			DescribeTable("instructions",
				func(word int64, want string) {
					insn, err := d.Decode(big.NewInt(word), bitvec.LittleEndian)
					Expect(err).NotTo(HaveOccurred())
					Expect(insn.Name()).To(Equal(want))
				},
				Entry("addi", int64(0x00a00093), "addi"),
				Entry("nop", int64(0x00000013), "nop"),
				Entry("lui", int64(0x123452b7), "lui"),
				Entry("add", int64(0x002081b3), "add"),
				Entry("sub", int64(0x402081b3), "sub"),
				Entry("srai", int64(0x4030d093), "srai"),
				Entry("srli", int64(0x0030d093), "srli"),
				Entry("beq", int64(0xfe208ee3), "beq"),
				Entry("jal", int64(0x008000ef), "jal"),
				Entry("ecall", int64(0x00000073), "ecall"),
				Entry("ebreak", int64(0x00100073), "ebreak"),
			)

			It("should evaluate access functions", func() {
				beq, err := d.Decode(big.NewInt(0xfe208ee3), bitvec.LittleEndian)
				Expect(err).NotTo(HaveOccurred())
				offset, err := beq.Access("offset")
				Expect(err).NotTo(HaveOccurred())
				Expect(offset.Int64()).To(Equal(int64(-4)))

				jal, err := d.Decode(big.NewInt(0x008000ef), bitvec.LittleEndian)
				Expect(err).NotTo(HaveOccurred())
				offset, err = jal.Access("offset")
				Expect(err).NotTo(HaveOccurred())
				Expect(offset.Int64()).To(Equal(int64(8)))

				lui, err := d.Decode(big.NewInt(0x123452b7), bitvec.LittleEndian)
				Expect(err).NotTo(HaveOccurred())
				imm, err := lui.Access("immU")
				Expect(err).NotTo(HaveOccurred())
				Expect(imm.Int64()).To(Equal(int64(0x12345000)))
				rd, err := lui.Field("rd")
				Expect(err).NotTo(HaveOccurred())
				Expect(rd.Int64()).To(Equal(int64(5)))
			})

			It("should disassemble a memory image", func() {
				code := []byte{
					0x93, 0x00, 0xa0, 0x00, // addi x1, x0, 10
					0xff, 0xff, 0xff, 0xff,
					0x73, 0x00, 0x00, 0x00, // ecall
				}
				units := d.Stream(code, bitvec.LittleEndian)
				Expect(units).To(HaveLen(3))
				Expect(units[0].Instruction.Name()).To(Equal("addi"))
				Expect(units[1].Err).To(HaveOccurred())
				Expect(units[1].Size).To(Equal(4))
				Expect(units[2].Instruction.Name()).To(Equal("ecall"))
			})
		})
	}
})
