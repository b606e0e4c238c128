package isa_test

import (
	"math/big"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vdt/bitvec"
	"github.com/sarchlab/vdt/isa"
)

func values(kv ...any) map[string]*big.Int {
	out := make(map[string]*big.Int)
	for i := 0; i < len(kv); i += 2 {
		out[kv[i].(string)] = big.NewInt(int64(kv[i+1].(int)))
	}
	return out
}

var _ = Describe("FixedPattern", func() {
	It("should fix contiguous fields", func() {
		f := compileFormat(16, isa.FieldDesc{Name: "f1", Bits: "15..10"},
			isa.FieldDesc{Name: "f2", Bits: "9"}, isa.FieldDesc{Name: "f3", Bits: "8..0"})

		p, err := isa.FixedPattern(f, values("f1", 0b101010, "f2", 1, "f3", 0b010101010), bitvec.BigEndian)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.String()).To(Equal("1010101010101010"))

		p, err = isa.FixedPattern(f, values("f1", 0b101010, "f3", 0b010101010), bitvec.BigEndian)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.String()).To(Equal("101010-010101010"))

		p, err = isa.FixedPattern(f, values("f3", 0), bitvec.BigEndian)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.String()).To(Equal("-------000000000"))
	})

	It("should fix split fields most significant part first", func() {
		f := compileFormat(32,
			isa.FieldDesc{Name: "sf", Bits: "31"},
			isa.FieldDesc{Name: "ff", Bits: "29"},
			isa.FieldDesc{Name: "op", Bits: "30,28..21"},
			isa.FieldDesc{Name: "rm", Bits: "20..16"},
			isa.FieldDesc{Name: "option", Bits: "15..13"},
			isa.FieldDesc{Name: "imm3", Bits: "12..10"},
			isa.FieldDesc{Name: "rn", Bits: "9..5"},
			isa.FieldDesc{Name: "rd", Bits: "4..0"})

		add, err := isa.FixedPattern(f,
			values("op", 0x59, "sf", 0, "ff", 0, "option", 0, "imm3", 0), bitvec.BigEndian)
		Expect(err).NotTo(HaveOccurred())
		Expect(add.String()).To(Equal("00001011001-----000000----------"))

		sub, err := isa.FixedPattern(f,
			values("op", 0x159, "sf", 0, "ff", 0, "option", 0, "imm3", 0), bitvec.BigEndian)
		Expect(err).NotTo(HaveOccurred())
		Expect(sub.String()).To(Equal("01001011001-----000000----------"))
	})

	It("should store little-endian patterns in memory order", func() {
		f := compileFormat(16, isa.FieldDesc{Name: "hi", Bits: "15..8"}, isa.FieldDesc{Name: "lo", Bits: "7..0"})

		p, err := isa.FixedPattern(f, values("hi", 0xff), bitvec.LittleEndian)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.String()).To(Equal("--------11111111"))
	})

	It("should reject contradicting overlapping fields", func() {
		f := compileFormat(8, isa.FieldDesc{Name: "all", Bits: "7..0"}, isa.FieldDesc{Name: "top", Bits: "7"})

		_, err := isa.FixedPattern(f, values("all", 0, "top", 1), bitvec.BigEndian)
		Expect(err).To(MatchError(ContainSubstring("contradicts")))

		p, err := isa.FixedPattern(f, values("all", 0x80, "top", 1), bitvec.BigEndian)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.String()).To(Equal("10000000"))
	})
})

var _ = Describe("Compile", func() {
	It("should compile the RV32I subset", func() {
		s, err := isa.Load(filepath.Join("testdata", "rv32i.yaml"))
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Name).To(Equal("rv32i"))
		Expect(s.Order).To(Equal(bitvec.LittleEndian))
		Expect(s.Formats).To(HaveLen(7))
		Expect(s.Instructions).To(HaveLen(21))

		beq, ok := s.Instruction("beq")
		Expect(ok).To(BeTrue())
		Expect(beq.Format.Name).To(Equal("B"))
		Expect(beq.Format.FieldNames()).To(Equal([]string{"funct3", "imm", "opcode", "rs1", "rs2"}))
		Expect(beq.Encoding["opcode"].Int64()).To(Equal(int64(0b1100011)))
	})

	DescribeTable("invalid descriptions",
		func(text, msg string) {
			_, err := isa.Parse([]byte(text))
			Expect(err).To(MatchError(isa.ErrInvalidDescription))
			Expect(err).To(MatchError(ContainSubstring(msg)))
		},
		Entry("unknown format", `
formats: [{name: F, width: 8, fields: [{name: a, bits: "7..0"}]}]
instructions: [{name: x, format: G}]`, `unknown format "G"`),
		Entry("unknown field", `
formats: [{name: F, width: 8, fields: [{name: a, bits: "7..0"}]}]
instructions: [{name: x, format: F, encoding: {b: 1}}]`, `unknown field "b"`),
		Entry("value too wide", `
formats: [{name: F, width: 8, fields: [{name: a, bits: "1..0"}]}]
instructions: [{name: x, format: F, encoding: {a: 4}}]`, "does not fit"),
		Entry("field outside the format", `
formats: [{name: F, width: 8, fields: [{name: a, bits: "8..0"}]}]
instructions: [{name: x, format: F}]`, "exceeds 8 bits"),
		Entry("duplicate instruction", `
formats: [{name: F, width: 8, fields: [{name: a, bits: "7..0"}]}]
instructions: [{name: x, format: F}, {name: x, format: F}]`, `duplicate instruction "x"`),
		Entry("odd little-endian width", `
byteOrder: little
formats: [{name: F, width: 12, fields: [{name: a, bits: "11..0"}]}]
instructions: [{name: x, format: F}]`, "whole number of bytes"),
		Entry("unknown access field", `
formats: [{name: F, width: 8, fields: [{name: a, bits: "7..0"}], accesses: [{name: s, field: b}]}]
instructions: [{name: x, format: F}]`, `unknown field "b"`),
		Entry("no instructions", `
formats: [{name: F, width: 8, fields: [{name: a, bits: "7..0"}]}]`, "no instructions"),
		Entry("bad byte order", `
byteOrder: middle
formats: [{name: F, width: 8}]
instructions: [{name: x, format: F}]`, "unknown byte order"),
	)

	It("should reject malformed constants", func() {
		_, err := isa.Parse([]byte(`
formats: [{name: F, width: 8, fields: [{name: a, bits: "7..0"}]}]
instructions: [{name: x, format: F, encoding: {a: 0b12}}]`))
		Expect(err).To(MatchError(ContainSubstring("invalid constant")))
	})

	It("should accept constants wider than 64 bits", func() {
		s, err := isa.Parse([]byte(`
formats: [{name: F, width: 80, fields: [{name: a, bits: "79..0"}]}]
instructions: [{name: x, format: F, encoding: {a: 0x8000_0000_0000_0000_0001}}]`))
		Expect(err).NotTo(HaveOccurred())

		entries, err := s.Entries()
		Expect(err).NotTo(HaveOccurred())
		Expect(entries[0].Pattern.Width()).To(Equal(80))
		Expect(entries[0].Pattern.Get(0)).To(Equal(bitvec.One))
		Expect(entries[0].Pattern.Get(79)).To(Equal(bitvec.One))
	})

	It("should round trip a description through a file", func() {
		dir, err := os.MkdirTemp("", "isa-test")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)

		desc := &isa.Description{
			Name:      "tiny",
			ByteOrder: "big",
			Formats: []isa.FormatDesc{{
				Name:   "F",
				Width:  8,
				Fields: []isa.FieldDesc{{Name: "op", Bits: "7..4"}, {Name: "arg", Bits: "3..0"}},
			}},
			Instructions: []isa.InstructionDesc{{
				Name:     "inc",
				Format:   "F",
				Encoding: map[string]isa.Constant{"op": isa.NewConstant(0xa)},
			}},
		}
		path := filepath.Join(dir, "tiny.yaml")
		Expect(isa.Save(desc, path)).To(Succeed())

		s, err := isa.Load(path)
		Expect(err).NotTo(HaveOccurred())
		entries, err := s.Entries()
		Expect(err).NotTo(HaveOccurred())
		Expect(entries[0].Name()).To(Equal("inc"))
		Expect(entries[0].Pattern.String()).To(Equal("1010----"))
	})

	It("should report missing files", func() {
		_, err := isa.Load(filepath.Join("testdata", "missing.yaml"))
		Expect(err).To(MatchError(ContainSubstring("failed to read ISA description")))
	})
})

func compileFormat(width int, fields ...isa.FieldDesc) *isa.Format {
	GinkgoHelper()
	s, err := isa.Compile(&isa.Description{
		Formats:      []isa.FormatDesc{{Name: "F", Width: width, Fields: fields}},
		Instructions: []isa.InstructionDesc{{Name: "x", Format: "F"}},
	})
	Expect(err).NotTo(HaveOccurred())
	return s.Formats[0]
}
