package isa_test

import (
	"math/big"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vdt/bitvec"
	"github.com/sarchlab/vdt/decoder"
	"github.com/sarchlab/vdt/gen"
)

var _ = Describe("A64", func() {
	for _, strategy := range gen.Strategies() {
		strategy := strategy

		Context("with "+strategy, func() {
			var d *decoder.Decoder

			BeforeEach(func() {
				entries, err := load("a64.yaml").Entries()
				Expect(err).NotTo(HaveOccurred())
				d = buildDecoder(strategy, entries)
			})

			decode := func(word int64) *decoder.DecodedInstruction {
				GinkgoHelper()
				insn, err := d.Decode(big.NewInt(word), bitvec.LittleEndian)
				Expect(err).NotTo(HaveOccurred())
				return insn
			}

			field := func(insn *decoder.DecodedInstruction, name string) int64 {
				GinkgoHelper()
				v, err := insn.Field(name)
				Expect(err).NotTo(HaveOccurred())
				return v.Int64()
			}

			DescribeTable("instructions",
				func(word int64, want string) {
					Expect(decode(word).Name()).To(Equal(want))
				},
				Entry("ADD X0, X1, #42", int64(0x9100A820), "ADD_imm"),
				Entry("ADD W0, W1, #100", int64(0x11019020), "ADD_imm"),
				Entry("ADDS X2, X3, #10", int64(0xB1002862), "ADDS_imm"),
				Entry("ADD X0, X1, #1, LSL #12", int64(0x91400420), "ADD_imm"),
				Entry("SUB X5, X6, #20", int64(0xD10050C5), "SUB_imm"),
				Entry("SUB W7, W8, #50", int64(0x5100C907), "SUB_imm"),
				Entry("SUBS X9, X10, #5", int64(0xF1001549), "SUBS_imm"),
				Entry("ADD X0, X1, X2", int64(0x8B020020), "ADD_reg"),
				Entry("ADD W3, W4, W5", int64(0x0B050083), "ADD_reg"),
				Entry("ADDS X6, X7, X8", int64(0xAB0800E6), "ADDS_reg"),
				Entry("SUB X9, X10, X11", int64(0xCB0B0149), "SUB_reg"),
				Entry("SUB W12, W13, W14", int64(0x4B0E01AC), "SUB_reg"),
				Entry("SUBS X15, X16, X17", int64(0xEB11020F), "SUBS_reg"),
				Entry("AND X0, X1, X2", int64(0x8A020020), "AND"),
				Entry("AND W3, W4, W5", int64(0x0A050083), "AND"),
				Entry("ANDS X6, X7, X8", int64(0xEA0800E6), "ANDS"),
				Entry("ORR X9, X10, X11", int64(0xAA0B0149), "ORR"),
				Entry("ORR W12, W13, W14", int64(0x2A0E01AC), "ORR"),
				Entry("EOR X15, X16, X17", int64(0xCA11020F), "EOR"),
				Entry("EOR W18, W19, W20", int64(0x4A140272), "EOR"),
				Entry("B #0x100", int64(0x14000040), "B"),
				Entry("B #-0x8", int64(0x17FFFFFE), "B"),
				Entry("BL #0x200", int64(0x94000080), "BL"),
				Entry("B.EQ #0x10", int64(0x54000080), "B.cond"),
				Entry("B.NE #0x20", int64(0x54000101), "B.cond"),
				Entry("B.LT #0x40", int64(0x5400020B), "B.cond"),
				Entry("BR X30", int64(0xD61F03C0), "BR"),
				Entry("BLR X10", int64(0xD63F0140), "BLR"),
				Entry("RET", int64(0xD65F03C0), "RET"),
			)

			It("should not decode the zero word", func() {
				_, err := d.Decode(big.NewInt(0), bitvec.LittleEndian)
				Expect(err).To(HaveOccurred())
			})

			It("should extract register and immediate fields", func() {
				add := decode(0x9100A820)
				Expect(field(add, "sf")).To(Equal(int64(1)))
				Expect(field(add, "rd")).To(Equal(int64(0)))
				Expect(field(add, "rn")).To(Equal(int64(1)))
				Expect(field(add, "imm12")).To(Equal(int64(42)))
				Expect(field(decode(0x91400420), "sh")).To(Equal(int64(1)))

				sub := decode(0x4B0E01AC)
				Expect(field(sub, "sf")).To(Equal(int64(0)))
				Expect(field(sub, "rd")).To(Equal(int64(12)))
				Expect(field(sub, "rn")).To(Equal(int64(13)))
				Expect(field(sub, "rm")).To(Equal(int64(14)))

				Expect(field(decode(0x5400020B), "cond")).To(Equal(int64(0xB)))
				Expect(field(decode(0xD63F0140), "rn")).To(Equal(int64(10)))
			})

			DescribeTable("branch offsets",
				func(word int64, want int64) {
					offset, err := decode(word).Access("offset")
					Expect(err).NotTo(HaveOccurred())
					Expect(offset.Int64()).To(Equal(want))
				},
				Entry("B forward", int64(0x14000040), int64(0x100)),
				Entry("B backward", int64(0x17FFFFFE), int64(-8)),
				Entry("BL", int64(0x94000080), int64(0x200)),
				Entry("B.NE", int64(0x54000101), int64(0x20)),
				Entry("B.LT", int64(0x5400020B), int64(0x40)),
			)
		})
	}
})
