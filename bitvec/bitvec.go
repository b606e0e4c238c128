// Package bitvec provides the bit-level primitives of decode-tree synthesis:
// ternary bits, concrete bit vectors, and bit patterns with don't-care
// positions.
//
// Bits are indexed from the start of the encoding: index 0 is the most
// significant bit of a big-endian word, or the most significant bit of the
// first byte in memory for a little-endian one. Byte order is resolved once,
// by FromValue; everything else works on the normalized sequence.
//
// Usage:
//
//	p := bitvec.MustParsePattern("10----01")
//	v, _ := bitvec.FromValue(big.NewInt(0x81), 8, bitvec.BigEndian)
//	fmt.Println(p.Test(v)) // true
package bitvec

import "errors"

// Bit is a ternary bit value.
type Bit uint8

// Bit values.
const (
	Zero Bit = iota
	One
	DontCare
)

// ErrInvalidWidth is returned when an encoding does not fit the width an
// operation requires.
var ErrInvalidWidth = errors.New("invalid width")

// String returns "0", "1" or "-".
func (b Bit) String() string {
	switch b {
	case Zero:
		return "0"
	case One:
		return "1"
	default:
		return "-"
	}
}

// IsFixed reports whether the bit is a concrete 0 or 1.
func (b Bit) IsFixed() bool {
	return b == Zero || b == One
}

func boolBit(set bool) Bit {
	if set {
		return One
	}
	return Zero
}
