package bitvec

import (
	"fmt"
	"math/big"
	"strings"
)

// Vector is a concrete, fixed-width sequence of bits. The zero value is the
// empty vector. Vectors are immutable; every operation returns a new one.
type Vector struct {
	bits []bool
}

// NewVector creates a vector from explicit bit values.
func NewVector(bits []bool) Vector {
	b := make([]bool, len(bits))
	copy(b, bits)
	return Vector{bits: b}
}

// Ones returns a vector of the given width with every bit set.
func Ones(width int) Vector {
	b := make([]bool, width)
	for i := range b {
		b[i] = true
	}
	return Vector{bits: b}
}

// Zeros returns a vector of the given width with every bit cleared.
func Zeros(width int) Vector {
	return Vector{bits: make([]bool, width)}
}

// FromValue normalizes an integer encoding of the given bit width into a
// vector. For LittleEndian the width is rounded up to whole bytes and the
// bytes are reversed, so the result is the encoding as it lies in memory.
func FromValue(value *big.Int, width int, order ByteOrder) (Vector, error) {
	if width <= 0 {
		return Vector{}, fmt.Errorf("%w: width %d must be positive", ErrInvalidWidth, width)
	}
	if value.Sign() < 0 {
		return Vector{}, fmt.Errorf("%w: negative encoding %s", ErrInvalidWidth, value)
	}
	if value.BitLen() > width {
		return Vector{}, fmt.Errorf("%w: encoding 0x%x does not fit in %d bits",
			ErrInvalidWidth, value, width)
	}

	aligned := order.AlignedWidth(width)
	bits := make([]bool, aligned)
	for i := 0; i < width; i++ {
		bits[i] = value.Bit(width-1-i) == 1
	}

	if order == LittleEndian && aligned > 8 {
		swapBytes(bits)
	}
	return Vector{bits: bits}, nil
}

// ToValue reads an encoding of the given width from the start of a
// memory-order vector. It inverts FromValue.
func ToValue(v Vector, width int, order ByteOrder) (*big.Int, error) {
	aligned := order.AlignedWidth(width)
	if width <= 0 || aligned > len(v.bits) {
		return nil, fmt.Errorf("%w: cannot read %d bits from a %d-bit vector",
			ErrInvalidWidth, width, len(v.bits))
	}

	bits := append([]bool(nil), v.bits[:aligned]...)
	if order == LittleEndian && aligned > 8 {
		swapBytes(bits)
	}
	return Vector{bits: bits[:width]}.Value(), nil
}

// FromBytes creates a vector from bytes in memory order.
func FromBytes(data []byte) Vector {
	bits := make([]bool, len(data)*8)
	for i, b := range data {
		for j := 0; j < 8; j++ {
			bits[i*8+j] = b&(0x80>>j) != 0
		}
	}
	return Vector{bits: bits}
}

// ParseVector parses a string of '0' and '1'. Spaces and underscores are
// ignored so long encodings can be grouped.
func ParseVector(s string) (Vector, error) {
	bits := make([]bool, 0, len(s))
	for _, c := range s {
		switch c {
		case '0':
			bits = append(bits, false)
		case '1':
			bits = append(bits, true)
		case ' ', '_':
		default:
			return Vector{}, fmt.Errorf("invalid character %q in bit vector %q", c, s)
		}
	}
	return Vector{bits: bits}, nil
}

// MustParseVector is like ParseVector but panics on malformed input.
func MustParseVector(s string) Vector {
	v, err := ParseVector(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Width returns the number of bits.
func (v Vector) Width() int {
	return len(v.bits)
}

// Get returns the bit at position i.
func (v Vector) Get(i int) bool {
	return v.bits[i]
}

// Bit returns the bit at position i as a Bit.
func (v Vector) Bit(i int) Bit {
	return boolBit(v.bits[i])
}

// Truncate extracts length bits starting at offset. It panics when the range
// exceeds the vector; use RightPad first for short inputs.
func (v Vector) Truncate(offset, length int) Vector {
	if offset < 0 || length < 0 || offset+length > len(v.bits) {
		panic(fmt.Sprintf("bitvec: truncate [%d:%d] out of range for width %d",
			offset, offset+length, len(v.bits)))
	}
	bits := make([]bool, length)
	copy(bits, v.bits[offset:offset+length])
	return Vector{bits: bits}
}

// RightPad extends the vector to total bits by appending fill. A vector that
// is already long enough is returned unchanged.
func (v Vector) RightPad(total int, fill Bit) Vector {
	if total <= len(v.bits) {
		return v
	}
	bits := make([]bool, total)
	copy(bits, v.bits)
	for i := len(v.bits); i < total; i++ {
		bits[i] = fill == One
	}
	return Vector{bits: bits}
}

// LeftPad extends the vector to total bits by prepending fill.
func (v Vector) LeftPad(total int, fill Bit) Vector {
	if total <= len(v.bits) {
		return v
	}
	bits := make([]bool, total)
	pad := total - len(v.bits)
	for i := 0; i < pad; i++ {
		bits[i] = fill == One
	}
	copy(bits[pad:], v.bits)
	return Vector{bits: bits}
}

// Fit pads or truncates the vector to exactly width bits.
func (v Vector) Fit(width int) Vector {
	if len(v.bits) == width {
		return v
	}
	return v.RightPad(width, Zero).Truncate(0, width)
}

// Value returns the vector read as an unsigned big-endian integer.
func (v Vector) Value() *big.Int {
	value := new(big.Int)
	for i, b := range v.bits {
		if b {
			value.SetBit(value, len(v.bits)-1-i, 1)
		}
	}
	return value
}

// And returns the bitwise conjunction. Both vectors must have equal width.
func (v Vector) And(o Vector) Vector {
	bits := make([]bool, len(v.bits))
	for i := range bits {
		bits[i] = v.bits[i] && o.bits[i]
	}
	return Vector{bits: bits}
}

// Or returns the bitwise disjunction. Both vectors must have equal width.
func (v Vector) Or(o Vector) Vector {
	bits := make([]bool, len(v.bits))
	for i := range bits {
		bits[i] = v.bits[i] || o.bits[i]
	}
	return Vector{bits: bits}
}

// Not returns the bitwise complement.
func (v Vector) Not() Vector {
	bits := make([]bool, len(v.bits))
	for i := range bits {
		bits[i] = !v.bits[i]
	}
	return Vector{bits: bits}
}

// IsZero reports whether no bit is set.
func (v Vector) IsZero() bool {
	for _, b := range v.bits {
		if b {
			return false
		}
	}
	return true
}

// Count returns the number of set bits.
func (v Vector) Count() int {
	n := 0
	for _, b := range v.bits {
		if b {
			n++
		}
	}
	return n
}

// Equal reports whether both vectors have the same width and bits.
func (v Vector) Equal(o Vector) bool {
	if len(v.bits) != len(o.bits) {
		return false
	}
	for i := range v.bits {
		if v.bits[i] != o.bits[i] {
			return false
		}
	}
	return true
}

// String renders the vector as a string of '0' and '1'.
func (v Vector) String() string {
	var sb strings.Builder
	sb.Grow(len(v.bits))
	for _, b := range v.bits {
		if b {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
