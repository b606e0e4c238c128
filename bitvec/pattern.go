package bitvec

import (
	"fmt"
	"strings"
)

// Pattern is a fixed-width sequence of ternary bits describing a family of
// encodings. Patterns are immutable.
type Pattern struct {
	bits []Bit
}

// NewPattern creates a pattern from explicit bits.
func NewPattern(bits []Bit) Pattern {
	b := make([]Bit, len(bits))
	copy(b, bits)
	return Pattern{bits: b}
}

// Empty returns a pattern of the given width with every bit don't-care.
func Empty(width int) Pattern {
	bits := make([]Bit, width)
	for i := range bits {
		bits[i] = DontCare
	}
	return Pattern{bits: bits}
}

// FromMaskValue builds a pattern that fixes the bits set in mask to the
// corresponding bits of value.
func FromMaskValue(mask, value Vector) Pattern {
	bits := make([]Bit, mask.Width())
	for i := range bits {
		if mask.Get(i) {
			bits[i] = value.Bit(i)
		} else {
			bits[i] = DontCare
		}
	}
	return Pattern{bits: bits}
}

// ParsePattern parses a pattern string. '0' and '1' are fixed bits, '-',
// 'x', '.', '?' and '*' are don't-care, spaces and underscores are ignored.
func ParsePattern(s string) (Pattern, error) {
	bits := make([]Bit, 0, len(s))
	for _, c := range s {
		switch c {
		case '0':
			bits = append(bits, Zero)
		case '1':
			bits = append(bits, One)
		case ' ', '_':
		case '-', 'x', 'X', '.', '?', '*':
			bits = append(bits, DontCare)
		default:
			return Pattern{}, fmt.Errorf("invalid character %q in bit pattern %q", c, s)
		}
	}
	return Pattern{bits: bits}, nil
}

// MustParsePattern is like ParsePattern but panics on malformed input.
func MustParsePattern(s string) Pattern {
	p, err := ParsePattern(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Width returns the number of bits.
func (p Pattern) Width() int {
	return len(p.bits)
}

// Get returns the bit at position i.
func (p Pattern) Get(i int) Bit {
	return p.bits[i]
}

// Set returns a copy of the pattern with position i set to b.
func (p Pattern) Set(i int, b Bit) Pattern {
	bits := make([]Bit, len(p.bits))
	copy(bits, p.bits)
	bits[i] = b
	return Pattern{bits: bits}
}

// Test reports whether v is a member of the pattern: the widths match and
// every fixed position equals the vector's bit.
func (p Pattern) Test(v Vector) bool {
	if v.Width() != len(p.bits) {
		return false
	}
	for i, b := range p.bits {
		switch b {
		case Zero:
			if v.bits[i] {
				return false
			}
		case One:
			if !v.bits[i] {
				return false
			}
		}
	}
	return true
}

// Mask returns a vector with a set bit for every fixed position.
func (p Pattern) Mask() Vector {
	bits := make([]bool, len(p.bits))
	for i, b := range p.bits {
		bits[i] = b.IsFixed()
	}
	return Vector{bits: bits}
}

// Canonical returns the pattern's encoding with don't-care bits zeroed.
func (p Pattern) Canonical() Vector {
	bits := make([]bool, len(p.bits))
	for i, b := range p.bits {
		bits[i] = b == One
	}
	return Vector{bits: bits}
}

// MatchesAll reports whether every position is don't-care.
func (p Pattern) MatchesAll() bool {
	for _, b := range p.bits {
		if b.IsFixed() {
			return false
		}
	}
	return true
}

// Fixed returns the number of fixed positions.
func (p Pattern) Fixed() int {
	n := 0
	for _, b := range p.bits {
		if b.IsFixed() {
			n++
		}
	}
	return n
}

// Overlaps reports whether some vector is a member of both patterns. Patterns
// of different widths are compared on their common prefix.
func (p Pattern) Overlaps(o Pattern) bool {
	n := min(len(p.bits), len(o.bits))
	for i := 0; i < n; i++ {
		a, b := p.bits[i], o.bits[i]
		if a.IsFixed() && b.IsFixed() && a != b {
			return false
		}
	}
	return true
}

// SubsetOf reports whether every member of p is also a member of o, that is,
// every position fixed in o is fixed to the same value in p.
func (p Pattern) SubsetOf(o Pattern) bool {
	n := min(len(p.bits), len(o.bits))
	for i := 0; i < n; i++ {
		if o.bits[i].IsFixed() && p.bits[i] != o.bits[i] {
			return false
		}
	}
	return true
}

// Without returns p with every position that is fixed in o cleared to
// don't-care.
func (p Pattern) Without(o Pattern) Pattern {
	bits := make([]Bit, len(p.bits))
	for i, b := range p.bits {
		if i < len(o.bits) && o.bits[i].IsFixed() {
			bits[i] = DontCare
		} else {
			bits[i] = b
		}
	}
	return Pattern{bits: bits}
}

// Overlay returns p with every position fixed in o replaced by o's bit.
func (p Pattern) Overlay(o Pattern) Pattern {
	bits := make([]Bit, len(p.bits))
	for i, b := range p.bits {
		if i < len(o.bits) && o.bits[i].IsFixed() {
			bits[i] = o.bits[i]
		} else {
			bits[i] = b
		}
	}
	return Pattern{bits: bits}
}

// Combine returns the conjunction of two patterns of equal width. It fails
// when a position is fixed to different values.
func (p Pattern) Combine(o Pattern) (Pattern, error) {
	if len(p.bits) != len(o.bits) {
		return Pattern{}, fmt.Errorf("%w: cannot combine patterns of width %d and %d",
			ErrInvalidWidth, len(p.bits), len(o.bits))
	}
	bits := make([]Bit, len(p.bits))
	for i := range bits {
		a, b := p.bits[i], o.bits[i]
		switch {
		case !a.IsFixed():
			bits[i] = b
		case !b.IsFixed() || a == b:
			bits[i] = a
		default:
			return Pattern{}, fmt.Errorf("patterns %s and %s contradict at bit %d", p, o, i)
		}
	}
	return Pattern{bits: bits}, nil
}

// Sub returns length bits starting at offset.
func (p Pattern) Sub(offset, length int) Pattern {
	bits := make([]Bit, length)
	copy(bits, p.bits[offset:offset+length])
	return Pattern{bits: bits}
}

// Pad extends the pattern to width by appending don't-care bits.
func (p Pattern) Pad(width int) Pattern {
	if width <= len(p.bits) {
		return p
	}
	bits := make([]Bit, width)
	copy(bits, p.bits)
	for i := len(p.bits); i < width; i++ {
		bits[i] = DontCare
	}
	return Pattern{bits: bits}
}

// Widen places p at offset inside a don't-care pattern of the given width.
func (p Pattern) Widen(offset, width int) Pattern {
	bits := make([]Bit, width)
	for i := range bits {
		bits[i] = DontCare
	}
	copy(bits[offset:], p.bits)
	return Pattern{bits: bits}
}

// FirstFixed returns the index of the first fixed position, or Width() if
// there is none.
func (p Pattern) FirstFixed() int {
	for i, b := range p.bits {
		if b.IsFixed() {
			return i
		}
	}
	return len(p.bits)
}

// LastFixed returns the index of the last fixed position, or -1 if there is
// none.
func (p Pattern) LastFixed() int {
	for i := len(p.bits) - 1; i >= 0; i-- {
		if p.bits[i].IsFixed() {
			return i
		}
	}
	return -1
}

// SwapBytes returns the pattern with its byte order reversed. The width must
// be a multiple of eight.
func (p Pattern) SwapBytes() Pattern {
	bits := make([]Bit, len(p.bits))
	copy(bits, p.bits)
	swapBytes(bits)
	return Pattern{bits: bits}
}

// Equal reports whether both patterns have the same width and bits.
func (p Pattern) Equal(o Pattern) bool {
	if len(p.bits) != len(o.bits) {
		return false
	}
	for i := range p.bits {
		if p.bits[i] != o.bits[i] {
			return false
		}
	}
	return true
}

// String renders the pattern with '-' for don't-care bits.
func (p Pattern) String() string {
	var sb strings.Builder
	sb.Grow(len(p.bits))
	for _, b := range p.bits {
		sb.WriteString(b.String())
	}
	return sb.String()
}
