package bitvec

import (
	"fmt"
	"strings"
)

// ByteOrder is the convention used to interpret a raw instruction word.
type ByteOrder uint8

// Byte orders.
const (
	BigEndian ByteOrder = iota
	LittleEndian
)

// String returns "big" or "little".
func (o ByteOrder) String() string {
	if o == LittleEndian {
		return "little"
	}
	return "big"
}

// ParseByteOrder accepts "big", "little", "be", "le" and the empty string
// (big endian).
func ParseByteOrder(s string) (ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "big", "be", "big-endian":
		return BigEndian, nil
	case "little", "le", "little-endian":
		return LittleEndian, nil
	}
	return BigEndian, fmt.Errorf("unknown byte order %q", s)
}

// AlignedWidth returns the width an encoding occupies under the byte order.
// Little-endian words are rounded up to whole bytes so they can be swapped.
func (o ByteOrder) AlignedWidth(width int) int {
	if o == LittleEndian && width%8 != 0 {
		return width + (8 - width%8)
	}
	return width
}

// swapBytes reverses the byte order of a byte-aligned bit sequence in place.
func swapBytes[T any](bits []T) {
	n := len(bits) / 8
	for i := 0; i < n/2; i++ {
		for j := 0; j < 8; j++ {
			l := i*8 + j
			r := (n-1-i)*8 + j
			bits[l], bits[r] = bits[r], bits[l]
		}
	}
}
