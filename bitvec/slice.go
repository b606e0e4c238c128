package bitvec

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Part is an inclusive bit range of a natural instruction word, numbered
// from the least significant bit.
type Part struct {
	MSB int
	LSB int
}

// Width returns the number of bits in the part.
func (p Part) Width() int {
	return p.MSB - p.LSB + 1
}

func (p Part) String() string {
	if p.MSB == p.LSB {
		return strconv.Itoa(p.MSB)
	}
	return fmt.Sprintf("%d..%d", p.MSB, p.LSB)
}

// Slice is an ordered list of parts forming one field value. The first part
// supplies the most significant bits of the field.
type Slice struct {
	Parts []Part
}

// ParseSlice parses a comma-separated list of parts such as "31,7,30..25".
func ParseSlice(s string) (Slice, error) {
	var parts []Part
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		msbText, lsbText, isRange := strings.Cut(item, "..")
		if !isRange {
			lsbText = msbText
		}

		msb, err := strconv.Atoi(strings.TrimSpace(msbText))
		if err != nil {
			return Slice{}, fmt.Errorf("invalid bit slice %q: %w", s, err)
		}
		lsb, err := strconv.Atoi(strings.TrimSpace(lsbText))
		if err != nil {
			return Slice{}, fmt.Errorf("invalid bit slice %q: %w", s, err)
		}
		if lsb < 0 || msb < lsb {
			return Slice{}, fmt.Errorf("invalid bit slice %q: range %d..%d", s, msb, lsb)
		}

		parts = append(parts, Part{MSB: msb, LSB: lsb})
	}

	if len(parts) == 0 {
		return Slice{}, fmt.Errorf("invalid bit slice %q: no parts", s)
	}
	return Slice{Parts: parts}, nil
}

// MustParseSlice is like ParseSlice but panics on malformed input.
func MustParseSlice(s string) Slice {
	sl, err := ParseSlice(s)
	if err != nil {
		panic(err)
	}
	return sl
}

// Width returns the total number of bits of the field.
func (s Slice) Width() int {
	w := 0
	for _, p := range s.Parts {
		w += p.Width()
	}
	return w
}

// MaxBit returns the highest word bit the slice reads.
func (s Slice) MaxBit() int {
	m := -1
	for _, p := range s.Parts {
		m = max(m, p.MSB)
	}
	return m
}

// Extract reads the field out of a natural (not byte-swapped) word.
func (s Slice) Extract(word *big.Int) *big.Int {
	value := new(big.Int)
	for _, p := range s.Parts {
		for i := p.MSB; i >= p.LSB; i-- {
			value.Lsh(value, 1)
			if word.Bit(i) == 1 {
				value.SetBit(value, 0, 1)
			}
		}
	}
	return value
}

// Deposit returns word with the field set to value. Bits of value above the
// field width are ignored.
func (s Slice) Deposit(word, value *big.Int) *big.Int {
	out := new(big.Int).Set(word)
	pos := s.Width() - 1
	for _, p := range s.Parts {
		for i := p.MSB; i >= p.LSB; i-- {
			out.SetBit(out, i, value.Bit(pos))
			pos--
		}
	}
	return out
}

func (s Slice) String() string {
	texts := make([]string, len(s.Parts))
	for i, p := range s.Parts {
		texts[i] = p.String()
	}
	return strings.Join(texts, ",")
}
