package decoder

import (
	"fmt"
	"math/big"

	"github.com/sarchlab/vdt/bitvec"
	"github.com/sarchlab/vdt/entry"
)

// DecodedInstruction is a decoded entry together with the word it was
// decoded from. Raw is the natural value of the instruction, independent of
// the byte order it was stored in; fields are read from it.
type DecodedInstruction struct {
	Entry *entry.DecodeEntry
	Raw   *big.Int
	Width int
	Order bitvec.ByteOrder
}

// Name returns the entry name.
func (d *DecodedInstruction) Name() string {
	return d.Entry.Name()
}

// FieldSlice extracts the bits of s from the raw word.
func (d *DecodedInstruction) FieldSlice(s bitvec.Slice) (*big.Int, error) {
	if s.MaxBit() >= d.Width {
		return nil, fmt.Errorf("%w: field %s lies outside %d-bit %s",
			bitvec.ErrInvalidWidth, s, d.Width, d.Name())
	}
	return s.Extract(d.Raw), nil
}

// Field extracts a named field of the entry's format.
func (d *DecodedInstruction) Field(name string) (*big.Int, error) {
	s, err := d.slice(name)
	if err != nil {
		return nil, err
	}
	return d.FieldSlice(s)
}

// Access evaluates a named access function on its field.
func (d *DecodedInstruction) Access(name string) (*big.Int, error) {
	src, ok := d.Entry.Source.(AccessSource)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no access %q", ErrUnknownField, d.Name(), name)
	}
	a, ok := src.Access(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no access %q", ErrUnknownField, d.Name(), name)
	}

	s, err := d.slice(a.Field())
	if err != nil {
		return nil, err
	}
	value, err := d.FieldSlice(s)
	if err != nil {
		return nil, err
	}
	return a.Apply(value, s.Width()), nil
}

func (d *DecodedInstruction) slice(name string) (bitvec.Slice, error) {
	src, ok := d.Entry.Source.(FieldSource)
	if !ok {
		return bitvec.Slice{}, fmt.Errorf("%w: %s has no field %q", ErrUnknownField, d.Name(), name)
	}
	s, ok := src.Field(name)
	if !ok {
		return bitvec.Slice{}, fmt.Errorf("%w: %s has no field %q", ErrUnknownField, d.Name(), name)
	}
	return s, nil
}

// String renders the name and the raw word in hex.
func (d *DecodedInstruction) String() string {
	return fmt.Sprintf("%s 0x%0*x", d.Name(), byteLen(d.Width)*2, d.Raw)
}
