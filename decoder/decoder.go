// Package decoder decodes instruction words with a generated decision tree.
package decoder

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/sarchlab/vdt/bitvec"
	"github.com/sarchlab/vdt/entry"
	"github.com/sarchlab/vdt/tree"
)

// ErrUnknownField is returned when an entry's source has no such field or
// access function.
var ErrUnknownField = errors.New("unknown field")

// FieldSource is implemented by entry sources that describe the fields of
// their format.
type FieldSource interface {
	Field(name string) (bitvec.Slice, bool)
}

// FieldAccess computes an operand value from a raw field, for example
// sign-extending and scaling a branch offset.
type FieldAccess interface {
	Field() string
	Apply(value *big.Int, width int) *big.Int
}

// AccessSource is implemented by entry sources that define access
// functions.
type AccessSource interface {
	Access(name string) (FieldAccess, bool)
}

// Decoder decides encodings with a tree. It holds no mutable state and can
// be shared between goroutines.
type Decoder struct {
	root  tree.Node
	width int
	unit  int
}

// New creates a decoder over a tree built by a generator.
func New(root tree.Node) *Decoder {
	unit := 0
	for _, l := range tree.Leaves(root) {
		n := byteLen(l.Entry.Width)
		if unit == 0 || n < unit {
			unit = n
		}
	}
	return &Decoder{root: root, width: tree.Width(root), unit: max(unit, 1)}
}

// Root returns the tree.
func (d *Decoder) Root() tree.Node {
	return d.root
}

// Width returns the number of bits the tree decides on.
func (d *Decoder) Width() int {
	return d.width
}

// Decide returns the entry v belongs to, or tree.ErrNoDecision.
func (d *Decoder) Decide(v bitvec.Vector) (*entry.DecodeEntry, error) {
	return tree.Decide(d.root, v)
}

// Decode decides a raw instruction word given as its natural integer value
// at the tree width.
func (d *Decoder) Decode(raw *big.Int, order bitvec.ByteOrder) (*DecodedInstruction, error) {
	v, err := bitvec.FromValue(raw, d.width, order)
	if err != nil {
		return nil, err
	}
	return d.decodeVector(v, order)
}

// DecodeBytes decides the instruction at the start of code, which is in
// memory order.
func (d *Decoder) DecodeBytes(code []byte, order bitvec.ByteOrder) (*DecodedInstruction, error) {
	window := code[:min(len(code), byteLen(order.AlignedWidth(d.width)))]
	if len(window) == 0 {
		return nil, fmt.Errorf("%w: no bytes to decode", bitvec.ErrInvalidWidth)
	}
	return d.decodeVector(bitvec.FromBytes(window), order)
}

func (d *Decoder) decodeVector(v bitvec.Vector, order bitvec.ByteOrder) (*DecodedInstruction, error) {
	e, err := d.Decide(v)
	if err != nil {
		return nil, err
	}

	raw, err := bitvec.ToValue(v, e.Width, order)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", e.Name(), err)
	}
	return &DecodedInstruction{Entry: e, Raw: raw, Width: e.Width, Order: order}, nil
}

// Unit is one position of a decoded byte stream.
type Unit struct {
	Offset      int
	Size        int
	Instruction *DecodedInstruction
	Err         error
}

// Stream decodes code instruction by instruction. Each decoded instruction
// advances by its own width, so variable-length encodings are followed.
// Undecodable positions are reported with Err set and skipped by the
// smallest instruction size of the tree.
func (d *Decoder) Stream(code []byte, order bitvec.ByteOrder) []Unit {
	var units []Unit
	for off := 0; off < len(code); {
		insn, err := d.DecodeBytes(code[off:], order)
		if err != nil {
			size := min(d.unit, len(code)-off)
			units = append(units, Unit{Offset: off, Size: size, Err: err})
			off += size
			continue
		}

		size := byteLen(insn.Width)
		units = append(units, Unit{Offset: off, Size: size, Instruction: insn})
		off += size
	}
	return units
}

func byteLen(bits int) int {
	return (bits + 7) / 8
}
