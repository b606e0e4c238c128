package isa

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/sarchlab/vdt/bitvec"
	"github.com/sarchlab/vdt/decoder"
)

// ErrInvalidDescription is returned for descriptions that do not compile.
var ErrInvalidDescription = errors.New("invalid ISA description")

// ISA is a compiled instruction set.
type ISA struct {
	Name         string
	Order        bitvec.ByteOrder
	Formats      []*Format
	Instructions []*Instruction
}

// Format is a compiled instruction format.
type Format struct {
	Name     string
	Width    int
	fields   map[string]bitvec.Slice
	accesses map[string]Access
}

// Field returns the bits of a named field.
func (f *Format) Field(name string) (bitvec.Slice, bool) {
	s, ok := f.fields[name]
	return s, ok
}

// FieldNames returns the field names in sorted order.
func (f *Format) FieldNames() []string {
	return sortedKeys(f.fields)
}

// AccessNames returns the access function names in sorted order.
func (f *Format) AccessNames() []string {
	return sortedKeys(f.accesses)
}

// Access is a compiled access function.
type Access struct {
	field  string
	shift  uint
	signed bool
}

// Field returns the name of the field the access reads.
func (a Access) Field() string {
	return a.field
}

// Apply computes the operand from a field value of the given width.
func (a Access) Apply(value *big.Int, width int) *big.Int {
	out := new(big.Int).Set(value)
	if a.signed && width > 0 && value.Bit(width-1) == 1 {
		out.Sub(out, new(big.Int).Lsh(big.NewInt(1), uint(width)))
	}
	return out.Lsh(out, a.shift)
}

// Instruction is a compiled instruction. It is the source of the decode
// entry it lowers to.
type Instruction struct {
	name       string
	Format     *Format
	Encoding   map[string]*big.Int
	Exclusions []Exclusion
}

// Exclusion is a compiled exclusion condition over format fields.
type Exclusion struct {
	When   map[string]*big.Int
	Unless []map[string]*big.Int
}

// Name returns the instruction name.
func (i *Instruction) Name() string {
	return i.name
}

// Field returns a field of the instruction's format.
func (i *Instruction) Field(name string) (bitvec.Slice, bool) {
	return i.Format.Field(name)
}

// Access returns an access function of the instruction's format.
func (i *Instruction) Access(name string) (decoder.FieldAccess, bool) {
	a, ok := i.Format.accesses[name]
	if !ok {
		return nil, false
	}
	return a, true
}

// Instruction returns the instruction with the given name.
func (s *ISA) Instruction(name string) (*Instruction, bool) {
	for _, i := range s.Instructions {
		if i.name == name {
			return i, true
		}
	}
	return nil, false
}

// Compile checks a description and resolves its names.
func Compile(desc *Description) (*ISA, error) {
	order, err := bitvec.ParseByteOrder(desc.ByteOrder)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDescription, err)
	}
	s := &ISA{Name: desc.Name, Order: order}

	formats := make(map[string]*Format, len(desc.Formats))
	for _, fd := range desc.Formats {
		if _, dup := formats[fd.Name]; dup {
			return nil, invalid("duplicate format %q", fd.Name)
		}
		f, err := compileFormat(fd, order)
		if err != nil {
			return nil, err
		}
		formats[fd.Name] = f
		s.Formats = append(s.Formats, f)
	}

	seen := make(map[string]bool, len(desc.Instructions))
	for _, id := range desc.Instructions {
		if seen[id.Name] {
			return nil, invalid("duplicate instruction %q", id.Name)
		}
		seen[id.Name] = true

		f, ok := formats[id.Format]
		if !ok {
			return nil, invalid("instruction %s: unknown format %q", id.Name, id.Format)
		}
		insn, err := compileInstruction(id, f)
		if err != nil {
			return nil, err
		}
		s.Instructions = append(s.Instructions, insn)
	}

	if len(s.Instructions) == 0 {
		return nil, invalid("no instructions")
	}
	return s, nil
}

func compileFormat(fd FormatDesc, order bitvec.ByteOrder) (*Format, error) {
	if fd.Width <= 0 {
		return nil, invalid("format %s: width must be positive", fd.Name)
	}
	if order == bitvec.LittleEndian && fd.Width > 8 && fd.Width%8 != 0 {
		return nil, invalid("format %s: little-endian width %d is not a whole number of bytes",
			fd.Name, fd.Width)
	}

	f := &Format{
		Name:     fd.Name,
		Width:    fd.Width,
		fields:   make(map[string]bitvec.Slice, len(fd.Fields)),
		accesses: make(map[string]Access, len(fd.Accesses)),
	}
	for _, field := range fd.Fields {
		if _, dup := f.fields[field.Name]; dup {
			return nil, invalid("format %s: duplicate field %q", fd.Name, field.Name)
		}
		s, err := bitvec.ParseSlice(field.Bits)
		if err != nil {
			return nil, invalid("format %s: field %s: %v", fd.Name, field.Name, err)
		}
		if s.MaxBit() >= fd.Width {
			return nil, invalid("format %s: field %s exceeds %d bits", fd.Name, field.Name, fd.Width)
		}
		f.fields[field.Name] = s
	}

	for _, a := range fd.Accesses {
		if _, ok := f.fields[a.Field]; !ok {
			return nil, invalid("format %s: access %s reads unknown field %q", fd.Name, a.Name, a.Field)
		}
		f.accesses[a.Name] = Access{field: a.Field, shift: a.Shift, signed: a.Signed}
	}
	return f, nil
}

func compileInstruction(id InstructionDesc, f *Format) (*Instruction, error) {
	insn := &Instruction{name: id.Name, Format: f}

	var err error
	if insn.Encoding, err = assignment(f, id.Encoding); err != nil {
		return nil, invalid("instruction %s: %v", id.Name, err)
	}

	for _, x := range id.Exclude {
		when, err := assignment(f, x.When)
		if err != nil {
			return nil, invalid("instruction %s: exclusion: %v", id.Name, err)
		}
		ex := Exclusion{When: when}
		for _, u := range x.Unless {
			unless, err := assignment(f, u)
			if err != nil {
				return nil, invalid("instruction %s: exclusion: %v", id.Name, err)
			}
			ex.Unless = append(ex.Unless, unless)
		}
		insn.Exclusions = append(insn.Exclusions, ex)
	}
	return insn, nil
}

// assignment resolves field values and checks that they fit.
func assignment(f *Format, values map[string]Constant) (map[string]*big.Int, error) {
	out := make(map[string]*big.Int, len(values))
	for _, name := range sortedKeys(values) {
		s, ok := f.fields[name]
		if !ok {
			return nil, fmt.Errorf("unknown field %q of format %s", name, f.Name)
		}
		c := values[name]
		if c.BitLen() > s.Width() {
			return nil, fmt.Errorf("value 0x%x does not fit %d-bit field %s", &c.Int, s.Width(), name)
		}
		out[name] = new(big.Int).Set(&c.Int)
	}
	return out, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidDescription, fmt.Sprintf(format, args...))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
