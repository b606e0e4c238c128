package isa

import (
	"fmt"
	"math/big"

	"github.com/sarchlab/vdt/bitvec"
	"github.com/sarchlab/vdt/entry"
)

type lowerSettings struct {
	synthesize bool
}

// LowerOption configures Entries.
type LowerOption func(*lowerSettings)

// WithSynthesizedExclusions lets an instruction without exclusions give up
// the encodings of instructions of the same format that fix a strict
// superset of its fields.
func WithSynthesizedExclusions(enabled bool) LowerOption {
	return func(s *lowerSettings) {
		s.synthesize = enabled
	}
}

// Entries lowers every instruction to a decode entry. Patterns are in
// memory order for the ISA's byte order.
func (s *ISA) Entries(opts ...LowerOption) ([]*entry.DecodeEntry, error) {
	var settings lowerSettings
	for _, opt := range opts {
		opt(&settings)
	}

	entries := make([]*entry.DecodeEntry, 0, len(s.Instructions))
	for _, insn := range s.Instructions {
		pattern, err := FixedPattern(insn.Format, insn.Encoding, s.Order)
		if err != nil {
			return nil, fmt.Errorf("failed to lower %s: %w", insn.name, err)
		}

		exclusions, err := s.exclusions(insn)
		if err != nil {
			return nil, fmt.Errorf("failed to lower %s: %w", insn.name, err)
		}
		if len(exclusions) == 0 && settings.synthesize {
			if exclusions, err = s.synthesize(insn); err != nil {
				return nil, fmt.Errorf("failed to lower %s: %w", insn.name, err)
			}
		}

		entries = append(entries, entry.New(insn, pattern, exclusions...))
	}
	return entries, nil
}

func (s *ISA) exclusions(insn *Instruction) ([]entry.ExclusionCondition, error) {
	var out []entry.ExclusionCondition
	for _, x := range insn.Exclusions {
		matching, err := FixedPattern(insn.Format, x.When, s.Order)
		if err != nil {
			return nil, err
		}
		var unmatching []bitvec.Pattern
		for _, u := range x.Unless {
			p, err := FixedPattern(insn.Format, u, s.Order)
			if err != nil {
				return nil, err
			}
			unmatching = append(unmatching, p)
		}
		out = append(out, entry.Exclude(matching, unmatching...))
	}
	return out, nil
}

func (s *ISA) synthesize(insn *Instruction) ([]entry.ExclusionCondition, error) {
	var out []entry.ExclusionCondition
	for _, other := range s.Instructions {
		if other == insn || other.Format != insn.Format || !strictSuperset(other.Encoding, insn.Encoding) {
			continue
		}

		rest := make(map[string]*big.Int)
		for name, v := range other.Encoding {
			if _, ok := insn.Encoding[name]; !ok {
				rest[name] = v
			}
		}
		p, err := FixedPattern(insn.Format, rest, s.Order)
		if err != nil {
			return nil, err
		}
		out = append(out, entry.Exclude(p))
	}
	return out, nil
}

func strictSuperset(super, sub map[string]*big.Int) bool {
	if len(super) <= len(sub) {
		return false
	}
	for name, v := range sub {
		w, ok := super[name]
		if !ok || w.Cmp(v) != 0 {
			return false
		}
	}
	return true
}

// FixedPattern returns the pattern of a format word whose given fields hold
// the given values and whose other bits are don't-care. For little-endian
// byte order the pattern is byte-swapped into memory order.
func FixedPattern(f *Format, values map[string]*big.Int, order bitvec.ByteOrder) (bitvec.Pattern, error) {
	mask := new(big.Int)
	word := new(big.Int)
	for _, name := range sortedKeys(values) {
		s, ok := f.fields[name]
		if !ok {
			return bitvec.Pattern{}, fmt.Errorf("unknown field %q of format %s", name, f.Name)
		}

		ones := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(s.Width())), big.NewInt(1))
		fieldMask := s.Deposit(new(big.Int), ones)
		fieldWord := s.Deposit(new(big.Int), values[name])

		shared := new(big.Int).And(mask, fieldMask)
		if new(big.Int).And(word, shared).Cmp(new(big.Int).And(fieldWord, shared)) != 0 {
			return bitvec.Pattern{}, fmt.Errorf("field %s contradicts the other fixed fields", name)
		}
		mask.Or(mask, fieldMask)
		word.Or(word, fieldWord)
	}

	m, err := bitvec.FromValue(mask, f.Width, order)
	if err != nil {
		return bitvec.Pattern{}, err
	}
	v, err := bitvec.FromValue(word, f.Width, order)
	if err != nil {
		return bitvec.Pattern{}, err
	}
	return bitvec.FromMaskValue(m, v), nil
}
