package entry

import (
	"github.com/sarchlab/vdt/bitvec"
)

// maxWitnessBits bounds the number of don't-care positions a witness search
// varies.
const maxWitnessBits = 16

// Owners returns the entries that own v after precedence is resolved: every
// entry claiming v, minus those for which a strictly more specific claimant
// exists.
func Owners(entries []*DecodeEntry, v bitvec.Vector) []*DecodeEntry {
	var claimants []*DecodeEntry
	for _, e := range entries {
		if e.Claims(v) {
			claimants = append(claimants, e)
		}
	}

	var owners []*DecodeEntry
	for _, c := range claimants {
		if !hasMoreSpecific(c, claimants) {
			owners = append(owners, c)
		}
	}
	return owners
}

func hasMoreSpecific(e *DecodeEntry, claimants []*DecodeEntry) bool {
	for _, d := range claimants {
		if d != e && Precedes(d, e) {
			return true
		}
	}
	return false
}

// Precedes reports whether a wins over b where both claim an encoding: a's
// pattern accepts a strict subset of what b's pattern accepts. Exclusions do
// not take part, and entries with equal patterns precede neither way.
func Precedes(a, b *DecodeEntry) bool {
	return strictlyMoreSpecific(a.Pattern, b.Pattern)
}

// strictlyMoreSpecific reports whether a accepts a strict subset of what b
// accepts, after padding both to a common width.
func strictlyMoreSpecific(a, b bitvec.Pattern) bool {
	w := max(a.Width(), b.Width())
	a, b = a.Pad(w), b.Pad(w)
	return a.SubsetOf(b) && !a.Equal(b)
}

// OwnedWitness searches for an encoding that e owns among entries. The
// search starts from e's canonical encoding and varies the don't-care
// positions of e that the exclusions and overlapping entries constrain.
func OwnedWitness(e *DecodeEntry, entries []*DecodeEntry) (bitvec.Vector, bool) {
	width := e.SpanWidth()
	for _, o := range entries {
		width = max(width, o.SpanWidth())
	}

	base := e.Pattern.Pad(width)
	positions := constrainedPositions(base, e, entries)

	canonical := base.Canonical()
	for n := 0; n < 1<<len(positions); n++ {
		candidate := base
		for i, pos := range positions {
			if n&(1<<i) != 0 {
				candidate = candidate.Set(pos, bitvec.One)
			}
		}

		v := candidate.Canonical()
		owners := Owners(entries, v)
		if len(owners) == 1 && owners[0] == e {
			return v, true
		}
	}

	return canonical, false
}

func constrainedPositions(base bitvec.Pattern, e *DecodeEntry, entries []*DecodeEntry) []int {
	constraining := make([]bitvec.Pattern, 0, len(entries))
	for _, x := range e.Exclusions {
		constraining = append(constraining, x.Matching)
		constraining = append(constraining, x.Unmatching...)
	}
	for _, o := range entries {
		if o == e || !o.Pattern.Overlaps(e.Pattern) {
			continue
		}
		constraining = append(constraining, o.Pattern)
		for _, x := range o.Exclusions {
			constraining = append(constraining, x.Matching)
			constraining = append(constraining, x.Unmatching...)
		}
	}

	var positions []int
	for i := 0; i < base.Width() && len(positions) < maxWitnessBits; i++ {
		if base.Get(i).IsFixed() {
			continue
		}
		for _, p := range constraining {
			if i < p.Width() && p.Get(i).IsFixed() {
				positions = append(positions, i)
				break
			}
		}
	}
	return positions
}
