// Package entry defines the decode contract of an instruction: a fixed bit
// pattern plus exclusion conditions that carve out encodings owned by more
// specific instructions.
package entry

import (
	"github.com/sarchlab/vdt/bitvec"
)

// Source identifies the instruction definition an entry was lowered from.
type Source interface {
	Name() string
}

// Label is a Source that is only a name.
type Label string

// Name returns the label.
func (l Label) Name() string {
	return string(l)
}

// ExclusionCondition narrows the encodings an entry owns. The entry gives up
// every encoding that Matching accepts, unless one of the Unmatching patterns
// accepts it as well.
type ExclusionCondition struct {
	Matching   bitvec.Pattern
	Unmatching []bitvec.Pattern
}

// Exclude builds an exclusion condition.
func Exclude(matching bitvec.Pattern, unmatching ...bitvec.Pattern) ExclusionCondition {
	return ExclusionCondition{Matching: matching, Unmatching: unmatching}
}

// Width returns the width of the matching pattern.
func (x ExclusionCondition) Width() int {
	return x.Matching.Width()
}

// Excludes reports whether the condition removes v from its entry. Vectors
// shorter than the condition are zero-extended, longer ones are cut.
func (x ExclusionCondition) Excludes(v bitvec.Vector) bool {
	if !x.Matching.Test(v.Fit(x.Matching.Width())) {
		return false
	}
	for _, u := range x.Unmatching {
		if u.Test(v.Fit(u.Width())) {
			return false
		}
	}
	return true
}

// DecodeEntry is the full decode contract of one instruction.
type DecodeEntry struct {
	Source     Source
	Width      int
	Pattern    bitvec.Pattern
	Exclusions []ExclusionCondition
}

// New creates an entry whose width is the width of its pattern.
func New(source Source, pattern bitvec.Pattern, exclusions ...ExclusionCondition) *DecodeEntry {
	return &DecodeEntry{
		Source:     source,
		Width:      pattern.Width(),
		Pattern:    pattern,
		Exclusions: exclusions,
	}
}

// Name returns the name of the entry's source.
func (e *DecodeEntry) Name() string {
	if e.Source == nil {
		return "<anonymous>"
	}
	return e.Source.Name()
}

// String returns the name and the pattern.
func (e *DecodeEntry) String() string {
	return e.Name() + "(" + e.Pattern.String() + ")"
}

// SpanWidth returns the number of bits the entry inspects, which can exceed
// Width when an exclusion looks at bits of the following instruction.
func (e *DecodeEntry) SpanWidth() int {
	w := e.Width
	for _, x := range e.Exclusions {
		w = max(w, x.Matching.Width())
		for _, u := range x.Unmatching {
			w = max(w, u.Width())
		}
	}
	return w
}

// Claims reports whether the entry owns v: its pattern accepts v and no
// exclusion removes it. v is read as an encoding window starting at the
// instruction.
func (e *DecodeEntry) Claims(v bitvec.Vector) bool {
	if !e.Pattern.Test(v.Fit(e.Width)) {
		return false
	}
	for _, x := range e.Exclusions {
		if x.Excludes(v) {
			return false
		}
	}
	return true
}

// Witness returns an encoding the entry claims on its own. The canonical
// encoding is preferred. The second result is false when no claimed
// encoding exists within the searched positions.
func (e *DecodeEntry) Witness() (bitvec.Vector, bool) {
	return OwnedWitness(e, []*DecodeEntry{e})
}
