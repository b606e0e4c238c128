package gen

import (
	"github.com/sarchlab/vdt/bitvec"
	"github.com/sarchlab/vdt/entry"
	"github.com/sarchlab/vdt/tree"
)

// RegularGenerator builds a binary cascade of single-bit tests. It accepts
// entry sets whose patterns are pairwise disjoint or nested; a nested,
// more specific entry wins over the generic one.
type RegularGenerator struct {
	s settings
}

// NewRegular creates a regular generator.
func NewRegular(opts ...Option) *RegularGenerator {
	return &RegularGenerator{s: newSettings(opts)}
}

type candidate struct {
	entry   *entry.DecodeEntry
	pattern bitvec.Pattern
}

// Generate builds the tree.
func (g *RegularGenerator) Generate(entries []*entry.DecodeEntry) (tree.Node, error) {
	if err := entry.Validate(entries); err != nil {
		return nil, err
	}

	width := 0
	for _, e := range entries {
		if len(e.Exclusions) > 0 {
			return nil, entry.NewError(entry.ErrUnsupportedInput,
				"regular generator does not support exclusion conditions", e)
		}
		width = max(width, e.Width)
	}

	candidates := make([]candidate, len(entries))
	for i, e := range entries {
		candidates[i] = candidate{entry: e, pattern: e.Pattern.Pad(width)}
	}

	b := newBuilder(g.s, width)
	root, err := g.build(b, candidates, bitvec.Empty(width), 0)
	if err != nil {
		return nil, err
	}
	return finish(Regular, g.s, root, entries)
}

func (g *RegularGenerator) build(
	b *builder,
	candidates []candidate,
	known bitvec.Pattern,
	depth int,
) (tree.Node, error) {
	if len(candidates) == 1 {
		return b.leaf(candidates[0].entry, candidates[0].pattern, known, depth)
	}

	pos, ok := bestBit(candidates, known)
	if !ok {
		return g.mostSpecific(b, candidates, known, depth)
	}

	var ones, zeros []candidate
	for _, c := range candidates {
		switch c.pattern.Get(pos) {
		case bitvec.One:
			ones = append(ones, c)
		case bitvec.Zero:
			zeros = append(zeros, c)
		default:
			ones = append(ones, c)
			zeros = append(zeros, c)
		}
	}

	parent := candidateEntries(candidates)
	if err := checkPartition(nil,
		[][]*entry.DecodeEntry{candidateEntries(ones), candidateEntries(zeros)},
		parent, nil); err != nil {
		return nil, err
	}
	if err := b.count(depth, parent); err != nil {
		return nil, err
	}
	b.s.logger.V(2).Info("split on bit", "offset", pos, "ones", len(ones), "zeros", len(zeros))

	matching, err := g.build(b, ones, known.Set(pos, bitvec.One), depth+1)
	if err != nil {
		return nil, err
	}
	other, err := g.build(b, zeros, known.Set(pos, bitvec.Zero), depth+1)
	if err != nil {
		return nil, err
	}

	return &tree.SingleDecision{
		Offset:   pos,
		Length:   1,
		Pattern:  bitvec.MustParsePattern("1"),
		Matching: matching,
		Other:    other,
	}, nil
}

// bestBit picks the unchecked position that splits the candidates most
// evenly. Don't-care candidates count on both sides. Ties go to the
// position with fewer don't-care candidates, then to the lower position.
func bestBit(candidates []candidate, known bitvec.Pattern) (int, bool) {
	best, bestScore, bestDC := -1, 0, 0
	for pos := 0; pos < known.Width(); pos++ {
		if known.Get(pos).IsFixed() {
			continue
		}

		n0, n1, nd := 0, 0, 0
		for _, c := range candidates {
			switch c.pattern.Get(pos) {
			case bitvec.Zero:
				n0++
			case bitvec.One:
				n1++
			default:
				nd++
			}
		}

		if n0+n1 == 0 || (nd == 0 && (n0 == 0 || n1 == 0)) {
			continue
		}

		score := max(n0, n1) + nd
		if best < 0 || score < bestScore || (score == bestScore && nd < bestDC) {
			best, bestScore, bestDC = pos, score, nd
		}
	}
	return best, best >= 0
}

// mostSpecific resolves candidates no bit separates: one of them must be
// strictly contained in all others.
func (g *RegularGenerator) mostSpecific(
	b *builder,
	candidates []candidate,
	known bitvec.Pattern,
	depth int,
) (tree.Node, error) {
	for _, c := range candidates {
		if containedInAll(c, candidates) {
			return b.leaf(c.entry, c.pattern, known, depth)
		}
	}
	return nil, entry.NewError(entry.ErrAmbiguousEncoding,
		"no bit discriminates the remaining entries", distinct(candidateEntries(candidates))...)
}

func containedInAll(c candidate, candidates []candidate) bool {
	for _, o := range candidates {
		if o.entry == c.entry {
			continue
		}
		if !c.pattern.SubsetOf(o.pattern) || c.pattern.Equal(o.pattern) {
			return false
		}
	}
	return true
}

func candidateEntries(candidates []candidate) []*entry.DecodeEntry {
	entries := make([]*entry.DecodeEntry, len(candidates))
	for i, c := range candidates {
		entries[i] = c.entry
	}
	return entries
}
