package gen

import (
	"fmt"

	"github.com/sarchlab/vdt/bitvec"
	"github.com/sarchlab/vdt/entry"
	"github.com/sarchlab/vdt/tree"
)

// TheilingGenerator partitions the entries on the bits all of them fix.
// When no such bit is left, the most specific entry without untested fixed
// bits becomes the default for the others, which are decided first; this
// is the most-specific-first behavior of QEMU's decodetree. Entries that
// share no untested bit at all are split on the bit most of them fix.
type TheilingGenerator struct {
	s settings
}

// NewTheiling creates a Theiling generator.
func NewTheiling(opts ...Option) *TheilingGenerator {
	return &TheilingGenerator{s: newSettings(opts)}
}

// Generate builds the tree.
func (g *TheilingGenerator) Generate(entries []*entry.DecodeEntry) (tree.Node, error) {
	if err := entry.Validate(entries); err != nil {
		return nil, err
	}

	width := 0
	for _, e := range entries {
		if len(e.Exclusions) > 0 {
			return nil, entry.NewError(entry.ErrUnsupportedInput,
				"theiling generator does not support exclusion conditions", e)
		}
		width = max(width, e.Width)
	}

	candidates := make([]candidate, len(entries))
	for i, e := range entries {
		candidates[i] = candidate{entry: e, pattern: e.Pattern.Pad(width)}
	}

	b := newBuilder(g.s, width)
	root, err := g.build(b, bitvec.Ones(width), candidates, nil, 0)
	if err != nil {
		return nil, err
	}
	return finish(Theiling, g.s, root, entries)
}

// build decides candidates on the untested bits in open. fallback decodes
// encodings none of the candidates match; nil means no decision.
func (g *TheilingGenerator) build(
	b *builder,
	open bitvec.Vector,
	candidates []candidate,
	fallback *entry.DecodeEntry,
	depth int,
) (tree.Node, error) {
	if len(candidates) == 0 {
		if fallback == nil {
			return b.reject(depth)
		}
		return g.leaf(b, fallback, depth)
	}

	mask := commonMask(open, candidates)
	if mask.IsZero() && len(candidates) == 1 {
		return g.leaf(b, candidates[0].entry, depth)
	}

	if mask.IsZero() {
		def, rest, err := defaultEntry(open, candidates)
		if err != nil {
			return nil, err
		}
		if def != nil {
			if len(rest) == 0 {
				return g.leaf(b, def, depth)
			}
			candidates, fallback = rest, def
			mask = commonMask(open, rest)
		}
	}

	var positions []int
	if mask.IsZero() {
		positions = []int{busiestBit(open, candidates)}
	} else {
		positions = maskPositions(mask, g.s.maxFanoutBits)
	}
	tested := bitvec.Zeros(open.Width())
	for _, pos := range positions {
		tested = tested.Or(maskAt(pos, open.Width()))
	}
	childOpen := open.And(tested.Not())

	var (
		patterns []bitvec.Pattern
		subsets  [][]candidate
	)
	for _, p := range enumerate(positions, b.width) {
		var subset []candidate
		for _, c := range candidates {
			if c.pattern.Overlaps(p) {
				subset = append(subset, c)
			}
		}
		if len(subset) == 0 && fallback == nil {
			continue
		}
		patterns = append(patterns, p)
		subsets = append(subsets, subset)
	}

	branchEntries := make([][]*entry.DecodeEntry, len(subsets))
	for i, s := range subsets {
		branchEntries[i] = candidateEntries(s)
		if fallback != nil {
			branchEntries[i] = append(branchEntries[i], fallback)
		}
	}
	parent := candidateEntries(candidates)
	if err := checkPartition(patterns, branchEntries, parent, nil); err != nil {
		return nil, err
	}
	if err := b.count(depth, parent); err != nil {
		return nil, err
	}
	b.s.logger.V(2).Info("partition", "positions", positions, "cases", len(patterns),
		"default", fallback != nil)

	node := &tree.MultiDecision{Cases: make([]tree.Case, 0, len(patterns))}
	for i, p := range patterns {
		child, err := g.build(b, childOpen, subsets[i], fallback, depth+1)
		if err != nil {
			return nil, err
		}
		node.Cases = append(node.Cases, tree.Case{Pattern: p, Child: child})
	}
	return node, nil
}

func (g *TheilingGenerator) leaf(b *builder, e *entry.DecodeEntry, depth int) (tree.Node, error) {
	if err := b.count(depth, []*entry.DecodeEntry{e}); err != nil {
		return nil, err
	}
	return tree.NewLeaf(e), nil
}

// commonMask returns the open bits every candidate fixes.
func commonMask(open bitvec.Vector, candidates []candidate) bitvec.Vector {
	mask := open
	for _, c := range candidates {
		mask = mask.And(c.pattern.Mask())
	}
	return mask
}

// defaultEntry picks, among the candidates whose fixed bits are all tested
// already, the one every other of them is nested in. The rest must be
// nested in the default as well. No default is returned when every
// candidate still has untested fixed bits.
func defaultEntry(open bitvec.Vector, candidates []candidate) (*entry.DecodeEntry, []candidate, error) {
	var defaults, rest []candidate
	for _, c := range candidates {
		if c.pattern.Mask().And(open).IsZero() {
			defaults = append(defaults, c)
		} else {
			rest = append(rest, c)
		}
	}
	if len(defaults) == 0 {
		return nil, candidates, nil
	}

	var def *entry.DecodeEntry
	for _, d := range defaults {
		if precedesAll(d, defaults) {
			def = d.entry
			break
		}
	}
	if def == nil {
		return nil, nil, entry.NewError(entry.ErrAmbiguousEncoding,
			fmt.Sprintf("%d entries compete for the default", len(defaults)),
			distinct(candidateEntries(defaults))...)
	}

	for _, c := range rest {
		if !entry.Precedes(c.entry, def) {
			return nil, nil, entry.NewError(entry.ErrAmbiguousEncoding,
				"entry overlaps the default without being nested in it", def, c.entry)
		}
	}
	return def, rest, nil
}

func precedesAll(c candidate, others []candidate) bool {
	for _, o := range others {
		if o.entry != c.entry && !entry.Precedes(c.entry, o.entry) {
			return false
		}
	}
	return true
}

// busiestBit returns the open position fixed by the most candidates, the
// lowest one on ties.
func busiestBit(open bitvec.Vector, candidates []candidate) int {
	best, bestCount := -1, 0
	for pos := 0; pos < open.Width(); pos++ {
		if !open.Get(pos) {
			continue
		}
		n := 0
		for _, c := range candidates {
			if c.pattern.Get(pos).IsFixed() {
				n++
			}
		}
		if n > bestCount {
			best, bestCount = pos, n
		}
	}
	return best
}

// maskPositions returns the first limit set positions of mask.
func maskPositions(mask bitvec.Vector, limit int) []int {
	var positions []int
	for i := 0; i < mask.Width() && len(positions) < limit; i++ {
		if mask.Get(i) {
			positions = append(positions, i)
		}
	}
	return positions
}

func maskAt(pos, width int) bitvec.Vector {
	bits := make([]bool, width)
	bits[pos] = true
	return bitvec.NewVector(bits)
}
