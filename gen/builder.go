package gen

import (
	"fmt"

	"github.com/sarchlab/vdt/bitvec"
	"github.com/sarchlab/vdt/entry"
	"github.com/sarchlab/vdt/tree"
)

// builder holds the per-call state of one generation.
type builder struct {
	s     settings
	width int
	nodes int
}

func newBuilder(s settings, width int) *builder {
	return &builder{s: s, width: width}
}

// count accounts for one node at depth and enforces the budgets.
func (b *builder) count(depth int, involved []*entry.DecodeEntry) error {
	b.nodes++
	if b.s.maxNodes > 0 && b.nodes > b.s.maxNodes {
		return entry.NewError(entry.ErrBudgetExceeded,
			fmt.Sprintf("tree exceeds %d nodes", b.s.maxNodes), involved...)
	}
	if b.s.maxDepth > 0 && depth > b.s.maxDepth {
		return entry.NewError(entry.ErrBudgetExceeded,
			fmt.Sprintf("tree exceeds depth %d", b.s.maxDepth), involved...)
	}
	return nil
}

// leaf emits a leaf for e. Fixed bits of pattern that the path to this
// point has not established are checked by a one-case multi-way node, so
// encodings outside the entry end in no decision.
func (b *builder) leaf(e *entry.DecodeEntry, pattern, known bitvec.Pattern, depth int) (tree.Node, error) {
	residual := pattern.Without(known)
	if residual.MatchesAll() {
		if err := b.count(depth, []*entry.DecodeEntry{e}); err != nil {
			return nil, err
		}
		return tree.NewLeaf(e), nil
	}

	if err := b.count(depth, []*entry.DecodeEntry{e}); err != nil {
		return nil, err
	}
	if err := b.count(depth+1, []*entry.DecodeEntry{e}); err != nil {
		return nil, err
	}
	return &tree.MultiDecision{Cases: []tree.Case{
		{Pattern: residual, Child: tree.NewLeaf(e)},
	}}, nil
}

// reject emits a node that matches nothing.
func (b *builder) reject(depth int) (tree.Node, error) {
	if err := b.count(depth, nil); err != nil {
		return nil, err
	}
	return tree.Reject(), nil
}

// checkPartition verifies a node before it is emitted: the case patterns
// are pairwise disjoint and every parent entry reaches some branch unless
// an exclusion removed it there.
func checkPartition(
	patterns []bitvec.Pattern,
	branches [][]*entry.DecodeEntry,
	parent []*entry.DecodeEntry,
	excluded []*entry.DecodeEntry,
) error {
	for i := range patterns {
		for j := i + 1; j < len(patterns); j++ {
			if patterns[i].Overlaps(patterns[j]) {
				involved := append(distinct(branches[i]), distinct(branches[j])...)
				return entry.NewError(entry.ErrAmbiguousEncoding,
					fmt.Sprintf("cases %s and %s overlap", patterns[i], patterns[j]),
					distinct(involved)...)
			}
		}
	}

	reached := make(map[*entry.DecodeEntry]bool)
	for _, branch := range branches {
		for _, e := range branch {
			reached[e] = true
		}
	}
	for _, e := range excluded {
		reached[e] = true
	}

	var lost []*entry.DecodeEntry
	for _, e := range distinct(parent) {
		if !reached[e] {
			lost = append(lost, e)
		}
	}
	if len(lost) > 0 {
		return entry.NewError(entry.ErrIncompleteCoverage,
			"entries reach no branch", lost...)
	}
	return nil
}

// distinct removes repeated entries, keeping the first occurrence.
func distinct(entries []*entry.DecodeEntry) []*entry.DecodeEntry {
	seen := make(map[*entry.DecodeEntry]bool, len(entries))
	out := make([]*entry.DecodeEntry, 0, len(entries))
	for _, e := range entries {
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}

// enumerate returns every assignment of positions inside an otherwise
// don't-care pattern of the given width, in ascending binary order with
// the first position most significant.
func enumerate(positions []int, width int) []bitvec.Pattern {
	base := bitvec.Empty(width)
	n := 1 << len(positions)
	patterns := make([]bitvec.Pattern, 0, n)
	for value := 0; value < n; value++ {
		p := base
		for i, pos := range positions {
			bit := bitvec.Zero
			if value&(1<<(len(positions)-1-i)) != 0 {
				bit = bitvec.One
			}
			p = p.Set(pos, bit)
		}
		patterns = append(patterns, p)
	}
	return patterns
}

// span returns the smallest contiguous slice covering the fixed bits of p.
func span(p bitvec.Pattern) (offset, length int) {
	first, last := p.FirstFixed(), p.LastFixed()
	if last < first {
		return 0, 0
	}
	return first, last - first + 1
}
