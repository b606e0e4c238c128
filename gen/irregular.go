package gen

import (
	"slices"
	"sort"

	"github.com/sarchlab/vdt/bitvec"
	"github.com/sarchlab/vdt/entry"
	"github.com/sarchlab/vdt/tree"
)

// IrregularGenerator builds trees for instruction sets whose encodings
// overlap. Entries fixing different values on bits all of them fix are
// separated by multi-way nodes; when no such bit exists, the entry set is
// split on the matching pattern of an exclusion condition, and failing
// that on a single bit some entry fixes. A more specific entry wins over a
// generic one it is nested in.
//
// The heuristic variant tests one contiguous run of significant bits per
// multi-way node, chosen to minimize the largest child, and splits on the
// exclusion pattern that balances both sides best.
type IrregularGenerator struct {
	s         settings
	heuristic bool
}

// NewIrregular creates an irregular generator.
func NewIrregular(opts ...Option) *IrregularGenerator {
	return &IrregularGenerator{s: newSettings(opts)}
}

// NewHeuristic creates the heuristic variant of the irregular generator.
func NewHeuristic(opts ...Option) *IrregularGenerator {
	return &IrregularGenerator{s: newSettings(opts), heuristic: true}
}

func (g *IrregularGenerator) name() string {
	if g.heuristic {
		return Heuristic
	}
	return Irregular
}

// Generate builds the tree.
func (g *IrregularGenerator) Generate(entries []*entry.DecodeEntry) (tree.Node, error) {
	if err := entry.Validate(entries); err != nil {
		return nil, err
	}

	width := entry.MaxWidth(entries)
	b := newBuilder(g.s, width)
	root, err := g.build(b, prepare(entries, width), bitvec.Empty(width), nil, 0)
	if err != nil {
		return nil, err
	}
	return finish(g.name(), g.s, root, entries)
}

// build decides items over the encodings that match known and none of the
// avoid patterns.
func (g *IrregularGenerator) build(
	b *builder,
	items []item,
	known bitvec.Pattern,
	avoid []bitvec.Pattern,
	depth int,
) (tree.Node, error) {
	switch {
	case len(items) == 0:
		return b.reject(depth)
	case singleEntry(items) && hasExclusions(items):
		return g.carve(b, items, known, avoid, depth)
	case singleEntry(items):
		return g.union(b, items, known, avoid, depth)
	}

	if positions := g.choosePositions(items, known); len(positions) > 0 {
		return g.multi(b, items, positions, known, avoid, depth)
	}
	return g.condition(b, items, known, avoid, depth)
}

// multi emits a multi-way node over every value of positions.
func (g *IrregularGenerator) multi(
	b *builder,
	items []item,
	positions []int,
	known bitvec.Pattern,
	avoid []bitvec.Pattern,
	depth int,
) (tree.Node, error) {
	var (
		patterns []bitvec.Pattern
		branches [][]item
		excluded []*entry.DecodeEntry
	)
	for _, p := range enumerate(positions, b.width) {
		matching, gone := matchingItems(items, p)
		excluded = append(excluded, gone...)
		if len(matching) == 0 {
			continue
		}
		patterns = append(patterns, p)
		branches = append(branches, matching)
	}

	branchEntries := make([][]*entry.DecodeEntry, len(branches))
	for i, br := range branches {
		branchEntries[i] = itemEntries(br)
	}
	parent := itemEntries(items)
	if err := checkPartition(patterns, branchEntries, parent, excluded); err != nil {
		return nil, err
	}
	if err := b.count(depth, parent); err != nil {
		return nil, err
	}
	b.s.logger.V(2).Info("multi-way split", "positions", positions, "cases", len(patterns))

	node := &tree.MultiDecision{Cases: make([]tree.Case, 0, len(patterns))}
	for i, p := range patterns {
		child, err := g.build(b, branches[i], known.Overlay(p), avoid, depth+1)
		if err != nil {
			return nil, err
		}
		node.Cases = append(node.Cases, tree.Case{Pattern: p, Child: child})
	}
	return node, nil
}

// condition separates items no significant bit tells apart. Exclusion
// patterns that leave entries on both sides go first, then single bits, then
// any exclusion pattern. Items left after that all own the same encodings.
func (g *IrregularGenerator) condition(
	b *builder,
	items []item,
	known bitvec.Pattern,
	avoid []bitvec.Pattern,
	depth int,
) (tree.Node, error) {
	if p, ok := g.selectPattern(items, true); ok {
		return g.split(b, items, p, known, avoid, depth)
	}
	if pos, ok := bestBit(itemCandidates(items), known); ok {
		return g.bisect(b, items, pos, known, avoid, depth)
	}
	if p, ok := g.selectPattern(items, false); ok {
		return g.split(b, items, p, known, avoid, depth)
	}

	if covered(known.Overlay(items[0].pattern), avoid) {
		return b.reject(depth)
	}
	return nil, entry.NewError(entry.ErrAmbiguousEncoding,
		"entries own the same encodings", distinct(itemEntries(items))...)
}

// carve resolves the remaining exclusions of a single entry. Regions it
// gives up and no other entry owns end in a reject node.
func (g *IrregularGenerator) carve(
	b *builder,
	items []item,
	known bitvec.Pattern,
	avoid []bitvec.Pattern,
	depth int,
) (tree.Node, error) {
	candidates := exclusionPatterns(items)
	if len(candidates) == 0 {
		return g.union(b, items, known, avoid, depth)
	}
	return g.split(b, items, candidates[0], known, avoid, depth)
}

func (g *IrregularGenerator) split(
	b *builder,
	items []item,
	p bitvec.Pattern,
	known bitvec.Pattern,
	avoid []bitvec.Pattern,
	depth int,
) (tree.Node, error) {
	matching, excluded := matchingItems(items, p)
	others := otherItems(items, p)

	parent := itemEntries(items)
	if err := checkPartition(nil,
		[][]*entry.DecodeEntry{itemEntries(matching), itemEntries(others)},
		parent, excluded); err != nil {
		return nil, err
	}
	if err := b.count(depth, parent); err != nil {
		return nil, err
	}

	offset, length := span(p)
	b.s.logger.V(2).Info("exclusion split", "pattern", p.String(),
		"matching", len(matching), "others", len(others))

	matchingChild, err := g.build(b, matching, known.Overlay(p), avoid, depth+1)
	if err != nil {
		return nil, err
	}
	otherChild, err := g.build(b, others, known, append(slices.Clip(avoid), p), depth+1)
	if err != nil {
		return nil, err
	}

	return &tree.SingleDecision{
		Offset:   offset,
		Length:   length,
		Pattern:  p.Sub(offset, length),
		Matching: matchingChild,
		Other:    otherChild,
	}, nil
}

// bisect splits items on the bit at pos. Items that do not fix it go to
// both sides.
func (g *IrregularGenerator) bisect(
	b *builder,
	items []item,
	pos int,
	known bitvec.Pattern,
	avoid []bitvec.Pattern,
	depth int,
) (tree.Node, error) {
	ones, goneOnes := matchingItems(items, bitvec.Empty(b.width).Set(pos, bitvec.One))
	zeros, goneZeros := matchingItems(items, bitvec.Empty(b.width).Set(pos, bitvec.Zero))

	parent := itemEntries(items)
	if err := checkPartition(nil,
		[][]*entry.DecodeEntry{itemEntries(ones), itemEntries(zeros)},
		parent, append(goneOnes, goneZeros...)); err != nil {
		return nil, err
	}
	if err := b.count(depth, distinct(parent)); err != nil {
		return nil, err
	}
	b.s.logger.V(2).Info("split on bit", "offset", pos, "ones", len(ones), "zeros", len(zeros))

	matching, err := g.build(b, ones, known.Set(pos, bitvec.One), avoid, depth+1)
	if err != nil {
		return nil, err
	}
	other, err := g.build(b, zeros, known.Set(pos, bitvec.Zero), avoid, depth+1)
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

// union emits the encodings of one entry spread over several items.
func (g *IrregularGenerator) union(
	b *builder,
	items []item,
	known bitvec.Pattern,
	avoid []bitvec.Pattern,
	depth int,
) (tree.Node, error) {
	items = dropSubsumed(items)
	if len(items) == 1 {
		return b.leaf(items[0].entry, items[0].pattern, known, depth)
	}

	for pos := 0; pos < known.Width(); pos++ {
		if known.Get(pos).IsFixed() {
			continue
		}
		for _, it := range items {
			if it.pattern.Get(pos).IsFixed() {
				return g.bisect(b, items, pos, known, avoid, depth)
			}
		}
	}
	return b.leaf(items[0].entry, items[0].pattern, known, depth)
}

// choosePositions picks the bits of the next multi-way node.
func (g *IrregularGenerator) choosePositions(items []item, known bitvec.Pattern) []int {
	significant := significantBits(items, known)
	if len(significant) == 0 {
		return nil
	}
	if !g.heuristic {
		return significant[:min(len(significant), g.s.maxFanoutBits)]
	}
	return bestWindow(items, significant, g.s.maxFanoutBits)
}

// bestWindow returns the contiguous run of significant bits, at most limit
// long, whose cases leave the fewest items in the largest child. Longer
// windows win ties, then lower offsets.
func bestWindow(items []item, significant []int, limit int) []int {
	var best []int
	bestLargest := 0

	for _, run := range runs(significant) {
		length := min(len(run), limit)
		for start := 0; start+length <= len(run); start++ {
			window := run[start : start+length]
			largest := largestChild(items, window)
			if best == nil || largest < bestLargest ||
				(largest == bestLargest && len(window) > len(best)) {
				best, bestLargest = window, largest
			}
		}
	}
	return best
}

// runs groups ascending positions into maximal contiguous runs.
func runs(positions []int) [][]int {
	var out [][]int
	start := 0
	for i := 1; i <= len(positions); i++ {
		if i == len(positions) || positions[i] != positions[i-1]+1 {
			out = append(out, positions[start:i])
			start = i
		}
	}
	return out
}

func largestChild(items []item, positions []int) int {
	counts := make(map[string]int)
	largest := 0
	for _, it := range items {
		key := make([]byte, len(positions))
		for i, pos := range positions {
			key[i] = it.pattern.Get(pos).String()[0]
		}
		counts[string(key)]++
		largest = max(largest, counts[string(key)])
	}
	return largest
}

// selectPattern chooses the exclusion pattern to split on. With balanced
// set, patterns that leave one side empty are skipped. The irregular
// strategy minimizes the total size of both sides, the heuristic one the
// larger side.
func (g *IrregularGenerator) selectPattern(items []item, balanced bool) (bitvec.Pattern, bool) {
	var (
		best      bitvec.Pattern
		bestScore int
		found     bool
	)
	for _, p := range exclusionPatterns(items) {
		matching, _ := matchingItems(items, p)
		others := otherItems(items, p)
		if balanced && (len(matching) == 0 || len(others) == 0) {
			continue
		}

		score := len(matching) + len(others)
		if g.heuristic {
			score = max(len(matching), len(others))
		}
		if !found || score < bestScore {
			best, bestScore, found = p, score, true
		}
	}
	return best, found
}

// exclusionPatterns returns the distinct matching patterns of the items'
// exclusions in a stable order.
func exclusionPatterns(items []item) []bitvec.Pattern {
	seen := make(map[string]bitvec.Pattern)
	for _, it := range items {
		for _, x := range it.exclusions {
			if !x.matching.MatchesAll() {
				seen[x.matching.String()] = x.matching
			}
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	patterns := make([]bitvec.Pattern, len(keys))
	for i, k := range keys {
		patterns[i] = seen[k]
	}
	return patterns
}

// dropSubsumed removes items nested in another item of the same entry.
func dropSubsumed(items []item) []item {
	var out []item
	for i, it := range items {
		nested := false
		for j, o := range items {
			if i == j || !contain(it.pattern, o.pattern) {
				continue
			}
			if !it.pattern.Equal(o.pattern) || j < i {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, it)
		}
	}
	return out
}

func itemCandidates(items []item) []candidate {
	candidates := make([]candidate, len(items))
	for i, it := range items {
		candidates[i] = candidate{entry: it.entry, pattern: it.pattern}
	}
	return candidates
}
