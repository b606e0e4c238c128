package gen

import (
	"slices"

	"github.com/sarchlab/vdt/bitvec"
	"github.com/sarchlab/vdt/entry"
)

type exclusion struct {
	matching   bitvec.Pattern
	unmatching []bitvec.Pattern
}

// item is an entry as seen at one point of the construction. Splitting on
// an exclusion can turn one entry into several items.
type item struct {
	entry      *entry.DecodeEntry
	pattern    bitvec.Pattern
	exclusions []exclusion
}

// prepare pads every pattern to width and turns precedence into
// exclusions: an entry gives up what every entry it is less specific than
// claims. Each item then stands for exactly the encodings its entry owns,
// and items of different entries overlap only where ownership is shared.
func prepare(entries []*entry.DecodeEntry, width int) []item {
	var items []item
	for _, e := range entries {
		it := item{entry: e, pattern: e.Pattern.Pad(width)}
		for _, x := range e.Exclusions {
			it.exclusions = append(it.exclusions, padded(x, width))
		}
		for _, o := range entries {
			if o != e && entry.Precedes(o, e) {
				it.exclusions = append(it.exclusions, cessions(o, width)...)
			}
		}

		owned, _ := matchingItems([]item{it}, it.pattern)
		items = append(items, owned...)
	}
	return items
}

func padded(x entry.ExclusionCondition, width int) exclusion {
	ex := exclusion{matching: x.Matching.Pad(width)}
	for _, u := range x.Unmatching {
		ex.unmatching = append(ex.unmatching, u.Pad(width))
	}
	return ex
}

// cessions returns exclusions covering the encodings o claims. o claims v
// when its pattern accepts v and each of its exclusions either misses v or
// is overruled by an unmatching pattern; every combination of those choices
// becomes one exclusion.
func cessions(o *entry.DecodeEntry, width int) []exclusion {
	terms := []exclusion{{matching: o.Pattern.Pad(width)}}
	for _, x := range o.Exclusions {
		x := padded(x, width)

		var next []exclusion
		for _, t := range terms {
			next = append(next, exclusion{
				matching:   t.matching,
				unmatching: append(slices.Clip(t.unmatching), x.matching),
			})
			for _, u := range x.unmatching {
				m, err := t.matching.Combine(u)
				if err != nil {
					continue
				}
				next = append(next, exclusion{matching: m, unmatching: slices.Clip(t.unmatching)})
			}
		}
		terms = next
	}
	return terms
}

// expand replaces an item whose exclusion matches everything by one item
// per unmatching pattern; only those encodings remain owned.
func expand(it item) []item {
	var valid []exclusion
	var keep []bitvec.Pattern
	all := false
	for _, x := range it.exclusions {
		if x.matching.MatchesAll() {
			all = true
			keep = append(keep, x.unmatching...)
			continue
		}
		valid = append(valid, x)
	}
	if !all {
		return []item{it}
	}

	var items []item
	for _, u := range keep {
		p, err := it.pattern.Combine(u)
		if err != nil {
			continue
		}
		items = append(items, item{entry: it.entry, pattern: p, exclusions: valid})
	}
	return items
}

// overlap reports whether some encoding matches both patterns.
func overlap(a, b bitvec.Pattern) bool {
	return a.Overlaps(b)
}

// contain reports whether every encoding of a also matches b.
func contain(a, b bitvec.Pattern) bool {
	return a.SubsetOf(b)
}

// matchingItems returns the items that remain candidates for encodings
// matching p, with their patterns and exclusions narrowed to that region.
// The second result lists entries that p's region excludes entirely.
func matchingItems(items []item, p bitvec.Pattern) ([]item, []*entry.DecodeEntry) {
	var out []item
	var excluded []*entry.DecodeEntry

	for _, it := range items {
		if !overlap(it.pattern, p) {
			continue
		}
		if excludedBy(it, p) {
			excluded = append(excluded, it.entry)
			continue
		}

		var narrowed []exclusion
		for _, x := range it.exclusions {
			if !overlap(p, x.matching) || coveredByUnmatching(p, x.unmatching) {
				continue
			}

			nx := exclusion{matching: x.matching.Without(p)}
			for _, u := range x.unmatching {
				if overlap(p, u) {
					nx.unmatching = append(nx.unmatching, u.Without(p))
				}
			}
			narrowed = append(narrowed, nx)
		}

		pattern, _ := it.pattern.Combine(p)
		owned := expand(item{entry: it.entry, pattern: pattern, exclusions: narrowed})
		if len(owned) == 0 {
			excluded = append(excluded, it.entry)
		}
		out = append(out, owned...)
	}

	return out, excluded
}

// excludedBy reports whether an exclusion of it covers all of p without an
// unmatching pattern reaching into p.
func excludedBy(it item, p bitvec.Pattern) bool {
	for _, x := range it.exclusions {
		if !contain(p, x.matching) {
			continue
		}
		reaches := false
		for _, u := range x.unmatching {
			if overlap(p, u) {
				reaches = true
				break
			}
		}
		if !reaches {
			return true
		}
	}
	return false
}

func coveredByUnmatching(p bitvec.Pattern, unmatching []bitvec.Pattern) bool {
	for _, u := range unmatching {
		if contain(p, u) {
			return true
		}
	}
	return false
}

// otherItems returns the items that remain candidates for encodings not
// matching p. Items entirely inside p are gone, as are exclusions that only
// speak about p's region.
func otherItems(items []item, p bitvec.Pattern) []item {
	var out []item
	for _, it := range items {
		if contain(it.pattern, p) {
			continue
		}

		var kept []exclusion
		for _, x := range it.exclusions {
			if contain(x.matching, p) {
				continue
			}
			nx := exclusion{matching: x.matching}
			for _, u := range x.unmatching {
				if !contain(u, p) {
					nx.unmatching = append(nx.unmatching, u)
				}
			}
			kept = append(kept, nx)
		}

		out = append(out, item{entry: it.entry, pattern: it.pattern, exclusions: kept})
	}
	return out
}

func itemEntries(items []item) []*entry.DecodeEntry {
	entries := make([]*entry.DecodeEntry, len(items))
	for i, it := range items {
		entries[i] = it.entry
	}
	return entries
}

func singleEntry(items []item) bool {
	for _, it := range items[1:] {
		if it.entry != items[0].entry {
			return false
		}
	}
	return true
}

func hasExclusions(items []item) bool {
	for _, it := range items {
		if len(it.exclusions) > 0 {
			return true
		}
	}
	return false
}

// significantBits returns the positions every item fixes, with both values
// present.
func significantBits(items []item, known bitvec.Pattern) []int {
	var positions []int
	for pos := 0; pos < known.Width(); pos++ {
		if known.Get(pos).IsFixed() {
			continue
		}
		zero, one, dc := false, false, false
		for _, it := range items {
			switch it.pattern.Get(pos) {
			case bitvec.Zero:
				zero = true
			case bitvec.One:
				one = true
			default:
				dc = true
			}
		}
		if zero && one && !dc {
			positions = append(positions, pos)
		}
	}
	return positions
}

// covered reports whether the avoided patterns together accept every
// encoding of region.
func covered(region bitvec.Pattern, avoid []bitvec.Pattern) bool {
	for _, a := range avoid {
		if contain(region, a) {
			return true
		}
	}
	for _, a := range avoid {
		if !overlap(region, a) {
			continue
		}
		for pos := 0; pos < a.Width(); pos++ {
			if a.Get(pos).IsFixed() && !region.Get(pos).IsFixed() {
				return covered(region.Set(pos, bitvec.One), avoid) &&
					covered(region.Set(pos, bitvec.Zero), avoid)
			}
		}
	}
	return false
}
