package entry

import (
	"github.com/sarchlab/vdt/bitvec"
)

// Validate checks the structural constraints generators rely on: the set is
// not empty, every entry has a positive width matching its pattern, the
// patterns of every exclusion condition agree in width and lie between the
// entry width and the widest entry, and no group of entries cedes a shared
// region to each other in a cycle.
func Validate(entries []*DecodeEntry) error {
	if len(entries) == 0 {
		return NewError(ErrUnsupportedInput, "entry set must not be empty")
	}

	maxWidth := 0
	for i, e := range entries {
		if e == nil {
			return errorf(ErrUnsupportedInput, nil, "entry %d is nil", i)
		}
		if e.Width <= 0 {
			return errorf(ErrUnsupportedInput, []*DecodeEntry{e},
				"width %d must be positive", e.Width)
		}
		if e.Pattern.Width() != e.Width {
			return errorf(ErrUnsupportedInput, []*DecodeEntry{e},
				"pattern width %d does not match entry width %d", e.Pattern.Width(), e.Width)
		}
		maxWidth = max(maxWidth, e.Width)
	}

	for _, e := range entries {
		if err := validateExclusions(e, maxWidth); err != nil {
			return err
		}
	}

	return findCycle(entries, maxWidth)
}

func validateExclusions(e *DecodeEntry, maxWidth int) error {
	for _, x := range e.Exclusions {
		w := x.Matching.Width()
		if w < e.Width || w > maxWidth {
			return errorf(ErrMalformedExclusion, []*DecodeEntry{e},
				"exclusion %s has width %d, want %d..%d", x.Matching, w, e.Width, maxWidth)
		}
		for _, u := range x.Unmatching {
			if u.Width() != w {
				return errorf(ErrMalformedExclusion, []*DecodeEntry{e},
					"unmatching pattern %s has width %d, matching pattern %s has %d",
					u, u.Width(), x.Matching, w)
			}
		}
	}
	return nil
}

// cession is an edge of the precedence graph: from gives up region to.
type cession struct {
	to     int
	region bitvec.Pattern
}

func findCycle(entries []*DecodeEntry, width int) error {
	graph := precedenceGraph(entries, width)

	for start := range entries {
		if len(graph[start]) == 0 {
			continue
		}
		onPath := make([]bool, len(entries))
		path := []int{start}
		onPath[start] = true
		if cycle := walkCessions(graph, start, start, bitvec.Empty(width), path, onPath); cycle != nil {
			involved := make([]*DecodeEntry, len(cycle))
			for i, idx := range cycle {
				involved[i] = entries[idx]
			}
			return errorf(ErrMalformedExclusion, involved,
				"cyclic precedence between exclusion conditions")
		}
	}
	return nil
}

func walkCessions(
	graph [][]cession,
	start, cur int,
	region bitvec.Pattern,
	path []int,
	onPath []bool,
) []int {
	for _, c := range graph[cur] {
		shared, err := region.Combine(c.region)
		if err != nil {
			continue
		}
		if c.to == start {
			return path
		}
		// Only start cycles at their lowest index so each is found once.
		if onPath[c.to] || c.to < start {
			continue
		}
		onPath[c.to] = true
		if cycle := walkCessions(graph, start, c.to, shared, append(path, c.to), onPath); cycle != nil {
			return cycle
		}
		onPath[c.to] = false
	}
	return nil
}

func precedenceGraph(entries []*DecodeEntry, width int) [][]cession {
	graph := make([][]cession, len(entries))
	for a, ea := range entries {
		own := ea.Pattern.Pad(width)
		for _, x := range ea.Exclusions {
			region, err := own.Combine(x.Matching.Pad(width))
			if err != nil {
				continue
			}
			for b, eb := range entries {
				if a == b {
					continue
				}
				shared, err := region.Combine(eb.Pattern.Pad(width))
				if err != nil || retained(shared, x.Unmatching, width) {
					continue
				}
				graph[a] = append(graph[a], cession{to: b, region: shared})
			}
		}
	}
	return graph
}

func retained(region bitvec.Pattern, unmatching []bitvec.Pattern, width int) bool {
	for _, u := range unmatching {
		if region.SubsetOf(u.Pad(width)) {
			return true
		}
	}
	return false
}

// MaxWidth returns the widest span among the entries.
func MaxWidth(entries []*DecodeEntry) int {
	w := 0
	for _, e := range entries {
		w = max(w, e.SpanWidth())
	}
	return w
}
