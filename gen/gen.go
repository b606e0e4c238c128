// Package gen synthesizes decision trees from decode entries.
//
// Four strategies are available. Regular handles entry sets whose patterns
// are pairwise disjoint or nested and builds a binary cascade over single
// bits. Theiling partitions on the bits all remaining entries fix and pushes
// subsumed entries down behind a default. Irregular and Heuristic resolve
// overlapping patterns through exclusion conditions; they emit multi-way
// nodes over significant bits and split on exclusion patterns when no bit
// separates the entries. Heuristic differs in its search order.
//
// Every generator builds with fresh local state and can be used from
// several goroutines at once.
package gen

import (
	"fmt"
	"sort"

	"github.com/sarchlab/vdt/entry"
	"github.com/sarchlab/vdt/stats"
	"github.com/sarchlab/vdt/tree"
)

// Strategy names.
const (
	Regular   = "regular"
	Irregular = "irregular"
	Heuristic = "heuristic"
	Theiling  = "theiling"
)

// Generator builds a decision tree from a complete entry set.
type Generator interface {
	Generate(entries []*entry.DecodeEntry) (tree.Node, error)
}

type factory func(s settings) Generator

var strategies = map[string]factory{
	Regular:   func(s settings) Generator { return &RegularGenerator{s: s} },
	Irregular: func(s settings) Generator { return &IrregularGenerator{s: s} },
	Heuristic: func(s settings) Generator { return &IrregularGenerator{s: s, heuristic: true} },
	Theiling:  func(s settings) Generator { return &TheilingGenerator{s: s} },
}

// New returns the generator registered under strategy.
func New(strategy string, opts ...Option) (Generator, error) {
	f, ok := strategies[strategy]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q, want one of %v", strategy, Strategies())
	}
	return f(newSettings(opts)), nil
}

// Strategies returns the registered strategy names in sorted order.
func Strategies() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// finish runs the checks shared by all strategies on a built tree.
func finish(name string, s settings, root tree.Node, entries []*entry.DecodeEntry) (tree.Node, error) {
	if s.verify {
		if err := Verify(root, entries); err != nil {
			return nil, err
		}
	}

	st := stats.Calculate(root)
	s.logger.V(1).Info("generated decode tree",
		"strategy", name,
		"entries", len(entries),
		"nodes", st.NodeCount,
		"leaves", st.LeafCount,
		"maxDepth", st.MaxDepth,
		"avgDepth", st.AvgDepth)

	return root, nil
}
