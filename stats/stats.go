// Package stats computes structural metrics of a decision tree, used to
// compare generator strategies and to catch pathological trees.
package stats

import (
	"fmt"

	"github.com/sarchlab/vdt/tree"
)

// Statistics holds structural metrics of a tree. Depth counts edges from
// the root, so a tree that is a single leaf has depth 0.
type Statistics struct {
	NodeCount           int     `json:"node_count"`
	LeafCount           int     `json:"leaf_count"`
	MinDepth            int     `json:"min_depth"`
	MaxDepth            int     `json:"max_depth"`
	AvgDepth            float64 `json:"avg_depth"`
	MaxInstructionWidth int     `json:"max_instruction_width"`
}

// Calculate folds over the tree. The average depth is taken over leaves.
func Calculate(root tree.Node) Statistics {
	var s Statistics
	depthSum := 0

	tree.Walk(root, func(n tree.Node, depth int) bool {
		s.NodeCount++
		leaf, ok := n.(*tree.Leaf)
		if !ok {
			return true
		}

		if s.LeafCount == 0 || depth < s.MinDepth {
			s.MinDepth = depth
		}
		s.MaxDepth = max(s.MaxDepth, depth)
		s.LeafCount++
		depthSum += depth
		s.MaxInstructionWidth = max(s.MaxInstructionWidth, leaf.Entry.Width)
		return true
	})

	if s.LeafCount > 0 {
		s.AvgDepth = float64(depthSum) / float64(s.LeafCount)
	}
	return s
}

// Limits bounds acceptable tree metrics. Zero fields are not checked.
type Limits struct {
	MaxNodes    int
	MaxDepth    int
	MaxAvgDepth float64
}

// Check returns an error describing the first limit the statistics exceed.
func (s Statistics) Check(l Limits) error {
	if l.MaxNodes > 0 && s.NodeCount > l.MaxNodes {
		return fmt.Errorf("tree has %d nodes, limit is %d", s.NodeCount, l.MaxNodes)
	}
	if l.MaxDepth > 0 && s.MaxDepth > l.MaxDepth {
		return fmt.Errorf("tree has depth %d, limit is %d", s.MaxDepth, l.MaxDepth)
	}
	if l.MaxAvgDepth > 0 && s.AvgDepth > l.MaxAvgDepth {
		return fmt.Errorf("tree has average depth %.2f, limit is %.2f", s.AvgDepth, l.MaxAvgDepth)
	}
	return nil
}

// String renders the statistics on one line.
func (s Statistics) String() string {
	return fmt.Sprintf("nodes=%d leaves=%d depth=%d..%d avg=%.2f width=%d",
		s.NodeCount, s.LeafCount, s.MinDepth, s.MaxDepth, s.AvgDepth, s.MaxInstructionWidth)
}
