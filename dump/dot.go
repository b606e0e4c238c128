// Package dump renders decision trees for inspection.
package dump

import (
	"fmt"
	"io"
	"strings"

	"github.com/sarchlab/vdt/bitvec"
	"github.com/sarchlab/vdt/stats"
	"github.com/sarchlab/vdt/tree"
)

// WriteDOT writes root as a Graphviz digraph. Nodes are numbered in
// depth-first order starting at 0. Single decisions are labeled with the
// tested slice, its mask and value; multi-way nodes with the union of their
// case masks, and their edges with the case patterns.
func WriteDOT(w io.Writer, root tree.Node) error {
	g := &graph{}
	g.emit(root)

	var sb strings.Builder
	fmt.Fprintf(&sb, "// %s\n", stats.Calculate(root))
	sb.WriteString("digraph G {\n")
	sb.WriteString("    rankdir=TB;\n")
	sb.WriteString("    node [shape=box];\n\n")
	for _, line := range g.lines {
		sb.WriteString("    ")
		sb.WriteString(line)
		sb.WriteString(";\n")
	}
	sb.WriteString("}\n")

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("failed to write DOT graph: %w", err)
	}
	return nil
}

// DOT returns the graph WriteDOT would write.
func DOT(root tree.Node) string {
	var sb strings.Builder
	_ = WriteDOT(&sb, root)
	return sb.String()
}

type graph struct {
	next  int
	lines []string
}

func (g *graph) node(label string, attrs string) int {
	id := g.next
	g.next++
	g.lines = append(g.lines, fmt.Sprintf("%d [label=%q%s]", id, label, attrs))
	return id
}

func (g *graph) edge(from, to int, label string) {
	g.lines = append(g.lines, fmt.Sprintf("%d -> %d [label=%q]", from, to, label))
}

func (g *graph) emit(n tree.Node) int {
	return tree.Accept(n, tree.Visitor[int]{
		VisitLeaf: func(l *tree.Leaf) int {
			return g.node(l.Instruction().Name(), ", shape=ellipse")
		},
		VisitSingle: func(s *tree.SingleDecision) int {
			id := g.node(fmt.Sprintf("insn[%d+%d] & 0x%x == 0x%x", s.Offset, s.Length,
				s.Pattern.Mask().Value(), s.Pattern.Canonical().Value()), "")
			g.edge(id, g.emit(s.Matching), "Yes")
			g.edge(id, g.emit(s.Other), "No")
			return id
		},
		VisitMulti: func(m *tree.MultiDecision) int {
			if m.IsReject() {
				return g.node("reject", ", shape=octagon")
			}
			id := g.node(fmt.Sprintf("insn & 0x%x", caseMask(m).Value()), "")
			for _, c := range m.Cases {
				g.edge(id, g.emit(c.Child), c.Pattern.String())
			}
			return id
		},
	})
}

func caseMask(m *tree.MultiDecision) bitvec.Vector {
	width := 0
	for _, c := range m.Cases {
		width = max(width, c.Pattern.Width())
	}
	mask := bitvec.Zeros(width)
	for _, c := range m.Cases {
		mask = mask.Or(c.Pattern.Pad(width).Mask())
	}
	return mask
}
