package tree

import "fmt"

// Visitor computes a value for each node variant.
type Visitor[T any] struct {
	VisitLeaf   func(*Leaf) T
	VisitSingle func(*SingleDecision) T
	VisitMulti  func(*MultiDecision) T
}

// Accept dispatches n to the matching visitor function.
func Accept[T any](n Node, v Visitor[T]) T {
	switch n := n.(type) {
	case *Leaf:
		return v.VisitLeaf(n)
	case *SingleDecision:
		return v.VisitSingle(n)
	case *MultiDecision:
		return v.VisitMulti(n)
	default:
		panic(fmt.Sprintf("tree: unknown node type %T", n))
	}
}

// Walk visits every node depth first, root at depth 0. Children of a node
// are skipped when fn returns false.
func Walk(n Node, fn func(n Node, depth int) bool) {
	walk(n, 0, fn)
}

func walk(n Node, depth int, fn func(Node, int) bool) {
	if !fn(n, depth) {
		return
	}
	if inner, ok := n.(Inner); ok {
		for _, c := range inner.Children() {
			walk(c, depth+1, fn)
		}
	}
}

// Leaves returns every leaf in depth-first order.
func Leaves(n Node) []*Leaf {
	var leaves []*Leaf
	Walk(n, func(n Node, _ int) bool {
		if l, ok := n.(*Leaf); ok {
			leaves = append(leaves, l)
		}
		return true
	})
	return leaves
}

// Width returns the encoding width the tree decides on: the widest of its
// leaf entries and multi-way patterns.
func Width(root Node) int {
	w := 0
	Walk(root, func(n Node, _ int) bool {
		switch n := n.(type) {
		case *Leaf:
			w = max(w, n.Entry.SpanWidth())
		case *SingleDecision:
			w = max(w, n.Offset+n.Length)
		case *MultiDecision:
			for _, c := range n.Cases {
				w = max(w, c.Pattern.Width())
			}
		}
		return true
	})
	return w
}
