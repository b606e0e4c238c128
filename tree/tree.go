// Package tree is the decision-tree data model. A tree is built once by a
// generator and is immutable afterwards, so it can be shared by any number of
// decoders and code generators.
package tree

import (
	"errors"

	"github.com/sarchlab/vdt/bitvec"
	"github.com/sarchlab/vdt/entry"
)

// ErrNoDecision is returned when an encoding matches no entry.
var ErrNoDecision = errors.New("no decision")

// Node is either a *Leaf, a *SingleDecision or a *MultiDecision.
type Node interface {
	node()
}

// Inner is a node that routes an encoding to one of its children.
type Inner interface {
	Node

	// Decide returns the child the whole encoding v continues with.
	Decide(v bitvec.Vector) (Node, error)

	// Children returns the child nodes in order.
	Children() []Node
}

// Leaf is a terminal node holding exactly one entry.
type Leaf struct {
	Entry *entry.DecodeEntry
}

// NewLeaf creates a leaf.
func NewLeaf(e *entry.DecodeEntry) *Leaf {
	return &Leaf{Entry: e}
}

func (*Leaf) node() {}

// Instruction returns the entry the leaf decodes to.
func (l *Leaf) Instruction() *entry.DecodeEntry {
	return l.Entry
}

// SingleDecision tests one contiguous slice of the encoding against a
// pattern.
type SingleDecision struct {
	Offset   int
	Length   int
	Pattern  bitvec.Pattern
	Matching Node
	Other    Node
}

func (*SingleDecision) node() {}

// Decide returns Matching when the slice at Offset matches Pattern and Other
// otherwise. Short encodings are zero-extended.
func (s *SingleDecision) Decide(v bitvec.Vector) (Node, error) {
	slice := v.RightPad(s.Offset+s.Length, bitvec.Zero).Truncate(s.Offset, s.Length)
	if s.Pattern.Test(slice) {
		return s.Matching, nil
	}
	return s.Other, nil
}

// Children returns the matching and the other child.
func (s *SingleDecision) Children() []Node {
	return []Node{s.Matching, s.Other}
}

// Case is one arm of a MultiDecision.
type Case struct {
	Pattern bitvec.Pattern
	Child   Node
}

// MultiDecision tests the whole encoding against each case in order. A
// MultiDecision without cases rejects every encoding.
type MultiDecision struct {
	Cases []Case
}

func (*MultiDecision) node() {}

// Reject returns a node that matches nothing.
func Reject() *MultiDecision {
	return &MultiDecision{}
}

// Decide returns the child of the first case whose pattern accepts v. The
// vector is zero-extended or cut to the pattern width first.
func (m *MultiDecision) Decide(v bitvec.Vector) (Node, error) {
	for _, c := range m.Cases {
		if c.Pattern.Test(v.Fit(c.Pattern.Width())) {
			return c.Child, nil
		}
	}
	return nil, ErrNoDecision
}

// Children returns the case children in order.
func (m *MultiDecision) Children() []Node {
	children := make([]Node, len(m.Cases))
	for i, c := range m.Cases {
		children[i] = c.Child
	}
	return children
}

// IsReject reports whether the node has no cases.
func (m *MultiDecision) IsReject() bool {
	return len(m.Cases) == 0
}
