package tree

import (
	"github.com/sarchlab/vdt/bitvec"
	"github.com/sarchlab/vdt/entry"
)

// Decide walks from root to the leaf v belongs to.
func Decide(root Node, v bitvec.Vector) (*entry.DecodeEntry, error) {
	n := root
	for {
		switch cur := n.(type) {
		case *Leaf:
			return cur.Entry, nil
		case Inner:
			next, err := cur.Decide(v)
			if err != nil {
				return nil, err
			}
			n = next
		default:
			return nil, ErrNoDecision
		}
	}
}
