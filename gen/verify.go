package gen

import (
	"errors"
	"fmt"

	"github.com/sarchlab/vdt/entry"
	"github.com/sarchlab/vdt/tree"
)

// Verify checks a built tree against its entry set: the cases of every
// multi-way node are pairwise disjoint, and an encoding owned by each entry
// decodes to that entry. Entries that own no encoding, because more
// specific entries cover them entirely, are not checked.
func Verify(root tree.Node, entries []*entry.DecodeEntry) error {
	if err := checkDisjoint(root); err != nil {
		return err
	}

	for _, e := range distinct(entries) {
		w, ok := entry.OwnedWitness(e, entries)
		if !ok {
			continue
		}

		got, err := tree.Decide(root, w)
		if errors.Is(err, tree.ErrNoDecision) {
			return entry.NewError(entry.ErrIncompleteCoverage,
				fmt.Sprintf("encoding %s decodes to nothing", w), e)
		}
		if err != nil {
			return fmt.Errorf("failed to decode witness of %s: %w", e.Name(), err)
		}
		if got != e {
			return entry.NewError(entry.ErrAmbiguousEncoding,
				fmt.Sprintf("encoding %s decodes to %s", w, got.Name()), e, got)
		}
	}
	return nil
}

func checkDisjoint(root tree.Node) error {
	var err error
	tree.Walk(root, func(n tree.Node, _ int) bool {
		m, ok := n.(*tree.MultiDecision)
		if !ok || err != nil {
			return err == nil
		}
		for i := range m.Cases {
			for j := i + 1; j < len(m.Cases); j++ {
				if m.Cases[i].Pattern.Overlaps(m.Cases[j].Pattern) {
					involved := distinct(append(leafEntries(m.Cases[i].Child),
						leafEntries(m.Cases[j].Child)...))
					err = entry.NewError(entry.ErrAmbiguousEncoding,
						fmt.Sprintf("cases %s and %s overlap",
							m.Cases[i].Pattern, m.Cases[j].Pattern), involved...)
					return false
				}
			}
		}
		return true
	})
	return err
}

func leafEntries(n tree.Node) []*entry.DecodeEntry {
	var entries []*entry.DecodeEntry
	for _, l := range tree.Leaves(n) {
		entries = append(entries, l.Entry)
	}
	return entries
}
