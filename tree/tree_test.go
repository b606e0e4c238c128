package tree_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vdt/bitvec"
	"github.com/sarchlab/vdt/entry"
	"github.com/sarchlab/vdt/tree"
)

var _ = Describe("Tree", func() {
	var (
		a, b, c *entry.DecodeEntry
		root    tree.Node
	)

	BeforeEach(func() {
		a = entry.New(entry.Label("a"), bitvec.MustParsePattern("1--"))
		b = entry.New(entry.Label("b"), bitvec.MustParsePattern("01-"))
		c = entry.New(entry.Label("c"), bitvec.MustParsePattern("00-"))

		root = &tree.SingleDecision{
			Offset:   0,
			Length:   1,
			Pattern:  bitvec.MustParsePattern("1"),
			Matching: tree.NewLeaf(a),
			Other: &tree.MultiDecision{Cases: []tree.Case{
				{Pattern: bitvec.MustParsePattern("-1-"), Child: tree.NewLeaf(b)},
				{Pattern: bitvec.MustParsePattern("-0-"), Child: tree.NewLeaf(c)},
			}},
		}
	})

	Describe("SingleDecision", func() {
		It("should branch on the tested slice", func() {
			s := root.(*tree.SingleDecision)
			next, err := s.Decide(bitvec.MustParseVector("100"))
			Expect(err).NotTo(HaveOccurred())
			Expect(next.(*tree.Leaf).Instruction()).To(BeIdenticalTo(a))

			next, err = s.Decide(bitvec.MustParseVector("011"))
			Expect(err).NotTo(HaveOccurred())
			Expect(next).To(BeAssignableToTypeOf(&tree.MultiDecision{}))
		})

		It("should zero-extend short encodings", func() {
			s := &tree.SingleDecision{
				Offset:   4,
				Length:   2,
				Pattern:  bitvec.MustParsePattern("00"),
				Matching: tree.NewLeaf(a),
				Other:    tree.NewLeaf(b),
			}
			next, err := s.Decide(bitvec.MustParseVector("1111"))
			Expect(err).NotTo(HaveOccurred())
			Expect(next.(*tree.Leaf).Entry).To(BeIdenticalTo(a))
		})
	})

	Describe("MultiDecision", func() {
		It("should take the first matching case", func() {
			m := &tree.MultiDecision{Cases: []tree.Case{
				{Pattern: bitvec.MustParsePattern("1-"), Child: tree.NewLeaf(a)},
				{Pattern: bitvec.MustParsePattern("--"), Child: tree.NewLeaf(b)},
			}}
			next, err := m.Decide(bitvec.MustParseVector("10"))
			Expect(err).NotTo(HaveOccurred())
			Expect(next.(*tree.Leaf).Entry).To(BeIdenticalTo(a))
		})

		It("should signal no decision", func() {
			m := root.(*tree.SingleDecision).Other.(*tree.MultiDecision)
			m = &tree.MultiDecision{Cases: m.Cases[:1]}
			_, err := m.Decide(bitvec.MustParseVector("000"))
			Expect(err).To(MatchError(tree.ErrNoDecision))
		})

		It("should reject everything without cases", func() {
			r := tree.Reject()
			Expect(r.IsReject()).To(BeTrue())
			_, err := r.Decide(bitvec.MustParseVector("1"))
			Expect(err).To(MatchError(tree.ErrNoDecision))
		})

		It("should fit longer encodings to the pattern width", func() {
			m := root.(*tree.SingleDecision).Other.(*tree.MultiDecision)
			next, err := m.Decide(bitvec.MustParseVector("0101 1111"))
			Expect(err).NotTo(HaveOccurred())
			Expect(next.(*tree.Leaf).Entry).To(BeIdenticalTo(b))
		})
	})

	Describe("traversal", func() {
		It("should visit every node with its depth", func() {
			depths := map[string]int{}
			tree.Walk(root, func(n tree.Node, depth int) bool {
				if l, ok := n.(*tree.Leaf); ok {
					depths[l.Entry.Name()] = depth
				}
				return true
			})
			Expect(depths).To(Equal(map[string]int{"a": 1, "b": 2, "c": 2}))
		})

		It("should prune subtrees", func() {
			count := 0
			tree.Walk(root, func(n tree.Node, depth int) bool {
				count++
				return depth == 0
			})
			Expect(count).To(Equal(3))
		})

		It("should dispatch on the node variant", func() {
			kind := tree.Visitor[string]{
				VisitLeaf:   func(*tree.Leaf) string { return "leaf" },
				VisitSingle: func(*tree.SingleDecision) string { return "single" },
				VisitMulti:  func(*tree.MultiDecision) string { return "multi" },
			}
			Expect(tree.Accept(root, kind)).To(Equal("single"))

			inner := root.(tree.Inner)
			Expect(tree.Accept(inner.Children()[0], kind)).To(Equal("leaf"))
			Expect(tree.Accept(inner.Children()[1], kind)).To(Equal("multi"))
		})

		It("should list leaves and the tree width", func() {
			Expect(tree.Leaves(root)).To(HaveLen(3))
			Expect(tree.Width(root)).To(Equal(3))
		})
	})
})
