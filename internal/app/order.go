package app

import (
	"math/rand/v2"

	"github.com/ayusman/gesturebench/internal/workflow"
)

// Orderer decides the order in which a batch runs its workflows. It returns
// a permutation of the indices into wfs.
type Orderer interface {
	Order(wfs []*workflow.Workflow) []int
}

// OrdererFunc adapts a function to Orderer.
type OrdererFunc func(wfs []*workflow.Workflow) []int

// Order calls f(wfs).
func (f OrdererFunc) Order(wfs []*workflow.Workflow) []int { return f(wfs) }

// InOrder runs workflows as configured.
var InOrder Orderer = OrdererFunc(func(wfs []*workflow.Workflow) []int {
	return identity(len(wfs))
})

// Shuffled randomizes the order of every workflow with a seeded source, so a
// batch can be reproduced from its seed.
func Shuffled(seed uint64) Orderer {
	return OrdererFunc(func(wfs []*workflow.Workflow) []int {
		idx := identity(len(wfs))
		r := newRand(seed)
		r.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		return idx
	})
}

// FamiliesShuffled keeps each family's workflows together and in their
// configured order, and shuffles the order of the family blocks.
func FamiliesShuffled(seed uint64) Orderer {
	return OrdererFunc(func(wfs []*workflow.Workflow) []int {
		var families []string
		blocks := make(map[string][]int)
		for i, wf := range wfs {
			f := wf.FamilyName()
			if _, ok := blocks[f]; !ok {
				families = append(families, f)
			}
			blocks[f] = append(blocks[f], i)
		}

		r := newRand(seed)
		r.Shuffle(len(families), func(i, j int) { families[i], families[j] = families[j], families[i] })

		idx := make([]int, 0, len(wfs))
		for _, f := range families {
			idx = append(idx, blocks[f]...)
		}
		return idx
	})
}

// ParseOrder resolves an ordering by name: "in-order", "shuffled" or "families".
func ParseOrder(name string, seed uint64) (Orderer, bool) {
	switch name {
	case "", "in-order", "inorder":
		return InOrder, true
	case "shuffled", "shuffle":
		return Shuffled(seed), true
	case "families", "families-shuffled":
		return FamiliesShuffled(seed), true
	default:
		return nil, false
	}
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func identity(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
