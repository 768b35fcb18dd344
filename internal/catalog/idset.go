package catalog

import "sort"

// IDSet is an immutable set of entity ids.
type IDSet struct{ m map[int]struct{} }

var emptySet = IDSet{}

func newIDSet(ids ...int) IDSet {
	m := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return IDSet{m: m}
}

func (s IDSet) Has(id int) bool {
	_, ok := s.m[id]
	return ok
}

func (s IDSet) Len() int { return len(s.m) }

func (s IDSet) Empty() bool { return len(s.m) == 0 }

// Sorted returns the ids in ascending order.
func (s IDSet) Sorted() []int {
	out := make([]int, 0, len(s.m))
	for id := range s.m {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// Intersect returns the ids present in both sets, ascending.
// It iterates the smaller set.
func (s IDSet) Intersect(o IDSet) []int {
	small, big := s, o
	if big.Len() < small.Len() {
		small, big = big, small
	}
	var out []int
	for id := range small.m {
		if big.Has(id) {
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}
