// Package unionfind provides a disjoint-set partition over comparable items.
package unionfind

// DisjointSet partitions items into sets. Items are added implicitly by
// Union; iteration order is insertion order so results are deterministic.
type DisjointSet[T comparable] struct {
	parent map[T]T
	order  []T
}

func New[T comparable]() *DisjointSet[T] {
	return &DisjointSet[T]{parent: make(map[T]T)}
}

// Union merges the sets containing items. The representative of the first
// item's set becomes the representative of the merged set. Calling Union
// with no items is a programming error and panics.
func (s *DisjointSet[T]) Union(items ...T) {
	if len(items) == 0 {
		panic("unionfind: Union called with no items")
	}
	first := items[0]
	root, ok := s.Find(first)
	if !ok {
		root = first
		s.insert(first, first)
	}
	for _, item := range items[1:] {
		parent, ok := s.parent[item]
		if !ok {
			s.insert(item, root)
			continue
		}
		if parent == root {
			continue
		}
		// relink the whole chain from item up to its old root
		current := item
		for parent != root {
			s.parent[current] = root
			if parent == current {
				break
			}
			current = parent
			parent = s.parent[current]
		}
	}
}

// Find returns the representative of item's set with path compression,
// or false if item was never inserted.
func (s *DisjointSet[T]) Find(item T) (T, bool) {
	parent, ok := s.parent[item]
	if !ok {
		var zero T
		return zero, false
	}
	if parent == item {
		return item, true
	}
	root, _ := s.Find(parent)
	s.parent[item] = root
	return root, true
}

// Has reports whether item was inserted.
func (s *DisjointSet[T]) Has(item T) bool {
	_, ok := s.parent[item]
	return ok
}

// ForEach calls fn for every inserted item with its representative.
func (s *DisjointSet[T]) ForEach(fn func(item, root T)) {
	for _, item := range s.order {
		root, _ := s.Find(item)
		fn(item, root)
	}
}

// Sets groups items by representative. Groups are ordered by the first
// insertion of any member; members keep insertion order.
func (s *DisjointSet[T]) Sets() [][]T {
	index := make(map[T]int)
	var out [][]T
	s.ForEach(func(item, root T) {
		i, ok := index[root]
		if !ok {
			i = len(out)
			index[root] = i
			out = append(out, nil)
		}
		out[i] = append(out[i], item)
	})
	return out
}

func (s *DisjointSet[T]) Len() int { return len(s.order) }

func (s *DisjointSet[T]) insert(item, parent T) {
	s.parent[item] = parent
	s.order = append(s.order, item)
}
