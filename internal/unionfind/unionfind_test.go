package unionfind_test

import (
	"testing"

	"forget/internal/unionfind"
)

func TestFindMissing(t *testing.T) {
	s := unionfind.New[int]()
	if _, ok := s.Find(1); ok {
		t.Fatal("Find on empty set must report absence")
	}
}

func TestUnionFirstIsRoot(t *testing.T) {
	s := unionfind.New[string]()
	s.Union("a", "b", "c")
	for _, item := range []string{"a", "b", "c"} {
		if root, _ := s.Find(item); root != "a" {
			t.Errorf("Find(%s) = %s, want a", item, root)
		}
	}
}

func TestTransitiveUnion(t *testing.T) {
	s := unionfind.New[int]()
	s.Union(1, 2)
	s.Union(3, 4)
	s.Union(5)
	s.Union(4, 2)

	r1, _ := s.Find(1)
	r3, _ := s.Find(3)
	if r1 != r3 {
		t.Errorf("1 and 3 must share a set: %d vs %d", r1, r3)
	}
	r5, _ := s.Find(5)
	if r5 == r1 {
		t.Error("5 must stay alone")
	}
	if got := len(s.Sets()); got != 2 {
		t.Errorf("expected 2 sets, got %d", got)
	}
}

func TestFindIdempotent(t *testing.T) {
	s := unionfind.New[int]()
	unions := [][]int{{1, 2}, {3, 4}, {2, 3}, {7, 8, 9}, {9, 10}, {10, 1}}
	for _, u := range unions {
		s.Union(u...)
		for x := 1; x <= 10; x++ {
			first, ok := s.Find(x)
			if !ok {
				continue
			}
			for range 3 {
				if again, _ := s.Find(x); again != first {
					t.Fatalf("Find(%d) not stable: %d then %d", x, first, again)
				}
			}
		}
	}
	root, _ := s.Find(1)
	for _, x := range []int{2, 3, 4, 7, 8, 9, 10} {
		if r, _ := s.Find(x); r != root {
			t.Errorf("Find(%d) = %d, want %d", x, r, root)
		}
	}
}

func TestForEachOrder(t *testing.T) {
	s := unionfind.New[int]()
	s.Union(3, 1)
	s.Union(2)
	var items []int
	s.ForEach(func(item, _ int) { items = append(items, item) })
	want := []int{3, 1, 2}
	if len(items) != len(want) {
		t.Fatalf("got %v", items)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Fatalf("got %v, want %v", items, want)
		}
	}
}

func TestUnionEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	unionfind.New[int]().Union()
}
