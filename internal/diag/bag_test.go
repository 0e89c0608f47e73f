package diag

import (
	"errors"
	"fmt"
	"testing"

	"forget/internal/source"
)

func TestBagLimit(t *testing.T) {
	b := NewBag(2)
	for i := range 3 {
		ok := b.Add(NewTodo(TodoStatement, source.Span{Start: uint32(i)}, "x"))
		if want := i < 2; ok != want {
			t.Errorf("Add #%d = %v, want %v", i, ok, want)
		}
	}
	if b.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", b.Len())
	}
}

func TestBagSeverityQueries(t *testing.T) {
	b := NewBag(10)
	b.Add(NewTodo(TodoPattern, source.Span{}, "pattern"))
	if b.HasErrors() {
		t.Error("todo-only bag must not report errors")
	}
	if !b.HasTodos() {
		t.Error("expected todos")
	}
	b.Add(NewInvalid(InvalidConstReassign, source.Span{}, "const"))
	if !b.HasErrors() {
		t.Error("expected errors after invalid input")
	}
}

func TestBagSortAndDedup(t *testing.T) {
	b := NewBag(10)
	b.Add(NewInvalid(InvalidGlobalReassign, source.Span{Start: 20, End: 21}, "b"))
	b.Add(NewTodo(TodoSpread, source.Span{Start: 5, End: 6}, "a"))
	b.Add(NewTodo(TodoSpread, source.Span{Start: 5, End: 6}, "a again"))
	b.Sort()
	b.Dedup()
	items := b.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 items after dedup, got %d", len(items))
	}
	if items[0].Code != TodoSpread || items[1].Code != InvalidGlobalReassign {
		t.Errorf("unexpected order: %v, %v", items[0].Code, items[1].Code)
	}
}

func TestInvariantError(t *testing.T) {
	err := fmt.Errorf("ssa: %w", Invariantf(source.Span{}, InvariantVisitCycle, "visiting bb%d again", 3))
	if !IsInvariant(err) {
		t.Fatal("expected invariant error in chain")
	}
	de, ok := AsError(err)
	if !ok || de.Code != InvariantVisitCycle {
		t.Fatalf("AsError = %v, %v", de, ok)
	}
	if IsInvariant(errors.New("plain")) {
		t.Error("plain error classified as invariant")
	}
}

func TestCodeIDs(t *testing.T) {
	tests := map[Code]string{
		TodoStatement:        "TODO1001",
		InvalidConstReassign: "INV2001",
		InvariantTypeCycle:   "BUG3004",
		IODecodeAST:          "IO4002",
	}
	for code, want := range tests {
		if got := code.ID(); got != want {
			t.Errorf("%d.ID() = %s, want %s", code, got, want)
		}
	}
	if TodoSpread.DefaultSeverity() != SevTodo || InvariantSSA.DefaultSeverity() != SevInvariant {
		t.Error("unexpected default severity")
	}
}
