package optimize_test

import (
	"context"
	"testing"

	"forget/internal/estree"
	"forget/internal/hir"
	"forget/internal/optimize"
	"forget/internal/ssa"
	tk "forget/internal/testkit"
)

func inlineMemo(t *testing.T, fn *estree.Function) (*hir.Function, int) {
	t.Helper()
	f := tk.Lower(t, fn)
	if err := ssa.EnterSSA(context.Background(), f); err != nil {
		t.Fatal(err)
	}
	n, err := optimize.InlineUseMemo(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	return f, n
}

func countKind(f *hir.Function, kinds ...hir.ValueKind) int {
	n := 0
	f.Body.EachInstruction(func(_ *hir.BasicBlock, instr *hir.Instruction) {
		for _, k := range kinds {
			if instr.Value.Kind == k {
				n++
			}
		}
	})
	return n
}

func TestInlineUseMemo(t *testing.T) {
	tests := []struct {
		name   string
		callee func() estree.Node
	}{
		{name: "hook", callee: func() estree.Node { return tk.Ident("useMemo") }},
		{name: "namespaced", callee: func() estree.Node { return tk.Member(tk.Ident("React"), "useMemo") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, n := inlineMemo(t, tk.Fn("C", []string{"a"},
				tk.Const("v", tk.Call(tt.callee(),
					tk.Arrow(nil, tk.Bin("+", tk.Ident("a"), tk.Num(1))),
					tk.Arr(tk.Ident("a")))),
				tk.Return(tk.Ident("v")),
			))
			if n != 1 {
				t.Fatalf("inlined = %d, want 1\n%s", n, hir.DumpString(f, hir.DumpOptions{}))
			}
			if k := countKind(f, hir.ValueFunction, hir.ValueCall, hir.ValueMethodCall); k != 0 {
				t.Fatalf("%d function or call instructions left\n%s", k, hir.DumpString(f, hir.DumpOptions{}))
			}
			if len(f.Nested()) != 0 {
				t.Fatal("callback still nested")
			}
			if err := hir.ValidateSSA(f); err != nil {
				t.Fatalf("validate ssa: %v\n%s", err, hir.DumpString(f, hir.DumpOptions{}))
			}

			var bin *hir.Instruction
			last := hir.InstrID(0)
			f.Body.EachInstruction(func(_ *hir.BasicBlock, instr *hir.Instruction) {
				if instr.ID <= last {
					t.Fatalf("instruction ids not increasing at %d", instr.ID)
				}
				last = instr.ID
				if instr.Value.Kind == hir.ValueBinary {
					bin = instr
				}
			})
			if bin == nil || bin.Value.Binary.Left.Identifier.Name != "a" || bin.Value.Binary.Left.Identifier != f.Params[0].Identifier {
				t.Fatalf("inlined body should read the outer parameter\n%s", hir.DumpString(f, hir.DumpOptions{}))
			}
		})
	}
}

func TestInlineUseMemoSkips(t *testing.T) {
	tests := []struct {
		name string
		body []estree.Node
	}{
		{
			name: "callback with params",
			body: []estree.Node{
				tk.Const("v", tk.Call(tk.Ident("useMemo"), tk.Arrow(tk.Params("p"), tk.Ident("p")), tk.Arr())),
				tk.Return(tk.Ident("v")),
			},
		},
		{
			name: "callback with branches",
			body: []estree.Node{
				tk.Const("v", tk.Call(tk.Ident("useMemo"), tk.Arrow(nil, tk.Block(
					tk.If(tk.Ident("a"), tk.Block(tk.Return(tk.Num(1))), nil),
					tk.Return(tk.Num(2)),
				)), tk.Arr(tk.Ident("a")))),
				tk.Return(tk.Ident("v")),
			},
		},
		{
			name: "other hook",
			body: []estree.Node{
				tk.Const("v", tk.Call(tk.Ident("useCallback"), tk.Arrow(nil, tk.Num(1)), tk.Arr())),
				tk.Return(tk.Ident("v")),
			},
		},
		{
			name: "callback used twice",
			body: []estree.Node{
				tk.Const("cb", tk.Arrow(nil, tk.Num(1))),
				tk.Const("v", tk.Call(tk.Ident("useMemo"), tk.Ident("cb"), tk.Arr())),
				tk.Return(tk.Arr(tk.Ident("v"), tk.Ident("cb"))),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, n := inlineMemo(t, tk.Fn("C", []string{"a"}, tt.body...))
			if n != 0 {
				t.Fatalf("inlined = %d, want 0\n%s", n, hir.DumpString(f, hir.DumpOptions{}))
			}
			if len(f.Nested()) != 1 {
				t.Fatalf("nested = %d, want 1", len(f.Nested()))
			}
		})
	}
}
