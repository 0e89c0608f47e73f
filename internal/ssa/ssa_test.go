package ssa_test

import (
	"context"
	"slices"
	"testing"

	"forget/internal/diag"
	"forget/internal/hir"
	"forget/internal/ssa"
	tk "forget/internal/testkit"
	"forget/internal/trace"
)

func enter(t *testing.T, f *hir.Function) {
	t.Helper()
	if err := ssa.EnterSSA(context.Background(), f); err != nil {
		t.Fatalf("enter ssa: %v", err)
	}
	if err := hir.ValidateSSA(f); err != nil {
		t.Fatalf("validate ssa: %v\n%s", err, hir.DumpString(f, hir.DumpOptions{}))
	}
}

func TestIfElseMergeGetsOnePhi(t *testing.T) {
	f := tk.Lower(t, tk.Fn("f", []string{"a"},
		tk.Let("x", nil),
		tk.If(tk.Ident("a"),
			tk.Block(tk.Expr(tk.Assign(tk.Ident("x"), tk.Num(1)))),
			tk.Block(tk.Expr(tk.Assign(tk.Ident("x"), tk.Num(2)))),
		),
		tk.Return(tk.Ident("x")),
	))
	enter(t, f)
	if n := tk.CountPhis(f); n != 1 {
		t.Fatalf("want exactly one phi, got %d\n%s", n, hir.DumpString(f, hir.DumpOptions{}))
	}
	phi := tk.PhisNamed(f, "x")[0]
	if len(phi.Operands) != 2 {
		t.Fatalf("phi operands = %d, want 2", len(phi.Operands))
	}
	preds := phi.SortedOperands()
	if phi.Operands[preds[0]] == phi.Operands[preds[1]] {
		t.Fatalf("each branch should contribute its own version of x")
	}

	var ret *hir.Terminal
	for _, blk := range f.Body.Ordered() {
		if blk.Terminal.Kind == hir.TermReturn {
			ret = &blk.Terminal
		}
	}
	if ret == nil || ret.Operand.Identifier != phi.Place.Identifier {
		t.Fatalf("return should read the phi")
	}
}

func TestWhileHeaderPhiResolvesBackEdge(t *testing.T) {
	f := tk.Lower(t, tk.Fn("f", []string{"n"},
		tk.Let("i", tk.Num(0)),
		tk.While(tk.Bin("<", tk.Ident("i"), tk.Ident("n")),
			tk.Block(tk.Expr(tk.Assign(tk.Ident("i"), tk.Bin("+", tk.Ident("i"), tk.Num(1)))))),
		tk.Return(tk.Ident("i")),
	))
	ring := trace.NewRingTracer(256, trace.LevelDebug)
	ctx := trace.WithTracer(context.Background(), ring)
	if err := ssa.EnterSSA(ctx, f); err != nil {
		t.Fatalf("enter ssa: %v", err)
	}
	if err := hir.ValidateSSA(f); err != nil {
		t.Fatalf("validate ssa: %v", err)
	}

	entry := f.Body.Block(f.Body.Entry)
	header := f.Body.Block(entry.Terminal.Loop.Test)
	var iPhi *hir.Phi
	for _, phi := range header.Phis {
		if phi.Place.Identifier.Name == "i" {
			iPhi = phi
		}
	}
	if iPhi == nil {
		t.Fatalf("no phi for i at the loop header\n%s", hir.DumpString(f, hir.DumpOptions{}))
	}
	for _, pred := range header.Preds {
		op, ok := iPhi.Operands[pred]
		if !ok {
			t.Fatalf("phi misses predecessor bb%d", pred)
		}
		if op == iPhi.Place.Identifier {
			t.Fatalf("operand from bb%d still refers to the placeholder", pred)
		}
	}

	var sawIncomplete, sawSeal bool
	for _, ev := range ring.Snapshot() {
		switch ev.Name {
		case "incomplete_phi":
			sawIncomplete = true
		case "seal":
			sawSeal = true
		}
	}
	if !sawIncomplete || !sawSeal {
		t.Fatalf("expected incomplete_phi and seal trace points")
	}
}

func TestEliminateRedundantLoopPhis(t *testing.T) {
	f := tk.Lower(t, tk.Fn("f", []string{"n"},
		tk.Let("i", tk.Num(0)),
		tk.While(tk.Bin("<", tk.Ident("i"), tk.Ident("n")),
			tk.Block(tk.Expr(tk.Update("++", false, tk.Ident("i"))))),
		tk.Return(tk.Ident("i")),
	))
	enter(t, f)
	if len(tk.PhisNamed(f, "n")) == 0 {
		t.Fatalf("expected a placeholder phi for the loop-invariant n")
	}
	ssa.EliminateRedundantPhis(context.Background(), f)
	if got := tk.PhisNamed(f, "n"); len(got) != 0 {
		t.Fatalf("loop-invariant phi for n should be removed, got %d", len(got))
	}
	if got := tk.PhisNamed(f, "i"); len(got) != 1 {
		t.Fatalf("loop-carried phi for i must stay, got %d", len(got))
	}
	if err := hir.ValidateSSA(f); err != nil {
		t.Fatalf("validate ssa: %v", err)
	}
	params := f.Params[0].Identifier
	f.Body.EachInstruction(func(_ *hir.BasicBlock, instr *hir.Instruction) {
		instr.EachOperand(func(p *hir.Place) {
			if p.Identifier.Name == "n" && p.Identifier != params {
				t.Errorf("use of n should be rewritten to the parameter, got %s", p.Identifier)
			}
		})
	})
}

func TestLeaveSSACoalescesPhiOperands(t *testing.T) {
	f := tk.Lower(t, tk.Fn("f", []string{"a"},
		tk.Let("x", tk.Num(0)),
		tk.If(tk.Ident("a"), tk.Block(tk.Expr(tk.Assign(tk.Ident("x"), tk.Num(1)))), nil),
		tk.Return(tk.Ident("x")),
	))
	enter(t, f)
	ssa.EliminateRedundantPhis(context.Background(), f)
	ssa.LeaveSSA(context.Background(), f)
	if n := tk.CountPhis(f); n != 0 {
		t.Fatalf("phis left after leave ssa: %d", n)
	}
	var xs []*hir.Identifier
	f.Body.EachInstruction(func(_ *hir.BasicBlock, instr *hir.Instruction) {
		if instr.Lvalue != nil && instr.Lvalue.Identifier.Name == "x" && !slices.Contains(xs, instr.Lvalue.Identifier) {
			xs = append(xs, instr.Lvalue.Identifier)
		}
	})
	if len(xs) != 1 {
		t.Fatalf("both assignments of x should share one identifier, got %v", xs)
	}
}

func TestParamsAreDefinedAtEntry(t *testing.T) {
	f := tk.Lower(t, tk.Fn("f", []string{"a"}, tk.Return(tk.Ident("a"))))
	before := f.Params[0].Identifier
	enter(t, f)
	after := f.Params[0].Identifier
	if before == after {
		t.Fatalf("parameter should receive a fresh version")
	}
	entry := f.Body.Block(f.Body.Entry)
	if entry.Terminal.Operand.Identifier != after {
		t.Fatalf("return should read the renamed parameter")
	}
}

func TestGlobalsStayUnchanged(t *testing.T) {
	f := tk.Lower(t, tk.Fn("f", nil, tk.Var("x", nil), tk.Return(tk.Ident("x"))))
	entry := f.Body.Block(f.Body.Entry)
	before := entry.Terminal.Operand.Identifier
	enter(t, f)
	if entry.Terminal.Operand.Identifier != before {
		t.Fatalf("a binding with no reaching definition should be left as is")
	}
}

func TestBlockVisitedTwiceIsInvariant(t *testing.T) {
	f := tk.Lower(t, tk.Fn("f", nil, tk.Return(tk.Num(1))))
	f.Body.Order = append(f.Body.Order, f.Body.Entry)
	err := ssa.EnterSSA(context.Background(), f)
	if err == nil || !diag.IsInvariant(err) {
		t.Fatalf("want invariant error, got %v", err)
	}
}

func TestTryHandlerMergesBodyWrites(t *testing.T) {
	f := tk.Lower(t, tk.Fn("f", nil,
		tk.Let("x", tk.Num(1)),
		tk.Try(tk.Block(
			tk.Expr(tk.Assign(tk.Ident("x"), tk.Num(2))),
			tk.Expr(tk.Call(tk.Ident("foo"))),
		), "e", tk.Block(tk.Return(tk.Ident("x")))),
		tk.Return(tk.Null()),
	))
	enter(t, f)
	entry := f.Body.Block(f.Body.Entry)
	handler := f.Body.Block(entry.Terminal.Try.Handler)
	var phi *hir.Phi
	for _, p := range handler.Phis {
		if p.Place.Identifier.Name == "x" {
			phi = p
		}
	}
	if phi == nil {
		t.Fatalf("handler has no phi for x\n%s", hir.DumpString(f, hir.DumpOptions{}))
	}
	preds := phi.SortedOperands()
	if len(preds) != 2 || phi.Operands[preds[0]] == phi.Operands[preds[1]] {
		t.Fatalf("phi should merge the value before and after the write\n%s", hir.DumpString(f, hir.DumpOptions{}))
	}
	reads := false
	for _, blk := range f.Body.Ordered() {
		if blk.Terminal.Kind == hir.TermReturn && blk.Terminal.Operand.Identifier == phi.Place.Identifier {
			reads = true
		}
	}
	if !reads {
		t.Fatal("handler return should read the phi")
	}
}
