package build_test

import (
	"strings"
	"testing"

	"forget/internal/build"
	"forget/internal/diag"
	"forget/internal/estree"
	"forget/internal/hir"
	"forget/internal/shapes"
	tk "forget/internal/testkit"
)

func lower(t *testing.T, fn *estree.Function) (*hir.Function, *diag.Bag) {
	t.Helper()
	env := hir.NewEnvironment(shapes.Default(), hir.DefaultFeatures())
	bag := diag.NewBag(0)
	f, err := build.Build(env, fn, "", bag)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := hir.Validate(f); err != nil {
		t.Fatalf("validate: %v\n%s", err, hir.DumpString(f, hir.DumpOptions{}))
	}
	return f, bag
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestStraightLine(t *testing.T) {
	f, bag := lower(t, tk.Fn("f", []string{"a"},
		tk.Let("x", tk.Bin("+", tk.Ident("a"), tk.Num(1))),
		tk.Return(tk.Ident("x")),
	))
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	if len(f.Body.Order) != 1 {
		t.Fatalf("want a single block, got %d", len(f.Body.Order))
	}
	entry := f.Body.Block(f.Body.Entry)
	if entry.Terminal.Kind != hir.TermReturn {
		t.Fatalf("terminal = %s, want Return", entry.Terminal.Kind)
	}
	want := hir.InstrID(1)
	for _, instr := range entry.Instructions {
		if instr.ID != want {
			t.Fatalf("instruction numbered %d, want %d", instr.ID, want)
		}
		want++
	}
	if entry.Terminal.ID != want {
		t.Fatalf("terminal numbered %d, want %d", entry.Terminal.ID, want)
	}
	if len(f.Params) != 1 || f.Params[0].Identifier.Name != "a" {
		t.Fatalf("params = %v", f.Params)
	}
}

func TestIfElseDiamond(t *testing.T) {
	f, _ := lower(t, tk.Fn("f", []string{"c"},
		tk.Let("x", tk.Num(0)),
		tk.If(tk.Ident("c"),
			tk.Block(tk.Expr(tk.Assign(tk.Ident("x"), tk.Num(1)))),
			tk.Block(tk.Expr(tk.Assign(tk.Ident("x"), tk.Num(2)))),
		),
		tk.Return(tk.Ident("x")),
	))
	if len(f.Body.Order) != 4 {
		t.Fatalf("want 4 blocks, got %d\n%s", len(f.Body.Order), hir.DumpString(f, hir.DumpOptions{}))
	}
	entry := f.Body.Block(f.Body.Entry)
	if entry.Terminal.Kind != hir.TermIf {
		t.Fatalf("entry terminal = %s, want If", entry.Terminal.Kind)
	}
	join := f.Body.Block(entry.Terminal.Fallthrough)
	if join == nil || len(join.Preds) != 2 {
		t.Fatalf("join block should have two predecessors: %+v", join)
	}
	if f.Body.Order[len(f.Body.Order)-1] != join.ID {
		t.Fatalf("join block should come last in reverse postorder")
	}
}

func TestBothArmsReturnDropsContinuation(t *testing.T) {
	f, _ := lower(t, tk.Fn("f", []string{"c"},
		tk.If(tk.Ident("c"), tk.Return(tk.Num(1)), tk.Return(tk.Num(2))),
		tk.Return(tk.Num(3)),
	))
	entry := f.Body.Block(f.Body.Entry)
	if entry.Terminal.Fallthrough != hir.NoBlockID {
		t.Fatalf("fallthrough = bb%d, want none", entry.Terminal.Fallthrough)
	}
	if len(f.Body.Order) != 3 {
		t.Fatalf("want 3 reachable blocks, got %d", len(f.Body.Order))
	}
}

func TestWhileLoopBackEdge(t *testing.T) {
	f, _ := lower(t, tk.Fn("f", []string{"n"},
		tk.Let("i", tk.Num(0)),
		tk.While(tk.Bin("<", tk.Ident("i"), tk.Ident("n")),
			tk.Block(tk.Expr(tk.Update("++", false, tk.Ident("i"))))),
		tk.Return(tk.Ident("i")),
	))
	entry := f.Body.Block(f.Body.Entry)
	if entry.Terminal.Kind != hir.TermWhile {
		t.Fatalf("entry terminal = %s, want While", entry.Terminal.Kind)
	}
	header := f.Body.Block(entry.Terminal.Loop.Test)
	if header.Kind != hir.BlockLoop {
		t.Fatalf("loop header kind = %s", header.Kind)
	}
	if len(header.Preds) != 2 || !header.HasPred(entry.ID) {
		t.Fatalf("header preds = %v, want entry plus back edge", header.Preds)
	}
	body := f.Body.Block(entry.Terminal.Loop.Body)
	if body.Terminal.Kind != hir.TermGoto || body.Terminal.Goto.Variant != hir.GotoContinue {
		t.Fatalf("body should continue to the header, got %s", body.Terminal.Kind)
	}
}

func TestForLoopWithoutTest(t *testing.T) {
	f, _ := lower(t, tk.Fn("f", nil,
		tk.For(tk.Let("i", tk.Num(0)), nil, tk.Update("++", false, tk.Ident("i")),
			tk.Block(tk.Break(""))),
		tk.Return(nil),
	))
	var found bool
	for _, b := range f.Body.Ordered() {
		if b.Terminal.Kind == hir.TermFor {
			found = true
			if b.Terminal.Fallthrough == hir.NoBlockID {
				t.Fatalf("break should keep the continuation reachable")
			}
			if b.Terminal.Loop.Update != hir.NoBlockID {
				t.Fatalf("update is unreachable once the body always breaks")
			}
		}
	}
	if !found {
		t.Fatalf("no For terminal\n%s", hir.DumpString(f, hir.DumpOptions{}))
	}
}

func TestSwitchFallthrough(t *testing.T) {
	f, _ := lower(t, tk.Fn("f", []string{"k"},
		tk.Let("x", tk.Num(0)),
		tk.Switch(tk.Ident("k"),
			tk.Case(tk.Num(1), tk.Expr(tk.Assign(tk.Ident("x"), tk.Num(1)))),
			tk.Case(tk.Num(2), tk.Expr(tk.Assign(tk.Ident("x"), tk.Num(2))), tk.Break("")),
		),
		tk.Return(tk.Ident("x")),
	))
	entry := f.Body.Block(f.Body.Entry)
	if entry.Terminal.Kind != hir.TermSwitch {
		t.Fatalf("entry terminal = %s", entry.Terminal.Kind)
	}
	cases := entry.Terminal.Switch.Cases
	if len(cases) != 3 || cases[2].Test != nil {
		t.Fatalf("want two cases plus a synthesized default, got %+v", cases)
	}
	first := f.Body.Block(cases[0].Block)
	if first.Terminal.Kind != hir.TermGoto || first.Terminal.Goto.Block != cases[1].Block {
		t.Fatalf("first case should fall through into the second")
	}
}

func TestLogicalAndTernary(t *testing.T) {
	f, _ := lower(t, tk.Fn("f", []string{"a", "b"},
		tk.Return(tk.Cond(tk.Logical("&&", tk.Ident("a"), tk.Ident("b")), tk.Num(1), tk.Num(2))),
	))
	kinds := map[hir.TermKind]int{}
	for _, b := range f.Body.Ordered() {
		kinds[b.Terminal.Kind]++
	}
	if kinds[hir.TermLogical] != 1 || kinds[hir.TermTernary] != 1 || kinds[hir.TermBranch] != 2 {
		t.Fatalf("terminal kinds = %v", kinds)
	}
}

func TestClosureCapturesContext(t *testing.T) {
	f, _ := lower(t, tk.Fn("Component", []string{"props"},
		tk.Let("count", tk.Num(0)),
		tk.Const("inc", tk.Arrow(nil, tk.Assign(tk.Ident("count"), tk.Bin("+", tk.Ident("count"), tk.Num(1))))),
		tk.Return(tk.Ident("inc")),
	))
	nested := f.Nested()
	if len(nested) != 1 {
		t.Fatalf("want one nested function, got %d", len(nested))
	}
	inner := nested[0]
	if len(inner.Context) != 1 || inner.Context[0].Identifier.Name != "count" {
		t.Fatalf("context = %v", inner.Context)
	}
	var fv *hir.FunctionValue
	f.Body.EachInstruction(func(_ *hir.BasicBlock, instr *hir.Instruction) {
		if instr.Value.Kind == hir.ValueFunction {
			fv = &instr.Value.Function
		}
	})
	if fv == nil || len(fv.Context) != 1 || fv.Context[0].Effect != hir.EffectCapture {
		t.Fatalf("outer function value should capture count")
	}
	if fv.Context[0].Identifier == inner.Context[0].Identifier {
		t.Fatalf("inner context identifier must be distinct from the outer binding")
	}
}

func TestGlobalsLoadAndMemberPaths(t *testing.T) {
	f, _ := lower(t, tk.Fn("f", []string{"props"},
		tk.Return(tk.Call(tk.Ident("foo"), tk.Member(tk.Member(tk.Ident("props"), "a"), "b"))),
	))
	var sawGlobal, sawPath bool
	f.Body.EachInstruction(func(_ *hir.BasicBlock, instr *hir.Instruction) {
		switch instr.Value.Kind {
		case hir.ValueLoadGlobal:
			sawGlobal = instr.Value.Global == "foo"
		case hir.ValuePlace:
			p := instr.Value.Place
			sawPath = sawPath || strings.Join(p.Path, ".") == "a.b"
		}
	})
	if !sawGlobal || !sawPath {
		t.Fatalf("global=%v path=%v\n%s", sawGlobal, sawPath, hir.DumpString(f, hir.DumpOptions{}))
	}
}

func TestMethodCallEffects(t *testing.T) {
	f, _ := lower(t, tk.Fn("f", nil,
		tk.Let("y", tk.Arr()),
		tk.Let("x", tk.Obj()),
		tk.Expr(tk.Call(tk.Member(tk.Ident("y"), "push"), tk.Ident("x"))),
	))
	var call *hir.MethodCallValue
	f.Body.EachInstruction(func(_ *hir.BasicBlock, instr *hir.Instruction) {
		if instr.Value.Kind == hir.ValueMethodCall {
			call = &instr.Value.MethodCall
		}
	})
	if call == nil {
		t.Fatalf("no method call lowered")
	}
	if call.Property != "push" || call.Receiver.Effect != hir.EffectMutate {
		t.Fatalf("receiver = %v", call.Receiver)
	}
	if len(call.Args) != 1 || call.Args[0].Place.Effect != hir.EffectMutate {
		t.Fatalf("args = %v", call.Args)
	}
}

func TestJsxLowering(t *testing.T) {
	f, _ := lower(t, tk.Fn("C", []string{"props"},
		tk.Return(tk.Jsx("div", []estree.Node{tk.Attr("hidden", nil), tk.Attr("title", tk.Member(tk.Ident("props"), "t"))},
			tk.Text("\n   "),
			tk.Jsx("Child", nil),
			tk.Text("  hello\n  world  "),
		)),
	))
	var host, component *hir.JsxValue
	f.Body.EachInstruction(func(_ *hir.BasicBlock, instr *hir.Instruction) {
		if instr.Value.Kind != hir.ValueJsx {
			return
		}
		if instr.Value.Jsx.BuiltinTag != "" {
			host = &instr.Value.Jsx
		} else {
			component = &instr.Value.Jsx
		}
	})
	if host == nil || component == nil {
		t.Fatalf("expected host and component elements")
	}
	if host.BuiltinTag != "div" || len(host.Props) != 2 || len(host.Children) != 2 {
		t.Fatalf("host = %+v", host)
	}
	for _, p := range host.Props {
		if p.Place.Effect != hir.EffectFreeze {
			t.Fatalf("prop %s effect = %s, want freeze", p.Name, p.Place.Effect)
		}
	}
	if component.Tag == nil || component.Tag.Effect != hir.EffectFreeze {
		t.Fatalf("component tag should be a frozen place")
	}
}

func TestInvalidInputsReportDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		fn   *estree.Function
		code diag.Code
	}{
		{
			name: "break outside loop",
			fn:   tk.Fn("f", nil, tk.Break("")),
			code: diag.InvalidBreakTarget,
		},
		{
			name: "unknown continue label",
			fn:   tk.Fn("f", nil, tk.While(tk.Bool(true), tk.Continue("nope"))),
			code: diag.InvalidContinueTarget,
		},
		{
			name: "const reassign",
			fn:   tk.Fn("f", nil, tk.Const("x", tk.Num(1)), tk.Expr(tk.Assign(tk.Ident("x"), tk.Num(2)))),
			code: diag.InvalidConstReassign,
		},
		{
			name: "global reassign",
			fn:   tk.Fn("f", nil, tk.Expr(tk.Assign(tk.Ident("window"), tk.Num(2)))),
			code: diag.InvalidGlobalReassign,
		},
		{
			name: "duplicate let",
			fn:   tk.Fn("f", nil, tk.Let("x", nil), tk.Let("x", nil)),
			code: diag.InvalidDuplicateBinding,
		},
		{
			name: "logical assignment",
			fn:   tk.Fn("f", []string{"a"}, tk.Expr(tk.AssignOp("??=", tk.Ident("a"), tk.Num(1)))),
			code: diag.TodoAssignOperator,
		},
		{
			name: "try finally",
			fn: tk.Fn("f", nil, &estree.TryStatement{
				Block:     tk.Block(),
				Finalizer: tk.Block(),
			}),
			code: diag.TodoTryFinally,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, bag := lower(t, tt.fn)
			if !hasCode(bag, tt.code) {
				t.Fatalf("want %s, got %v", tt.code, bag.Items())
			}
		})
	}
}

func TestUnsupportedSyntaxIsRecorded(t *testing.T) {
	f, bag := lower(t, tk.Fn("f", nil, tk.Expr(&estree.ThisExpression{})))
	if !bag.HasTodos() {
		t.Fatalf("expected a todo diagnostic")
	}
	var unsupported int
	f.Body.EachInstruction(func(_ *hir.BasicBlock, instr *hir.Instruction) {
		if instr.Value.Kind == hir.ValueUnsupported {
			unsupported++
		}
	})
	if unsupported != 1 {
		t.Fatalf("want one unsupported instruction, got %d", unsupported)
	}
}

func TestLabeledBreakLeavesOuterLoop(t *testing.T) {
	f, bag := lower(t, tk.Fn("f", []string{"a", "b"},
		tk.Labeled("outer", tk.While(tk.Ident("a"), tk.Block(
			tk.While(tk.Ident("b"), tk.Block(tk.Break("outer"))),
		))),
		tk.Return(tk.Null()),
	))
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	outer := f.Body.Block(f.Body.Entry).Terminal
	if outer.Kind != hir.TermWhile {
		t.Fatalf("entry terminal = %s, want While", outer.Kind)
	}
	found := false
	for _, id := range f.Body.Order {
		term := f.Body.Block(id).Terminal
		if term.Kind == hir.TermGoto && term.Goto.Variant == hir.GotoBreak && term.Goto.Block == outer.Fallthrough {
			found = true
		}
	}
	if !found {
		t.Fatalf("no break to bb%d\n%s", outer.Fallthrough, hir.DumpString(f, hir.DumpOptions{}))
	}
}

func TestLabeledBlockBreak(t *testing.T) {
	_, bag := lower(t, tk.Fn("f", []string{"a"},
		tk.Let("x", tk.Num(0)),
		tk.Labeled("done", tk.Block(
			tk.If(tk.Ident("a"), tk.Break("done"), nil),
			tk.Expr(tk.Assign(tk.Ident("x"), tk.Num(1))),
		)),
		tk.Return(tk.Ident("x")),
	))
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
}

func TestUnknownLabelIsInvalid(t *testing.T) {
	_, bag := lower(t, tk.Fn("f", nil,
		tk.While(tk.Bool(true), tk.Block(tk.Break("missing"))),
	))
	if !hasCode(bag, diag.InvalidBreakTarget) {
		t.Fatalf("expected %s, got %v", diag.InvalidBreakTarget.ID(), bag.Items())
	}
}

// firstInstr returns the first instruction of kind in block order.
func firstInstr(f *hir.Function, kind hir.ValueKind) *hir.Instruction {
	var found *hir.Instruction
	f.Body.EachInstruction(func(_ *hir.BasicBlock, instr *hir.Instruction) {
		if found == nil && instr.Value.Kind == kind {
			found = instr
		}
	})
	return found
}

func TestOperandsKeepEvaluationOrder(t *testing.T) {
	tests := []struct {
		name     string
		expr     estree.Node
		kind     hir.ValueKind
		operand  func(v *hir.InstrValue) hir.Place
		wantCopy bool
	}{
		{
			name:     "binary with later assignment",
			expr:     tk.Bin("+", tk.Ident("x"), tk.Assign(tk.Ident("x"), tk.Num(2))),
			kind:     hir.ValueBinary,
			operand:  func(v *hir.InstrValue) hir.Place { return v.Binary.Left },
			wantCopy: true,
		},
		{
			name:     "call argument before update",
			expr:     tk.Call(tk.Ident("foo"), tk.Ident("x"), tk.Update("++", false, tk.Ident("x"))),
			kind:     hir.ValueCall,
			operand:  func(v *hir.InstrValue) hir.Place { return v.Call.Args[0].Place },
			wantCopy: true,
		},
		{
			name:     "call argument before assignment",
			expr:     tk.Call(tk.Ident("foo"), tk.Ident("x"), tk.Assign(tk.Ident("x"), tk.Num(2))),
			kind:     hir.ValueCall,
			operand:  func(v *hir.InstrValue) hir.Place { return v.Call.Args[0].Place },
			wantCopy: true,
		},
		{
			name:     "array element before assignment",
			expr:     tk.Arr(tk.Ident("x"), tk.Assign(tk.Ident("x"), tk.Num(2))),
			kind:     hir.ValueArray,
			operand:  func(v *hir.InstrValue) hir.Place { return v.Array.Elements[0].Place },
			wantCopy: true,
		},
		{
			name:    "plain read",
			expr:    tk.Bin("+", tk.Ident("x"), tk.Num(2)),
			kind:    hir.ValueBinary,
			operand: func(v *hir.InstrValue) hir.Place { return v.Binary.Left },
		},
		{
			name:    "write to another binding",
			expr:    tk.Bin("+", tk.Ident("x"), tk.Assign(tk.Ident("z"), tk.Num(2))),
			kind:    hir.ValueBinary,
			operand: func(v *hir.InstrValue) hir.Place { return v.Binary.Left },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _ := lower(t, tk.Fn("f", nil,
				tk.Let("x", tk.Num(1)),
				tk.Let("z", tk.Num(0)),
				tk.Return(tt.expr),
			))
			instr := firstInstr(f, tt.kind)
			if instr == nil {
				t.Fatalf("no %s instruction\n%s", tt.kind, hir.DumpString(f, hir.DumpOptions{}))
			}
			op := tt.operand(&instr.Value)
			if got := op.Identifier.IsTemporary(); got != tt.wantCopy {
				t.Fatalf("operand %s temporary = %v, want %v\n%s", op.Identifier, got, tt.wantCopy, hir.DumpString(f, hir.DumpOptions{}))
			}
		})
	}
}

func TestTryBodyWritesReachHandler(t *testing.T) {
	f, bag := lower(t, tk.Fn("f", nil,
		tk.Let("x", tk.Num(1)),
		tk.Try(tk.Block(
			tk.Expr(tk.Assign(tk.Ident("x"), tk.Num(2))),
			tk.Expr(tk.Call(tk.Ident("foo"))),
		), "e", tk.Block(tk.Return(tk.Ident("x")))),
		tk.Return(tk.Null()),
	))
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	entry := f.Body.Block(f.Body.Entry)
	if entry.Terminal.Kind != hir.TermTry {
		t.Fatalf("entry terminal = %s, want Try", entry.Terminal.Kind)
	}
	handler := f.Body.Block(entry.Terminal.Try.Handler)
	if len(handler.Preds) != 2 || !handler.HasPred(entry.ID) {
		t.Fatalf("handler preds = %v\n%s", handler.Preds, hir.DumpString(f, hir.DumpOptions{}))
	}
	for _, pred := range handler.Preds {
		if pred == entry.ID {
			continue
		}
		term := f.Body.Block(pred).Terminal
		if term.Kind != hir.TermMaybeThrow || term.MaybeThrow.Handler != handler.ID {
			t.Fatalf("bb%d terminal = %s, want MaybeThrow to the handler", pred, term.Kind)
		}
	}
}

func TestTryBodyWithoutWritesHasNoMaybeThrow(t *testing.T) {
	f, _ := lower(t, tk.Fn("f", nil,
		tk.Try(tk.Block(tk.Expr(tk.Call(tk.Ident("foo")))), "", tk.Block()),
	))
	for _, blk := range f.Body.Ordered() {
		if blk.Terminal.Kind == hir.TermMaybeThrow {
			t.Fatalf("unexpected MaybeThrow in bb%d", blk.ID)
		}
	}
}

func TestCapturedReassignIsTodo(t *testing.T) {
	tests := []struct {
		name string
		body estree.Node
		want bool
	}{
		{"assign", tk.Block(tk.Expr(tk.Assign(tk.Ident("x"), tk.Num(2)))), true},
		{"compound assign", tk.AssignOp("+=", tk.Ident("x"), tk.Num(2)), true},
		{"update", tk.Update("++", true, tk.Ident("x")), true},
		{"read only", tk.Bin("+", tk.Ident("x"), tk.Num(1)), false},
		{"shadowed", tk.Block(tk.Let("x", tk.Num(3)), tk.Expr(tk.Assign(tk.Ident("x"), tk.Num(2)))), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, bag := lower(t, tk.Fn("f", nil,
				tk.Let("x", tk.Num(1)),
				tk.Const("g", tk.Arrow(nil, tt.body)),
				tk.Expr(tk.Call(tk.Ident("g"))),
				tk.Return(tk.Ident("x")),
			))
			if got := hasCode(bag, diag.TodoContextAssign); got != tt.want {
				t.Fatalf("todo reported = %v, want %v: %v", got, tt.want, bag.Items())
			}
		})
	}
}

func TestDuplicateDeclarationPointsAtFirst(t *testing.T) {
	first := tk.Let("x", nil)
	_, bag := lower(t, tk.Fn("f", nil, first, tk.Let("x", nil)))
	want := first.Declarations[0].ID.Span()
	found := false
	for _, d := range bag.Items() {
		if d.Code != diag.InvalidDuplicateBinding {
			continue
		}
		found = true
		if len(d.Notes) != 1 || d.Notes[0].Span != want {
			t.Fatalf("notes = %+v, want one at %v", d.Notes, want)
		}
	}
	if !found {
		t.Fatalf("no duplicate declaration reported: %v", bag.Items())
	}
}

func TestFunctionDeclarationsAreHoisted(t *testing.T) {
	f, bag := lower(t, tk.Fn("f", nil,
		tk.Return(tk.Call(tk.Ident("g"))),
		tk.Fn("g", nil, tk.Return(tk.Num(1))),
	))
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	entry := f.Body.Block(f.Body.Entry)
	var define, call *hir.Instruction
	for _, instr := range entry.Instructions {
		switch instr.Value.Kind {
		case hir.ValueFunction:
			define = instr
		case hir.ValueCall:
			call = instr
		}
	}
	if define == nil || call == nil {
		t.Fatalf("expected g to be defined and called in the entry block\n%s", hir.DumpString(f, hir.DumpOptions{}))
	}
	if define.ID > call.ID {
		t.Fatalf("g is defined at %d, after its call at %d", define.ID, call.ID)
	}
	if call.Value.Call.Callee.Identifier != define.Lvalue.Identifier {
		t.Fatalf("call reads %s, want %s", call.Value.Call.Callee.Identifier, define.Lvalue.Identifier)
	}
	if n := len(f.Nested()); n != 1 {
		t.Fatalf("nested functions = %d, want 1", n)
	}
}
