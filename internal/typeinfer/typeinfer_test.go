package typeinfer_test

import (
	"context"
	"testing"

	"forget/internal/diag"
	"forget/internal/hir"
	"forget/internal/shapes"
	"forget/internal/ssa"
	tk "forget/internal/testkit"
	"forget/internal/typeinfer"
)

func tv(id hir.TypeVarID) *hir.TypeVar { return &hir.TypeVar{ID: id} }

func TestOccursCheckRaisesCycle(t *testing.T) {
	u := typeinfer.NewUnifier(shapes.New())
	t0 := tv(0)
	_, err := u.Solve([]typeinfer.Equation{
		typeinfer.TypeEquation{Left: t0, Right: &hir.PhiType{Operands: []hir.Type{t0, hir.PrimitiveType{}}}},
	})
	if err == nil {
		t.Fatalf("expected a cycle error")
	}
	if !diag.IsInvariant(err) {
		t.Fatalf("cycle should be an invariant violation, got %v", err)
	}
}

func TestSolveIsConfluent(t *testing.T) {
	reg := shapes.Default()
	vars := []*hir.TypeVar{tv(1), tv(2), tv(3), tv(4), tv(5), tv(6), tv(7)}
	eqs := []typeinfer.Equation{
		typeinfer.TypeEquation{Left: vars[0], Right: &hir.ObjectType{ShapeID: shapes.BuiltInArray}},
		typeinfer.PropertyEquation{Left: vars[1], Object: vars[0], Property: "push"},
		typeinfer.CallReturnEquation{Left: vars[2], Callee: vars[1]},
		typeinfer.TypeEquation{Left: vars[3], Right: hir.PrimitiveType{}},
		typeinfer.TypeEquation{Left: vars[4], Right: &hir.PhiType{Operands: []hir.Type{vars[2], vars[3]}}},
		typeinfer.TypeEquation{Left: vars[5], Right: vars[4]},
		typeinfer.PropertyEquation{Left: vars[6], Object: vars[0], Property: "missing"},
	}
	orders := [][]int{
		{0, 1, 2, 3, 4, 5, 6},
		{6, 5, 4, 3, 2, 1, 0},
		{4, 2, 5, 0, 6, 1, 3},
		{1, 3, 5, 2, 0, 4, 6},
	}
	var baseline []string
	for i, order := range orders {
		permuted := make([]typeinfer.Equation, len(order))
		for j, k := range order {
			permuted[j] = eqs[k]
		}
		u := typeinfer.NewUnifier(reg)
		if _, err := u.Solve(permuted); err != nil {
			t.Fatalf("order %v: %v", order, err)
		}
		got := make([]string, len(vars))
		for j, v := range vars {
			got[j] = u.Resolve(v).String()
		}
		if i == 0 {
			baseline = got
			continue
		}
		for j := range got {
			if got[j] != baseline[j] {
				t.Fatalf("order %v: %s resolved to %s, baseline %s", order, vars[j], got[j], baseline[j])
			}
		}
	}
	if baseline[5] != "Primitive" {
		t.Fatalf("T6 = %s, want Primitive", baseline[5])
	}
	if baseline[6] != "T7" {
		t.Fatalf("unknown property should stay unresolved, got %s", baseline[6])
	}
}

func TestLazyEquationsWaitForTheirObject(t *testing.T) {
	u := typeinfer.NewUnifier(shapes.Default())
	obj, prop, ret := tv(1), tv(2), tv(3)
	deferred, err := u.Solve([]typeinfer.Equation{
		typeinfer.PropertyEquation{Left: prop, Object: obj, Property: "1"},
		typeinfer.CallReturnEquation{Left: obj, Callee: ret},
		typeinfer.TypeEquation{Left: ret, Right: &hir.HookType{Definition: &hir.HookDefinition{
			Name: "useState", Return: &hir.ObjectType{ShapeID: shapes.BuiltInUseState},
		}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(deferred) != 0 {
		t.Fatalf("deferred equations left: %v", deferred)
	}
	got, ok := u.Resolve(prop).(*hir.FunctionType)
	if !ok || got.ShapeID != shapes.BuiltInSetState {
		t.Fatalf("useState()[1] = %s, want the setState function", u.Resolve(prop))
	}
}

func TestUnsolvableLazyEquationIsReturned(t *testing.T) {
	u := typeinfer.NewUnifier(shapes.Default())
	deferred, err := u.Solve([]typeinfer.Equation{
		typeinfer.PropertyEquation{Left: tv(2), Object: tv(1), Property: "x"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(deferred) != 1 {
		t.Fatalf("want the property equation back, got %v", deferred)
	}
}

func TestPolyNeverBinds(t *testing.T) {
	u := typeinfer.NewUnifier(shapes.New())
	v := tv(1)
	if err := u.Unify(v, hir.PolyType{}); err != nil {
		t.Fatal(err)
	}
	if err := u.Unify(v, hir.PrimitiveType{}); err != nil {
		t.Fatal(err)
	}
	if got := u.Resolve(v); !hir.IsPrimitive(got) {
		t.Fatalf("got %s, want Primitive", got)
	}
}

func typesNamed(f *hir.Function, name string) []hir.Type {
	var out []hir.Type
	for _, id := range f.Identifiers() {
		if id.Name == name {
			out = append(out, id.Type)
		}
	}
	return out
}

func TestInferTypesEndToEnd(t *testing.T) {
	f := tk.Lower(t, tk.Fn("Component", []string{"props"},
		tk.Const("state", tk.Call(tk.Ident("useState"), tk.Num(0))),
		tk.Const("setState", tk.Index(tk.Ident("state"), tk.Num(1))),
		tk.Const("items", tk.Arr()),
		tk.Const("n", tk.Call(tk.Member(tk.Ident("items"), "push"), tk.Num(1))),
		tk.Const("m", tk.Call(tk.Member(tk.Ident("Math"), "max"), tk.Ident("n"), tk.Num(2))),
		tk.Return(tk.Ident("setState")),
	))
	ctx := context.Background()
	if err := ssa.EnterSSA(ctx, f); err != nil {
		t.Fatal(err)
	}
	if err := typeinfer.InferTypes(ctx, f); err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"state":    "Object<BuiltInUseState>",
		"setState": "Function<BuiltInSetState>():Primitive",
		"items":    "Object<BuiltInArray>",
		"n":        "Primitive",
		"m":        "Primitive",
	}
	for name, w := range want {
		got := typesNamed(f, name)
		if len(got) == 0 {
			t.Fatalf("no identifier named %s", name)
		}
		for _, typ := range got {
			if typ.String() != w {
				t.Errorf("%s: got %s, want %s", name, typ, w)
			}
		}
	}
}

func TestLoopPhiCollapsesToPrimitive(t *testing.T) {
	f := tk.Lower(t, tk.Fn("f", []string{"n"},
		tk.Let("i", tk.Num(0)),
		tk.While(tk.Bin("<", tk.Ident("i"), tk.Ident("n")),
			tk.Block(tk.Expr(tk.Assign(tk.Ident("i"), tk.Bin("+", tk.Ident("i"), tk.Num(1)))))),
		tk.Return(tk.Ident("i")),
	))
	ctx := context.Background()
	if err := ssa.EnterSSA(ctx, f); err != nil {
		t.Fatal(err)
	}
	ssa.EliminateRedundantPhis(ctx, f)
	if err := typeinfer.InferTypes(ctx, f); err != nil {
		t.Fatal(err)
	}
	for _, typ := range typesNamed(f, "i") {
		if !hir.IsPrimitive(typ) {
			t.Fatalf("i: got %s, want Primitive", typ)
		}
	}
}
