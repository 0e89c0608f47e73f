package typeinfer

import (
	"context"
	"fmt"

	"forget/internal/hir"
	"forget/internal/shapes"
	"forget/internal/trace"
)

// primitiveBinaryOps always produce a primitive, whatever their operands.
var primitiveBinaryOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true, "**": true,
	"&": true, "|": true, "^": true, "<<": true, ">>": true, ">>>": true,
	"<": true, "<=": true, ">": true, ">=": true,
	"==": true, "!=": true, "===": true, "!==": true,
	"in": true, "instanceof": true,
}

// InferTypes generates equations for f, solves them against the
// environment's registry and writes the resolved type back onto every
// identifier. A cyclic binding is returned as an invariant error.
func InferTypes(ctx context.Context, f *hir.Function) error {
	tracer := trace.FromContext(ctx)
	sp := trace.Begin(tracer, trace.ScopePass, "infer_types", trace.CurrentSpan(ctx))
	eqs := Generate(f)
	u := NewUnifier(f.Env.Registry)
	deferred, err := u.Solve(eqs)
	if err != nil {
		sp.End("error")
		return err
	}
	if len(deferred) > 0 {
		trace.Point(tracer, trace.ScopePass, "unresolved_equations", fmt.Sprintf("%d", len(deferred)), sp.ID())
	}
	for _, id := range f.Identifiers() {
		id.Type = u.Resolve(id.Type)
	}
	sp.End(fmt.Sprintf("equations=%d unresolved=%d", len(eqs), len(deferred)))
	return nil
}

// Generate walks every phi and instruction once and returns the
// equations they imply, in block order.
func Generate(f *hir.Function) []Equation {
	g := generator{env: f.Env}
	for _, blk := range f.Body.Ordered() {
		for _, phi := range blk.Phis {
			ops := make([]hir.Type, 0, len(phi.Operands))
			for _, pred := range phi.SortedOperands() {
				ops = append(ops, phi.Operands[pred].Type)
			}
			g.eq(phi.Place.Identifier.Type, &hir.PhiType{Operands: ops})
		}
		for _, instr := range blk.Instructions {
			if instr.Lvalue == nil || instr.Lvalue.HasPath() {
				continue
			}
			g.instruction(instr.Lvalue.Identifier.Type, &instr.Value)
		}
	}
	return g.eqs
}

type generator struct {
	env *hir.Environment
	eqs []Equation
}

func (g *generator) eq(left, right hir.Type) {
	g.eqs = append(g.eqs, TypeEquation{Left: left, Right: right})
}

func (g *generator) property(left, object hir.Type, name string) {
	g.eqs = append(g.eqs, PropertyEquation{Left: left, Object: object, Property: name})
}

func (g *generator) callReturn(left, callee hir.Type) {
	g.eqs = append(g.eqs, CallReturnEquation{Left: left, Callee: callee})
}

// placeType returns the type of p, following its member path through
// fresh variables bound by property equations.
func (g *generator) placeType(p hir.Place) hir.Type {
	t := p.Identifier.Type
	for _, name := range p.Path {
		next := g.env.NewTypeVar()
		g.property(next, t, name)
		t = next
	}
	return t
}

func (g *generator) instruction(left hir.Type, v *hir.InstrValue) {
	switch v.Kind {
	case hir.ValuePrimitive, hir.ValueTemplateLiteral, hir.ValueUnary, hir.ValueTypeOf,
		hir.ValuePropertyDelete, hir.ValueComputedDelete:
		g.eq(left, hir.PrimitiveType{})
	case hir.ValueBinary:
		if primitiveBinaryOps[v.Binary.Op] {
			g.eq(left, hir.PrimitiveType{})
		}
	case hir.ValuePlace:
		g.eq(left, g.placeType(v.Place))
	case hir.ValueLoadGlobal:
		if glob := g.env.Registry.GetGlobalDeclaration(v.Global); glob != nil && glob.Type != nil {
			g.eq(left, glob.Type)
		}
	case hir.ValueCall:
		g.callReturn(left, g.placeType(v.Call.Callee))
	case hir.ValueMethodCall:
		method := g.env.NewTypeVar()
		g.property(method, g.placeType(v.MethodCall.Receiver), v.MethodCall.Property)
		g.callReturn(left, method)
	case hir.ValueNew:
		g.eq(left, &hir.ObjectType{})
	case hir.ValueObject:
		g.eq(left, &hir.ObjectType{ShapeID: shapes.BuiltInObject})
	case hir.ValueArray:
		g.eq(left, &hir.ObjectType{ShapeID: shapes.BuiltInArray})
	case hir.ValueJsx, hir.ValueJsxFragment:
		g.eq(left, &hir.ObjectType{ShapeID: shapes.BuiltInJsx})
	case hir.ValueFunction:
		g.eq(left, &hir.FunctionType{ShapeID: shapes.BuiltInFunction})
	case hir.ValueRegExp:
		g.eq(left, &hir.ObjectType{})
	case hir.ValuePropertyLoad:
		g.property(left, g.placeType(v.Property.Object), v.Property.Property)
	case hir.ValuePropertyStore:
		g.eq(left, g.placeType(v.Property.Value))
	case hir.ValueComputedStore:
		g.eq(left, g.placeType(v.Computed.Value))
	case hir.ValueComputedLoad, hir.ValueAwait, hir.ValueCatchParam, hir.ValueUnsupported:
	}
}
