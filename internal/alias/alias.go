// Package alias approximates which identifiers may refer to the same
// object. The analysis walks instructions once in block order; values
// flowing around loops are not revisited, and member paths deeper than
// one level are ignored.
package alias

import (
	"context"
	"fmt"

	"forget/internal/hir"
	"forget/internal/trace"
	"forget/internal/unionfind"
)

// value is the abstract value of an identifier: either an opaque primitive
// or an object whose known fields have their own abstract values.
type value struct {
	primitive bool
	fields    map[string]*value
}

func newObject() *value { return &value{fields: make(map[string]*value)} }

var primitiveValue = &value{primitive: true}

type analysis struct {
	values  map[*hir.Identifier]*value
	aliases *unionfind.DisjointSet[*hir.Identifier]
}

// InferAliases returns the alias sets of f. f must be out of SSA form.
func InferAliases(ctx context.Context, f *hir.Function) *unionfind.DisjointSet[*hir.Identifier] {
	sp := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "infer_aliases", trace.CurrentSpan(ctx))
	a := &analysis{
		values:  make(map[*hir.Identifier]*value),
		aliases: unionfind.New[*hir.Identifier](),
	}
	for _, blk := range f.Body.Ordered() {
		for _, instr := range blk.Instructions {
			a.instruction(instr)
		}
	}
	sp.End(fmt.Sprintf("sets=%d", len(a.aliases.Sets())))
	return a.aliases
}

// read returns the abstract value of id, materializing an empty object
// for identifiers not seen yet unless their type is primitive.
func (a *analysis) read(id *hir.Identifier) *value {
	if v, ok := a.values[id]; ok {
		return v
	}
	v := newObject()
	if hir.IsPrimitive(id.Type) {
		v = primitiveValue
	}
	a.values[id] = v
	return v
}

func (a *analysis) field(obj *value, name string) *value {
	if obj.primitive {
		return primitiveValue
	}
	if v, ok := obj.fields[name]; ok {
		return v
	}
	v := newObject()
	obj.fields[name] = v
	return v
}

// assign records lvalue = v read from source, aliasing the two unless
// the value is primitive.
func (a *analysis) assign(lvalue, source *hir.Identifier, v *value) {
	a.values[lvalue] = v
	if !v.primitive {
		a.aliases.Union(lvalue, source)
	}
}

func (a *analysis) instruction(instr *hir.Instruction) {
	if instr.Lvalue == nil || instr.Lvalue.HasPath() {
		return
	}
	lvalue := instr.Lvalue.Identifier
	v := &instr.Value
	switch v.Kind {
	case hir.ValuePrimitive, hir.ValueBinary, hir.ValueUnary, hir.ValueTemplateLiteral, hir.ValueTypeOf,
		hir.ValuePropertyDelete, hir.ValueComputedDelete:
		a.values[lvalue] = primitiveValue
	case hir.ValuePlace:
		src := v.Place
		switch len(src.Path) {
		case 0:
			a.assign(lvalue, src.Identifier, a.read(src.Identifier))
		case 1:
			a.assign(lvalue, src.Identifier, a.field(a.read(src.Identifier), src.Path[0]))
		}
	case hir.ValuePropertyLoad:
		obj := v.Property.Object
		if obj.HasPath() {
			return
		}
		a.assign(lvalue, obj.Identifier, a.field(a.read(obj.Identifier), v.Property.Property))
	case hir.ValuePropertyStore:
		obj := v.Property.Object
		if obj.HasPath() {
			return
		}
		target := a.read(obj.Identifier)
		if !target.primitive {
			target.fields[v.Property.Property] = a.read(v.Property.Value.Identifier)
		}
	default:
		if hir.IsPrimitive(lvalue.Type) {
			a.values[lvalue] = primitiveValue
		} else {
			a.values[lvalue] = newObject()
		}
	}
}
