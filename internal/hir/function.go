package hir

import (
	"forget/internal/diag"
	"forget/internal/source"
)

// Function is one lowered function. Nested function expressions own their
// own Function; identifiers are never shared between functions.
type Function struct {
	Name      string
	Span      source.Span
	Params    []Place
	Context   []Place // captured outer bindings, defined at entry like params
	Body      HIR
	Scopes    []*ReactiveScope
	Env       *Environment
	Async     bool
	Generator bool

	Diagnostics *diag.Bag
}

// Scope resolves a scope key.
func (f *Function) Scope(id ScopeID) *ReactiveScope {
	if !id.Valid() {
		return nil
	}
	for _, s := range f.Scopes {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Nested returns the functions of every Function instruction, in order.
func (f *Function) Nested() []*Function {
	var out []*Function
	f.Body.EachInstruction(func(_ *BasicBlock, instr *Instruction) {
		if instr.Value.Kind == ValueFunction && instr.Value.Function.Func != nil {
			out = append(out, instr.Value.Function.Func)
		}
	})
	return out
}

// Identifiers returns every identifier referenced by the function body:
// params, context, lvalues, phis and operands, in first-seen order.
func (f *Function) Identifiers() []*Identifier {
	seen := make(map[*Identifier]struct{})
	var out []*Identifier
	add := func(id *Identifier) {
		if id == nil {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, p := range f.Params {
		add(p.Identifier)
	}
	for _, p := range f.Context {
		add(p.Identifier)
	}
	for _, b := range f.Body.Ordered() {
		for _, phi := range b.Phis {
			add(phi.Place.Identifier)
			for _, pred := range phi.SortedOperands() {
				add(phi.Operands[pred])
			}
		}
		for _, instr := range b.Instructions {
			if instr.Lvalue != nil {
				add(instr.Lvalue.Identifier)
			}
			for _, op := range instr.Value.Operands() {
				add(op.Identifier)
			}
		}
		for _, op := range b.Terminal.Operands() {
			add(op.Identifier)
		}
	}
	return out
}
