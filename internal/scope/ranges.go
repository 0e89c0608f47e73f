// Package scope computes mutable ranges and groups identifiers that are
// mutated together into reactive scopes.
package scope

import (
	"context"
	"fmt"

	"forget/internal/hir"
	"forget/internal/trace"
	"forget/internal/unionfind"
)

// InferMutableRanges refines call and method-call operand effects from the
// registry and assigns every identifier of f its mutable range. A range
// starts at the first definition (0 for params, context and values never
// defined here) and ends one past the last instruction that defines or
// mutates the identifier or anything aliased with it. f must be out of SSA
// form and nested functions must already be analyzed.
func InferMutableRanges(ctx context.Context, f *hir.Function, aliases *unionfind.DisjointSet[*hir.Identifier]) {
	sp := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "infer_mutable_ranges", trace.CurrentSpan(ctx))
	reg := f.Env.Registry
	defs := make(map[*hir.Identifier]hir.InstrID)
	last := make(map[*hir.Identifier]hir.InstrID)
	touch := func(id *hir.Identifier, at hir.InstrID) {
		if at > last[id] {
			last[id] = at
		}
	}

	mutations := 0
	f.Body.EachInstruction(func(_ *hir.BasicBlock, instr *hir.Instruction) {
		refineEffects(reg, &instr.Value)
		if instr.Lvalue != nil {
			id := instr.Lvalue.Identifier
			if instr.Lvalue.HasPath() {
				touch(id, instr.ID)
			} else if first, ok := defs[id]; !ok || instr.ID < first {
				defs[id] = instr.ID
			}
			touch(id, instr.ID)
		}
		for _, op := range instr.Value.Operands() {
			if op.Effect.IsMutable() {
				touch(op.Identifier, instr.ID)
				mutations++
			}
		}
	})

	// Every member of an alias set shares the latest mutation of the set.
	shared := make(map[*hir.Identifier]hir.InstrID)
	if aliases != nil {
		aliases.ForEach(func(item, root *hir.Identifier) {
			if at := last[item]; at > shared[root] {
				shared[root] = at
			}
		})
	}

	for _, id := range f.Identifiers() {
		end := last[id]
		if aliases != nil {
			if root, ok := aliases.Find(id); ok && shared[root] > end {
				end = shared[root]
			}
		}
		start := defs[id]
		r := hir.MutableRange{Start: start, End: end + 1}
		if r.End < r.Start+1 {
			r.End = r.Start + 1
		}
		id.MutableRange = r
	}
	sp.End(fmt.Sprintf("mutations=%d", mutations))
}

// refineEffects narrows the conservative effects chosen during lowering
// using the callee's signature when one is known.
func refineEffects(reg hir.Registry, v *hir.InstrValue) {
	switch v.Kind {
	case hir.ValueCall:
		sig := reg.GetFunctionSignature(v.Call.Callee.Identifier.Type)
		if sig == nil {
			return
		}
		effect := argumentEffect(sig.ArgumentEffect)
		if _, hook := v.Call.Callee.Identifier.Type.(*hir.HookType); hook && sig.ArgumentEffect == hir.EffectUnknown {
			effect = hir.EffectFreeze
		}
		for i := range v.Call.Args {
			v.Call.Args[i].Place.Effect = effect
		}
	case hir.ValueMethodCall:
		recv := &v.MethodCall.Receiver
		sig := reg.GetFunctionSignature(reg.GetPropertyType(recv.Identifier.Type, v.MethodCall.Property))
		if sig == nil {
			return
		}
		recv.Effect = argumentEffect(sig.ReceiverEffect)
		effect := argumentEffect(sig.ArgumentEffect)
		for i := range v.MethodCall.Args {
			v.MethodCall.Args[i].Place.Effect = effect
		}
	case hir.ValueFunction:
		fn := v.Function.Func
		if fn == nil || len(fn.Context) != len(v.Function.Context) {
			return
		}
		// A closure that mutates a captured value mutates it when created.
		for i := range v.Function.Context {
			if fn.Context[i].Identifier.MutableRange.End > 1 {
				v.Function.Context[i].Effect = hir.EffectMutate
			} else {
				v.Function.Context[i].Effect = hir.EffectCapture
			}
		}
	}
}

func argumentEffect(e hir.Effect) hir.Effect {
	if e == hir.EffectUnknown {
		return hir.EffectMutate
	}
	return e
}
