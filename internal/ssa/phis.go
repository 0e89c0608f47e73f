package ssa

import (
	"context"
	"fmt"

	"forget/internal/hir"
	"forget/internal/trace"
	"forget/internal/unionfind"
)

// EliminateRedundantPhis removes phis whose operands are all either the
// phi itself or one other identifier, rewriting uses of the phi to that
// identifier. Loops can make one removal expose another, so the walk
// repeats until nothing changes.
func EliminateRedundantPhis(ctx context.Context, f *hir.Function) {
	sp := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "eliminate_redundant_phis", trace.CurrentSpan(ctx))
	rewrites := make(map[*hir.Identifier]*hir.Identifier)
	resolve := func(id *hir.Identifier) *hir.Identifier {
		for {
			next, ok := rewrites[id]
			if !ok {
				return id
			}
			id = next
		}
	}
	rewrite := func(p *hir.Place) { p.Identifier = resolve(p.Identifier) }

	for {
		before := len(rewrites)
		for _, blk := range f.Body.Ordered() {
			kept := blk.Phis[:0]
			for _, phi := range blk.Phis {
				for pred, op := range phi.Operands {
					phi.Operands[pred] = resolve(op)
				}
				if same := singleOperand(phi); same != nil {
					rewrites[phi.Place.Identifier] = same
					continue
				}
				kept = append(kept, phi)
			}
			clear(blk.Phis[len(kept):])
			blk.Phis = kept

			for _, instr := range blk.Instructions {
				instr.EachOperand(rewrite)
			}
			for _, p := range blk.Terminal.Operands() {
				rewrite(p)
			}
		}
		if len(rewrites) == before {
			break
		}
	}
	sp.End(fmt.Sprintf("removed=%d", len(rewrites)))
}

// singleOperand returns the only identifier other than the phi itself
// flowing into phi, or nil when there are several.
func singleOperand(phi *hir.Phi) *hir.Identifier {
	var same *hir.Identifier
	for _, pred := range phi.SortedOperands() {
		op := phi.Operands[pred]
		if op == phi.Place.Identifier || op == same {
			continue
		}
		if same != nil {
			return nil
		}
		same = op
	}
	return same
}

// LeaveSSA coalesces every phi with its operands into one identifier and
// drops the phis. Places are rewritten to the representative of their
// set, which is the phi's own identifier for the first phi of the set.
func LeaveSSA(ctx context.Context, f *hir.Function) {
	sp := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "leave_ssa", trace.CurrentSpan(ctx))
	sets := unionfind.New[*hir.Identifier]()
	var phis int
	for _, blk := range f.Body.Ordered() {
		for _, phi := range blk.Phis {
			items := []*hir.Identifier{phi.Place.Identifier}
			for _, pred := range phi.SortedOperands() {
				items = append(items, phi.Operands[pred])
			}
			sets.Union(items...)
			phis++
		}
		blk.Phis = nil
	}

	canonical := func(p *hir.Place) {
		if root, ok := sets.Find(p.Identifier); ok {
			p.Identifier = root
		}
	}
	for i := range f.Params {
		canonical(&f.Params[i])
	}
	for i := range f.Context {
		canonical(&f.Context[i])
	}
	for _, blk := range f.Body.Ordered() {
		for _, instr := range blk.Instructions {
			if instr.Lvalue != nil {
				canonical(instr.Lvalue)
			}
			instr.EachOperand(canonical)
		}
		for _, p := range blk.Terminal.Operands() {
			canonical(p)
		}
	}
	sp.End(fmt.Sprintf("phis=%d sets=%d", phis, len(sets.Sets())))
}
