package scope

import (
	"context"
	"fmt"

	"forget/internal/diag"
	"forget/internal/hir"
	"forget/internal/trace"
	"forget/internal/unionfind"
)

// InferReactiveScopes groups identifiers that are mutated together and
// records one ReactiveScope per group in f.Scopes. Every member's mutable
// range is widened to its scope's range. Phis must already be gone.
func InferReactiveScopes(ctx context.Context, f *hir.Function) error {
	sp := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "infer_reactive_scopes", trace.CurrentSpan(ctx))
	for _, blk := range f.Body.Ordered() {
		if len(blk.Phis) > 0 {
			sp.End("phi")
			return diag.Invariantf(blk.Terminal.Span, diag.InvariantPhiInScopes,
				"infer reactive scopes: bb%d still has %d phi(s)", blk.ID, len(blk.Phis))
		}
	}

	sets := unionfind.New[*hir.Identifier]()
	f.Body.EachInstruction(func(_ *hir.BasicBlock, instr *hir.Instruction) {
		var members []*hir.Identifier
		if instr.Lvalue != nil {
			lv := instr.Lvalue.Identifier
			if lv.MutableRange.Len() > 1 || instr.Value.Kind.MayAllocate() {
				members = append(members, lv)
			}
		}
		for _, op := range instr.Value.Operands() {
			r := op.Identifier.MutableRange
			if r.Start > 0 && r.Contains(instr.ID) {
				members = append(members, op.Identifier)
			}
		}
		if len(members) > 0 {
			sets.Union(members...)
		}
	})

	byRoot := make(map[*hir.Identifier]*hir.ReactiveScope)
	f.Scopes = f.Scopes[:0]
	sets.ForEach(func(item, root *hir.Identifier) {
		s := byRoot[root]
		if s == nil {
			s = &hir.ReactiveScope{ID: f.Env.NextScopeID(), Range: item.MutableRange}
			byRoot[root] = s
			f.Scopes = append(f.Scopes, s)
		}
		if item.MutableRange.Start < s.Range.Start {
			s.Range.Start = item.MutableRange.Start
		}
		if item.MutableRange.End > s.Range.End {
			s.Range.End = item.MutableRange.End
		}
		s.Members = append(s.Members, item)
	})
	for _, s := range f.Scopes {
		for _, id := range s.Members {
			id.Scope = s.ID
			id.MutableRange = s.Range
		}
	}
	sp.End(fmt.Sprintf("scopes=%d", len(f.Scopes)))
	return nil
}
