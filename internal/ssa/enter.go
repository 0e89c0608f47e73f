package ssa

import (
	"context"
	"fmt"

	"forget/internal/diag"
	"forget/internal/hir"
	"forget/internal/trace"
)

type incompletePhi struct {
	old   *hir.Identifier
	fresh *hir.Identifier
}

type blockState struct {
	defs       map[*hir.Identifier]*hir.Identifier
	incomplete []incompletePhi
}

type converter struct {
	f      *hir.Function
	env    *hir.Environment
	tracer trace.Tracer
	span   uint64

	states        map[hir.BlockID]*blockState
	visited       map[hir.BlockID]bool
	unsealedPreds map[hir.BlockID]int
	current       *hir.BasicBlock
	phis          int
}

// EnterSSA rewrites f in place so that every identifier has a single
// static definition. Blocks are visited once each in f.Body.Order; a
// block seen twice is an invariant violation.
func EnterSSA(ctx context.Context, f *hir.Function) error {
	tracer := trace.FromContext(ctx)
	sp := trace.Begin(tracer, trace.ScopePass, "enter_ssa", trace.CurrentSpan(ctx))
	c := &converter{
		f:             f,
		env:           f.Env,
		tracer:        tracer,
		span:          sp.ID(),
		states:        make(map[hir.BlockID]*blockState, len(f.Body.Order)),
		visited:       make(map[hir.BlockID]bool, len(f.Body.Order)),
		unsealedPreds: make(map[hir.BlockID]int, len(f.Body.Order)),
	}
	err := c.run()
	sp.End(fmt.Sprintf("phis=%d", c.phis))
	return err
}

func (c *converter) run() error {
	for _, id := range c.f.Body.Order {
		blk := c.f.Body.Block(id)
		if blk == nil {
			return diag.Invariantf(c.f.Span, diag.InvariantMalformedCFG, "enter ssa: bb%d is not in the block map", id)
		}
		if c.visited[id] {
			return diag.Invariantf(blk.Terminal.Span, diag.InvariantVisitCycle, "enter ssa: bb%d visited twice", id)
		}
		c.visited[id] = true
		c.current = blk
		c.state(id)

		if id == c.f.Body.Entry {
			for i := range c.f.Params {
				c.define(&c.f.Params[i])
			}
			for i := range c.f.Context {
				c.define(&c.f.Context[i])
			}
		}

		for _, instr := range blk.Instructions {
			instr.EachOperand(c.use)
			if instr.Lvalue != nil {
				c.define(instr.Lvalue)
			}
		}
		for _, p := range blk.Terminal.Operands() {
			c.use(p)
		}

		for _, succID := range blk.Terminal.Successors() {
			succ := c.f.Body.Block(succID)
			count, seen := c.unsealedPreds[succID]
			if !seen {
				count = len(succ.Preds)
			}
			count--
			c.unsealedPreds[succID] = count
			if count == 0 && c.visited[succID] {
				c.seal(succ)
			}
		}
	}
	return nil
}

func (c *converter) state(id hir.BlockID) *blockState {
	s, ok := c.states[id]
	if !ok {
		s = &blockState{defs: make(map[*hir.Identifier]*hir.Identifier)}
		c.states[id] = s
	}
	return s
}

func (c *converter) fresh(old *hir.Identifier) *hir.Identifier {
	return c.env.NewIdentifier(old.Name, old.Span)
}

func (c *converter) define(p *hir.Place) {
	old := p.Identifier
	next := c.fresh(old)
	c.state(c.current.ID).defs[old] = next
	p.Identifier = next
}

func (c *converter) use(p *hir.Place) {
	p.Identifier = c.lookup(p.Identifier, c.current.ID)
}

// lookup returns the version of old that reaches the end of block id.
func (c *converter) lookup(old *hir.Identifier, id hir.BlockID) *hir.Identifier {
	st := c.state(id)
	if v, ok := st.defs[old]; ok {
		return v
	}
	blk := c.f.Body.Block(id)
	if len(blk.Preds) == 0 {
		// never defined on any path: a global or an uninitialized hoisted binding
		return old
	}
	if c.unsealedPreds[id] > 0 {
		next := c.fresh(old)
		st.incomplete = append(st.incomplete, incompletePhi{old: old, fresh: next})
		st.defs[old] = next
		if c.tracer.Level().ShouldEmit(trace.ScopeBlock) {
			trace.Point(c.tracer, trace.ScopeBlock, "incomplete_phi",
				fmt.Sprintf("bb%d %s -> %s", id, old, next), c.span)
		}
		return next
	}
	if len(blk.Preds) == 1 {
		v := c.lookup(old, blk.Preds[0])
		st.defs[old] = v
		return v
	}
	next := c.fresh(old)
	// cache before recursing so cycles through this block stop here
	st.defs[old] = next
	c.addPhi(blk, old, next)
	return next
}

func (c *converter) addPhi(blk *hir.BasicBlock, old, next *hir.Identifier) {
	operands := make(map[hir.BlockID]*hir.Identifier, len(blk.Preds))
	for _, pred := range blk.Preds {
		operands[pred] = c.lookup(old, pred)
	}
	blk.Phis = append(blk.Phis, &hir.Phi{
		Place:    hir.Place{Identifier: next, Span: old.Span},
		Operands: operands,
	})
	c.phis++
}

// seal completes the placeholder phis of a block once all of its
// predecessors have been processed.
func (c *converter) seal(blk *hir.BasicBlock) {
	st := c.state(blk.ID)
	if c.tracer.Level().ShouldEmit(trace.ScopeBlock) {
		trace.Point(c.tracer, trace.ScopeBlock, "seal",
			fmt.Sprintf("bb%d incomplete=%d", blk.ID, len(st.incomplete)), c.span)
	}
	for _, inc := range st.incomplete {
		c.addPhi(blk, inc.old, inc.fresh)
	}
	st.incomplete = nil
}
