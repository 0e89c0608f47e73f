package build

import (
	"fmt"
	"slices"

	"forget/internal/diag"
	"forget/internal/hir"
)

// finalize puts a freshly lowered graph into canonical form: blocks in
// reverse postorder with unreachable ones removed, dangling fallthroughs
// cleared, predecessors recomputed, and instructions and terminals
// numbered from 1.
func finalize(f *hir.Function) error {
	body := &f.Body
	if _, ok := body.Blocks[body.Entry]; !ok {
		return diag.Invariantf(f.Span, diag.InvariantMalformedCFG, "entry block bb%d is missing", body.Entry)
	}
	for id, blk := range body.Blocks {
		for _, succ := range blk.Terminal.Successors() {
			if _, ok := body.Blocks[succ]; !ok {
				return diag.Invariantf(blk.Terminal.Span, diag.InvariantMalformedCFG,
					"bb%d jumps to missing block bb%d", id, succ)
			}
		}
	}

	body.Order = reversePostorder(body)
	reachable := make(map[hir.BlockID]bool, len(body.Order))
	for _, id := range body.Order {
		reachable[id] = true
	}
	for id := range body.Blocks {
		if !reachable[id] {
			delete(body.Blocks, id)
		}
	}

	live := func(id hir.BlockID) hir.BlockID {
		if reachable[id] {
			return id
		}
		return hir.NoBlockID
	}
	for _, blk := range body.Ordered() {
		term := &blk.Terminal
		if term.Kind.HasFallthrough() {
			term.Fallthrough = live(term.Fallthrough)
		} else {
			term.Fallthrough = hir.NoBlockID
		}
		switch term.Kind {
		case hir.TermWhile, hir.TermFor, hir.TermDoWhile:
			term.Loop.Init = live(term.Loop.Init)
			term.Loop.Test = live(term.Loop.Test)
			term.Loop.Update = live(term.Loop.Update)
			term.Loop.Body = live(term.Loop.Body)
		}
		blk.Preds = blk.Preds[:0]
	}
	for _, blk := range body.Ordered() {
		for _, succ := range blk.Terminal.Successors() {
			body.Blocks[succ].AddPred(blk.ID)
		}
	}

	if err := body.NumberInstructions(); err != nil {
		return diag.Invariantf(f.Span, diag.InvariantMalformedCFG, "%v", err)
	}
	return nil
}

// reversePostorder walks successors depth-first, visiting them last to
// first so that the first successor comes first in the result.
func reversePostorder(body *hir.HIR) []hir.BlockID {
	type frame struct {
		id    hir.BlockID
		succs []hir.BlockID
	}
	visited := map[hir.BlockID]bool{body.Entry: true}
	var post []hir.BlockID
	stack := []frame{{id: body.Entry, succs: reversed(body.Blocks[body.Entry])}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if len(top.succs) == 0 {
			post = append(post, top.id)
			stack = stack[:len(stack)-1]
			continue
		}
		succ := top.succs[0]
		top.succs = top.succs[1:]
		if visited[succ] {
			continue
		}
		visited[succ] = true
		stack = append(stack, frame{id: succ, succs: reversed(body.Blocks[succ])})
	}
	slices.Reverse(post)
	return post
}

func reversed(blk *hir.BasicBlock) []hir.BlockID {
	if blk == nil {
		panic(fmt.Errorf("reverse postorder reached a missing block"))
	}
	succs := slices.Clone(blk.Terminal.Successors())
	slices.Reverse(succs)
	return succs
}
