package optimize

import (
	"context"
	"fmt"
	"slices"

	"forget/internal/hir"
	"forget/internal/trace"
)

// InlineUseMemo replaces useMemo(callback, deps) calls whose callback is a
// function expression written in place by the callback's body. Only
// callbacks without parameters whose body is a single block ending in a
// return are inlined; the call's lvalue then copies the returned value
// and the dependency list is dropped from the call. f must be in SSA form
// and its nested functions already lowered through their own passes. It
// returns the number of inlined calls.
func InlineUseMemo(ctx context.Context, f *hir.Function) (int, error) {
	sp := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "inline_use_memo", trace.CurrentSpan(ctx))
	defs := make(map[*hir.Identifier]*hir.Instruction)
	uses := make(map[*hir.Identifier]int)
	for _, blk := range f.Body.Ordered() {
		for _, phi := range blk.Phis {
			for _, op := range phi.Operands {
				uses[op]++
			}
		}
		for _, instr := range blk.Instructions {
			if instr.Lvalue != nil {
				defs[instr.Lvalue.Identifier] = instr
			}
			instr.EachOperand(func(p *hir.Place) { uses[p.Identifier]++ })
		}
		for _, p := range blk.Terminal.Operands() {
			uses[p.Identifier]++
		}
	}

	inlined := 0
	for _, blk := range f.Body.Ordered() {
		for i := 0; i < len(blk.Instructions); i++ {
			call := blk.Instructions[i]
			args := memoArgs(call, defs)
			if len(args) == 0 {
				continue
			}
			at := memoCallback(blk, i, args[0], uses)
			if at < 0 {
				continue
			}
			body := inlineBody(f.Env, blk.Instructions[at], call)
			if body == nil {
				continue
			}
			// drop the function expression, then splice the body ahead of the call
			blk.Instructions = slices.Delete(blk.Instructions, at, at+1)
			i--
			blk.Instructions = slices.Insert(blk.Instructions, i, body...)
			i += len(body)
			inlined++
		}
	}
	var err error
	if inlined > 0 {
		err = f.Body.NumberInstructions()
	}
	sp.End(fmt.Sprintf("inlined=%d", inlined))
	return inlined, err
}

// memoArgs returns the arguments of instr when it calls the useMemo hook,
// directly or as React.useMemo.
func memoArgs(instr *hir.Instruction, defs map[*hir.Identifier]*hir.Instruction) []hir.Argument {
	if instr.Lvalue == nil {
		return nil
	}
	switch instr.Value.Kind {
	case hir.ValueCall:
		callee := defs[instr.Value.Call.Callee.Identifier]
		if callee == nil {
			return nil
		}
		switch {
		case callee.Value.Kind == hir.ValueLoadGlobal && callee.Value.Global == "useMemo":
			return instr.Value.Call.Args
		case callee.Value.Kind == hir.ValuePropertyLoad && callee.Value.Property.Property == "useMemo" &&
			isReact(defs[callee.Value.Property.Object.Identifier]):
			return instr.Value.Call.Args
		}
	case hir.ValueMethodCall:
		mc := instr.Value.MethodCall
		if mc.Property == "useMemo" && isReact(defs[mc.Receiver.Identifier]) {
			return mc.Args
		}
	}
	return nil
}

func isReact(def *hir.Instruction) bool {
	return def != nil && def.Value.Kind == hir.ValueLoadGlobal && def.Value.Global == "React"
}

// memoCallback returns the index of the function expression passed as the
// first argument of the useMemo call at index i, or -1. The expression
// must precede the call in the same block, be used only by the call, and
// no named binding may be redefined between the two.
func memoCallback(blk *hir.BasicBlock, i int, arg hir.Argument, uses map[*hir.Identifier]int) int {
	if arg.Spread || uses[arg.Place.Identifier] != 1 {
		return -1
	}
	for at := i - 1; at >= 0; at-- {
		instr := blk.Instructions[at]
		if instr.Lvalue == nil {
			continue
		}
		if instr.Lvalue.Identifier == arg.Place.Identifier {
			if instr.Value.Kind != hir.ValueFunction {
				return -1
			}
			return at
		}
		if !instr.Lvalue.Identifier.IsTemporary() {
			return -1
		}
	}
	return -1
}

// inlineBody moves the body of the callback defined by fnInstr into the
// caller and turns call into a copy of its result. It returns nil and
// leaves both functions untouched when the callback is not inlinable.
func inlineBody(env *hir.Environment, fnInstr, call *hir.Instruction) []*hir.Instruction {
	value := fnInstr.Value.Function
	inner := value.Func
	if inner == nil || len(inner.Params) > 0 || inner.Async || inner.Generator ||
		len(inner.Context) != len(value.Context) || len(inner.Body.Order) != 1 {
		return nil
	}
	entry := inner.Body.Block(inner.Body.Entry)
	if entry == nil || entry.Terminal.Kind != hir.TermReturn || len(entry.Phis) > 0 {
		return nil
	}

	rename := make(map[*hir.Identifier]*hir.Identifier, len(inner.Context))
	for k := range inner.Context {
		rename[inner.Context[k].Identifier] = value.Context[k].Identifier
	}
	for _, instr := range entry.Instructions {
		if instr.Lvalue == nil {
			continue
		}
		if _, captured := rename[instr.Lvalue.Identifier]; captured {
			return nil
		}
	}

	remap := func(p *hir.Place) {
		if next, ok := rename[p.Identifier]; ok {
			p.Identifier = next
		}
	}
	body := entry.Instructions
	for _, instr := range body {
		instr.EachOperand(remap)
		if instr.Lvalue != nil {
			old := instr.Lvalue.Identifier
			fresh := env.NewIdentifier(old.Name, old.Span)
			rename[old] = fresh
			instr.Lvalue.Identifier = fresh
		}
	}
	result := entry.Terminal.Operand
	remap(&result)
	result.Effect = hir.EffectRead
	call.Value = hir.InstrValue{Kind: hir.ValuePlace, Place: result}
	entry.Instructions = nil
	return body
}
