// Package build lowers an estree function into HIR: a graph of basic
// blocks with explicit terminals, ordered in reverse postorder and with
// instructions numbered function-wide.
package build

import (
	"forget/internal/diag"
	"forget/internal/estree"
	"forget/internal/hir"
	"forget/internal/source"
)

// Build lowers fn. Non-fatal findings (unsupported syntax, invalid input)
// are recorded in the returned function's Diagnostics bag; fatal invariant
// violations are returned as a *diag.Error. bag may be nil, in which case a
// new bag is allocated; nested functions share their parent's bag.
func Build(env *hir.Environment, fn *estree.Function, name string, bag *diag.Bag) (*hir.Function, error) {
	if bag == nil {
		bag = diag.NewBag(0)
	}
	b := newBuilder(env, nil, bag)
	return b.build(fn, name)
}

type wipBlock struct {
	id     hir.BlockID
	kind   hir.BlockKind
	instrs []*hir.Instruction
}

// controlScope is a break/continue target: a loop, a switch or a label.
type controlScope struct {
	kind       controlKind
	label      string
	breakTo    hir.BlockID
	continueTo hir.BlockID
}

type controlKind uint8

const (
	controlLoop controlKind = iota
	controlSwitch
	controlLabel
)

type builder struct {
	env *hir.Environment
	bag *diag.Bag
	rep diag.Reporter

	completed map[hir.BlockID]*hir.BasicBlock
	current   *wipBlock
	entry     hir.BlockID

	scope    *bindingScope
	controls []controlScope
	// catch handlers of the enclosing try blocks, innermost last
	handlers []hir.BlockID
	hoisted  map[*estree.Function]bool

	// captures of a nested function: outer identifier -> local context identifier
	outer        *builder
	context      map[*hir.Identifier]*binding
	contextOrder []*hir.Identifier

	err error
}

func newBuilder(env *hir.Environment, outer *builder, bag *diag.Bag) *builder {
	b := &builder{
		env:       env,
		bag:       bag,
		rep:       diag.BagReporter{Bag: bag},
		completed: make(map[hir.BlockID]*hir.BasicBlock),
		outer:     outer,
		context:   make(map[*hir.Identifier]*binding),
		hoisted:   make(map[*estree.Function]bool),
	}
	entry := b.reserve(hir.BlockStatement)
	b.entry = entry.id
	b.current = entry
	return b
}

func (b *builder) build(fn *estree.Function, name string) (*hir.Function, error) {
	if fn == nil {
		return nil, diag.Invariantf(source.Span{}, diag.InvariantMalformedCFG, "nil function")
	}
	if name == "" && fn.ID != nil {
		name = fn.ID.Name
	}
	f := &hir.Function{
		Name:        name,
		Span:        fn.Span(),
		Env:         b.env,
		Async:       fn.Async,
		Generator:   fn.Generator,
		Diagnostics: b.bag,
	}

	b.pushScope(true)
	for _, param := range fn.Params {
		f.Params = append(f.Params, b.lowerParam(param))
	}

	switch body := fn.Body.(type) {
	case *estree.BlockStatement:
		b.hoistVars(body.Body)
		b.hoistBlock(body.Body)
		b.lowerHoistedFunctions(body.Body)
		for _, stmt := range body.Body {
			b.lowerStatement(stmt)
		}
		ret := b.primitive(hir.PrimitiveValue{Kind: hir.PrimUndefined}, body.Span())
		b.terminate(hir.Terminal{Kind: hir.TermReturn, Operand: ret, Span: body.Span()}, hir.BlockStatement)
	case nil:
		b.fail(diag.Invariantf(fn.Span(), diag.InvariantMalformedCFG, "function without body"))
	default:
		ret := b.lowerExpr(body)
		ret.Effect = hir.EffectRead
		b.terminate(hir.Terminal{Kind: hir.TermReturn, Operand: ret, Span: body.Span()}, hir.BlockStatement)
	}
	b.popScope()

	// the block opened by the final terminate is unreachable and dropped
	b.current = nil

	for _, outerID := range b.contextOrder {
		f.Context = append(f.Context, hir.Place{Identifier: b.context[outerID].id, Span: outerID.Span})
	}

	if b.err != nil {
		return nil, b.err
	}
	f.Body = hir.HIR{Entry: b.entry, Blocks: b.completed}
	if err := finalize(f); err != nil {
		return nil, err
	}
	return f, nil
}

// fail records the first fatal error; lowering continues so callers do not
// need to check errors at every step.
func (b *builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *builder) todo(code diag.Code, node estree.Node, msg string) hir.Place {
	diag.Todo(b.rep, code, node.Span(), msg)
	return b.emit(hir.InstrValue{Kind: hir.ValueUnsupported, Unsupported: node.Type()}, node.Span())
}

func (b *builder) invalid(code diag.Code, span source.Span, msg string) {
	diag.Invalid(b.rep, code, span, msg)
}

// report records a diagnostic built with notes.
func (b *builder) report(d diag.Diagnostic) {
	b.bag.Add(d)
}

func (b *builder) reserve(kind hir.BlockKind) *wipBlock {
	return &wipBlock{id: b.env.NextBlockID(), kind: kind}
}

func (b *builder) complete(w *wipBlock, term hir.Terminal) {
	b.completed[w.id] = &hir.BasicBlock{
		ID:           w.id,
		Kind:         w.kind,
		Instructions: w.instrs,
		Terminal:     term,
	}
}

// terminate closes the current block and opens a fresh one of kind next.
// Code lowered into the fresh block is unreachable unless something jumps
// to it later.
func (b *builder) terminate(term hir.Terminal, next hir.BlockKind) {
	b.complete(b.current, term)
	b.current = b.reserve(next)
}

// terminateWithContinuation closes the current block and continues in next.
func (b *builder) terminateWithContinuation(term hir.Terminal, next *wipBlock) {
	b.complete(b.current, term)
	b.current = next
}

// enter lowers fn into a fresh block of kind and returns its id. The
// terminal returned by fn closes whatever block is current when fn returns.
func (b *builder) enter(kind hir.BlockKind, fn func(id hir.BlockID) hir.Terminal) hir.BlockID {
	return b.enterReserved(b.reserve(kind), fn)
}

func (b *builder) enterReserved(w *wipBlock, fn func(id hir.BlockID) hir.Terminal) hir.BlockID {
	saved := b.current
	b.current = w
	term := fn(w.id)
	b.complete(b.current, term)
	b.current = saved
	return w.id
}

func gotoTerm(target hir.BlockID, variant hir.GotoVariant, span source.Span) hir.Terminal {
	return hir.Terminal{Kind: hir.TermGoto, Goto: hir.GotoTerm{Block: target, Variant: variant}, Span: span, Fallthrough: hir.NoBlockID}
}

func (b *builder) push(instr *hir.Instruction) {
	b.current.instrs = append(b.current.instrs, instr)
}

// emit appends value assigned to a fresh temporary and returns a place
// reading it.
func (b *builder) emit(value hir.InstrValue, span source.Span) hir.Place {
	tmp := b.env.NewTemporary(span)
	b.push(&hir.Instruction{
		Lvalue: &hir.Place{Identifier: tmp, Effect: hir.EffectStore, Span: span},
		Value:  value,
		Span:   span,
	})
	return hir.Place{Identifier: tmp, Span: span}
}

// assign writes value into target. Inside a try block a write to a named
// binding ends the current block with a MaybeThrow edge to the handler, so
// the handler sees every version the binding takes in the try body.
func (b *builder) assign(target *hir.Identifier, value hir.InstrValue, span source.Span) {
	b.push(&hir.Instruction{
		Lvalue: &hir.Place{Identifier: target, Effect: hir.EffectStore, Span: span},
		Value:  value,
		Span:   span,
	})
	if len(b.handlers) == 0 || target.IsTemporary() {
		return
	}
	next := b.reserve(b.current.kind)
	b.terminateWithContinuation(hir.Terminal{
		Kind:        hir.TermMaybeThrow,
		MaybeThrow:  hir.MaybeThrowTerm{Continuation: next.id, Handler: b.handlers[len(b.handlers)-1]},
		Fallthrough: hir.NoBlockID,
		Span:        span,
	}, next)
}

func (b *builder) primitive(v hir.PrimitiveValue, span source.Span) hir.Place {
	return b.emit(hir.InstrValue{Kind: hir.ValuePrimitive, Primitive: v}, span)
}

func copyOf(p hir.Place) hir.InstrValue {
	p.Effect = hir.EffectRead
	return hir.InstrValue{Kind: hir.ValuePlace, Place: p}
}

func withEffect(p hir.Place, e hir.Effect) hir.Place {
	p.Effect = e
	return p
}

func (b *builder) pushControl(c controlScope) { b.controls = append(b.controls, c) }

func (b *builder) popControl() { b.controls = b.controls[:len(b.controls)-1] }
