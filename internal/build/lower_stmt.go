package build

import (
	"forget/internal/diag"
	"forget/internal/estree"
	"forget/internal/hir"
)

func (b *builder) lowerStatement(stmt estree.Node) {
	switch s := stmt.(type) {
	case nil:
	case *estree.EmptyStatement, *estree.DebuggerStatement:
	case *estree.ExpressionStatement:
		b.lowerExpr(s.Expression)
	case *estree.VariableDeclaration:
		b.lowerVariableDeclaration(s)
	case *estree.Function:
		b.lowerFunctionDeclaration(s)
	case *estree.BlockStatement:
		b.pushScope(false)
		b.hoistBlock(s.Body)
		b.lowerHoistedFunctions(s.Body)
		for _, inner := range s.Body {
			b.lowerStatement(inner)
		}
		b.popScope()
	case *estree.ReturnStatement:
		var value hir.Place
		if s.Argument != nil {
			value = b.lowerExpr(s.Argument)
		} else {
			value = b.primitive(hir.PrimitiveValue{Kind: hir.PrimUndefined}, s.Span())
		}
		b.terminate(hir.Terminal{Kind: hir.TermReturn, Operand: withEffect(value, hir.EffectRead), Span: s.Span(), Fallthrough: hir.NoBlockID}, hir.BlockStatement)
	case *estree.ThrowStatement:
		value := b.lowerExpr(s.Argument)
		b.terminate(hir.Terminal{Kind: hir.TermThrow, Operand: withEffect(value, hir.EffectRead), Span: s.Span(), Fallthrough: hir.NoBlockID}, hir.BlockStatement)
	case *estree.IfStatement:
		b.lowerIf(s)
	case *estree.WhileStatement:
		b.lowerWhile(s, "")
	case *estree.DoWhileStatement:
		b.lowerDoWhile(s, "")
	case *estree.ForStatement:
		b.lowerFor(s, "")
	case *estree.SwitchStatement:
		b.lowerSwitch(s)
	case *estree.LabeledStatement:
		b.lowerLabeled(s)
	case *estree.BreakStatement:
		b.lowerBreak(s)
	case *estree.ContinueStatement:
		b.lowerContinue(s)
	case *estree.TryStatement:
		b.lowerTry(s)
	case *estree.ForInStatement:
		b.todo(diag.TodoStatement, s, "for-in/for-of loops are not supported")
	default:
		b.todo(diag.TodoStatement, s, "unsupported statement "+s.Type())
	}
}

func (b *builder) lowerVariableDeclaration(s *estree.VariableDeclaration) {
	kind := bindVar
	switch s.Kind {
	case "let":
		kind = bindLet
	case "const":
		kind = bindConst
	}
	for _, decl := range s.Declarations {
		id, ok := decl.ID.(*estree.Identifier)
		if !ok {
			b.todo(diag.TodoPattern, decl.ID, "destructuring declarations are not supported")
			continue
		}
		var value hir.InstrValue
		switch init := decl.Init.(type) {
		case nil:
			if kind == bindVar {
				// var without initializer keeps its hoisted value
				b.declare(id.Name, kind, id.Span())
				continue
			}
			value = hir.InstrValue{Kind: hir.ValuePrimitive, Primitive: hir.PrimitiveValue{Kind: hir.PrimUndefined}}
		case *estree.Function:
			value = b.lowerFunction(init, id.Name)
		default:
			value = copyOf(b.lowerExpr(init))
		}
		bd := b.declare(id.Name, kind, id.Span())
		b.assign(bd.id, value, decl.Span())
	}
}

func (b *builder) lowerFunctionDeclaration(fn *estree.Function) {
	if b.hoisted[fn] {
		return
	}
	if fn.ID == nil {
		b.todo(diag.TodoStatement, fn, "anonymous function declaration")
		return
	}
	bd := b.declare(fn.ID.Name, bindFunction, fn.ID.Span())
	b.assign(bd.id, b.lowerFunction(fn, fn.ID.Name), fn.Span())
}

// lowerHoistedFunctions defines the function declarations of a statement
// list ahead of its other statements, so calls that precede a declaration
// see its value.
func (b *builder) lowerHoistedFunctions(stmts []estree.Node) {
	for _, stmt := range stmts {
		fn, ok := stmt.(*estree.Function)
		if !ok || fn.Kind != estree.FunctionDeclaration || fn.ID == nil {
			continue
		}
		b.lowerFunctionDeclaration(fn)
		b.hoisted[fn] = true
	}
}

func (b *builder) lowerIf(s *estree.IfStatement) {
	test := withEffect(b.lowerExpr(s.Test), hir.EffectRead)
	continuation := b.reserve(hir.BlockStatement)
	consequent := b.enter(hir.BlockStatement, func(hir.BlockID) hir.Terminal {
		b.lowerStatement(s.Consequent)
		return gotoTerm(continuation.id, hir.GotoBreak, s.Span())
	})
	alternate := continuation.id
	if s.Alternate != nil {
		alternate = b.enter(hir.BlockStatement, func(hir.BlockID) hir.Terminal {
			b.lowerStatement(s.Alternate)
			return gotoTerm(continuation.id, hir.GotoBreak, s.Span())
		})
	}
	b.terminateWithContinuation(hir.Terminal{
		Kind:        hir.TermIf,
		If:          hir.IfTerm{Test: test, Consequent: consequent, Alternate: alternate},
		Fallthrough: continuation.id,
		Span:        s.Span(),
	}, continuation)
}

func (b *builder) lowerLoopBody(body estree.Node, label string, breakTo, continueTo hir.BlockID) {
	b.pushControl(controlScope{kind: controlLoop, label: label, breakTo: breakTo, continueTo: continueTo})
	b.lowerStatement(body)
	b.popControl()
}

func (b *builder) lowerWhile(s *estree.WhileStatement, label string) {
	conditional := b.reserve(hir.BlockLoop)
	continuation := b.reserve(hir.BlockStatement)
	body := b.enter(hir.BlockStatement, func(hir.BlockID) hir.Terminal {
		b.lowerLoopBody(s.Body, label, continuation.id, conditional.id)
		return gotoTerm(conditional.id, hir.GotoContinue, s.Span())
	})
	b.terminateWithContinuation(hir.Terminal{
		Kind:        hir.TermWhile,
		Loop:        hir.LoopTerm{Test: conditional.id, Body: body, Init: hir.NoBlockID, Update: hir.NoBlockID},
		Fallthrough: continuation.id,
		Span:        s.Span(),
	}, conditional)
	test := withEffect(b.lowerExpr(s.Test), hir.EffectRead)
	b.terminateWithContinuation(hir.Terminal{
		Kind:        hir.TermBranch,
		If:          hir.IfTerm{Test: test, Consequent: body, Alternate: continuation.id},
		Fallthrough: hir.NoBlockID,
		Span:        s.Test.Span(),
	}, continuation)
}

func (b *builder) lowerDoWhile(s *estree.DoWhileStatement, label string) {
	conditional := b.reserve(hir.BlockLoop)
	continuation := b.reserve(hir.BlockStatement)
	body := b.enter(hir.BlockStatement, func(hir.BlockID) hir.Terminal {
		b.lowerLoopBody(s.Body, label, continuation.id, conditional.id)
		return gotoTerm(conditional.id, hir.GotoContinue, s.Span())
	})
	b.terminateWithContinuation(hir.Terminal{
		Kind:        hir.TermDoWhile,
		Loop:        hir.LoopTerm{Test: conditional.id, Body: body, Init: hir.NoBlockID, Update: hir.NoBlockID},
		Fallthrough: continuation.id,
		Span:        s.Span(),
	}, conditional)
	test := withEffect(b.lowerExpr(s.Test), hir.EffectRead)
	b.terminateWithContinuation(hir.Terminal{
		Kind:        hir.TermBranch,
		If:          hir.IfTerm{Test: test, Consequent: body, Alternate: continuation.id},
		Fallthrough: hir.NoBlockID,
		Span:        s.Test.Span(),
	}, continuation)
}

func (b *builder) lowerFor(s *estree.ForStatement, label string) {
	// bindings of the init clause are visible in test, update and body
	b.pushScope(false)
	defer b.popScope()
	if decl, ok := s.Init.(*estree.VariableDeclaration); ok {
		b.hoistBlock([]estree.Node{decl})
	}

	testBlock := b.reserve(hir.BlockLoop)
	continuation := b.reserve(hir.BlockStatement)
	init := b.enter(hir.BlockLoop, func(hir.BlockID) hir.Terminal {
		switch initNode := s.Init.(type) {
		case nil:
		case *estree.VariableDeclaration:
			b.lowerVariableDeclaration(initNode)
		default:
			b.lowerExpr(initNode)
		}
		return gotoTerm(testBlock.id, hir.GotoBreak, s.Span())
	})
	update := hir.NoBlockID
	if s.Update != nil {
		update = b.enter(hir.BlockLoop, func(hir.BlockID) hir.Terminal {
			b.lowerExpr(s.Update)
			return gotoTerm(testBlock.id, hir.GotoBreak, s.Update.Span())
		})
	}
	continueTo := testBlock.id
	if update.Valid() {
		continueTo = update
	}
	body := b.enter(hir.BlockStatement, func(hir.BlockID) hir.Terminal {
		b.lowerLoopBody(s.Body, label, continuation.id, continueTo)
		return gotoTerm(continueTo, hir.GotoContinue, s.Span())
	})
	b.terminateWithContinuation(hir.Terminal{
		Kind:        hir.TermFor,
		Loop:        hir.LoopTerm{Init: init, Test: testBlock.id, Update: update, Body: body},
		Fallthrough: continuation.id,
		Span:        s.Span(),
	}, testBlock)
	if s.Test != nil {
		test := withEffect(b.lowerExpr(s.Test), hir.EffectRead)
		b.terminateWithContinuation(hir.Terminal{
			Kind:        hir.TermBranch,
			If:          hir.IfTerm{Test: test, Consequent: body, Alternate: continuation.id},
			Fallthrough: hir.NoBlockID,
			Span:        s.Test.Span(),
		}, continuation)
		return
	}
	b.terminateWithContinuation(gotoTerm(body, hir.GotoBreak, s.Span()), continuation)
}

func (b *builder) lowerSwitch(s *estree.SwitchStatement) {
	test := withEffect(b.lowerExpr(s.Discriminant), hir.EffectRead)
	continuation := b.reserve(hir.BlockStatement)

	b.pushScope(false)
	for _, c := range s.Cases {
		b.hoistBlock(c.Consequent)
	}
	for _, c := range s.Cases {
		b.lowerHoistedFunctions(c.Consequent)
	}
	b.pushControl(controlScope{kind: controlSwitch, breakTo: continuation.id, continueTo: hir.NoBlockID})

	// cases are lowered last to first so each can fall through to the next
	blocks := make([]hir.BlockID, len(s.Cases))
	next := continuation.id
	hasDefault := false
	for i := len(s.Cases) - 1; i >= 0; i-- {
		c := s.Cases[i]
		if c.Test == nil {
			hasDefault = true
		}
		fallTo := next
		blocks[i] = b.enter(hir.BlockStatement, func(hir.BlockID) hir.Terminal {
			for _, stmt := range c.Consequent {
				b.lowerStatement(stmt)
			}
			return gotoTerm(fallTo, hir.GotoBreak, c.Span())
		})
		next = blocks[i]
	}
	b.popControl()

	cases := make([]hir.SwitchCase, 0, len(s.Cases)+1)
	for i, c := range s.Cases {
		sc := hir.SwitchCase{Block: blocks[i]}
		if c.Test != nil {
			p := withEffect(b.lowerExpr(c.Test), hir.EffectRead)
			sc.Test = &p
		}
		cases = append(cases, sc)
	}
	b.popScope()
	if !hasDefault {
		cases = append(cases, hir.SwitchCase{Block: continuation.id})
	}
	b.terminateWithContinuation(hir.Terminal{
		Kind:        hir.TermSwitch,
		Switch:      hir.SwitchTerm{Test: test, Cases: cases},
		Fallthrough: continuation.id,
		Span:        s.Span(),
	}, continuation)
}

func (b *builder) lowerLabeled(s *estree.LabeledStatement) {
	label := s.Label.Name
	switch body := s.Body.(type) {
	case *estree.WhileStatement:
		b.lowerWhile(body, label)
		return
	case *estree.DoWhileStatement:
		b.lowerDoWhile(body, label)
		return
	case *estree.ForStatement:
		b.lowerFor(body, label)
		return
	}
	continuation := b.reserve(hir.BlockStatement)
	block := b.enter(hir.BlockStatement, func(hir.BlockID) hir.Terminal {
		b.pushControl(controlScope{kind: controlLabel, label: label, breakTo: continuation.id, continueTo: hir.NoBlockID})
		b.lowerStatement(s.Body)
		b.popControl()
		return gotoTerm(continuation.id, hir.GotoBreak, s.Span())
	})
	b.terminateWithContinuation(hir.Terminal{
		Kind:        hir.TermLabel,
		Label:       block,
		Fallthrough: continuation.id,
		Span:        s.Span(),
	}, continuation)
}

func (b *builder) lowerBreak(s *estree.BreakStatement) {
	target := hir.NoBlockID
	for i := len(b.controls) - 1; i >= 0; i-- {
		c := b.controls[i]
		if s.Label != nil {
			if c.label == s.Label.Name {
				target = c.breakTo
				break
			}
			continue
		}
		if c.kind != controlLabel {
			target = c.breakTo
			break
		}
	}
	if !target.Valid() {
		b.invalid(diag.InvalidBreakTarget, s.Span(), "break outside of a loop, switch or matching label")
		b.terminate(hir.Terminal{Kind: hir.TermUnsupported, Span: s.Span(), Fallthrough: hir.NoBlockID}, hir.BlockStatement)
		return
	}
	b.terminate(gotoTerm(target, hir.GotoBreak, s.Span()), hir.BlockStatement)
}

func (b *builder) lowerContinue(s *estree.ContinueStatement) {
	target := hir.NoBlockID
	for i := len(b.controls) - 1; i >= 0; i-- {
		c := b.controls[i]
		if c.kind != controlLoop {
			continue
		}
		if s.Label == nil || c.label == s.Label.Name {
			target = c.continueTo
			break
		}
	}
	if !target.Valid() {
		b.invalid(diag.InvalidContinueTarget, s.Span(), "continue outside of a loop or matching label")
		b.terminate(hir.Terminal{Kind: hir.TermUnsupported, Span: s.Span(), Fallthrough: hir.NoBlockID}, hir.BlockStatement)
		return
	}
	b.terminate(gotoTerm(target, hir.GotoContinue, s.Span()), hir.BlockStatement)
}

func (b *builder) lowerTry(s *estree.TryStatement) {
	if s.Finalizer != nil {
		b.todo(diag.TodoTryFinally, s, "try/finally is not supported")
		return
	}
	if s.Handler == nil || s.Block == nil {
		b.invalid(diag.InvalidNode, s.Span(), "try statement without handler")
		return
	}
	continuation := b.reserve(hir.BlockStatement)
	handler := b.enter(hir.BlockStatement, func(hir.BlockID) hir.Terminal {
		b.pushScope(false)
		switch param := s.Handler.Param.(type) {
		case nil:
		case *estree.Identifier:
			bd := b.declare(param.Name, bindCatch, param.Span())
			b.assign(bd.id, hir.InstrValue{Kind: hir.ValueCatchParam}, param.Span())
		default:
			b.todo(diag.TodoPattern, param, "destructuring catch parameter")
		}
		if s.Handler.Body != nil {
			b.lowerStatement(s.Handler.Body)
		}
		b.popScope()
		return gotoTerm(continuation.id, hir.GotoBreak, s.Handler.Span())
	})
	block := b.enter(hir.BlockStatement, func(hir.BlockID) hir.Terminal {
		b.handlers = append(b.handlers, handler)
		b.lowerStatement(s.Block)
		b.handlers = b.handlers[:len(b.handlers)-1]
		return gotoTerm(continuation.id, hir.GotoBreak, s.Block.Span())
	})
	b.terminateWithContinuation(hir.Terminal{
		Kind:        hir.TermTry,
		Try:         hir.TryTerm{Block: block, Handler: handler},
		Fallthrough: continuation.id,
		Span:        s.Span(),
	}, continuation)
}
