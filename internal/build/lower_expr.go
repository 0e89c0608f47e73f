package build

import (
	"strconv"
	"strings"

	"forget/internal/diag"
	"forget/internal/estree"
	"forget/internal/hir"
	"forget/internal/source"
)

// lowerExpr lowers e and returns the place holding its value. References
// to local bindings return the binding itself without a copy; operand
// adds one where evaluation order needs it.
func (b *builder) lowerExpr(e estree.Node) hir.Place {
	switch n := e.(type) {
	case nil:
		return b.primitive(hir.PrimitiveValue{Kind: hir.PrimUndefined}, source.Span{})
	case *estree.Identifier:
		return b.lowerIdentifier(n)
	case *estree.Literal:
		return b.lowerLiteral(n)
	case *estree.TemplateLiteral:
		tl := hir.TemplateLiteralValue{}
		for _, q := range n.Quasis {
			tl.Quasis = append(tl.Quasis, q.Cooked)
		}
		for i, sub := range n.Expressions {
			tl.Subexprs = append(tl.Subexprs, withEffect(b.operand(sub, n.Expressions[i+1:]...), hir.EffectRead))
		}
		return b.emit(hir.InstrValue{Kind: hir.ValueTemplateLiteral, TemplateLiteral: tl}, n.Span())
	case *estree.BinaryExpression:
		left := withEffect(b.operand(n.Left, n.Right), hir.EffectRead)
		right := withEffect(b.lowerExpr(n.Right), hir.EffectRead)
		return b.emit(hir.InstrValue{Kind: hir.ValueBinary, Binary: hir.BinaryValue{Op: n.Operator, Left: left, Right: right}}, n.Span())
	case *estree.LogicalExpression:
		return b.lowerLogical(n)
	case *estree.ConditionalExpression:
		return b.lowerTernary(n)
	case *estree.UnaryExpression:
		return b.lowerUnary(n)
	case *estree.UpdateExpression:
		return b.lowerUpdate(n)
	case *estree.AssignmentExpression:
		return b.lowerAssignment(n)
	case *estree.CallExpression:
		return b.lowerCall(n)
	case *estree.NewExpression:
		callee := withEffect(b.operand(n.Callee, n.Arguments...), hir.EffectRead)
		args := b.lowerArgs(n.Arguments)
		return b.emit(hir.InstrValue{Kind: hir.ValueNew, Call: hir.CallValue{Callee: callee, Args: args}}, n.Span())
	case *estree.MemberExpression:
		return b.lowerMember(n)
	case *estree.ObjectExpression:
		return b.lowerObject(n)
	case *estree.ArrayExpression:
		arr := hir.ArrayValue{}
		for i, el := range n.Elements {
			later := n.Elements[i+1:]
			switch el := el.(type) {
			case nil:
				arr.Elements = append(arr.Elements, hir.ArrayElement{Hole: true})
			case *estree.SpreadElement:
				arr.Elements = append(arr.Elements, hir.ArrayElement{Place: withEffect(b.operand(el.Argument, later...), hir.EffectCapture), Spread: true})
			default:
				arr.Elements = append(arr.Elements, hir.ArrayElement{Place: withEffect(b.operand(el, later...), hir.EffectCapture)})
			}
		}
		return b.emit(hir.InstrValue{Kind: hir.ValueArray, Array: arr}, n.Span())
	case *estree.SequenceExpression:
		var last hir.Place
		for _, sub := range n.Expressions {
			last = b.lowerExpr(sub)
		}
		if last.Identifier == nil {
			return b.primitive(hir.PrimitiveValue{Kind: hir.PrimUndefined}, n.Span())
		}
		return last
	case *estree.AwaitExpression:
		value := withEffect(b.lowerExpr(n.Argument), hir.EffectRead)
		return b.emit(hir.InstrValue{Kind: hir.ValueAwait, Unary: hir.UnaryValue{Operand: value}}, n.Span())
	case *estree.Function:
		return b.emit(b.lowerFunction(n, ""), n.Span())
	case *estree.JSXElement:
		return b.lowerJsxElement(n)
	case *estree.JSXFragment:
		return b.emit(hir.InstrValue{Kind: hir.ValueJsxFragment, Jsx: hir.JsxValue{Children: b.lowerJsxChildren(n.Children)}}, n.Span())
	case *estree.SpreadElement:
		return b.todo(diag.TodoSpread, n, "spread outside of a call, array or object")
	case *estree.ObjectPattern, *estree.ArrayPattern, *estree.AssignmentPattern, *estree.RestElement:
		return b.todo(diag.TodoPattern, n, "destructuring is not supported")
	default:
		return b.todo(diag.TodoExpression, n, "unsupported expression "+n.Type())
	}
}

func (b *builder) lowerIdentifier(n *estree.Identifier) hir.Place {
	if bd := b.resolve(n.Name); bd != nil {
		return hir.Place{Identifier: bd.id, Span: n.Span()}
	}
	return b.emit(hir.InstrValue{Kind: hir.ValueLoadGlobal, Global: normalizeName(n.Name)}, n.Span())
}

func (b *builder) lowerLiteral(n *estree.Literal) hir.Place {
	switch n.Kind {
	case estree.LitString:
		return b.primitive(hir.PrimitiveValue{Kind: hir.PrimString, Str: n.Str}, n.Span())
	case estree.LitNumber:
		return b.primitive(hir.PrimitiveValue{Kind: hir.PrimNumber, Num: n.Num}, n.Span())
	case estree.LitBoolean:
		return b.primitive(hir.PrimitiveValue{Kind: hir.PrimBoolean, Bool: n.Bool}, n.Span())
	case estree.LitNull:
		return b.primitive(hir.PrimitiveValue{Kind: hir.PrimNull}, n.Span())
	default:
		re := hir.RegExpValue{}
		if n.Regex != nil {
			re = hir.RegExpValue{Pattern: n.Regex.Pattern, Flags: n.Regex.Flags}
		}
		return b.emit(hir.InstrValue{Kind: hir.ValueRegExp, RegExp: re}, n.Span())
	}
}

func (b *builder) lowerUnary(n *estree.UnaryExpression) hir.Place {
	switch n.Operator {
	case "delete":
		return b.lowerDelete(n)
	case "typeof":
		value := withEffect(b.lowerExpr(n.Argument), hir.EffectRead)
		return b.emit(hir.InstrValue{Kind: hir.ValueTypeOf, Unary: hir.UnaryValue{Op: "typeof", Operand: value}}, n.Span())
	}
	value := withEffect(b.lowerExpr(n.Argument), hir.EffectRead)
	return b.emit(hir.InstrValue{Kind: hir.ValueUnary, Unary: hir.UnaryValue{Op: n.Operator, Operand: value}}, n.Span())
}

func (b *builder) lowerDelete(n *estree.UnaryExpression) hir.Place {
	m, ok := n.Argument.(*estree.MemberExpression)
	if !ok {
		return b.todo(diag.TodoDeleteTarget, n, "delete of a non-member expression")
	}
	object := withEffect(b.operand(m.Object, m.Property), hir.EffectMutate)
	if key, static := staticKey(m); static {
		return b.emit(hir.InstrValue{Kind: hir.ValuePropertyDelete, Property: hir.PropertyValue{Object: object, Property: key}}, n.Span())
	}
	prop := withEffect(b.lowerExpr(m.Property), hir.EffectRead)
	return b.emit(hir.InstrValue{Kind: hir.ValueComputedDelete, Computed: hir.ComputedValue{Object: object, Property: prop}}, n.Span())
}

// reassignable resolves name as an assignment target, reporting writes to
// globals and constants. It returns nil for globals.
func (b *builder) reassignable(name string, n estree.Node) *binding {
	bd := b.resolve(name)
	if bd == nil {
		b.invalid(diag.InvalidGlobalReassign, n.Span(), "cannot reassign global "+name)
		return nil
	}
	switch bd.kind {
	case bindConst:
		b.invalid(diag.InvalidConstReassign, n.Span(), "cannot reassign const "+name)
	case bindContext:
		// the write would only rename the local copy of the capture
		b.report(diag.NewTodo(diag.TodoContextAssign, n.Span(), "cannot reassign "+name+" captured from an enclosing function").
			WithNote(bd.id.Span, "declared here"))
	}
	return bd
}

func (b *builder) lowerUpdate(n *estree.UpdateExpression) hir.Place {
	id, ok := n.Argument.(*estree.Identifier)
	if !ok {
		return b.todo(diag.TodoUpdateTarget, n, "update of a non-identifier")
	}
	bd := b.reassignable(id.Name, id)
	if bd == nil {
		return b.lowerIdentifier(id)
	}
	op := "+"
	if n.Operator == "--" {
		op = "-"
	}
	current := hir.Place{Identifier: bd.id, Span: id.Span()}
	var previous hir.Place
	if !n.Prefix {
		previous = b.emit(copyOf(current), n.Span())
	}
	one := b.primitive(hir.PrimitiveValue{Kind: hir.PrimNumber, Num: 1}, n.Span())
	next := b.emit(hir.InstrValue{Kind: hir.ValueBinary, Binary: hir.BinaryValue{
		Op:    op,
		Left:  withEffect(current, hir.EffectRead),
		Right: withEffect(one, hir.EffectRead),
	}}, n.Span())
	b.assign(bd.id, copyOf(next), n.Span())
	if n.Prefix {
		return next
	}
	return previous
}

func (b *builder) lowerAssignment(n *estree.AssignmentExpression) hir.Place {
	op := n.Operator
	switch op {
	case "&&=", "||=", "??=":
		return b.todo(diag.TodoAssignOperator, n, "logical assignment "+op)
	}
	binaryOp := strings.TrimSuffix(op, "=")

	switch left := n.Left.(type) {
	case *estree.Identifier:
		bd := b.reassignable(left.Name, left)
		var current hir.Place
		if op != "=" {
			current = b.operand(left, n.Right)
		}
		value := b.lowerExpr(n.Right)
		if op != "=" {
			value = b.emit(hir.InstrValue{Kind: hir.ValueBinary, Binary: hir.BinaryValue{
				Op:    binaryOp,
				Left:  withEffect(current, hir.EffectRead),
				Right: withEffect(value, hir.EffectRead),
			}}, n.Span())
		}
		if bd == nil {
			return value
		}
		b.assign(bd.id, copyOf(value), n.Span())
		return hir.Place{Identifier: bd.id, Span: left.Span()}
	case *estree.MemberExpression:
		object := b.operand(left.Object, left.Property, n.Right)
		key, static := staticKey(left)
		var prop hir.Place
		if !static {
			prop = withEffect(b.operand(left.Property, n.Right), hir.EffectRead)
		}
		value := b.lowerExpr(n.Right)
		if op != "=" {
			var current hir.Place
			if static {
				current = b.emit(hir.InstrValue{Kind: hir.ValuePropertyLoad, Property: hir.PropertyValue{
					Object: withEffect(object, hir.EffectRead), Property: key,
				}}, left.Span())
			} else {
				current = b.emit(hir.InstrValue{Kind: hir.ValueComputedLoad, Computed: hir.ComputedValue{
					Object: withEffect(object, hir.EffectRead), Property: prop,
				}}, left.Span())
			}
			value = b.emit(hir.InstrValue{Kind: hir.ValueBinary, Binary: hir.BinaryValue{
				Op:    binaryOp,
				Left:  withEffect(current, hir.EffectRead),
				Right: withEffect(value, hir.EffectRead),
			}}, n.Span())
		}
		if static {
			b.emit(hir.InstrValue{Kind: hir.ValuePropertyStore, Property: hir.PropertyValue{
				Object:   withEffect(object, hir.EffectStore),
				Property: key,
				Value:    withEffect(value, hir.EffectCapture),
			}}, n.Span())
		} else {
			b.emit(hir.InstrValue{Kind: hir.ValueComputedStore, Computed: hir.ComputedValue{
				Object:   withEffect(object, hir.EffectStore),
				Property: prop,
				Value:    withEffect(value, hir.EffectCapture),
			}}, n.Span())
		}
		return value
	case *estree.ObjectPattern, *estree.ArrayPattern:
		return b.todo(diag.TodoPattern, n, "destructuring assignment")
	default:
		b.invalid(diag.InvalidAssignTarget, n.Left.Span(), "invalid assignment target "+n.Left.Type())
		return b.lowerExpr(n.Right)
	}
}

// lowerLogical lowers a short-circuit expression into a test block and a
// right-hand block that both write the shared result temporary.
func (b *builder) lowerLogical(n *estree.LogicalExpression) hir.Place {
	result := b.env.NewTemporary(n.Span())
	continuation := b.reserve(b.current.kind)
	testBlock := b.reserve(hir.BlockValue)
	right := b.enter(hir.BlockValue, func(hir.BlockID) hir.Terminal {
		value := b.lowerExpr(n.Right)
		b.assign(result, copyOf(value), n.Right.Span())
		return gotoTerm(continuation.id, hir.GotoBreak, n.Right.Span())
	})
	b.terminateWithContinuation(hir.Terminal{
		Kind:        hir.TermLogical,
		Value:       hir.ValueTerm{Operator: n.Operator, Test: testBlock.id},
		Fallthrough: continuation.id,
		Span:        n.Span(),
	}, testBlock)

	left := b.lowerExpr(n.Left)
	b.assign(result, copyOf(left), n.Left.Span())
	test := withEffect(left, hir.EffectRead)
	branch := hir.IfTerm{Test: test, Consequent: right, Alternate: continuation.id}
	switch n.Operator {
	case "||":
		branch.Consequent, branch.Alternate = continuation.id, right
	case "??":
		null := b.primitive(hir.PrimitiveValue{Kind: hir.PrimNull}, n.Left.Span())
		branch.Test = withEffect(b.emit(hir.InstrValue{Kind: hir.ValueBinary, Binary: hir.BinaryValue{
			Op:    "==",
			Left:  test,
			Right: withEffect(null, hir.EffectRead),
		}}, n.Left.Span()), hir.EffectRead)
	}
	b.terminateWithContinuation(hir.Terminal{
		Kind:        hir.TermBranch,
		If:          branch,
		Fallthrough: hir.NoBlockID,
		Span:        n.Span(),
	}, continuation)
	return hir.Place{Identifier: result, Span: n.Span()}
}

func (b *builder) lowerTernary(n *estree.ConditionalExpression) hir.Place {
	result := b.env.NewTemporary(n.Span())
	continuation := b.reserve(b.current.kind)
	testBlock := b.reserve(hir.BlockValue)
	arm := func(expr estree.Node) func(hir.BlockID) hir.Terminal {
		return func(hir.BlockID) hir.Terminal {
			value := b.lowerExpr(expr)
			b.assign(result, copyOf(value), expr.Span())
			return gotoTerm(continuation.id, hir.GotoBreak, expr.Span())
		}
	}
	consequent := b.enter(hir.BlockValue, arm(n.Consequent))
	alternate := b.enter(hir.BlockValue, arm(n.Alternate))
	b.terminateWithContinuation(hir.Terminal{
		Kind:        hir.TermTernary,
		Value:       hir.ValueTerm{Test: testBlock.id},
		Fallthrough: continuation.id,
		Span:        n.Span(),
	}, testBlock)
	test := withEffect(b.lowerExpr(n.Test), hir.EffectRead)
	b.terminateWithContinuation(hir.Terminal{
		Kind:        hir.TermBranch,
		If:          hir.IfTerm{Test: test, Consequent: consequent, Alternate: alternate},
		Fallthrough: hir.NoBlockID,
		Span:        n.Test.Span(),
	}, continuation)
	return hir.Place{Identifier: result, Span: n.Span()}
}

func (b *builder) lowerArgs(args []estree.Node) []hir.Argument {
	out := make([]hir.Argument, 0, len(args))
	for i, arg := range args {
		later := args[i+1:]
		if spread, ok := arg.(*estree.SpreadElement); ok {
			out = append(out, hir.Argument{Place: withEffect(b.operand(spread.Argument, later...), hir.EffectMutate), Spread: true})
			continue
		}
		out = append(out, hir.Argument{Place: withEffect(b.operand(arg, later...), hir.EffectMutate)})
	}
	return out
}

func (b *builder) lowerCall(n *estree.CallExpression) hir.Place {
	if m, ok := n.Callee.(*estree.MemberExpression); ok {
		if key, static := staticKey(m); static {
			receiver := withEffect(b.operand(m.Object, n.Arguments...), hir.EffectMutate)
			args := b.lowerArgs(n.Arguments)
			return b.emit(hir.InstrValue{Kind: hir.ValueMethodCall, MethodCall: hir.MethodCallValue{
				Receiver: receiver,
				Property: key,
				Args:     args,
			}}, n.Span())
		}
	}
	callee := withEffect(b.operand(n.Callee, n.Arguments...), hir.EffectRead)
	args := b.lowerArgs(n.Arguments)
	return b.emit(hir.InstrValue{Kind: hir.ValueCall, Call: hir.CallValue{Callee: callee, Args: args}}, n.Span())
}

// staticKey returns the property name of a non-computed member access, or
// of a computed access with a string or number literal key.
func staticKey(m *estree.MemberExpression) (string, bool) {
	if !m.Computed {
		if id, ok := m.Property.(*estree.Identifier); ok {
			return id.Name, true
		}
		return "", false
	}
	if lit, ok := m.Property.(*estree.Literal); ok {
		switch lit.Kind {
		case estree.LitString:
			return lit.Str, true
		case estree.LitNumber:
			return strconv.FormatFloat(lit.Num, 'f', -1, 64), true
		}
	}
	return "", false
}

// memberPath flattens a static member chain rooted at a local binding.
func (b *builder) memberPath(m *estree.MemberExpression) (*hir.Identifier, []string, bool) {
	var path []string
	cur := m
	for {
		key, ok := staticKey(cur)
		if !ok {
			return nil, nil, false
		}
		path = append([]string{key}, path...)
		switch obj := cur.Object.(type) {
		case *estree.MemberExpression:
			cur = obj
		case *estree.Identifier:
			bd := b.resolve(obj.Name)
			if bd == nil {
				return nil, nil, false
			}
			return bd.id, path, true
		default:
			return nil, nil, false
		}
	}
}

func (b *builder) lowerMember(n *estree.MemberExpression) hir.Place {
	if root, path, ok := b.memberPath(n); ok {
		return b.emit(copyOf(hir.Place{Identifier: root, Path: path, Span: n.Span()}), n.Span())
	}
	object := withEffect(b.operand(n.Object, n.Property), hir.EffectRead)
	if key, static := staticKey(n); static {
		return b.emit(hir.InstrValue{Kind: hir.ValuePropertyLoad, Property: hir.PropertyValue{Object: object, Property: key}}, n.Span())
	}
	prop := withEffect(b.lowerExpr(n.Property), hir.EffectRead)
	return b.emit(hir.InstrValue{Kind: hir.ValueComputedLoad, Computed: hir.ComputedValue{Object: object, Property: prop}}, n.Span())
}

func propertyKey(p *estree.Property) (string, bool) {
	if p.Computed {
		return "", false
	}
	switch k := p.Key.(type) {
	case *estree.Identifier:
		return k.Name, true
	case *estree.Literal:
		switch k.Kind {
		case estree.LitString:
			return k.Str, true
		case estree.LitNumber:
			return strconv.FormatFloat(k.Num, 'f', -1, 64), true
		}
	}
	return "", false
}

func (b *builder) lowerObject(n *estree.ObjectExpression) hir.Place {
	obj := hir.ObjectValue{}
	for i, prop := range n.Properties {
		later := n.Properties[i+1:]
		switch p := prop.(type) {
		case *estree.SpreadElement:
			obj.Properties = append(obj.Properties, hir.ObjectProperty{
				Value:  withEffect(b.operand(p.Argument, later...), hir.EffectCapture),
				Spread: true,
			})
		case *estree.Property:
			if p.Kind == "get" || p.Kind == "set" {
				b.todo(diag.TodoExpression, p, "object getters and setters")
				continue
			}
			key, ok := propertyKey(p)
			if !ok {
				b.todo(diag.TodoComputedKey, p, "computed object keys")
				continue
			}
			var value hir.Place
			if fn, isFn := p.Value.(*estree.Function); isFn {
				value = b.emit(b.lowerFunction(fn, key), fn.Span())
			} else {
				value = b.operand(p.Value, later...)
			}
			obj.Properties = append(obj.Properties, hir.ObjectProperty{Key: key, Value: withEffect(value, hir.EffectCapture)})
		default:
			b.todo(diag.TodoExpression, prop, "unsupported object member "+prop.Type())
		}
	}
	return b.emit(hir.InstrValue{Kind: hir.ValueObject, Object: obj}, n.Span())
}

// lowerFunction lowers a nested function with its own builder. Captured
// outer bindings become the function's context.
func (b *builder) lowerFunction(fn *estree.Function, name string) hir.InstrValue {
	child := newBuilder(b.env, b, b.bag)
	inner, err := child.build(fn, name)
	if err != nil {
		b.fail(err)
		return hir.InstrValue{Kind: hir.ValueUnsupported, Unsupported: fn.Type()}
	}
	ctx := make([]hir.Place, 0, len(child.contextOrder))
	for _, outerID := range child.contextOrder {
		ctx = append(ctx, hir.Place{Identifier: outerID, Effect: hir.EffectCapture, Span: fn.Span()})
	}
	return hir.InstrValue{Kind: hir.ValueFunction, Function: hir.FunctionValue{Name: inner.Name, Func: inner, Context: ctx}}
}

// operand lowers e ahead of the sibling expressions in later. A local
// read is copied into a temporary when a later sibling writes the same
// binding, so the operand keeps the value it had when it was evaluated.
func (b *builder) operand(e estree.Node, later ...estree.Node) hir.Place {
	p := b.lowerExpr(e)
	name, ok := boundName(e)
	if !ok || b.resolve(name) == nil {
		return p
	}
	for _, sibling := range later {
		if writes(sibling, normalizeName(name)) {
			return b.emit(copyOf(p), e.Span())
		}
	}
	return p
}

// boundName returns the binding an expression evaluates to by reference:
// an identifier, an assignment to one, or the last element of a sequence.
func boundName(e estree.Node) (string, bool) {
	switch n := e.(type) {
	case *estree.Identifier:
		return n.Name, true
	case *estree.AssignmentExpression:
		switch n.Operator {
		case "&&=", "||=", "??=":
			return "", false
		}
		if id, ok := n.Left.(*estree.Identifier); ok {
			return id.Name, true
		}
	case *estree.SequenceExpression:
		if len(n.Expressions) > 0 {
			return boundName(n.Expressions[len(n.Expressions)-1])
		}
	}
	return "", false
}

// writes reports whether evaluating n may assign the binding called name.
// Nested functions are not entered: they cannot reassign captures.
func writes(n estree.Node, name string) bool {
	anyOf := func(nodes ...estree.Node) bool {
		for _, c := range nodes {
			if c != nil && writes(c, name) {
				return true
			}
		}
		return false
	}
	switch n := n.(type) {
	case *estree.AssignmentExpression:
		if id, ok := n.Left.(*estree.Identifier); ok && normalizeName(id.Name) == name {
			return true
		}
		return anyOf(n.Left, n.Right)
	case *estree.UpdateExpression:
		if id, ok := n.Argument.(*estree.Identifier); ok && normalizeName(id.Name) == name {
			return true
		}
		return anyOf(n.Argument)
	case *estree.BinaryExpression:
		return anyOf(n.Left, n.Right)
	case *estree.LogicalExpression:
		return anyOf(n.Left, n.Right)
	case *estree.ConditionalExpression:
		return anyOf(n.Test, n.Consequent, n.Alternate)
	case *estree.UnaryExpression:
		return anyOf(n.Argument)
	case *estree.AwaitExpression:
		return anyOf(n.Argument)
	case *estree.SpreadElement:
		return anyOf(n.Argument)
	case *estree.SequenceExpression:
		return anyOf(n.Expressions...)
	case *estree.TemplateLiteral:
		return anyOf(n.Expressions...)
	case *estree.CallExpression:
		return anyOf(n.Callee) || anyOf(n.Arguments...)
	case *estree.NewExpression:
		return anyOf(n.Callee) || anyOf(n.Arguments...)
	case *estree.MemberExpression:
		return anyOf(n.Object, n.Property)
	case *estree.ArrayExpression:
		return anyOf(n.Elements...)
	case *estree.ObjectExpression:
		return anyOf(n.Properties...)
	case *estree.Property:
		return anyOf(n.Key, n.Value)
	case *estree.JSXElement:
		return anyOf(n.Attributes...) || anyOf(n.Children...)
	case *estree.JSXFragment:
		return anyOf(n.Children...)
	case *estree.JSXAttribute:
		return anyOf(n.Value)
	case *estree.JSXSpreadAttribute:
		return anyOf(n.Argument)
	case *estree.JSXExpressionContainer:
		return anyOf(n.Expression)
	}
	return false
}
