// Package testkit holds helpers shared by package tests: terse estree
// constructors for building fixtures without a JavaScript parser, and
// invariant checks over decoded programs.
package testkit

import (
	"sync/atomic"

	"forget/internal/estree"
	"forget/internal/source"
)

var spanSeq atomic.Uint32

// loc hands out a distinct one-byte span per node so duplicate
// declarations in fixtures are told apart.
func loc() estree.Loc {
	n := spanSeq.Add(2)
	return estree.Loc{Pos: source.Span{Start: n, End: n + 1}}
}

func Ident(name string) *estree.Identifier { return &estree.Identifier{Loc: loc(), Name: name} }

func Num(v float64) *estree.Literal {
	return &estree.Literal{Loc: loc(), Kind: estree.LitNumber, Num: v}
}

func Str(s string) *estree.Literal {
	return &estree.Literal{Loc: loc(), Kind: estree.LitString, Str: s}
}

func Bool(v bool) *estree.Literal {
	return &estree.Literal{Loc: loc(), Kind: estree.LitBoolean, Bool: v}
}

func Null() *estree.Literal { return &estree.Literal{Loc: loc(), Kind: estree.LitNull} }

func Bin(op string, left, right estree.Node) *estree.BinaryExpression {
	return &estree.BinaryExpression{Loc: loc(), Operator: op, Left: left, Right: right}
}

func Logical(op string, left, right estree.Node) *estree.LogicalExpression {
	return &estree.LogicalExpression{Loc: loc(), Operator: op, Left: left, Right: right}
}

func Cond(test, cons, alt estree.Node) *estree.ConditionalExpression {
	return &estree.ConditionalExpression{Loc: loc(), Test: test, Consequent: cons, Alternate: alt}
}

func Unary(op string, arg estree.Node) *estree.UnaryExpression {
	return &estree.UnaryExpression{Loc: loc(), Operator: op, Argument: arg}
}

func Update(op string, prefix bool, arg estree.Node) *estree.UpdateExpression {
	return &estree.UpdateExpression{Loc: loc(), Operator: op, Prefix: prefix, Argument: arg}
}

func Assign(left, right estree.Node) *estree.AssignmentExpression {
	return AssignOp("=", left, right)
}

func AssignOp(op string, left, right estree.Node) *estree.AssignmentExpression {
	return &estree.AssignmentExpression{Loc: loc(), Operator: op, Left: left, Right: right}
}

func Call(callee estree.Node, args ...estree.Node) *estree.CallExpression {
	return &estree.CallExpression{Loc: loc(), Callee: callee, Arguments: args}
}

func New(callee estree.Node, args ...estree.Node) *estree.NewExpression {
	return &estree.NewExpression{Loc: loc(), Callee: callee, Arguments: args}
}

// Member builds obj.prop.
func Member(obj estree.Node, prop string) *estree.MemberExpression {
	return &estree.MemberExpression{Loc: loc(), Object: obj, Property: Ident(prop)}
}

// Index builds obj[key].
func Index(obj, key estree.Node) *estree.MemberExpression {
	return &estree.MemberExpression{Loc: loc(), Object: obj, Property: key, Computed: true}
}

func Spread(arg estree.Node) *estree.SpreadElement {
	return &estree.SpreadElement{Loc: loc(), Argument: arg}
}

// Prop builds an object property key: value.
func Prop(key string, value estree.Node) *estree.Property {
	return &estree.Property{Loc: loc(), Key: Ident(key), Value: value, Kind: "init"}
}

func Obj(props ...estree.Node) *estree.ObjectExpression {
	return &estree.ObjectExpression{Loc: loc(), Properties: props}
}

func Arr(elems ...estree.Node) *estree.ArrayExpression {
	return &estree.ArrayExpression{Loc: loc(), Elements: elems}
}

func Arrow(params []estree.Node, body estree.Node) *estree.Function {
	_, concise := body.(*estree.BlockStatement)
	return &estree.Function{Loc: loc(), Kind: estree.ArrowFunction, Params: params, Body: body, Expression: !concise}
}

// Fn builds a function declaration.
func Fn(name string, params []string, body ...estree.Node) *estree.Function {
	ps := make([]estree.Node, 0, len(params))
	for _, p := range params {
		ps = append(ps, Ident(p))
	}
	return &estree.Function{Loc: loc(), Kind: estree.FunctionDeclaration, ID: Ident(name), Params: ps, Body: Block(body...)}
}

func Params(names ...string) []estree.Node {
	out := make([]estree.Node, 0, len(names))
	for _, n := range names {
		out = append(out, Ident(n))
	}
	return out
}

func Block(stmts ...estree.Node) *estree.BlockStatement {
	return &estree.BlockStatement{Loc: loc(), Body: stmts}
}

func Expr(e estree.Node) *estree.ExpressionStatement {
	return &estree.ExpressionStatement{Loc: loc(), Expression: e}
}

func decl(kind, name string, init estree.Node) *estree.VariableDeclaration {
	return &estree.VariableDeclaration{Loc: loc(), Kind: kind, Declarations: []*estree.VariableDeclarator{
		{Loc: loc(), ID: Ident(name), Init: init},
	}}
}

// Let builds `let name = init`; init may be nil.
func Let(name string, init estree.Node) *estree.VariableDeclaration { return decl("let", name, init) }

func Const(name string, init estree.Node) *estree.VariableDeclaration {
	return decl("const", name, init)
}

func Var(name string, init estree.Node) *estree.VariableDeclaration { return decl("var", name, init) }

func Return(arg estree.Node) *estree.ReturnStatement {
	return &estree.ReturnStatement{Loc: loc(), Argument: arg}
}

func Throw(arg estree.Node) *estree.ThrowStatement {
	return &estree.ThrowStatement{Loc: loc(), Argument: arg}
}

// If builds an if statement; alt may be nil.
func If(test, cons, alt estree.Node) *estree.IfStatement {
	return &estree.IfStatement{Loc: loc(), Test: test, Consequent: cons, Alternate: alt}
}

func While(test, body estree.Node) *estree.WhileStatement {
	return &estree.WhileStatement{Loc: loc(), Test: test, Body: body}
}

func DoWhile(body, test estree.Node) *estree.DoWhileStatement {
	return &estree.DoWhileStatement{Loc: loc(), Body: body, Test: test}
}

func For(init, test, update, body estree.Node) *estree.ForStatement {
	return &estree.ForStatement{Loc: loc(), Init: init, Test: test, Update: update, Body: body}
}

func Break(label string) *estree.BreakStatement {
	s := &estree.BreakStatement{Loc: loc()}
	if label != "" {
		s.Label = Ident(label)
	}
	return s
}

func Continue(label string) *estree.ContinueStatement {
	s := &estree.ContinueStatement{Loc: loc()}
	if label != "" {
		s.Label = Ident(label)
	}
	return s
}

func Labeled(label string, body estree.Node) *estree.LabeledStatement {
	return &estree.LabeledStatement{Loc: loc(), Label: Ident(label), Body: body}
}

// Case builds a switch case; test nil is the default case.
func Case(test estree.Node, body ...estree.Node) *estree.SwitchCase {
	return &estree.SwitchCase{Loc: loc(), Test: test, Consequent: body}
}

func Switch(disc estree.Node, cases ...*estree.SwitchCase) *estree.SwitchStatement {
	return &estree.SwitchStatement{Loc: loc(), Discriminant: disc, Cases: cases}
}

func Try(block *estree.BlockStatement, param string, handler *estree.BlockStatement) *estree.TryStatement {
	s := &estree.TryStatement{Loc: loc(), Block: block}
	if handler != nil {
		c := &estree.CatchClause{Loc: loc(), Body: handler}
		if param != "" {
			c.Param = Ident(param)
		}
		s.Handler = c
	}
	return s
}

// Jsx builds <tag attrs...>children</tag>.
func Jsx(tag string, attrs []estree.Node, children ...estree.Node) *estree.JSXElement {
	return &estree.JSXElement{
		Loc:        loc(),
		Name:       &estree.JSXIdentifier{Loc: loc(), Name: tag},
		Attributes: attrs,
		Children:   children,
	}
}

// Attr builds name={value}; value nil is a boolean attribute.
func Attr(name string, value estree.Node) *estree.JSXAttribute {
	a := &estree.JSXAttribute{Loc: loc(), Name: &estree.JSXIdentifier{Loc: loc(), Name: name}}
	if value != nil {
		a.Value = Container(value)
	}
	return a
}

func Text(s string) *estree.JSXText { return &estree.JSXText{Loc: loc(), Value: s} }

func Container(e estree.Node) *estree.JSXExpressionContainer {
	return &estree.JSXExpressionContainer{Loc: loc(), Expression: e}
}
