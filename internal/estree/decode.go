package estree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"forget/internal/source"
)

// ErrNotProgram is returned by DecodeProgram when the document root is
// neither a Program nor a File wrapping one.
var ErrNotProgram = errors.New("estree: document root is not a Program")

// DecodeProgram decodes an ESTree (or Babel) JSON document. Spans are
// attributed to file.
func DecodeProgram(data []byte, file source.FileID) (*Program, error) {
	n, err := Decode(data, file)
	if err != nil {
		return nil, err
	}
	prog, ok := n.(*Program)
	if !ok {
		return nil, ErrNotProgram
	}
	return prog, nil
}

// Decode decodes a single node of any type.
func Decode(data []byte, file source.FileID) (Node, error) {
	d := decoder{file: file}
	return d.node(json.RawMessage(data))
}

type object map[string]json.RawMessage

type decoder struct {
	file source.FileID
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func (o object) str(key string) string {
	var s string
	if raw, ok := o[key]; ok && !isNull(raw) {
		_ = json.Unmarshal(raw, &s) //nolint:errcheck
	}
	return s
}

func (o object) boolean(key string) bool {
	var b bool
	if raw, ok := o[key]; ok && !isNull(raw) {
		_ = json.Unmarshal(raw, &b) //nolint:errcheck
	}
	return b
}

func (d *decoder) span(o object) source.Span {
	var start, end uint32
	if raw, ok := o["start"]; ok {
		_ = json.Unmarshal(raw, &start) //nolint:errcheck
	}
	if raw, ok := o["end"]; ok {
		_ = json.Unmarshal(raw, &end) //nolint:errcheck
	}
	if raw, ok := o["range"]; ok && start == 0 && end == 0 {
		var r [2]uint32
		if json.Unmarshal(raw, &r) == nil {
			start, end = r[0], r[1]
		}
	}
	return source.Span{File: d.file, Start: start, End: end}
}

func (d *decoder) child(o object, key string) (Node, error) {
	raw, ok := o[key]
	if !ok {
		return nil, nil
	}
	n, err := d.node(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func (d *decoder) list(o object, key string) ([]Node, error) {
	raw, ok := o[key]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	out := make([]Node, len(items))
	for i, item := range items {
		n, err := d.node(item)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
		out[i] = n
	}
	return out, nil
}

func (d *decoder) ident(o object, key string) (*Identifier, error) {
	n, err := d.child(o, key)
	if err != nil || n == nil {
		return nil, err
	}
	id, ok := n.(*Identifier)
	if !ok {
		return nil, fmt.Errorf("%s: expected Identifier, got %s", key, n.Type())
	}
	return id, nil
}

func (d *decoder) block(o object, key string) (*BlockStatement, error) {
	n, err := d.child(o, key)
	if err != nil || n == nil {
		return nil, err
	}
	b, ok := n.(*BlockStatement)
	if !ok {
		return nil, fmt.Errorf("%s: expected BlockStatement, got %s", key, n.Type())
	}
	return b, nil
}

func (d *decoder) jsxIdent(o object, key string) (*JSXIdentifier, error) {
	n, err := d.child(o, key)
	if err != nil || n == nil {
		return nil, err
	}
	id, ok := n.(*JSXIdentifier)
	if !ok {
		return nil, fmt.Errorf("%s: expected JSXIdentifier, got %s", key, n.Type())
	}
	return id, nil
}

// fields decodes a fixed set of child keys; it keeps the per-type cases
// below short.
func (d *decoder) fields(o object, keys ...string) ([]Node, error) {
	out := make([]Node, len(keys))
	for i, k := range keys {
		n, err := d.child(o, k)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func (d *decoder) node(raw json.RawMessage) (Node, error) {
	if isNull(raw) {
		return nil, nil
	}
	var o object
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, err
	}
	typ := o.str("type")
	if typ == "" {
		return nil, errors.New("node without type")
	}
	loc := Loc{Pos: d.span(o)}
	n, err := d.decodeKind(typ, loc, o)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", typ, err)
	}
	return n, nil
}

func (d *decoder) decodeKind(typ string, loc Loc, o object) (Node, error) {
	switch typ {
	case "File":
		return d.child(o, "program")
	case "Program":
		body, err := d.list(o, "body")
		return &Program{Loc: loc, Body: body}, err
	case "ExportNamedDeclaration", "ExportDefaultDeclaration":
		return d.child(o, "declaration")
	case "FunctionDeclaration", "FunctionExpression", "ArrowFunctionExpression":
		return d.function(typ, loc, o)
	case "BlockStatement":
		body, err := d.list(o, "body")
		return &BlockStatement{Loc: loc, Body: body}, err
	case "ExpressionStatement":
		e, err := d.child(o, "expression")
		return &ExpressionStatement{Loc: loc, Expression: e}, err
	case "VariableDeclaration":
		return d.varDecl(loc, o)
	case "VariableDeclarator":
		f, err := d.fields(o, "id", "init")
		if err != nil {
			return nil, err
		}
		return &VariableDeclarator{Loc: loc, ID: f[0], Init: f[1]}, nil
	case "ReturnStatement":
		a, err := d.child(o, "argument")
		return &ReturnStatement{Loc: loc, Argument: a}, err
	case "IfStatement":
		f, err := d.fields(o, "test", "consequent", "alternate")
		if err != nil {
			return nil, err
		}
		return &IfStatement{Loc: loc, Test: f[0], Consequent: f[1], Alternate: f[2]}, nil
	case "WhileStatement":
		f, err := d.fields(o, "test", "body")
		if err != nil {
			return nil, err
		}
		return &WhileStatement{Loc: loc, Test: f[0], Body: f[1]}, nil
	case "DoWhileStatement":
		f, err := d.fields(o, "body", "test")
		if err != nil {
			return nil, err
		}
		return &DoWhileStatement{Loc: loc, Body: f[0], Test: f[1]}, nil
	case "ForStatement":
		f, err := d.fields(o, "init", "test", "update", "body")
		if err != nil {
			return nil, err
		}
		return &ForStatement{Loc: loc, Init: f[0], Test: f[1], Update: f[2], Body: f[3]}, nil
	case "ForInStatement", "ForOfStatement":
		f, err := d.fields(o, "left", "right", "body")
		if err != nil {
			return nil, err
		}
		return &ForInStatement{Loc: loc, Of: typ == "ForOfStatement", Left: f[0], Right: f[1], Body: f[2]}, nil
	case "SwitchStatement":
		return d.switchStmt(loc, o)
	case "SwitchCase":
		test, err := d.child(o, "test")
		if err != nil {
			return nil, err
		}
		body, err := d.list(o, "consequent")
		return &SwitchCase{Loc: loc, Test: test, Consequent: body}, err
	case "LabeledStatement":
		label, err := d.ident(o, "label")
		if err != nil {
			return nil, err
		}
		body, err := d.child(o, "body")
		return &LabeledStatement{Loc: loc, Label: label, Body: body}, err
	case "BreakStatement":
		label, err := d.ident(o, "label")
		return &BreakStatement{Loc: loc, Label: label}, err
	case "ContinueStatement":
		label, err := d.ident(o, "label")
		return &ContinueStatement{Loc: loc, Label: label}, err
	case "ThrowStatement":
		a, err := d.child(o, "argument")
		return &ThrowStatement{Loc: loc, Argument: a}, err
	case "TryStatement":
		return d.tryStmt(loc, o)
	case "CatchClause":
		param, err := d.child(o, "param")
		if err != nil {
			return nil, err
		}
		body, err := d.block(o, "body")
		return &CatchClause{Loc: loc, Param: param, Body: body}, err
	case "EmptyStatement":
		return &EmptyStatement{Loc: loc}, nil
	case "DebuggerStatement":
		return &DebuggerStatement{Loc: loc}, nil
	}
	if n, ok, err := d.decodeExpr(typ, loc, o); ok || err != nil {
		return n, err
	}
	if n, ok, err := d.decodeJSX(typ, loc, o); ok || err != nil {
		return n, err
	}
	return &Unknown{Loc: loc, Kind: typ}, nil
}

func (d *decoder) function(typ string, loc Loc, o object) (Node, error) {
	fn := &Function{
		Loc:        loc,
		Async:      o.boolean("async"),
		Generator:  o.boolean("generator"),
		Expression: o.boolean("expression"),
	}
	switch typ {
	case "FunctionDeclaration":
		fn.Kind = FunctionDeclaration
	case "ArrowFunctionExpression":
		fn.Kind = ArrowFunction
	default:
		fn.Kind = FunctionExpression
	}
	var err error
	if fn.ID, err = d.ident(o, "id"); err != nil {
		return nil, err
	}
	if fn.Params, err = d.list(o, "params"); err != nil {
		return nil, err
	}
	if fn.Body, err = d.child(o, "body"); err != nil {
		return nil, err
	}
	if _, isBlock := fn.Body.(*BlockStatement); !isBlock {
		fn.Expression = true
	}
	return fn, nil
}

func (d *decoder) varDecl(loc Loc, o object) (Node, error) {
	items, err := d.list(o, "declarations")
	if err != nil {
		return nil, err
	}
	decl := &VariableDeclaration{Loc: loc, Kind: o.str("kind")}
	for i, item := range items {
		vd, ok := item.(*VariableDeclarator)
		if !ok {
			return nil, fmt.Errorf("declarations[%d]: expected VariableDeclarator", i)
		}
		decl.Declarations = append(decl.Declarations, vd)
	}
	return decl, nil
}

func (d *decoder) switchStmt(loc Loc, o object) (Node, error) {
	disc, err := d.child(o, "discriminant")
	if err != nil {
		return nil, err
	}
	items, err := d.list(o, "cases")
	if err != nil {
		return nil, err
	}
	sw := &SwitchStatement{Loc: loc, Discriminant: disc}
	for i, item := range items {
		c, ok := item.(*SwitchCase)
		if !ok {
			return nil, fmt.Errorf("cases[%d]: expected SwitchCase", i)
		}
		sw.Cases = append(sw.Cases, c)
	}
	return sw, nil
}

func (d *decoder) tryStmt(loc Loc, o object) (Node, error) {
	block, err := d.block(o, "block")
	if err != nil {
		return nil, err
	}
	finalizer, err := d.block(o, "finalizer")
	if err != nil {
		return nil, err
	}
	handler, err := d.child(o, "handler")
	if err != nil {
		return nil, err
	}
	t := &TryStatement{Loc: loc, Block: block, Finalizer: finalizer}
	if handler != nil {
		cc, ok := handler.(*CatchClause)
		if !ok {
			return nil, fmt.Errorf("handler: expected CatchClause, got %s", handler.Type())
		}
		t.Handler = cc
	}
	return t, nil
}

func (d *decoder) decodeExpr(typ string, loc Loc, o object) (Node, bool, error) {
	switch typ {
	case "Identifier":
		return &Identifier{Loc: loc, Name: o.str("name")}, true, nil
	case "ThisExpression":
		return &ThisExpression{Loc: loc}, true, nil
	case "Literal":
		lit, err := d.literal(loc, o)
		return lit, true, err
	case "StringLiteral":
		return &Literal{Loc: loc, Kind: LitString, Str: o.str("value")}, true, nil
	case "NumericLiteral":
		var num float64
		if raw, ok := o["value"]; ok {
			_ = json.Unmarshal(raw, &num) //nolint:errcheck
		}
		return &Literal{Loc: loc, Kind: LitNumber, Num: num}, true, nil
	case "BooleanLiteral":
		return &Literal{Loc: loc, Kind: LitBoolean, Bool: o.boolean("value")}, true, nil
	case "NullLiteral":
		return &Literal{Loc: loc, Kind: LitNull}, true, nil
	case "RegExpLiteral":
		return &Literal{Loc: loc, Kind: LitRegExp, Regex: &Regex{Pattern: o.str("pattern"), Flags: o.str("flags")}}, true, nil
	case "TemplateLiteral":
		t, err := d.template(loc, o)
		return t, true, err
	case "TemplateElement":
		var value struct {
			Raw    string `json:"raw"`
			Cooked string `json:"cooked"`
		}
		if raw, ok := o["value"]; ok {
			_ = json.Unmarshal(raw, &value) //nolint:errcheck
		}
		return &TemplateElement{Loc: loc, Raw: value.Raw, Cooked: value.Cooked, Tail: o.boolean("tail")}, true, nil
	case "BinaryExpression", "LogicalExpression", "AssignmentExpression":
		f, err := d.fields(o, "left", "right")
		if err != nil {
			return nil, true, err
		}
		op := o.str("operator")
		switch typ {
		case "BinaryExpression":
			return &BinaryExpression{Loc: loc, Operator: op, Left: f[0], Right: f[1]}, true, nil
		case "LogicalExpression":
			return &LogicalExpression{Loc: loc, Operator: op, Left: f[0], Right: f[1]}, true, nil
		default:
			return &AssignmentExpression{Loc: loc, Operator: op, Left: f[0], Right: f[1]}, true, nil
		}
	case "UnaryExpression":
		a, err := d.child(o, "argument")
		return &UnaryExpression{Loc: loc, Operator: o.str("operator"), Argument: a}, true, err
	case "UpdateExpression":
		a, err := d.child(o, "argument")
		return &UpdateExpression{Loc: loc, Operator: o.str("operator"), Prefix: o.boolean("prefix"), Argument: a}, true, err
	case "ConditionalExpression":
		f, err := d.fields(o, "test", "consequent", "alternate")
		if err != nil {
			return nil, true, err
		}
		return &ConditionalExpression{Loc: loc, Test: f[0], Consequent: f[1], Alternate: f[2]}, true, nil
	case "CallExpression", "OptionalCallExpression", "NewExpression":
		callee, err := d.child(o, "callee")
		if err != nil {
			return nil, true, err
		}
		args, err := d.list(o, "arguments")
		if err != nil {
			return nil, true, err
		}
		if typ == "NewExpression" {
			return &NewExpression{Loc: loc, Callee: callee, Arguments: args}, true, nil
		}
		return &CallExpression{Loc: loc, Callee: callee, Arguments: args, Optional: o.boolean("optional")}, true, nil
	case "MemberExpression", "OptionalMemberExpression":
		f, err := d.fields(o, "object", "property")
		if err != nil {
			return nil, true, err
		}
		return &MemberExpression{Loc: loc, Object: f[0], Property: f[1], Computed: o.boolean("computed"), Optional: o.boolean("optional")}, true, nil
	case "ChainExpression", "ParenthesizedExpression":
		e, err := d.child(o, "expression")
		return e, true, err
	case "ObjectExpression":
		props, err := d.list(o, "properties")
		return &ObjectExpression{Loc: loc, Properties: props}, true, err
	case "Property", "ObjectProperty":
		f, err := d.fields(o, "key", "value")
		if err != nil {
			return nil, true, err
		}
		kind := o.str("kind")
		if kind == "" {
			kind = "init"
		}
		return &Property{
			Loc:       loc,
			Key:       f[0],
			Value:     f[1],
			Computed:  o.boolean("computed"),
			Shorthand: o.boolean("shorthand"),
			Method:    o.boolean("method"),
			Kind:      kind,
		}, true, nil
	case "ArrayExpression":
		elems, err := d.list(o, "elements")
		return &ArrayExpression{Loc: loc, Elements: elems}, true, err
	case "SequenceExpression":
		exprs, err := d.list(o, "expressions")
		return &SequenceExpression{Loc: loc, Expressions: exprs}, true, err
	case "AwaitExpression":
		a, err := d.child(o, "argument")
		return &AwaitExpression{Loc: loc, Argument: a}, true, err
	case "SpreadElement":
		a, err := d.child(o, "argument")
		return &SpreadElement{Loc: loc, Argument: a}, true, err
	case "ObjectPattern":
		props, err := d.list(o, "properties")
		return &ObjectPattern{Loc: loc, Properties: props}, true, err
	case "ArrayPattern":
		elems, err := d.list(o, "elements")
		return &ArrayPattern{Loc: loc, Elements: elems}, true, err
	case "RestElement":
		a, err := d.child(o, "argument")
		return &RestElement{Loc: loc, Argument: a}, true, err
	case "AssignmentPattern":
		f, err := d.fields(o, "left", "right")
		if err != nil {
			return nil, true, err
		}
		return &AssignmentPattern{Loc: loc, Left: f[0], Right: f[1]}, true, nil
	}
	return nil, false, nil
}

func (d *decoder) literal(loc Loc, o object) (Node, error) {
	lit := &Literal{Loc: loc, Raw: o.str("raw")}
	if raw, ok := o["regex"]; ok && !isNull(raw) {
		var re Regex
		if err := json.Unmarshal(raw, &re); err != nil {
			return nil, fmt.Errorf("regex: %w", err)
		}
		lit.Kind = LitRegExp
		lit.Regex = &re
		return lit, nil
	}
	value := bytes.TrimSpace(o["value"])
	switch {
	case isNull(value):
		lit.Kind = LitNull
	case value[0] == '"':
		lit.Kind = LitString
		if err := json.Unmarshal(value, &lit.Str); err != nil {
			return nil, err
		}
	case value[0] == 't' || value[0] == 'f':
		lit.Kind = LitBoolean
		lit.Bool = value[0] == 't'
	default:
		num, err := strconv.ParseFloat(string(value), 64)
		if err != nil {
			return nil, fmt.Errorf("value: %w", err)
		}
		lit.Kind = LitNumber
		lit.Num = num
	}
	return lit, nil
}

func (d *decoder) template(loc Loc, o object) (Node, error) {
	quasis, err := d.list(o, "quasis")
	if err != nil {
		return nil, err
	}
	exprs, err := d.list(o, "expressions")
	if err != nil {
		return nil, err
	}
	t := &TemplateLiteral{Loc: loc, Expressions: exprs}
	for i, q := range quasis {
		te, ok := q.(*TemplateElement)
		if !ok {
			return nil, fmt.Errorf("quasis[%d]: expected TemplateElement", i)
		}
		t.Quasis = append(t.Quasis, te)
	}
	return t, nil
}

func (d *decoder) decodeJSX(typ string, loc Loc, o object) (Node, bool, error) {
	switch typ {
	case "JSXElement":
		el, err := d.jsxElement(loc, o)
		return el, true, err
	case "JSXFragment":
		children, err := d.list(o, "children")
		return &JSXFragment{Loc: loc, Children: children}, true, err
	case "JSXAttribute":
		f, err := d.fields(o, "name", "value")
		if err != nil {
			return nil, true, err
		}
		return &JSXAttribute{Loc: loc, Name: f[0], Value: f[1]}, true, nil
	case "JSXSpreadAttribute":
		a, err := d.child(o, "argument")
		return &JSXSpreadAttribute{Loc: loc, Argument: a}, true, err
	case "JSXIdentifier":
		return &JSXIdentifier{Loc: loc, Name: o.str("name")}, true, nil
	case "JSXMemberExpression":
		obj, err := d.child(o, "object")
		if err != nil {
			return nil, true, err
		}
		prop, err := d.jsxIdent(o, "property")
		return &JSXMemberExpression{Loc: loc, Object: obj, Property: prop}, true, err
	case "JSXNamespacedName":
		ns, err := d.jsxIdent(o, "namespace")
		if err != nil {
			return nil, true, err
		}
		name, err := d.jsxIdent(o, "name")
		return &JSXNamespacedName{Loc: loc, Namespace: ns, Name: name}, true, err
	case "JSXText":
		return &JSXText{Loc: loc, Value: o.str("value")}, true, nil
	case "JSXExpressionContainer":
		e, err := d.child(o, "expression")
		return &JSXExpressionContainer{Loc: loc, Expression: e}, true, err
	case "JSXEmptyExpression":
		return &JSXEmptyExpression{Loc: loc}, true, nil
	}
	return nil, false, nil
}

func (d *decoder) jsxElement(loc Loc, o object) (Node, error) {
	children, err := d.list(o, "children")
	if err != nil {
		return nil, err
	}
	el := &JSXElement{Loc: loc, Children: children}
	raw, ok := o["openingElement"]
	if !ok || isNull(raw) {
		return nil, errors.New("missing openingElement")
	}
	var opening object
	if err := json.Unmarshal(raw, &opening); err != nil {
		return nil, fmt.Errorf("openingElement: %w", err)
	}
	if el.Name, err = d.child(opening, "name"); err != nil {
		return nil, err
	}
	if el.Attributes, err = d.list(opening, "attributes"); err != nil {
		return nil, err
	}
	el.SelfClosing = opening.boolean("selfClosing")
	return el, nil
}

// Functions returns the top-level functions of a program: function
// declarations, and function or arrow expressions bound by a top-level
// variable declarator. The returned names are the binding names.
func Functions(p *Program) (names []string, fns []*Function) {
	for _, stmt := range p.Body {
		switch s := stmt.(type) {
		case *Function:
			name := ""
			if s.ID != nil {
				name = s.ID.Name
			}
			names = append(names, name)
			fns = append(fns, s)
		case *VariableDeclaration:
			for _, decl := range s.Declarations {
				fn, ok := decl.Init.(*Function)
				if !ok {
					continue
				}
				name := ""
				if id, ok := decl.ID.(*Identifier); ok {
					name = id.Name
				}
				names = append(names, name)
				fns = append(fns, fn)
			}
		case *ExpressionStatement:
			if fn, ok := s.Expression.(*Function); ok {
				names = append(names, "")
				fns = append(fns, fn)
			}
		}
	}
	return names, fns
}
