package build

import (
	"golang.org/x/text/unicode/norm"

	"forget/internal/diag"
	"forget/internal/estree"
	"forget/internal/hir"
	"forget/internal/source"
)

type bindingKind uint8

const (
	bindVar bindingKind = iota
	bindLet
	bindConst
	bindParam
	bindFunction
	bindCatch
	bindContext
)

type binding struct {
	id   *hir.Identifier
	kind bindingKind
}

// bindingScope is one lexical scope. fn marks the function-level scope that
// receives var declarations.
type bindingScope struct {
	parent *bindingScope
	names  map[string]*binding
	fn     bool
}

// normalizeName maps a binding name to NFC so that differently encoded
// spellings of the same name resolve to one binding.
func normalizeName(name string) string {
	if norm.NFC.IsNormalString(name) {
		return name
	}
	return norm.NFC.String(name)
}

func (b *builder) pushScope(fn bool) {
	b.scope = &bindingScope{parent: b.scope, names: make(map[string]*binding), fn: fn}
}

func (b *builder) popScope() { b.scope = b.scope.parent }

func (b *builder) functionScope() *bindingScope {
	s := b.scope
	for s != nil && !s.fn {
		s = s.parent
	}
	return s
}

// declare creates a binding in the scope selected by kind. Redeclaring a
// hoisted name returns the hoisted binding.
func (b *builder) declare(name string, kind bindingKind, span source.Span) *binding {
	name = normalizeName(name)
	target := b.scope
	if kind == bindVar {
		target = b.functionScope()
	}
	if existing, ok := target.names[name]; ok {
		switch {
		case existing.kind == bindVar && kind == bindVar,
			existing.kind == bindParam && kind == bindVar,
			existing.kind == bindFunction && kind == bindFunction:
			return existing
		case existing.kind == kind && existing.id.Span == span:
			return existing
		}
		b.report(diag.NewInvalid(diag.InvalidDuplicateBinding, span, "duplicate declaration of "+name).
			WithNote(existing.id.Span, "first declared here"))
		return existing
	}
	bd := &binding{id: b.env.NewIdentifier(name, span), kind: kind}
	target.names[name] = bd
	return bd
}

// resolve finds the binding for name in this function's scopes, then in
// enclosing functions, creating context bindings for captures. It returns
// nil for globals.
func (b *builder) resolve(name string) *binding {
	name = normalizeName(name)
	for s := b.scope; s != nil; s = s.parent {
		if bd, ok := s.names[name]; ok {
			return bd
		}
	}
	if b.outer == nil {
		return nil
	}
	outerBinding := b.outer.resolve(name)
	if outerBinding == nil {
		return nil
	}
	if bd, ok := b.context[outerBinding.id]; ok {
		return bd
	}
	bd := &binding{id: b.env.NewIdentifier(name, outerBinding.id.Span), kind: bindContext}
	if outerBinding.kind == bindConst {
		bd.kind = bindConst
	}
	b.context[outerBinding.id] = bd
	b.contextOrder = append(b.contextOrder, outerBinding.id)
	return bd
}

// hoistBlock pre-declares the let, const and function declarations of a
// statement list so that references ahead of the declaration resolve.
func (b *builder) hoistBlock(stmts []estree.Node) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *estree.VariableDeclaration:
			if s.Kind == "var" {
				continue
			}
			kind := bindLet
			if s.Kind == "const" {
				kind = bindConst
			}
			for _, decl := range s.Declarations {
				if id, ok := decl.ID.(*estree.Identifier); ok {
					b.declare(id.Name, kind, id.Span())
				}
			}
		case *estree.Function:
			if s.Kind == estree.FunctionDeclaration && s.ID != nil {
				b.declare(s.ID.Name, bindFunction, s.ID.Span())
			}
		}
	}
}

// hoistVars declares every var of the function body, looking through
// nested statements but not into nested functions.
func (b *builder) hoistVars(stmts []estree.Node) {
	for _, stmt := range stmts {
		b.hoistVarsIn(stmt)
	}
}

func (b *builder) hoistVarsIn(stmt estree.Node) {
	switch s := stmt.(type) {
	case *estree.VariableDeclaration:
		if s.Kind != "var" {
			return
		}
		for _, decl := range s.Declarations {
			if id, ok := decl.ID.(*estree.Identifier); ok {
				b.declare(id.Name, bindVar, id.Span())
			}
		}
	case *estree.BlockStatement:
		b.hoistVars(s.Body)
	case *estree.IfStatement:
		b.hoistVarsIn(s.Consequent)
		b.hoistVarsIn(s.Alternate)
	case *estree.WhileStatement:
		b.hoistVarsIn(s.Body)
	case *estree.DoWhileStatement:
		b.hoistVarsIn(s.Body)
	case *estree.ForStatement:
		b.hoistVarsIn(s.Init)
		b.hoistVarsIn(s.Body)
	case *estree.ForInStatement:
		b.hoistVarsIn(s.Left)
		b.hoistVarsIn(s.Body)
	case *estree.LabeledStatement:
		b.hoistVarsIn(s.Body)
	case *estree.SwitchStatement:
		for _, c := range s.Cases {
			b.hoistVars(c.Consequent)
		}
	case *estree.TryStatement:
		if s.Block != nil {
			b.hoistVarsIn(s.Block)
		}
		if s.Handler != nil && s.Handler.Body != nil {
			b.hoistVarsIn(s.Handler.Body)
		}
		if s.Finalizer != nil {
			b.hoistVarsIn(s.Finalizer)
		}
	}
}

// lowerParam declares a parameter. Patterns are unsupported and get a
// placeholder temporary so the arity is preserved.
func (b *builder) lowerParam(param estree.Node) hir.Place {
	if id, ok := param.(*estree.Identifier); ok {
		bd := b.declare(id.Name, bindParam, id.Span())
		return hir.Place{Identifier: bd.id, Span: id.Span()}
	}
	diag.Todo(b.rep, diag.TodoPattern, param.Span(), "unsupported parameter "+param.Type())
	return hir.Place{Identifier: b.env.NewTemporary(param.Span()), Span: param.Span()}
}
