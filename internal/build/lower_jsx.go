package build

import (
	"strings"
	"unicode"

	"forget/internal/diag"
	"forget/internal/estree"
	"forget/internal/hir"
)

// Every JSX operand is frozen: once handed to the element it may no
// longer be mutated.
func (b *builder) lowerJsxElement(n *estree.JSXElement) hir.Place {
	jsx := hir.JsxValue{}
	switch name := n.Name.(type) {
	case *estree.JSXIdentifier:
		if isHostTag(name.Name) {
			jsx.BuiltinTag = name.Name
		} else {
			tag := withEffect(b.lowerIdentifier(&estree.Identifier{Loc: name.Loc, Name: name.Name}), hir.EffectFreeze)
			jsx.Tag = &tag
		}
	case *estree.JSXMemberExpression:
		tag := withEffect(b.lowerJsxMemberTag(name), hir.EffectFreeze)
		jsx.Tag = &tag
	case *estree.JSXNamespacedName:
		b.todo(diag.TodoJSXNamespace, name, "namespaced JSX tags")
		jsx.BuiltinTag = name.Namespace.Name + ":" + name.Name.Name
	default:
		return b.todo(diag.TodoExpression, n, "unsupported JSX tag")
	}

	for _, attr := range n.Attributes {
		switch a := attr.(type) {
		case *estree.JSXSpreadAttribute:
			jsx.Props = append(jsx.Props, hir.JsxAttribute{
				Place:  withEffect(b.lowerExpr(a.Argument), hir.EffectFreeze),
				Spread: true,
			})
		case *estree.JSXAttribute:
			var name string
			switch an := a.Name.(type) {
			case *estree.JSXIdentifier:
				name = an.Name
			case *estree.JSXNamespacedName:
				b.todo(diag.TodoJSXNamespace, an, "namespaced JSX attributes")
				continue
			default:
				b.todo(diag.TodoExpression, a, "unsupported JSX attribute name")
				continue
			}
			jsx.Props = append(jsx.Props, hir.JsxAttribute{
				Name:  name,
				Place: withEffect(b.lowerJsxAttributeValue(a), hir.EffectFreeze),
			})
		default:
			b.todo(diag.TodoExpression, attr, "unsupported JSX attribute")
		}
	}
	jsx.Children = b.lowerJsxChildren(n.Children)
	return b.emit(hir.InstrValue{Kind: hir.ValueJsx, Jsx: jsx}, n.Span())
}

func (b *builder) lowerJsxAttributeValue(a *estree.JSXAttribute) hir.Place {
	switch v := a.Value.(type) {
	case nil:
		return b.primitive(hir.PrimitiveValue{Kind: hir.PrimBoolean, Bool: true}, a.Span())
	case *estree.JSXExpressionContainer:
		if _, empty := v.Expression.(*estree.JSXEmptyExpression); empty {
			return b.primitive(hir.PrimitiveValue{Kind: hir.PrimUndefined}, v.Span())
		}
		return b.lowerExpr(v.Expression)
	default:
		return b.lowerExpr(v)
	}
}

func (b *builder) lowerJsxMemberTag(m *estree.JSXMemberExpression) hir.Place {
	path := []string{m.Property.Name}
	obj := m.Object
	for {
		switch o := obj.(type) {
		case *estree.JSXMemberExpression:
			path = append([]string{o.Property.Name}, path...)
			obj = o.Object
		case *estree.JSXIdentifier:
			root := b.lowerIdentifier(&estree.Identifier{Loc: o.Loc, Name: o.Name})
			root.Path = path
			return b.emit(copyOf(root), m.Span())
		default:
			return b.todo(diag.TodoExpression, m, "unsupported JSX member tag")
		}
	}
}

func (b *builder) lowerJsxChildren(children []estree.Node) []hir.Place {
	var out []hir.Place
	for _, child := range children {
		switch c := child.(type) {
		case *estree.JSXText:
			text, keep := trimJsxText(c.Value)
			if !keep {
				continue
			}
			out = append(out, withEffect(b.primitive(hir.PrimitiveValue{Kind: hir.PrimString, Str: text}, c.Span()), hir.EffectFreeze))
		case *estree.JSXExpressionContainer:
			if _, empty := c.Expression.(*estree.JSXEmptyExpression); empty {
				continue
			}
			out = append(out, withEffect(b.lowerExpr(c.Expression), hir.EffectFreeze))
		case *estree.JSXElement, *estree.JSXFragment:
			out = append(out, withEffect(b.lowerExpr(c), hir.EffectFreeze))
		default:
			out = append(out, withEffect(b.todo(diag.TodoExpression, child, "unsupported JSX child"), hir.EffectFreeze))
		}
	}
	return out
}

// isHostTag reports whether a JSX tag names a DOM element rather than a
// component binding.
func isHostTag(name string) bool {
	for _, r := range name {
		return unicode.IsLower(r)
	}
	return false
}

// trimJsxText collapses JSX text the way JSX transforms do: lines are
// trimmed, whitespace-only lines dropped, and the remainder joined by a
// single space. Text that is only whitespace and spans lines is dropped.
func trimJsxText(text string) (string, bool) {
	if !strings.ContainsAny(text, "\n\r") {
		return text, text != ""
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	parts := make([]string, 0, len(lines))
	for i, line := range lines {
		switch {
		case i == 0:
			line = strings.TrimRight(line, " \t")
		case i == len(lines)-1:
			line = strings.TrimLeft(line, " \t")
		default:
			line = strings.Trim(line, " \t")
		}
		if line != "" {
			parts = append(parts, line)
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, " "), true
}
