package hir

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DumpOptions selects the annotations included in a dump.
type DumpOptions struct {
	Types  bool
	Ranges bool
	Scopes bool
}

// Dump writes a human-readable representation of f. The format is for
// debugging only.
func Dump(w io.Writer, f *Function, opts DumpOptions) error {
	p := printer{opts: opts}
	p.function(f, 0)
	_, err := io.WriteString(w, p.sb.String())
	return err
}

// DumpString is Dump into a string.
func DumpString(f *Function, opts DumpOptions) string {
	var sb strings.Builder
	_ = Dump(&sb, f, opts) //nolint:errcheck
	return sb.String()
}

type printer struct {
	sb   strings.Builder
	opts DumpOptions
}

func (p *printer) line(indent int, format string, args ...any) {
	p.sb.WriteString(strings.Repeat("  ", indent))
	fmt.Fprintf(&p.sb, format, args...)
	p.sb.WriteByte('\n')
}

func (p *printer) function(f *Function, indent int) {
	name := f.Name
	if name == "" {
		name = "<anonymous>"
	}
	params := make([]string, len(f.Params))
	for i, param := range f.Params {
		params[i] = p.place(param)
	}
	header := fmt.Sprintf("function %s(%s)", name, strings.Join(params, ", "))
	if len(f.Context) > 0 {
		ctx := make([]string, len(f.Context))
		for i, c := range f.Context {
			ctx[i] = p.place(c)
		}
		header += " context(" + strings.Join(ctx, ", ") + ")"
	}
	p.line(indent, "%s", header)
	for _, b := range f.Body.Ordered() {
		p.block(b, indent)
	}
	if p.opts.Scopes {
		for _, s := range f.Scopes {
			members := make([]string, len(s.Members))
			for i, m := range s.Members {
				members[i] = m.String()
			}
			p.line(indent, "scope @%d %s: %s", s.ID, s.Range, strings.Join(members, ", "))
		}
	}
}

func (p *printer) block(b *BasicBlock, indent int) {
	header := fmt.Sprintf("bb%d (%s)", b.ID, b.Kind)
	if len(b.Preds) > 0 {
		preds := make([]string, len(b.Preds))
		for i, pred := range b.Preds {
			preds[i] = "bb" + strconv.Itoa(int(pred))
		}
		header += ": preds " + strings.Join(preds, ", ")
	}
	p.line(indent, "%s", header)
	for _, phi := range b.Phis {
		ops := make([]string, 0, len(phi.Operands))
		for _, pred := range phi.SortedOperands() {
			ops = append(ops, fmt.Sprintf("bb%d: %s", pred, p.identifier(phi.Operands[pred])))
		}
		p.line(indent+1, "%s: phi(%s)", p.identifier(phi.Place.Identifier), strings.Join(ops, ", "))
	}
	for _, instr := range b.Instructions {
		lvalue := ""
		if instr.Lvalue != nil {
			lvalue = p.place(*instr.Lvalue) + " = "
		}
		p.line(indent+1, "[%d] %s%s", instr.ID, lvalue, p.value(&instr.Value))
		if instr.Value.Kind == ValueFunction && instr.Value.Function.Func != nil {
			p.function(instr.Value.Function.Func, indent+2)
		}
	}
	p.line(indent+1, "[%d] %s", b.Terminal.ID, p.terminal(&b.Terminal))
}

func (p *printer) identifier(id *Identifier) string {
	s := id.String()
	if p.opts.Ranges && id.MutableRange.End > id.MutableRange.Start+1 {
		s += id.MutableRange.String()
	}
	if p.opts.Scopes && id.Scope.Valid() {
		s += fmt.Sprintf("@%d", id.Scope)
	}
	if p.opts.Types && id.Type != nil && !IsTypeVar(id.Type) {
		s += ": " + id.Type.String()
	}
	return s
}

func (p *printer) place(pl Place) string {
	var sb strings.Builder
	if pl.Effect != EffectUnknown {
		sb.WriteString(pl.Effect.String())
		sb.WriteByte(' ')
	}
	if pl.Identifier == nil {
		sb.WriteString("<nil>")
	} else {
		sb.WriteString(p.identifier(pl.Identifier))
	}
	for _, seg := range pl.Path {
		sb.WriteByte('.')
		sb.WriteString(seg)
	}
	return sb.String()
}

func (p *printer) places(ps []Place) string {
	out := make([]string, len(ps))
	for i, pl := range ps {
		out[i] = p.place(pl)
	}
	return strings.Join(out, ", ")
}

func (p *printer) args(args []Argument) string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = p.place(a.Place)
		if a.Spread {
			out[i] = "..." + out[i]
		}
	}
	return strings.Join(out, ", ")
}

func (p *printer) value(v *InstrValue) string {
	switch v.Kind {
	case ValuePlace:
		return p.place(v.Place)
	case ValuePrimitive:
		return FormatPrimitive(v.Primitive)
	case ValueBinary:
		return fmt.Sprintf("Binary %s %s %s", p.place(v.Binary.Left), v.Binary.Op, p.place(v.Binary.Right))
	case ValueUnary:
		return fmt.Sprintf("Unary %s%s", v.Unary.Op, p.place(v.Unary.Operand))
	case ValueAwait:
		return "Await " + p.place(v.Unary.Operand)
	case ValueTypeOf:
		return "TypeOf " + p.place(v.Unary.Operand)
	case ValueCall:
		return fmt.Sprintf("Call %s(%s)", p.place(v.Call.Callee), p.args(v.Call.Args))
	case ValueNew:
		return fmt.Sprintf("New %s(%s)", p.place(v.Call.Callee), p.args(v.Call.Args))
	case ValueMethodCall:
		return fmt.Sprintf("MethodCall %s.%s(%s)", p.place(v.MethodCall.Receiver), v.MethodCall.Property, p.args(v.MethodCall.Args))
	case ValueObject:
		props := make([]string, len(v.Object.Properties))
		for i, prop := range v.Object.Properties {
			if prop.Spread {
				props[i] = "..." + p.place(prop.Value)
			} else {
				props[i] = prop.Key + ": " + p.place(prop.Value)
			}
		}
		return "Object {" + strings.Join(props, ", ") + "}"
	case ValueArray:
		elems := make([]string, len(v.Array.Elements))
		for i, el := range v.Array.Elements {
			switch {
			case el.Hole:
				elems[i] = "<hole>"
			case el.Spread:
				elems[i] = "..." + p.place(el.Place)
			default:
				elems[i] = p.place(el.Place)
			}
		}
		return "Array [" + strings.Join(elems, ", ") + "]"
	case ValuePropertyLoad:
		return fmt.Sprintf("PropertyLoad %s.%s", p.place(v.Property.Object), v.Property.Property)
	case ValuePropertyStore:
		return fmt.Sprintf("PropertyStore %s.%s = %s", p.place(v.Property.Object), v.Property.Property, p.place(v.Property.Value))
	case ValuePropertyDelete:
		return fmt.Sprintf("PropertyDelete %s.%s", p.place(v.Property.Object), v.Property.Property)
	case ValueComputedLoad:
		return fmt.Sprintf("ComputedLoad %s[%s]", p.place(v.Computed.Object), p.place(v.Computed.Property))
	case ValueComputedStore:
		return fmt.Sprintf("ComputedStore %s[%s] = %s", p.place(v.Computed.Object), p.place(v.Computed.Property), p.place(v.Computed.Value))
	case ValueComputedDelete:
		return fmt.Sprintf("ComputedDelete %s[%s]", p.place(v.Computed.Object), p.place(v.Computed.Property))
	case ValueJsx, ValueJsxFragment:
		return p.jsx(v)
	case ValueFunction:
		return fmt.Sprintf("Function %s context(%s)", v.Function.Name, p.places(v.Function.Context))
	case ValueTemplateLiteral:
		return fmt.Sprintf("TemplateLiteral %q (%s)", v.TemplateLiteral.Quasis, p.places(v.TemplateLiteral.Subexprs))
	case ValueLoadGlobal:
		return "LoadGlobal " + v.Global
	case ValueRegExp:
		return fmt.Sprintf("RegExp /%s/%s", v.RegExp.Pattern, v.RegExp.Flags)
	case ValueCatchParam:
		return "CatchParam"
	case ValueUnsupported:
		return "Unsupported " + v.Unsupported
	}
	return v.Kind.String()
}

func (p *printer) jsx(v *InstrValue) string {
	var sb strings.Builder
	if v.Kind == ValueJsxFragment {
		sb.WriteString("JsxFragment")
	} else {
		sb.WriteString("Jsx <")
		if v.Jsx.Tag != nil {
			sb.WriteString(p.place(*v.Jsx.Tag))
		} else {
			sb.WriteString(v.Jsx.BuiltinTag)
		}
		for _, attr := range v.Jsx.Props {
			sb.WriteByte(' ')
			if attr.Spread {
				sb.WriteString("{..." + p.place(attr.Place) + "}")
			} else {
				sb.WriteString(attr.Name + "={" + p.place(attr.Place) + "}")
			}
		}
		sb.WriteString(">")
	}
	if len(v.Jsx.Children) > 0 {
		sb.WriteString(" children(" + p.places(v.Jsx.Children) + ")")
	}
	return sb.String()
}

func (p *printer) terminal(t *Terminal) string {
	var s string
	switch t.Kind {
	case TermGoto:
		variant := "break"
		if t.Goto.Variant == GotoContinue {
			variant = "continue"
		}
		s = fmt.Sprintf("Goto(%s) bb%d", variant, t.Goto.Block)
	case TermIf, TermBranch:
		s = fmt.Sprintf("%s %s then:bb%d else:bb%d", t.Kind, p.place(t.If.Test), t.If.Consequent, t.If.Alternate)
	case TermSwitch:
		cases := make([]string, len(t.Switch.Cases))
		for i, c := range t.Switch.Cases {
			if c.Test == nil {
				cases[i] = fmt.Sprintf("default: bb%d", c.Block)
			} else {
				cases[i] = fmt.Sprintf("%s: bb%d", p.place(*c.Test), c.Block)
			}
		}
		s = fmt.Sprintf("Switch %s [%s]", p.place(t.Switch.Test), strings.Join(cases, ", "))
	case TermWhile:
		s = fmt.Sprintf("While test:bb%d loop:bb%d", t.Loop.Test, t.Loop.Body)
	case TermFor:
		s = fmt.Sprintf("For init:bb%d test:bb%d update:bb%d loop:bb%d", t.Loop.Init, t.Loop.Test, t.Loop.Update, t.Loop.Body)
	case TermDoWhile:
		s = fmt.Sprintf("DoWhile loop:bb%d test:bb%d", t.Loop.Body, t.Loop.Test)
	case TermLogical:
		s = fmt.Sprintf("Logical %s test:bb%d", t.Value.Operator, t.Value.Test)
	case TermTernary:
		s = fmt.Sprintf("Ternary test:bb%d", t.Value.Test)
	case TermLabel:
		s = fmt.Sprintf("Label block:bb%d", t.Label)
	case TermTry:
		s = fmt.Sprintf("Try block:bb%d handler:bb%d", t.Try.Block, t.Try.Handler)
	case TermMaybeThrow:
		s = fmt.Sprintf("MaybeThrow continuation:bb%d handler:bb%d", t.MaybeThrow.Continuation, t.MaybeThrow.Handler)
	case TermReturn:
		s = "Return " + p.place(t.Operand)
	case TermThrow:
		s = "Throw " + p.place(t.Operand)
	default:
		s = t.Kind.String()
	}
	if t.Kind.HasFallthrough() {
		if t.Fallthrough.Valid() {
			s += fmt.Sprintf(" fallthrough:bb%d", t.Fallthrough)
		} else {
			s += " fallthrough:none"
		}
	}
	return s
}

// FormatPrimitive renders a primitive literal.
func FormatPrimitive(v PrimitiveValue) string {
	switch v.Kind {
	case PrimNull:
		return "null"
	case PrimBoolean:
		return strconv.FormatBool(v.Bool)
	case PrimNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case PrimString:
		return strconv.Quote(v.Str)
	default:
		return "undefined"
	}
}
