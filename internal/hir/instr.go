package hir

import "forget/internal/source"

// Instruction is one straight-line operation. ID is the instruction's
// position in the function-wide numbering assigned after lowering.
type Instruction struct {
	ID     InstrID
	Lvalue *Place // nil when the result is discarded
	Value  InstrValue
	Span   source.Span
}

// ValueKind enumerates instruction value variants.
type ValueKind uint8

const (
	ValueUnsupported ValueKind = iota
	ValuePlace                 // copy of a place, possibly through a member path
	ValuePrimitive
	ValueBinary
	ValueUnary
	ValueCall
	ValueMethodCall
	ValueNew
	ValueObject
	ValueArray
	ValuePropertyLoad
	ValuePropertyStore
	ValuePropertyDelete
	ValueComputedLoad
	ValueComputedStore
	ValueComputedDelete
	ValueJsx
	ValueJsxFragment
	ValueFunction
	ValueTemplateLiteral
	ValueLoadGlobal
	ValueAwait
	ValueRegExp
	ValueTypeOf
	ValueCatchParam
)

var valueKindNames = [...]string{
	ValueUnsupported:     "Unsupported",
	ValuePlace:           "Place",
	ValuePrimitive:       "Primitive",
	ValueBinary:          "Binary",
	ValueUnary:           "Unary",
	ValueCall:            "Call",
	ValueMethodCall:      "MethodCall",
	ValueNew:             "New",
	ValueObject:          "Object",
	ValueArray:           "Array",
	ValuePropertyLoad:    "PropertyLoad",
	ValuePropertyStore:   "PropertyStore",
	ValuePropertyDelete:  "PropertyDelete",
	ValueComputedLoad:    "ComputedLoad",
	ValueComputedStore:   "ComputedStore",
	ValueComputedDelete:  "ComputedDelete",
	ValueJsx:             "Jsx",
	ValueJsxFragment:     "JsxFragment",
	ValueFunction:        "Function",
	ValueTemplateLiteral: "TemplateLiteral",
	ValueLoadGlobal:      "LoadGlobal",
	ValueAwait:           "Await",
	ValueRegExp:          "RegExp",
	ValueTypeOf:          "TypeOf",
	ValueCatchParam:      "CatchParam",
}

func (k ValueKind) String() string {
	if int(k) < len(valueKindNames) {
		return valueKindNames[k]
	}
	return "ValueKind(?)"
}

// MayAllocate reports whether values of this kind can produce a fresh
// mutable object.
func (k ValueKind) MayAllocate() bool {
	switch k {
	case ValueObject, ValueArray, ValueCall, ValueMethodCall, ValueNew,
		ValueJsx, ValueJsxFragment, ValueFunction, ValueRegExp,
		ValueAwait, ValueUnsupported:
		return true
	case ValuePlace, ValuePrimitive, ValueBinary, ValueUnary,
		ValuePropertyLoad, ValuePropertyStore, ValuePropertyDelete,
		ValueComputedLoad, ValueComputedStore, ValueComputedDelete,
		ValueTemplateLiteral, ValueLoadGlobal, ValueTypeOf, ValueCatchParam:
		return false
	}
	return true
}

// InstrValue is a tagged union: Kind selects the populated payload.
type InstrValue struct {
	Kind ValueKind

	Place           Place
	Primitive       PrimitiveValue
	Binary          BinaryValue
	Unary           UnaryValue
	Call            CallValue
	MethodCall      MethodCallValue
	Object          ObjectValue
	Array           ArrayValue
	Property        PropertyValue
	Computed        ComputedValue
	Jsx             JsxValue
	Function        FunctionValue
	TemplateLiteral TemplateLiteralValue
	Global          string
	RegExp          RegExpValue
	Unsupported     string // syntax form that could not be lowered
}

type PrimitiveKind uint8

const (
	PrimUndefined PrimitiveKind = iota
	PrimNull
	PrimBoolean
	PrimNumber
	PrimString
)

type PrimitiveValue struct {
	Kind PrimitiveKind
	Bool bool
	Num  float64
	Str  string
}

type BinaryValue struct {
	Op    string
	Left  Place
	Right Place
}

// UnaryValue is also the payload of ValueAwait and ValueTypeOf.
type UnaryValue struct {
	Op      string
	Operand Place
}

// CallValue is the payload of ValueCall and ValueNew.
type CallValue struct {
	Callee Place
	Args   []Argument
}

type MethodCallValue struct {
	Receiver Place
	Property string
	Args     []Argument
}

type Argument struct {
	Place  Place
	Spread bool
}

type ObjectProperty struct {
	Key    string
	Value  Place
	Spread bool
}

type ObjectValue struct {
	Properties []ObjectProperty
}

type ArrayElement struct {
	Place  Place
	Spread bool
	Hole   bool
}

type ArrayValue struct {
	Elements []ArrayElement
}

// PropertyValue is the payload of the PropertyLoad/Store/Delete kinds.
// Value is only set for stores.
type PropertyValue struct {
	Object   Place
	Property string
	Value    Place
}

// ComputedValue is the payload of the ComputedLoad/Store/Delete kinds.
type ComputedValue struct {
	Object   Place
	Property Place
	Value    Place
}

type JsxAttribute struct {
	Name   string
	Place  Place
	Spread bool
}

// JsxValue is the payload of ValueJsx and ValueJsxFragment. Tag is set for
// component tags; BuiltinTag for lowercase host tags.
type JsxValue struct {
	Tag        *Place
	BuiltinTag string
	Props      []JsxAttribute
	Children   []Place
}

// FunctionValue is a nested function expression. Context holds the outer
// places captured by the lowered function, in the order of Func.Context.
type FunctionValue struct {
	Name    string
	Func    *Function
	Context []Place
}

type TemplateLiteralValue struct {
	Quasis   []string
	Subexprs []Place
}

type RegExpValue struct {
	Pattern string
	Flags   string
}

// Operands returns pointers to every place the value reads, in evaluation
// order. Callers may rewrite the places in place.
func (v *InstrValue) Operands() []*Place {
	var out []*Place
	switch v.Kind {
	case ValuePlace:
		out = append(out, &v.Place)
	case ValueBinary:
		out = append(out, &v.Binary.Left, &v.Binary.Right)
	case ValueUnary, ValueAwait, ValueTypeOf:
		out = append(out, &v.Unary.Operand)
	case ValueCall, ValueNew:
		out = append(out, &v.Call.Callee)
		for i := range v.Call.Args {
			out = append(out, &v.Call.Args[i].Place)
		}
	case ValueMethodCall:
		out = append(out, &v.MethodCall.Receiver)
		for i := range v.MethodCall.Args {
			out = append(out, &v.MethodCall.Args[i].Place)
		}
	case ValueObject:
		for i := range v.Object.Properties {
			out = append(out, &v.Object.Properties[i].Value)
		}
	case ValueArray:
		for i := range v.Array.Elements {
			if !v.Array.Elements[i].Hole {
				out = append(out, &v.Array.Elements[i].Place)
			}
		}
	case ValuePropertyLoad, ValuePropertyDelete:
		out = append(out, &v.Property.Object)
	case ValuePropertyStore:
		out = append(out, &v.Property.Object, &v.Property.Value)
	case ValueComputedLoad, ValueComputedDelete:
		out = append(out, &v.Computed.Object, &v.Computed.Property)
	case ValueComputedStore:
		out = append(out, &v.Computed.Object, &v.Computed.Property, &v.Computed.Value)
	case ValueJsx, ValueJsxFragment:
		if v.Jsx.Tag != nil {
			out = append(out, v.Jsx.Tag)
		}
		for i := range v.Jsx.Props {
			out = append(out, &v.Jsx.Props[i].Place)
		}
		for i := range v.Jsx.Children {
			out = append(out, &v.Jsx.Children[i])
		}
	case ValueFunction:
		for i := range v.Function.Context {
			out = append(out, &v.Function.Context[i])
		}
	case ValueTemplateLiteral:
		for i := range v.TemplateLiteral.Subexprs {
			out = append(out, &v.TemplateLiteral.Subexprs[i])
		}
	case ValueUnsupported, ValuePrimitive, ValueLoadGlobal, ValueRegExp, ValueCatchParam:
	}
	return out
}

// EachOperand calls fn for every operand of the instruction.
func (i *Instruction) EachOperand(fn func(p *Place)) {
	for _, p := range i.Value.Operands() {
		fn(p)
	}
}
