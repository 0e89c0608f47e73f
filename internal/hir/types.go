package hir

import (
	"fmt"
	"strings"
)

// Type is the best-effort inferred type of a value. The variant set is
// closed: PrimitiveType, FunctionType, ObjectType, HookType, PhiType,
// TypeVar and PolyType.
type Type interface {
	String() string
	isType()
}

// PrimitiveType covers every non-object value: numbers, strings, booleans,
// null and undefined.
type PrimitiveType struct{}

type FunctionType struct {
	ShapeID string // empty when the shape is unknown
	Return  Type   // nil when unknown
}

type ObjectType struct {
	ShapeID string
}

type HookType struct {
	Definition *HookDefinition
}

type PhiType struct {
	Operands []Type
}

type TypeVar struct {
	ID TypeVarID
}

// PolyType is the untyped escape hatch.
type PolyType struct{}

func (PrimitiveType) isType() {}
func (*FunctionType) isType() {}
func (*ObjectType) isType()   {}
func (*HookType) isType()     {}
func (*PhiType) isType()      {}
func (*TypeVar) isType()      {}
func (PolyType) isType()      {}

func (PrimitiveType) String() string { return "Primitive" }
func (PolyType) String() string      { return "Poly" }

func (t *FunctionType) String() string {
	var sb strings.Builder
	sb.WriteString("Function")
	if t.ShapeID != "" {
		sb.WriteString("<" + t.ShapeID + ">")
	}
	if t.Return != nil {
		sb.WriteString("():")
		sb.WriteString(t.Return.String())
	}
	return sb.String()
}

func (t *ObjectType) String() string {
	if t.ShapeID == "" {
		return "Object"
	}
	return "Object<" + t.ShapeID + ">"
}

func (t *HookType) String() string {
	if t.Definition == nil {
		return "Hook"
	}
	return "Hook<" + t.Definition.Name + ">"
}

func (t *PhiType) String() string {
	parts := make([]string, len(t.Operands))
	for i, op := range t.Operands {
		parts[i] = op.String()
	}
	return "Phi(" + strings.Join(parts, ", ") + ")"
}

func (t *TypeVar) String() string { return fmt.Sprintf("T%d", t.ID) }

// TypeKindName names the variant of t, used to compare concrete kinds.
func TypeKindName(t Type) string {
	switch t.(type) {
	case PrimitiveType:
		return "Primitive"
	case *FunctionType:
		return "Function"
	case *ObjectType:
		return "Object"
	case *HookType:
		return "Hook"
	case *PhiType:
		return "Phi"
	case *TypeVar:
		return "Type"
	case PolyType:
		return "Poly"
	case nil:
		return "nil"
	}
	return "unknown"
}

func IsPrimitive(t Type) bool {
	_, ok := t.(PrimitiveType)
	return ok
}

func IsTypeVar(t Type) bool {
	_, ok := t.(*TypeVar)
	return ok
}

// TypeEquals compares two types structurally. Type variables are equal
// when their ids match.
func TypeEquals(a, b Type) bool {
	switch at := a.(type) {
	case PrimitiveType:
		_, ok := b.(PrimitiveType)
		return ok
	case PolyType:
		_, ok := b.(PolyType)
		return ok
	case *TypeVar:
		bt, ok := b.(*TypeVar)
		return ok && at.ID == bt.ID
	case *ObjectType:
		bt, ok := b.(*ObjectType)
		return ok && at.ShapeID == bt.ShapeID
	case *FunctionType:
		bt, ok := b.(*FunctionType)
		if !ok || at.ShapeID != bt.ShapeID {
			return false
		}
		if at.Return == nil || bt.Return == nil {
			return at.Return == nil && bt.Return == nil
		}
		return TypeEquals(at.Return, bt.Return)
	case *HookType:
		bt, ok := b.(*HookType)
		return ok && at.Definition == bt.Definition
	case *PhiType:
		bt, ok := b.(*PhiType)
		if !ok || len(at.Operands) != len(bt.Operands) {
			return false
		}
		for i := range at.Operands {
			if !TypeEquals(at.Operands[i], bt.Operands[i]) {
				return false
			}
		}
		return true
	}
	return a == nil && b == nil
}
