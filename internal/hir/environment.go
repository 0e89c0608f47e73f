package hir

import (
	"fmt"

	"fortio.org/safecast"

	"forget/internal/source"
)

// Features toggles optional pipeline behavior.
type Features struct {
	ConstantPropagation bool
	InlineUseMemo       bool
	ValidateHIR         bool
}

func DefaultFeatures() Features {
	return Features{ConstantPropagation: true, InlineUseMemo: true, ValidateHIR: true}
}

// Environment allocates ids for one compilation and gives passes access to
// the shape registry. It is not safe for concurrent use; each compilation
// owns one.
type Environment struct {
	Registry Registry
	Features Features

	nextIdentifier int
	nextBlock      int
	nextScope      int
	nextTypeVar    int
}

func NewEnvironment(reg Registry, features Features) *Environment {
	return &Environment{Registry: reg, Features: features}
}

func next(counter *int, what string) int32 {
	raw, err := safecast.Conv[int32](*counter)
	if err != nil {
		panic(fmt.Errorf("hir: %s id overflow: %w", what, err))
	}
	*counter++
	return raw
}

func (e *Environment) NextIdentifierID() IdentifierID {
	return IdentifierID(next(&e.nextIdentifier, "identifier"))
}

func (e *Environment) NextBlockID() BlockID { return BlockID(next(&e.nextBlock, "block")) }

func (e *Environment) NextScopeID() ScopeID { return ScopeID(next(&e.nextScope, "scope")) }

func (e *Environment) NextTypeVarID() TypeVarID { return TypeVarID(next(&e.nextTypeVar, "type variable")) }

// NewTypeVar returns a fresh unresolved type.
func (e *Environment) NewTypeVar() *TypeVar { return &TypeVar{ID: e.NextTypeVarID()} }

// NewIdentifier allocates a named identifier with a fresh type variable.
func (e *Environment) NewIdentifier(name string, span source.Span) *Identifier {
	return &Identifier{
		ID:    e.NextIdentifierID(),
		Name:  name,
		Scope: NoScopeID,
		Type:  e.NewTypeVar(),
		Span:  span,
	}
}

func (e *Environment) NewTemporary(span source.Span) *Identifier {
	return e.NewIdentifier("", span)
}
