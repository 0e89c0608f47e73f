package hir

import (
	"fmt"
	"strings"

	"forget/internal/source"
)

// MutableRange is the half-open instruction interval [Start, End) during
// which a value may still be written.
type MutableRange struct {
	Start InstrID
	End   InstrID
}

func (r MutableRange) Contains(id InstrID) bool { return id >= r.Start && id < r.End }

// Len is the number of instructions covered by the range.
func (r MutableRange) Len() int { return int(r.End - r.Start) }

func (r MutableRange) String() string { return fmt.Sprintf("[%d:%d]", r.Start, r.End) }

// Identifier is one value name. After SSA each Identifier has exactly one
// definition. Passes annotate it in place; it is never reconstructed.
type Identifier struct {
	ID           IdentifierID
	Name         string // empty for temporaries
	MutableRange MutableRange
	Scope        ScopeID // key into Function.Scopes, NoScopeID when unassigned
	Type         Type
	Span         source.Span
}

func (id *Identifier) IsTemporary() bool { return id.Name == "" }

func (id *Identifier) String() string {
	if id == nil {
		return "<nil>"
	}
	if id.Name == "" {
		return fmt.Sprintf("$%d", id.ID)
	}
	return fmt.Sprintf("%s$%d", id.Name, id.ID)
}

// Effect describes how an instruction uses a place.
type Effect uint8

const (
	EffectUnknown Effect = iota
	EffectFreeze
	EffectRead
	EffectCapture
	EffectStore
	EffectMutate
)

func (e Effect) String() string {
	switch e {
	case EffectFreeze:
		return "freeze"
	case EffectRead:
		return "read"
	case EffectCapture:
		return "capture"
	case EffectStore:
		return "store"
	case EffectMutate:
		return "mutate"
	default:
		return "unknown"
	}
}

// IsMutable reports whether the effect may write through the reference.
func (e Effect) IsMutable() bool { return e == EffectStore || e == EffectMutate }

// Place references an Identifier, optionally through a member path.
// Places are values; the Identifier is shared.
type Place struct {
	Identifier *Identifier
	Path       []string // member path, nil when the place is the identifier itself
	Effect     Effect
	Span       source.Span
}

func (p Place) HasPath() bool { return len(p.Path) > 0 }

func (p Place) String() string {
	var sb strings.Builder
	if p.Effect != EffectUnknown {
		sb.WriteString(p.Effect.String())
		sb.WriteByte(' ')
	}
	sb.WriteString(p.Identifier.String())
	for _, seg := range p.Path {
		sb.WriteByte('.')
		sb.WriteString(seg)
	}
	return sb.String()
}
