package hir

import "forget/internal/source"

// TermKind enumerates terminal variants.
type TermKind uint8

const (
	TermNone TermKind = iota
	TermGoto
	TermIf
	TermBranch
	TermSwitch
	TermWhile
	TermFor
	TermDoWhile
	TermLogical
	TermTernary
	TermLabel
	TermTry
	TermMaybeThrow
	TermReturn
	TermThrow
	TermUnsupported
)

var termKindNames = [...]string{
	TermNone:        "None",
	TermGoto:        "Goto",
	TermIf:          "If",
	TermBranch:      "Branch",
	TermSwitch:      "Switch",
	TermWhile:       "While",
	TermFor:         "For",
	TermDoWhile:     "DoWhile",
	TermLogical:     "Logical",
	TermTernary:     "Ternary",
	TermLabel:       "Label",
	TermTry:         "Try",
	TermMaybeThrow:  "MaybeThrow",
	TermReturn:      "Return",
	TermThrow:       "Throw",
	TermUnsupported: "Unsupported",
}

func (k TermKind) String() string {
	if int(k) < len(termKindNames) {
		return termKindNames[k]
	}
	return "TermKind(?)"
}

// Terminal ends a basic block. Kind selects the populated payload.
// Fallthrough is the first block after a structured construct, or
// NoBlockID when the construct never completes normally.
type Terminal struct {
	Kind        TermKind
	ID          InstrID
	Fallthrough BlockID
	Span        source.Span

	Goto       GotoTerm
	If         IfTerm // also Branch
	Switch     SwitchTerm
	Loop       LoopTerm       // While, For, DoWhile
	Value      ValueTerm      // Logical, Ternary
	Label      BlockID        // Label body
	Try        TryTerm        // Try
	MaybeThrow MaybeThrowTerm // a point in a try block after which control may reach the handler
	Operand    Place          // Return, Throw
}

type GotoVariant uint8

const (
	GotoBreak GotoVariant = iota
	GotoContinue
)

type GotoTerm struct {
	Block   BlockID
	Variant GotoVariant
}

type IfTerm struct {
	Test       Place
	Consequent BlockID
	Alternate  BlockID
}

type SwitchCase struct {
	Test  *Place // nil for default
	Block BlockID
}

type SwitchTerm struct {
	Test  Place
	Cases []SwitchCase
}

// LoopTerm holds the blocks of a loop construct. Init and Update are only
// used by For.
type LoopTerm struct {
	Init   BlockID
	Test   BlockID
	Update BlockID
	Body   BlockID
}

type ValueTerm struct {
	Operator string // &&, ||, ?? for Logical
	Test     BlockID
}

type TryTerm struct {
	Block   BlockID
	Handler BlockID
}

type MaybeThrowTerm struct {
	Continuation BlockID
	Handler      BlockID
}

// Successors returns the blocks control may transfer to directly.
func (t *Terminal) Successors() []BlockID {
	switch t.Kind {
	case TermGoto:
		return []BlockID{t.Goto.Block}
	case TermIf, TermBranch:
		return []BlockID{t.If.Consequent, t.If.Alternate}
	case TermSwitch:
		out := make([]BlockID, 0, len(t.Switch.Cases))
		for _, c := range t.Switch.Cases {
			out = append(out, c.Block)
		}
		return out
	case TermWhile:
		return []BlockID{t.Loop.Test}
	case TermFor:
		return []BlockID{t.Loop.Init}
	case TermDoWhile:
		return []BlockID{t.Loop.Body}
	case TermLogical, TermTernary:
		return []BlockID{t.Value.Test}
	case TermLabel:
		return []BlockID{t.Label}
	case TermTry:
		return []BlockID{t.Try.Block, t.Try.Handler}
	case TermMaybeThrow:
		return []BlockID{t.MaybeThrow.Continuation, t.MaybeThrow.Handler}
	case TermReturn, TermThrow, TermUnsupported, TermNone:
	}
	return nil
}

// MapSuccessors rewrites every successor id with fn.
func (t *Terminal) MapSuccessors(fn func(BlockID) BlockID) {
	switch t.Kind {
	case TermGoto:
		t.Goto.Block = fn(t.Goto.Block)
	case TermIf, TermBranch:
		t.If.Consequent = fn(t.If.Consequent)
		t.If.Alternate = fn(t.If.Alternate)
	case TermSwitch:
		for i := range t.Switch.Cases {
			t.Switch.Cases[i].Block = fn(t.Switch.Cases[i].Block)
		}
	case TermWhile:
		t.Loop.Test = fn(t.Loop.Test)
	case TermFor:
		t.Loop.Init = fn(t.Loop.Init)
	case TermDoWhile:
		t.Loop.Body = fn(t.Loop.Body)
	case TermLogical, TermTernary:
		t.Value.Test = fn(t.Value.Test)
	case TermLabel:
		t.Label = fn(t.Label)
	case TermTry:
		t.Try.Block = fn(t.Try.Block)
		t.Try.Handler = fn(t.Try.Handler)
	case TermMaybeThrow:
		t.MaybeThrow.Continuation = fn(t.MaybeThrow.Continuation)
		t.MaybeThrow.Handler = fn(t.MaybeThrow.Handler)
	case TermReturn, TermThrow, TermUnsupported, TermNone:
	}
}

// Operands returns pointers to the places the terminal reads.
func (t *Terminal) Operands() []*Place {
	switch t.Kind {
	case TermIf, TermBranch:
		return []*Place{&t.If.Test}
	case TermSwitch:
		out := []*Place{&t.Switch.Test}
		for i := range t.Switch.Cases {
			if t.Switch.Cases[i].Test != nil {
				out = append(out, t.Switch.Cases[i].Test)
			}
		}
		return out
	case TermReturn, TermThrow:
		return []*Place{&t.Operand}
	}
	return nil
}

// HasFallthrough reports whether the kind carries a fallthrough block.
func (k TermKind) HasFallthrough() bool {
	switch k {
	case TermIf, TermSwitch, TermWhile, TermFor, TermDoWhile,
		TermLogical, TermTernary, TermLabel, TermTry:
		return true
	}
	return false
}
