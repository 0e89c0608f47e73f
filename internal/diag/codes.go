package diag

import "fmt"

type Code uint16

const (
	UnknownCode Code = 0

	// Lowering gaps
	TodoInfo           Code = 1000
	TodoStatement      Code = 1001
	TodoExpression     Code = 1002
	TodoPattern        Code = 1003
	TodoSpread         Code = 1004
	TodoComputedKey    Code = 1005
	TodoTryFinally     Code = 1006
	TodoDeleteTarget   Code = 1007
	TodoUpdateTarget   Code = 1008
	TodoAssignOperator Code = 1009
	TodoJSXNamespace   Code = 1010
	TodoContextAssign  Code = 1011

	// Malformed programs
	InvalidInfo             Code = 2000
	InvalidConstReassign    Code = 2001
	InvalidGlobalReassign   Code = 2002
	InvalidBreakTarget      Code = 2003
	InvalidContinueTarget   Code = 2004
	InvalidAssignTarget     Code = 2005
	InvalidDuplicateBinding Code = 2006
	InvalidNode             Code = 2007

	// Compiler bugs
	InvariantInfo           Code = 3000
	InvariantVisitCycle     Code = 3001
	InvariantMissingBinding Code = 3002
	InvariantPhiInScopes    Code = 3003
	InvariantTypeCycle      Code = 3004
	InvariantMalformedCFG   Code = 3005
	InvariantPhiOperands    Code = 3006
	InvariantSSA            Code = 3007
	InvariantEmptyUnion     Code = 3008

	// Driver and IO
	IOInfo          Code = 4000
	IOLoadFileError Code = 4001
	IODecodeAST     Code = 4002
	IOConfig        Code = 4003
)

var codeDescription = map[Code]string{
	UnknownCode: "unknown error",

	TodoInfo:           "unsupported syntax",
	TodoStatement:      "statement kind is not lowered yet",
	TodoExpression:     "expression kind is not lowered yet",
	TodoPattern:        "destructuring patterns are not lowered yet",
	TodoSpread:         "spread elements are not lowered yet",
	TodoComputedKey:    "computed object keys are not lowered yet",
	TodoTryFinally:     "try/finally is not lowered yet",
	TodoDeleteTarget:   "delete of a non-member expression",
	TodoUpdateTarget:   "update expression on a non-identifier target",
	TodoAssignOperator: "assignment operator is not lowered yet",
	TodoJSXNamespace:   "namespaced or member JSX tags are not lowered yet",
	TodoContextAssign:  "assignment to a binding captured from an enclosing function",

	InvalidInfo:             "invalid input",
	InvalidConstReassign:    "cannot reassign a const binding",
	InvalidGlobalReassign:   "cannot reassign a global or out-of-scope binding",
	InvalidBreakTarget:      "break target not found",
	InvalidContinueTarget:   "continue target not found",
	InvalidAssignTarget:     "invalid assignment target",
	InvalidDuplicateBinding: "duplicate declaration",
	InvalidNode:             "malformed AST node",

	InvariantInfo:           "internal invariant",
	InvariantVisitCycle:     "block visited more than once",
	InvariantMissingBinding: "expected binding is missing",
	InvariantPhiInScopes:    "phi node survived into scope inference",
	InvariantTypeCycle:      "cycle detected",
	InvariantMalformedCFG:   "malformed control-flow graph",
	InvariantPhiOperands:    "phi operands do not match block predecessors",
	InvariantSSA:            "identifier defined more than once",
	InvariantEmptyUnion:     "union of an empty set",

	IOInfo:          "io",
	IOLoadFileError: "failed to load file",
	IODecodeAST:     "failed to decode ESTree document",
	IOConfig:        "invalid configuration",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("TODO%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("INV%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("BUG%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	if desc, ok := codeDescription[c]; ok {
		return desc
	}
	return codeDescription[UnknownCode]
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// DefaultSeverity maps a code range to the severity it is reported with.
func (c Code) DefaultSeverity() Severity {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return SevTodo
	case ic >= 3000 && ic < 4000:
		return SevInvariant
	}
	return SevInvalidInput
}
