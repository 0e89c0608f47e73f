package diag

// Severity orders diagnostics from least to most severe.
type Severity uint8

const (
	SevTodo Severity = iota
	SevInvalidInput
	SevInvariant
)

func (s Severity) String() string {
	switch s {
	case SevTodo:
		return "TODO"
	case SevInvalidInput:
		return "INVALID"
	case SevInvariant:
		return "INVARIANT"
	}
	return "UNKNOWN"
}
