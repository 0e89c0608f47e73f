package diag

import (
	"errors"
	"fmt"

	"forget/internal/source"
)

// Error is a fatal diagnostic. Passes return it instead of recording it;
// the unit of failure is the whole function.
type Error struct {
	Diagnostic
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s %s: %s", e.Severity, e.Code.ID(), e.Message)
}

// Invariantf builds a fatal SevInvariant error.
func Invariantf(span source.Span, code Code, format string, args ...any) error {
	return &Error{Diagnostic: New(SevInvariant, code, span, fmt.Sprintf(format, args...))}
}

// Fatal promotes a recorded diagnostic into an error.
func Fatal(d Diagnostic) error {
	return &Error{Diagnostic: d}
}

// AsError extracts the first *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsInvariant reports whether err carries an invariant violation.
func IsInvariant(err error) bool {
	de, ok := AsError(err)
	return ok && de.Severity == SevInvariant
}
