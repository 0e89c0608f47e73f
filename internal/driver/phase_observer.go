package driver

import "time"

// PhaseStatus reports whether a pass started or finished.
type PhaseStatus int

const (
	PhaseStart PhaseStatus = iota
	PhaseEnd
)

// PhaseEvent describes a pass boundary for one function.
type PhaseEvent struct {
	Function string
	Name     string
	Status   PhaseStatus
	Elapsed  time.Duration
	Err      error
}

// PhaseObserver receives pass events. It may be called from several
// goroutines when files are compiled in parallel.
type PhaseObserver func(PhaseEvent)
