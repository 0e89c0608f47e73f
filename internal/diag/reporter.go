package diag

import "forget/internal/source"

// Reporter is how lowering emits non-fatal findings without knowing where
// they end up.
type Reporter interface {
	Report(sev Severity, code Code, primary source.Span, msg string)
}

// BagReporter writes into a *Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(sev Severity, code Code, primary source.Span, msg string) {
	r.Bag.Add(New(sev, code, primary, msg))
}

// NopReporter drops everything.
type NopReporter struct{}

func (NopReporter) Report(Severity, Code, source.Span, string) {}

// Todo reports an unsupported construct, defaulting the message to the
// code title.
func Todo(r Reporter, code Code, primary source.Span, msg string) {
	if r == nil {
		return
	}
	if msg == "" {
		msg = code.Title()
	}
	r.Report(SevTodo, code, primary, msg)
}

// Invalid reports malformed input.
func Invalid(r Reporter, code Code, primary source.Span, msg string) {
	if r == nil {
		return
	}
	if msg == "" {
		msg = code.Title()
	}
	r.Report(SevInvalidInput, code, primary, msg)
}
