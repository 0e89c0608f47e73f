package driver

import (
	"time"

	"forget/internal/observ"
)

// pass runs one pipeline step, recording it in the timer and reporting
// it to the observer.
func (p *pipeline) pass(name string, run func() error) error {
	idx := p.opts.Timer.Begin(name)
	p.notify(PhaseEvent{Function: p.name, Name: name, Status: PhaseStart})
	start := time.Now()
	err := run()
	p.opts.Timer.End(idx, p.name)
	p.notify(PhaseEvent{Function: p.name, Name: name, Status: PhaseEnd, Elapsed: time.Since(start), Err: err})
	return err
}

func (p *pipeline) notify(ev PhaseEvent) {
	if p.opts.Observer != nil {
		p.opts.Observer(ev)
	}
}

// TimingReport returns the aggregated pass timings of a run, or an empty
// report when no timer was configured.
func TimingReport(opts Options) observ.Report {
	return opts.Timer.Report()
}
