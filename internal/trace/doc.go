// Package trace is the logging layer of the compiler.
//
// Events are structured (kind, scope, name, detail, extra key/values) and
// are written by a Tracer chosen from configuration:
//
//   - Nop: tracing disabled, zero overhead
//   - StreamTracer: immediate write to a file or stderr (text or NDJSON)
//   - RingTracer: last N events kept in memory, dumped when a function
//     fails with an invariant violation
//   - MultiTracer: fan-out to several tracers
//
// # Levels
//
//   - LevelOff: nothing
//   - LevelError: only crash dumps from the ring buffer
//   - LevelPhase: files and functions
//   - LevelDetail: every pipeline pass
//   - LevelDebug: block-level events (phi placement, sealing, deferred
//     equations)
//
// # Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "enter-ssa", parent)
//	defer span.End("")
package trace
