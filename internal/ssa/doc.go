// Package ssa converts HIR into static single assignment form and back.
//
// EnterSSA renames every place so that each identifier has exactly one
// definition, placing phis lazily with block-local value numbering:
// a use is resolved in its own block first, then through predecessors,
// and blocks whose predecessors are not all processed yet (loop headers)
// receive placeholder phis that are completed when the block is sealed.
//
// EliminateRedundantPhis removes phis that merge a single value, and
// LeaveSSA coalesces every phi with its operands before the passes that
// expect phi-free code.
package ssa
