// Package diag defines the diagnostic model shared by every compiler pass.
//
// Findings come in three severities:
//
//   - SevTodo: a syntax form the lowering does not handle yet. The pass
//     records the diagnostic, emits an "unsupported" placeholder and keeps
//     going; a later validation stage is expected to reject the function.
//   - SevInvalidInput: the program itself is malformed (reassigning a const,
//     assigning to a global). Recorded on the function; the driver decides
//     whether to stop compiling it.
//   - SevInvariant: an internal consistency violation. These are never
//     recorded in a Bag; passes return them as *Error and the whole function
//     fails.
//
// Package diag performs no formatting or IO; rendering lives in
// internal/diagfmt.
package diag
