package testkit

import (
	"testing"

	"forget/internal/build"
	"forget/internal/diag"
	"forget/internal/estree"
	"forget/internal/hir"
	"forget/internal/shapes"
)

// Lower builds fn against the default shape registry and fails the test
// on fatal errors or a malformed graph.
func Lower(tb testing.TB, fn *estree.Function) *hir.Function {
	tb.Helper()
	env := hir.NewEnvironment(shapes.Default(), hir.DefaultFeatures())
	f, err := build.Build(env, fn, "", diag.NewBag(0))
	if err != nil {
		tb.Fatalf("build %s: %v", fn.Type(), err)
	}
	if err := hir.Validate(f); err != nil {
		tb.Fatalf("validate: %v\n%s", err, hir.DumpString(f, hir.DumpOptions{}))
	}
	return f
}

// PhisNamed returns the phis of f whose identifier carries name.
func PhisNamed(f *hir.Function, name string) []*hir.Phi {
	var out []*hir.Phi
	for _, blk := range f.Body.Ordered() {
		for _, phi := range blk.Phis {
			if phi.Place.Identifier.Name == name {
				out = append(out, phi)
			}
		}
	}
	return out
}

// CountPhis returns the number of phis in f.
func CountPhis(f *hir.Function) int {
	n := 0
	for _, blk := range f.Body.Ordered() {
		n += len(blk.Phis)
	}
	return n
}
