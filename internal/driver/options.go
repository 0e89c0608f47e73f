// Package driver runs the compiler pipeline over functions and files.
package driver

import (
	"fmt"
	"strings"

	"forget/internal/hir"
	"forget/internal/observ"
	"forget/internal/shapes"
)

// Stage is the last group of passes the pipeline runs.
type Stage uint8

const (
	StageHIR    Stage = iota // lowering only
	StageSSA                 // SSA, redundant phi elimination, constant propagation
	StageTypes               // type inference, then out of SSA
	StageScopes              // aliases, mutable ranges and reactive scopes
)

func (s Stage) String() string {
	switch s {
	case StageHIR:
		return "hir"
	case StageSSA:
		return "ssa"
	case StageTypes:
		return "types"
	case StageScopes:
		return "scopes"
	}
	return "unknown"
}

func ParseStage(s string) (Stage, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hir", "build":
		return StageHIR, nil
	case "ssa":
		return StageSSA, nil
	case "types":
		return StageTypes, nil
	case "", "scopes", "all":
		return StageScopes, nil
	}
	return StageScopes, fmt.Errorf("invalid stage %q (expected: hir|ssa|types|scopes)", s)
}

// Options configures one driver run. The registry is shared read-only
// between concurrently compiled files.
type Options struct {
	Registry       *shapes.Registry
	Features       hir.Features
	BailOnTodo     bool
	MaxDiagnostics int
	StopAfter      Stage
	Jobs           int

	// Source, when true, looks for the JavaScript file an ESTree document
	// was produced from so diagnostics can quote it.
	Source bool

	Cache *DiskCache
	// CacheSalt distinguishes cache entries produced under different
	// registries, usually the digest of the config file.
	CacheSalt string
	Timer     *observ.Timer
	Observer  PhaseObserver
}

// DefaultOptions runs the full pipeline against the built-in registry.
func DefaultOptions() Options {
	return Options{
		Registry:  shapes.Default(),
		Features:  hir.DefaultFeatures(),
		StopAfter: StageScopes,
		Source:    true,
	}
}

// fingerprint identifies the options that change compilation output.
func (o Options) fingerprint() string {
	return fmt.Sprintf("stage=%s cp=%t memo=%t validate=%t bail=%t max=%d salt=%s",
		o.StopAfter, o.Features.ConstantPropagation, o.Features.InlineUseMemo, o.Features.ValidateHIR,
		o.BailOnTodo, o.MaxDiagnostics, o.CacheSalt)
}
