package driver

import (
	"context"
	"errors"
	"fmt"

	"forget/internal/alias"
	"forget/internal/build"
	"forget/internal/diag"
	"forget/internal/estree"
	"forget/internal/hir"
	"forget/internal/optimize"
	"forget/internal/scope"
	"forget/internal/shapes"
	"forget/internal/ssa"
	"forget/internal/trace"
	"forget/internal/typeinfer"
)

var (
	// ErrInvalidInput marks a function whose source the language rejects.
	ErrInvalidInput = errors.New("function has invalid input")
	// ErrUnsupported marks a function skipped because it uses syntax
	// that is not lowered, when bailing on todos.
	ErrUnsupported = errors.New("function uses unsupported syntax")
)

// FunctionResult is the outcome of compiling one top-level function.
// Func is the lowered function, possibly only partly analyzed when Err is
// set.
type FunctionResult struct {
	Name        string
	Func        *hir.Function
	Diagnostics *diag.Bag
	Err         error
}

// Failed reports whether the function must be left uncompiled.
func (r *FunctionResult) Failed() bool { return r.Err != nil }

type pipeline struct {
	opts Options
	name string
}

// CompileFunction lowers fn and runs the passes up to opts.StopAfter.
// Nested function expressions go through the same passes before their
// parent leaves lowering.
func CompileFunction(ctx context.Context, fn *estree.Function, name string, opts Options) FunctionResult {
	if opts.Registry == nil {
		opts.Registry = shapes.Default()
	}
	sp := trace.Begin(trace.FromContext(ctx), trace.ScopeFunction, "function", trace.CurrentSpan(ctx)).
		WithExtra("name", displayName(name))
	ctx = trace.WithSpan(ctx, sp)

	p := &pipeline{opts: opts, name: displayName(name)}
	env := hir.NewEnvironment(opts.Registry, opts.Features)
	bag := diag.NewBag(opts.MaxDiagnostics)
	res := FunctionResult{Name: name, Diagnostics: bag}

	var f *hir.Function
	err := p.pass("build", func() error {
		var err error
		f, err = build.Build(env, fn, name, bag)
		return err
	})
	res.Func = f
	if err == nil {
		err = p.check(bag)
	}
	if err == nil {
		err = p.run(ctx, f)
	}
	res.Err = err

	status := "ok"
	switch {
	case diag.IsInvariant(err):
		status = "invariant"
	case err != nil:
		status = "failed"
	}
	sp.End(status)
	return res
}

func displayName(name string) string {
	if name == "" {
		return "<anonymous>"
	}
	return name
}

func (p *pipeline) check(bag *diag.Bag) error {
	if bag.HasErrors() {
		return ErrInvalidInput
	}
	if p.opts.BailOnTodo && bag.HasTodos() {
		return ErrUnsupported
	}
	return nil
}

func (p *pipeline) run(ctx context.Context, f *hir.Function) error {
	for _, inner := range f.Nested() {
		if err := p.run(ctx, inner); err != nil {
			return fmt.Errorf("%s: %w", displayName(inner.Name), err)
		}
	}
	validate := p.opts.Features.ValidateHIR
	if validate {
		if err := p.pass("validate_hir", func() error { return hir.Validate(f) }); err != nil {
			return err
		}
	}
	if p.opts.StopAfter == StageHIR {
		return nil
	}

	if err := p.pass("enter_ssa", func() error { return ssa.EnterSSA(ctx, f) }); err != nil {
		return err
	}
	_ = p.pass("eliminate_redundant_phis", func() error {
		ssa.EliminateRedundantPhis(ctx, f)
		return nil
	})
	if p.opts.Features.ConstantPropagation {
		_ = p.pass("constant_propagation", func() error {
			optimize.ConstantPropagation(ctx, f)
			return nil
		})
	}
	if p.opts.Features.InlineUseMemo {
		if err := p.pass("inline_use_memo", func() error {
			_, err := optimize.InlineUseMemo(ctx, f)
			return err
		}); err != nil {
			return err
		}
	}
	if validate {
		if err := p.pass("validate_ssa", func() error { return hir.ValidateSSA(f) }); err != nil {
			return err
		}
	}
	if p.opts.StopAfter == StageSSA {
		return nil
	}

	if err := p.pass("infer_types", func() error { return typeinfer.InferTypes(ctx, f) }); err != nil {
		return err
	}
	_ = p.pass("leave_ssa", func() error {
		ssa.LeaveSSA(ctx, f)
		return nil
	})
	if p.opts.StopAfter == StageTypes {
		return nil
	}

	_ = p.pass("infer_mutable_ranges", func() error {
		scope.InferMutableRanges(ctx, f, alias.InferAliases(ctx, f))
		return nil
	})
	if err := p.pass("infer_reactive_scopes", func() error { return scope.InferReactiveScopes(ctx, f) }); err != nil {
		return err
	}
	if validate {
		return p.pass("validate", func() error { return hir.Validate(f) })
	}
	return nil
}
