// Package typeinfer assigns a best-effort type to every identifier by
// generating equations over type variables and unifying them.
package typeinfer

import (
	"fmt"

	"forget/internal/diag"
	"forget/internal/hir"
	"forget/internal/source"
)

// Equation is one constraint. TypeEquation is solved immediately;
// PropertyEquation and CallReturnEquation wait until the object or callee
// type is concrete and then query the registry.
type Equation interface {
	String() string
	isEquation()
}

type TypeEquation struct {
	Left  hir.Type
	Right hir.Type
}

// PropertyEquation says Left is the type of property Property of Object.
type PropertyEquation struct {
	Left     hir.Type
	Object   hir.Type
	Property string
}

// CallReturnEquation says Left is the return type of calling Callee.
type CallReturnEquation struct {
	Left   hir.Type
	Callee hir.Type
}

func (TypeEquation) isEquation()       {}
func (PropertyEquation) isEquation()   {}
func (CallReturnEquation) isEquation() {}

func (e TypeEquation) String() string { return fmt.Sprintf("%s = %s", e.Left, e.Right) }
func (e PropertyEquation) String() string {
	return fmt.Sprintf("%s = %s.%s", e.Left, e.Object, e.Property)
}
func (e CallReturnEquation) String() string { return fmt.Sprintf("%s = %s()", e.Left, e.Callee) }

// Unifier holds the substitution from type variables to types.
type Unifier struct {
	reg   hir.Registry
	subst map[hir.TypeVarID]hir.Type
}

func NewUnifier(reg hir.Registry) *Unifier {
	return &Unifier{reg: reg, subst: make(map[hir.TypeVarID]hir.Type)}
}

// Solve unifies every equation. Lazy equations whose object or callee is
// still a variable are retried after each round that made progress; the
// ones still waiting when no progress is possible are returned.
func (u *Unifier) Solve(eqs []Equation) ([]Equation, error) {
	pending := eqs
	for {
		var deferred []Equation
		for _, eq := range pending {
			done, err := u.apply(eq)
			if err != nil {
				return nil, err
			}
			if !done {
				deferred = append(deferred, eq)
			}
		}
		if len(deferred) == 0 || len(deferred) == len(pending) {
			return deferred, nil
		}
		pending = deferred
	}
}

func (u *Unifier) apply(eq Equation) (bool, error) {
	switch e := eq.(type) {
	case TypeEquation:
		return true, u.Unify(e.Left, e.Right)
	case PropertyEquation:
		obj := u.get(e.Object)
		if hir.IsTypeVar(obj) {
			return false, nil
		}
		if t := u.reg.GetPropertyType(obj, e.Property); t != nil {
			return true, u.Unify(e.Left, t)
		}
		return true, nil
	case CallReturnEquation:
		callee := u.get(e.Callee)
		if hir.IsTypeVar(callee) {
			return false, nil
		}
		if sig := u.reg.GetFunctionSignature(callee); sig != nil && sig.Return != nil {
			return true, u.Unify(e.Left, sig.Return)
		}
		return true, nil
	}
	return true, nil
}

// get follows variable bindings one chain deep without rebuilding types.
func (u *Unifier) get(t hir.Type) hir.Type {
	for {
		v, ok := t.(*hir.TypeVar)
		if !ok {
			return t
		}
		next, bound := u.subst[v.ID]
		if !bound {
			return t
		}
		t = next
	}
}

// Unify makes a and b equal under the substitution. Mismatched concrete
// types are ignored: inference is best effort.
func (u *Unifier) Unify(a, b hir.Type) error {
	if a == nil || b == nil || hir.TypeEquals(a, b) {
		return nil
	}
	if v, ok := a.(*hir.TypeVar); ok {
		return u.bind(v, b)
	}
	if v, ok := b.(*hir.TypeVar); ok {
		return u.bind(v, a)
	}
	fa, aok := a.(*hir.FunctionType)
	fb, bok := b.(*hir.FunctionType)
	if aok && bok && fa.Return != nil && fb.Return != nil {
		return u.Unify(fa.Return, fb.Return)
	}
	return nil
}

func (u *Unifier) bind(v *hir.TypeVar, t hir.Type) error {
	if _, poly := t.(hir.PolyType); poly {
		return nil
	}
	if prev, ok := u.subst[v.ID]; ok {
		return u.Unify(prev, t)
	}
	if tv, ok := t.(*hir.TypeVar); ok {
		if prev, bound := u.subst[tv.ID]; bound {
			return u.Unify(v, prev)
		}
	}
	if phi, ok := t.(*hir.PhiType); ok {
		if candidate := u.phiCandidate(phi); candidate != nil {
			return u.Unify(v, candidate)
		}
	}
	if u.occurs(v, t) {
		return diag.Invariantf(source.NoSpan, diag.InvariantTypeCycle, "cycle detected: %s occurs in %s", v, t)
	}
	u.subst[v.ID] = t
	return nil
}

// phiCandidate returns the single type every operand resolves to, or nil.
func (u *Unifier) phiCandidate(phi *hir.PhiType) hir.Type {
	var candidate hir.Type
	for _, op := range phi.Operands {
		resolved := u.get(op)
		if candidate == nil {
			candidate = resolved
			continue
		}
		if !hir.TypeEquals(resolved, candidate) {
			return nil
		}
	}
	return candidate
}

func (u *Unifier) occurs(v *hir.TypeVar, t hir.Type) bool {
	switch tt := t.(type) {
	case *hir.TypeVar:
		if tt.ID == v.ID {
			return true
		}
		if next, ok := u.subst[tt.ID]; ok {
			return u.occurs(v, next)
		}
	case *hir.PhiType:
		for _, op := range tt.Operands {
			if u.occurs(v, op) {
				return true
			}
		}
	case *hir.FunctionType:
		if tt.Return != nil {
			return u.occurs(v, tt.Return)
		}
	}
	return false
}

// Resolve rewrites t through the substitution to a fixed point. Phi types
// whose operands all resolve to one type collapse to it.
func (u *Unifier) Resolve(t hir.Type) hir.Type {
	switch tt := t.(type) {
	case *hir.TypeVar:
		if next, ok := u.subst[tt.ID]; ok {
			return u.Resolve(next)
		}
		return tt
	case *hir.PhiType:
		ops := make([]hir.Type, len(tt.Operands))
		for i, op := range tt.Operands {
			ops[i] = u.Resolve(op)
		}
		same := true
		for _, op := range ops[1:] {
			if !hir.TypeEquals(op, ops[0]) {
				same = false
				break
			}
		}
		if same && len(ops) > 0 && !hir.IsTypeVar(ops[0]) {
			return ops[0]
		}
		return &hir.PhiType{Operands: ops}
	case *hir.FunctionType:
		if tt.Return == nil {
			return tt
		}
		return &hir.FunctionType{ShapeID: tt.ShapeID, Return: u.Resolve(tt.Return)}
	}
	return t
}
