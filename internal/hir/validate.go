package hir

import (
	"errors"
	"fmt"
	"slices"
)

// Validate checks the structural invariants of the block graph.
// Returns every violation found, joined.
func Validate(f *Function) error {
	if f == nil {
		return nil
	}
	var errs []error

	// 1. Single entry with no predecessors
	if err := validateEntry(f); err != nil {
		errs = append(errs, err)
	}

	// 2. Order visits every block exactly once
	if err := validateOrder(f); err != nil {
		errs = append(errs, err)
	}

	// 3. Terminals set and targets exist
	if err := validateTargets(f); err != nil {
		errs = append(errs, err)
	}

	// 4. Predecessor sets match successors
	if err := validatePreds(f); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func validateEntry(f *Function) error {
	entry := f.Body.Block(f.Body.Entry)
	if entry == nil {
		return fmt.Errorf("entry bb%d does not exist", f.Body.Entry)
	}
	if len(entry.Preds) != 0 {
		return fmt.Errorf("entry bb%d has predecessors %v", entry.ID, entry.Preds)
	}
	if len(f.Body.Order) > 0 && f.Body.Order[0] != f.Body.Entry {
		return fmt.Errorf("order starts at bb%d, not at entry bb%d", f.Body.Order[0], f.Body.Entry)
	}
	return nil
}

func validateOrder(f *Function) error {
	var errs []error
	seen := make(map[BlockID]bool, len(f.Body.Order))
	for _, id := range f.Body.Order {
		if seen[id] {
			errs = append(errs, fmt.Errorf("bb%d visited twice", id))
		}
		seen[id] = true
		if f.Body.Blocks[id] == nil {
			errs = append(errs, fmt.Errorf("bb%d in order but not in arena", id))
		}
	}
	for id := range f.Body.Blocks {
		if !seen[id] {
			errs = append(errs, fmt.Errorf("bb%d not reachable from order", id))
		}
	}
	return errors.Join(errs...)
}

func validateTargets(f *Function) error {
	var errs []error
	for _, b := range f.Body.Ordered() {
		if b.Terminal.Kind == TermNone {
			errs = append(errs, fmt.Errorf("bb%d: unterminated block", b.ID))
			continue
		}
		for _, succ := range b.Terminal.Successors() {
			if f.Body.Block(succ) == nil {
				errs = append(errs, fmt.Errorf("bb%d: %s targets missing bb%d", b.ID, b.Terminal.Kind, succ))
			}
		}
		if ft := b.Terminal.Fallthrough; ft.Valid() && f.Body.Block(ft) == nil {
			errs = append(errs, fmt.Errorf("bb%d: fallthrough to missing bb%d", b.ID, ft))
		}
	}
	return errors.Join(errs...)
}

func validatePreds(f *Function) error {
	want := make(map[BlockID][]BlockID)
	for _, b := range f.Body.Ordered() {
		for _, succ := range b.Terminal.Successors() {
			if !slices.Contains(want[succ], b.ID) {
				want[succ] = append(want[succ], b.ID)
			}
		}
	}
	var errs []error
	for _, b := range f.Body.Ordered() {
		expected := want[b.ID]
		slices.Sort(expected)
		if !slices.Equal(expected, b.Preds) {
			errs = append(errs, fmt.Errorf("bb%d: predecessors %v, successors imply %v", b.ID, b.Preds, expected))
		}
	}
	return errors.Join(errs...)
}

// ValidateSSA checks that every identifier has exactly one definition and
// that every phi has one operand per predecessor of its block.
func ValidateSSA(f *Function) error {
	if f == nil {
		return nil
	}
	var errs []error
	defs := make(map[*Identifier]int)
	for _, p := range f.Params {
		defs[p.Identifier]++
	}
	for _, p := range f.Context {
		defs[p.Identifier]++
	}
	for _, b := range f.Body.Ordered() {
		for _, phi := range b.Phis {
			defs[phi.Place.Identifier]++
			if len(phi.Operands) != len(b.Preds) {
				errs = append(errs, fmt.Errorf("bb%d: phi %s has %d operands for %d predecessors",
					b.ID, phi.Place.Identifier, len(phi.Operands), len(b.Preds)))
			}
			for pred := range phi.Operands {
				if !b.HasPred(pred) {
					errs = append(errs, fmt.Errorf("bb%d: phi %s has operand for non-predecessor bb%d",
						b.ID, phi.Place.Identifier, pred))
				}
			}
		}
		for _, instr := range b.Instructions {
			if instr.Lvalue != nil && !instr.Lvalue.HasPath() {
				defs[instr.Lvalue.Identifier]++
			}
		}
	}
	for _, id := range f.Identifiers() {
		if n := defs[id]; n > 1 {
			errs = append(errs, fmt.Errorf("%s defined %d times", id, n))
		}
	}
	return errors.Join(errs...)
}
