package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"forget/internal/estree"
	"forget/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a decoded program:
// 1) program.Span is non-empty and within file content bounds
// 2) every top-level statement span is non-empty and inside program.Span
// 3) program.Span covers the union of statement spans (if any exist)
func CheckSpanInvariants(p *estree.Program, sf *source.File) error {
	if p == nil || sf == nil {
		return fmt.Errorf("nil program or file")
	}
	ps := p.Span()

	// 1) program span sanity
	if ps.End <= ps.Start {
		return fmt.Errorf("program span is empty: %v", ps)
	}
	if ps.File != sf.ID {
		return fmt.Errorf("program span points to different file id: got=%d want=%d", ps.File, sf.ID)
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	if ps.End > lenContent {
		return fmt.Errorf("program span end beyond content: %d > %d", ps.End, lenContent)
	}

	// 2) statement spans within program span; 3) program covers union
	var union source.Span
	var haveStmt bool
	for _, stmt := range p.Body {
		if stmt == nil {
			return fmt.Errorf("nil statement in program body")
		}
		sp := stmt.Span()
		if sp.End <= sp.Start {
			return fmt.Errorf("empty %s span: %v", stmt.Type(), sp)
		}
		if sp.File != sf.ID {
			return fmt.Errorf("statement span file mismatch: got=%d want=%d", sp.File, sf.ID)
		}
		if !ps.Contains(sp) {
			return fmt.Errorf("%s span %v is outside program span %v", stmt.Type(), sp, ps)
		}
		if !haveStmt {
			union = sp
			haveStmt = true
		} else {
			union = union.Cover(sp)
		}
	}

	if haveStmt && !ps.Contains(union) {
		return fmt.Errorf("program span %v does not cover union of statements %v", ps, union)
	}
	return nil
}
