package diag

import (
	"fmt"
	"sort"
)

// Bag collects the non-fatal diagnostics of one function.
type Bag struct {
	items []Diagnostic
	max   uint16
}

func NewBag(max int) *Bag {
	if max <= 0 || max > 0xFFFF {
		max = 0xFFFF
	}
	return &Bag{
		items: make([]Diagnostic, 0, min(max, 16)),
		max:   uint16(max), // #nosec G115 -- clamped above
	}
}

// Add returns false when the bag is full and d was dropped.
func (b *Bag) Add(d Diagnostic) bool {
	if b == nil || len(b.items) >= int(b.max) {
		return false
	}
	b.items = append(b.items, d)
	return true
}

// HasAtLeast reports whether any diagnostic is at least sev.
func (b *Bag) HasAtLeast(sev Severity) bool {
	if b == nil {
		return false
	}
	for i := range b.items {
		if b.items[i].Severity >= sev {
			return true
		}
	}
	return false
}

// HasErrors is true when the bag holds InvalidInput (or worse) diagnostics.
func (b *Bag) HasErrors() bool {
	return b.HasAtLeast(SevInvalidInput)
}

// HasTodos is true when some construct was replaced by a placeholder.
func (b *Bag) HasTodos() bool {
	if b == nil {
		return false
	}
	for i := range b.items {
		if b.items[i].Severity == SevTodo {
			return true
		}
	}
	return false
}

func (b *Bag) Len() int {
	if b == nil {
		return 0
	}
	return len(b.items)
}

// Items returns the backing slice; callers must not modify it.
func (b *Bag) Items() []Diagnostic {
	if b == nil {
		return nil
	}
	return b.items
}

// Merge appends other's items, growing the limit if needed.
func (b *Bag) Merge(other *Bag) {
	if b == nil || other == nil {
		return
	}
	total := len(b.items) + len(other.items)
	if total > int(b.max) && total <= 0xFFFF {
		b.max = uint16(total) // #nosec G115 -- checked above
	}
	for _, d := range other.items {
		b.Add(d)
	}
}

// Sort orders by file, start, end, severity (desc), code.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		if di.Primary.File != dj.Primary.File {
			return di.Primary.File < dj.Primary.File
		}
		if di.Primary.Start != dj.Primary.Start {
			return di.Primary.Start < dj.Primary.Start
		}
		if di.Primary.End != dj.Primary.End {
			return di.Primary.End < dj.Primary.End
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.Code < dj.Code
	})
}

// Dedup drops repeated Code+Primary pairs, keeping the first.
func (b *Bag) Dedup() {
	seen := make(map[string]bool, len(b.items))
	out := b.items[:0]
	for _, d := range b.items {
		key := fmt.Sprintf("%d:%s", d.Code, d.Primary)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	b.items = out
}
