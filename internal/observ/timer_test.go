package observ

import (
	"strings"
	"testing"
)

func TestTimerAggregatesByName(t *testing.T) {
	tm := NewTimer()
	for range 3 {
		tm.End(tm.Begin("enter-ssa"), "")
	}
	tm.End(tm.Begin("infer-types"), "")

	r := tm.Report()
	if len(r.Passes) != 2 {
		t.Fatalf("expected 2 passes, got %d", len(r.Passes))
	}
	if r.Passes[0].Name != "enter-ssa" || r.Passes[0].Count != 3 {
		t.Errorf("unexpected first pass: %+v", r.Passes[0])
	}
	if !strings.Contains(tm.Summary(), "infer-types") {
		t.Error("summary misses infer-types")
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	tm.End(tm.Begin("x"), "")
	if len(tm.Report().Passes) != 0 {
		t.Error("nil timer must report nothing")
	}
}
