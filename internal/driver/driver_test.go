package driver_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"forget/internal/diag"
	"forget/internal/driver"
	"forget/internal/estree"
	"forget/internal/hir"
	"forget/internal/observ"
	"forget/internal/source"
	tk "forget/internal/testkit"
)

const scenarioJSON = `{"type":"Program","body":[{"type":"FunctionDeclaration",
 "id":{"type":"Identifier","name":"f"},"params":[],
 "body":{"type":"BlockStatement","body":[
  {"type":"VariableDeclaration","kind":"let","declarations":[{"type":"VariableDeclarator",
    "id":{"type":"Identifier","name":"x"},"init":{"type":"ObjectExpression","properties":[]}}]},
  {"type":"VariableDeclaration","kind":"let","declarations":[{"type":"VariableDeclarator",
    "id":{"type":"Identifier","name":"y"},"init":{"type":"ArrayExpression","elements":[]}}]},
  {"type":"ExpressionStatement","expression":{"type":"CallExpression",
    "callee":{"type":"Identifier","name":"foo"},
    "arguments":[{"type":"Identifier","name":"x"},{"type":"Identifier","name":"y"}]}},
  {"type":"ExpressionStatement","expression":{"type":"CallExpression",
    "callee":{"type":"MemberExpression","computed":false,
      "object":{"type":"Identifier","name":"y"},"property":{"type":"Identifier","name":"push"}},
    "arguments":[{"type":"Identifier","name":"x"}]}}
 ]}}]}`

const constReassignJSON = `{"type":"Program","body":[{"type":"FunctionDeclaration",
 "id":{"type":"Identifier","name":"g"},"params":[],
 "body":{"type":"BlockStatement","body":[
  {"type":"VariableDeclaration","kind":"const","declarations":[{"type":"VariableDeclarator",
    "id":{"type":"Identifier","name":"a","start":20,"end":21},"init":{"type":"Literal","value":1}}]},
  {"type":"ExpressionStatement","expression":{"type":"AssignmentExpression","operator":"=",
    "start":30,"end":35,
    "left":{"type":"Identifier","name":"a","start":30,"end":31},"right":{"type":"Literal","value":2}}}
 ]}}]}`

func identifier(t *testing.T, f *hir.Function, name string) *hir.Identifier {
	t.Helper()
	for _, id := range f.Identifiers() {
		if id.Name == name {
			return id
		}
	}
	t.Fatalf("no identifier %s", name)
	return nil
}

func TestCompileSourceGroupsScenario(t *testing.T) {
	fs := source.NewFileSet()
	res := driver.CompileSource(context.Background(), fs, "scenario.json", []byte(scenarioJSON), driver.DefaultOptions())
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if len(res.Functions) != 1 {
		t.Fatalf("got %d functions", len(res.Functions))
	}
	fr := res.Functions[0]
	if fr.Err != nil {
		t.Fatalf("%s: %v", fr.Name, fr.Err)
	}
	x, y := identifier(t, fr.Func, "x"), identifier(t, fr.Func, "y")
	if !x.Scope.Valid() || x.Scope != y.Scope {
		t.Fatalf("x scope %v, y scope %v\n%s", x.Scope, y.Scope, hir.DumpString(fr.Func, hir.DumpOptions{Scopes: true}))
	}
	sum := res.Summary.Functions[0]
	if sum.Name != "f" || len(sum.Scopes) == 0 || len(sum.Blocks) == 0 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestInvalidInputFailsFunction(t *testing.T) {
	fs := source.NewFileSet()
	res := driver.CompileSource(context.Background(), fs, "bad.json", []byte(constReassignJSON), driver.DefaultOptions())
	if len(res.Functions) != 1 {
		t.Fatalf("got %d functions", len(res.Functions))
	}
	if err := res.Functions[0].Err; !errors.Is(err, driver.ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}
	if !res.Failed() {
		t.Fatal("file should be reported as failed")
	}
	diags := res.Diagnostics()
	if len(diags) == 0 || diags[0].Code != diag.InvalidConstReassign {
		t.Fatalf("diagnostics = %+v", diags)
	}
	if diags[0].Primary.File != res.File {
		t.Fatalf("diagnostic file %d, want %d", diags[0].Primary.File, res.File)
	}
}

func TestDecodeFailureIsFileLevel(t *testing.T) {
	fs := source.NewFileSet()
	res := driver.CompileSource(context.Background(), fs, "broken.json", []byte(`{"type":`), driver.DefaultOptions())
	if res.Err == nil {
		t.Fatal("expected decode error")
	}
	if res.Bag.Len() != 1 || res.Bag.Items()[0].Code != diag.IODecodeAST {
		t.Fatalf("bag = %+v", res.Bag.Items())
	}
}

func TestBailOnTodo(t *testing.T) {
	fn := func() *estree.Function {
		return tk.Fn("f", nil,
			tk.Let("x", tk.Num(0)),
			tk.Expr(tk.AssignOp("||=", tk.Ident("x"), tk.Num(1))),
			tk.Return(tk.Ident("x")),
		)
	}
	opts := driver.DefaultOptions()
	res := driver.CompileFunction(context.Background(), fn(), "f", opts)
	if res.Err != nil {
		t.Fatalf("todo should not fail by default: %v", res.Err)
	}
	if !res.Diagnostics.HasTodos() {
		t.Fatal("expected a todo diagnostic")
	}
	opts.BailOnTodo = true
	res = driver.CompileFunction(context.Background(), fn(), "f", opts)
	if !errors.Is(res.Err, driver.ErrUnsupported) {
		t.Fatalf("err = %v, want unsupported", res.Err)
	}
}

func TestCapturedReassignIsTodo(t *testing.T) {
	tests := []struct {
		name   string
		update func() estree.Node
	}{
		{name: "assign", update: func() estree.Node { return tk.Assign(tk.Ident("count"), tk.Num(1)) }},
		{name: "increment", update: func() estree.Node { return tk.Update("++", false, tk.Ident("count")) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := func() *estree.Function {
				return tk.Fn("f", nil,
					tk.Let("count", tk.Num(0)),
					tk.Const("bump", tk.Arrow(nil, tk.Block(tk.Expr(tt.update())))),
					tk.Return(tk.Ident("bump")),
				)
			}
			opts := driver.DefaultOptions()
			res := driver.CompileFunction(context.Background(), fn(), "f", opts)
			if res.Err != nil {
				t.Fatalf("todo should not fail by default: %v", res.Err)
			}
			found := false
			for _, d := range res.Diagnostics.Items() {
				found = found || d.Code == diag.TodoContextAssign
			}
			if !found {
				t.Fatalf("diagnostics = %+v, want a captured reassignment todo", res.Diagnostics.Items())
			}
			opts.BailOnTodo = true
			if res := driver.CompileFunction(context.Background(), fn(), "f", opts); !errors.Is(res.Err, driver.ErrUnsupported) {
				t.Fatalf("err = %v, want unsupported", res.Err)
			}
		})
	}
}

func TestUseMemoIsInlined(t *testing.T) {
	res := driver.CompileFunction(context.Background(), tk.Fn("C", []string{"a"},
		tk.Const("v", tk.Call(tk.Ident("useMemo"),
			tk.Arrow(nil, tk.Bin("*", tk.Ident("a"), tk.Num(2))),
			tk.Arr(tk.Ident("a")))),
		tk.Return(tk.Ident("v")),
	), "C", driver.DefaultOptions())
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if n := len(res.Func.Nested()); n != 0 {
		t.Fatalf("nested = %d, want the callback inlined\n%s", n, hir.DumpString(res.Func, hir.DumpOptions{}))
	}
}

func TestStopAfterSSAKeepsPhis(t *testing.T) {
	opts := driver.DefaultOptions()
	opts.StopAfter = driver.StageSSA
	opts.Features.ConstantPropagation = false
	res := driver.CompileFunction(context.Background(), tk.Fn("f", []string{"c"},
		tk.Let("x", tk.Obj()),
		tk.If(tk.Ident("c"), tk.Block(tk.Expr(tk.Assign(tk.Ident("x"), tk.Arr()))), nil),
		tk.Return(tk.Ident("x")),
	), "f", opts)
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if tk.CountPhis(res.Func) != 1 {
		t.Fatalf("phis = %d\n%s", tk.CountPhis(res.Func), hir.DumpString(res.Func, hir.DumpOptions{}))
	}
	if len(res.Func.Scopes) != 0 {
		t.Fatal("scopes inferred before the scopes stage")
	}
}

func TestNestedFunctionsAreCompiled(t *testing.T) {
	res := driver.CompileFunction(context.Background(), tk.Fn("outer", nil,
		tk.Const("make", tk.Arrow(nil, tk.Block(
			tk.Const("o", tk.Obj()),
			tk.Expr(tk.Call(tk.Ident("fill"), tk.Ident("o"))),
			tk.Return(tk.Ident("o")),
		))),
		tk.Return(tk.Ident("make")),
	), "outer", driver.DefaultOptions())
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	nested := res.Func.Nested()
	if len(nested) != 1 {
		t.Fatalf("nested = %d", len(nested))
	}
	if len(nested[0].Scopes) == 0 {
		t.Fatalf("nested function has no scopes\n%s", hir.DumpString(nested[0], hir.DumpOptions{Scopes: true}))
	}
	if tk.CountPhis(nested[0]) != 0 {
		t.Fatal("nested function still in SSA form")
	}
	if sum := driver.Summarize(&res); len(sum.Nested) != 1 {
		t.Fatalf("summary nested = %d", len(sum.Nested))
	}
}

func TestObserverAndTimer(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string]int)
	opts := driver.DefaultOptions()
	opts.Timer = observ.NewTimer()
	opts.Observer = func(ev driver.PhaseEvent) {
		mu.Lock()
		defer mu.Unlock()
		if ev.Status == driver.PhaseEnd {
			seen[ev.Name]++
		}
	}
	res := driver.CompileFunction(context.Background(), tk.Fn("f", nil, tk.Return(tk.Num(1))), "f", opts)
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	for _, name := range []string{"build", "enter_ssa", "infer_types", "infer_reactive_scopes"} {
		if seen[name] != 1 {
			t.Errorf("pass %s observed %d times", name, seen[name])
		}
	}
	report := driver.TimingReport(opts)
	if len(report.Passes) == 0 || report.Passes[0].Name != "build" {
		t.Fatalf("report = %+v", report)
	}
}

func writeInputs(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		"a.json":         scenarioJSON,
		"b.json":         constReassignJSON,
		"nested/c.json":  scenarioJSON,
		".hidden/d.json": scenarioJSON,
		"notes.txt":      "ignored",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCompileFilesUsesCache(t *testing.T) {
	dir := t.TempDir()
	writeInputs(t, dir)
	paths, err := driver.ListInputs([]string{dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 3 || !strings.HasSuffix(paths[0], "a.json") {
		t.Fatalf("paths = %v", paths)
	}

	cache, err := driver.OpenDiskCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	opts := driver.DefaultOptions()
	opts.Jobs = 2
	opts.Cache = cache

	first, err := driver.CompileFiles(context.Background(), source.NewFileSet(), paths, opts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := driver.CompileFiles(context.Background(), source.NewFileSet(), paths, opts)
	if err != nil {
		t.Fatal(err)
	}
	for i := range paths {
		if first[i].Cached {
			t.Errorf("%s: cached on first run", paths[i])
		}
		if !second[i].Cached {
			t.Errorf("%s: not cached on second run", paths[i])
		}
		if !reflect.DeepEqual(first[i].Summary, second[i].Summary) {
			t.Errorf("%s: cached summary differs", paths[i])
		}
		if len(first[i].Diagnostics()) != len(second[i].Diagnostics()) {
			t.Errorf("%s: cached diagnostics differ", paths[i])
		}
	}
	if !second[1].Failed() {
		t.Error("cached failure lost")
	}

	opts.Features.ConstantPropagation = false
	third, err := driver.CompileFiles(context.Background(), source.NewFileSet(), paths[:1], opts)
	if err != nil {
		t.Fatal(err)
	}
	if third[0].Cached {
		t.Error("changed options should miss the cache")
	}
	if err := cache.DropAll(); err != nil {
		t.Fatal(err)
	}
}

func TestCompileFilesReportsMissingFile(t *testing.T) {
	res, err := driver.CompileFiles(context.Background(), source.NewFileSet(),
		[]string{filepath.Join(t.TempDir(), "missing.json")}, driver.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if res[0].Err == nil || res[0].Bag.Items()[0].Code != diag.IOLoadFileError {
		t.Fatalf("result = %+v", res[0])
	}
}

func TestSummaryMsgpackRoundTrip(t *testing.T) {
	fs := source.NewFileSet()
	res := driver.CompileSource(context.Background(), fs, "scenario.json", []byte(scenarioJSON), driver.DefaultOptions())
	var buf bytes.Buffer
	if err := driver.WriteMsgpack(&buf, []driver.FileSummary{res.Summary}); err != nil {
		t.Fatal(err)
	}
	got, err := driver.ReadMsgpack(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !reflect.DeepEqual(got[0], res.Summary) {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", got, res.Summary)
	}
}

func TestParseStage(t *testing.T) {
	tests := []struct {
		in   string
		want driver.Stage
		err  bool
	}{
		{"hir", driver.StageHIR, false},
		{"SSA", driver.StageSSA, false},
		{"types", driver.StageTypes, false},
		{"", driver.StageScopes, false},
		{"codegen", driver.StageScopes, true},
	}
	for _, tt := range tests {
		got, err := driver.ParseStage(tt.in)
		if (err != nil) != tt.err || got != tt.want {
			t.Errorf("ParseStage(%q) = %v, %v", tt.in, got, err)
		}
	}
}
