package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"forget/internal/driver"
)

const programJSON = `{"type":"Program","body":[{"type":"FunctionDeclaration",
 "id":{"type":"Identifier","name":"f"},"params":[{"type":"Identifier","name":"c"}],
 "body":{"type":"BlockStatement","body":[
  {"type":"VariableDeclaration","kind":"let","declarations":[{"type":"VariableDeclarator",
    "id":{"type":"Identifier","name":"x"},"init":{"type":"Literal","value":1}}]},
  {"type":"IfStatement","test":{"type":"Identifier","name":"c"},
    "consequent":{"type":"ExpressionStatement","expression":{"type":"AssignmentExpression","operator":"=",
      "left":{"type":"Identifier","name":"x"},"right":{"type":"Literal","value":2}}}},
  {"type":"ReturnStatement","argument":{"type":"Identifier","name":"x"}}
 ]}}]}`

// execute runs the CLI with args after resetting every flag, since
// cobra keeps flag values between runs.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var reset func(*cobra.Command)
	reset = func(c *cobra.Command) {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
		for _, sub := range c.Commands() {
			reset(sub)
		}
	}
	reset(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func writeProgram(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.json")
	if err := os.WriteFile(path, []byte(programJSON), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCompileEmitsJSONSummary(t *testing.T) {
	path := writeProgram(t)
	stdout, stderr, err := execute(t, "compile", "--emit", "json", path)
	if err != nil {
		t.Fatalf("compile: %v\n%s", err, stderr)
	}
	var files []driver.FileSummary
	if err := json.Unmarshal([]byte(stdout), &files); err != nil {
		t.Fatalf("decode: %v\n%s", err, stdout)
	}
	if len(files) != 1 || len(files[0].Functions) != 1 || files[0].Functions[0].Name != "f" {
		t.Fatalf("summary = %+v", files)
	}
	if files[0].Functions[0].Error != "" {
		t.Fatalf("function failed: %s", files[0].Functions[0].Error)
	}
}

func TestCompileRejectsUnknownEmit(t *testing.T) {
	path := writeProgram(t)
	if _, _, err := execute(t, "compile", "--emit", "wasm", path); err == nil {
		t.Fatal("expected error")
	}
}

func TestDumpAfterSSAShowsPhi(t *testing.T) {
	path := writeProgram(t)
	stdout, stderr, err := execute(t, "dump", "--after", "ssa", "--no-const-prop", path)
	if err != nil {
		t.Fatalf("dump: %v\n%s", err, stderr)
	}
	if !strings.Contains(stdout, "phi") {
		t.Fatalf("expected a phi in:\n%s", stdout)
	}
}

func TestDumpUnknownFunction(t *testing.T) {
	path := writeProgram(t)
	if _, _, err := execute(t, "dump", "--function", "nope", path); err == nil {
		t.Fatal("expected error")
	}
}

func TestVersionJSON(t *testing.T) {
	stdout, _, err := execute(t, "version", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	var payload versionPayload
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Tool != "forget" || payload.Version == "" {
		t.Fatalf("payload = %+v", payload)
	}
}
