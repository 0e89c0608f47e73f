package estree_test

import (
	"errors"
	"testing"

	"forget/internal/estree"
	"forget/internal/source"
)

const componentJSON = `{
  "type": "Program", "start": 0, "end": 60,
  "body": [{
    "type": "FunctionDeclaration", "start": 0, "end": 60,
    "id": {"type": "Identifier", "name": "Component", "start": 9, "end": 18},
    "params": [{"type": "Identifier", "name": "props", "start": 19, "end": 24}],
    "body": {"type": "BlockStatement", "start": 26, "end": 60, "body": [
      {"type": "VariableDeclaration", "kind": "const", "declarations": [{
        "type": "VariableDeclarator",
        "id": {"type": "Identifier", "name": "x"},
        "init": {"type": "ObjectExpression", "properties": []}
      }]},
      {"type": "ReturnStatement", "argument": {
        "type": "JSXElement",
        "openingElement": {"type": "JSXOpeningElement", "selfClosing": true,
          "name": {"type": "JSXIdentifier", "name": "div"},
          "attributes": [{"type": "JSXAttribute",
            "name": {"type": "JSXIdentifier", "name": "title"},
            "value": {"type": "Literal", "value": "hi", "raw": "\"hi\""}}]},
        "children": []
      }}
    ]}
  }]
}`

func TestDecodeProgram(t *testing.T) {
	prog, err := estree.DecodeProgram([]byte(componentJSON), 1)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	names, fns := estree.Functions(prog)
	if len(fns) != 1 || names[0] != "Component" {
		t.Fatalf("unexpected functions: %v", names)
	}
	fn := fns[0]
	if fn.Kind != estree.FunctionDeclaration || len(fn.Params) != 1 {
		t.Fatalf("unexpected function: %+v", fn)
	}
	if got := fn.Span(); got != (source.Span{File: 1, Start: 0, End: 60}) {
		t.Errorf("span = %v", got)
	}
	body := fn.Body.(*estree.BlockStatement)
	decl := body.Body[0].(*estree.VariableDeclaration)
	if decl.Kind != "const" || len(decl.Declarations) != 1 {
		t.Errorf("unexpected declaration: %+v", decl)
	}
	ret := body.Body[1].(*estree.ReturnStatement)
	el, ok := ret.Argument.(*estree.JSXElement)
	if !ok || !el.SelfClosing || len(el.Attributes) != 1 {
		t.Fatalf("unexpected return argument: %#v", ret.Argument)
	}
	attr := el.Attributes[0].(*estree.JSXAttribute)
	lit := attr.Value.(*estree.Literal)
	if lit.Kind != estree.LitString || lit.Str != "hi" {
		t.Errorf("unexpected literal: %+v", lit)
	}
}

func TestDecodeLiterals(t *testing.T) {
	tests := []struct {
		src  string
		kind estree.LiteralKind
	}{
		{`{"type":"Literal","value":1.5}`, estree.LitNumber},
		{`{"type":"Literal","value":true}`, estree.LitBoolean},
		{`{"type":"Literal","value":null}`, estree.LitNull},
		{`{"type":"Literal","value":"s"}`, estree.LitString},
		{`{"type":"Literal","value":{},"regex":{"pattern":"a+","flags":"g"}}`, estree.LitRegExp},
		{`{"type":"NumericLiteral","value":3}`, estree.LitNumber},
		{`{"type":"NullLiteral"}`, estree.LitNull},
	}
	for _, tt := range tests {
		n, err := estree.Decode([]byte(tt.src), 0)
		if err != nil {
			t.Errorf("%s: %v", tt.src, err)
			continue
		}
		lit, ok := n.(*estree.Literal)
		if !ok || lit.Kind != tt.kind {
			t.Errorf("%s: got %#v", tt.src, n)
		}
	}
}

func TestDecodeUnknownAndErrors(t *testing.T) {
	n, err := estree.Decode([]byte(`{"type":"ClassDeclaration","start":3,"end":9}`), 0)
	if err != nil {
		t.Fatal(err)
	}
	if u, ok := n.(*estree.Unknown); !ok || u.Type() != "ClassDeclaration" || u.Span().Start != 3 {
		t.Errorf("expected Unknown node, got %#v", n)
	}
	if _, err := estree.Decode([]byte(`{"name":"x"}`), 0); err == nil {
		t.Error("expected error for node without type")
	}
	if _, err := estree.DecodeProgram([]byte(`{"type":"Identifier","name":"x"}`), 0); !errors.Is(err, estree.ErrNotProgram) {
		t.Errorf("expected ErrNotProgram, got %v", err)
	}
}

func TestDecodeBabelFileWrapper(t *testing.T) {
	src := `{"type":"File","program":{"type":"Program","body":[
	  {"type":"VariableDeclaration","kind":"const","declarations":[{"type":"VariableDeclarator",
	    "id":{"type":"Identifier","name":"useThing"},
	    "init":{"type":"ArrowFunctionExpression","params":[],"body":{"type":"NumericLiteral","value":1}}}]}]}}`
	prog, err := estree.DecodeProgram([]byte(src), 0)
	if err != nil {
		t.Fatal(err)
	}
	names, fns := estree.Functions(prog)
	if len(fns) != 1 || names[0] != "useThing" || !fns[0].Expression {
		t.Fatalf("unexpected: %v %#v", names, fns)
	}
}
