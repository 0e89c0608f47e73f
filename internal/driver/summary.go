package driver

import (
	"encoding/json"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"forget/internal/diag"
	"forget/internal/hir"
	"forget/internal/source"
)

// summarySchemaVersion is bumped whenever the summary layout changes; it
// also invalidates disk cache entries.
const summarySchemaVersion uint16 = 1

// FileSummary is the serializable outcome of compiling one file.
type FileSummary struct {
	Schema    uint16            `json:"schema" msgpack:"schema"`
	Path      string            `json:"path" msgpack:"path"`
	Functions []FunctionSummary `json:"functions" msgpack:"functions"`
}

type FunctionSummary struct {
	Name        string              `json:"name" msgpack:"name"`
	Error       string              `json:"error,omitempty" msgpack:"error,omitempty"`
	Blocks      []BlockSummary      `json:"blocks,omitempty" msgpack:"blocks,omitempty"`
	Identifiers []IdentifierSummary `json:"identifiers,omitempty" msgpack:"identifiers,omitempty"`
	Scopes      []ScopeSummary      `json:"scopes,omitempty" msgpack:"scopes,omitempty"`
	Nested      []FunctionSummary   `json:"nested,omitempty" msgpack:"nested,omitempty"`
	Diagnostics []DiagnosticRecord  `json:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`
}

type BlockSummary struct {
	ID           int32   `json:"id" msgpack:"id"`
	Kind         string  `json:"kind" msgpack:"kind"`
	Preds        []int32 `json:"preds,omitempty" msgpack:"preds,omitempty"`
	Phis         int     `json:"phis,omitempty" msgpack:"phis,omitempty"`
	Instructions int     `json:"instructions" msgpack:"instructions"`
	Terminal     string  `json:"terminal" msgpack:"terminal"`
}

type IdentifierSummary struct {
	ID    int32    `json:"id" msgpack:"id"`
	Name  string   `json:"name,omitempty" msgpack:"name,omitempty"`
	Type  string   `json:"type" msgpack:"type"`
	Range [2]int32 `json:"range" msgpack:"range"`
	Scope int32    `json:"scope" msgpack:"scope"`
}

type ScopeSummary struct {
	ID      int32    `json:"id" msgpack:"id"`
	Range   [2]int32 `json:"range" msgpack:"range"`
	Members []int32  `json:"members" msgpack:"members"`
}

// DiagnosticRecord is a flattened diag.Diagnostic.
type DiagnosticRecord struct {
	Severity uint8  `json:"severity" msgpack:"severity"`
	Code     uint16 `json:"code" msgpack:"code"`
	ID       string `json:"id" msgpack:"id"`
	Message  string `json:"message" msgpack:"message"`
	File     uint32 `json:"file" msgpack:"file"`
	Start    uint32 `json:"start" msgpack:"start"`
	End      uint32 `json:"end" msgpack:"end"`
}

func recordOf(d diag.Diagnostic) DiagnosticRecord {
	return DiagnosticRecord{
		Severity: uint8(d.Severity),
		Code:     uint16(d.Code),
		ID:       d.Code.ID(),
		Message:  d.Message,
		File:     uint32(d.Primary.File),
		Start:    d.Primary.Start,
		End:      d.Primary.End,
	}
}

// Diagnostic rebuilds the diagnostic, without notes.
func (r DiagnosticRecord) Diagnostic() diag.Diagnostic {
	span := source.Span{File: source.FileID(r.File), Start: r.Start, End: r.End}
	return diag.New(diag.Severity(r.Severity), diag.Code(r.Code), span, r.Message)
}

// Summarize projects a function result onto its serializable form.
func Summarize(r *FunctionResult) FunctionSummary {
	s := FunctionSummary{Name: r.Name}
	if r.Err != nil {
		s.Error = r.Err.Error()
	}
	for _, d := range r.Diagnostics.Items() {
		s.Diagnostics = append(s.Diagnostics, recordOf(d))
	}
	if r.Func != nil {
		summarizeBody(&s, r.Func)
	}
	return s
}

func summarizeBody(s *FunctionSummary, f *hir.Function) {
	for _, blk := range f.Body.Ordered() {
		b := BlockSummary{
			ID:           int32(blk.ID),
			Kind:         blk.Kind.String(),
			Phis:         len(blk.Phis),
			Instructions: len(blk.Instructions),
			Terminal:     blk.Terminal.Kind.String(),
		}
		for _, p := range blk.Preds {
			b.Preds = append(b.Preds, int32(p))
		}
		s.Blocks = append(s.Blocks, b)
	}
	for _, id := range f.Identifiers() {
		t := "?"
		if id.Type != nil {
			t = id.Type.String()
		}
		s.Identifiers = append(s.Identifiers, IdentifierSummary{
			ID:    int32(id.ID),
			Name:  id.Name,
			Type:  t,
			Range: [2]int32{int32(id.MutableRange.Start), int32(id.MutableRange.End)},
			Scope: int32(id.Scope),
		})
	}
	for _, sc := range f.Scopes {
		ss := ScopeSummary{ID: int32(sc.ID), Range: [2]int32{int32(sc.Range.Start), int32(sc.Range.End)}}
		for _, m := range sc.Members {
			ss.Members = append(ss.Members, int32(m.ID))
		}
		s.Scopes = append(s.Scopes, ss)
	}
	for _, inner := range f.Nested() {
		child := FunctionSummary{Name: inner.Name}
		summarizeBody(&child, inner)
		s.Nested = append(s.Nested, child)
	}
}

// WriteJSON writes summaries as one indented JSON array.
func WriteJSON(w io.Writer, summaries []FileSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summaries)
}

// WriteMsgpack writes summaries as one msgpack array.
func WriteMsgpack(w io.Writer, summaries []FileSummary) error {
	return msgpack.NewEncoder(w).Encode(summaries)
}

// ReadMsgpack decodes what WriteMsgpack wrote.
func ReadMsgpack(r io.Reader) ([]FileSummary, error) {
	var out []FileSummary
	if err := msgpack.NewDecoder(r).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
