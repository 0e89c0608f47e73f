package diagfmt

import (
	"fmt"
	"io"

	"forget/internal/diag"
	"forget/internal/source"
)

// Short writes one line per diagnostic: location, code and message.
func Short(w io.Writer, items []diag.Diagnostic, fs *source.FileSet, mode PathMode) error {
	for _, d := range items {
		if _, err := fmt.Fprintf(w, "%s: %s %s\n", location(fs, d.Primary, mode, ""), d.Code.ID(), d.Message); err != nil {
			return err
		}
	}
	return nil
}

// Write renders items in the chosen format.
func Write(w io.Writer, format Format, items []diag.Diagnostic, fs *source.FileSet, pretty PrettyOpts) error {
	switch format {
	case FormatJSON:
		return JSON(w, items, fs, JSONOpts{IncludePositions: true, PathMode: pretty.PathMode, BaseDir: pretty.BaseDir, IncludeNotes: pretty.ShowNotes})
	case FormatShort:
		return Short(w, items, fs, pretty.PathMode)
	case FormatSarif:
		return Sarif(w, items, fs, SarifRunMeta{ToolName: "forget", BaseDir: pretty.BaseDir})
	default:
		return Pretty(w, items, fs, pretty)
	}
}
