// Package diagfmt renders diagnostics for terminals and tools.
package diagfmt

import (
	"fmt"
	"path/filepath"
	"strings"

	"forget/internal/source"
)

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto prints paths as they were given.
	PathModeAuto PathMode = iota
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	Context   int8 // lines of context printed around the primary line
	PathMode  PathMode
	BaseDir   string // for PathModeRelative
	Width     uint8  // maximum source line width, 0 for unlimited
	ShowNotes bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	IncludePositions bool
	PathMode         PathMode
	BaseDir          string
	Max              int
	IncludeNotes     bool
}

// Format selects a renderer.
type Format uint8

const (
	FormatPretty Format = iota
	FormatJSON
	FormatShort
	FormatSarif
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pretty":
		return FormatPretty, nil
	case "json":
		return FormatJSON, nil
	case "short":
		return FormatShort, nil
	case "sarif":
		return FormatSarif, nil
	}
	return FormatPretty, fmt.Errorf("invalid diagnostic format %q (expected: pretty|json|short|sarif)", s)
}

func formatPath(f *source.File, mode PathMode, base string) string {
	if f == nil {
		return "<unknown>"
	}
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(f.Path); err == nil {
			return abs
		}
	case PathModeRelative:
		if base == "" {
			base = "."
		}
		absBase, errBase := filepath.Abs(base)
		absPath, errPath := filepath.Abs(f.Path)
		if errBase == nil && errPath == nil {
			if rel, err := filepath.Rel(absBase, absPath); err == nil {
				return rel
			}
		}
	case PathModeBasename:
		return filepath.Base(f.Path)
	}
	return f.Path
}

// position resolves span to a 1-based line and column when the file has
// content; ok is false when only byte offsets are known.
func position(fs *source.FileSet, span source.Span) (start, end source.LineCol, ok bool) {
	f := fs.Get(span.File)
	if f == nil || len(f.Content) == 0 {
		return source.LineCol{}, source.LineCol{}, false
	}
	return fs.Resolve(span)
}
