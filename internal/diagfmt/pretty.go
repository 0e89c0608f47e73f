package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"forget/internal/diag"
	"forget/internal/source"
)

type palette struct {
	sev   map[diag.Severity]*color.Color
	code  *color.Color
	path  *color.Color
	caret *color.Color
	gut   *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		sev: map[diag.Severity]*color.Color{
			diag.SevTodo:         mk(color.FgYellow, color.Bold),
			diag.SevInvalidInput: mk(color.FgRed, color.Bold),
			diag.SevInvariant:    mk(color.FgMagenta, color.Bold),
		},
		code:  mk(color.FgCyan),
		path:  mk(color.Bold),
		caret: mk(color.FgRed, color.Bold),
		gut:   mk(color.FgBlue),
	}
}

// Pretty writes each diagnostic as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source line with the span underlined when the file
// content is known. Items are printed in the given order.
func Pretty(w io.Writer, items []diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) error {
	pal := newPalette(opts.Color)
	for i := range items {
		if err := prettyOne(w, &items[i], fs, opts, pal); err != nil {
			return err
		}
	}
	return nil
}

func prettyOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, pal palette) error {
	sev := pal.sev[d.Severity]
	if sev == nil {
		sev = pal.code
	}
	header := fmt.Sprintf("%s: %s %s: %s\n",
		pal.path.Sprint(location(fs, d.Primary, opts.PathMode, opts.BaseDir)),
		sev.Sprint(d.Severity.String()),
		pal.code.Sprint(d.Code.ID()),
		d.Message)
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	if err := snippet(w, fs, d.Primary, opts, pal); err != nil {
		return err
	}
	if !opts.ShowNotes {
		return nil
	}
	for _, n := range d.Notes {
		line := fmt.Sprintf("  note: %s: %s\n", location(fs, n.Span, opts.PathMode, opts.BaseDir), n.Msg)
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}

func location(fs *source.FileSet, span source.Span, mode PathMode, base string) string {
	path := formatPath(fs.Get(span.File), mode, base)
	if start, _, ok := position(fs, span); ok {
		return fmt.Sprintf("%s:%d:%d", path, start.Line, start.Col)
	}
	return fmt.Sprintf("%s@%d", path, span.Start)
}

// snippet prints the primary line, optional context lines and a caret
// underline whose width accounts for wide runes.
func snippet(w io.Writer, fs *source.FileSet, span source.Span, opts PrettyOpts, pal palette) error {
	start, end, ok := position(fs, span)
	if !ok {
		return nil
	}
	f := fs.Get(span.File)
	first := start.Line
	if ctx := uint32(max(opts.Context, 0)); first > ctx {
		first -= ctx
	} else {
		first = 1
	}
	gutter := len(fmt.Sprint(start.Line))
	var sb strings.Builder
	for n := first; n <= start.Line; n++ {
		text := clip(expandTabs(f.Line(n)), opts.Width)
		fmt.Fprintf(&sb, "%s %s\n", pal.gut.Sprintf("%*d |", gutter, n), text)
	}

	line := expandTabs(f.Line(start.Line))
	prefix := columnPrefix(f.Line(start.Line), start.Col)
	pad := runewidth.StringWidth(expandTabs(prefix))
	width := 1
	if end.Line == start.Line && end.Col > start.Col {
		covered := columnPrefix(f.Line(start.Line), end.Col)
		width = max(runewidth.StringWidth(expandTabs(covered))-pad, 1)
	} else if end.Line > start.Line {
		width = max(runewidth.StringWidth(line)-pad, 1)
	}
	if opts.Width > 0 && pad+width > int(opts.Width) {
		width = max(int(opts.Width)-pad, 1)
	}
	underline := "^" + strings.Repeat("~", width-1)
	fmt.Fprintf(&sb, "%s %s%s\n", pal.gut.Sprintf("%*s |", gutter, ""), strings.Repeat(" ", pad), pal.caret.Sprint(underline))
	_, err := io.WriteString(w, sb.String())
	return err
}

// columnPrefix returns the bytes of line before the 1-based byte column.
func columnPrefix(line string, col uint32) string {
	if col <= 1 {
		return ""
	}
	n := int(col - 1)
	if n > len(line) {
		n = len(line)
	}
	return line[:n]
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}

func clip(s string, width uint8) string {
	if width == 0 || runewidth.StringWidth(s) <= int(width) {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, int(width), "")
	}
	return runewidth.Truncate(s, int(width), "...")
}
