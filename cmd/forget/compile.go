package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"forget/internal/diag"
	"forget/internal/diagfmt"
	"forget/internal/driver"
	"forget/internal/hir"
	"forget/internal/source"
	"forget/internal/version"
)

var compileCmd = &cobra.Command{
	Use:   "compile [flags] <file.json|directory>...",
	Short: "Compile the functions of ESTree JSON documents",
	Long: `Compile every top-level function of the given ESTree JSON documents, or of
all *.json files within the given directories, and report diagnostics`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompile,
}

func init() {
	addCompilerFlags(compileCmd)
	compileCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	compileCmd.Flags().Bool("cache", false, "reuse results from the disk cache")
	compileCmd.Flags().Bool("clear-cache", false, "drop every disk cache entry before compiling")
	compileCmd.Flags().String("format", "pretty", "diagnostic format (pretty|json|short|sarif)")
	compileCmd.Flags().String("emit", "none", "what to print after compiling (hir|json|msgpack|none)")
	compileCmd.Flags().Bool("with-notes", true, "include diagnostic notes")
	compileCmd.Flags().Bool("fullpath", false, "emit absolute file paths")
}

// runCompile compiles the inputs, prints diagnostics to stderr and the
// requested artifact to stdout. It fails when any function failed.
func runCompile(cmd *cobra.Command, args []string) error {
	format, err := flagString(cmd, "format")
	if err != nil {
		return err
	}
	diagFormat, err := diagfmt.ParseFormat(format)
	if err != nil {
		return err
	}
	emit, err := flagString(cmd, "emit")
	if err != nil {
		return err
	}
	emit = strings.ToLower(emit)
	switch emit {
	case "hir", "json", "msgpack", "none":
	default:
		return fmt.Errorf("unknown emit target %q (must be hir, json, msgpack or none)", emit)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	useCache, err := cmd.Flags().GetBool("cache")
	if err != nil {
		return fmt.Errorf("failed to get cache flag: %w", err)
	}

	cfg, opts, err := loadOptions(cmd, args[0])
	if err != nil {
		return err
	}
	opts.Jobs = jobs

	tracer, cleanup, err := setupTracing(cmd, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	// a cached file has no HIR to print
	if (useCache || cfg.Cache.Enabled) && emit != "hir" {
		cache, err := driver.OpenDiskCache(cfg.Cache.Dir)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		if drop, _ := cmd.Flags().GetBool("clear-cache"); drop {
			if err := cache.DropAll(); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
		}
		opts.Cache = cache
	}

	paths, err := driver.ListInputs(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.New("no ESTree documents found")
	}

	fs := source.NewFileSet()
	results, err := driver.CompileFiles(cmd.Context(), fs, paths, opts)
	if err != nil {
		return err
	}

	var items []diag.Diagnostic
	failed, invariant := 0, false
	for i := range results {
		items = append(items, results[i].Diagnostics()...)
		if results[i].Failed() {
			failed++
		}
		invariant = invariant || hasInvariant(results[i].Functions)
	}
	if err := writeDiagnostics(cmd, cmd.ErrOrStderr(), diagFormat, items, fs); err != nil {
		return err
	}
	if invariant {
		dumpRing(cmd.ErrOrStderr(), tracer)
	}

	out := cmd.OutOrStdout()
	switch emit {
	case "hir":
		err = emitHIR(out, results, hir.DumpOptions{Types: true, Ranges: true, Scopes: true})
	case "json":
		err = driver.WriteJSON(out, summaries(results))
	case "msgpack":
		err = driver.WriteMsgpack(out, summaries(results))
	}
	if err != nil {
		return err
	}

	if quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet"); !quiet {
		printTimings(cmd.ErrOrStderr(), opts.Timer)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

// writeDiagnostics applies --max-diagnostics and the path flags, then
// renders items.
func writeDiagnostics(cmd *cobra.Command, w io.Writer, format diagfmt.Format, items []diag.Diagnostic, fs *source.FileSet) error {
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	withNotes, _ := cmd.Flags().GetBool("with-notes")
	fullPath, _ := cmd.Flags().GetBool("fullpath")

	pathMode := diagfmt.PathModeAuto
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	if format == diagfmt.FormatJSON {
		return diagfmt.JSON(w, items, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			Max:              maxDiagnostics,
			IncludeNotes:     withNotes,
		})
	}
	if format == diagfmt.FormatSarif {
		return diagfmt.Sarif(w, items, fs, diagfmt.SarifRunMeta{ToolName: "forget", ToolVersion: version.Version})
	}
	if len(items) == 0 {
		return nil
	}
	if maxDiagnostics > 0 && len(items) > maxDiagnostics {
		items = items[:maxDiagnostics]
	}
	return diagfmt.Write(w, format, items, fs, diagfmt.PrettyOpts{
		Color:     useColor(cmd) && isTerminal(os.Stderr),
		Context:   1,
		PathMode:  pathMode,
		ShowNotes: withNotes,
	})
}

func emitHIR(w io.Writer, results []driver.FileResult, opts hir.DumpOptions) error {
	for i := range results {
		r := &results[i]
		if _, err := fmt.Fprintf(w, "// %s\n", r.Path); err != nil {
			return err
		}
		for j := range r.Functions {
			fn := &r.Functions[j]
			if fn.Func == nil {
				if _, err := fmt.Fprintf(w, "// %s: %v\n", fn.Name, fn.Err); err != nil {
					return err
				}
				continue
			}
			if err := hir.Dump(w, fn.Func, opts); err != nil {
				return err
			}
		}
	}
	return nil
}

func summaries(results []driver.FileResult) []driver.FileSummary {
	out := make([]driver.FileSummary, len(results))
	for i := range results {
		out[i] = results[i].Summary
	}
	return out
}

func flagString(cmd *cobra.Command, name string) (string, error) {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", fmt.Errorf("failed to get %s flag: %w", name, err)
	}
	return v, nil
}
