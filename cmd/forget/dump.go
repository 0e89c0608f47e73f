package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"forget/internal/diag"
	"forget/internal/diagfmt"
	"forget/internal/driver"
	"forget/internal/hir"
	"forget/internal/source"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [flags] <file.json>",
	Short: "Print the HIR of each function after a chosen pass",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	addCompilerFlags(dumpCmd)
	dumpCmd.Flags().String("after", "scopes", "last pass group to run (hir|ssa|types|scopes)")
	dumpCmd.Flags().String("function", "", "only print the function with this name")
}

func runDump(cmd *cobra.Command, args []string) error {
	after, err := flagString(cmd, "after")
	if err != nil {
		return err
	}
	stage, err := driver.ParseStage(after)
	if err != nil {
		return err
	}
	only, err := flagString(cmd, "function")
	if err != nil {
		return err
	}

	cfg, opts, err := loadOptions(cmd, args[0])
	if err != nil {
		return err
	}
	opts.StopAfter = stage

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

	fs := source.NewFileSet()
	res := driver.CompileFile(cmd.Context(), fs, args[0], opts)
	if items := res.Diagnostics(); len(items) > 0 {
		err := diagfmt.Pretty(cmd.ErrOrStderr(), items, fs, diagfmt.PrettyOpts{
			Color:     useColor(cmd),
			Context:   1,
			ShowNotes: true,
		})
		if err != nil {
			return err
		}
	}
	if res.Err != nil {
		return res.Err
	}

	dumpOpts := hir.DumpOptions{
		Types:  stage >= driver.StageTypes,
		Ranges: stage >= driver.StageScopes,
		Scopes: stage >= driver.StageScopes,
	}
	found := false
	for i := range res.Functions {
		fn := &res.Functions[i]
		if only != "" && fn.Name != only {
			continue
		}
		found = true
		if fn.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", fn.Name, fn.Err)
			if fn.Func == nil {
				continue
			}
		}
		if err := hir.Dump(cmd.OutOrStdout(), fn.Func, dumpOpts); err != nil {
			return err
		}
	}
	if hasInvariant(res.Functions) {
		dumpRing(cmd.ErrOrStderr(), tracer)
	}
	printTimings(cmd.ErrOrStderr(), opts.Timer)
	if only != "" && !found {
		return fmt.Errorf("no function named %q in %s", only, args[0])
	}
	return nil
}

func hasInvariant(fns []driver.FunctionResult) bool {
	for i := range fns {
		if diag.IsInvariant(fns[i].Err) {
			return true
		}
	}
	return false
}
