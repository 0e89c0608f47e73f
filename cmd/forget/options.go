package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"forget/internal/config"
	"forget/internal/driver"
	"forget/internal/observ"
	"forget/internal/shapes"
)

// loadOptions resolves the config file for the first input and turns it,
// together with the common flags, into driver options.
func loadOptions(cmd *cobra.Command, input string) (*config.Config, driver.Options, error) {
	opts := driver.DefaultOptions()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, opts, fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := config.Resolve(configPath, startDir(input))
	if err != nil {
		return nil, opts, err
	}

	reg := shapes.Default()
	if err := cfg.Apply(reg); err != nil {
		return nil, opts, fmt.Errorf("%s: %w", cfg.Path, err)
	}
	opts.Registry = reg
	opts.Features = cfg.Features()
	opts.BailOnTodo = cfg.Compiler.BailOnTodo
	opts.MaxDiagnostics = cfg.Compiler.MaxDiagnostics
	opts.CacheSalt = cfg.Digest

	if cmd.Flags().Changed("bail-on-todo") {
		if opts.BailOnTodo, err = cmd.Flags().GetBool("bail-on-todo"); err != nil {
			return nil, opts, fmt.Errorf("failed to get bail-on-todo flag: %w", err)
		}
	}
	noConstProp, err := cmd.Flags().GetBool("no-const-prop")
	if err != nil {
		return nil, opts, fmt.Errorf("failed to get no-const-prop flag: %w", err)
	}
	if noConstProp {
		opts.Features.ConstantPropagation = false
	}
	noSource, err := cmd.Flags().GetBool("no-source")
	if err != nil {
		return nil, opts, fmt.Errorf("failed to get no-source flag: %w", err)
	}
	opts.Source = !noSource

	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return nil, opts, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if timings {
		opts.Timer = observ.NewTimer()
	}
	return cfg, opts, nil
}

// addCompilerFlags registers the flags shared by compile and dump.
func addCompilerFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "config file (default: nearest forget.toml or forget.yaml)")
	cmd.Flags().Bool("bail-on-todo", false, "fail functions that use unsupported syntax")
	cmd.Flags().Bool("no-const-prop", false, "disable constant propagation")
	cmd.Flags().Bool("no-source", false, "do not look for the JavaScript file next to each input")
}

func startDir(input string) string {
	if input == "" {
		return "."
	}
	if info, err := os.Stat(input); err == nil && info.IsDir() {
		return input
	}
	return filepath.Dir(input)
}
