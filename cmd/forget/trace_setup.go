package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"forget/internal/config"
	"forget/internal/trace"
)

// setupTracing builds the tracer from the trace flags, falling back to the
// [trace] section of cfg for anything not given on the command line. The
// returned cleanup flushes and closes it.
func setupTracing(cmd *cobra.Command, cfg *config.Config) (trace.Tracer, func(), error) {
	flags := cmd.Root().PersistentFlags()

	output, err := flags.GetString("trace")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := flags.GetString("trace-level")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := flags.GetString("trace-mode")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	ringSize, err := flags.GetInt("trace-ring-size")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}

	formatStr := ""
	if cfg != nil {
		if levelStr == "" {
			levelStr = cfg.Trace.Level
		}
		if modeStr == "" {
			modeStr = cfg.Trace.Mode
		}
		if output == "" {
			output = cfg.Trace.Output
		}
		formatStr = cfg.Trace.Format
	}
	// --trace alone turns on phase tracing
	if levelStr == "" && output != "" {
		levelStr = "phase"
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trace level: %w", err)
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return trace.Nop, func() {}, nil
	}
	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trace mode: %w", err)
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trace format: %w", err)
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: output,
		RingSize:   ringSize,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	cleanup := func() {
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return tracer, cleanup, nil
}

// dumpRing writes the ring buffer of t, if it has one.
func dumpRing(w io.Writer, t trace.Tracer) {
	ring, ok := trace.Ring(t)
	if !ok {
		return
	}
	fmt.Fprintln(w, "--- trace ring ---")
	if err := ring.Dump(w, trace.FormatText); err != nil {
		fmt.Fprintf(w, "trace: dump error: %v\n", err)
	}
}
