package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"forget/internal/diag"
	"forget/internal/estree"
	"forget/internal/source"
	"forget/internal/trace"
)

// sourceExts are tried, in order, next to an ESTree document to find the
// JavaScript it was produced from.
var sourceExts = []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx"}

// FileResult is the outcome of compiling one ESTree document. Functions
// is empty when the summary came from the disk cache.
type FileResult struct {
	Path      string
	File      source.FileID
	Functions []FunctionResult
	Summary   FileSummary
	Cached    bool
	// Bag holds file-level diagnostics such as load or decode failures.
	Bag *diag.Bag
	Err error
}

// Diagnostics returns every diagnostic of the file, function ones
// included, sorted by position.
func (r *FileResult) Diagnostics() []diag.Diagnostic {
	all := diag.NewBag(0)
	all.Merge(r.Bag)
	if r.Cached {
		for _, fn := range r.Summary.Functions {
			for _, rec := range fn.Diagnostics {
				d := rec.Diagnostic()
				d.Primary.File = r.File
				all.Add(d)
			}
		}
	} else {
		for i := range r.Functions {
			all.Merge(r.Functions[i].Diagnostics)
		}
	}
	all.Sort()
	all.Dedup()
	return all.Items()
}

// Failed reports whether the file or any of its functions failed.
func (r *FileResult) Failed() bool {
	if r.Err != nil {
		return true
	}
	for _, fn := range r.Summary.Functions {
		if fn.Error != "" {
			return true
		}
	}
	return false
}

type input struct {
	path string
	data []byte
	file source.FileID
	err  error
}

// loadInput reads an ESTree document and registers the file its spans
// point into. FileSet is not safe for concurrent use, so inputs are
// loaded before compilation fans out.
func loadInput(fs *source.FileSet, path string, withSource bool) input {
	// #nosec G304 -- path is provided by the caller
	data, err := os.ReadFile(path)
	if err != nil {
		return input{path: path, err: err}
	}
	if withSource {
		stem := strings.TrimSuffix(path, filepath.Ext(path))
		for _, ext := range sourceExts {
			candidate := stem + ext
			if _, statErr := os.Stat(candidate); statErr != nil {
				continue
			}
			if f, ok := fs.Lookup(candidate); ok && f.Flags&source.FileVirtual == 0 {
				return input{path: path, data: data, file: f.ID}
			}
			if id, loadErr := fs.Load(candidate); loadErr == nil {
				return input{path: path, data: data, file: id}
			}
		}
	}
	return input{path: path, data: data, file: fs.AddVirtual(path, nil)}
}

// CompileFile loads and compiles one ESTree document.
func CompileFile(ctx context.Context, fs *source.FileSet, path string, opts Options) FileResult {
	return compileInput(ctx, loadInput(fs, path, opts.Source), opts)
}

// CompileSource compiles an in-memory ESTree document registered in fs
// under name.
func CompileSource(ctx context.Context, fs *source.FileSet, name string, data []byte, opts Options) FileResult {
	return compileInput(ctx, input{path: name, data: data, file: fs.AddVirtual(name, nil)}, opts)
}

func compileInput(ctx context.Context, in input, opts Options) FileResult {
	sp := trace.Begin(trace.FromContext(ctx), trace.ScopeDriver, "file", trace.CurrentSpan(ctx)).
		WithExtra("path", in.path)
	ctx = trace.WithSpan(ctx, sp)
	res := FileResult{
		Path:    in.path,
		File:    in.file,
		Summary: FileSummary{Schema: summarySchemaVersion, Path: in.path},
		Bag:     diag.NewBag(opts.MaxDiagnostics),
	}
	defer func() {
		status := "ok"
		switch {
		case res.Cached:
			status = "cached"
		case res.Failed():
			status = "failed"
		}
		sp.End(status)
	}()

	if in.err != nil {
		res.Err = fmt.Errorf("%s: %w", in.path, in.err)
		res.Bag.Add(diag.New(diag.SevInvalidInput, diag.IOLoadFileError, source.Span{File: in.file},
			"failed to load file: "+in.err.Error()))
		return res
	}

	var key Digest
	if opts.Cache != nil {
		key = cacheKey(in.data, opts)
		var cached FileSummary
		if ok, err := opts.Cache.Get(key, &cached); err == nil && ok {
			cached.Path = in.path
			res.Summary = cached
			res.Cached = true
			return res
		} else if err != nil {
			trace.Point(trace.FromContext(ctx), trace.ScopeDriver, "cache_error", err.Error(), sp.ID())
		}
	}

	prog, err := estree.DecodeProgram(in.data, in.file)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", in.path, err)
		res.Bag.Add(diag.New(diag.SevInvalidInput, diag.IODecodeAST, source.Span{File: in.file},
			"failed to decode ESTree document: "+err.Error()))
		return res
	}

	names, fns := estree.Functions(prog)
	for i, fn := range fns {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}
		fr := CompileFunction(ctx, fn, names[i], opts)
		res.Functions = append(res.Functions, fr)
		res.Summary.Functions = append(res.Summary.Functions, Summarize(&fr))
	}

	if opts.Cache != nil && !hasInvariant(res.Functions) {
		if err := opts.Cache.Put(key, &res.Summary); err != nil {
			trace.Point(trace.FromContext(ctx), trace.ScopeDriver, "cache_error", err.Error(), sp.ID())
		}
	}
	return res
}

func hasInvariant(fns []FunctionResult) bool {
	for i := range fns {
		if diag.IsInvariant(fns[i].Err) || errors.Is(fns[i].Err, context.Canceled) {
			return true
		}
	}
	return false
}
