package driver

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"forget/internal/source"
)

// ListInputs expands directories into the sorted list of *.json documents
// below them. Plain file arguments are kept as given.
func ListInputs(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, arg)
			continue
		}
		var files []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && path != arg && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if !d.IsDir() && strings.HasSuffix(path, ".json") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(files)
		out = append(out, files...)
	}
	return out, nil
}

// CompileFiles compiles every path, up to opts.Jobs files at a time.
// Functions inside one file are compiled sequentially. Results keep the
// order of paths; the error is only set when ctx is canceled.
func CompileFiles(ctx context.Context, fileSet *source.FileSet, paths []string, opts Options) ([]FileResult, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	inputs := make([]input, len(paths))
	for i, path := range paths {
		inputs[i] = loadInput(fileSet, path, opts.Source)
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// each goroutine writes only its own index
	results := make([]FileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i := range inputs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = compileInput(gctx, inputs[i], opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
