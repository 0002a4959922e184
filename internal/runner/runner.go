// Package runner drives the transform over many files. Parallelism lives
// here and only here: each file is handed whole to the single-threaded
// engine, and every worker shares the one environment snapshot captured at
// startup.
package runner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"testgate/internal/transform"
)

// Runner transforms batches of test files.
type Runner struct {
	tr      *transform.Transformer
	log     *zap.Logger
	workers int
}

// Summary reports one batch run. Failed files are logged and counted, never
// fatal: one bad file must not stop the rest of the batch.
type Summary struct {
	Files   int
	Changed int
	Failed  int
}

// New returns a Runner using tr for every file. workers <= 0 means one per
// CPU.
func New(tr *transform.Transformer, logger *zap.Logger, workers int) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Runner{tr: tr, log: logger, workers: workers}
}

// Run expands patterns and transforms every matching file in place.
func (r *Runner) Run(ctx context.Context, patterns []string) (Summary, error) {
	files, err := Expand(patterns)
	if err != nil {
		return Summary{}, err
	}

	var (
		mu  sync.Mutex
		sum = Summary{Files: len(files)}
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, file := range files {
		file := file
		g.Go(func() error {
			changed, err := r.tr.TransformFile(ctx, file)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				sum.Failed++
				r.log.Warn("transform failed", zap.String("file", file), zap.Error(err))
				return nil
			}
			if changed {
				sum.Changed++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return sum, err
	}
	r.log.Info("run complete",
		zap.Int("files", sum.Files),
		zap.Int("changed", sum.Changed),
		zap.Int("failed", sum.Failed))
	return sum, nil
}

// Expand resolves include patterns to a sorted, de-duplicated file list.
// Literal paths are taken as-is; "**/" patterns walk the tree matching the
// remainder against each file's base name; anything else goes through
// filepath.Glob. Patterns that match nothing are not an error.
func Expand(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		path = filepath.Clean(path)
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, pattern := range patterns {
		if info, err := os.Stat(pattern); err == nil && !info.IsDir() {
			add(pattern)
			continue
		}

		if prefix, suffix, ok := strings.Cut(pattern, "**/"); ok {
			root := prefix
			if root == "" {
				root = "."
			}
			err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
				if err != nil || d.IsDir() {
					return nil
				}
				if matched, _ := filepath.Match(suffix, d.Name()); matched {
					add(path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
			continue
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if info, err := os.Stat(m); err == nil && !info.IsDir() {
				add(m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}
