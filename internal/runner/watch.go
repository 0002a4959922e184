package runner

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch re-transforms files matching patterns as they change, until ctx is
// cancelled. Directories under the patterns' roots are watched recursively;
// only write/create events on matching files trigger a run.
func (r *Runner) Watch(ctx context.Context, patterns []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, root := range watchRoots(patterns) {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err == nil && d.IsDir() {
				return watcher.Add(path)
			}
			return nil
		})
		if err != nil {
			r.log.Warn("watch setup incomplete", zap.String("root", root), zap.Error(err))
		}
	}

	r.log.Info("watching for changes", zap.Strings("patterns", patterns))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !matchesAny(event.Name, patterns) {
				continue
			}
			if changed, err := r.tr.TransformFile(ctx, event.Name); err != nil {
				r.log.Warn("transform failed", zap.String("file", event.Name), zap.Error(err))
			} else if changed {
				r.log.Info("re-gated on change", zap.String("file", event.Name))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.log.Warn("watcher error", zap.Error(err))
		}
	}
}

// watchRoots derives the directories to watch from the static prefixes of
// the include patterns.
func watchRoots(patterns []string) []string {
	seen := make(map[string]bool)
	var roots []string
	for _, pattern := range patterns {
		prefix, _, _ := strings.Cut(pattern, "**/")
		if i := strings.IndexAny(prefix, "*?["); i >= 0 {
			prefix = prefix[:i]
		}
		root := filepath.Dir(filepath.Join(prefix, "x"))
		if !seen[root] {
			seen[root] = true
			roots = append(roots, root)
		}
	}
	return roots
}

// matchesAny reports whether path's base name matches the final element of
// any pattern.
func matchesAny(path string, patterns []string) bool {
	base := filepath.Base(path)
	for _, pattern := range patterns {
		tail := pattern
		if i := strings.LastIndex(pattern, "/"); i >= 0 {
			tail = pattern[i+1:]
		}
		if matched, _ := filepath.Match(tail, base); matched {
			return true
		}
	}
	return false
}
