// Package audit records gating decisions. Every disabled test produces one
// console line and one timestamped line appended to the audit log file.
// Logging is best-effort: a sink that cannot be written must never fail the
// transform, so write errors are swallowed.
package audit

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultLogPath is the fixed relative path of the audit log file.
const DefaultLogPath = "testgate.log"

// Logger mirrors human-readable decision records to a console writer and an
// append-only file. Safe for use from multiple goroutines; interleaved
// appends from concurrent processes sharing the file are tolerated.
type Logger struct {
	mu      sync.Mutex
	console io.Writer
	path    string
	file    *os.File
	runID   string
	now     func() time.Time
}

// New opens (creating if needed) the audit file at path and returns a logger
// writing console lines to console. A file that cannot be opened downgrades
// the logger to console-only; this is not an error.
func New(console io.Writer, path string) *Logger {
	if console == nil {
		console = os.Stderr
	}
	if path == "" {
		path = DefaultLogPath
	}
	l := &Logger{
		console: console,
		path:    path,
		runID:   uuid.NewString()[:8],
		now:     time.Now,
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err == nil {
		l.file = file
	}
	return l
}

// RunID identifies this process run in the audit file, so interleaved lines
// from concurrent runs stay attributable.
func (l *Logger) RunID() string {
	return l.runID
}

// Skipped records that a registration call was rewritten to its disabled
// form. base is the registration name ("test", "it" or "describe"), name the
// test title, reason the formatted annotation that fired.
func (l *Logger) Skipped(base, name, file, reason string) {
	l.emit(fmt.Sprintf("[SKIPPING] %s(%q) in %s due to %s", base, name, file, reason))
}

// Warnf records a recoverable problem, e.g. a comment block that could not
// be parsed into annotations.
func (l *Logger) Warnf(format string, args ...any) {
	l.emit("[WARN] " + fmt.Sprintf(format, args...))
}

func (l *Logger) emit(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console, line)
	if l.file == nil {
		return
	}
	stamp := l.now().Format(time.RFC3339)
	// Best effort only.
	_, _ = fmt.Fprintf(l.file, "%s %s %s\n", stamp, l.runID, line)
}

// Close releases the audit file. The logger stays usable console-only.
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
}
