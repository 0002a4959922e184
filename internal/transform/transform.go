// Package transform rewrites test registration calls to their disabled form
// when a gating annotation matches the runtime environment. It parses
// JavaScript and TypeScript sources with tree-sitter, classifies call sites,
// resolves their gating comments, and applies the rule catalog; matching
// callees are replaced by their base.skip form via byte-span edits, leaving
// arguments and the rest of the file untouched.
package transform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"go.uber.org/zap"

	"testgate/internal/audit"
	"testgate/internal/env"
	"testgate/internal/gate"
)

// Transformer applies the gating transform to test sources. The snapshot is
// captured once by the caller and shared read-only across all files of a run
// so every file sees identical gating decisions.
type Transformer struct {
	snap  env.Snapshot
	audit *audit.Logger
	log   *zap.Logger
}

// New returns a Transformer evaluating against snap, recording decisions to
// auditLog and diagnostics to logger.
func New(snap env.Snapshot, auditLog *audit.Logger, logger *zap.Logger) *Transformer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transformer{snap: snap, audit: auditLog, log: logger}
}

// edit replaces src[start:end) with text. Edits only ever cover callee
// spans, which cannot overlap.
type edit struct {
	start, end uint32
	text       string
}

// TransformSource transforms one file's content and returns the rewritten
// source and the number of calls disabled. path is used for parser selection
// and audit context only. The input slice is not modified.
func (t *Transformer) TransformSource(ctx context.Context, path string, src []byte) ([]byte, int, error) {
	// One parser per call: tree-sitter parsers are not safe for concurrent
	// use and the runner transforms files in parallel.
	parser := sitter.NewParser()
	parser.SetLanguage(languageFor(path))

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, 0, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	var edits []edit
	t.walk(tree.RootNode(), path, src, &edits)
	if len(edits) == 0 {
		return src, 0, nil
	}

	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })
	out := make([]byte, 0, len(src)+16*len(edits))
	var cursor uint32
	for _, e := range edits {
		out = append(out, src[cursor:e.start]...)
		out = append(out, e.text...)
		cursor = e.end
	}
	out = append(out, src[cursor:]...)

	t.log.Debug("transformed file",
		zap.String("file", filepath.Base(path)),
		zap.Int("disabled", len(edits)))
	return out, len(edits), nil
}

// TransformFile rewrites path in place and reports whether it changed.
func (t *Transformer) TransformFile(ctx context.Context, path string) (bool, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	out, n, err := t.TransformSource(ctx, path, src)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

// walk visits every call expression in the tree, depth first.
func (t *Transformer) walk(node *sitter.Node, path string, src []byte, edits *[]edit) {
	if node.Type() == "call_expression" {
		t.gateCall(node, path, src, edits)
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		t.walk(node.NamedChild(i), path, src, edits)
	}
}

// gateCall runs the per-call pipeline: classify, resolve, evaluate, rewrite.
// Every exit short of a rewrite leaves the call untouched; a comment that
// cannot be parsed is a warning, never a transform failure.
func (t *Transformer) gateCall(call *sitter.Node, path string, src []byte, edits *[]edit) {
	callee := call.ChildByFieldName("function")
	site := classifyCallee(callee, src)
	if site == nil {
		return
	}

	table, err := resolveAnnotations(call, src)
	if err != nil {
		t.audit.Warnf("%s: %v", path, err)
		return
	}
	if table == nil {
		return
	}

	decision := gate.Decide(table, t.snap)
	if !decision.Skip {
		return
	}

	*edits = append(*edits, edit{
		start: callee.StartByte(),
		end:   callee.EndByte(),
		text:  rewriteCallee(site),
	})
	t.audit.Skipped(site.Base, callName(call, src), path, decision.Reason)
}

// callName extracts the registration's title from its first argument for
// audit output. Non-literal first arguments fall back to their raw text.
func callName(call *sitter.Node, src []byte) string {
	args := call.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return ""
	}
	first := args.NamedChild(0)
	if first.Type() == "string" {
		return stringLiteral(first, src)
	}
	raw := text(first, src)
	if len(raw) > 60 {
		raw = raw[:60]
	}
	return strings.Join(strings.Fields(raw), " ")
}

func languageFor(path string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".tsx", ".mts", ".cts":
		return typescript.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}
