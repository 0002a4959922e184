package transform

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"testgate/internal/annotation"
)

// resolveAnnotations locates the structured comment gating a call and parses
// it into an annotation table. Sources are tried in order: the statement
// wrapping the call (the common "annotation directly above a statement"
// style), then the call node itself, then the call's grandparent for deeper
// nestings. A source with no annotation-bearing block comment falls through
// to the next; (nil, nil) means no gating information anywhere, which is a
// normal outcome, not an error. An error is returned only for a comment that
// carries annotation markers tree-sitter handed us but could not be parsed.
func resolveAnnotations(call *sitter.Node, src []byte) (annotation.Table, error) {
	sources := []*sitter.Node{
		wrappingStatement(call),
		call,
		grandparent(call),
	}
	for _, node := range sources {
		if node == nil {
			continue
		}
		comment := closestBlockComment(node, src)
		if comment == "" {
			continue
		}
		table, err := annotation.ParseBlock(comment)
		if err != nil {
			return nil, err
		}
		if table != nil {
			return table, nil
		}
	}
	return nil, nil
}

// wrappingStatement climbs to the statement-level ancestor of the call: the
// node whose parent is the program or an enclosing block.
func wrappingStatement(call *sitter.Node) *sitter.Node {
	node := call
	for {
		parent := node.Parent()
		if parent == nil {
			return node
		}
		switch parent.Type() {
		case "program", "statement_block":
			return node
		}
		node = parent
	}
}

func grandparent(call *sitter.Node) *sitter.Node {
	parent := call.Parent()
	if parent == nil {
		return nil
	}
	return parent.Parent()
}

// closestBlockComment scans the contiguous run of comments immediately
// preceding node and returns the text of the closest block-style one. Line
// comments never carry annotations and are stepped over.
func closestBlockComment(node *sitter.Node, src []byte) string {
	for prev := node.PrevNamedSibling(); prev != nil; prev = prev.PrevNamedSibling() {
		if prev.Type() != "comment" {
			return ""
		}
		if t := text(prev, src); strings.HasPrefix(t, "/*") {
			return t
		}
	}
	return ""
}
