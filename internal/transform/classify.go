package transform

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Registration base names recognized as gate-able calls: two test-like and
// one group-like.
var registrationNames = map[string]bool{
	"test":     true,
	"it":       true,
	"describe": true,
}

// skipModifier is the disabled form's property name. Calls already carrying
// it are never reclassified, so running the transform twice cannot produce
// test.skip.skip or duplicate audit lines.
const skipModifier = "skip"

// CallSite is the classification of a registration call's callee. Modifier
// is "" for a bare call, else the property name ("only", "each", ...).
type CallSite struct {
	Base     string
	Modifier string
}

// classifyCallee recognizes the two gate-able callee shapes: a bare
// identifier (test(...)) and a property access on one (test.only(...),
// including computed string access test["only"](...)). Anything else,
// including callees already in skip form, yields nil.
func classifyCallee(callee *sitter.Node, src []byte) *CallSite {
	if callee == nil {
		return nil
	}
	switch callee.Type() {
	case "identifier":
		name := text(callee, src)
		if !registrationNames[name] {
			return nil
		}
		return &CallSite{Base: name}

	case "member_expression":
		object := callee.ChildByFieldName("object")
		property := callee.ChildByFieldName("property")
		if object == nil || property == nil || object.Type() != "identifier" {
			return nil
		}
		name := text(object, src)
		if !registrationNames[name] {
			return nil
		}
		modifier := text(property, src)
		if modifier == skipModifier {
			return nil
		}
		return &CallSite{Base: name, Modifier: modifier}

	case "subscript_expression":
		object := callee.ChildByFieldName("object")
		index := callee.ChildByFieldName("index")
		if object == nil || index == nil || object.Type() != "identifier" || index.Type() != "string" {
			return nil
		}
		name := text(object, src)
		if !registrationNames[name] {
			return nil
		}
		modifier := stringLiteral(index, src)
		if modifier == skipModifier {
			return nil
		}
		return &CallSite{Base: name, Modifier: modifier}
	}
	return nil
}

// rewriteCallee is the disabled form the callee span is replaced with. The
// original modifier is discarded on purpose: an environment constraint
// overrides an authoring-time .only.
func rewriteCallee(site *CallSite) string {
	return site.Base + "." + skipModifier
}

func text(n *sitter.Node, src []byte) string {
	return string(src[n.StartByte():n.EndByte()])
}

// stringLiteral returns the contents of a string node without its quotes.
func stringLiteral(n *sitter.Node, src []byte) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "string_fragment" {
			return text(child, src)
		}
	}
	raw := text(n, src)
	if len(raw) >= 2 {
		return raw[1 : len(raw)-1]
	}
	return raw
}
