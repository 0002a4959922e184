// Package gate evaluates annotation predicates against an environment
// snapshot. The eight rules form a fixed ordered catalog; evaluation walks
// the catalog and stops at the first rule whose annotation is present and
// whose predicate fires, so catalog order is an explicit, testable contract.
package gate

import (
	"fmt"

	"testgate/internal/annotation"
	"testgate/internal/env"
)

// TagRule binds an annotation name to its skip predicate and a human-readable
// formatter used in audit output.
type TagRule struct {
	Name     string
	Evaluate func(raw string, snap env.Snapshot) bool
	Describe func(raw string) string
}

// Decision is the outcome of evaluating one annotation table. Reason is the
// formatted annotation that fired, empty when Skip is false.
type Decision struct {
	Skip   bool
	Reason string
}

// Catalog returns the rule table in evaluation order: browser rules, then OS
// rules, then Node version lists, then Node version ranges, skip-form before
// enabled-form within each pair.
func Catalog() []TagRule {
	return catalog
}

var catalog = []TagRule{
	{
		Name: "skipOnBrowser",
		// Skip only when the browser is known and listed.
		Evaluate: func(raw string, snap env.Snapshot) bool {
			return snap.Browser != "" && contains(annotation.ParseList(raw), snap.Browser)
		},
		Describe: describe("skipOnBrowser"),
	},
	{
		Name: "enabledOnBrowser",
		// Enablement cannot be confirmed without a known browser, so an
		// unknown browser skips.
		Evaluate: func(raw string, snap env.Snapshot) bool {
			list := annotation.ParseList(raw)
			if len(list) == 0 {
				return false
			}
			return snap.Browser == "" || !contains(list, snap.Browser)
		},
		Describe: describe("enabledOnBrowser"),
	},
	{
		Name: "skipOnOS",
		Evaluate: func(raw string, snap env.Snapshot) bool {
			return contains(annotation.ParseList(raw), snap.Platform)
		},
		Describe: describe("skipOnOS"),
	},
	{
		Name: "enabledOnOS",
		Evaluate: func(raw string, snap env.Snapshot) bool {
			list := annotation.ParseList(raw)
			if len(list) == 0 {
				return false
			}
			return !contains(list, snap.Platform)
		},
		Describe: describe("enabledOnOS"),
	},
	{
		Name: "skipOnNodeVersion",
		Evaluate: func(raw string, snap env.Snapshot) bool {
			if !snap.NodeVersionKnown() {
				return false
			}
			return containsInt(annotation.ParseVersionList(raw), snap.NodeMajor)
		},
		Describe: describe("skipOnNodeVersion"),
	},
	{
		Name: "enabledOnNodeVersion",
		Evaluate: func(raw string, snap env.Snapshot) bool {
			if !snap.NodeVersionKnown() {
				return false
			}
			list := annotation.ParseVersionList(raw)
			if len(list) == 0 {
				return false
			}
			return !containsInt(list, snap.NodeMajor)
		},
		Describe: describe("enabledOnNodeVersion"),
	},
	{
		Name: "skipForNodeRange",
		Evaluate: func(raw string, snap env.Snapshot) bool {
			if !snap.NodeVersionKnown() {
				return false
			}
			return annotation.ParseRange(raw).Contains(snap.NodeMajor)
		},
		Describe: describe("skipForNodeRange"),
	},
	{
		Name: "enabledForNodeRange",
		Evaluate: func(raw string, snap env.Snapshot) bool {
			if !snap.NodeVersionKnown() {
				return false
			}
			return !annotation.ParseRange(raw).Contains(snap.NodeMajor)
		},
		Describe: describe("enabledForNodeRange"),
	},
}

// Decide walks the catalog in order against table and snap. The first rule
// whose annotation is present and whose predicate returns true produces a
// skip decision; a present annotation whose predicate returns false does not
// stop the walk. Absent annotations are not considered at all.
func Decide(table annotation.Table, snap env.Snapshot) Decision {
	for _, rule := range catalog {
		raw, ok := table.Get(rule.Name)
		if !ok {
			continue
		}
		if rule.Evaluate(raw, snap) {
			return Decision{Skip: true, Reason: rule.Describe(raw)}
		}
	}
	return Decision{}
}

func describe(name string) func(string) string {
	return func(raw string) string {
		return fmt.Sprintf("@%s %s", name, raw)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsInt(list []int, n int) bool {
	for _, v := range list {
		if v == n {
			return true
		}
	}
	return false
}
