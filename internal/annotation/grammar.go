// Package annotation parses the predicate grammar carried by gating comments.
// All three value shapes (list, version list, min/max range) are
// case-insensitive and whitespace-tolerant, and parsing never fails: a token
// that cannot be understood is dropped, so malformed input degrades to "no
// constraint" rather than an error.
package annotation

import (
	"math"
	"strings"
)

// ParseList splits a comma-separated value into trimmed, lower-cased tokens.
// Empty tokens are dropped. Used for OS and browser name lists.
func ParseList(value string) []string {
	var tokens []string
	for _, raw := range strings.Split(value, ",") {
		tok := strings.ToLower(strings.TrimSpace(raw))
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// ParseVersionList parses a comma-separated list of version tokens into their
// major versions. Tokens with no digits are dropped; "18", "v20" and
// "20.11.1" all contribute their leading major.
func ParseVersionList(value string) []int {
	var majors []int
	for _, tok := range ParseList(value) {
		if major, ok := firstDigitRun(tok); ok {
			majors = append(majors, major)
		}
	}
	return majors
}

// Range is an inclusive major-version interval. A missing bound is open:
// Min defaults to math.MinInt and Max to math.MaxInt.
type Range struct {
	Min int
	Max int
}

// Contains reports whether major lies within the inclusive range.
func (r Range) Contains(major int) bool {
	return major >= r.Min && major <= r.Max
}

// ParseRange parses "min=16,max=18" style values. Both sides of each pair are
// trimmed and lower-cased; bounds go through the same first-digit-run rule as
// version lists. Unparsable pairs are ignored, leaving that bound open.
func ParseRange(value string) Range {
	r := Range{Min: math.MinInt, Max: math.MaxInt}
	for _, pair := range strings.Split(value, ",") {
		key, val, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.ToLower(strings.TrimSpace(val))
		major, parsed := firstDigitRun(val)
		if !parsed {
			continue
		}
		switch key {
		case "min":
			r.Min = major
		case "max":
			r.Max = major
		}
	}
	return r
}

// firstDigitRun extracts the first consecutive run of ASCII digits from s.
func firstDigitRun(s string) (int, bool) {
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			return atoi(s[start:i]), true
		}
	}
	if start >= 0 {
		return atoi(s[start:]), true
	}
	return 0, false
}

func atoi(digits string) int {
	n := 0
	for _, r := range digits {
		n = n*10 + int(r-'0')
		if n > 1<<30 {
			return 1 << 30
		}
	}
	return n
}
