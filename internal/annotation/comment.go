package annotation

import (
	"fmt"
	"strings"
)

// Table maps lower-cased annotation names to their raw values. It is built
// per examined comment block; a tag repeated within one block keeps the last
// occurrence.
type Table map[string]string

// Get looks up a tag case-insensitively.
func (t Table) Get(name string) (string, bool) {
	v, ok := t[strings.ToLower(name)]
	return v, ok
}

// ParseBlock extracts annotation pairs from the text of a block comment,
// delimiters included. Annotations are "@name value" lines, one per line,
// in the usual doc-comment style:
//
//	/**
//	 * @skipOnOS win32, darwin
//	 * @enabledForNodeRange min=18
//	 */
//
// A comment with no annotation markers yields (nil, nil): no gating
// information, not an error. A comment that carries markers but no parsable
// pair at all is malformed and yields an error so the caller can warn.
func ParseBlock(text string) (Table, error) {
	body := strings.TrimSpace(text)
	body = strings.TrimPrefix(body, "/*")
	body = strings.TrimSuffix(body, "*/")

	sawMarker := false
	table := Table{}
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "*")
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "@") {
			continue
		}
		sawMarker = true
		name, value := splitTag(line[1:])
		if name == "" {
			continue
		}
		table[strings.ToLower(name)] = value
	}

	if len(table) == 0 {
		if sawMarker {
			return nil, fmt.Errorf("comment contains annotation markers but no parsable tag")
		}
		return nil, nil
	}
	return table, nil
}

// splitTag separates a tag name from the remainder of its line. The name is
// the leading run of letters and digits; everything after it is the raw
// value, whitespace-trimmed.
func splitTag(rest string) (name, value string) {
	end := len(rest)
	for i, r := range rest {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			continue
		}
		end = i
		break
	}
	return rest[:end], strings.TrimSpace(rest[end:])
}
