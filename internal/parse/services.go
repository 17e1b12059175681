package parse

import (
	"regexp"
	"strings"
)

var spaceRe = regexp.MustCompile(`\s+`)

// ServiceName trims and collapses inner whitespace.
func ServiceName(raw string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(raw, " "))
}

// ServiceNames normalizes names and collapses duplicates, keeping first-seen order.
// Blank names are dropped.
func ServiceNames(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		name := ServiceName(r)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
