// Package strings holds small string helpers shared by configuration and
// request parsing.
package strings

import (
	"strings"
)

// SplitList splits a comma separated setting such as a broker list. Entries
// are trimmed, empty ones dropped, and duplicates removed keeping the first.
// An empty input yields nil so "unset" stays distinguishable.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return Dedupe(strings.Split(s, ","))
}

// Dedupe trims each value and drops blanks and repeats, preserving order.
func Dedupe(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}
	return result
}
