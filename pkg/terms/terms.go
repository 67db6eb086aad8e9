/*
Package terms implements the keyword policies used to filter file names and
file lines. A Policy holds an include list and an exclude list of plain
terms; matching is a case-insensitive substring test.

Basic usage:

	policy := terms.Policy{
		Include: []string{"error", "panic"},
		Exclude: []string{"debug"},
	}

	policy.Match("PANIC: runtime error") // true
	policy.Match("debug: error ignored") // false
*/
package terms

import (
	"strings"
)

// Policy is a pair of include and exclude term lists.
// An empty list behaves exactly like an absent one.
type Policy struct {
	Include []string `yaml:"include" json:"include"`
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// IsEmpty reports whether the policy accepts everything.
func (p Policy) IsEmpty() bool {
	return len(p.Include) == 0 && len(p.Exclude) == 0
}

// Match reports whether item satisfies the policy:
//
//	no terms           -> true
//	include only       -> any include term occurs in item
//	exclude only       -> no exclude term occurs in item
//	include + exclude  -> included and not excluded
func (p Policy) Match(item string) bool {
	if p.IsEmpty() {
		return true
	}

	lowered := strings.ToLower(item)

	if len(p.Exclude) > 0 && containsAny(lowered, p.Exclude) {
		return false
	}
	if len(p.Include) > 0 {
		return containsAny(lowered, p.Include)
	}

	return true
}

func containsAny(lowered string, list []string) bool {
	for _, term := range list {
		if strings.Contains(lowered, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

// ParseList splits a comma-separated term list. Whitespace around each term
// is trimmed and empty terms are dropped, so "a, ,b" yields [a b].
func ParseList(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}

	parts := strings.Split(csv, ",")
	list := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			list = append(list, trimmed)
		}
	}

	if len(list) == 0 {
		return nil
	}
	return list
}

// CleanList applies the ParseList rules to an already split list.
func CleanList(list []string) []string {
	var cleaned []string
	for _, term := range list {
		if trimmed := strings.TrimSpace(term); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}

// String renders the policy in the compact form used by the search summary.
func (p Policy) String() string {
	return "include=" + formatList(p.Include) + " exclude=" + formatList(p.Exclude)
}

func formatList(list []string) string {
	if len(list) == 0 {
		return "none"
	}
	return "[" + strings.Join(list, ",") + "]"
}
