// Package mapping resolves the logical fields of a source against the
// column names a particular export tool actually produced.
package mapping

import "strings"

// normalizeHeader lowers a header and strips everything outside [a-z0-9] so
// that "Wait Time", "wait_time" and "WaitTime" all collapse to the same key.
func normalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Resolve returns the first actual header whose normalized form matches any
// candidate, trying candidates in priority order. The original header is
// returned with its casing and spacing intact; "" means no match.
func Resolve(actualHeaders []string, candidates []string) string {
	normalized := make([]string, len(actualHeaders))
	for i, h := range actualHeaders {
		normalized[i] = normalizeHeader(h)
	}

	for _, cand := range candidates {
		want := normalizeHeader(cand)
		if want == "" {
			continue
		}
		for i, n := range normalized {
			if n == want {
				return actualHeaders[i]
			}
		}
	}
	return ""
}

// ResolveAll maps every logical field with at least one matching candidate
// to its actual header. Fields with no match are simply absent.
func ResolveAll(actualHeaders []string, fields map[string][]string) map[string]string {
	roles := make(map[string]string, len(fields))
	for field, candidates := range fields {
		if h := Resolve(actualHeaders, candidates); h != "" {
			roles[field] = h
		}
	}
	return roles
}
