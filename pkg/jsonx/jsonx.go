// Package jsonx extracts JSON objects from free-form model output.
//
// Chat models often wrap their JSON answer in prose or markdown fences.
// ExtractObject is a best-effort utility: it returns the first balanced
// JSON object found in the input, or reports that none exists. It never
// guesses beyond brace matching; callers decide what a miss means.
package jsonx

import "strings"

// ExtractObject returns the first balanced {...} substring of s, with
// markdown code fences stripped beforehand. The second return value is
// false when no object-looking substring exists.
func ExtractObject(s string) (string, bool) {
	s = stripFences(s)
	start := strings.Index(s, "{")
	if start == -1 {
		return "", false
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	// Unbalanced: fall back to the greedy first-{ last-} span.
	if end := strings.LastIndex(s, "}"); end > start {
		return s[start : end+1], true
	}
	return "", false
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
