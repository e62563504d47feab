package textutil

import "strings"

// TruncatePreview shortens s to at most max runes, appending an ellipsis
// when anything was cut. Used for notification previews.
func TruncatePreview(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}

// StripCodeFences removes markdown code fences from an LLM response so the
// remainder can be parsed as JSON.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
