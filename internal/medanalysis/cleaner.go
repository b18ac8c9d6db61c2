package medanalysis

import "strings"

// CleanResponse isolates the JSON payload from a raw model response. It strips
// fenced code blocks, then slices between the outermost braces when the text
// does not already start with one. Applied to its own output it is a no-op,
// and the result is never longer than the input. Absence of a fence or brace
// is not an error; the trimmed input passes through unchanged.
func CleanResponse(raw string) string {
	s := strings.TrimSpace(raw)
	for {
		next := cleanOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func cleanOnce(s string) string {
	s = strings.TrimSpace(s)

	if idx := strings.Index(s, "```json"); idx >= 0 {
		start := idx + len("```json")
		end := strings.LastIndex(s, "```")
		if end > start {
			s = strings.TrimSpace(s[start:end])
		}
	} else if idx := strings.Index(s, "```"); idx >= 0 {
		start := idx + len("```")
		end := strings.LastIndex(s, "```")
		if end > start {
			s = strings.TrimSpace(s[start:end])
		}
	}

	if !strings.HasPrefix(s, "{") {
		open := strings.Index(s, "{")
		closing := strings.LastIndex(s, "}")
		if open >= 0 && closing > open {
			s = s[open : closing+1]
		}
	}
	return s
}
