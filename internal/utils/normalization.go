package utils

import (
	"strings"
	"unicode"
)

func NormalizeDifficulty(difficulty string) string {
	return strings.ToLower(strings.TrimSpace(difficulty))
}

// StripFences removes a surrounding markdown code fence, if any.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.Index(s, "\n"); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ExtractJSON returns the first JSON object or array embedded in model output.
// Fenced blocks and surrounding prose are discarded.
func ExtractJSON(s string) (string, bool) {
	s = StripFences(s)
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", false
	}
	open := s[start]
	closeCh := byte('}')
	if open == '[' {
		closeCh = ']'
	}
	end := strings.LastIndexByte(s, closeCh)
	if end < start {
		return "", false
	}
	return s[start : end+1], true
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.FieldsFunc(s, unicode.IsSpace))
}
