// Package formatting parses model output and human-readable sizes.
package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParseFailed is returned when content cannot be parsed as JSON,
// either directly or from a markdown code fence.
var ErrParseFailed = errors.New("failed to parse response")

var fenceRegex = regexp.MustCompile("(?s)```(?:[A-Za-z0-9_-]+)?[ \t]*\\n?(.*?)\\n?```")

// StripFences returns the body of the first markdown code fence in content,
// or content itself when no fence is present. Leading and trailing
// whitespace is trimmed in both cases.
func StripFences(content string) string {
	content = strings.TrimSpace(content)
	if m := fenceRegex.FindStringSubmatch(content); len(m) >= 2 {
		return strings.TrimSpace(m[1])
	}
	return content
}

// Parse attempts to unmarshal content as JSON into T.
// It tries the raw content, then the body of a markdown code fence, then
// the outermost {...} or [...] span. Returns ErrParseFailed if every
// attempt fails.
func Parse[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(content)

	candidates := []string{content}
	if fenced := StripFences(content); fenced != content {
		candidates = append(candidates, fenced)
	}
	if span, ok := outerSpan(content); ok {
		candidates = append(candidates, span)
	}

	for _, c := range candidates {
		var attempt T
		if err := json.Unmarshal([]byte(c), &attempt); err == nil {
			return attempt, nil
		}
	}

	return result, fmt.Errorf("%w: %s", ErrParseFailed, truncate(content, 200))
}

func outerSpan(s string) (string, bool) {
	for _, pair := range [][2]byte{{'{', '}'}, {'[', ']'}} {
		start := strings.IndexByte(s, pair[0])
		end := strings.LastIndexByte(s, pair[1])
		if start >= 0 && end > start {
			return s[start : end+1], true
		}
	}
	return "", false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
