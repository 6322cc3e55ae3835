package variables

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidTemplate is wrapped by every validation failure.
var ErrInvalidTemplate = errors.New("invalid template")

// ValidationError lists every problem found in a template.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidTemplate, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidTemplate
}

// Template is the subset of a prompt template checked before save.
type Template struct {
	Name          string
	Category      string
	PromptBody    string
	SystemMessage string
}

var (
	nameRe          = regexp.MustCompile(`^` + namePattern + `$`)
	doubleCandidate = regexp.MustCompile(`\{\{\s*([^{}]*?)\s*\}\}`)
	singleCandidate = regexp.MustCompile(`\{([^{}\s"':,]+)\}`)
)

// Validate checks that required fields are present, that every placeholder
// names a valid identifier, and that braces balance in the prompt body and
// system message. It returns a *ValidationError listing every problem.
func Validate(t Template) error {
	var problems []string

	if strings.TrimSpace(t.Name) == "" {
		problems = append(problems, "name is required")
	}
	if strings.TrimSpace(t.Category) == "" {
		problems = append(problems, "category is required")
	}
	if strings.TrimSpace(t.PromptBody) == "" {
		problems = append(problems, "prompt_body is required")
	}

	problems = append(problems, checkBody("prompt_body", t.PromptBody)...)
	problems = append(problems, checkBody("system_message", t.SystemMessage)...)

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func checkBody(field, body string) []string {
	var problems []string

	for _, m := range doubleCandidate.FindAllStringSubmatch(body, -1) {
		if !nameRe.MatchString(m[1]) {
			problems = append(problems, fmt.Sprintf("%s: invalid placeholder name %q", field, m[1]))
		}
	}

	stripped := doubleCandidate.ReplaceAllString(body, "")
	for _, m := range singleCandidate.FindAllStringSubmatch(stripped, -1) {
		if !nameRe.MatchString(m[1]) {
			problems = append(problems, fmt.Sprintf("%s: invalid placeholder name %q", field, m[1]))
		}
	}

	if pos, ok := balanced(body); !ok {
		problems = append(problems, fmt.Sprintf("%s: unbalanced brace at offset %d", field, pos))
	}

	return problems
}

// balanced reports whether braces in s nest correctly. On failure it
// returns the offset of the first offending brace.
func balanced(s string) (int, bool) {
	var open []int
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			open = append(open, i)
		case '}':
			if len(open) == 0 {
				return i, false
			}
			open = open[:len(open)-1]
		}
	}
	if len(open) > 0 {
		return open[0], false
	}
	return 0, true
}
