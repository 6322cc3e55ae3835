// Package variables extracts, substitutes, and validates prompt placeholders.
//
// Two syntaxes are recognized and map to the same variable:
//
//	{{ name }}  double-brace, whitespace tolerant
//	{name}      single-brace, legacy
//
// Names are dotted identifiers such as article.title, blog_post_output or
// step_1.output.
// Both syntaxes are matched in a single left-to-right pass in which a
// double-brace match always takes priority, so substituted values are never
// rescanned.
package variables

import (
	"regexp"
	"strings"
)

// Kind classifies a variable by its name prefix.
type Kind string

const (
	KindArticle    Kind = "article"
	KindID         Kind = "id"
	KindStepOutput Kind = "step_output"
	KindCustom     Kind = "custom"
)

// Variable is one distinct placeholder found in a template body.
type Variable struct {
	Name        string `json:"name"`
	Kind        Kind   `json:"type"`
	DisplayName string `json:"display_name"`
	Position    int    `json:"position"`
}

// Context maps variable names to substitution values.
type Context map[string]string

const namePattern = `[a-zA-Z_][a-zA-Z0-9_.]*`

var (
	placeholderRe = regexp.MustCompile(`\{\{\s*(` + namePattern + `)\s*\}\}|\{(` + namePattern + `)\}`)
	stepRe        = regexp.MustCompile(`^step_?\d+\.`)
)

// Extract returns the distinct placeholders of body in order of first
// appearance. Position is the byte offset of the first occurrence.
func Extract(body string) []Variable {
	out := make([]Variable, 0)
	seen := make(map[string]bool)

	for _, m := range placeholderRe.FindAllStringSubmatchIndex(body, -1) {
		name := matchName(body, m)
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, Variable{
			Name:        name,
			Kind:        KindOf(name),
			DisplayName: DisplayName(name),
			Position:    m[0],
		})
	}
	return out
}

// Substitute replaces every placeholder in body with its value from vars.
// Placeholders without a value are replaced with the empty string and
// their names returned in missing, deduplicated in order of appearance.
func Substitute(body string, vars Context) (text string, missing []string) {
	seen := make(map[string]bool)
	var b strings.Builder
	last := 0

	for _, m := range placeholderRe.FindAllStringSubmatchIndex(body, -1) {
		b.WriteString(body[last:m[0]])
		name := matchName(body, m)
		if v, ok := vars[name]; ok {
			b.WriteString(v)
		} else if !seen[name] {
			seen[name] = true
			missing = append(missing, name)
		}
		last = m[1]
	}
	b.WriteString(body[last:])

	return b.String(), missing
}

// KindOf infers a variable's kind from its name.
func KindOf(name string) Kind {
	switch {
	case strings.HasPrefix(name, "article.") || name == "article_content":
		return KindArticle
	case strings.HasPrefix(name, "blog.") || strings.HasPrefix(name, "account."):
		return KindID
	case stepRe.MatchString(name) || strings.HasSuffix(name, "_output"):
		return KindStepOutput
	default:
		return KindCustom
	}
}

// DisplayName renders a variable name for humans: "article.title" becomes
// "Article Title".
func DisplayName(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '.' || r == '_'
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Reference is a dependency of one template body on the output of another step.
type Reference struct {
	Name string
	// Category is set for <category>_output references.
	Category string
	// Step is the 1-based step index for stepN.* and step_N.* references.
	Step int
}

// References returns the step-output dependencies declared by body.
func References(body string) []Reference {
	refs := make([]Reference, 0)
	for _, v := range Extract(body) {
		if v.Kind != KindStepOutput {
			continue
		}
		ref := Reference{Name: v.Name}
		if cat, ok := strings.CutSuffix(v.Name, "_output"); ok && !stepRe.MatchString(v.Name) {
			ref.Category = cat
		} else {
			ref.Step = stepIndex(v.Name)
		}
		refs = append(refs, ref)
	}
	return refs
}

func stepIndex(name string) int {
	digits := strings.TrimPrefix(strings.TrimPrefix(name, "step"), "_")
	n := 0
	for _, r := range digits {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func matchName(body string, m []int) string {
	if m[2] >= 0 {
		return body[m[2]:m[3]]
	}
	return body[m[4]:m[5]]
}
