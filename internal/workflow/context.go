package workflow

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/account"
	"github.com/JaimeStill/scribe/internal/sources"
	"github.com/JaimeStill/scribe/internal/variables"
)

// Context keys seeded before the first step.
const (
	KeyArticleTitle    = "article.title"
	KeyArticleContent  = "article.content"
	KeyArticleSummary  = "article.summary"
	KeyArticleSource   = "article.source"
	KeyArticleURL      = "article.url"
	KeyArticleKeywords = "article.keywords"
	KeyArticleLegacy   = "article_content"
	KeyBlogID          = "blog.id"
	KeyAccountID       = "account.id"
	KeyBrandVoice      = "account.brand_voice"
)

const (
	noContent    = "No content available"
	summaryRunes = 300
)

// SeedContext builds the initial substitution context for a run.
func SeedContext(src sources.Article, blogID, accountID uuid.UUID, settings account.Settings) variables.Context {
	content := firstNonEmpty(src.FullText, src.Summary, noContent)

	return variables.Context{
		KeyArticleTitle:    src.Title,
		KeyArticleContent:  content,
		KeyArticleSummary:  truncateRunes(content, summaryRunes),
		KeyArticleSource:   src.SourceName,
		KeyArticleURL:      src.URL,
		KeyArticleKeywords: strings.Join(src.Keywords, ", "),
		KeyArticleLegacy:   legacyBlob(src, content),
		KeyBlogID:          blogID.String(),
		KeyAccountID:       accountID.String(),
		KeyBrandVoice:      settings.BrandVoice,
	}
}

// OutputKey is the context key under which a category's output is exported.
func OutputKey(category string) string {
	return category + "_output"
}

// StepOutputKeys are the positional aliases of a step's output:
// stepN.output and step_N.output.
func StepOutputKeys(index int) []string {
	return []string{
		fmt.Sprintf("step%d.output", index),
		fmt.Sprintf("step_%d.output", index),
	}
}

func legacyBlob(src sources.Article, content string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\n", src.Title)
	if src.SourceName != "" {
		fmt.Fprintf(&sb, "Source: %s\n", src.SourceName)
	}
	if src.URL != "" {
		fmt.Fprintf(&sb, "URL: %s\n", src.URL)
	}
	if src.Summary != "" && src.Summary != content {
		fmt.Fprintf(&sb, "Summary: %s\n", src.Summary)
	}
	sb.WriteString("\n")
	sb.WriteString(content)
	return sb.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
