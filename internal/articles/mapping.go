package articles

import (
	"net/url"

	"github.com/JaimeStill/scribe/pkg/query"
	"github.com/JaimeStill/scribe/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "generated_articles", "g").
	Project("id", "ID").
	Project("account_id", "AccountID").
	Project("based_on_article_id", "BasedOnArticleID").
	Project("based_on_evergreen_id", "BasedOnEvergreenID").
	Project("title", "Title").
	Project("body_draft", "BodyDraft").
	Project("body_final", "BodyFinal").
	Project("content_type", "ContentType").
	Project("word_count", "WordCount").
	Project("status", "Status").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt").
	Project("reviewed_at", "ReviewedAt")

var defaultSort = query.SortField{Field: "CreatedAt", Descending: true}

const returning = `RETURNING id, account_id, based_on_article_id, based_on_evergreen_id, title,
	body_draft, body_final, content_type, word_count, status, created_at, updated_at, reviewed_at`

// Filters narrows article listings.
type Filters struct {
	Status      *Status `json:"status,omitempty"`
	ContentType *string `json:"content_type,omitempty"`
}

func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereEquals("ContentType", f.ContentType)
}

func FiltersFromQuery(values url.Values) Filters {
	var f Filters
	if s := values.Get("status"); s != "" {
		status := Status(s)
		f.Status = &status
	}
	if c := values.Get("content_type"); c != "" {
		f.ContentType = &c
	}
	return f
}

func scanArticle(s repository.Scanner) (Article, error) {
	var a Article
	err := s.Scan(
		&a.ID,
		&a.AccountID,
		&a.BasedOnArticleID,
		&a.BasedOnEvergreenID,
		&a.Title,
		&a.BodyDraft,
		&a.BodyFinal,
		&a.ContentType,
		&a.WordCount,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.ReviewedAt,
	)
	return a, err
}
