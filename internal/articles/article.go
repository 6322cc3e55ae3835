// Package articles stores generated articles, the primary output of a
// generation run, and moves them through editorial review.
package articles

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is a generated article's review state.
type Status string

const (
	StatusDraft         Status = "draft"
	StatusReviewPending Status = "review_pending"
	StatusApproved      Status = "approved"
	StatusRejected      Status = "rejected"
)

// Processing is the placeholder body written when a run starts.
const Processing = "…processing…"

var transitions = map[Status][]Status{
	StatusDraft:         {StatusReviewPending},
	StatusReviewPending: {StatusApproved, StatusRejected},
}

// CanTransition reports whether s may move to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Article is the generated article for one run.
type Article struct {
	ID                 uuid.UUID  `json:"id"`
	AccountID          uuid.UUID  `json:"account_id"`
	BasedOnArticleID   *uuid.UUID `json:"based_on_article_id"`
	BasedOnEvergreenID *uuid.UUID `json:"based_on_evergreen_id"`
	Title              string     `json:"title"`
	BodyDraft          string     `json:"body_draft"`
	BodyFinal          *string    `json:"body_final"`
	ContentType        string     `json:"content_type"`
	WordCount          int        `json:"word_count"`
	Status             Status     `json:"status"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	ReviewedAt         *time.Time `json:"reviewed_at"`
}

// CreateCommand starts a generated article. Exactly one of the based-on
// ids must be set.
type CreateCommand struct {
	BasedOnArticleID   *uuid.UUID `json:"based_on_article_id"`
	BasedOnEvergreenID *uuid.UUID `json:"based_on_evergreen_id"`
	Title              string     `json:"title"`
	ContentType        string     `json:"content_type"`
}

func (c CreateCommand) validate() error {
	if (c.BasedOnArticleID == nil) == (c.BasedOnEvergreenID == nil) {
		return ErrInvalidSource
	}
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidSource)
	}
	return nil
}

// ReviewCommand records an editorial decision on a pending article.
type ReviewCommand struct {
	Decision  Status  `json:"decision"`
	BodyFinal *string `json:"body_final"`
}

// WordCount counts whitespace-delimited tokens.
func WordCount(body string) int {
	return len(strings.Fields(body))
}
