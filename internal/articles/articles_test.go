package articles_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/account"
	"github.com/JaimeStill/scribe/internal/articles"
	"github.com/JaimeStill/scribe/pkg/pagination"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to articles.Status
		want     bool
	}{
		{articles.StatusDraft, articles.StatusReviewPending, true},
		{articles.StatusDraft, articles.StatusApproved, false},
		{articles.StatusReviewPending, articles.StatusApproved, true},
		{articles.StatusReviewPending, articles.StatusRejected, true},
		{articles.StatusApproved, articles.StatusRejected, false},
		{articles.StatusRejected, articles.StatusReviewPending, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestWordCount(t *testing.T) {
	tests := map[string]int{
		"Blog about TechCrunch AI.": 4,
		articles.Processing:         1,
		"  spaced\n\tout  words ":   3,
		"":                          0,
	}
	for body, want := range tests {
		if got := articles.WordCount(body); got != want {
			t.Errorf("WordCount(%q) = %d, want %d", body, got, want)
		}
	}
}

func TestCreateValidatesBeforeQuery(t *testing.T) {
	sys := articles.New(nil, slog.New(slog.NewTextHandler(io.Discard, nil)), pagination.Config{})
	acct := uuid.New()
	ctx := account.WithAccount(context.Background(), account.Context{AccountID: acct})
	src := uuid.New()

	tests := []struct {
		name string
		cmd  articles.CreateCommand
	}{
		{"neither source", articles.CreateCommand{Title: "t"}},
		{"both sources", articles.CreateCommand{Title: "t", BasedOnArticleID: &src, BasedOnEvergreenID: &src}},
		{"missing title", articles.CreateCommand{BasedOnArticleID: &src}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := sys.Create(ctx, acct, tt.cmd); !errors.Is(err, articles.ErrInvalidSource) {
				t.Errorf("err = %v, want ErrInvalidSource", err)
			}
		})
	}

	if _, err := sys.Create(ctx, uuid.New(), articles.CreateCommand{Title: "t", BasedOnArticleID: &src}); !errors.Is(err, account.ErrAccessDenied) {
		t.Errorf("cross-account err = %v", err)
	}
}

func TestReviewRejectsBadDecision(t *testing.T) {
	sys := articles.New(nil, slog.New(slog.NewTextHandler(io.Discard, nil)), pagination.Config{})
	acct := uuid.New()
	ctx := account.WithAccount(context.Background(), account.Context{AccountID: acct})

	_, err := sys.Review(ctx, acct, uuid.New(), articles.ReviewCommand{Decision: articles.StatusDraft})
	if !errors.Is(err, articles.ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}
