// Package sources reads scraped source articles and records their
// transition to processed once content has been generated from them.
package sources

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/account"
	"github.com/JaimeStill/scribe/pkg/repository"
)

// Status is a source article's processing state.
type Status string

const (
	StatusScraped   Status = "scraped"
	StatusAnalyzed  Status = "analyzed"
	StatusProcessed Status = "processed"
	StatusSkipped   Status = "skipped"
)

var (
	ErrNotFound          = errors.New("source article not found")
	ErrInvalidTransition = errors.New("source article cannot be marked processed")
)

// Article is a news item produced by the scraping subsystem.
type Article struct {
	ID              uuid.UUID  `json:"id"`
	AccountID       uuid.UUID  `json:"account_id"`
	SourceID        *uuid.UUID `json:"source_id"`
	SourceName      string     `json:"source_name"`
	Title           string     `json:"title"`
	URL             string     `json:"url"`
	PublicationDate *time.Time `json:"publication_date"`
	FullText        string     `json:"full_text"`
	Summary         string     `json:"summary"`
	Keywords        []string   `json:"keywords"`
	RelevanceScore  *float64   `json:"relevance_score"`
	Status          Status     `json:"status"`
}

// System reads source articles for generation.
type System interface {
	Find(ctx context.Context, accountID, id uuid.UUID) (*Article, error)
	// ListAnalyzed returns up to limit analyzed articles, most relevant first.
	ListAnalyzed(ctx context.Context, accountID uuid.UUID, limit int) ([]Article, error)
	// MarkProcessed moves an analyzed article to processed. Marking an
	// already processed article succeeds.
	MarkProcessed(ctx context.Context, accountID, id uuid.UUID) error
}

// MapHTTPStatus maps source article errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, account.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

const selectArticle = `
	SELECT a.id, a.account_id, a.source_id, COALESCE(s.name, ''), a.title, a.url,
		a.publication_date, COALESCE(a.full_text, ''), COALESCE(a.summary, ''),
		a.keywords, a.relevance_score, a.status
	FROM public.source_articles a
	LEFT JOIN public.news_sources s ON s.id = a.source_id`

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a source article repository implementing System.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "sources"),
	}
}

func scanArticle(s repository.Scanner) (Article, error) {
	var a Article
	var keywords repository.JSON[[]string]
	err := s.Scan(
		&a.ID,
		&a.AccountID,
		&a.SourceID,
		&a.SourceName,
		&a.Title,
		&a.URL,
		&a.PublicationDate,
		&a.FullText,
		&a.Summary,
		&keywords,
		&a.RelevanceScore,
		&a.Status,
	)
	a.Keywords = keywords.V
	return a, err
}

func (r *repo) Find(ctx context.Context, accountID, id uuid.UUID) (*Article, error) {
	if err := account.Check(ctx, accountID); err != nil {
		return nil, err
	}

	q := selectArticle + ` WHERE a.id = $1 AND a.account_id = $2`
	a, err := repository.QueryOne(ctx, r.db, q, []any{id, accountID}, scanArticle)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ResolveMissing(ctx, r.db, "source_articles", id, ErrNotFound, account.ErrAccessDenied)
		}
		return nil, fmt.Errorf("find source article: %w", err)
	}
	return &a, nil
}

func (r *repo) ListAnalyzed(ctx context.Context, accountID uuid.UUID, limit int) ([]Article, error) {
	if err := account.Check(ctx, accountID); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 1
	}

	q := selectArticle + `
		WHERE a.account_id = $1 AND a.status = 'analyzed'
		ORDER BY a.relevance_score DESC NULLS LAST, a.publication_date DESC NULLS LAST
		LIMIT $2`

	articles, err := repository.QueryMany(ctx, r.db, q, []any{accountID, limit}, scanArticle)
	if err != nil {
		return nil, fmt.Errorf("query analyzed articles: %w", err)
	}
	return articles, nil
}

func (r *repo) MarkProcessed(ctx context.Context, accountID, id uuid.UUID) error {
	if err := account.Check(ctx, accountID); err != nil {
		return err
	}

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		err := repository.ExecExpectOne(ctx, tx, `
			UPDATE source_articles SET status = 'processed'
			WHERE id = $1 AND account_id = $2 AND status IN ('analyzed', 'processed')`,
			id, accountID,
		)
		if !errors.Is(err, sql.ErrNoRows) {
			return struct{}{}, err
		}

		var status Status
		lookup := `SELECT status FROM source_articles WHERE id = $1 AND account_id = $2`
		switch scanErr := tx.QueryRowContext(ctx, lookup, id, accountID).Scan(&status); {
		case scanErr == nil:
			return struct{}{}, fmt.Errorf("%w: status is %s", ErrInvalidTransition, status)
		case errors.Is(scanErr, sql.ErrNoRows):
			return struct{}{}, repository.ResolveMissing(ctx, tx, "source_articles", id, ErrNotFound, account.ErrAccessDenied)
		default:
			return struct{}{}, scanErr
		}
	})
	if err != nil {
		return err
	}

	r.logger.Info("source article processed", "account_id", accountID, "id", id)
	return nil
}
