package articles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/account"
	"github.com/JaimeStill/scribe/pkg/pagination"
	"github.com/JaimeStill/scribe/pkg/query"
	"github.com/JaimeStill/scribe/pkg/repository"
)

const table = "generated_articles"

// System defines generated article operations. Every method is bounded to
// the given account.
type System interface {
	Handler() *Handler

	// Create inserts a draft whose body is the processing placeholder.
	Create(ctx context.Context, accountID uuid.UUID, cmd CreateCommand) (*Article, error)
	Find(ctx context.Context, accountID, id uuid.UUID) (*Article, error)
	// UpdateBody replaces body_draft and recomputes word_count.
	UpdateBody(ctx context.Context, accountID, id uuid.UUID, body string) (*Article, error)
	List(ctx context.Context, accountID uuid.UUID, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Article], error)
	// Queue moves a draft to review_pending.
	Queue(ctx context.Context, accountID, id uuid.UUID) (*Article, error)
	// Review approves or rejects a pending article, optionally setting the
	// final body, and stamps reviewed_at.
	Review(ctx context.Context, accountID, id uuid.UUID, cmd ReviewCommand) (*Article, error)
}

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a generated article repository implementing System.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "articles"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) Create(ctx context.Context, accountID uuid.UUID, cmd CreateCommand) (*Article, error) {
	if err := account.Check(ctx, accountID); err != nil {
		return nil, err
	}
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	contentType := cmd.ContentType
	if contentType == "" {
		contentType = "blog_post"
	}

	q := `
		INSERT INTO generated_articles(account_id, based_on_article_id, based_on_evergreen_id, title, body_draft, content_type, word_count, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		` + returning

	args := []any{
		accountID, cmd.BasedOnArticleID, cmd.BasedOnEvergreenID, cmd.Title,
		Processing, contentType, WordCount(Processing), StatusDraft,
	}

	a, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Article, error) {
		return repository.QueryOne(ctx, tx, q, args, scanArticle)
	})
	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: referenced source does not exist", ErrInvalidSource)
		}
		return nil, repository.MapError(err, ErrNotFound, ErrInvalidSource)
	}

	r.logger.Info("generated article created", "account_id", accountID, "id", a.ID, "title", a.Title)
	return &a, nil
}

func (r *repo) Find(ctx context.Context, accountID, id uuid.UUID) (*Article, error) {
	if err := account.Check(ctx, accountID); err != nil {
		return nil, err
	}

	q, args := query.NewBuilder(projection).
		Scope("AccountID", accountID.String()).
		BuildSingle("ID", id)

	a, err := repository.QueryOne(ctx, r.db, q, args, scanArticle)
	if err != nil {
		return nil, r.missing(ctx, r.db, err, id)
	}
	return &a, nil
}

func (r *repo) UpdateBody(ctx context.Context, accountID, id uuid.UUID, body string) (*Article, error) {
	if err := account.Check(ctx, accountID); err != nil {
		return nil, err
	}

	q := `
		UPDATE generated_articles
		SET body_draft = $1, word_count = $2, updated_at = now()
		WHERE id = $3 AND account_id = $4
		` + returning

	a, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Article, error) {
		a, err := repository.QueryOne(ctx, tx, q, []any{body, WordCount(body), id, accountID}, scanArticle)
		if err != nil {
			return Article{}, r.missing(ctx, tx, err, id)
		}
		return a, nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("generated article body updated", "account_id", accountID, "id", id, "word_count", a.WordCount)
	return &a, nil
}

func (r *repo) List(
	ctx context.Context,
	accountID uuid.UUID,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Article], error) {
	if err := account.Check(ctx, accountID); err != nil {
		return nil, err
	}
	page.Normalize(r.pagination)

	qb := query.NewBuilder(projection, defaultSort).
		Scope("AccountID", accountID.String()).
		WhereSearch(page.Search, "Title")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count generated articles: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanArticle)
	if err != nil {
		return nil, fmt.Errorf("query generated articles: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Queue(ctx context.Context, accountID, id uuid.UUID) (*Article, error) {
	return r.transition(ctx, accountID, id, StatusReviewPending, nil)
}

func (r *repo) Review(ctx context.Context, accountID, id uuid.UUID, cmd ReviewCommand) (*Article, error) {
	if cmd.Decision != StatusApproved && cmd.Decision != StatusRejected {
		return nil, fmt.Errorf("%w: decision must be approved or rejected", ErrInvalidTransition)
	}
	return r.transition(ctx, accountID, id, cmd.Decision, cmd.BodyFinal)
}

func (r *repo) transition(ctx context.Context, accountID, id uuid.UUID, next Status, bodyFinal *string) (*Article, error) {
	if err := account.Check(ctx, accountID); err != nil {
		return nil, err
	}

	a, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Article, error) {
		var current Status
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM generated_articles WHERE id = $1 AND account_id = $2 FOR UPDATE`,
			id, accountID,
		).Scan(&current)
		if err != nil {
			return Article{}, r.missing(ctx, tx, err, id)
		}

		if !current.CanTransition(next) {
			return Article{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current, next)
		}

		q := `
			UPDATE generated_articles SET
				status = $1,
				body_final = COALESCE($2, body_final),
				reviewed_at = CASE WHEN $1 IN ('approved', 'rejected') THEN now() ELSE reviewed_at END,
				updated_at = now()
			WHERE id = $3 AND account_id = $4
			` + returning

		return repository.QueryOne(ctx, tx, q, []any{next, bodyFinal, id, accountID}, scanArticle)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("generated article status changed", "account_id", accountID, "id", id, "status", a.Status)
	return &a, nil
}

func (r *repo) missing(ctx context.Context, q repository.Querier, err error, id uuid.UUID) error {
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	return repository.ResolveMissing(ctx, q, table, id, ErrNotFound, account.ErrAccessDenied)
}
