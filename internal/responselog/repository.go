package responselog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/account"
	"github.com/JaimeStill/scribe/internal/providers"
	"github.com/JaimeStill/scribe/pkg/pagination"
	"github.com/JaimeStill/scribe/pkg/query"
	"github.com/JaimeStill/scribe/pkg/repository"
)

// System appends and reads response log entries.
type System interface {
	Handler() *Handler

	Append(ctx context.Context, accountID uuid.UUID, e Entry) (*Entry, error)
	ListByArticle(ctx context.Context, accountID, genArticleID uuid.UUID) ([]Entry, error)
	List(ctx context.Context, accountID uuid.UUID, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Entry], error)
	// ListAll reads across accounts and requires an operator context.
	ListAll(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Entry], error)
}

// MapHTTPStatus maps log read errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, account.ErrAccessDenied) {
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a response log repository implementing System.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "responselog"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) Append(ctx context.Context, accountID uuid.UUID, e Entry) (*Entry, error) {
	if err := account.Check(ctx, accountID); err != nil {
		return nil, err
	}

	q := `
		INSERT INTO ai_response_log(
			account_id, gen_article_id, template_id, version_id, category, media_type, provider, model,
			prompt_text, system_message, response_text, input_tokens, output_tokens, total_tokens,
			generation_time_ms, temperature, max_output_tokens, stop_reason, is_complete, is_truncated,
			safety_ratings, content_filter_applied, success, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		` + returning

	ratings := e.SafetyRatings
	if ratings == nil {
		ratings = []providers.SafetyRating{}
	}

	args := []any{
		accountID, e.GenArticleID, e.TemplateID, e.VersionID, e.Category, e.MediaType, e.Provider, e.Model,
		e.PromptText, e.SystemMessage, e.ResponseText, e.InputTokens, e.OutputTokens, e.TotalTokens,
		e.GenerationTimeMS, e.Temperature, e.MaxOutputTokens, e.StopReason, e.IsComplete, e.IsTruncated,
		repository.JSON[[]providers.SafetyRating]{V: ratings}, e.ContentFilterApplied, e.Success, e.ErrorMessage,
	}

	saved, err := repository.QueryOne(ctx, r.db, q, args, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("append response log: %w", err)
	}
	return &saved, nil
}

func (r *repo) ListByArticle(ctx context.Context, accountID, genArticleID uuid.UUID) ([]Entry, error) {
	if err := account.Check(ctx, accountID); err != nil {
		return nil, err
	}

	q, args := query.NewBuilder(projection, query.SortField{Field: "CreatedAt"}).
		Scope("AccountID", accountID.String()).
		WhereEquals("GenArticleID", genArticleID).
		Build()

	entries, err := repository.QueryMany(ctx, r.db, q, args, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("query response log: %w", err)
	}
	return entries, nil
}

func (r *repo) List(
	ctx context.Context,
	accountID uuid.UUID,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Entry], error) {
	if err := account.Check(ctx, accountID); err != nil {
		return nil, err
	}

	qb := query.NewBuilder(projection, defaultSort).Scope("AccountID", accountID.String())
	return r.page(ctx, qb, page, filters)
}

func (r *repo) ListAll(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Entry], error) {
	if err := account.RequireOperator(ctx); err != nil {
		return nil, err
	}

	return r.page(ctx, query.NewBuilder(projection, defaultSort), page, filters)
}

func (r *repo) page(ctx context.Context, qb *query.Builder, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Entry], error) {
	page.Normalize(r.pagination)

	qb.WhereSearch(page.Search, "PromptText", "ResponseText")
	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count response log: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	entries, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("query response log: %w", err)
	}

	result := pagination.NewPageResult(entries, total, page.Page, page.PageSize)
	return &result, nil
}
