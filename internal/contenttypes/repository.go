package contenttypes

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/account"
	"github.com/JaimeStill/scribe/internal/parsing"
	"github.com/JaimeStill/scribe/pkg/pagination"
	"github.com/JaimeStill/scribe/pkg/query"
	"github.com/JaimeStill/scribe/pkg/repository"
)

// System reads and maintains an account's content configurations.
type System interface {
	Handler() *Handler

	// GetActive returns active configurations ordered by execution_order,
	// then category.
	GetActive(ctx context.Context, accountID uuid.UUID) ([]Config, error)
	Get(ctx context.Context, accountID uuid.UUID, category string) (*Config, error)
	List(ctx context.Context, accountID uuid.UUID, page pagination.PageRequest) (*pagination.PageResult[Config], error)
	// Save upserts the configuration keyed by (account, category).
	Save(ctx context.Context, accountID uuid.UUID, cmd SaveCommand) (*Config, error)
}

var projection = query.
	NewProjectionMap("public", "content_configs", "c").
	Project("id", "ID").
	Project("account_id", "AccountID").
	Project("category", "Category").
	Project("media_type", "MediaType").
	Project("parsing_method", "ParsingMethod").
	Project("storage_schema", "StorageSchema").
	Project("template_ref", "TemplateRef").
	Project("ui_config", "UIConfig").
	Project("is_active", "IsActive").
	Project("execution_order", "ExecutionOrder").
	Project("updated_at", "UpdatedAt")

var defaultSort = []query.SortField{
	{Field: "ExecutionOrder"},
	{Field: "Category"},
}

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a content configuration repository implementing System.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "contenttypes"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func scanConfig(s repository.Scanner) (Config, error) {
	var c Config
	var schema, ui repository.JSON[map[string]any]
	err := s.Scan(
		&c.ID,
		&c.AccountID,
		&c.Category,
		&c.MediaType,
		&c.ParsingMethod,
		&schema,
		&c.TemplateRef,
		&ui,
		&c.IsActive,
		&c.ExecutionOrder,
		&c.UpdatedAt,
	)
	c.StorageSchema = schema.V
	c.UIConfig = ui.V
	return c, err
}

func (r *repo) GetActive(ctx context.Context, accountID uuid.UUID) ([]Config, error) {
	if err := account.Check(ctx, accountID); err != nil {
		return nil, err
	}

	active := true
	q, args := query.NewBuilder(projection, defaultSort...).
		Scope("AccountID", accountID.String()).
		WhereEquals("IsActive", &active).
		Build()

	configs, err := repository.QueryMany(ctx, r.db, q, args, scanConfig)
	if err != nil {
		return nil, fmt.Errorf("query active configurations: %w", err)
	}
	return configs, nil
}

func (r *repo) Get(ctx context.Context, accountID uuid.UUID, category string) (*Config, error) {
	if err := account.Check(ctx, accountID); err != nil {
		return nil, err
	}

	q, args := query.NewBuilder(projection).
		Scope("AccountID", accountID.String()).
		WhereEquals("Category", category).
		BuildSingleOrNull()

	c, err := repository.QueryOne(ctx, r.db, q, args, scanConfig)
	if err != nil {
		return nil, repository.MapError(err, fmt.Errorf("%w: category %q", ErrNotFound, category), ErrInvalidConfig)
	}
	return &c, nil
}

func (r *repo) List(ctx context.Context, accountID uuid.UUID, page pagination.PageRequest) (*pagination.PageResult[Config], error) {
	if err := account.Check(ctx, accountID); err != nil {
		return nil, err
	}
	page.Normalize(r.pagination)

	qb := query.NewBuilder(projection, defaultSort...).
		Scope("AccountID", accountID.String()).
		WhereSearch(page.Search, "Category", "TemplateRef")

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count configurations: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	configs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanConfig)
	if err != nil {
		return nil, fmt.Errorf("query configurations: %w", err)
	}

	result := pagination.NewPageResult(configs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Save(ctx context.Context, accountID uuid.UUID, cmd SaveCommand) (*Config, error) {
	if err := account.Check(ctx, accountID); err != nil {
		return nil, err
	}

	c, err := cmd.Normalize()
	if err != nil {
		return nil, err
	}

	q := `
		INSERT INTO content_configs(account_id, category, media_type, parsing_method, storage_schema, template_ref, ui_config, is_active, execution_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (account_id, category) DO UPDATE SET
			media_type = EXCLUDED.media_type,
			parsing_method = EXCLUDED.parsing_method,
			storage_schema = EXCLUDED.storage_schema,
			template_ref = EXCLUDED.template_ref,
			ui_config = EXCLUDED.ui_config,
			is_active = EXCLUDED.is_active,
			execution_order = EXCLUDED.execution_order,
			updated_at = now()
		RETURNING id, account_id, category, media_type, parsing_method, storage_schema, template_ref, ui_config, is_active, execution_order, updated_at`

	args := []any{
		accountID, c.Category, c.MediaType, c.ParsingMethod,
		repository.JSON[map[string]any]{V: c.StorageSchema},
		c.TemplateRef,
		repository.JSON[map[string]any]{V: c.UIConfig},
		c.IsActive, c.ExecutionOrder,
	}

	saved, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Config, error) {
		return repository.QueryOne(ctx, tx, q, args, scanConfig)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrInvalidConfig)
	}

	r.logger.Info("content configuration saved",
		"account_id", accountID,
		"category", saved.Category,
		"media_type", saved.MediaType,
		"parsing_method", saved.ParsingMethod,
		"execution_order", saved.ExecutionOrder,
	)
	return &saved, nil
}

// Methods lists the parsing methods a configuration may declare.
func Methods() []parsing.Method {
	return append(parsing.Methods(), parsing.MethodImage)
}
