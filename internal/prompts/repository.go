package prompts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/account"
	"github.com/JaimeStill/scribe/internal/variables"
	"github.com/JaimeStill/scribe/pkg/pagination"
	"github.com/JaimeStill/scribe/pkg/query"
	"github.com/JaimeStill/scribe/pkg/repository"
)

// versionAttempts bounds retries of serializable version writes.
const versionAttempts = 5

const templateTable = "prompt_templates"

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a prompt template repository implementing the System interface.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "prompts"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) ListTemplates(
	ctx context.Context,
	accountID uuid.UUID,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Template], error) {
	if err := account.Check(ctx, accountID); err != nil {
		return nil, err
	}
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		Scope("AccountID", accountID.String()).
		WhereSearch(page.Search, "Name", "Description", "Category")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count templates: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	templates, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanTemplate)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}

	result := pagination.NewPageResult(templates, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) CreateTemplate(ctx context.Context, accountID uuid.UUID, cmd CreateCommand) (*Template, error) {
	ac, err := r.authorize(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if err := variables.Validate(variables.Template{
		Name:          cmd.Name,
		Category:      cmd.Category,
		PromptBody:    cmd.PromptBody,
		SystemMessage: cmd.SystemMessage,
	}); err != nil {
		return nil, err
	}

	insertTemplate := `
		INSERT INTO prompt_templates(account_id, name, category, description, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, account_id, name, category, description, is_active, created_at`

	insertVersion := `
		INSERT INTO prompt_versions(template_id, account_id, version_number, prompt_body, system_message, parameters, created_by, notes, is_current)
		VALUES ($1, $2, 1, $3, $4, $5, $6, $7, true)
		RETURNING id, template_id, version_number, prompt_body, system_message, parameters, created_by, created_at, notes, is_current`

	t, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Template, error) {
		t, err := repository.QueryOne(ctx, tx, insertTemplate,
			[]any{accountID, cmd.Name, cmd.Category, cmd.Description, cmd.Active},
			scanTemplate,
		)
		if err != nil {
			return Template{}, err
		}

		v, err := repository.QueryOne(ctx, tx, insertVersion,
			[]any{t.ID, accountID, cmd.PromptBody, cmd.SystemMessage, parameters(cmd.Parameters), ac.UserID, cmd.Notes},
			scanVersion,
		)
		if err != nil {
			return Template{}, err
		}
		t.CurrentVersion = &v
		return t, nil
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflictingCategory)
	}

	r.logger.Info("template created",
		"account_id", accountID,
		"id", t.ID,
		"name", t.Name,
		"category", t.Category,
		"active", t.IsActive,
	)
	return &t, nil
}

func (r *repo) GetTemplate(ctx context.Context, accountID, id uuid.UUID) (*Template, error) {
	if err := account.Check(ctx, accountID); err != nil {
		return nil, err
	}

	q := resolvedSelect + ` WHERE t.id = $1 AND t.account_id = $2`
	t, err := repository.QueryOne(ctx, r.db, q, []any{id, accountID}, scanResolved)
	if err != nil {
		return nil, r.missing(ctx, r.db, err, id)
	}
	return &t, nil
}

func (r *repo) GetByCategory(ctx context.Context, accountID uuid.UUID, category string) (*Template, error) {
	if err := account.Check(ctx, accountID); err != nil {
		return nil, err
	}

	q := resolvedSelect + ` WHERE t.account_id = $1 AND t.category = $2 AND t.is_active`
	t, err := repository.QueryOne(ctx, r.db, q, []any{accountID, category}, scanResolved)
	if err != nil {
		return nil, repository.MapError(err, fmt.Errorf("%w: category %q", ErrNotFound, category), ErrConflictingCategory)
	}
	return &t, nil
}

func (r *repo) ListActive(ctx context.Context, accountID uuid.UUID) ([]Template, error) {
	if err := account.Check(ctx, accountID); err != nil {
		return nil, err
	}

	q := resolvedSelect + ` WHERE t.account_id = $1 AND t.is_active ORDER BY t.name`
	templates, err := repository.QueryMany(ctx, r.db, q, []any{accountID}, scanResolved)
	if err != nil {
		return nil, fmt.Errorf("query active templates: %w", err)
	}
	return templates, nil
}

// CreateVersion appends a version numbered max+1 and makes it current.
// The template row is locked and the write runs serializable so concurrent
// writers cannot observe or produce two current versions.
func (r *repo) CreateVersion(ctx context.Context, accountID, templateID uuid.UUID, cmd VersionCommand) (*Version, error) {
	ac, err := r.authorize(ctx, accountID)
	if err != nil {
		return nil, err
	}

	insert := `
		INSERT INTO prompt_versions(template_id, account_id, version_number, prompt_body, system_message, parameters, created_by, notes, is_current)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, true)
		RETURNING id, template_id, version_number, prompt_body, system_message, parameters, created_by, created_at, notes, is_current`

	v, err := repository.WithSerializableTx(ctx, r.db, versionAttempts, func(tx *sql.Tx) (Version, error) {
		t, err := r.lockTemplate(ctx, tx, accountID, templateID)
		if err != nil {
			return Version{}, err
		}

		if err := variables.Validate(variables.Template{
			Name:          t.Name,
			Category:      t.Category,
			PromptBody:    cmd.PromptBody,
			SystemMessage: cmd.SystemMessage,
		}); err != nil {
			return Version{}, err
		}

		var next int
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(version_number), 0) + 1 FROM prompt_versions WHERE template_id = $1`,
			templateID,
		).Scan(&next); err != nil {
			return Version{}, fmt.Errorf("next version number: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE prompt_versions SET is_current = false WHERE template_id = $1 AND is_current`,
			templateID,
		); err != nil {
			return Version{}, fmt.Errorf("clear current version: %w", err)
		}

		return repository.QueryOne(ctx, tx, insert, []any{
			templateID, accountID, next, cmd.PromptBody, cmd.SystemMessage,
			parameters(cmd.Parameters), ac.UserID, cmd.Notes,
		}, scanVersion)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, repository.ErrSerialization)
	}

	r.logger.Info("template version created",
		"account_id", accountID,
		"template_id", templateID,
		"version", v.VersionNumber,
	)
	return &v, nil
}

func (r *repo) SetCurrentVersion(ctx context.Context, accountID, templateID, versionID uuid.UUID) (*Version, error) {
	if err := account.Check(ctx, accountID); err != nil {
		return nil, err
	}

	v, err := repository.WithSerializableTx(ctx, r.db, versionAttempts, func(tx *sql.Tx) (Version, error) {
		if _, err := r.lockTemplate(ctx, tx, accountID, templateID); err != nil {
			return Version{}, err
		}

		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM prompt_versions WHERE id = $1 AND template_id = $2)`,
			versionID, templateID,
		).Scan(&exists); err != nil {
			return Version{}, fmt.Errorf("check version: %w", err)
		}
		if !exists {
			return Version{}, ErrVersionNotFound
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE prompt_versions SET is_current = false WHERE template_id = $1 AND is_current AND id <> $2`,
			templateID, versionID,
		); err != nil {
			return Version{}, fmt.Errorf("clear current version: %w", err)
		}

		q := `
			UPDATE prompt_versions v SET is_current = true
			WHERE v.id = $1
			RETURNING ` + versionColumns

		return repository.QueryOne(ctx, tx, q, []any{versionID}, scanVersion)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrVersionNotFound, repository.ErrSerialization)
	}

	r.logger.Info("template current version set",
		"account_id", accountID,
		"template_id", templateID,
		"version", v.VersionNumber,
	)
	return &v, nil
}

func (r *repo) ListVersions(ctx context.Context, accountID, templateID uuid.UUID) ([]Version, error) {
	if err := account.Check(ctx, accountID); err != nil {
		return nil, err
	}

	var owned bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM prompt_templates WHERE id = $1 AND account_id = $2)`,
		templateID, accountID,
	).Scan(&owned); err != nil {
		return nil, fmt.Errorf("check template owner: %w", err)
	}
	if !owned {
		return nil, r.missing(ctx, r.db, sql.ErrNoRows, templateID)
	}

	q := `SELECT ` + versionColumns + `
		FROM public.prompt_versions v
		WHERE v.template_id = $1 AND v.account_id = $2
		ORDER BY v.version_number DESC`

	versions, err := repository.QueryMany(ctx, r.db, q, []any{templateID, accountID}, scanVersion)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	return versions, nil
}

// Activate marks a template active, atomically deactivating any other
// active template of the same account and category.
func (r *repo) Activate(ctx context.Context, accountID, id uuid.UUID) (*Template, error) {
	if err := account.Check(ctx, accountID); err != nil {
		return nil, err
	}

	t, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Template, error) {
		target, err := r.lockTemplate(ctx, tx, accountID, id)
		if err != nil {
			return Template{}, err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE prompt_templates SET is_active = false
			 WHERE account_id = $1 AND category = $2 AND is_active AND id <> $3`,
			accountID, target.Category, id,
		); err != nil {
			return Template{}, fmt.Errorf("deactivate current: %w", err)
		}

		q := `
			UPDATE prompt_templates t SET is_active = true
			WHERE t.id = $1 AND t.account_id = $2
			RETURNING ` + templateColumns

		return repository.QueryOne(ctx, tx, q, []any{id, accountID}, scanTemplate)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflictingCategory)
	}

	r.logger.Info("template activated", "account_id", accountID, "id", t.ID, "category", t.Category)
	return &t, nil
}

func (r *repo) Deactivate(ctx context.Context, accountID, id uuid.UUID) (*Template, error) {
	if err := account.Check(ctx, accountID); err != nil {
		return nil, err
	}

	q := `
		UPDATE prompt_templates t SET is_active = false
		WHERE t.id = $1 AND t.account_id = $2
		RETURNING ` + templateColumns

	t, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Template, error) {
		t, err := repository.QueryOne(ctx, tx, q, []any{id, accountID}, scanTemplate)
		if err != nil {
			return Template{}, r.missing(ctx, tx, err, id)
		}
		return t, nil
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflictingCategory)
	}

	r.logger.Info("template deactivated", "account_id", accountID, "id", t.ID, "category", t.Category)
	return &t, nil
}

func (r *repo) authorize(ctx context.Context, accountID uuid.UUID) (account.Context, error) {
	if err := account.Check(ctx, accountID); err != nil {
		return account.Context{}, err
	}
	ac, _ := account.FromContext(ctx)
	return ac, nil
}

// lockTemplate reads and row-locks a template owned by accountID.
func (r *repo) lockTemplate(ctx context.Context, tx *sql.Tx, accountID, id uuid.UUID) (Template, error) {
	q := `SELECT ` + templateColumns + `
		FROM public.prompt_templates t
		WHERE t.id = $1 AND t.account_id = $2
		FOR UPDATE`

	t, err := repository.QueryOne(ctx, tx, q, []any{id, accountID}, scanTemplate)
	if err != nil {
		return Template{}, r.missing(ctx, tx, err, id)
	}
	return t, nil
}

// missing converts a scoped miss into ErrNotFound or, when the template
// belongs to another account, account.ErrAccessDenied.
func (r *repo) missing(ctx context.Context, q repository.Querier, err error, id uuid.UUID) error {
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	resolved := repository.ResolveMissing(ctx, q, templateTable, id, ErrNotFound, account.ErrAccessDenied)
	if errors.Is(resolved, account.ErrAccessDenied) {
		r.logger.Warn("cross-account template access", "template_id", id)
	}
	return resolved
}

func parameters(p map[string]any) repository.JSON[map[string]any] {
	if p == nil {
		p = map[string]any{}
	}
	return repository.JSON[map[string]any]{V: p}
}
