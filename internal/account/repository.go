package account

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/pkg/repository"
)

// System reads accounts and their brand settings.
type System interface {
	Handler() *Handler

	Find(ctx context.Context, id uuid.UUID) (*Account, error)
	UpdateSettings(ctx context.Context, id uuid.UUID, settings Settings) (*Account, error)
	// ListWithPendingSources returns ids of accounts that own analyzed
	// source articles, for scheduled batch runs.
	ListWithPendingSources(ctx context.Context) ([]uuid.UUID, error)
}

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates an account repository implementing System.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "account"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func scanAccount(s repository.Scanner) (Account, error) {
	var a Account
	var settings repository.JSON[Settings]
	err := s.Scan(&a.ID, &a.Name, &settings, &a.CreatedAt)
	a.Settings = settings.V
	return a, err
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Account, error) {
	if err := Check(ctx, id); err != nil {
		return nil, err
	}

	q := `SELECT id, name, settings, created_at FROM accounts WHERE id = $1`
	a, err := repository.QueryOne(ctx, r.db, q, []any{id}, scanAccount)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrNotFound)
	}
	return &a, nil
}

func (r *repo) UpdateSettings(ctx context.Context, id uuid.UUID, settings Settings) (*Account, error) {
	if err := Check(ctx, id); err != nil {
		return nil, err
	}

	q := `
		UPDATE accounts SET settings = $1
		WHERE id = $2
		RETURNING id, name, settings, created_at`

	a, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Account, error) {
		return repository.QueryOne(ctx, tx, q, []any{repository.JSON[Settings]{V: settings}, id}, scanAccount)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrNotFound)
	}

	r.logger.Info("account settings updated", "account_id", id)
	return &a, nil
}

func (r *repo) ListWithPendingSources(ctx context.Context) ([]uuid.UUID, error) {
	if err := RequireOperator(ctx); err != nil {
		return nil, err
	}

	q := `
		SELECT DISTINCT account_id FROM source_articles
		WHERE status = 'analyzed'
		ORDER BY account_id`

	return repository.QueryMany(ctx, r.db, q, nil, func(s repository.Scanner) (uuid.UUID, error) {
		var id uuid.UUID
		err := s.Scan(&id)
		return id, err
	})
}
