package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgDuplicateKeyCode         = "23505"
	pgForeignKeyViolationCode  = "23503"
	pgSerializationFailureCode = "40001"
)

// ErrSerialization reports a transaction that lost a serializable conflict
// and exhausted its retries.
var ErrSerialization = errors.New("serialization failure")

// MapError translates database errors to domain errors.
// sql.ErrNoRows maps to notFoundErr and unique violations (23505) map to
// duplicateErr. Serialization failures (40001) map to ErrSerialization.
// Other errors are returned unchanged.
func MapError(err error, notFoundErr, duplicateErr error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgDuplicateKeyCode:
			return duplicateErr
		case pgSerializationFailureCode:
			return fmt.Errorf("%w: %s", ErrSerialization, pgErr.Message)
		}
	}

	return err
}

// IsSerializationFailure reports whether err is a PostgreSQL 40001.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgSerializationFailureCode
}

// IsForeignKeyViolation reports whether err is a PostgreSQL 23503.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolationCode
}

// ResolveMissing decides why an account-scoped lookup returned no row.
// If a row with id exists in table under any account, deniedErr is
// returned; otherwise notFoundErr. The table name must be a trusted
// identifier.
func ResolveMissing(ctx context.Context, q Querier, table string, id any, notFoundErr, deniedErr error) error {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)", table)
	if err := q.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return deniedErr
	}
	return notFoundErr
}
