// Package account carries the tenant boundary. Every store operation in
// scribe takes an explicit account id; this package supplies the
// request-scoped value that produces it, the shared AccessDenied error,
// and the per-account brand settings consulted during generation.
//
// Account and user ids arrive as headers from the upstream authentication
// layer. Operator access follows from the configured operator user ids.
package account

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Context is the request-scoped identity attached by the upstream
// authentication layer.
type Context struct {
	AccountID uuid.UUID
	UserID    string
	Operator  bool
}

type contextKey struct{}

// WithAccount returns a child context carrying ac.
func WithAccount(ctx context.Context, ac Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

// FromContext returns the account context attached to ctx, if any.
func FromContext(ctx context.Context) (Context, bool) {
	ac, ok := ctx.Value(contextKey{}).(Context)
	return ac, ok
}

// Require returns the account context attached to ctx or ErrAccessDenied
// when none is present or its account id is zero.
func Require(ctx context.Context) (Context, error) {
	ac, ok := FromContext(ctx)
	if !ok || ac.AccountID == uuid.Nil {
		return Context{}, fmt.Errorf("%w: no account in request context", ErrAccessDenied)
	}
	return ac, nil
}

// Check verifies that the caller in ctx may act on accountID.
// Operators may act on any account.
func Check(ctx context.Context, accountID uuid.UUID) error {
	ac, err := Require(ctx)
	if err != nil {
		return err
	}
	if ac.Operator || ac.AccountID == accountID {
		return nil
	}
	return fmt.Errorf("%w: account %s cannot access %s", ErrAccessDenied, ac.AccountID, accountID)
}

// RequireOperator returns ErrAccessDenied unless ctx carries an operator
// identity.
func RequireOperator(ctx context.Context) error {
	ac, ok := FromContext(ctx)
	if !ok || !ac.Operator {
		return fmt.Errorf("%w: operator access required", ErrAccessDenied)
	}
	return nil
}
