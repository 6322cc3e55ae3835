package account

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/pkg/handlers"
)

// Header names set by the upstream authentication layer.
const (
	HeaderAccountID = "X-Account-ID"
	HeaderUserID    = "X-User-ID"
)

// Middleware turns the identity headers into a request-scoped Context.
// Requests without a valid account id are rejected with 403.
//
// Operator identity is never taken from a request header. A request is an
// operator request only when its user id is listed in operators.
func Middleware(logger *slog.Logger, operators []string) func(http.Handler) http.Handler {
	logger = logger.With("middleware", "account")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(HeaderAccountID)
			id, err := uuid.Parse(raw)
			if err != nil || id == uuid.Nil {
				handlers.RespondError(w, logger, http.StatusForbidden,
					fmt.Errorf("%w: missing or invalid %s", ErrAccessDenied, HeaderAccountID))
				return
			}

			user := r.Header.Get(HeaderUserID)

			ctx := WithAccount(r.Context(), Context{
				AccountID: id,
				UserID:    user,
				Operator:  user != "" && slices.Contains(operators, user),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OperatorOnly rejects requests whose context lacks operator identity.
func OperatorOnly(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := RequireOperator(r.Context()); err != nil {
				handlers.RespondError(w, logger, http.StatusForbidden, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
