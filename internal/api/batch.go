package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/scribe/internal/account"
	"github.com/JaimeStill/scribe/internal/batch"
	"github.com/JaimeStill/scribe/pkg/handlers"
	"github.com/JaimeStill/scribe/pkg/routes"
)

type batchHandler struct {
	runner *batch.Runner
	logger *slog.Logger
}

func newBatchHandler(runner *batch.Runner, logger *slog.Logger) *batchHandler {
	return &batchHandler{
		runner: runner,
		logger: logger.With("handler", "batch"),
	}
}

func (h *batchHandler) routes() routes.Group {
	return routes.Group{
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/generation/batches", Handler: h.runAccount},
		},
		Children: []routes.Group{
			{
				Prefix:     "/admin",
				Middleware: []func(http.Handler) http.Handler{account.OperatorOnly(h.logger)},
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/batches", Handler: h.runAll},
				},
			},
		},
	}
}

// runAccount generates content for the caller's pending source articles.
func (h *batchHandler) runAccount(w http.ResponseWriter, r *http.Request) {
	ac, err := account.Require(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusForbidden, err)
		return
	}

	summary, err := h.runner.RunAccount(r.Context(), ac.AccountID)
	if err != nil {
		handlers.RespondError(w, h.logger, account.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, summary)
}

func (h *batchHandler) runAll(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.runner.RunAll(r.Context())
	if err != nil {
		status := account.MapHTTPStatus(err)
		if errors.Is(err, batch.ErrBusy) {
			status = http.StatusConflict
		}
		handlers.RespondError(w, h.logger, status, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, summaries)
}
