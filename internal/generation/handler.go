package generation

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/account"
	"github.com/JaimeStill/scribe/pkg/handlers"
	"github.com/JaimeStill/scribe/pkg/routes"
)

// Handler provides HTTP endpoints for starting runs and previewing plans.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// RunCommand identifies the source article to generate from.
type RunCommand struct {
	SourceArticleID uuid.UUID `json:"source_article_id"`
}

func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "generation"),
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/generation",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/runs", Handler: h.Run},
			{Method: "GET", Pattern: "/plan", Handler: h.Plan},
		},
	}
}

// Run executes the pipeline synchronously and returns the run result.
// A partially complete run still responds 201; the status field
// carries the outcome.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	ac, err := account.Require(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusForbidden, err)
		return
	}

	cmd, err := handlers.DecodeJSON[RunCommand](r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if cmd.SourceArticleID == uuid.Nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, handlers.ErrInvalidBody)
		return
	}

	result, err := h.sys.Run(r.Context(), ac.AccountID, cmd.SourceArticleID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, result)
}

func (h *Handler) Plan(w http.ResponseWriter, r *http.Request) {
	ac, err := account.Require(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusForbidden, err)
		return
	}

	plan, err := h.sys.Plan(r.Context(), ac.AccountID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, plan)
}
