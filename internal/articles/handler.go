package articles

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/account"
	"github.com/JaimeStill/scribe/pkg/handlers"
	"github.com/JaimeStill/scribe/pkg/pagination"
	"github.com/JaimeStill/scribe/pkg/routes"
)

// Handler provides the content review endpoints.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "articles"),
		pagination: pagination,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/articles",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "/{id}/queue", Handler: h.Queue},
			{Method: "POST", Pattern: "/{id}/review", Handler: h.Review},
		},
	}
}

// List returns the caller's generated articles, filterable by status.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ac, err := account.Require(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusForbidden, err)
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	result, err := h.sys.List(r.Context(), ac.AccountID, page, FiltersFromQuery(r.URL.Query()))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	ac, id, ok := h.target(w, r)
	if !ok {
		return
	}

	a, err := h.sys.Find(r.Context(), ac.AccountID, id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, a)
}

func (h *Handler) Queue(w http.ResponseWriter, r *http.Request) {
	ac, id, ok := h.target(w, r)
	if !ok {
		return
	}

	a, err := h.sys.Queue(r.Context(), ac.AccountID, id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, a)
}

func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	ac, id, ok := h.target(w, r)
	if !ok {
		return
	}

	cmd, err := handlers.DecodeJSON[ReviewCommand](r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	a, err := h.sys.Review(r.Context(), ac.AccountID, id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, a)
}

func (h *Handler) target(w http.ResponseWriter, r *http.Request) (account.Context, uuid.UUID, bool) {
	ac, err := account.Require(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusForbidden, err)
		return account.Context{}, uuid.Nil, false
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return account.Context{}, uuid.Nil, false
	}
	return ac, id, true
}
