package contenttypes

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/scribe/internal/account"
	"github.com/JaimeStill/scribe/pkg/handlers"
	"github.com/JaimeStill/scribe/pkg/pagination"
	"github.com/JaimeStill/scribe/pkg/routes"
)

// Handler provides HTTP endpoints for content configurations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "contenttypes"),
		pagination: pagination,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/content-types",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/active", Handler: h.Active},
			{Method: "GET", Pattern: "/methods", Handler: h.Methods},
			{Method: "GET", Pattern: "/{category}", Handler: h.Get},
			{Method: "PUT", Pattern: "/{category}", Handler: h.Save},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ac, err := account.Require(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusForbidden, err)
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	result, err := h.sys.List(r.Context(), ac.AccountID, page)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	ac, err := account.Require(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusForbidden, err)
		return
	}

	configs, err := h.sys.GetActive(r.Context(), ac.AccountID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, configs)
}

func (h *Handler) Methods(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, Methods())
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ac, err := account.Require(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusForbidden, err)
		return
	}

	c, err := h.sys.Get(r.Context(), ac.AccountID, r.PathValue("category"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, c)
}

// Save upserts the configuration named by the path; a category in the
// body must match it.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	ac, err := account.Require(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusForbidden, err)
		return
	}

	cmd, err := handlers.DecodeJSON[SaveCommand](r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	category := r.PathValue("category")
	if cmd.Category != "" && cmd.Category != category {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidConfig)
		return
	}
	cmd.Category = category

	c, err := h.sys.Save(r.Context(), ac.AccountID, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, c)
}
