package prompts

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/account"
	"github.com/JaimeStill/scribe/pkg/handlers"
	"github.com/JaimeStill/scribe/pkg/pagination"
	"github.com/JaimeStill/scribe/pkg/routes"
)

// Handler provides HTTP endpoints for prompt template operations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// SearchRequest combines pagination and filter criteria for the search endpoint.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// CurrentCommand selects the version to make current.
type CurrentCommand struct {
	VersionID uuid.UUID `json:"version_id"`
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "prompts"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for template endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/templates",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "POST", Pattern: "", Handler: h.Create},
			{Method: "POST", Pattern: "/search", Handler: h.Search},
			{Method: "GET", Pattern: "/active", Handler: h.Active},
			{Method: "GET", Pattern: "/lookup", Handler: h.Lookup},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "GET", Pattern: "/{id}/versions", Handler: h.Versions},
			{Method: "POST", Pattern: "/{id}/versions", Handler: h.CreateVersion},
			{Method: "PUT", Pattern: "/{id}/current", Handler: h.SetCurrent},
			{Method: "POST", Pattern: "/{id}/activate", Handler: h.Activate},
			{Method: "POST", Pattern: "/{id}/deactivate", Handler: h.Deactivate},
		},
	}
}

// List returns a paginated list of the caller's templates with optional
// query parameter filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.caller(w, r)
	if !ok {
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.ListTemplates(r.Context(), ac.AccountID, page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Search accepts a JSON body with pagination and filter criteria.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.caller(w, r)
	if !ok {
		return
	}

	req, err := handlers.DecodeJSON[SearchRequest](r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	req.PageRequest.Normalize(h.pagination)

	result, err := h.sys.ListTemplates(r.Context(), ac.AccountID, req.PageRequest, req.Filters)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Create processes a JSON body to create a template and its first version.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.caller(w, r)
	if !ok {
		return
	}

	cmd, err := handlers.DecodeJSON[CreateCommand](r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	t, err := h.sys.CreateTemplate(r.Context(), ac.AccountID, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, t)
}

// Active returns every active template with its current version.
func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.caller(w, r)
	if !ok {
		return
	}

	templates, err := h.sys.ListActive(r.Context(), ac.AccountID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, templates)
}

// Lookup returns the active template for the category query parameter.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.caller(w, r)
	if !ok {
		return
	}

	category := r.URL.Query().Get("category")
	if category == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	t, err := h.sys.GetByCategory(r.Context(), ac.AccountID, category)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, t)
}

// Find returns a single template by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	ac, id, ok := h.target(w, r)
	if !ok {
		return
	}

	t, err := h.sys.GetTemplate(r.Context(), ac.AccountID, id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, t)
}

// Versions returns a template's versions, newest first.
func (h *Handler) Versions(w http.ResponseWriter, r *http.Request) {
	ac, id, ok := h.target(w, r)
	if !ok {
		return
	}

	versions, err := h.sys.ListVersions(r.Context(), ac.AccountID, id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, versions)
}

// CreateVersion appends a new current version to a template.
func (h *Handler) CreateVersion(w http.ResponseWriter, r *http.Request) {
	ac, id, ok := h.target(w, r)
	if !ok {
		return
	}

	cmd, err := handlers.DecodeJSON[VersionCommand](r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	v, err := h.sys.CreateVersion(r.Context(), ac.AccountID, id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, v)
}

// SetCurrent makes an existing version current.
func (h *Handler) SetCurrent(w http.ResponseWriter, r *http.Request) {
	ac, id, ok := h.target(w, r)
	if !ok {
		return
	}

	cmd, err := handlers.DecodeJSON[CurrentCommand](r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	v, err := h.sys.SetCurrentVersion(r.Context(), ac.AccountID, id, cmd.VersionID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, v)
}

// Activate makes a template the active one for its category,
// deactivating any sibling.
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	ac, id, ok := h.target(w, r)
	if !ok {
		return
	}

	t, err := h.sys.Activate(r.Context(), ac.AccountID, id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, t)
}

// Deactivate clears the active flag on a template.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	ac, id, ok := h.target(w, r)
	if !ok {
		return
	}

	t, err := h.sys.Deactivate(r.Context(), ac.AccountID, id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, t)
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (account.Context, bool) {
	ac, err := account.Require(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusForbidden, err)
		return account.Context{}, false
	}
	return ac, true
}

func (h *Handler) target(w http.ResponseWriter, r *http.Request) (account.Context, uuid.UUID, bool) {
	ac, ok := h.caller(w, r)
	if !ok {
		return account.Context{}, uuid.Nil, false
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return account.Context{}, uuid.Nil, false
	}
	return ac, id, true
}
