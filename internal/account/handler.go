package account

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/scribe/pkg/handlers"
	"github.com/JaimeStill/scribe/pkg/routes"
)

// Handler exposes the calling account and its brand settings.
type Handler struct {
	sys    System
	logger *slog.Logger
}

func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "account"),
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/account",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Find},
			{Method: "PUT", Pattern: "/settings", Handler: h.UpdateSettings},
		},
	}
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	ac, err := Require(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusForbidden, err)
		return
	}

	a, err := h.sys.Find(r.Context(), ac.AccountID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, a)
}

// UpdateSettings replaces the caller's brand settings.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ac, err := Require(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusForbidden, err)
		return
	}

	settings, err := handlers.DecodeJSON[Settings](r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	a, err := h.sys.UpdateSettings(r.Context(), ac.AccountID, settings)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, a)
}
