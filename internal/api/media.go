package api

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"

	"github.com/JaimeStill/scribe/internal/account"
	"github.com/JaimeStill/scribe/internal/media"
	"github.com/JaimeStill/scribe/pkg/handlers"
	"github.com/JaimeStill/scribe/pkg/routes"
	"github.com/JaimeStill/scribe/pkg/storage"
)

// mediaHandler serves archived images to their owning account.
type mediaHandler struct {
	store  storage.System
	logger *slog.Logger
}

func newMediaHandler(store storage.System, logger *slog.Logger) *mediaHandler {
	return &mediaHandler{
		store:  store,
		logger: logger.With("handler", "media"),
	}
}

func (h *mediaHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/media",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{key...}", Handler: h.download},
		},
	}
}

func (h *mediaHandler) download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	owner, ok := media.Owner(key)
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusNotFound, storage.ErrNotFound)
		return
	}
	if err := account.Check(r.Context(), owner); err != nil {
		handlers.RespondError(w, h.logger, http.StatusForbidden, err)
		return
	}

	body, err := h.store.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer body.Close()

	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", path.Base(key)))
	w.WriteHeader(http.StatusOK)
	io.Copy(w, body)
}
