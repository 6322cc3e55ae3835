package api

import (
	"net/http"

	"github.com/JaimeStill/scribe/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, runtime *Runtime) {
	routes.Register(
		mux,
		domain.Accounts.Handler().Routes(),
		domain.Prompts.Handler().Routes(),
		domain.ContentTypes.Handler().Routes(),
		domain.Articles.Handler().Routes(),
		domain.Contents.Handler().Routes(),
		domain.ResponseLog.Handler().Routes(),
		domain.Generation.Handler().Routes(),
		newBatchHandler(domain.Batch, runtime.Logger).routes(),
		newMediaHandler(runtime.Storage, runtime.Logger).routes(),
	)
}
