// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, storage, provider
// routing, media archiving, metrics) that domain systems require.
package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/JaimeStill/scribe/internal/config"
	"github.com/JaimeStill/scribe/internal/media"
	"github.com/JaimeStill/scribe/internal/metrics"
	"github.com/JaimeStill/scribe/internal/providers"
	"github.com/JaimeStill/scribe/pkg/database"
	"github.com/JaimeStill/scribe/pkg/lifecycle"
	"github.com/JaimeStill/scribe/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
// It provides a single point of initialization for lifecycle coordination,
// logging, database access, blob storage, and provider routing.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Metrics   *metrics.Metrics
	Archiver  *media.Archiver
	Router    *providers.Router
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := NewLogger(&cfg.Logging, os.Stderr)

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	m := metrics.New()
	client := &http.Client{Timeout: cfg.Pipeline.ProviderTimeout()}
	archiver := media.New(store, client, cfg.Pipeline.MaxImageBytes(), m, logger)

	router, err := NewRouter(lc.Context(), cfg, client, archiver.Stage(), logger)
	if err != nil {
		return nil, fmt.Errorf("provider init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Metrics:   m,
		Archiver:  archiver,
		Router:    router,
	}, nil
}

// NewLogger builds the process logger from the logging section.
func NewLogger(cfg *config.LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.JSON() {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewRouter constructs every enabled provider adapter and the router
// over them. Imagen output is staged through publish so it has a URL
// before archiving.
func NewRouter(ctx context.Context, cfg *config.Config, client *http.Client, publish providers.Publisher, logger *slog.Logger) (*providers.Router, error) {
	pc := &cfg.Providers

	var text []providers.TextGenerator
	var image []providers.ImageGenerator

	if pc.Enabled(config.ProviderGemini) {
		g, err := providers.NewGemini(ctx, pc.Gemini, logger)
		if err != nil {
			return nil, err
		}
		text = append(text, g)
	}
	if pc.Enabled(config.ProviderOllama) {
		o, err := providers.NewOllama(pc.Ollama, client, logger)
		if err != nil {
			return nil, err
		}
		text = append(text, o)
	}
	if pc.Enabled(config.ProviderIdeogram) {
		image = append(image, providers.NewIdeogram(pc.Ideogram, client, logger))
	}
	if pc.Enabled(config.ProviderImagen) {
		i, err := providers.NewImagen(ctx, pc.Imagen, publish, logger)
		if err != nil {
			return nil, err
		}
		image = append(image, i)
	}

	if len(text) == 0 {
		logger.Warn("no text provider configured; text steps will fail", "default_text", pc.DefaultText)
	}
	if len(image) == 0 {
		logger.Warn("no image provider configured; image steps will fail", "default_image", pc.DefaultImage)
	}

	return providers.NewRouter(providers.RouterConfig{
		DefaultText:  pc.DefaultText,
		DefaultImage: pc.DefaultImage,
		TextModel:    cfg.Pipeline.DefaultTextModel,
		ImageModel:   cfg.Pipeline.DefaultImageModel,
		Timeout:      cfg.Pipeline.ProviderTimeout(),
	}, text, image), nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
// Database and storage hooks are registered for startup and shutdown coordination.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	i.Lifecycle.Track("database", i.Database)
	i.Lifecycle.Track("storage", i.Storage)
	return nil
}
