// Package storage provides blob storage operations backed by Azure Blob
// Storage or an S3-compatible object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/JaimeStill/scribe/pkg/lifecycle"
)

// System manages blob storage operations and lifecycle coordination.
type System interface {
	// Start registers a startup hook that initializes the storage container.
	Start(lc *lifecycle.Coordinator) error
	// Ready reports whether the container was initialized.
	Ready() bool
	// Upload streams data to a blob at the given key with the specified content type.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
	// Download returns a stream for the blob at the given key. The caller must close the reader.
	// Returns ErrNotFound if the blob does not exist.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the blob at the given key. Returns ErrNotFound if the blob does not exist.
	Delete(ctx context.Context, key string) error
	// Exists reports whether a blob exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)
	// URL returns the durable address of the blob at key.
	URL(key string) string
}

// New creates a storage system for the configured backend.
// Clients are constructed eagerly but no network call happens until Start.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	logger = logger.With("system", "storage", "backend", string(cfg.Backend))

	switch cfg.Backend {
	case BackendAzure:
		return newAzure(cfg, logger)
	case BackendS3:
		return newS3(cfg, logger)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownBackend, cfg.Backend)
	}
}

// Publish uploads data and returns its durable URL.
func Publish(ctx context.Context, sys System, key string, reader io.Reader, contentType string) (string, error) {
	if err := sys.Upload(ctx, key, reader, contentType); err != nil {
		return "", err
	}
	return sys.URL(key), nil
}

func validateKey(key string) error {
	if key == "" {
		return &KeyError{Err: ErrEmptyKey}
	}
	for seg := range strings.SplitSeq(key, "/") {
		if seg == ".." {
			return &KeyError{Key: key, Err: ErrInvalidKey}
		}
	}
	return nil
}

func joinURL(base, key string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(key, "/")
}
