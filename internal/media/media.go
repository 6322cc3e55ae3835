// Package media copies provider-hosted images to durable account storage.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/metrics"
	"github.com/JaimeStill/scribe/internal/parsing"
	"github.com/JaimeStill/scribe/internal/providers"
	"github.com/JaimeStill/scribe/pkg/formatting"
	"github.com/JaimeStill/scribe/pkg/storage"
)

// ErrTooLarge is returned when a downloaded image exceeds the size limit.
var ErrTooLarge = errors.New("image exceeds maximum size")

const stagingPrefix = "staging/"

// Target identifies where archived images belong.
type Target struct {
	AccountID uuid.UUID
	BlogID    uuid.UUID
	Category  string
}

// Key returns the storage key for the n-th image of t.
func (t Target) Key(n int, ext string) string {
	return fmt.Sprintf("accounts/%s/images/%s/%s-%d.%s", t.AccountID, t.BlogID, t.Category, n, ext)
}

// Owner returns the account that owns an archived key.
func Owner(key string) (uuid.UUID, bool) {
	rest, ok := strings.CutPrefix(key, "accounts/")
	if !ok {
		return uuid.Nil, false
	}
	id, _, ok := strings.Cut(rest, "/")
	if !ok {
		return uuid.Nil, false
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, false
	}
	return parsed, true
}

// Archiver downloads generated images and republishes them under the
// owning account's storage prefix.
type Archiver struct {
	store    storage.System
	client   *http.Client
	maxBytes int64
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates an Archiver. maxBytes bounds each download.
func New(store storage.System, client *http.Client, maxBytes int64, m *metrics.Metrics, logger *slog.Logger) *Archiver {
	if client == nil {
		client = http.DefaultClient
	}
	return &Archiver{
		store:    store,
		client:   client,
		maxBytes: maxBytes,
		metrics:  m,
		logger:   logger.With("system", "media"),
	}
}

// Archive stores every image and returns the stored set. An image that
// cannot be archived keeps its provider URL and is marked unarchived;
// Archive never fails the step.
func (a *Archiver) Archive(ctx context.Context, t Target, images []providers.GeneratedImage) parsing.ImageSet {
	set := make(parsing.ImageSet, 0, len(images))

	for i, img := range images {
		n := i + 1
		entry := parsing.Image{
			OrderNumber:    n,
			URL:            img.URL,
			ProviderURL:    img.URL,
			Prompt:         img.Prompt,
			ProviderPrompt: img.Prompt,
			Resolution:     img.Resolution,
			Seed:           img.Seed,
			Style:          img.Style,
			IsSafe:         img.IsSafe,
		}

		url, err := a.copy(ctx, t, n, img.URL)
		if err != nil {
			a.logger.Warn("image archive failed",
				"account_id", t.AccountID,
				"blog_id", t.BlogID,
				"category", t.Category,
				"n", n,
				"error", err,
			)
			a.metrics.ArchivedImage(false)
		} else {
			entry.URL = url
			entry.Archived = true
			a.metrics.ArchivedImage(true)
		}

		set = append(set, entry)
	}

	return set
}

// Stage returns a providers.Publisher that writes raw image bytes under a
// staging prefix. Staged images are moved to their final key by Archive.
func (a *Archiver) Stage() providers.Publisher {
	return func(ctx context.Context, data []byte, mimeType string) (string, error) {
		key := stagingPrefix + uuid.NewString() + "." + extension(mimeType, "")
		return storage.Publish(ctx, a.store, key, bytes.NewReader(data), mimeType)
	}
}

func (a *Archiver) copy(ctx context.Context, t Target, n int, src string) (string, error) {
	if src == "" {
		return "", errors.New("image has no url")
	}

	data, mimeType, staged, err := a.fetch(ctx, src)
	if err != nil {
		return "", err
	}

	key := t.Key(n, extension(mimeType, src))
	url, err := storage.Publish(ctx, a.store, key, bytes.NewReader(data), mimeType)
	if err != nil {
		return "", fmt.Errorf("publish %s: %w", key, err)
	}

	if staged != "" {
		if err := a.store.Delete(ctx, staged); err != nil && !errors.Is(err, storage.ErrNotFound) {
			a.logger.Warn("staged image cleanup failed", "key", staged, "error", err)
		}
	}

	return url, nil
}

// fetch reads src from storage when it was staged by this archiver and
// over HTTP otherwise. The staged key is returned for cleanup.
func (a *Archiver) fetch(ctx context.Context, src string) ([]byte, string, string, error) {
	if key, ok := a.stagedKey(src); ok {
		rc, err := a.store.Download(ctx, key)
		if err != nil {
			return nil, "", "", fmt.Errorf("download staged %s: %w", key, err)
		}
		defer rc.Close()

		data, err := a.read(rc)
		if err != nil {
			return nil, "", "", err
		}
		return data, http.DetectContentType(data), key, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, "", "", fmt.Errorf("build request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, "", "", fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", "", fmt.Errorf("download image: status %d", resp.StatusCode)
	}

	data, err := a.read(resp.Body)
	if err != nil {
		return nil, "", "", err
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, "", nil
}

func (a *Archiver) read(r io.Reader) ([]byte, error) {
	if a.maxBytes <= 0 {
		return io.ReadAll(r)
	}

	data, err := io.ReadAll(io.LimitReader(r, a.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > a.maxBytes {
		return nil, fmt.Errorf("%w: limit %s", ErrTooLarge, formatting.FormatBytes(a.maxBytes, 0))
	}
	return data, nil
}

func (a *Archiver) stagedKey(src string) (string, bool) {
	base := a.store.URL(stagingPrefix)
	if !strings.HasPrefix(src, base) {
		return "", false
	}
	return stagingPrefix + strings.TrimPrefix(src, base), true
}

// extension picks a file extension from the MIME type, then from the
// source URL path, defaulting to png.
func extension(mimeType, src string) string {
	mt, _, _ := strings.Cut(mimeType, ";")
	switch strings.TrimSpace(strings.ToLower(mt)) {
	case "image/png":
		return "png"
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	}

	if src != "" {
		p := src
		if i := strings.IndexAny(p, "?#"); i >= 0 {
			p = p[:i]
		}
		if ext := strings.TrimPrefix(path.Ext(p), "."); ext != "" && len(ext) <= 4 {
			return strings.ToLower(ext)
		}
	}
	return "png"
}
