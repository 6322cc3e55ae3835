package api

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/account"
	"github.com/JaimeStill/scribe/internal/batch"
	"github.com/JaimeStill/scribe/internal/media"
	"github.com/JaimeStill/scribe/pkg/lifecycle"
	"github.com/JaimeStill/scribe/pkg/routes"
	"github.com/JaimeStill/scribe/pkg/storage"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type blobStore struct {
	blobs map[string][]byte
}

func (s *blobStore) Start(*lifecycle.Coordinator) error { return nil }
func (s *blobStore) Ready() bool                        { return true }

func (s *blobStore) Upload(_ context.Context, key string, r io.Reader, _ string) error {
	data, err := io.ReadAll(r)
	s.blobs[key] = data
	return err
}

func (s *blobStore) Download(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *blobStore) Delete(_ context.Context, key string) error {
	delete(s.blobs, key)
	return nil
}

func (s *blobStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := s.blobs[key]
	return ok, nil
}

func (s *blobStore) URL(key string) string { return "https://cdn.test/" + key }

const operatorUser = "ops-1"

func serve(groups ...routes.Group) http.Handler {
	mux := http.NewServeMux()
	routes.Register(mux, groups...)
	return account.Middleware(discard, []string{operatorUser})(mux)
}

func TestMediaDownload(t *testing.T) {
	owner, other := uuid.New(), uuid.New()
	key := media.Target{AccountID: owner, BlogID: uuid.New(), Category: "image_generation"}.Key(1, "png")
	store := &blobStore{blobs: map[string][]byte{key: []byte("png-bytes")}}
	h := serve(newMediaHandler(store, discard).routes())

	tests := []struct {
		name     string
		path     string
		caller   uuid.UUID
		operator bool
		want     int
	}{
		{"owner", "/media/" + key, owner, false, http.StatusOK},
		{"operator", "/media/" + key, other, true, http.StatusOK},
		{"other account", "/media/" + key, other, false, http.StatusForbidden},
		{"missing blob", "/media/accounts/" + owner.String() + "/images/x.png", owner, false, http.StatusNotFound},
		{"staging key", "/media/staging/x.png", owner, false, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			req.Header.Set(account.HeaderAccountID, tt.caller.String())
			if tt.operator {
				req.Header.Set(account.HeaderUserID, operatorUser)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK {
				if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
					t.Errorf("content type = %q", ct)
				}
				if rec.Body.String() != "png-bytes" {
					t.Errorf("body = %q", rec.Body.String())
				}
			}
		})
	}
}

func TestBatchAdminRequiresOperator(t *testing.T) {
	runner := batch.New(nil, nil, nil, batch.Config{}, nil, discard)
	h := serve(newBatchHandler(runner, discard).routes())

	req := httptest.NewRequest("POST", "/admin/batches", strings.NewReader(""))
	req.Header.Set(account.HeaderAccountID, uuid.NewString())
	req.Header.Set(account.HeaderUserID, "editor")
	req.Header.Set("X-Operator", "true")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}
