package media_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/media"
	"github.com/JaimeStill/scribe/internal/providers"
	"github.com/JaimeStill/scribe/pkg/lifecycle"
	"github.com/JaimeStill/scribe/pkg/storage"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// memStore is an in-memory storage.System.
type memStore struct {
	mu        sync.Mutex
	blobs     map[string][]byte
	types     map[string]string
	failWrite bool
}

func newMemStore() *memStore {
	return &memStore{blobs: map[string][]byte{}, types: map[string]string{}}
}

func (m *memStore) Start(*lifecycle.Coordinator) error { return nil }
func (m *memStore) Ready() bool                        { return true }

func (m *memStore) Upload(_ context.Context, key string, r io.Reader, contentType string) error {
	if m.failWrite {
		return errors.New("write refused")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memStore) Download(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[key]; !ok {
		return storage.ErrNotFound
	}
	delete(m.blobs, key)
	return nil
}

func (m *memStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[key]
	return ok, nil
}

func (m *memStore) URL(key string) string { return "https://cdn.test/media/" + key }

var png = []byte("\x89PNG\r\n\x1a\n0000")

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(png)
		case "/big":
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write(bytes.Repeat([]byte{0xff}, 64))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTargetKey(t *testing.T) {
	acct := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	blog := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	got := media.Target{AccountID: acct, BlogID: blog, Category: "image_generation"}.Key(2, "jpg")
	want := "accounts/11111111-1111-1111-1111-111111111111/images/22222222-2222-2222-2222-222222222222/image_generation-2.jpg"
	if got != want {
		t.Errorf("Key = %s, want %s", got, want)
	}
}

func TestArchive(t *testing.T) {
	srv := imageServer(t)
	store := newMemStore()
	a := media.New(store, srv.Client(), 32, nil, discard)
	target := media.Target{AccountID: uuid.New(), BlogID: uuid.New(), Category: "image_generation"}

	set := a.Archive(context.Background(), target, []providers.GeneratedImage{
		{URL: srv.URL + "/ok.png", Prompt: "a lighthouse", IsSafe: true},
		{URL: srv.URL + "/missing.png", Prompt: "a harbor", IsSafe: true},
		{URL: srv.URL + "/big", Prompt: "a storm", IsSafe: true},
	})

	if len(set) != 3 {
		t.Fatalf("len = %d, want 3", len(set))
	}

	if !set[0].Archived || set[0].URL != store.URL(target.Key(1, "png")) {
		t.Errorf("first image = %+v", set[0])
	}
	if set[0].ProviderURL != srv.URL+"/ok.png" || set[0].OrderNumber != 1 {
		t.Errorf("first image provenance = %+v", set[0])
	}
	if ok, _ := store.Exists(context.Background(), target.Key(1, "png")); !ok {
		t.Error("archived blob missing")
	}

	for _, img := range set[1:] {
		if img.Archived {
			t.Errorf("image %d should not be archived", img.OrderNumber)
		}
		if img.URL != img.ProviderURL {
			t.Errorf("image %d should keep provider url, got %s", img.OrderNumber, img.URL)
		}
	}
}

func TestArchiveStorageFailure(t *testing.T) {
	srv := imageServer(t)
	store := newMemStore()
	store.failWrite = true
	a := media.New(store, srv.Client(), 0, nil, discard)

	set := a.Archive(context.Background(), media.Target{AccountID: uuid.New(), BlogID: uuid.New(), Category: "image"}, []providers.GeneratedImage{
		{URL: srv.URL + "/ok.png"},
	})

	if set[0].Archived {
		t.Error("write failure should leave image unarchived")
	}
}

func TestStageThenArchive(t *testing.T) {
	store := newMemStore()
	a := media.New(store, nil, 0, nil, discard)

	url, err := a.Stage()(context.Background(), png, "image/png")
	if err != nil {
		t.Fatal(err)
	}

	target := media.Target{AccountID: uuid.New(), BlogID: uuid.New(), Category: "image_generation"}
	set := a.Archive(context.Background(), target, []providers.GeneratedImage{{URL: url}})

	if !set[0].Archived {
		t.Fatalf("staged image not archived: %+v", set[0])
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.blobs) != 1 {
		t.Errorf("staging blob should be removed, have %d blobs", len(store.blobs))
	}
	if _, ok := store.blobs[target.Key(1, "png")]; !ok {
		t.Error("final blob missing")
	}
}

func TestOwner(t *testing.T) {
	acct := uuid.New()
	key := media.Target{AccountID: acct, BlogID: uuid.New(), Category: "image_generation"}.Key(1, "png")

	if got, ok := media.Owner(key); !ok || got != acct {
		t.Errorf("Owner(%q) = %s, %v", key, got, ok)
	}

	for _, bad := range []string{"staging/x.png", "accounts/not-a-uuid/images/x.png", "accounts/"} {
		if _, ok := media.Owner(bad); ok {
			t.Errorf("Owner(%q) ok, want false", bad)
		}
	}
}
