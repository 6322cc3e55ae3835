package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key  string
		want error
	}{
		{"accounts/a1/images/b1/image_generation-1.png", nil},
		{"", ErrEmptyKey},
		{"accounts/../secrets", ErrInvalidKey},
		{"accounts/a1/file..png", nil},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if err := validateKey(tt.key); !errors.Is(err, tt.want) {
				t.Errorf("validateKey(%q) = %v, want %v", tt.key, err, tt.want)
			}
		})
	}
}

func TestJoinURL(t *testing.T) {
	if got := joinURL("https://cdn.example/media/", "/accounts/a/x.png"); got != "https://cdn.example/media/accounts/a/x.png" {
		t.Errorf("got %s", got)
	}
}

func TestConfigFinalize(t *testing.T) {
	cfg := &Config{Backend: BackendS3}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("s3 defaults should validate: %v", err)
	}
	if cfg.S3.Region != "us-east-1" || cfg.ContainerName != "scribe-media" {
		t.Errorf("defaults not applied: %+v", cfg)
	}

	azure := &Config{}
	if err := azure.Finalize(nil); err == nil {
		t.Error("azure without connection string should fail")
	}

	bad := &Config{Backend: "ftp"}
	if err := bad.Finalize(nil); err == nil {
		t.Error("unknown backend should fail")
	}
}

func TestConfigEnvOverride(t *testing.T) {
	t.Setenv("TEST_STORAGE_BACKEND", "s3")
	t.Setenv("TEST_S3_ENDPOINT", "http://minio:9000")
	t.Setenv("TEST_S3_PATH_STYLE", "true")

	cfg := &Config{}
	env := &Env{Backend: "TEST_STORAGE_BACKEND", S3Endpoint: "TEST_S3_ENDPOINT", S3UsePathStyle: "TEST_S3_PATH_STYLE"}
	if err := cfg.Finalize(env); err != nil {
		t.Fatal(err)
	}
	if cfg.Backend != BackendS3 || cfg.S3.Endpoint != "http://minio:9000" || !cfg.S3.UsePathStyle {
		t.Errorf("env not applied: %+v", cfg)
	}
}

func TestKeyError(t *testing.T) {
	err := validateKey("accounts/../secrets")

	var ke *KeyError
	if !errors.As(err, &ke) || ke.Key != "accounts/../secrets" {
		t.Fatalf("err = %v, want *KeyError naming the key", err)
	}
	if got := err.Error(); got != `storage key contains a ".." segment: "accounts/../secrets"` {
		t.Errorf("message = %s", got)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{notFound("accounts/a/x.png"), http.StatusNotFound},
		{fmt.Errorf("download: %w", notFound("k")), http.StatusNotFound},
		{validateKey(""), http.StatusBadRequest},
		{validateKey("a/../b"), http.StatusBadRequest},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestNewUnknownBackend(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := New(&Config{Backend: "ftp"}, logger); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("err = %v, want ErrUnknownBackend", err)
	}
}
