package contenttypes_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/account"
	"github.com/JaimeStill/scribe/internal/contenttypes"
	"github.com/JaimeStill/scribe/internal/parsing"
	"github.com/JaimeStill/scribe/pkg/pagination"
	"github.com/JaimeStill/scribe/pkg/routes"
)

func TestSaveCommandNormalize(t *testing.T) {
	inactive := false

	tests := []struct {
		name    string
		cmd     contenttypes.SaveCommand
		want    contenttypes.Config
		wantErr bool
	}{
		{
			name: "defaults",
			cmd:  contenttypes.SaveCommand{Category: "blog_post", MediaType: "text"},
			want: contenttypes.Config{
				Category:      "blog_post",
				MediaType:     contenttypes.MediaText,
				ParsingMethod: parsing.MethodGeneric,
				StorageSchema: map[string]any{},
				TemplateRef:   "blog_post",
				UIConfig:      map[string]any{},
				IsActive:      true,
			},
		},
		{
			name: "explicit",
			cmd: contenttypes.SaveCommand{
				Category:       "prayer",
				MediaType:      "TEXT",
				ParsingMethod:  "prayer_points",
				TemplateRef:    "prayer_v2",
				IsActive:       &inactive,
				ExecutionOrder: 3,
			},
			want: contenttypes.Config{
				Category:       "prayer",
				MediaType:      contenttypes.MediaText,
				ParsingMethod:  parsing.MethodPrayerPoints,
				StorageSchema:  map[string]any{},
				TemplateRef:    "prayer_v2",
				UIConfig:       map[string]any{},
				ExecutionOrder: 3,
			},
		},
		{name: "missing category", cmd: contenttypes.SaveCommand{MediaType: "text"}, wantErr: true},
		{name: "bad media", cmd: contenttypes.SaveCommand{Category: "x", MediaType: "hologram"}, wantErr: true},
		{name: "bad method", cmd: contenttypes.SaveCommand{Category: "x", MediaType: "text", ParsingMethod: "xml"}, wantErr: true},
		{name: "image method on text", cmd: contenttypes.SaveCommand{Category: "x", MediaType: "text", ParsingMethod: "image"}, wantErr: true},
		{name: "negative order", cmd: contenttypes.SaveCommand{Category: "x", MediaType: "text", ExecutionOrder: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cmd.Normalize()
			if tt.wantErr {
				if !errors.Is(err, contenttypes.ErrInvalidConfig) {
					t.Fatalf("err = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

type mockSystem struct {
	saved contenttypes.SaveCommand
}

func (m *mockSystem) Handler() *contenttypes.Handler {
	return contenttypes.NewHandler(m, slog.New(slog.NewTextHandler(io.Discard, nil)), pagination.Config{DefaultPageSize: 10, MaxPageSize: 50})
}

func (m *mockSystem) GetActive(context.Context, uuid.UUID) ([]contenttypes.Config, error) {
	return nil, nil
}

func (m *mockSystem) Get(_ context.Context, _ uuid.UUID, category string) (*contenttypes.Config, error) {
	return nil, contenttypes.ErrNotFound
}

func (m *mockSystem) List(context.Context, uuid.UUID, pagination.PageRequest) (*pagination.PageResult[contenttypes.Config], error) {
	return nil, nil
}

func (m *mockSystem) Save(_ context.Context, accountID uuid.UUID, cmd contenttypes.SaveCommand) (*contenttypes.Config, error) {
	m.saved = cmd
	c, err := cmd.Normalize()
	if err != nil {
		return nil, err
	}
	c.AccountID = accountID
	return &c, nil
}

func TestHandlerSave(t *testing.T) {
	sys := &mockSystem{}
	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler().Routes())
	ctx := account.WithAccount(context.Background(), account.Context{AccountID: uuid.New()})

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"path category", "/content-types/social_media", `{"media_type":"text","parsing_method":"social_media"}`, http.StatusOK},
		{"mismatched category", "/content-types/social_media", `{"category":"prayer","media_type":"text"}`, http.StatusBadRequest},
		{"invalid media", "/content-types/video", `{"media_type":"film"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequestWithContext(ctx, http.MethodPut, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
		})
	}

	if sys.saved.Category != "video" {
		t.Errorf("last saved category = %q", sys.saved.Category)
	}
}

func TestGetActiveDeniesOtherAccount(t *testing.T) {
	sys := contenttypes.New(nil, slog.New(slog.NewTextHandler(io.Discard, nil)), pagination.Config{})
	ctx := account.WithAccount(context.Background(), account.Context{AccountID: uuid.New()})

	if _, err := sys.GetActive(ctx, uuid.New()); !errors.Is(err, account.ErrAccessDenied) {
		t.Errorf("err = %v, want ErrAccessDenied", err)
	}
}
