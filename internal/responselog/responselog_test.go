package responselog_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/account"
	"github.com/JaimeStill/scribe/internal/providers"
	"github.com/JaimeStill/scribe/internal/responselog"
	"github.com/JaimeStill/scribe/pkg/pagination"
	"github.com/JaimeStill/scribe/pkg/routes"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestEntryApplyText(t *testing.T) {
	var e responselog.Entry
	e.ApplyText(&providers.TextResult{
		Text:         "body",
		InputTokens:  10,
		OutputTokens: 20,
		TotalTokens:  30,
		StopReason:   providers.StopReasonLength,
		IsTruncated:  true,
	})

	want := responselog.Entry{
		ResponseText: "body",
		InputTokens:  10,
		OutputTokens: 20,
		TotalTokens:  30,
		StopReason:   "length",
		IsTruncated:  true,
	}
	if diff := cmp.Diff(want, e); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestEntryFail(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		stop     string
		filtered bool
	}{
		{"generic", errors.New("boom"), "error", false},
		{"safety", &providers.ProviderError{Provider: "gemini", Kind: providers.ErrorSafety, Err: errors.New("blocked")}, "safety", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := responselog.Entry{Success: true}
			e.Fail(tt.err)

			if e.Success {
				t.Error("Success = true")
			}
			if e.ErrorMessage == nil || *e.ErrorMessage != tt.err.Error() {
				t.Errorf("ErrorMessage = %v", e.ErrorMessage)
			}
			if e.StopReason != tt.stop {
				t.Errorf("StopReason = %q, want %q", e.StopReason, tt.stop)
			}
			if e.ContentFilterApplied != tt.filtered {
				t.Errorf("ContentFilterApplied = %v", e.ContentFilterApplied)
			}
		})
	}
}

func TestFiltersFromQuery(t *testing.T) {
	f := responselog.FiltersFromQuery(url.Values{"category": {"prayer"}, "success": {"false"}, "provider": {""}})

	if f.Category == nil || *f.Category != "prayer" {
		t.Errorf("Category = %v", f.Category)
	}
	if f.Success == nil || *f.Success {
		t.Errorf("Success = %v", f.Success)
	}
	if f.Provider != nil {
		t.Errorf("Provider = %v, want nil", f.Provider)
	}
}

func TestRepoGuards(t *testing.T) {
	sys := responselog.New(nil, discard, pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})
	ctx := account.WithAccount(context.Background(), account.Context{AccountID: uuid.New()})

	if _, err := sys.Append(ctx, uuid.New(), responselog.Entry{}); !errors.Is(err, account.ErrAccessDenied) {
		t.Errorf("Append err = %v", err)
	}
	if _, err := sys.ListByArticle(ctx, uuid.New(), uuid.New()); !errors.Is(err, account.ErrAccessDenied) {
		t.Errorf("ListByArticle err = %v", err)
	}
	if _, err := sys.ListAll(ctx, pagination.PageRequest{}, responselog.Filters{}); !errors.Is(err, account.ErrAccessDenied) {
		t.Errorf("ListAll err = %v", err)
	}
}

type mockSystem struct {
	listAll func(ctx context.Context) (*pagination.PageResult[responselog.Entry], error)
}

func (m *mockSystem) Handler() *responselog.Handler {
	return responselog.NewHandler(m, discard, pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})
}

func (m *mockSystem) Append(context.Context, uuid.UUID, responselog.Entry) (*responselog.Entry, error) {
	return nil, errors.New("not used")
}

func (m *mockSystem) ListByArticle(context.Context, uuid.UUID, uuid.UUID) ([]responselog.Entry, error) {
	return []responselog.Entry{}, nil
}

func (m *mockSystem) List(context.Context, uuid.UUID, pagination.PageRequest, responselog.Filters) (*pagination.PageResult[responselog.Entry], error) {
	r := pagination.NewPageResult([]responselog.Entry{}, 0, 1, 20)
	return &r, nil
}

func (m *mockSystem) ListAll(ctx context.Context, _ pagination.PageRequest, _ responselog.Filters) (*pagination.PageResult[responselog.Entry], error) {
	return m.listAll(ctx)
}

func TestHandlerAdminRequiresOperator(t *testing.T) {
	called := false
	sys := &mockSystem{listAll: func(context.Context) (*pagination.PageResult[responselog.Entry], error) {
		called = true
		r := pagination.NewPageResult([]responselog.Entry{}, 0, 1, 20)
		return &r, nil
	}}

	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler().Routes())

	tests := []struct {
		name     string
		operator bool
		want     int
	}{
		{"tenant", false, http.StatusForbidden},
		{"operator", true, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called = false
			req := httptest.NewRequest(http.MethodGet, "/admin/logs", nil)
			req = req.WithContext(account.WithAccount(req.Context(), account.Context{AccountID: uuid.New(), Operator: tt.operator}))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if called != tt.operator {
				t.Errorf("ListAll called = %v", called)
			}
		})
	}
}

func TestHandlerListByArticleBadID(t *testing.T) {
	mux := http.NewServeMux()
	routes.Register(mux, (&mockSystem{}).Handler().Routes())

	req := httptest.NewRequest(http.MethodGet, "/articles/nope/logs", nil)
	req = req.WithContext(account.WithAccount(req.Context(), account.Context{AccountID: uuid.New()}))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
