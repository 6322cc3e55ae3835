package providers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JaimeStill/scribe/internal/providers"
)

type fakeText struct {
	name     string
	model    string
	prefix   string
	generate func(ctx context.Context, req providers.TextRequest) (*providers.TextResult, error)
}

func (f *fakeText) Name() string               { return f.name }
func (f *fakeText) DefaultModel() string       { return f.model }
func (f *fakeText) Supports(model string) bool { return f.prefix != "" && len(model) >= len(f.prefix) && model[:len(f.prefix)] == f.prefix }
func (f *fakeText) GenerateText(ctx context.Context, req providers.TextRequest) (*providers.TextResult, error) {
	return f.generate(ctx, req)
}

func echo(name string) func(context.Context, providers.TextRequest) (*providers.TextResult, error) {
	return func(_ context.Context, req providers.TextRequest) (*providers.TextResult, error) {
		return &providers.TextResult{Provider: name, Model: req.Model, Text: req.Prompt, StopReason: providers.StopReasonStop}, nil
	}
}

func newRouter(timeout time.Duration, text ...providers.TextGenerator) *providers.Router {
	return providers.NewRouter(providers.RouterConfig{
		DefaultText:  "gemini",
		DefaultImage: "ideogram",
		TextModel:    "gemini-2.5-flash",
		Timeout:      timeout,
	}, text, nil)
}

func TestRouterText(t *testing.T) {
	gem := &fakeText{name: "gemini", model: "gemini-2.0", prefix: "gemini-", generate: echo("gemini")}
	oll := &fakeText{name: "ollama", model: "llama3.2", prefix: "llama", generate: echo("ollama")}
	r := newRouter(time.Second, gem, oll)

	tests := []struct {
		hint      string
		wantName  string
		wantModel string
		wantErr   bool
	}{
		{"", "gemini", "gemini-2.5-flash", false},
		{"ollama", "ollama", "llama3.2", false},
		{"llama3.1:8b", "ollama", "llama3.1:8b", false},
		{"gemini-2.5-pro", "gemini", "gemini-2.5-pro", false},
		{"gpt-4o", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			g, model, err := r.Text(tt.hint)
			if tt.wantErr {
				if !errors.Is(err, providers.ErrNoProvider) {
					t.Fatalf("err = %v, want ErrNoProvider", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if g.Name() != tt.wantName || model != tt.wantModel {
				t.Errorf("got %s/%s, want %s/%s", g.Name(), model, tt.wantName, tt.wantModel)
			}
		})
	}
}

func TestRouterImageDefaultMissing(t *testing.T) {
	r := newRouter(time.Second)
	if _, _, err := r.Image(""); !errors.Is(err, providers.ErrNoProvider) {
		t.Errorf("err = %v", err)
	}
}

func TestRouterTimeout(t *testing.T) {
	slow := &fakeText{name: "gemini", model: "gemini-2.0", generate: func(ctx context.Context, _ providers.TextRequest) (*providers.TextResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	r := newRouter(20*time.Millisecond, slow)

	_, route, err := r.GenerateText(context.Background(), providers.TextRequest{Prompt: "hi"})
	pe, ok := providers.AsProviderError(err)
	if !ok {
		t.Fatalf("err = %v, want ProviderError", err)
	}
	if pe.Kind != providers.ErrorTimeout || !pe.Retryable {
		t.Errorf("error = %+v", pe)
	}
	if route.Provider != "gemini" || route.Model != "gemini-2.0" {
		t.Errorf("route = %+v", route)
	}
}

func TestRouterPassesModel(t *testing.T) {
	gem := &fakeText{name: "gemini", model: "gemini-2.0", prefix: "gemini-", generate: echo("gemini")}
	r := newRouter(time.Second, gem)

	res, route, err := r.GenerateText(context.Background(), providers.TextRequest{
		Prompt: "p",
		Config: providers.GenerationConfig{ModelHint: "gemini-2.5-pro"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Model != "gemini-2.5-pro" || route.Model != "gemini-2.5-pro" {
		t.Errorf("model = %s, route = %+v", res.Model, route)
	}
}

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status    int
		kind      providers.ErrorKind
		retryable bool
	}{
		{429, providers.ErrorQuota, true},
		{504, providers.ErrorTimeout, true},
		{503, providers.ErrorNetwork, true},
		{400, providers.ErrorInvalidRequest, false},
		{401, providers.ErrorInvalidRequest, false},
	}
	for _, tt := range tests {
		pe := providers.FromStatus("x", tt.status, errors.New("body"))
		if pe.Kind != tt.kind || pe.Retryable != tt.retryable {
			t.Errorf("FromStatus(%d) = %s/%v, want %s/%v", tt.status, pe.Kind, pe.Retryable, tt.kind, tt.retryable)
		}
	}
}

func TestClassifyDeadline(t *testing.T) {
	err := providers.Classify("ollama", context.DeadlineExceeded)
	pe, ok := providers.AsProviderError(err)
	if !ok || pe.Kind != providers.ErrorTimeout || !pe.Retryable {
		t.Errorf("got %v", err)
	}
}
