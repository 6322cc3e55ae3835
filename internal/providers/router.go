package providers

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RouterConfig selects default adapters and bounds call duration.
type RouterConfig struct {
	DefaultText  string
	DefaultImage string
	TextModel    string
	ImageModel   string
	Timeout      time.Duration
}

// Router maps (kind, model hint) to an adapter and model and enforces the
// per-call timeout.
type Router struct {
	cfg   RouterConfig
	text  []TextGenerator
	image []ImageGenerator
}

// NewRouter creates a Router over the given adapters. Adapters are
// consulted in registration order when resolving model hints.
func NewRouter(cfg RouterConfig, text []TextGenerator, image []ImageGenerator) *Router {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Router{cfg: cfg, text: text, image: image}
}

// Timeout returns the per-call deadline.
func (r *Router) Timeout() time.Duration {
	return r.cfg.Timeout
}

// Text resolves the text adapter and model for hint.
// An empty hint selects the default text adapter and model. A hint that
// names an adapter selects that adapter with its default model. Otherwise
// the first adapter that supports the hint as a model is used.
func (r *Router) Text(hint string) (TextGenerator, string, error) {
	if hint == "" {
		for _, g := range r.text {
			if g.Name() == r.cfg.DefaultText {
				return g, pick(r.cfg.TextModel, g), nil
			}
		}
		return nil, "", fmt.Errorf("%w: default text provider %q", ErrNoProvider, r.cfg.DefaultText)
	}
	for _, g := range r.text {
		if g.Name() == hint {
			return g, g.DefaultModel(), nil
		}
	}
	for _, g := range r.text {
		if g.Supports(hint) {
			return g, hint, nil
		}
	}
	return nil, "", fmt.Errorf("%w: text model %q", ErrNoProvider, hint)
}

// Image resolves the image adapter and model for hint, following the
// same rules as Text.
func (r *Router) Image(hint string) (ImageGenerator, string, error) {
	if hint == "" {
		for _, g := range r.image {
			if g.Name() == r.cfg.DefaultImage {
				return g, pick(r.cfg.ImageModel, g), nil
			}
		}
		return nil, "", fmt.Errorf("%w: default image provider %q", ErrNoProvider, r.cfg.DefaultImage)
	}
	for _, g := range r.image {
		if g.Name() == hint {
			return g, g.DefaultModel(), nil
		}
	}
	for _, g := range r.image {
		if g.Supports(hint) {
			return g, hint, nil
		}
	}
	return nil, "", fmt.Errorf("%w: image model %q", ErrNoProvider, hint)
}

func pick(configured string, g interface {
	Supports(string) bool
	DefaultModel() string
}) string {
	if configured != "" && g.Supports(configured) {
		return configured
	}
	return g.DefaultModel()
}

// Route identifies the adapter and model that served a call.
type Route struct {
	Provider string
	Model    string
}

// GenerateText routes req by its model hint and runs it under the timeout.
// The returned Route identifies the adapter even when the call fails.
func (r *Router) GenerateText(ctx context.Context, req TextRequest) (*TextResult, Route, error) {
	g, model, err := r.Text(req.Config.ModelHint)
	if err != nil {
		return nil, Route{}, err
	}
	req.Model = model
	route := Route{Provider: g.Name(), Model: model}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	res, err := g.GenerateText(ctx, req)
	return res, route, r.bound(ctx, g.Name(), err)
}

// GenerateImage routes req by hint and runs it under the timeout.
func (r *Router) GenerateImage(ctx context.Context, hint string, req ImageRequest) (*ImageResult, Route, error) {
	g, model, err := r.Image(hint)
	if err != nil {
		return nil, Route{}, err
	}
	req.Model = model
	route := Route{Provider: g.Name(), Model: model}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	res, err := g.GenerateImage(ctx, req)
	return res, route, r.bound(ctx, g.Name(), err)
}

// bound converts an expired call deadline into a retryable timeout error.
func (r *Router) bound(ctx context.Context, provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &ProviderError{
			Provider:  provider,
			Kind:      ErrorTimeout,
			Retryable: true,
			Err:       fmt.Errorf("no response within %s: %w", r.cfg.Timeout, err),
		}
	}
	return Classify(provider, err)
}

// ProviderName returns the adapter name that would serve hint, or "" when
// none does.
func (r *Router) ProviderName(kind Kind, hint string) string {
	switch kind {
	case KindImage:
		if g, _, err := r.Image(hint); err == nil {
			return g.Name()
		}
	default:
		if g, _, err := r.Text(hint); err == nil {
			return g.Name()
		}
	}
	return ""
}
