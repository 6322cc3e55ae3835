package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// OllamaConfig configures the local Ollama text adapter.
type OllamaConfig struct {
	BaseURL string   `toml:"base_url"`
	Model   string   `toml:"model"`
	Models  []string `toml:"models"`
}

// Ollama generates text with a local Ollama server.
type Ollama struct {
	client *api.Client
	model  string
	models []string
	logger *slog.Logger
}

// NewOllama creates an Ollama adapter. An empty BaseURL falls back to
// OLLAMA_HOST via api.ClientFromEnvironment.
func NewOllama(cfg OllamaConfig, httpClient *http.Client, logger *slog.Logger) (*Ollama, error) {
	var client *api.Client
	if cfg.BaseURL == "" {
		c, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("create ollama client: %w", err)
		}
		client = c
	} else {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama base_url: %w", err)
		}
		if httpClient == nil {
			httpClient = http.DefaultClient
		}
		client = api.NewClient(u, httpClient)
	}

	return &Ollama{
		client: client,
		model:  cfg.Model,
		models: cfg.Models,
		logger: logger.With("provider", "ollama"),
	}, nil
}

func (o *Ollama) Name() string { return "ollama" }

func (o *Ollama) DefaultModel() string { return o.model }

func (o *Ollama) Supports(model string) bool {
	return model == o.model || slices.Contains(o.models, model)
}

func (o *Ollama) GenerateText(ctx context.Context, req TextRequest) (*TextResult, error) {
	model := req.Model
	if model == "" || !o.Supports(model) {
		model = o.model
	}

	options := map[string]any{
		"temperature": req.Config.Temperature,
	}
	if req.Config.MaxOutputTokens > 0 {
		options["num_predict"] = req.Config.MaxOutputTokens
	}
	if req.Config.TopP != nil {
		options["top_p"] = *req.Config.TopP
	}
	if req.Config.TopK != nil {
		options["top_k"] = *req.Config.TopK
	}
	if len(req.Config.StopSequences) > 0 {
		options["stop"] = req.Config.StopSequences
	}

	gen := &api.GenerateRequest{
		Model:   model,
		Prompt:  req.Prompt,
		System:  req.SystemMessage,
		Stream:  new(bool),
		Options: options,
	}

	var (
		text  strings.Builder
		final api.GenerateResponse
	)

	start := time.Now()
	err := o.client.Generate(ctx, gen, func(resp api.GenerateResponse) error {
		text.WriteString(resp.Response)
		if resp.Done {
			final = resp
		}
		return nil
	})
	latency := time.Since(start)
	if err != nil {
		return nil, classifyOllama(o.Name(), err)
	}

	result := &TextResult{
		Provider:     o.Name(),
		Model:        model,
		Text:         text.String(),
		InputTokens:  final.PromptEvalCount,
		OutputTokens: final.EvalCount,
		StopReason:   mapDoneReason(final.DoneReason),
		Latency:      latency,
	}
	result.finalize()

	o.logger.Debug("ollama generation complete", "model", model, "tokens", result.TotalTokens, "latency", latency)
	return result, nil
}

func mapDoneReason(reason string) StopReason {
	switch reason {
	case "stop":
		return StopReasonStop
	case "length":
		return StopReasonLength
	case "":
		return StopReasonUnknown
	default:
		return StopReasonError
	}
}

func classifyOllama(provider string, err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return FromStatus(provider, statusErr.StatusCode, err)
	}
	return Classify(provider, err)
}
