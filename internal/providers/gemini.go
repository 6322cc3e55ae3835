package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiConfig configures the Gemini text adapter.
type GeminiConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
}

// Gemini generates text with Google's Gemini models.
type Gemini struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// NewGemini creates a Gemini adapter. The client performs no network call
// until the first request.
func NewGemini(ctx context.Context, cfg GeminiConfig, logger *slog.Logger) (*Gemini, error) {
	client, err := newGenAIClient(ctx, cfg.APIKey, cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{
		client: client,
		model:  cfg.Model,
		logger: logger.With("provider", "gemini"),
	}, nil
}

func newGenAIClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	return genai.NewClient(ctx, cc)
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) DefaultModel() string { return g.model }

func (g *Gemini) Supports(model string) bool {
	return strings.HasPrefix(model, "gemini-")
}

func (g *Gemini) GenerateText(ctx context.Context, req TextRequest) (*TextResult, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), geminiConfig(req))
	latency := time.Since(start)
	if err != nil {
		return nil, classifyGenAI(g.Name(), err)
	}

	result := geminiResult(resp)
	result.Provider = g.Name()
	result.Model = model
	result.Latency = latency

	if result.StopReason == StopReasonSafety && result.Text == "" {
		g.logger.Warn("gemini response blocked", "model", model, "ratings", len(result.SafetyRatings))
		return result, SafetyBlocked(g.Name(), blockReason(resp))
	}

	return result, nil
}

func geminiConfig(req TextRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Config.Temperature)),
		MaxOutputTokens: int32(req.Config.MaxOutputTokens),
		StopSequences:   req.Config.StopSequences,
	}
	if req.SystemMessage != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemMessage, genai.RoleUser)
	}
	if req.Config.TopP != nil {
		cfg.TopP = genai.Ptr(float32(*req.Config.TopP))
	}
	if req.Config.TopK != nil {
		cfg.TopK = genai.Ptr(float32(*req.Config.TopK))
	}
	return cfg
}

func geminiResult(resp *genai.GenerateContentResponse) *TextResult {
	result := &TextResult{
		Text:       resp.Text(),
		StopReason: StopReasonUnknown,
	}

	if u := resp.UsageMetadata; u != nil {
		result.InputTokens = int(u.PromptTokenCount)
		result.OutputTokens = int(u.CandidatesTokenCount)
		result.TotalTokens = int(u.TotalTokenCount)
	}

	if len(resp.Candidates) > 0 {
		c := resp.Candidates[0]
		result.StopReason = mapFinishReason(c.FinishReason)
		for _, r := range c.SafetyRatings {
			if r == nil {
				continue
			}
			result.SafetyRatings = append(result.SafetyRatings, SafetyRating{
				Category:    string(r.Category),
				Probability: string(r.Probability),
				Blocked:     r.Blocked,
			})
		}
	}

	if pf := resp.PromptFeedback; pf != nil && pf.BlockReason != "" {
		result.StopReason = StopReasonSafety
	}

	result.finalize()
	return result
}

func mapFinishReason(fr genai.FinishReason) StopReason {
	switch fr {
	case genai.FinishReasonStop:
		return StopReasonStop
	case genai.FinishReasonMaxTokens:
		return StopReasonLength
	case genai.FinishReasonSafety,
		genai.FinishReasonRecitation,
		genai.FinishReasonBlocklist,
		genai.FinishReasonProhibitedContent,
		genai.FinishReasonSPII:
		return StopReasonSafety
	case genai.FinishReasonMalformedFunctionCall, genai.FinishReasonOther:
		return StopReasonError
	default:
		return StopReasonUnknown
	}
}

func blockReason(resp *genai.GenerateContentResponse) string {
	if pf := resp.PromptFeedback; pf != nil && pf.BlockReason != "" {
		return string(pf.BlockReason)
	}
	if len(resp.Candidates) > 0 {
		return string(resp.Candidates[0].FinishReason)
	}
	return "unspecified"
}

func classifyGenAI(provider string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return FromStatus(provider, apiErr.Code, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return FromStatus(provider, apiErrPtr.Code, err)
	}
	return Classify(provider, err)
}
