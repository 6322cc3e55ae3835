// Package providers adapts external text and image generation services to
// two uniform calls, GenerateText and GenerateImage, and routes each
// request to an adapter by media kind and model hint.
//
// Adapters never retry. They classify failures into *ProviderError so the
// caller can decide; the router bounds every call with a wall-clock timeout.
package providers

import (
	"context"
	"time"
)

// Kind is the class of artifact a provider produces.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// StopReason normalizes provider finish states.
type StopReason string

const (
	StopReasonStop    StopReason = "stop"
	StopReasonLength  StopReason = "length"
	StopReasonSafety  StopReason = "safety"
	StopReasonError   StopReason = "error"
	StopReasonUnknown StopReason = "unknown"
)

// SafetyRating is one category verdict reported by a provider.
type SafetyRating struct {
	Category    string `json:"category"`
	Probability string `json:"probability"`
	Blocked     bool   `json:"blocked"`
}

// TextRequest is the input to GenerateText.
type TextRequest struct {
	Model         string
	Prompt        string
	SystemMessage string
	Config        GenerationConfig
}

// TextResult is the normalized outcome of GenerateText.
type TextResult struct {
	Provider        string         `json:"provider"`
	Model           string         `json:"model"`
	Text            string         `json:"text"`
	InputTokens     int            `json:"input_tokens"`
	OutputTokens    int            `json:"output_tokens"`
	TotalTokens     int            `json:"total_tokens"`
	StopReason      StopReason     `json:"stop_reason"`
	IsComplete      bool           `json:"is_complete"`
	IsTruncated     bool           `json:"is_truncated"`
	SafetyRatings   []SafetyRating `json:"safety_ratings"`
	ContentFiltered bool           `json:"content_filter_applied"`
	Latency         time.Duration  `json:"-"`
}

// finalize derives the completion flags from StopReason.
func (r *TextResult) finalize() {
	r.IsTruncated = r.StopReason == StopReasonLength
	r.IsComplete = r.StopReason == StopReasonStop
	if r.StopReason == StopReasonSafety {
		r.ContentFiltered = true
	}
	if r.TotalTokens == 0 {
		r.TotalTokens = r.InputTokens + r.OutputTokens
	}
	if r.SafetyRatings == nil {
		r.SafetyRatings = []SafetyRating{}
	}
}

// ImageRequest is the input to GenerateImage.
type ImageRequest struct {
	Model   string
	Prompt  string
	Options ImageOptions
}

// GeneratedImage is one image produced by a provider.
type GeneratedImage struct {
	URL        string `json:"url"`
	Prompt     string `json:"prompt"`
	Resolution string `json:"resolution,omitempty"`
	Seed       *int64 `json:"seed,omitempty"`
	Style      string `json:"style,omitempty"`
	IsSafe     bool   `json:"is_safe"`
}

// ImageResult is the normalized outcome of GenerateImage.
type ImageResult struct {
	Provider   string           `json:"provider"`
	Model      string           `json:"model"`
	PromptEcho string           `json:"prompt_echo"`
	Images     []GeneratedImage `json:"images"`
	Latency    time.Duration    `json:"-"`
}

// IsSafe reports whether every returned image passed the provider's filter.
func (r *ImageResult) IsSafe() bool {
	for _, img := range r.Images {
		if !img.IsSafe {
			return false
		}
	}
	return len(r.Images) > 0
}

// TextGenerator is implemented by text provider adapters. Implementations
// must be safe for concurrent use.
type TextGenerator interface {
	Name() string
	DefaultModel() string
	Supports(model string) bool
	GenerateText(ctx context.Context, req TextRequest) (*TextResult, error)
}

// ImageGenerator is implemented by image provider adapters. Implementations
// must be safe for concurrent use.
type ImageGenerator interface {
	Name() string
	DefaultModel() string
	Supports(model string) bool
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error)
}
