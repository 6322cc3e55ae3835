package providers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// ImagenConfig configures the Imagen image adapter.
type ImagenConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
}

// Publisher stores raw image bytes and returns a durable URL.
type Publisher func(ctx context.Context, data []byte, mimeType string) (string, error)

// Imagen generates images with Google's Imagen models. Imagen returns image
// bytes rather than URLs, so each image is passed through a Publisher.
type Imagen struct {
	client  *genai.Client
	model   string
	publish Publisher
	logger  *slog.Logger
}

// NewImagen creates an Imagen adapter.
func NewImagen(ctx context.Context, cfg ImagenConfig, publish Publisher, logger *slog.Logger) (*Imagen, error) {
	client, err := newGenAIClient(ctx, cfg.APIKey, cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("create imagen client: %w", err)
	}
	return &Imagen{
		client:  client,
		model:   cfg.Model,
		publish: publish,
		logger:  logger.With("provider", "imagen"),
	}, nil
}

func (i *Imagen) Name() string { return "imagen" }

func (i *Imagen) DefaultModel() string { return i.model }

func (i *Imagen) Supports(model string) bool {
	return strings.HasPrefix(model, "imagen-")
}

func (i *Imagen) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	model := req.Model
	if model == "" || !i.Supports(model) {
		model = i.model
	}
	opts := req.Options.Normalize()

	cfg := &genai.GenerateImagesConfig{
		NumberOfImages: int32(opts.NumImages),
		AspectRatio:    imagenAspect(opts.AspectRatio),
		NegativePrompt: opts.NegativePrompt,
	}
	if opts.Seed != nil {
		cfg.Seed = genai.Ptr(int32(*opts.Seed))
	}

	start := time.Now()
	resp, err := i.client.Models.GenerateImages(ctx, model, req.Prompt, cfg)
	if err != nil {
		return nil, classifyGenAI(i.Name(), err)
	}

	result := &ImageResult{
		Provider:   i.Name(),
		Model:      model,
		PromptEcho: req.Prompt,
	}

	for _, gen := range resp.GeneratedImages {
		if gen == nil {
			continue
		}
		if gen.Image == nil || len(gen.Image.ImageBytes) == 0 {
			if gen.RAIFilteredReason != "" {
				i.logger.Warn("imagen image filtered", "reason", gen.RAIFilteredReason)
			}
			continue
		}

		mime := gen.Image.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		url, err := i.publish(ctx, gen.Image.ImageBytes, mime)
		if err != nil {
			return nil, Classify(i.Name(), fmt.Errorf("publish image: %w", err))
		}

		prompt := req.Prompt
		if gen.EnhancedPrompt != "" {
			prompt = gen.EnhancedPrompt
		}
		result.Images = append(result.Images, GeneratedImage{
			URL:    url,
			Prompt: prompt,
			Seed:   opts.Seed,
			Style:  opts.StyleType,
			IsSafe: true,
		})
	}
	result.Latency = time.Since(start)

	if len(result.Images) == 0 {
		return result, SafetyBlocked(i.Name(), "all images filtered")
	}
	return result, nil
}

// imagenAspect converts "16x9" style ratios to Imagen's "16:9".
func imagenAspect(ratio string) string {
	return strings.ReplaceAll(ratio, "x", ":")
}
