package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultIdeogramURL = "https://api.ideogram.ai"

// IdeogramConfig configures the Ideogram image adapter.
type IdeogramConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

// Ideogram generates images with the Ideogram HTTP API. V_3 requests use
// the multipart v3 endpoint; earlier model versions use the legacy JSON
// endpoint.
type Ideogram struct {
	http    *http.Client
	baseURL string
	apiKey  string
	model   string
	logger  *slog.Logger
}

// NewIdeogram creates an Ideogram adapter.
func NewIdeogram(cfg IdeogramConfig, httpClient *http.Client, logger *slog.Logger) *Ideogram {
	base := cfg.BaseURL
	if base == "" {
		base = defaultIdeogramURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	model := cfg.Model
	if model == "" {
		model = "V_3"
	}
	return &Ideogram{
		http:    httpClient,
		baseURL: strings.TrimSuffix(base, "/"),
		apiKey:  cfg.APIKey,
		model:   model,
		logger:  logger.With("provider", "ideogram"),
	}
}

func (i *Ideogram) Name() string { return "ideogram" }

func (i *Ideogram) DefaultModel() string { return i.model }

func (i *Ideogram) Supports(model string) bool {
	return strings.HasPrefix(model, "V_")
}

type ideogramResponse struct {
	Data []struct {
		URL         string `json:"url"`
		Prompt      string `json:"prompt"`
		Resolution  string `json:"resolution"`
		IsImageSafe bool   `json:"is_image_safe"`
		Seed        *int64 `json:"seed"`
		StyleType   string `json:"style_type"`
	} `json:"data"`
}

func (i *Ideogram) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	opts := req.Options.Normalize()
	model := opts.ModelVersion
	if model == "" {
		model = req.Model
	}
	if model == "" || !i.Supports(model) {
		model = i.model
	}

	var (
		httpReq *http.Request
		err     error
	)
	if model == "V_3" {
		httpReq, err = i.v3Request(ctx, req.Prompt, opts)
	} else {
		httpReq, err = i.legacyRequest(ctx, req.Prompt, model, opts)
	}
	if err != nil {
		return nil, &ProviderError{Provider: i.Name(), Kind: ErrorInvalidRequest, Err: err}
	}
	httpReq.Header.Set("Api-Key", i.apiKey)
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := i.http.Do(httpReq)
	if err != nil {
		return nil, Classify(i.Name(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, Classify(i.Name(), err)
	}
	if resp.StatusCode >= 300 {
		return nil, FromStatus(i.Name(), resp.StatusCode, fmt.Errorf("%s", strings.TrimSpace(string(body))))
	}

	var decoded ideogramResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &ProviderError{Provider: i.Name(), Kind: ErrorUnknown, Err: fmt.Errorf("decode response: %w", err)}
	}

	result := &ImageResult{
		Provider:   i.Name(),
		Model:      model,
		PromptEcho: req.Prompt,
		Latency:    time.Since(start),
	}
	for _, d := range decoded.Data {
		if d.URL == "" {
			continue
		}
		prompt := d.Prompt
		if prompt == "" {
			prompt = req.Prompt
		}
		style := d.StyleType
		if style == "" {
			style = opts.StyleType
		}
		result.Images = append(result.Images, GeneratedImage{
			URL:        d.URL,
			Prompt:     prompt,
			Resolution: d.Resolution,
			Seed:       d.Seed,
			Style:      style,
			IsSafe:     d.IsImageSafe,
		})
	}

	if len(result.Images) == 0 {
		return result, fmt.Errorf("%s: %w", i.Name(), ErrEmptyResponse)
	}
	if !result.IsSafe() {
		i.logger.Warn("ideogram returned unsafe image", "model", model)
	}
	return result, nil
}

func (i *Ideogram) v3Request(ctx context.Context, prompt string, opts ImageOptions) (*http.Request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"prompt", prompt},
		{"aspect_ratio", opts.AspectRatio},
		{"resolution", opts.Resolution},
		{"style_type", opts.StyleType},
		{"rendering_speed", opts.RenderingSpeed},
		{"magic_prompt", opts.MagicPrompt},
		{"negative_prompt", opts.NegativePrompt},
		{"num_images", strconv.Itoa(opts.NumImages)},
	}
	if opts.Seed != nil {
		fields = append(fields, [2]string{"seed", strconv.FormatInt(*opts.Seed, 10)})
	}
	if palette := colorPalette(opts.ColorPalette); palette != "" {
		fields = append(fields, [2]string{"color_palette", palette})
	}

	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.baseURL+"/v1/ideogram-v3/generate", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req, nil
}

func (i *Ideogram) legacyRequest(ctx context.Context, prompt, model string, opts ImageOptions) (*http.Request, error) {
	imageReq := map[string]any{
		"prompt":     prompt,
		"model":      model,
		"num_images": opts.NumImages,
	}
	if opts.AspectRatio != "" {
		imageReq["aspect_ratio"] = "ASPECT_" + strings.ReplaceAll(opts.AspectRatio, "x", "_")
	}
	if opts.Resolution != "" {
		imageReq["resolution"] = "RESOLUTION_" + strings.ReplaceAll(opts.Resolution, "x", "_")
	}
	if opts.StyleType != "" {
		imageReq["style_type"] = opts.StyleType
	}
	if opts.MagicPrompt != "" {
		imageReq["magic_prompt_option"] = opts.MagicPrompt
	}
	if opts.NegativePrompt != "" {
		imageReq["negative_prompt"] = opts.NegativePrompt
	}
	if opts.Seed != nil {
		imageReq["seed"] = *opts.Seed
	}

	body, err := json.Marshal(map[string]any{"image_request": imageReq})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// colorPalette encodes hex colors as Ideogram's palette members object.
func colorPalette(colors []string) string {
	if len(colors) == 0 {
		return ""
	}
	type member struct {
		ColorHex string `json:"color_hex"`
	}
	members := make([]member, 0, len(colors))
	for _, c := range colors {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if !strings.HasPrefix(c, "#") {
			c = "#" + c
		}
		members = append(members, member{ColorHex: strings.ToUpper(c)})
	}
	if len(members) == 0 {
		return ""
	}
	b, _ := json.Marshal(map[string]any{"members": members})
	return string(b)
}
