package providers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DefaultTemperature applies when a version sets no temperature.
const DefaultTemperature = 0.7

// GenerationConfig holds the recognized text generation options.
type GenerationConfig struct {
	Temperature     float64  `json:"temperature"`
	MaxOutputTokens int      `json:"max_output_tokens"`
	TopP            *float64 `json:"top_p,omitempty"`
	TopK            *int     `json:"top_k,omitempty"`
	StopSequences   []string `json:"stop_sequences,omitempty"`
	ModelHint       string   `json:"model_hint,omitempty"`
}

// ParseGenerationConfig reads recognized keys from a version's parameters
// map and drops everything else. Temperature is clamped to [0, 1].
// defaultMaxTokens applies when max_output_tokens is absent or invalid.
func ParseGenerationConfig(params map[string]any, defaultMaxTokens int) GenerationConfig {
	cfg := GenerationConfig{
		Temperature:     DefaultTemperature,
		MaxOutputTokens: defaultMaxTokens,
	}

	if v, ok := number(params["temperature"]); ok {
		cfg.Temperature = min(max(v, 0), 1)
	}
	if v, ok := number(params["max_output_tokens"]); ok && v >= 1 {
		cfg.MaxOutputTokens = int(v)
	}
	if v, ok := number(params["top_p"]); ok {
		p := min(max(v, 0), 1)
		cfg.TopP = &p
	}
	if v, ok := number(params["top_k"]); ok && v >= 1 {
		k := int(v)
		cfg.TopK = &k
	}
	cfg.StopSequences = stringList(params["stop_sequences"])
	if s, ok := params["model_hint"].(string); ok {
		cfg.ModelHint = strings.TrimSpace(s)
	}

	return cfg
}

// ImageOptions holds the recognized image generation options.
type ImageOptions struct {
	AspectRatio    string   `json:"aspect_ratio,omitempty"`
	Resolution     string   `json:"resolution,omitempty"`
	StyleType      string   `json:"style_type,omitempty"`
	RenderingSpeed string   `json:"rendering_speed,omitempty"`
	MagicPrompt    string   `json:"magic_prompt,omitempty"`
	NumImages      int      `json:"num_images"`
	ModelVersion   string   `json:"model_version,omitempty"`
	NegativePrompt string   `json:"negative_prompt,omitempty"`
	Seed           *int64   `json:"seed,omitempty"`
	ColorPalette   []string `json:"color_palette,omitempty"`
}

// ParseImageOptions reads recognized keys from params and drops everything
// else. When both aspect_ratio and resolution are given, resolution wins.
func ParseImageOptions(params map[string]any) ImageOptions {
	opts := ImageOptions{NumImages: 1}

	str := func(key string) string {
		s, _ := params[key].(string)
		return strings.TrimSpace(s)
	}

	opts.AspectRatio = str("aspect_ratio")
	opts.Resolution = str("resolution")
	opts.StyleType = str("style_type")
	opts.RenderingSpeed = str("rendering_speed")
	opts.ModelVersion = str("model_version")
	opts.NegativePrompt = str("negative_prompt")
	opts.ColorPalette = stringList(params["color_palette"])

	switch v := params["magic_prompt"].(type) {
	case string:
		opts.MagicPrompt = strings.ToUpper(strings.TrimSpace(v))
	case bool:
		opts.MagicPrompt = "OFF"
		if v {
			opts.MagicPrompt = "ON"
		}
	}

	if n, ok := number(params["num_images"]); ok && n >= 1 {
		opts.NumImages = int(n)
	}
	if n, ok := number(params["seed"]); ok && n >= 0 {
		seed := int64(n)
		opts.Seed = &seed
	}

	return opts.Normalize()
}

// Normalize enforces option exclusivity and defaults.
func (o ImageOptions) Normalize() ImageOptions {
	if o.Resolution != "" {
		o.AspectRatio = ""
	}
	if o.NumImages < 1 {
		o.NumImages = 1
	}
	return o
}

// number accepts the numeric shapes JSON decoding and TOML produce.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			} else if item != nil {
				out = append(out, fmt.Sprint(item))
			}
		}
		return out
	case string:
		if list == "" {
			return nil
		}
		return []string{list}
	default:
		return nil
	}
}
