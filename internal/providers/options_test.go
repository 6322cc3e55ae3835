package providers_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/scribe/internal/providers"
)

func ptr[T any](v T) *T { return &v }

func TestParseGenerationConfig(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
		want   providers.GenerationConfig
	}{
		{
			name:   "defaults",
			params: nil,
			want:   providers.GenerationConfig{Temperature: 0.7, MaxOutputTokens: 8192},
		},
		{
			name: "recognized keys",
			params: map[string]any{
				"temperature":       0.2,
				"max_output_tokens": float64(2000),
				"top_p":             0.9,
				"top_k":             40,
				"stop_sequences":    []any{"END"},
				"model_hint":        " gemini-2.5-pro ",
			},
			want: providers.GenerationConfig{
				Temperature:     0.2,
				MaxOutputTokens: 2000,
				TopP:            ptr(0.9),
				TopK:            ptr(40),
				StopSequences:   []string{"END"},
				ModelHint:       "gemini-2.5-pro",
			},
		},
		{
			name:   "clamped and unknown dropped",
			params: map[string]any{"temperature": 1.8, "frequency_penalty": 2, "max_output_tokens": -5},
			want:   providers.GenerationConfig{Temperature: 1, MaxOutputTokens: 8192},
		},
		{
			name:   "json number",
			params: map[string]any{"temperature": json.Number("0.5")},
			want:   providers.GenerationConfig{Temperature: 0.5, MaxOutputTokens: 8192},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := providers.ParseGenerationConfig(tt.params, 8192)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseImageOptions(t *testing.T) {
	got := providers.ParseImageOptions(map[string]any{
		"aspect_ratio":  "16x9",
		"resolution":    "1024x1024",
		"magic_prompt":  true,
		"seed":          float64(42),
		"color_palette": []any{"#112233", "aabbcc"},
		"unknown":       "dropped",
	})

	want := providers.ImageOptions{
		Resolution:   "1024x1024",
		MagicPrompt:  "ON",
		NumImages:    1,
		Seed:         ptr(int64(42)),
		ColorPalette: []string{"#112233", "aabbcc"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	if n := providers.ParseImageOptions(map[string]any{"num_images": 3}).NumImages; n != 3 {
		t.Errorf("num_images = %d", n)
	}
}
