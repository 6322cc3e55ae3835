package config

import (
	"fmt"
	"slices"

	"github.com/JaimeStill/scribe/internal/providers"
)

const (
	EnvProvidersDefaultText  = "SCRIBE_DEFAULT_TEXT_PROVIDER"
	EnvProvidersDefaultImage = "SCRIBE_DEFAULT_IMAGE_PROVIDER"
	EnvGeminiAPIKey          = "SCRIBE_GEMINI_API_KEY"
	EnvGeminiBaseURL         = "SCRIBE_GEMINI_BASE_URL"
	EnvOllamaBaseURL         = "SCRIBE_OLLAMA_BASE_URL"
	EnvOllamaModel           = "SCRIBE_OLLAMA_MODEL"
	EnvIdeogramAPIKey        = "SCRIBE_IDEOGRAM_API_KEY"
	EnvIdeogramBaseURL       = "SCRIBE_IDEOGRAM_BASE_URL"
	EnvImagenAPIKey          = "SCRIBE_IMAGEN_API_KEY"
	EnvImagenModel           = "SCRIBE_IMAGEN_MODEL"
)

const (
	ProviderGemini   = "gemini"
	ProviderOllama   = "ollama"
	ProviderIdeogram = "ideogram"
	ProviderImagen   = "imagen"
)

// ProvidersConfig configures the provider adapters and the router
// defaults. An adapter is enabled when its credentials (or, for Ollama,
// a model) are present.
type ProvidersConfig struct {
	DefaultText  string                   `toml:"default_text"`
	DefaultImage string                   `toml:"default_image"`
	Gemini       providers.GeminiConfig   `toml:"gemini"`
	Ollama       providers.OllamaConfig   `toml:"ollama"`
	Ideogram     providers.IdeogramConfig `toml:"ideogram"`
	Imagen       providers.ImagenConfig   `toml:"imagen"`
}

// Enabled reports whether the named adapter has enough configuration to
// be constructed.
func (c *ProvidersConfig) Enabled(name string) bool {
	switch name {
	case ProviderGemini:
		return c.Gemini.APIKey != ""
	case ProviderOllama:
		return c.Ollama.Model != ""
	case ProviderIdeogram:
		return c.Ideogram.APIKey != ""
	case ProviderImagen:
		return c.Imagen.APIKey != ""
	default:
		return false
	}
}

// Finalize applies defaults drawn from the pipeline section, environment
// overrides, and validation.
func (c *ProvidersConfig) Finalize(pipeline *PipelineConfig) error {
	c.loadDefaults(pipeline)
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ProvidersConfig) Merge(overlay *ProvidersConfig) {
	if overlay.DefaultText != "" {
		c.DefaultText = overlay.DefaultText
	}
	if overlay.DefaultImage != "" {
		c.DefaultImage = overlay.DefaultImage
	}

	mergeString(&c.Gemini.APIKey, overlay.Gemini.APIKey)
	mergeString(&c.Gemini.Model, overlay.Gemini.Model)
	mergeString(&c.Gemini.BaseURL, overlay.Gemini.BaseURL)
	mergeString(&c.Ollama.BaseURL, overlay.Ollama.BaseURL)
	mergeString(&c.Ollama.Model, overlay.Ollama.Model)
	if len(overlay.Ollama.Models) > 0 {
		c.Ollama.Models = overlay.Ollama.Models
	}
	mergeString(&c.Ideogram.APIKey, overlay.Ideogram.APIKey)
	mergeString(&c.Ideogram.BaseURL, overlay.Ideogram.BaseURL)
	mergeString(&c.Ideogram.Model, overlay.Ideogram.Model)
	mergeString(&c.Imagen.APIKey, overlay.Imagen.APIKey)
	mergeString(&c.Imagen.Model, overlay.Imagen.Model)
	mergeString(&c.Imagen.BaseURL, overlay.Imagen.BaseURL)
}

func (c *ProvidersConfig) loadDefaults(pipeline *PipelineConfig) {
	if c.DefaultText == "" {
		c.DefaultText = ProviderGemini
	}
	if c.DefaultImage == "" {
		c.DefaultImage = ProviderIdeogram
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = pipeline.DefaultTextModel
	}
	if c.Ideogram.Model == "" {
		c.Ideogram.Model = pipeline.DefaultImageModel
	}
	if c.Imagen.Model == "" {
		c.Imagen.Model = "imagen-3.0-generate-002"
	}
}

func (c *ProvidersConfig) loadEnv() {
	envString(EnvProvidersDefaultText, &c.DefaultText)
	envString(EnvProvidersDefaultImage, &c.DefaultImage)
	envString(EnvGeminiAPIKey, &c.Gemini.APIKey)
	envString(EnvGeminiBaseURL, &c.Gemini.BaseURL)
	envString(EnvOllamaBaseURL, &c.Ollama.BaseURL)
	envString(EnvOllamaModel, &c.Ollama.Model)
	envString(EnvIdeogramAPIKey, &c.Ideogram.APIKey)
	envString(EnvIdeogramBaseURL, &c.Ideogram.BaseURL)
	envString(EnvImagenAPIKey, &c.Imagen.APIKey)
	envString(EnvImagenModel, &c.Imagen.Model)
}

func (c *ProvidersConfig) validate() error {
	if !slices.Contains([]string{ProviderGemini, ProviderOllama}, c.DefaultText) {
		return fmt.Errorf("unknown default_text provider %q", c.DefaultText)
	}
	if !slices.Contains([]string{ProviderIdeogram, ProviderImagen}, c.DefaultImage) {
		return fmt.Errorf("unknown default_image provider %q", c.DefaultImage)
	}
	return nil
}
