package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/JaimeStill/scribe/pkg/formatting"
)

const (
	EnvPipelineMaxConcurrentRuns      = "SCRIBE_MAX_CONCURRENT_RUNS"
	EnvPipelineProviderTimeoutMS      = "SCRIBE_PROVIDER_TIMEOUT_MS"
	EnvPipelineDefaultTextModel       = "SCRIBE_DEFAULT_TEXT_MODEL"
	EnvPipelineDefaultImageModel      = "SCRIBE_DEFAULT_IMAGE_MODEL"
	EnvPipelineDefaultMaxOutputTokens = "SCRIBE_DEFAULT_MAX_OUTPUT_TOKENS"
	EnvPipelineWavePause              = "SCRIBE_WAVE_PAUSE"
	EnvPipelineBatchSchedule          = "SCRIBE_BATCH_SCHEDULE"
	EnvPipelineBatchLimit             = "SCRIBE_BATCH_LIMIT"
	EnvPipelineMaxImageSize           = "SCRIBE_MAX_IMAGE_SIZE"
)

// PipelineConfig controls generation runs and batches.
type PipelineConfig struct {
	MaxConcurrentRuns      int    `toml:"max_concurrent_runs"`
	ProviderTimeoutMS      int    `toml:"provider_timeout_ms"`
	DefaultTextModel       string `toml:"default_text_model"`
	DefaultImageModel      string `toml:"default_image_model"`
	DefaultMaxOutputTokens int    `toml:"default_max_output_tokens"`
	WavePause              string `toml:"wave_pause"`
	BatchSchedule          string `toml:"batch_schedule"`
	BatchLimit             int    `toml:"batch_limit"`
	MaxImageSize           string `toml:"max_image_size"`
}

// ProviderTimeout returns ProviderTimeoutMS as a time.Duration.
func (c *PipelineConfig) ProviderTimeout() time.Duration {
	return time.Duration(c.ProviderTimeoutMS) * time.Millisecond
}

// WavePauseDuration returns WavePause as a time.Duration.
func (c *PipelineConfig) WavePauseDuration() time.Duration {
	d, _ := time.ParseDuration(c.WavePause)
	return d
}

// MaxImageBytes returns the archive download limit in bytes.
func (c *PipelineConfig) MaxImageBytes() int64 {
	n, _ := formatting.ParseBytes(c.MaxImageSize)
	return n
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.MaxConcurrentRuns != 0 {
		c.MaxConcurrentRuns = overlay.MaxConcurrentRuns
	}
	if overlay.ProviderTimeoutMS != 0 {
		c.ProviderTimeoutMS = overlay.ProviderTimeoutMS
	}
	if overlay.DefaultTextModel != "" {
		c.DefaultTextModel = overlay.DefaultTextModel
	}
	if overlay.DefaultImageModel != "" {
		c.DefaultImageModel = overlay.DefaultImageModel
	}
	if overlay.DefaultMaxOutputTokens != 0 {
		c.DefaultMaxOutputTokens = overlay.DefaultMaxOutputTokens
	}
	if overlay.WavePause != "" {
		c.WavePause = overlay.WavePause
	}
	if overlay.BatchSchedule != "" {
		c.BatchSchedule = overlay.BatchSchedule
	}
	if overlay.BatchLimit != 0 {
		c.BatchLimit = overlay.BatchLimit
	}
	if overlay.MaxImageSize != "" {
		c.MaxImageSize = overlay.MaxImageSize
	}
}

func (c *PipelineConfig) loadDefaults() {
	if c.MaxConcurrentRuns == 0 {
		c.MaxConcurrentRuns = 3
	}
	if c.ProviderTimeoutMS == 0 {
		c.ProviderTimeoutMS = 30000
	}
	if c.DefaultTextModel == "" {
		c.DefaultTextModel = "gemini-2.5-flash"
	}
	if c.DefaultImageModel == "" {
		c.DefaultImageModel = "V_3"
	}
	if c.DefaultMaxOutputTokens == 0 {
		c.DefaultMaxOutputTokens = 8192
	}
	if c.WavePause == "" {
		c.WavePause = "2s"
	}
	if c.BatchLimit == 0 {
		c.BatchLimit = 25
	}
	if c.MaxImageSize == "" {
		c.MaxImageSize = "20MB"
	}
}

func (c *PipelineConfig) loadEnv() {
	envInt(EnvPipelineMaxConcurrentRuns, &c.MaxConcurrentRuns)
	envInt(EnvPipelineProviderTimeoutMS, &c.ProviderTimeoutMS)
	envInt(EnvPipelineDefaultMaxOutputTokens, &c.DefaultMaxOutputTokens)
	envInt(EnvPipelineBatchLimit, &c.BatchLimit)
	envString(EnvPipelineDefaultTextModel, &c.DefaultTextModel)
	envString(EnvPipelineDefaultImageModel, &c.DefaultImageModel)
	envString(EnvPipelineWavePause, &c.WavePause)
	envString(EnvPipelineBatchSchedule, &c.BatchSchedule)
	envString(EnvPipelineMaxImageSize, &c.MaxImageSize)
}

func (c *PipelineConfig) validate() error {
	if c.MaxConcurrentRuns < 1 {
		return fmt.Errorf("max_concurrent_runs must be positive: %d", c.MaxConcurrentRuns)
	}
	if c.ProviderTimeoutMS < 1 {
		return fmt.Errorf("provider_timeout_ms must be positive: %d", c.ProviderTimeoutMS)
	}
	if c.DefaultMaxOutputTokens < 1 {
		return fmt.Errorf("default_max_output_tokens must be positive: %d", c.DefaultMaxOutputTokens)
	}
	if c.BatchLimit < 1 {
		return fmt.Errorf("batch_limit must be positive: %d", c.BatchLimit)
	}
	if d, err := time.ParseDuration(c.WavePause); err != nil || d < 0 {
		return fmt.Errorf("invalid wave_pause: %q", c.WavePause)
	}
	if _, err := formatting.ParseBytes(c.MaxImageSize); err != nil {
		return fmt.Errorf("invalid max_image_size: %w", err)
	}
	if c.BatchSchedule != "" {
		if _, err := cron.ParseStandard(c.BatchSchedule); err != nil {
			return fmt.Errorf("invalid batch_schedule: %w", err)
		}
	}
	return nil
}
