package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/scribe/internal/config"
)

const baseConfig = `
shutdown_timeout = "30s"

[server]
port = 8080

[database]
host = "localhost"
name = "scribe"
user = "scribe"

[storage]
backend = "s3"
container_name = "media"

[api.pagination]
default_page_size = 25
max_page_size = 50

[providers.gemini]
api_key = "gemini-key"

[providers.ideogram]
api_key = "ideogram-key"

[pipeline]
batch_schedule = "0 */6 * * *"
`

const overlayConfig = `
[server]
port = 9090

[pipeline]
max_concurrent_runs = 5
wave_pause = "500ms"

[logging]
log_format = "json"
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	p := cfg.Pipeline
	if p.MaxConcurrentRuns != 3 {
		t.Errorf("max_concurrent_runs = %d, want 3", p.MaxConcurrentRuns)
	}
	if p.ProviderTimeout() != 30*time.Second {
		t.Errorf("provider timeout = %s, want 30s", p.ProviderTimeout())
	}
	if p.DefaultTextModel != "gemini-2.5-flash" || p.DefaultImageModel != "V_3" {
		t.Errorf("default models = %s, %s", p.DefaultTextModel, p.DefaultImageModel)
	}
	if p.DefaultMaxOutputTokens != 8192 {
		t.Errorf("default_max_output_tokens = %d, want 8192", p.DefaultMaxOutputTokens)
	}
	if p.WavePauseDuration() != 2*time.Second || p.BatchLimit != 25 {
		t.Errorf("wave pause = %s, batch limit = %d", p.WavePauseDuration(), p.BatchLimit)
	}

	if cfg.Providers.DefaultText != config.ProviderGemini || cfg.Providers.DefaultImage != config.ProviderIdeogram {
		t.Errorf("default providers = %s, %s", cfg.Providers.DefaultText, cfg.Providers.DefaultImage)
	}
	if cfg.Providers.Gemini.Model != "gemini-2.5-flash" || cfg.Providers.Ideogram.Model != "V_3" {
		t.Errorf("adapter models = %s, %s", cfg.Providers.Gemini.Model, cfg.Providers.Ideogram.Model)
	}
	if !cfg.Providers.Enabled(config.ProviderGemini) || cfg.Providers.Enabled(config.ProviderOllama) {
		t.Error("unexpected enabled providers")
	}

	if cfg.API.BasePath != "/api" || cfg.API.MaxBodySizeBytes() != 1024*1024 {
		t.Errorf("api = %s, %d", cfg.API.BasePath, cfg.API.MaxBodySizeBytes())
	}
	if cfg.Logging.SlogLevel() != slog.LevelInfo || cfg.Logging.JSON() {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoadWithOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	writeConfig(t, dir, "config.prod.toml", overlayConfig)
	chdir(t, dir)
	t.Setenv(config.EnvScribeEnv, "prod")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("db host = %s, want localhost", cfg.Database.Host)
	}
	if cfg.Pipeline.MaxConcurrentRuns != 5 || cfg.Pipeline.WavePauseDuration() != 500*time.Millisecond {
		t.Errorf("pipeline = %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.BatchSchedule != "0 */6 * * *" {
		t.Errorf("batch_schedule = %q", cfg.Pipeline.BatchSchedule)
	}
	if !cfg.Logging.JSON() {
		t.Error("log format not overlaid")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	chdir(t, dir)

	t.Setenv(config.EnvPipelineMaxConcurrentRuns, "7")
	t.Setenv(config.EnvPipelineProviderTimeoutMS, "1500")
	t.Setenv(config.EnvLogLevel, "DEBUG")
	t.Setenv(config.EnvProvidersDefaultText, "ollama")
	t.Setenv(config.EnvOllamaModel, "llama3.1:8b")
	t.Setenv(config.EnvAPIOperators, "ops-1, ops-2,")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Pipeline.MaxConcurrentRuns != 7 {
		t.Errorf("max_concurrent_runs = %d, want 7", cfg.Pipeline.MaxConcurrentRuns)
	}
	if cfg.Pipeline.ProviderTimeout() != 1500*time.Millisecond {
		t.Errorf("provider timeout = %s", cfg.Pipeline.ProviderTimeout())
	}
	if cfg.Logging.SlogLevel() != slog.LevelDebug {
		t.Errorf("level = %s", cfg.Logging.SlogLevel())
	}
	if cfg.Providers.DefaultText != config.ProviderOllama || !cfg.Providers.Enabled(config.ProviderOllama) {
		t.Errorf("providers = %+v", cfg.Providers)
	}
	if got := strings.Join(cfg.API.Operators, ","); got != "ops-1,ops-2" {
		t.Errorf("operators = %q", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	writeConfig(t, dir, config.DotEnvFile, "SCRIBE_BATCH_LIMIT=40\n")
	chdir(t, dir)
	t.Setenv(config.EnvPipelineBatchLimit, "")
	os.Unsetenv(config.EnvPipelineBatchLimit)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Pipeline.BatchLimit != 40 {
		t.Errorf("batch_limit = %d, want 40", cfg.Pipeline.BatchLimit)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name  string
		extra string
		want  string
	}{
		{"bad schedule", "[pipeline]\nbatch_schedule = \"every tuesday\"\n", "batch_schedule"},
		{"bad wave pause", "[pipeline]\nwave_pause = \"soon\"\n", "wave_pause"},
		{"bad provider", "[providers]\ndefault_text = \"palm\"\n", "default_text"},
		{"bad log level", "[logging]\nlog_level = \"loud\"\n", "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Parse([]byte(strings.Replace(baseConfig, "[pipeline]\nbatch_schedule = \"0 */6 * * *\"\n", "", 1) + tt.extra))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}

			err = cfg.Finalize()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %s", err, tt.want)
			}
		})
	}
}
