package account

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Account is a tenant and its brand configuration.
type Account struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Settings  Settings  `json:"settings"`
	CreatedAt time.Time `json:"created_at"`
}

// Settings holds the brand voice and image overrides applied to every run
// for the account.
type Settings struct {
	BrandVoice        string   `json:"brand_voice,omitempty"`
	ImagePromptPrefix string   `json:"image_prompt_prefix,omitempty"`
	ImagePromptSuffix string   `json:"image_prompt_suffix,omitempty"`
	BrandColors       []string `json:"brand_colors,omitempty"`
	DefaultImageStyle string   `json:"default_image_style,omitempty"`
}

// DecorateImagePrompt wraps a descriptive prompt with the account's prefix
// and suffix, joined by single spaces.
func (s Settings) DecorateImagePrompt(prompt string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{s.ImagePromptPrefix, prompt, s.ImagePromptSuffix} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
