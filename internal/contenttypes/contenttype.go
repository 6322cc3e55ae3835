// Package contenttypes is the per-account catalog of content types: what
// each category produces, how its provider output is parsed, and the order
// in which the workflow runs it.
package contenttypes

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/parsing"
)

// MediaType is the kind of artifact a content type produces.
type MediaType string

const (
	MediaText  MediaType = "text"
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
	MediaAudio MediaType = "audio"
)

// ParseMediaType validates s as a MediaType.
func ParseMediaType(s string) (MediaType, error) {
	switch m := MediaType(strings.ToLower(strings.TrimSpace(s))); m {
	case MediaText, MediaImage, MediaVideo, MediaAudio:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown media type %q", ErrInvalidConfig, s)
	}
}

// Config declares one content type for an account.
type Config struct {
	ID             uuid.UUID      `json:"id"`
	AccountID      uuid.UUID      `json:"account_id"`
	Category       string         `json:"category"`
	MediaType      MediaType      `json:"media_type"`
	ParsingMethod  parsing.Method `json:"parsing_method"`
	StorageSchema  map[string]any `json:"storage_schema"`
	TemplateRef    string         `json:"template_ref"`
	UIConfig       map[string]any `json:"ui_config"`
	IsActive       bool           `json:"is_active"`
	ExecutionOrder int            `json:"execution_order"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// SaveCommand creates or replaces the configuration for a category.
type SaveCommand struct {
	Category       string         `json:"category"`
	MediaType      string         `json:"media_type"`
	ParsingMethod  string         `json:"parsing_method"`
	StorageSchema  map[string]any `json:"storage_schema"`
	TemplateRef    string         `json:"template_ref"`
	UIConfig       map[string]any `json:"ui_config"`
	IsActive       *bool          `json:"is_active"`
	ExecutionOrder int            `json:"execution_order"`
}

// Normalize validates cmd and returns the configuration it describes.
// TemplateRef defaults to the category and IsActive defaults to true.
func (cmd SaveCommand) Normalize() (Config, error) {
	category := strings.TrimSpace(cmd.Category)
	if category == "" {
		return Config{}, fmt.Errorf("%w: category is required", ErrInvalidConfig)
	}

	media, err := ParseMediaType(cmd.MediaType)
	if err != nil {
		return Config{}, err
	}

	method := parsing.MethodGeneric
	if cmd.ParsingMethod != "" {
		if method, err = parsing.ParseMethod(cmd.ParsingMethod); err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	if method == parsing.MethodImage && media != MediaImage {
		return Config{}, fmt.Errorf("%w: parsing method image requires media type image", ErrInvalidConfig)
	}

	if cmd.ExecutionOrder < 0 {
		return Config{}, fmt.Errorf("%w: execution_order must be >= 0", ErrInvalidConfig)
	}

	ref := strings.TrimSpace(cmd.TemplateRef)
	if ref == "" {
		ref = category
	}

	active := true
	if cmd.IsActive != nil {
		active = *cmd.IsActive
	}

	return Config{
		Category:       category,
		MediaType:      media,
		ParsingMethod:  method,
		StorageSchema:  orEmpty(cmd.StorageSchema),
		TemplateRef:    ref,
		UIConfig:       orEmpty(cmd.UIConfig),
		IsActive:       active,
		ExecutionOrder: cmd.ExecutionOrder,
	}, nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
