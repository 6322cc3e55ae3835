// Package prompts implements the prompt template store. Templates are
// owned by one account and keyed by category; each carries an immutable
// version history in which exactly one version is current.
package prompts

import (
	"time"

	"github.com/google/uuid"
)

// Template is a named, account-scoped prompt definition. CurrentVersion is
// populated by lookups that resolve the template for execution.
type Template struct {
	ID             uuid.UUID `json:"id"`
	AccountID      uuid.UUID `json:"account_id"`
	Name           string    `json:"name"`
	Category       string    `json:"category"`
	Description    *string   `json:"description"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	CurrentVersion *Version  `json:"current_version,omitempty"`
}

// Version is an immutable snapshot of a template body and its generation
// parameters.
type Version struct {
	ID            uuid.UUID      `json:"id"`
	TemplateID    uuid.UUID      `json:"template_id"`
	VersionNumber int            `json:"version_number"`
	PromptBody    string         `json:"prompt_body"`
	SystemMessage string         `json:"system_message"`
	Parameters    map[string]any `json:"parameters"`
	CreatedBy     string         `json:"created_by"`
	CreatedAt     time.Time      `json:"created_at"`
	Notes         *string        `json:"notes"`
	IsCurrent     bool           `json:"is_current"`
}

// CreateCommand creates a template together with its first version.
type CreateCommand struct {
	Name          string         `json:"name"`
	Category      string         `json:"category"`
	Description   *string        `json:"description"`
	Active        bool           `json:"active"`
	PromptBody    string         `json:"prompt_body"`
	SystemMessage string         `json:"system_message"`
	Parameters    map[string]any `json:"parameters"`
	Notes         *string        `json:"notes"`
}

// VersionCommand carries the content of a new version.
type VersionCommand struct {
	PromptBody    string         `json:"prompt_body"`
	SystemMessage string         `json:"system_message"`
	Parameters    map[string]any `json:"parameters"`
	Notes         *string        `json:"notes"`
}
