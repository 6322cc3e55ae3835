// Package workflow plans and executes the content generation pipeline for
// one source article: an ordered chain of template steps whose outputs feed
// later steps as named variables.
package workflow

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/contents"
	"github.com/JaimeStill/scribe/internal/contenttypes"
	"github.com/JaimeStill/scribe/internal/parsing"
)

// Sentinel errors for workflow operations.
var (
	ErrWorkflowCycle = errors.New("workflow cycle")
	ErrArticleCreate = errors.New("failed to create generated article")
	ErrCancelled     = errors.New("run cancelled")
)

// RunStatus is the terminal state of a run.
type RunStatus string

const (
	StatusDone            RunStatus = "done"
	StatusPartialComplete RunStatus = "partial_complete"
)

// Step is one template execution in a plan.
type Step struct {
	Index          int                    `json:"index"`
	Category       string                 `json:"category"`
	TemplateID     uuid.UUID              `json:"template_id"`
	TemplateName   string                 `json:"template_name"`
	VersionID      uuid.UUID              `json:"version_id"`
	VersionNumber  int                    `json:"version_number"`
	SystemMessage  string                 `json:"system_message"`
	PromptBody     string                 `json:"prompt_body"`
	Parameters     map[string]any         `json:"parameters"`
	MediaType      contenttypes.MediaType `json:"media_type"`
	ParsingMethod  parsing.Method         `json:"parsing_method"`
	StorageSchema  map[string]any         `json:"storage_schema"`
	UIConfig       map[string]any         `json:"ui_config,omitempty"`
	ExecutionOrder int                    `json:"execution_order"`
}

// Plan is the ordered step list for one account.
type Plan struct {
	AccountID uuid.UUID `json:"account_id"`
	// Fallback reports that the built-in content types were used because
	// the account's own produced no steps.
	Fallback bool   `json:"fallback"`
	Steps    []Step `json:"steps"`
}

// StepError describes why a step produced no item.
type StepError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// StepResult is the outcome of one step.
type StepResult struct {
	Index     int                    `json:"index"`
	Category  string                 `json:"category"`
	MediaType contenttypes.MediaType `json:"media_type"`
	Items     []contents.Item        `json:"items"`
	Output    string                 `json:"output"`
	Degraded  bool                   `json:"degraded"`
	Missing   []string               `json:"missing_variables,omitempty"`
	Error     *StepError             `json:"error,omitempty"`
}

// Failed reports whether the step errored.
func (r StepResult) Failed() bool {
	return r.Error != nil
}

// RunResult is returned by Execute.
type RunResult struct {
	BlogID          uuid.UUID    `json:"blog_id"`
	AccountID       uuid.UUID    `json:"account_id"`
	SourceArticleID uuid.UUID    `json:"source_article_id"`
	Status          RunStatus    `json:"status"`
	Fallback        bool         `json:"fallback"`
	WordCount       int          `json:"word_count"`
	Steps           []StepResult `json:"steps"`
	LogFailures     int          `json:"log_failures"`
	StartedAt       time.Time    `json:"started_at"`
	CompletedAt     time.Time    `json:"completed_at"`
}

// Items returns every stored content item across steps.
func (r *RunResult) Items() []contents.Item {
	items := make([]contents.Item, 0, len(r.Steps))
	for _, s := range r.Steps {
		items = append(items, s.Items...)
	}
	return items
}

// Failures returns the steps that errored.
func (r *RunResult) Failures() []StepResult {
	var failed []StepResult
	for _, s := range r.Steps {
		if s.Failed() {
			failed = append(failed, s)
		}
	}
	return failed
}
