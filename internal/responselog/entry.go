// Package responselog is the append-only audit record of every provider
// round-trip made during generation.
package responselog

import (
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/providers"
	"github.com/JaimeStill/scribe/pkg/query"
	"github.com/JaimeStill/scribe/pkg/repository"
)

// Entry is one provider round-trip.
type Entry struct {
	ID                   uuid.UUID                `json:"id"`
	AccountID            uuid.UUID                `json:"account_id"`
	GenArticleID         *uuid.UUID               `json:"gen_article_id"`
	TemplateID           *uuid.UUID               `json:"template_id"`
	VersionID            *uuid.UUID               `json:"version_id"`
	Category             string                   `json:"category"`
	MediaType            string                   `json:"media_type"`
	Provider             string                   `json:"provider"`
	Model                string                   `json:"model"`
	PromptText           string                   `json:"prompt_text"`
	SystemMessage        string                   `json:"system_message"`
	ResponseText         string                   `json:"response_text"`
	InputTokens          int                      `json:"input_tokens"`
	OutputTokens         int                      `json:"output_tokens"`
	TotalTokens          int                      `json:"total_tokens"`
	GenerationTimeMS     int64                    `json:"generation_time_ms"`
	Temperature          *float64                 `json:"temperature"`
	MaxOutputTokens      *int                     `json:"max_output_tokens"`
	StopReason           string                   `json:"stop_reason"`
	IsComplete           bool                     `json:"is_complete"`
	IsTruncated          bool                     `json:"is_truncated"`
	SafetyRatings        []providers.SafetyRating `json:"safety_ratings"`
	ContentFilterApplied bool                     `json:"content_filter_applied"`
	Success              bool                     `json:"success"`
	ErrorMessage         *string                  `json:"error_message"`
	CreatedAt            time.Time                `json:"created_at"`
}

// ApplyText copies a text result's usage and completion state onto e.
func (e *Entry) ApplyText(res *providers.TextResult) {
	if res == nil {
		return
	}
	e.ResponseText = res.Text
	e.InputTokens = res.InputTokens
	e.OutputTokens = res.OutputTokens
	e.TotalTokens = res.TotalTokens
	e.StopReason = string(res.StopReason)
	e.IsComplete = res.IsComplete
	e.IsTruncated = res.IsTruncated
	e.SafetyRatings = res.SafetyRatings
	e.ContentFilterApplied = res.ContentFiltered
}

// Fail marks e unsuccessful with err's message.
func (e *Entry) Fail(err error) {
	e.Success = false
	if err == nil {
		return
	}
	msg := err.Error()
	e.ErrorMessage = &msg
	if e.StopReason == "" {
		e.StopReason = string(providers.StopReasonError)
	}
	if pe, ok := providers.AsProviderError(err); ok && pe.Kind == providers.ErrorSafety {
		e.ContentFilterApplied = true
		e.StopReason = string(providers.StopReasonSafety)
	}
}

var projection = query.
	NewProjectionMap("public", "ai_response_log", "l").
	Project("id", "ID").
	Project("account_id", "AccountID").
	Project("gen_article_id", "GenArticleID").
	Project("template_id", "TemplateID").
	Project("version_id", "VersionID").
	Project("category", "Category").
	Project("media_type", "MediaType").
	Project("provider", "Provider").
	Project("model", "Model").
	Project("prompt_text", "PromptText").
	Project("system_message", "SystemMessage").
	Project("response_text", "ResponseText").
	Project("input_tokens", "InputTokens").
	Project("output_tokens", "OutputTokens").
	Project("total_tokens", "TotalTokens").
	Project("generation_time_ms", "GenerationTimeMS").
	Project("temperature", "Temperature").
	Project("max_output_tokens", "MaxOutputTokens").
	Project("stop_reason", "StopReason").
	Project("is_complete", "IsComplete").
	Project("is_truncated", "IsTruncated").
	Project("safety_ratings", "SafetyRatings").
	Project("content_filter_applied", "ContentFilterApplied").
	Project("success", "Success").
	Project("error_message", "ErrorMessage").
	Project("created_at", "CreatedAt")

const returning = `RETURNING id, account_id, gen_article_id, template_id, version_id, category, media_type,
	provider, model, prompt_text, system_message, response_text, input_tokens, output_tokens, total_tokens,
	generation_time_ms, temperature, max_output_tokens, stop_reason, is_complete, is_truncated,
	safety_ratings, content_filter_applied, success, error_message, created_at`

var defaultSort = query.SortField{Field: "CreatedAt", Descending: true}

// Filters narrows log listings.
type Filters struct {
	Category *string `json:"category,omitempty"`
	Provider *string `json:"provider,omitempty"`
	Success  *bool   `json:"success,omitempty"`
}

func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Category", f.Category).
		WhereEquals("Provider", f.Provider).
		WhereEquals("Success", f.Success)
}

func FiltersFromQuery(values url.Values) Filters {
	var f Filters
	if c := values.Get("category"); c != "" {
		f.Category = &c
	}
	if p := values.Get("provider"); p != "" {
		f.Provider = &p
	}
	if s := values.Get("success"); s != "" {
		if v, err := strconv.ParseBool(s); err == nil {
			f.Success = &v
		}
	}
	return f
}

func scanEntry(s repository.Scanner) (Entry, error) {
	var e Entry
	var ratings repository.JSON[[]providers.SafetyRating]
	err := s.Scan(
		&e.ID, &e.AccountID, &e.GenArticleID, &e.TemplateID, &e.VersionID,
		&e.Category, &e.MediaType, &e.Provider, &e.Model,
		&e.PromptText, &e.SystemMessage, &e.ResponseText,
		&e.InputTokens, &e.OutputTokens, &e.TotalTokens, &e.GenerationTimeMS,
		&e.Temperature, &e.MaxOutputTokens, &e.StopReason, &e.IsComplete, &e.IsTruncated,
		&ratings, &e.ContentFilterApplied, &e.Success, &e.ErrorMessage, &e.CreatedAt,
	)
	e.SafetyRatings = ratings.V
	return e, err
}
