// Package parsing maps raw provider text to the structured content shape
// declared by a content type's parsing method. Every parser is total: it
// never fails and degrades to a fallback shape on malformed input.
package parsing

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Method selects how raw text is mapped to content data.
type Method string

const (
	MethodGeneric      Method = "generic"
	MethodSocialMedia  Method = "social_media"
	MethodVideoScript  Method = "video_script"
	MethodPrayerPoints Method = "prayer_points"
	MethodJSON         Method = "json"
	MethodStructured   Method = "structured"
	// MethodImage is used by image steps; its content is produced by the
	// image provider rather than parsed from text.
	MethodImage Method = "image"
)

// Methods lists the text parsing methods accepted by content configurations.
func Methods() []Method {
	return []Method{
		MethodGeneric,
		MethodSocialMedia,
		MethodVideoScript,
		MethodPrayerPoints,
		MethodJSON,
		MethodStructured,
	}
}

// ParseMethod validates s as a Method.
func ParseMethod(s string) (Method, error) {
	m := Method(s)
	if m == MethodImage {
		return m, nil
	}
	for _, known := range Methods() {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown parsing method %q", s)
}

// ContentData is the tagged variant stored as a content item's payload.
// Implementations marshal to the exact JSON shape persisted in content_data.
type ContentData interface {
	Method() Method
	// Chain renders the data as the string exported to later steps.
	Chain() string
}

// Result is the outcome of parsing one provider response.
type Result struct {
	Data     ContentData
	Degraded bool
}

// PrayerPoint is one entry of a prayer list.
type PrayerPoint struct {
	OrderNumber int    `json:"order_number"`
	PrayerText  string `json:"prayer_text"`
	Theme       string `json:"theme"`
}

// PrayerList is the payload for prayer_points.
type PrayerList []PrayerPoint

func (PrayerList) Method() Method { return MethodPrayerPoints }

func (p PrayerList) Chain() string {
	parts := make([]string, 0, len(p))
	for _, pt := range p {
		parts = append(parts, pt.PrayerText)
	}
	return joinBlocks(parts)
}

// SocialPost is one platform entry of a social media payload.
type SocialPost struct {
	Platform    string   `json:"platform"`
	Text        string   `json:"text"`
	Hashtags    []string `json:"hashtags"`
	OrderNumber int      `json:"order_number"`
}

// SocialMap is the payload for social_media.
type SocialMap []SocialPost

func (SocialMap) Method() Method { return MethodSocialMedia }

func (s SocialMap) Chain() string {
	parts := make([]string, 0, len(s))
	for _, post := range s {
		parts = append(parts, post.Platform+": "+post.Text)
	}
	return joinBlocks(parts)
}

// VideoScript is the payload for video_script.
type VideoScript struct {
	Title             string   `json:"title"`
	Script            string   `json:"script"`
	Duration          int      `json:"duration"`
	VisualSuggestions []string `json:"visual_suggestions"`
}

func (VideoScript) Method() Method { return MethodVideoScript }

func (v VideoScript) Chain() string { return v.Script }

// Record is one section of a structured or generic payload.
type Record struct {
	OrderNumber int    `json:"order_number"`
	Content     string `json:"content"`
	Type        string `json:"type"`
}

// StructuredList is the payload for structured.
type StructuredList []Record

func (StructuredList) Method() Method { return MethodStructured }

func (s StructuredList) Chain() string { return chainRecords(s) }

// GenericText is the payload for generic: always a single record.
type GenericText []Record

func (GenericText) Method() Method { return MethodGeneric }

func (g GenericText) Chain() string { return chainRecords(g) }

// Body returns the content of the first record.
func (g GenericText) Body() string {
	if len(g) == 0 {
		return ""
	}
	return g[0].Content
}

// JSONDocument is the payload for json. A successful parse stores the
// decoded value verbatim; a failed parse stores {content, parsed: false}.
type JSONDocument struct {
	Value   any
	Parsed  bool
	Content string
}

func (JSONDocument) Method() Method { return MethodJSON }

func (d JSONDocument) Chain() string {
	if !d.Parsed {
		return d.Content
	}
	if items, ok := d.Value.([]any); ok {
		parts := make([]string, 0, len(items))
		for _, item := range items {
			parts = append(parts, chainValue(item))
		}
		return joinBlocks(parts)
	}
	return chainValue(d.Value)
}

func (d JSONDocument) MarshalJSON() ([]byte, error) {
	if d.Parsed {
		return json.Marshal(d.Value)
	}
	return json.Marshal(map[string]any{"content": d.Content, "parsed": false})
}

// Image is one generated image stored by an image step.
type Image struct {
	OrderNumber    int    `json:"order_number"`
	URL            string `json:"url"`
	ProviderURL    string `json:"provider_url,omitempty"`
	Prompt         string `json:"prompt"`
	ProviderPrompt string `json:"provider_prompt,omitempty"`
	Resolution     string `json:"resolution,omitempty"`
	Seed           *int64 `json:"seed,omitempty"`
	Style          string `json:"style,omitempty"`
	IsSafe         bool   `json:"is_safe"`
	Archived       bool   `json:"archived"`
}

// ImageSet is the payload for image steps.
type ImageSet []Image

func (ImageSet) Method() Method { return MethodImage }

func (s ImageSet) Chain() string {
	parts := make([]string, 0, len(s))
	for _, img := range s {
		parts = append(parts, img.URL)
	}
	return joinBlocks(parts)
}

// chainValue picks the first non-empty of text, content, script or
// prayer_text from a decoded JSON object, falling back to its encoding.
func chainValue(v any) string {
	if obj, ok := v.(map[string]any); ok {
		for _, key := range []string{"text", "content", "script", "prayer_text"} {
			if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func chainRecords(rs []Record) string {
	parts := make([]string, 0, len(rs))
	for _, r := range rs {
		parts = append(parts, r.Content)
	}
	return joinBlocks(parts)
}

func joinBlocks(parts []string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
