package formatting_test

import (
	"errors"
	"testing"

	"github.com/JaimeStill/scribe/pkg/formatting"
)

type imagePrompt struct {
	Prompt string `json:"prompt"`
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{"raw", `{"prompt":"a lighthouse"}`, "a lighthouse", false},
		{"fenced json", "```json\n{\"prompt\":\"dawn\"}\n```", "dawn", false},
		{"bare fence", "```\n{\"prompt\":\"rain\"}\n```", "rain", false},
		{"surrounding prose", `Here you go: {"prompt":"fields"} enjoy`, "fields", false},
		{"not json", "just words", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatting.Parse[imagePrompt](tt.content)
			if tt.wantErr {
				if !errors.Is(err, formatting.ErrParseFailed) {
					t.Fatalf("err = %v, want ErrParseFailed", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Prompt != tt.want {
				t.Errorf("got %q, want %q", got.Prompt, tt.want)
			}
		})
	}
}

func TestStripFences(t *testing.T) {
	if got := formatting.StripFences("```markdown\nhello\n```"); got != "hello" {
		t.Errorf("got %q", got)
	}
	if got := formatting.StripFences("  plain  "); got != "plain" {
		t.Errorf("got %q", got)
	}
}

func TestParseBytes(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"512", 512},
		{"1KB", 1024},
		{"2 mb", 2 * 1024 * 1024},
		{"1.5KB", 1536},
		{"20MB", 20 * 1024 * 1024},
	}
	for _, tt := range tests {
		got, err := formatting.ParseBytes(tt.in)
		if err != nil {
			t.Fatalf("%s: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.in, got, tt.want)
		}
	}

	if _, err := formatting.ParseBytes("12QB"); err == nil {
		t.Error("expected unknown unit error")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1536, "1.5 KB"},
		{20 * 1024 * 1024, "20.0 MB"},
	}
	for _, tt := range tests {
		if got := formatting.FormatBytes(tt.n, 1); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
