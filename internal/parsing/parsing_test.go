package parsing_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/scribe/internal/parsing"
)

func TestPrayerPoints(t *testing.T) {
	raw := "Lord, heal the afflicted.\n\nFather, grant wisdom."
	res := parsing.Parse(raw, parsing.MethodPrayerPoints, "prayer")

	want := parsing.PrayerList{
		{OrderNumber: 1, PrayerText: "Lord, heal the afflicted.", Theme: "healing"},
		{OrderNumber: 2, PrayerText: "Father, grant wisdom.", Theme: "leadership"},
	}
	if diff := cmp.Diff(want, res.Data); diff != "" {
		t.Errorf("prayer list (-want +got):\n%s", diff)
	}
	if res.Degraded {
		t.Error("unexpected degraded flag")
	}

	chain := parsing.OutputForChaining(res.Data)
	if chain != "Lord, heal the afflicted.\n\nFather, grant wisdom." {
		t.Errorf("chain = %q", chain)
	}
}

func TestPrayerPointsLimits(t *testing.T) {
	blocks := []string{"short", "Amen."}
	for i := range 7 {
		blocks = append(blocks, strings.Repeat("Pray for those in need ", 1)+string(rune('a'+i)))
	}
	res := parsing.Parse(strings.Join(blocks, "\n \n"), parsing.MethodPrayerPoints, "prayer")

	list := res.Data.(parsing.PrayerList)
	if len(list) != 5 {
		t.Fatalf("len = %d, want 5", len(list))
	}
	for i, p := range list {
		if p.OrderNumber != i+1 {
			t.Errorf("order_number[%d] = %d", i, p.OrderNumber)
		}
	}
}

func TestTheme(t *testing.T) {
	tests := map[string]string{
		"Heal the sick among us":          "healing",
		"Guide our leaders with wisdom":   "leadership",
		"Comfort the grieving families":   "support",
		"Bring justice to the oppressed":  "justice",
		"Renew our hope for tomorrow":     "hope",
		"We gather together this morning": "general",
	}
	for text, want := range tests {
		if got := parsing.Theme(text); got != want {
			t.Errorf("Theme(%q) = %s, want %s", text, got, want)
		}
	}
}

func TestSocialMediaFenced(t *testing.T) {
	raw := "```json\n{\"facebook\":{\"text\":\"Hi\",\"hashtags\":[\"#x\"]}}\n```"
	res := parsing.Parse(raw, parsing.MethodSocialMedia, "social_media")

	want := parsing.SocialMap{{Platform: "facebook", Text: "Hi", Hashtags: []string{"#x"}, OrderNumber: 1}}
	if diff := cmp.Diff(want, res.Data); diff != "" {
		t.Errorf("social (-want +got):\n%s", diff)
	}
	if res.Degraded {
		t.Error("unexpected degraded flag")
	}
}

func TestSocialMediaPlatformOrder(t *testing.T) {
	raw := `{"twitter":"Short take #news","LinkedIn":{"content":"Long form","hashtags":"#a #b"},"facebook":{"text":"Hello"},"myspace":{"text":"ignored"}}`
	res := parsing.Parse(raw, parsing.MethodSocialMedia, "social_media")

	want := parsing.SocialMap{
		{Platform: "facebook", Text: "Hello", Hashtags: []string{}, OrderNumber: 1},
		{Platform: "linkedin", Text: "Long form", Hashtags: []string{"#a", "#b"}, OrderNumber: 2},
		{Platform: "twitter", Text: "Short take #news", Hashtags: []string{}, OrderNumber: 3},
	}
	if diff := cmp.Diff(want, res.Data); diff != "" {
		t.Errorf("social (-want +got):\n%s", diff)
	}
	if got := parsing.OutputForChaining(res.Data); got != "facebook: Hello\n\nlinkedin: Long form\n\ntwitter: Short take #news" {
		t.Errorf("chain = %q", got)
	}
}

func TestSocialMediaArrayForm(t *testing.T) {
	raw := `[{"platform":"Instagram","text":"Pic","hashtags":["#p"]},{"platform":"facebook","text":"Post"}]`
	res := parsing.Parse(raw, parsing.MethodSocialMedia, "social_media")

	want := parsing.SocialMap{
		{Platform: "facebook", Text: "Post", Hashtags: []string{}, OrderNumber: 1},
		{Platform: "instagram", Text: "Pic", Hashtags: []string{"#p"}, OrderNumber: 2},
	}
	if diff := cmp.Diff(want, res.Data); diff != "" {
		t.Errorf("social (-want +got):\n%s", diff)
	}
}

func TestSocialMediaFallback(t *testing.T) {
	raw := strings.Repeat("é", 400)
	res := parsing.Parse(raw, parsing.MethodSocialMedia, "social_media")

	posts := res.Data.(parsing.SocialMap)
	if len(posts) != 1 || posts[0].Platform != "general" || posts[0].OrderNumber != 1 {
		t.Fatalf("posts = %+v", posts)
	}
	if n := len([]rune(posts[0].Text)); n != 300 {
		t.Errorf("text runes = %d, want 300", n)
	}
	if posts[0].Hashtags == nil || len(posts[0].Hashtags) != 0 {
		t.Errorf("hashtags = %#v, want empty slice", posts[0].Hashtags)
	}
	if !res.Degraded {
		t.Error("expected degraded flag")
	}
}

func TestVideoScript(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		want     parsing.VideoScript
		degraded bool
	}{
		{
			name: "json",
			raw:  `{"title":"Hope Rising","script":"Open on a sunrise.","duration":45,"visual_suggestions":["sunrise","crowd"]}`,
			want: parsing.VideoScript{Title: "Hope Rising", Script: "Open on a sunrise.", Duration: 45, VisualSuggestions: []string{"sunrise", "crowd"}},
		},
		{
			name: "default duration",
			raw:  "```json\n{\"title\":\"T\",\"script\":\"S\"}\n```",
			want: parsing.VideoScript{Title: "T", Script: "S", Duration: 60, VisualSuggestions: []string{}},
		},
		{
			name: "string duration",
			raw:  `{"script":"S","duration":"90 seconds"}`,
			want: parsing.VideoScript{Title: "Generated Video Script", Script: "S", Duration: 90, VisualSuggestions: []string{}},
		},
		{
			name:     "plain text",
			raw:      "Scene one: a quiet chapel.",
			want:     parsing.VideoScript{Title: "Generated Video Script", Script: "Scene one: a quiet chapel.", Duration: 60, VisualSuggestions: []string{}},
			degraded: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := parsing.Parse(tt.raw, parsing.MethodVideoScript, "video_script")
			if diff := cmp.Diff(tt.want, res.Data); diff != "" {
				t.Errorf("video (-want +got):\n%s", diff)
			}
			if res.Degraded != tt.degraded {
				t.Errorf("degraded = %v, want %v", res.Degraded, tt.degraded)
			}
		})
	}
}

func TestJSONMethod(t *testing.T) {
	ok := parsing.Parse(`{"text":"chained"}`, parsing.MethodJSON, "faq")
	if got := parsing.OutputForChaining(ok.Data); got != "chained" {
		t.Errorf("chain = %q", got)
	}
	b, _ := json.Marshal(ok.Data)
	if string(b) != `{"text":"chained"}` {
		t.Errorf("marshal = %s", b)
	}

	bad := parsing.Parse("not json", parsing.MethodJSON, "faq")
	b, _ = json.Marshal(bad.Data)
	if string(b) != `{"content":"not json","parsed":false}` {
		t.Errorf("marshal = %s", b)
	}
	if !bad.Degraded {
		t.Error("expected degraded flag")
	}
}

func TestStructuredAndGeneric(t *testing.T) {
	res := parsing.Parse("Intro\n\n\nBody\n\nOutro", parsing.MethodStructured, "newsletter")
	want := parsing.StructuredList{
		{OrderNumber: 1, Content: "Intro", Type: "newsletter"},
		{OrderNumber: 2, Content: "Body", Type: "newsletter"},
		{OrderNumber: 3, Content: "Outro", Type: "newsletter"},
	}
	if diff := cmp.Diff(want, res.Data); diff != "" {
		t.Errorf("structured (-want +got):\n%s", diff)
	}

	gen := parsing.Parse("Blog about TechCrunch AI.", parsing.MethodGeneric, "blog_post")
	if diff := cmp.Diff(parsing.GenericText{{OrderNumber: 1, Content: "Blog about TechCrunch AI.", Type: "blog_post"}}, gen.Data); diff != "" {
		t.Errorf("generic (-want +got):\n%s", diff)
	}
}

func TestParseIsTotal(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"{",
		"```json\n{broken\n```",
		"[1,2,3]",
		"null",
		`{"facebook": 42}`,
		"\x00\xff binary",
		strings.Repeat("\n\n", 50),
	}
	methods := append(parsing.Methods(), parsing.Method("unknown"))

	for _, m := range methods {
		for _, in := range inputs {
			res := parsing.Parse(in, m, "cat")
			if res.Data == nil {
				t.Errorf("Parse(%q, %s) returned nil data", in, m)
				continue
			}
			if _, err := json.Marshal(res.Data); err != nil {
				t.Errorf("Parse(%q, %s) data not serializable: %v", in, m, err)
			}
			_ = parsing.OutputForChaining(res.Data)
		}
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	res := parsing.Parse("Lord, heal the afflicted.", parsing.MethodPrayerPoints, "prayer")
	b, err := json.Marshal(res.Data)
	if err != nil {
		t.Fatal(err)
	}
	back, err := parsing.Decode(parsing.MethodPrayerPoints, b)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(res.Data, back); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}

	failed, _ := json.Marshal(parsing.Parse("x", parsing.MethodJSON, "c").Data)
	doc, err := parsing.Decode(parsing.MethodJSON, failed)
	if err != nil {
		t.Fatal(err)
	}
	if d := doc.(parsing.JSONDocument); d.Parsed || d.Content != "x" {
		t.Errorf("decoded = %+v", d)
	}
}
