package parsing

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/JaimeStill/scribe/pkg/formatting"
)

const (
	maxPrayerPoints     = 5
	minPrayerLength     = 10
	socialFallbackRunes = 300
	defaultDuration     = 60
	fallbackVideoTitle  = "Generated Video Script"
)

// Platforms is the fixed emission order for social posts.
var Platforms = []string{"facebook", "instagram", "linkedin", "twitter"}

var blankLineRe = regexp.MustCompile(`\n[ \t]*\n`)

// Parse maps raw text to the content shape for method. Unknown methods are
// parsed as generic. category is recorded as the record type where the
// shape carries one.
func Parse(raw string, method Method, category string) Result {
	switch method {
	case MethodPrayerPoints:
		return parsePrayer(raw)
	case MethodSocialMedia:
		return parseSocial(raw)
	case MethodVideoScript:
		return parseVideo(raw)
	case MethodJSON:
		return parseJSON(raw)
	case MethodStructured:
		return parseStructured(raw, category)
	case MethodGeneric:
		return parseGeneric(raw, category)
	default:
		r := parseGeneric(raw, category)
		r.Degraded = true
		return r
	}
}

// OutputForChaining renders parsed data as the value exported to later
// steps under <category>_output.
func OutputForChaining(data ContentData) string {
	if data == nil {
		return ""
	}
	return data.Chain()
}

func splitBlocks(raw string) []string {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	parts := blankLineRe.Split(normalized, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parsePrayer(raw string) Result {
	list := make(PrayerList, 0, maxPrayerPoints)
	for _, block := range splitBlocks(raw) {
		if len([]rune(block)) < minPrayerLength {
			continue
		}
		list = append(list, PrayerPoint{
			OrderNumber: len(list) + 1,
			PrayerText:  block,
			Theme:       Theme(block),
		})
		if len(list) == maxPrayerPoints {
			break
		}
	}
	return Result{Data: list, Degraded: len(list) == 0}
}

var themeKeywords = []struct {
	theme    string
	keywords []string
}{
	{"healing", []string{"heal", "sick", "illness", "afflict", "recover", "health", "restore"}},
	{"leadership", []string{"wisdom", "wise", "leader", "govern", "guide", "authorit", "decision"}},
	{"support", []string{"support", "comfort", "strength", "provide", "help", "care", "protect"}},
	{"justice", []string{"justice", "just ", "fair", "oppress", "righteous", "injustice"}},
	{"hope", []string{"hope", "future", "renew", "faith", "promise", "light"}},
}

// Theme labels prayer text by the first keyword group it matches.
func Theme(text string) string {
	lower := strings.ToLower(text)
	for _, group := range themeKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.theme
			}
		}
	}
	return "general"
}

func parseSocial(raw string) Result {
	if posts := decodeSocial(raw); len(posts) > 0 {
		return Result{Data: posts}
	}

	return Result{
		Data: SocialMap{{
			Platform:    "general",
			Text:        firstRunes(strings.TrimSpace(raw), socialFallbackRunes),
			Hashtags:    []string{},
			OrderNumber: 1,
		}},
		Degraded: true,
	}
}

func decodeSocial(raw string) SocialMap {
	if obj, err := formatting.Parse[map[string]json.RawMessage](raw); err == nil {
		posts := make(SocialMap, 0, len(Platforms))
		for _, platform := range Platforms {
			msg, ok := lookupFold(obj, platform)
			if !ok {
				continue
			}
			text, tags := decodePost(msg)
			if text == "" {
				continue
			}
			posts = append(posts, SocialPost{
				Platform:    platform,
				Text:        text,
				Hashtags:    tags,
				OrderNumber: len(posts) + 1,
			})
		}
		return posts
	}

	if arr, err := formatting.Parse[[]struct {
		Platform string          `json:"platform"`
		Text     string          `json:"text"`
		Hashtags json.RawMessage `json:"hashtags"`
	}](raw); err == nil {
		byPlatform := make(map[string]SocialPost, len(arr))
		for _, item := range arr {
			p := strings.ToLower(strings.TrimSpace(item.Platform))
			if _, dup := byPlatform[p]; dup || item.Text == "" {
				continue
			}
			byPlatform[p] = SocialPost{Platform: p, Text: item.Text, Hashtags: decodeTags(item.Hashtags)}
		}
		posts := make(SocialMap, 0, len(Platforms))
		for _, platform := range Platforms {
			if post, ok := byPlatform[platform]; ok {
				post.OrderNumber = len(posts) + 1
				posts = append(posts, post)
			}
		}
		return posts
	}

	return nil
}

func lookupFold(obj map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	if v, ok := obj[key]; ok {
		return v, true
	}
	for k, v := range obj {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func decodePost(msg json.RawMessage) (string, []string) {
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return strings.TrimSpace(s), []string{}
	}

	var post struct {
		Text     string          `json:"text"`
		Content  string          `json:"content"`
		Post     string          `json:"post"`
		Hashtags json.RawMessage `json:"hashtags"`
	}
	if err := json.Unmarshal(msg, &post); err != nil {
		return "", nil
	}

	text := post.Text
	if text == "" {
		text = post.Content
	}
	if text == "" {
		text = post.Post
	}
	return strings.TrimSpace(text), decodeTags(post.Hashtags)
}

func decodeTags(msg json.RawMessage) []string {
	tags := []string{}
	if len(msg) == 0 {
		return tags
	}

	var list []string
	if err := json.Unmarshal(msg, &list); err == nil {
		for _, t := range list {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		return tags
	}

	var joined string
	if err := json.Unmarshal(msg, &joined); err == nil {
		return append(tags, strings.Fields(joined)...)
	}
	return tags
}

func parseVideo(raw string) Result {
	doc, err := formatting.Parse[struct {
		Title             string          `json:"title"`
		Script            string          `json:"script"`
		Duration          json.RawMessage `json:"duration"`
		VisualSuggestions json.RawMessage `json:"visual_suggestions"`
	}](raw)

	if err != nil || strings.TrimSpace(doc.Script) == "" {
		return Result{
			Data: VideoScript{
				Title:             fallbackVideoTitle,
				Script:            raw,
				Duration:          defaultDuration,
				VisualSuggestions: []string{},
			},
			Degraded: true,
		}
	}

	v := VideoScript{
		Title:             doc.Title,
		Script:            doc.Script,
		Duration:          decodeDuration(doc.Duration),
		VisualSuggestions: decodeTags(doc.VisualSuggestions),
	}
	if v.Title == "" {
		v.Title = fallbackVideoTitle
	}
	return Result{Data: v}
}

// decodeDuration accepts a number or a string with a leading integer such
// as "45 seconds". Anything else yields the default.
func decodeDuration(msg json.RawMessage) int {
	var n float64
	if err := json.Unmarshal(msg, &n); err == nil && n > 0 {
		return int(n)
	}
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		digits := strings.TrimLeftFunc(s, unicode.IsSpace)
		end := strings.IndexFunc(digits, func(r rune) bool { return !unicode.IsDigit(r) })
		if end == -1 {
			end = len(digits)
		}
		if v, err := strconv.Atoi(digits[:end]); err == nil && v > 0 {
			return v
		}
	}
	return defaultDuration
}

func parseJSON(raw string) Result {
	v, err := formatting.Parse[any](raw)
	if err != nil || v == nil {
		return Result{
			Data:     JSONDocument{Content: raw},
			Degraded: true,
		}
	}
	return Result{Data: JSONDocument{Value: v, Parsed: true}}
}

func parseStructured(raw, category string) Result {
	blocks := splitBlocks(raw)
	if len(blocks) == 0 {
		r := parseGeneric(raw, category)
		r.Degraded = true
		return r
	}

	list := make(StructuredList, 0, len(blocks))
	for i, block := range blocks {
		list = append(list, Record{OrderNumber: i + 1, Content: block, Type: category})
	}
	return Result{Data: list}
}

func parseGeneric(raw, category string) Result {
	return Result{
		Data:     GenericText{{OrderNumber: 1, Content: raw, Type: category}},
		Degraded: strings.TrimSpace(raw) == "",
	}
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
