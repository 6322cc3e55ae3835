package workflow

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/JaimeStill/scribe/internal/media"
	"github.com/JaimeStill/scribe/internal/parsing"
	"github.com/JaimeStill/scribe/internal/providers"
	"github.com/JaimeStill/scribe/pkg/formatting"
)

// ParamImageHint names the version parameter that selects the image
// provider or model. The text stage uses model_hint.
const ParamImageHint = "image_model_hint"

// GenericImageDescription is used when no prompt can be extracted from the
// description stage.
const GenericImageDescription = "A thoughtful, hopeful editorial illustration"

type imagePrompt struct {
	Prompt      string `json:"prompt"`
	ImagePrompt string `json:"image_prompt"`
}

// generateImage runs the two-stage image step: a text call produces a
// descriptive prompt, which is decorated with the account's brand
// settings and sent to the image provider. Returned images are archived.
func generateImage(r *run, s Step, prompt, system string) (*generation, error) {
	cfg := providers.ParseGenerationConfig(s.Parameters, r.rt.MaxOutputTokens)

	desc, _, textLatency, err := r.callText(s, prompt, system, cfg)
	if err != nil {
		return nil, fmt.Errorf("image description: %w", err)
	}

	description, degraded := ImageDescription(desc.Text, r.vars[KeyArticleTitle])
	if degraded {
		r.logger.Warn("image prompt not extracted, using generic description", "step", s.Index, "category", s.Category)
	}

	opts := providers.ParseImageOptions(s.Parameters)
	if len(opts.ColorPalette) == 0 && len(r.settings.BrandColors) > 0 {
		opts.ColorPalette = slices.Clone(r.settings.BrandColors)
	}
	opts.StyleType = cmp.Or(opts.StyleType, r.settings.DefaultImageStyle)

	hint, _ := s.Parameters[ParamImageHint].(string)
	decorated := r.settings.DecorateImagePrompt(description)

	img, route, imageLatency, err := r.callImage(s, hint, decorated, opts)
	if err != nil {
		return nil, err
	}

	gen := &generation{
		degraded:     degraded,
		provider:     route.Provider,
		model:        route.Model,
		inputTokens:  desc.InputTokens,
		outputTokens: desc.OutputTokens,
		totalTokens:  desc.TotalTokens,
		latency:      textLatency + imageLatency,
		stopReason:   string(providers.StopReasonStop),
	}

	if r.rt.Archiver == nil {
		gen.data = unarchived(img.Images)
		return gen, nil
	}

	set := r.rt.Archiver.Archive(r.callCtx, media.Target{
		AccountID: r.accountID,
		BlogID:    r.blogID,
		Category:  s.Category,
	}, img.Images)

	archived := len(set) > 0
	for _, i := range set {
		archived = archived && i.Archived
	}
	gen.data = set
	gen.archived = &archived
	return gen, nil
}

// ImageDescription extracts the image prompt from description-stage
// output: a JSON object with a prompt field, or plain text. When neither
// yields a prompt the generic description is returned with degraded set.
func ImageDescription(text, title string) (description string, degraded bool) {
	if p, err := formatting.Parse[imagePrompt](text); err == nil {
		if d := strings.TrimSpace(cmp.Or(p.Prompt, p.ImagePrompt)); d != "" {
			return d, false
		}
		return genericDescription(title), true
	}

	if plain := strings.TrimSpace(formatting.StripFences(text)); plain != "" {
		return plain, false
	}
	return genericDescription(title), true
}

func genericDescription(title string) string {
	if title = strings.TrimSpace(title); title == "" {
		return GenericImageDescription
	}
	return fmt.Sprintf("%s for the story %q", GenericImageDescription, title)
}

func unarchived(images []providers.GeneratedImage) parsing.ImageSet {
	set := make(parsing.ImageSet, 0, len(images))
	for i, img := range images {
		set = append(set, parsing.Image{
			OrderNumber: i + 1,
			URL:         img.URL,
			ProviderURL: img.URL,
			Prompt:      img.Prompt,
			Resolution:  img.Resolution,
			Seed:        img.Seed,
			Style:       img.Style,
			IsSafe:      img.IsSafe,
		})
	}
	return set
}
