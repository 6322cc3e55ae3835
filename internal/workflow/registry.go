package workflow

import (
	"time"

	"github.com/JaimeStill/scribe/internal/contenttypes"
	"github.com/JaimeStill/scribe/internal/parsing"
	"github.com/JaimeStill/scribe/internal/providers"
)

// generation is the provider outcome of one step before parsing.
type generation struct {
	text         string
	data         parsing.ContentData
	degraded     bool
	provider     string
	model        string
	inputTokens  int
	outputTokens int
	totalTokens  int
	latency      time.Duration
	stopReason   string
	archived     *bool
}

type (
	generateFunc func(r *run, s Step, prompt, system string) (*generation, error)
	parseFunc    func(g *generation, s Step) parsing.Result
	chainFunc    func(data parsing.ContentData) string
)

// handler is the behavior bound to one (parsing method, media type) pair.
type handler struct {
	generate generateFunc
	parse    parseFunc
	chain    chainFunc
}

type stepKey struct {
	method parsing.Method
	media  contenttypes.MediaType
}

type registry struct {
	handlers map[stepKey]handler
}

// defaultRegistry binds every text parsing method to text, video and audio
// media, and the image method to image media.
func defaultRegistry() *registry {
	r := &registry{handlers: make(map[stepKey]handler)}

	text := handler{generate: generateText, parse: parseText, chain: parsing.OutputForChaining}
	for _, m := range parsing.Methods() {
		for _, media := range []contenttypes.MediaType{contenttypes.MediaText, contenttypes.MediaVideo, contenttypes.MediaAudio} {
			r.register(m, media, text)
		}
	}

	r.register(parsing.MethodImage, contenttypes.MediaImage, handler{
		generate: generateImage,
		parse:    parseImage,
		chain:    parsing.OutputForChaining,
	})

	return r
}

func (r *registry) register(method parsing.Method, media contenttypes.MediaType, h handler) {
	r.handlers[stepKey{method: method, media: media}] = h
}

// lookup falls back by media type: image media always uses the image
// handler, anything else is generated as text and parsed by its method.
func (r *registry) lookup(method parsing.Method, media contenttypes.MediaType) handler {
	if h, ok := r.handlers[stepKey{method: method, media: media}]; ok {
		return h
	}
	if media == contenttypes.MediaImage {
		return r.handlers[stepKey{method: parsing.MethodImage, media: contenttypes.MediaImage}]
	}
	return r.handlers[stepKey{method: parsing.MethodGeneric, media: contenttypes.MediaText}]
}

var defaultHandlers = defaultRegistry()

func generateText(r *run, s Step, prompt, system string) (*generation, error) {
	cfg := providers.ParseGenerationConfig(s.Parameters, r.rt.MaxOutputTokens)

	res, route, latency, err := r.callText(s, prompt, system, cfg)
	if err != nil {
		return nil, err
	}

	return &generation{
		text:         res.Text,
		provider:     route.Provider,
		model:        route.Model,
		inputTokens:  res.InputTokens,
		outputTokens: res.OutputTokens,
		totalTokens:  res.TotalTokens,
		latency:      latency,
		stopReason:   string(res.StopReason),
	}, nil
}

func parseText(g *generation, s Step) parsing.Result {
	return parsing.Parse(g.text, s.ParsingMethod, s.Category)
}

func parseImage(g *generation, _ Step) parsing.Result {
	return parsing.Result{Data: g.data, Degraded: g.degraded}
}
