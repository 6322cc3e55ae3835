package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/orchestrate/state"

	"github.com/JaimeStill/scribe/internal/account"
	"github.com/JaimeStill/scribe/internal/articles"
	"github.com/JaimeStill/scribe/internal/contents"
	"github.com/JaimeStill/scribe/internal/parsing"
	"github.com/JaimeStill/scribe/internal/providers"
	"github.com/JaimeStill/scribe/internal/responselog"
	"github.com/JaimeStill/scribe/internal/sources"
	"github.com/JaimeStill/scribe/internal/variables"
)

const blogCategory = "blog_post"

// Step error kinds that do not originate from a provider.
const (
	KindCancelled    = "cancelled"
	KindNoProvider   = "no_provider"
	KindStorage      = "storage"
	KindAccessDenied = "access_denied"
	KindInternal     = "internal"
)

// run holds the collaborators and bookkeeping of one Execute call. The
// variable context and result travel through the graph state; vars mirrors
// the context of the step in progress. A run is never shared.
type run struct {
	rt        *Runtime
	accountID uuid.UUID
	blogID    uuid.UUID
	settings  account.Settings
	vars      variables.Context
	blogBody  string
	result    *RunResult
	logger    *slog.Logger

	// callCtx carries values but not cancellation. Provider calls and
	// writes use it so a step in flight completes under its own timeout.
	callCtx context.Context
}

// Execute plans and runs the pipeline for one source article.
//
// The plan is built first; a cycle aborts before any row is written or
// provider called. A generated article is then created and each step runs
// in order as a linear state graph against the accumulated context. A step
// failure records an empty output for its category and the run continues.
// Cancellation of ctx is observed between steps. The returned result is non-nil whenever
// the generated article exists.
func Execute(ctx context.Context, rt *Runtime, accountID uuid.UUID, source sources.Article) (*RunResult, error) {
	if err := account.Check(ctx, accountID); err != nil {
		return nil, err
	}
	if source.AccountID != uuid.Nil && source.AccountID != accountID {
		return nil, fmt.Errorf("%w: source article %s belongs to another account", account.ErrAccessDenied, source.ID)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	plan, err := BuildPlan(ctx, rt, accountID)
	if err != nil {
		return nil, err
	}

	return ExecutePlan(ctx, rt, plan, source)
}

// ExecutePlan runs a previously built plan. See Execute.
func ExecutePlan(ctx context.Context, rt *Runtime, plan *Plan, source sources.Article) (*RunResult, error) {
	accountID := plan.AccountID
	callCtx := context.WithoutCancel(ctx)
	started := time.Now()

	sourceID := source.ID
	article, err := rt.Articles.Create(callCtx, accountID, articles.CreateCommand{
		BasedOnArticleID: &sourceID,
		Title:            source.Title,
		ContentType:      blogCategory,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArticleCreate, err)
	}

	r := &run{
		rt:        rt,
		accountID: accountID,
		blogID:    article.ID,
		callCtx:   callCtx,
		logger:    rt.Logger.With("workflow", "generate", "account_id", accountID, "blog_id", article.ID),
		result: &RunResult{
			BlogID:          article.ID,
			AccountID:       accountID,
			SourceArticleID: source.ID,
			Status:          StatusDone,
			Fallback:        plan.Fallback,
			WordCount:       article.WordCount,
			Steps:           make([]StepResult, 0, len(plan.Steps)),
			StartedAt:       started,
		},
	}
	r.settings = r.loadSettings()

	r.logger.Info("run started", "source_article_id", source.ID, "steps", len(plan.Steps), "fallback", plan.Fallback)

	graph, err := buildGraph(ctx, r, plan, source.ID)
	if err != nil {
		return r.result, fmt.Errorf("build graph: %w", err)
	}

	initial := state.New(nil).
		Set(KeyVars, SeedContext(source, article.ID, accountID, r.settings)).
		Set(KeyResult, r.result)

	if _, err := graph.Execute(callCtx, initial); err != nil {
		return r.result, fmt.Errorf("execute graph: %w", err)
	}

	rt.Metrics.Run(string(r.result.Status))

	r.logger.Info("run completed",
		"status", r.result.Status,
		"items", len(r.result.Items()),
		"failed_steps", len(r.result.Failures()),
		"word_count", r.result.WordCount,
		"duration", r.result.CompletedAt.Sub(started),
	)
	return r.result, nil
}

func (r *run) step(ctx context.Context, s Step) StepResult {
	sr := StepResult{
		Index:     s.Index,
		Category:  s.Category,
		MediaType: s.MediaType,
		Items:     []contents.Item{},
	}

	prompt, missing := variables.Substitute(s.PromptBody, r.vars)
	system, missingSystem := variables.Substitute(s.SystemMessage, r.vars)
	sr.Missing = append(missing, missingSystem...)
	if len(sr.Missing) > 0 {
		r.logger.Debug("unresolved variables", "step", s.Index, "category", s.Category, "missing", sr.Missing)
	}

	h := defaultHandlers.lookup(s.ParsingMethod, s.MediaType)
	gen, err := h.generate(r, s, prompt, system)

	if ctx.Err() != nil {
		r.fail(&sr, s, KindCancelled, fmt.Errorf("%w: step result discarded", ErrCancelled))
		return sr
	}
	if err != nil {
		r.fail(&sr, s, errorKind(err), err)
		return sr
	}

	parsed := h.parse(gen, s)
	sr.Degraded = parsed.Degraded || gen.degraded

	item, err := r.rt.Contents.Create(r.callCtx, r.accountID, contents.CreateCommand{
		GenArticleID: r.blogID,
		Category:     s.Category,
		Data:         parsed.Data,
		Metadata:     r.metadata(s, gen, sr.Degraded),
	})
	if err != nil {
		r.fail(&sr, s, KindStorage, fmt.Errorf("store content item: %w", err))
		return sr
	}

	sr.Items = append(sr.Items, *item)
	sr.Output = h.chain(parsed.Data)
	r.export(s, sr.Output)

	if s.Category == blogCategory {
		r.blogBody = blogBody(parsed.Data)
	}

	if sr.Degraded {
		r.logger.Warn("step output degraded", "step", s.Index, "category", s.Category, "method", s.ParsingMethod)
		r.rt.Metrics.DegradedStep(s.Category)
	}

	r.logger.Info("step complete",
		"step", s.Index,
		"category", s.Category,
		"provider", gen.provider,
		"model", gen.model,
		"tokens", gen.totalTokens,
	)
	return sr
}

// skip records a step never started because the run was cancelled.
func (r *run) skip(s Step) {
	r.result.Steps = append(r.result.Steps, StepResult{
		Index:     s.Index,
		Category:  s.Category,
		MediaType: s.MediaType,
		Items:     []contents.Item{},
		Error:     &StepError{Kind: KindCancelled, Message: ErrCancelled.Error()},
	})
}

func (r *run) fail(sr *StepResult, s Step, kind string, err error) {
	sr.Error = &StepError{Kind: kind, Message: err.Error()}
	r.export(s, "")

	if kind == KindCancelled {
		r.logger.Warn("step discarded", "step", s.Index, "category", s.Category)
		return
	}
	r.logger.Error("step failed", "step", s.Index, "category", s.Category, "kind", kind, "error", err)
}

func (r *run) export(s Step, output string) {
	r.vars[OutputKey(s.Category)] = output
	for _, k := range StepOutputKeys(s.Index) {
		r.vars[k] = output
	}
}

// finalize writes the blog body back to the generated article and marks
// the source processed. Cancelled runs leave the source untouched.
func (r *run) finalize(sourceID uuid.UUID, cancelled bool) {
	if strings.TrimSpace(r.blogBody) != "" {
		a, err := r.rt.Articles.UpdateBody(r.callCtx, r.accountID, r.blogID, r.blogBody)
		if err != nil {
			r.logger.Error("generated article update failed", "error", err)
			r.result.Status = StatusPartialComplete
		} else {
			r.result.WordCount = a.WordCount
		}
	}

	if cancelled {
		return
	}

	if err := r.rt.Sources.MarkProcessed(r.callCtx, r.accountID, sourceID); err != nil {
		r.logger.Warn("source article not marked processed", "source_article_id", sourceID, "error", err)
	}
}

func (r *run) loadSettings() account.Settings {
	if r.rt.Accounts == nil {
		return account.Settings{}
	}
	a, err := r.rt.Accounts.Find(r.callCtx, r.accountID)
	if err != nil {
		r.logger.Warn("account settings unavailable", "error", err)
		return account.Settings{}
	}
	return a.Settings
}

func (r *run) metadata(s Step, g *generation, degraded bool) contents.Metadata {
	templateID, versionID := s.TemplateID, s.VersionID
	return contents.Metadata{
		TemplateID:    &templateID,
		TemplateName:  s.TemplateName,
		VersionID:     &versionID,
		VersionNumber: s.VersionNumber,
		MediaType:     string(s.MediaType),
		Provider:      g.provider,
		Model:         g.model,
		InputTokens:   g.inputTokens,
		OutputTokens:  g.outputTokens,
		TotalTokens:   g.totalTokens,
		LatencyMS:     g.latency.Milliseconds(),
		StopReason:    g.stopReason,
		Degraded:      degraded,
		Archived:      g.archived,
		UIConfig:      s.UIConfig,
	}
}

// callText performs one logged text round-trip.
func (r *run) callText(s Step, prompt, system string, cfg providers.GenerationConfig) (*providers.TextResult, providers.Route, time.Duration, error) {
	start := time.Now()
	res, route, err := r.rt.Text.GenerateText(r.callCtx, providers.TextRequest{
		Prompt:        prompt,
		SystemMessage: system,
		Config:        cfg,
	})
	latency := time.Since(start)

	temperature, maxTokens := cfg.Temperature, cfg.MaxOutputTokens
	entry := r.entry(s, route, string(providers.KindText), prompt, system, latency)
	entry.Temperature = &temperature
	entry.MaxOutputTokens = &maxTokens
	entry.ApplyText(res)
	if err == nil {
		entry.Success = true
	} else {
		entry.Fail(err)
	}
	r.record(entry)

	r.rt.Metrics.ProviderCall(providerLabel(route), string(providers.KindText), latency, err)
	if res != nil {
		r.rt.Metrics.Tokens(providerLabel(route), res.InputTokens, res.OutputTokens)
	}

	if err != nil {
		return nil, route, latency, err
	}
	return res, route, latency, nil
}

// callImage performs one logged image round-trip.
func (r *run) callImage(s Step, hint, prompt string, opts providers.ImageOptions) (*providers.ImageResult, providers.Route, time.Duration, error) {
	start := time.Now()
	res, route, err := r.rt.Images.GenerateImage(r.callCtx, hint, providers.ImageRequest{
		Prompt:  prompt,
		Options: opts,
	})
	latency := time.Since(start)

	entry := r.entry(s, route, string(providers.KindImage), prompt, "", latency)
	if err == nil && res != nil {
		urls := make([]string, 0, len(res.Images))
		for _, img := range res.Images {
			urls = append(urls, img.URL)
		}
		entry.ResponseText = strings.Join(urls, "\n")
		entry.StopReason = string(providers.StopReasonStop)
		entry.IsComplete = true
		entry.ContentFilterApplied = !res.IsSafe()
		entry.Success = true
	} else {
		entry.Fail(err)
	}
	r.record(entry)

	r.rt.Metrics.ProviderCall(providerLabel(route), string(providers.KindImage), latency, err)

	if err != nil {
		return nil, route, latency, err
	}
	return res, route, latency, nil
}

func (r *run) entry(s Step, route providers.Route, kind, prompt, system string, latency time.Duration) responselog.Entry {
	templateID, versionID := s.TemplateID, s.VersionID
	return responselog.Entry{
		TemplateID:       &templateID,
		VersionID:        &versionID,
		Category:         s.Category,
		MediaType:        kind,
		Provider:         route.Provider,
		Model:            route.Model,
		PromptText:       prompt,
		SystemMessage:    system,
		GenerationTimeMS: latency.Milliseconds(),
	}
}

// record appends e to the response log. Write failures are counted and
// never fail the step.
func (r *run) record(e responselog.Entry) {
	blogID := r.blogID
	e.GenArticleID = &blogID

	if _, err := r.rt.Log.Append(r.callCtx, r.accountID, e); err != nil {
		r.result.LogFailures++
		r.rt.Metrics.LogWriteFailure()
		r.logger.Warn("response log write failed", "category", e.Category, "provider", e.Provider, "error", err)
	}
}

func blogBody(data parsing.ContentData) string {
	if g, ok := data.(parsing.GenericText); ok {
		return g.Body()
	}
	return parsing.OutputForChaining(data)
}

func errorKind(err error) string {
	if pe, ok := providers.AsProviderError(err); ok {
		return string(pe.Kind)
	}
	switch {
	case errors.Is(err, providers.ErrNoProvider):
		return KindNoProvider
	case errors.Is(err, account.ErrAccessDenied):
		return KindAccessDenied
	default:
		return KindInternal
	}
}

func providerLabel(route providers.Route) string {
	if route.Provider == "" {
		return "none"
	}
	return route.Provider
}
