package workflow_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/account"
	"github.com/JaimeStill/scribe/internal/articles"
	"github.com/JaimeStill/scribe/internal/contents"
	"github.com/JaimeStill/scribe/internal/contenttypes"
	"github.com/JaimeStill/scribe/internal/parsing"
	"github.com/JaimeStill/scribe/internal/prompts"
	"github.com/JaimeStill/scribe/internal/providers"
	"github.com/JaimeStill/scribe/internal/responselog"
	"github.com/JaimeStill/scribe/internal/sources"
	"github.com/JaimeStill/scribe/internal/workflow"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeArticles struct {
	mu      sync.Mutex
	created []articles.CreateCommand
	bodies  map[uuid.UUID]string
	err     error
}

func (f *fakeArticles) Create(_ context.Context, accountID uuid.UUID, cmd articles.CreateCommand) (*articles.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, cmd)
	return &articles.Article{
		ID:               uuid.New(),
		AccountID:        accountID,
		BasedOnArticleID: cmd.BasedOnArticleID,
		Title:            cmd.Title,
		BodyDraft:        articles.Processing,
		ContentType:      cmd.ContentType,
		WordCount:        articles.WordCount(articles.Processing),
		Status:           articles.StatusDraft,
	}, nil
}

func (f *fakeArticles) UpdateBody(_ context.Context, accountID, id uuid.UUID, body string) (*articles.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bodies == nil {
		f.bodies = map[uuid.UUID]string{}
	}
	f.bodies[id] = body
	return &articles.Article{ID: id, AccountID: accountID, BodyDraft: body, WordCount: articles.WordCount(body)}, nil
}

type fakeContents struct {
	mu    sync.Mutex
	items []contents.Item
}

func (f *fakeContents) Create(_ context.Context, accountID uuid.UUID, cmd contents.CreateCommand) (*contents.Item, error) {
	raw, err := json.Marshal(cmd.Data)
	if err != nil {
		return nil, err
	}
	item := contents.Item{
		ID:            uuid.New(),
		AccountID:     accountID,
		GenArticleID:  cmd.GenArticleID,
		Category:      cmd.Category,
		ParsingMethod: cmd.Data.Method(),
		ContentData:   raw,
		Metadata:      cmd.Metadata,
		Status:        contents.StatusGenerated,
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, item)
	return &item, nil
}

type fakeLog struct {
	mu      sync.Mutex
	entries []responselog.Entry
	err     error
}

func (f *fakeLog) Append(_ context.Context, accountID uuid.UUID, e responselog.Entry) (*responselog.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	e.AccountID = accountID
	f.entries = append(f.entries, e)
	return &e, nil
}

type fakeSources struct {
	mu        sync.Mutex
	processed []uuid.UUID
}

func (f *fakeSources) MarkProcessed(_ context.Context, _, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed = append(f.processed, id)
	return nil
}

type fakeTemplates []prompts.Template

func (f fakeTemplates) ListActive(context.Context, uuid.UUID) ([]prompts.Template, error) {
	return f, nil
}

type fakeConfigs []contenttypes.Config

func (f fakeConfigs) GetActive(context.Context, uuid.UUID) ([]contenttypes.Config, error) {
	return f, nil
}

type fakeAccounts struct {
	settings account.Settings
}

func (f fakeAccounts) Find(_ context.Context, id uuid.UUID) (*account.Account, error) {
	return &account.Account{ID: id, Name: "test", Settings: f.settings}, nil
}

// fakeText answers each request with respond. Calls are recorded in order.
type fakeText struct {
	mu      sync.Mutex
	calls   []providers.TextRequest
	respond func(n int, req providers.TextRequest) (*providers.TextResult, error)
}

func (f *fakeText) GenerateText(_ context.Context, req providers.TextRequest) (*providers.TextResult, providers.Route, error) {
	f.mu.Lock()
	n := len(f.calls)
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	route := providers.Route{Provider: "gemini", Model: "gemini-2.5-flash"}
	res, err := f.respond(n, req)
	return res, route, err
}

func (f *fakeText) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeImages struct {
	mu    sync.Mutex
	calls []providers.ImageRequest
	hints []string
}

func (f *fakeImages) GenerateImage(_ context.Context, hint string, req providers.ImageRequest) (*providers.ImageResult, providers.Route, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	f.hints = append(f.hints, hint)
	return &providers.ImageResult{
		Provider:   "ideogram",
		Model:      "V_3",
		PromptEcho: req.Prompt,
		Images:     []providers.GeneratedImage{{URL: "https://img.test/1.png", Prompt: req.Prompt, IsSafe: true}},
	}, providers.Route{Provider: "ideogram", Model: "V_3"}, nil
}

func reply(text string) func(int, providers.TextRequest) (*providers.TextResult, error) {
	return func(int, providers.TextRequest) (*providers.TextResult, error) {
		return stopped(text), nil
	}
}

func stopped(text string) *providers.TextResult {
	n := len(strings.Fields(text))
	return &providers.TextResult{
		Provider:     "gemini",
		Model:        "gemini-2.5-flash",
		Text:         text,
		InputTokens:  10,
		OutputTokens: n,
		TotalTokens:  10 + n,
		StopReason:   providers.StopReasonStop,
		IsComplete:   true,
	}
}

func timeout() error {
	return &providers.ProviderError{
		Provider:  "gemini",
		Kind:      providers.ErrorTimeout,
		Retryable: true,
		Err:       errors.New("no response within 30s: context deadline exceeded"),
	}
}

func template(name, category, body string) prompts.Template {
	id := uuid.New()
	return prompts.Template{
		ID:       id,
		Name:     name,
		Category: category,
		IsActive: true,
		CurrentVersion: &prompts.Version{
			ID:            uuid.New(),
			TemplateID:    id,
			VersionNumber: 1,
			PromptBody:    body,
			Parameters:    map[string]any{},
			IsCurrent:     true,
		},
	}
}

func config(category string, media contenttypes.MediaType, method parsing.Method, order int) contenttypes.Config {
	return contenttypes.Config{
		Category:       category,
		MediaType:      media,
		ParsingMethod:  method,
		StorageSchema:  map[string]any{},
		TemplateRef:    category,
		UIConfig:       map[string]any{},
		IsActive:       true,
		ExecutionOrder: order,
	}
}

type harness struct {
	accountID uuid.UUID
	articles  *fakeArticles
	contents  *fakeContents
	log       *fakeLog
	sources   *fakeSources
	text      *fakeText
	images    *fakeImages
	rt        *workflow.Runtime
}

func newHarness(templates fakeTemplates, configs fakeConfigs, text *fakeText) *harness {
	h := &harness{
		accountID: uuid.New(),
		articles:  &fakeArticles{},
		contents:  &fakeContents{},
		log:       &fakeLog{},
		sources:   &fakeSources{},
		text:      text,
		images:    &fakeImages{},
	}
	h.rt = &workflow.Runtime{
		Articles:        h.articles,
		Contents:        h.contents,
		Log:             h.log,
		Sources:         h.sources,
		Templates:       templates,
		Configs:         configs,
		Accounts:        fakeAccounts{},
		Text:            h.text,
		Images:          h.images,
		MaxOutputTokens: 8192,
		Logger:          discard,
	}
	return h
}

func (h *harness) ctx() context.Context {
	return account.WithAccount(context.Background(), account.Context{AccountID: h.accountID, UserID: "tester"})
}

func (h *harness) source() sources.Article {
	return sources.Article{
		ID:         uuid.New(),
		AccountID:  h.accountID,
		SourceName: "TechCrunch",
		Title:      "Revolutionary AI Technology Breakthrough",
		URL:        "https://techcrunch.example/ai",
		FullText:   "AI has reached new heights in reasoning and perception.",
		Status:     sources.StatusAnalyzed,
	}
}
