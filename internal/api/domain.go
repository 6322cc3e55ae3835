package api

import (
	"github.com/JaimeStill/scribe/internal/account"
	"github.com/JaimeStill/scribe/internal/articles"
	"github.com/JaimeStill/scribe/internal/batch"
	"github.com/JaimeStill/scribe/internal/contents"
	"github.com/JaimeStill/scribe/internal/contenttypes"
	"github.com/JaimeStill/scribe/internal/generation"
	"github.com/JaimeStill/scribe/internal/prompts"
	"github.com/JaimeStill/scribe/internal/responselog"
	"github.com/JaimeStill/scribe/internal/sources"
	"github.com/JaimeStill/scribe/internal/workflow"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Accounts     account.System
	Prompts      prompts.System
	ContentTypes contenttypes.System
	Sources      sources.System
	Articles     articles.System
	Contents     contents.System
	ResponseLog  responselog.System
	Generation   generation.System
	Batch        *batch.Runner
	Workflow     *workflow.Runtime
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	accountSystem := account.New(db, runtime.Logger)
	promptsSystem := prompts.New(db, runtime.Logger, runtime.Pagination)
	contentTypesSystem := contenttypes.New(db, runtime.Logger, runtime.Pagination)
	sourcesSystem := sources.New(db, runtime.Logger)
	articlesSystem := articles.New(db, runtime.Logger, runtime.Pagination)
	contentsSystem := contents.New(db, runtime.Logger)
	logSystem := responselog.New(db, runtime.Logger, runtime.Pagination)

	wf := &workflow.Runtime{
		Articles:        articlesSystem,
		Contents:        contentsSystem,
		Log:             logSystem,
		Sources:         sourcesSystem,
		Templates:       promptsSystem,
		Configs:         contentTypesSystem,
		Accounts:        accountSystem,
		Text:            runtime.Router,
		Images:          runtime.Router,
		Archiver:        runtime.Archiver,
		Metrics:         runtime.Metrics,
		MaxOutputTokens: runtime.Pipeline.DefaultMaxOutputTokens,
		Logger:          runtime.Logger,
	}

	generationSystem := generation.New(wf, sourcesSystem, runtime.Pipeline.MaxConcurrentRuns, runtime.Logger)

	runner := batch.New(generationSystem, sourcesSystem, accountSystem, batch.Config{
		MaxConcurrent: runtime.Pipeline.MaxConcurrentRuns,
		WavePause:     runtime.Pipeline.WavePauseDuration(),
		Limit:         runtime.Pipeline.BatchLimit,
		Schedule:      runtime.Pipeline.BatchSchedule,
	}, runtime.Metrics, runtime.Logger)

	return &Domain{
		Accounts:     accountSystem,
		Prompts:      promptsSystem,
		ContentTypes: contentTypesSystem,
		Sources:      sourcesSystem,
		Articles:     articlesSystem,
		Contents:     contentsSystem,
		ResponseLog:  logSystem,
		Generation:   generationSystem,
		Batch:        runner,
		Workflow:     wf,
	}
}
