package workflow

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/account"
	"github.com/JaimeStill/scribe/internal/articles"
	"github.com/JaimeStill/scribe/internal/contents"
	"github.com/JaimeStill/scribe/internal/contenttypes"
	"github.com/JaimeStill/scribe/internal/media"
	"github.com/JaimeStill/scribe/internal/metrics"
	"github.com/JaimeStill/scribe/internal/parsing"
	"github.com/JaimeStill/scribe/internal/prompts"
	"github.com/JaimeStill/scribe/internal/providers"
	"github.com/JaimeStill/scribe/internal/responselog"
)

// Articles creates and finalizes generated articles.
type Articles interface {
	Create(ctx context.Context, accountID uuid.UUID, cmd articles.CreateCommand) (*articles.Article, error)
	UpdateBody(ctx context.Context, accountID, id uuid.UUID, body string) (*articles.Article, error)
}

// Contents stores generated content items.
type Contents interface {
	Create(ctx context.Context, accountID uuid.UUID, cmd contents.CreateCommand) (*contents.Item, error)
}

// ResponseLog records provider round-trips.
type ResponseLog interface {
	Append(ctx context.Context, accountID uuid.UUID, e responselog.Entry) (*responselog.Entry, error)
}

// Sources transitions source articles after a run.
type Sources interface {
	MarkProcessed(ctx context.Context, accountID, id uuid.UUID) error
}

// Templates supplies active templates with their current versions.
type Templates interface {
	ListActive(ctx context.Context, accountID uuid.UUID) ([]prompts.Template, error)
}

// Configs supplies the account's active content types.
type Configs interface {
	GetActive(ctx context.Context, accountID uuid.UUID) ([]contenttypes.Config, error)
}

// Accounts supplies brand settings.
type Accounts interface {
	Find(ctx context.Context, id uuid.UUID) (*account.Account, error)
}

// TextGenerator routes text requests to a provider.
type TextGenerator interface {
	GenerateText(ctx context.Context, req providers.TextRequest) (*providers.TextResult, providers.Route, error)
}

// ImageGenerator routes image requests to a provider.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, hint string, req providers.ImageRequest) (*providers.ImageResult, providers.Route, error)
}

// Archiver copies generated images to durable storage.
type Archiver interface {
	Archive(ctx context.Context, t media.Target, images []providers.GeneratedImage) parsing.ImageSet
}

// Runtime bundles the collaborators that plan and execute a run.
// It is constructed by higher-level composition code from infrastructure
// and domain systems. Archiver and Metrics may be nil.
type Runtime struct {
	Articles  Articles
	Contents  Contents
	Log       ResponseLog
	Sources   Sources
	Templates Templates
	Configs   Configs
	Accounts  Accounts
	Text      TextGenerator
	Images    ImageGenerator
	Archiver  Archiver
	Metrics   *metrics.Metrics

	// MaxOutputTokens applies when a version sets no max_output_tokens.
	MaxOutputTokens int
	Logger          *slog.Logger
}
