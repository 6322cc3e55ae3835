// Package contents stores the structured artifacts produced by each
// generation step.
package contents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/account"
	"github.com/JaimeStill/scribe/internal/parsing"
	"github.com/JaimeStill/scribe/pkg/handlers"
	"github.com/JaimeStill/scribe/pkg/repository"
	"github.com/JaimeStill/scribe/pkg/routes"
)

// StatusGenerated is the status of a freshly stored item.
const StatusGenerated = "generated"

var ErrNotFound = errors.New("generated article not found")

// Metadata records how an item was produced.
type Metadata struct {
	TemplateID    *uuid.UUID     `json:"template_id,omitempty"`
	TemplateName  string         `json:"template,omitempty"`
	VersionID     *uuid.UUID     `json:"version_id,omitempty"`
	VersionNumber int            `json:"version,omitempty"`
	MediaType     string         `json:"media_type"`
	Provider      string         `json:"provider"`
	Model         string         `json:"model"`
	InputTokens   int            `json:"input_tokens"`
	OutputTokens  int            `json:"output_tokens"`
	TotalTokens   int            `json:"total_tokens"`
	LatencyMS     int64          `json:"generation_time_ms"`
	StopReason    string         `json:"stop_reason"`
	Degraded      bool           `json:"degraded"`
	Archived      *bool          `json:"archived,omitempty"`
	UIConfig      map[string]any `json:"ui_config,omitempty"`
}

// Item is one stored artifact.
type Item struct {
	ID            uuid.UUID       `json:"id"`
	AccountID     uuid.UUID       `json:"account_id"`
	GenArticleID  uuid.UUID       `json:"based_on_gen_article_id"`
	Category      string          `json:"category"`
	ParsingMethod parsing.Method  `json:"parsing_method"`
	ContentData   json.RawMessage `json:"content_data"`
	Metadata      Metadata        `json:"metadata"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Data restores the item's content into its tagged variant.
func (i Item) Data() (parsing.ContentData, error) {
	return parsing.Decode(i.ParsingMethod, i.ContentData)
}

// CreateCommand stores the parsed output of one step.
type CreateCommand struct {
	GenArticleID uuid.UUID
	Category     string
	Data         parsing.ContentData
	Metadata     Metadata
}

// System stores and lists generated content items.
type System interface {
	Handler() *Handler
	Create(ctx context.Context, accountID uuid.UUID, cmd CreateCommand) (*Item, error)
	ListByArticle(ctx context.Context, accountID, genArticleID uuid.UUID) ([]Item, error)
}

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a content item repository implementing System.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "contents"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

const columns = `id, account_id, based_on_gen_article_id, category, parsing_method, content_data, metadata, status, created_at`

func scanItem(s repository.Scanner) (Item, error) {
	var i Item
	var data []byte
	var meta repository.JSON[Metadata]
	err := s.Scan(
		&i.ID,
		&i.AccountID,
		&i.GenArticleID,
		&i.Category,
		&i.ParsingMethod,
		&data,
		&meta,
		&i.Status,
		&i.CreatedAt,
	)
	i.ContentData = json.RawMessage(data)
	i.Metadata = meta.V
	return i, err
}

func (r *repo) Create(ctx context.Context, accountID uuid.UUID, cmd CreateCommand) (*Item, error) {
	if err := account.Check(ctx, accountID); err != nil {
		return nil, err
	}
	if cmd.Data == nil {
		return nil, fmt.Errorf("create content item: no content for %s", cmd.Category)
	}

	data, err := json.Marshal(cmd.Data)
	if err != nil {
		return nil, fmt.Errorf("encode content data: %w", err)
	}

	// The article must belong to the same account; the insert selects it
	// under the account predicate so a foreign article inserts nothing.
	q := `
		INSERT INTO generated_content(account_id, based_on_gen_article_id, category, parsing_method, content_data, metadata, status)
		SELECT $1::uuid, g.id, $3::text, $4::text, $5::jsonb, $6::jsonb, $7::text
		FROM generated_articles g
		WHERE g.id = $2 AND g.account_id = $1
		RETURNING ` + columns

	args := []any{
		accountID, cmd.GenArticleID, cmd.Category, cmd.Data.Method(),
		string(data), repository.JSON[Metadata]{V: cmd.Metadata}, StatusGenerated,
	}

	item, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Item, error) {
		item, err := repository.QueryOne(ctx, tx, q, args, scanItem)
		if errors.Is(err, sql.ErrNoRows) {
			return Item{}, repository.ResolveMissing(ctx, tx, "generated_articles", cmd.GenArticleID, ErrNotFound, account.ErrAccessDenied)
		}
		return item, err
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("content item stored",
		"account_id", accountID,
		"blog_id", cmd.GenArticleID,
		"category", cmd.Category,
		"method", item.ParsingMethod,
	)
	return &item, nil
}

func (r *repo) ListByArticle(ctx context.Context, accountID, genArticleID uuid.UUID) ([]Item, error) {
	if err := account.Check(ctx, accountID); err != nil {
		return nil, err
	}

	q := `SELECT ` + columns + `
		FROM generated_content
		WHERE account_id = $1 AND based_on_gen_article_id = $2
		ORDER BY created_at, category`

	items, err := repository.QueryMany(ctx, r.db, q, []any{accountID, genArticleID}, scanItem)
	if err != nil {
		return nil, fmt.Errorf("query content items: %w", err)
	}
	return items, nil
}

// Handler exposes a generated article's content items.
type Handler struct {
	sys    System
	logger *slog.Logger
}

func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{sys: sys, logger: logger.With("handler", "contents")}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/articles",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{id}/items", Handler: h.ListByArticle},
		},
	}
}

func (h *Handler) ListByArticle(w http.ResponseWriter, r *http.Request) {
	ac, err := account.Require(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusForbidden, err)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	items, err := h.sys.ListByArticle(r.Context(), ac.AccountID, id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, account.ErrAccessDenied) {
			status = http.StatusForbidden
		}
		handlers.RespondError(w, h.logger, status, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, items)
}
