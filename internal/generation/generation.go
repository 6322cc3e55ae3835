// Package generation exposes the content pipeline as a domain system:
// running the workflow for one source article and previewing the plan
// an account would execute.
package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/JaimeStill/scribe/internal/account"
	"github.com/JaimeStill/scribe/internal/articles"
	"github.com/JaimeStill/scribe/internal/sources"
	"github.com/JaimeStill/scribe/internal/workflow"
	"github.com/JaimeStill/scribe/pkg/handlers"
)

var ErrSourceNotAnalyzed = errors.New("source article is not awaiting generation")

// System runs the generation pipeline.
type System interface {
	Handler() *Handler

	// Run executes the pipeline against an analyzed source article.
	// At most the configured number of runs execute concurrently per
	// account; a caller waiting for a slot returns when ctx is done.
	Run(ctx context.Context, accountID, sourceArticleID uuid.UUID) (*workflow.RunResult, error)

	// RunArticle executes the pipeline against an already loaded
	// source article.
	RunArticle(ctx context.Context, accountID uuid.UUID, source sources.Article) (*workflow.RunResult, error)

	// Plan returns the steps a run for accountID would execute.
	Plan(ctx context.Context, accountID uuid.UUID) (*workflow.Plan, error)
}

// MapHTTPStatus maps generation errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, account.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, sources.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSourceNotAnalyzed):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrWorkflowCycle):
		return http.StatusUnprocessableEntity
	case errors.Is(err, workflow.ErrCancelled):
		return http.StatusServiceUnavailable
	case errors.Is(err, handlers.ErrInvalidBody):
		return http.StatusBadRequest
	default:
		return articles.MapHTTPStatus(err)
	}
}

type system struct {
	rt      *workflow.Runtime
	sources sources.System
	logger  *slog.Logger

	limit int64
	mu    sync.Mutex
	slots map[uuid.UUID]*semaphore.Weighted
}

// New creates a generation System. maxConcurrent bounds the runs one
// account executes at once; values below one are treated as one.
func New(rt *workflow.Runtime, src sources.System, maxConcurrent int, logger *slog.Logger) System {
	return &system{
		rt:      rt,
		sources: src,
		logger:  logger.With("system", "generation"),
		limit:   int64(max(maxConcurrent, 1)),
		slots:   make(map[uuid.UUID]*semaphore.Weighted),
	}
}

// accountSlots returns the run semaphore of accountID, creating it on
// first use.
func (s *system) accountSlots(accountID uuid.UUID) *semaphore.Weighted {
	s.mu.Lock()
	defer s.mu.Unlock()

	sem, ok := s.slots[accountID]
	if !ok {
		sem = semaphore.NewWeighted(s.limit)
		s.slots[accountID] = sem
	}
	return sem
}

func (s *system) Handler() *Handler {
	return NewHandler(s, s.logger)
}

func (s *system) Run(ctx context.Context, accountID, sourceArticleID uuid.UUID) (*workflow.RunResult, error) {
	source, err := s.sources.Find(ctx, accountID, sourceArticleID)
	if err != nil {
		return nil, err
	}
	if source.Status != sources.StatusAnalyzed {
		return nil, fmt.Errorf("%w: %s is %s", ErrSourceNotAnalyzed, source.ID, source.Status)
	}
	return s.RunArticle(ctx, accountID, *source)
}

func (s *system) RunArticle(ctx context.Context, accountID uuid.UUID, source sources.Article) (*workflow.RunResult, error) {
	slots := s.accountSlots(accountID)
	if err := slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: waiting for a run slot: %w", workflow.ErrCancelled, err)
	}
	defer slots.Release(1)

	result, err := workflow.Execute(ctx, s.rt, accountID, source)
	if err != nil {
		s.logger.Error("run failed", "account_id", accountID, "source_article_id", source.ID, "error", err)
		return nil, err
	}
	return result, nil
}

func (s *system) Plan(ctx context.Context, accountID uuid.UUID) (*workflow.Plan, error) {
	if err := account.Check(ctx, accountID); err != nil {
		return nil, err
	}
	return workflow.BuildPlan(ctx, s.rt, accountID)
}
