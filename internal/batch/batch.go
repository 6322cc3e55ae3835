// Package batch runs the generation pipeline over every analyzed source
// article of an account in bounded waves, optionally on a cron schedule.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/scribe/internal/account"
	"github.com/JaimeStill/scribe/internal/metrics"
	"github.com/JaimeStill/scribe/internal/sources"
	"github.com/JaimeStill/scribe/internal/workflow"
	"github.com/JaimeStill/scribe/pkg/lifecycle"
)

const batchUser = "batch"

// Outcomes recorded per source article.
const (
	OutcomeDone    = "done"
	OutcomePartial = "partial_complete"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Generator runs the pipeline for one loaded source article.
type Generator interface {
	RunArticle(ctx context.Context, accountID uuid.UUID, source sources.Article) (*workflow.RunResult, error)
}

// Pending lists source articles awaiting generation.
type Pending interface {
	ListAnalyzed(ctx context.Context, accountID uuid.UUID, limit int) ([]sources.Article, error)
}

// Accounts lists accounts that own analyzed source articles.
type Accounts interface {
	ListWithPendingSources(ctx context.Context) ([]uuid.UUID, error)
}

// Config controls wave size, pacing, and scheduling.
type Config struct {
	MaxConcurrent int
	WavePause     time.Duration
	Limit         int
	// Schedule is a standard five-field cron expression. Empty disables
	// scheduled runs.
	Schedule string
}

// Outcome is the result of one source article within a batch.
type Outcome struct {
	SourceArticleID uuid.UUID `json:"source_article_id"`
	BlogID          uuid.UUID `json:"blog_id,omitempty"`
	Outcome         string    `json:"outcome"`
	Error           string    `json:"error,omitempty"`
}

// Summary reports a batch for one account.
type Summary struct {
	AccountID uuid.UUID `json:"account_id"`
	Waves     int       `json:"waves"`
	Outcomes  []Outcome `json:"outcomes"`
}

// Count returns the number of outcomes equal to outcome.
func (s *Summary) Count(outcome string) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Outcome == outcome {
			n++
		}
	}
	return n
}

// Runner executes batches.
type Runner struct {
	gen      Generator
	pending  Pending
	accounts Accounts
	cfg      Config
	metrics  *metrics.Metrics
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// ErrBusy is returned by RunAll while another scheduled batch is active.
var ErrBusy = errors.New("batch already running")

func New(gen Generator, pending Pending, accounts Accounts, cfg Config, m *metrics.Metrics, logger *slog.Logger) *Runner {
	cfg.MaxConcurrent = max(cfg.MaxConcurrent, 1)
	if cfg.Limit <= 0 {
		cfg.Limit = 25
	}
	return &Runner{
		gen:      gen,
		pending:  pending,
		accounts: accounts,
		cfg:      cfg,
		metrics:  m,
		logger:   logger.With("system", "batch"),
	}
}

// RunAccount generates content for up to Limit analyzed articles of
// accountID. Articles run in waves of MaxConcurrent with WavePause
// between waves. A failed article does not stop its wave. When ctx is
// done no further wave starts and the remaining articles are skipped.
func (r *Runner) RunAccount(ctx context.Context, accountID uuid.UUID) (*Summary, error) {
	if err := account.Check(ctx, accountID); err != nil {
		return nil, err
	}

	pending, err := r.pending.ListAnalyzed(ctx, accountID, r.cfg.Limit)
	if err != nil {
		return nil, fmt.Errorf("list analyzed articles: %w", err)
	}

	logger := r.logger.With("account_id", accountID)
	summary := &Summary{AccountID: accountID, Outcomes: make([]Outcome, len(pending))}

	for start := 0; start < len(pending); start += r.cfg.MaxConcurrent {
		if start > 0 && !r.pause(ctx) {
			r.skipFrom(summary, pending, start)
			logger.Warn("batch cancelled", "skipped", len(pending)-start)
			break
		}

		end := min(start+r.cfg.MaxConcurrent, len(pending))
		r.wave(ctx, accountID, pending[start:end], summary.Outcomes[start:end])
		summary.Waves++
	}

	logger.Info("batch completed",
		"articles", len(pending),
		"waves", summary.Waves,
		"done", summary.Count(OutcomeDone),
		"partial", summary.Count(OutcomePartial),
		"failed", summary.Count(OutcomeFailed),
	)
	return summary, nil
}

func (r *Runner) wave(ctx context.Context, accountID uuid.UUID, articles []sources.Article, out []Outcome) {
	var g errgroup.Group
	for i, src := range articles {
		g.Go(func() error {
			out[i] = r.one(ctx, accountID, src)
			r.metrics.BatchArticle(out[i].Outcome)
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Runner) one(ctx context.Context, accountID uuid.UUID, src sources.Article) Outcome {
	o := Outcome{SourceArticleID: src.ID}

	result, err := r.gen.RunArticle(ctx, accountID, src)
	if err != nil {
		o.Outcome = OutcomeFailed
		o.Error = err.Error()
		r.logger.Error("batch article failed", "account_id", accountID, "source_article_id", src.ID, "error", err)
		return o
	}

	o.BlogID = result.BlogID
	o.Outcome = OutcomeDone
	if result.Status == workflow.StatusPartialComplete {
		o.Outcome = OutcomePartial
	}
	return o
}

func (r *Runner) pause(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if r.cfg.WavePause <= 0 {
		return true
	}

	t := time.NewTimer(r.cfg.WavePause)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (r *Runner) skipFrom(s *Summary, pending []sources.Article, start int) {
	for i := start; i < len(pending); i++ {
		s.Outcomes[i] = Outcome{SourceArticleID: pending[i].ID, Outcome: OutcomeSkipped}
		r.metrics.BatchArticle(OutcomeSkipped)
	}
}

// RunAll runs a batch for every account with analyzed articles. ctx must
// carry an operator identity. Accounts are processed one after another.
func (r *Runner) RunAll(ctx context.Context) ([]Summary, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil, ErrBusy
	}
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	ids, err := r.accounts.ListWithPendingSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	summaries := make([]Summary, 0, len(ids))
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}

		actx := account.WithAccount(ctx, account.Context{AccountID: id, UserID: batchUser})
		s, err := r.RunAccount(actx, id)
		if err != nil {
			r.logger.Error("account batch failed", "account_id", id, "error", err)
			continue
		}
		summaries = append(summaries, *s)
	}
	return summaries, nil
}

// OperatorContext returns a child of ctx carrying the operator identity
// scheduled batches run under.
func OperatorContext(ctx context.Context) context.Context {
	return account.WithAccount(ctx, account.Context{UserID: batchUser, Operator: true})
}

// Start registers the cron schedule with the lifecycle coordinator. The
// scheduler stops on shutdown and waits for an in-progress batch.
func (r *Runner) Start(lc *lifecycle.Coordinator) error {
	if r.cfg.Schedule == "" {
		r.logger.Info("batch schedule disabled")
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(r.cfg.Schedule, func() {
		r.scheduled(lc.Context())
	})
	if err != nil {
		return fmt.Errorf("batch schedule %q: %w", r.cfg.Schedule, err)
	}

	lc.OnStartup(func() {
		c.Start()
		r.logger.Info("batch schedule started", "schedule", r.cfg.Schedule)
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		<-c.Stop().Done()
		r.logger.Info("batch schedule stopped")
	})

	return nil
}

func (r *Runner) scheduled(ctx context.Context) {
	r.logger.Info("scheduled batch started")

	summaries, err := r.RunAll(OperatorContext(ctx))
	if err != nil {
		r.logger.Warn("scheduled batch not run", "error", err)
		return
	}

	total := 0
	for _, s := range summaries {
		total += len(s.Outcomes)
	}
	r.logger.Info("scheduled batch completed", "accounts", len(summaries), "articles", total)
}
