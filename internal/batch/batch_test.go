package batch_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"go.uber.org/goleak"

	"github.com/JaimeStill/scribe/internal/account"
	"github.com/JaimeStill/scribe/internal/batch"
	"github.com/JaimeStill/scribe/internal/sources"
	"github.com/JaimeStill/scribe/internal/workflow"
	"github.com/JaimeStill/scribe/pkg/lifecycle"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeGenerator struct {
	inflight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
	result   func(src sources.Article) (*workflow.RunResult, error)

	mu    sync.Mutex
	calls []uuid.UUID
}

func (f *fakeGenerator) RunArticle(ctx context.Context, accountID uuid.UUID, src sources.Article) (*workflow.RunResult, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, src.ID)
	f.mu.Unlock()

	if err := account.Check(ctx, accountID); err != nil {
		return nil, err
	}
	time.Sleep(f.delay)

	if f.result != nil {
		return f.result(src)
	}
	return &workflow.RunResult{BlogID: uuid.New(), Status: workflow.StatusDone}, nil
}

type fakePending map[uuid.UUID][]sources.Article

func (f fakePending) ListAnalyzed(_ context.Context, accountID uuid.UUID, limit int) ([]sources.Article, error) {
	list := f[accountID]
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

type fakeAccounts []uuid.UUID

func (f fakeAccounts) ListWithPendingSources(ctx context.Context) ([]uuid.UUID, error) {
	if err := account.RequireOperator(ctx); err != nil {
		return nil, err
	}
	return f, nil
}

func articles(accountID uuid.UUID, n int) []sources.Article {
	out := make([]sources.Article, n)
	for i := range out {
		out[i] = sources.Article{ID: uuid.New(), AccountID: accountID, Status: sources.StatusAnalyzed}
	}
	return out
}

func ctxFor(id uuid.UUID) context.Context {
	return account.WithAccount(context.Background(), account.Context{AccountID: id, UserID: "tester"})
}

func outcomes(s *batch.Summary) []string {
	out := make([]string, len(s.Outcomes))
	for i, o := range s.Outcomes {
		out[i] = o.Outcome
	}
	return out
}

func TestRunAccountWaves(t *testing.T) {
	acct := uuid.New()
	gen := &fakeGenerator{delay: 10 * time.Millisecond}
	r := batch.New(gen, fakePending{acct: articles(acct, 5)}, nil, batch.Config{MaxConcurrent: 2, WavePause: time.Millisecond, Limit: 25}, nil, discard)

	s, err := r.RunAccount(ctxFor(acct), acct)
	if err != nil {
		t.Fatal(err)
	}

	if s.Waves != 3 {
		t.Errorf("waves = %d, want 3", s.Waves)
	}
	if p := gen.peak.Load(); p > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", p)
	}
	if got := s.Count(batch.OutcomeDone); got != 5 {
		t.Errorf("done = %d, want 5", got)
	}
}

func TestRunAccountLimit(t *testing.T) {
	acct := uuid.New()
	gen := &fakeGenerator{}
	r := batch.New(gen, fakePending{acct: articles(acct, 10)}, nil, batch.Config{MaxConcurrent: 3, Limit: 4}, nil, discard)

	s, err := r.RunAccount(ctxFor(acct), acct)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Outcomes) != 4 || len(gen.calls) != 4 {
		t.Errorf("outcomes = %d, calls = %d, want 4", len(s.Outcomes), len(gen.calls))
	}
}

func TestRunAccountMixedOutcomes(t *testing.T) {
	acct := uuid.New()
	list := articles(acct, 3)
	gen := &fakeGenerator{
		result: func(src sources.Article) (*workflow.RunResult, error) {
			switch src.ID {
			case list[0].ID:
				return nil, errors.New("article create failed")
			case list[1].ID:
				return &workflow.RunResult{BlogID: uuid.New(), Status: workflow.StatusPartialComplete}, nil
			default:
				return &workflow.RunResult{BlogID: uuid.New(), Status: workflow.StatusDone}, nil
			}
		},
	}
	r := batch.New(gen, fakePending{acct: list}, nil, batch.Config{MaxConcurrent: 3}, nil, discard)

	s, err := r.RunAccount(ctxFor(acct), acct)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{batch.OutcomeFailed, batch.OutcomePartial, batch.OutcomeDone}
	if diff := cmp.Diff(want, outcomes(s)); diff != "" {
		t.Errorf("outcomes (-want +got):\n%s", diff)
	}
	if s.Outcomes[0].Error == "" || s.Outcomes[0].BlogID != uuid.Nil {
		t.Errorf("failed outcome = %+v", s.Outcomes[0])
	}
}

func TestRunAccountCancelSkipsRemainingWaves(t *testing.T) {
	acct := uuid.New()
	ctx, cancel := context.WithCancel(ctxFor(acct))
	defer cancel()

	gen := &fakeGenerator{
		result: func(sources.Article) (*workflow.RunResult, error) {
			cancel()
			return &workflow.RunResult{BlogID: uuid.New(), Status: workflow.StatusDone}, nil
		},
	}
	r := batch.New(gen, fakePending{acct: articles(acct, 3)}, nil, batch.Config{MaxConcurrent: 1, WavePause: time.Hour}, nil, discard)

	done := make(chan *batch.Summary)
	go func() {
		s, _ := r.RunAccount(ctx, acct)
		done <- s
	}()

	select {
	case s := <-done:
		want := []string{batch.OutcomeDone, batch.OutcomeSkipped, batch.OutcomeSkipped}
		if diff := cmp.Diff(want, outcomes(s)); diff != "" {
			t.Errorf("outcomes (-want +got):\n%s", diff)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("batch did not stop after cancellation")
	}
}

func TestRunAccountDeniesOtherAccount(t *testing.T) {
	r := batch.New(&fakeGenerator{}, fakePending{}, nil, batch.Config{}, nil, discard)
	if _, err := r.RunAccount(ctxFor(uuid.New()), uuid.New()); !errors.Is(err, account.ErrAccessDenied) {
		t.Errorf("err = %v", err)
	}
}

func TestRunAll(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	gen := &fakeGenerator{}
	r := batch.New(gen, fakePending{a: articles(a, 2), b: articles(b, 1)}, fakeAccounts{a, b}, batch.Config{MaxConcurrent: 2}, nil, discard)

	if _, err := r.RunAll(ctxFor(a)); !errors.Is(err, account.ErrAccessDenied) {
		t.Errorf("non-operator err = %v", err)
	}

	summaries, err := r.RunAll(batch.OperatorContext(context.Background()))
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 2 {
		t.Fatalf("summaries = %d, want 2", len(summaries))
	}
	if len(summaries[0].Outcomes) != 2 || len(summaries[1].Outcomes) != 1 {
		t.Errorf("outcome counts = %d, %d", len(summaries[0].Outcomes), len(summaries[1].Outcomes))
	}
}

func TestStart(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		r := batch.New(&fakeGenerator{}, fakePending{}, fakeAccounts{}, batch.Config{}, nil, discard)
		if err := r.Start(lifecycle.New()); err != nil {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("invalid schedule", func(t *testing.T) {
		r := batch.New(&fakeGenerator{}, fakePending{}, fakeAccounts{}, batch.Config{Schedule: "not a schedule"}, nil, discard)
		if err := r.Start(lifecycle.New()); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("stops on shutdown", func(t *testing.T) {
		lc := lifecycle.New()
		r := batch.New(&fakeGenerator{}, fakePending{}, fakeAccounts{}, batch.Config{Schedule: "0 3 * * *"}, nil, discard)
		if err := r.Start(lc); err != nil {
			t.Fatal(err)
		}
		lc.WaitForStartup()

		if err := lc.Shutdown(5 * time.Second); err != nil {
			t.Fatal(err)
		}
	})
}
