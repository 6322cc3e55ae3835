package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/account"
	"github.com/JaimeStill/scribe/internal/api"
	"github.com/JaimeStill/scribe/internal/config"
	"github.com/JaimeStill/scribe/internal/infrastructure"
)

const cliUser = "cli"

// session is a started infrastructure plus the domain systems built on it.
type session struct {
	cfg    *config.Config
	infra  *infrastructure.Infrastructure
	domain *api.Domain
}

func openSession() (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := infra.Start(); err != nil {
		return nil, err
	}
	infra.Lifecycle.WaitForStartup()

	if !infra.Lifecycle.Ready() {
		infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration())
		return nil, fmt.Errorf("infrastructure not ready: %v", infra.Lifecycle.Checks())
	}

	return &session{
		cfg:    cfg,
		infra:  infra,
		domain: api.NewDomain(api.NewRuntime(cfg, infra)),
	}, nil
}

func (s *session) Close() {
	if err := s.infra.Lifecycle.Shutdown(s.cfg.ShutdownTimeoutDuration()); err != nil {
		s.infra.Logger.Error("shutdown failed", "error", err)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func accountContext(ctx context.Context, raw string) (context.Context, uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("invalid account id %q: %w", raw, err)
	}
	return account.WithAccount(ctx, account.Context{AccountID: id, UserID: cliUser}), id, nil
}

func emit(w io.Writer, v any, text func(io.Writer)) error {
	if outputFormat == "text" && text != nil {
		text(w)
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
