package lifecycle_test

import (
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/JaimeStill/scribe/pkg/lifecycle"
)

type flag struct{ v atomic.Bool }

func (f *flag) Ready() bool { return f.v.Load() }

func TestCoordinatorReadiness(t *testing.T) {
	defer goleak.VerifyNone(t)

	lc := lifecycle.New()
	db := &flag{}
	lc.Track("database", db)

	var ran atomic.Bool
	lc.OnStartup(func() { ran.Store(true) })

	if lc.Ready() {
		t.Fatal("ready before startup")
	}

	lc.WaitForStartup()
	if !ran.Load() {
		t.Fatal("startup hook did not run")
	}
	if lc.Ready() {
		t.Fatal("ready while tracked subsystem is not ready")
	}

	db.v.Store(true)
	if !lc.Ready() {
		t.Fatal("expected ready")
	}

	checks := lc.Checks()
	if !checks["database"] {
		t.Errorf("checks = %v", checks)
	}

	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestShutdownWaitsForHooks(t *testing.T) {
	defer goleak.VerifyNone(t)

	lc := lifecycle.New()
	var closed atomic.Bool
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		closed.Store(true)
	})

	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !closed.Load() {
		t.Error("shutdown hook did not complete")
	}
}

func TestShutdownTimeout(t *testing.T) {
	lc := lifecycle.New()
	release := make(chan struct{})
	lc.OnShutdown(func() { <-release })

	if err := lc.Shutdown(10 * time.Millisecond); err == nil {
		t.Error("expected timeout error")
	}
	close(release)
}
