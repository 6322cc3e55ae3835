package metrics_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/JaimeStill/scribe/internal/metrics"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	m.ProviderCall("gemini", "text", time.Second, nil)
	m.Tokens("gemini", 1, 2)
	m.Run("complete")
	m.DegradedStep("prayer")
	m.LogWriteFailure()
	m.ArchivedImage(true)
	m.BatchArticle("processed")

	if m.Registry() != nil {
		t.Error("nil metrics should have no registry")
	}
}

func TestProviderCallLabels(t *testing.T) {
	m := metrics.New()
	m.ProviderCall("gemini", "text", 150*time.Millisecond, nil)
	m.ProviderCall("gemini", "text", time.Second, errors.New("timeout"))
	m.ProviderCall("ideogram", "image", time.Second, nil)

	n, err := testutil.GatherAndCount(m.Registry(), "scribe_provider_calls_total")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("series = %d, want 3", n)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := metrics.New()
	m.Run("partial_complete")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), `scribe_runs_total{status="partial_complete"} 1`) {
		t.Errorf("runs counter missing from exposition:\n%s", body)
	}
}
