// Package module mounts prefixed HTTP modules, each with its own
// middleware chain, under a single root router.
package module

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/JaimeStill/scribe/pkg/middleware"
)

// Module serves one single-level path prefix such as "/api". The prefix
// is stripped before the inner handler sees the request.
type Module struct {
	prefix  string
	inner   http.Handler
	chain   middleware.Chain
	handler func() http.Handler
}

// New creates a Module. It panics when prefix is not "/" followed by one
// path segment.
func New(prefix string, inner http.Handler) *Module {
	if err := validatePrefix(prefix); err != nil {
		panic(err)
	}
	m := &Module{prefix: prefix, inner: inner}
	m.handler = sync.OnceValue(func() http.Handler {
		return m.chain.Then(m.inner)
	})
	return m
}

// Use appends middleware. Calls after the first request have no effect.
func (m *Module) Use(mw ...func(http.Handler) http.Handler) {
	m.chain.Use(mw...)
}

// Prefix returns the mount prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// ServeHTTP strips the prefix and dispatches through the middleware chain.
func (m *Module) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	m.handler().ServeHTTP(w, stripPrefix(req, m.prefix))
}

func stripPrefix(req *http.Request, prefix string) *http.Request {
	path := strings.TrimPrefix(req.URL.Path, prefix)
	if path == "" {
		path = "/"
	}

	r := req.Clone(req.Context())
	r.URL.Path = path
	r.URL.RawPath = ""
	return r
}

func validatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	case strings.Count(prefix, "/") != 1 || len(prefix) == 1:
		return fmt.Errorf("module prefix must be a single path segment: %s", prefix)
	}
	return nil
}
