package routes

import (
	"net/http"

	"github.com/JaimeStill/scribe/pkg/middleware"
)

// Group organizes routes under a common prefix. Middleware applies to
// every route in the group and its children, outermost first.
type Group struct {
	Prefix     string
	Middleware []func(http.Handler) http.Handler
	Routes     []Route
	Children   []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		registerGroup(mux, "", nil, group)
	}
}

func registerGroup(mux *http.ServeMux, parentPrefix string, inherited middleware.Chain, group Group) {
	fullPrefix := parentPrefix + group.Prefix
	stack := append(append(middleware.Chain{}, inherited...), group.Middleware...)

	for _, route := range group.Routes {
		mux.Handle(route.pattern(fullPrefix), stack.Then(route.Handler))
	}
	for _, child := range group.Children {
		registerGroup(mux, fullPrefix, stack, child)
	}
}
