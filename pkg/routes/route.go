package routes

import "net/http"

// Route binds a method and a pattern, relative to the enclosing group
// prefix, to a handler. An empty Method matches every method.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// pattern renders the ServeMux pattern for r under prefix.
func (r Route) pattern(prefix string) string {
	path := prefix + r.Pattern
	if path == "" {
		path = "/"
	}
	if r.Method == "" {
		return path
	}
	return r.Method + " " + path
}
