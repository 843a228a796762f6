package router

import (
	"sort"

	"github.com/vango-dev/waypoint/pkg/routepath"
)

// Route is a route definition passed to Build.
type Route struct {
	// Path is the URL pattern (e.g., "/projects/:id").
	Path string

	// Name is an optional identifier, unique across the table.
	Name string

	// View is an opaque handle to the view the rendering layer activates.
	View any

	// Meta holds arbitrary data for guards (e.g., "requiresAuth": true).
	Meta map[string]any

	// Redirect, if set, sends every navigation matching this route to the
	// given in-app location instead.
	Redirect string
}

// Entry is a route in a built Table. It is immutable.
type Entry struct {
	pattern  routepath.Pattern
	name     string
	view     any
	meta     map[string]any
	redirect string
	order    int
}

// Pattern returns the parsed route pattern.
func (e *Entry) Pattern() routepath.Pattern { return e.pattern }

// Path returns the normalized pattern string.
func (e *Entry) Path() string { return e.pattern.String() }

// Name returns the route name, or "" for unnamed routes.
func (e *Entry) Name() string { return e.name }

// View returns the opaque view handle.
func (e *Entry) View() any { return e.view }

// Redirect returns the static redirect location, if any.
func (e *Entry) Redirect() string { return e.redirect }

// Order returns the registration index of the entry.
func (e *Entry) Order() int { return e.order }

// Meta returns the meta value stored under key.
func (e *Entry) Meta(key string) (any, bool) {
	v, ok := e.meta[key]
	return v, ok
}

// MetaBool returns the meta value under key if it is a bool, false otherwise.
func (e *Entry) MetaBool(key string) bool {
	v, _ := e.meta[key].(bool)
	return v
}

// MetaLen returns the number of meta values.
func (e *Entry) MetaLen() int { return len(e.meta) }

// MetaKeys returns the meta keys in sorted order.
func (e *Entry) MetaKeys() []string {
	keys := make([]string, 0, len(e.meta))
	for k := range e.meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
