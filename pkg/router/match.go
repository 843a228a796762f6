package router

import (
	"net/url"

	"github.com/vango-dev/waypoint/pkg/routepath"
)

// MatchedRoute is the result of matching a location against a Table.
type MatchedRoute struct {
	// Entry is the matched route, nil when NotFound is set.
	Entry *Entry

	// Params are the decoded path parameters.
	Params map[string]string

	// Path is the canonical path without query or fragment.
	Path string

	// FullPath is Path with the query and fragment re-attached.
	FullPath string

	// Query holds the first value of each query parameter.
	Query map[string]string

	// RawQuery is the query string as given, without "?".
	RawQuery string

	// Hash is the fragment, without "#".
	Hash string

	// NotFound is set when no route matched.
	NotFound bool

	fallback   any
	unresolved bool
}

// Unresolved is the active route before any navigation has committed.
var Unresolved = &MatchedRoute{unresolved: true, Params: map[string]string{}, Query: map[string]string{}}

// IsUnresolved reports whether m is the Unresolved sentinel.
func (m *MatchedRoute) IsUnresolved() bool { return m == nil || m.unresolved }

// Name returns the matched route's name, or "".
func (m *MatchedRoute) Name() string {
	if m == nil || m.Entry == nil {
		return ""
	}
	return m.Entry.name
}

// View returns the view to render: the entry's view, or the table's
// fallback view when nothing matched.
func (m *MatchedRoute) View() any {
	if m == nil {
		return nil
	}
	if m.Entry == nil {
		return m.fallback
	}
	return m.Entry.view
}

// Param returns the named path parameter, or "".
func (m *MatchedRoute) Param(name string) string {
	if m == nil {
		return ""
	}
	return m.Params[name]
}

// Meta returns the matched entry's meta value under key.
func (m *MatchedRoute) Meta(key string) (any, bool) {
	if m == nil || m.Entry == nil {
		return nil, false
	}
	return m.Entry.Meta(key)
}

// Match resolves location to a route. The location may carry a query string
// and a fragment. When nothing matches, ok is false and the returned route
// has NotFound set and renders the table's fallback view; an invalid location
// is treated the same way.
func (t *Table) Match(location string) (m *MatchedRoute, ok bool) {
	canon, err := routepath.CanonicalizePath(location)
	if err != nil {
		path, query, hash := routepath.SplitLocation(location)
		return t.notFound(path, query, hash), false
	}

	e, vals := t.root.match(routepath.Split(canon.Path), nil)
	if e == nil {
		return t.notFound(canon.Path, canon.Query, canon.Hash), false
	}

	return &MatchedRoute{
		Entry:    e,
		Params:   bindParams(e, vals),
		Path:     canon.Path,
		FullPath: canon.Location(),
		Query:    parseQuery(canon.Query),
		RawQuery: canon.Query,
		Hash:     canon.Hash,
	}, true
}

func (t *Table) notFound(path, query, hash string) *MatchedRoute {
	if path == "" {
		path = "/"
	}
	return &MatchedRoute{
		Params:   map[string]string{},
		Path:     path,
		FullPath: routepath.JoinLocation(path, query, hash),
		Query:    parseQuery(query),
		RawQuery: query,
		Hash:     hash,
		NotFound: true,
		fallback: t.fallback,
	}
}

// parseQuery keeps the first value per key. Malformed pairs are skipped.
func parseQuery(raw string) map[string]string {
	out := make(map[string]string)
	if raw == "" {
		return out
	}
	values, _ := url.ParseQuery(raw)
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
