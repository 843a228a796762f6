package router

import (
	"fmt"
	"strings"

	"github.com/vango-dev/waypoint/pkg/routepath"
)

// Table is an immutable, ordered route table.
//
// A Table is safe for concurrent use. It has no mutation API; to reconfigure,
// build a new Table and swap it in whole.
type Table struct {
	entries  []*Entry
	byName   map[string]*Entry
	root     *node
	shadowed []*Entry
	fallback any
}

// TableOption configures Build.
type TableOption func(*Table)

// WithFallback sets the view rendered for locations no route matches.
func WithFallback(view any) TableOption {
	return func(t *Table) {
		t.fallback = view
	}
}

// Build validates routes and returns the table. It fails with a *ConfigError
// on the first invalid route.
func Build(routes []Route, opts ...TableOption) (*Table, error) {
	t := &Table{
		entries: make([]*Entry, 0, len(routes)),
		byName:  make(map[string]*Entry, len(routes)),
		root:    &node{},
	}
	for _, opt := range opts {
		opt(t)
	}

	for i, r := range routes {
		e, err := t.newEntry(i, r)
		if err != nil {
			return nil, &ConfigError{Index: i, Path: r.Path, Name: r.Name, Err: err}
		}
		t.entries = append(t.entries, e)
		if e.name != "" {
			t.byName[e.name] = e
		}
		if !t.root.insert(e) {
			t.shadowed = append(t.shadowed, e)
		}
	}

	return t, nil
}

// MustBuild is like Build but panics upon error.
func MustBuild(routes []Route, opts ...TableOption) *Table {
	t, err := Build(routes, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) newEntry(i int, r Route) (*Entry, error) {
	pattern, err := routepath.ParsePattern(r.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}

	if r.Name != "" {
		if strings.ContainsAny(r.Name, " \t\r\n/") {
			return nil, ErrInvalidName
		}
		if _, dup := t.byName[r.Name]; dup {
			return nil, ErrDuplicateName
		}
	}

	if r.Redirect != "" {
		if !routepath.IsRelativeLocation(r.Redirect) {
			return nil, ErrInvalidRedirect
		}
		target, err := routepath.CanonicalizePath(r.Redirect)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRedirect, err)
		}
		if pattern.IsStatic() && target.Path == pattern.String() {
			return nil, ErrSelfRedirect
		}
	} else if r.View == nil {
		return nil, ErrMissingView
	}

	var meta map[string]any
	if len(r.Meta) > 0 {
		meta = make(map[string]any, len(r.Meta))
		for k, v := range r.Meta {
			meta[k] = v
		}
	}

	return &Entry{
		pattern:  pattern,
		name:     r.Name,
		view:     r.View,
		meta:     meta,
		redirect: r.Redirect,
		order:    i,
	}, nil
}

// Entries returns the entries in registration order.
func (t *Table) Entries() []*Entry {
	out := make([]*Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// ByName returns the entry registered under name.
func (t *Table) ByName(name string) (*Entry, bool) {
	e, ok := t.byName[name]
	return e, ok
}

// Fallback returns the not-found view, or nil if none was configured.
func (t *Table) Fallback() any { return t.fallback }

// Shadowed returns entries whose pattern has the same shape as an earlier
// entry. They are kept in Entries but never match.
func (t *Table) Shadowed() []*Entry {
	out := make([]*Entry, len(t.shadowed))
	copy(out, t.shadowed)
	return out
}

// Resolve builds the concrete path of the named route.
func (t *Table) Resolve(name string, params map[string]string) (string, error) {
	e, ok := t.byName[name]
	if !ok {
		return "", &LookupError{Name: name, Err: ErrUnknownRoute}
	}
	path, err := e.pattern.Build(params)
	if err != nil {
		return "", &LookupError{Name: name, Err: err}
	}
	return path, nil
}
