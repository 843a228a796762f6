package navigation

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/vango-dev/waypoint/pkg/routepath"
	"github.com/vango-dev/waypoint/pkg/router"
)

// ErrInvalidTarget is returned for targets that do not name an in-app
// location, such as absolute URLs or a traversal used as a redirect.
var ErrInvalidTarget = errors.New("navigation: invalid target")

type targetKind uint8

const (
	kindPath targetKind = iota
	kindNamed
	kindDelta
)

// Target is the destination of a navigation.
type Target struct {
	kind    targetKind
	path    string
	name    string
	params  map[string]string
	delta   int
	query   map[string]string
	hash    string
	hasHash bool
}

// To targets an in-app location, optionally carrying a query string and
// fragment ("/users/42?tab=keys#top").
func To(location string) Target {
	return Target{kind: kindPath, path: location}
}

// Named targets a named route. Parameters missing from params are taken
// from the active route when it has a parameter of the same name.
func Named(name string, params map[string]string) Target {
	return Target{kind: kindNamed, name: name, params: copyMap(params)}
}

// Go targets a relative history position.
func Go(delta int) Target {
	return Target{kind: kindDelta, delta: delta}
}

// Back is Go(-1).
func Back() Target { return Go(-1) }

// Forward is Go(1).
func Forward() Target { return Go(1) }

// WithQuery returns a copy of t whose query string is replaced by q.
func (t Target) WithQuery(q map[string]string) Target {
	t.query = copyMap(q)
	if t.query == nil {
		t.query = map[string]string{}
	}
	return t
}

// WithHash returns a copy of t whose fragment is replaced by hash.
func (t Target) WithHash(hash string) Target {
	t.hash = strings.TrimPrefix(hash, "#")
	t.hasHash = true
	return t
}

// IsTraversal reports whether t was built by Go, Back or Forward.
func (t Target) IsTraversal() bool { return t.kind == kindDelta }

// String describes the target for logs.
func (t Target) String() string {
	switch t.kind {
	case kindNamed:
		return "name:" + t.name
	case kindDelta:
		return fmt.Sprintf("go(%d)", t.delta)
	default:
		return t.path
	}
}

// location renders t as an in-app full path against table. current supplies
// parameter defaults for named targets.
func (t Target) location(table *router.Table, current *router.MatchedRoute) (string, error) {
	var path, query, hash string

	switch t.kind {
	case kindPath:
		if strings.HasPrefix(t.path, "//") || strings.Contains(t.path, "://") {
			return "", fmt.Errorf("%w: %q", ErrInvalidTarget, t.path)
		}
		path, query, hash = routepath.SplitLocation(t.path)
		if path == "" {
			path = "/"
		}
	case kindNamed:
		var err error
		path, err = table.Resolve(t.name, t.mergedParams(table, current))
		if err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidTarget, t)
	}

	if t.query != nil {
		query = encodeQuery(t.query)
	}
	if t.hasHash {
		hash = t.hash
	}
	return routepath.JoinLocation(path, query, hash), nil
}

func (t Target) mergedParams(table *router.Table, current *router.MatchedRoute) map[string]string {
	e, ok := table.ByName(t.name)
	if !ok || current == nil || len(current.Params) == 0 {
		return t.params
	}

	merged := make(map[string]string)
	for _, name := range e.Pattern().ParamNames() {
		if v, ok := current.Params[name]; ok {
			merged[name] = v
		}
	}
	for k, v := range t.params {
		merged[k] = v
	}
	return merged
}

func encodeQuery(q map[string]string) string {
	values := make(url.Values, len(q))
	for k, v := range q {
		values.Set(k, v)
	}
	return values.Encode()
}

func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Origin tells where a navigation request came from.
type Origin uint8

const (
	// OriginProgrammatic is a call to Navigate from application code.
	OriginProgrammatic Origin = iota
	// OriginLink is a click on an in-app link.
	OriginLink
	// OriginHistory is a back/forward traversal relayed by the history adapter.
	OriginHistory
	// OriginInitial is the navigation performed by Start.
	OriginInitial
)

// String returns the origin name.
func (o Origin) String() string {
	switch o {
	case OriginProgrammatic:
		return "programmatic"
	case OriginLink:
		return "link"
	case OriginHistory:
		return "history"
	case OriginInitial:
		return "initial"
	default:
		return fmt.Sprintf("Origin(%d)", int(o))
	}
}
