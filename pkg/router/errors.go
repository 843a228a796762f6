package router

import (
	"errors"
	"fmt"

	"github.com/vango-dev/waypoint/pkg/routepath"
)

// Table construction errors. They are wrapped in a *ConfigError.
var (
	ErrInvalidPattern  = errors.New("invalid pattern")
	ErrDuplicateName   = errors.New("duplicate route name")
	ErrInvalidRedirect = errors.New("redirect target must be an absolute in-app path")
	ErrSelfRedirect    = errors.New("route redirects to itself")
	ErrMissingView     = errors.New("route has neither view nor redirect")
	ErrInvalidName     = errors.New("route name contains whitespace or '/'")
)

// Lookup errors.
var (
	// ErrUnknownRoute is returned when resolving a name that is not in the table.
	ErrUnknownRoute = errors.New("unknown route name")

	// ErrMissingParam is returned when a named route is resolved without
	// a value for one of its parameters.
	ErrMissingParam = routepath.ErrMissingParam
)

// ConfigError reports an invalid route definition passed to Build.
// An application must not start with a table that failed to build.
type ConfigError struct {
	// Index is the position of the offending route in the Build input.
	Index int
	// Path is the route's pattern as written.
	Path string
	// Name is the route's name, if any.
	Name string
	// Err is the underlying cause.
	Err error
}

func (e *ConfigError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("router: route #%d (%q, name %q): %v", e.Index, e.Path, e.Name, e.Err)
	}
	return fmt.Sprintf("router: route #%d (%q): %v", e.Index, e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ErrorCode returns the stable error code for the failure.
func (e *ConfigError) ErrorCode() string {
	switch {
	case errors.Is(e.Err, ErrDuplicateName):
		return "W102"
	case errors.Is(e.Err, ErrInvalidRedirect):
		return "W103"
	case errors.Is(e.Err, ErrSelfRedirect):
		return "W104"
	case errors.Is(e.Err, ErrMissingView):
		return "W105"
	case errors.Is(e.Err, ErrInvalidName):
		return "W106"
	default:
		return "W101"
	}
}

// LookupError reports a failed named-route resolution.
type LookupError struct {
	Name string
	Err  error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("router: resolve %q: %v", e.Name, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// ErrorCode returns W107 for unknown names and W108 for missing parameters.
func (e *LookupError) ErrorCode() string {
	if errors.Is(e.Err, ErrMissingParam) {
		return "W108"
	}
	return "W107"
}
