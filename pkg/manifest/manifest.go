// Package manifest loads route tables from declarative files.
//
// A manifest lists routes in JSON, YAML or TOML:
//
//	# routes.yaml
//	version: 1
//	fallback: NotFoundView
//	routes:
//	  - path: /
//	    name: wallet
//	    view: WalletView
//	  - path: /admin
//	    view: AdminView
//	    meta: {requiresAuth: true}
//	  - path: /home
//	    redirect: /
//
// Manifests are read from a Source (a local file or an S3 object). A
// Watcher polls the source and hands every new valid table to a callback,
// typically navigation.Controller.ReplaceTable; an invalid revision is
// logged and the previous table stays in service.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/waypoint/pkg/router"
)

// CurrentVersion is the newest manifest format understood.
const CurrentVersion = 1

// Manifest is the file form of a route table.
type Manifest struct {
	Version  int     `json:"version" yaml:"version" toml:"version"`
	Fallback string  `json:"fallback,omitempty" yaml:"fallback,omitempty" toml:"fallback,omitempty"`
	Routes   []Route `json:"routes" yaml:"routes" toml:"routes"`
}

// Route is one route definition in a manifest.
type Route struct {
	Path     string         `json:"path" yaml:"path" toml:"path"`
	Name     string         `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	View     string         `json:"view,omitempty" yaml:"view,omitempty" toml:"view,omitempty"`
	Redirect string         `json:"redirect,omitempty" yaml:"redirect,omitempty" toml:"redirect,omitempty"`
	Meta     map[string]any `json:"meta,omitempty" yaml:"meta,omitempty" toml:"meta,omitempty"`
}

// Format is a manifest encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
	FormatTOML
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FormatFromPath picks the format from a file name's extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return 0, &Error{Source: path, Kind: ErrParse, Err: fmt.Errorf("unknown manifest extension %q", filepath.Ext(path))}
	}
}

// Error kinds.
var (
	ErrRead    = errors.New("manifest unreadable")
	ErrParse   = errors.New("manifest malformed")
	ErrInvalid = errors.New("manifest invalid")
)

// Error reports a manifest that could not be turned into a table.
type Error struct {
	Source string
	Kind   error
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Source, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error { return []error{e.Kind, e.Err} }

// ErrorCode returns W301 for read failures, W302 for decode failures and
// W303 for manifests that decode but do not build.
func (e *Error) ErrorCode() string {
	switch e.Kind {
	case ErrRead:
		return "W301"
	case ErrParse:
		return "W302"
	default:
		return "W303"
	}
}

// Parse decodes a manifest. Unknown fields are rejected.
func Parse(data []byte, format Format) (*Manifest, error) {
	var m Manifest

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil {
			return nil, err
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil {
			return nil, err
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &m)
		if err != nil {
			return nil, err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown field %q", undecoded[0].String())
		}
	default:
		return nil, fmt.Errorf("unsupported format %s", format)
	}

	return &m, nil
}

// ViewResolver maps a manifest view name to the handle stored in the table.
type ViewResolver func(name string) (any, error)

// Table builds the route table described by m. resolve may be nil, in which
// case view names are stored as strings.
func (m *Manifest) Table(resolve ViewResolver) (*router.Table, error) {
	if m.Version > CurrentVersion {
		return nil, fmt.Errorf("version %d is newer than %d", m.Version, CurrentVersion)
	}
	if resolve == nil {
		resolve = func(name string) (any, error) { return name, nil }
	}

	routes := make([]router.Route, 0, len(m.Routes))
	for i, r := range m.Routes {
		route := router.Route{
			Path:     r.Path,
			Name:     r.Name,
			Meta:     r.Meta,
			Redirect: r.Redirect,
		}
		if r.View != "" {
			view, err := resolve(r.View)
			if err != nil {
				return nil, fmt.Errorf("route #%d (%q): view %q: %w", i, r.Path, r.View, err)
			}
			route.View = view
		}
		routes = append(routes, route)
	}

	var opts []router.TableOption
	if m.Fallback != "" {
		view, err := resolve(m.Fallback)
		if err != nil {
			return nil, fmt.Errorf("fallback view %q: %w", m.Fallback, err)
		}
		opts = append(opts, router.WithFallback(view))
	}

	return router.Build(routes, opts...)
}
