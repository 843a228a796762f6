package history

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/vango-dev/waypoint/pkg/routepath"
)

// Mode selects how an in-app path is written to the address bar.
type Mode int

const (
	// ModeBrowser uses real address-bar paths. Deep links need the server
	// to serve the application shell for every in-app path.
	ModeBrowser Mode = iota

	// ModeHash encodes the in-app path after "#" and needs no server
	// cooperation.
	ModeHash
)

// String returns the mode name as used in configuration.
func (m Mode) String() string {
	switch m {
	case ModeBrowser:
		return "browser"
	case ModeHash:
		return "hash"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "browser" or "hash". The empty string means browser.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "browser", "html5", "history":
		return ModeBrowser, nil
	case "hash":
		return ModeHash, nil
	default:
		return 0, fmt.Errorf("history: unknown mode %q", s)
	}
}

// Codec converts between in-app full paths and address-bar strings.
type Codec struct {
	// Base is the mount prefix, e.g. "/app". Empty for root.
	Base string

	// Mode selects browser or hash serialization.
	Mode Mode
}

// NewCodec returns a codec with a normalized base path.
func NewCodec(base string, mode Mode) Codec {
	return Codec{Base: NormalizeBase(base), Mode: mode}
}

// NormalizeBase returns base with a leading slash and no trailing slash.
// The root base is returned as "".
func NormalizeBase(base string) string {
	base = strings.TrimSpace(base)
	base = strings.TrimRight(base, "/")
	if base == "" {
		return ""
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	return base
}

// Href returns the address-bar string for fullPath.
//
//	browser, base "/app": "/users/1?x=1" → "/app/users/1?x=1"
//	hash,    base "/app": "/users/1"     → "/app/#/users/1"
func (c Codec) Href(fullPath string) string {
	base := NormalizeBase(c.Base)
	if fullPath == "" {
		fullPath = "/"
	}
	if c.Mode == ModeHash {
		return base + "/#" + fullPath
	}
	return base + fullPath
}

// FullPath extracts the in-app full path from an address-bar string. The
// input may be an absolute URL; scheme and host are dropped. A path that
// does not carry the base is returned unchanged.
func (c Codec) FullPath(href string) string {
	path, query, hash := routepath.SplitLocation(href)
	if u, err := url.Parse(href); err == nil && u.Host != "" {
		path, query, hash = u.EscapedPath(), u.RawQuery, u.EscapedFragment()
	}

	if c.Mode == ModeHash {
		if hash == "" {
			return "/"
		}
		if !strings.HasPrefix(hash, "/") {
			hash = "/" + hash
		}
		return hash
	}

	path = c.StripBase(path)
	return routepath.JoinLocation(path, query, hash)
}

// StripBase removes the base prefix from path at a segment boundary.
func (c Codec) StripBase(path string) string {
	base := NormalizeBase(c.Base)
	if base != "" && (path == base || strings.HasPrefix(path, base+"/")) {
		path = path[len(base):]
	}
	if path == "" {
		return "/"
	}
	return path
}
