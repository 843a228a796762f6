package routepath

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// SegmentKind identifies how a pattern segment matches a path segment.
type SegmentKind uint8

const (
	// Literal segments must equal the path segment exactly.
	Literal SegmentKind = iota
	// Param segments (":name") bind one path segment.
	Param
	// Wildcard segments ("*name") bind all remaining path segments.
	Wildcard
)

// String returns the kind name.
func (k SegmentKind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Param:
		return "param"
	case Wildcard:
		return "wildcard"
	default:
		return fmt.Sprintf("SegmentKind(%d)", k)
	}
}

// DefaultWildcardName is the parameter name bound by an anonymous "*" segment.
const DefaultWildcardName = "pathMatch"

// Segment is one element of a Pattern.
type Segment struct {
	Kind SegmentKind
	// Value is the literal text for Literal segments and the parameter
	// name (without ":" or "*") for Param and Wildcard segments.
	Value string
}

// String renders the segment in pattern syntax.
func (s Segment) String() string {
	switch s.Kind {
	case Param:
		return ":" + s.Value
	case Wildcard:
		return "*" + s.Value
	default:
		return s.Value
	}
}

// Pattern is a parsed route pattern such as "/users/:id" or "/files/*path".
type Pattern struct {
	raw      string
	segments []Segment
}

// Pattern parse errors.
var (
	ErrEmptyPattern      = errors.New("pattern is empty")
	ErrNoLeadingSlash    = errors.New("pattern must start with /")
	ErrWildcardNotLast   = errors.New("wildcard must be the last segment")
	ErrEmptyParamName    = errors.New("parameter name is empty")
	ErrDuplicateParam    = errors.New("duplicate parameter name")
	ErrInvalidPatternSeg = errors.New("invalid pattern segment")
	ErrMissingParam      = errors.New("missing param")
)

// ParsePattern parses a route pattern.
//
// Literal segments are compared after percent-decoding, parameter segments are
// written ":name" and a trailing wildcard is written "*name" (or "*", which binds
// DefaultWildcardName). Repeated and trailing slashes are ignored.
func ParsePattern(p string) (Pattern, error) {
	if p == "" {
		return Pattern{}, ErrEmptyPattern
	}
	if !strings.HasPrefix(p, "/") {
		return Pattern{}, ErrNoLeadingSlash
	}

	parts := Split(p)
	segs := make([]Segment, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))

	for i, part := range parts {
		if part == "" {
			continue
		}
		switch part[0] {
		case ':':
			name := part[1:]
			if name == "" {
				return Pattern{}, ErrEmptyParamName
			}
			if _, dup := seen[name]; dup {
				return Pattern{}, fmt.Errorf("%w: %s", ErrDuplicateParam, name)
			}
			seen[name] = struct{}{}
			segs = append(segs, Segment{Kind: Param, Value: name})
		case '*':
			if i != len(parts)-1 {
				return Pattern{}, ErrWildcardNotLast
			}
			name := part[1:]
			if name == "" {
				name = DefaultWildcardName
			}
			if _, dup := seen[name]; dup {
				return Pattern{}, fmt.Errorf("%w: %s", ErrDuplicateParam, name)
			}
			seen[name] = struct{}{}
			segs = append(segs, Segment{Kind: Wildcard, Value: name})
		default:
			if part == "." || part == ".." {
				return Pattern{}, fmt.Errorf("%w: %q", ErrInvalidPatternSeg, part)
			}
			lit, err := url.PathUnescape(part)
			if err != nil {
				return Pattern{}, fmt.Errorf("%w: %q", ErrInvalidPatternSeg, part)
			}
			segs = append(segs, Segment{Kind: Literal, Value: lit})
		}
	}

	return Pattern{raw: p, segments: segs}, nil
}

// MustParsePattern is like ParsePattern but panics upon error.
func MustParsePattern(p string) Pattern {
	pat, err := ParsePattern(p)
	if err != nil {
		panic(err)
	}
	return pat
}

// Segments returns a copy of the pattern segments.
func (p Pattern) Segments() []Segment {
	out := make([]Segment, len(p.segments))
	copy(out, p.segments)
	return out
}

// Len returns the number of segments.
func (p Pattern) Len() int { return len(p.segments) }

// Raw returns the pattern as it was written.
func (p Pattern) Raw() string { return p.raw }

// HasWildcard reports whether the pattern ends in a wildcard.
func (p Pattern) HasWildcard() bool {
	return len(p.segments) > 0 && p.segments[len(p.segments)-1].Kind == Wildcard
}

// IsStatic reports whether the pattern consists only of literal segments.
func (p Pattern) IsStatic() bool {
	for _, s := range p.segments {
		if s.Kind != Literal {
			return false
		}
	}
	return true
}

// ParamNames returns the parameter names in order, i.e. the pattern
// "/somewhere/:p1/*rest" returns []string{"p1", "rest"}.
func (p Pattern) ParamNames() []string {
	var ret []string
	for _, s := range p.segments {
		if s.Kind != Literal {
			ret = append(ret, s.Value)
		}
	}
	return ret
}

// String returns the normalized pattern.
func (p Pattern) String() string {
	if len(p.segments) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, s := range p.segments {
		b.WriteByte('/')
		if s.Kind == Literal {
			b.WriteString(url.PathEscape(s.Value))
			continue
		}
		b.WriteString(s.String())
	}
	return b.String()
}

// Build substitutes params into the pattern and returns the concrete path.
// A missing value for any parameter returns ErrMissingParam. Wildcard values
// may contain "/" and are escaped per segment.
func (p Pattern) Build(params map[string]string) (string, error) {
	if len(p.segments) == 0 {
		return "/", nil
	}

	var b strings.Builder
	b.Grow(64)

	for _, s := range p.segments {
		switch s.Kind {
		case Literal:
			b.WriteByte('/')
			b.WriteString(url.PathEscape(s.Value))
		case Param:
			v, ok := params[s.Value]
			if !ok || v == "" {
				return "", fmt.Errorf("%w: %s", ErrMissingParam, s.Value)
			}
			b.WriteByte('/')
			b.WriteString(escapeSegment(v))
		case Wildcard:
			v, ok := params[s.Value]
			if !ok {
				return "", fmt.Errorf("%w: %s", ErrMissingParam, s.Value)
			}
			for _, part := range Split(v) {
				b.WriteByte('/')
				b.WriteString(escapeSegment(part))
			}
		}
	}

	if b.Len() == 0 {
		return "/", nil
	}
	return b.String(), nil
}

// escapeSegment escapes a param value for use as one path segment. Dot
// segments are percent-encoded so canonicalization keeps them.
func escapeSegment(v string) string {
	if v == "." || v == ".." {
		return strings.Repeat("%2E", len(v))
	}
	return url.PathEscape(v)
}
