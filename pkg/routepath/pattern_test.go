package routepath

import (
	"errors"
	"reflect"
	"testing"
)

func TestParsePattern(t *testing.T) {
	var tlist = []struct {
		in   string
		out  []Segment
		norm string
	}{
		{"/", []Segment{}, "/"},
		{"/:p1", []Segment{{Param, "p1"}}, "/:p1"},
		{"/:p1/", []Segment{{Param, "p1"}}, "/:p1"},
		{"/:p1/test", []Segment{{Param, "p1"}, {Literal, "test"}}, "/:p1/test"},
		{"/:p1/test/:p2", []Segment{{Param, "p1"}, {Literal, "test"}, {Param, "p2"}}, "/:p1/test/:p2"},
		{"/a//b", []Segment{{Literal, "a"}, {Literal, "b"}}, "/a/b"},
		{"/files/*path", []Segment{{Literal, "files"}, {Wildcard, "path"}}, "/files/*path"},
		{"/*", []Segment{{Wildcard, DefaultWildcardName}}, "/*pathMatch"},
		{"/caf%C3%A9", []Segment{{Literal, "café"}}, "/caf%C3%A9"},
	}

	for _, ti := range tlist {
		t.Run(ti.in, func(t *testing.T) {
			p, err := ParsePattern(ti.in)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(ti.out, p.Segments()) {
				t.Errorf("expected %#v, got %#v", ti.out, p.Segments())
			}
			if p.String() != ti.norm {
				t.Errorf("String() = %q, want %q", p.String(), ti.norm)
			}
			if p.Raw() != ti.in {
				t.Errorf("Raw() = %q, want %q", p.Raw(), ti.in)
			}
		})
	}
}

func TestParsePatternErrors(t *testing.T) {
	var tlist = []struct {
		in  string
		err error
	}{
		{"", ErrEmptyPattern},
		{"users", ErrNoLeadingSlash},
		{"/*rest/more", ErrWildcardNotLast},
		{"/a/:", ErrEmptyParamName},
		{"/:id/:id", ErrDuplicateParam},
		{"/:path/*path", ErrDuplicateParam},
		{"/a/../b", ErrInvalidPatternSeg},
	}

	for _, ti := range tlist {
		t.Run(ti.in, func(t *testing.T) {
			_, err := ParsePattern(ti.in)
			if !errors.Is(err, ti.err) {
				t.Errorf("ParsePattern(%q) error = %v, want %v", ti.in, err, ti.err)
			}
		})
	}
}

func TestPatternBuild(t *testing.T) {
	var tlist = []struct {
		pattern string
		params  map[string]string
		out     string
		err     error
	}{
		{"/", nil, "/", nil},
		{"/users/:id", map[string]string{"id": "42"}, "/users/42", nil},
		{"/users/:id", map[string]string{"id": "a b"}, "/users/a%20b", nil},
		{"/users/:id", nil, "", ErrMissingParam},
		{"/users/:id", map[string]string{"id": "."}, "/users/%2E", nil},
		{"/users/:id", map[string]string{"id": ".."}, "/users/%2E%2E", nil},
		{"/users/:id", map[string]string{"id": "..."}, "/users/...", nil},
		{"/files/*path", map[string]string{"path": "a/../b"}, "/files/a/%2E%2E/b", nil},
		{"/files/*path", map[string]string{"path": "a/b/c"}, "/files/a/b/c", nil},
		{"/files/*path", map[string]string{"path": ""}, "/files", nil},
		{"/files/*path", nil, "", ErrMissingParam},
	}

	for _, ti := range tlist {
		t.Run(ti.pattern+"->"+ti.out, func(t *testing.T) {
			got, err := MustParsePattern(ti.pattern).Build(ti.params)
			if !errors.Is(err, ti.err) {
				t.Fatalf("Build error = %v, want %v", err, ti.err)
			}
			if got != ti.out {
				t.Errorf("Build = %q, want %q", got, ti.out)
			}
			if ti.err != nil {
				return
			}
			if c, err := CanonicalizePath(got); err != nil || c.Path != got {
				t.Errorf("CanonicalizePath(%q) = %q, %v; want it unchanged", got, c.Path, err)
			}
		})
	}
}

func TestPatternProperties(t *testing.T) {
	p := MustParsePattern("/a/:b/*c")
	if !p.HasWildcard() {
		t.Error("expected wildcard")
	}
	if p.IsStatic() {
		t.Error("expected non-static")
	}
	if !reflect.DeepEqual(p.ParamNames(), []string{"b", "c"}) {
		t.Errorf("ParamNames() = %#v", p.ParamNames())
	}
	if !MustParsePattern("/a/b").IsStatic() {
		t.Error("expected static")
	}
	if p.Len() != 3 {
		t.Errorf("Len() = %d", p.Len())
	}
}
