package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/waypoint/pkg/manifest"
	"github.com/vango-dev/waypoint/pkg/navigation"
	"github.com/vango-dev/waypoint/pkg/router"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "route table error",
			code:    "W101",
			wantMsg: "Invalid route pattern",
			wantCat: CategoryRouting,
		},
		{
			name:    "navigation error",
			code:    "W201",
			wantMsg: "Redirect loop",
			wantCat: CategoryNavigation,
		},
		{
			name:    "protocol error",
			code:    "W401",
			wantMsg: "Malformed message",
			wantCat: CategoryProtocol,
		},
		{
			name:    "unknown error code",
			code:    "W999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestRegistryComplete(t *testing.T) {
	for _, code := range []string{
		"W101", "W102", "W103", "W104", "W105", "W106", "W107", "W108",
		"W201", "W202", "W203",
		"W301", "W302", "W303",
		"W401", "W402",
		"W501", "W502",
	} {
		tmpl, ok := GetTemplate(code)
		if !ok {
			t.Errorf("code %s not registered", code)
			continue
		}
		if tmpl.Message == "" || tmpl.DocURL == "" {
			t.Errorf("code %s: template incomplete: %+v", code, tmpl)
		}
	}
	if n := len(GetAllCodes()); n != 18 {
		t.Errorf("GetAllCodes() returned %d codes, want 18", n)
	}
}

func TestError_Error(t *testing.T) {
	err := New("W102")
	if got, want := err.Error(), "W102: Duplicate route name"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err = New("W301").Wrap(os.ErrNotExist)
	if got, want := err.Error(), "W301: Route manifest could not be read: file does not exist"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !stderrors.Is(err, os.ErrNotExist) {
		t.Error("errors.Is should see the wrapped error")
	}

	err2 := &Error{Message: "test error"}
	if err2.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", err2.Error(), "test error")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil) != nil {
		t.Error("FromError(nil) should return nil")
	}

	we := New("W501")
	if FromError(fmt.Errorf("load: %w", we)) != we {
		t.Error("FromError should return a wrapped *Error as-is")
	}

	tests := []struct {
		name string
		err  error
		code string
	}{
		{
			name: "router config",
			err:  &router.ConfigError{Index: 1, Path: "/a", Err: router.ErrDuplicateName},
			code: "W102",
		},
		{
			name: "unknown route",
			err:  &router.LookupError{Name: "nope", Err: router.ErrUnknownRoute},
			code: "W107",
		},
		{
			name: "redirect loop",
			err:  &navigation.RedirectLoopError{Chain: []string{"/a", "/b"}, Limit: 1},
			code: "W201",
		},
		{
			name: "guard failure",
			err:  &navigation.GuardError{Index: 0, To: "/x", Err: stderrors.New("db down")},
			code: "W202",
		},
		{
			name: "manifest parse",
			err:  &manifest.Error{Source: "routes.yaml", Kind: manifest.ErrParse, Err: stderrors.New("bad")},
			code: "W302",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromError(fmt.Errorf("wrapped: %w", tt.err))
			if got.Code != tt.code {
				t.Errorf("Code = %q, want %q", got.Code, tt.code)
			}
			if !stderrors.Is(got, tt.err) {
				t.Error("converted error should wrap the original")
			}
		})
	}

	plain := FromError(stderrors.New("boom"))
	if plain.Code != "" || plain.Category != CategoryCLI || plain.Message != "boom" {
		t.Errorf("plain error converted to %+v", plain)
	}
}

func TestError_WithOffset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "waypoint.json")
	data := []byte("{\n  \"name\": \"wallet\",\n  \"base\": 3,\n}\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	var v map[string]any
	jerr := json.Unmarshal(data, &v)
	var syn *json.SyntaxError
	if !stderrors.As(jerr, &syn) {
		t.Fatalf("expected syntax error, got %v", jerr)
	}

	err := New("W501").WithOffset(path, data, syn.Offset).Wrap(jerr)
	if err.Location == nil {
		t.Fatal("Location is nil")
	}
	if err.Location.Line != 4 || err.Location.Column != 1 {
		t.Errorf("Location = %s, want line 4 column 1", err.Location)
	}
	if len(err.Context) == 0 {
		t.Error("Context should not be empty")
	}

	if New("W501").WithOffset(path, data, 0).Location != nil {
		t.Error("zero offset should not set a location")
	}
}

func TestLocation_String(t *testing.T) {
	tests := []struct {
		name string
		loc  *Location
		want string
	}{
		{"nil location", nil, ""},
		{"with column", &Location{File: "routes.yaml", Line: 10, Column: 5}, "routes.yaml:10:5"},
		{"without column", &Location{File: "routes.yaml", Line: 10}, "routes.yaml:10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.loc.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("W201").Wrap(&navigation.RedirectLoopError{Chain: []string{"/a", "/b", "/a"}, Limit: 2})
	out := err.Format()

	for _, want := range []string{
		"ERROR W201: Redirect loop",
		"Hint: Check static redirects",
		"Learn more: https://waypoint.vango.dev/errors/W201",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}

	if got := err.FormatCompact(); !strings.HasPrefix(got, "W201: Redirect loop: ") {
		t.Errorf("FormatCompact() = %q", got)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("W303").WithLocation("routes.toml", 3, 0).Wrap(stderrors.New("bad pattern"))

	var got map[string]any
	if jerr := json.Unmarshal([]byte(err.FormatJSON()), &got); jerr != nil {
		t.Fatalf("FormatJSON() is not valid JSON: %v", jerr)
	}
	if got["code"] != "W303" || got["category"] != "manifest" || got["cause"] != "bad pattern" {
		t.Errorf("FormatJSON() = %v", got)
	}
	loc, ok := got["location"].(map[string]any)
	if !ok || loc["File"] != "routes.toml" {
		t.Errorf("location = %v", got["location"])
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six seven", 10)
	for _, line := range lines {
		if len(line) > 10 {
			t.Errorf("line %q longer than 10", line)
		}
	}
	if strings.Join(lines, " ") != "one two three four five six seven" {
		t.Errorf("wrapText lost words: %v", lines)
	}
	if wrapText("", 10) != nil {
		t.Error("empty text should produce no lines")
	}
}
