package routepath

import (
	"testing"
)

func TestCanonicalizePath(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantPath    string
		wantQuery   string
		wantHash    string
		wantChanged bool
	}{
		{name: "root", input: "/", wantPath: "/"},
		{name: "empty string", input: "", wantPath: "/", wantChanged: true},
		{name: "no leading slash", input: "about", wantPath: "/about", wantChanged: true},
		{name: "collapse slashes", input: "/blog//post", wantPath: "/blog/post", wantChanged: true},
		{name: "single dot", input: "/blog/./post", wantPath: "/blog/post", wantChanged: true},
		{name: "double dot", input: "/blog/posts/../other", wantPath: "/blog/other", wantChanged: true},
		{name: "double dot to root", input: "/blog/../", wantPath: "/", wantChanged: true},
		{
			name:      "query preserved",
			input:     "/projects/123?tab=details",
			wantPath:  "/projects/123",
			wantQuery: "tab=details",
		},
		{
			name:        "normalized path with query",
			input:       "/projects/123/?tab=details",
			wantPath:    "/projects/123",
			wantQuery:   "tab=details",
			wantChanged: true,
		},
		{
			name:      "query percent escapes not validated",
			input:     "/projects?bad=%GG",
			wantPath:  "/projects",
			wantQuery: "bad=%GG",
		},
		{
			name:      "fragment after query",
			input:     "/docs?v=2#install",
			wantPath:  "/docs",
			wantQuery: "v=2",
			wantHash:  "install",
		},
		{
			name:     "fragment containing question mark",
			input:    "/docs#faq?x",
			wantPath: "/docs",
			wantHash: "faq?x",
		},
		{name: "valid percent escapes", input: "/path/%2Fok", wantPath: "/path/%2Fok"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := CanonicalizePath(tc.input)
			if err != nil {
				t.Fatalf("CanonicalizePath(%q) unexpected error = %v", tc.input, err)
			}
			if result.Path != tc.wantPath {
				t.Errorf("CanonicalizePath(%q).Path = %q, want %q", tc.input, result.Path, tc.wantPath)
			}
			if result.Query != tc.wantQuery {
				t.Errorf("CanonicalizePath(%q).Query = %q, want %q", tc.input, result.Query, tc.wantQuery)
			}
			if result.Hash != tc.wantHash {
				t.Errorf("CanonicalizePath(%q).Hash = %q, want %q", tc.input, result.Hash, tc.wantHash)
			}
			if result.Changed != tc.wantChanged {
				t.Errorf("CanonicalizePath(%q).Changed = %v, want %v", tc.input, result.Changed, tc.wantChanged)
			}
		})
	}
}

func TestCanonicalizePathErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "backslash", input: "/path\\with\\backslash", wantErr: ErrBackslashInPath},
		{name: "null byte literal", input: "/path/\x00/null", wantErr: ErrNullByteInPath},
		{name: "null byte encoded", input: "/path/%00/null", wantErr: ErrNullByteInPath},
		{name: "invalid percent escape incomplete", input: "/path/%2", wantErr: ErrInvalidPercentEscape},
		{name: "invalid percent escape bad chars", input: "/path/%GG", wantErr: ErrInvalidPercentEscape},
		{name: "invalid percent literal", input: "/path/100%", wantErr: ErrInvalidPercentEscape},
		{name: "escape root", input: "/../secret", wantErr: ErrPathEscapesRoot},
		{name: "deep escape root", input: "/a/../../secret", wantErr: ErrPathEscapesRoot},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CanonicalizePath(tc.input)
			if err != tc.wantErr {
				t.Errorf("CanonicalizePath(%q) error = %v, want %v", tc.input, err, tc.wantErr)
			}
		})
	}
}

func TestDecodeSegment(t *testing.T) {
	tests := []struct {
		name       string
		segment    string
		isWildcard bool
		want       string
		wantErr    error
	}{
		{name: "plain", segment: "hello", want: "hello"},
		{name: "space", segment: "hello%20world", want: "hello world"},
		{name: "encoded slash rejected", segment: "a%2Fb", wantErr: ErrEncodedSlashInSegment},
		{name: "encoded slash allowed in wildcard", segment: "a%2Fb", isWildcard: true, want: "a/b"},
		{name: "bad escape", segment: "%zz", wantErr: ErrInvalidPercentEscape},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeSegment(tc.segment, tc.isWildcard)
			if err != tc.wantErr {
				t.Fatalf("DecodeSegment(%q) error = %v, want %v", tc.segment, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("DecodeSegment(%q) = %q, want %q", tc.segment, got, tc.want)
			}
		})
	}
}

func TestSplitAndJoinLocation(t *testing.T) {
	tests := []struct {
		in                string
		path, query, hash string
	}{
		{"/", "/", "", ""},
		{"/a?b=1", "/a", "b=1", ""},
		{"/a#top", "/a", "", "top"},
		{"/a?b=1#top", "/a", "b=1", "top"},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			p, q, h := SplitLocation(tc.in)
			if p != tc.path || q != tc.query || h != tc.hash {
				t.Fatalf("SplitLocation(%q) = %q, %q, %q", tc.in, p, q, h)
			}
			if got := JoinLocation(p, q, h); got != tc.in {
				t.Errorf("JoinLocation = %q, want %q", got, tc.in)
			}
		})
	}
}

func TestIsRelativeLocation(t *testing.T) {
	for in, want := range map[string]bool{
		"/about":              true,
		"/":                   true,
		"about":               false,
		"//evil.example":      false,
		"https://example.com": false,
		"http://example.com":  false,
	} {
		if got := IsRelativeLocation(in); got != want {
			t.Errorf("IsRelativeLocation(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSplit(t *testing.T) {
	if got := Split("/"); got != nil {
		t.Errorf("Split(/) = %#v, want nil", got)
	}
	got := Split("/a/b/")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Split(/a/b/) = %#v", got)
	}
}
