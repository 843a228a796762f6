package server

import (
	"bytes"
	"html/template"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/vango-dev/waypoint/pkg/history"
	"github.com/vango-dev/waypoint/pkg/routepath"
)

var shellTemplate = template.Must(template.New("shell").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
</head>
<body>
<div id="app" data-route="{{.Route}}"></div>
<script src="{{.Base}}/_waypoint/client.js" data-base="{{.Base}}"></script>
</body>
</html>
`))

type shellData struct {
	Title string
	Base  string
	Route string
}

// noListFS wraps http.FileSystem to disable directory listing.
type noListFS struct{ http.FileSystem }

func (fs noListFS) Open(name string) (http.File, error) {
	f, err := fs.FileSystem.Open(name)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if stat.IsDir() {
		f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}

// serveApp answers every in-app path: a static asset when one exists,
// otherwise the shell page so deep links boot the client.
func (s *Server) serveApp(w http.ResponseWriter, r *http.Request) {
	rel := s.codec.StripBase(r.URL.EscapedPath())

	if s.serveStatic(w, r, rel) {
		return
	}

	status := http.StatusOK
	route := ""
	if s.codec.Mode == history.ModeBrowser {
		location := rel
		if r.URL.RawQuery != "" {
			location += "?" + r.URL.RawQuery
		}
		canon, err := routepath.CanonicalizePath(location)
		if err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		if canon.Changed {
			http.Redirect(w, r, s.codec.Href(canon.Location()), http.StatusPermanentRedirect)
			return
		}
		m, ok := s.Table().Match(canon.Location())
		if !ok {
			status = http.StatusNotFound
		}
		route = m.Name()
	}

	body, err := s.renderShell(route)
	if err != nil {
		s.logger.Error("shell render failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		_, _ = w.Write(body)
	}
}

func (s *Server) serveStatic(w http.ResponseWriter, r *http.Request, rel string) bool {
	if s.config.StaticDir == "" || path.Ext(rel) == "" {
		return false
	}
	f, err := noListFS{http.Dir(s.config.StaticDir)}.Open(rel)
	if err != nil {
		return false
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	http.ServeContent(w, r, stat.Name(), stat.ModTime(), f)
	return true
}

// renderShell returns the configured shell file with the client script
// injected, or the built-in shell.
func (s *Server) renderShell(route string) ([]byte, error) {
	script := `<script src="` + s.codec.Base + `/_waypoint/client.js" data-base="` + s.codec.Base + `"></script>`

	if s.config.ShellFile != "" {
		data, err := os.ReadFile(s.config.ShellFile)
		if err != nil {
			return nil, err
		}
		if bytes.Contains(data, []byte("/_waypoint/client.js")) {
			return data, nil
		}
		html := string(data)
		if i := strings.LastIndex(strings.ToLower(html), "</body>"); i >= 0 {
			return []byte(html[:i] + script + "\n" + html[i:]), nil
		}
		return []byte(html + "\n" + script + "\n"), nil
	}

	var buf bytes.Buffer
	err := shellTemplate.Execute(&buf, shellData{
		Title: s.config.Title,
		Base:  s.codec.Base,
		Route: route,
	})
	return buf.Bytes(), err
}
