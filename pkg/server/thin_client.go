package server

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"net/http"
	"time"
)

// clientJS is the browser half of the history bridge. It mirrors push,
// replace and go frames into the History API and reports popstate.
//
//go:embed client.js
var clientJS []byte

// clientETag is a strong validator derived from the embedded bytes.
var clientETag = func() string {
	sum := sha256.Sum256(clientJS)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}()

func (s *Server) serveThinClient(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("ETag", clientETag)
	h.Set("Content-Type", "application/javascript; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	if s.config.DevMode {
		h.Set("Cache-Control", "no-store")
	} else {
		h.Set("Cache-Control", "public, max-age=0, must-revalidate")
	}

	// ServeContent answers If-None-Match (weak or strong) with 304.
	http.ServeContent(w, r, "client.js", time.Time{}, bytes.NewReader(clientJS))
}
