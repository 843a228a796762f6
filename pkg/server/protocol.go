package server

import (
	"encoding/json"
	"fmt"

	"github.com/vango-dev/waypoint/pkg/router"
)

// MessageType identifies a bridge message.
type MessageType string

// Client to server.
const (
	// MsgHello opens a session: href is the address bar, session an ID to
	// resume and position the browser's history.state position.
	MsgHello MessageType = "hello"

	// MsgPopState reports a back/forward traversal.
	MsgPopState MessageType = "popstate"

	// MsgNavigate requests a navigation, e.g. from a data-link anchor.
	MsgNavigate MessageType = "navigate"
)

// Server to client.
const (
	MsgWelcome MessageType = "welcome"
	MsgPush    MessageType = "push"
	MsgReplace MessageType = "replace"
	MsgGo      MessageType = "go"
	MsgRoute   MessageType = "route"
	MsgError   MessageType = "error"
)

// Message is one JSON frame on the bridge. Fields irrelevant to a type are
// omitted.
type Message struct {
	Type     MessageType   `json:"type"`
	Session  string        `json:"session,omitempty"`
	Href     string        `json:"href,omitempty"`
	Position int           `json:"position"`
	Delta    int           `json:"delta,omitempty"`
	Replace  bool          `json:"replace,omitempty"`
	Route    *RoutePayload `json:"route,omitempty"`
	Code     string        `json:"code,omitempty"`
	Error    string        `json:"error,omitempty"`
	Reload   bool          `json:"reload,omitempty"`
}

// RoutePayload describes the active route to the client.
type RoutePayload struct {
	FullPath string            `json:"fullPath"`
	Path     string            `json:"path"`
	Name     string            `json:"name,omitempty"`
	Pattern  string            `json:"pattern,omitempty"`
	View     string            `json:"view,omitempty"`
	Params   map[string]string `json:"params,omitempty"`
	Query    map[string]string `json:"query,omitempty"`
	Hash     string            `json:"hash,omitempty"`
	NotFound bool              `json:"notFound,omitempty"`
}

// NewRoutePayload converts a matched route for the wire. Views are sent
// only when they are strings (or fmt.Stringers).
func NewRoutePayload(m *router.MatchedRoute) *RoutePayload {
	p := &RoutePayload{
		FullPath: m.FullPath,
		Path:     m.Path,
		Name:     m.Name(),
		Params:   m.Params,
		Query:    m.Query,
		Hash:     m.Hash,
		NotFound: m.NotFound,
	}
	if m.Entry != nil {
		p.Pattern = m.Entry.Path()
	}
	switch v := m.View().(type) {
	case string:
		p.View = v
	case fmt.Stringer:
		p.View = v.String()
	}
	return p
}

// DecodeMessage parses a client frame. Malformed JSON yields a W401
// ProtocolError, an unknown type W402.
func DecodeMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, &ProtocolError{Op: "decode", Message: err.Error(), Code: CodeMalformedMessage}
	}
	switch msg.Type {
	case MsgHello, MsgPopState, MsgNavigate:
		return &msg, nil
	case "":
		return nil, &ProtocolError{Op: "decode", Message: "missing message type", Code: CodeMalformedMessage}
	default:
		return nil, &ProtocolError{Op: "decode", Message: fmt.Sprintf("unexpected message type %q", msg.Type), Code: CodeUnexpectedMessage}
	}
}
