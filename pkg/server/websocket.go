package server

import (
	"errors"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/waypoint/pkg/navigation"
)

// ReadLoop continuously reads messages from the WebSocket connection.
// Navigations run on their own goroutines so that a later message can
// supersede a navigation whose guards are still pending.
// This method blocks until the connection is closed or an error occurs.
func (s *Session) ReadLoop() {
	defer s.Close()

	s.conn.SetPongHandler(func(string) error {
		s.UpdateLastActive()
		return s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	})

	for {
		s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}
		s.UpdateLastActive()

		msg, err := DecodeMessage(data)
		if err != nil {
			s.reject(err)
			continue
		}
		s.handleMessage(msg)
	}
}

func (s *Session) handleMessage(msg *Message) {
	switch msg.Type {
	case MsgPopState:
		ev, ok, err := s.hist.Sync(msg.Position, msg.Href)
		if err != nil {
			s.reject(err)
			return
		}
		if ok {
			// The controller orders the traversal here and dispatches it.
			s.hist.Emit(ev)
		}

	case MsgNavigate:
		if msg.Href == "" {
			s.reject(&ProtocolError{Op: "navigate", Message: "missing href", Code: CodeMalformedMessage})
			return
		}
		target := navigation.To(s.hist.codec.FullPath(msg.Href))
		opts := []navigation.NavigateOption{navigation.WithOrigin(navigation.OriginLink)}
		if msg.Replace {
			opts = append(opts, navigation.WithReplace())
		}
		// Begin on the read loop so frames supersede in arrival order.
		p := s.ctrl.Begin(s.ctx, target, opts...)
		s.spawn(func() {
			res, err := p.Run()
			if err != nil {
				s.sendError(errorCode(err), err.Error(), false)
				return
			}
			s.logger.Debug("client navigation", "href", msg.Href, "status", res.Status.String())
		})

	case MsgHello:
		s.reject(&ProtocolError{Op: "hello", Message: "session already established", Code: CodeUnexpectedMessage})
	}
}

// spawn runs fn on a tracked goroutine.
func (s *Session) spawn(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

// reject logs a bad frame and reports it to the client. A diverged history
// mirror asks the client to reload.
func (s *Session) reject(err error) {
	var perr *ProtocolError
	if errors.As(err, &perr) {
		perr.SessionID = s.ID
	}
	s.logger.Warn("protocol error", "error", err)
	if s.onProtocolError != nil {
		s.onProtocolError(err)
	}
	reload := perr != nil && perr.Op == "popstate"
	s.sendError(errorCode(err), err.Error(), reload)
}

// WriteLoop sends heartbeat pings until the session is closed.
func (s *Session) WriteLoop() {
	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.sendPing(); err != nil {
				s.logger.Debug("ping failed", "error", err)
				s.Close()
				return
			}

		case <-s.done:
			return
		}
	}
}

func (s *Session) sendPing() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return ErrSessionClosed
	}
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.config.WriteTimeout))
}

// errorCode extracts the W-code carried by err, if any.
func errorCode(err error) string {
	var coded interface{ ErrorCode() string }
	if errors.As(err, &coded) {
		return coded.ErrorCode()
	}
	return ""
}
