package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/atomic"

	"github.com/vango-dev/waypoint/pkg/navigation"
	"github.com/vango-dev/waypoint/pkg/router"
)

// Session is one browser tab connected over the bridge. It owns the tab's
// history mirror and navigation controller.
type Session struct {
	// Identity
	ID         string
	CreatedAt  time.Time
	lastActive atomic.Time

	// Connection
	conn   *websocket.Conn
	mu     sync.Mutex // Protects conn writes
	closed atomic.Bool

	hist *RemoteHistory
	ctrl *navigation.Controller

	// ctx is cancelled on Close so navigations in flight abort.
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup

	// cleanup runs once on Close, in reverse registration order.
	cleanup []func()

	onProtocolError func(error)

	config *SessionConfig
	logger *slog.Logger
}

func newSession(id string, conn *websocket.Conn, config *SessionConfig, logger *slog.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		conn:      conn,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		config:    config,
		logger:    logger.With("session_id", id),
	}
	s.lastActive.Store(s.CreatedAt)
	return s
}

// Controller returns the session's navigation controller. Guards and hooks
// are registered on it from the server's session setup callback.
func (s *Session) Controller() *navigation.Controller { return s.ctrl }

// History returns the session's history mirror.
func (s *Session) History() *RemoteHistory { return s.hist }

// Context returns a context cancelled when the session closes.
func (s *Session) Context() context.Context { return s.ctx }

// LastActive returns when the client last sent a frame.
func (s *Session) LastActive() time.Time { return s.lastActive.Load() }

// UpdateLastActive records client activity.
func (s *Session) UpdateLastActive() { s.lastActive.Store(time.Now()) }

// IsClosed reports whether the session has been closed.
func (s *Session) IsClosed() bool { return s.closed.Load() }

// Done is closed when the session closes.
func (s *Session) Done() <-chan struct{} { return s.done }

// Navigate runs a navigation on behalf of the session.
func (s *Session) Navigate(target navigation.Target, opts ...navigation.NavigateOption) (*navigation.Result, error) {
	return s.ctrl.Navigate(s.ctx, target, opts...)
}

// Send writes msg to the client.
func (s *Session) Send(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return ErrSessionClosed
	}
	if s.conn == nil {
		return ErrNoConnection
	}

	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteJSON(msg); err != nil {
		return &SessionError{SessionID: s.ID, Op: "write " + string(msg.Type), Err: err}
	}
	return nil
}

// sendRoute tells the client which route is active.
func (s *Session) sendRoute(active *router.MatchedRoute) {
	err := s.Send(Message{
		Type:     MsgRoute,
		Href:     s.hist.Href(active.FullPath),
		Position: s.hist.Position(),
		Route:    NewRoutePayload(active),
	})
	if err != nil && !s.closed.Load() {
		s.logger.Warn("route update failed", "error", err)
	}
}

// sendError reports a rejected frame or failed navigation to the client.
func (s *Session) sendError(code, message string, reload bool) {
	if err := s.Send(Message{Type: MsgError, Code: code, Error: message, Reload: reload}); err != nil {
		s.logger.Debug("error report failed", "error", err)
	}
}

// onClose registers fn to run when the session closes.
func (s *Session) onClose(fn func()) {
	s.cleanup = append(s.cleanup, fn)
}

// Close shuts the session down. It is safe to call more than once.
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.cancel()
	close(s.done)

	s.mu.Lock()
	if s.conn != nil {
		s.conn.SetWriteDeadline(time.Now().Add(time.Second))
		_ = s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
	}
	s.mu.Unlock()

	if s.ctrl != nil {
		s.ctrl.Stop()
	}
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		s.cleanup[i]()
	}
	s.logger.Info("session closed", "duration", time.Since(s.CreatedAt).Round(time.Millisecond))
}

// Wait blocks until navigations started by the read loop have returned.
func (s *Session) Wait() {
	s.wg.Wait()
}
