package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/atomic"

	"github.com/vango-dev/waypoint/pkg/history"
	"github.com/vango-dev/waypoint/pkg/middleware"
	"github.com/vango-dev/waypoint/pkg/navigation"
	"github.com/vango-dev/waypoint/pkg/router"
	"github.com/vango-dev/waypoint/pkg/session"
)

// Server serves the app shell and bridges each browser tab's history to a
// navigation controller over a WebSocket.
type Server struct {
	config *ServerConfig
	codec  history.Codec

	// table is the route table handed to new sessions.
	table atomic.Pointer[router.Table]

	// mu guards sessions and serialises table swaps against session setup.
	mu       sync.Mutex
	sessions map[string]*Session

	upgrader websocket.Upgrader
	router   chi.Router

	tracker   *session.Tracker
	metrics   *middleware.Metrics
	gatherer  prometheus.Gatherer
	observers []navigation.Observer
	setup     func(*Session)

	httpServer *http.Server
	logger     *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTracker persists each session's history so a reconnecting tab resumes
// where it left off.
func WithTracker(t *session.Tracker) Option {
	return func(s *Server) {
		s.tracker = t
	}
}

// WithMetrics records navigation and session metrics to m and exposes g on
// /metrics.
func WithMetrics(m *middleware.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
		if m != nil {
			s.observers = append(s.observers, m)
		}
	}
}

// WithObserver adds a navigation observer to every session's controller.
func WithObserver(obs navigation.Observer) Option {
	return func(s *Server) {
		if obs != nil {
			s.observers = append(s.observers, obs)
		}
	}
}

// WithSessionSetup registers fn to run for every new session before its
// initial navigation. Register guards and hooks here:
//
//	server.WithSessionSetup(func(sess *server.Session) {
//	    sess.Controller().BeforeEach(requireAuth)
//	})
func WithSessionSetup(fn func(*Session)) Option {
	return func(s *Server) {
		s.setup = fn
	}
}

// New creates a server for table.
func New(table *router.Table, config *ServerConfig, opts ...Option) *Server {
	if table == nil {
		panic("server: nil route table")
	}
	if config == nil {
		config = DefaultServerConfig()
	} else {
		config = config.Clone()
	}
	config.applyDefaults()

	s := &Server{
		config:   config,
		codec:    history.NewCodec(config.Base, config.Mode),
		sessions: make(map[string]*Session),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		logger: slog.Default(),
	}
	s.table.Store(table)
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	app := chi.NewRouter()
	app.Get("/_waypoint/ws", s.HandleWebSocket)
	app.Get("/_waypoint/client.js", s.serveThinClient)
	app.Head("/_waypoint/client.js", s.serveThinClient)
	app.Get("/*", s.serveApp)
	app.Head("/*", s.serveApp)

	if s.codec.Base == "" {
		r.Mount("/", app)
	} else {
		r.Mount(s.codec.Base, app)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, s.codec.Base+"/", http.StatusFound)
		})
	}
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

// Handler returns an http.Handler for mounting in external routers.
//
//	r := chi.NewRouter()
//	r.Use(middleware.Logger)
//	r.Handle("/*", srv.Handler())
func (s *Server) Handler() http.Handler {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Table returns the table handed to new sessions.
func (s *Server) Table() *router.Table {
	return s.table.Load()
}

// ReplaceTable swaps the route table for new sessions and every connected
// one. Navigations already resolving finish against the table they started
// with.
func (s *Server) ReplaceTable(t *router.Table) {
	if t == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.table.Store(t)
	for _, sess := range s.sessions {
		sess.ctrl.ReplaceTable(t)
	}
	s.logger.Info("route table replaced", "routes", t.Len(), "sessions", len(s.sessions))
}

// SessionCount returns the number of connected sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Session returns the connected session with id.
func (s *Server) Session(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Codec returns the address-bar codec.
func (s *Server) Codec() history.Codec {
	return s.codec
}

// Config returns the server configuration.
func (s *Server) Config() *ServerConfig {
	return s.config
}

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// HandleWebSocket upgrades the request and runs the session until the
// connection closes.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	sc := s.config.SessionConfig
	conn.SetReadLimit(sc.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(sc.HandshakeTimeout))

	_, data, err := conn.ReadMessage()
	if err != nil {
		s.logger.Error("handshake read failed", "error", err)
		conn.Close()
		return
	}

	hello, err := DecodeMessage(data)
	if err == nil && hello.Type != MsgHello {
		err = &ProtocolError{Op: "handshake", Message: "expected hello, got " + string(hello.Type), Code: CodeUnexpectedMessage}
	}
	if err != nil {
		s.rejectHandshake(conn, err)
		return
	}

	sess, resumed := s.openSession(r.Context(), conn, hello)
	if err := sess.Send(Message{Type: MsgWelcome, Session: sess.ID, Position: sess.hist.Position()}); err != nil {
		s.logger.Warn("welcome failed", "error", err)
		sess.Close()
		return
	}
	s.logger.Info("session opened",
		"session_id", sess.ID,
		"location", sess.hist.Location(),
		"resumed", resumed)

	go sess.WriteLoop()
	initial := sess.ctrl.BeginStart(sess.ctx)
	sess.spawn(func() {
		if _, err := initial.Run(); err != nil {
			sess.logger.Warn("initial navigation failed", "error", err)
			sess.sendError(errorCode(err), err.Error(), false)
		}
	})

	sess.ReadLoop()
	sess.Wait()
}

func (s *Server) rejectHandshake(conn *websocket.Conn, err error) {
	s.logger.Warn("handshake rejected", "error", err)
	if s.metrics != nil {
		s.metrics.ProtocolError("handshake")
	}
	conn.SetWriteDeadline(time.Now().Add(s.config.SessionConfig.WriteTimeout))
	_ = conn.WriteJSON(Message{Type: MsgError, Code: errorCode(err), Error: err.Error()})
	conn.Close()
}

// openSession builds the session for a hello: its history mirror (restored
// from the tracker when the tab is resuming), its controller and hooks.
func (s *Server) openSession(ctx context.Context, conn *websocket.Conn, hello *Message) (*Session, bool) {
	sc := s.config.SessionConfig

	id := hello.Session
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	} else if _, live := s.Session(id); live {
		// A duplicated tab carries its opener's ID.
		id = uuid.NewString()
	}

	fullPath := "/"
	if hello.Href != "" {
		fullPath = s.codec.FullPath(hello.Href)
	}

	sess := newSession(id, conn, sc, s.logger)
	sess.hist = NewRemoteHistory(s.codec, fullPath, sess.Send)

	resumed := false
	if s.tracker != nil && id == hello.Session {
		rctx, cancel := context.WithTimeout(ctx, sc.HandshakeTimeout)
		snap, err := s.tracker.Restore(rctx, id)
		cancel()
		switch {
		case err != nil:
			sess.logger.Warn("session restore failed", "error", err)
		case snap != nil && hello.Position >= 0 && hello.Position < len(snap.Entries) &&
			snap.Entries[hello.Position].FullPath == fullPath:
			sess.hist.Restore(snap.Entries, hello.Position)
			resumed = true
		}
	}

	opts := []navigation.Option{
		navigation.WithLogger(sess.logger),
		navigation.WithDispatcher(sess.spawn),
	}
	if sc.MaxRedirects > 0 {
		opts = append(opts, navigation.WithMaxRedirects(sc.MaxRedirects))
	}
	for _, obs := range s.observers {
		opts = append(opts, navigation.WithObserver(obs))
	}

	s.mu.Lock()
	sess.ctrl = navigation.New(s.table.Load(), sess.hist, opts...)
	s.sessions[id] = sess
	s.mu.Unlock()

	sess.onClose(func() {
		s.mu.Lock()
		if s.sessions[id] == sess {
			delete(s.sessions, id)
		}
		s.mu.Unlock()
	})
	sess.ctrl.OnRouteChanged(sess.sendRoute)

	if s.tracker != nil {
		sess.onClose(s.tracker.Attach(id, sess.ctrl, sess.hist))
	}
	if s.metrics != nil {
		s.metrics.SessionOpened()
		sess.onClose(s.metrics.SessionClosed)
		sess.onProtocolError = func(err error) {
			op := "unknown"
			var perr *ProtocolError
			if errors.As(err, &perr) {
				op = perr.Op
			}
			s.metrics.ProtocolError(op)
		}
	}
	if s.setup != nil {
		s.setup(sess)
	}
	return sess, resumed
}

// Run starts the server and blocks until ctx is done or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s.router,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			"address", s.config.Address,
			"base", s.codec.Base,
			"mode", s.codec.Mode.String())
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes every session and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.mu.Lock()
	open := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		open = append(open, sess)
	}
	s.mu.Unlock()
	for _, sess := range open {
		sess.Close()
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}
