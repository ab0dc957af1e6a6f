package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tickerhub/relay/internal/auth"
	"github.com/tickerhub/relay/internal/config"
	"github.com/tickerhub/relay/internal/dispatch"
	"github.com/tickerhub/relay/internal/gateway"
	"github.com/tickerhub/relay/internal/protocol"
	"github.com/tickerhub/relay/internal/scheduler"
	"github.com/tickerhub/relay/internal/session"
)

// Pinger reports health of a backing collaborator.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server accepts client connections and runs their read loops.
type Server struct {
	cfg        config.ServerConfig
	registry   *session.Registry
	gw         *gateway.Gateway
	sched      *scheduler.Scheduler
	dispatcher *dispatch.Dispatcher
	verifier   auth.Verifier
	health     Pinger
	logger     *slog.Logger

	defaultSymbols []string

	upgrader   websocket.Upgrader
	httpServer *http.Server
	wg         sync.WaitGroup
}

// New creates a Server. health may be nil.
func New(
	cfg config.ServerConfig,
	registry *session.Registry,
	gw *gateway.Gateway,
	sched *scheduler.Scheduler,
	dispatcher *dispatch.Dispatcher,
	verifier auth.Verifier,
	health Pinger,
	defaultSymbols []string,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:            cfg,
		registry:       registry,
		gw:             gw,
		sched:          sched,
		dispatcher:     dispatcher,
		verifier:       verifier,
		health:         health,
		logger:         logger,
		defaultSymbols: defaultSymbols,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser clients connect from the dashboard origin;
			// credential checking happens in the handshake, not here.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	// Every closure path funnels through Drop.
	gw.OnSendFailure(s.Drop)

	return s
}

// Handler returns the HTTP handler serving /ws and /health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start begins serving on the configured address.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.Handler(),
	}

	go func() {
		s.logger.Info("relay server listening", "addr", s.cfg.Addr)
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("relay server error", "error", err)
		}
	}()

	return nil
}

// Stop closes every live session and shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	for _, sess := range s.registry.Snapshot() {
		s.Drop(sess.ID, "server shutdown")
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("timed out waiting for session read loops")
	}

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Drop removes a session, cancels its streaming task and closes its
// transport — in that order, exactly once. Safe to call from any
// component and any number of times; only the first call for a live id
// does work.
func (s *Server) Drop(id, reason string) {
	sess, ok := s.registry.Remove(id)
	if !ok {
		return
	}
	s.sched.Cancel(id)
	sess.Transport.Close()

	s.logger.Info("session closed",
		"session_id", id,
		"user_id", sess.UserID,
		"reason", reason,
	)
}

// handleWS performs the handshake and runs the session.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		http.Error(w, "websocket upgrade required", http.StatusBadRequest)
		return
	}

	userID := r.URL.Query().Get("userId")
	apiKey := r.URL.Query().Get("apiKey")
	if userID == "" || apiKey == "" {
		http.Error(w, "userId and apiKey are required", http.StatusBadRequest)
		return
	}

	if err := s.verifier.Verify(r.Context(), userID, apiKey); err != nil {
		s.logger.Warn("handshake rejected", "user_id", userID, "error", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		s.logger.Warn("upgrade failed", "user_id", userID, "error", err)
		return
	}

	id := session.NewID(userID)
	transport := newWSTransport(conn, s.cfg.WriteTimeout)

	sess, err := s.registry.Create(id, userID, transport, s.defaultSymbols)
	if err != nil {
		// Id collision should be impossible; fatal to this connection
		// attempt only.
		s.logger.Error("session create failed", "session_id", id, "error", err)
		transport.Close()
		return
	}

	s.logger.Info("session opened",
		"session_id", id,
		"user_id", userID,
		"subscriptions", len(s.defaultSymbols),
	)

	symbols, _ := s.registry.Symbols(id)
	if err := s.gw.Push(id, protocol.NewWelcome(id, symbols)); err != nil {
		// Push already dropped the session on transport failure.
		return
	}

	s.sched.Schedule(id)

	// Block the handler goroutine for the life of the connection; the
	// request context dies when this handler returns, so dispatch runs
	// off a fresh one.
	s.wg.Add(1)
	defer s.wg.Done()
	s.readLoop(context.Background(), sess, conn)
}

// readLoop consumes inbound frames for one session. Frames are handled
// in arrival order; a read error of any kind ends the session.
func (s *Server) readLoop(ctx context.Context, sess *session.Session, conn *websocket.Conn) {
	conn.SetReadLimit(s.cfg.ReadLimit)
	conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		// Control-frame pongs count as liveness too.
		s.registry.Touch(sess.ID)
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			reason := "connection closed"
			if !websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
			) {
				reason = "read error"
			}
			s.Drop(sess.ID, reason)
			return
		}

		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		s.dispatcher.Dispatch(ctx, sess.ID, data)
	}
}

// handleHealth reports store connectivity and session counts.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := struct {
		Status     string         `json:"status"`
		Components map[string]any `json:"components"`
	}{
		Status:     "healthy",
		Components: make(map[string]any),
	}

	if s.health != nil {
		if err := s.health.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["store"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["store"] = "connected"
		}
	}

	stats := s.registry.Stats()
	health.Components["sessions"] = map[string]any{
		"live":    stats.Live,
		"created": stats.Created,
		"removed": stats.Removed,
	}
	health.Components["stream_tasks"] = s.sched.TaskCount()

	w.Header().Set("Content-Type", "application/json")
	if health.Status == "unhealthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(health)
}
