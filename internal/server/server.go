// Package server implements the Server Loop: it accepts WebSocket
// connections, parameterizes the transport, assigns each connection a
// monotonically increasing user id, and dispatches it to a Connection
// Handler.
package server

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/machanirobotics-labs/sttgateway/internal/config"
	"github.com/machanirobotics-labs/sttgateway/internal/engine"
	"github.com/machanirobotics-labs/sttgateway/internal/logging"
	"github.com/machanirobotics-labs/sttgateway/internal/transport"
)

const (
	maxFramePayloadBytes = 16 * 1024 * 1024
	idleTimeout          = 120 * time.Second
	pingInterval         = idleTimeout / 3
)

// Server owns the HTTP/WebSocket listener and the per-session defaults every
// accepted connection is constructed with.
type Server struct {
	cfg    config.ServerConfig
	params config.Params
	eng    engine.Engine

	upgrader websocket.Upgrader
	// nextUserID is incremented on each accept so the first connection
	// gets user_id 1, matching whisper.cpp's websocket-server.cpp
	// (std::atomic<int> next_user_id{1}).
	nextUserID atomic.Uint64
}

// New constructs a Server bound to eng, ready to accept connections once
// ListenAndServe is called.
func New(cfg config.ServerConfig, params config.Params, eng engine.Engine) *Server {
	s := &Server{
		cfg:    cfg,
		params: params,
		eng:    eng,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// No per-frame compression.
			EnableCompression: false,
			CheckOrigin:       func(r *http.Request) bool { return true },
		},
	}
	// nextUserID.Add(1) returns the post-increment value, so starting the
	// counter at 0 makes the first connection's user_id come out to 1.
	s.nextUserID.Store(0)
	return s
}

// Handler returns the http.Handler that upgrades and services connections,
// so tests can drive it with httptest.NewServer without binding a real
// port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleConnection)
	return mux
}

// ListenAndServe binds cfg.Port and serves until the process is terminated
// or the listener fails. The caller is expected to turn a returned error
// into a non-zero process exit; a bind failure is fatal to the server, not
// to any individual session.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	logging.Infow("server: listening", "addr", addr, "host", s.cfg.Host, "port", s.cfg.Port)

	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	if err := srv.ListenAndServe(); err != nil {
		logging.Errorw("server: listen failed", "addr", addr, "err", err)
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

func (s *Server) handleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warnw("server: websocket upgrade failed", "err", err)
		return
	}

	userID := s.nextUserID.Add(1)
	connID := uuid.NewString()
	conn.SetReadLimit(maxFramePayloadBytes)

	logging.Infow("server: connection opened", "user_id", userID, "conn_id", connID, "remote", r.RemoteAddr)

	armDeadlines(conn)
	stopPing := startPingLoop(conn, connID)
	defer stopPing()

	h := transport.NewHandler(wsConnAdapter{conn}, userID, s.params, s.eng)
	if err := h.Run(r.Context()); err != nil {
		logging.Infow("server: connection closed", "user_id", userID, "conn_id", connID, "err", err)
	}
	_ = conn.Close()
}

// armDeadlines installs the idle-timeout read deadline and a pong handler
// that refreshes it, so the ping keepalive loop and the client's pongs
// jointly keep the connection alive across the 120s window.
func armDeadlines(conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(idleTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(idleTimeout))
	})
}

func startPingLoop(conn *websocket.Conn, connID string) (stop func()) {
	ticker := time.NewTicker(pingInterval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					logging.Warnw("server: ping failed", "conn_id", connID, "err", err)
					return
				}
			case <-done:
				return
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}

// wsConnAdapter narrows *websocket.Conn to transport.Conn.
type wsConnAdapter struct {
	*websocket.Conn
}

func (w wsConnAdapter) WriteJSON(v interface{}) error {
	return w.Conn.WriteJSON(v)
}
