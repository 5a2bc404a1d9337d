// Package gateway serves client messages over WebSocket connections.
package gateway

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"deusvent/internal/auth"
	"deusvent/internal/config"
	"deusvent/internal/handlers"
	"deusvent/internal/redirect"
)

const (
	maxMessageSize = 64 << 10
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	// maxInFlight caps the messages handled at once on a connection. Reading
	// stops until a slot frees up.
	maxInFlight = 16
)

// Server upgrades HTTP requests to WebSocket connections and routes every
// text frame through the router.
type Server struct {
	router   *handlers.Router
	secret   string
	upgrader websocket.Upgrader

	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	closed bool
}

// NewServer returns a server validating bearer tokens with secret.
func NewServer(router *handlers.Router, secret string) *Server {
	return &Server{
		router: router,
		secret: secret,
		conns:  make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Native clients send no Origin header, browsers are welcome.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP routes wrapped with the canonical domain redirect.
func (s *Server) Handler(canonicalDomain string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.serveWS)
	mux.HandleFunc("GET /health", serveHealth)
	return redirect.Middleware(canonicalDomain, mux)
}

func serveHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"body":"ok"}`))
}

// requestToken returns the bearer token of the Authorization header or the
// token query parameter.
func requestToken(r *http.Request) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		return auth.BearerToken(h)
	}
	if tok := r.URL.Query().Get("token"); tok != "" {
		return tok, nil
	}
	return "", auth.ErrNoToken
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	tok, err := requestToken(r)
	switch {
	case errors.Is(err, auth.ErrNoToken):
	case err != nil:
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	default:
		p, err := auth.ParseToken(tok, s.secret)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		ctx = auth.WithPrincipal(ctx, p)
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[gateway] upgrade: %v", err)
		return
	}
	if !s.track(conn) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	defer s.untrack(conn)
	s.serveConn(ctx, conn)
}

func (s *Server) track(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

// CloseConnections sends a going away frame to every open WebSocket and
// closes it. Connections upgraded afterwards are refused.
func (s *Server) CloseConnections() {
	s.mu.Lock()
	s.closed = true
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	deadline := time.Now().Add(writeWait)
	for _, c := range conns {
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), deadline)
		_ = c.Close()
	}
	if len(conns) > 0 {
		log.Printf("[gateway] closed %d connections", len(conns))
	}
}

// serveConn reads frames until the connection fails. Messages are handled
// concurrently, up to maxInFlight at once; responses carry the request id so
// order doesn't matter.
func (s *Server) serveConn(ctx context.Context, conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(ctx)
	var (
		writeMu sync.Mutex
		wg      sync.WaitGroup
	)
	sem := make(chan struct{}, maxInFlight)
	defer func() {
		cancel()
		wg.Wait()
		_ = conn.Close()
	}()

	write := func(messageType int, data []byte) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(messageType, data)
	}

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := write(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[gateway] read: %v", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		if messageType != websocket.TextMessage {
			continue
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(msg string) {
			defer func() {
				<-sem
				wg.Done()
			}()
			resp := s.router.Handle(ctx, msg)
			if err := write(websocket.TextMessage, []byte(resp)); err != nil {
				log.Printf("[gateway] write: %v", err)
			}
		}(string(data))
	}
}

// newHTTPServer returns the gateway HTTP server. Its Shutdown also closes the
// open WebSockets, which http.Server doesn't track once hijacked.
func newHTTPServer(cfg *config.Config, router *handlers.Router) *http.Server {
	gw := NewServer(router, cfg.Auth.JWTSecret)
	srv := &http.Server{
		Handler:           gw.Handler(cfg.Gateway.CanonicalDomain),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(gw.CloseConnections)
	return srv
}

// Start serves the gateway on the configured address and returns a shutdown
// function.
func Start(cfg *config.Config, router *handlers.Router) (func(context.Context) error, error) {
	if cfg == nil {
		panic("config is required")
	}
	addr := cfg.Gateway.Address
	if addr == "" {
		addr = ":8080"
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	srv := newHTTPServer(cfg, router)
	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[gateway] serve: %v", err)
		}
	}()
	return srv.Shutdown, nil
}
