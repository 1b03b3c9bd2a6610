package gatemock

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/shazhongcheng/TestGoServer/pkg/protocol"
	"github.com/shazhongcheng/TestGoServer/pkg/transport"
)

// ErrServerClosed is returned by Serve after Close.
var ErrServerClosed = errors.New("gatemock: server closed")

// Server is an in-process gate. It speaks the stream protocol on TCP
// listeners and the message protocol on its /ws HTTP endpoint.
type Server struct {
	cfg      *Config
	logger   *slog.Logger
	upgrader websocket.Upgrader
	router   chi.Router

	mu        sync.Mutex
	closed    bool
	listeners map[net.Listener]struct{}
	conns     map[*conn]struct{}
	sessions  map[int64]*gateSession
	players   map[string]int64

	nextSession atomic.Int64
	nextPlayer  atomic.Int64

	wg    sync.WaitGroup
	stats counters
}

// gateSession is what a resume needs to rebind a connection. It may be
// shared by an old and a new connection, so playerID is atomic.
type gateSession struct {
	id       int64
	token    string
	playerID atomic.Int64
}

// New creates a gate with no listeners.
func New(cfg *Config) *Server {
	cfg = cfg.withDefaults()
	s := &Server{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "gatemock"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		listeners: make(map[net.Listener]struct{}),
		conns:     make(map[*conn]struct{}),
		sessions:  make(map[int64]*gateSession),
		players:   make(map[string]int64),
	}
	s.nextSession.Store(cfg.FirstSessionID - 1)
	s.nextPlayer.Store(10000)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Get("/ws", s.HandleWebSocket)
	s.router = r
	return s
}

// Handler returns the HTTP handler serving /ws and /healthz.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenTCP listens on addr and serves it in the background. It returns the
// bound address, which resolves a ":0" port.
func (s *Server) ListenTCP(addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.Serve(ln); err != nil && !errors.Is(err, ErrServerClosed) {
			s.logger.Error("tcp listener stopped", "error", err)
		}
	}()
	return ln.Addr(), nil
}

// Serve accepts stream connections on ln until Close. It always returns a
// non-nil error.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return ErrServerClosed
	}
	s.listeners[ln] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.listeners, ln)
		s.mu.Unlock()
	}()

	for {
		nc, err := ln.Accept()
		if err != nil {
			if s.isClosed() {
				return ErrServerClosed
			}
			return err
		}
		t := transport.NewTCPConn(nc)
		c := s.newConn(t, protocol.Binary{}, nc.RemoteAddr().String())
		if c == nil {
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			c.serve()
		}()
	}
}

// HandleWebSocket upgrades the request and serves the connection until it
// ends.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	ws.SetReadLimit(int64(s.cfg.MaxMessageSize))

	var codec protocol.Codec = protocol.Binary{}
	if s.cfg.WebSocketJSON {
		codec = protocol.JSON{}
	}
	c := s.newConn(transport.NewWebSocketConn(ws, s.cfg.WebSocketJSON), codec, r.RemoteAddr)
	if c == nil {
		return
	}
	s.wg.Add(1)
	defer s.wg.Done()
	c.serve()
}

// newConn registers a connection and its fresh session. It returns nil, and
// closes t, once the server is closed.
func (s *Server) newConn(t transport.Transport, codec protocol.Codec, remote string) *conn {
	sess := &gateSession{
		id:    s.nextSession.Add(1),
		token: newToken(),
	}
	c := &conn{
		srv:     s,
		framer:  transport.NewFramer(t, s.cfg.MaxMessageSize),
		codec:   codec,
		done:    make(chan struct{}),
		session: sess,
		logger:  s.logger.With("session_id", sess.id, "remote", remote),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		_ = t.Close()
		return nil
	}
	s.conns[c] = struct{}{}
	s.sessions[sess.id] = sess
	s.stats.accepted.Add(1)
	return c
}

func (s *Server) removeConn(c *conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

// lookupSession returns the session a resume names if the token matches.
func (s *Server) lookupSession(id int64, token string) (*gateSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.token != token {
		return nil, false
	}
	return sess, true
}

// playerFor returns the stable player id of an account.
func (s *Server) playerFor(accountID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.players[accountID]; ok {
		return id
	}
	id := s.nextPlayer.Add(1)
	s.players[accountID] = id
	return id
}

// Kick notifies the connection bound to sessionID that its player went
// offline and closes it. The session stays resumable. It reports whether a
// connection was found.
func (s *Server) Kick(sessionID int64, reason string) bool {
	s.mu.Lock()
	var target *conn
	for c := range s.conns {
		if c.boundSession() == sessionID {
			target = c
			break
		}
	}
	s.mu.Unlock()
	if target == nil {
		return false
	}
	target.logger.Info("kick", "reason", reason)
	_ = target.reply(protocol.KindPlayerOffline, nil)
	target.close()
	return true
}

// Close stops every listener, closes every connection and waits for their
// goroutines. It is idempotent.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.wg.Wait()
		return nil
	}
	s.closed = true
	for ln := range s.listeners {
		ln.Close()
	}
	conns := make([]*conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.close()
	}
	s.wg.Wait()
	return nil
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Stats returns the gate's cumulative counters.
func (s *Server) Stats() Stats {
	return s.stats.snapshot()
}

// newToken returns a random URL-safe token.
func newToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("gatemock: crypto/rand failed: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
