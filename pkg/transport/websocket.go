package transport

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// closeGrace bounds the close handshake write on shutdown.
const closeGrace = time.Second

// WebSocket is the message-framed transport. Each Send is one WebSocket
// message and each ReceiveMessage returns one.
type WebSocket struct {
	opts   Options
	dialer *websocket.Dialer

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool

	// pending holds bytes of a partially consumed message. Only the single
	// reader touches it.
	pending []byte
}

var _ MessageTransport = (*WebSocket)(nil)

// NewWebSocket returns an unconnected WebSocket transport.
func NewWebSocket(opts *Options) *WebSocket {
	o := opts.withDefaults()
	return &WebSocket{
		opts: o,
		dialer: &websocket.Dialer{
			HandshakeTimeout: o.DialTimeout,
			ReadBufferSize:   o.ReadBufferSize,
			WriteBufferSize:  o.ReadBufferSize,
		},
	}
}

// NewWebSocketConn wraps a server-side connection produced by an Upgrader.
func NewWebSocketConn(conn *websocket.Conn, textFrames bool) *WebSocket {
	o := (*Options)(nil).withDefaults()
	o.Network = NetworkWebSocket
	o.TextFrames = textFrames
	return &WebSocket{opts: o, conn: conn}
}

// URL returns the endpoint the transport dials.
func (w *WebSocket) URL() string {
	u := url.URL{Scheme: "ws", Host: w.opts.Address, Path: w.opts.Path}
	return u.String()
}

// Connect performs the WebSocket handshake.
func (w *WebSocket) Connect(ctx context.Context) error {
	w.mu.Lock()
	if w.conn != nil && !w.closed {
		w.mu.Unlock()
		return fmt.Errorf("%w: already connected", ErrConnection)
	}
	w.mu.Unlock()

	if w.dialer == nil {
		return fmt.Errorf("%w: server-side connection cannot dial", ErrConnection)
	}

	conn, resp, err := w.dialer.DialContext(ctx, w.URL(), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("%w: dial %s: %w", ErrConnection, w.URL(), err)
	}
	conn.SetReadLimit(int64(w.opts.MaxMessageSize))

	w.mu.Lock()
	w.conn = conn
	w.closed = false
	w.pending = nil
	w.mu.Unlock()
	return nil
}

func (w *WebSocket) current() (*websocket.Conn, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		return nil, ErrNotConnected
	}
	return w.conn, nil
}

// Send writes p as a single message.
func (w *WebSocket) Send(p []byte) error {
	conn, err := w.current()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	messageType := websocket.BinaryMessage
	if w.opts.TextFrames {
		messageType = websocket.TextMessage
	}
	if w.opts.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(w.opts.WriteTimeout))
	}
	if err := conn.WriteMessage(messageType, p); err != nil {
		return fmt.Errorf("%w: write: %w", ErrConnection, err)
	}
	return nil
}

// ReceiveMessage returns the next whole message.
func (w *WebSocket) ReceiveMessage() ([]byte, error) {
	if len(w.pending) > 0 {
		msg := w.pending
		w.pending = nil
		return msg, nil
	}
	conn, err := w.current()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionClosed, err)
	}
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, wsReadError(err)
	}
	return msg, nil
}

// ReceiveExactly returns n bytes drawn from consecutive messages. It lets a
// length-prefixed Framer run over a WebSocket when message framing is not
// wanted.
func (w *WebSocket) ReceiveExactly(n int) ([]byte, error) {
	for len(w.pending) < n {
		conn, err := w.current()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConnectionClosed, err)
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return nil, wsReadError(err)
		}
		w.pending = append(w.pending, msg...)
	}
	out := make([]byte, n)
	copy(out, w.pending[:n])
	w.pending = w.pending[n:]
	if len(w.pending) == 0 {
		w.pending = nil
	}
	return out, nil
}

func wsReadError(err error) error {
	if errors.Is(err, websocket.ErrReadLimit) {
		return fmt.Errorf("%w: %w", ErrFrameTooLarge, err)
	}
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return fmt.Errorf("%w: %w", ErrConnectionClosed, err)
	}
	return classifyReadError(err)
}

// Close sends a normal close frame and closes the socket.
func (w *WebSocket) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil || w.closed {
		return nil
	}
	w.closed = true
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
	_ = w.conn.Close()
	return nil
}
