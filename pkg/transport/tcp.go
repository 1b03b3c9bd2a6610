package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// TCP is the raw stream-socket transport.
type TCP struct {
	opts Options

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	closed bool
}

// NewTCP returns an unconnected stream transport.
func NewTCP(opts *Options) *TCP {
	return &TCP{opts: opts.withDefaults()}
}

// NewTCPConn wraps an already established connection, as accepted by a
// listener. Connect on the result fails.
func NewTCPConn(conn net.Conn) *TCP {
	t := &TCP{opts: (*Options)(nil).withDefaults()}
	t.attach(conn)
	return t
}

func (t *TCP) attach(conn net.Conn) {
	t.conn = conn
	t.reader = bufio.NewReaderSize(conn, t.opts.ReadBufferSize)
	t.closed = false
}

// Connect dials the gate. A TCP transport may be reconnected after Close.
func (t *TCP) Connect(ctx context.Context) error {
	t.mu.Lock()
	if t.conn != nil && !t.closed {
		t.mu.Unlock()
		return fmt.Errorf("%w: already connected", ErrConnection)
	}
	t.mu.Unlock()

	dialer := net.Dialer{
		Timeout:   t.opts.DialTimeout,
		KeepAlive: t.opts.KeepAlive,
	}
	conn, err := dialer.DialContext(ctx, "tcp", t.opts.Address)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %w", ErrConnection, t.opts.Address, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}

	t.mu.Lock()
	t.attach(conn)
	t.mu.Unlock()
	return nil
}

func (t *TCP) current() (net.Conn, *bufio.Reader, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil, nil, ErrNotConnected
	}
	return t.conn, t.reader, nil
}

// Send writes p in full.
func (t *TCP) Send(p []byte) error {
	conn, _, err := t.current()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	if t.opts.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(t.opts.WriteTimeout))
	}
	if _, err := conn.Write(p); err != nil {
		return fmt.Errorf("%w: write: %w", ErrConnection, err)
	}
	return nil
}

// ReceiveExactly reads exactly n bytes, reassembling across short reads.
func (t *TCP) ReceiveExactly(n int) ([]byte, error) {
	_, reader, err := t.current()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionClosed, err)
	}
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	if _, err := io.ReadFull(reader, buf); err != nil {
		return nil, classifyReadError(err)
	}
	return buf, nil
}

// Close closes the socket. Pending reads and writes fail immediately.
func (t *TCP) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil || t.closed {
		return nil
	}
	t.closed = true
	_ = t.conn.Close()
	return nil
}

// RemoteAddr returns the peer address, or nil when not connected.
func (t *TCP) RemoteAddr() net.Addr {
	conn, _, err := t.current()
	if err != nil {
		return nil
	}
	return conn.RemoteAddr()
}
