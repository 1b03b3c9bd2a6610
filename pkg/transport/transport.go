package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// Transport errors.
var (
	// ErrConnection is returned when a connect, send, or receive fails at the
	// socket level. It is terminal for the connection.
	ErrConnection = errors.New("transport: connection error")

	// ErrConnectionClosed is returned by receive operations when the peer (or
	// a local Close) ends the stream before the requested data was available.
	ErrConnectionClosed = errors.New("transport: connection closed")

	// ErrNotConnected is returned when an operation needs an open connection.
	ErrNotConnected = errors.New("transport: not connected")

	// ErrFrameTooLarge is returned when a peer announces a frame larger than
	// the configured maximum.
	ErrFrameTooLarge = errors.New("transport: frame too large")
)

// Transport is a byte-stream connection to the gate.
//
// Send and Close may be called concurrently with ReceiveExactly. Send itself
// is not safe for concurrent use; callers serialize writes.
type Transport interface {
	// Connect opens the connection. It fails with ErrConnection.
	Connect(ctx context.Context) error

	// Send writes p as one unit. It fails with ErrConnection.
	Send(p []byte) error

	// ReceiveExactly blocks until n bytes are available. It fails with
	// ErrConnectionClosed if the stream ends first.
	ReceiveExactly(n int) ([]byte, error)

	// Close releases the connection. It is idempotent.
	Close() error
}

// MessageTransport is implemented by transports that preserve message
// boundaries natively. A Framer over a MessageTransport omits the length
// prefix and exchanges one body per message.
type MessageTransport interface {
	Transport

	// ReceiveMessage blocks until one whole message is available.
	ReceiveMessage() ([]byte, error)
}

// Network selects the transport variant.
type Network string

const (
	NetworkTCP       Network = "tcp"
	NetworkWebSocket Network = "ws"
)

// Options configures a transport.
type Options struct {
	// Network is the variant to dial.
	// Default: tcp.
	Network Network

	// Address is the gate address as host:port.
	Address string

	// Path is the WebSocket endpoint path.
	// Default: "/ws".
	Path string

	// TextFrames sends WebSocket text messages instead of binary ones. It is
	// paired with the JSON envelope codec.
	TextFrames bool

	// DialTimeout bounds Connect when the context has no earlier deadline.
	// Default: 5 seconds.
	DialTimeout time.Duration

	// KeepAlive is the TCP keep-alive period.
	// Default: 30 seconds.
	KeepAlive time.Duration

	// WriteTimeout bounds each Send. Zero disables the deadline.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// ReadBufferSize is the size of the receive buffer.
	// Default: 4096.
	ReadBufferSize int

	// MaxMessageSize is the largest inbound WebSocket message accepted.
	// Larger messages fail the read with ErrFrameTooLarge before they are
	// buffered.
	// Default: DefaultMaxMessageSize.
	MaxMessageSize int
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() *Options {
	return &Options{
		Network:        NetworkTCP,
		Path:           "/ws",
		DialTimeout:    5 * time.Second,
		KeepAlive:      30 * time.Second,
		WriteTimeout:   10 * time.Second,
		ReadBufferSize: 4096,
		MaxMessageSize: DefaultMaxMessageSize,
	}
}

// Clone returns a copy of the Options.
func (o *Options) Clone() *Options {
	if o == nil {
		return nil
	}
	clone := *o
	return &clone
}

func (o *Options) withDefaults() Options {
	out := *DefaultOptions()
	if o == nil {
		return out
	}
	out.Address = o.Address
	out.TextFrames = o.TextFrames
	if o.Network != "" {
		out.Network = o.Network
	}
	if o.Path != "" {
		out.Path = o.Path
	}
	if o.DialTimeout > 0 {
		out.DialTimeout = o.DialTimeout
	}
	if o.KeepAlive != 0 {
		out.KeepAlive = o.KeepAlive
	}
	if o.WriteTimeout != 0 {
		out.WriteTimeout = o.WriteTimeout
	}
	if o.ReadBufferSize > 0 {
		out.ReadBufferSize = o.ReadBufferSize
	}
	if o.MaxMessageSize > 0 {
		out.MaxMessageSize = o.MaxMessageSize
	}
	if !strings.HasPrefix(out.Path, "/") {
		out.Path = "/" + out.Path
	}
	return out
}

// New returns an unconnected transport of the variant named by opts.Network.
func New(opts *Options) (Transport, error) {
	network := NetworkTCP
	if opts != nil && opts.Network != "" {
		network = opts.Network
	}
	switch network {
	case NetworkTCP:
		return NewTCP(opts), nil
	case NetworkWebSocket:
		return NewWebSocket(opts), nil
	default:
		return nil, fmt.Errorf("transport: unknown network %q", network)
	}
}

// classifyReadError maps a read failure onto the transport taxonomy.
func classifyReadError(err error) error {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, net.ErrClosed):
		return fmt.Errorf("%w: %w", ErrConnectionClosed, err)
	default:
		return fmt.Errorf("%w: read: %w", ErrConnection, err)
	}
}
