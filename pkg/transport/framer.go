package transport

import (
	"encoding/binary"
	"fmt"
)

// Frame constants.
const (
	// HeaderSize is the size of the stream length prefix in bytes.
	HeaderSize = 4

	// DefaultMaxMessageSize matches the gate's default max_envelope_size.
	DefaultMaxMessageSize = 4 * 1024 * 1024
)

// Framer reads and writes whole envelope bodies over a Transport.
//
// Wire format on stream transports:
//
//	┌───────────────────────────────┬─────────────────────────────┐
//	│ Body Length                   │ Body                        │
//	│ (4 bytes, big-endian uint32)  │ (Body Length bytes)         │
//	└───────────────────────────────┴─────────────────────────────┘
//
// On a MessageTransport the prefix is omitted and each message is one body.
// The body is never inspected.
type Framer struct {
	t       Transport
	mt      MessageTransport
	maxSize int
}

// NewFramer returns a Framer over t. A maxSize of zero selects
// DefaultMaxMessageSize.
func NewFramer(t Transport, maxSize int) *Framer {
	if maxSize <= 0 {
		maxSize = DefaultMaxMessageSize
	}
	f := &Framer{t: t, maxSize: maxSize}
	if mt, ok := t.(MessageTransport); ok {
		f.mt = mt
	}
	return f
}

// Transport returns the underlying transport.
func (f *Framer) Transport() Transport {
	return f.t
}

// MessageFramed reports whether the transport provides framing itself.
func (f *Framer) MessageFramed() bool {
	return f.mt != nil
}

// Encode returns body with its length prefix.
func Encode(body []byte) []byte {
	buf := make([]byte, HeaderSize+len(body))
	binary.BigEndian.PutUint32(buf, uint32(len(body)))
	copy(buf[HeaderSize:], body)
	return buf
}

// WriteMessage writes one body as a single Send so that the prefix and the
// body cannot be split by another writer.
func (f *Framer) WriteMessage(body []byte) error {
	if len(body) > f.maxSize {
		return fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, len(body), f.maxSize)
	}
	if f.mt != nil {
		return f.t.Send(body)
	}
	return f.t.Send(Encode(body))
}

// ReadMessage blocks until one whole body is available. A stream that ends
// inside a header or body yields ErrConnectionClosed.
func (f *Framer) ReadMessage() ([]byte, error) {
	if f.mt != nil {
		body, err := f.mt.ReceiveMessage()
		if err != nil {
			return nil, err
		}
		if len(body) > f.maxSize {
			return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, len(body), f.maxSize)
		}
		return body, nil
	}

	header, err := f.t.ReceiveExactly(HeaderSize)
	if err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(header)
	if uint64(size) > uint64(f.maxSize) {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, size, f.maxSize)
	}
	body, err := f.t.ReceiveExactly(int(size))
	if err != nil {
		return nil, err
	}
	return body, nil
}
