package client

import (
	"errors"
	"fmt"

	"github.com/shazhongcheng/TestGoServer/pkg/protocol"
	"github.com/shazhongcheng/TestGoServer/pkg/transport"
)

// Sentinel errors. Every error returned by an Engine matches exactly one of
// them through errors.Is.
var (
	// ErrConnection is a transport-level connect, send or receive failure.
	// It is terminal for the connection; the engine does not reconnect.
	ErrConnection = transport.ErrConnection

	// ErrConnectionClosed is returned to pending calls when the gate ends the
	// stream.
	ErrConnectionClosed = transport.ErrConnectionClosed

	// ErrProtocolDecode is a malformed envelope or payload.
	ErrProtocolDecode = protocol.ErrDecode

	// ErrTimeout is returned when a wait exceeds its deadline. The
	// connection stays open.
	ErrTimeout = errors.New("client: timeout")

	// ErrInvalidState is returned synchronously when an operation is called
	// before its precondition holds. Nothing is sent.
	ErrInvalidState = errors.New("client: invalid state")

	// ErrClosed is returned to pending calls when Close ends the connection.
	ErrClosed = errors.New("client: engine closed")

	// ErrSuperseded resolves an outstanding call replaced by a newer call of
	// the same kind.
	ErrSuperseded = errors.New("client: superseded by a newer request")

	// ErrResumeRejected is returned when the gate answers a resume with
	// ok=false.
	ErrResumeRejected = errors.New("client: resume rejected")
)

// OpError wraps an error with the operation that failed.
type OpError struct {
	Engine int    // Engine index, as configured
	Op     string // Operation that failed
	Err    error  // Underlying error
}

// Error returns the error message with operation context.
func (e *OpError) Error() string {
	return fmt.Sprintf("client %d: %s: %v", e.Engine, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *OpError) Unwrap() error {
	return e.Err
}

// ServerError is an ErrorRsp sent by the gate in answer to a request.
type ServerError struct {
	Code    protocol.ErrorCode
	Message string
}

// Error returns the gate's code and message.
func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("client: gate error %d (%s)", int32(e.Code), e.Code)
	}
	return fmt.Sprintf("client: gate error %d (%s): %s", int32(e.Code), e.Code, e.Message)
}

func invalidState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}
