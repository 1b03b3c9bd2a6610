package protocol

import (
	"errors"
	"fmt"
)

// ErrDecode is matched by every decode failure.
var ErrDecode = errors.New("protocol: decode error")

// DecodeError reports a body or payload that does not parse as the message
// its id declares.
type DecodeError struct {
	MsgID   MsgID  // Envelope id, zero when decoding the envelope itself
	Message string // Message type that was expected
	Err     error
}

func (e *DecodeError) Error() string {
	if e.MsgID != 0 {
		return fmt.Sprintf("protocol: decode %s (msg %d): %v", e.Message, e.MsgID, e.Err)
	}
	return fmt.Sprintf("protocol: decode %s: %v", e.Message, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrDecode.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// ErrorCode is the code carried by an error response.
type ErrorCode int32

const (
	CodeOK              ErrorCode = 0
	CodeUnknown         ErrorCode = 1000 // Unrecognized request or internal failure
	CodeInvalidParam    ErrorCode = 1001 // Malformed request payload
	CodeUnauthorized    ErrorCode = 1002 // Request before login
	CodeInvalidToken    ErrorCode = 1003 // Token rejected
	CodeSessionExpired  ErrorCode = 1004 // Session no longer resumable
	CodeUnknownPlatform ErrorCode = 10005
	CodeLoginFailed     ErrorCode = 1100
	CodePlayerNotReady  ErrorCode = 2000
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	switch c {
	case CodeOK:
		return "OK"
	case CodeUnknown:
		return "Unknown"
	case CodeInvalidParam:
		return "InvalidParam"
	case CodeUnauthorized:
		return "Unauthorized"
	case CodeInvalidToken:
		return "InvalidToken"
	case CodeSessionExpired:
		return "SessionExpired"
	case CodeUnknownPlatform:
		return "UnknownPlatform"
	case CodeLoginFailed:
		return "LoginFailed"
	case CodePlayerNotReady:
		return "PlayerNotReady"
	default:
		return fmt.Sprintf("Code(%d)", int32(c))
	}
}
