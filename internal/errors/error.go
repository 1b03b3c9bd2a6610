package errors

import (
	"errors"
	"fmt"

	"github.com/shazhongcheng/TestGoServer/pkg/client"
)

// Category groups errors by the part of the probe that raised them.
type Category string

const (
	CategoryConnection Category = "connection"
	CategoryProtocol   Category = "protocol"
	CategorySession    Category = "session"
	CategoryConfig     Category = "config"
	CategoryReport     Category = "report"
	CategoryCLI        Category = "cli"
)

// GateError is a structured, user-facing error with a code and a hint.
type GateError struct {
	// Code is a unique error identifier (e.g., "G001").
	Code string

	// Category is the error group.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *GateError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *GateError) Unwrap() error {
	return e.Wrapped
}

// WithDetail sets the detailed explanation.
func (e *GateError) WithDetail(d string) *GateError {
	e.Detail = d
	return e
}

// WithSuggestion sets the fix hint.
func (e *GateError) WithSuggestion(s string) *GateError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *GateError) Wrap(err error) *GateError {
	e.Wrapped = err
	return e
}

// New creates a GateError from a registered code.
func New(code string) *GateError {
	template, ok := registry[code]
	if !ok {
		return &GateError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &GateError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates an uncoded GateError with a formatted message.
func Newf(category Category, format string, args ...any) *GateError {
	return &GateError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps err in a GateError with the given code. An err that
// already is a GateError is returned as is.
func FromError(err error, code string) *GateError {
	if err == nil {
		return nil
	}
	var ge *GateError
	if errors.As(err, &ge) {
		return ge
	}
	return New(code).Wrap(err)
}

// Classify maps an engine error onto its registered code. Errors outside the
// engine taxonomy get fallback.
func Classify(err error, fallback string) *GateError {
	if err == nil {
		return nil
	}
	var ge *GateError
	if errors.As(err, &ge) {
		return ge
	}

	var serverErr *client.ServerError
	switch {
	case errors.As(err, &serverErr):
		return New("G007").Wrap(err).
			WithDetail(fmt.Sprintf("The gate answered with code %d (%s).", int32(serverErr.Code), serverErr.Code))
	case errors.Is(err, client.ErrTimeout):
		return New("G004").Wrap(err)
	case errors.Is(err, client.ErrResumeRejected):
		return New("G006").Wrap(err)
	case errors.Is(err, client.ErrInvalidState):
		return New("G005").Wrap(err)
	case errors.Is(err, client.ErrProtocolDecode):
		return New("G003").Wrap(err)
	case errors.Is(err, client.ErrConnectionClosed), errors.Is(err, client.ErrClosed):
		return New("G002").Wrap(err)
	case errors.Is(err, client.ErrConnection):
		return New("G001").Wrap(err)
	}
	return New(fallback).Wrap(err)
}
