// Package ipc implements the filesock wire format: an 8-byte header (type
// code, three reserved bytes, big-endian content length) followed by an
// optional UTF-8 content block.
package ipc

import (
	"errors"
	"fmt"
)

// ErrorKind classifies codec and framing errors.
type ErrorKind int

const (
	// KindInvalidArgument indicates a malformed header or body, an unknown
	// type code, or a semantically invalid request.
	KindInvalidArgument ErrorKind = iota
	// KindInvalidState indicates the declared content length disagrees with
	// the decoded content.
	KindInvalidState
	// KindEndOfStream indicates the peer closed the stream mid-frame.
	KindEndOfStream
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindInvalidState:
		return "invalid_state"
	case KindEndOfStream:
		return "end_of_stream"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a classified codec or framing error.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func invalidArgument(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidArgument, Msg: fmt.Sprintf(format, args...)}
}

func invalidState(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidState, Msg: fmt.Sprintf(format, args...)}
}

// NewInvalidArgument returns a KindInvalidArgument error. Request handlers
// use it for requests that decode cleanly but cannot be served.
func NewInvalidArgument(msg string) *Error {
	return &Error{Kind: KindInvalidArgument, Msg: msg}
}

// KindOf returns the kind of err and whether err is an *Error at all.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsInvalidArgument reports whether err is a KindInvalidArgument error.
func IsInvalidArgument(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindInvalidArgument
}

// IsInvalidState reports whether err is a KindInvalidState error.
func IsInvalidState(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindInvalidState
}

// IsEndOfStream reports whether err is a KindEndOfStream error.
func IsEndOfStream(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindEndOfStream
}
