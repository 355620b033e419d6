package rabbitmq

import (
	"errors"
	"fmt"

	"github.com/israelio/rabbit-wire/protocol"
)

// Error represents an AMQP error. Errors raised by the broker carry the
// reply code, text and offending method of its Close; local failures carry a
// code chosen by the client.
type Error struct {
	Code     int
	Reason   string
	Server   bool // true if error originated from server
	Recover  bool // true if connection/channel can be recovered
	ClassID  uint16
	MethodID uint16

	cause error
}

// Error implements the error interface
func (e *Error) Error() string {
	origin := "client"
	if e.Server {
		origin = "server"
	}
	if e.ClassID != 0 || e.MethodID != 0 {
		return fmt.Sprintf("AMQP error %d (%s): %s [method %d.%d]", e.Code, origin, e.Reason, e.ClassID, e.MethodID)
	}
	return fmt.Sprintf("AMQP error %d (%s): %s", e.Code, origin, e.Reason)
}

// Is matches another *Error by reply code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Unwrap returns the local failure that produced the error, if any
func (e *Error) Unwrap() error {
	return e.cause
}

// Predefined errors matching AMQP reply codes
var (
	ErrClosed = &Error{
		Code:    protocol.ReplyConnectionForced,
		Reason:  "connection closed",
		Server:  false,
		Recover: false,
	}

	// ErrConnectionClosed is an alias of ErrClosed
	ErrConnectionClosed = ErrClosed

	ErrChannelClosed = &Error{
		Code:    protocol.ReplyChannelError,
		Reason:  "channel closed",
		Server:  false,
		Recover: false,
	}

	ErrNotFound = &Error{
		Code:    protocol.ReplyNotFound,
		Reason:  "resource not found",
		Server:  true,
		Recover: false,
	}

	ErrAccessRefused = &Error{
		Code:    protocol.ReplyAccessRefused,
		Reason:  "access refused",
		Server:  true,
		Recover: false,
	}

	ErrPreconditionFailed = &Error{
		Code:    protocol.ReplyPreconditionFailed,
		Reason:  "precondition failed",
		Server:  true,
		Recover: false,
	}

	ErrResourceLocked = &Error{
		Code:    protocol.ReplyResourceLocked,
		Reason:  "resource locked",
		Server:  true,
		Recover: false,
	}

	ErrFrameError = &Error{
		Code:    protocol.ReplyFrameError,
		Reason:  "frame error",
		Server:  false,
		Recover: false,
	}

	ErrSyntaxError = &Error{
		Code:    protocol.ReplySyntaxError,
		Reason:  "syntax error",
		Server:  true,
		Recover: false,
	}

	ErrCommandInvalid = &Error{
		Code:    protocol.ReplyCommandInvalid,
		Reason:  "command invalid",
		Server:  true,
		Recover: false,
	}

	ErrChannelError = &Error{
		Code:    protocol.ReplyChannelError,
		Reason:  "channel error",
		Server:  true,
		Recover: false,
	}

	ErrUnexpectedFrame = &Error{
		Code:    protocol.ReplyUnexpectedFrame,
		Reason:  "unexpected frame",
		Server:  true,
		Recover: false,
	}

	ErrResourceError = &Error{
		Code:    protocol.ReplyResourceError,
		Reason:  "resource error",
		Server:  true,
		Recover: false,
	}

	ErrNotAllowed = &Error{
		Code:    protocol.ReplyNotAllowed,
		Reason:  "not allowed",
		Server:  true,
		Recover: false,
	}

	ErrNotImplemented = &Error{
		Code:    protocol.ReplyNotImplemented,
		Reason:  "not implemented",
		Server:  true,
		Recover: false,
	}

	ErrInternalError = &Error{
		Code:    protocol.ReplyInternalError,
		Reason:  "internal error",
		Server:  true,
		Recover: false,
	}

	ErrContentTooLarge = &Error{
		Code:    protocol.ReplyContentTooLarge,
		Reason:  "content too large",
		Server:  true,
		Recover: false,
	}

	ErrNoRoute = &Error{
		Code:    protocol.ReplyNoRoute,
		Reason:  "no route",
		Server:  true,
		Recover: false,
	}

	ErrNoConsumers = &Error{
		Code:    protocol.ReplyNoConsumers,
		Reason:  "no consumers",
		Server:  true,
		Recover: false,
	}
)

// Local failures that carry no reply code of their own
var (
	ErrNoChannelsAvailable = errors.New("amqp: no channel ids available")
	ErrNotOpen             = errors.New("amqp: connection not open")
	ErrVersionMismatch     = errors.New("amqp: protocol version mismatch")
	ErrNoMechanism         = errors.New("amqp: no common authentication mechanism")
)

// NewError creates a new Error from reply code and text
func NewError(code int, reason string, server bool) *Error {
	return &Error{
		Code:    code,
		Reason:  reason,
		Server:  server,
		Recover: code != protocol.ReplyConnectionForced && code < 500,
	}
}

// localError builds a client-side Error caused by err
func localError(code int, err error) *Error {
	e := NewError(code, err.Error(), false)
	e.cause = err
	return e
}

// protocolError builds a client-side Error naming the offending method
func protocolError(code int, classID, methodID uint16, format string, args ...any) *Error {
	e := NewError(code, fmt.Sprintf(format, args...), false)
	e.ClassID = classID
	e.MethodID = methodID
	return e
}

// serverError converts a broker-sent close into an Error
func serverError(code uint16, text string, classID, methodID uint16) *Error {
	e := NewError(int(code), text, true)
	e.ClassID = classID
	e.MethodID = methodID
	return e
}
