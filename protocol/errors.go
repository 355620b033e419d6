package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrOverflow is returned when a read needs more bytes than the buffer holds.
	// It is the only recoverable codec error: the caller waits for more input.
	ErrOverflow = errors.New("amqp: buffer overflow")

	// ErrMalformed is returned when bytes are present but do not form a valid value.
	ErrMalformed = errors.New("amqp: malformed field")

	// ErrShortStringTooLong is returned when a short string exceeds 255 bytes.
	ErrShortStringTooLong = errors.New("amqp: short string exceeds 255 bytes")

	// ErrUnsupportedValue is returned when a Go value has no AMQP field encoding.
	ErrUnsupportedValue = errors.New("amqp: unsupported field value")
)

// UnknownMethodError reports a (class, method) pair missing from a registry.
type UnknownMethodError struct {
	ClassID  uint16
	MethodID uint16
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("amqp: unknown method %d.%d", e.ClassID, e.MethodID)
}

// UnknownClassError reports a class id missing from a registry.
type UnknownClassError struct {
	ClassID uint16
}

func (e *UnknownClassError) Error() string {
	return fmt.Sprintf("amqp: unknown class %d", e.ClassID)
}

func overflow(want, have int) error {
	return fmt.Errorf("%w: need %d bytes, have %d", ErrOverflow, want, have)
}
