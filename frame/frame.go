package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/israelio/rabbit-wire/protocol"
)

// ErrFraming is wrapped by every FramingError
var ErrFraming = errors.New("amqp: framing error")

// FramingError reports a byte stream that cannot be split into frames
type FramingError struct {
	Reason string
}

func (e *FramingError) Error() string {
	return "amqp: framing error: " + e.Reason
}

func (e *FramingError) Unwrap() error {
	return ErrFraming
}

func framingError(format string, args ...any) error {
	return &FramingError{Reason: fmt.Sprintf(format, args...)}
}

// Frame represents an AMQP frame
type Frame struct {
	Type      uint8
	ChannelID uint16
	Payload   []byte
}

// NewMethodFrame encodes m into a method frame
func NewMethodFrame(reg *protocol.Registry, channelID uint16, m protocol.Method) (*Frame, error) {
	buf := protocol.NewBuffer(make([]byte, 0, 64))
	if err := reg.Encode(buf, m); err != nil {
		return nil, err
	}
	return &Frame{
		Type:      protocol.FrameMethod,
		ChannelID: channelID,
		Payload:   buf.Bytes(),
	}, nil
}

// NewHeaderFrame encodes h into a content header frame
func NewHeaderFrame(reg *protocol.Registry, channelID uint16, h *protocol.ContentHeader) (*Frame, error) {
	buf := protocol.NewBuffer(make([]byte, 0, 64))
	if err := reg.EncodeHeader(buf, h); err != nil {
		return nil, err
	}
	return &Frame{
		Type:      protocol.FrameHeader,
		ChannelID: channelID,
		Payload:   buf.Bytes(),
	}, nil
}

// NewBodyFrame creates a new content body frame
func NewBodyFrame(channelID uint16, data []byte) *Frame {
	return &Frame{
		Type:      protocol.FrameBody,
		ChannelID: channelID,
		Payload:   data,
	}
}

// NewHeartbeatFrame creates a new heartbeat frame
func NewHeartbeatFrame() *Frame {
	return &Frame{
		Type:      protocol.FrameHeartbeat,
		ChannelID: 0,
		Payload:   []byte{},
	}
}

// Method decodes the payload of a method frame
func (f *Frame) Method(reg *protocol.Registry) (protocol.Method, error) {
	if f.Type != protocol.FrameMethod {
		return nil, fmt.Errorf("not a method frame: type=%d", f.Type)
	}
	return reg.Decode(protocol.NewBuffer(f.Payload))
}

// MethodID returns the class and method id of a method frame without
// decoding its arguments.
func (f *Frame) MethodID() (classID, methodID uint16, err error) {
	if f.Type != protocol.FrameMethod {
		return 0, 0, fmt.Errorf("not a method frame: type=%d", f.Type)
	}
	if len(f.Payload) < 4 {
		return 0, 0, fmt.Errorf("method frame payload too short: %d", len(f.Payload))
	}
	return binary.BigEndian.Uint16(f.Payload[0:2]), binary.BigEndian.Uint16(f.Payload[2:4]), nil
}

// Header decodes the payload of a content header frame
func (f *Frame) Header(reg *protocol.Registry) (*protocol.ContentHeader, error) {
	if f.Type != protocol.FrameHeader {
		return nil, fmt.Errorf("not a header frame: type=%d", f.Type)
	}
	return reg.DecodeHeader(protocol.NewBuffer(f.Payload))
}

// Encode returns the frame's wire bytes
func (f *Frame) Encode() []byte {
	out := make([]byte, protocol.FrameHeaderSize, protocol.FrameOverhead+len(f.Payload))
	out[0] = f.Type
	binary.BigEndian.PutUint16(out[1:3], f.ChannelID)
	binary.BigEndian.PutUint32(out[3:7], uint32(len(f.Payload)))
	out = append(out, f.Payload...)
	return append(out, protocol.FrameEnd)
}

// WriteTo writes the frame's wire bytes to w
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.Encode())
	return int64(n), err
}

func (f *Frame) String() string {
	return fmt.Sprintf("frame{type=%s channel=%d size=%d}", TypeName(f.Type), f.ChannelID, len(f.Payload))
}

// TypeName returns a readable name for a frame type id
func TypeName(t uint8) string {
	switch t {
	case protocol.FrameMethod:
		return "method"
	case protocol.FrameHeader:
		return "header"
	case protocol.FrameBody:
		return "body"
	case protocol.FrameHeartbeat:
		return "heartbeat"
	case protocol.FrameOOBMethod:
		return "oob-method"
	case protocol.FrameOOBHeader:
		return "oob-header"
	case protocol.FrameOOBBody:
		return "oob-body"
	case protocol.FrameTrace:
		return "trace"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

// DecodeOne decodes one frame at the cursor of buf.
//
// If buf holds only part of a frame, ok is false, err is nil and the cursor
// is unchanged. maxPayload bounds the payload size; 0 means no bound.
func DecodeOne(buf *protocol.Buffer, maxPayload uint32) (f *Frame, ok bool, err error) {
	ok, err = buf.Extract(func(b *protocol.Buffer) error {
		frameType, err := b.ReadOctet()
		if err != nil {
			return err
		}
		if !isValidFrameType(frameType) {
			return framingError("invalid frame type %d", frameType)
		}
		channelID, err := b.ReadShort()
		if err != nil {
			return err
		}
		size, err := b.ReadLong()
		if err != nil {
			return err
		}
		if maxPayload > 0 && size > maxPayload {
			return framingError("frame payload too large: %d > %d", size, maxPayload)
		}
		payload, err := b.ReadBytes(int(size))
		if err != nil {
			return err
		}
		end, err := b.ReadOctet()
		if err != nil {
			return err
		}
		if end != protocol.FrameEnd {
			return framingError("invalid frame end marker: 0x%02X (expected 0x%02X)", end, protocol.FrameEnd)
		}
		f = &Frame{Type: frameType, ChannelID: channelID, Payload: payload}
		return nil
	})
	if !ok {
		return nil, false, err
	}
	return f, true, nil
}

// isValidFrameType checks if the frame type is valid
func isValidFrameType(frameType uint8) bool {
	switch frameType {
	case protocol.FrameMethod,
		protocol.FrameHeader,
		protocol.FrameBody,
		protocol.FrameOOBMethod,
		protocol.FrameOOBHeader,
		protocol.FrameOOBBody,
		protocol.FrameTrace,
		protocol.FrameHeartbeat:
		return true
	default:
		return false
	}
}
