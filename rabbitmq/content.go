package rabbitmq

import (
	"github.com/israelio/rabbit-wire/protocol"
)

// maxBodyPrealloc caps the buffer reserved from a header's declared body
// size before any body bytes arrive
const maxBodyPrealloc = 1 << 20

// assembler collects the method, header and body frames of one content
// delivery on a channel. Violations are connection exceptions.
type assembler struct {
	method protocol.Method
	header *protocol.ContentHeader
	body   []byte
}

// busy reports whether a content method is waiting for its header or body
func (a *assembler) busy() bool {
	return a.method != nil
}

func (a *assembler) begin(m protocol.Method) *Error {
	classID, methodID := m.ID()
	if a.method != nil {
		return protocolError(protocol.ReplyUnexpectedFrame, classID, methodID,
			"content method received while previous content is incomplete")
	}
	a.method = m
	return nil
}

// addHeader records the content header; done is true when the body is empty
func (a *assembler) addHeader(h *protocol.ContentHeader) (done bool, err *Error) {
	if a.method == nil {
		return false, protocolError(protocol.ReplyUnexpectedFrame, h.ClassID, 0,
			"content header without content method")
	}
	classID, methodID := a.method.ID()
	if a.header != nil {
		return false, protocolError(protocol.ReplyUnexpectedFrame, classID, methodID,
			"second content header for one content method")
	}
	if h.ClassID != classID {
		return false, protocolError(protocol.ReplyUnexpectedFrame, classID, methodID,
			"content header class %d does not match method class %d", h.ClassID, classID)
	}
	a.header = h
	if h.BodySize == 0 {
		return true, nil
	}
	a.body = make([]byte, 0, min(h.BodySize, maxBodyPrealloc))
	return false, nil
}

// addBody appends body bytes; done is true once the declared size is reached
func (a *assembler) addBody(p []byte) (done bool, err *Error) {
	if a.header == nil {
		return false, protocolError(protocol.ReplyUnexpectedFrame, 0, 0,
			"content body without content header")
	}
	if uint64(len(a.body))+uint64(len(p)) > a.header.BodySize {
		classID, methodID := a.method.ID()
		return false, protocolError(protocol.ReplyUnexpectedFrame, classID, methodID,
			"content body exceeds declared size %d", a.header.BodySize)
	}
	a.body = append(a.body, p...)
	return uint64(len(a.body)) == a.header.BodySize, nil
}

// take returns the completed content and resets the assembler
func (a *assembler) take() (protocol.Method, *protocol.ContentHeader, []byte) {
	m, h, body := a.method, a.header, a.body
	a.reset()
	return m, h, body
}

func (a *assembler) reset() {
	a.method = nil
	a.header = nil
	a.body = nil
}
