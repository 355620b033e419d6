package frame

import (
	"github.com/israelio/rabbit-wire/protocol"
)

// compactThreshold is how many consumed bytes the parser tolerates before
// moving unread data to the front of its buffer
const compactThreshold = 64 * 1024

// Parser splits an inbound byte stream into frames. Input may be fed in
// arbitrary chunks; the frames produced do not depend on where the chunks
// are cut.
type Parser struct {
	buf        *protocol.Buffer
	maxPayload uint32
}

// NewParser creates a parser with no payload bound
func NewParser() *Parser {
	return &Parser{buf: protocol.NewBuffer(nil)}
}

// SetMaxFrameSize bounds inbound frames to size bytes including the frame
// header and end octet. 0 removes the bound.
func (p *Parser) SetMaxFrameSize(size uint32) {
	if size == 0 {
		p.maxPayload = 0
		return
	}
	if size <= protocol.FrameOverhead {
		size = protocol.FrameOverhead + 1
	}
	p.maxPayload = size - protocol.FrameOverhead
}

// Feed appends data to the stream and returns every frame now complete.
// On a framing error the frames decoded before it are returned with the error.
func (p *Parser) Feed(data []byte) ([]*Frame, error) {
	p.buf.Append(data)
	var frames []*Frame
	for {
		f, ok, err := p.Extract()
		if err != nil {
			return frames, err
		}
		if !ok {
			return frames, nil
		}
		frames = append(frames, f)
	}
}

// Extract decodes the next complete frame already buffered
func (p *Parser) Extract() (*Frame, bool, error) {
	f, ok, err := DecodeOne(p.buf, p.maxPayload)
	if ok {
		p.compact()
	}
	return f, ok, err
}

// Append adds data to the stream without decoding
func (p *Parser) Append(data []byte) {
	p.buf.Append(data)
}

// Buffered returns the number of unconsumed bytes
func (p *Parser) Buffered() int {
	return p.buf.Remaining()
}

// Peek returns up to n unconsumed bytes. The result is only valid until the
// next call on the parser.
func (p *Parser) Peek(n int) []byte {
	return p.buf.Peek(n)
}

// Discard consumes n buffered bytes
func (p *Parser) Discard(n int) error {
	if _, err := p.buf.ReadBytes(n); err != nil {
		return err
	}
	p.compact()
	return nil
}

func (p *Parser) compact() {
	if p.buf.Remaining() == 0 || p.buf.Pos() >= compactThreshold {
		p.buf.Compact()
	}
}
