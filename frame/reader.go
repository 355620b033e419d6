package frame

import (
	"fmt"
	"io"
)

const readChunkSize = 32 * 1024

// Reader reads AMQP frames from a connection
type Reader struct {
	r      io.Reader
	parser *Parser
	chunk  []byte
}

// NewReader creates a new frame reader. A maxFrameSize of 0 leaves inbound
// frames unbounded until SetMaxFrameSize is called.
func NewReader(r io.Reader, maxFrameSize uint32) *Reader {
	p := NewParser()
	p.SetMaxFrameSize(maxFrameSize)
	return &Reader{
		r:      r,
		parser: p,
		chunk:  make([]byte, readChunkSize),
	}
}

// ReadFrame reads a single frame from the connection
func (fr *Reader) ReadFrame() (*Frame, error) {
	for {
		f, ok, err := fr.parser.Extract()
		if err != nil {
			return nil, err
		}
		if ok {
			return f, nil
		}
		if err := fr.fill(); err != nil {
			return nil, fmt.Errorf("read frame: %w", err)
		}
	}
}

// ReadProtocolHeader reads the 8-byte AMQP protocol header
func (fr *Reader) ReadProtocolHeader() ([8]byte, error) {
	var header [8]byte
	for fr.parser.Buffered() < len(header) {
		if err := fr.fill(); err != nil {
			return header, fmt.Errorf("read protocol header: %w", err)
		}
	}
	copy(header[:], fr.parser.Peek(len(header)))
	return header, fr.parser.Discard(len(header))
}

// SetMaxFrameSize updates the maximum frame size
func (fr *Reader) SetMaxFrameSize(size uint32) {
	fr.parser.SetMaxFrameSize(size)
}

func (fr *Reader) fill() error {
	n, err := fr.r.Read(fr.chunk)
	if n > 0 {
		fr.parser.Append(fr.chunk[:n])
		return nil
	}
	if err == nil {
		err = io.ErrNoProgress
	}
	if err == io.EOF && fr.parser.Buffered() > 0 {
		err = io.ErrUnexpectedEOF
	}
	return err
}

