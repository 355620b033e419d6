package frame

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/israelio/rabbit-wire/protocol"
)

// Sink is the outbound side of a connection
type Sink interface {
	WriteProtocolHeader(header [8]byte) error
	WriteFrame(f *Frame) error
	// WriteFrames writes frames back to back with no other frame between them
	WriteFrames(frames ...*Frame) error
	Close() error
}

// Writer writes AMQP frames to a connection
type Writer struct {
	w        *bufio.Writer
	closer   io.Closer
	mu       sync.Mutex
	maxFrame uint32
}

// NewWriter creates a new frame writer
func NewWriter(w io.Writer, maxFrameSize uint32) *Writer {
	if maxFrameSize == 0 {
		maxFrameSize = protocol.FrameMinSize
	}

	fw := &Writer{
		w:        bufio.NewWriterSize(w, int(maxFrameSize)*2),
		maxFrame: maxFrameSize,
	}
	if c, ok := w.(io.Closer); ok {
		fw.closer = c
	}
	return fw
}

// WriteFrame writes a single frame to the connection
func (fw *Writer) WriteFrame(frame *Frame) error {
	return fw.WriteFrames(frame)
}

// WriteFrames writes a run of frames and flushes once
func (fw *Writer) WriteFrames(frames ...*Frame) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	for _, frame := range frames {
		if err := fw.write(frame); err != nil {
			return err
		}
	}

	if err := fw.w.Flush(); err != nil {
		return fmt.Errorf("flush frame: %w", err)
	}
	return nil
}

func (fw *Writer) write(frame *Frame) error {
	if fw.maxFrame > protocol.FrameOverhead && uint32(len(frame.Payload)) > fw.maxFrame-protocol.FrameOverhead {
		return fmt.Errorf("frame payload too large: %d > %d", len(frame.Payload), fw.maxFrame-protocol.FrameOverhead)
	}
	if _, err := fw.w.Write(frame.Encode()); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// WriteProtocolHeader writes the AMQP protocol header
func (fw *Writer) WriteProtocolHeader(header [8]byte) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if _, err := fw.w.Write(header[:]); err != nil {
		return fmt.Errorf("write protocol header: %w", err)
	}

	if err := fw.w.Flush(); err != nil {
		return fmt.Errorf("flush protocol header: %w", err)
	}

	return nil
}

// SetMaxFrameSize updates the maximum frame size. 0 removes the bound.
func (fw *Writer) SetMaxFrameSize(size uint32) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	fw.maxFrame = size
}

// Flush flushes any buffered data
func (fw *Writer) Flush() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	return fw.w.Flush()
}

// Close flushes and closes the underlying writer if it is closable
func (fw *Writer) Close() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	err := fw.w.Flush()
	if fw.closer != nil {
		if cerr := fw.closer.Close(); cerr != nil {
			return cerr
		}
	}
	return err
}
