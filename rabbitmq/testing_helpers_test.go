package rabbitmq

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/israelio/rabbit-wire/frame"
	"github.com/israelio/rabbit-wire/protocol"
)

// requireRabbitMQ skips the test if RabbitMQ is not available on localhost:5672
func requireRabbitMQ(t *testing.T) Config {
	t.Helper()

	conn, err := net.DialTimeout("tcp", "localhost:5672", 2*time.Second)
	if err != nil {
		t.Skipf("RabbitMQ not available on localhost:5672: %v", err)
	}
	conn.Close()

	return NewConfig(
		WithHost("localhost"),
		WithPort(5672),
		WithCredentials("guest", "guest"),
		WithConnectionTimeout(10*time.Second),
	)
}

// mustDial creates a connection or fails the test
func mustDial(t *testing.T, cfg Config) *Connection {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	conn, err := Dial(ctx, cfg)
	require.NoError(t, err, "Failed to connect to RabbitMQ")
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// mustOpenChannel opens a channel and waits for channel.open-ok
func mustOpenChannel(t *testing.T, conn *Connection, listener ChannelListener) *Channel {
	t.Helper()

	ch, err := conn.OpenChannel(listener)
	require.NoError(t, err, "Failed to create channel")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, ch.WaitOpen(ctx))
	return ch
}

// recordingSink captures what a connection writes
type recordingSink struct {
	mu       sync.Mutex
	header   []byte
	frames   []*frame.Frame
	batches  int
	closed   bool
	maxFrame uint32
	failErr  error
}

func (s *recordingSink) WriteProtocolHeader(header [8]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.header = append([]byte(nil), header[:]...)
	return nil
}

func (s *recordingSink) WriteFrame(f *frame.Frame) error {
	return s.WriteFrames(f)
}

func (s *recordingSink) WriteFrames(frames ...*frame.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.frames = append(s.frames, frames...)
	s.batches++
	return nil
}

func (s *recordingSink) SetMaxFrameSize(size uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxFrame = size
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *recordingSink) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *recordingSink) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

// take returns and forgets the frames written so far
func (s *recordingSink) take() []*frame.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	frames := s.frames
	s.frames = nil
	return frames
}

// takeMethods decodes and forgets the method frames written so far. Other
// frames are dropped.
func (s *recordingSink) takeMethods(t *testing.T, reg *protocol.Registry) []protocol.Method {
	t.Helper()
	var methods []protocol.Method
	for _, f := range s.take() {
		if f.Type != protocol.FrameMethod {
			continue
		}
		m, err := f.Method(reg)
		require.NoError(t, err)
		methods = append(methods, m)
	}
	return methods
}

// encode renders a broker method frame
func encode(t *testing.T, reg *protocol.Registry, channelID uint16, m protocol.Method) []byte {
	t.Helper()
	f, err := frame.NewMethodFrame(reg, channelID, m)
	require.NoError(t, err)
	return f.Encode()
}

// feed delivers broker methods to c and requires them to be accepted
func feed(t *testing.T, c *Connection, channelID uint16, methods ...protocol.Method) {
	t.Helper()
	for _, m := range methods {
		require.NoError(t, c.Feed(encode(t, c.Registry(), channelID, m)))
	}
}

// feedContent delivers a content method, its header and the body split
// into the given frame sizes
func feedContent(t *testing.T, c *Connection, channelID uint16, m protocol.Method, props protocol.Properties, body []byte, split ...int) {
	t.Helper()
	reg := c.Registry()
	classID, _ := m.ID()
	feed(t, c, channelID, m)

	hf, err := frame.NewHeaderFrame(reg, channelID, &protocol.ContentHeader{
		ClassID:    classID,
		BodySize:   uint64(len(body)),
		Properties: props,
	})
	require.NoError(t, err)
	require.NoError(t, c.Feed(hf.Encode()))

	for _, n := range split {
		require.NoError(t, c.Feed(frame.NewBodyFrame(channelID, body[:n]).Encode()))
		body = body[n:]
	}
	if len(body) > 0 {
		require.NoError(t, c.Feed(frame.NewBodyFrame(channelID, body).Encode()))
	}
}

// connectionStart is the broker's first method for reg
func connectionStart(reg *protocol.Registry) *protocol.ConnectionStart {
	return &protocol.ConnectionStart{
		VersionMajor:     reg.VersionMajor,
		VersionMinor:     reg.VersionMinor,
		ServerProperties: protocol.Table{"product": "RabbitMQ", "version": "3.13.0"},
		Mechanisms:       "PLAIN AMQPLAIN",
		Locales:          "en_US",
	}
}

// newTestConnection creates and starts a connection over a recording sink.
// The defaults ask for no tuning preference.
func newTestConnection(t *testing.T, opts ...Option) (*Connection, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	cfg := NewConfig(WithHeartbeat(0))
	c, err := NewConnection(cfg, sink, opts...)
	require.NoError(t, err)
	require.NoError(t, c.Start())
	return c, sink
}

// openTestConnection runs the handshake with the given tune offer and
// clears the sink
func openTestConnection(t *testing.T, tune *protocol.ConnectionTune, opts ...Option) (*Connection, *recordingSink) {
	t.Helper()
	c, sink := newTestConnection(t, opts...)
	feed(t, c, 0, connectionStart(c.Registry()), tune, &protocol.ConnectionOpenOk{})
	require.Equal(t, StateOpen, c.State())
	sink.take()
	return c, sink
}

// openTestChannel opens a channel on an open connection and confirms it
func openTestChannel(t *testing.T, c *Connection, sink *recordingSink, listener ChannelListener) *Channel {
	t.Helper()
	ch, err := c.OpenChannel(listener)
	require.NoError(t, err)
	methods := sink.takeMethods(t, c.Registry())
	require.Len(t, methods, 1)
	require.IsType(t, &protocol.ChannelOpen{}, methods[0])
	feed(t, c, ch.ID(), &protocol.ChannelOpenOk{})
	require.Equal(t, ChannelStateOpen, ch.State())
	return ch
}

var defaultTune = &protocol.ConnectionTune{ChannelMax: 0, FrameMax: 131072, Heartbeat: 0}

// amqpError extracts the *Error from err
func amqpError(t *testing.T, err error) *Error {
	t.Helper()
	var e *Error
	require.True(t, errors.As(err, &e), "want *Error, got %T: %v", err, err)
	return e
}

// callResult records the completion of a Channel.Call
type callResult struct {
	mu     sync.Mutex
	called int
	reply  Reply
	err    error
}

func (r *callResult) done(reply Reply, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.called++
	r.reply = reply
	r.err = err
}

func (r *callResult) get() (int, Reply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.called, r.reply, r.err
}
