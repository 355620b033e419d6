package rabbitmq

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/israelio/rabbit-wire/frame"
	"github.com/israelio/rabbit-wire/protocol"
)

func TestConnectionHandshake(t *testing.T) {
	c, sink := newTestConnection(t)
	reg := c.Registry()

	assert.Equal(t, reg.Header[:], sink.header)
	assert.Equal(t, StateOpening, c.State())

	feed(t, c, 0, connectionStart(reg))
	methods := sink.takeMethods(t, reg)
	require.Len(t, methods, 1)
	startOk, ok := methods[0].(*protocol.ConnectionStartOk)
	require.True(t, ok, "want start-ok, got %T", methods[0])
	assert.Equal(t, "PLAIN", startOk.Mechanism)
	assert.Equal(t, "\x00guest\x00guest", startOk.Response)
	assert.Equal(t, "en_US", startOk.Locale)
	assert.Equal(t, "rabbit-wire", startOk.ClientProperties["product"])
	assert.Equal(t, "Go", startOk.ClientProperties["platform"])
	assert.IsType(t, protocol.Table{}, startOk.ClientProperties["capabilities"])

	feed(t, c, 0, &protocol.ConnectionTune{ChannelMax: 10, FrameMax: 4096, Heartbeat: 60})
	methods = sink.takeMethods(t, reg)
	want := []protocol.Method{
		&protocol.ConnectionTuneOk{ChannelMax: 10, FrameMax: 4096, Heartbeat: 60},
		&protocol.ConnectionOpen{VirtualHost: "/"},
	}
	if diff := cmp.Diff(want, methods); diff != "" {
		t.Errorf("tune reply mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, StateOpening, c.State())
	assert.Equal(t, uint32(4096), sink.maxFrame)

	feed(t, c, 0, &protocol.ConnectionOpenOk{})
	assert.Equal(t, StateOpen, c.State())
	assert.Equal(t, uint16(10), c.ChannelMax())
	assert.Equal(t, uint32(4096), c.FrameMax())
	assert.Equal(t, 60*time.Second, c.Heartbeat())
	assert.Equal(t, "RabbitMQ", c.ServerProperties()["product"])
	assert.Equal(t, []string{"PLAIN", "AMQPLAIN"}, c.Mechanisms())
	assert.Equal(t, []string{"en_US"}, c.Locales())

	select {
	case <-c.Opened():
	default:
		t.Fatal("Opened not closed after open-ok")
	}
	assert.NoError(t, c.Err())
}

func TestConnectionHandshakeFragmented(t *testing.T) {
	c, sink := newTestConnection(t)
	reg := c.Registry()

	var script []byte
	script = append(script, encode(t, reg, 0, connectionStart(reg))...)
	script = append(script, encode(t, reg, 0, &protocol.ConnectionTune{ChannelMax: 10, FrameMax: 4096, Heartbeat: 60})...)
	script = append(script, encode(t, reg, 0, &protocol.ConnectionOpenOk{})...)

	for i := range script {
		require.NoError(t, c.Feed(script[i:i+1]))
	}

	assert.Equal(t, StateOpen, c.State())
	methods := sink.takeMethods(t, reg)
	require.Len(t, methods, 3)
	assert.IsType(t, &protocol.ConnectionStartOk{}, methods[0])
	assert.IsType(t, &protocol.ConnectionTuneOk{}, methods[1])
	assert.IsType(t, &protocol.ConnectionOpen{}, methods[2])
}

func TestConnectionTuneNegotiation(t *testing.T) {
	tests := []struct {
		name   string
		opts   []Option
		server protocol.ConnectionTune
		want   protocol.ConnectionTuneOk
	}{
		{
			name:   "no client preference",
			server: protocol.ConnectionTune{ChannelMax: 10, FrameMax: 4096, Heartbeat: 60},
			want:   protocol.ConnectionTuneOk{ChannelMax: 10, FrameMax: 4096, Heartbeat: 60},
		},
		{
			name:   "client lower",
			opts:   []Option{WithChannelMax(5), WithFrameMax(8192), WithHeartbeat(30 * time.Second)},
			server: protocol.ConnectionTune{ChannelMax: 10, FrameMax: 131072, Heartbeat: 60},
			want:   protocol.ConnectionTuneOk{ChannelMax: 5, FrameMax: 8192, Heartbeat: 30},
		},
		{
			name:   "server lower",
			opts:   []Option{WithChannelMax(2047), WithFrameMax(131072), WithHeartbeat(60 * time.Second)},
			server: protocol.ConnectionTune{ChannelMax: 100, FrameMax: 4096, Heartbeat: 10},
			want:   protocol.ConnectionTuneOk{ChannelMax: 100, FrameMax: 4096, Heartbeat: 10},
		},
		{
			name:   "server without limits",
			opts:   []Option{WithChannelMax(100), WithHeartbeat(10 * time.Second)},
			server: protocol.ConnectionTune{},
			want:   protocol.ConnectionTuneOk{ChannelMax: 100, FrameMax: 0, Heartbeat: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, sink := newTestConnection(t, tt.opts...)
			server := tt.server
			feed(t, c, 0, connectionStart(c.Registry()), &server)

			methods := sink.takeMethods(t, c.Registry())
			require.Len(t, methods, 3)
			assert.Equal(t, &tt.want, methods[1])
		})
	}
}

func TestConnectionProtocol08(t *testing.T) {
	c, sink := newTestConnection(t, WithProtocol(Protocol08))
	reg := c.Registry()

	assert.Equal(t, protocol.AMQP08, reg)
	assert.Equal(t, []byte{'A', 'M', 'Q', 'P', 1, 1, 8, 0}, sink.header)

	feed(t, c, 0, connectionStart(reg), defaultTune, &protocol.ConnectionOpenOk{})
	assert.Equal(t, StateOpen, c.State())
}

func TestConnectionVersionMismatch(t *testing.T) {
	c, sink := newTestConnection(t)
	start := connectionStart(c.Registry())
	start.VersionMajor = 8
	start.VersionMinor = 0

	err := c.Feed(encode(t, c.Registry(), 0, start))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrVersionMismatch))
	assert.Equal(t, protocol.ReplyNotImplemented, amqpError(t, err).Code)
	assert.Equal(t, StateClosed, c.State())
	assert.True(t, sink.isClosed())
	assert.Empty(t, sink.take(), "nothing may be sent after a version mismatch")
}

func TestConnectionBrokerProtocolHeader(t *testing.T) {
	c, sink := newTestConnection(t, WithProtocol(Protocol08))

	// the broker answers with the header of the version it speaks
	header := protocol.AMQP091.Header
	require.NoError(t, c.Feed(header[:4]))
	assert.Equal(t, StateOpening, c.State())

	err := c.Feed(header[4:])
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrVersionMismatch))
	assert.Contains(t, err.Error(), "AMQP 0-9-1")
	assert.Equal(t, StateClosed, c.State())
	assert.True(t, sink.isClosed())
}

func TestConnectionNoMechanism(t *testing.T) {
	c, _ := newTestConnection(t)
	start := connectionStart(c.Registry())
	start.Mechanisms = "EXTERNAL"

	err := c.Feed(encode(t, c.Registry(), 0, start))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoMechanism))
	assert.Equal(t, protocol.ReplyAccessRefused, amqpError(t, err).Code)
}

func TestConnectionMechanismSelection(t *testing.T) {
	c, sink := newTestConnection(t, WithMechanisms(
		&ExternalAuth{},
		&AMQPlainAuth{Username: "bob", Password: "secret"},
		&PlainAuth{Username: "bob", Password: "secret"},
	))
	feed(t, c, 0, connectionStart(c.Registry()))

	methods := sink.takeMethods(t, c.Registry())
	require.Len(t, methods, 1)
	startOk := methods[0].(*protocol.ConnectionStartOk)
	assert.Equal(t, "AMQPLAIN", startOk.Mechanism)

	fields, err := protocol.NewBuffer(longPrefixed(startOk.Response)).ReadTable()
	require.NoError(t, err)
	assert.Equal(t, "bob", fields["LOGIN"])
	assert.Equal(t, "secret", fields["PASSWORD"])
}

// longPrefixed restores the length prefix AMQPLAIN responses omit
func longPrefixed(s string) []byte {
	n := len(s)
	return append([]byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}, s...)
}

func TestConnectionLocale(t *testing.T) {
	c, sink := newTestConnection(t, WithLocale("fr_FR"))
	start := connectionStart(c.Registry())
	start.Locales = "de_DE en_US"
	feed(t, c, 0, start)

	methods := sink.takeMethods(t, c.Registry())
	require.Len(t, methods, 1)
	assert.Equal(t, "de_DE", methods[0].(*protocol.ConnectionStartOk).Locale)
}

func TestConnectionSecure(t *testing.T) {
	c, sink := newTestConnection(t)
	feed(t, c, 0, connectionStart(c.Registry()))
	sink.take()

	feed(t, c, 0, &protocol.ConnectionSecure{Challenge: "challenge"})
	methods := sink.takeMethods(t, c.Registry())
	require.Len(t, methods, 1)
	assert.Equal(t, &protocol.ConnectionSecureOk{Response: "\x00guest\x00guest"}, methods[0])

	feed(t, c, 0, defaultTune, &protocol.ConnectionOpenOk{})
	assert.Equal(t, StateOpen, c.State())
}

func TestConnectionUnexpectedHandshakeMethod(t *testing.T) {
	c, sink := newTestConnection(t)
	feed(t, c, 0, connectionStart(c.Registry()))
	sink.take()

	// open-ok before tune
	feed(t, c, 0, &protocol.ConnectionOpenOk{})
	assert.Equal(t, StateClosing, c.State())

	methods := sink.takeMethods(t, c.Registry())
	require.Len(t, methods, 1)
	closeMethod := methods[0].(*protocol.ConnectionClose)
	assert.Equal(t, uint16(protocol.ReplyCommandInvalid), closeMethod.ReplyCode)
	assert.Equal(t, uint16(protocol.ClassConnection), closeMethod.ClassID)
	assert.Equal(t, uint16(protocol.MethodConnectionOpenOk), closeMethod.MethodID)

	feed(t, c, 0, &protocol.ConnectionCloseOk{})
	assert.Equal(t, StateClosed, c.State())
	assert.Equal(t, protocol.ReplyCommandInvalid, amqpError(t, c.Err()).Code)
}

func TestConnectionBrokerClose(t *testing.T) {
	var closedWith *Error
	c, sink := openTestConnection(t, defaultTune)
	c.AddConnectionListener(ConnectionListenerFuncs{
		Closed: func(conn *Connection, err *Error) { closedWith = err },
	})
	notify := c.NotifyClose(make(chan *Error, 1))

	ch := openTestChannel(t, c, sink, nil)
	var res callResult
	require.NoError(t, ch.Call(&protocol.QueueDeclare{Queue: "q"}, res.done))
	sink.take()

	feed(t, c, 0, &protocol.ConnectionClose{
		ReplyCode: protocol.ReplyConnectionForced,
		ReplyText: "CONNECTION_FORCED - broker forced connection closure with reason 'shutdown'",
	})

	assert.Equal(t, StateClosed, c.State())
	assert.Equal(t, []protocol.Method{&protocol.ConnectionCloseOk{}}, sink.takeMethods(t, c.Registry()))
	assert.True(t, sink.isClosed())

	e := amqpError(t, c.Err())
	assert.Equal(t, protocol.ReplyConnectionForced, e.Code)
	assert.True(t, e.Server)
	assert.Contains(t, e.Reason, "shutdown")
	assert.Same(t, e, closedWith)
	assert.Same(t, e, <-notify)

	called, _, err := res.get()
	assert.Equal(t, 1, called)
	assert.True(t, errors.Is(err, ErrClosed), "pending call fails with the connection error: %v", err)
	assert.Equal(t, ChannelStateClosed, ch.State())
	assert.True(t, errors.Is(ch.Send(&protocol.BasicQos{}), ErrChannelClosed))

	_, err = c.OpenChannel(nil)
	assert.Error(t, err)
}

func TestConnectionCloseIdempotent(t *testing.T) {
	c, sink := openTestConnection(t, defaultTune)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	require.NoError(t, c.CloseWithCode(protocol.ReplyInternalError, "again"))
	assert.Equal(t, StateClosing, c.State())

	methods := sink.takeMethods(t, c.Registry())
	require.Len(t, methods, 1)
	assert.Equal(t, uint16(protocol.ReplySuccess), methods[0].(*protocol.ConnectionClose).ReplyCode)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Wait(ctx), context.DeadlineExceeded)

	feed(t, c, 0, &protocol.ConnectionCloseOk{})
	assert.Equal(t, StateClosed, c.State())
	assert.True(t, sink.isClosed())
	assert.NoError(t, c.Err())
	assert.NoError(t, c.Wait(context.Background()))
	assert.NoError(t, c.Close())
	assert.Empty(t, sink.take())
}

func TestConnectionCloseBeforeStart(t *testing.T) {
	c, sink := newTestConnection(t)

	require.NoError(t, c.Close())
	assert.Equal(t, StateClosed, c.State())
	assert.Empty(t, sink.take())
	assert.True(t, sink.isClosed())
	assert.Error(t, c.Feed([]byte{1}))
}

func TestConnectionCloseCrossing(t *testing.T) {
	c, sink := openTestConnection(t, defaultTune)
	require.NoError(t, c.Close())
	sink.take()

	// broker closes at the same time; we answer and finish with our reason
	feed(t, c, 0, &protocol.ConnectionClose{ReplyCode: protocol.ReplySuccess, ReplyText: "bye"})
	assert.Equal(t, []protocol.Method{&protocol.ConnectionCloseOk{}}, sink.takeMethods(t, c.Registry()))
	assert.Equal(t, StateClosed, c.State())
	assert.NoError(t, c.Err())
}

func TestConnectionClosingDiscardsFrames(t *testing.T) {
	c, sink := openTestConnection(t, defaultTune)
	ch := openTestChannel(t, c, sink, nil)
	require.NoError(t, c.Close())
	sink.take()

	feed(t, c, ch.ID(), &protocol.BasicAck{DeliveryTag: 1})
	feed(t, c, 0, &protocol.ConnectionBlocked{Reason: "ignored"})
	assert.Equal(t, StateClosing, c.State())
	assert.False(t, c.IsBlocked())
	assert.Empty(t, sink.take())
}

func TestConnectionUnknownChannel(t *testing.T) {
	c, sink := openTestConnection(t, defaultTune)

	feed(t, c, 9, &protocol.BasicAck{DeliveryTag: 1})
	assert.Equal(t, StateClosing, c.State())

	methods := sink.takeMethods(t, c.Registry())
	require.Len(t, methods, 1)
	assert.Equal(t, uint16(protocol.ReplyChannelError), methods[0].(*protocol.ConnectionClose).ReplyCode)

	feed(t, c, 0, &protocol.ConnectionCloseOk{})
	assert.Equal(t, StateClosed, c.State())
	assert.Equal(t, protocol.ReplyChannelError, amqpError(t, c.Err()).Code)
}

func TestConnectionFramingError(t *testing.T) {
	c, sink := openTestConnection(t, defaultTune)

	bad := encode(t, c.Registry(), 0, &protocol.ConnectionBlocked{Reason: "x"})
	bad[len(bad)-1] = 0x00

	err := c.Feed(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, frame.ErrFraming))
	assert.Equal(t, protocol.ReplyFrameError, amqpError(t, err).Code)
	assert.Equal(t, StateClosed, c.State())
	assert.True(t, sink.isClosed())

	methods := sink.takeMethods(t, c.Registry())
	require.Len(t, methods, 1, "best-effort close is sent")
	assert.Equal(t, uint16(protocol.ReplyFrameError), methods[0].(*protocol.ConnectionClose).ReplyCode)
}

func TestConnectionFrameTooLarge(t *testing.T) {
	c, _ := openTestConnection(t, &protocol.ConnectionTune{FrameMax: 4096})

	big := frame.NewBodyFrame(1, make([]byte, 5000)).Encode()
	err := c.Feed(big)
	require.Error(t, err)
	assert.Equal(t, protocol.ReplyFrameError, amqpError(t, err).Code)
}

func TestConnectionUnknownMethod(t *testing.T) {
	c, sink := openTestConnection(t, defaultTune)

	payload := []byte{0, 10, 0, 99}
	f := &frame.Frame{Type: protocol.FrameMethod, ChannelID: 0, Payload: payload}
	err := c.Feed(f.Encode())
	require.Error(t, err)

	e := amqpError(t, err)
	assert.Equal(t, protocol.ReplyNotImplemented, e.Code)
	assert.Equal(t, uint16(10), e.ClassID)
	assert.Equal(t, uint16(99), e.MethodID)
	assert.True(t, sink.isClosed())
}

func TestConnectionMalformedMethod(t *testing.T) {
	c, _ := openTestConnection(t, defaultTune)

	// connection.blocked with a truncated reason
	f := &frame.Frame{Type: protocol.FrameMethod, Payload: []byte{0, 10, 0, 60, 5, 'a'}}
	err := c.Feed(f.Encode())
	require.Error(t, err)
	assert.Equal(t, protocol.ReplySyntaxError, amqpError(t, err).Code)
}

func TestConnectionHeartbeat(t *testing.T) {
	c, sink := openTestConnection(t, defaultTune)
	before := c.LastReceived()
	time.Sleep(time.Millisecond)

	require.NoError(t, c.Feed(frame.NewHeartbeatFrame().Encode()))
	assert.True(t, c.LastReceived().After(before))
	assert.Equal(t, StateOpen, c.State())

	require.NoError(t, c.SendHeartbeat())
	frames := sink.take()
	require.Len(t, frames, 1)
	assert.Equal(t, uint8(protocol.FrameHeartbeat), frames[0].Type)

	hb := &frame.Frame{Type: protocol.FrameHeartbeat, ChannelID: 1, Payload: []byte{}}
	require.NoError(t, c.Feed(hb.Encode()))
	assert.Equal(t, StateClosing, c.State())
	methods := sink.takeMethods(t, c.Registry())
	require.Len(t, methods, 1)
	assert.Equal(t, uint16(protocol.ReplyCommandInvalid), methods[0].(*protocol.ConnectionClose).ReplyCode)
}

func TestConnectionIgnoresTraceFrames(t *testing.T) {
	c, sink := openTestConnection(t, defaultTune)

	for _, typ := range []uint8{protocol.FrameOOBMethod, protocol.FrameOOBHeader, protocol.FrameOOBBody, protocol.FrameTrace} {
		f := &frame.Frame{Type: typ, ChannelID: 0, Payload: []byte("x")}
		require.NoError(t, c.Feed(f.Encode()))
	}
	assert.Equal(t, StateOpen, c.State())
	assert.Empty(t, sink.take())
}

func TestConnectionBlocked(t *testing.T) {
	c, _ := openTestConnection(t, defaultTune)
	notify := c.NotifyBlocked(make(chan BlockedNotification, 2))
	var reasons []string
	c.AddConnectionListener(ConnectionListenerFuncs{
		Blocked:   func(conn *Connection, reason string) { reasons = append(reasons, reason) },
		Unblocked: func(conn *Connection) { reasons = append(reasons, "") },
	})

	feed(t, c, 0, &protocol.ConnectionBlocked{Reason: "low on memory"})
	assert.True(t, c.IsBlocked())
	feed(t, c, 0, &protocol.ConnectionUnblocked{})
	assert.False(t, c.IsBlocked())

	assert.Equal(t, BlockedNotification{Active: true, Reason: "low on memory"}, <-notify)
	assert.Equal(t, BlockedNotification{Active: false}, <-notify)
	assert.Equal(t, []string{"low on memory", ""}, reasons)
}

func TestConnectionListenerMayReenter(t *testing.T) {
	var state ConnectionState
	c, sink := newTestConnection(t)
	c.AddConnectionListener(ConnectionListenerFuncs{
		Opened: func(conn *Connection) {
			state = conn.State()
			_, _ = conn.OpenChannel(nil)
		},
	})
	sink.take()

	feed(t, c, 0, connectionStart(c.Registry()), defaultTune, &protocol.ConnectionOpenOk{})
	assert.Equal(t, StateOpen, state)
	assert.Equal(t, 1, c.ChannelCount())
}

func TestConnectionWriteFailure(t *testing.T) {
	c, sink := openTestConnection(t, defaultTune)
	sink.fail(errors.New("broken pipe"))

	err := c.SendHeartbeat()
	require.Error(t, err)
	e := amqpError(t, err)
	assert.Equal(t, protocol.ReplyConnectionForced, e.Code)
	assert.Contains(t, e.Error(), "broken pipe")
	assert.Equal(t, StateClosed, c.State())
}

func TestConnectionMetrics(t *testing.T) {
	metrics := NewStandardMetricsCollector()
	c, sink := openTestConnection(t, defaultTune, WithMetrics(metrics))
	openTestChannel(t, c, sink, nil)

	assert.Equal(t, int64(1), metrics.GetConnectionsOpened())
	assert.Equal(t, int64(1), metrics.GetChannelsOpened())
	assert.Equal(t, int64(1), metrics.GetMethodsReceived("connection.tune"))
	assert.Equal(t, int64(4), metrics.GetFramesReceived(protocol.FrameMethod))
	// start-ok, tune-ok, open, channel.open
	assert.Equal(t, int64(4), metrics.GetFramesSent(protocol.FrameMethod))

	require.NoError(t, c.Close())
	feed(t, c, 0, &protocol.ConnectionCloseOk{})
	assert.Equal(t, int64(1), metrics.GetConnectionsClosed())
	assert.Equal(t, int64(1), metrics.GetChannelsClosed())
}

func TestConnectionStartTwice(t *testing.T) {
	c, _ := newTestConnection(t)
	assert.Error(t, c.Start())
}

func TestConnectionHeartbeatBeforeStart(t *testing.T) {
	sink := &recordingSink{}
	c, err := NewConnection(NewConfig(WithHeartbeat(0)), sink)
	require.NoError(t, err)

	assert.ErrorIs(t, c.SendHeartbeat(), ErrNotOpen)
	assert.Empty(t, sink.frames)
	assert.Nil(t, sink.header)
}

func TestNewConnectionInvalidConfig(t *testing.T) {
	_, err := NewConnection(NewConfig(WithProtocol("1-0")), &recordingSink{})
	assert.Error(t, err)

	_, err = NewConnection(NewConfig(WithFrameMax(100)), &recordingSink{})
	assert.Error(t, err)
}
