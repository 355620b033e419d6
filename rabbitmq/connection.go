package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/israelio/rabbit-wire/frame"
	"github.com/israelio/rabbit-wire/internal/util"
	"github.com/israelio/rabbit-wire/protocol"
)

// ConnectionState represents the current state of a connection
type ConnectionState int32

const (
	StateOpening ConnectionState = iota
	StateOpen
	StateClosing
	StateClosed
)

// String returns a string representation of the connection state
func (cs ConnectionState) String() string {
	switch cs {
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// handshakeStep is the next handshake method the connection waits for
type handshakeStep int

const (
	stepStart  handshakeStep = iota // connection.start
	stepTune                        // connection.secure or connection.tune
	stepOpenOk                      // connection.open-ok
	stepDone
)

// Connection is the client side of one AMQP connection.
//
// It performs no I/O of its own: inbound bytes are pushed in with Feed and
// outbound frames go to the Sink given to NewConnection. One mutex guards
// all connection and channel state; listener callbacks and call completions
// run after it is released, in order.
type Connection struct {
	id      string
	cfg     Config
	reg     *protocol.Registry
	sink    frame.Sink
	parser  *frame.Parser
	log     logr.Logger
	metrics MetricsCollector

	mu      sync.Mutex
	state   ConnectionState
	step    handshakeStep
	started bool
	events  []func()

	// Learned from connection.start
	serverProperties protocol.Table
	mechanisms       []string
	locales          []string
	mechanism        string
	locale           string

	// Connection parameters (negotiated)
	tuned      bool
	channelMax uint16
	frameMax   uint32
	heartbeat  uint16

	blocked bool

	// Channels
	ids      *util.IntAllocator
	channels map[uint16]*Channel
	deferred []*Channel // opened before connection.open-ok

	err    *Error
	opened *util.BlockingCell[struct{}]
	closed *util.BlockingCell[*Error]

	listeners    []ConnectionListener
	closeChans   []chan *Error
	blockedChans []chan BlockedNotification

	lastReceived atomic.Int64 // unix nanoseconds
}

// NewConnection creates a connection that writes to sink. Options are
// applied over cfg. Nothing is sent until Start.
func NewConnection(cfg Config, sink frame.Sink, opts ...Option) (*Connection, error) {
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	reg, err := cfg.registry()
	if err != nil {
		return nil, err
	}
	if cfg.Logger.GetSink() == nil {
		cfg.Logger = logr.Discard()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewNoOpMetricsCollector()
	}

	id := uuid.NewString()
	return &Connection{
		id:       id,
		cfg:      cfg,
		reg:      reg,
		sink:     sink,
		parser:   frame.NewParser(),
		log:      cfg.Logger.WithValues("connection", id),
		metrics:  cfg.Metrics,
		channels: make(map[uint16]*Channel),
		opened:   util.NewBlockingCell[struct{}](),
		closed:   util.NewBlockingCell[*Error](),
	}, nil
}

// ID returns the connection's client-side identifier
func (c *Connection) ID() string {
	return c.id
}

// Registry returns the method registry of the connection's protocol version
func (c *Connection) Registry() *protocol.Registry {
	return c.reg
}

// Start sends the protocol header and begins the handshake
func (c *Connection) Start() error {
	c.mu.Lock()
	defer c.unlock()

	if c.started {
		return errors.New("amqp: connection already started")
	}
	if c.state == StateClosed {
		return c.closeErr()
	}
	c.started = true
	c.lastReceived.Store(time.Now().UnixNano())

	if err := c.sink.WriteProtocolHeader(c.reg.Header); err != nil {
		c.failLocked(localError(protocol.ReplyConnectionForced, fmt.Errorf("write protocol header: %w", err)), false)
		return c.closeErr()
	}
	c.log.V(1).Info("sent protocol header", "protocol", c.reg.String(), "vhost", c.cfg.VHost)
	return nil
}

// Feed hands inbound bytes to the connection. Bytes may arrive in chunks
// of any size. The returned error is non-nil once the connection is closed;
// a connection that is closing still needs its close-ok fed.
func (c *Connection) Feed(data []byte) error {
	c.mu.Lock()
	defer c.unlock()

	if c.state == StateClosed {
		return c.closeErr()
	}
	c.parser.Append(data)

	if c.step == stepStart && c.parser.Buffered() > 0 && c.parser.Peek(1)[0] == 'A' {
		// the broker refused our version and answered with its own header
		if c.parser.Buffered() < len(c.reg.Header) {
			return nil
		}
		var header [8]byte
		copy(header[:], c.parser.Peek(8))
		c.failLocked(localError(protocol.ReplyNotImplemented,
			fmt.Errorf("%w: broker requires %s, client sent %s", ErrVersionMismatch, headerVersion(header), headerVersion(c.reg.Header))), false)
		return c.closeErr()
	}

	for c.state != StateClosed {
		f, ok, err := c.parser.Extract()
		if err != nil {
			c.failLocked(localError(protocol.ReplyFrameError, err), true)
			break
		}
		if !ok {
			return nil
		}
		c.handleFrameLocked(f)
	}
	if c.state != StateClosed {
		return nil
	}
	return c.closeErr()
}

// HandleFrame handles one decoded inbound frame
func (c *Connection) HandleFrame(f *frame.Frame) error {
	c.mu.Lock()
	defer c.unlock()

	if c.state == StateClosed {
		return c.closeErr()
	}
	c.handleFrameLocked(f)
	if c.state == StateClosed {
		return c.closeErr()
	}
	return nil
}

// headerVersion names the protocol version announced by a protocol header
func headerVersion(h [8]byte) string {
	if h[4] == 0 {
		return fmt.Sprintf("AMQP %d-%d-%d", h[5], h[6], h[7])
	}
	return fmt.Sprintf("AMQP %d-%d", h[6], h[7])
}

func (c *Connection) handleFrameLocked(f *frame.Frame) {
	c.lastReceived.Store(time.Now().UnixNano())
	c.metrics.FrameReceived(f.Type)
	c.log.V(2).Info("received frame", "type", frame.TypeName(f.Type), "channel", f.ChannelID, "size", len(f.Payload))

	switch f.Type {
	case protocol.FrameHeartbeat:
		if f.ChannelID != 0 {
			c.exceptionLocked(protocolError(protocol.ReplyCommandInvalid, 0, 0, "heartbeat frame on channel %d", f.ChannelID))
		}
		return
	case protocol.FrameMethod, protocol.FrameHeader, protocol.FrameBody:
	default:
		// 0-8 out-of-band and trace frames carry nothing we act on
		return
	}

	if f.ChannelID == 0 {
		c.handleConnectionFrameLocked(f)
		return
	}
	if c.state == StateClosing {
		return
	}

	ch, ok := c.channels[f.ChannelID]
	if !ok {
		c.exceptionLocked(protocolError(protocol.ReplyChannelError, 0, 0, "frame for unknown channel %d", f.ChannelID))
		return
	}
	ch.handleFrameLocked(f)
}

// decodeLocked decodes a method frame; on failure the connection is closed
func (c *Connection) decodeLocked(f *frame.Frame) (protocol.Method, *protocol.MethodSpec, bool) {
	m, err := f.Method(c.reg)
	if err != nil {
		var unknown *protocol.UnknownMethodError
		if errors.As(err, &unknown) {
			c.failLocked(protocolError(protocol.ReplyNotImplemented, unknown.ClassID, unknown.MethodID,
				"unknown method %d.%d on channel %d", unknown.ClassID, unknown.MethodID, f.ChannelID), true)
		} else {
			c.failLocked(localError(protocol.ReplySyntaxError, fmt.Errorf("decode method on channel %d: %w", f.ChannelID, err)), true)
		}
		return nil, nil, false
	}
	spec, _ := c.reg.Lookup(m.ID())
	c.metrics.MethodReceived(spec.Name)
	return m, spec, true
}

func (c *Connection) handleConnectionFrameLocked(f *frame.Frame) {
	if f.Type != protocol.FrameMethod {
		c.exceptionLocked(protocolError(protocol.ReplyUnexpectedFrame, 0, 0, "%s frame on channel 0", frame.TypeName(f.Type)))
		return
	}
	m, spec, ok := c.decodeLocked(f)
	if !ok {
		return
	}

	if cm, ok := m.(*protocol.ConnectionClose); ok {
		c.handleCloseLocked(cm)
		return
	}
	if c.state == StateClosing {
		if _, ok := m.(*protocol.ConnectionCloseOk); ok {
			c.log.V(1).Info("close handshake complete")
			c.finishLocked(c.err)
		}
		return
	}

	switch c.step {
	case stepStart:
		if start, ok := m.(*protocol.ConnectionStart); ok {
			c.handleStartLocked(start)
			return
		}
	case stepTune:
		switch m := m.(type) {
		case *protocol.ConnectionSecure:
			c.handleSecureLocked(m)
			return
		case *protocol.ConnectionTune:
			c.handleTuneLocked(m)
			return
		}
	case stepOpenOk:
		switch m := m.(type) {
		case *protocol.ConnectionOpenOk:
			c.handleOpenOkLocked()
			return
		case *protocol.ConnectionRedirect:
			c.failLocked(NewError(protocol.ReplyConnectionForced, "broker redirected connection to "+m.Host, true), false)
			return
		}
	case stepDone:
		switch m := m.(type) {
		case *protocol.ConnectionBlocked:
			c.setBlockedLocked(true, m.Reason)
			return
		case *protocol.ConnectionUnblocked:
			c.setBlockedLocked(false, "")
			return
		case *protocol.ConnectionUpdateSecretOk:
			return
		}
	}

	classID, methodID := m.ID()
	c.exceptionLocked(protocolError(protocol.ReplyCommandInvalid, classID, methodID,
		"unexpected %s while connection is %s", spec.Name, c.state))
}

func (c *Connection) handleStartLocked(m *protocol.ConnectionStart) {
	if m.VersionMajor != c.reg.VersionMajor || m.VersionMinor != c.reg.VersionMinor {
		c.failLocked(localError(protocol.ReplyNotImplemented,
			fmt.Errorf("%w: broker announced %d-%d, client speaks %s", ErrVersionMismatch, m.VersionMajor, m.VersionMinor, c.reg.Name)), false)
		return
	}

	c.serverProperties = m.ServerProperties
	c.mechanisms = strings.Fields(m.Mechanisms)
	c.locales = strings.Fields(m.Locales)

	auth, ok := pickMechanism(c.cfg.mechanisms(), m.Mechanisms)
	if !ok {
		c.failLocked(localError(protocol.ReplyAccessRefused, fmt.Errorf("%w: broker offers %q", ErrNoMechanism, m.Mechanisms)), false)
		return
	}
	c.mechanism = auth.Mechanism()
	c.locale = pickLocale(c.cfg.Locale, m.Locales)
	c.log.V(1).Info("received connection.start", "mechanism", c.mechanism, "locale", c.locale)

	if !c.sendLocked(0, &protocol.ConnectionStartOk{
		ClientProperties: c.cfg.clientProperties(),
		Mechanism:        c.mechanism,
		Response:         auth.Response(),
		Locale:           c.locale,
	}) {
		return
	}
	c.step = stepTune
}

func (c *Connection) handleSecureLocked(m *protocol.ConnectionSecure) {
	auth, _ := pickMechanism(c.cfg.mechanisms(), c.mechanism)
	response := ""
	if auth != nil {
		response = auth.Response()
	}
	c.sendLocked(0, &protocol.ConnectionSecureOk{Response: response})
}

func (c *Connection) handleTuneLocked(m *protocol.ConnectionTune) {
	c.channelMax = negotiate(c.cfg.ChannelMax, m.ChannelMax)
	c.frameMax = negotiate(c.cfg.FrameMax, m.FrameMax)
	c.heartbeat = negotiate(heartbeatSeconds(c.cfg.Heartbeat), m.Heartbeat)
	c.tuned = true

	limit := c.channelMax
	if limit == 0 {
		limit = protocol.ChannelMaxLimit
	}
	c.ids = util.NewIntAllocator(1, int(limit))
	c.parser.SetMaxFrameSize(c.frameMax)
	if s, ok := c.sink.(interface{ SetMaxFrameSize(uint32) }); ok {
		s.SetMaxFrameSize(c.frameMax)
	}
	c.log.V(1).Info("tuned", "channelMax", c.channelMax, "frameMax", c.frameMax, "heartbeat", c.heartbeat)

	if !c.sendLocked(0, &protocol.ConnectionTuneOk{
		ChannelMax: c.channelMax,
		FrameMax:   c.frameMax,
		Heartbeat:  c.heartbeat,
	}) {
		return
	}
	if !c.sendLocked(0, &protocol.ConnectionOpen{VirtualHost: c.cfg.VHost}) {
		return
	}
	c.step = stepOpenOk
}

func (c *Connection) handleOpenOkLocked() {
	c.step = stepDone
	c.state = StateOpen
	c.metrics.ConnectionOpened()
	c.log.V(1).Info("connection open", "vhost", c.cfg.VHost)
	_ = c.opened.Set(struct{}{})
	c.notifyLocked(func(l ConnectionListener) { l.OnConnectionOpened(c) })

	deferred := c.deferred
	c.deferred = nil
	for _, ch := range deferred {
		if c.state != StateOpen {
			break
		}
		if err := c.activateLocked(ch); err != nil {
			ch.finishLocked(localError(protocol.ReplyChannelError, err))
		}
	}
}

func (c *Connection) handleCloseLocked(m *protocol.ConnectionClose) {
	err := serverError(m.ReplyCode, m.ReplyText, m.ClassID, m.MethodID)
	if c.state == StateClosing {
		// both sides closed at once; the reason is ours
		err = c.err
	} else {
		c.log.Error(err, "connection closed by broker")
		c.metrics.ConnectionError(err.Code)
	}
	if f, ferr := frame.NewMethodFrame(c.reg, 0, &protocol.ConnectionCloseOk{}); ferr == nil {
		_ = c.writeLocked(f)
	}
	c.finishLocked(err)
}

func (c *Connection) setBlockedLocked(blocked bool, reason string) {
	c.blocked = blocked
	c.log.V(1).Info("connection flow changed", "blocked", blocked, "reason", reason)
	n := BlockedNotification{Active: blocked, Reason: reason}
	chans := c.blockedChans
	c.emit(func() {
		for _, ch := range chans {
			select {
			case ch <- n:
			default:
			}
		}
	})
	c.notifyLocked(func(l ConnectionListener) {
		if blocked {
			l.OnConnectionBlocked(c, reason)
		} else {
			l.OnConnectionUnblocked(c)
		}
	})
}

// activateLocked assigns an id to ch and sends channel.open
func (c *Connection) activateLocked(ch *Channel) error {
	id, ok := c.ids.Allocate()
	if !ok {
		return ErrNoChannelsAvailable
	}
	ch.setID(uint16(id))
	c.channels[ch.id] = ch
	if !ch.sendOpenLocked() {
		return c.closeErr()
	}
	return nil
}

// releaseLocked returns ch's id to the pool
func (c *Connection) releaseLocked(ch *Channel) {
	if cur, ok := c.channels[ch.id]; ok && cur == ch {
		delete(c.channels, ch.id)
		c.ids.Free(int(ch.id))
	}
}

// OpenChannel allocates the lowest free channel id and sends channel.open.
// Channels opened before the handshake completes get their id and send
// channel.open once the connection is open. Use Channel.WaitOpen to wait for
// channel.open-ok.
func (c *Connection) OpenChannel(listener ChannelListener) (*Channel, error) {
	c.mu.Lock()
	defer c.unlock()

	switch c.state {
	case StateClosing, StateClosed:
		return nil, c.closeErr()
	}

	ch := newChannel(c, listener)
	if c.state == StateOpening {
		c.deferred = append(c.deferred, ch)
		return ch, nil
	}
	if err := c.activateLocked(ch); err != nil {
		return nil, err
	}
	return ch, nil
}

// Close starts the close handshake. It returns at once; use Wait to block
// until the broker confirms.
func (c *Connection) Close() error {
	return c.CloseWithCode(protocol.ReplySuccess, "connection closed")
}

// CloseWithCode closes the connection with a specific reply code and text.
// Calling it again while a close is in flight does nothing.
func (c *Connection) CloseWithCode(code int, text string) error {
	c.mu.Lock()
	defer c.unlock()

	switch c.state {
	case StateClosing, StateClosed:
		return nil
	}

	var err *Error
	if code != protocol.ReplySuccess {
		err = NewError(code, text, false)
	}
	if c.step == stepStart {
		// nothing negotiated yet, so there is no close handshake to run
		c.finishLocked(err)
		return nil
	}
	c.beginCloseLocked(err, &protocol.ConnectionClose{ReplyCode: uint16(code), ReplyText: shortText(text)})
	return nil
}

// exceptionLocked raises a connection exception: the connection sends
// connection.close and waits for close-ok
func (c *Connection) exceptionLocked(err *Error) {
	if c.state == StateClosing || c.state == StateClosed {
		return
	}
	c.log.Error(err, "connection exception")
	c.metrics.ConnectionError(err.Code)
	c.beginCloseLocked(err, &protocol.ConnectionClose{
		ReplyCode: uint16(err.Code),
		ReplyText: shortText(err.Reason),
		ClassID:   err.ClassID,
		MethodID:  err.MethodID,
	})
}

func (c *Connection) beginCloseLocked(err *Error, m *protocol.ConnectionClose) {
	if !c.sendLocked(0, m) {
		return
	}
	c.state = StateClosing
	c.err = err
	c.log.V(1).Info("closing connection", "code", m.ReplyCode, "reason", m.ReplyText)
	c.failChannelsLocked()
}

// failLocked closes the connection at once, without waiting for close-ok.
// With sendClose a best-effort connection.close tells the broker why.
func (c *Connection) failLocked(err *Error, sendClose bool) {
	if c.state == StateClosed {
		return
	}
	c.log.Error(err, "connection failed")
	c.metrics.ConnectionError(err.Code)
	if sendClose && c.step != stepStart {
		f, ferr := frame.NewMethodFrame(c.reg, 0, &protocol.ConnectionClose{
			ReplyCode: uint16(err.Code),
			ReplyText: shortText(err.Reason),
			ClassID:   err.ClassID,
			MethodID:  err.MethodID,
		})
		if ferr == nil {
			_ = c.writeLocked(f)
		}
	}
	c.finishLocked(err)
}

// finishLocked moves the connection to closed and releases everything
func (c *Connection) finishLocked(err *Error) {
	if c.state == StateClosed {
		return
	}
	c.state = StateClosed
	c.step = stepDone
	c.err = err
	c.failChannelsLocked()

	if cerr := c.sink.Close(); cerr != nil {
		c.log.V(1).Info("closing transport", "error", cerr.Error())
	}
	c.metrics.ConnectionClosed()
	c.log.V(1).Info("connection closed")

	chans := c.closeChans
	c.closeChans = nil
	c.notifyLocked(func(l ConnectionListener) { l.OnConnectionClosed(c, err) })
	c.emit(func() {
		for _, ch := range chans {
			if err != nil {
				select {
				case ch <- err:
				default:
				}
			}
			close(ch)
		}
		_ = c.closed.Set(err)
	})
}

// failChannelsLocked closes every channel with the connection's error
func (c *Connection) failChannelsLocked() {
	err := c.err
	if err == nil {
		err = ErrClosed
	}
	for id, ch := range c.channels {
		ch.finishLocked(err)
		delete(c.channels, id)
	}
	for _, ch := range c.deferred {
		ch.finishLocked(err)
	}
	c.deferred = nil
}

// abort fails the connection from outside the protocol, e.g. on a
// transport error or missed heartbeats
func (c *Connection) abort(err *Error) {
	c.mu.Lock()
	defer c.unlock()
	c.failLocked(err, false)
}

// writeLocked writes frames back to back
func (c *Connection) writeLocked(frames ...*frame.Frame) error {
	var err error
	if len(frames) == 1 {
		err = c.sink.WriteFrame(frames[0])
	} else {
		err = c.sink.WriteFrames(frames...)
	}
	if err != nil {
		return err
	}
	for _, f := range frames {
		c.metrics.FrameSent(f.Type)
		c.log.V(2).Info("sent frame", "type", frame.TypeName(f.Type), "channel", f.ChannelID, "size", len(f.Payload))
	}
	return nil
}

// writeFramesLocked writes frames; a write failure fails the connection
func (c *Connection) writeFramesLocked(frames ...*frame.Frame) bool {
	if err := c.writeLocked(frames...); err != nil {
		c.failLocked(localError(protocol.ReplyConnectionForced, fmt.Errorf("write: %w", err)), false)
		return false
	}
	return true
}

// sendLocked encodes and writes a method generated by the connection itself
func (c *Connection) sendLocked(channelID uint16, m protocol.Method) bool {
	f, err := frame.NewMethodFrame(c.reg, channelID, m)
	if err != nil {
		c.failLocked(localError(protocol.ReplyInternalError, fmt.Errorf("encode: %w", err)), false)
		return false
	}
	return c.writeFramesLocked(f)
}

// bodyChunk is the largest body frame payload the connection may send
func (c *Connection) bodyChunk() int {
	switch {
	case !c.tuned:
		return protocol.FrameMinSize - protocol.FrameOverhead
	case c.frameMax == 0:
		return 0
	default:
		return int(c.frameMax - protocol.FrameOverhead)
	}
}

// emit queues fn to run once the lock is released
func (c *Connection) emit(fn func()) {
	c.events = append(c.events, fn)
}

func (c *Connection) notifyLocked(fn func(ConnectionListener)) {
	listeners := append([]ConnectionListener(nil), c.listeners...)
	c.emit(func() {
		for _, l := range listeners {
			fn(l)
		}
	})
}

// unlock releases the lock and runs the events queued while it was held
func (c *Connection) unlock() {
	events := c.events
	c.events = nil
	c.mu.Unlock()
	for _, fn := range events {
		fn()
	}
}

// closeErr returns the error operations on a closed connection fail with
func (c *Connection) closeErr() error {
	if c.err != nil {
		return c.err
	}
	if c.state == StateClosed || c.state == StateClosing {
		return ErrClosed
	}
	return nil
}

// SendHeartbeat writes a heartbeat frame
func (c *Connection) SendHeartbeat() error {
	c.mu.Lock()
	defer c.unlock()

	if c.state == StateClosed {
		return c.closeErr()
	}
	if !c.started {
		return ErrNotOpen
	}
	if !c.writeFramesLocked(frame.NewHeartbeatFrame()) {
		return c.closeErr()
	}
	return nil
}

// LastReceived returns when the last frame arrived
func (c *Connection) LastReceived() time.Time {
	n := c.lastReceived.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// State returns the current connection state
func (c *Connection) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsClosed returns whether the connection is closed
func (c *Connection) IsClosed() bool {
	return c.State() == StateClosed
}

// IsBlocked returns whether the broker has blocked publishing
func (c *Connection) IsBlocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocked
}

// ChannelMax returns the negotiated maximum channel id; 0 means no limit
func (c *Connection) ChannelMax() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channelMax
}

// FrameMax returns the negotiated maximum frame size; 0 means no limit
func (c *Connection) FrameMax() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frameMax
}

// Heartbeat returns the negotiated heartbeat interval; 0 disables heartbeats
func (c *Connection) Heartbeat() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Duration(c.heartbeat) * time.Second
}

// ServerProperties returns the broker's properties from connection.start
func (c *Connection) ServerProperties() protocol.Table {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverProperties
}

// Mechanisms returns the SASL mechanisms the broker offered
func (c *Connection) Mechanisms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.mechanisms...)
}

// Locales returns the locales the broker offered
func (c *Connection) Locales() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.locales...)
}

// ChannelCount returns the number of channels holding an id
func (c *Connection) ChannelCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.channels)
}

// Opened is closed once connection.open-ok arrives
func (c *Connection) Opened() <-chan struct{} {
	return c.opened.Done()
}

// Done is closed once the connection is closed
func (c *Connection) Done() <-chan struct{} {
	return c.closed.Done()
}

// Err returns why the connection closed; nil while open or after a clean
// close
func (c *Connection) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		return nil
	}
	return c.err
}

// Wait blocks until the connection is closed and returns Err
func (c *Connection) Wait(ctx context.Context) error {
	err, werr := c.closed.GetWithContext(ctx)
	if werr != nil {
		return werr
	}
	if err == nil {
		return nil
	}
	return err
}

// NotifyClose registers a channel that receives the close error, if any,
// and is then closed
func (c *Connection) NotifyClose(ch chan *Error) chan *Error {
	c.mu.Lock()
	defer c.unlock()

	if c.state == StateClosed {
		if c.err != nil {
			select {
			case ch <- c.err:
			default:
			}
		}
		close(ch)
		return ch
	}
	c.closeChans = append(c.closeChans, ch)
	return ch
}

// NotifyBlocked registers a channel for connection blocked/unblocked
// notifications. Sends do not block; size the channel accordingly.
func (c *Connection) NotifyBlocked(ch chan BlockedNotification) chan BlockedNotification {
	c.mu.Lock()
	defer c.unlock()
	c.blockedChans = append(c.blockedChans, ch)
	return ch
}

// AddConnectionListener adds a connection lifecycle listener
func (c *Connection) AddConnectionListener(listener ConnectionListener) {
	c.mu.Lock()
	defer c.unlock()
	c.listeners = append(c.listeners, listener)
}

// shortText truncates s to fit a short string
func shortText(s string) string {
	if len(s) > 255 {
		return s[:255]
	}
	return s
}
