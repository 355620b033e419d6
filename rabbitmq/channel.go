package rabbitmq

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/israelio/rabbit-wire/frame"
	"github.com/israelio/rabbit-wire/internal/util"
	"github.com/israelio/rabbit-wire/protocol"
)

// ChannelState represents the state of a channel
type ChannelState int32

const (
	ChannelStateOpening ChannelState = iota
	ChannelStateOpen
	ChannelStateClosing
	ChannelStateClosed
)

// String returns a string representation of the channel state
func (s ChannelState) String() string {
	switch s {
	case ChannelStateOpening:
		return "opening"
	case ChannelStateOpen:
		return "open"
	case ChannelStateClosing:
		return "closing"
	case ChannelStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Reply is the broker's answer to a synchronous method. Delivery is set
// when the answer is a basic.get-ok.
type Reply struct {
	Method   protocol.Method
	Delivery *Delivery
}

// pendingCall is a synchronous method waiting for its reply
type pendingCall struct {
	spec *protocol.MethodSpec
	done func(Reply, error)
}

// Channel represents an AMQP channel. All state is guarded by the owning
// connection's lock.
type Channel struct {
	conn     *Connection
	id       uint16
	log      logr.Logger
	listener ChannelListener

	state   ChannelState
	flow    bool
	txMode  bool
	pending []*pendingCall
	content assembler
	outbox  []*frame.Frame // written before the channel had an id

	err    *Error
	opened *util.BlockingCell[struct{}]
	closed *util.BlockingCell[*Error]

	closeChans []chan *Error
	flowChans  []chan bool
}

func newChannel(c *Connection, listener ChannelListener) *Channel {
	if listener == nil {
		listener = ChannelListenerFuncs{}
	}
	return &Channel{
		conn:     c,
		log:      c.log,
		listener: listener,
		flow:     true,
		opened:   util.NewBlockingCell[struct{}](),
		closed:   util.NewBlockingCell[*Error](),
	}
}

func (ch *Channel) setID(id uint16) {
	ch.id = id
	ch.log = ch.conn.log.WithValues("channel", id)
}

// sendOpenLocked sends channel.open followed by anything queued while the
// channel was deferred
func (ch *Channel) sendOpenLocked() bool {
	f, err := frame.NewMethodFrame(ch.conn.reg, ch.id, &protocol.ChannelOpen{})
	if err != nil {
		ch.conn.failLocked(localError(protocol.ReplyInternalError, fmt.Errorf("encode: %w", err)), false)
		return false
	}
	frames := append([]*frame.Frame{f}, ch.outbox...)
	ch.outbox = nil
	for _, qf := range frames[1:] {
		qf.ChannelID = ch.id
	}
	ch.log.V(1).Info("opening channel", "queued", len(frames)-1)
	return ch.conn.writeFramesLocked(frames...)
}

// writeLocked writes frames on the channel, or queues them while the
// channel is waiting for the connection to open
func (ch *Channel) writeLocked(frames ...*frame.Frame) bool {
	if ch.id == 0 {
		ch.outbox = append(ch.outbox, frames...)
		return true
	}
	return ch.conn.writeFramesLocked(frames...)
}

func (ch *Channel) usableLocked() error {
	switch ch.state {
	case ChannelStateClosing, ChannelStateClosed:
		return ErrChannelClosed
	}
	return nil
}

// Call sends m on the channel. When m is synchronous and does not set
// no-wait, done runs with the broker's reply; replies are matched to calls
// in the order the calls were made. Otherwise done runs once the method is
// written. done may be nil.
func (ch *Channel) Call(m protocol.Method, done func(Reply, error)) error {
	c := ch.conn
	c.mu.Lock()
	defer c.unlock()

	spec, err := c.reg.Lookup(m.ID())
	if err != nil {
		return err
	}
	if spec.Content {
		return fmt.Errorf("amqp: %s carries content, use Publish", spec.Name)
	}
	if spec.ClassID == protocol.ClassConnection ||
		(spec.ClassID == protocol.ClassChannel && spec.MethodID != protocol.MethodChannelFlow) {
		return fmt.Errorf("amqp: %s cannot be sent directly", spec.Name)
	}
	if err := ch.usableLocked(); err != nil {
		return err
	}

	f, err := frame.NewMethodFrame(c.reg, ch.id, m)
	if err != nil {
		return fmt.Errorf("encode %s: %w", spec.Name, err)
	}
	if !ch.writeLocked(f) {
		return c.closeErr()
	}

	if spec.Sync && !protocol.NoWait(m) {
		ch.pending = append(ch.pending, &pendingCall{spec: spec, done: done})
	} else if done != nil {
		c.emit(func() { done(Reply{}, nil) })
	}
	return nil
}

// Send sends m without waiting for a reply
func (ch *Channel) Send(m protocol.Method) error {
	return ch.Call(m, nil)
}

// Invoke sends m and blocks until its reply arrives. Something must be
// feeding the connection concurrently, as the transport started by Dial does.
func (ch *Channel) Invoke(ctx context.Context, m protocol.Method) (Reply, error) {
	type result struct {
		reply Reply
		err   error
	}
	cell := util.NewBlockingCell[result]()
	err := ch.Call(m, func(r Reply, err error) {
		_ = cell.Set(result{reply: r, err: err})
	})
	if err != nil {
		return Reply{}, err
	}
	res, err := cell.GetWithContext(ctx)
	if err != nil {
		return Reply{}, err
	}
	return res.reply, res.err
}

// Publish sends a content method with its header and body. The body is
// split into frames that fit the negotiated frame size; all frames of the
// message are written without other frames between them.
func (ch *Channel) Publish(m protocol.Method, props protocol.Properties, body []byte) error {
	c := ch.conn
	c.mu.Lock()
	defer c.unlock()

	spec, err := c.reg.Lookup(m.ID())
	if err != nil {
		return err
	}
	if !spec.Content {
		return fmt.Errorf("amqp: %s carries no content", spec.Name)
	}
	if err := ch.usableLocked(); err != nil {
		return err
	}

	mf, err := frame.NewMethodFrame(c.reg, ch.id, m)
	if err != nil {
		return fmt.Errorf("encode %s: %w", spec.Name, err)
	}
	hf, err := frame.NewHeaderFrame(c.reg, ch.id, &protocol.ContentHeader{
		ClassID:    spec.ClassID,
		BodySize:   uint64(len(body)),
		Properties: props,
	})
	if err != nil {
		return fmt.Errorf("encode content header: %w", err)
	}

	frames := []*frame.Frame{mf, hf}
	frames = append(frames, splitBody(ch.id, body, c.bodyChunk())...)
	if !ch.writeLocked(frames...) {
		return c.closeErr()
	}
	c.metrics.MessagePublished()
	return nil
}

// splitBody cuts body into body frames of at most chunk bytes. A chunk of 0
// means one frame.
func splitBody(channelID uint16, body []byte, chunk int) []*frame.Frame {
	if len(body) == 0 {
		return nil
	}
	if chunk <= 0 {
		return []*frame.Frame{frame.NewBodyFrame(channelID, body)}
	}
	frames := make([]*frame.Frame, 0, (len(body)+chunk-1)/chunk)
	for len(body) > 0 {
		n := min(chunk, len(body))
		frames = append(frames, frame.NewBodyFrame(channelID, body[:n]))
		body = body[n:]
	}
	return frames
}

// Ack acknowledges one or more deliveries
func (ch *Channel) Ack(deliveryTag uint64, multiple bool) error {
	if err := ch.Send(&protocol.BasicAck{DeliveryTag: deliveryTag, Multiple: multiple}); err != nil {
		return err
	}
	ch.conn.metrics.MessageAcked()
	return nil
}

// Nack negatively acknowledges one or more deliveries (0-9-1)
func (ch *Channel) Nack(deliveryTag uint64, multiple, requeue bool) error {
	if err := ch.Send(&protocol.BasicNack{DeliveryTag: deliveryTag, Multiple: multiple, Requeue: requeue}); err != nil {
		return err
	}
	ch.conn.metrics.MessageNacked()
	return nil
}

// Reject rejects a delivery
func (ch *Channel) Reject(deliveryTag uint64, requeue bool) error {
	if err := ch.Send(&protocol.BasicReject{DeliveryTag: deliveryTag, Requeue: requeue}); err != nil {
		return err
	}
	ch.conn.metrics.MessageRejected()
	return nil
}

// Close closes the channel
func (ch *Channel) Close() error {
	return ch.CloseWithCode(protocol.ReplySuccess, "channel closed")
}

// CloseWithCode sends channel.close and fails pending calls. The id is
// released when the broker confirms. Calling it again while a close is in
// flight does nothing.
func (ch *Channel) CloseWithCode(code int, text string) error {
	c := ch.conn
	c.mu.Lock()
	defer c.unlock()

	switch ch.state {
	case ChannelStateClosing, ChannelStateClosed:
		return nil
	}

	var err *Error
	if code != protocol.ReplySuccess {
		err = NewError(code, text, false)
	}
	if ch.id == 0 {
		// channel.open was never sent
		c.dropDeferredLocked(ch)
		ch.finishLocked(err)
		return nil
	}
	if !c.sendLocked(ch.id, &protocol.ChannelClose{ReplyCode: uint16(code), ReplyText: shortText(text)}) {
		return c.closeErr()
	}
	ch.log.V(1).Info("closing channel", "code", code, "reason", text)
	ch.state = ChannelStateClosing
	ch.err = err
	ch.content.reset()
	ch.failPendingLocked(ErrChannelClosed)
	return nil
}

func (c *Connection) dropDeferredLocked(ch *Channel) {
	for i, d := range c.deferred {
		if d == ch {
			c.deferred = append(c.deferred[:i], c.deferred[i+1:]...)
			return
		}
	}
}

func (ch *Channel) handleFrameLocked(f *frame.Frame) {
	c := ch.conn
	switch f.Type {
	case protocol.FrameMethod:
		ch.handleMethodLocked(f)
	case protocol.FrameHeader:
		if ch.state == ChannelStateClosing {
			return
		}
		h, err := f.Header(c.reg)
		if err != nil {
			c.failLocked(localError(protocol.ReplySyntaxError, fmt.Errorf("decode content header on channel %d: %w", ch.id, err)), true)
			return
		}
		done, perr := ch.content.addHeader(h)
		if perr != nil {
			c.exceptionLocked(perr)
			return
		}
		if done {
			ch.deliverLocked()
		}
	case protocol.FrameBody:
		if ch.state == ChannelStateClosing {
			return
		}
		done, perr := ch.content.addBody(f.Payload)
		if perr != nil {
			c.exceptionLocked(perr)
			return
		}
		if done {
			ch.deliverLocked()
		}
	}
}

func (ch *Channel) handleMethodLocked(f *frame.Frame) {
	c := ch.conn
	m, spec, ok := c.decodeLocked(f)
	if !ok {
		return
	}
	classID, methodID := m.ID()

	if ch.state == ChannelStateClosing {
		switch m.(type) {
		case *protocol.ChannelClose:
			// both sides closed at once; keep waiting for our close-ok
			c.sendLocked(ch.id, &protocol.ChannelCloseOk{})
		case *protocol.ChannelCloseOk:
			c.releaseLocked(ch)
			ch.finishLocked(ch.err)
		}
		return
	}

	if ch.content.busy() {
		c.exceptionLocked(protocolError(protocol.ReplyUnexpectedFrame, classID, methodID,
			"%s received on channel %d while content is incomplete", spec.Name, ch.id))
		return
	}

	switch m := m.(type) {
	case *protocol.ChannelOpenOk:
		if ch.state != ChannelStateOpening {
			ch.exceptionLocked(protocolError(protocol.ReplyCommandInvalid, classID, methodID,
				"channel.open-ok on open channel %d", ch.id))
			return
		}
		ch.state = ChannelStateOpen
		c.metrics.ChannelOpened()
		ch.log.V(1).Info("channel open")
		_ = ch.opened.Set(struct{}{})
		ch.notifyLocked(func(l ChannelListener) { l.OnChannelOpened(ch) })
		return

	case *protocol.ChannelClose:
		err := serverError(m.ReplyCode, m.ReplyText, m.ClassID, m.MethodID)
		ch.log.Error(err, "channel closed by broker")
		c.metrics.ChannelError(err.Code)
		if !c.sendLocked(ch.id, &protocol.ChannelCloseOk{}) {
			return
		}
		c.releaseLocked(ch)
		ch.finishLocked(err)
		return

	case *protocol.ChannelCloseOk:
		ch.exceptionLocked(protocolError(protocol.ReplyCommandInvalid, classID, methodID,
			"channel.close-ok without channel.close"))
		return

	case *protocol.ChannelFlow:
		ch.flow = m.Active
		ch.log.V(1).Info("channel flow", "active", m.Active)
		if !c.sendLocked(ch.id, &protocol.ChannelFlowOk{Active: m.Active}) {
			return
		}
		chans := ch.flowChans
		active := m.Active
		c.emit(func() {
			for _, fc := range chans {
				select {
				case fc <- active:
				default:
				}
			}
		})
		ch.notifyLocked(func(l ChannelListener) { l.OnFlow(ch, active) })
		return
	}

	if spec.Content {
		if perr := ch.content.begin(m); perr != nil {
			c.exceptionLocked(perr)
		}
		return
	}
	if c.reg.IsResponse(classID, methodID) {
		ch.completeLocked(classID, methodID, Reply{Method: m})
		return
	}
	ch.notifyLocked(func(l ChannelListener) { l.OnMethod(ch, m) })
}

// deliverLocked hands a completed content message to its consumer
func (ch *Channel) deliverLocked() {
	m, h, body := ch.content.take()
	d := newDelivery(ch, m, h, body)
	ch.conn.metrics.DeliveryAssembled(len(d.Body))
	ch.log.V(2).Info("content assembled", "size", len(d.Body))

	if _, ok := m.(*protocol.BasicGetOk); ok {
		classID, methodID := m.ID()
		ch.completeLocked(classID, methodID, Reply{Method: m, Delivery: d})
		return
	}
	ch.notifyLocked(func(l ChannelListener) { l.OnDelivery(ch, d) })
}

// completeLocked matches a reply to the oldest pending call
func (ch *Channel) completeLocked(classID, methodID uint16, reply Reply) {
	if len(ch.pending) == 0 || !ch.pending[0].spec.IsReply(classID, methodID) {
		name := fmt.Sprintf("%d.%d", classID, methodID)
		if spec, err := ch.conn.reg.Lookup(classID, methodID); err == nil {
			name = spec.Name
		}
		ch.exceptionLocked(protocolError(protocol.ReplyCommandInvalid, classID, methodID,
			"%s does not answer a pending request", name))
		return
	}
	call := ch.pending[0]
	ch.pending[0] = nil
	ch.pending = ch.pending[1:]
	if call.done != nil {
		ch.conn.emit(func() { call.done(reply, nil) })
	}
}

// exceptionLocked raises a channel exception: the channel sends
// channel.close and waits for close-ok
func (ch *Channel) exceptionLocked(err *Error) {
	ch.log.Error(err, "channel exception")
	ch.conn.metrics.ChannelError(err.Code)
	if !ch.conn.sendLocked(ch.id, &protocol.ChannelClose{
		ReplyCode: uint16(err.Code),
		ReplyText: shortText(err.Reason),
		ClassID:   err.ClassID,
		MethodID:  err.MethodID,
	}) {
		return
	}
	ch.state = ChannelStateClosing
	ch.err = err
	ch.content.reset()
	ch.failPendingLocked(err)
}

func (ch *Channel) failPendingLocked(err error) {
	for _, call := range ch.pending {
		if call.done != nil {
			done := call.done
			ch.conn.emit(func() { done(Reply{}, err) })
		}
	}
	ch.pending = nil
}

// finishLocked moves the channel to closed. The caller releases the id.
func (ch *Channel) finishLocked(err *Error) {
	if ch.state == ChannelStateClosed {
		return
	}
	ch.state = ChannelStateClosed
	ch.err = err
	ch.content.reset()
	ch.outbox = nil
	if err != nil {
		ch.failPendingLocked(err)
	} else {
		ch.failPendingLocked(ErrChannelClosed)
	}
	ch.conn.metrics.ChannelClosed()
	ch.log.V(1).Info("channel closed")

	chans := ch.closeChans
	ch.closeChans = nil
	ch.notifyLocked(func(l ChannelListener) { l.OnChannelClosed(ch, err) })
	ch.conn.emit(func() {
		for _, cc := range chans {
			if err != nil {
				select {
				case cc <- err:
				default:
				}
			}
			close(cc)
		}
		_ = ch.closed.Set(err)
	})
}

func (ch *Channel) notifyLocked(fn func(ChannelListener)) {
	l := ch.listener
	ch.conn.emit(func() { fn(l) })
}

// ID returns the channel id; 0 until a deferred channel is assigned one
func (ch *Channel) ID() uint16 {
	ch.conn.mu.Lock()
	defer ch.conn.mu.Unlock()
	return ch.id
}

// Connection returns the owning connection
func (ch *Channel) Connection() *Connection {
	return ch.conn
}

// State returns the current channel state
func (ch *Channel) State() ChannelState {
	ch.conn.mu.Lock()
	defer ch.conn.mu.Unlock()
	return ch.state
}

// IsClosed returns whether the channel is closed
func (ch *Channel) IsClosed() bool {
	return ch.State() == ChannelStateClosed
}

// Flow reports whether the broker currently allows content on the channel
func (ch *Channel) Flow() bool {
	ch.conn.mu.Lock()
	defer ch.conn.mu.Unlock()
	return ch.flow
}

// Pending returns the number of calls waiting for a reply
func (ch *Channel) Pending() int {
	ch.conn.mu.Lock()
	defer ch.conn.mu.Unlock()
	return len(ch.pending)
}

// Err returns why the channel closed; nil while open or after a clean close
func (ch *Channel) Err() error {
	ch.conn.mu.Lock()
	defer ch.conn.mu.Unlock()
	if ch.err == nil {
		return nil
	}
	return ch.err
}

// Done is closed once the channel is closed
func (ch *Channel) Done() <-chan struct{} {
	return ch.closed.Done()
}

// WaitOpen blocks until channel.open-ok arrives or the channel closes
func (ch *Channel) WaitOpen(ctx context.Context) error {
	select {
	case <-ch.opened.Done():
		return nil
	case <-ch.closed.Done():
		if err := ch.closed.Get(); err != nil {
			return err
		}
		return ErrChannelClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until the channel is closed and returns Err
func (ch *Channel) Wait(ctx context.Context) error {
	err, werr := ch.closed.GetWithContext(ctx)
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
func (ch *Channel) NotifyClose(c chan *Error) chan *Error {
	ch.conn.mu.Lock()
	defer ch.conn.unlock()

	if ch.state == ChannelStateClosed {
		if ch.err != nil {
			select {
			case c <- ch.err:
			default:
			}
		}
		close(c)
		return c
	}
	ch.closeChans = append(ch.closeChans, c)
	return c
}

// NotifyFlow registers a channel for channel.flow changes. Sends do not
// block.
func (ch *Channel) NotifyFlow(c chan bool) chan bool {
	ch.conn.mu.Lock()
	defer ch.conn.unlock()
	ch.flowChans = append(ch.flowChans, c)
	return c
}
