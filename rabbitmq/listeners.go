package rabbitmq

import (
	"github.com/israelio/rabbit-wire/protocol"
)

// ConnectionListener receives connection lifecycle events. Callbacks run
// after the connection's lock is released, in the order the events occurred,
// and may call back into the connection.
type ConnectionListener interface {
	OnConnectionOpened(conn *Connection)
	OnConnectionClosed(conn *Connection, err *Error)
	OnConnectionBlocked(conn *Connection, reason string)
	OnConnectionUnblocked(conn *Connection)
}

// ConnectionListenerFuncs adapts optional functions to ConnectionListener
type ConnectionListenerFuncs struct {
	Opened    func(conn *Connection)
	Closed    func(conn *Connection, err *Error)
	Blocked   func(conn *Connection, reason string)
	Unblocked func(conn *Connection)
}

func (f ConnectionListenerFuncs) OnConnectionOpened(conn *Connection) {
	if f.Opened != nil {
		f.Opened(conn)
	}
}

func (f ConnectionListenerFuncs) OnConnectionClosed(conn *Connection, err *Error) {
	if f.Closed != nil {
		f.Closed(conn, err)
	}
}

func (f ConnectionListenerFuncs) OnConnectionBlocked(conn *Connection, reason string) {
	if f.Blocked != nil {
		f.Blocked(conn, reason)
	}
}

func (f ConnectionListenerFuncs) OnConnectionUnblocked(conn *Connection) {
	if f.Unblocked != nil {
		f.Unblocked(conn)
	}
}

// BlockedNotification reports a connection.blocked or connection.unblocked
type BlockedNotification struct {
	Active bool
	Reason string
}

// ChannelListener receives channel events. Deliveries are reassembled
// basic.deliver and basic.return messages; get-ok deliveries complete their
// basic.get call instead. OnMethod receives asynchronous methods that answer
// no request, such as basic.ack, basic.nack and basic.cancel from the broker.
type ChannelListener interface {
	OnChannelOpened(ch *Channel)
	OnChannelClosed(ch *Channel, err *Error)
	OnDelivery(ch *Channel, d *Delivery)
	OnMethod(ch *Channel, m protocol.Method)
	OnFlow(ch *Channel, active bool)
}

// ChannelListenerFuncs adapts optional functions to ChannelListener
type ChannelListenerFuncs struct {
	Opened   func(ch *Channel)
	Closed   func(ch *Channel, err *Error)
	Delivery func(ch *Channel, d *Delivery)
	Method   func(ch *Channel, m protocol.Method)
	Flow     func(ch *Channel, active bool)
}

func (f ChannelListenerFuncs) OnChannelOpened(ch *Channel) {
	if f.Opened != nil {
		f.Opened(ch)
	}
}

func (f ChannelListenerFuncs) OnChannelClosed(ch *Channel, err *Error) {
	if f.Closed != nil {
		f.Closed(ch, err)
	}
}

func (f ChannelListenerFuncs) OnDelivery(ch *Channel, d *Delivery) {
	if f.Delivery != nil {
		f.Delivery(ch, d)
	}
}

func (f ChannelListenerFuncs) OnMethod(ch *Channel, m protocol.Method) {
	if f.Method != nil {
		f.Method(ch, m)
	}
}

func (f ChannelListenerFuncs) OnFlow(ch *Channel, active bool) {
	if f.Flow != nil {
		f.Flow(ch, active)
	}
}
