package rabbitmq

import (
	"errors"

	"github.com/israelio/rabbit-wire/protocol"
)

// Delivery is a reassembled content message: a basic.deliver, basic.get-ok
// or basic.return with its properties and full body
type Delivery struct {
	// Method is *protocol.BasicDeliver, *protocol.BasicGetOk or *protocol.BasicReturn
	Method protocol.Method

	// Message metadata
	ConsumerTag  string
	DeliveryTag  uint64
	Redelivered  bool
	Exchange     string
	RoutingKey   string
	MessageCount uint32 // basic.get-ok only

	// Set on returned messages
	ReplyCode uint16
	ReplyText string

	// Message content
	Properties protocol.Properties
	Body       []byte

	// Channel reference for acknowledgment
	channel *Channel
}

var errReturnedMessage = errors.New("amqp: returned messages cannot be acknowledged")

func newDelivery(ch *Channel, m protocol.Method, h *protocol.ContentHeader, body []byte) *Delivery {
	d := &Delivery{
		Method:     m,
		Properties: h.Properties,
		Body:       body,
		channel:    ch,
	}
	if d.Body == nil {
		d.Body = []byte{}
	}
	switch m := m.(type) {
	case *protocol.BasicDeliver:
		d.ConsumerTag = m.ConsumerTag
		d.DeliveryTag = m.DeliveryTag
		d.Redelivered = m.Redelivered
		d.Exchange = m.Exchange
		d.RoutingKey = m.RoutingKey
	case *protocol.BasicGetOk:
		d.DeliveryTag = m.DeliveryTag
		d.Redelivered = m.Redelivered
		d.Exchange = m.Exchange
		d.RoutingKey = m.RoutingKey
		d.MessageCount = m.MessageCount
	case *protocol.BasicReturn:
		d.ReplyCode = m.ReplyCode
		d.ReplyText = m.ReplyText
		d.Exchange = m.Exchange
		d.RoutingKey = m.RoutingKey
	}
	return d
}

// IsReturn reports whether the broker returned this message as unroutable
func (d *Delivery) IsReturn() bool {
	_, ok := d.Method.(*protocol.BasicReturn)
	return ok
}

// Channel returns the channel the delivery arrived on
func (d *Delivery) Channel() *Channel {
	return d.channel
}

// Ack acknowledges this delivery
func (d *Delivery) Ack(multiple bool) error {
	if err := d.settleable(); err != nil {
		return err
	}
	return d.channel.Ack(d.DeliveryTag, multiple)
}

// Nack negatively acknowledges this delivery
func (d *Delivery) Nack(multiple, requeue bool) error {
	if err := d.settleable(); err != nil {
		return err
	}
	return d.channel.Nack(d.DeliveryTag, multiple, requeue)
}

// Reject rejects this delivery
func (d *Delivery) Reject(requeue bool) error {
	if err := d.settleable(); err != nil {
		return err
	}
	return d.channel.Reject(d.DeliveryTag, requeue)
}

func (d *Delivery) settleable() error {
	if d.channel == nil {
		return ErrChannelClosed
	}
	if d.IsReturn() {
		return errReturnedMessage
	}
	return nil
}
