package rabbitmq

import (
	"context"
	"fmt"

	"github.com/israelio/rabbit-wire/protocol"
)

// ExchangeDeclareOptions configures exchange declaration
type ExchangeDeclareOptions struct {
	Durable    bool
	AutoDelete bool
	Internal   bool
	NoWait     bool
	Args       protocol.Table
}

// ExchangeDeleteOptions configures exchange deletion
type ExchangeDeleteOptions struct {
	IfUnused bool
	NoWait   bool
}

// QueueDeclareOptions configures queue declaration
type QueueDeclareOptions struct {
	Durable    bool
	AutoDelete bool
	Exclusive  bool
	NoWait     bool
	Args       protocol.Table
}

// QueueDeleteOptions configures queue deletion
type QueueDeleteOptions struct {
	IfUnused bool
	IfEmpty  bool
	NoWait   bool
}

// ConsumeOptions configures consumer behavior
type ConsumeOptions struct {
	NoLocal   bool
	NoAck     bool
	Exclusive bool
	NoWait    bool
	Args      protocol.Table
}

// Queue is the broker's view of a declared queue
type Queue struct {
	Name      string
	Messages  int
	Consumers int
}

// ExchangeDeclare declares an exchange
func (ch *Channel) ExchangeDeclare(ctx context.Context, name, kind string, opts ExchangeDeclareOptions) error {
	_, err := ch.Invoke(ctx, &protocol.ExchangeDeclare{
		Exchange:   name,
		Type:       kind,
		Durable:    opts.Durable,
		AutoDelete: opts.AutoDelete,
		Internal:   opts.Internal,
		NoWait:     opts.NoWait,
		Arguments:  opts.Args,
	})
	return err
}

// ExchangeDeclarePassive checks if an exchange exists
func (ch *Channel) ExchangeDeclarePassive(ctx context.Context, name, kind string) error {
	_, err := ch.Invoke(ctx, &protocol.ExchangeDeclare{Exchange: name, Type: kind, Passive: true})
	return err
}

// ExchangeDelete deletes an exchange
func (ch *Channel) ExchangeDelete(ctx context.Context, name string, opts ExchangeDeleteOptions) error {
	_, err := ch.Invoke(ctx, &protocol.ExchangeDelete{Exchange: name, IfUnused: opts.IfUnused, NoWait: opts.NoWait})
	return err
}

// ExchangeBind binds an exchange to another exchange (0-9-1)
func (ch *Channel) ExchangeBind(ctx context.Context, destination, source, routingKey string, args protocol.Table) error {
	_, err := ch.Invoke(ctx, &protocol.ExchangeBind{
		Destination: destination,
		Source:      source,
		RoutingKey:  routingKey,
		Arguments:   args,
	})
	return err
}

// ExchangeUnbind unbinds an exchange from another exchange (0-9-1)
func (ch *Channel) ExchangeUnbind(ctx context.Context, destination, source, routingKey string, args protocol.Table) error {
	_, err := ch.Invoke(ctx, &protocol.ExchangeUnbind{
		Destination: destination,
		Source:      source,
		RoutingKey:  routingKey,
		Arguments:   args,
	})
	return err
}

// QueueDeclare declares a queue. An empty name asks the broker to generate
// one. With NoWait the returned Queue carries only the requested name.
func (ch *Channel) QueueDeclare(ctx context.Context, name string, opts QueueDeclareOptions) (Queue, error) {
	reply, err := ch.Invoke(ctx, &protocol.QueueDeclare{
		Queue:      name,
		Durable:    opts.Durable,
		AutoDelete: opts.AutoDelete,
		Exclusive:  opts.Exclusive,
		NoWait:     opts.NoWait,
		Arguments:  opts.Args,
	})
	if err != nil {
		return Queue{}, err
	}
	return queueFromReply(name, reply)
}

// QueueDeclarePassive checks if a queue exists
func (ch *Channel) QueueDeclarePassive(ctx context.Context, name string) (Queue, error) {
	reply, err := ch.Invoke(ctx, &protocol.QueueDeclare{Queue: name, Passive: true})
	if err != nil {
		return Queue{}, err
	}
	return queueFromReply(name, reply)
}

func queueFromReply(name string, reply Reply) (Queue, error) {
	if reply.Method == nil {
		return Queue{Name: name}, nil
	}
	ok, isOk := reply.Method.(*protocol.QueueDeclareOk)
	if !isOk {
		return Queue{}, fmt.Errorf("unexpected response to queue.declare: %T", reply.Method)
	}
	return Queue{Name: ok.Queue, Messages: int(ok.MessageCount), Consumers: int(ok.ConsumerCount)}, nil
}

// QueueDelete deletes a queue and returns the number of messages it held
func (ch *Channel) QueueDelete(ctx context.Context, name string, opts QueueDeleteOptions) (int, error) {
	reply, err := ch.Invoke(ctx, &protocol.QueueDelete{
		Queue:    name,
		IfUnused: opts.IfUnused,
		IfEmpty:  opts.IfEmpty,
		NoWait:   opts.NoWait,
	})
	if err != nil {
		return 0, err
	}
	if ok, isOk := reply.Method.(*protocol.QueueDeleteOk); isOk {
		return int(ok.MessageCount), nil
	}
	return 0, nil
}

// QueueBind binds a queue to an exchange
func (ch *Channel) QueueBind(ctx context.Context, name, exchange, routingKey string, args protocol.Table) error {
	_, err := ch.Invoke(ctx, &protocol.QueueBind{
		Queue:      name,
		Exchange:   exchange,
		RoutingKey: routingKey,
		Arguments:  args,
	})
	return err
}

// QueueUnbind unbinds a queue from an exchange
func (ch *Channel) QueueUnbind(ctx context.Context, name, exchange, routingKey string, args protocol.Table) error {
	_, err := ch.Invoke(ctx, &protocol.QueueUnbind{
		Queue:      name,
		Exchange:   exchange,
		RoutingKey: routingKey,
		Arguments:  args,
	})
	return err
}

// QueuePurge purges all messages from a queue
func (ch *Channel) QueuePurge(ctx context.Context, name string, noWait bool) (int, error) {
	reply, err := ch.Invoke(ctx, &protocol.QueuePurge{Queue: name, NoWait: noWait})
	if err != nil {
		return 0, err
	}
	if ok, isOk := reply.Method.(*protocol.QueuePurgeOk); isOk {
		return int(ok.MessageCount), nil
	}
	return 0, nil
}

// Qos sets the quality of service (prefetch)
func (ch *Channel) Qos(ctx context.Context, prefetchCount, prefetchSize int, global bool) error {
	_, err := ch.Invoke(ctx, &protocol.BasicQos{
		PrefetchSize:  uint32(prefetchSize),
		PrefetchCount: uint16(prefetchCount),
		Global:        global,
	})
	return err
}

// Consume starts a consumer and returns its tag. Deliveries go to the
// channel's listener.
func (ch *Channel) Consume(ctx context.Context, queue, consumerTag string, opts ConsumeOptions) (string, error) {
	reply, err := ch.Invoke(ctx, &protocol.BasicConsume{
		Queue:       queue,
		ConsumerTag: consumerTag,
		NoLocal:     opts.NoLocal,
		NoAck:       opts.NoAck,
		Exclusive:   opts.Exclusive,
		NoWait:      opts.NoWait,
		Arguments:   opts.Args,
	})
	if err != nil {
		return "", err
	}
	if ok, isOk := reply.Method.(*protocol.BasicConsumeOk); isOk {
		return ok.ConsumerTag, nil
	}
	return consumerTag, nil
}

// Cancel stops a consumer
func (ch *Channel) Cancel(ctx context.Context, consumerTag string, noWait bool) error {
	_, err := ch.Invoke(ctx, &protocol.BasicCancel{ConsumerTag: consumerTag, NoWait: noWait})
	return err
}

// Get polls one message from a queue. ok is false when the queue is empty.
func (ch *Channel) Get(ctx context.Context, queue string, autoAck bool) (d *Delivery, ok bool, err error) {
	reply, err := ch.Invoke(ctx, &protocol.BasicGet{Queue: queue, NoAck: autoAck})
	if err != nil {
		return nil, false, err
	}
	if reply.Delivery == nil {
		return nil, false, nil
	}
	return reply.Delivery, true, nil
}
