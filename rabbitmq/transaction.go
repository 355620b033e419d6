package rabbitmq

import (
	"context"
	"errors"

	"github.com/israelio/rabbit-wire/protocol"
)

var errNotTransactional = errors.New("amqp: channel not in transaction mode")

// TxSelect puts the channel into transaction mode
func (ch *Channel) TxSelect(ctx context.Context) error {
	if _, err := ch.Invoke(ctx, &protocol.TxSelect{}); err != nil {
		return err
	}
	ch.conn.mu.Lock()
	ch.txMode = true
	ch.conn.mu.Unlock()
	return nil
}

// TxCommit commits the current transaction
func (ch *Channel) TxCommit(ctx context.Context) error {
	if !ch.transactional() {
		return errNotTransactional
	}
	_, err := ch.Invoke(ctx, &protocol.TxCommit{})
	return err
}

// TxRollback rolls back the current transaction
func (ch *Channel) TxRollback(ctx context.Context) error {
	if !ch.transactional() {
		return errNotTransactional
	}
	_, err := ch.Invoke(ctx, &protocol.TxRollback{})
	return err
}

func (ch *Channel) transactional() bool {
	ch.conn.mu.Lock()
	defer ch.conn.mu.Unlock()
	return ch.txMode
}

// ConfirmSelect puts the channel into publisher confirm mode (0-9-1).
// Confirms arrive as basic.ack and basic.nack through the listener's
// OnMethod.
func (ch *Channel) ConfirmSelect(ctx context.Context, noWait bool) error {
	_, err := ch.Invoke(ctx, &protocol.ConfirmSelect{NoWait: noWait})
	return err
}
