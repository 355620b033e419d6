package rabbitmq

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/israelio/rabbit-wire/frame"
	"github.com/israelio/rabbit-wire/protocol"
)

const readBufferSize = 32 * 1024

// Dial connects to the broker named by cfg, runs the handshake and returns
// an open connection. The connection's transport loops run until it closes.
func Dial(ctx context.Context, cfg Config, opts ...Option) (*Connection, error) {
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dialCtx := ctx
	if cfg.ConnectionTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.ConnectionTimeout)
		defer cancel()
	}

	var (
		conn net.Conn
		err  error
	)
	if cfg.TLS != nil {
		d := &tls.Dialer{Config: cfg.TLS}
		conn, err = d.DialContext(dialCtx, "tcp", cfg.Addr())
	} else {
		var d net.Dialer
		conn, err = d.DialContext(dialCtx, "tcp", cfg.Addr())
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Addr(), err)
	}
	return Open(ctx, conn, cfg)
}

// Open runs the handshake over an established transport and starts the
// read and heartbeat loops. conn is closed when the connection closes or
// the handshake fails.
func Open(ctx context.Context, conn net.Conn, cfg Config, opts ...Option) (*Connection, error) {
	c, err := NewConnection(cfg, frame.NewWriter(conn, 0), opts...)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	g, gctx := errgroup.WithContext(context.Background())
	g.Go(func() error { return c.readLoop(conn) })
	g.Go(func() error { return c.heartbeatLoop(gctx) })
	go func() {
		<-c.Done()
		err := g.Wait()
		if cerr := conn.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = multierr.Append(err, cerr)
		}
		if err != nil {
			c.log.V(1).Info("transport stopped", "error", err.Error())
		}
	}()

	if err := c.Start(); err != nil {
		return nil, err
	}

	var timeout <-chan time.Time
	if c.cfg.HandshakeTimeout > 0 {
		t := time.NewTimer(c.cfg.HandshakeTimeout)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case <-c.Opened():
		return c, nil
	case <-c.Done():
		return nil, c.failure()
	case <-timeout:
		c.abort(localError(protocol.ReplyConnectionForced, errors.New("handshake timed out")))
		return nil, c.failure()
	case <-ctx.Done():
		c.abort(localError(protocol.ReplyConnectionForced, ctx.Err()))
		return nil, ctx.Err()
	}
}

// failure returns the close error, or ErrClosed after a clean close
func (c *Connection) failure() error {
	if err := c.Err(); err != nil {
		return err
	}
	return ErrClosed
}

// readLoop feeds the connection from r until either side closes
func (c *Connection) readLoop(r io.Reader) error {
	buf := make([]byte, readBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if ferr := c.Feed(buf[:n]); ferr != nil {
				return c.Err()
			}
		}
		if err != nil {
			if c.IsClosed() {
				return nil
			}
			c.abort(localError(protocol.ReplyConnectionForced, fmt.Errorf("read: %w", err)))
			return err
		}
	}
}

// heartbeatLoop sends heartbeats every half interval and fails the
// connection when nothing has arrived for two intervals
func (c *Connection) heartbeatLoop(ctx context.Context) error {
	select {
	case <-c.Opened():
	case <-c.Done():
		return nil
	case <-ctx.Done():
		return nil
	}

	interval := c.Heartbeat()
	if interval == 0 {
		return nil
	}
	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if time.Since(c.LastReceived()) > 2*interval {
				err := localError(protocol.ReplyConnectionForced, errors.New("missed heartbeats"))
				c.abort(err)
				return err
			}
			if err := c.SendHeartbeat(); err != nil {
				return c.Err()
			}
		case <-c.Done():
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}
