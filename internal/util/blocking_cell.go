package util

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrCellSet is returned when a cell is set twice
	ErrCellSet = errors.New("cell already set")
	// ErrTimeout is returned by GetWithTimeout when no value arrives in time
	ErrTimeout = errors.New("timeout")
)

// BlockingCell is a one-shot container for a value. Every reader blocks until
// the value is set and then sees the same value.
type BlockingCell[T any] struct {
	mu    sync.Mutex
	done  chan struct{}
	value T
	set   bool
}

// NewBlockingCell creates a new blocking cell
func NewBlockingCell[T any]() *BlockingCell[T] {
	return &BlockingCell[T]{done: make(chan struct{})}
}

// Set sets the value in the cell. Only the first call has effect.
func (c *BlockingCell[T]) Set(value T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.set {
		return ErrCellSet
	}
	c.set = true
	c.value = value
	close(c.done)
	return nil
}

// IsSet reports whether the value has been set
func (c *BlockingCell[T]) IsSet() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set
}

// Done is closed once the value is set
func (c *BlockingCell[T]) Done() <-chan struct{} {
	return c.done
}

// Get gets the value from the cell, blocking if not yet set
func (c *BlockingCell[T]) Get() T {
	<-c.done
	return c.value
}

// GetWithTimeout gets the value with a timeout
func (c *BlockingCell[T]) GetWithTimeout(timeout time.Duration) (T, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-c.done:
		return c.value, nil
	case <-timer.C:
		var zero T
		return zero, ErrTimeout
	}
}

// GetWithContext gets the value with a context
func (c *BlockingCell[T]) GetWithContext(ctx context.Context) (T, error) {
	select {
	case <-c.done:
		return c.value, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
