package channel

import (
	"errors"
	"sync"
)

var (
	// ErrClosed is used to cause a panic when Put is called on a closed channel.
	ErrClosed = errors.New("put on closed channel")
	// ErrDoubleClose is used to cause a panic when channel is closed twice.
	ErrDoubleClose = errors.New("channel closed twice")
	// ErrCapacity is returned when channel capacity is less than one.
	ErrCapacity = errors.New("channel capacity must be positive")
)

// Channel is a bounded FIFO queue with one producer and one consumer.
// All state is guarded by the mutex, both sides wait on conditions bound
// to it.
type Channel[T any] struct {
	mu       sync.Mutex
	notEmpty sync.Cond
	notFull  sync.Cond

	ring   []T
	head   int // index of the next unit to read
	unread int // 0 <= unread <= len(ring)
	closed bool
}

// New allocates a channel with fixed capacity. It returns ErrCapacity if
// capacity is less than one.
func New[T any](capacity int) (*Channel[T], error) {
	if capacity < 1 {
		return nil, ErrCapacity
	}
	c := &Channel[T]{
		ring: make([]T, capacity),
	}
	c.notEmpty.L = &c.mu
	c.notFull.L = &c.mu
	return c, nil
}

// Put appends v to the channel. It blocks while the channel is full.
// Calling Put after Close causes a panic.
func (c *Channel[T]) Put(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		panic(ErrClosed)
	}
	for c.unread == len(c.ring) {
		c.notFull.Wait()
	}
	c.ring[(c.head+c.unread)%len(c.ring)] = v
	c.unread++
	c.notEmpty.Signal()
}

// Get returns the next unit in FIFO order. It blocks while the channel is
// empty and not closed. Once the channel is closed and drained, Get returns
// false.
func (c *Channel[T]) Get() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.unread == 0 && !c.closed {
		c.notEmpty.Wait()
	}
	var v T
	if c.unread == 0 {
		return v, false
	}
	v, c.ring[c.head] = c.ring[c.head], v
	c.head = (c.head + 1) % len(c.ring)
	c.unread--
	c.notFull.Signal()
	return v, true
}

// Close marks the end of stream. Units put before Close are still
// delivered. Closing channel twice causes a panic.
func (c *Channel[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		panic(ErrDoubleClose)
	}
	c.closed = true
	c.notEmpty.Broadcast()
}

// Len returns the number of unread units.
func (c *Channel[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unread
}

// Cap returns the capacity of the channel.
func (c *Channel[T]) Cap() int {
	return len(c.ring)
}
