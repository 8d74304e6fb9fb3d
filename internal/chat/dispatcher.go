package chat

import (
	"context"
	"errors"
	"log/slog"
)

// ErrQueueFull is returned by Enqueue when the dispatcher cannot keep up
var ErrQueueFull = errors.New("message queue is full")

// DefaultQueueSize is the number of messages that may wait for the handler
const DefaultQueueSize = 64

// Dispatcher feeds queued messages to a handler one at a time
type Dispatcher struct {
	queue   chan Message
	handler Handler
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(handler Handler, size int) *Dispatcher {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Dispatcher{
		queue:   make(chan Message, size),
		handler: handler,
	}
}

// Enqueue adds msg to the queue without blocking
func (d *Dispatcher) Enqueue(msg Message) error {
	select {
	case d.queue <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run processes messages until ctx is cancelled
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-d.queue:
			d.dispatch(ctx, msg)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Message handler panicked", "message_id", msg.ID, "panic", r)
		}
	}()
	d.handler.HandleMessage(ctx, msg)
}
