package bus

import (
	"context"
	"log/slog"
	"sync"
)

// MessageBus is a hub-and-spoke queue: deliveries flow out to transports,
// results flow back to whoever tracks delivery status.
type MessageBus struct {
	outbound chan Delivery
	results  chan Result
	subs     map[string][]func(Delivery) // transport name -> subscribers
	mu       sync.RWMutex
	bufSize  int
}

// NewMessageBus creates a new MessageBus with the given buffer size.
// If bufSize is 0, defaults to 100.
func NewMessageBus(bufSize int) *MessageBus {
	if bufSize <= 0 {
		bufSize = 100
	}
	return &MessageBus{
		outbound: make(chan Delivery, bufSize),
		results:  make(chan Result, bufSize),
		subs:     make(map[string][]func(Delivery)),
		bufSize:  bufSize,
	}
}

// PublishOutbound queues a delivery.
func (b *MessageBus) PublishOutbound(d Delivery) {
	b.outbound <- d
}

// PublishResult reports a delivery outcome. Results are dropped when nobody
// drains them fast enough; delivery itself must never block on bookkeeping.
func (b *MessageBus) PublishResult(r Result) {
	select {
	case b.results <- r:
	default:
		slog.Warn("bus: result queue full, dropping result", "profile", r.Delivery.Profile)
	}
}

// ConsumeResult blocks until a result is available or ctx is cancelled.
func (b *MessageBus) ConsumeResult(ctx context.Context) (Result, error) {
	select {
	case r, ok := <-b.results:
		if !ok {
			return Result{}, context.Canceled
		}
		return r, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Subscribe registers fn to receive deliveries for the given transport.
// An empty name subscribes to ALL transports.
func (b *MessageBus) Subscribe(channel string, fn func(Delivery)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[channel] = append(b.subs[channel], fn)
}

// DispatchOutbound runs in a goroutine, reading deliveries and handing them
// to matching subscribers. Returns when ctx is cancelled or the bus is closed.
func (b *MessageBus) DispatchOutbound(ctx context.Context) {
	for {
		select {
		case d, ok := <-b.outbound:
			if !ok {
				return
			}
			b.dispatch(d)
		case <-ctx.Done():
			return
		}
	}
}

// dispatch delivers d to all matching subscribers (transport-specific + wildcard).
func (b *MessageBus) dispatch(d Delivery) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, fn := range b.subs[d.Channel] {
		fn(d)
	}
	for _, fn := range b.subs[""] {
		fn(d)
	}
}

// Close closes both queues.
func (b *MessageBus) Close() {
	close(b.outbound)
	close(b.results)
}
