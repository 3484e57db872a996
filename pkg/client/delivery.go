package client

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// Handler receives a raw payload published on a topic.
type Handler func(topic string, payload []byte)

// DeliveryService abstracts the transport the client publishes encoded
// payloads to. Implementations own retries, connectivity and persistence;
// the client only sees topics and opaque bytes.
type DeliveryService interface {
	Send(ctx context.Context, topic string, payload []byte) error
	Subscribe(topic string, h Handler) (unsubscribe func(), err error)
}

// LocalDelivery is an in-process delivery service: a topic bus with no
// network underneath. It backs tests and the proof-of-concept binary.
//
// Handlers run synchronously on the sender's goroutine.
type LocalDelivery struct {
	mu     sync.RWMutex
	subs   map[string]map[int]Handler
	nextID int
	closed bool
}

// NewLocalDelivery creates an empty local bus
func NewLocalDelivery() *LocalDelivery {
	return &LocalDelivery{subs: make(map[string]map[int]Handler)}
}

// Send publishes payload to every subscriber of the topic. A topic with no
// subscribers drops the payload silently, like a real broker would.
func (d *LocalDelivery) Send(ctx context.Context, topic string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		return errors.New("delivery service closed")
	}
	handlers := make([]Handler, 0, len(d.subs[topic]))
	for _, h := range d.subs[topic] {
		handlers = append(handlers, h)
	}
	d.mu.RUnlock()

	for _, h := range handlers {
		h(topic, payload)
	}
	return nil
}

// Subscribe registers a handler for a topic and returns its unsubscribe
// function.
func (d *LocalDelivery) Subscribe(topic string, h Handler) (func(), error) {
	if h == nil {
		return nil, errors.New("nil handler")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, errors.New("delivery service closed")
	}

	if d.subs[topic] == nil {
		d.subs[topic] = make(map[int]Handler)
	}
	id := d.nextID
	d.nextID++
	d.subs[topic][id] = h

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.subs[topic], id)
	}, nil
}

// Close drops all subscriptions and rejects further sends
func (d *LocalDelivery) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.subs = make(map[string]map[int]Handler)
}
