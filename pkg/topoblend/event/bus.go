package event

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
)

// ErrBusClosed is returned by Publish once Close has been called.
var ErrBusClosed = errors.New("event bus closed")

// Bus fans scheduler events out to handlers.
type Bus interface {
	// Publish hands evt to every subscriber whose filter matches.
	Publish(ctx context.Context, evt Event) error

	// Subscribe registers handler for the listed types, or for every type
	// when none are listed.
	Subscribe(handler Handler, types ...string) Subscription

	Close() error
}

// Subscription is a registered handler.
type Subscription interface {
	Unsubscribe()
}

// BusConfig tunes a LocalBus.
type BusConfig struct {
	// BufferSize bounds each asynchronous subscriber's queue. Default 256.
	BufferSize int

	// Synchronous runs handlers inside Publish, in subscription order,
	// instead of on one goroutine per subscriber.
	Synchronous bool

	// OnError receives handler failures. Handler errors never reach the
	// publisher.
	OnError func(evt Event, subscriberID string, err error)
}

// DefaultBusConfig is an asynchronous bus with 256-event queues.
var DefaultBusConfig = BusConfig{BufferSize: 256}

// LocalBus is the in-process Bus.
type LocalBus struct {
	config BusConfig

	mu   sync.RWMutex
	subs []*subscriber // in subscription order

	seq     atomic.Int64
	closed  atomic.Bool
	closeCh chan struct{}
	workers sync.WaitGroup
}

var _ Bus = (*LocalBus)(nil)

// NewBus builds a LocalBus. Asynchronous buses must be closed to stop
// their subscriber goroutines.
func NewBus(config BusConfig) *LocalBus {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultBusConfig.BufferSize
	}
	return &LocalBus{config: config, closeCh: make(chan struct{})}
}

type subscriber struct {
	id      string
	types   map[string]struct{}
	handler Handler
	queue   chan Event // nil on a synchronous bus
	done    chan struct{}
	stopped sync.Once
	bus     *LocalBus
}

func (s *subscriber) wants(eventType string) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[eventType]
	return ok
}

func (b *LocalBus) Publish(ctx context.Context, evt Event) error {
	if b.closed.Load() {
		return ErrBusClosed
	}

	b.mu.RLock()
	targets := make([]*subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		if s.wants(evt.Type) {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range targets {
		if b.config.Synchronous {
			s.handle(ctx, evt)
			continue
		}
		select {
		case s.queue <- evt:
		case <-s.done:
		case <-ctx.Done():
			return ctx.Err()
		case <-b.closeCh:
			return ErrBusClosed
		}
	}
	return nil
}

// Subscribe returns nil on a closed bus.
func (b *LocalBus) Subscribe(handler Handler, types ...string) Subscription {
	s := &subscriber{
		id:      fmt.Sprintf("sub-%d", b.seq.Add(1)),
		types:   make(map[string]struct{}, len(types)),
		handler: handler,
		done:    make(chan struct{}),
		bus:     b,
	}
	for _, t := range types {
		s.types[t] = struct{}{}
	}

	// Registering under the lock means Close either sees s or s sees closed.
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed.Load() {
		return nil
	}
	b.subs = append(b.subs, s)
	if !b.config.Synchronous {
		s.queue = make(chan Event, b.config.BufferSize)
		b.workers.Add(1)
		go s.drain()
	}
	return s
}

// Close stops accepting events, lets every subscriber finish its queue and
// waits for them. Closing twice is a no-op.
func (b *LocalBus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(b.closeCh)

	b.mu.Lock()
	for _, s := range b.subs {
		s.stop()
	}
	b.mu.Unlock()

	b.workers.Wait()
	return nil
}

func (s *subscriber) handle(ctx context.Context, evt Event) {
	err := s.handler.Handle(ctx, evt)
	if err != nil && s.bus.config.OnError != nil {
		s.bus.config.OnError(evt, s.id, err)
	}
}

// drain delivers queued events until stopped, then flushes what is left.
func (s *subscriber) drain() {
	defer s.bus.workers.Done()
	for {
		select {
		case evt := <-s.queue:
			s.handle(context.Background(), evt)
		case <-s.done:
			for len(s.queue) > 0 {
				s.handle(context.Background(), <-s.queue)
			}
			return
		}
	}
}

func (s *subscriber) stop() {
	s.stopped.Do(func() { close(s.done) })
}

func (s *subscriber) Unsubscribe() {
	s.bus.mu.Lock()
	s.bus.subs = slices.DeleteFunc(s.bus.subs, func(o *subscriber) bool { return o == s })
	s.bus.mu.Unlock()
	s.stop()
}
