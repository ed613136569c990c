package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"rankboard/core"
)

type DispatchMode int

const (
	DispatchSync DispatchMode = iota
	DispatchAsync
)

const (
	asyncQueueSize = 1024
	asyncWorkers   = 2
)

type handlerFunc = func(context.Context, core.Event)

// EventBus fans ranking events out to subscribers, either inline with the
// publisher or on a small worker pool. Async publishing never blocks: when
// the queue is full the event is dropped and counted.
type EventBus struct {
	mode DispatchMode

	mu     sync.RWMutex
	subs   map[core.EventType]map[uint64]handlerFunc
	nextID uint64

	queue   chan core.Event
	dropped atomic.Uint64
	stop    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

func NewEventBus(mode DispatchMode) *EventBus {
	e := &EventBus{
		mode: mode,
		subs: make(map[core.EventType]map[uint64]handlerFunc),
		stop: make(chan struct{}),
	}
	if mode == DispatchAsync {
		e.queue = make(chan core.Event, asyncQueueSize)
		e.wg.Add(asyncWorkers)
		for range asyncWorkers {
			go e.worker()
		}
	}
	return e
}

func (e *EventBus) worker() {
	defer e.wg.Done()
	for {
		select {
		case ev := <-e.queue:
			e.dispatch(context.Background(), ev)
		case <-e.stop:
			return
		}
	}
}

// Close stops async workers and waits for them to exit. Events still queued
// are discarded. Safe to call more than once.
func (e *EventBus) Close() {
	e.once.Do(func() {
		close(e.stop)
		e.wg.Wait()
	})
}

// Dropped is the number of async events discarded because the queue was full.
func (e *EventBus) Dropped() uint64 { return e.dropped.Load() }

// Subscribe registers a handler for an event type. Returns unsubscribe func.
func (e *EventBus) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	if e.subs[typ] == nil {
		e.subs[typ] = make(map[uint64]handlerFunc)
	}
	e.subs[typ][id] = handler
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subs[typ], id)
	}
}

// SubscribeAll registers handler for every ranking event type.
func (e *EventBus) SubscribeAll(handler func(context.Context, core.Event)) func() {
	unsubs := make([]func(), 0, len(core.AllEventTypes))
	for _, typ := range core.AllEventTypes {
		unsubs = append(unsubs, e.Subscribe(typ, handler))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Publish hands ev to subscribers.
func (e *EventBus) Publish(ctx context.Context, ev core.Event) {
	if e.mode != DispatchAsync {
		e.dispatch(ctx, ev)
		return
	}
	select {
	case e.queue <- ev:
	default:
		e.dropped.Add(1)
	}
}

func (e *EventBus) dispatch(ctx context.Context, ev core.Event) {
	e.mu.RLock()
	handlers := make([]handlerFunc, 0, len(e.subs[ev.Type]))
	for _, h := range e.subs[ev.Type] {
		handlers = append(handlers, h)
	}
	e.mu.RUnlock()
	for _, h := range handlers {
		h(ctx, ev)
	}
}
