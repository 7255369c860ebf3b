package eventbus

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type envelope struct {
	event   Event
	payload any
}

// EventBus dispatches published events to subscribers on a single
// goroutine, in publish order. Publishing never blocks: when the buffer is
// full the event is dropped and OnDrop hooks fire.
type EventBus struct {
	ch      chan envelope
	pending atomic.Int64
	hooks   hooks

	mu   sync.RWMutex
	subs map[Event][]func(any)
}

// New creates a bus with the given buffer size.
func New(buffer int) *EventBus {
	if buffer < 1 {
		buffer = 1
	}
	return &EventBus{
		ch:   make(chan envelope, buffer),
		subs: make(map[Event][]func(any)),
	}
}

// Start dispatches events until ctx is cancelled.
func (bus *EventBus) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-bus.ch:
			bus.dispatch(env)
		}
	}
}

// Flush blocks until every enqueued event, including events published by
// subscribers while flushing, has been dispatched. The bus must be running.
func (bus *EventBus) Flush(ctx context.Context) error {
	if bus.pending.Load() == 0 {
		return nil
	}

	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if bus.pending.Load() == 0 {
				return nil
			}
		}
	}
}

func (bus *EventBus) subscribe(event Event, fn func(any)) {
	bus.mu.Lock()
	bus.subs[event] = append(bus.subs[event], fn)
	bus.mu.Unlock()

	bus.hooks.mu.RLock()
	hooks := make([]func(Event), len(bus.hooks.onSubscribe))
	copy(hooks, bus.hooks.onSubscribe)
	bus.hooks.mu.RUnlock()
	for _, h := range hooks {
		h(event)
	}
}

func (bus *EventBus) dispatch(env envelope) {
	defer bus.pending.Add(-1)

	bus.mu.RLock()
	subs := make([]func(any), len(bus.subs[env.event]))
	copy(subs, bus.subs[env.event])
	bus.mu.RUnlock()

	for _, fn := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					bus.runOnPanic(env.event, env.payload, r)
				}
			}()
			fn(env.payload)
		}()
	}
}

// subscribeTyped adapts a typed handler to the untyped dispatch table.
func subscribeTyped[T any](bus *EventBus, event Event, fn func(T)) {
	bus.subscribe(event, func(payload any) {
		if p, ok := payload.(T); ok {
			fn(p)
		}
	})
}

// PublishTaskSnapshot publishes EventTaskSnapshot.
func (bus *EventBus) PublishTaskSnapshot(p TaskSnapshotPayload) {
	bus.send(EventTaskSnapshot, p)
}

// SubscribeTaskSnapshot registers fn for EventTaskSnapshot.
func (bus *EventBus) SubscribeTaskSnapshot(fn func(TaskSnapshotPayload)) {
	subscribeTyped(bus, EventTaskSnapshot, fn)
}

// PublishStoreFailed publishes EventStoreFailed.
func (bus *EventBus) PublishStoreFailed(p StoreFailedPayload) {
	bus.send(EventStoreFailed, p)
}

// SubscribeStoreFailed registers fn for EventStoreFailed.
func (bus *EventBus) SubscribeStoreFailed(fn func(StoreFailedPayload)) {
	subscribeTyped(bus, EventStoreFailed, fn)
}

// PublishTimerStarted publishes EventTimerStarted.
func (bus *EventBus) PublishTimerStarted(p TimerStartedPayload) {
	bus.send(EventTimerStarted, p)
}

// SubscribeTimerStarted registers fn for EventTimerStarted.
func (bus *EventBus) SubscribeTimerStarted(fn func(TimerStartedPayload)) {
	subscribeTyped(bus, EventTimerStarted, fn)
}

// PublishTimerStopped publishes EventTimerStopped.
func (bus *EventBus) PublishTimerStopped(p TimerStoppedPayload) {
	bus.send(EventTimerStopped, p)
}

// SubscribeTimerStopped registers fn for EventTimerStopped.
func (bus *EventBus) SubscribeTimerStopped(fn func(TimerStoppedPayload)) {
	subscribeTyped(bus, EventTimerStopped, fn)
}

// PublishTimerCompleted publishes EventTimerCompleted.
func (bus *EventBus) PublishTimerCompleted(p TimerCompletedPayload) {
	bus.send(EventTimerCompleted, p)
}

// SubscribeTimerCompleted registers fn for EventTimerCompleted.
func (bus *EventBus) SubscribeTimerCompleted(fn func(TimerCompletedPayload)) {
	subscribeTyped(bus, EventTimerCompleted, fn)
}

// PublishBulkFinished publishes EventBulkFinished.
func (bus *EventBus) PublishBulkFinished(p BulkFinishedPayload) {
	bus.send(EventBulkFinished, p)
}

// SubscribeBulkFinished registers fn for EventBulkFinished.
func (bus *EventBus) SubscribeBulkFinished(fn func(BulkFinishedPayload)) {
	subscribeTyped(bus, EventBulkFinished, fn)
}

// PublishExportFinished publishes EventExportFinished.
func (bus *EventBus) PublishExportFinished(p ExportFinishedPayload) {
	bus.send(EventExportFinished, p)
}

// SubscribeExportFinished registers fn for EventExportFinished.
func (bus *EventBus) SubscribeExportFinished(fn func(ExportFinishedPayload)) {
	subscribeTyped(bus, EventExportFinished, fn)
}

// PublishNotificationPublished publishes EventNotificationPublished.
func (bus *EventBus) PublishNotificationPublished(p NotificationPublishedPayload) {
	bus.send(EventNotificationPublished, p)
}

// SubscribeNotificationPublished registers fn for EventNotificationPublished.
func (bus *EventBus) SubscribeNotificationPublished(fn func(NotificationPublishedPayload)) {
	subscribeTyped(bus, EventNotificationPublished, fn)
}
