package notify

import (
	"sync"

	"parley/pkg/logger"
	"parley/pkg/telemetry"
)

const defaultQueueSize = 256

// Handler consumes one event. Handlers run on their subscriber's own
// goroutine; per subscriber, delivery order matches emission order.
type Handler func(Event)

type subscriber struct {
	kind EventKind // empty means all kinds
	ch   chan Event
}

// Bus is the engine's typed pub/sub fan-out. Each subscriber owns a
// bounded queue and a draining goroutine, so a slow or failing subscriber
// drops events (counted) instead of blocking the others.
type Bus struct {
	mu        sync.RWMutex
	subs      []*subscriber
	queueSize int
	closed    bool
	wg        sync.WaitGroup
}

func NewBus(queueSize int) *Bus {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Bus{queueSize: queueSize}
}

// Subscribe registers fn for one event kind.
func (b *Bus) Subscribe(kind EventKind, fn Handler) {
	b.add(&subscriber{kind: kind, ch: make(chan Event, b.queueSize)}, fn)
}

// SubscribeAll registers fn for every event kind.
func (b *Bus) SubscribeAll(fn Handler) {
	b.add(&subscriber{ch: make(chan Event, b.queueSize)}, fn)
}

func (b *Bus) add(s *subscriber, fn Handler) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.subs = append(b.subs, s)
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for ev := range s.ch {
			fn(ev)
		}
	}()
}

// Publish fans ev out to all matching subscribers without blocking; a full
// subscriber queue drops the event for that subscriber only.
func (b *Bus) Publish(ev Event) {
	telemetry.NotificationsPublished.WithLabelValues(string(ev.Kind())).Inc()
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, s := range b.subs {
		if s.kind != "" && s.kind != ev.Kind() {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			telemetry.NotificationsDropped.Inc()
			logger.Warn("notification_dropped", "kind", string(ev.Kind()))
		}
	}
}

// Close stops delivery and waits for subscriber goroutines to drain.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()
	for _, s := range subs {
		close(s.ch)
	}
	b.wg.Wait()
}
