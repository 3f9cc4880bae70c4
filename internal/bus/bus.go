package bus

import (
	"sync"

	"github.com/example/ride-hail/internal/models"
	"github.com/example/ride-hail/internal/observability"
)

// Bus is the in-process fan-out channel between the dispatch engine and the
// realtime gateway. Delivery is best-effort: each subscriber gets a bounded
// buffer and a full buffer drops the newest event instead of stalling the
// publisher. Events sent by one publisher reach a given subscriber in
// publication order; nothing is guaranteed across subscribers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
}

// Subscription is a single membership in the bus. Receive from C until it is
// closed by Unsubscribe.
type Subscription struct {
	C chan models.Event
}

func New(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 32
	}
	return &Bus{subs: make(map[*Subscription]struct{}), buffer: buffer}
}

func (b *Bus) Subscribe() *Subscription {
	s := &Subscription{C: make(chan models.Event, b.buffer)}
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s
}

// Unsubscribe removes s and closes its channel. Holding the write lock
// excludes in-flight publishes, so the close cannot race a send.
func (b *Bus) Unsubscribe(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[s]; !ok {
		return
	}
	delete(b.subs, s)
	close(s.C)
}

// Publish delivers e to every current subscriber without blocking.
func (b *Bus) Publish(e models.Event) {
	observability.EventsPublished.WithLabelValues(e.Type).Inc()
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subs {
		select {
		case s.C <- e:
		default:
			observability.EventsDropped.Inc()
		}
	}
}

// Len reports the current subscriber count.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
