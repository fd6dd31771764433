package coordinator

import (
	"sync"

	"petdoor_hub/internal/logger"
	"petdoor_hub/internal/models"
)

// SubscriberFunc receives every merged snapshot. Delivery is synchronous;
// handlers filter for the keys they care about and must not block.
type SubscriberFunc func(models.Snapshot)

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	id       int
	registry *subscriberRegistry
}

// Unsubscribe removes the handler; it receives no further snapshots.
// Safe to call on a zero-value handle.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.registry == nil {
		return
	}
	s.registry.remove(s.id)
}

// subscriberRegistry fans merged snapshots out to registered handlers.
// Notification order across subscribers is unspecified, and a handler that
// panics is isolated so the rest of the fan-out still happens.
type subscriberRegistry struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]SubscriberFunc
	log    *logger.Logger
}

func newSubscriberRegistry(log *logger.Logger) *subscriberRegistry {
	return &subscriberRegistry{subs: make(map[int]SubscriberFunc), log: log}
}

func (r *subscriberRegistry) add(fn SubscriberFunc) *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	r.subs[r.nextID] = fn
	return &Subscription{id: r.nextID, registry: r}
}

func (r *subscriberRegistry) remove(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, id)
}

func (r *subscriberRegistry) notifyAll(snap models.Snapshot) {
	r.mu.Lock()
	handlers := make([]SubscriberFunc, 0, len(r.subs))
	for _, fn := range r.subs {
		handlers = append(handlers, fn)
	}
	r.mu.Unlock()

	for _, fn := range handlers {
		r.notifyOne(fn, snap)
	}
}

// notifyOne delivers to a single handler, containing panics.
func (r *subscriberRegistry) notifyOne(fn SubscriberFunc, snap models.Snapshot) {
	defer func() {
		if rec := recover(); rec != nil && r.log != nil {
			r.log.Errorw("subscriber_panic", "panic", rec)
		}
	}()
	fn(snap)
}
