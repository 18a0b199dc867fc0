package broadcast

import (
	"sync"

	"go.uber.org/zap"
)

// subscriberBuffer bounds how far a subscriber may lag before events are
// dropped for it. Delivery is in order while the subscriber keeps up; a
// stalled subscriber loses events rather than stalling the publisher.
const subscriberBuffer = 16

type Subscription struct {
	C      <-chan Event
	bus    *Bus
	id     uint64
	ch     chan Event
	filter Filter
	once   sync.Once
}

// Close unsubscribes. Safe to call more than once and after the bus has
// already dropped the subscriber.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.remove(s.id)
	})
}

// Bus is the in-process half of the broadcast channel. All subscribers
// live in one map; Publish walks it and performs a non-blocking send to
// every matching subscriber.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*Subscription
	log    *zap.SugaredLogger
}

func NewBus(log *zap.SugaredLogger) *Bus {
	return &Bus{
		subs: make(map[uint64]*Subscription),
		log:  log,
	}
}

func (b *Bus) Subscribe(filter Filter) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	sub := &Subscription{
		C:      ch,
		bus:    b,
		id:     b.nextID,
		ch:     ch,
		filter: filter,
	}
	b.subs[sub.id] = sub
	return sub
}

// Publish delivers ev to every currently subscribed, matching client.
// Publishing to an empty bus is a no-op; a full subscriber buffer drops
// the event for that subscriber only.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		if !sub.filter.Matches(ev) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			if b.log != nil {
				b.log.Warnw("dropping event for slow subscriber",
					"event", ev.Type, "session", ev.Session.ID)
			}
		}
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(sub.ch)
	}
}

// SubscriberCount reports how many subscriptions are live.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
