package broadcast

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Relay bridges the in-process bus across instances through Redis pub/sub.
// Events published locally are republished on a Redis channel; events
// arriving from other instances are injected into the local bus. Redis
// pub/sub keeps the no-replay semantics of the bus: disconnected
// subscribers simply miss events.
type Relay struct {
	bus      *Bus
	rdb      *redis.Client
	channel  string
	instance string
	log      *zap.SugaredLogger
}

type envelope struct {
	Origin string `json:"origin"`
	Event  Event  `json:"event"`
}

func NewRelay(bus *Bus, rdb *redis.Client, channel string, log *zap.SugaredLogger) *Relay {
	return &Relay{
		bus:      bus,
		rdb:      rdb,
		channel:  channel,
		instance: uuid.NewString(),
		log:      log,
	}
}

// Publish fans out locally and forwards to Redis. Redis failures are
// logged, never surfaced: broadcast must not fail the state change that
// triggered it.
func (r *Relay) Publish(ev Event) {
	r.bus.Publish(ev)

	payload, err := json.Marshal(envelope{Origin: r.instance, Event: ev})
	if err != nil {
		r.log.Errorw("relay marshal failed", "event", ev.Type, "error", err)
		return
	}
	if err := r.rdb.Publish(context.Background(), r.channel, payload).Err(); err != nil {
		r.log.Warnw("relay publish failed", "event", ev.Type, "error", err)
	}
}

// Run consumes the Redis channel until ctx is cancelled, republishing
// foreign-origin events into the local bus.
func (r *Relay) Run(ctx context.Context) {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				r.log.Warnw("relay decode failed", "error", err)
				continue
			}
			if env.Origin == r.instance {
				continue
			}
			r.bus.Publish(env.Event)
		}
	}
}
