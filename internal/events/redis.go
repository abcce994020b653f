package events

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func channel(orderID uuid.UUID) string {
	return "order:" + orderID.String()
}

// RedisFeed publishes events on the per-order pub/sub channel and lets the
// tracker subscribe to it.
type RedisFeed struct {
	client *redis.Client
}

func NewRedisFeed(client *redis.Client) *RedisFeed {
	return &RedisFeed{client: client}
}

func (f *RedisFeed) Publish(ctx context.Context, event OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to encode order event")
	}
	return errors.Wrap(f.client.Publish(ctx, channel(event.OrderID), payload).Err(), "failed to publish to redis")
}

// Subscribe streams the events of one order until ctx is done or the
// returned stop function is called.
func (f *RedisFeed) Subscribe(ctx context.Context, orderID uuid.UUID) (<-chan OrderEvent, func() error) {
	pubsub := f.client.Subscribe(ctx, channel(orderID))
	out := make(chan OrderEvent)

	go func() {
		defer close(out)
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event OrderEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Warn().Err(err).Str("channel", msg.Channel).Msg("Dropping malformed order event")
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, pubsub.Close
}
