package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// Feed carries deltas between service instances over Redis pub/sub. One
// channel per event keeps subscriptions scoped to "viewing this event".
type Feed struct {
	rdb    *redis.Client
	logger *log.Logger
}

func NewFeed(rdb *redis.Client, logger *log.Logger) *Feed {
	if logger == nil {
		logger = log.Default()
	}
	return &Feed{rdb: rdb, logger: logger}
}

func channelFor(eventID string) string {
	return "five:event:" + eventID
}

func (f *Feed) Publish(ctx context.Context, delta Delta) error {
	payload, err := json.Marshal(delta)
	if err != nil {
		return fmt.Errorf("marshal delta: %w", err)
	}
	if err := f.rdb.Publish(ctx, channelFor(delta.EventID), payload).Err(); err != nil {
		return fmt.Errorf("publish delta: %w", err)
	}
	return nil
}

// Subscribe returns a channel of deltas for one event. The channel closes
// when ctx is cancelled or the returned stop function is called.
func (f *Feed) Subscribe(ctx context.Context, eventID string) (<-chan Delta, func()) {
	sub := f.rdb.Subscribe(ctx, channelFor(eventID))
	out := make(chan Delta, 16)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				var delta Delta
				if err := json.Unmarshal([]byte(msg.Payload), &delta); err != nil {
					f.logger.Printf("realtime: drop malformed delta on %s: %v", msg.Channel, err)
					continue
				}
				select {
				case out <- delta:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	stop := func() {
		_ = sub.Close()
	}
	return out, stop
}
