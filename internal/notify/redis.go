package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisNotifier publishes events on a redis pub/sub channel so that other
// processes sharing the store can refresh. Each notifier stamps its events
// with a random origin and ignores events carrying its own origin.
type RedisNotifier struct {
	rdb     *redis.Client
	channel string
	origin  string
	logger  zerolog.Logger
}

// NewRedisNotifier returns a notifier on channel using rdb.
func NewRedisNotifier(rdb *redis.Client, channel string, logger zerolog.Logger) *RedisNotifier {
	return &RedisNotifier{
		rdb:     rdb,
		channel: channel,
		origin:  uuid.NewString(),
		logger:  logger,
	}
}

// Origin returns the identifier stamped on this notifier's events.
func (n *RedisNotifier) Origin() string {
	return n.origin
}

// Publish sends the event to the channel.
func (n *RedisNotifier) Publish(ctx context.Context, event Event) error {
	event.Origin = n.origin
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	if err := n.rdb.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publishing event: %w", err)
	}
	return nil
}

// Subscription is an active listener started by Subscribe.
type Subscription struct {
	pubsub *redis.PubSub
	done   chan struct{}
	once   sync.Once
}

// Close stops the listener and waits for it to exit.
func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() {
		err = s.pubsub.Close()
		<-s.done
	})
	return err
}

// Subscribe starts delivering events from other origins to handler. It
// returns once the subscription is confirmed by the server. The listener
// stops when ctx is cancelled or the Subscription is closed.
func (n *RedisNotifier) Subscribe(ctx context.Context, handler Handler) (*Subscription, error) {
	pubsub := n.rdb.Subscribe(ctx, n.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribing to %s: %w", n.channel, err)
	}

	sub := &Subscription{pubsub: pubsub, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				n.deliver(ctx, msg.Payload, handler)
			}
		}
	}()
	return sub, nil
}

func (n *RedisNotifier) deliver(ctx context.Context, payload string, handler Handler) {
	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		n.logger.Warn().Err(err).Str("channel", n.channel).Msg("ignoring malformed event")
		return
	}
	if event.Origin == n.origin {
		return
	}
	if err := handler(ctx, event); err != nil {
		n.logger.Warn().Err(err).Str("event", event.Type).Msg("event handler failed")
	}
}
