package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/syslogsitsolutions/menulogs/internal/adapter/logger"
	"github.com/syslogsitsolutions/menulogs/internal/config"
	"github.com/syslogsitsolutions/menulogs/internal/domain"
	"github.com/syslogsitsolutions/menulogs/internal/interfaces"
)

// Broker relays realtime events between service instances over a
// Redis pub/sub channel. Each instance tags outgoing messages with
// its own id and ignores them on the way back in, so local fan-out
// stays at-most-once per room.
type Broker struct {
	client   *redis.Client
	channel  string
	instance string
	logger   logger.Logger
}

// envelope is the wire frame on the pub/sub channel.
type envelope struct {
	Origin string       `json:"origin"`
	Event  domain.Event `json:"event"`
}

// Connect dials Redis and verifies the connection. Callers treat a
// connect failure as "run single-instance": the realtime channel
// degrades to local fan-out, it does not go away.
func Connect(ctx context.Context, cfg config.RedisConfig, lgr logger.Logger) (*Broker, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr(),
		DB:   cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &Broker{
		client:   client,
		channel:  cfg.Channel,
		instance: uuid.NewString(),
		logger:   lgr,
	}, nil
}

func (b *Broker) Publish(ctx context.Context, event domain.Event) error {
	body, err := json.Marshal(envelope{Origin: b.instance, Event: event})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, body).Err(); err != nil {
		return domain.WrapError(domain.KindTransientInfra, err, "broker publish failed")
	}
	return nil
}

// Subscribe delivers remote events to handler until ctx is cancelled.
// The underlying pub/sub connection reconnects on its own; malformed
// messages are logged and skipped.
func (b *Broker) Subscribe(ctx context.Context, handler func(domain.Event)) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return domain.NewError(domain.KindTransientInfra, "broker subscription closed")
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Error("broker_decode_failed", "Dropped malformed broker message", "", nil, err)
				continue
			}
			if env.Origin == b.instance {
				continue
			}
			handler(env.Event)
		}
	}
}

func (b *Broker) Close() error {
	return b.client.Close()
}

var _ interfaces.Broker = (*Broker)(nil)
