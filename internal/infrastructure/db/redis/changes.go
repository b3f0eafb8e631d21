package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/workmanagement/taskboard/internal/core/ports"
)

// ChannelPrefix namespaces change topics on Redis pub/sub.
const ChannelPrefix = "taskboard:change:"

// ChangePublisher publishes change signals on Redis so every instance sees
// them, including the publisher itself through its ChangeRelay.
type ChangePublisher struct {
	client *redis.Client
}

func NewChangePublisher(client *redis.Client) *ChangePublisher {
	return &ChangePublisher{client: client}
}

func (p *ChangePublisher) Publish(ctx context.Context, c ports.Change) error {
	if err := p.client.Publish(ctx, ChannelPrefix+c.Topic, c.Payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", c.Topic, err)
	}
	return nil
}

// ChangeRelay copies changes from Redis into a local sink, normally the
// in-process hub that SSE streams subscribe to.
type ChangeRelay struct {
	client *redis.Client
	sink   ports.ChangePublisher
	log    zerolog.Logger
}

func NewChangeRelay(client *redis.Client, sink ports.ChangePublisher, log zerolog.Logger) *ChangeRelay {
	return &ChangeRelay{client: client, sink: sink, log: log}
}

// Run blocks until ctx is cancelled or the subscription channel closes.
func (r *ChangeRelay) Run(ctx context.Context) error {
	ps := r.client.PSubscribe(ctx, ChannelPrefix+"*")
	defer ps.Close()

	// Wait for the subscription to be confirmed so early publishes are not lost.
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("psubscribe: %w", err)
	}
	r.log.Info().Str("pattern", ChannelPrefix+"*").Msg("change relay subscribed")

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			c, ok := decodeChange(msg.Channel, msg.Payload)
			if !ok {
				continue
			}
			if err := r.sink.Publish(ctx, c); err != nil {
				r.log.Warn().Err(err).Str("topic", c.Topic).Msg("relay publish failed")
			}
		}
	}
}

func decodeChange(channel, payload string) (ports.Change, bool) {
	topic, ok := strings.CutPrefix(channel, ChannelPrefix)
	if !ok || topic == "" {
		return ports.Change{}, false
	}
	c := ports.Change{Topic: topic}
	if payload != "" {
		c.Payload = []byte(payload)
	}
	return c, true
}
