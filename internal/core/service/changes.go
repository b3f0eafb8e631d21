package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/workmanagement/taskboard/internal/core/ports"
)

// publish signals a change on topic. Subscribers re-read on their own, so a
// lost signal only delays a refresh; failures are logged and not returned.
func publish(ctx context.Context, pub ports.ChangePublisher, log zerolog.Logger, topic string, payload []byte) {
	if err := pub.Publish(ctx, ports.Change{Topic: topic, Payload: payload}); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("change publish failed")
	}
}
