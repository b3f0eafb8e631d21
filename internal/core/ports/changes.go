package ports

import "context"

// Topics carried on the change feed.
const (
	TopicUsers = "users"
	TopicTasks = "tasks"
)

func MessagesTopic(conversationID string) string { return "messages:" + conversationID }
func SessionTopic(sessionID string) string       { return "session:" + sessionID }
func PushTopic(userID string) string             { return "push:" + userID }

// Change signals that data behind Topic has changed. Payload is optional and
// only meaningful for event topics (push); snapshot topics reload on receipt.
type Change struct {
	Topic   string
	Payload []byte
}

type ChangePublisher interface {
	Publish(ctx context.Context, c Change) error
}

// ChangeSubscriber hands out per-topic change channels. The returned func
// releases the subscription and closes the channel; it is safe to call twice.
type ChangeSubscriber interface {
	Subscribe(topic string) (<-chan Change, func())
}
