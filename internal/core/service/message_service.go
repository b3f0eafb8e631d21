package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/workmanagement/taskboard/internal/core/domain"
	"github.com/workmanagement/taskboard/internal/core/feed"
	"github.com/workmanagement/taskboard/internal/core/ports"
)

type messageService struct {
	messages ports.MessageRepository
	users    ports.UserRepository
	changes  ports.ChangePublisher
	subs     ports.ChangeSubscriber
	log      zerolog.Logger
	now      func() time.Time
}

func NewMessageService(
	messages ports.MessageRepository,
	users ports.UserRepository,
	changes ports.ChangePublisher,
	subs ports.ChangeSubscriber,
	log zerolog.Logger,
) ports.MessageService {
	return &messageService{
		messages: messages,
		users:    users,
		changes:  changes,
		subs:     subs,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Send stores a message with a server timestamp. Blank text is ignored:
// nothing is written and (nil, nil) is returned.
func (s *messageService) Send(ctx context.Context, senderID, receiverID, text string) (*domain.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if receiverID == "" {
		return nil, domain.Invalid("receiver is required")
	}

	if _, err := s.users.FindByID(ctx, receiverID); err != nil {
		return nil, domain.Wrap(err, "could not send message")
	}

	cid := domain.ConversationID(senderID, receiverID)
	msg, err := s.messages.Create(ctx, &domain.Message{
		ConversationID: cid,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Message:        text,
		Timestamp:      s.now(),
	})
	if err != nil {
		return nil, domain.Wrap(err, "could not send message")
	}

	publish(ctx, s.changes, s.log, ports.MessagesTopic(cid), nil)
	s.log.Debug().Str("conversation_id", cid).Str("message_id", msg.ID).Msg("message sent")
	return msg, nil
}

func (s *messageService) ListConversation(ctx context.Context, conversationID string) ([]*domain.Message, error) {
	if conversationID == "" {
		return nil, domain.Invalid("conversation is required")
	}
	msgs, err := s.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, domain.Wrap(err, "could not load messages")
	}
	return msgs, nil
}

// WatchConversation streams the whole ordered conversation after every new
// message in it.
func (s *messageService) WatchConversation(ctx context.Context, conversationID string) (*feed.Stream[[]*domain.Message], error) {
	signals, release := s.subs.Subscribe(ports.MessagesTopic(conversationID))
	return feed.Watch(ctx, signals, release, func(ctx context.Context) ([]*domain.Message, error) {
		return s.ListConversation(ctx, conversationID)
	}, s.log)
}
