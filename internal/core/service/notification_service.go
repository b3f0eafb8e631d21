package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"github.com/workmanagement/taskboard/internal/core/domain"
	"github.com/workmanagement/taskboard/internal/core/feed"
	"github.com/workmanagement/taskboard/internal/core/ports"
)

// NotificationService stores device tokens and delivers pushes. Push is an
// enhancement: registration failures are logged and never surfaced.
type NotificationService struct {
	users    ports.UserRepository
	sender   ports.PushSender
	changes  ports.ChangePublisher
	subs     ports.ChangeSubscriber
	vapidKey string
	log      zerolog.Logger
	// onResult, when set, observes the outcome of every provider send.
	onResult func(result string)
}

func NewNotificationService(
	users ports.UserRepository,
	sender ports.PushSender,
	changes ports.ChangePublisher,
	subs ports.ChangeSubscriber,
	vapidKey string,
	log zerolog.Logger,
) *NotificationService {
	return &NotificationService{
		users:    users,
		sender:   sender,
		changes:  changes,
		subs:     subs,
		vapidKey: vapidKey,
		log:      log,
	}
}

// OnResult installs a hook that receives "sent", "failed" or "unregistered"
// after each provider call.
func (s *NotificationService) OnResult(fn func(result string)) {
	s.onResult = fn
}

func (s *NotificationService) VAPIDKey() string { return s.vapidKey }

func (s *NotificationService) RegisterForPush(ctx context.Context, userID, token string, permission domain.PushPermission) {
	if permission != domain.PermissionGranted {
		s.log.Info().Str("user_id", userID).Str("permission", string(permission)).Msg("push permission not granted")
		return
	}
	if token == "" {
		s.log.Info().Str("user_id", userID).Msg("no push token obtained")
		return
	}
	if err := s.users.SetNotificationToken(ctx, userID, token); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("storing push token failed")
		return
	}
	s.log.Debug().Str("user_id", userID).Msg("push token registered")
}

// Notify sends one push to userID's registered device, if any, and fans the
// same notification out to the user's open in-app listeners. There is no
// retry; a token the provider reports as stale is cleared.
func (s *NotificationService) Notify(ctx context.Context, userID, title, body string) error {
	n := domain.PushNotification{Title: title, Body: body}
	s.fanOut(ctx, userID, n)

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return domain.Wrap(err, "could not look up recipient")
	}
	if user.NotificationToken == "" {
		return nil
	}

	if err := s.sender.Send(ctx, user.NotificationToken, n); err != nil {
		if errors.Is(err, domain.ErrPushTokenUnregistered) {
			s.result("unregistered")
			if clearErr := s.users.SetNotificationToken(ctx, userID, ""); clearErr != nil {
				s.log.Warn().Err(clearErr).Str("user_id", userID).Msg("clearing stale push token failed")
			}
			return nil
		}
		s.result("failed")
		return domain.Wrap(err, "push delivery failed")
	}
	s.result("sent")
	return nil
}

func (s *NotificationService) fanOut(ctx context.Context, userID string, n domain.PushNotification) {
	payload, err := json.Marshal(n)
	if err != nil {
		s.log.Warn().Err(err).Msg("encode in-app notification")
		return
	}
	publish(ctx, s.changes, s.log, ports.PushTopic(userID), payload)
}

// Listen streams notifications addressed to userID while the caller is
// connected. Nothing is replayed and nothing is deduplicated against the
// device push.
func (s *NotificationService) Listen(ctx context.Context, userID string) *feed.Stream[domain.PushNotification] {
	signals, release := s.subs.Subscribe(ports.PushTopic(userID))
	return feed.Events(ctx, signals, release, func(c ports.Change) (domain.PushNotification, bool) {
		var n domain.PushNotification
		if err := json.Unmarshal(c.Payload, &n); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("decode in-app notification")
			return n, false
		}
		return n, true
	})
}

func (s *NotificationService) result(r string) {
	if s.onResult != nil {
		s.onResult(r)
	}
}
