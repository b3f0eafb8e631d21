package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/workmanagement/taskboard/internal/core/domain"
	"github.com/workmanagement/taskboard/internal/core/feed"
	"github.com/workmanagement/taskboard/internal/core/ports"
)

type presenceService struct {
	users   ports.UserRepository
	changes ports.ChangePublisher
	subs    ports.ChangeSubscriber
	log     zerolog.Logger
	now     func() time.Time
}

func NewPresenceService(users ports.UserRepository, changes ports.ChangePublisher, subs ports.ChangeSubscriber, log zerolog.Logger) ports.PresenceService {
	return &presenceService{
		users:   users,
		changes: changes,
		subs:    subs,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetOnline records presence. It is safe to repeat and never fails the
// caller: a lost presence update only makes the roster stale.
func (s *presenceService) SetOnline(ctx context.Context, userID string, online bool) {
	if userID == "" {
		return
	}
	if err := s.users.SetPresence(ctx, userID, online, s.now()); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Bool("online", online).Msg("presence update failed")
		return
	}
	publish(ctx, s.changes, s.log, ports.TopicUsers, nil)
}

func (s *presenceService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.List(ctx, "")
	if err != nil {
		return nil, domain.Wrap(err, "could not load users")
	}
	return users, nil
}

func (s *presenceService) ListWorkers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.List(ctx, domain.RoleWorker)
	if err != nil {
		return nil, domain.Wrap(err, "could not load workers")
	}
	return users, nil
}

// WatchRoster streams the full roster after every user change.
func (s *presenceService) WatchRoster(ctx context.Context) (*feed.Stream[[]*domain.User], error) {
	signals, release := s.subs.Subscribe(ports.TopicUsers)
	return feed.Watch(ctx, signals, release, s.ListUsers, s.log)
}
