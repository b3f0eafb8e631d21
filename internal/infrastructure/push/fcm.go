// Package push delivers notifications through Firebase Cloud Messaging.
package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/workmanagement/taskboard/internal/core/domain"
)

// Icon is shown by the browser for background web pushes.
const Icon = "/logo192.png"

// Config identifies the Firebase project. CredentialsFile is optional; without
// it application default credentials are used.
type Config struct {
	ProjectID       string
	CredentialsFile string
}

type messenger interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMSender sends single-device pushes.
type FCMSender struct {
	client messenger
}

func NewFCMSender(ctx context.Context, cfg Config) (*FCMSender, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("messaging client: %w", err)
	}
	return &FCMSender{client: client}, nil
}

// Send delivers n to token once. Stale tokens are reported as
// domain.ErrPushTokenUnregistered.
func (s *FCMSender) Send(ctx context.Context, token string, n domain.PushNotification) error {
	_, err := s.client.Send(ctx, buildMessage(token, n))
	if err == nil {
		return nil
	}
	if messaging.IsUnregistered(err) {
		return fmt.Errorf("%w: %v", domain.ErrPushTokenUnregistered, err)
	}
	return fmt.Errorf("fcm send: %w", err)
}

func buildMessage(token string, n domain.PushNotification) *messaging.Message {
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: n.Data,
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title: n.Title,
				Body:  n.Body,
				Icon:  Icon,
			},
		},
	}
}
