package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/hexconquest/internal/model"
	"github.com/freeeve/hexconquest/internal/repository"
)

var ErrNoNotifications = errors.New("no notification ids given")

// NotificationService stores and serves per-user game notifications.
type NotificationService struct {
	repo repository.NotificationRepository
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// Notify records a notification for userID.
func (s *NotificationService) Notify(ctx context.Context, userID, gameID, kind, text string) error {
	n, err := s.repo.Create(ctx, userID, gameID, kind, text)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	log.Debug().Str("userId", userID).Str("gameId", gameID).Str("kind", kind).Str("notificationId", n.ID).Msg("Notification created")
	return nil
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool) ([]model.Notification, error) {
	ns, err := s.repo.ListByUser(ctx, userID, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	if ns == nil {
		ns = []model.Notification{}
	}
	return ns, nil
}

// MarkRead flags the given notifications as read. Ids belonging to other
// users are ignored; the count of rows changed is returned.
func (s *NotificationService) MarkRead(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoNotifications
	}
	n, err := s.repo.MarkRead(ctx, userID, ids)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return n, nil
}
