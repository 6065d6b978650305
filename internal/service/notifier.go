package service

import "context"

// Notifier tells a player something happened in one of their games.
// Implemented by NotificationService.
type Notifier interface {
	Notify(ctx context.Context, userID, gameID, kind, text string) error
}

// NoopNotifier is a no-op implementation for testing or when notifications are disabled.
type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, string, string, string, string) error { return nil }
