package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

// NotificationService manages the in-app notification inbox of each user.
type NotificationService struct {
	storage *storage.SQLiteRepository
	now     func() time.Time
}

func NewNotificationService(storage *storage.SQLiteRepository) *NotificationService {
	return &NotificationService{
		storage: storage,
		now:     time.Now,
	}
}

// Notify stores an unread notification for userID.
func (s *NotificationService) Notify(ctx context.Context, userID int64, typ core.NotificationType, title, message string) (core.Notification, error) {
	n, err := s.storage.InsertNotification(ctx, core.Notification{
		OwnerID:   userID,
		Title:     title,
		Message:   message,
		Timestamp: s.now(),
		Type:      typ,
	})
	if err != nil {
		return core.Notification{}, fmt.Errorf("notify %s: %w", typ, err)
	}
	return n, nil
}

// notifyQuietly logs instead of failing the operation that triggered the notification.
func (s *NotificationService) notifyQuietly(ctx context.Context, userID int64, typ core.NotificationType, title, message string) {
	if s == nil {
		return
	}
	if _, err := s.Notify(ctx, userID, typ, title, message); err != nil {
		slog.ErrorContext(ctx, "Failed to store notification",
			"user_id", userID,
			"type", typ,
			"error", err)
	}
}

// List returns the newest notifications first.
func (s *NotificationService) List(ctx context.Context, userID int64) ([]core.Notification, error) {
	return s.storage.ListNotifications(ctx, userID)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.storage.UnreadNotificationCount(ctx, userID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	return s.storage.MarkAllNotificationsRead(ctx, userID)
}

func (s *NotificationService) Clear(ctx context.Context, userID int64) (int64, error) {
	return s.storage.ClearNotifications(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, userID, id int64) error {
	return s.storage.DeleteNotification(ctx, userID, id)
}
