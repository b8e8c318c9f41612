package notification

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Pusher delivers a real-time copy of a stored notification, usually
// over the websocket hub. Delivery is best effort.
type Pusher interface {
	Push(userID primitive.ObjectID, payload interface{})
}

type NotificationService interface {
	// Send stores a notification and pushes it to connected clients.
	// Used directly by controllers and as the send_notification action
	// target.
	Send(ctx context.Context, tenantID, userID primitive.ObjectID, title, message string) error
	SendTyped(ctx context.Context, notification *Notification) error
	GetUserNotifications(ctx context.Context, tenantID, userID primitive.ObjectID, page, limit int64) ([]Notification, int64, error)
	GetUnreadCount(ctx context.Context, tenantID, userID primitive.ObjectID) (int64, error)
	MarkAsRead(ctx context.Context, tenantID, userID primitive.ObjectID, id string) error
	MarkAllAsRead(ctx context.Context, tenantID, userID primitive.ObjectID) error
}

type NotificationServiceImpl struct {
	Repo   NotificationRepository
	Pusher Pusher
	Logger *zap.Logger
}

func NewNotificationService(repo NotificationRepository, pusher Pusher, logger *zap.Logger) NotificationService {
	return &NotificationServiceImpl{
		Repo:   repo,
		Pusher: pusher,
		Logger: logger,
	}
}

func (s *NotificationServiceImpl) Send(ctx context.Context, tenantID, userID primitive.ObjectID, title, message string) error {
	return s.SendTyped(ctx, &Notification{
		TenantID: tenantID,
		UserID:   userID,
		Title:    title,
		Message:  message,
		Type:     NotificationTypeAutomation,
	})
}

func (s *NotificationServiceImpl) SendTyped(ctx context.Context, notification *Notification) error {
	if notification.UserID.IsZero() {
		return fmt.Errorf("notification user is required")
	}
	if notification.Type == "" {
		notification.Type = NotificationTypeInfo
	}

	if err := s.Repo.Create(ctx, notification); err != nil {
		return err
	}

	if s.Pusher != nil {
		s.Pusher.Push(notification.UserID, notification)
	}

	s.Logger.Debug("notification sent",
		zap.String("user", notification.UserID.Hex()),
		zap.String("title", notification.Title))
	return nil
}

func (s *NotificationServiceImpl) GetUserNotifications(ctx context.Context, tenantID, userID primitive.ObjectID, page, limit int64) ([]Notification, int64, error) {
	return s.Repo.ListByUser(ctx, tenantID, userID, page, limit)
}

func (s *NotificationServiceImpl) GetUnreadCount(ctx context.Context, tenantID, userID primitive.ObjectID) (int64, error) {
	return s.Repo.CountUnread(ctx, tenantID, userID)
}

func (s *NotificationServiceImpl) MarkAsRead(ctx context.Context, tenantID, userID primitive.ObjectID, id string) error {
	return s.Repo.MarkRead(ctx, tenantID, userID, id)
}

func (s *NotificationServiceImpl) MarkAllAsRead(ctx context.Context, tenantID, userID primitive.ObjectID) error {
	return s.Repo.MarkAllRead(ctx, tenantID, userID)
}
