package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/campus-gigs/marketplace-service/internal/events"
	"github.com/campus-gigs/marketplace-service/internal/metrics"
	"github.com/campus-gigs/marketplace-service/internal/models"
	"github.com/campus-gigs/marketplace-service/internal/repositories"
	"github.com/campus-gigs/marketplace-service/internal/validator"
)

const pushTimeout = 3 * time.Second

type notificationService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.BusinessValidator
}

func NewNotificationService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *validator.BusinessValidator) NotificationService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &notificationService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// ===== DISPATCH =====

// Notify persists one unread notification and then pushes it to the
// recipient's live channel. The push is best effort; its failure is logged
// and never affects the stored record. No deduplication is done.
func (s *notificationService) Notify(ctx context.Context, req *NotifyRequest) (*models.Notification, error) {
	if !req.Type.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNotificationType, req.Type)
	}
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	notification := &models.Notification{
		RecipientID: req.RecipientID,
		SenderID:    req.SenderID,
		Type:        req.Type,
		Title:       req.Title,
		Message:     req.Message,
		ProjectID:   req.ProjectID,
		Link:        req.Link,
		IsRead:      false,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Notification().Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	metrics.NotificationsDispatched.WithLabelValues(string(req.Type)).Inc()

	s.logger.Debug("Notification created",
		"notification_id", notification.ID,
		"recipient_id", notification.RecipientID,
		"type", notification.Type)

	s.push(ctx, notification)

	return notification, nil
}

// push sends the feed view of notification, sender included, to the
// recipient's live channel.
func (s *notificationService) push(ctx context.Context, notification *models.Notification) {
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
	defer cancel()

	if notification.SenderID != nil && notification.Sender == nil {
		sender, err := s.repo.User().GetByID(pushCtx, *notification.SenderID)
		if err != nil {
			s.logger.Warn("Failed to resolve notification sender",
				"notification_id", notification.ID,
				"sender_id", *notification.SenderID,
				"error", err)
		} else {
			notification.Sender = sender
		}
	}

	event := events.NewEvent(events.EventNotificationCreated, notification.RecipientID, notification.View())
	if err := s.publisher.Publish(pushCtx, events.UserChannel(notification.RecipientID), event); err != nil {
		metrics.PushFailures.Inc()
		s.logger.Warn("Failed to push notification",
			"notification_id", notification.ID,
			"recipient_id", notification.RecipientID,
			"error", err)
	}
}

// ===== FEED =====

func (s *notificationService) List(ctx context.Context, userID string, filters repositories.NotificationFilters) (*NotificationListResponse, error) {
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 20
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	notifications, total, err := s.repo.Notification().ListByRecipient(ctx, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	unread, err := s.repo.Notification().CountUnread(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	views := make([]*models.NotificationView, 0, len(notifications))
	for _, n := range notifications {
		views = append(views, n.View())
	}

	return &NotificationListResponse{
		Notifications: views,
		Total:         total,
		Unread:        unread,
		Page:          pageOf(filters.Limit, filters.Offset),
		Size:          filters.Limit,
	}, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	count, err := s.repo.Notification().CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead is idempotent: marking an already read notification succeeds.
func (s *notificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.repo.Notification().MarkRead(ctx, id, userID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	updated, err := s.repo.Notification().MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	s.logger.Info("Notifications marked read", "user_id", userID, "count", updated)
	return updated, nil
}

func (s *notificationService) Delete(ctx context.Context, id, userID string) error {
	if err := s.repo.Notification().Delete(ctx, id, userID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}
