package postgres

import (
	"context"
	"fmt"

	"github.com/campus-gigs/marketplace-service/internal/models"
	"github.com/campus-gigs/marketplace-service/internal/repositories"
	"gorm.io/gorm"
)

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationPostgreSQL(db *gorm.DB) repositories.NotificationRepository {
	return &notificationRepository{db: db}
}

func preloadSender(db *gorm.DB) *gorm.DB {
	return db.Preload("Sender", func(db *gorm.DB) *gorm.DB {
		return db.Select("id, name, profile_image_url")
	})
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	ensureID(&n.ID)
	if err := r.db.WithContext(ctx).Omit("Sender").Create(n).Error; err != nil {
		return handleDBError(err, "create notification")
	}
	return nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	var n models.Notification
	if err := preloadSender(r.db.WithContext(ctx)).First(&n, "id = ?", id).Error; err != nil {
		return nil, handleDBError(err, "get notification by id")
	}
	return &n, nil
}

// ListByRecipient returns the feed newest first
func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID string, filters repositories.NotificationFilters) ([]*models.Notification, int64, error) {
	var items []*models.Notification
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient_id = ?", recipientID)
	if filters.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count notifications")
	}

	query = applyPagination(preloadSender(query).Order("created_at DESC"), filters.Limit, filters.Offset)
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, handleDBError(err, "list notifications")
	}
	return items, total, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error; err != nil {
		return 0, handleDBError(err, "count unread notifications")
	}
	return count, nil
}

// MarkRead flips the read flag; repeating it on a read row still succeeds
func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", true)
	if result.Error != nil {
		return handleDBError(result.Error, "mark notification read")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("mark notification read: %w", repositories.ErrNotFound)
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, handleDBError(result.Error, "mark all notifications read")
	}
	return result.RowsAffected, nil
}

func (r *notificationRepository) Delete(ctx context.Context, id, recipientID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Delete(&models.Notification{})
	if result.Error != nil {
		return handleDBError(result.Error, "delete notification")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete notification: %w", repositories.ErrNotFound)
	}
	return nil
}
