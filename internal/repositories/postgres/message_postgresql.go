package postgres

import (
	"context"

	"github.com/campus-gigs/marketplace-service/internal/models"
	"github.com/campus-gigs/marketplace-service/internal/repositories"
	"gorm.io/gorm"
)

type messageRepository struct {
	db *gorm.DB
}

func NewMessagePostgreSQL(db *gorm.DB) repositories.MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	ensureID(&msg.ID)
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return handleDBError(err, "create message")
	}
	return nil
}

// Conversation pages newest first, then returns the page oldest first
func (r *messageRepository) Conversation(ctx context.Context, a, b string, filters repositories.MessageFilters) ([]*models.Message, int64, error) {
	var msgs []*models.Message
	var total int64

	query := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a)
	if filters.Before != nil {
		query = query.Where("created_at < ?", *filters.Before)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count conversation")
	}

	query = applyPagination(query.Order("created_at DESC"), filters.Limit, filters.Offset)
	if err := query.Find(&msgs).Error; err != nil {
		return nil, 0, handleDBError(err, "get conversation")
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, total, nil
}

func (r *messageRepository) MarkConversationRead(ctx context.Context, receiverID, senderID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = ?", receiverID, senderID, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, handleDBError(result.Error, "mark conversation read")
	}
	return result.RowsAffected, nil
}

func (r *messageRepository) CountUnread(ctx context.Context, receiverID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("receiver_id = ? AND is_read = ?", receiverID, false).
		Count(&count).Error; err != nil {
		return 0, handleDBError(err, "count unread messages")
	}
	return count, nil
}

func (r *messageRepository) Conversations(ctx context.Context, userID string) ([]repositories.ConversationSummary, error) {
	var summaries []repositories.ConversationSummary
	if err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Select(`CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END AS partner_id,
			MAX(created_at) AS last_message_at,
			SUM(CASE WHEN receiver_id = ? AND is_read = false THEN 1 ELSE 0 END) AS unread_count`, userID, userID).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Group("partner_id").
		Order("last_message_at DESC").
		Scan(&summaries).Error; err != nil {
		return nil, handleDBError(err, "list conversations")
	}
	return summaries, nil
}
