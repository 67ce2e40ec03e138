package repositories

import (
	"context"

	"github.com/campus-gigs/marketplace-service/internal/models"
)

// MessageRepository persists messages as given; encryption happens above it.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	// Conversation returns messages between a and b, oldest first.
	Conversation(ctx context.Context, a, b string, filters MessageFilters) ([]*models.Message, int64, error)
	MarkConversationRead(ctx context.Context, receiverID, senderID string) (int64, error)
	CountUnread(ctx context.Context, receiverID string) (int64, error)
	Conversations(ctx context.Context, userID string) ([]ConversationSummary, error)
}
