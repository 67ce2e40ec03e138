package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campus-gigs/marketplace-service/internal/models"
	"github.com/campus-gigs/marketplace-service/internal/repositories"
	"github.com/campus-gigs/marketplace-service/internal/validator"
)

const defaultConversationPageSize = 50

// ContentCipher encrypts message bodies at rest. Decrypt never fails; it
// returns a placeholder for content it cannot read.
type ContentCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(token string) string
}

type messageService struct {
	repo      repositories.Repository
	cipher    ContentCipher
	logger    *slog.Logger
	validator *validator.BusinessValidator
}

func NewMessageService(repo repositories.Repository, cipher ContentCipher, logger *slog.Logger, validator *validator.BusinessValidator) MessageService {
	return &messageService{
		repo:      repo,
		cipher:    cipher,
		logger:    logger,
		validator: validator,
	}
}

// Send encrypts the content before it is stored.
func (s *messageService) Send(ctx context.Context, senderID string, req *SendMessageRequest) (*MessageView, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}
	if req.ReceiverID == senderID {
		return nil, validator.NewValidationError("receiver_id", "cannot send a message to yourself", req.ReceiverID)
	}

	if _, err := s.getUser(ctx, req.ReceiverID); err != nil {
		return nil, err
	}

	ciphertext, err := s.cipher.Encrypt(req.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt message: %w", err)
	}

	msg := &models.Message{
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
		Content:    ciphertext,
	}
	if err := s.repo.Message().Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	s.logger.Debug("Message sent", "message_id", msg.ID, "sender_id", senderID, "receiver_id", req.ReceiverID)

	return &MessageView{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Content:    req.Content,
		IsRead:     msg.IsRead,
		CreatedAt:  msg.CreatedAt,
	}, nil
}

// Conversation returns one page of the thread, oldest first.
func (s *messageService) Conversation(ctx context.Context, userID, partnerID string, filters repositories.MessageFilters) (*ConversationResponse, error) {
	partner, err := s.getUser(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	if filters.Limit <= 0 || filters.Limit > maxPageSize {
		filters.Limit = defaultConversationPageSize
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	msgs, total, err := s.repo.Message().Conversation(ctx, userID, partnerID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	views := make([]*MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, s.toView(m))
	}

	return &ConversationResponse{
		Partner:  partner.Summary(),
		Messages: views,
		Total:    total,
		Page:     pageOf(filters.Limit, filters.Offset),
		Size:     filters.Limit,
	}, nil
}

// MarkConversationRead marks what partnerID sent to userID as read.
func (s *messageService) MarkConversationRead(ctx context.Context, userID, partnerID string) (int64, error) {
	updated, err := s.repo.Message().MarkConversationRead(ctx, userID, partnerID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark conversation read: %w", err)
	}
	return updated, nil
}

func (s *messageService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	count, err := s.repo.Message().CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}

func (s *messageService) Conversations(ctx context.Context, userID string) ([]*ConversationView, error) {
	summaries, err := s.repo.Message().Conversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	ids := make([]string, 0, len(summaries))
	for _, summary := range summaries {
		ids = append(ids, summary.PartnerID)
	}
	partners := make(map[string]*models.User, len(ids))
	if len(ids) > 0 {
		users, err := s.repo.User().GetByIDs(ctx, ids)
		if err != nil {
			s.logger.Warn("Failed to resolve conversation partners", "user_id", userID, "error", err)
		}
		for _, u := range users {
			partners[u.ID] = u
		}
	}

	views := make([]*ConversationView, 0, len(summaries))
	for _, summary := range summaries {
		partner := partners[summary.PartnerID].Summary()
		if partner == nil {
			partner = &models.UserSummary{ID: summary.PartnerID}
		}
		views = append(views, &ConversationView{
			Partner:       partner,
			LastMessageAt: summary.LastMessageAt,
			UnreadCount:   summary.UnreadCount,
		})
	}
	return views, nil
}

func (s *messageService) toView(m *models.Message) *MessageView {
	return &MessageView{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Plaintext(s.cipher),
		IsRead:     m.IsRead,
		CreatedAt:  m.CreatedAt,
	}
}

func (s *messageService) getUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
