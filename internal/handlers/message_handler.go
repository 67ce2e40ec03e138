package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campus-gigs/marketplace-service/internal/repositories"
	"github.com/campus-gigs/marketplace-service/internal/services"
	"github.com/campus-gigs/marketplace-service/internal/utils"
)

type MessageHandler struct {
	BaseHandler
	messageService services.MessageService
}

func NewMessageHandler(messageService services.MessageService, logger utils.Logger) *MessageHandler {
	return &MessageHandler{
		BaseHandler:    NewBaseHandler(logger),
		messageService: messageService,
	}
}

// SendMessage sends a direct message
// @Summary Send a message
// @Tags messages
// @Accept json
// @Produce json
// @Param request body services.SendMessageRequest true "Receiver and content"
// @Success 201 {object} services.MessageView
// @Failure 404 {object} ErrorResponse "Receiver not found"
// @Router /messages [post]
func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	var req services.SendMessageRequest
	if !h.bindJSON(c, &req) {
		return
	}

	view, err := h.messageService.Send(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// ListConversations returns the caller's inbox
// @Summary List conversations
// @Tags messages
// @Produce json
// @Success 200 {array} services.ConversationView
// @Router /messages/conversations [get]
func (h *MessageHandler) ListConversations(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	conversations, err := h.messageService.Conversations(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// UnreadCount returns the number of unread messages
// @Summary Count unread messages
// @Tags messages
// @Produce json
// @Success 200 {object} map[string]int64
// @Router /messages/unread-count [get]
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	count, err := h.messageService.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// GetConversation returns the thread with one user
// @Summary Get conversation
// @Tags messages
// @Produce json
// @Param user_id path string true "Partner ID"
// @Param before query string false "RFC3339 timestamp"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size"
// @Success 200 {object} services.ConversationResponse
// @Failure 404 {object} ErrorResponse "Partner not found"
// @Router /messages/{user_id} [get]
func (h *MessageHandler) GetConversation(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}
	partnerID := h.parseStringIDParam(c, "user_id")
	if partnerID == "" {
		return
	}

	limit, offset := h.parsePagination(c)
	filters := repositories.MessageFilters{Limit: limit, Offset: offset}
	if before := c.Query("before"); before != "" {
		t, err := time.Parse(time.RFC3339, before)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid 'before' timestamp",
				Details: err.Error(),
			})
			return
		}
		filters.Before = &t
	}

	response, err := h.messageService.Conversation(c.Request.Context(), userID, partnerID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// MarkConversationRead marks what the partner sent as read
// @Summary Mark conversation read
// @Tags messages
// @Produce json
// @Param user_id path string true "Partner ID"
// @Success 200 {object} SuccessResponse
// @Router /messages/{user_id}/read [put]
func (h *MessageHandler) MarkConversationRead(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}
	partnerID := h.parseStringIDParam(c, "user_id")
	if partnerID == "" {
		return
	}

	updated, err := h.messageService.MarkConversationRead(c.Request.Context(), userID, partnerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Conversation marked as read",
		Data:    gin.H{"updated": updated},
	})
}
