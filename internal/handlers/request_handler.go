package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-gigs/marketplace-service/internal/models"
	"github.com/campus-gigs/marketplace-service/internal/repositories"
	"github.com/campus-gigs/marketplace-service/internal/services"
	"github.com/campus-gigs/marketplace-service/internal/utils"
)

// RequestHandler serves applications (student to project) and invitations
// (owner to student).
type RequestHandler struct {
	BaseHandler
	requestService services.RequestService
}

func NewRequestHandler(requestService services.RequestService, logger utils.Logger) *RequestHandler {
	return &RequestHandler{
		BaseHandler:    NewBaseHandler(logger),
		requestService: requestService,
	}
}

// ===== APPLICATIONS =====

// Apply requests to join an open project
// @Summary Apply to a project
// @Tags applications
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body services.ApplyRequest false "Cover message"
// @Success 201 {object} services.ApplicationResponse
// @Failure 409 {object} ErrorResponse "Already applied"
// @Failure 422 {object} ErrorResponse "Project not open"
// @Router /projects/{id}/apply [post]
func (h *RequestHandler) Apply(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}
	projectID := h.parseStringIDParam(c, "id")
	if projectID == "" {
		return
	}

	var req services.ApplyRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Applying to project", "project_id", projectID)

	response, err := h.requestService.Apply(c.Request.Context(), projectID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// ListApplications lists applications the caller owns or sent
// @Summary List applications
// @Tags applications
// @Produce json
// @Param role query string false "owner (default) or freelancer"
// @Param project_id query string false "Project"
// @Param status query string false "pending, accepted or rejected"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} services.ApplicationListResponse
// @Router /applications [get]
func (h *RequestHandler) ListApplications(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	filters, ok := h.requestFilters(c, userID)
	if !ok {
		return
	}

	response, err := h.requestService.ListApplications(c.Request.Context(), filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// AcceptApplication assigns the applicant to the project
// @Summary Accept an application
// @Tags applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} models.Application
// @Failure 409 {object} ErrorResponse "Already answered"
// @Router /applications/{id}/accept [post]
func (h *RequestHandler) AcceptApplication(c *gin.Context) {
	h.answer(c, "Accepting application", h.requestService.AcceptApplication)
}

// RejectApplication declines an application
// @Summary Reject an application
// @Tags applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} models.Application
// @Router /applications/{id}/reject [post]
func (h *RequestHandler) RejectApplication(c *gin.Context) {
	h.answer(c, "Rejecting application", h.requestService.RejectApplication)
}

// ===== INVITATIONS =====

// Invite asks a student to work on the project
// @Summary Invite a freelancer
// @Tags invitations
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body services.InviteRequest true "Freelancer and message"
// @Success 201 {object} services.InvitationResponse
// @Failure 409 {object} ErrorResponse "Already invited"
// @Router /projects/{id}/invite [post]
func (h *RequestHandler) Invite(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}
	projectID := h.parseStringIDParam(c, "id")
	if projectID == "" {
		return
	}

	var req services.InviteRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Inviting freelancer", "project_id", projectID, "freelancer_id", req.FreelancerID)

	response, err := h.requestService.Invite(c.Request.Context(), projectID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// ListInvitations lists invitations the caller sent or received
// @Summary List invitations
// @Tags invitations
// @Produce json
// @Param role query string false "owner (default) or freelancer"
// @Param project_id query string false "Project"
// @Param status query string false "pending, accepted or rejected"
// @Success 200 {object} services.InvitationListResponse
// @Router /invitations [get]
func (h *RequestHandler) ListInvitations(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	filters, ok := h.requestFilters(c, userID)
	if !ok {
		return
	}

	response, err := h.requestService.ListInvitations(c.Request.Context(), filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// AcceptInvitation starts work on the inviting project
// @Summary Accept an invitation
// @Tags invitations
// @Produce json
// @Param id path string true "Invitation ID"
// @Success 200 {object} models.Invitation
// @Router /invitations/{id}/accept [post]
func (h *RequestHandler) AcceptInvitation(c *gin.Context) {
	h.answerInvitation(c, "Accepting invitation", h.requestService.AcceptInvitation)
}

// DeclineInvitation turns an invitation down
// @Summary Decline an invitation
// @Tags invitations
// @Produce json
// @Param id path string true "Invitation ID"
// @Success 200 {object} models.Invitation
// @Router /invitations/{id}/decline [post]
func (h *RequestHandler) DeclineInvitation(c *gin.Context) {
	h.answerInvitation(c, "Declining invitation", h.requestService.DeclineInvitation)
}

// ===== HELPERS =====

func (h *RequestHandler) answer(c *gin.Context, msg string, fn func(ctx context.Context, id, userID string) (*models.Application, error)) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}
	id := h.parseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, msg, "application_id", id)

	app, err := fn(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, app)
}

func (h *RequestHandler) answerInvitation(c *gin.Context, msg string, fn func(ctx context.Context, id, userID string) (*models.Invitation, error)) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}
	id := h.parseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, msg, "invitation_id", id)

	inv, err := fn(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, inv)
}

// requestFilters reads the shared list filters. role=freelancer scopes the
// list to requests addressed to or sent by the caller as a student.
func (h *RequestHandler) requestFilters(c *gin.Context, userID string) (repositories.RequestFilters, bool) {
	limit, offset := h.parsePagination(c)
	filters := repositories.RequestFilters{
		ProjectID: h.parseStringQueryPtr(c, "project_id"),
		Limit:     limit,
		Offset:    offset,
	}
	if c.Query("role") == "freelancer" {
		filters.FreelancerID = &userID
	}
	if status := c.Query("status"); status != "" {
		s := models.RequestStatus(status)
		switch s {
		case models.RequestPending, models.RequestAccepted, models.RequestRejected:
			filters.Status = &s
		default:
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid status filter",
				Details: status,
			})
			return filters, false
		}
	}
	return filters, true
}
