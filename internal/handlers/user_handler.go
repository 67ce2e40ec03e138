package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-gigs/marketplace-service/internal/models"
	"github.com/campus-gigs/marketplace-service/internal/repositories"
	"github.com/campus-gigs/marketplace-service/internal/services"
	"github.com/campus-gigs/marketplace-service/internal/storage"
	"github.com/campus-gigs/marketplace-service/internal/utils"
)

const uploadField = "file"

type UserHandler struct {
	BaseHandler
	userService services.UserService
}

func NewUserHandler(userService services.UserService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		userService: userService,
	}
}

// GetMe returns the caller's profile
// @Summary Get own profile
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse
// @Router /users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	// The auth middleware already loaded the caller
	user, err := GetUserFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateMe updates the caller's profile
// @Summary Update own profile
// @Tags users
// @Accept json
// @Produce json
// @Param request body services.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Router /users/me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	var req services.UpdateProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Updating profile")

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetUser retrieves a user by ID
// @Summary Get user by ID
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id := h.parseStringIDParam(c, "id")
	if id == "" {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListFreelancers lists students offering work
// @Summary List freelancers
// @Tags users
// @Produce json
// @Param skill query string false "Skill"
// @Param open_for_work query bool false "Availability"
// @Param max_price query int false "Maximum price"
// @Param q query string false "Name or major"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} services.FreelancerListResponse
// @Router /freelancers [get]
func (h *UserHandler) ListFreelancers(c *gin.Context) {
	limit, offset := h.parsePagination(c)
	filters := repositories.FreelancerFilters{
		Skill:       h.parseStringQueryPtr(c, "skill"),
		OpenForWork: h.parseBoolQueryPtr(c, "open_for_work"),
		MaxPrice:    h.parseIntQueryPtr(c, "max_price"),
		Query:       c.Query("q"),
		Limit:       limit,
		Offset:      offset,
	}

	resp, err := h.userService.ListFreelancers(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UploadAvatar replaces the caller's profile image
// @Summary Upload profile image
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image"
// @Success 200 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Router /users/me/avatar [post]
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	h.upload(c, "Uploading profile image", h.userService.UploadProfileImage)
}

// UploadPortfolio replaces the caller's portfolio document
// @Summary Upload portfolio
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document"
// @Success 200 {object} models.User
// @Failure 403 {object} ErrorResponse
// @Router /users/me/portfolio [post]
func (h *UserHandler) UploadPortfolio(c *gin.Context) {
	h.upload(c, "Uploading portfolio", h.userService.UploadPortfolio)
}

// AddGalleryImage appends an image to the caller's gallery
// @Summary Add gallery image
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image"
// @Success 200 {object} models.User
// @Failure 422 {object} ErrorResponse "Gallery full"
// @Router /users/me/gallery [post]
func (h *UserHandler) AddGalleryImage(c *gin.Context) {
	h.upload(c, "Adding gallery image", h.userService.AddGalleryImage)
}

// RemoveGalleryImage deletes one image from the caller's gallery
// @Summary Remove gallery image
// @Tags users
// @Produce json
// @Param url query string true "Image URL"
// @Success 200 {object} models.User
// @Failure 404 {object} ErrorResponse
// @Router /users/me/gallery [delete]
func (h *UserHandler) RemoveGalleryImage(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Query parameter 'url' is required",
		})
		return
	}

	user, err := h.userService.RemoveGalleryImage(c.Request.Context(), userID, url)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

type uploadFunc func(ctx context.Context, userID string, data []byte) (*models.User, error)

// upload reads the multipart "file" field and hands its bytes to fn. Reads
// stop one byte past the limit so oversize files are rejected by the store.
func (h *UserHandler) upload(c *gin.Context, msg string, fn uploadFunc) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	header, err := c.FormFile(uploadField)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: fmt.Sprintf("Form field '%s' is required", uploadField),
			Details: err.Error(),
		})
		return
	}

	file, err := header.Open()
	if err != nil {
		h.LogError(c, err, "Failed to open upload")
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Unreadable upload"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, storage.MaxUploadSize+1))
	if err != nil {
		h.LogError(c, err, "Failed to read upload")
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Unreadable upload"})
		return
	}

	h.LogRequest(c, msg, "filename", header.Filename, "size", len(data))

	user, err := fn(c.Request.Context(), userID, data)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
