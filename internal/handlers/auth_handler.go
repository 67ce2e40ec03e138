package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-gigs/marketplace-service/internal/services"
	"github.com/campus-gigs/marketplace-service/internal/utils"
)

type AuthHandler struct {
	BaseHandler
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		authService: authService,
	}
}

// RequestCode issues a one-time verification code
// @Summary Request verification code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.RequestCodeRequest true "Email"
// @Success 200 {object} services.CodeResponse
// @Failure 400 {object} ErrorResponse
// @Router /auth/code [post]
func (h *AuthHandler) RequestCode(c *gin.Context) {
	var req services.RequestCodeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.RequestCode(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Register creates an account from a verified email
// @Summary Register
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.RegisterRequest true "Registration data"
// @Success 201 {object} services.AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse "Invalid code"
// @Failure 409 {object} ErrorResponse "Email or student id taken"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Registering user", "role", req.Role)

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login exchanges a verification code for a session token
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.LoginRequest true "Email and code"
// @Success 200 {object} services.AuthResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
