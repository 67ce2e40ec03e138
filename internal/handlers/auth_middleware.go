package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campus-gigs/marketplace-service/internal/auth"
	"github.com/campus-gigs/marketplace-service/internal/models"
	"github.com/campus-gigs/marketplace-service/internal/repositories"
	"github.com/campus-gigs/marketplace-service/internal/utils"
)

// AuthMiddleware authenticates bearer tokens. Verifiers are tried in order;
// the first that accepts the token wins.
type AuthMiddleware struct {
	verifiers []auth.TokenVerifier
	userRepo  repositories.UserRepository
	logger    utils.Logger
}

func NewAuthMiddleware(userRepo repositories.UserRepository, logger utils.Logger, verifiers ...auth.TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifiers: verifiers,
		userRepo:  userRepo,
		logger:    logger,
	}
}

// AuthMiddleware returns a Gin middleware function for authentication
func (am *AuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "authorization header missing or malformed",
			})
			return
		}

		identity, err := am.verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "invalid token",
			})
			return
		}

		user, err := am.resolveUser(c.Request.Context(), identity)
		if err != nil {
			if !repositories.IsNotFoundError(err) {
				utils.FromGin(c, am.logger).Error("Failed to load authenticated user", "error", err)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "account not found",
			})
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Set("user_role", user.Role)
		c.Set("user_email", user.Email)

		c.Next()
	}
}

// RequireRoleMiddleware checks if user has required role
func (am *AuthMiddleware) RequireRoleMiddleware(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := GetUserRoleFromContext(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: err.Error(),
			})
			return
		}

		for _, requiredRole := range requiredRoles {
			if role == requiredRole {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Message: fmt.Sprintf("insufficient permissions, required role: %v", requiredRoles),
		})
	}
}

func (am *AuthMiddleware) verify(ctx context.Context, token string) (*auth.Identity, error) {
	err := auth.ErrInvalidToken
	for _, v := range am.verifiers {
		identity, verr := v.Verify(ctx, token)
		if verr == nil {
			return identity, nil
		}
		err = errors.Join(err, verr)
	}
	return nil, err
}

// resolveUser loads the marketplace account named by the identity. Tokens
// from an external provider only carry the email.
func (am *AuthMiddleware) resolveUser(ctx context.Context, identity *auth.Identity) (*models.User, error) {
	if identity.UserID != "" {
		return am.userRepo.GetByID(ctx, identity.UserID)
	}
	if identity.Email != "" {
		return am.userRepo.GetByEmail(ctx, identity.Email)
	}
	return nil, repositories.ErrNotFound
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// GetUserFromContext extracts user from Gin context
func GetUserFromContext(c *gin.Context) (*models.User, error) {
	user, exists := c.Get("user")
	if !exists {
		return nil, fmt.Errorf("user not found in context")
	}

	userModel, ok := user.(*models.User)
	if !ok {
		return nil, fmt.Errorf("invalid user type in context")
	}

	return userModel, nil
}

// GetUserRoleFromContext extracts user role from Gin context
func GetUserRoleFromContext(c *gin.Context) (models.UserRole, error) {
	userRole, exists := c.Get("user_role")
	if !exists {
		return "", fmt.Errorf("user role not found in context")
	}

	role, ok := userRole.(models.UserRole)
	if !ok {
		return "", fmt.Errorf("invalid user role type in context")
	}

	return role, nil
}
