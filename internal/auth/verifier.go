// Package auth issues and verifies session tokens.
package auth

import (
	"context"
	"errors"

	"github.com/campus-gigs/marketplace-service/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is what a verified token says about its bearer. Either UserID
// or Email is set; external providers only know the email.
type Identity struct {
	UserID string
	Email  string
	Role   models.UserRole
}

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}
