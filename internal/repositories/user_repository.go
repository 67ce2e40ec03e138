package repositories

import (
	"context"

	"github.com/campus-gigs/marketplace-service/internal/models"
)

// UserRepository is the credential store.
type UserRepository interface {
	// Create persists the user and, for students, the student profile.
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	MarkEmailVerified(ctx context.Context, id string) error

	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)

	ListFreelancers(ctx context.Context, filters FreelancerFilters) ([]*models.User, int64, error)

	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByStudentID(ctx context.Context, studentID string) (bool, error)
}
