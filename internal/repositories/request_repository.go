package repositories

import (
	"context"
	"time"

	"github.com/campus-gigs/marketplace-service/internal/models"
)

// ApplicationRepository stores freelancer join requests. Create returns
// ErrDuplicate for a second (project, freelancer) pair. UpdateStatus only
// answers pending requests and returns ErrConflict otherwise.
type ApplicationRepository interface {
	Create(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id string) (*models.Application, error)
	GetByProjectAndFreelancer(ctx context.Context, projectID, freelancerID string) (*models.Application, error)
	List(ctx context.Context, filters RequestFilters) ([]*models.Application, int64, error)
	UpdateStatus(ctx context.Context, id string, status models.RequestStatus, respondedAt time.Time) error
	// RejectPending rejects every pending application of a project except keepID.
	RejectPending(ctx context.Context, projectID, keepID string, respondedAt time.Time) ([]*models.Application, error)
}

// InvitationRepository stores owner invitations with the same uniqueness.
type InvitationRepository interface {
	Create(ctx context.Context, inv *models.Invitation) error
	GetByID(ctx context.Context, id string) (*models.Invitation, error)
	List(ctx context.Context, filters RequestFilters) ([]*models.Invitation, int64, error)
	UpdateStatus(ctx context.Context, id string, status models.RequestStatus, respondedAt time.Time) error
}
