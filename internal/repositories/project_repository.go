package repositories

import (
	"context"

	"github.com/campus-gigs/marketplace-service/internal/models"
)

// ProjectRepository is the project store. The state-changing methods are
// conditional single-statement updates: they return ErrConflict when the
// row no longer matches the state the caller read.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id string) (*models.Project, error)
	// Update writes the owner-editable fields only.
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id string) error

	List(ctx context.Context, filters ProjectFilters) ([]*models.Project, int64, error)

	// AddRequest appends freelancerID to requested_by if absent.
	AddRequest(ctx context.Context, projectID, freelancerID string) error

	// Assign starts work on an open, unassigned project: it sets the
	// assignee, resets progress and clears any pending invitation.
	Assign(ctx context.Context, projectID, freelancerID, freelancerName string) error
	// Invite records the invited freelancer on an open, unassigned project.
	Invite(ctx context.Context, projectID, freelancerID string) error
	// ClearInvitation drops the invitation if it still names freelancerID.
	ClearInvitation(ctx context.Context, projectID, freelancerID string) error
	// UpdateStatus moves the project from one status to another. A non-nil
	// progress is written in the same statement.
	UpdateStatus(ctx context.Context, projectID string, from, to models.ProjectStatus, progress *int) error
	// UpdateProgress records progress while the assignee is working on it.
	UpdateProgress(ctx context.Context, projectID, freelancerID string, progress int) error
}
