package postgres

import (
	"context"
	"time"

	"github.com/campus-gigs/marketplace-service/internal/models"
	"github.com/campus-gigs/marketplace-service/internal/repositories"
	"gorm.io/gorm"
)

func applyRequestFilters(query *gorm.DB, filters repositories.RequestFilters) *gorm.DB {
	if filters.ProjectID != nil {
		query = query.Where("project_id = ?", *filters.ProjectID)
	}
	if filters.FreelancerID != nil {
		query = query.Where("freelancer_id = ?", *filters.FreelancerID)
	}
	if filters.OwnerID != nil {
		query = query.Where("owner_id = ?", *filters.OwnerID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	return query
}

// ===== APPLICATIONS =====

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationPostgreSQL(db *gorm.DB) repositories.ApplicationRepository {
	return &applicationRepository{db: db}
}

// Create relies on idx_application_project_freelancer for uniqueness
func (r *applicationRepository) Create(ctx context.Context, app *models.Application) error {
	ensureID(&app.ID)
	if err := r.db.WithContext(ctx).Create(app).Error; err != nil {
		return handleDBError(err, "create application")
	}
	return nil
}

func (r *applicationRepository) GetByID(ctx context.Context, id string) (*models.Application, error) {
	var app models.Application
	if err := r.db.WithContext(ctx).First(&app, "id = ?", id).Error; err != nil {
		return nil, handleDBError(err, "get application by id")
	}
	return &app, nil
}

func (r *applicationRepository) GetByProjectAndFreelancer(ctx context.Context, projectID, freelancerID string) (*models.Application, error) {
	var app models.Application
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND freelancer_id = ?", projectID, freelancerID).
		First(&app).Error; err != nil {
		return nil, handleDBError(err, "get application by project and freelancer")
	}
	return &app, nil
}

func (r *applicationRepository) List(ctx context.Context, filters repositories.RequestFilters) ([]*models.Application, int64, error) {
	var apps []*models.Application
	var total int64

	query := applyRequestFilters(r.db.WithContext(ctx).Model(&models.Application{}), filters)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count applications")
	}

	query = applyPagination(query.Order("created_at DESC"), filters.Limit, filters.Offset)
	if err := query.Find(&apps).Error; err != nil {
		return nil, 0, handleDBError(err, "list applications")
	}
	return apps, total, nil
}

func (r *applicationRepository) UpdateStatus(ctx context.Context, id string, status models.RequestStatus, respondedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("id = ? AND status = ?", id, models.RequestPending).
		Updates(map[string]interface{}{
			"status":       status,
			"responded_at": respondedAt,
		})
	return requireAffected(result, "update application status")
}

func (r *applicationRepository) RejectPending(ctx context.Context, projectID, keepID string, respondedAt time.Time) ([]*models.Application, error) {
	var rejected []*models.Application
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ? AND id <> ? AND status = ?", projectID, keepID, models.RequestPending).
			Find(&rejected).Error; err != nil {
			return err
		}
		if len(rejected) == 0 {
			return nil
		}

		ids := make([]string, len(rejected))
		for i, app := range rejected {
			ids[i] = app.ID
			app.Status = models.RequestRejected
			app.RespondedAt = &respondedAt
		}
		return tx.Model(&models.Application{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"status":       models.RequestRejected,
				"responded_at": respondedAt,
			}).Error
	})
	if err != nil {
		return nil, handleDBError(err, "reject pending applications")
	}
	return rejected, nil
}

// ===== INVITATIONS =====

type invitationRepository struct {
	db *gorm.DB
}

func NewInvitationPostgreSQL(db *gorm.DB) repositories.InvitationRepository {
	return &invitationRepository{db: db}
}

func (r *invitationRepository) Create(ctx context.Context, inv *models.Invitation) error {
	ensureID(&inv.ID)
	if err := r.db.WithContext(ctx).Create(inv).Error; err != nil {
		return handleDBError(err, "create invitation")
	}
	return nil
}

func (r *invitationRepository) GetByID(ctx context.Context, id string) (*models.Invitation, error) {
	var inv models.Invitation
	if err := r.db.WithContext(ctx).First(&inv, "id = ?", id).Error; err != nil {
		return nil, handleDBError(err, "get invitation by id")
	}
	return &inv, nil
}

func (r *invitationRepository) List(ctx context.Context, filters repositories.RequestFilters) ([]*models.Invitation, int64, error) {
	var invs []*models.Invitation
	var total int64

	query := applyRequestFilters(r.db.WithContext(ctx).Model(&models.Invitation{}), filters)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count invitations")
	}

	query = applyPagination(query.Order("created_at DESC"), filters.Limit, filters.Offset)
	if err := query.Find(&invs).Error; err != nil {
		return nil, 0, handleDBError(err, "list invitations")
	}
	return invs, total, nil
}

func (r *invitationRepository) UpdateStatus(ctx context.Context, id string, status models.RequestStatus, respondedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("id = ? AND status = ?", id, models.RequestPending).
		Updates(map[string]interface{}{
			"status":       status,
			"responded_at": respondedAt,
		})
	return requireAffected(result, "update invitation status")
}
