package postgres

import (
	"context"
	"fmt"

	"github.com/campus-gigs/marketplace-service/internal/models"
	"github.com/campus-gigs/marketplace-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type projectRepository struct {
	db *gorm.DB
}

func NewProjectPostgreSQL(db *gorm.DB) repositories.ProjectRepository {
	return &projectRepository{db: db}
}

var projectSortColumns = map[string]string{
	"created_at": "created_at",
	"deadline":   "deadline",
	"budget":     "budget",
	"title":      "title",
}

// ===== BASIC CRUD OPERATIONS =====

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	ensureID(&project.ID)
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		return handleDBError(err, "create project")
	}
	return nil
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		return nil, handleDBError(err, "get project by id")
	}
	return &project, nil
}

// Update writes the editable columns of an open project. Lifecycle columns
// are left to the conditional updates below.
func (r *projectRepository) Update(ctx context.Context, project *models.Project) error {
	result := r.db.WithContext(ctx).
		Model(project).
		Where("status = ?", models.ProjectOpen).
		Select("title", "description", "budget", "deadline", "skills").
		Updates(project)
	return requireAffected(result, "update project")
}

func (r *projectRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Project{}, "id = ?", id)
	if result.Error != nil {
		return handleDBError(result.Error, "delete project")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete project: %w", repositories.ErrNotFound)
	}
	return nil
}

// ===== QUERY OPERATIONS =====

func (r *projectRepository) List(ctx context.Context, filters repositories.ProjectFilters) ([]*models.Project, int64, error) {
	var projects []*models.Project
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Project{})

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.OwnerID != nil {
		query = query.Where("owner_id = ?", *filters.OwnerID)
	}
	if filters.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filters.AssignedTo)
	}
	if filters.Skill != nil {
		query = query.Where("skills @> ?", jsonContains(*filters.Skill))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count projects")
	}

	query = applyPaginationAndSorting(query, filters.Limit, filters.Offset, filters.SortBy, filters.SortOrder, projectSortColumns)
	if err := query.Find(&projects).Error; err != nil {
		return nil, 0, handleDBError(err, "list projects")
	}

	return projects, total, nil
}

// AddRequest appends the freelancer under a row lock so concurrent
// requests do not overwrite each other's entries.
func (r *projectRepository) AddRequest(ctx context.Context, projectID, freelancerID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&project, "id = ?", projectID).Error; err != nil {
			return err
		}
		if project.HasRequest(freelancerID) {
			return nil
		}
		project.RequestedBy = append(project.RequestedBy, freelancerID)
		return tx.Model(&project).Update("requested_by", project.RequestedBy).Error
	})
	if err != nil {
		return handleDBError(err, "add project request")
	}
	return nil
}

// ===== LIFECYCLE OPERATIONS =====

func (r *projectRepository) Assign(ctx context.Context, projectID, freelancerID, freelancerName string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ? AND status = ? AND assigned_to IS NULL", projectID, models.ProjectOpen).
		Updates(map[string]interface{}{
			"status":             models.ProjectInProgress,
			"assigned_to":        freelancerID,
			"assigned_to_name":   freelancerName,
			"progress":           0,
			"invited_freelancer": nil,
		})
	return requireAffected(result, "assign project")
}

func (r *projectRepository) Invite(ctx context.Context, projectID, freelancerID string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ? AND status = ? AND assigned_to IS NULL", projectID, models.ProjectOpen).
		Update("invited_freelancer", freelancerID)
	return requireAffected(result, "invite to project")
}

func (r *projectRepository) ClearInvitation(ctx context.Context, projectID, freelancerID string) error {
	err := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ? AND invited_freelancer = ?", projectID, freelancerID).
		Update("invited_freelancer", nil).Error
	return handleDBError(err, "clear project invitation")
}

func (r *projectRepository) UpdateStatus(ctx context.Context, projectID string, from, to models.ProjectStatus, progress *int) error {
	updates := map[string]interface{}{"status": to}
	if progress != nil {
		updates["progress"] = *progress
	}
	result := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ? AND status = ?", projectID, from).
		Updates(updates)
	return requireAffected(result, "update project status")
}

func (r *projectRepository) UpdateProgress(ctx context.Context, projectID, freelancerID string, progress int) error {
	result := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ? AND assigned_to = ? AND status IN ?", projectID, freelancerID,
			[]models.ProjectStatus{models.ProjectInProgress, models.ProjectRevision}).
		Update("progress", progress)
	return requireAffected(result, "update project progress")
}
