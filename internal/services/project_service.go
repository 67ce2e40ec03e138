package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/campus-gigs/marketplace-service/internal/models"
	"github.com/campus-gigs/marketplace-service/internal/repositories"
	"github.com/campus-gigs/marketplace-service/internal/validator"
	"gorm.io/datatypes"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type projectService struct {
	repo      repositories.Repository
	lifecycle LifecycleNotifier
	logger    *slog.Logger
	validator *validator.BusinessValidator
}

func NewProjectService(repo repositories.Repository, lifecycle LifecycleNotifier, logger *slog.Logger, validator *validator.BusinessValidator) ProjectService {
	return &projectService{
		repo:      repo,
		lifecycle: lifecycle,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *projectService) Create(ctx context.Context, req *CreateProjectRequest, ownerID string) (*ProjectResponse, error) {
	s.logger.Info("Creating project", "owner_id", ownerID, "title", req.Title)

	owner, err := s.getUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !owner.Role.CanOwnProjects() {
		return nil, NewPermissionError(ownerID, "", "project", "create", "only teachers and alumni can post projects")
	}

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	project := &models.Project{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Budget:      req.Budget,
		Deadline:    req.Deadline.UTC(),
		Skills:      datatypes.JSONSlice[string](normalizeSkills(req.Skills)),
		OwnerID:     owner.ID,
		OwnerName:   owner.Name,
		Status:      models.ProjectOpen,
	}

	if err := s.repo.Project().Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.logger.Info("Project created successfully", "project_id", project.ID)

	return s.buildProjectResponse(project, ownerID), nil
}

func (s *projectService) GetByID(ctx context.Context, id, userID string) (*ProjectResponse, error) {
	project, err := s.getProject(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.buildProjectResponse(project, userID), nil
}

func (s *projectService) List(ctx context.Context, filters repositories.ProjectFilters, userID string) (*ProjectListResponse, error) {
	if filters.Limit <= 0 || filters.Limit > maxPageSize {
		filters.Limit = defaultPageSize
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	projects, total, err := s.repo.Project().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	responses := make([]*ProjectResponse, 0, len(projects))
	for _, p := range projects {
		responses = append(responses, s.buildProjectResponse(p, userID))
	}

	return &ProjectListResponse{
		Projects: responses,
		Total:    total,
		Page:     pageOf(filters.Limit, filters.Offset),
		Size:     filters.Limit,
	}, nil
}

func (s *projectService) Update(ctx context.Context, id string, req *UpdateProjectRequest, userID string) (*ProjectResponse, error) {
	s.logger.Info("Updating project", "project_id", id, "user_id", userID)

	project, err := s.getProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if !project.IsOwner(userID) {
		return nil, NewPermissionError(userID, id, "project", "update", "not project owner")
	}
	if errs := s.validator.ValidateProjectEditable(project); len(errs) > 0 {
		return nil, errs
	}
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	if req.Title != nil {
		project.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		project.Description = strings.TrimSpace(*req.Description)
	}
	if req.Budget != nil {
		project.Budget = *req.Budget
	}
	if req.Deadline != nil {
		project.Deadline = req.Deadline.UTC()
	}
	if req.Skills != nil {
		project.Skills = datatypes.JSONSlice[string](normalizeSkills(req.Skills))
	}

	if err := s.repo.Project().Update(ctx, project); err != nil {
		if repositories.IsConflictError(err) {
			return nil, statusChanged(project)
		}
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return s.buildProjectResponse(project, userID), nil
}

func (s *projectService) Delete(ctx context.Context, id, userID string) error {
	s.logger.Info("Deleting project", "project_id", id, "user_id", userID)

	project, err := s.getProject(ctx, id)
	if err != nil {
		return err
	}
	if !project.IsOwner(userID) {
		return NewPermissionError(userID, id, "project", "delete", "not project owner")
	}
	if errs := s.validator.ValidateProjectEditable(project); len(errs) > 0 {
		return errs
	}

	if err := s.repo.Project().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to delete project: %w", err)
	}

	s.logger.Info("Project deleted successfully", "project_id", id)
	return nil
}

// ===== LIFECYCLE =====

// ChangeStatus moves a project along the status graph. The owner drives
// every edge except submission for review, which the assignee performs.
func (s *projectService) ChangeStatus(ctx context.Context, id string, status models.ProjectStatus, userID string) (*ProjectResponse, error) {
	project, err := s.getProject(ctx, id)
	if err != nil {
		return nil, err
	}

	isOwner := project.IsOwner(userID)
	if !isOwner && !project.IsAssignee(userID) {
		return nil, NewPermissionError(userID, id, "project", "change_status", "not project owner or assignee")
	}
	if errs := s.validator.ValidateStatusTransition(project, status, isOwner); len(errs) > 0 {
		return nil, errs
	}

	oldStatus := project.Status
	var progress *int
	if status == models.ProjectCompleted {
		done := 100
		progress = &done
	}

	if err := s.repo.Project().UpdateStatus(ctx, id, oldStatus, status, progress); err != nil {
		if repositories.IsConflictError(err) {
			return nil, statusChanged(project)
		}
		return nil, fmt.Errorf("failed to update project status: %w", err)
	}
	project.Status = status
	if progress != nil {
		project.Progress = progress
	}

	s.logger.Info("Project status updated",
		"project_id", id,
		"old_status", oldStatus,
		"new_status", status,
		"user_id", userID)

	s.lifecycle.OnStatusChange(ctx, StatusChange{
		ProjectID:    project.ID,
		Title:        project.Title,
		OldStatus:    oldStatus,
		NewStatus:    status,
		OwnerID:      project.OwnerID,
		FreelancerID: project.AssigneeID(),
	})

	if status == models.ProjectRevision {
		if err := s.lifecycle.OnRevisionRequested(ctx, project); err != nil {
			s.logger.Warn("Failed to send revision notification", "project_id", id, "error", err)
		}
	}

	return s.buildProjectResponse(project, userID), nil
}

func (s *projectService) UpdateProgress(ctx context.Context, id string, progress int, userID string) (*ProjectResponse, error) {
	project, err := s.getProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if !project.IsAssignee(userID) {
		return nil, NewPermissionError(userID, id, "project", "update_progress", "not the assigned freelancer")
	}
	if progress < 0 || progress > 100 {
		return nil, validator.NewValidationError("progress", "must be between 0 and 100", progress)
	}
	if project.Status != models.ProjectInProgress && project.Status != models.ProjectRevision {
		return nil, NewBusinessRuleError("progress_status",
			"progress can only be reported while work is in progress",
			map[string]interface{}{"status": project.Status})
	}

	if err := s.repo.Project().UpdateProgress(ctx, id, userID, progress); err != nil {
		if repositories.IsConflictError(err) {
			return nil, statusChanged(project)
		}
		return nil, fmt.Errorf("failed to update project progress: %w", err)
	}
	project.Progress = &progress

	if err := s.lifecycle.OnProgressUpdate(ctx, project, progress); err != nil {
		s.logger.Warn("Failed to send progress notification", "project_id", id, "error", err)
	}

	return s.buildProjectResponse(project, userID), nil
}

// ===== HELPERS =====

func (s *projectService) getProject(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.repo.Project().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

func (s *projectService) getUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// statusChanged reports that a conditional update lost a race with
// another change to the same project.
func statusChanged(project *models.Project) error {
	return NewBusinessRuleError("project_changed", "project was changed by another request, reload and retry",
		map[string]interface{}{"project_id": project.ID, "status": project.Status})
}

func (s *projectService) buildProjectResponse(project *models.Project, userID string) *ProjectResponse {
	isOwner := project.IsOwner(userID)
	open := project.Status == models.ProjectOpen
	return &ProjectResponse{
		Project:   project,
		CanEdit:   isOwner && open,
		CanDelete: isOwner && open,
		CanApply:  !isOwner && open && project.AssignedTo == nil && !project.HasRequest(userID),
	}
}

// normalizeSkills trims entries and drops blanks and duplicates.
func normalizeSkills(skills []string) []string {
	seen := make(map[string]bool, len(skills))
	out := make([]string, 0, len(skills))
	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		if skill == "" || seen[strings.ToLower(skill)] {
			continue
		}
		seen[strings.ToLower(skill)] = true
		out = append(out, skill)
	}
	return out
}
