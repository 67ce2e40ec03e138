package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/campus-gigs/marketplace-service/internal/models"
	"github.com/campus-gigs/marketplace-service/internal/repositories"
	"github.com/campus-gigs/marketplace-service/internal/validator"
)

const (
	warnOwnerNotNotified      = "Your request was sent but the project owner could not be notified."
	warnFreelancerNotNotified = "The invitation was sent but the freelancer could not be notified."
)

type requestService struct {
	repo      repositories.Repository
	lifecycle LifecycleNotifier
	logger    *slog.Logger
	validator *validator.BusinessValidator
}

func NewRequestService(repo repositories.Repository, lifecycle LifecycleNotifier, logger *slog.Logger, validator *validator.BusinessValidator) RequestService {
	return &requestService{
		repo:      repo,
		lifecycle: lifecycle,
		logger:    logger,
		validator: validator,
	}
}

// ===== APPLICATIONS =====

// Apply records a freelancer's request to join an open project. The
// (project, freelancer) unique index rejects a second request. A failed
// owner notification is reported as a warning, not an error.
func (s *requestService) Apply(ctx context.Context, projectID string, req *ApplyRequest, freelancerID string) (*ApplicationResponse, error) {
	s.logger.Info("Creating application", "project_id", projectID, "freelancer_id", freelancerID)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	freelancer, err := s.getUser(ctx, freelancerID)
	if err != nil {
		return nil, err
	}
	if !freelancer.IsStudent() {
		return nil, NewPermissionError(freelancerID, projectID, "project", "apply", "only students can request to join projects")
	}

	project, err := s.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := requireOpen(project); err != nil {
		return nil, err
	}

	app := &models.Application{
		ProjectID:      project.ID,
		ProjectTitle:   project.Title,
		FreelancerID:   freelancer.ID,
		FreelancerName: freelancer.Name,
		OwnerID:        project.OwnerID,
		OwnerName:      project.OwnerName,
		Message:        req.Message,
		Status:         models.RequestPending,
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Application().Create(ctx, app); err != nil {
			if repositories.IsDuplicateError(err) {
				return ErrDuplicateApplication
			}
			return fmt.Errorf("failed to create application: %w", err)
		}
		if err := tx.Project().AddRequest(ctx, project.ID, freelancer.ID); err != nil {
			return fmt.Errorf("failed to record project request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	response := &ApplicationResponse{Application: app}
	if err := s.lifecycle.OnFreelancerRequest(ctx, project.ID, project.Title, project.OwnerID, freelancer.ID); err != nil {
		s.logger.Warn("Failed to notify owner of application",
			"application_id", app.ID,
			"project_id", project.ID,
			"error", err)
		response.Warning = warnOwnerNotNotified
	}

	s.logger.Info("Application created successfully", "application_id", app.ID)
	return response, nil
}

// ListApplications returns applications the caller takes part in: as
// freelancer when filtering by themselves, otherwise as owner.
func (s *requestService) ListApplications(ctx context.Context, filters repositories.RequestFilters, userID string) (*ApplicationListResponse, error) {
	filters = scopeRequestFilters(filters, userID)

	apps, total, err := s.repo.Application().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	return &ApplicationListResponse{
		Applications: apps,
		Total:        total,
		Page:         pageOf(filters.Limit, filters.Offset),
		Size:         filters.Limit,
	}, nil
}

// AcceptApplication assigns the freelancer, starts the project and rejects
// every other pending application for it.
func (s *requestService) AcceptApplication(ctx context.Context, id, ownerID string) (*models.Application, error) {
	s.logger.Info("Accepting application", "application_id", id, "owner_id", ownerID)

	app, err := s.getApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.OwnerID != ownerID {
		return nil, NewPermissionError(ownerID, id, "application", "accept", "not project owner")
	}
	if app.Status != models.RequestPending {
		return nil, ErrRequestAlreadyAnswered
	}

	project, err := s.getProject(ctx, app.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := requireOpen(project); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var rejected []*models.Application
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := s.startWork(ctx, tx, project, app.FreelancerID, app.FreelancerName); err != nil {
			return err
		}
		if err := tx.Application().UpdateStatus(ctx, app.ID, models.RequestAccepted, now); err != nil {
			return answerError(err, "failed to accept application")
		}
		var err error
		rejected, err = tx.Application().RejectPending(ctx, project.ID, app.ID, now)
		if err != nil {
			return fmt.Errorf("failed to reject other applications: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	app.Status = models.RequestAccepted
	app.RespondedAt = &now

	s.afterStart(ctx, project, rejected)
	return app, nil
}

func (s *requestService) RejectApplication(ctx context.Context, id, ownerID string) (*models.Application, error) {
	s.logger.Info("Rejecting application", "application_id", id, "owner_id", ownerID)

	app, err := s.getApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.OwnerID != ownerID {
		return nil, NewPermissionError(ownerID, id, "application", "reject", "not project owner")
	}
	if app.Status != models.RequestPending {
		return nil, ErrRequestAlreadyAnswered
	}

	now := time.Now().UTC()
	if err := s.repo.Application().UpdateStatus(ctx, app.ID, models.RequestRejected, now); err != nil {
		return nil, answerError(err, "failed to reject application")
	}
	app.Status = models.RequestRejected
	app.RespondedAt = &now

	if err := s.lifecycle.OnRequestRejected(ctx, app.ProjectID, app.ProjectTitle, ownerID, app.FreelancerID); err != nil {
		s.logger.Warn("Failed to notify freelancer of rejection", "application_id", id, "error", err)
	}

	return app, nil
}

// ===== INVITATIONS =====

func (s *requestService) Invite(ctx context.Context, projectID string, req *InviteRequest, ownerID string) (*InvitationResponse, error) {
	s.logger.Info("Creating invitation", "project_id", projectID, "owner_id", ownerID, "freelancer_id", req.FreelancerID)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	project, err := s.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.IsOwner(ownerID) {
		return nil, NewPermissionError(ownerID, projectID, "project", "invite", "not project owner")
	}
	if err := requireOpen(project); err != nil {
		return nil, err
	}

	freelancer, err := s.getUser(ctx, req.FreelancerID)
	if err != nil {
		return nil, err
	}
	if !freelancer.IsStudent() {
		return nil, NewBusinessRuleError("invitee_role", "only students can be invited to projects",
			map[string]interface{}{"freelancer_id": freelancer.ID, "role": freelancer.Role})
	}

	inv := &models.Invitation{
		ProjectID:      project.ID,
		ProjectTitle:   project.Title,
		FreelancerID:   freelancer.ID,
		FreelancerName: freelancer.Name,
		OwnerID:        project.OwnerID,
		OwnerName:      project.OwnerName,
		Message:        req.Message,
		Status:         models.RequestPending,
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Invitation().Create(ctx, inv); err != nil {
			if repositories.IsDuplicateError(err) {
				return ErrDuplicateInvitation
			}
			return fmt.Errorf("failed to create invitation: %w", err)
		}
		if err := tx.Project().Invite(ctx, project.ID, freelancer.ID); err != nil {
			if repositories.IsConflictError(err) {
				return projectNotOpen(project)
			}
			return fmt.Errorf("failed to record invitation on project: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	response := &InvitationResponse{Invitation: inv}
	if err := s.lifecycle.OnProjectInvitation(ctx, project.ID, project.Title, project.OwnerID, freelancer.ID); err != nil {
		s.logger.Warn("Failed to notify freelancer of invitation",
			"invitation_id", inv.ID,
			"project_id", project.ID,
			"error", err)
		response.Warning = warnFreelancerNotNotified
	}

	s.logger.Info("Invitation created successfully", "invitation_id", inv.ID)
	return response, nil
}

func (s *requestService) ListInvitations(ctx context.Context, filters repositories.RequestFilters, userID string) (*InvitationListResponse, error) {
	filters = scopeRequestFilters(filters, userID)

	invs, total, err := s.repo.Invitation().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}

	return &InvitationListResponse{
		Invitations: invs,
		Total:       total,
		Page:        pageOf(filters.Limit, filters.Offset),
		Size:        filters.Limit,
	}, nil
}

func (s *requestService) AcceptInvitation(ctx context.Context, id, freelancerID string) (*models.Invitation, error) {
	s.logger.Info("Accepting invitation", "invitation_id", id, "freelancer_id", freelancerID)

	inv, err := s.getInvitation(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.FreelancerID != freelancerID {
		return nil, NewPermissionError(freelancerID, id, "invitation", "accept", "not the invited freelancer")
	}
	if inv.Status != models.RequestPending {
		return nil, ErrRequestAlreadyAnswered
	}

	project, err := s.getProject(ctx, inv.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := requireOpen(project); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var rejected []*models.Application
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := s.startWork(ctx, tx, project, inv.FreelancerID, inv.FreelancerName); err != nil {
			return err
		}
		if err := tx.Invitation().UpdateStatus(ctx, inv.ID, models.RequestAccepted, now); err != nil {
			return answerError(err, "failed to accept invitation")
		}
		var err error
		rejected, err = tx.Application().RejectPending(ctx, project.ID, "", now)
		if err != nil {
			return fmt.Errorf("failed to reject pending applications: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	inv.Status = models.RequestAccepted
	inv.RespondedAt = &now

	s.afterStart(ctx, project, rejected)
	return inv, nil
}

func (s *requestService) DeclineInvitation(ctx context.Context, id, freelancerID string) (*models.Invitation, error) {
	s.logger.Info("Declining invitation", "invitation_id", id, "freelancer_id", freelancerID)

	inv, err := s.getInvitation(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.FreelancerID != freelancerID {
		return nil, NewPermissionError(freelancerID, id, "invitation", "decline", "not the invited freelancer")
	}
	if inv.Status != models.RequestPending {
		return nil, ErrRequestAlreadyAnswered
	}

	now := time.Now().UTC()
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Invitation().UpdateStatus(ctx, inv.ID, models.RequestRejected, now); err != nil {
			return answerError(err, "failed to decline invitation")
		}
		if err := tx.Project().ClearInvitation(ctx, inv.ProjectID, freelancerID); err != nil {
			return fmt.Errorf("failed to clear invitation on project: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	inv.Status = models.RequestRejected
	inv.RespondedAt = &now

	if err := s.lifecycle.OnRequestRejected(ctx, inv.ProjectID, inv.ProjectTitle, freelancerID, inv.OwnerID); err != nil {
		s.logger.Warn("Failed to notify owner of declined invitation", "invitation_id", id, "error", err)
	}

	return inv, nil
}

// ===== HELPERS =====

// startWork assigns the freelancer and moves the project from open to
// in_progress inside tx. The store only applies it while the project is
// still open and unassigned, so of two concurrent accepts one fails here.
func (s *requestService) startWork(ctx context.Context, tx repositories.Repository, project *models.Project, freelancerID, freelancerName string) error {
	if err := tx.Project().Assign(ctx, project.ID, freelancerID, freelancerName); err != nil {
		if repositories.IsConflictError(err) {
			return projectNotOpen(project)
		}
		return fmt.Errorf("failed to assign project: %w", err)
	}

	progress := 0
	project.AssignedTo = &freelancerID
	project.AssignedToName = &freelancerName
	project.Progress = &progress
	project.InvitedFreelancer = nil
	project.Status = models.ProjectInProgress
	return nil
}

// afterStart sends the notifications that follow an assignment.
func (s *requestService) afterStart(ctx context.Context, project *models.Project, rejected []*models.Application) {
	s.logger.Info("Project assigned",
		"project_id", project.ID,
		"freelancer_id", project.AssigneeID(),
		"rejected_applications", len(rejected))

	s.lifecycle.OnStatusChange(ctx, StatusChange{
		ProjectID:    project.ID,
		Title:        project.Title,
		OldStatus:    models.ProjectOpen,
		NewStatus:    models.ProjectInProgress,
		OwnerID:      project.OwnerID,
		FreelancerID: project.AssigneeID(),
	})

	for _, app := range rejected {
		if err := s.lifecycle.OnRequestRejected(ctx, project.ID, project.Title, project.OwnerID, app.FreelancerID); err != nil {
			s.logger.Warn("Failed to notify freelancer of rejection", "application_id", app.ID, "error", err)
		}
	}
}

func requireOpen(project *models.Project) error {
	if project.Status != models.ProjectOpen || project.AssignedTo != nil {
		return projectNotOpen(project)
	}
	return nil
}

func projectNotOpen(project *models.Project) error {
	return NewBusinessRuleError("project_not_open", "project is no longer open for requests",
		map[string]interface{}{"project_id": project.ID, "status": project.Status})
}

// answerError maps a lost race on a pending request to ErrRequestAlreadyAnswered.
func answerError(err error, msg string) error {
	if repositories.IsConflictError(err) {
		return ErrRequestAlreadyAnswered
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func scopeRequestFilters(filters repositories.RequestFilters, userID string) repositories.RequestFilters {
	if filters.FreelancerID == nil || *filters.FreelancerID != userID {
		filters.OwnerID = &userID
	}
	if filters.Limit <= 0 || filters.Limit > maxPageSize {
		filters.Limit = defaultPageSize
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}
	return filters
}

func (s *requestService) getProject(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.repo.Project().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

func (s *requestService) getUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *requestService) getApplication(ctx context.Context, id string) (*models.Application, error) {
	app, err := s.repo.Application().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return app, nil
}

func (s *requestService) getInvitation(ctx context.Context, id string) (*models.Invitation, error) {
	inv, err := s.repo.Invitation().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return inv, nil
}
