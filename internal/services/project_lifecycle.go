package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campus-gigs/marketplace-service/internal/metrics"
	"github.com/campus-gigs/marketplace-service/internal/models"
	"github.com/campus-gigs/marketplace-service/internal/repositories"
)

type lifecycleNotifier struct {
	repo          repositories.Repository
	notifications NotificationService
	logger        *slog.Logger
}

func NewLifecycleNotifier(repo repositories.Repository, notifications NotificationService, logger *slog.Logger) LifecycleNotifier {
	return &lifecycleNotifier{
		repo:          repo,
		notifications: notifications,
		logger:        logger,
	}
}

// OnStatusChange always tells the owner, and the freelancer when one is
// assigned, about the transition. Starting work and completion send an
// extra notification to each party. Every branch runs on its own; a failed
// branch is logged and counted and the rest still run.
func (n *lifecycleNotifier) OnStatusChange(ctx context.Context, change StatusChange) {
	n.logger.Info("Project status changed",
		"project_id", change.ProjectID,
		"old_status", change.OldStatus,
		"new_status", change.NewStatus)

	statusMessage := fmt.Sprintf("Project %q moved from %s to %s.", change.Title, change.OldStatus.Label(), change.NewStatus.Label())

	n.branch("status_change_owner", change.ProjectID, func() error {
		return n.send(ctx, change.OwnerID, nil, models.NotificationProjectStatusChange, "Project status updated", statusMessage, change.ProjectID)
	})
	if change.FreelancerID != "" {
		n.branch("status_change_freelancer", change.ProjectID, func() error {
			return n.send(ctx, change.FreelancerID, nil, models.NotificationProjectStatusChange, "Project status updated", statusMessage, change.ProjectID)
		})
	}

	if change.OldStatus == models.ProjectOpen && change.NewStatus == models.ProjectInProgress && change.FreelancerID != "" {
		n.branch("accepted_freelancer", change.ProjectID, func() error {
			ownerName, err := n.userName(ctx, change.OwnerID)
			if err != nil {
				return err
			}
			return n.send(ctx, change.FreelancerID, &change.OwnerID, models.NotificationProjectAccepted,
				"You received a project",
				fmt.Sprintf("%s assigned you to %q. Work can start now.", ownerName, change.Title),
				change.ProjectID)
		})
		n.branch("accepted_owner", change.ProjectID, func() error {
			freelancerName, err := n.userName(ctx, change.FreelancerID)
			if err != nil {
				return err
			}
			return n.send(ctx, change.OwnerID, &change.FreelancerID, models.NotificationProjectAccepted,
				"A freelancer accepted your project",
				fmt.Sprintf("%s is now working on %q.", freelancerName, change.Title),
				change.ProjectID)
		})
	}

	if change.OldStatus != models.ProjectCompleted && change.NewStatus == models.ProjectCompleted {
		if change.FreelancerID != "" {
			n.branch("completed_freelancer", change.ProjectID, func() error {
				ownerName, err := n.userName(ctx, change.OwnerID)
				if err != nil {
					return err
				}
				return n.send(ctx, change.FreelancerID, &change.OwnerID, models.NotificationProjectCompleted,
					"Project completed",
					fmt.Sprintf("%s marked %q as completed.", ownerName, change.Title),
					change.ProjectID)
			})
		}
		// Sent even without an assigned freelancer; the name is then left out.
		n.branch("completed_owner", change.ProjectID, func() error {
			message := fmt.Sprintf("Project %q has been completed.", change.Title)
			var sender *string
			if change.FreelancerID != "" {
				freelancerName, err := n.userName(ctx, change.FreelancerID)
				if err != nil {
					return err
				}
				message = fmt.Sprintf("Project %q has been completed by %s.", change.Title, freelancerName)
				sender = &change.FreelancerID
			}
			return n.send(ctx, change.OwnerID, sender, models.NotificationProjectCompleted, "Project completed", message, change.ProjectID)
		})
	}
}

// OnFreelancerRequest tells the owner that a freelancer wants to join. The
// freelancer must exist; without a name the notification is not sent.
func (n *lifecycleNotifier) OnFreelancerRequest(ctx context.Context, projectID, title, ownerID, freelancerID string) error {
	freelancerName, err := n.userName(ctx, freelancerID)
	if err != nil {
		return fmt.Errorf("failed to resolve freelancer: %w", err)
	}

	return n.send(ctx, ownerID, &freelancerID, models.NotificationProjectRequest,
		"New project request",
		fmt.Sprintf("%s wants to work on %q.", freelancerName, title),
		projectID)
}

// OnProjectInvitation tells the freelancer about an invitation. The owner
// must exist.
func (n *lifecycleNotifier) OnProjectInvitation(ctx context.Context, projectID, title, ownerID, freelancerID string) error {
	ownerName, err := n.userName(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("failed to resolve owner: %w", err)
	}

	return n.send(ctx, freelancerID, &ownerID, models.NotificationProjectInvitation,
		"You are invited to a project",
		fmt.Sprintf("%s invited you to work on %q.", ownerName, title),
		projectID)
}

func (n *lifecycleNotifier) OnProgressUpdate(ctx context.Context, project *models.Project, progress int) error {
	freelancerName := "The freelancer"
	if project.AssignedToName != nil && *project.AssignedToName != "" {
		freelancerName = *project.AssignedToName
	}
	return n.send(ctx, project.OwnerID, project.AssignedTo, models.NotificationProjectProgressUpdate,
		"Project progress updated",
		fmt.Sprintf("%s updated %q to %d%% complete.", freelancerName, project.Title, progress),
		project.ID)
}

func (n *lifecycleNotifier) OnRevisionRequested(ctx context.Context, project *models.Project) error {
	if project.AssignedTo == nil {
		return nil
	}

	return n.send(ctx, *project.AssignedTo, &project.OwnerID, models.NotificationProjectRevision,
		"Revision requested",
		fmt.Sprintf("%s requested changes to %q.", project.OwnerName, project.Title),
		project.ID)
}

// OnRequestRejected tells recipientID that senderID turned down an
// application or invitation.
func (n *lifecycleNotifier) OnRequestRejected(ctx context.Context, projectID, title, senderID, recipientID string) error {
	senderName, err := n.userName(ctx, senderID)
	if err != nil {
		return fmt.Errorf("failed to resolve sender: %w", err)
	}

	return n.send(ctx, recipientID, &senderID, models.NotificationProjectRejected,
		"Request declined",
		fmt.Sprintf("%s declined the request for %q.", senderName, title),
		projectID)
}

// ===== HELPERS =====

func (n *lifecycleNotifier) branch(name, projectID string, fn func() error) {
	if err := fn(); err != nil {
		metrics.LifecycleFailures.WithLabelValues(name).Inc()
		n.logger.Error("Lifecycle notification failed",
			"branch", name,
			"project_id", projectID,
			"error", err)
	}
}

func (n *lifecycleNotifier) send(ctx context.Context, recipientID string, senderID *string, notificationType models.NotificationType, title, message, projectID string) error {
	link := "/projects/" + projectID
	_, err := n.notifications.Notify(ctx, &NotifyRequest{
		RecipientID: recipientID,
		SenderID:    senderID,
		Type:        notificationType,
		Title:       title,
		Message:     message,
		ProjectID:   &projectID,
		Link:        &link,
	})
	return err
}

func (n *lifecycleNotifier) userName(ctx context.Context, userID string) (string, error) {
	user, err := n.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return "", fmt.Errorf("%w: %s", ErrUserNotFound, userID)
		}
		return "", fmt.Errorf("failed to get user %s: %w", userID, err)
	}
	return user.Name, nil
}
