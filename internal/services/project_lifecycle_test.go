package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/campus-gigs/marketplace-service/internal/models"
)

func TestLifecycleNotifier_OnStatusChange(t *testing.T) {
	type want struct {
		owner      map[models.NotificationType]int
		freelancer map[models.NotificationType]int
	}

	tests := []struct {
		name          string
		from, to      models.ProjectStatus
		hasFreelancer bool
		want          want
	}{
		{
			name: "work starts",
			from: models.ProjectOpen, to: models.ProjectInProgress,
			hasFreelancer: true,
			want: want{
				owner:      map[models.NotificationType]int{models.NotificationProjectStatusChange: 1, models.NotificationProjectAccepted: 1},
				freelancer: map[models.NotificationType]int{models.NotificationProjectStatusChange: 1, models.NotificationProjectAccepted: 1},
			},
		},
		{
			name: "submitted for review",
			from: models.ProjectInProgress, to: models.ProjectAwaiting,
			hasFreelancer: true,
			want: want{
				owner:      map[models.NotificationType]int{models.NotificationProjectStatusChange: 1},
				freelancer: map[models.NotificationType]int{models.NotificationProjectStatusChange: 1},
			},
		},
		{
			name: "completed with freelancer",
			from: models.ProjectAwaiting, to: models.ProjectCompleted,
			hasFreelancer: true,
			want: want{
				owner:      map[models.NotificationType]int{models.NotificationProjectStatusChange: 1, models.NotificationProjectCompleted: 1},
				freelancer: map[models.NotificationType]int{models.NotificationProjectStatusChange: 1, models.NotificationProjectCompleted: 1},
			},
		},
		{
			name: "completed without freelancer still tells owner",
			from: models.ProjectInProgress, to: models.ProjectCompleted,
			want: want{
				owner: map[models.NotificationType]int{models.NotificationProjectStatusChange: 1, models.NotificationProjectCompleted: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			owner := seedUser(t, env.repo, models.RoleAlumni, "Olivia")
			freelancer := seedUser(t, env.repo, models.RoleStudent, "Sam")

			change := StatusChange{
				ProjectID: uuid.NewString(),
				Title:     "Logo design",
				OldStatus: tt.from,
				NewStatus: tt.to,
				OwnerID:   owner.ID,
			}
			if tt.hasFreelancer {
				change.FreelancerID = freelancer.ID
			}

			env.lifecycle.OnStatusChange(context.Background(), change)

			assertFeed(t, "owner", feed(t, env.repo, owner.ID), tt.want.owner)
			assertFeed(t, "freelancer", feed(t, env.repo, freelancer.ID), tt.want.freelancer)
		})
	}
}

func assertFeed(t *testing.T, who string, got []*models.Notification, want map[models.NotificationType]int) {
	t.Helper()

	total := 0
	for notificationType, n := range want {
		total += n
		if c := countType(got, notificationType); c != n {
			t.Errorf("%s %s notifications = %d, want %d", who, notificationType, c, n)
		}
	}
	if len(got) != total {
		t.Errorf("%s notifications = %d, want %d", who, len(got), total)
	}
}

func TestLifecycleNotifier_CompletedWithoutFreelancerOmitsName(t *testing.T) {
	env := newTestEnv(t)
	owner := seedUser(t, env.repo, models.RoleTeacher, "Olivia")

	env.lifecycle.OnStatusChange(context.Background(), StatusChange{
		ProjectID: uuid.NewString(),
		Title:     "Poster",
		OldStatus: models.ProjectRevision,
		NewStatus: models.ProjectCompleted,
		OwnerID:   owner.ID,
	})

	for _, n := range feed(t, env.repo, owner.ID) {
		if n.Type != models.NotificationProjectCompleted {
			continue
		}
		if n.SenderID != nil {
			t.Errorf("SenderID = %v, want nil", *n.SenderID)
		}
		if n.Message != `Project "Poster" has been completed.` {
			t.Errorf("Message = %q", n.Message)
		}
	}
}

func TestLifecycleNotifier_BranchesAreIsolated(t *testing.T) {
	env := newTestEnv(t)
	owner := seedUser(t, env.repo, models.RoleTeacher, "Olivia")
	missingFreelancer := uuid.NewString()

	env.lifecycle.OnStatusChange(context.Background(), StatusChange{
		ProjectID:    uuid.NewString(),
		Title:        "Website",
		OldStatus:    models.ProjectOpen,
		NewStatus:    models.ProjectInProgress,
		OwnerID:      owner.ID,
		FreelancerID: missingFreelancer,
	})

	// The owner-facing accepted branch cannot resolve the freelancer name;
	// every other branch still delivers.
	assertFeed(t, "owner", feed(t, env.repo, owner.ID), map[models.NotificationType]int{
		models.NotificationProjectStatusChange: 1,
	})
	assertFeed(t, "freelancer", feed(t, env.repo, missingFreelancer), map[models.NotificationType]int{
		models.NotificationProjectStatusChange: 1,
		models.NotificationProjectAccepted:     1,
	})
}

func TestLifecycleNotifier_DispatchFailureDoesNotPanic(t *testing.T) {
	logger := testLogger()
	env := newTestEnv(t)
	owner := seedUser(t, env.repo, models.RoleTeacher, "Olivia")
	freelancer := seedUser(t, env.repo, models.RoleStudent, "Sam")

	broken := failingNotificationRepo{env.repo}
	notifications := NewNotificationService(broken, env.publisher, logger, env.validator)
	lifecycle := NewLifecycleNotifier(broken, notifications, logger)

	lifecycle.OnStatusChange(context.Background(), StatusChange{
		ProjectID:    uuid.NewString(),
		Title:        "Website",
		OldStatus:    models.ProjectOpen,
		NewStatus:    models.ProjectInProgress,
		OwnerID:      owner.ID,
		FreelancerID: freelancer.ID,
	})

	if got := len(env.publisher.GetPublishedEvents()); got != 0 {
		t.Errorf("published events = %d, want 0", got)
	}
}

func TestLifecycleNotifier_OnFreelancerRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := seedUser(t, env.repo, models.RoleAlumni, "Olivia")
	freelancer := seedUser(t, env.repo, models.RoleStudent, "Sam")
	projectID := uuid.NewString()

	if err := env.lifecycle.OnFreelancerRequest(ctx, projectID, "App", owner.ID, freelancer.ID); err != nil {
		t.Fatalf("OnFreelancerRequest() error = %v", err)
	}
	got := feed(t, env.repo, owner.ID)
	if len(got) != 1 || got[0].Type != models.NotificationProjectRequest {
		t.Fatalf("owner feed = %+v, want one project_request", got)
	}
	if got[0].SenderID == nil || *got[0].SenderID != freelancer.ID {
		t.Errorf("SenderID = %v, want %s", got[0].SenderID, freelancer.ID)
	}

	err := env.lifecycle.OnFreelancerRequest(ctx, projectID, "App", owner.ID, uuid.NewString())
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("OnFreelancerRequest() with missing freelancer error = %v, want ErrUserNotFound", err)
	}
	if n := len(feed(t, env.repo, owner.ID)); n != 1 {
		t.Errorf("owner feed = %d, want 1", n)
	}
}

func TestLifecycleNotifier_OnProjectInvitation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := seedUser(t, env.repo, models.RoleTeacher, "Olivia")
	freelancer := seedUser(t, env.repo, models.RoleStudent, "Sam")
	projectID := uuid.NewString()

	if err := env.lifecycle.OnProjectInvitation(ctx, projectID, "App", owner.ID, freelancer.ID); err != nil {
		t.Fatalf("OnProjectInvitation() error = %v", err)
	}
	if got := countType(feed(t, env.repo, freelancer.ID), models.NotificationProjectInvitation); got != 1 {
		t.Errorf("project_invitation = %d, want 1", got)
	}

	err := env.lifecycle.OnProjectInvitation(ctx, projectID, "App", uuid.NewString(), freelancer.ID)
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("OnProjectInvitation() with missing owner error = %v, want ErrUserNotFound", err)
	}
}
