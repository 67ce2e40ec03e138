package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/campus-gigs/marketplace-service/internal/events"
	"github.com/campus-gigs/marketplace-service/internal/models"
	"github.com/campus-gigs/marketplace-service/internal/repositories"
	"github.com/campus-gigs/marketplace-service/internal/repositories/memory"
	"github.com/campus-gigs/marketplace-service/internal/validator"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	repo          *memory.Repository
	publisher     *events.MockEventPublisher
	validator     *validator.BusinessValidator
	notifications NotificationService
	lifecycle     LifecycleNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := testLogger()
	repo := memory.New()
	publisher := events.NewMockEventPublisher(logger)
	v := validator.NewBusinessValidator()
	notifications := NewNotificationService(repo, publisher, logger, v)

	return &testEnv{
		repo:          repo,
		publisher:     publisher,
		validator:     v,
		notifications: notifications,
		lifecycle:     NewLifecycleNotifier(repo, notifications, logger),
	}
}

func (e *testEnv) projects() ProjectService {
	return NewProjectService(e.repo, e.lifecycle, testLogger(), e.validator)
}

func (e *testEnv) requests() RequestService {
	return NewRequestService(e.repo, e.lifecycle, testLogger(), e.validator)
}

func seedUser(t *testing.T, repo repositories.Repository, role models.UserRole, name string) *models.User {
	t.Helper()

	user := &models.User{
		Email: name + "-" + uuid.NewString()[:8] + "@campus.test",
		Role:  role,
		Name:  name,
	}
	if role == models.RoleStudent {
		user.Student = &models.StudentProfile{
			StudentID:   "S-" + uuid.NewString()[:8],
			Skills:      datatypes.JSONSlice[string]{"go"},
			Price:       150,
			OpenForWork: true,
		}
	}
	if err := repo.User().Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedProject(t *testing.T, repo repositories.Repository, owner *models.User) *models.Project {
	t.Helper()

	project := &models.Project{
		Title:       "Landing page",
		Description: "Build a landing page for the club",
		Budget:      500,
		Deadline:    time.Now().Add(14 * 24 * time.Hour),
		Skills:      datatypes.JSONSlice[string]{"html", "css"},
		OwnerID:     owner.ID,
		OwnerName:   owner.Name,
		Status:      models.ProjectOpen,
	}
	if err := repo.Project().Create(context.Background(), project); err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return project
}

// feed returns every notification of recipientID, newest first.
func feed(t *testing.T, repo repositories.Repository, recipientID string) []*models.Notification {
	t.Helper()

	list, _, err := repo.Notification().ListByRecipient(context.Background(), recipientID, repositories.NotificationFilters{})
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	return list
}

func countType(list []*models.Notification, notificationType models.NotificationType) int {
	n := 0
	for _, item := range list {
		if item.Type == notificationType {
			n++
		}
	}
	return n
}

// failingNotificationRepo makes every notification write fail.
type failingNotificationRepo struct {
	*memory.Repository
}

func (r failingNotificationRepo) Notification() repositories.NotificationRepository {
	return failingNotificationStore{r.Repository.Notification()}
}

type failingNotificationStore struct {
	repositories.NotificationRepository
}

func (failingNotificationStore) Create(ctx context.Context, n *models.Notification) error {
	return errors.New("notification store unavailable")
}
