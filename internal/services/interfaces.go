package services

import (
	"context"
	"time"

	"github.com/campus-gigs/marketplace-service/internal/models"
	"github.com/campus-gigs/marketplace-service/internal/repositories"
	"github.com/campus-gigs/marketplace-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type RequestCodeRequest = validator.RequestCodeRequest
type RegisterRequest = validator.RegisterRequest
type LoginRequest = validator.LoginRequest
type UpdateProfileRequest = validator.UpdateProfileRequest
type CreateProjectRequest = validator.CreateProjectRequest
type UpdateProjectRequest = validator.UpdateProjectRequest
type ChangeStatusRequest = validator.ChangeStatusRequest
type ProgressRequest = validator.ProgressRequest
type ApplyRequest = validator.ApplyRequest
type InviteRequest = validator.InviteRequest
type NotifyRequest = validator.NotifyRequest
type SendMessageRequest = validator.SendMessageRequest

// ===== AUTH DTOs =====

// CodeResponse acknowledges a code request. Code is only filled when the
// mail could not be delivered.
type CodeResponse struct {
	Message   string `json:"message"`
	ExpiresIn int    `json:"expires_in"`
	Code      string `json:"code,omitempty"`
}

type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresIn int          `json:"expires_in"`
	User      *models.User `json:"user"`
}

// ===== USER DTOs =====

type FreelancerListResponse struct {
	Freelancers []*models.User `json:"freelancers"`
	Total       int64          `json:"total"`
	Page        int            `json:"page"`
	Size        int            `json:"size"`
}

// ===== PROJECT DTOs =====

type ProjectResponse struct {
	*models.Project
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
	CanApply  bool `json:"can_apply"`
}

type ProjectListResponse struct {
	Projects []*ProjectResponse `json:"projects"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	Size     int                `json:"size"`
}

// ===== APPLICATION / INVITATION DTOs =====

// ApplicationResponse carries a warning when the owner could not be notified.
type ApplicationResponse struct {
	*models.Application
	Warning string `json:"warning,omitempty"`
}

type ApplicationListResponse struct {
	Applications []*models.Application `json:"applications"`
	Total        int64                 `json:"total"`
	Page         int                   `json:"page"`
	Size         int                   `json:"size"`
}

type InvitationResponse struct {
	*models.Invitation
	Warning string `json:"warning,omitempty"`
}

type InvitationListResponse struct {
	Invitations []*models.Invitation `json:"invitations"`
	Total       int64                `json:"total"`
	Page        int                  `json:"page"`
	Size        int                  `json:"size"`
}

// ===== NOTIFICATION DTOs =====

type NotificationListResponse struct {
	Notifications []*models.NotificationView `json:"notifications"`
	Total         int64                      `json:"total"`
	Unread        int64                      `json:"unread"`
	Page          int                        `json:"page"`
	Size          int                        `json:"size"`
}

// StatusChange describes one project status transition. FreelancerID is
// empty when nobody is assigned.
type StatusChange struct {
	ProjectID    string
	Title        string
	OldStatus    models.ProjectStatus
	NewStatus    models.ProjectStatus
	OwnerID      string
	FreelancerID string
}

// ===== MESSAGE DTOs =====

// MessageView is a decrypted message as served to participants.
type MessageView struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

type ConversationResponse struct {
	Partner  *models.UserSummary `json:"partner"`
	Messages []*MessageView      `json:"messages"`
	Total    int64               `json:"total"`
	Page     int                 `json:"page"`
	Size     int                 `json:"size"`
}

type ConversationView struct {
	Partner       *models.UserSummary `json:"partner"`
	LastMessageAt time.Time           `json:"last_message_at"`
	UnreadCount   int64               `json:"unread_count"`
}

// ===== SERVICE INTERFACES =====

type AuthService interface {
	RequestCode(ctx context.Context, req *RequestCodeRequest) (*CodeResponse, error)
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
}

type UserService interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*models.User, error)
	ListFreelancers(ctx context.Context, filters repositories.FreelancerFilters) (*FreelancerListResponse, error)

	// Media
	UploadProfileImage(ctx context.Context, userID string, data []byte) (*models.User, error)
	UploadPortfolio(ctx context.Context, userID string, data []byte) (*models.User, error)
	AddGalleryImage(ctx context.Context, userID string, data []byte) (*models.User, error)
	RemoveGalleryImage(ctx context.Context, userID, url string) (*models.User, error)
}

type ProjectService interface {
	Create(ctx context.Context, req *CreateProjectRequest, ownerID string) (*ProjectResponse, error)
	GetByID(ctx context.Context, id, userID string) (*ProjectResponse, error)
	List(ctx context.Context, filters repositories.ProjectFilters, userID string) (*ProjectListResponse, error)
	Update(ctx context.Context, id string, req *UpdateProjectRequest, userID string) (*ProjectResponse, error)
	Delete(ctx context.Context, id, userID string) error

	// Lifecycle
	ChangeStatus(ctx context.Context, id string, status models.ProjectStatus, userID string) (*ProjectResponse, error)
	UpdateProgress(ctx context.Context, id string, progress int, userID string) (*ProjectResponse, error)
}

type RequestService interface {
	// Applications
	Apply(ctx context.Context, projectID string, req *ApplyRequest, freelancerID string) (*ApplicationResponse, error)
	ListApplications(ctx context.Context, filters repositories.RequestFilters, userID string) (*ApplicationListResponse, error)
	AcceptApplication(ctx context.Context, id, ownerID string) (*models.Application, error)
	RejectApplication(ctx context.Context, id, ownerID string) (*models.Application, error)

	// Invitations
	Invite(ctx context.Context, projectID string, req *InviteRequest, ownerID string) (*InvitationResponse, error)
	ListInvitations(ctx context.Context, filters repositories.RequestFilters, userID string) (*InvitationListResponse, error)
	AcceptInvitation(ctx context.Context, id, freelancerID string) (*models.Invitation, error)
	DeclineInvitation(ctx context.Context, id, freelancerID string) (*models.Invitation, error)
}

// NotificationService is the dispatcher plus the recipient's feed.
type NotificationService interface {
	Notify(ctx context.Context, req *NotifyRequest) (*models.Notification, error)

	List(ctx context.Context, userID string, filters repositories.NotificationFilters) (*NotificationListResponse, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, id, userID string) error
}

// LifecycleNotifier turns project events into notifications.
type LifecycleNotifier interface {
	// OnStatusChange never fails; each notification branch logs its own errors.
	OnStatusChange(ctx context.Context, change StatusChange)
	OnFreelancerRequest(ctx context.Context, projectID, title, ownerID, freelancerID string) error
	OnProjectInvitation(ctx context.Context, projectID, title, ownerID, freelancerID string) error
	OnProgressUpdate(ctx context.Context, project *models.Project, progress int) error
	OnRevisionRequested(ctx context.Context, project *models.Project) error
	OnRequestRejected(ctx context.Context, projectID, title, senderID, recipientID string) error
}

type MessageService interface {
	Send(ctx context.Context, senderID string, req *SendMessageRequest) (*MessageView, error)
	Conversation(ctx context.Context, userID, partnerID string, filters repositories.MessageFilters) (*ConversationResponse, error)
	MarkConversationRead(ctx context.Context, userID, partnerID string) (int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	Conversations(ctx context.Context, userID string) ([]*ConversationView, error)
}

type ExportService interface {
	// ExportProjects renders the owner's projects and applications as xlsx.
	ExportProjects(ctx context.Context, ownerID string) ([]byte, error)
}

// ServiceManager manages all services
type ServiceManager interface {
	Auth() AuthService
	User() UserService
	Project() ProjectService
	Request() RequestService
	Notification() NotificationService
	Lifecycle() LifecycleNotifier
	Message() MessageService
	Export() ExportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

func pageOf(limit, offset int) int {
	if limit <= 0 {
		return 1
	}
	return offset/limit + 1
}
