package validator

import (
	"time"

	"github.com/campus-gigs/marketplace-service/internal/models"
)

// ===== AUTH =====

// RequestCodeRequest asks for a one-time code to be mailed to Email
type RequestCodeRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

// RegisterRequest creates an account. Student-only fields are required
// for students and dropped for every other role.
type RegisterRequest struct {
	Email string          `json:"email" validate:"required,email,max=255"`
	Code  string          `json:"code" validate:"required,len=6,numeric"`
	Name  string          `json:"name" validate:"required,not_blank,max=100"`
	Role  models.UserRole `json:"role" validate:"required,user_role"`
	Major string          `json:"major" validate:"max=100"`
	Bio   string          `json:"bio" validate:"max=2000"`

	StudentID   *string  `json:"student_id" validate:"omitempty,max=50"`
	Skills      []string `json:"skills" validate:"omitempty,max=20,dive,required,max=50"`
	Price       *int     `json:"price"`
	OpenForWork *bool    `json:"open_for_work"`
}

type LoginRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// ===== PROFILES =====

type UpdateProfileRequest struct {
	Name  *string `json:"name" validate:"omitempty,not_blank,max=100"`
	Major *string `json:"major" validate:"omitempty,max=100"`
	Bio   *string `json:"bio" validate:"omitempty,max=2000"`

	Skills      []string `json:"skills" validate:"omitempty,max=20,dive,required,max=50"`
	Price       *int     `json:"price" validate:"omitempty,student_price"`
	OpenForWork *bool    `json:"open_for_work"`
}

// ===== PROJECTS =====

type CreateProjectRequest struct {
	Title       string    `json:"title" validate:"required,not_blank,max=200"`
	Description string    `json:"description" validate:"required,not_blank,max=5000"`
	Budget      int       `json:"budget" validate:"required,project_budget"`
	Deadline    time.Time `json:"deadline" validate:"required,future_date"`
	Skills      []string  `json:"skills" validate:"omitempty,max=20,dive,required,max=50"`
}

type UpdateProjectRequest struct {
	Title       *string    `json:"title" validate:"omitempty,not_blank,max=200"`
	Description *string    `json:"description" validate:"omitempty,not_blank,max=5000"`
	Budget      *int       `json:"budget" validate:"omitempty,project_budget"`
	Deadline    *time.Time `json:"deadline" validate:"omitempty,future_date"`
	Skills      []string   `json:"skills" validate:"omitempty,max=20,dive,required,max=50"`
}

type ChangeStatusRequest struct {
	Status models.ProjectStatus `json:"status" validate:"required,project_status"`
}

type ProgressRequest struct {
	Progress *int `json:"progress" validate:"required,min=0,max=100"`
}

// ===== APPLICATIONS & INVITATIONS =====

type ApplyRequest struct {
	Message string `json:"message" validate:"max=1000"`
}

type InviteRequest struct {
	FreelancerID string `json:"freelancer_id" validate:"required,uuid"`
	Message      string `json:"message" validate:"max=1000"`
}

// ===== NOTIFICATIONS =====

// NotifyRequest is the dispatcher input.
type NotifyRequest struct {
	RecipientID string                  `json:"recipient_id" validate:"required,uuid"`
	SenderID    *string                 `json:"sender_id" validate:"omitempty,uuid"`
	Type        models.NotificationType `json:"type" validate:"required,notification_type"`
	Title       string                  `json:"title" validate:"required,max=200"`
	Message     string                  `json:"message" validate:"required"`
	ProjectID   *string                 `json:"project_id" validate:"omitempty,uuid"`
	Link        *string                 `json:"link" validate:"omitempty,max=500"`
}

// ===== MESSAGES =====

type SendMessageRequest struct {
	ReceiverID string `json:"receiver_id" validate:"required,uuid"`
	Content    string `json:"content" validate:"required,not_blank,max=5000"`
}
