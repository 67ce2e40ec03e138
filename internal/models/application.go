package models

import "time"

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// Application is a freelancer's request to join a project. At most one
// exists per (project, freelancer); the unique index enforces it.
type Application struct {
	ID             string        `json:"id" gorm:"primaryKey;size:36"`
	ProjectID      string        `json:"project_id" gorm:"not null;size:36;uniqueIndex:idx_application_project_freelancer"`
	ProjectTitle   string        `json:"project_title" gorm:"size:200"`
	FreelancerID   string        `json:"freelancer_id" gorm:"not null;size:36;uniqueIndex:idx_application_project_freelancer;index"`
	FreelancerName string        `json:"freelancer_name" gorm:"size:100"`
	OwnerID        string        `json:"owner_id" gorm:"not null;size:36;index"`
	OwnerName      string        `json:"owner_name" gorm:"size:100"`
	Message        string        `json:"message" gorm:"type:text"`
	Status         RequestStatus `json:"status" gorm:"not null;size:20;default:pending;index"`
	CreatedAt      time.Time     `json:"created_at"`
	RespondedAt    *time.Time    `json:"responded_at"`
}

func (Application) TableName() string {
	return "applications"
}

// Invitation is the owner-initiated mirror of Application.
type Invitation struct {
	ID             string        `json:"id" gorm:"primaryKey;size:36"`
	ProjectID      string        `json:"project_id" gorm:"not null;size:36;uniqueIndex:idx_invitation_project_freelancer"`
	ProjectTitle   string        `json:"project_title" gorm:"size:200"`
	FreelancerID   string        `json:"freelancer_id" gorm:"not null;size:36;uniqueIndex:idx_invitation_project_freelancer;index"`
	FreelancerName string        `json:"freelancer_name" gorm:"size:100"`
	OwnerID        string        `json:"owner_id" gorm:"not null;size:36;index"`
	OwnerName      string        `json:"owner_name" gorm:"size:100"`
	Message        string        `json:"message" gorm:"type:text"`
	Status         RequestStatus `json:"status" gorm:"not null;size:20;default:pending;index"`
	CreatedAt      time.Time     `json:"created_at"`
	RespondedAt    *time.Time    `json:"responded_at"`
}

func (Invitation) TableName() string {
	return "invitations"
}
