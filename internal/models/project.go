package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectOpen       ProjectStatus = "open"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectAwaiting   ProjectStatus = "awaiting"
	ProjectRevision   ProjectStatus = "revision"
	ProjectCompleted  ProjectStatus = "completed"
)

const MinProjectBudget = 100

// projectTransitions is the allowed status graph; completed is terminal.
var projectTransitions = map[ProjectStatus][]ProjectStatus{
	ProjectOpen:       {ProjectInProgress},
	ProjectInProgress: {ProjectAwaiting},
	ProjectAwaiting:   {ProjectRevision, ProjectCompleted},
	ProjectRevision:   {ProjectAwaiting, ProjectInProgress, ProjectCompleted},
	ProjectCompleted:  {},
}

func (s ProjectStatus) IsValid() bool {
	_, ok := projectTransitions[s]
	return ok
}

// CanTransitionTo reports whether the graph has an edge s -> next.
func (s ProjectStatus) CanTransitionTo(next ProjectStatus) bool {
	for _, allowed := range projectTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Label is the human readable form used in notification text.
func (s ProjectStatus) Label() string {
	switch s {
	case ProjectOpen:
		return "Open"
	case ProjectInProgress:
		return "In Progress"
	case ProjectAwaiting:
		return "Awaiting Review"
	case ProjectRevision:
		return "Revision Requested"
	case ProjectCompleted:
		return "Completed"
	}
	return string(s)
}

// Project is a unit of work posted by an owner. OwnerName and
// AssignedToName are snapshots taken at write time and may go stale when
// the referenced user renames.
type Project struct {
	ID          string                      `json:"id" gorm:"primaryKey;size:36"`
	Title       string                      `json:"title" gorm:"not null;size:200"`
	Description string                      `json:"description" gorm:"type:text;not null"`
	Budget      int                         `json:"budget" gorm:"not null;check:budget >= 100"`
	Deadline    time.Time                   `json:"deadline" gorm:"not null"`
	Skills      datatypes.JSONSlice[string] `json:"skills" gorm:"type:jsonb"`

	OwnerID   string `json:"owner_id" gorm:"not null;size:36;index"`
	OwnerName string `json:"owner_name" gorm:"size:100"`

	Status         ProjectStatus `json:"status" gorm:"not null;size:20;default:open;index"`
	AssignedTo     *string       `json:"assigned_to" gorm:"size:36;index"`
	AssignedToName *string       `json:"assigned_to_name" gorm:"size:100"`
	Progress       *int          `json:"progress" gorm:"check:progress >= 0 AND progress <= 100"`

	RequestedBy       datatypes.JSONSlice[string] `json:"requested_by" gorm:"type:jsonb"`
	InvitedFreelancer *string                     `json:"invited_freelancer" gorm:"size:36"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Project) TableName() string {
	return "projects"
}

func (p *Project) IsOwner(userID string) bool {
	return p.OwnerID == userID
}

func (p *Project) IsAssignee(userID string) bool {
	return p.AssignedTo != nil && *p.AssignedTo == userID
}

// HasRequest reports whether freelancerID already asked to join.
func (p *Project) HasRequest(freelancerID string) bool {
	for _, id := range p.RequestedBy {
		if id == freelancerID {
			return true
		}
	}
	return false
}

// AssigneeID returns the assigned freelancer id or "".
func (p *Project) AssigneeID() string {
	if p.AssignedTo == nil {
		return ""
	}
	return *p.AssignedTo
}
