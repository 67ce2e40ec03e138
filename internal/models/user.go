package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleAlumni  UserRole = "alumni"
	RoleTeacher UserRole = "teacher"
)

// IsValid reports whether r is one of the marketplace roles.
func (r UserRole) IsValid() bool {
	switch r {
	case RoleStudent, RoleAlumni, RoleTeacher:
		return true
	}
	return false
}

// CanOwnProjects reports whether the role may post projects.
func (r UserRole) CanOwnProjects() bool {
	return r == RoleAlumni || r == RoleTeacher
}

const (
	MinStudentPrice     = 100
	MaxGalleryImages    = 6
	DefaultOpenForWork  = true
	StudentProfileTable = "student_profiles"
)

// User is the base marketplace profile shared by every role. Student-only
// attributes live on the StudentProfile variant, present iff Role is student.
type User struct {
	ID              string   `json:"id" gorm:"primaryKey;size:36"`
	Email           string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Role            UserRole `json:"role" gorm:"not null;size:20;index"`
	Name            string   `json:"name" gorm:"not null;size:100"`
	Major           string   `json:"major" gorm:"size:100"`
	Bio             string   `json:"bio" gorm:"type:text"`
	EmailVerified   bool     `json:"email_verified" gorm:"default:false"`
	ProfileImageURL *string  `json:"profile_image_url" gorm:"size:500"`

	Student *StudentProfile `json:"student,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// IsStudent reports whether the user carries the student variant.
func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}

// StudentProfile holds the attributes only students carry.
type StudentProfile struct {
	UserID       string                      `json:"-" gorm:"primaryKey;size:36"`
	StudentID    string                      `json:"student_id" gorm:"uniqueIndex;not null;size:50"`
	Skills       datatypes.JSONSlice[string] `json:"skills" gorm:"type:jsonb"`
	Price        int                         `json:"price" gorm:"not null;check:price >= 100"`
	OpenForWork  bool                        `json:"open_for_work" gorm:"not null"`
	PortfolioURL *string                     `json:"portfolio_url" gorm:"size:500"`
	Gallery      datatypes.JSONSlice[string] `json:"gallery" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (StudentProfile) TableName() string {
	return StudentProfileTable
}

// HasSkill reports whether the profile lists skill (exact match).
func (p *StudentProfile) HasSkill(skill string) bool {
	for _, s := range p.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// UserSummary is the small projection embedded in other responses.
type UserSummary struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	ProfileImageURL *string `json:"profileImageUrl,omitempty"`
}

func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Name: u.Name, ProfileImageURL: u.ProfileImageURL}
}
