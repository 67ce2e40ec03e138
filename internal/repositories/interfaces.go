package repositories

import (
	"time"

	"github.com/campus-gigs/marketplace-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type FreelancerFilters struct {
	Skill       *string `json:"skill"`
	OpenForWork *bool   `json:"open_for_work"`
	MaxPrice    *int    `json:"max_price"`
	Query       string  `json:"query"` // name or major
	Limit       int     `json:"limit"`
	Offset      int     `json:"offset"`
}

type ProjectFilters struct {
	Status     *models.ProjectStatus `json:"status"`
	OwnerID    *string               `json:"owner_id"`
	AssignedTo *string               `json:"assigned_to"`
	Skill      *string               `json:"skill"`
	Limit      int                   `json:"limit"`
	Offset     int                   `json:"offset"`
	SortBy     string                `json:"sort_by"`    // "created_at", "deadline", "budget"
	SortOrder  string                `json:"sort_order"` // "asc", "desc"
}

type RequestFilters struct {
	ProjectID    *string               `json:"project_id"`
	FreelancerID *string               `json:"freelancer_id"`
	OwnerID      *string               `json:"owner_id"`
	Status       *models.RequestStatus `json:"status"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

type NotificationFilters struct {
	UnreadOnly bool `json:"unread_only"`
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
}

type MessageFilters struct {
	Before *time.Time `json:"before"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

// ===== SHARED HELPER STRUCTS =====

// ConversationSummary is one row of a user's inbox.
type ConversationSummary struct {
	PartnerID     string    `json:"partner_id"`
	LastMessageAt time.Time `json:"last_message_at"`
	UnreadCount   int64     `json:"unread_count"`
}
