package models

import "time"

type NotificationType string

const (
	NotificationProjectRequest        NotificationType = "project_request"
	NotificationProjectInvitation     NotificationType = "project_invitation"
	NotificationProjectAccepted       NotificationType = "project_accepted"
	NotificationProjectRejected       NotificationType = "project_rejected"
	NotificationProjectStatusChange   NotificationType = "project_status_change"
	NotificationProjectProgressUpdate NotificationType = "project_progress_update"
	NotificationProjectCompleted      NotificationType = "project_completed"
	NotificationProjectRevision       NotificationType = "project_revision"
	NotificationSystemMessage         NotificationType = "system_message"
)

var NotificationTypes = []NotificationType{
	NotificationProjectRequest,
	NotificationProjectInvitation,
	NotificationProjectAccepted,
	NotificationProjectRejected,
	NotificationProjectStatusChange,
	NotificationProjectProgressUpdate,
	NotificationProjectCompleted,
	NotificationProjectRevision,
	NotificationSystemMessage,
}

func (t NotificationType) IsValid() bool {
	for _, known := range NotificationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Notification is a per-recipient feed entry. RecipientID never changes
// after creation; only IsRead is mutated.
type Notification struct {
	ID          string           `json:"id" gorm:"primaryKey;size:36"`
	RecipientID string           `json:"recipient_id" gorm:"not null;size:36;index:idx_notification_recipient_read,priority:1;index:idx_notification_recipient_created,priority:1"`
	SenderID    *string          `json:"sender_id" gorm:"size:36"`
	Type        NotificationType `json:"type" gorm:"not null;size:40"`
	Title       string           `json:"title" gorm:"not null;size:200"`
	Message     string           `json:"message" gorm:"type:text;not null"`
	ProjectID   *string          `json:"project_id" gorm:"size:36;index"`
	IsRead      bool             `json:"is_read" gorm:"not null;default:false;index:idx_notification_recipient_read,priority:2"`
	Link        *string          `json:"link" gorm:"size:500"`
	CreatedAt   time.Time        `json:"created_at" gorm:"index:idx_notification_recipient_created,priority:2,sort:desc"`

	Sender *User `json:"-" gorm:"foreignKey:SenderID"`
}

func (Notification) TableName() string {
	return "notifications"
}

// NotificationView is the stable wire shape served to the feed.
type NotificationView struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	IsRead    bool             `json:"isRead"`
	CreatedAt time.Time        `json:"createdAt"`
	ProjectID *string          `json:"projectId,omitempty"`
	Sender    *UserSummary     `json:"sender,omitempty"`
	Link      *string          `json:"link,omitempty"`
}

func (n *Notification) View() *NotificationView {
	return &NotificationView{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
		ProjectID: n.ProjectID,
		Sender:    n.Sender.Summary(),
		Link:      n.Link,
	}
}
