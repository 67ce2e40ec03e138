// Package events carries notification events to live subscribers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventSource = "marketplace-service"

	EventNotificationCreated = "notification.created"
)

// Event is the payload pushed to a user's live channel.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

func NewEvent(eventType, userID string, data any) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// UserChannel is the live channel key for one user.
func UserChannel(userID string) string {
	return "notifications:user:" + userID
}

// EventPublisher delivers events at most once with no confirmation.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, event *Event) error
	Close() error
}
