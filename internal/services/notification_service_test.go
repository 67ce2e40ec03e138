package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/campus-gigs/marketplace-service/internal/events"
	"github.com/campus-gigs/marketplace-service/internal/models"
	"github.com/campus-gigs/marketplace-service/internal/repositories"
)

func notifyRequest(recipientID string, notificationType models.NotificationType) *NotifyRequest {
	return &NotifyRequest{
		RecipientID: recipientID,
		Type:        notificationType,
		Title:       "Heads up",
		Message:     "Something happened",
	}
}

func TestNotificationService_Notify(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	recipient := uuid.NewString()

	n, err := env.notifications.Notify(ctx, notifyRequest(recipient, models.NotificationSystemMessage))
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if n.ID == "" || n.IsRead || n.CreatedAt.IsZero() {
		t.Errorf("Notify() = %+v, want persisted unread notification", n)
	}

	stored := feed(t, env.repo, recipient)
	if len(stored) != 1 {
		t.Fatalf("stored notifications = %d, want 1", len(stored))
	}

	published := env.publisher.GetPublishedEvents()
	if len(published) != 1 {
		t.Fatalf("published events = %d, want 1", len(published))
	}
	if published[0].Channel != events.UserChannel(recipient) {
		t.Errorf("channel = %q, want %q", published[0].Channel, events.UserChannel(recipient))
	}
	if published[0].Event.Type != events.EventNotificationCreated || published[0].Event.UserID != recipient {
		t.Errorf("event = %+v", published[0].Event)
	}
}

func TestNotificationService_NotifyRejectsBeforeWrite(t *testing.T) {
	tests := []struct {
		name    string
		req     func(recipient string) *NotifyRequest
		wantErr error
	}{
		{
			name: "unknown type",
			req: func(recipient string) *NotifyRequest {
				return notifyRequest(recipient, models.NotificationType("project_exploded"))
			},
			wantErr: ErrUnknownNotificationType,
		},
		{
			name: "missing title",
			req: func(recipient string) *NotifyRequest {
				req := notifyRequest(recipient, models.NotificationSystemMessage)
				req.Title = ""
				return req
			},
		},
		{
			name: "malformed recipient",
			req: func(string) *NotifyRequest {
				return notifyRequest("not-a-uuid", models.NotificationSystemMessage)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			recipient := uuid.NewString()

			_, err := env.notifications.Notify(context.Background(), tt.req(recipient))
			if err == nil {
				t.Fatal("Notify() error = nil, want rejection")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Notify() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil {
				var verrs ValidationErrors
				if !errors.As(err, &verrs) {
					t.Errorf("Notify() error = %T, want ValidationErrors", err)
				}
			}

			if got := len(feed(t, env.repo, recipient)); got != 0 {
				t.Errorf("stored notifications = %d, want 0", got)
			}
			if got := len(env.publisher.GetPublishedEvents()); got != 0 {
				t.Errorf("published events = %d, want 0", got)
			}
		})
	}
}

func TestNotificationService_PushFailureKeepsNotification(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.FailWith(errors.New("redis down"))
	recipient := uuid.NewString()

	if _, err := env.notifications.Notify(context.Background(), notifyRequest(recipient, models.NotificationSystemMessage)); err != nil {
		t.Fatalf("Notify() error = %v, want push failure swallowed", err)
	}
	if got := len(feed(t, env.repo, recipient)); got != 1 {
		t.Errorf("stored notifications = %d, want 1", got)
	}
}

func TestNotificationService_NoDeduplication(t *testing.T) {
	env := newTestEnv(t)
	recipient := uuid.NewString()
	req := notifyRequest(recipient, models.NotificationSystemMessage)

	for i := 0; i < 2; i++ {
		if _, err := env.notifications.Notify(context.Background(), req); err != nil {
			t.Fatalf("Notify() error = %v", err)
		}
	}
	if got := len(feed(t, env.repo, recipient)); got != 2 {
		t.Errorf("stored notifications = %d, want 2", got)
	}
}

func TestNotificationService_MarkReadIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	recipient := uuid.NewString()

	n, err := env.notifications.Notify(ctx, notifyRequest(recipient, models.NotificationSystemMessage))
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := env.notifications.MarkRead(ctx, n.ID, recipient); err != nil {
			t.Fatalf("MarkRead() call %d error = %v", i+1, err)
		}
	}

	list, err := env.notifications.List(ctx, recipient, repositories.NotificationFilters{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list.Notifications) != 1 || !list.Notifications[0].IsRead {
		t.Errorf("List() = %+v, want one read notification", list.Notifications)
	}
	if list.Unread != 0 {
		t.Errorf("Unread = %d, want 0", list.Unread)
	}
}

func TestNotificationService_RecipientOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	recipient, stranger := uuid.NewString(), uuid.NewString()

	n, err := env.notifications.Notify(ctx, notifyRequest(recipient, models.NotificationSystemMessage))
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	if err := env.notifications.MarkRead(ctx, n.ID, stranger); !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("MarkRead() by stranger error = %v, want ErrNotificationNotFound", err)
	}
	if err := env.notifications.Delete(ctx, n.ID, stranger); !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("Delete() by stranger error = %v, want ErrNotificationNotFound", err)
	}
	if err := env.notifications.Delete(ctx, n.ID, recipient); err != nil {
		t.Errorf("Delete() by recipient error = %v", err)
	}
	if got := len(feed(t, env.repo, recipient)); got != 0 {
		t.Errorf("stored notifications = %d, want 0", got)
	}
}

func TestNotificationService_ListCarriesSender(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sender := seedUser(t, env.repo, models.RoleTeacher, "Prof Ada")
	recipient := uuid.NewString()

	req := notifyRequest(recipient, models.NotificationProjectInvitation)
	req.SenderID = &sender.ID
	if _, err := env.notifications.Notify(ctx, req); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if _, err := env.notifications.Notify(ctx, notifyRequest(recipient, models.NotificationSystemMessage)); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	list, err := env.notifications.List(ctx, recipient, repositories.NotificationFilters{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if list.Total != 2 || list.Unread != 2 {
		t.Fatalf("Total/Unread = %d/%d, want 2/2", list.Total, list.Unread)
	}

	var withSender int
	for _, view := range list.Notifications {
		if view.Sender != nil {
			withSender++
			if view.Sender.ID != sender.ID || view.Sender.Name != "Prof Ada" {
				t.Errorf("Sender = %+v", view.Sender)
			}
		}
	}
	if withSender != 1 {
		t.Errorf("views with sender = %d, want 1", withSender)
	}

	updated, err := env.notifications.MarkAllRead(ctx, recipient)
	if err != nil || updated != 2 {
		t.Errorf("MarkAllRead() = %d, %v; want 2, nil", updated, err)
	}
}

func TestNotificationService_PushCarriesSender(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sender := seedUser(t, env.repo, models.RoleTeacher, "Prof Ada")
	recipient := uuid.NewString()
	missing := uuid.NewString()

	tests := []struct {
		name       string
		senderID   *string
		wantSender string
	}{
		{name: "known sender", senderID: &sender.ID, wantSender: "Prof Ada"},
		{name: "system notification", senderID: nil},
		{name: "sender gone", senderID: &missing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.publisher.ClearEvents()
			req := notifyRequest(recipient, models.NotificationProjectInvitation)
			req.SenderID = tt.senderID
			if _, err := env.notifications.Notify(ctx, req); err != nil {
				t.Fatalf("Notify() error = %v", err)
			}

			published := env.publisher.GetPublishedEvents()
			if len(published) != 1 {
				t.Fatalf("published events = %d, want 1", len(published))
			}
			view, ok := published[0].Event.Data.(*models.NotificationView)
			if !ok {
				t.Fatalf("event data = %T, want *models.NotificationView", published[0].Event.Data)
			}
			switch {
			case tt.wantSender == "" && view.Sender != nil:
				t.Errorf("Sender = %+v, want none", view.Sender)
			case tt.wantSender != "" && (view.Sender == nil || view.Sender.Name != tt.wantSender):
				t.Errorf("Sender = %+v, want %s", view.Sender, tt.wantSender)
			}
		})
	}
}
