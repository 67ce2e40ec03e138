package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/campus-gigs/marketplace-service/internal/models"
	"github.com/campus-gigs/marketplace-service/internal/repositories"
	"github.com/campus-gigs/marketplace-service/internal/security"
)

func newMessageService(t *testing.T, env *testEnv) MessageService {
	t.Helper()
	enc, err := security.NewEncryptor("message-test-key", testLogger())
	if err != nil {
		t.Fatalf("NewEncryptor() error = %v", err)
	}
	return NewMessageService(env.repo, enc, testLogger(), env.validator)
}

func TestMessageService_SendStoresCiphertext(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := seedUser(t, env.repo, models.RoleTeacher, "Olivia")
	freelancer := seedUser(t, env.repo, models.RoleStudent, "Sam")
	messages := newMessageService(t, env)

	view, err := messages.Send(ctx, owner.ID, &SendMessageRequest{ReceiverID: freelancer.ID, Content: "Can you start Monday?"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if view.Content != "Can you start Monday?" || view.IsRead {
		t.Errorf("Send() = %+v", view)
	}

	stored, _, err := env.repo.Message().Conversation(ctx, owner.ID, freelancer.ID, repositories.MessageFilters{})
	if err != nil || len(stored) != 1 {
		t.Fatalf("stored messages = %v, %v", stored, err)
	}
	if !security.IsEncrypted(stored[0].Content) || stored[0].Content == view.Content {
		t.Errorf("stored content %q is not ciphertext", stored[0].Content)
	}

	thread, err := messages.Conversation(ctx, freelancer.ID, owner.ID, repositories.MessageFilters{})
	if err != nil {
		t.Fatalf("Conversation() error = %v", err)
	}
	if thread.Partner.Name != "Olivia" || thread.Total != 1 || thread.Size != defaultConversationPageSize {
		t.Errorf("Conversation() = %+v", thread)
	}
	if thread.Messages[0].Content != "Can you start Monday?" {
		t.Errorf("Content = %q", thread.Messages[0].Content)
	}
}

func TestMessageService_UnreadableContent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := seedUser(t, env.repo, models.RoleTeacher, "Olivia")
	b := seedUser(t, env.repo, models.RoleStudent, "Sam")
	messages := newMessageService(t, env)

	if err := env.repo.Message().Create(ctx, &models.Message{SenderID: a.ID, ReceiverID: b.ID, Content: "not-a-token"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	thread, err := messages.Conversation(ctx, b.ID, a.ID, repositories.MessageFilters{})
	if err != nil {
		t.Fatalf("Conversation() error = %v", err)
	}
	if got := thread.Messages[0].Content; got != security.DecryptFailedPlaceholder {
		t.Errorf("Content = %q, want placeholder", got)
	}
}

func TestMessageService_SendRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sender := seedUser(t, env.repo, models.RoleStudent, "Sam")
	messages := newMessageService(t, env)

	_, err := messages.Send(ctx, sender.ID, &SendMessageRequest{ReceiverID: sender.ID, Content: "hi me"})
	var verrs ValidationErrors
	if !errors.As(err, &verrs) || !verrs.HasField("receiver_id") {
		t.Errorf("Send() to self error = %v, want receiver_id ValidationErrors", err)
	}

	if _, err := messages.Send(ctx, sender.ID, &SendMessageRequest{ReceiverID: uuid.NewString(), Content: "hello"}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Send() to unknown user error = %v, want ErrUserNotFound", err)
	}

	receiver := seedUser(t, env.repo, models.RoleStudent, "Kim")
	if _, err := messages.Send(ctx, sender.ID, &SendMessageRequest{ReceiverID: receiver.ID, Content: "  "}); !errors.As(err, &verrs) {
		t.Errorf("Send() blank content error = %v, want ValidationErrors", err)
	}
}

func TestMessageService_Inbox(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	me := seedUser(t, env.repo, models.RoleStudent, "Sam")
	olivia := seedUser(t, env.repo, models.RoleTeacher, "Olivia")
	kim := seedUser(t, env.repo, models.RoleStudent, "Kim")
	messages := newMessageService(t, env)

	send := func(from, to *models.User, content string) {
		t.Helper()
		if _, err := messages.Send(ctx, from.ID, &SendMessageRequest{ReceiverID: to.ID, Content: content}); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
	}
	send(olivia, me, "one")
	send(olivia, me, "two")
	send(me, kim, "three")

	unread, err := messages.UnreadCount(ctx, me.ID)
	if err != nil || unread != 2 {
		t.Errorf("UnreadCount() = %d, %v; want 2", unread, err)
	}

	inbox, err := messages.Conversations(ctx, me.ID)
	if err != nil {
		t.Fatalf("Conversations() error = %v", err)
	}
	if len(inbox) != 2 {
		t.Fatalf("Conversations() = %d entries, want 2", len(inbox))
	}
	for _, c := range inbox {
		switch c.Partner.ID {
		case olivia.ID:
			if c.UnreadCount != 2 || c.Partner.Name != "Olivia" {
				t.Errorf("olivia conversation = %+v", c)
			}
		case kim.ID:
			if c.UnreadCount != 0 {
				t.Errorf("kim conversation unread = %d, want 0", c.UnreadCount)
			}
		default:
			t.Errorf("unexpected partner %s", c.Partner.ID)
		}
	}

	updated, err := messages.MarkConversationRead(ctx, me.ID, olivia.ID)
	if err != nil || updated != 2 {
		t.Errorf("MarkConversationRead() = %d, %v; want 2", updated, err)
	}
	if unread, _ := messages.UnreadCount(ctx, me.ID); unread != 0 {
		t.Errorf("UnreadCount() after read = %d, want 0", unread)
	}
}
