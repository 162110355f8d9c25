package appstate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/localnerve/internportal/internal/appstate"
	"github.com/localnerve/internportal/internal/gateway"
	"github.com/localnerve/internportal/internal/models"
)

// TestCreateChatZeroesUnread tests the unread map, naming and summary defaults
func TestCreateChatZeroesUnread(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	id, err := f.store.CreateChat(ctx, []string{"admin", "i1"}, []string{"Admin", "Ann Lee"})
	if err != nil {
		t.Fatalf("CreateChat failed: %v", err)
	}

	chat, ok := f.store.Chat(id)
	if !ok {
		t.Fatal("Expected the chat in the cache")
	}
	if len(chat.Unread) != 2 || chat.Unread["admin"] != 0 || chat.Unread["i1"] != 0 {
		t.Errorf("Expected zeroed unread for both participants, got %v", chat.Unread)
	}
	if chat.Name != "Ann Lee" {
		t.Errorf("Expected chat named after the other participant, got %s", chat.Name)
	}
	if chat.LastMessage != appstate.NoMessagesYet || chat.Time != appstate.TimeNow || chat.IsGroup {
		t.Errorf("Unexpected summary %+v", chat)
	}

	if _, err := f.store.CreateChat(ctx, []string{"admin"}, []string{"Admin"}); !errors.Is(err, appstate.ErrInvalid) {
		t.Errorf("Expected ErrInvalid for a single participant, got %v", err)
	}
}

// TestCreateChatNameFallback tests naming when every name is the user's own
func TestCreateChatNameFallback(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	id, _ := f.store.CreateChat(ctx, []string{"admin", "x"}, []string{"Admin", "Admin"})
	chat, _ := f.store.Chat(id)
	if chat.Name != "Admin" {
		t.Errorf("Expected first name fallback, got %s", chat.Name)
	}
}

// TestMarkMessagesAsReadZeroesOne tests that only the reader's counter changes
func TestMarkMessagesAsReadZeroesOne(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	id, _ := f.store.CreateChat(ctx, []string{"admin", "i1", "i2"}, []string{"Admin", "Ann", "Bo"})
	if err := f.gw.Update(ctx, gateway.CollectionChats, id, gateway.Fields{"unread": map[string]int{"admin": 3, "i1": 2, "i2": 5}}); err != nil {
		t.Fatalf("seed unread failed: %v", err)
	}
	f.store.Refresh(ctx)

	if err := f.store.MarkMessagesAsRead(ctx, id, "i1"); err != nil {
		t.Fatalf("MarkMessagesAsRead failed: %v", err)
	}

	chat, _ := f.store.Chat(id)
	want := map[string]int{"admin": 3, "i1": 0, "i2": 5}
	for k, v := range want {
		if chat.Unread[k] != v {
			t.Errorf("unread[%s]: expected %d, got %d", k, v, chat.Unread[k])
		}
	}
	if !chat.IsGroup {
		t.Error("Expected a three person chat to be a group")
	}

	if err := f.store.MarkMessagesAsRead(ctx, "unknown", "i1"); err != nil {
		t.Errorf("Expected unknown chats to be ignored, got %v", err)
	}
}

// TestSendMessage tests message storage, the chat summary and isOwn
func TestSendMessage(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	chatID, _ := f.store.CreateChat(ctx, []string{"admin", "i1"}, []string{"Admin", "Ann"})
	if err := f.store.SendMessage(ctx, chatID, " Hello Ann ", "admin", "Admin"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	annStore := f.newStore(&models.AppUser{ID: "i1", Role: models.RoleIntern, Name: "Ann"})
	defer annStore.Close()
	if err := annStore.SendMessage(ctx, chatID, "Hi!", "i1", "Ann"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	f.store.Refresh(ctx)
	chat, _ := f.store.Chat(chatID)
	if chat.LastMessage != "Hi!" || chat.Time != "14:05" {
		t.Errorf("Unexpected chat summary %q at %q", chat.LastMessage, chat.Time)
	}

	msgs, err := f.store.Messages(ctx, chatID)
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "Hello Ann" || !msgs[0].IsOwn || msgs[1].IsOwn {
		t.Errorf("Unexpected messages for admin: %+v", msgs)
	}

	annView, _ := annStore.Messages(ctx, chatID)
	if annView[0].IsOwn || !annView[1].IsOwn {
		t.Errorf("Expected isOwn to follow the reader, got %+v", annView)
	}

	doc, _ := f.gw.Query(ctx, gateway.CollectionMessages, nil, "")
	if _, ok := doc[0].Fields["isOwn"]; ok {
		t.Error("Expected isOwn not to be stored")
	}

	if err := f.store.SendMessage(ctx, chatID, "   ", "admin", "Admin"); !errors.Is(err, appstate.ErrInvalid) {
		t.Errorf("Expected ErrInvalid for an empty message, got %v", err)
	}
}

// TestSendMessageMissingChat tests that the message stays when the summary update fails
func TestSendMessageMissingChat(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	err := f.store.SendMessage(ctx, "ghost", "anyone?", "admin", "Admin")
	if !errors.Is(err, gateway.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	msgs, _ := f.store.Messages(ctx, "ghost")
	if len(msgs) != 1 {
		t.Errorf("Expected the message to stay stored, got %d", len(msgs))
	}
}

// TestUserChatsAndFindChat tests the participant filters
func TestUserChatsAndFindChat(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	a, _ := f.store.CreateChat(ctx, []string{"admin", "i1"}, []string{"Admin", "Ann"})
	f.store.CreateChat(ctx, []string{"admin", "i2"}, []string{"Admin", "Bo"})

	if got := f.store.UserChats("i1"); len(got) != 1 || got[0].ID != a {
		t.Errorf("Unexpected chats for i1: %+v", got)
	}
	if got := f.store.UserChats("admin"); len(got) != 2 {
		t.Errorf("Expected 2 chats for admin, got %d", len(got))
	}
	if chat, ok := f.store.FindChat("i1", "admin"); !ok || chat.ID != a {
		t.Errorf("Expected FindChat to return %s, got %+v", a, chat)
	}
	if _, ok := f.store.FindChat("i1", "i2"); ok {
		t.Error("Expected no chat between i1 and i2")
	}

	remote, err := f.svc.Chats.ForParticipant(ctx, "i2")
	if err != nil || len(remote) != 1 {
		t.Errorf("Expected one stored chat for i2, got %d (%v)", len(remote), err)
	}
}
