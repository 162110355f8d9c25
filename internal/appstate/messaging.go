// messaging.go
//
// An intern management service: role-gated interns, tasks, attendance, reviews and messaging
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of internportal.
// internportal is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// internportal is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with internportal.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package appstate

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/localnerve/internportal/internal/gateway"
	"github.com/localnerve/internportal/internal/logger"
	"github.com/localnerve/internportal/internal/models"
)

// Chat summary defaults for a new chat
const (
	NoMessagesYet = "No messages yet"
	TimeNow       = "Now"
	chatTimeFmt   = "15:04"
)

// SendMessage stores a message, then moves the chat's summary to it, then
// reloads. If the summary update fails the message stays stored and the
// chat summary is stale; neither step is retried.
func (s *Store) SendMessage(ctx context.Context, chatID, content, senderID, senderName string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return fmt.Errorf("%w: message is empty", ErrInvalid)
	}

	now := s.opts.Now()
	msg := models.Message{
		ChatID:    chatID,
		Sender:    senderName,
		SenderID:  senderID,
		Content:   content,
		Timestamp: now.UTC(),
	}
	if _, err := s.svc.Messages.Create(ctx, msg); err != nil {
		logger.Error("send message failed", "chat", chatID, "err", err)
		s.opts.Notifier.Notify(LevelError, "Failed to send message")
		return fmt.Errorf("send message: %w", err)
	}

	summary := gateway.Fields{"lastMessage": content, "time": now.Format(chatTimeFmt)}
	if err := s.svc.Chats.Update(ctx, chatID, summary); err != nil {
		logger.Error("chat summary update failed", "chat", chatID, "err", err)
		s.opts.Notifier.Notify(LevelError, "Failed to send message")
		return fmt.Errorf("update chat summary: %w", err)
	}

	if err := s.Refresh(ctx); err != nil {
		logger.Warn("appstate refresh after send failed", "chat", chatID, "err", err)
	}
	return nil
}

// CreateChat starts a chat between the given participants with every unread
// counter at zero. The chat is named after the first participant who is not
// the current user. Callers check for an existing chat first.
func (s *Store) CreateChat(ctx context.Context, participantIDs, participantNames []string) (string, error) {
	if len(participantIDs) < 2 {
		return "", fmt.Errorf("%w: a chat needs at least two participants", ErrInvalid)
	}

	unread := make(map[string]int, len(participantIDs))
	for _, id := range participantIDs {
		unread[id] = 0
	}

	chat := models.Chat{
		Participants:   participantNames,
		ParticipantIDs: participantIDs,
		Name:           s.chatName(participantNames),
		LastMessage:    NoMessagesYet,
		Time:           TimeNow,
		Unread:         unread,
		IsGroup:        len(participantIDs) > 2,
	}

	var id string
	err := s.mutate(ctx, "create_chat", "", "Failed to create chat",
		func(ctx context.Context) error {
			var err error
			id, err = s.svc.Chats.Create(ctx, chat)
			return err
		})
	return id, err
}

func (s *Store) chatName(names []string) string {
	var self string
	if s.user != nil {
		self = s.user.Name
	}
	for _, n := range names {
		if n != self {
			return n
		}
	}
	if len(names) > 0 {
		return names[0]
	}
	return ""
}

// MarkMessagesAsRead zeroes one user's unread counter on a cached chat. The
// whole counter map is written back, so a concurrent change to another
// participant's counter can be lost. Unknown chats are ignored.
func (s *Store) MarkMessagesAsRead(ctx context.Context, chatID, userID string) error {
	chat, ok := s.Chat(chatID)
	if !ok {
		return nil
	}

	unread := make(map[string]int, len(chat.Unread)+1)
	maps.Copy(unread, chat.Unread)
	unread[userID] = 0

	if err := s.svc.Chats.Update(ctx, chatID, gateway.Fields{"unread": unread}); err != nil {
		logger.Error("mark messages read failed", "chat", chatID, "user", userID, "err", err)
		return fmt.Errorf("mark messages read: %w", err)
	}
	if err := s.Refresh(ctx); err != nil {
		logger.Warn("appstate refresh after mark read failed", "chat", chatID, "err", err)
	}
	return nil
}

// Messages returns a chat's messages oldest first, with IsOwn set for the
// store's user.
func (s *Store) Messages(ctx context.Context, chatID string) ([]models.Message, error) {
	msgs, err := s.svc.Messages.ForChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	for i := range msgs {
		msgs[i].IsOwn = s.user != nil && msgs[i].SenderID == s.user.ID
	}
	return msgs, nil
}
