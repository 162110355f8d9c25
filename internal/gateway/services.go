// services.go
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

package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/localnerve/internportal/internal/models"
)

// Collection names
const (
	CollectionInterns      = "interns"
	CollectionTasks        = "tasks"
	CollectionPerformances = "performances"
	CollectionAttendance   = "attendance"
	CollectionMessages     = "messages"
	CollectionChats        = "chats"
	CollectionSettings     = "settings"
)

// ErrNoRegistrar is returned when interns are registered without an identity provider.
var ErrNoRegistrar = errors.New("no account registrar configured")

// Registrar creates login identities without touching any signed in session.
type Registrar interface {
	Register(ctx context.Context, email, password string) (uid string, err error)
}

// Services groups the typed collections of the application.
type Services struct {
	Interns      *InternService
	Tasks        *TaskService
	Performances *PerformanceService
	Attendance   *AttendanceService
	Messages     *MessageService
	Chats        *ChatService
	Settings     *SettingsService
}

// NewServices builds every per-entity wrapper over gw.
func NewServices(gw *Gateway, registrar Registrar) *Services {
	return &Services{
		Interns:      &InternService{Collection: NewCollection[models.Intern](gw, CollectionInterns), registrar: registrar},
		Tasks:        &TaskService{NewCollection[models.Task](gw, CollectionTasks)},
		Performances: &PerformanceService{NewCollection[models.Performance](gw, CollectionPerformances)},
		Attendance:   &AttendanceService{NewCollection[models.Attendance](gw, CollectionAttendance)},
		Messages:     &MessageService{NewCollection[models.Message](gw, CollectionMessages)},
		Chats:        &ChatService{NewCollection[models.Chat](gw, CollectionChats)},
		Settings:     &SettingsService{NewCollection[models.Settings](gw, CollectionSettings)},
	}
}

// InternService manages intern documents.
type InternService struct {
	*Collection[models.Intern]
	registrar Registrar
}

// Register creates the intern's login identity, then stores the intern under
// the new uid. The password goes to the identity provider only.
func (s *InternService) Register(ctx context.Context, intern models.Intern, password string) (string, error) {
	if s.registrar == nil {
		return "", ErrNoRegistrar
	}
	uid, err := s.registrar.Register(ctx, intern.Email, password)
	if err != nil {
		return "", fmt.Errorf("register %s: %w", intern.Email, err)
	}
	intern.UID = uid
	if intern.Status == "" {
		intern.Status = models.InternStatusActive
	}
	if err := s.Set(ctx, uid, intern, false); err != nil {
		return "", err
	}
	return uid, nil
}

// TaskService manages tasks.
type TaskService struct {
	*Collection[models.Task]
}

// ForIntern returns the tasks assigned to an intern.
func (s *TaskService) ForIntern(ctx context.Context, internID string) ([]models.Task, error) {
	return s.Query(ctx, []Condition{Where("assignedToId", Eq, internID)}, "")
}

// PerformanceService manages performance reviews.
type PerformanceService struct {
	*Collection[models.Performance]
}

// ForIntern returns the reviews of an intern.
func (s *PerformanceService) ForIntern(ctx context.Context, internID string) ([]models.Performance, error) {
	return s.Query(ctx, []Condition{Where("internId", Eq, internID)}, "")
}

// AttendanceService manages attendance records.
type AttendanceService struct {
	*Collection[models.Attendance]
}

// ForIntern returns the attendance records of an intern ordered by date.
func (s *AttendanceService) ForIntern(ctx context.Context, internID string) ([]models.Attendance, error) {
	return s.Query(ctx, []Condition{Where("internId", Eq, internID)}, "date")
}

// MessageService manages chat messages.
type MessageService struct {
	*Collection[models.Message]
}

// ForChat returns a chat's messages oldest first.
func (s *MessageService) ForChat(ctx context.Context, chatID string) ([]models.Message, error) {
	return s.Query(ctx, []Condition{Where("chatId", Eq, chatID)}, KeyCreatedAt)
}

// Watch streams a chat's messages.
func (s *MessageService) Watch(chatID string, fn func([]models.Message, error)) (unsubscribe func()) {
	return s.Subscribe([]Condition{Where("chatId", Eq, chatID)}, fn)
}

// ChatService manages chats.
type ChatService struct {
	*Collection[models.Chat]
}

// ForParticipant returns the chats a user takes part in.
func (s *ChatService) ForParticipant(ctx context.Context, userID string) ([]models.Chat, error) {
	return s.Query(ctx, []Condition{Where("participantIds", ArrayContains, userID)}, "")
}

// SettingsService manages per-user settings keyed by uid.
type SettingsService struct {
	*Collection[models.Settings]
}

// Theme returns the stored theme for uid, or "" when none is stored.
func (s *SettingsService) Theme(ctx context.Context, uid string) (string, error) {
	settings, err := s.Get(ctx, uid)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return settings.Theme, nil
}

// SaveTheme upserts the theme for uid.
func (s *SettingsService) SaveTheme(ctx context.Context, uid, theme string) error {
	return s.gw.Set(ctx, s.name, uid, Fields{"theme": theme}, true)
}
