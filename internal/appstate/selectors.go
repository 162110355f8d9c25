// selectors.go
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
	"strings"

	"github.com/localnerve/internportal/internal/models"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GetInternAttendance returns the cached attendance of one intern in cache order.
func (s *Store) GetInternAttendance(internID string) []models.Attendance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Attendance{}
	for _, a := range s.attendance {
		if a.InternID == internID {
			out = append(out, a)
		}
	}
	return out
}

// GetInternByEmail finds a cached intern by email, ignoring case and
// surrounding whitespace on both sides.
func (s *Store) GetInternByEmail(email string) (models.Intern, bool) {
	want := normalizeEmail(email)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, in := range s.interns {
		if normalizeEmail(in.Email) == want {
			return in, true
		}
	}
	return models.Intern{}, false
}

// GetIntern finds a cached intern by id.
func (s *Store) GetIntern(id string) (models.Intern, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, in := range s.interns {
		if in.ID == id {
			return in, true
		}
	}
	return models.Intern{}, false
}

// TasksFor returns the cached tasks assigned to an intern.
func (s *Store) TasksFor(internID string) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Task{}
	for _, t := range s.tasks {
		if t.AssignedToID == internID {
			out = append(out, t)
		}
	}
	return out
}

// PerformancesFor returns the cached reviews of an intern.
func (s *Store) PerformancesFor(internID string) []models.Performance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Performance{}
	for _, p := range s.performances {
		if p.InternID == internID {
			out = append(out, p)
		}
	}
	return out
}

// UserChats returns the cached chats a user takes part in.
func (s *Store) UserChats(userID string) []models.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Chat{}
	for _, c := range s.chats {
		if c.HasParticipant(userID) {
			out = append(out, c)
		}
	}
	return out
}

// FindChat returns the first cached chat that includes both users.
func (s *Store) FindChat(a, b string) (models.Chat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.chats {
		if c.HasParticipant(a) && c.HasParticipant(b) {
			return c, true
		}
	}
	return models.Chat{}, false
}

// Chat returns a cached chat by id.
func (s *Store) Chat(id string) (models.Chat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.chats {
		if c.ID == id {
			return c, true
		}
	}
	return models.Chat{}, false
}
