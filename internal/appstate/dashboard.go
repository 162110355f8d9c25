// dashboard.go
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
	"cmp"
	"slices"

	"github.com/localnerve/internportal/internal/models"
)

const upcomingLimit = 5

// Dashboard is the landing summary for the store's user. Administrators get
// program wide numbers; interns get their own.
type Dashboard struct {
	Role           string         `json:"role"`
	TotalInterns   int            `json:"totalInterns"`
	ActiveInterns  int            `json:"activeInterns"`
	TotalTasks     int            `json:"totalTasks"`
	TasksByStatus  map[string]int `json:"tasksByStatus"`
	PendingTasks   int            `json:"pendingTasks"`
	CompletedTasks int            `json:"completedTasks"`
	AverageRating  float64        `json:"averageRating"`
	PresentToday   int            `json:"presentToday"`
	UnreadMessages int            `json:"unreadMessages"`
	UpcomingTasks  []models.Task  `json:"upcomingTasks"`
}

// Dashboard summarizes the cache as of today.
func (s *Store) Dashboard() Dashboard {
	today := s.today()
	d := Dashboard{TasksByStatus: make(map[string]int, len(models.TaskStatuses))}
	for _, st := range models.TaskStatuses {
		d.TasksByStatus[st] = 0
	}

	var (
		tasks      []models.Task
		reviews    []models.Performance
		attendance []models.Attendance
		chats      []models.Chat
		userID     string
	)
	if s.user != nil {
		userID = s.user.ID
	}
	if s.user.IsAdmin() {
		d.Role = models.RoleAdmin
		interns := s.Interns()
		d.TotalInterns = len(interns)
		for _, in := range interns {
			if in.Status == models.InternStatusActive {
				d.ActiveInterns++
			}
		}
		tasks, reviews, attendance = s.Tasks(), s.Performances(), s.Attendance()
	} else {
		d.Role = models.RoleIntern
		tasks, reviews, attendance = s.TasksFor(userID), s.PerformancesFor(userID), s.GetInternAttendance(userID)
	}
	chats = s.UserChats(userID)

	d.TotalTasks = len(tasks)
	upcoming := []models.Task{}
	for _, t := range tasks {
		d.TasksByStatus[t.Status]++
		if t.Status == models.TaskStatusCompleted {
			d.CompletedTasks++
			continue
		}
		d.PendingTasks++
		upcoming = append(upcoming, t)
	}
	slices.SortStableFunc(upcoming, func(a, b models.Task) int {
		switch {
		case a.Deadline == b.Deadline:
			return 0
		case a.Deadline == "":
			return 1
		case b.Deadline == "":
			return -1
		}
		return cmp.Compare(a.Deadline, b.Deadline)
	})
	if len(upcoming) > upcomingLimit {
		upcoming = upcoming[:upcomingLimit]
	}
	d.UpcomingTasks = upcoming

	if len(reviews) > 0 {
		var sum float64
		for _, r := range reviews {
			sum += r.Rating
		}
		d.AverageRating = sum / float64(len(reviews))
	}

	for _, a := range attendance {
		if a.Date == today && a.Status == models.AttendancePresent {
			d.PresentToday++
		}
	}

	for _, c := range chats {
		d.UnreadMessages += c.Unread[userID]
	}
	return d
}
