// entities.go
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

package models

import (
	"time"

	"github.com/localnerve/internportal/internal/types"
)

// DateLayout is the calendar date format used by joinDate, deadline and attendance dates.
const DateLayout = "2006-01-02"

// Roles
const (
	RoleAdmin  = "admin"
	RoleIntern = "intern"
)

// AdminID is the fixed application id of the administrator.
const AdminID = "admin"

// Intern statuses
const (
	InternStatusActive   = "Active"
	InternStatusInactive = "Inactive"
)

// Task statuses and priorities
const (
	TaskStatusToDo       = "To Do"
	TaskStatusInProgress = "In Progress"
	TaskStatusCompleted  = "Completed"

	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// TaskStatuses lists every valid task status.
var TaskStatuses = []string{TaskStatusToDo, TaskStatusInProgress, TaskStatusCompleted}

// TaskPriorities lists every valid task priority.
var TaskPriorities = []string{PriorityHigh, PriorityMedium, PriorityLow}

// Attendance statuses
const (
	AttendancePresent = "Present"
	AttendanceAbsent  = "Absent"
	AttendanceHalfDay = "Half Day"
	AttendanceLeave   = "Leave"
)

// AttendanceStatuses lists every valid attendance status.
var AttendanceStatuses = []string{AttendancePresent, AttendanceAbsent, AttendanceHalfDay, AttendanceLeave}

// Rating bounds for performance reviews.
const (
	MinRating = 0
	MaxRating = 5
)

// Intern is a person doing an internship. Interns created through
// registration carry the login identity's uid as both ID and UID.
type Intern struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Email     string                 `json:"email"`
	Phone     string                 `json:"phone"`
	Skills    types.FlexList[string] `json:"skills"`
	Role      string                 `json:"role"`
	JoinDate  string                 `json:"joinDate"`
	Status    string                 `json:"status"`
	UID       string                 `json:"uid,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// Task is a unit of work assigned to an intern. AssignedTo is a name
// snapshot taken when the task was written.
type Task struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	AssignedTo   string    `json:"assignedTo"`
	AssignedToID string    `json:"assignedToId"`
	Deadline     string    `json:"deadline"`
	Status       string    `json:"status"`
	Priority     string    `json:"priority"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Performance is a review of an intern.
type Performance struct {
	ID             string           `json:"id"`
	InternID       string           `json:"internId"`
	Rating         float64          `json:"rating"`
	TasksCompleted types.FlexUint64 `json:"tasksCompleted"`
	LastReview     string           `json:"lastReview"`
	Feedback       string           `json:"feedback"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// Attendance is a per-day presence record.
type Attendance struct {
	ID        string    `json:"id"`
	InternID  string    `json:"internId"`
	Date      string    `json:"date"`
	Status    string    `json:"status"`
	CheckIn   string    `json:"checkIn,omitempty"`
	CheckOut  string    `json:"checkOut,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Chat is a conversation between two or more participants. Unread holds one
// counter per participant id.
type Chat struct {
	ID             string         `json:"id"`
	Participants   []string       `json:"participants"`
	ParticipantIDs []string       `json:"participantIds"`
	Name           string         `json:"name"`
	LastMessage    string         `json:"lastMessage"`
	Time           string         `json:"time"`
	Unread         map[string]int `json:"unread"`
	IsGroup        bool           `json:"isGroup"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// HasParticipant reports whether id takes part in the chat.
func (c Chat) HasParticipant(id string) bool {
	for _, p := range c.ParticipantIDs {
		if p == id {
			return true
		}
	}
	return false
}

// Message is one entry of a chat. IsOwn is derived for the reader and never stored.
type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chatId"`
	Sender    string    `json:"sender"`
	SenderID  string    `json:"senderId"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	IsOwn     bool      `json:"isOwn,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Settings holds per-user preferences; the document id is the user's uid.
type Settings struct {
	ID    string `json:"id"`
	Theme string `json:"theme"`
}

// AppUser is the resolved application user for a signed in identity.
type AppUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	UID   string `json:"uid"`
}

// IsAdmin reports whether the user holds the administrator role.
func (u *AppUser) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
