// notifier.go
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
	"sync"
	"time"
)

// Notice levels
const (
	LevelSuccess = "success"
	LevelError   = "error"
)

// Notice is a user facing outcome message.
type Notice struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier receives outcome messages for the user.
type Notifier interface {
	Notify(level, message string)
}

// NoticeLog is a bounded in-memory Notifier drained by the client.
type NoticeLog struct {
	mu    sync.Mutex
	items []Notice
	limit int
	now   func() time.Time
}

// NewNoticeLog keeps at most limit notices, dropping the oldest.
func NewNoticeLog(limit int) *NoticeLog {
	if limit <= 0 {
		limit = 50
	}
	return &NoticeLog{limit: limit, now: time.Now}
}

// Notify implements Notifier.
func (l *NoticeLog) Notify(level, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, Notice{Level: level, Message: message, At: l.now().UTC()})
	if over := len(l.items) - l.limit; over > 0 {
		l.items = append([]Notice(nil), l.items[over:]...)
	}
}

// Drain returns and clears the pending notices, oldest first.
func (l *NoticeLog) Drain() []Notice {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.items
	l.items = nil
	if out == nil {
		out = []Notice{}
	}
	return out
}

type discard struct{}

func (discard) Notify(string, string) {}
