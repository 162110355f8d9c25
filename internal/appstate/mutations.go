// mutations.go
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
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/localnerve/internportal/internal/gateway"
	"github.com/localnerve/internportal/internal/logger"
	"github.com/localnerve/internportal/internal/models"
)

// ErrInvalid marks input validation failures.
var ErrInvalid = errors.New("invalid input")

// mutate runs one remote write and then reloads. On failure the cache is
// left alone, the user is notified and the error is returned.
func (s *Store) mutate(ctx context.Context, op, success, failure string, write func(context.Context) error) error {
	if err := write(ctx); err != nil {
		logger.Error("appstate mutation failed", "op", op, "err", err)
		s.opts.Notifier.Notify(LevelError, fmt.Sprintf("%s: %v", failure, err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.Refresh(ctx); err != nil {
		logger.Warn("appstate refresh after mutation failed", "op", op, "err", err)
	}
	if success != "" {
		s.opts.Notifier.Notify(LevelSuccess, success)
	}
	return nil
}

func (s *Store) today() string {
	return s.opts.Now().Format(models.DateLayout)
}

// AddIntern registers a login for the intern with the default password and
// stores the intern as active, joined today. The login is created on a
// separate identity session, so the acting user stays signed in.
func (s *Store) AddIntern(ctx context.Context, intern models.Intern) (string, error) {
	intern.JoinDate = s.today()
	intern.Status = models.InternStatusActive
	intern.Email = strings.TrimSpace(intern.Email)
	password := s.opts.DefaultPassword

	var id string
	err := s.mutate(ctx, "add_intern",
		fmt.Sprintf("Intern added successfully! Login credentials: %s / %s", intern.Email, password),
		"Failed to add intern",
		func(ctx context.Context) error {
			var err error
			id, err = s.svc.Interns.Register(ctx, intern, password)
			return err
		})
	return id, err
}

// UpdateIntern merges fields into an intern.
func (s *Store) UpdateIntern(ctx context.Context, id string, fields gateway.Fields) error {
	return s.mutate(ctx, "update_intern", "Intern updated successfully!", "Failed to update intern",
		func(ctx context.Context) error { return s.svc.Interns.Update(ctx, id, fields) })
}

// DeleteIntern removes an intern. Tasks, reviews, attendance and the login
// identity that reference it are kept.
func (s *Store) DeleteIntern(ctx context.Context, id string) error {
	return s.mutate(ctx, "delete_intern", "Intern deleted successfully!", "Failed to delete intern",
		func(ctx context.Context) error { return s.svc.Interns.Delete(ctx, id) })
}

// AddTask creates a task.
func (s *Store) AddTask(ctx context.Context, task models.Task) (string, error) {
	if task.Status == "" {
		task.Status = models.TaskStatusToDo
	}
	if err := checkEnum("status", task.Status, models.TaskStatuses); err != nil {
		return "", err
	}
	if task.Priority != "" {
		if err := checkEnum("priority", task.Priority, models.TaskPriorities); err != nil {
			return "", err
		}
	}
	var id string
	err := s.mutate(ctx, "add_task", "Task created successfully!", "Failed to create task",
		func(ctx context.Context) error {
			var err error
			id, err = s.svc.Tasks.Create(ctx, task)
			return err
		})
	return id, err
}

// UpdateTask merges fields into a task.
func (s *Store) UpdateTask(ctx context.Context, id string, fields gateway.Fields) error {
	if err := checkFieldEnum(fields, "status", models.TaskStatuses); err != nil {
		return err
	}
	if err := checkFieldEnum(fields, "priority", models.TaskPriorities); err != nil {
		return err
	}
	return s.mutate(ctx, "update_task", "Task updated successfully!", "Failed to update task",
		func(ctx context.Context) error { return s.svc.Tasks.Update(ctx, id, fields) })
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return s.mutate(ctx, "delete_task", "Task deleted successfully!", "Failed to delete task",
		func(ctx context.Context) error { return s.svc.Tasks.Delete(ctx, id) })
}

// UpdateTaskStatus moves a task to any valid status.
func (s *Store) UpdateTaskStatus(ctx context.Context, id, status string) error {
	if err := checkEnum("status", status, models.TaskStatuses); err != nil {
		return err
	}
	return s.mutate(ctx, "update_task_status", "Task status updated!", "Failed to update task status",
		func(ctx context.Context) error {
			return s.svc.Tasks.Update(ctx, id, gateway.Fields{"status": status})
		})
}

// AddPerformanceReview creates a review.
func (s *Store) AddPerformanceReview(ctx context.Context, review models.Performance) (string, error) {
	if err := checkRating(review.Rating); err != nil {
		return "", err
	}
	if review.LastReview == "" {
		review.LastReview = s.today()
	}
	var id string
	err := s.mutate(ctx, "add_performance", "Performance review added successfully!", "Failed to add performance review",
		func(ctx context.Context) error {
			var err error
			id, err = s.svc.Performances.Create(ctx, review)
			return err
		})
	return id, err
}

// UpdatePerformanceReview merges fields into a review.
func (s *Store) UpdatePerformanceReview(ctx context.Context, id string, fields gateway.Fields) error {
	if v, ok := fields["rating"]; ok {
		rating, ok := toFloat(v)
		if !ok {
			return fmt.Errorf("%w: rating must be a number", ErrInvalid)
		}
		if err := checkRating(rating); err != nil {
			return err
		}
	}
	return s.mutate(ctx, "update_performance", "Performance review updated successfully!", "Failed to update performance review",
		func(ctx context.Context) error { return s.svc.Performances.Update(ctx, id, fields) })
}

// DeletePerformanceReview removes a review.
func (s *Store) DeletePerformanceReview(ctx context.Context, id string) error {
	return s.mutate(ctx, "delete_performance", "Performance review deleted successfully!", "Failed to delete performance review",
		func(ctx context.Context) error { return s.svc.Performances.Delete(ctx, id) })
}

// AddAttendance creates an attendance record. Several records for the same
// intern and date are allowed.
func (s *Store) AddAttendance(ctx context.Context, record models.Attendance) (string, error) {
	if err := checkEnum("status", record.Status, models.AttendanceStatuses); err != nil {
		return "", err
	}
	if record.Date == "" {
		record.Date = s.today()
	}
	var id string
	err := s.mutate(ctx, "add_attendance", "Attendance marked successfully!", "Failed to mark attendance",
		func(ctx context.Context) error {
			var err error
			id, err = s.svc.Attendance.Create(ctx, record)
			return err
		})
	return id, err
}

// UpdateAttendance merges fields into an attendance record.
func (s *Store) UpdateAttendance(ctx context.Context, id string, fields gateway.Fields) error {
	if err := checkFieldEnum(fields, "status", models.AttendanceStatuses); err != nil {
		return err
	}
	return s.mutate(ctx, "update_attendance", "Attendance updated successfully!", "Failed to update attendance",
		func(ctx context.Context) error { return s.svc.Attendance.Update(ctx, id, fields) })
}

// DeleteAttendance removes an attendance record.
func (s *Store) DeleteAttendance(ctx context.Context, id string) error {
	return s.mutate(ctx, "delete_attendance", "Attendance deleted successfully!", "Failed to delete attendance",
		func(ctx context.Context) error { return s.svc.Attendance.Delete(ctx, id) })
}

func checkEnum(field, value string, allowed []string) error {
	if !slices.Contains(allowed, value) {
		return fmt.Errorf("%w: %s %q is not one of %v", ErrInvalid, field, value, allowed)
	}
	return nil
}

func checkFieldEnum(fields gateway.Fields, field string, allowed []string) error {
	v, ok := fields[field]
	if !ok {
		return nil
	}
	str, ok := v.(string)
	if !ok {
		return fmt.Errorf("%w: %s must be a string", ErrInvalid, field)
	}
	return checkEnum(field, str, allowed)
}

func checkRating(rating float64) error {
	if rating < models.MinRating || rating > models.MaxRating {
		return fmt.Errorf("%w: rating %v outside %d-%d", ErrInvalid, rating, models.MinRating, models.MaxRating)
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
