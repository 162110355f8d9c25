package appstate_test

import (
	"context"
	"testing"

	"github.com/localnerve/internportal/internal/models"
)

// TestDashboard tests the admin and intern summaries
func TestDashboard(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	f.svc.Interns.Set(ctx, "i1", models.Intern{Name: "Ann", Status: models.InternStatusActive}, false)
	f.svc.Interns.Set(ctx, "i2", models.Intern{Name: "Bo", Status: models.InternStatusInactive}, false)
	tasks := []models.Task{
		{Title: "late", AssignedToID: "i1", Status: models.TaskStatusToDo, Deadline: "2026-03-09"},
		{Title: "soon", AssignedToID: "i1", Status: models.TaskStatusInProgress, Deadline: "2026-03-03"},
		{Title: "done", AssignedToID: "i1", Status: models.TaskStatusCompleted},
		{Title: "other", AssignedToID: "i2", Status: models.TaskStatusToDo},
	}
	for _, task := range tasks {
		f.svc.Tasks.Create(ctx, task)
	}
	f.svc.Performances.Create(ctx, models.Performance{InternID: "i1", Rating: 4})
	f.svc.Performances.Create(ctx, models.Performance{InternID: "i2", Rating: 2})
	f.svc.Attendance.Create(ctx, models.Attendance{InternID: "i1", Date: "2026-03-02", Status: models.AttendancePresent})
	f.svc.Attendance.Create(ctx, models.Attendance{InternID: "i2", Date: "2026-03-01", Status: models.AttendancePresent})
	f.svc.Chats.Create(ctx, models.Chat{ParticipantIDs: []string{"admin", "i1"}, Unread: map[string]int{"admin": 2, "i1": 1}})

	if err := f.store.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	d := f.store.Dashboard()
	if d.Role != models.RoleAdmin || d.TotalInterns != 2 || d.ActiveInterns != 1 {
		t.Errorf("Unexpected intern counts %+v", d)
	}
	if d.TotalTasks != 4 || d.PendingTasks != 3 || d.CompletedTasks != 1 || d.TasksByStatus[models.TaskStatusToDo] != 2 {
		t.Errorf("Unexpected task counts %+v", d)
	}
	if d.AverageRating != 3 || d.PresentToday != 1 || d.UnreadMessages != 2 {
		t.Errorf("Unexpected rating/attendance/unread %+v", d)
	}

	ann := f.newStore(&models.AppUser{ID: "i1", Role: models.RoleIntern, Name: "Ann"})
	defer ann.Close()
	ann.Load(ctx)
	d = ann.Dashboard()
	if d.Role != models.RoleIntern || d.TotalTasks != 3 || d.PendingTasks != 2 || d.TotalInterns != 0 {
		t.Errorf("Unexpected intern dashboard %+v", d)
	}
	if len(d.UpcomingTasks) != 2 || d.UpcomingTasks[0].Title != "soon" {
		t.Errorf("Expected upcoming tasks by deadline, got %+v", d.UpcomingTasks)
	}
	if d.AverageRating != 4 || d.UnreadMessages != 1 {
		t.Errorf("Unexpected intern rating/unread %+v", d)
	}
}
