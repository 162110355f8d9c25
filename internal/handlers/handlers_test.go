package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/internportal/internal/appstate"
	"github.com/localnerve/internportal/internal/config"
	"github.com/localnerve/internportal/internal/gateway"
	"github.com/localnerve/internportal/internal/handlers"
	"github.com/localnerve/internportal/internal/identity"
	"github.com/localnerve/internportal/internal/models"
	"github.com/localnerve/internportal/internal/services"
	"github.com/localnerve/internportal/internal/testutil"
	"github.com/localnerve/internportal/internal/utils"
	"gorm.io/gorm"
)

type testServer struct {
	app      *fiber.App
	db       *gorm.DB
	provider *identity.LocalProvider
	svc      *gateway.Services
	manager  *services.SessionManager
}

// setupServer wires the API on an in-memory database with an admin account
func setupServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.OpenDB(t)
	provider := identity.NewLocalProvider(db, []byte("test-secret"), time.Hour)
	svc := gateway.NewServices(gateway.New(db), identity.NewRegistrar(provider))
	resolver := services.NewResolver(svc.Interns, "admin@x.com", "Head Mentor")
	manager := services.NewSessionManager(provider, resolver, svc, appstate.Options{DefaultPassword: "intern123"})
	t.Cleanup(manager.Close)

	if _, err := provider.EnsureAccount(context.Background(), "admin@x.com", "adminpw"); err != nil {
		t.Fatalf("EnsureAccount failed: %v", err)
	}

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	handlers.NewAPI(manager).Register(app)
	return &testServer{app: app, db: db, provider: provider, svc: svc, manager: manager}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	return resp
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	resp := s.do(t, "POST", "/api/auth/login", "", fiber.Map{"email": email, "password": password})
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var result handlers.LoginResponse
	testutil.ParseJSON(t, resp, &result)
	if result.Token == "" {
		t.Fatal("Expected a token")
	}
	return result.Token
}

// addIntern creates an intern through the API and returns its id
func (s *testServer) addIntern(t *testing.T, adminToken, name, email string) string {
	t.Helper()
	resp := s.do(t, "POST", "/api/interns", adminToken, fiber.Map{"name": name, "email": email, "skills": "Go, SQL"})
	testutil.AssertStatus(t, resp, fiber.StatusCreated)
	var result utils.SuccessResponseStruct
	testutil.ParseJSON(t, resp, &result)
	return result.ID
}

// TestLoginAndMe tests sign in, the current user and missing credentials
func TestLoginAndMe(t *testing.T) {
	s := setupServer(t)
	token := s.login(t, "ADMIN@x.com", "adminpw")

	resp := s.do(t, "GET", "/api/auth/me", token, nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var me handlers.MeResponse
	testutil.ParseJSON(t, resp, &me)
	if me.User == nil || me.User.Role != models.RoleAdmin || me.User.Name != "Head Mentor" {
		t.Errorf("Unexpected user %+v", me.User)
	}
	if me.Theme != appstate.DefaultTheme {
		t.Errorf("Expected default theme, got %q", me.Theme)
	}
	if v := resp.Header.Get("X-Api-Version"); v == "" {
		t.Error("Expected X-Api-Version response header")
	}

	resp = s.do(t, "GET", "/api/auth/me", "", nil)
	testutil.AssertStatus(t, resp, fiber.StatusUnauthorized)
	var envelope utils.ErrorResponseStruct
	testutil.ParseJSON(t, resp, &envelope)
	if envelope.Ok || envelope.Type != "auth" || envelope.URL != "/api/auth/me" {
		t.Errorf("Unexpected error envelope %+v", envelope)
	}

	resp = s.do(t, "POST", "/api/auth/login", "", fiber.Map{"email": "admin@x.com", "password": "wrong"})
	testutil.AssertStatus(t, resp, fiber.StatusUnauthorized)

	resp = s.do(t, "POST", "/api/auth/login", "", fiber.Map{"email": "not-an-email", "password": "x"})
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)
}

// TestInternOnboarding tests adding an intern, the email lookup and the intern's first login
func TestInternOnboarding(t *testing.T) {
	s := setupServer(t)
	admin := s.login(t, "admin@x.com", "adminpw")
	id := s.addIntern(t, admin, "Ann Lee", "ann@x.com")

	resp := s.do(t, "GET", "/api/interns", admin, nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var interns []models.Intern
	testutil.ParseJSON(t, resp, &interns)
	if len(interns) != 1 || interns[0].ID != id || interns[0].Status != models.InternStatusActive {
		t.Fatalf("Unexpected interns %+v", interns)
	}
	if got := interns[0].Skills.Slice(); len(got) != 2 || got[1] != "SQL" {
		t.Errorf("Expected skills split from a string, got %v", got)
	}

	resp = s.do(t, "GET", "/api/interns/lookup?email=%20ANN@X.COM", admin, nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	resp = s.do(t, "GET", "/api/interns/lookup?email=nobody@x.com", admin, nil)
	testutil.AssertStatus(t, resp, fiber.StatusNotFound)

	resp = s.do(t, "GET", "/api/notifications", admin, nil)
	var notices []appstate.Notice
	testutil.ParseJSON(t, resp, &notices)
	if len(notices) != 1 || !strings.Contains(notices[0].Message, "ann@x.com / intern123") {
		t.Errorf("Expected credentials notice, got %+v", notices)
	}

	intern := s.login(t, "ann@x.com", "intern123")
	resp = s.do(t, "GET", "/api/auth/me", intern, nil)
	var me handlers.MeResponse
	testutil.ParseJSON(t, resp, &me)
	if me.User.ID != id || me.User.Role != models.RoleIntern {
		t.Errorf("Unexpected intern user %+v", me.User)
	}

	resp = s.do(t, "GET", "/api/interns", intern, nil)
	testutil.AssertStatus(t, resp, fiber.StatusForbidden)

	resp = s.do(t, "POST", "/api/interns", admin, fiber.Map{"name": "Dup", "email": "ann@x.com"})
	testutil.AssertStatus(t, resp, fiber.StatusConflict)
}

// TestTaskVisibility tests that interns only see and move their own tasks
func TestTaskVisibility(t *testing.T) {
	s := setupServer(t)
	admin := s.login(t, "admin@x.com", "adminpw")
	annID := s.addIntern(t, admin, "Ann", "ann@x.com")
	boID := s.addIntern(t, admin, "Bo", "bo@x.com")

	var taskIDs []string
	for _, task := range []fiber.Map{
		{"title": "Ann task", "assignedToId": annID, "priority": "High", "deadline": "2026-03-10"},
		{"title": "Bo task", "assignedToId": boID, "status": "In Progress"},
	} {
		resp := s.do(t, "POST", "/api/tasks", admin, task)
		testutil.AssertStatus(t, resp, fiber.StatusCreated)
		var result utils.SuccessResponseStruct
		testutil.ParseJSON(t, resp, &result)
		taskIDs = append(taskIDs, result.ID)
	}

	resp := s.do(t, "GET", "/api/tasks?status=To%20Do,Completed", admin, nil)
	var tasks []models.Task
	testutil.ParseJSON(t, resp, &tasks)
	if len(tasks) != 1 || tasks[0].AssignedTo != "Ann" {
		t.Errorf("Expected Ann's task with a name snapshot, got %+v", tasks)
	}

	ann := s.login(t, "ann@x.com", "intern123")
	resp = s.do(t, "GET", "/api/tasks", ann, nil)
	tasks = nil
	testutil.ParseJSON(t, resp, &tasks)
	if len(tasks) != 1 || tasks[0].ID != taskIDs[0] {
		t.Errorf("Expected only Ann's task, got %+v", tasks)
	}

	resp = s.do(t, "PATCH", "/api/tasks/"+taskIDs[0]+"/status", ann, fiber.Map{"status": "Completed"})
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	resp = s.do(t, "PATCH", "/api/tasks/"+taskIDs[1]+"/status", ann, fiber.Map{"status": "Completed"})
	testutil.AssertStatus(t, resp, fiber.StatusNotFound)
	resp = s.do(t, "PATCH", "/api/tasks/"+taskIDs[0]+"/status", ann, fiber.Map{"status": "Done"})
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)
	resp = s.do(t, "POST", "/api/tasks", ann, fiber.Map{"title": "x", "assignedToId": annID})
	testutil.AssertStatus(t, resp, fiber.StatusForbidden)

	resp = s.do(t, "GET", "/api/dashboard?fresh=true", ann, nil)
	var d appstate.Dashboard
	testutil.ParseJSON(t, resp, &d)
	if d.Role != models.RoleIntern || d.CompletedTasks != 1 || d.PendingTasks != 0 {
		t.Errorf("Unexpected intern dashboard %+v", d)
	}
}

// TestUpdateValidation tests partial update bodies and missing documents
func TestUpdateValidation(t *testing.T) {
	s := setupServer(t)
	admin := s.login(t, "admin@x.com", "adminpw")

	resp := s.do(t, "POST", "/api/tasks", admin, fiber.Map{"assignedToId": "i1"})
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)
	var envelope utils.ErrorResponseStruct
	testutil.ParseJSON(t, resp, &envelope)
	if envelope.Type != "validation" || !strings.Contains(envelope.Message, "Title") {
		t.Errorf("Unexpected validation envelope %+v", envelope)
	}

	resp = s.do(t, "PATCH", "/api/tasks/missing", admin, fiber.Map{"title": "x"})
	testutil.AssertStatus(t, resp, fiber.StatusNotFound)

	resp = s.do(t, "PATCH", "/api/tasks/missing", admin, fiber.Map{"createdAt": "x"})
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)

	resp = s.do(t, "POST", "/api/performances", admin, fiber.Map{"internId": "i1", "rating": 7})
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)

	resp = s.do(t, "POST", "/api/performances", admin, fiber.Map{"internId": "i1", "rating": 4.5, "tasksCompleted": "3"})
	testutil.AssertStatus(t, resp, fiber.StatusCreated)
	var created utils.SuccessResponseStruct
	testutil.ParseJSON(t, resp, &created)

	resp = s.do(t, "PATCH", "/api/performances/"+created.ID, admin, fiber.Map{"rating": "high"})
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)
	resp = s.do(t, "PATCH", "/api/performances/"+created.ID, admin, fiber.Map{"rating": 3})
	testutil.AssertStatus(t, resp, fiber.StatusOK)

	resp = s.do(t, "GET", "/api/performances?internId=i1", admin, nil)
	var reviews []models.Performance
	testutil.ParseJSON(t, resp, &reviews)
	if len(reviews) != 1 || reviews[0].Rating != 3 || reviews[0].TasksCompleted != 3 {
		t.Errorf("Unexpected reviews %+v", reviews)
	}
}

// TestAttendanceFilters tests the role and date filters
func TestAttendanceFilters(t *testing.T) {
	s := setupServer(t)
	admin := s.login(t, "admin@x.com", "adminpw")
	annID := s.addIntern(t, admin, "Ann", "ann@x.com")

	for _, rec := range []fiber.Map{
		{"internId": annID, "date": "2026-03-01", "status": "Present", "checkIn": "09:00"},
		{"internId": annID, "date": "2026-03-02", "status": "Half Day"},
		{"internId": "other", "date": "2026-03-01", "status": "Leave"},
	} {
		testutil.AssertStatus(t, s.do(t, "POST", "/api/attendance", admin, rec), fiber.StatusCreated)
	}
	resp := s.do(t, "POST", "/api/attendance", admin, fiber.Map{"internId": annID, "status": "Sick"})
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)

	resp = s.do(t, "GET", "/api/attendance?date=2026-03-01", admin, nil)
	var records []models.Attendance
	testutil.ParseJSON(t, resp, &records)
	if len(records) != 2 {
		t.Errorf("Expected 2 records on 2026-03-01, got %d", len(records))
	}

	ann := s.login(t, "ann@x.com", "intern123")
	resp = s.do(t, "GET", "/api/attendance?internId=other", ann, nil)
	records = nil
	testutil.ParseJSON(t, resp, &records)
	if len(records) != 2 {
		t.Fatalf("Expected Ann's 2 records, got %+v", records)
	}
	for _, r := range records {
		if r.InternID != annID {
			t.Errorf("Intern saw another intern's record %+v", r)
		}
	}
}

// TestChatFlow tests chat creation, messaging, read markers and participant checks
func TestChatFlow(t *testing.T) {
	s := setupServer(t)
	admin := s.login(t, "admin@x.com", "adminpw")
	annID := s.addIntern(t, admin, "Ann", "ann@x.com")
	s.addIntern(t, admin, "Bo", "bo@x.com")

	resp := s.do(t, "POST", "/api/chats", admin, fiber.Map{"participantId": annID})
	testutil.AssertStatus(t, resp, fiber.StatusCreated)
	var created utils.SuccessResponseStruct
	testutil.ParseJSON(t, resp, &created)

	resp = s.do(t, "POST", "/api/chats", admin, fiber.Map{"participantId": annID})
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var again utils.SuccessResponseStruct
	testutil.ParseJSON(t, resp, &again)
	if again.ID != created.ID {
		t.Errorf("Expected the existing chat %s, got %s", created.ID, again.ID)
	}

	ann := s.login(t, "ann@x.com", "intern123")
	resp = s.do(t, "POST", "/api/chats/"+created.ID+"/messages", ann, fiber.Map{"content": "  hello  "})
	testutil.AssertStatus(t, resp, fiber.StatusCreated)
	resp = s.do(t, "POST", "/api/chats/"+created.ID+"/messages", ann, fiber.Map{"content": "   "})
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)

	resp = s.do(t, "GET", "/api/chats/"+created.ID+"/messages", admin, nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var msgs []models.Message
	testutil.ParseJSON(t, resp, &msgs)
	if len(msgs) != 1 || msgs[0].Content != "hello" || msgs[0].IsOwn || msgs[0].Sender != "Ann" {
		t.Errorf("Unexpected messages for admin %+v", msgs)
	}

	resp = s.do(t, "GET", "/api/chats?fresh=1", admin, nil)
	var chats []models.Chat
	testutil.ParseJSON(t, resp, &chats)
	if len(chats) != 1 || chats[0].LastMessage != "hello" || chats[0].Name != "Ann" {
		t.Errorf("Unexpected chat summary %+v", chats)
	}

	resp = s.do(t, "POST", "/api/chats/"+created.ID+"/read", ann, nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)

	bo := s.login(t, "bo@x.com", "intern123")
	resp = s.do(t, "GET", "/api/chats/"+created.ID+"/messages", bo, nil)
	testutil.AssertStatus(t, resp, fiber.StatusNotFound)
	resp = s.do(t, "GET", "/api/chats", bo, nil)
	chats = nil
	testutil.ParseJSON(t, resp, &chats)
	if len(chats) != 0 {
		t.Errorf("Expected no chats for Bo, got %+v", chats)
	}
}

// TestThemePasswordLogout tests settings, password change and sign out
func TestThemePasswordLogout(t *testing.T) {
	s := setupServer(t)
	token := s.login(t, "admin@x.com", "adminpw")

	resp := s.do(t, "PUT", "/api/settings/theme", token, fiber.Map{"theme": "dark"})
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	resp = s.do(t, "PUT", "/api/settings/theme", token, fiber.Map{"theme": "blue"})
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)

	resp = s.do(t, "POST", "/api/auth/password", token, fiber.Map{"newPassword": "secret1", "confirmPassword": "secret2"})
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)
	resp = s.do(t, "POST", "/api/auth/password", token, fiber.Map{"newPassword": "abc", "confirmPassword": "abc"})
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)
	resp = s.do(t, "POST", "/api/auth/password", token, fiber.Map{"newPassword": "secret1", "confirmPassword": "secret1"})
	testutil.AssertStatus(t, resp, fiber.StatusOK)

	resp = s.do(t, "POST", "/api/auth/logout", token, nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	if n := s.manager.Count(); n != 0 {
		t.Errorf("Expected no live sessions after logout, got %d", n)
	}
	resp = s.do(t, "GET", "/api/auth/me", token, nil)
	testutil.AssertStatus(t, resp, fiber.StatusUnauthorized)

	next := s.login(t, "admin@x.com", "secret1")
	resp = s.do(t, "GET", "/api/settings/theme", next, nil)
	var theme handlers.ThemeResponse
	testutil.ParseJSON(t, resp, &theme)
	if theme.Theme != "dark" {
		t.Errorf("Expected the stored dark theme, got %q", theme.Theme)
	}
}

// TestHealthHandler tests the health endpoint on a reachable database
func TestHealthHandler(t *testing.T) {
	s := setupServer(t)
	cfg := config.Default()
	h := &handlers.HealthHandler{Config: cfg, DB: s.db, Provider: s.provider}
	s.app.Get("/health", h.Check)

	resp := s.do(t, "GET", "/health", "", nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var result services.HealthCheckResult
	testutil.ParseJSON(t, resp, &result)
	if result.Status != "healthy" || result.Database != "ok" || result.Identity != "ok" {
		t.Errorf("Unexpected health result %+v", result)
	}
}
