package middleware_test

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/internportal/internal/handlers"
	"github.com/localnerve/internportal/internal/middleware"
	"github.com/localnerve/internportal/internal/models"
	"github.com/localnerve/internportal/internal/services"
	"github.com/localnerve/internportal/internal/testutil"
)

func newApp(role string) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Use(middleware.VersionMiddleware())
	app.Use(func(c *fiber.Ctx) error {
		if role != "" {
			c.Locals("session", &services.Session{User: &models.AppUser{ID: "u1", Role: role}})
		}
		return c.Next()
	})
	app.Get("/open", func(c *fiber.Ctx) error {
		return c.SendString(middleware.Token(c))
	})
	app.Get("/admin", middleware.RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

// TestVersionMiddleware tests the response header and major version matching
func TestVersionMiddleware(t *testing.T) {
	app := newApp("")

	cases := []struct {
		header string
		status int
	}{
		{"", fiber.StatusOK},
		{"1", fiber.StatusOK},
		{"v1.2.0", fiber.StatusOK},
		{"2.0.0", fiber.StatusBadRequest},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("GET", "/open", nil)
		if tc.header != "" {
			req.Header.Set("X-Api-Version", tc.header)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		testutil.AssertStatus(t, resp, tc.status)
		if got := resp.Header.Get("X-Api-Version"); got != middleware.APIVersion {
			t.Errorf("Expected X-Api-Version %s, got %q", middleware.APIVersion, got)
		}
	}
}

// TestToken tests token extraction from the header and the cookie
func TestToken(t *testing.T) {
	app := newApp("")

	req := httptest.NewRequest("GET", "/open", nil)
	req.Header.Set("Authorization", "bearer abc")
	resp, _ := app.Test(req)
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "abc" {
		t.Errorf("Expected header token abc, got %q", body)
	}

	req = httptest.NewRequest("GET", "/open", nil)
	req.Header.Set("Cookie", middleware.SessionCookie+"=xyz")
	resp, _ = app.Test(req)
	body, _ = io.ReadAll(resp.Body)
	if string(body) != "xyz" {
		t.Errorf("Expected cookie token xyz, got %q", body)
	}
}

// TestRequireRole tests role gating with and without a session
func TestRequireRole(t *testing.T) {
	cases := []struct {
		role   string
		status int
	}{
		{"", fiber.StatusUnauthorized},
		{models.RoleIntern, fiber.StatusForbidden},
		{models.RoleAdmin, fiber.StatusNoContent},
	}
	for _, tc := range cases {
		resp, err := newApp(tc.role).Test(httptest.NewRequest("GET", "/admin", nil))
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		testutil.AssertStatus(t, resp, tc.status)
	}
}
