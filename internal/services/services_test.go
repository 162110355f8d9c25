package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/localnerve/internportal/internal/appstate"
	"github.com/localnerve/internportal/internal/config"
	"github.com/localnerve/internportal/internal/gateway"
	"github.com/localnerve/internportal/internal/identity"
	"github.com/localnerve/internportal/internal/models"
	"github.com/localnerve/internportal/internal/services"
	"github.com/localnerve/internportal/internal/testutil"
	"gorm.io/gorm"
)

type env struct {
	db       *gorm.DB
	provider *identity.LocalProvider
	svc      *gateway.Services
	manager  *services.SessionManager
}

func setupEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.OpenDB(t)
	provider := identity.NewLocalProvider(db, []byte("test-secret"), time.Hour)
	svc := gateway.NewServices(gateway.New(db), identity.NewRegistrar(provider))
	resolver := services.NewResolver(svc.Interns, "Admin@X.com", "Head Mentor")
	manager := services.NewSessionManager(provider, resolver, svc, appstate.Options{DefaultPassword: "intern123"})
	t.Cleanup(manager.Close)

	if _, err := provider.EnsureAccount(context.Background(), "admin@x.com", "adminpw"); err != nil {
		t.Fatalf("EnsureAccount failed: %v", err)
	}
	return &env{db: db, provider: provider, svc: svc, manager: manager}
}

// TestResolveAdmin tests the administrator shortcut
func TestResolveAdmin(t *testing.T) {
	e := setupEnv(t)
	user, err := e.manager.Resolver().Resolve(context.Background(), &identity.Identity{UID: "u-admin", Email: " admin@x.COM"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if user.ID != models.AdminID || user.Role != models.RoleAdmin || user.Name != "Head Mentor" || user.UID != "u-admin" {
		t.Errorf("Unexpected admin user %+v", user)
	}
}

// TestResolveIntern tests lookup by uid and the missing record error
func TestResolveIntern(t *testing.T) {
	ctx := context.Background()
	e := setupEnv(t)
	e.svc.Interns.Set(ctx, "uid-1", models.Intern{Name: "Ann Lee", Email: "ann@x.com", UID: "uid-1"}, false)

	user, err := e.manager.Resolver().Resolve(ctx, &identity.Identity{UID: "uid-1", Email: "ann@x.com"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if user.ID != "uid-1" || user.Role != models.RoleIntern || user.Name != "Ann Lee" {
		t.Errorf("Unexpected intern user %+v", user)
	}

	if _, err := e.manager.Resolver().Resolve(ctx, &identity.Identity{UID: "uid-9", Email: "z@x.com"}); !errors.Is(err, services.ErrInternNotFound) {
		t.Errorf("Expected ErrInternNotFound, got %v", err)
	}
	if _, err := e.manager.Resolver().Resolve(ctx, nil); !errors.Is(err, identity.ErrNotSignedIn) {
		t.Errorf("Expected ErrNotSignedIn, got %v", err)
	}
}

// TestLoginLifecycle tests login, lookup by token, logout and teardown
func TestLoginLifecycle(t *testing.T) {
	ctx := context.Background()
	e := setupEnv(t)

	sess, err := e.manager.Login(ctx, "admin@x.com", "adminpw")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !sess.User.IsAdmin() || sess.Store == nil {
		t.Fatalf("Unexpected session %+v", sess)
	}
	token := sess.Auth.Token()

	got, err := e.manager.Get(ctx, token)
	if err != nil || got != sess {
		t.Fatalf("Expected the same session back, got %v %v", got, err)
	}
	if e.manager.Count() != 1 {
		t.Errorf("Expected 1 live session, got %d", e.manager.Count())
	}

	if err := e.manager.Logout(ctx, token); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if e.manager.Count() != 0 {
		t.Errorf("Expected teardown on sign out, got %d sessions", e.manager.Count())
	}
	if _, err := e.manager.Get(ctx, token); !errors.Is(err, identity.ErrInvalidToken) {
		t.Errorf("Expected a revoked token, got %v", err)
	}
}

// TestGetRebuildsSession tests rebuilding a session from a token issued elsewhere
func TestGetRebuildsSession(t *testing.T) {
	ctx := context.Background()
	e := setupEnv(t)

	other := e.provider.NewSession()
	if err := other.SignIn(ctx, "admin@x.com", "adminpw"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	sess, err := e.manager.Get(ctx, other.Token())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !sess.User.IsAdmin() {
		t.Errorf("Expected admin user, got %+v", sess.User)
	}
}

// TestLoginWithoutInternRecord tests that an orphaned login is signed back out
func TestLoginWithoutInternRecord(t *testing.T) {
	ctx := context.Background()
	e := setupEnv(t)
	e.provider.NewSession().SignUp(ctx, "orphan@x.com", "secret1")

	if _, err := e.manager.Login(ctx, "orphan@x.com", "secret1"); !errors.Is(err, services.ErrInternNotFound) {
		t.Fatalf("Expected ErrInternNotFound, got %v", err)
	}
	if e.manager.Count() != 0 {
		t.Errorf("Expected no live sessions, got %d", e.manager.Count())
	}
}

// TestInternLoginAfterRegistration tests the full onboarding path
func TestInternLoginAfterRegistration(t *testing.T) {
	ctx := context.Background()
	e := setupEnv(t)

	admin, _ := e.manager.Login(ctx, "admin@x.com", "adminpw")
	id, err := admin.Store.AddIntern(ctx, models.Intern{Name: "Ann Lee", Email: "ann@x.com"})
	if err != nil {
		t.Fatalf("AddIntern failed: %v", err)
	}

	intern, err := e.manager.Login(ctx, "ann@x.com", "intern123")
	if err != nil {
		t.Fatalf("Intern login failed: %v", err)
	}
	if intern.User.ID != id || intern.User.Role != models.RoleIntern {
		t.Errorf("Unexpected intern user %+v", intern.User)
	}
	if admin.Auth.Current() == nil {
		t.Error("Expected the admin to stay signed in")
	}
}

// TestExpiredTokenEndsSession tests that a cached session dies with its token
// and that idle sessions are swept
func TestExpiredTokenEndsSession(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	clock := testutil.NewClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	provider := identity.NewLocalProvider(db, []byte("test-secret"), time.Hour, identity.WithLocalClock(clock.Now))
	svc := gateway.NewServices(gateway.New(db), identity.NewRegistrar(provider))
	resolver := services.NewResolver(svc.Interns, "admin@x.com", "Head Mentor")
	manager := services.NewSessionManager(provider, resolver, svc, appstate.Options{},
		services.WithIdleTimeout(30*time.Minute), services.WithClock(clock.Now))
	t.Cleanup(manager.Close)
	if _, err := provider.EnsureAccount(ctx, "admin@x.com", "adminpw"); err != nil {
		t.Fatalf("EnsureAccount failed: %v", err)
	}

	first, _ := manager.Login(ctx, "admin@x.com", "adminpw")
	if _, err := manager.Login(ctx, "admin@x.com", "adminpw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if manager.Count() != 2 {
		t.Fatalf("Expected 2 live sessions, got %d", manager.Count())
	}

	clock.Advance(2 * time.Hour)
	if _, err := manager.Get(ctx, first.Auth.Token()); !errors.Is(err, identity.ErrInvalidToken) {
		t.Errorf("Expected an expired token to be rejected, got %v", err)
	}
	if manager.Count() != 1 {
		t.Errorf("Expected the expired session torn down, got %d sessions", manager.Count())
	}

	if _, err := manager.Login(ctx, "admin@x.com", "adminpw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if manager.Count() != 1 {
		t.Errorf("Expected the idle session swept, got %d sessions", manager.Count())
	}
}

// TestSignOutElsewhereEndsSession tests a token revoked through another client
func TestSignOutElsewhereEndsSession(t *testing.T) {
	ctx := context.Background()
	e := setupEnv(t)

	sess, _ := e.manager.Login(ctx, "admin@x.com", "adminpw")
	token := sess.Auth.Token()

	other := e.provider.NewSession()
	if err := other.Resume(ctx, token); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if err := other.SignOut(ctx); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}

	if _, err := e.manager.Get(ctx, token); !errors.Is(err, identity.ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}
	if e.manager.Count() != 0 {
		t.Errorf("Expected no live sessions, got %d", e.manager.Count())
	}
}

// TestDeletedInternLosesSession tests that removing an intern ends their live session
func TestDeletedInternLosesSession(t *testing.T) {
	ctx := context.Background()
	e := setupEnv(t)

	admin, _ := e.manager.Login(ctx, "admin@x.com", "adminpw")
	id, err := admin.Store.AddIntern(ctx, models.Intern{Name: "Ann Lee", Email: "ann@x.com"})
	if err != nil {
		t.Fatalf("AddIntern failed: %v", err)
	}
	intern, err := e.manager.Login(ctx, "ann@x.com", "intern123")
	if err != nil {
		t.Fatalf("Intern login failed: %v", err)
	}
	token := intern.Auth.Token()

	if _, err := e.manager.Get(ctx, token); err != nil {
		t.Fatalf("Expected the intern session to be live, got %v", err)
	}
	if err := admin.Store.DeleteIntern(ctx, id); err != nil {
		t.Fatalf("DeleteIntern failed: %v", err)
	}

	if _, err := e.manager.Get(ctx, token); !errors.Is(err, services.ErrInternNotFound) {
		t.Errorf("Expected ErrInternNotFound, got %v", err)
	}
	if intern.Auth.Current() != nil {
		t.Error("Expected the intern to be signed out")
	}
	if e.manager.Count() != 1 {
		t.Errorf("Expected only the admin session left, got %d", e.manager.Count())
	}
}

// TestChangePassword tests confirmation and length checks
func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	e := setupEnv(t)
	sess, _ := e.manager.Login(ctx, "admin@x.com", "adminpw")

	if err := e.manager.ChangePassword(ctx, sess, "newpass1", "newpass2"); !errors.Is(err, services.ErrPasswordMismatch) {
		t.Errorf("Expected ErrPasswordMismatch, got %v", err)
	}
	if err := e.manager.ChangePassword(ctx, sess, "abc", "abc"); !errors.Is(err, services.ErrPasswordTooShort) {
		t.Errorf("Expected ErrPasswordTooShort, got %v", err)
	}
	if err := e.manager.ChangePassword(ctx, sess, "newpass1", "newpass1"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}
	if _, err := e.manager.Login(ctx, "admin@x.com", "newpass1"); err != nil {
		t.Errorf("Expected the new password to work, got %v", err)
	}
	notices := sess.Notices.Drain()
	if len(notices) != 1 || notices[0].Level != appstate.LevelSuccess {
		t.Errorf("Expected a success notice, got %+v", notices)
	}
}

// TestHealthCheck tests a healthy database with the local provider
func TestHealthCheck(t *testing.T) {
	e := setupEnv(t)
	cfg := config.Default()

	result := services.HealthCheck(context.Background(), cfg, e.db, e.provider)
	if result.Status != "healthy" || result.Database != "ok" || result.Identity != "ok" {
		t.Errorf("Unexpected health result %+v", result)
	}

	sqlDB, _ := e.db.DB()
	sqlDB.Close()
	result = services.HealthCheck(context.Background(), cfg, e.db, e.provider)
	if result.Status != "unhealthy" || result.Database != "unreachable" {
		t.Errorf("Expected an unhealthy result, got %+v", result)
	}
}
