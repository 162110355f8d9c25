// sessions.go
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

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/localnerve/internportal/internal/appstate"
	"github.com/localnerve/internportal/internal/gateway"
	"github.com/localnerve/internportal/internal/identity"
	"github.com/localnerve/internportal/internal/logger"
	"github.com/localnerve/internportal/internal/models"
)

// Password change errors
var (
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", identity.MinPasswordLength)
)

// Session binds a signed in identity to its user, cache and notices.
type Session struct {
	Auth    identity.Session
	User    *models.AppUser
	Store   *appstate.Store
	Notices *appstate.NoticeLog

	cancel   func()
	lastSeen atomic.Int64
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}

// DefaultIdleTimeout is how long an unused session is kept in memory.
const DefaultIdleTimeout = 24 * time.Hour

// ManagerOption configures a SessionManager.
type ManagerOption func(*SessionManager)

// WithIdleTimeout evicts sessions unused for longer than d.
func WithIdleTimeout(d time.Duration) ManagerOption {
	return func(m *SessionManager) { m.idle = d }
}

// WithClock replaces the time source used for idle tracking.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *SessionManager) { m.now = now }
}

// SessionManager owns the live sessions, keyed by token. A session is built
// when an identity is acquired and torn down when the identity goes away.
type SessionManager struct {
	provider identity.Provider
	resolver *Resolver
	svc      *gateway.Services
	opts     appstate.Options
	idle     time.Duration
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionManager creates a manager. opts.Notifier is replaced per session.
func NewSessionManager(provider identity.Provider, resolver *Resolver, svc *gateway.Services, opts appstate.Options, mopts ...ManagerOption) *SessionManager {
	m := &SessionManager{
		provider: provider,
		resolver: resolver,
		svc:      svc,
		opts:     opts,
		idle:     DefaultIdleTimeout,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, opt := range mopts {
		opt(m)
	}
	return m
}

// Resolver returns the identity resolver.
func (m *SessionManager) Resolver() *Resolver {
	return m.resolver
}

// Provider returns the identity provider.
func (m *SessionManager) Provider() identity.Provider {
	return m.provider
}

// Login signs in and builds the session. A login with no matching intern
// record is signed straight back out.
func (m *SessionManager) Login(ctx context.Context, email, password string) (*Session, error) {
	auth := m.provider.NewSession()
	if err := auth.SignIn(ctx, email, password); err != nil {
		return nil, err
	}
	return m.activate(ctx, auth)
}

// Get returns the live session for token, rebuilding it from the provider
// when this process has not seen the token yet. A cached session is checked
// against the provider on every call and torn down once its token is
// rejected or its intern record is gone.
func (m *SessionManager) Get(ctx context.Context, token string) (*Session, error) {
	m.mu.Lock()
	sess, ok := m.sessions[token]
	m.mu.Unlock()
	if ok {
		if err := m.check(ctx, token, sess); err != nil {
			return nil, err
		}
		sess.touch(m.now())
		return sess, nil
	}

	auth := m.provider.NewSession()
	if err := auth.Resume(ctx, token); err != nil {
		return nil, err
	}
	return m.activate(ctx, auth)
}

// Logout signs the session out; teardown follows from the identity change.
func (m *SessionManager) Logout(ctx context.Context, token string) error {
	m.mu.Lock()
	sess, ok := m.sessions[token]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	return sess.Auth.SignOut(ctx)
}

// ChangePassword validates and applies a new password for the session.
func (m *SessionManager) ChangePassword(ctx context.Context, sess *Session, newPassword, confirm string) error {
	if err := ValidatePasswordChange(newPassword, confirm); err != nil {
		return err
	}
	if err := sess.Auth.ChangePassword(ctx, newPassword); err != nil {
		sess.Notices.Notify(appstate.LevelError, "Failed to update password")
		return err
	}
	sess.Notices.Notify(appstate.LevelSuccess, "Password updated successfully!")
	return nil
}

// ValidatePasswordChange checks the confirmation and the minimum length.
func ValidatePasswordChange(newPassword, confirm string) error {
	if newPassword != confirm {
		return ErrPasswordMismatch
	}
	if len(newPassword) < identity.MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close tears every session down without signing it out.
func (m *SessionManager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, sess := range sessions {
		sess.cancel()
		sess.Store.Close()
	}
}

func (m *SessionManager) check(ctx context.Context, token string, sess *Session) error {
	id, err := m.provider.Validate(ctx, token)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidToken) || errors.Is(err, identity.ErrNotSignedIn) {
			m.teardown(token)
		}
		return err
	}
	if id.UID != sess.User.UID {
		m.teardown(token)
		return identity.ErrInvalidToken
	}
	if sess.User.IsAdmin() {
		return nil
	}

	_, err = m.svc.Interns.Get(ctx, sess.User.ID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gateway.ErrNotFound):
		logger.Warn("intern record removed, signing out", "uid", sess.User.UID)
		if signOutErr := sess.Auth.SignOut(ctx); signOutErr != nil {
			logger.Warn("sign out after removed intern", "err", signOutErr)
		}
		m.teardown(token)
		return ErrInternNotFound
	default:
		return err
	}
}

// sweep tears down sessions left unused for longer than the idle timeout.
func (m *SessionManager) sweep() {
	now := m.now()
	var stale []string
	m.mu.Lock()
	for token, sess := range m.sessions {
		if sess.idleSince(now) > m.idle {
			stale = append(stale, token)
		}
	}
	m.mu.Unlock()
	for _, token := range stale {
		m.teardown(token)
	}
}

func (m *SessionManager) activate(ctx context.Context, auth identity.Session) (*Session, error) {
	id := auth.Current()
	token := strings.Clone(auth.Token())

	user, err := m.resolver.Resolve(ctx, id)
	if err != nil {
		if errors.Is(err, ErrInternNotFound) {
			logger.Warn("signed in identity has no intern record", "uid", id.UID)
			if signOutErr := auth.SignOut(ctx); signOutErr != nil {
				logger.Warn("sign out after failed resolve", "err", signOutErr)
			}
		}
		return nil, err
	}

	notices := appstate.NewNoticeLog(50)
	opts := m.opts
	opts.Notifier = notices
	sess := &Session{
		Auth:    auth,
		User:    user,
		Store:   appstate.New(m.svc, user, opts),
		Notices: notices,
	}
	if err := sess.Store.Load(ctx); err != nil {
		return nil, fmt.Errorf("initial load: %w", err)
	}
	sess.touch(m.now())
	m.sweep()

	m.mu.Lock()
	if existing, ok := m.sessions[token]; ok {
		// a concurrent request for the same token won
		m.mu.Unlock()
		sess.Store.Close()
		return existing, nil
	}
	sess.cancel = auth.OnChange(func(next *identity.Identity) {
		if next == nil {
			m.teardown(token)
		}
	})
	m.sessions[token] = sess
	m.mu.Unlock()

	logger.Info("session started", "uid", user.UID, "role", user.Role)
	return sess, nil
}

func (m *SessionManager) teardown(token string) {
	m.mu.Lock()
	sess, ok := m.sessions[token]
	delete(m.sessions, token)
	m.mu.Unlock()
	if !ok {
		return
	}
	sess.cancel()
	sess.Store.Close()
	logger.Info("session ended", "uid", sess.User.UID)
}
