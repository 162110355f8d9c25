// identity.go
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

// Package identity is the boundary to the login identity provider.
package identity

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/localnerve/internportal/internal/logger"
)

// MinPasswordLength is the shortest password any provider accepts.
const MinPasswordLength = 6

// Provider errors
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrNotSignedIn        = errors.New("not signed in")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Identity is a signed in login.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// Provider issues sessions and validates their tokens.
type Provider interface {
	// NewSession returns an independent, signed out session.
	NewSession() Session
	// Validate resolves a session token to its identity.
	Validate(ctx context.Context, token string) (*Identity, error)
	// Ping checks that the provider is reachable.
	Ping(ctx context.Context) error
	// Name identifies the provider in logs and health output.
	Name() string
}

// Session is one signed in (or signed out) client of the provider. Sessions
// are independent: signing one in or out never affects another.
type Session interface {
	SignIn(ctx context.Context, email, password string) error
	// SignUp creates an account and signs this session in as it.
	SignUp(ctx context.Context, email, password string) (*Identity, error)
	SignOut(ctx context.Context) error
	// Resume adopts an existing token, as after a process restart.
	Resume(ctx context.Context, token string) error
	ChangePassword(ctx context.Context, newPassword string) error
	Current() *Identity
	Token() string
	// OnChange registers fn for identity changes; nil means signed out.
	OnChange(fn func(*Identity)) (cancel func())
}

// NormalizeEmail lowercases and trims an address for comparison and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// state tracks the current identity of a session and notifies watchers.
type state struct {
	mu       sync.Mutex
	current  *Identity
	token    string
	next     int
	watchers map[int]func(*Identity)
}

func (s *state) set(id *Identity, token string) {
	s.mu.Lock()
	s.current = id
	s.token = token
	fns := make([]func(*Identity), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(id)
	}
}

// Current returns the signed in identity or nil.
func (s *state) Current() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	id := *s.current
	return &id
}

// Token returns the session token or "".
func (s *state) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// OnChange registers a watcher.
func (s *state) OnChange(fn func(*Identity)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watchers == nil {
		s.watchers = make(map[int]func(*Identity))
	}
	key := s.next
	s.next++
	s.watchers[key] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.watchers, key)
	}
}

// IsolatedRegistrar creates accounts through a throwaway session that is
// signed out right after, so the caller's own session is never touched.
type IsolatedRegistrar struct {
	provider Provider
}

// NewRegistrar returns an IsolatedRegistrar over p.
func NewRegistrar(p Provider) *IsolatedRegistrar {
	return &IsolatedRegistrar{provider: p}
}

// Register creates the account and returns its uid.
func (r *IsolatedRegistrar) Register(ctx context.Context, email, password string) (string, error) {
	secondary := r.provider.NewSession()
	id, err := secondary.SignUp(ctx, email, password)
	if err != nil {
		return "", err
	}
	if err := secondary.SignOut(ctx); err != nil {
		logger.Warn("secondary session sign out failed", "provider", r.provider.Name(), "err", err)
	}
	return id.UID, nil
}
