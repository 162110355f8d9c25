// store.go
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

// Package appstate is the session-scoped cache of application data. Every
// mutation is one remote write followed by a full reload, so reads after a
// successful mutation always reflect it.
package appstate

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/localnerve/internportal/internal/gateway"
	"github.com/localnerve/internportal/internal/logger"
	"github.com/localnerve/internportal/internal/models"
	"golang.org/x/sync/errgroup"
)

// ErrLoadFailed is returned when every collection fetch of a load failed.
var ErrLoadFailed = errors.New("failed to load data")

// DefaultTheme applies until a stored theme is loaded or set.
const DefaultTheme = "light"

// Options configures a Store.
type Options struct {
	// DefaultPassword is assigned to interns created through AddIntern.
	DefaultPassword string
	Notifier        Notifier
	Now             func() time.Time
}

// Store caches every collection for one signed in user.
type Store struct {
	svc  *gateway.Services
	user *models.AppUser
	opts Options

	mu           sync.RWMutex
	interns      []models.Intern
	tasks        []models.Task
	performances []models.Performance
	attendance   []models.Attendance
	chats        []models.Chat
	theme        string
	loading      bool

	pending sync.WaitGroup
}

// New creates an empty Store for user. Call Load before reading.
func New(svc *gateway.Services, user *models.AppUser, opts Options) *Store {
	if opts.Notifier == nil {
		opts.Notifier = discard{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{svc: svc, user: user, opts: opts, theme: DefaultTheme}
}

// User returns the user the store was built for.
func (s *Store) User() *models.AppUser {
	return s.user
}

// Load fetches the five collections concurrently. Each cache slice is
// replaced as soon as its own fetch succeeds; a failed fetch leaves its slice
// as it was. Load fails only when every fetch failed. The user's stored
// theme is applied afterwards.
func (s *Store) Load(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	var (
		g      errgroup.Group
		failed atomic.Int32
	)
	fetch := func(name string, fn func(context.Context) error) {
		g.Go(func() error {
			if err := fn(ctx); err != nil {
				failed.Add(1)
				logger.Warn("appstate load failed", "collection", name, "err", err)
			}
			return nil
		})
	}

	fetch(gateway.CollectionInterns, replace(s, &s.interns, s.svc.Interns.All))
	fetch(gateway.CollectionTasks, replace(s, &s.tasks, s.svc.Tasks.All))
	fetch(gateway.CollectionPerformances, replace(s, &s.performances, s.svc.Performances.All))
	fetch(gateway.CollectionAttendance, replace(s, &s.attendance, s.svc.Attendance.All))
	fetch(gateway.CollectionChats, replace(s, &s.chats, s.svc.Chats.All))
	_ = g.Wait()

	if failed.Load() == 5 {
		s.opts.Notifier.Notify(LevelError, "Failed to load data")
		return ErrLoadFailed
	}

	if s.user != nil && s.user.UID != "" {
		theme, err := s.svc.Settings.Theme(ctx, s.user.UID)
		switch {
		case err != nil:
			logger.Warn("appstate settings load failed", "uid", s.user.UID, "err", err)
		case theme != "":
			s.mu.Lock()
			s.theme = theme
			s.mu.Unlock()
		}
	}
	return nil
}

// Refresh reloads every collection.
func (s *Store) Refresh(ctx context.Context) error {
	return s.Load(ctx)
}

// replace returns a fetch that swaps one cache slice wholesale on success.
func replace[T any](s *Store, dst *[]T, all func(context.Context) ([]T, error)) func(context.Context) error {
	return func(ctx context.Context) error {
		items, err := all(ctx)
		if err != nil {
			return err
		}
		s.mu.Lock()
		*dst = items
		s.mu.Unlock()
		return nil
	}
}

// Loading reports whether a load is in progress.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

// Interns returns a copy of the cached interns.
func (s *Store) Interns() []models.Intern {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.interns)
}

// Tasks returns a copy of the cached tasks.
func (s *Store) Tasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tasks)
}

// Performances returns a copy of the cached performance reviews.
func (s *Store) Performances() []models.Performance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.performances)
}

// Attendance returns a copy of the cached attendance records.
func (s *Store) Attendance() []models.Attendance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.attendance)
}

// Chats returns a copy of the cached chats.
func (s *Store) Chats() []models.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.chats)
}

// Theme returns the current theme.
func (s *Store) Theme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// SetTheme changes the theme immediately and persists it in the background.
// A failed write is logged and does not roll the local change back.
func (s *Store) SetTheme(theme string) {
	s.mu.Lock()
	s.theme = theme
	s.mu.Unlock()

	if s.user == nil || s.user.UID == "" {
		return
	}
	uid := s.user.UID
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.svc.Settings.SaveTheme(ctx, uid, theme); err != nil {
			logger.Warn("theme save failed", "uid", uid, "err", err)
		}
	}()
}

// Close waits for background writes and drops the cache.
func (s *Store) Close() {
	s.pending.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interns = nil
	s.tasks = nil
	s.performances = nil
	s.attendance = nil
	s.chats = nil
}
