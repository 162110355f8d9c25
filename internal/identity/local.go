// local.go
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

package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/localnerve/internportal/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LocalProvider keeps accounts in the application database and issues
// HS256 tokens. Sign out revokes the token id until it would have expired.
type LocalProvider struct {
	db     *gorm.DB
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

// LocalOption configures a LocalProvider.
type LocalOption func(*LocalProvider)

// WithLocalClock replaces the time source used to issue and check tokens.
func WithLocalClock(now func() time.Time) LocalOption {
	return func(p *LocalProvider) { p.now = now }
}

// NewLocalProvider creates a provider over the accounts table.
func NewLocalProvider(db *gorm.DB, secret []byte, ttl time.Duration, opts ...LocalOption) *LocalProvider {
	p := &LocalProvider{
		db:      db,
		secret:  secret,
		ttl:     ttl,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements Provider.
func (p *LocalProvider) Name() string { return "local" }

// NewSession implements Provider.
func (p *LocalProvider) NewSession() Session {
	return &localSession{p: p}
}

// Ping checks the accounts database.
func (p *LocalProvider) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

type claims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Validate implements Provider. The account must still exist.
func (p *LocalProvider) Validate(ctx context.Context, token string) (*Identity, error) {
	c, err := p.parse(token)
	if err != nil {
		return nil, err
	}
	var account models.Account
	if err := p.db.WithContext(ctx).Where("uid = ?", c.UID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	return &Identity{UID: account.UID, Email: account.Email}, nil
}

// EnsureAccount creates the account when the email is not yet registered
// and returns the identity either way. The password of an existing account
// is left alone.
func (p *LocalProvider) EnsureAccount(ctx context.Context, email, password string) (*Identity, error) {
	var account models.Account
	err := p.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&account).Error
	if err == nil {
		return &Identity{UID: account.UID, Email: account.Email}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return p.createAccount(ctx, email, password)
}

func (p *LocalProvider) createAccount(ctx context.Context, email, password string) (*Identity, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrInvalidCredentials
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := models.Account{UID: uuid.NewString(), Email: email, PasswordHash: string(hash)}
	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Account{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}
		return tx.Create(&account).Error
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return &Identity{UID: account.UID, Email: account.Email}, nil
}

func (p *LocalProvider) authenticate(ctx context.Context, email, password string) (*Identity, error) {
	var account models.Account
	err := p.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &Identity{UID: account.UID, Email: account.Email}, nil
}

func (p *LocalProvider) setPassword(ctx context.Context, uid, password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	res := p.db.WithContext(ctx).Model(&models.Account{}).Where("uid = ?", uid).Update("password_hash", string(hash))
	if res.Error != nil {
		return fmt.Errorf("update password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotSignedIn
	}
	return nil
}

func (p *LocalProvider) issue(id *Identity) (string, error) {
	now := p.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UID:   id.UID,
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	})
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (p *LocalProvider) parse(token string) (*claims, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(p.now))
	if err != nil || c.UID == "" {
		return nil, ErrInvalidToken
	}
	if p.isRevoked(c.ID) {
		return nil, ErrInvalidToken
	}
	return &c, nil
}

func (p *LocalProvider) revoke(token string) {
	c, err := p.parse(token)
	if err != nil || c.ID == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	for id, exp := range p.revoked {
		if exp.Before(now) {
			delete(p.revoked, id)
		}
	}
	p.revoked[c.ID] = c.ExpiresAt.Time
}

func (p *LocalProvider) isRevoked(tokenID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.revoked[tokenID]
	return ok
}

type localSession struct {
	state
	p *LocalProvider
}

func (s *localSession) SignIn(ctx context.Context, email, password string) error {
	id, err := s.p.authenticate(ctx, email, password)
	if err != nil {
		return err
	}
	return s.adopt(id)
}

func (s *localSession) SignUp(ctx context.Context, email, password string) (*Identity, error) {
	id, err := s.p.createAccount(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.adopt(id); err != nil {
		return nil, err
	}
	return id, nil
}

func (s *localSession) SignOut(ctx context.Context) error {
	if token := s.Token(); token != "" {
		s.p.revoke(token)
	}
	s.set(nil, "")
	return nil
}

func (s *localSession) Resume(ctx context.Context, token string) error {
	id, err := s.p.Validate(ctx, token)
	if err != nil {
		return err
	}
	s.set(id, token)
	return nil
}

func (s *localSession) ChangePassword(ctx context.Context, newPassword string) error {
	id := s.Current()
	if id == nil {
		return ErrNotSignedIn
	}
	return s.p.setPassword(ctx, id.UID, newPassword)
}

func (s *localSession) adopt(id *Identity) error {
	token, err := s.p.issue(id)
	if err != nil {
		return err
	}
	s.set(id, token)
	return nil
}
