// authorizer.go
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
	"encoding/json"
	"fmt"
	"sync"

	authorizer "github.com/localnerve/authorizer-go"
	"github.com/localnerve/internportal/internal/logger"
	"github.com/localnerve/internportal/internal/utils"
)

// AuthorizerProvider delegates accounts to an Authorizer server. Every
// session owns its own client so sessions never share credentials.
type AuthorizerProvider struct {
	clientID    string
	url         string
	redirectURL string

	once      sync.Once
	shared    *authorizer.AuthorizerClient
	sharedErr error
}

// NewAuthorizerProvider configures the provider.
func NewAuthorizerProvider(clientID, authzURL, redirectURL string) *AuthorizerProvider {
	return &AuthorizerProvider{clientID: clientID, url: authzURL, redirectURL: redirectURL}
}

// Name implements Provider.
func (p *AuthorizerProvider) Name() string { return "authorizer" }

// NewSession implements Provider.
func (p *AuthorizerProvider) NewSession() Session {
	return &authorizerSession{p: p}
}

// Ping checks that the Authorizer server accepts connections.
func (p *AuthorizerProvider) Ping(ctx context.Context) error {
	return utils.PingAuthorizer(ctx, p.url)
}

// Validate implements Provider by loading the token's profile.
func (p *AuthorizerProvider) Validate(ctx context.Context, token string) (*Identity, error) {
	client, err := p.client()
	if err != nil {
		return nil, err
	}
	user, err := client.GetProfile(bearer(token))
	if err != nil {
		logger.Debug("authorizer profile lookup failed", "err", err)
		return nil, ErrInvalidToken
	}
	return toIdentity(user)
}

// client returns the shared client used for token validation.
func (p *AuthorizerProvider) client() (*authorizer.AuthorizerClient, error) {
	p.once.Do(func() {
		p.shared, p.sharedErr = p.newClient()
	})
	return p.shared, p.sharedErr
}

func (p *AuthorizerProvider) newClient() (*authorizer.AuthorizerClient, error) {
	client, err := authorizer.NewAuthorizerClient(p.clientID, p.url, p.redirectURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorizer client: %w", err)
	}
	return client, nil
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// toIdentity reads id and email from an Authorizer user value.
func toIdentity(user any) (*Identity, error) {
	raw, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}
	var u struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(raw, &u); err != nil || u.ID == "" {
		return nil, ErrInvalidToken
	}
	return &Identity{UID: u.ID, Email: NormalizeEmail(u.Email)}, nil
}

type authorizerSession struct {
	state
	p        *AuthorizerProvider
	clientMu sync.Mutex
	client   *authorizer.AuthorizerClient
}

func (s *authorizerSession) own() (*authorizer.AuthorizerClient, error) {
	s.clientMu.Lock()
	defer s.clientMu.Unlock()
	if s.client == nil {
		client, err := s.p.newClient()
		if err != nil {
			return nil, err
		}
		s.client = client
	}
	return s.client, nil
}

func (s *authorizerSession) SignIn(ctx context.Context, email, password string) error {
	client, err := s.own()
	if err != nil {
		return err
	}
	email = NormalizeEmail(email)
	res, err := client.Login(&authorizer.LoginInput{Email: &email, Password: password})
	if err != nil {
		logger.Debug("authorizer login failed", "email", email, "err", err)
		return ErrInvalidCredentials
	}
	return s.adopt(res)
}

func (s *authorizerSession) SignUp(ctx context.Context, email, password string) (*Identity, error) {
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	client, err := s.own()
	if err != nil {
		return nil, err
	}
	email = NormalizeEmail(email)
	res, err := client.SignUp(&authorizer.SignUpInput{Email: &email, Password: password, ConfirmPassword: password})
	if err != nil {
		return nil, fmt.Errorf("authorizer signup %s: %w", email, err)
	}
	if err := s.adopt(res); err != nil {
		return nil, err
	}
	return s.Current(), nil
}

func (s *authorizerSession) SignOut(ctx context.Context) error {
	token := s.Token()
	s.set(nil, "")
	if token == "" {
		return nil
	}
	client, err := s.own()
	if err != nil {
		return err
	}
	if _, err := client.Logout(bearer(token)); err != nil {
		return fmt.Errorf("authorizer logout: %w", err)
	}
	return nil
}

func (s *authorizerSession) Resume(ctx context.Context, token string) error {
	id, err := s.p.Validate(ctx, token)
	if err != nil {
		return err
	}
	s.set(id, token)
	return nil
}

func (s *authorizerSession) ChangePassword(ctx context.Context, newPassword string) error {
	token := s.Token()
	if token == "" {
		return ErrNotSignedIn
	}
	if len(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}
	client, err := s.own()
	if err != nil {
		return err
	}
	_, err = client.UpdateProfile(&authorizer.UpdateProfileInput{
		NewPassword:        &newPassword,
		ConfirmNewPassword: &newPassword,
	}, bearer(token))
	if err != nil {
		return fmt.Errorf("authorizer update password: %w", err)
	}
	return nil
}

func (s *authorizerSession) adopt(res *authorizer.AuthTokenResponse) error {
	if res == nil || res.User == nil {
		return ErrInvalidCredentials
	}
	id, err := toIdentity(res.User)
	if err != nil {
		return err
	}
	token := ""
	if res.AccessToken != nil {
		token = *res.AccessToken
	}
	s.set(id, token)
	return nil
}
