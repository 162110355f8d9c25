// bootstrap.go
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
	"fmt"
	"time"

	"github.com/localnerve/internportal/internal/appstate"
	"github.com/localnerve/internportal/internal/config"
	"github.com/localnerve/internportal/internal/gateway"
	"github.com/localnerve/internportal/internal/identity"
	"github.com/localnerve/internportal/internal/logger"
	"gorm.io/gorm"
)

// App is the wired service graph shared by the server and the CLI.
type App struct {
	Provider identity.Provider
	Gateway  *gateway.Gateway
	Services *gateway.Services
	Resolver *Resolver
	Sessions *SessionManager
}

// NewProvider builds the configured identity provider. The local provider
// seeds the administrator account when an admin password is configured.
func NewProvider(ctx context.Context, cfg *config.Config, db *gorm.DB) (identity.Provider, error) {
	switch cfg.IdentityProvider {
	case config.ProviderLocal:
		p := identity.NewLocalProvider(db, []byte(cfg.JWTSecret), time.Duration(cfg.TokenTTLHours)*time.Hour)
		if cfg.AdminPassword != "" {
			if _, err := p.EnsureAccount(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
				return nil, fmt.Errorf("seed admin account: %w", err)
			}
			logger.Info("administrator account ready", "email", cfg.AdminEmail)
		}
		return p, nil
	case config.ProviderAuthorizer:
		return identity.NewAuthorizerProvider(cfg.AuthzClientID, cfg.AuthzURL, cfg.AuthzRedirectURL), nil
	}
	return nil, fmt.Errorf("unsupported identity provider: %s", cfg.IdentityProvider)
}

// NewApp wires the provider, the gateway and the session manager over db.
func NewApp(ctx context.Context, cfg *config.Config, db *gorm.DB) (*App, error) {
	provider, err := NewProvider(ctx, cfg, db)
	if err != nil {
		return nil, err
	}
	gw := gateway.New(db)
	svc := gateway.NewServices(gw, identity.NewRegistrar(provider))
	resolver := NewResolver(svc.Interns, cfg.AdminEmail, cfg.AdminName)
	sessions := NewSessionManager(provider, resolver, svc, appstate.Options{
		DefaultPassword: cfg.DefaultInternPassword,
	}, WithIdleTimeout(time.Duration(cfg.TokenTTLHours)*time.Hour))
	return &App{
		Provider: provider,
		Gateway:  gw,
		Services: svc,
		Resolver: resolver,
		Sessions: sessions,
	}, nil
}
