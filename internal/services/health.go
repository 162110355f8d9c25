// health.go
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

	"github.com/localnerve/internportal/internal/config"
	"github.com/localnerve/internportal/internal/identity"
	"github.com/localnerve/internportal/internal/logger"
	"gorm.io/gorm"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Identity     string            `json:"identity"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

// HealthCheck checks the database and the identity provider
func HealthCheck(ctx context.Context, cfg *config.Config, db *gorm.DB, provider identity.Provider) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}
	fail := func(msg string, err error) {
		result.Status = "unhealthy"
		if result.ErrorMessage == "" {
			result.ErrorMessage = fmt.Sprintf("%s: %v", msg, err)
		} else {
			result.ErrorMessage += fmt.Sprintf("; %s: %v", msg, err)
		}
		logger.Warn("health check failed", "check", msg, "err", err)
	}

	// Check database connectivity
	sqlDB, err := db.DB()
	if err != nil {
		result.Database = "error"
		result.Details["database_error"] = err.Error()
		fail("Database connection error", err)
	} else if err := sqlDB.PingContext(ctx); err != nil {
		result.Database = "unreachable"
		result.Details["database_ping_error"] = err.Error()
		fail("Database ping failed", err)
	} else {
		result.Database = "ok"
		result.Details["database_type"] = cfg.DBType
		result.Details["database_name"] = cfg.DBDatabase
	}

	// Check identity provider connectivity
	result.Details["identity_provider"] = provider.Name()
	if err := provider.Ping(ctx); err != nil {
		result.Identity = "unreachable"
		result.Details["identity_error"] = err.Error()
		fail("Identity provider ping failed", err)
	} else {
		result.Identity = "ok"
		if cfg.IdentityProvider == config.ProviderAuthorizer {
			result.Details["authorizer_url"] = cfg.AuthzURL
		}
	}

	if result.Status == "healthy" {
		logger.Debug("health check passed")
	}

	return result
}
