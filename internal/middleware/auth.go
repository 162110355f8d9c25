// auth.go
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

package middleware

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/internportal/internal/identity"
	"github.com/localnerve/internportal/internal/services"
	"github.com/localnerve/internportal/internal/types"
)

const sessionKey = "session"

// SessionCookie is read when no Authorization header is present.
const SessionCookie = "internportal_session"

// Session resolves the bearer token to a live session and stores it in context
func Session(manager *services.SessionManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := Token(c)
		if token == "" {
			return types.Unauthorized("Bearer token not found")
		}

		sess, err := manager.Get(c.UserContext(), token)
		switch {
		case err == nil:
		case errors.Is(err, services.ErrInternNotFound):
			return types.Forbidden("No intern record for this login")
		case errors.Is(err, identity.ErrInvalidToken), errors.Is(err, identity.ErrNotSignedIn):
			return types.Unauthorized(fmt.Sprintf("Invalid session: %v", err))
		default:
			return err
		}

		c.Locals(sessionKey, sess)
		return c.Next()
	}
}

// RequireRole rejects sessions whose user holds none of roles. It must run
// after Session.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := CurrentSession(c)
		if sess == nil {
			return types.Unauthorized("Not signed in")
		}
		if !slices.Contains(roles, sess.User.Role) {
			return types.Forbidden(fmt.Sprintf("Requires role %s", strings.Join(roles, " or ")))
		}
		return c.Next()
	}
}

// CurrentSession returns the session stored by Session, or nil.
func CurrentSession(c *fiber.Ctx) *services.Session {
	sess, _ := c.Locals(sessionKey).(*services.Session)
	return sess
}

// Token extracts the session token from the Authorization header or the
// session cookie. The result is safe to keep beyond the request.
func Token(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.Clone(strings.TrimSpace(token))
	}
	return strings.Clone(c.Cookies(SessionCookie))
}
