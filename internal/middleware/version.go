// version.go
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
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/internportal/internal/types"
)

// APIVersion is the version of the HTTP API served by this build.
const APIVersion = "1.0.0"

// VersionMiddleware checks the optional X-Api-Version request header against
// the served major version and echoes the served version back.
func VersionMiddleware() fiber.Handler {
	major, _, _ := strings.Cut(APIVersion, ".")
	return func(c *fiber.Ctx) error {
		c.Set("X-Api-Version", APIVersion)

		requested := strings.TrimPrefix(c.Get("X-Api-Version"), "v")
		if requested == "" {
			return c.Next()
		}
		// Support major-only aliases like "1" or "1.0"
		if m, _, _ := strings.Cut(requested, "."); m != major {
			return types.Invalid("Unsupported API version " + requested + ", this server speaks " + APIVersion)
		}
		c.Locals("apiVersion", requested)
		return c.Next()
	}
}
