// common.go
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

package handlers

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/internportal/internal/gateway"
	"github.com/localnerve/internportal/internal/middleware"
	"github.com/localnerve/internportal/internal/services"
	"github.com/localnerve/internportal/internal/types"
)

// API serves the HTTP surface on top of the session manager.
type API struct {
	Sessions *services.SessionManager
	Validate *validator.Validate
}

// NewAPI creates the API handlers
func NewAPI(sessions *services.SessionManager) *API {
	return &API{
		Sessions: sessions,
		Validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// bind parses the JSON body into req and validates it
func (h *API) bind(c *fiber.Ctx, req any) error {
	if len(c.Body()) == 0 {
		return types.Invalid("Request body is required")
	}
	if err := c.BodyParser(req); err != nil {
		return types.Invalid(fmt.Sprintf("Malformed request body: %v", err))
	}
	if err := h.Validate.Struct(req); err != nil {
		return types.Invalid(validationMessage(err))
	}
	return nil
}

// validationMessage flattens validator errors into one line
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s %s", fe.Field(), fe.Tag(), fe.Param()))
		}
	}
	return strings.Join(parts, "; ")
}

// parsePatch reads a partial update body, allowing only the listed keys
func parsePatch(c *fiber.Ctx, allowed ...string) (gateway.Fields, error) {
	fields := gateway.Fields{}
	if err := c.BodyParser(&fields); err != nil {
		return nil, types.Invalid(fmt.Sprintf("Malformed request body: %v", err))
	}
	if len(fields) == 0 {
		return nil, types.Invalid("No fields to update")
	}
	for key := range fields {
		if !slices.Contains(allowed, key) {
			return nil, types.Invalid(fmt.Sprintf("Field '%s' cannot be updated", key))
		}
	}
	return fields, nil
}

// parseQueryList extracts values for key from query parameters,
// supporting both repeated keys and comma-separated values.
func parseQueryList(c *fiber.Ctx, key string) []string {
	seen := make(map[string]struct{})
	var values []string

	args := c.Context().QueryArgs()
	for k, value := range args.All() {
		if string(k) != key {
			continue
		}
		for _, v := range strings.Split(string(value), ",") {
			v = strings.TrimSpace(v)
			if _, dup := seen[v]; v != "" && !dup {
				seen[v] = struct{}{}
				values = append(values, v)
			}
		}
	}
	return values
}

// session returns the request session; routes are always behind middleware.Session
func session(c *fiber.Ctx) (*services.Session, error) {
	sess := middleware.CurrentSession(c)
	if sess == nil {
		return nil, types.Unauthorized("Not signed in")
	}
	return sess, nil
}
