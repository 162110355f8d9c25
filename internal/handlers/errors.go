// errors.go
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

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/internportal/internal/appstate"
	"github.com/localnerve/internportal/internal/gateway"
	"github.com/localnerve/internportal/internal/identity"
	"github.com/localnerve/internportal/internal/logger"
	"github.com/localnerve/internportal/internal/services"
	"github.com/localnerve/internportal/internal/types"
	"github.com/localnerve/internportal/internal/utils"
)

// internalMessage replaces the detail of unclassified errors, which may carry
// driver text. The detail is logged instead.
const internalMessage = "Internal server error"

// ErrorHandler renders every error returned by a handler as the standard
// error envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code, message, errorType := classify(err)
	if code >= fiber.StatusInternalServerError {
		logger.Error("request failed", "method", c.Method(), "url", c.OriginalURL(), "err", err)
	}
	return utils.ErrorResponse(c, message, code, errorType)
}

func classify(err error) (int, string, string) {
	var custom *types.CustomError
	if errors.As(err, &custom) {
		return custom.Code, custom.Message, custom.Type
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		errorType := types.ErrorTypeUnknown
		if fe.Code == fiber.StatusNotFound {
			errorType = types.ErrorTypeNotFound
		}
		return fe.Code, fe.Message, errorType
	}

	message := err.Error()
	switch {
	case errors.Is(err, appstate.ErrInvalid),
		errors.Is(err, services.ErrPasswordMismatch),
		errors.Is(err, services.ErrPasswordTooShort),
		errors.Is(err, identity.ErrWeakPassword):
		return fiber.StatusBadRequest, message, types.ErrorTypeValidation
	case errors.Is(err, gateway.ErrNotFound):
		return fiber.StatusNotFound, message, types.ErrorTypeNotFound
	case errors.Is(err, identity.ErrInvalidCredentials),
		errors.Is(err, identity.ErrInvalidToken),
		errors.Is(err, identity.ErrNotSignedIn):
		return fiber.StatusUnauthorized, message, types.ErrorTypeAuth
	case errors.Is(err, services.ErrInternNotFound):
		return fiber.StatusForbidden, message, types.ErrorTypeForbidden
	case errors.Is(err, identity.ErrEmailTaken):
		return fiber.StatusConflict, message, types.ErrorTypeData
	case errors.Is(err, gateway.ErrNoRegistrar):
		return fiber.StatusNotImplemented, gateway.ErrNoRegistrar.Error(), types.ErrorTypeData
	}
	return fiber.StatusInternalServerError, internalMessage, types.ErrorTypeData
}
