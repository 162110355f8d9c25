// error.go
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

package types

import (
	"fmt"
	"net/http"
)

// Error types carried in the response envelope.
const (
	ErrorTypeAuth       = "auth"
	ErrorTypeForbidden  = "forbidden"
	ErrorTypeValidation = "validation"
	ErrorTypeNotFound   = "not_found"
	ErrorTypeData       = "data"
	ErrorTypeUnknown    = "unknown"
)

// CustomError is an error with an HTTP status and an envelope type.
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

// Unauthorized builds a 401 auth error.
func Unauthorized(message string) *CustomError {
	return &CustomError{Code: http.StatusUnauthorized, Message: message, Type: ErrorTypeAuth}
}

// Forbidden builds a 403 error.
func Forbidden(message string) *CustomError {
	return &CustomError{Code: http.StatusForbidden, Message: message, Type: ErrorTypeForbidden}
}

// Invalid builds a 400 validation error.
func Invalid(message string) *CustomError {
	return &CustomError{Code: http.StatusBadRequest, Message: message, Type: ErrorTypeValidation}
}
